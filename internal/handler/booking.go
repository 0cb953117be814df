package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Shine-Infosolutions/eventbackend/internal/domain"
	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
	"github.com/Shine-Infosolutions/eventbackend/internal/middleware"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/render"
	"github.com/Shine-Infosolutions/eventbackend/internal/repository"
	"github.com/Shine-Infosolutions/eventbackend/internal/service"
)

// BookingLedger is the ledger service behind the booking routes.
type BookingLedger interface {
	Create(ctx context.Context, actor service.Actor, in service.CreateBookingInput) (*model.Booking, error)
	Get(ctx context.Context, actor service.Actor, id string) (*model.Booking, error)
	GetPublic(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, actor service.Actor, f repository.BookingFilter) ([]model.Booking, error)
	Update(ctx context.Context, actor service.Actor, id string, in service.UpdateBookingInput) (*model.Booking, error)
	UpdatePaymentStatus(ctx context.Context, actor service.Actor, id string, status model.PaymentStatus) (*model.Booking, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	NextNumber(ctx context.Context, actor service.Actor, passTypeName string) (string, error)
}

// PassResender queues a pass for delivery.
type PassResender interface {
	Resend(ctx context.Context, actor service.Actor, bookingID string, in service.ResendInput) (*service.DeliveryResult, error)
}

// BookingHandler serves /v1/bookings.
type BookingHandler struct {
	Ledger    BookingLedger
	Notifier  PassResender
	EventName string
	Log       *logger.Logger
}

func NewBookingHandler(ledger BookingLedger, notifier PassResender, eventName string, log *logger.Logger) *BookingHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &BookingHandler{Ledger: ledger, Notifier: notifier, EventName: eventName, Log: log}
}

type paymentReq struct {
	PaymentStatus model.PaymentStatus `json:"payment_status" validate:"required"`
}

// publicPass is what the unauthenticated pass page shows.  Staff notes and
// the payment screenshot stay private.
type publicPass struct {
	ID            string              `json:"id"`
	BookingID     string              `json:"booking_id"`
	EventName     string              `json:"event_name"`
	PassTypeName  string              `json:"pass_type_name"`
	BuyerName     string              `json:"buyer_name"`
	PassHolders   []model.PassHolder  `json:"pass_holders"`
	TotalPeople   int                 `json:"total_people"`
	TotalAmount   int64               `json:"total_amount"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	PeopleEntered int                 `json:"people_entered"`
	EntryStatus   model.EntryState    `json:"entry_status"`
}

// filterFromQuery reads the shared list filters of the staff and gate
// booking lists.
func filterFromQuery(c echo.Context) (repository.BookingFilter, error) {
	f := repository.BookingFilter{
		Search:        c.QueryParam("search"),
		PassTypeID:    c.QueryParam("pass_type_id"),
		PaymentStatus: model.PaymentStatus(c.QueryParam("payment_status")),
		EntryStatus:   model.EntryState(c.QueryParam("entry_status")),
	}
	var err error
	if f.Limit, err = intQuery(c, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intQuery(c, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ValidationError{Field: name, Msg: "must be an integer"}
	}
	return n, nil
}

func (h *BookingHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	var in service.CreateBookingInput
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := h.Ledger.Create(c.Request().Context(), actor, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) List(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	f, err := filterFromQuery(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	items, err := h.Ledger.List(c.Request().Context(), actor, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items)
}

// NextNumber previews the next number for ?pass_type=<category name>.
func (h *BookingHandler) NextNumber(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	name := c.QueryParam("pass_type")
	n, err := h.Ledger.NextNumber(c.Request().Context(), actor, name)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pass_type": name, "booking_number": n})
}

func (h *BookingHandler) Get(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	b, err := h.Ledger.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Public is the pass page opened from a dispatched link.
func (h *BookingHandler) Public(c echo.Context) error {
	b, err := h.Ledger.GetPublic(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, publicPass{
		ID:            b.ID,
		BookingID:     b.BookingID,
		EventName:     h.EventName,
		PassTypeName:  b.PassTypeName,
		BuyerName:     b.BuyerName,
		PassHolders:   b.PassHolders,
		TotalPeople:   b.TotalPeople,
		TotalAmount:   b.TotalAmount,
		PaymentStatus: b.PaymentStatus,
		PeopleEntered: b.PeopleEntered,
		EntryStatus:   b.EntryStatus,
	})
}

// PassPDF renders the printable pass.
func (h *BookingHandler) PassPDF(c echo.Context) error {
	b, err := h.Ledger.GetPublic(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	pdf, err := render.PassPDF(render.PassFromBooking(h.EventName, b))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", "pass-"+b.BookingID+".pdf"))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func (h *BookingHandler) Update(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	var in service.UpdateBookingInput
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := h.Ledger.Update(c.Request().Context(), actor, c.Param("id"), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) UpdatePayment(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	var req paymentReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := h.Ledger.UpdatePaymentStatus(c.Request().Context(), actor, c.Param("id"), req.PaymentStatus)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Delete(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	if err := h.Ledger.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Resend queues the pass on the requested channel.
func (h *BookingHandler) Resend(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	var in service.ResendInput
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.Notifier.Resend(c.Request().Context(), actor, c.Param("id"), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusAccepted, res)
}
