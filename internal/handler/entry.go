package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Shine-Infosolutions/eventbackend/internal/domain"
	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
	"github.com/Shine-Infosolutions/eventbackend/internal/middleware"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/repository"
	"github.com/Shine-Infosolutions/eventbackend/internal/service"
)

// GateTracker is the entry tracker behind /v1/entry.
type GateTracker interface {
	CheckIn(ctx context.Context, actor service.Actor, bookingID string, count int) (*service.CheckInResult, error)
	Search(ctx context.Context, actor service.Actor, query string) ([]model.Booking, error)
	ScanToken(ctx context.Context, actor service.Actor, token string) (*model.Booking, error)
	GateBookings(ctx context.Context, actor service.Actor, f repository.BookingFilter) ([]model.Booking, error)
	Logs(ctx context.Context, actor service.Actor, q service.EntryLogQuery) ([]model.EntryLog, error)
}

// EntryHandler serves the gate desk.
type EntryHandler struct {
	Tracker GateTracker
	Log     *logger.Logger
}

func NewEntryHandler(tracker GateTracker, log *logger.Logger) *EntryHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &EntryHandler{Tracker: tracker, Log: log}
}

type searchReq struct {
	Query string `json:"query" validate:"required"`
}

type scanReq struct {
	Token string `json:"token" validate:"required"`
}

type checkInReq struct {
	BookingID     string `json:"booking_id" validate:"required"`
	PeopleEntered int    `json:"people_entered" validate:"required,min=1"`
}

// Bookings is the booking list on gate devices; it takes the staff list
// filters.
func (h *EntryHandler) Bookings(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	f, err := filterFromQuery(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	items, err := h.Tracker.GateBookings(c.Request().Context(), actor, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *EntryHandler) Search(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	var req searchReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	items, err := h.Tracker.Search(c.Request().Context(), actor, req.Query)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Scan resolves the QR token read off a pass.
func (h *EntryHandler) Scan(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	var req scanReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := h.Tracker.ScanToken(c.Request().Context(), actor, req.Token)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *EntryHandler) CheckIn(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	var req checkInReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.Tracker.CheckIn(c.Request().Context(), actor, req.BookingID, req.PeopleEntered)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Logs lists entries; ?date=YYYY-MM-DD selects one day.
func (h *EntryHandler) Logs(c echo.Context) error {
	actor, _ := middleware.CurrentActor(c)
	q := service.EntryLogQuery{BookingID: c.QueryParam("booking_id")}
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return respondError(c, h.Log, domain.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"})
		}
		q.Date = d
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	q.Limit = limit
	items, err := h.Tracker.Logs(c.Request().Context(), actor, q)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items)
}
