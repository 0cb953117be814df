package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shine-Infosolutions/eventbackend/internal/domain"
	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/repository"
)

// BookingStore is the persistence the Ledger needs.
type BookingStore interface {
	NumberSource
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	FindByPhone(ctx context.Context, phone string) (*model.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error)
	Update(ctx context.Context, b *model.Booking) error
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error
	Delete(ctx context.Context, id string) error
}

// PassTypeReader resolves the category of a booking.
type PassTypeReader interface {
	GetByID(ctx context.Context, id string) (*model.PassType, error)
}

// TokenRevoker drops live QR tokens of a deleted booking.
type TokenRevoker interface {
	Revoke(ctx context.Context, bookingID string) error
}

// LedgerOptions carries the booking policy.
type LedgerOptions struct {
	UniquePhone  bool
	MaxAttempts  int
	LegacyPrefix string
}

// Ledger owns booking records.
type Ledger struct {
	store     BookingStore
	passTypes PassTypeReader
	alloc     *Allocator
	tokens    TokenRevoker
	opts      LedgerOptions
	log       *logger.Logger
}

func NewLedger(store BookingStore, passTypes PassTypeReader, tokens TokenRevoker, opts LedgerOptions, log *logger.Logger) *Ledger {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 5
	}
	if opts.LegacyPrefix == "" {
		opts.LegacyPrefix = DefaultLegacyPrefix
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Ledger{
		store:     store,
		passTypes: passTypes,
		alloc:     NewAllocator(store, opts.LegacyPrefix),
		tokens:    tokens,
		opts:      opts,
		log:       log,
	}
}

// CreateBookingInput is a new booking as submitted by the sales desk.
// Zero values take the documented defaults.
type CreateBookingInput struct {
	PassTypeID        string              `json:"pass_type_id" validate:"required"`
	BuyerName         string              `json:"buyer_name" validate:"required"`
	BuyerPhone        string              `json:"buyer_phone"`
	PassHolders       []model.PassHolder  `json:"pass_holders"`
	TotalPeople       int                 `json:"total_people" validate:"omitempty,min=1"`
	TotalPasses       int                 `json:"total_passes" validate:"omitempty,min=1"`
	PaymentStatus     model.PaymentStatus `json:"payment_status"`
	MarkAsPaid        bool                `json:"mark_as_paid"`
	PaymentMode       model.PaymentMode   `json:"payment_mode"`
	Notes             string              `json:"notes"`
	PaymentScreenshot string              `json:"payment_screenshot"`
}

// UpdateBookingInput replaces the fields that are set.
type UpdateBookingInput struct {
	BuyerName         *string              `json:"buyer_name"`
	BuyerPhone        *string              `json:"buyer_phone"`
	PassHolders       *[]model.PassHolder  `json:"pass_holders"`
	TotalPeople       *int                 `json:"total_people" validate:"omitempty,min=1"`
	PaymentStatus     *model.PaymentStatus `json:"payment_status"`
	PaymentMode       *model.PaymentMode   `json:"payment_mode"`
	Notes             *string              `json:"notes"`
	PaymentScreenshot *string              `json:"payment_screenshot"`
}

// Create validates in against its category, allocates a display number and
// persists the booking.  When another request takes the same number first
// the number is recomputed, up to MaxAttempts times.
func (l *Ledger) Create(ctx context.Context, actor Actor, in CreateBookingInput) (*model.Booking, error) {
	if err := Authorize(actor.Role, CapCreateBooking); err != nil {
		return nil, err
	}
	buyer := strings.TrimSpace(in.BuyerName)
	if buyer == "" {
		return nil, domain.ValidationError{Field: "buyer_name", Msg: "is required"}
	}
	if strings.TrimSpace(in.PassTypeID) == "" {
		return nil, domain.ValidationError{Field: "pass_type_id", Msg: "is required"}
	}
	pt, err := l.passTypes.GetByID(ctx, in.PassTypeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ValidationError{Field: "pass_type_id", Msg: "unknown pass type", Err: err}
	}
	if err != nil {
		return nil, domain.DependencyError{Dependency: "pass catalog", Err: err}
	}
	if !pt.IsActive {
		return nil, domain.ValidationError{Field: "pass_type_id", Msg: "pass type is not on sale"}
	}

	people := in.TotalPeople
	if people == 0 {
		people = pt.MaxPeople
	}
	if people < 1 || people > pt.MaxPeople {
		return nil, domain.ValidationError{Field: "total_people",
			Msg: fmt.Sprintf("must be between 1 and %d for %s", pt.MaxPeople, pt.Name)}
	}
	passes := in.TotalPasses
	if passes == 0 {
		passes = 1
	}
	if passes < 1 {
		return nil, domain.ValidationError{Field: "total_passes", Msg: "must be at least 1"}
	}

	status := in.PaymentStatus
	if status == "" {
		status = model.PaymentPending
		if in.MarkAsPaid {
			status = model.PaymentPaid
		}
	}
	if !status.Valid() {
		return nil, domain.ValidationError{Field: "payment_status", Msg: "must be Pending, Paid or Refunded"}
	}
	mode := in.PaymentMode
	if mode == "" {
		mode = model.PaymentCash
	}
	if !mode.Valid() {
		return nil, domain.ValidationError{Field: "payment_mode", Msg: "must be Cash, UPI, Card or Online"}
	}

	phone := strings.TrimSpace(in.BuyerPhone)
	if l.opts.UniquePhone && phone != "" {
		prior, err := l.store.FindByPhone(ctx, phone)
		switch {
		case err == nil:
			Normalize(prior, l.opts.LegacyPrefix)
			return nil, domain.ConflictError{
				Resource: "booking",
				Msg:      "a booking already exists for this phone number",
				Details: model.BookingSummary{
					ID:            prior.ID,
					BookingID:     prior.BookingID,
					BuyerName:     prior.BuyerName,
					PaymentStatus: prior.PaymentStatus,
				},
			}
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	var screenshot *string
	if s := strings.TrimSpace(in.PaymentScreenshot); s != "" {
		screenshot = &s
	}
	b := &model.Booking{
		PassTypeID:        pt.ID,
		PassTypeName:      pt.Name,
		PassTypePrice:     pt.Price,
		BuyerName:         buyer,
		BuyerPhone:        phone,
		PassHolders:       in.PassHolders,
		TotalPeople:       people,
		TotalPasses:       passes,
		TotalAmount:       pt.Price * int64(people),
		PaymentStatus:     status,
		PaymentMode:       mode,
		Notes:             in.Notes,
		PaymentScreenshot: screenshot,
	}

	for attempt := 1; attempt <= l.opts.MaxAttempts; attempt++ {
		alloc, err := l.alloc.Next(ctx, pt.Name)
		if err != nil {
			return nil, err
		}
		b.BookingNumber = alloc.Number
		b.NumberBand = alloc.Band.Key

		err = l.store.Create(ctx, b)
		if err == nil {
			l.log.LogBookingCreated(ctx, b.ID, b.BookingNumber, pt.Name, attempt)
			return Normalize(b, l.opts.LegacyPrefix), nil
		}
		if !errors.Is(err, repository.ErrDuplicateBookingNumber) {
			return nil, err
		}
		l.log.LogAllocationRetry(ctx, alloc.Number, attempt)
	}
	return nil, domain.ConflictError{
		Resource: "booking number",
		Msg:      fmt.Sprintf("no free number after %d attempts", l.opts.MaxAttempts),
		Err:      repository.ErrDuplicateBookingNumber,
	}
}

func (l *Ledger) get(ctx context.Context, id string) (*model.Booking, error) {
	b, err := l.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return nil, err
	}
	return Normalize(b, l.opts.LegacyPrefix), nil
}

// Get returns one booking for any staff member.
func (l *Ledger) Get(ctx context.Context, actor Actor, id string) (*model.Booking, error) {
	if err := Authorize(actor.Role, CapViewBookings); err != nil {
		return nil, err
	}
	return l.get(ctx, id)
}

// GetPublic backs the unauthenticated pass page and the PDF pass.
func (l *Ledger) GetPublic(ctx context.Context, id string) (*model.Booking, error) {
	return l.get(ctx, id)
}

// List returns bookings matching f, newest first.
func (l *Ledger) List(ctx context.Context, actor Actor, f repository.BookingFilter) ([]model.Booking, error) {
	if err := Authorize(actor.Role, CapViewBookings); err != nil {
		return nil, err
	}
	return l.list(ctx, f)
}

func (l *Ledger) list(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error) {
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return nil, domain.ValidationError{Field: "payment_status", Msg: "must be Pending, Paid or Refunded"}
	}
	if f.EntryStatus != "" && !f.EntryStatus.Valid() {
		return nil, domain.ValidationError{Field: "entry_status", Msg: "must be Pending-Entry, Partially-Entered or Fully-Entered"}
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, domain.ValidationError{Msg: "limit and offset must not be negative"}
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	out, err := l.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range out {
		Normalize(&out[i], l.opts.LegacyPrefix)
	}
	return out, nil
}

// Update applies a partial edit.  total_people must stay between the
// people already admitted and the category maximum.
func (l *Ledger) Update(ctx context.Context, actor Actor, id string, in UpdateBookingInput) (*model.Booking, error) {
	if err := Authorize(actor.Role, CapUpdateBooking); err != nil {
		return nil, err
	}
	b, err := l.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.BuyerName != nil {
		name := strings.TrimSpace(*in.BuyerName)
		if name == "" {
			return nil, domain.ValidationError{Field: "buyer_name", Msg: "must not be empty"}
		}
		b.BuyerName = name
	}
	if in.BuyerPhone != nil {
		b.BuyerPhone = strings.TrimSpace(*in.BuyerPhone)
	}
	if in.PassHolders != nil {
		b.PassHolders = *in.PassHolders
	}
	if in.PaymentStatus != nil {
		if !in.PaymentStatus.Valid() {
			return nil, domain.ValidationError{Field: "payment_status", Msg: "must be Pending, Paid or Refunded"}
		}
		b.PaymentStatus = *in.PaymentStatus
	}
	if in.PaymentMode != nil {
		if !in.PaymentMode.Valid() {
			return nil, domain.ValidationError{Field: "payment_mode", Msg: "must be Cash, UPI, Card or Online"}
		}
		b.PaymentMode = *in.PaymentMode
	}
	if in.Notes != nil {
		b.Notes = *in.Notes
	}
	if in.PaymentScreenshot != nil {
		b.PaymentScreenshot = in.PaymentScreenshot
	}
	if in.TotalPeople != nil {
		n := *in.TotalPeople
		if n < 1 || n < b.PeopleEntered {
			return nil, domain.ValidationError{Field: "total_people",
				Msg: fmt.Sprintf("must be at least %d", max(1, b.PeopleEntered))}
		}
		pt, err := l.passTypes.GetByID(ctx, b.PassTypeID)
		switch {
		case err == nil:
			if n > pt.MaxPeople {
				return nil, domain.ValidationError{Field: "total_people",
					Msg: fmt.Sprintf("must not exceed %d for %s", pt.MaxPeople, pt.Name)}
			}
		case !errors.Is(err, repository.ErrNotFound):
			return nil, domain.DependencyError{Dependency: "pass catalog", Err: err}
		}
		b.TotalPeople = n
	}

	err = l.store.Update(ctx, b)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, domain.NotFoundError{Resource: "booking", Err: err}
	case errors.Is(err, repository.ErrEnteredExceedsTotal):
		return nil, domain.ValidationError{Field: "total_people", Msg: "is below the number already admitted", Err: err}
	case err != nil:
		return nil, err
	}
	return Normalize(b, l.opts.LegacyPrefix), nil
}

// UpdatePaymentStatus changes only the payment status.
func (l *Ledger) UpdatePaymentStatus(ctx context.Context, actor Actor, id string, status model.PaymentStatus) (*model.Booking, error) {
	if err := Authorize(actor.Role, CapUpdatePayment); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.ValidationError{Field: "payment_status", Msg: "must be Pending, Paid or Refunded"}
	}
	b, err := l.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.store.UpdatePaymentStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return nil, err
	}
	b.PaymentStatus = status
	return b, nil
}

// Delete removes the booking and revokes its pass token.
func (l *Ledger) Delete(ctx context.Context, actor Actor, id string) error {
	if err := Authorize(actor.Role, CapDeleteBooking); err != nil {
		return err
	}
	if err := l.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFoundError{Resource: "booking", Err: err}
		}
		return err
	}
	if l.tokens != nil {
		if err := l.tokens.Revoke(ctx, id); err != nil {
			l.log.WithError(err).WarnContext(ctx, "revoke pass token after delete", "booking_id", id)
		}
	}
	return nil
}

// NextNumber previews the number the next booking of a category would get.
func (l *Ledger) NextNumber(ctx context.Context, actor Actor, passTypeName string) (string, error) {
	if err := Authorize(actor.Role, CapPreviewNumber); err != nil {
		return "", err
	}
	if strings.TrimSpace(passTypeName) == "" {
		return "", domain.ValidationError{Field: "pass_type", Msg: "is required"}
	}
	return l.alloc.Preview(ctx, passTypeName)
}

// Normalize fills the computed and defaulted fields of b in place.  Every
// booking leaving the ledger or the gate tracker passes through here.
func Normalize(b *model.Booking, legacyPrefix string) *model.Booking {
	if b == nil {
		return nil
	}
	if b.PassHolders == nil {
		b.PassHolders = []model.PassHolder{}
	}
	b.BookingID = DisplayID(b, legacyPrefix)
	b.EntryStatus = b.State()
	if b.PaymentScreenshot != nil && strings.TrimSpace(*b.PaymentScreenshot) == "" {
		b.PaymentScreenshot = nil
	}
	return b
}

// DisplayID is the booking number, or for bookings without one the legacy
// prefix followed by the last six characters of the id.
func DisplayID(b *model.Booking, legacyPrefix string) string {
	if b.BookingNumber != "" {
		return b.BookingNumber
	}
	id := b.ID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return legacyPrefix + id
}
