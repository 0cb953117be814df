package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"github.com/Shine-Infosolutions/eventbackend/internal/domain"
	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/queue"
	"github.com/Shine-Infosolutions/eventbackend/internal/repository"
)

// GateStore is the persistence the EntryTracker needs.
type GateStore interface {
	RecordEntry(ctx context.Context, rec repository.EntryRecord) (*model.Booking, *model.EntryLog, error)
	Search(ctx context.Context, query, idSuffix string, limit int) ([]model.Booking, error)
}

// EntryLogReader lists recorded entries.
type EntryLogReader interface {
	List(ctx context.Context, f repository.EntryLogFilter) ([]model.EntryLog, error)
}

// TokenResolver maps a scanned QR token to its booking id.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// EntryPublisher streams accepted entries.
type EntryPublisher interface {
	PublishEntry(ctx context.Context, ev queue.EntryRecordedEvent) error
}

// EntryTracker validates and records people passing the gate.
type EntryTracker struct {
	gate         GateStore
	ledger       *Ledger
	logs         EntryLogReader
	tokens       TokenResolver
	stream       EntryPublisher
	legacyPrefix string
	log          *logger.Logger
	clock        func() time.Time
}

func NewEntryTracker(gate GateStore, ledger *Ledger, logs EntryLogReader, tokens TokenResolver, stream EntryPublisher, log *logger.Logger) *EntryTracker {
	if log == nil {
		log = logger.Discard()
	}
	return &EntryTracker{
		gate:         gate,
		ledger:       ledger,
		logs:         logs,
		tokens:       tokens,
		stream:       stream,
		legacyPrefix: ledger.opts.LegacyPrefix,
		log:          log,
		clock:        func() time.Time { return time.Now().UTC() },
	}
}

// CheckInResult is the booking after an accepted entry.
type CheckInResult struct {
	Booking   *model.Booking   `json:"booking"`
	State     model.EntryState `json:"entry_status"`
	Remaining int              `json:"remaining"`
	Entry     *model.EntryLog  `json:"entry"`
}

// CheckIn admits count people on a booking.  Submissions that would pass
// total_people are rejected whole with a CapacityError; nothing is clamped.
func (t *EntryTracker) CheckIn(ctx context.Context, actor Actor, bookingID string, count int) (*CheckInResult, error) {
	if err := Authorize(actor.Role, CapCheckIn); err != nil {
		return nil, err
	}
	if strings.TrimSpace(bookingID) == "" {
		return nil, domain.ValidationError{Field: "booking_id", Msg: "is required"}
	}
	if count < 1 {
		return nil, domain.ValidationError{Field: "people_entered", Msg: "must be at least 1"}
	}

	b, entry, err := t.gate.RecordEntry(ctx, repository.EntryRecord{
		BookingID: bookingID,
		People:    count,
		ScannedBy: actor.Name,
		StaffID:   actor.UserID,
		At:        t.clock(),
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, domain.NotFoundError{Resource: "booking", Err: err}
	case errors.Is(err, repository.ErrOverCapacity):
		return nil, domain.CapacityError{Requested: count, Entered: b.PeopleEntered, Total: b.TotalPeople}
	case err != nil:
		return nil, err
	}

	Normalize(b, t.legacyPrefix)
	t.log.LogCheckIn(ctx, b.ID, count, b.PeopleEntered, b.TotalPeople, actor.Name)
	if t.stream != nil {
		ev := queue.EntryRecordedEvent{
			BookingID:     b.ID,
			DisplayID:     b.BookingID,
			People:        count,
			PeopleEntered: b.PeopleEntered,
			TotalPeople:   b.TotalPeople,
			ScannedBy:     actor.Name,
			StaffID:       actor.UserID,
			EnteredAt:     entry.CreatedAt.Format(time.RFC3339),
		}
		if err := t.stream.PublishEntry(ctx, ev); err != nil {
			t.log.WithError(err).WarnContext(ctx, "entry stream publish failed", "booking_id", b.ID)
		}
	}
	return &CheckInResult{Booking: b, State: b.EntryStatus, Remaining: b.Remaining(), Entry: entry}, nil
}

// Search is the gate lookup by display number, buyer name or phone.  A
// query carrying the legacy prefix also matches the virtual id of bookings
// that have no number.
func (t *EntryTracker) Search(ctx context.Context, actor Actor, query string) ([]model.Booking, error) {
	if err := Authorize(actor.Role, CapGateLookup); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ValidationError{Field: "query", Msg: "is required"}
	}
	var suffix string
	if p := t.legacyPrefix; len(query) > len(p) && strings.EqualFold(query[:len(p)], p) {
		suffix = query[len(p):]
	}
	out, err := t.gate.Search(ctx, query, suffix, 50)
	if err != nil {
		return nil, err
	}
	for i := range out {
		Normalize(&out[i], t.legacyPrefix)
	}
	return out, nil
}

// ScanToken resolves a QR token printed on a dispatched pass.
func (t *EntryTracker) ScanToken(ctx context.Context, actor Actor, token string) (*model.Booking, error) {
	if err := Authorize(actor.Role, CapGateLookup); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ValidationError{Field: "token", Msg: "is required"}
	}
	id, err := t.tokens.Resolve(ctx, token)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, domain.NotFoundError{Resource: "pass token", Err: err}
	case err != nil:
		return nil, domain.DependencyError{Dependency: "token store", Err: err}
	}
	return t.ledger.get(ctx, id)
}

// GateBookings is the booking list shown on gate devices.
func (t *EntryTracker) GateBookings(ctx context.Context, actor Actor, f repository.BookingFilter) ([]model.Booking, error) {
	if err := Authorize(actor.Role, CapGateLookup); err != nil {
		return nil, err
	}
	return t.ledger.list(ctx, f)
}

// EntryLogQuery filters Logs.  A non-zero Date selects that whole
// calendar day in the server's location.
type EntryLogQuery struct {
	BookingID string
	Date      time.Time
	Limit     int
}

// Logs lists recorded entries for admins.
func (t *EntryTracker) Logs(ctx context.Context, actor Actor, q EntryLogQuery) ([]model.EntryLog, error) {
	if err := Authorize(actor.Role, CapViewEntryLogs); err != nil {
		return nil, err
	}
	f := repository.EntryLogFilter{BookingID: q.BookingID, Limit: q.Limit}
	if !q.Date.IsZero() {
		day := now.With(q.Date)
		f.From, f.To = day.BeginningOfDay(), day.EndOfDay()
	}
	return t.logs.List(ctx, f)
}
