package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shine-Infosolutions/eventbackend/internal/model"
)

// ErrOverCapacity is returned by RecordEntry when the increment would push
// people_entered past total_people.  The booking is returned alongside it
// with its unchanged counters.
var ErrOverCapacity = errors.New("entry exceeds booking capacity")

// GateRepo records check-ins: the guarded counter increment and the entry
// log row commit or roll back together.
type GateRepo struct {
	bookings *BookingRepo
	logs     *EntryLogRepo
}

func NewGateRepo(bookings *BookingRepo, logs *EntryLogRepo) *GateRepo {
	return &GateRepo{bookings: bookings, logs: logs}
}

// EntryRecord describes one accepted scan.
type EntryRecord struct {
	BookingID string
	People    int
	ScannedBy string
	StaffID   uint64
	At        time.Time
}

// RecordEntry applies rec.  On success it returns the booking as committed
// and the written log row.
func (r *GateRepo) RecordEntry(ctx context.Context, rec EntryRecord) (*model.Booking, *model.EntryLog, error) {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	tx, err := r.bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ok, err := r.bookings.IncrementEnteredTx(ctx, tx, rec.BookingID, rec.People, rec.ScannedBy, rec.At)
	if err != nil {
		return nil, nil, err
	}
	b, err := r.bookings.GetByIDTx(ctx, tx, rec.BookingID)
	if err != nil {
		return nil, nil, err // ErrNotFound when the id is unknown
	}
	if !ok {
		return b, nil, ErrOverCapacity
	}

	entry := &model.EntryLog{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		BuyerName:     b.BuyerName,
		People:        rec.People,
		EnteredAfter:  b.PeopleEntered,
		ScannedBy:     rec.ScannedBy,
		StaffID:       rec.StaffID,
		CreatedAt:     rec.At,
	}
	if err := r.logs.InsertTx(ctx, tx, entry); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return b, entry, nil
}

// Search is the gate lookup over the bookings table.
func (r *GateRepo) Search(ctx context.Context, query, idSuffix string, limit int) ([]model.Booking, error) {
	return r.bookings.Search(ctx, query, idSuffix, limit)
}
