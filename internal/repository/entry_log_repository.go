package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Shine-Infosolutions/eventbackend/internal/model"
)

// EntryLogRepo records accepted gate entries.
type EntryLogRepo struct {
	db *sql.DB
}

func NewEntryLogRepo(db *sql.DB) *EntryLogRepo { return &EntryLogRepo{db: db} }

// EntryLogFilter narrows List.  Zero times leave that side open.
type EntryLogFilter struct {
	BookingID string
	From      time.Time
	To        time.Time
	Limit     int
}

// InsertTx writes l inside tx and sets its ID.
func (r *EntryLogRepo) InsertTx(ctx context.Context, tx *sql.Tx, l *model.EntryLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO entry_logs (booking_id, people, entered_after, scanned_by, staff_id, created_at)
		 VALUES (?,?,?,?,?,?)`,
		l.BookingID, l.People, l.EnteredAfter, l.ScannedBy, l.StaffID, l.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// List returns entries newest first, joined with the booking number and
// buyer name.
func (r *EntryLogRepo) List(ctx context.Context, f EntryLogFilter) ([]model.EntryLog, error) {
	where := []string{}
	args := []any{}
	if f.BookingID != "" {
		where = append(where, "l.booking_id = ?")
		args = append(args, f.BookingID)
	}
	if !f.From.IsZero() {
		where = append(where, "l.created_at >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where = append(where, "l.created_at <= ?")
		args = append(args, f.To)
	}
	q := `SELECT l.id, l.booking_id, b.booking_number, b.buyer_name, l.people, l.entered_after,
			l.scanned_by, l.staff_id, l.created_at
		FROM entry_logs l JOIN bookings b ON b.id = l.booking_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY l.created_at DESC, l.id DESC"
	if f.Limit <= 0 {
		f.Limit = 200
	}
	q += " LIMIT ?"
	args = append(args, f.Limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.EntryLog{}
	for rows.Next() {
		var l model.EntryLog
		if err := rows.Scan(&l.ID, &l.BookingID, &l.BookingNumber, &l.BuyerName, &l.People,
			&l.EnteredAfter, &l.ScannedBy, &l.StaffID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
