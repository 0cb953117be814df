package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Shine-Infosolutions/eventbackend/internal/model"
)

// ErrEnteredExceedsTotal is returned by Update when the new total_people
// would fall below the number of people already through the gate.
var ErrEnteredExceedsTotal = errors.New("people entered exceeds total people")

// BookingRepo provides persistence for bookings.  Pass holders are stored
// as a JSON array column.  Every read joins pass_types so callers receive
// the live category name and price, falling back to the snapshot taken at
// creation when the category is gone.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the handle so services can open transactions spanning
// several repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// BookingFilter narrows List.  Zero values mean "no filter".
type BookingFilter struct {
	Search        string
	PassTypeID    string
	PaymentStatus model.PaymentStatus
	EntryStatus   model.EntryState
	Limit         int
	Offset        int
}

const bookingSelect = `SELECT b.id, b.pass_type_id,
		COALESCE(pt.name, b.pass_type_name), COALESCE(pt.price, b.pass_type_price),
		b.number_band, b.booking_number, b.buyer_name, b.buyer_phone, b.pass_holders,
		b.total_people, b.total_passes, b.total_amount, b.people_entered,
		b.payment_status, b.payment_mode, b.notes, b.payment_screenshot,
		b.checked_in, b.checked_in_at, b.scanned_by, b.created_at, b.updated_at
	FROM bookings b
	LEFT JOIN pass_types pt ON pt.id = b.pass_type_id`

type rowScanner interface {
	Scan(dest ...any) error
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b           model.Booking
		holders     []byte
		status      string
		mode        string
		screenshot  sql.NullString
		scannedBy   sql.NullString
		checkedInAt sql.NullTime
	)
	if err := row.Scan(
		&b.ID, &b.PassTypeID, &b.PassTypeName, &b.PassTypePrice,
		&b.NumberBand, &b.BookingNumber, &b.BuyerName, &b.BuyerPhone, &holders,
		&b.TotalPeople, &b.TotalPasses, &b.TotalAmount, &b.PeopleEntered,
		&status, &mode, &b.Notes, &screenshot,
		&b.CheckedIn, &checkedInAt, &scannedBy, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(holders) > 0 {
		if err := json.Unmarshal(holders, &b.PassHolders); err != nil {
			return nil, fmt.Errorf("decode pass_holders of %s: %w", b.ID, err)
		}
	}
	b.PaymentStatus = model.PaymentStatus(status)
	b.PaymentMode = model.PaymentMode(mode)
	if screenshot.Valid {
		s := screenshot.String
		b.PaymentScreenshot = &s
	}
	if scannedBy.Valid {
		s := scannedBy.String
		b.ScannedBy = &s
	}
	if checkedInAt.Valid {
		t := checkedInAt.Time
		b.CheckedInAt = &t
	}
	return &b, nil
}

func encodeHolders(h []model.PassHolder) ([]byte, error) {
	if h == nil {
		h = []model.PassHolder{}
	}
	return json.Marshal(h)
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// likeEscape protects user input placed inside a LIKE pattern.
func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Create inserts b.  A collision on the booking_number key is reported as
// ErrDuplicateBookingNumber so the caller can allocate again.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	holders, err := encodeHolders(b.PassHolders)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, pass_type_id, pass_type_name, pass_type_price, number_band, booking_number,
			buyer_name, buyer_phone, pass_holders, total_people, total_passes, total_amount, people_entered,
			payment_status, payment_mode, notes, payment_screenshot, checked_in, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.PassTypeID, b.PassTypeName, b.PassTypePrice, b.NumberBand, b.BookingNumber,
		b.BuyerName, b.BuyerPhone, holders, b.TotalPeople, b.TotalPasses, b.TotalAmount, b.PeopleEntered,
		string(b.PaymentStatus), string(b.PaymentMode), b.Notes, nullable(b.PaymentScreenshot), b.CheckedIn,
		b.CreatedAt, b.UpdatedAt)
	if key, dup := duplicateKey(err); dup && key != "PRIMARY" {
		return ErrDuplicateBookingNumber
	}
	return err
}

func (r *BookingRepo) getByID(ctx context.Context, q queryRower, id string) (*model.Booking, error) {
	b, err := scanBooking(q.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetByID returns ErrNotFound when no booking has the id.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return r.getByID(ctx, r.db, id)
}

// GetByIDTx reads a booking inside tx, seeing the transaction's own writes.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Booking, error) {
	return r.getByID(ctx, tx, id)
}

// FindByPhone returns the earliest booking made with phone.
func (r *BookingRepo) FindByPhone(ctx context.Context, phone string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		bookingSelect+` WHERE b.buyer_phone = ? ORDER BY b.created_at ASC LIMIT 1`, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// TopNumbersInBand returns one page of the booking numbers stored in a
// band, highest counter first.  The counter is the number with prefix
// stripped, cast to an unsigned integer the way MySQL casts strings, so
// malformed values still come back in some position and are left for the
// allocator to skip.
func (r *BookingRepo) TopNumbersInBand(ctx context.Context, band, prefix string, limit, offset int) ([]string, error) {
	n := utf8.RuneCountInString(prefix)
	rows, err := r.db.QueryContext(ctx,
		`SELECT booking_number FROM bookings
		 WHERE number_band = ? AND booking_number IS NOT NULL
		 ORDER BY CAST(CASE WHEN LEFT(TRIM(booking_number), ?) = ?
		                    THEN SUBSTRING(TRIM(booking_number), ?)
		                    ELSE TRIM(booking_number) END AS UNSIGNED) DESC,
		          booking_number DESC
		 LIMIT ? OFFSET ?`,
		band, n, prefix, n+1, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var num sql.NullString
		if err := rows.Scan(&num); err != nil {
			return nil, err
		}
		if num.Valid {
			out = append(out, num.String)
		}
	}
	return out, rows.Err()
}

// List returns bookings matching f, newest first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	where := []string{}
	args := []any{}

	if s := strings.TrimSpace(f.Search); s != "" {
		p := "%" + likeEscape(strings.ToLower(s)) + "%"
		where = append(where, "(LOWER(b.buyer_name) LIKE ? OR b.buyer_phone LIKE ? OR LOWER(b.booking_number) LIKE ?)")
		args = append(args, p, p, p)
	}
	if f.PassTypeID != "" {
		where = append(where, "b.pass_type_id = ?")
		args = append(args, f.PassTypeID)
	}
	if f.PaymentStatus != "" {
		where = append(where, "b.payment_status = ?")
		args = append(args, string(f.PaymentStatus))
	}
	switch f.EntryStatus {
	case model.EntryPending:
		where = append(where, "b.people_entered = 0")
	case model.EntryPartial:
		where = append(where, "b.people_entered > 0 AND b.people_entered < b.total_people")
	case model.EntryFull:
		where = append(where, "b.people_entered >= b.total_people")
	}

	q := bookingSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY b.created_at DESC"
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	return r.query(ctx, q, args...)
}

// Search is the gate lookup: exact display number, buyer name substring
// (case-insensitive) or phone substring.  idSuffix, when set, also matches
// bookings whose id ends with it.
func (r *BookingRepo) Search(ctx context.Context, query, idSuffix string, limit int) ([]model.Booking, error) {
	query = strings.TrimSpace(query)
	p := "%" + likeEscape(strings.ToLower(query)) + "%"
	cond := "b.booking_number = ? OR LOWER(b.buyer_name) LIKE ? OR b.buyer_phone LIKE ?"
	args := []any{query, p, p}
	if idSuffix != "" {
		cond += " OR b.id LIKE ?"
		args = append(args, "%"+likeEscape(strings.ToLower(idSuffix)))
	}
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	return r.query(ctx, bookingSelect+" WHERE "+cond+" ORDER BY b.created_at DESC LIMIT ?", args...)
}

func (r *BookingRepo) query(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// NumberTaken reports whether any booking, in any band, holds number.
func (r *BookingRepo) NumberTaken(ctx context.Context, number string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM bookings WHERE booking_number = ? LIMIT 1`, number).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update writes the mutable booking fields.  booking_number, total_amount,
// the category and the gate counters are never touched here.
func (r *BookingRepo) Update(ctx context.Context, b *model.Booking) error {
	holders, err := encodeHolders(b.PassHolders)
	if err != nil {
		return err
	}
	b.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET buyer_name = ?, buyer_phone = ?, pass_holders = ?, total_people = ?,
			payment_status = ?, payment_mode = ?, notes = ?, payment_screenshot = ?, updated_at = ?
		 WHERE id = ? AND people_entered <= ?`,
		b.BuyerName, b.BuyerPhone, holders, b.TotalPeople,
		string(b.PaymentStatus), string(b.PaymentMode), b.Notes, nullable(b.PaymentScreenshot), b.UpdatedAt,
		b.ID, b.TotalPeople)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}
	// No row matched: unknown id or the guard tripped.
	var entered int
	err = r.db.QueryRowContext(ctx, `SELECT people_entered FROM bookings WHERE id = ?`, b.ID).Scan(&entered)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return err
	case entered > b.TotalPeople:
		return ErrEnteredExceedsTotal
	}
	return nil
}

// UpdatePaymentStatus sets only payment_status.  It returns ErrNotFound
// when the booking is gone.
func (r *BookingRepo) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a booking and, through the foreign key, its entry logs.
func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementEnteredTx adds n to people_entered only if the result stays
// within total_people.  It is a single conditional UPDATE, so two gate
// devices scanning the same pass cannot both pass the bound.  The first
// accepted entry stamps checked_in_at; scanned_by always names the latest
// scanner.  It returns false when the guard rejected the increment or the
// booking does not exist.
func (r *BookingRepo) IncrementEnteredTx(ctx context.Context, tx *sql.Tx, id string, n int, scannedBy string, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings
		 SET people_entered = people_entered + ?,
		     checked_in = 1,
		     checked_in_at = COALESCE(checked_in_at, ?),
		     scanned_by = ?,
		     updated_at = ?
		 WHERE id = ? AND people_entered + ? <= total_people`,
		n, at, scannedBy, at, id, n)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
