package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Shine-Infosolutions/eventbackend/internal/model"
)

// PassTypeRepo provides CRUD over the pass_types table.
type PassTypeRepo struct {
	db *sql.DB
}

// NewPassTypeRepo returns a PassTypeRepo bound to db.
func NewPassTypeRepo(db *sql.DB) *PassTypeRepo { return &PassTypeRepo{db: db} }

const passTypeColumns = `id, name, price, max_people, no_of_people, no_of_passes,
	valid_for_event, description, is_active, created_at, updated_at`

func scanPassType(row interface{ Scan(...any) error }) (*model.PassType, error) {
	var p model.PassType
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.MaxPeople, &p.NoOfPeople, &p.NoOfPasses,
		&p.ValidForEvent, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts p, assigning a fresh id and timestamps.
func (r *PassTypeRepo) Create(ctx context.Context, p *model.PassType) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pass_types (`+passTypeColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Price, p.MaxPeople, p.NoOfPeople, p.NoOfPasses,
		p.ValidForEvent, p.Description, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetByID returns ErrNotFound when no pass type has the id.
func (r *PassTypeRepo) GetByID(ctx context.Context, id string) (*model.PassType, error) {
	p, err := scanPassType(r.db.QueryRowContext(ctx,
		`SELECT `+passTypeColumns+` FROM pass_types WHERE id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns pass types ordered by price, optionally active ones only.
func (r *PassTypeRepo) List(ctx context.Context, activeOnly bool) ([]model.PassType, error) {
	q := `SELECT ` + passTypeColumns + ` FROM pass_types`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY price ASC, name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PassType{}
	for rows.Next() {
		p, err := scanPassType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Update overwrites every editable column of p.
func (r *PassTypeRepo) Update(ctx context.Context, p *model.PassType) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE pass_types SET name = ?, price = ?, max_people = ?, no_of_people = ?, no_of_passes = ?,
			valid_for_event = ?, description = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Price, p.MaxPeople, p.NoOfPeople, p.NoOfPasses,
		p.ValidForEvent, p.Description, p.IsActive, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	// updated_at always changes, so zero rows means the id is unknown.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsReferenced reports whether any booking points at the pass type.
func (r *PassTypeRepo) IsReferenced(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM bookings WHERE pass_type_id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the pass type only while no booking references it.  The
// reference check and the delete run as one statement.
func (r *PassTypeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM pass_types
		 WHERE id = ? AND NOT EXISTS (SELECT 1 FROM bookings b WHERE b.pass_type_id = ?)`,
		id, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrInUse
}
