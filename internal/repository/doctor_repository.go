package repository

import (
	"context"
	"database/sql"

	"github.com/controllab/clinic-ops/internal/model"
)

// DoctorRepo provides persistence for the doctor directory.  Turn state
// is not managed here; see TurnRepo.
type DoctorRepo struct {
	db *sql.DB
}

// NewDoctorRepo returns a new DoctorRepo bound to the given database.
func NewDoctorRepo(db *sql.DB) *DoctorRepo { return &DoctorRepo{db: db} }

// Create inserts a doctor and populates the generated ID and timestamp.
func (r *DoctorRepo) Create(ctx context.Context, d *model.Doctor) error {
	const q = `INSERT INTO doctors (name, specialty, consultation_price_cents) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, d.Name, d.Specialty, d.ConsultationPriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	const sel = `SELECT created_at FROM doctors WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, d.ID).Scan(&d.CreatedAt)
}

// GetByID returns a doctor or ErrDoctorNotFound.
func (r *DoctorRepo) GetByID(ctx context.Context, id uint64) (*model.Doctor, error) {
	const q = `SELECT id, name, specialty, consultation_price_cents, created_at FROM doctors WHERE id = ?`
	var d model.Doctor
	err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.Name, &d.Specialty, &d.ConsultationPriceCents, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns all doctors ordered by name.
func (r *DoctorRepo) List(ctx context.Context) ([]model.Doctor, error) {
	const q = `SELECT id, name, specialty, consultation_price_cents, created_at FROM doctors ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Doctor, 0)
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.ConsultationPriceCents, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
