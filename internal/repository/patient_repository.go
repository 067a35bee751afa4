package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/controllab/clinic-ops/internal/model"
)

// PatientRepo provides persistence for patients registered at the front
// desk.
type PatientRepo struct {
	db *sql.DB
}

// NewPatientRepo returns a new PatientRepo bound to the given database.
func NewPatientRepo(db *sql.DB) *PatientRepo { return &PatientRepo{db: db} }

// Create inserts a patient and populates the generated ID and timestamp.
func (r *PatientRepo) Create(ctx context.Context, p *model.Patient) error {
	const q = `INSERT INTO patients (first_name, last_name, age, phone, address, doctor_id) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.FirstName, p.LastName, p.Age, p.Phone, p.Address, p.DoctorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT created_at FROM patients WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt)
}

// GetByID returns a patient or ErrPatientNotFound.
func (r *PatientRepo) GetByID(ctx context.Context, id uint64) (*model.Patient, error) {
	const q = `SELECT id, first_name, last_name, age, phone, address, doctor_id, created_at FROM patients WHERE id = ?`
	var p model.Patient
	var age sql.NullInt64
	var doctorID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.FirstName, &p.LastName, &age, &p.Phone, &p.Address, &doctorID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	if age.Valid {
		a := int(age.Int64)
		p.Age = &a
	}
	if doctorID.Valid {
		d := uint64(doctorID.Int64)
		p.DoctorID = &d
	}
	return &p, nil
}

// List returns patients newest first.
func (r *PatientRepo) List(ctx context.Context) ([]model.Patient, error) {
	const q = `SELECT id, first_name, last_name, age, phone, address, doctor_id, created_at
	           FROM patients ORDER BY created_at DESC`
	return r.scanPatients(ctx, q)
}

// RecentSince returns patients registered at or after the cutoff, newest
// first.  The desk uses this for the "last N days" views.
func (r *PatientRepo) RecentSince(ctx context.Context, since time.Time) ([]model.Patient, error) {
	const q = `SELECT id, first_name, last_name, age, phone, address, doctor_id, created_at
	           FROM patients WHERE created_at >= ? ORDER BY created_at DESC`
	return r.scanPatients(ctx, q, since.UTC())
}

func (r *PatientRepo) scanPatients(ctx context.Context, q string, args ...interface{}) ([]model.Patient, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Patient, 0)
	for rows.Next() {
		var p model.Patient
		var age sql.NullInt64
		var doctorID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &age, &p.Phone, &p.Address, &doctorID, &p.CreatedAt); err != nil {
			return nil, err
		}
		if age.Valid {
			a := int(age.Int64)
			p.Age = &a
		}
		if doctorID.Valid {
			d := uint64(doctorID.Int64)
			p.DoctorID = &d
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
