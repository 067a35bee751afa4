package repository

import (
	"context"
	"database/sql"

	"github.com/controllab/clinic-ops/internal/model"
)

// AppointmentRepo provides persistence for appointments.  The waiting
// list and the "latest appointment" linkage used by room assignment are
// both ordered by created_at; ties fall back to id so the ordering is
// total.
type AppointmentRepo struct {
	db *sql.DB
}

// NewAppointmentRepo returns a new AppointmentRepo bound to the given
// database.
func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{db: db} }

// Create inserts an appointment and populates the generated ID and
// timestamp.
func (r *AppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	const q = `INSERT INTO appointments (patient_id, doctor_id, reason, status, turn_number) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, a.PatientID, a.DoctorID, a.Reason, a.Status, a.TurnNumber)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	const sel = `SELECT created_at FROM appointments WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, a.ID).Scan(&a.CreatedAt)
}

// GetByID returns an appointment or ErrAppointmentNotFound.
func (r *AppointmentRepo) GetByID(ctx context.Context, id uint64) (*model.Appointment, error) {
	const q = `SELECT id, patient_id, doctor_id, reason, status, turn_number, created_at FROM appointments WHERE id = ?`
	var a model.Appointment
	var turn sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Reason, &a.Status, &turn, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	if turn.Valid {
		t := turn.String
		a.TurnNumber = &t
	}
	return &a, nil
}

// LatestByPatient returns the patient's most recently created
// appointment, or ErrAppointmentNotFound when they have none.  This is
// the documented "latest appointment" linkage used when opening a room
// stay; it assumes one live visit per patient at a time.
func (r *AppointmentRepo) LatestByPatient(ctx context.Context, patientID uint64) (*model.Appointment, error) {
	const q = `SELECT id, patient_id, doctor_id, reason, status, turn_number, created_at
	           FROM appointments WHERE patient_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`
	var a model.Appointment
	var turn sql.NullString
	err := r.db.QueryRowContext(ctx, q, patientID).Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Reason, &a.Status, &turn, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	if turn.Valid {
		t := turn.String
		a.TurnNumber = &t
	}
	return &a, nil
}

// ListByDoctor returns all appointments for a doctor in creation order,
// along with how many are still queued.  Backs the doctor's worklist.
func (r *AppointmentRepo) ListByDoctor(ctx context.Context, doctorID uint64) ([]model.Appointment, int, error) {
	const q = `SELECT id, patient_id, doctor_id, reason, status, turn_number, created_at
	           FROM appointments WHERE doctor_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, doctorID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Appointment, 0)
	queued := 0
	for rows.Next() {
		var a model.Appointment
		var turn sql.NullString
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Reason, &a.Status, &turn, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		if turn.Valid {
			t := turn.String
			a.TurnNumber = &t
		}
		if a.Status == model.AppointmentQueued {
			queued++
		}
		out = append(out, a)
	}
	return out, queued, rows.Err()
}

// UpdateStatus moves an appointment to a new lifecycle state.  Terminal
// states (cancelled, done) are frozen: an appointment is never reopened,
// so updating one returns ErrConflict.
func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE appointments SET status = ? WHERE id = ? AND status IN ('queued', 'assigned')`
	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from a terminal one.
		var cur string
		err := r.db.QueryRowContext(ctx, `SELECT status FROM appointments WHERE id = ?`, id).Scan(&cur)
		if err == sql.ErrNoRows {
			return ErrAppointmentNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}
