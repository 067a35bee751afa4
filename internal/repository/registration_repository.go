package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/controllab/clinic-ops/internal/model"
)

// RegistrationRepo manages treatment-room stays.  Assign and Move run
// the capacity check and the insert in one transaction with the room row
// locked FOR UPDATE, so two concurrent assignments cannot both pass the
// check and overfill the room.
type RegistrationRepo struct {
	db *sql.DB
	// now is stubbed in tests; production uses time.Now.
	now func() time.Time
}

// NewRegistrationRepo returns a new RegistrationRepo bound to the given
// database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo {
	return &RegistrationRepo{db: db, now: time.Now}
}

// Assign opens a stay for the patient in the given room.  The patient's
// most recent appointment is linked to the stay, and the expected charge
// is seeded with one day's rate (day 1 is charged up front).  Fails with
// ErrPatientNotFound / ErrRoomNotFound / ErrAppointmentNotFound when a
// reference is missing and ErrRoomFull when the room is at capacity; a
// failed call leaves no rows behind.
func (r *RegistrationRepo) Assign(ctx context.Context, patientID, roomID uint64) (*model.TreatmentRegistration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM patients WHERE id = ?`, patientID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}

	price, err := r.lockRoomAndCheckCapacityTx(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}

	var appointmentID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM appointments WHERE patient_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		patientID,
	).Scan(&appointmentID)
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}

	assignedAt := r.now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO treatment_registrations (patient_id, room_id, appointment_id, assigned_at, expected_accrued_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		patientID, roomID, appointmentID, assignedAt, price,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	rid := roomID
	return &model.TreatmentRegistration{
		ID:                   uint64(id),
		PatientID:            patientID,
		RoomID:               &rid,
		AppointmentID:        appointmentID,
		AssignedAt:           assignedAt,
		ExpectedAccruedCents: price,
	}, nil
}

// Discharge closes an active stay.  A second discharge fails with
// ErrConflict and never re-applies; discharged registrations are
// immutable history.
func (r *RegistrationRepo) Discharge(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE treatment_registrations SET discharged_at = ? WHERE id = ? AND discharged_at IS NULL`,
		r.now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM treatment_registrations WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrRegistrationNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// Move relocates an active stay into another room: the old registration
// is discharged and a new one is created in the destination with the
// same patient, appointment and original assigned_at, so billing days
// keep counting from the start of the stay.  The destination capacity
// check is the same as Assign's.  Fails with ErrRegistrationNotFound /
// ErrRoomNotFound, ErrConflict when the stay is already discharged and
// ErrRoomFull when the destination is at capacity.
func (r *RegistrationRepo) Move(ctx context.Context, id, newRoomID uint64) (*model.TreatmentRegistration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		patientID     uint64
		appointmentID uint64
		assignedAt    time.Time
		dischargedAt  sql.NullTime
		expected      int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT patient_id, appointment_id, assigned_at, discharged_at, expected_accrued_cents
		 FROM treatment_registrations WHERE id = ? FOR UPDATE`,
		id,
	).Scan(&patientID, &appointmentID, &assignedAt, &dischargedAt, &expected)
	if err == sql.ErrNoRows {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	if dischargedAt.Valid {
		return nil, ErrConflict
	}

	if _, err := r.lockRoomAndCheckCapacityTx(ctx, tx, newRoomID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE treatment_registrations SET discharged_at = ? WHERE id = ?`,
		r.now().UTC(), id,
	); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO treatment_registrations (patient_id, room_id, appointment_id, assigned_at, expected_accrued_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		patientID, newRoomID, appointmentID, assignedAt, expected,
	)
	if err != nil {
		return nil, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	rid := newRoomID
	return &model.TreatmentRegistration{
		ID:                   uint64(newID),
		PatientID:            patientID,
		RoomID:               &rid,
		AppointmentID:        appointmentID,
		AssignedAt:           assignedAt,
		ExpectedAccruedCents: expected,
	}, nil
}

// lockRoomAndCheckCapacityTx locks the room row and verifies there is a
// free bed.  The lock serializes every capacity check against the same
// room until the surrounding transaction commits.  Returns the room's
// daily rate on success.
func (r *RegistrationRepo) lockRoomAndCheckCapacityTx(ctx context.Context, tx *sql.Tx, roomID uint64) (int64, error) {
	var capacity int
	var price int64
	err := tx.QueryRowContext(ctx,
		`SELECT capacity, price_per_day_cents FROM treatment_rooms WHERE id = ? FOR UPDATE`,
		roomID,
	).Scan(&capacity, &price)
	if err == sql.ErrNoRows {
		return 0, ErrRoomNotFound
	}
	if err != nil {
		return 0, err
	}
	var active int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM treatment_registrations WHERE room_id = ? AND discharged_at IS NULL`,
		roomID,
	).Scan(&active); err != nil {
		return 0, err
	}
	if active >= capacity {
		return 0, ErrRoomFull
	}
	return price, nil
}

// Occupant is one patient currently in a room, for the status view.
type Occupant struct {
	RegistrationID uint64 `json:"registration_id"`
	PatientID      uint64 `json:"patient_id"`
	PatientName    string `json:"patient_name"`
}

// ActiveOccupants returns the patients currently registered in the room.
func (r *RegistrationRepo) ActiveOccupants(ctx context.Context, roomID uint64) ([]Occupant, error) {
	const q = `SELECT tr.id, p.id, p.first_name, p.last_name
	           FROM treatment_registrations tr
	           JOIN patients p ON p.id = tr.patient_id
	           WHERE tr.room_id = ? AND tr.discharged_at IS NULL
	           ORDER BY tr.assigned_at, tr.id`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Occupant, 0)
	for rows.Next() {
		var o Occupant
		var first, last string
		if err := rows.Scan(&o.RegistrationID, &o.PatientID, &first, &last); err != nil {
			return nil, err
		}
		o.PatientName = first + " " + last
		out = append(out, o)
	}
	return out, rows.Err()
}

// ActiveStay holds the billing-relevant fields of one active
// registration, joined with its room.  RoomID and PricePerDayCents are
// null when the room was deleted under the stay; the billing sweep skips
// and logs those.
type ActiveStay struct {
	RegistrationID       uint64
	PatientID            uint64
	PatientName          string
	RoomID               *uint64
	PricePerDayCents     *int64
	AssignedAt           time.Time
	ExpectedAccruedCents int64
}

// ListActiveStays returns every undischarged registration with its room
// pricing, for the reconciler and the payments board.
func (r *RegistrationRepo) ListActiveStays(ctx context.Context) ([]ActiveStay, error) {
	const q = `SELECT tr.id, tr.patient_id, p.first_name, p.last_name, tr.room_id, rm.price_per_day_cents,
	                  tr.assigned_at, tr.expected_accrued_cents
	           FROM treatment_registrations tr
	           JOIN patients p ON p.id = tr.patient_id
	           LEFT JOIN treatment_rooms rm ON rm.id = tr.room_id
	           WHERE tr.discharged_at IS NULL
	           ORDER BY tr.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ActiveStay, 0)
	for rows.Next() {
		var s ActiveStay
		var first, last string
		var roomID sql.NullInt64
		var price sql.NullInt64
		if err := rows.Scan(&s.RegistrationID, &s.PatientID, &first, &last, &roomID, &price, &s.AssignedAt, &s.ExpectedAccruedCents); err != nil {
			return nil, err
		}
		s.PatientName = first + " " + last
		if roomID.Valid {
			id := uint64(roomID.Int64)
			s.RoomID = &id
		}
		if price.Valid {
			p := price.Int64
			s.PricePerDayCents = &p
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ActiveStaysByRoom is ListActiveStays scoped to one room, for the
// per-room payments roster.
func (r *RegistrationRepo) ActiveStaysByRoom(ctx context.Context, roomID uint64) ([]ActiveStay, error) {
	const q = `SELECT tr.id, tr.patient_id, p.first_name, p.last_name, tr.room_id, rm.price_per_day_cents,
	                  tr.assigned_at, tr.expected_accrued_cents
	           FROM treatment_registrations tr
	           JOIN patients p ON p.id = tr.patient_id
	           LEFT JOIN treatment_rooms rm ON rm.id = tr.room_id
	           WHERE tr.discharged_at IS NULL AND tr.room_id = ?
	           ORDER BY tr.assigned_at, tr.id`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ActiveStay, 0)
	for rows.Next() {
		var s ActiveStay
		var first, last string
		var rid sql.NullInt64
		var price sql.NullInt64
		if err := rows.Scan(&s.RegistrationID, &s.PatientID, &first, &last, &rid, &price, &s.AssignedAt, &s.ExpectedAccruedCents); err != nil {
			return nil, err
		}
		s.PatientName = first + " " + last
		if rid.Valid {
			id := uint64(rid.Int64)
			s.RoomID = &id
		}
		if price.Valid {
			p := price.Int64
			s.PricePerDayCents = &p
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RatchetExpected raises the expected accrued charge to newExpected if
// and only if it is higher than the stored value.  The guard makes the
// sweep idempotent and keeps the charge monotonically non-decreasing.
// Returns true when the row changed.
func (r *RegistrationRepo) RatchetExpected(ctx context.Context, id uint64, newExpected int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE treatment_registrations SET expected_accrued_cents = ? WHERE id = ? AND expected_accrued_cents < ?`,
		newExpected, id, newExpected,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// StayRecord is one row of the room history view, discharged stays
// included.
type StayRecord struct {
	ID                   uint64     `json:"id"`
	PatientID            uint64     `json:"patient_id"`
	PatientName          string     `json:"patient_name"`
	RoomID               *uint64    `json:"room_id,omitempty"`
	RoomName             *string    `json:"room_name,omitempty"`
	AssignedAt           time.Time  `json:"assigned_at"`
	DischargedAt         *time.Time `json:"discharged_at,omitempty"`
	ExpectedAccruedCents int64      `json:"expected_accrued_cents"`
}

// History returns all registrations newest first.
func (r *RegistrationRepo) History(ctx context.Context) ([]StayRecord, error) {
	const q = `SELECT tr.id, tr.patient_id, p.first_name, p.last_name, tr.room_id, rm.name,
	                  tr.assigned_at, tr.discharged_at, tr.expected_accrued_cents
	           FROM treatment_registrations tr
	           JOIN patients p ON p.id = tr.patient_id
	           LEFT JOIN treatment_rooms rm ON rm.id = tr.room_id
	           ORDER BY tr.assigned_at DESC, tr.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]StayRecord, 0)
	for rows.Next() {
		var rec StayRecord
		var first, last string
		var roomID sql.NullInt64
		var roomName sql.NullString
		var discharged sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.PatientID, &first, &last, &roomID, &roomName, &rec.AssignedAt, &discharged, &rec.ExpectedAccruedCents); err != nil {
			return nil, err
		}
		rec.PatientName = first + " " + last
		if roomID.Valid {
			id := uint64(roomID.Int64)
			rec.RoomID = &id
		}
		if roomName.Valid {
			n := roomName.String
			rec.RoomName = &n
		}
		if discharged.Valid {
			t := discharged.Time
			rec.DischargedAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ActiveByPatient returns the patient's current stay, or
// ErrRegistrationNotFound when they are not in a room.  Used to credit
// the treating doctor on receipts.
func (r *RegistrationRepo) ActiveByPatient(ctx context.Context, patientID uint64) (*model.TreatmentRegistration, error) {
	const q = `SELECT id, patient_id, room_id, appointment_id, assigned_at, discharged_at, expected_accrued_cents
	           FROM treatment_registrations
	           WHERE patient_id = ? AND discharged_at IS NULL
	           ORDER BY assigned_at DESC, id DESC LIMIT 1`
	var reg model.TreatmentRegistration
	var roomID sql.NullInt64
	var discharged sql.NullTime
	err := r.db.QueryRowContext(ctx, q, patientID).Scan(
		&reg.ID, &reg.PatientID, &roomID, &reg.AppointmentID, &reg.AssignedAt, &discharged, &reg.ExpectedAccruedCents,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	if roomID.Valid {
		id := uint64(roomID.Int64)
		reg.RoomID = &id
	}
	if discharged.Valid {
		t := discharged.Time
		reg.DischargedAt = &t
	}
	return &reg, nil
}
