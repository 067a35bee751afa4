package repository

import (
	"context"
	"database/sql"
	"time"
)

// CallRepo manages the live queue board state in current_calls.  The
// table holds at most one row per appointment (unique key on
// appointment_id); Call upserts so recalling a patient only refreshes
// the timestamp.  Reads are plain snapshots; the board is a polling
// display and tolerates slight staleness.
type CallRepo struct {
	db *sql.DB
}

// NewCallRepo returns a new CallRepo bound to the given database.
func NewCallRepo(db *sql.DB) *CallRepo { return &CallRepo{db: db} }

// BoardEntry is one line on the queue display.
type BoardEntry struct {
	AppointmentID uint64 `json:"id"`
	TurnNumber    string `json:"turn_number"`
	PatientName   string `json:"patient_name"`
}

// Call marks the appointment as currently called, refreshing called_at
// when a call already exists.  Returns ErrAppointmentNotFound when the
// appointment does not exist.  The upsert is atomic on the unique key,
// so concurrent calls for the same appointment cannot duplicate rows.
func (r *CallRepo) Call(ctx context.Context, appointmentID uint64, calledAt time.Time) error {
	var exists uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM appointments WHERE id = ?`, appointmentID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return err
	}
	const q = `INSERT INTO current_calls (appointment_id, called_at) VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE called_at = VALUES(called_at)`
	_, err = r.db.ExecContext(ctx, q, appointmentID, calledAt.UTC())
	return err
}

// Clear removes the active call for the appointment.  Returns
// ErrCallNotFound when there is none.
func (r *CallRepo) Clear(ctx context.Context, appointmentID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM current_calls WHERE appointment_id = ?`, appointmentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCallNotFound
	}
	return nil
}

// ListCalled returns every appointment currently on the board, most
// recent call first, plus the number of calls skipped because their
// appointment carries no turn number.  Such rows come from legacy
// creation paths; the board cannot place them in a lane, so they are
// filtered here and the caller logs the count.
func (r *CallRepo) ListCalled(ctx context.Context) ([]BoardEntry, int, error) {
	const q = `SELECT a.id, a.turn_number, p.first_name, p.last_name
	           FROM current_calls cc
	           JOIN appointments a ON a.id = cc.appointment_id
	           JOIN patients p ON p.id = a.patient_id
	           ORDER BY cc.called_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	entries := make([]BoardEntry, 0)
	skipped := 0
	for rows.Next() {
		var e BoardEntry
		var turn sql.NullString
		var first, last string
		if err := rows.Scan(&e.AppointmentID, &turn, &first, &last); err != nil {
			return nil, 0, err
		}
		if !turn.Valid || turn.String == "" {
			skipped++
			continue
		}
		e.TurnNumber = turn.String
		e.PatientName = first + " " + last
		entries = append(entries, e)
	}
	return entries, skipped, rows.Err()
}

// ListQueued returns queued appointments that hold a turn number but
// have no active call, in creation order.  This is the "waiting to be
// called" section of the board.
func (r *CallRepo) ListQueued(ctx context.Context) ([]BoardEntry, error) {
	const q = `SELECT a.id, a.turn_number, p.first_name, p.last_name
	           FROM appointments a
	           JOIN patients p ON p.id = a.patient_id
	           WHERE a.status = 'queued'
	             AND a.turn_number IS NOT NULL
	             AND a.id NOT IN (SELECT appointment_id FROM current_calls)
	           ORDER BY a.created_at, a.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]BoardEntry, 0)
	for rows.Next() {
		var e BoardEntry
		var first, last string
		if err := rows.Scan(&e.AppointmentID, &e.TurnNumber, &first, &last); err != nil {
			return nil, err
		}
		e.PatientName = first + " " + last
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
