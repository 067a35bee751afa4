package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/controllab/clinic-ops/internal/model"
)

// CashRepo records front-desk cash transactions.  Each transaction gets
// a turn reference in the desk lane (a fixed letter plus a daily
// counter), issued inside the insert transaction so concurrent cashiers
// never mint the same reference.
type CashRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewCashRepo(db *sql.DB) *CashRepo {
	return &CashRepo{db: db, now: time.Now}
}

// Create inserts the transaction and issues its turn reference under
// the given desk letter.  The counter restarts at 1 each local day.
func (r *CashRepo) Create(ctx context.Context, deskLetter string, t *model.CashRegister) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM patients WHERE id = ?`, t.PatientID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrPatientNotFound
	}
	if err != nil {
		return err
	}

	// Lock today's newest desk reference so two inserts cannot read the
	// same last value.
	var lastRef sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT turn_reference FROM cash_register
		 WHERE turn_reference LIKE ? AND DATE(created_at) = ?
		 ORDER BY id DESC LIMIT 1 FOR UPDATE`,
		deskLetter+"%", r.now().Local().Format("2006-01-02"),
	).Scan(&lastRef)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	next := 1
	if lastRef.Valid {
		if n, perr := strconv.Atoi(strings.TrimPrefix(lastRef.String, deskLetter)); perr == nil {
			next = n + 1
		}
	}
	t.TurnReference = fmt.Sprintf("%s%03d", deskLetter, next)
	t.CreatedAt = r.now().UTC()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO cash_register (patient_id, doctor_id, transaction_type, amount_cents, payment_method, turn_reference, notes, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.PatientID, t.DoctorID, t.TransactionType, t.AmountCents, t.PaymentMethod, t.TurnReference, t.Notes, t.CreatedBy, t.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// TransactionRecord is one cash row joined with names for lists and
// receipts.
type TransactionRecord struct {
	model.CashRegister
	PatientName string  `json:"patient_name"`
	DoctorName  *string `json:"doctor_name,omitempty"`
}

// GetByID fetches one transaction for receipt rendering.
func (r *CashRepo) GetByID(ctx context.Context, id uint64) (*TransactionRecord, error) {
	const q = `SELECT cr.id, cr.patient_id, p.first_name, p.last_name, cr.doctor_id, d.name,
	                  cr.transaction_type, cr.amount_cents, cr.payment_method, cr.turn_reference,
	                  cr.notes, cr.created_by, cr.created_at
	           FROM cash_register cr
	           JOIN patients p ON p.id = cr.patient_id
	           LEFT JOIN doctors d ON d.id = cr.doctor_id
	           WHERE cr.id = ?`
	rec, err := scanTransaction(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecent returns the newest transactions, capped at limit.
func (r *CashRepo) ListRecent(ctx context.Context, limit int) ([]TransactionRecord, error) {
	const q = `SELECT cr.id, cr.patient_id, p.first_name, p.last_name, cr.doctor_id, d.name,
	                  cr.transaction_type, cr.amount_cents, cr.payment_method, cr.turn_reference,
	                  cr.notes, cr.created_by, cr.created_at
	           FROM cash_register cr
	           JOIN patients p ON p.id = cr.patient_id
	           LEFT JOIN doctors d ON d.id = cr.doctor_id
	           ORDER BY cr.created_at DESC, cr.id DESC LIMIT ?`
	return r.queryTransactions(ctx, q, limit)
}

// ListByPatient returns a patient's transactions newest first, for the
// statement view.
func (r *CashRepo) ListByPatient(ctx context.Context, patientID uint64) ([]TransactionRecord, error) {
	const q = `SELECT cr.id, cr.patient_id, p.first_name, p.last_name, cr.doctor_id, d.name,
	                  cr.transaction_type, cr.amount_cents, cr.payment_method, cr.turn_reference,
	                  cr.notes, cr.created_by, cr.created_at
	           FROM cash_register cr
	           JOIN patients p ON p.id = cr.patient_id
	           LEFT JOIN doctors d ON d.id = cr.doctor_id
	           WHERE cr.patient_id = ?
	           ORDER BY cr.created_at DESC, cr.id DESC`
	return r.queryTransactions(ctx, q, patientID)
}

func (r *CashRepo) queryTransactions(ctx context.Context, q string, args ...any) ([]TransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TransactionRecord, 0)
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*TransactionRecord, error) {
	var rec TransactionRecord
	var first, last string
	var doctorID sql.NullInt64
	var doctorName sql.NullString
	err := row.Scan(
		&rec.ID, &rec.PatientID, &first, &last, &doctorID, &doctorName,
		&rec.TransactionType, &rec.AmountCents, &rec.PaymentMethod, &rec.TurnReference,
		&rec.Notes, &rec.CreatedBy, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.PatientName = first + " " + last
	if doctorID.Valid {
		id := uint64(doctorID.Int64)
		rec.DoctorID = &id
	}
	if doctorName.Valid {
		n := doctorName.String
		rec.DoctorName = &n
	}
	return &rec, nil
}

// TypeTotal is one slice of a revenue breakdown.
type TypeTotal struct {
	Key        string `json:"key"`
	TotalCents int64  `json:"total_cents"`
	Count      int64  `json:"count"`
}

// DoctorRevenue is consultation revenue attributed to one doctor.
type DoctorRevenue struct {
	DoctorID   uint64 `json:"doctor_id"`
	DoctorName string `json:"doctor_name"`
	TotalCents int64  `json:"total_cents"`
	Count      int64  `json:"count"`
}

// TotalsByType breaks cash revenue down per transaction type since the
// given time.
func (r *CashRepo) TotalsByType(ctx context.Context, since time.Time) ([]TypeTotal, error) {
	const q = `SELECT transaction_type, COALESCE(SUM(amount_cents), 0), COUNT(*)
	           FROM cash_register WHERE created_at >= ?
	           GROUP BY transaction_type ORDER BY transaction_type`
	return r.queryTotals(ctx, q, since)
}

// TotalsByMethod breaks cash revenue down per payment method since the
// given time.
func (r *CashRepo) TotalsByMethod(ctx context.Context, since time.Time) ([]TypeTotal, error) {
	const q = `SELECT payment_method, COALESCE(SUM(amount_cents), 0), COUNT(*)
	           FROM cash_register WHERE created_at >= ?
	           GROUP BY payment_method ORDER BY payment_method`
	return r.queryTotals(ctx, q, since)
}

func (r *CashRepo) queryTotals(ctx context.Context, q string, since time.Time) ([]TypeTotal, error) {
	rows, err := r.db.QueryContext(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TypeTotal, 0)
	for rows.Next() {
		var t TypeTotal
		if err := rows.Scan(&t.Key, &t.TotalCents, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TotalsByDoctor attributes consultation revenue to doctors since the
// given time.
func (r *CashRepo) TotalsByDoctor(ctx context.Context, since time.Time) ([]DoctorRevenue, error) {
	const q = `SELECT d.id, d.name, COALESCE(SUM(cr.amount_cents), 0), COUNT(*)
	           FROM cash_register cr
	           JOIN doctors d ON d.id = cr.doctor_id
	           WHERE cr.created_at >= ?
	           GROUP BY d.id, d.name ORDER BY 3 DESC`
	rows, err := r.db.QueryContext(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]DoctorRevenue, 0)
	for rows.Next() {
		var dr DoctorRevenue
		if err := rows.Scan(&dr.DoctorID, &dr.DoctorName, &dr.TotalCents, &dr.Count); err != nil {
			return nil, err
		}
		out = append(out, dr)
	}
	return out, rows.Err()
}

// Total sums all cash revenue since the given time.
func (r *CashRepo) Total(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM cash_register WHERE created_at >= ?`,
		since,
	).Scan(&total)
	return total, err
}
