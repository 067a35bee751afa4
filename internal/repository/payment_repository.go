package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/controllab/clinic-ops/internal/model"
)

// PaymentRepo is the treatment payment ledger.  Rows are append-only;
// totals are always derived by summing, never by mutating a balance.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// Create appends a payment for the patient.  The caller-supplied status
// records what the cashier observed at the till; the authoritative
// classification is always recomputed against expected accrual.
func (r *PaymentRepo) Create(ctx context.Context, p *model.TreatmentPayment) error {
	var exists uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM patients WHERE id = ?`, p.PatientID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrPatientNotFound
	}
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO treatment_payments (patient_id, amount_cents, status, payment_method, notes, recorded_by, paid_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.PatientID, p.AmountCents, p.Status, p.PaymentMethod, p.Notes, p.RecordedBy, p.PaidAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches one payment for receipt rendering, joined with the
// patient name.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.TreatmentPayment, string, error) {
	const q = `SELECT tp.id, tp.patient_id, p.first_name, p.last_name, tp.amount_cents, tp.status,
	                  tp.payment_method, tp.notes, tp.recorded_by, tp.paid_at
	           FROM treatment_payments tp
	           JOIN patients p ON p.id = tp.patient_id
	           WHERE tp.id = ?`
	var pay model.TreatmentPayment
	var first, last string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&pay.ID, &pay.PatientID, &first, &last, &pay.AmountCents, &pay.Status,
		&pay.PaymentMethod, &pay.Notes, &pay.RecordedBy, &pay.PaidAt,
	)
	if err == sql.ErrNoRows {
		return nil, "", ErrPaymentNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &pay, first + " " + last, nil
}

// ListByPatient returns the patient's payments newest first.
func (r *PaymentRepo) ListByPatient(ctx context.Context, patientID uint64) ([]model.TreatmentPayment, error) {
	const q = `SELECT id, patient_id, amount_cents, status, payment_method, notes, recorded_by, paid_at
	           FROM treatment_payments WHERE patient_id = ? ORDER BY paid_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TreatmentPayment, 0)
	for rows.Next() {
		var p model.TreatmentPayment
		if err := rows.Scan(&p.ID, &p.PatientID, &p.AmountCents, &p.Status, &p.PaymentMethod, &p.Notes, &p.RecordedBy, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SumByPatient returns the total amount the patient has paid toward
// treatment, in cents.
func (r *PaymentRepo) SumByPatient(ctx context.Context, patientID uint64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM treatment_payments WHERE patient_id = ?`,
		patientID,
	).Scan(&total)
	return total, err
}

// PaymentStats aggregates the ledger for the stats endpoint.
type PaymentStats struct {
	TodayCents    int64 `json:"today_cents"`
	MonthCents    int64 `json:"month_cents"`
	AllTimeCents  int64 `json:"all_time_cents"`
	TodayCount    int64 `json:"today_count"`
	AllTimeCount  int64 `json:"all_time_count"`
	DistinctPayer int64 `json:"distinct_patients"`
}

// Stats computes the daily, monthly and all-time rollups in one query
// per window.
func (r *PaymentRepo) Stats(ctx context.Context, now time.Time) (*PaymentStats, error) {
	day := now.Local().Format("2006-01-02")
	month := now.Local().Format("2006-01")
	var s PaymentStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*) FROM treatment_payments WHERE DATE(paid_at) = ?`,
		day,
	).Scan(&s.TodayCents, &s.TodayCount)
	if err != nil {
		return nil, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM treatment_payments WHERE DATE_FORMAT(paid_at, '%Y-%m') = ?`,
		month,
	).Scan(&s.MonthCents)
	if err != nil {
		return nil, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*), COUNT(DISTINCT patient_id) FROM treatment_payments`,
	).Scan(&s.AllTimeCents, &s.AllTimeCount, &s.DistinctPayer)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
