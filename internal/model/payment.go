package model

import "time"

// Payment status values recorded on ledger entries.
const (
	PaymentPaid    = "paid"
	PaymentPartial = "partial"
	PaymentUnpaid  = "unpaid"
	// PaymentPrepaid is never stored; it is computed when the ledger sum
	// exceeds the expected accrued charge.
	PaymentPrepaid = "prepaid"
)

// Payment methods accepted at the desk.
const (
	MethodCash      = "cash"
	MethodCard      = "card"
	MethodInsurance = "insurance"
	MethodTransfer  = "transfer"
)

// TreatmentPayment is one append-only ledger entry for money received
// toward a patient's treatment-room charges.  Entries are never mutated
// after creation; corrections are new entries.
//
// Fields:
//  ID            – primary key identifier.
//  PatientID     – paying patient.
//  AmountCents   – amount received in cents.
//  Status        – paid/partial/unpaid as recorded at the desk.
//  PaymentMethod – one of the Method* constants.
//  Notes         – optional free-form note.
//  RecordedBy    – user id of the cashier who took the payment.
//  PaidAt        – timestamp of the payment.
type TreatmentPayment struct {
	ID            uint64    // treatment_payments.id
	PatientID     uint64    // treatment_payments.patient_id
	AmountCents   int64     // treatment_payments.amount_cents
	Status        string    // treatment_payments.status
	PaymentMethod string    // treatment_payments.payment_method
	Notes         string    // treatment_payments.notes
	RecordedBy    uint64    // treatment_payments.recorded_by
	PaidAt        time.Time // treatment_payments.paid_at
}

// ClassifyPayment compares the ledger sum against the expected accrued
// charge and returns the authoritative status plus any overpaid amount.
// paid == 0 is unpaid, paid below expected is partial, paid equal to
// expected is paid, and paid above expected is prepaid with the surplus
// reported.
func ClassifyPayment(paidCents, expectedCents int64) (status string, overpaidCents int64) {
	switch {
	case paidCents <= 0:
		return PaymentUnpaid, 0
	case paidCents < expectedCents:
		return PaymentPartial, 0
	case paidCents == expectedCents:
		return PaymentPaid, 0
	default:
		return PaymentPrepaid, paidCents - expectedCents
	}
}

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case MethodCash, MethodCard, MethodInsurance, MethodTransfer:
		return true
	}
	return false
}
