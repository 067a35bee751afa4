package model

import "time"

// Cash register transaction types.  Consultation transactions are routed
// to the doctor lane on the board; everything else goes through the
// service desk lane.
const (
	TxConsultation = "consultation"
	TxService      = "service"
	TxTreatment    = "treatment"
	TxOther        = "other"
)

// CashRegister is one front-desk cash transaction.  Each transaction is
// stamped with a service-desk turn reference (prefix letter plus daily
// counter, e.g. "B014") issued by the cash repository so the desk queue
// shares the same board as doctor turns.
//
// Fields:
//  ID              – primary key identifier.
//  PatientID       – patient the money was taken for.
//  DoctorID        – doctor credited for consultation transactions (nil otherwise).
//  TransactionType – one of the Tx* constants.
//  AmountCents     – amount in cents.
//  PaymentMethod   – one of the Method* constants.
//  TurnReference   – desk queue code stamped at creation.
//  Notes           – optional free-form note.
//  CreatedBy       – user id of the cashier.
//  CreatedAt       – transaction timestamp.
type CashRegister struct {
	ID              uint64    // cash_register.id
	PatientID       uint64    // cash_register.patient_id
	DoctorID        *uint64   // cash_register.doctor_id (nullable)
	TransactionType string    // cash_register.transaction_type
	AmountCents     int64     // cash_register.amount_cents
	PaymentMethod   string    // cash_register.payment_method
	TurnReference   string    // cash_register.turn_reference
	Notes           string    // cash_register.notes
	CreatedBy       uint64    // cash_register.created_by
	CreatedAt       time.Time // cash_register.created_at
}

// ValidTransactionType reports whether t is a known transaction type.
func ValidTransactionType(t string) bool {
	switch t {
	case TxConsultation, TxService, TxTreatment, TxOther:
		return true
	}
	return false
}
