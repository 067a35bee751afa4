// Package queue defines the payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// PaymentRecordedEvent is published whenever money is taken, at the
// cash desk or against a treatment stay.  It carries enough context for
// downstream consumers (audit log, notifications) to act without
// querying the primary database.
type PaymentRecordedEvent struct {
	PaymentID       uint64 `json:"payment_id"`
	PatientID       uint64 `json:"patient_id"`
	PatientName     string `json:"patient_name"`
	Source          string `json:"source"` // "cash_register" or "treatment"
	TransactionType string `json:"transaction_type,omitempty"`
	AmountCents     int64  `json:"amount_cents"`
	Method          string `json:"method"`
	TurnReference   string `json:"turn_reference,omitempty"`
	RecordedBy      uint64 `json:"recorded_by"`
	RecordedAt      string `json:"recorded_at"`
}
