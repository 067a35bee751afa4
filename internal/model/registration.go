package model

import "time"

// TreatmentRegistration ties a patient to a treatment room for a stay.
// A registration with a nil DischargedAt is "active" and counts against
// the room's capacity.  Moving a patient discharges the old registration
// and creates a new one that keeps the original AssignedAt, so elapsed
// stay time survives room changes.  RoomID is nullable because rooms may
// be deleted while their registration history is kept.
//
// ExpectedAccruedCents is the charge the reconciler expects for the stay
// so far (days elapsed times the room's daily rate).  Cash actually
// received lives in the TreatmentPayment ledger, never here.
//
// Fields:
//  ID                   – primary key identifier.
//  PatientID            – patient occupying the bed.
//  RoomID               – room of the stay (nil after room deletion).
//  AppointmentID        – appointment the stay was opened under.
//  AssignedAt           – start of the stay (day 1 of billing).
//  DischargedAt         – end of the stay (nil while active).
//  ExpectedAccruedCents – accrued room charge, monotonically ratcheted.
type TreatmentRegistration struct {
	ID                   uint64     // treatment_registrations.id
	PatientID            uint64     // treatment_registrations.patient_id
	RoomID               *uint64    // treatment_registrations.room_id (nullable)
	AppointmentID        uint64     // treatment_registrations.appointment_id
	AssignedAt           time.Time  // treatment_registrations.assigned_at
	DischargedAt         *time.Time // treatment_registrations.discharged_at (nullable)
	ExpectedAccruedCents int64      // treatment_registrations.expected_accrued_cents
}

// Active reports whether the registration still occupies a bed.
func (r TreatmentRegistration) Active() bool {
	return r.DischargedAt == nil
}
