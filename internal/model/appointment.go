package model

import "time"

// Appointment lifecycle states.  An appointment starts queued and moves
// to exactly one of the terminal states; it is never reopened.
const (
	AppointmentQueued    = "queued"
	AppointmentAssigned  = "assigned"
	AppointmentCancelled = "cancelled"
	AppointmentDone      = "done"
)

// Appointment records a patient visit request for a specific doctor.
// The turn number is the queue ticket printed for the patient; it is
// assigned at creation when the visit goes through the front desk and
// may be empty for appointments created through legacy paths.
//
// Fields:
//  ID         – primary key identifier.
//  PatientID  – visiting patient.
//  DoctorID   – doctor the visit is for.
//  Reason     – free-form reason for the visit.
//  Status     – one of the Appointment* constants.
//  TurnNumber – turn code such as "A007" (nil when never issued).
//  CreatedAt  – creation timestamp; also orders the waiting list.
type Appointment struct {
	ID         uint64    // appointments.id
	PatientID  uint64    // appointments.patient_id
	DoctorID   uint64    // appointments.doctor_id
	Reason     string    // appointments.reason
	Status     string    // appointments.status
	TurnNumber *string   // appointments.turn_number (nullable)
	CreatedAt  time.Time // appointments.created_at
}

// ValidAppointmentStatus reports whether s is a known lifecycle state.
func ValidAppointmentStatus(s string) bool {
	switch s {
	case AppointmentQueued, AppointmentAssigned, AppointmentCancelled, AppointmentDone:
		return true
	}
	return false
}
