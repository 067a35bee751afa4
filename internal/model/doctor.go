package model

import "time"

// Doctor represents a consulting physician in the clinic.  Each doctor
// owns at most one TurnSequence which is created lazily the first time
// a turn code is issued for them.
//
// Fields:
//  ID                     – primary key identifier.
//  Name                   – display name used on tickets and the board.
//  Specialty              – medical specialty label.
//  ConsultationPriceCents – price of one consultation in cents.
//  CreatedAt              – creation timestamp.
type Doctor struct {
	ID                     uint64    // doctors.id
	Name                   string    // doctors.name
	Specialty              string    // doctors.specialty
	ConsultationPriceCents int64     // doctors.consultation_price_cents
	CreatedAt              time.Time // doctors.created_at
}

// TurnSequence holds the per-doctor turn numbering state.  The letter is
// unique across all doctors and is claimed from the unused A–Z pool when
// the sequence is created, which caps the clinic at 26 active sequences.
// CurrentNumber restarts at 1 the first time the sequence is used on a
// new calendar day.
//
// Fields:
//  ID            – primary key identifier.
//  DoctorID      – owning doctor (one sequence per doctor).
//  Letter        – single letter A–Z, unique among all sequences.
//  CurrentNumber – last issued number for LastResetDate.
//  LastResetDate – calendar day the counter was last reset on.
type TurnSequence struct {
	ID            uint64    // turn_sequences.id
	DoctorID      uint64    // turn_sequences.doctor_id
	Letter        string    // turn_sequences.letter
	CurrentNumber int       // turn_sequences.current_number
	LastResetDate time.Time // turn_sequences.last_reset_date (date only)
}
