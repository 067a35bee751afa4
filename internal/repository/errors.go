// Package repository implements data access over MySQL.  Each aggregate
// gets its own repo type holding a *sql.DB; operations that must be
// atomic (turn issuance, room capacity checks, moves) run inside a
// transaction with row-level locks so concurrent requests cannot
// interleave a read-modify-write.  Sentinel errors defined here let
// handlers translate failures into HTTP statuses with errors.Is.
package repository

import "errors"

// ErrConflict is returned for invalid state transitions, such as
// discharging a registration that is already discharged.  Handlers
// translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrRoomFull is returned when assigning or moving a patient into a room
// whose active registrations already meet its capacity.  The failing
// call has no side effects.
var ErrRoomFull = errors.New("room is full")

// ErrLettersExhausted is returned when all 26 turn letters are claimed
// and a new doctor sequence cannot be created.  Operator intervention is
// required; the system itself keeps running.
var ErrLettersExhausted = errors.New("no turn letters available")

// Not-found sentinels, one per referenced entity so handlers can report
// which lookup failed.
var (
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrCallNotFound         = errors.New("call not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
)
