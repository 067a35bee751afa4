package model

import "time"

// CurrentCall marks an appointment as currently displayed on the queue
// board.  There is at most one row per appointment (unique key on
// appointment_id); recalling a patient refreshes CalledAt instead of
// inserting a second row.  Rows are deleted when the call is cleared,
// so the table only ever holds the live board state.
//
// Fields:
//  ID            – primary key identifier.
//  AppointmentID – appointment being called.
//  CalledAt      – timestamp of the latest (re)call.
type CurrentCall struct {
	ID            uint64    // current_calls.id
	AppointmentID uint64    // current_calls.appointment_id
	CalledAt      time.Time // current_calls.called_at
}
