package model

import "time"

// TreatmentRoom is an inpatient room with a fixed bed capacity and a
// daily rate.  Occupancy is not stored on the room; it is derived from
// undischarged registrations, and the capacity invariant is enforced in
// the registration repository under a row lock on the room.
//
// Fields:
//  ID               – primary key identifier.
//  Name             – room label, e.g. "101".
//  Capacity         – number of beds (positive).
//  Floor            – floor label for the payments board.
//  PricePerDayCents – daily rate in cents (non-negative).
//  CreatedAt        – creation timestamp.
type TreatmentRoom struct {
	ID               uint64    // treatment_rooms.id
	Name             string    // treatment_rooms.name
	Capacity         int       // treatment_rooms.capacity
	Floor            string    // treatment_rooms.floor
	PricePerDayCents int64     // treatment_rooms.price_per_day_cents
	CreatedAt        time.Time // treatment_rooms.created_at
}
