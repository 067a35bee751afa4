package model

import "time"

// Patient is a person registered at the front desk.  Patients are linked
// to a doctor at registration time and accumulate appointments, room
// registrations and payments over their history.
//
// Fields:
//  ID        – primary key identifier.
//  FirstName – given name.
//  LastName  – family name.
//  Age       – age in years (nil when not recorded).
//  Phone     – contact phone number.
//  Address   – free-form address text.
//  DoctorID  – assigned doctor (nil for service-desk-only patients).
//  CreatedAt – registration timestamp.
type Patient struct {
	ID        uint64    // patients.id
	FirstName string    // patients.first_name
	LastName  string    // patients.last_name
	Age       *int      // patients.age (nullable)
	Phone     string    // patients.phone
	Address   string    // patients.address
	DoctorID  *uint64   // patients.doctor_id (nullable)
	CreatedAt time.Time // patients.created_at
}

// FullName joins the first and last name for board and receipt display.
func (p Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
