package models

import "time"

// Status is the lifecycle tag of a booking. Inactive bookings are retained
// but excluded from conflict checks and normal listings.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// OwnerKind discriminates who a booking belongs to.
type OwnerKind string

const (
	OwnerStudent   OwnerKind = "student"
	OwnerProfessor OwnerKind = "professor"
)

// Owner identifies the single person a booking belongs to. A booking always
// has exactly one owner; the zero Owner is invalid and rejected at admission.
type Owner struct {
	Kind OwnerKind
	ID   string
}

// StudentOwner builds an owner of kind student.
func StudentOwner(id string) Owner { return Owner{Kind: OwnerStudent, ID: id} }

// ProfessorOwner builds an owner of kind professor.
func ProfessorOwner(id string) Owner { return Owner{Kind: OwnerProfessor, ID: id} }

// IsZero reports whether no owner is set.
func (o Owner) IsZero() bool { return o.ID == "" }

// StudentID returns the owner id if the owner is a student, else "".
func (o Owner) StudentID() string {
	if o.Kind == OwnerStudent {
		return o.ID
	}
	return ""
}

// ProfessorID returns the owner id if the owner is a professor, else "".
func (o Owner) ProfessorID() string {
	if o.Kind == OwnerProfessor {
		return o.ID
	}
	return ""
}

// RoomSnapshot is a copy of room display data embedded in a booking at write
// time. It is not refreshed when the room record changes.
type RoomSnapshot struct {
	Name     string
	Location string
	Capacity int
}

// PersonSnapshot is a copy of person display data embedded in a booking at
// write time. MatriNumber is set for students, Department for professors.
type PersonSnapshot struct {
	Name        string
	MatriNumber string
	Department  string
}

// Booking is the central entity of the booking service. Room and person
// display fields are denormalized snapshots, kept readable even when the
// owning services are down.
type Booking struct {
	ID        string
	RoomID    string
	Owner     Owner
	StartTime time.Time
	EndTime   time.Time
	Purpose   string

	Room   RoomSnapshot
	Person PersonSnapshot

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Duration returns the booked time span.
func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// IsActive reports whether the booking participates in conflict checks and
// normal listings.
func (b *Booking) IsActive() bool {
	return b.Status == StatusActive
}

// OverlapsWith reports whether two bookings collide under half-open
// [start, end) semantics: a booking ending exactly when another starts does
// not conflict.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return Overlaps(b.StartTime, b.EndTime, other.StartTime, other.EndTime)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Strict < on both sides keeps back-to-back intervals compatible.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
