package booking

import (
	"context"
	"time"

	"github.com/HastyAy/RoomManagementSystem/internal/models"
)

// Repository is the durable booking collection. Every query is scoped to
// active bookings unless stated otherwise; the write methods must perform
// their conflict re-check and the mutation in a single transaction so that
// concurrent admissions cannot both commit overlapping slots.
type Repository interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetActiveBookings(ctx context.Context) ([]models.Booking, error)
	// GetAllBookings includes inactive rows; used by exports only.
	GetAllBookings(ctx context.Context) ([]models.Booking, error)
	GetBookingsByRoom(ctx context.Context, roomID string) ([]models.Booking, error)
	GetBookingsByOwner(ctx context.Context, owner models.Owner) ([]models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)

	// RoomHasConflict reports whether an active booking on the room overlaps
	// [start, end), ignoring excludeID when non-empty.
	RoomHasConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error)
	// OwnerHasConflict reports whether the person owns an active booking
	// overlapping [start, end), ignoring excludeID when non-empty.
	OwnerHasConflict(ctx context.Context, owner models.Owner, start, end time.Time, excludeID string) (bool, error)

	// CreateInSlot assigns id and timestamps and inserts the booking,
	// failing with ErrRoomSlotTaken or ErrOwnerSlotTaken when the slot was
	// lost to a concurrent admission.
	CreateInSlot(ctx context.Context, b *models.Booking) error
	// UpdateInSlot replaces the stored booking under the same guarantees,
	// excluding the booking's own id from the conflict re-check.
	UpdateInSlot(ctx context.Context, b *models.Booking) error
	// Deactivate soft-deletes an active booking.
	Deactivate(ctx context.Context, id string) error
}

// RoomDirectory reads room reference data from the room service.
type RoomDirectory interface {
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	RoomExists(ctx context.Context, id string) (bool, error)
}

// PersonDirectory reads student and professor reference data from the user
// service.
type PersonDirectory interface {
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	GetProfessor(ctx context.Context, id string) (*models.Professor, error)
	StudentExists(ctx context.Context, id string) (bool, error)
	ProfessorExists(ctx context.Context, id string) (bool, error)
}

// EventPublisher receives domain events after successful mutations.
type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}
