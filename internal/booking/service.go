package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/HastyAy/RoomManagementSystem/internal/metrics"
	"github.com/HastyAy/RoomManagementSystem/internal/models"
)

// Caller-facing failure reasons. The wording is part of the API contract.
const (
	msgEndBeforeStart   = "End time must be after start time"
	msgBookingInPast    = "Cannot create bookings in the past"
	msgNoOwner          = "Either StudentId or ProfessorId must be provided"
	msgBothOwners       = "Cannot specify both StudentId and ProfessorId"
	msgRoomNotFound     = "Room not found"
	msgStudentNotFound  = "Student not found"
	msgProfNotFound     = "Professor not found"
	msgBookingNotFound  = "Booking not found"
	msgRoomConflict     = "Room is not available for the specified time slot"
	msgOwnerConflict    = "User already has a booking during this time slot"
	msgRoomSvcDown      = "Room service unavailable"
	msgUserSvcDown      = "User service unavailable"
	msgStartBeforeEnd   = "Start date must be before end date"
)

// DefaultGraceWindow is how far in the past a booking may start, to absorb
// clock skew between callers and the service.
const DefaultGraceWindow = 5 * time.Minute

// Request carries the caller-supplied booking fields for create and update.
// Exactly one of StudentID and ProfessorID must be set.
type Request struct {
	RoomID      string
	StudentID   string
	ProfessorID string
	StartTime   time.Time
	EndTime     time.Time
	Purpose     string
}

// Service is the booking admission controller. It gates every write with
// validation, existence checks against the reference services, and conflict
// checks against the store, then embeds fresh display snapshots before
// persisting.
type Service struct {
	repo   Repository
	rooms  RoomDirectory
	people PersonDirectory
	bus    EventPublisher
	grace  time.Duration
	now    func() time.Time
	logger *zerolog.Logger
}

// NewService wires the admission controller. A zero grace falls back to
// DefaultGraceWindow.
func NewService(repo Repository, rooms RoomDirectory, people PersonDirectory, bus EventPublisher, grace time.Duration, logger *zerolog.Logger) *Service {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	return &Service{
		repo:   repo,
		rooms:  rooms,
		people: people,
		bus:    bus,
		grace:  grace,
		now:    time.Now,
		logger: logger,
	}
}

// CreateBooking admits a new booking or explains why it cannot be admitted.
// Checks run fail-fast in a fixed order: structure, existence, conflicts.
// The store re-verifies conflicts inside its transaction, so two concurrent
// creates for the same slot cannot both commit.
func (s *Service) CreateBooking(ctx context.Context, req Request) (*models.Booking, error) {
	owner, err := s.validateRequest(ctx, req)
	if err != nil {
		metrics.IncAdmissionRejected("validation")
		return nil, err
	}

	if err := s.checkConflicts(ctx, req, owner, ""); err != nil {
		return nil, err
	}

	roomSnap, personSnap, err := s.fetchSnapshots(ctx, req.RoomID, owner)
	if err != nil {
		return nil, err
	}

	b := &models.Booking{
		RoomID:    req.RoomID,
		Owner:     owner,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Purpose:   req.Purpose,
		Room:      roomSnap,
		Person:    personSnap,
		Status:    models.StatusActive,
	}

	if err := s.repo.CreateInSlot(ctx, b); err != nil {
		if mapped := s.mapSlotError(err); mapped != nil {
			return nil, mapped
		}
		s.logger.Error().Err(err).Str("room_id", req.RoomID).Msg("create booking failed")
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.IncBookingAdmitted("created")
	s.publish("booking.created", b)
	return b, nil
}

// UpdateBooking replaces the temporal, subject, and room fields of an
// existing active booking. Conflict checks exclude the booking's own id, so
// a booking can be moved without colliding with its prior slot. Snapshots
// are refreshed only when the room or the person actually changed.
func (s *Service) UpdateBooking(ctx context.Context, id string, req Request) (*models.Booking, error) {
	existing, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, ErrNotFound(msgBookingNotFound)
		}
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}

	owner, err := s.validateRequest(ctx, req)
	if err != nil {
		metrics.IncAdmissionRejected("validation")
		return nil, err
	}

	if err := s.checkConflicts(ctx, req, owner, id); err != nil {
		return nil, err
	}

	updated := *existing
	updated.StartTime = req.StartTime
	updated.EndTime = req.EndTime
	updated.Purpose = req.Purpose

	// Snapshot fields stay as stored unless the underlying identity moved;
	// a re-timed booking on the same room and person makes no downstream
	// calls.
	if req.RoomID != existing.RoomID {
		room, err := s.getRoomSnapshot(ctx, req.RoomID)
		if err != nil {
			return nil, err
		}
		updated.Room = room
	}
	if owner != existing.Owner {
		person, err := s.getPersonSnapshot(ctx, owner)
		if err != nil {
			return nil, err
		}
		updated.Person = person
	}
	updated.RoomID = req.RoomID
	updated.Owner = owner

	if err := s.repo.UpdateInSlot(ctx, &updated); err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, ErrNotFound(msgBookingNotFound)
		}
		if mapped := s.mapSlotError(err); mapped != nil {
			return nil, mapped
		}
		s.logger.Error().Err(err).Str("booking_id", id).Msg("update booking failed")
		return nil, fmt.Errorf("update booking %s: %w", id, err)
	}

	metrics.IncBookingAdmitted("updated")
	s.publish("booking.updated", &updated)
	return &updated, nil
}

// DeleteBooking soft-deletes an active booking. Deleting an already-inactive
// booking reports not found.
func (s *Service) DeleteBooking(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return ErrNotFound(msgBookingNotFound)
		}
		return fmt.Errorf("delete booking %s: %w", id, err)
	}
	metrics.IncBookingCancelled()
	s.publish("booking.cancelled", map[string]string{"id": id})
	return nil
}

// CheckAvailability reports whether the room exists and is free for the
// whole of [start, end).
func (s *Service) CheckAvailability(ctx context.Context, roomID string, start, end time.Time) (bool, error) {
	exists, err := s.rooms.RoomExists(ctx, roomID)
	if err != nil {
		return false, ErrUnavailable(msgRoomSvcDown)
	}
	if !exists {
		return false, ErrNotFound(msgRoomNotFound)
	}
	busy, err := s.repo.RoomHasConflict(ctx, roomID, start, end, "")
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return !busy, nil
}

// GetBooking returns an active booking by id.
func (s *Service) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, ErrNotFound(msgBookingNotFound)
		}
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	return b, nil
}

// GetAllBookings lists active bookings ordered by start time.
func (s *Service) GetAllBookings(ctx context.Context) ([]models.Booking, error) {
	return s.repo.GetActiveBookings(ctx)
}

// GetBookingsByRoom lists active bookings for a room.
func (s *Service) GetBookingsByRoom(ctx context.Context, roomID string) ([]models.Booking, error) {
	return s.repo.GetBookingsByRoom(ctx, roomID)
}

// GetBookingsByPerson lists active bookings owned by the given student or
// professor; exactly one id must be supplied.
func (s *Service) GetBookingsByPerson(ctx context.Context, studentID, professorID string) ([]models.Booking, error) {
	var owner models.Owner
	switch {
	case studentID != "":
		owner = models.StudentOwner(studentID)
	case professorID != "":
		owner = models.ProfessorOwner(professorID)
	default:
		return nil, ErrValidation(msgNoOwner)
	}
	return s.repo.GetBookingsByOwner(ctx, owner)
}

// GetBookingsByDateRange lists active bookings fully contained in
// [start, end].
func (s *Service) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	if !end.After(start) {
		return nil, ErrValidation(msgStartBeforeEnd)
	}
	return s.repo.GetBookingsByDateRange(ctx, start, end)
}

func (s *Service) validateRequest(ctx context.Context, req Request) (models.Owner, error) {
	if !req.EndTime.After(req.StartTime) {
		return models.Owner{}, ErrValidation(msgEndBeforeStart)
	}
	if req.StartTime.Before(s.now().Add(-s.grace)) {
		return models.Owner{}, ErrValidation(msgBookingInPast)
	}

	var owner models.Owner
	switch {
	case req.StudentID == "" && req.ProfessorID == "":
		return models.Owner{}, ErrValidation(msgNoOwner)
	case req.StudentID != "" && req.ProfessorID != "":
		return models.Owner{}, ErrValidation(msgBothOwners)
	case req.StudentID != "":
		owner = models.StudentOwner(req.StudentID)
	default:
		owner = models.ProfessorOwner(req.ProfessorID)
	}

	exists, err := s.rooms.RoomExists(ctx, req.RoomID)
	if err != nil {
		return models.Owner{}, ErrUnavailable(msgRoomSvcDown)
	}
	if !exists {
		return models.Owner{}, ErrNotFound(msgRoomNotFound)
	}

	switch owner.Kind {
	case models.OwnerStudent:
		exists, err = s.people.StudentExists(ctx, owner.ID)
		if err != nil {
			return models.Owner{}, ErrUnavailable(msgUserSvcDown)
		}
		if !exists {
			return models.Owner{}, ErrNotFound(msgStudentNotFound)
		}
	case models.OwnerProfessor:
		exists, err = s.people.ProfessorExists(ctx, owner.ID)
		if err != nil {
			return models.Owner{}, ErrUnavailable(msgUserSvcDown)
		}
		if !exists {
			return models.Owner{}, ErrNotFound(msgProfNotFound)
		}
	}

	return owner, nil
}

func (s *Service) checkConflicts(ctx context.Context, req Request, owner models.Owner, excludeID string) error {
	busy, err := s.repo.RoomHasConflict(ctx, req.RoomID, req.StartTime, req.EndTime, excludeID)
	if err != nil {
		return fmt.Errorf("room conflict check: %w", err)
	}
	if busy {
		metrics.IncAdmissionRejected("room_conflict")
		return ErrConflict(msgRoomConflict)
	}

	busy, err = s.repo.OwnerHasConflict(ctx, owner, req.StartTime, req.EndTime, excludeID)
	if err != nil {
		return fmt.Errorf("owner conflict check: %w", err)
	}
	if busy {
		metrics.IncAdmissionRejected("owner_conflict")
		return ErrConflict(msgOwnerConflict)
	}
	return nil
}

func (s *Service) fetchSnapshots(ctx context.Context, roomID string, owner models.Owner) (models.RoomSnapshot, models.PersonSnapshot, error) {
	room, err := s.getRoomSnapshot(ctx, roomID)
	if err != nil {
		return models.RoomSnapshot{}, models.PersonSnapshot{}, err
	}
	person, err := s.getPersonSnapshot(ctx, owner)
	if err != nil {
		return models.RoomSnapshot{}, models.PersonSnapshot{}, err
	}
	return room, person, nil
}

func (s *Service) getRoomSnapshot(ctx context.Context, roomID string) (models.RoomSnapshot, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return models.RoomSnapshot{}, ErrUnavailable(msgRoomSvcDown)
	}
	if room == nil {
		return models.RoomSnapshot{}, ErrNotFound(msgRoomNotFound)
	}
	return models.RoomSnapshot{
		Name:     room.Name,
		Location: room.Location,
		Capacity: room.Capacity,
	}, nil
}

func (s *Service) getPersonSnapshot(ctx context.Context, owner models.Owner) (models.PersonSnapshot, error) {
	switch owner.Kind {
	case models.OwnerStudent:
		student, err := s.people.GetStudent(ctx, owner.ID)
		if err != nil {
			return models.PersonSnapshot{}, ErrUnavailable(msgUserSvcDown)
		}
		if student == nil {
			return models.PersonSnapshot{}, ErrNotFound(msgStudentNotFound)
		}
		return models.PersonSnapshot{Name: student.FullName(), MatriNumber: student.MatriNumber}, nil
	default:
		prof, err := s.people.GetProfessor(ctx, owner.ID)
		if err != nil {
			return models.PersonSnapshot{}, ErrUnavailable(msgUserSvcDown)
		}
		if prof == nil {
			return models.PersonSnapshot{}, ErrNotFound(msgProfNotFound)
		}
		return models.PersonSnapshot{Name: prof.FullName(), Department: prof.Department}, nil
	}
}

// mapSlotError translates store race sentinels into conflict errors; any
// other error is left to the caller.
func (s *Service) mapSlotError(err error) error {
	switch {
	case errors.Is(err, ErrRoomSlotTaken):
		metrics.IncAdmissionRejected("room_conflict")
		return ErrConflict(msgRoomConflict)
	case errors.Is(err, ErrOwnerSlotTaken):
		metrics.IncAdmissionRejected("owner_conflict")
		return ErrConflict(msgOwnerConflict)
	}
	return nil
}

func (s *Service) publish(eventType string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish event failed")
	}
}
