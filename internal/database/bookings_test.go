package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HastyAy/RoomManagementSystem/internal/booking"
	"github.com/HastyAy/RoomManagementSystem/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "bookings.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testBooking(roomID string, owner models.Owner, start time.Time, dur time.Duration) *models.Booking {
	return &models.Booking{
		RoomID:    roomID,
		Owner:     owner,
		StartTime: start,
		EndTime:   start.Add(dur),
		Purpose:   "test",
		Room:      models.RoomSnapshot{Name: "Lab A", Location: "Building 1", Capacity: 12},
		Person:    models.PersonSnapshot{Name: "Ada Byron", MatriNumber: "M-100"},
	}
}

func TestCreateAndGetBooking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	b := testBooking("room-1", models.StudentOwner("stu-1"), start, time.Hour)
	require.NoError(t, db.CreateInSlot(ctx, b))
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, models.StatusActive, b.Status)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "room-1", got.RoomID)
	assert.Equal(t, models.StudentOwner("stu-1"), got.Owner)
	assert.True(t, got.StartTime.Equal(start))
	assert.True(t, got.EndTime.Equal(start.Add(time.Hour)))
	assert.Equal(t, "Lab A", got.Room.Name)
	assert.Equal(t, "M-100", got.Person.MatriNumber)
	assert.Empty(t, got.Person.Department)

	_, err = db.GetBooking(ctx, "missing")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestCreateInSlotRejectsOverlap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first := testBooking("room-1", models.StudentOwner("stu-1"), start, 2*time.Hour)
	require.NoError(t, db.CreateInSlot(ctx, first))

	t.Run("SameRoomOverlapFails", func(t *testing.T) {
		b := testBooking("room-1", models.StudentOwner("stu-2"), start.Add(time.Hour), time.Hour)
		assert.ErrorIs(t, db.CreateInSlot(ctx, b), booking.ErrRoomSlotTaken)
	})

	t.Run("SameOwnerDifferentRoomFails", func(t *testing.T) {
		b := testBooking("room-2", models.StudentOwner("stu-1"), start.Add(time.Hour), time.Hour)
		assert.ErrorIs(t, db.CreateInSlot(ctx, b), booking.ErrOwnerSlotTaken)
	})

	t.Run("BackToBackSucceeds", func(t *testing.T) {
		b := testBooking("room-1", models.StudentOwner("stu-3"), start.Add(2*time.Hour), time.Hour)
		assert.NoError(t, db.CreateInSlot(ctx, b))
	})

	t.Run("DifferentRoomAndOwnerSucceeds", func(t *testing.T) {
		b := testBooking("room-3", models.ProfessorOwner("prof-1"), start, time.Hour)
		assert.NoError(t, db.CreateInSlot(ctx, b))
	})

	t.Run("InactiveRowsDoNotConflict", func(t *testing.T) {
		victim := testBooking("room-4", models.StudentOwner("stu-4"), start, time.Hour)
		require.NoError(t, db.CreateInSlot(ctx, victim))
		require.NoError(t, db.Deactivate(ctx, victim.ID))

		b := testBooking("room-4", models.StudentOwner("stu-4"), start, time.Hour)
		assert.NoError(t, db.CreateInSlot(ctx, b))
	})
}

func TestUpdateInSlot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	b := testBooking("room-1", models.StudentOwner("stu-1"), start, time.Hour)
	require.NoError(t, db.CreateInSlot(ctx, b))

	t.Run("MoveWithinOwnSlot", func(t *testing.T) {
		// Shifting by 30 minutes overlaps the booking's old slot; the
		// self-exclusion keeps that from counting as a conflict.
		moved := *b
		moved.StartTime = start.Add(30 * time.Minute)
		moved.EndTime = moved.StartTime.Add(time.Hour)
		require.NoError(t, db.UpdateInSlot(ctx, &moved))

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, got.StartTime.Equal(moved.StartTime))
	})

	t.Run("ConflictWithOtherBooking", func(t *testing.T) {
		other := testBooking("room-1", models.StudentOwner("stu-2"), start.Add(4*time.Hour), time.Hour)
		require.NoError(t, db.CreateInSlot(ctx, other))

		moved := *b
		moved.StartTime = start.Add(4 * time.Hour)
		moved.EndTime = moved.StartTime.Add(time.Hour)
		assert.ErrorIs(t, db.UpdateInSlot(ctx, &moved), booking.ErrRoomSlotTaken)
	})

	t.Run("UnknownIdFails", func(t *testing.T) {
		ghost := testBooking("room-9", models.StudentOwner("stu-9"), start.Add(24*time.Hour), time.Hour)
		ghost.ID = "missing"
		assert.ErrorIs(t, db.UpdateInSlot(ctx, ghost), booking.ErrBookingNotFound)
	})

	t.Run("InactiveBookingFails", func(t *testing.T) {
		dead := testBooking("room-5", models.StudentOwner("stu-5"), start.Add(48*time.Hour), time.Hour)
		require.NoError(t, db.CreateInSlot(ctx, dead))
		require.NoError(t, db.Deactivate(ctx, dead.ID))

		assert.ErrorIs(t, db.UpdateInSlot(ctx, dead), booking.ErrBookingNotFound)
	})
}

func TestDeactivate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	b := testBooking("room-1", models.StudentOwner("stu-1"), start, time.Hour)
	require.NoError(t, db.CreateInSlot(ctx, b))

	require.NoError(t, db.Deactivate(ctx, b.ID))

	// The row is retained but hidden from active reads.
	_, err := db.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)

	all, err := db.GetAllBookings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.StatusInactive, all[0].Status)

	// Repeating the delete reports not found.
	assert.ErrorIs(t, db.Deactivate(ctx, b.ID), booking.ErrBookingNotFound)
}

func TestListingQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	early := testBooking("room-1", models.StudentOwner("stu-1"), start, time.Hour)
	late := testBooking("room-1", models.StudentOwner("stu-1"), start.Add(3*time.Hour), time.Hour)
	other := testBooking("room-2", models.ProfessorOwner("prof-1"), start, time.Hour)
	for _, b := range []*models.Booking{late, early, other} {
		require.NoError(t, db.CreateInSlot(ctx, b))
	}

	t.Run("ActiveOrderedByStart", func(t *testing.T) {
		list, err := db.GetActiveBookings(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.True(t, list[0].StartTime.Equal(start))
		assert.True(t, list[2].StartTime.Equal(start.Add(3*time.Hour)))
	})

	t.Run("ByRoom", func(t *testing.T) {
		list, err := db.GetBookingsByRoom(ctx, "room-1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, early.ID, list[0].ID)
		assert.Equal(t, late.ID, list[1].ID)
	})

	t.Run("ByOwnerMostRecentFirst", func(t *testing.T) {
		list, err := db.GetBookingsByOwner(ctx, models.StudentOwner("stu-1"))
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, late.ID, list[0].ID)

		list, err = db.GetBookingsByOwner(ctx, models.ProfessorOwner("prof-1"))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, other.ID, list[0].ID)
	})

	t.Run("DateRangeContainment", func(t *testing.T) {
		// Only bookings fully inside the window count.
		list, err := db.GetBookingsByDateRange(ctx, start, start.Add(90*time.Minute))
		require.NoError(t, err)
		assert.Len(t, list, 2)

		list, err = db.GetBookingsByDateRange(ctx, start.Add(time.Minute), start.Add(90*time.Minute))
		require.NoError(t, err)
		assert.Empty(t, list)

		list, err = db.GetBookingsByDateRange(ctx, start, start.Add(5*time.Hour))
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})
}

func TestConflictChecksExcludeID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	b := testBooking("room-1", models.StudentOwner("stu-1"), start, time.Hour)
	require.NoError(t, db.CreateInSlot(ctx, b))

	busy, err := db.RoomHasConflict(ctx, "room-1", start, start.Add(time.Hour), "")
	require.NoError(t, err)
	assert.True(t, busy)

	busy, err = db.RoomHasConflict(ctx, "room-1", start, start.Add(time.Hour), b.ID)
	require.NoError(t, err)
	assert.False(t, busy)

	busy, err = db.OwnerHasConflict(ctx, models.StudentOwner("stu-1"), start, start.Add(time.Hour), b.ID)
	require.NoError(t, err)
	assert.False(t, busy)
}

func TestConcurrentAdmissionsSingleWinner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	const attempts = 8
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		owner := models.StudentOwner("stu-" + string(rune('a'+i)))
		go func(owner models.Owner) {
			results <- db.CreateInSlot(ctx, testBooking("room-1", owner, start, time.Hour))
		}(owner)
	}

	var won, lost int
	for i := 0; i < attempts; i++ {
		switch err := <-results; {
		case err == nil:
			won++
		default:
			assert.ErrorIs(t, err, booking.ErrRoomSlotTaken)
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, lost)

	list, err := db.GetBookingsByRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
