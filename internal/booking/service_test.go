package booking

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/HastyAy/RoomManagementSystem/internal/models"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) GetActiveBookings(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockRepo) GetAllBookings(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockRepo) GetBookingsByRoom(ctx context.Context, roomID string) ([]models.Booking, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockRepo) GetBookingsByOwner(ctx context.Context, owner models.Owner) ([]models.Booking, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockRepo) RoomHasConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error) {
	args := m.Called(ctx, roomID, start, end, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) OwnerHasConflict(ctx context.Context, owner models.Owner, start, end time.Time, excludeID string) (bool, error) {
	args := m.Called(ctx, owner, start, end, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) CreateInSlot(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockRepo) UpdateInSlot(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockRepo) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockRooms struct {
	mock.Mock
}

func (m *mockRooms) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *mockRooms) RoomExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockPeople struct {
	mock.Mock
}

func (m *mockPeople) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *mockPeople) GetProfessor(ctx context.Context, id string) (*models.Professor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Professor), args.Error(1)
}

func (m *mockPeople) StudentExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockPeople) ProfessorExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockBus struct {
	mock.Mock
}

func (m *mockBus) PublishJSON(eventType string, payload any) error {
	return m.Called(eventType, payload).Error(0)
}

type fixture struct {
	repo   *mockRepo
	rooms  *mockRooms
	people *mockPeople
	bus    *mockBus
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   new(mockRepo),
		rooms:  new(mockRooms),
		people: new(mockPeople),
		bus:    new(mockBus),
	}
	logger := zerolog.New(io.Discard)
	f.svc = NewService(f.repo, f.rooms, f.people, f.bus, 0, &logger)
	return f
}

func (f *fixture) expectHappyDirectory(ctx context.Context, roomID, studentID string) {
	f.rooms.On("RoomExists", ctx, roomID).Return(true, nil)
	f.people.On("StudentExists", ctx, studentID).Return(true, nil)
	f.rooms.On("GetRoom", ctx, roomID).Return(&models.Room{
		ID: roomID, Name: "Lab A", Location: "Building 1", Capacity: 12,
	}, nil)
	f.people.On("GetStudent", ctx, studentID).Return(&models.Student{
		ID: studentID, FirstName: "Ada", LastName: "Byron", MatriNumber: "M-100",
	}, nil)
}

func studentRequest(start, end time.Time) Request {
	return Request{
		RoomID:    "room-1",
		StudentID: "stu-1",
		StartTime: start,
		EndTime:   end,
		Purpose:   "study group",
	}
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Add(2 * time.Hour)
	end := start.Add(time.Hour)

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)

		f.expectHappyDirectory(ctx, "room-1", "stu-1")
		f.repo.On("RoomHasConflict", ctx, "room-1", start, end, "").Return(false, nil).Once()
		f.repo.On("OwnerHasConflict", ctx, models.StudentOwner("stu-1"), start, end, "").Return(false, nil).Once()
		f.repo.On("CreateInSlot", ctx, mock.Anything).Return(nil).Once()
		f.bus.On("PublishJSON", "booking.created", mock.Anything).Return(nil).Once()

		b, err := f.svc.CreateBooking(ctx, req)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusActive, b.Status)
		assert.Equal(t, models.StudentOwner("stu-1"), b.Owner)
		assert.Equal(t, "Lab A", b.Room.Name)
		assert.Equal(t, "Ada Byron", b.Person.Name)
		assert.Equal(t, "M-100", b.Person.MatriNumber)
		f.repo.AssertExpectations(t)
	})

	t.Run("EndNotAfterStart", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, start)

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "End time must be after start time")
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("ZeroLengthRejectedBeforeOwnerCheck", func(t *testing.T) {
		f := newFixture(t)
		req := Request{RoomID: "room-1", StartTime: start, EndTime: start}

		// Temporal validation fires before the missing owner is noticed.
		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "End time must be after start time")
	})

	t.Run("NoOwner", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)
		req.StudentID = ""

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "Either StudentId or ProfessorId must be provided")
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("BothOwners", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)
		req.ProfessorID = "prof-1"

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "Cannot specify both StudentId and ProfessorId")
	})

	t.Run("RoomMissing", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)

		f.rooms.On("RoomExists", ctx, "room-1").Return(false, nil).Once()

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "Room not found")
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("StudentMissing", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)

		f.rooms.On("RoomExists", ctx, "room-1").Return(true, nil).Once()
		f.people.On("StudentExists", ctx, "stu-1").Return(false, nil).Once()

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "Student not found")
	})

	t.Run("ProfessorMissing", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)
		req.StudentID = ""
		req.ProfessorID = "prof-1"

		f.rooms.On("RoomExists", ctx, "room-1").Return(true, nil).Once()
		f.people.On("ProfessorExists", ctx, "prof-1").Return(false, nil).Once()

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "Professor not found")
	})

	t.Run("RoomConflict", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)

		f.rooms.On("RoomExists", ctx, "room-1").Return(true, nil).Once()
		f.people.On("StudentExists", ctx, "stu-1").Return(true, nil).Once()
		f.repo.On("RoomHasConflict", ctx, "room-1", start, end, "").Return(true, nil).Once()

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "Room is not available for the specified time slot")
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("OwnerConflict", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)

		f.rooms.On("RoomExists", ctx, "room-1").Return(true, nil).Once()
		f.people.On("StudentExists", ctx, "stu-1").Return(true, nil).Once()
		f.repo.On("RoomHasConflict", ctx, "room-1", start, end, "").Return(false, nil).Once()
		f.repo.On("OwnerHasConflict", ctx, models.StudentOwner("stu-1"), start, end, "").Return(true, nil).Once()

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "User already has a booking during this time slot")
	})

	t.Run("SlotLostToConcurrentCreate", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)

		f.expectHappyDirectory(ctx, "room-1", "stu-1")
		f.repo.On("RoomHasConflict", ctx, "room-1", start, end, "").Return(false, nil).Once()
		f.repo.On("OwnerHasConflict", ctx, models.StudentOwner("stu-1"), start, end, "").Return(false, nil).Once()
		f.repo.On("CreateInSlot", ctx, mock.Anything).Return(ErrRoomSlotTaken).Once()

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "Room is not available for the specified time slot")
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("RoomServiceDown", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)

		f.rooms.On("RoomExists", ctx, "room-1").Return(false, errors.New("connection refused")).Once()

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "Room service unavailable")
		assert.Equal(t, KindUnavailable, KindOf(err))
	})

	t.Run("UserServiceDown", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)

		f.rooms.On("RoomExists", ctx, "room-1").Return(true, nil).Once()
		f.people.On("StudentExists", ctx, "stu-1").Return(false, errors.New("connection refused")).Once()

		_, err := f.svc.CreateBooking(ctx, req)
		assert.EqualError(t, err, "User service unavailable")
		assert.Equal(t, KindUnavailable, KindOf(err))
	})
}

func TestCreateBookingGraceWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		start   time.Time
		wantErr bool
	}{
		{"FutureStart", now.Add(time.Hour), false},
		{"StartExactlyNow", now, false},
		{"StartExactlyAtGraceBoundary", now.Add(-5 * time.Minute), false},
		{"StartJustPastGrace", now.Add(-5*time.Minute - time.Second), true},
		{"StartFarInPast", now.Add(-24 * time.Hour), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.svc.now = func() time.Time { return now }
			req := studentRequest(tc.start, tc.start.Add(time.Hour))

			if tc.wantErr {
				_, err := f.svc.CreateBooking(ctx, req)
				assert.EqualError(t, err, "Cannot create bookings in the past")
				return
			}

			f.expectHappyDirectory(ctx, "room-1", "stu-1")
			f.repo.On("RoomHasConflict", ctx, "room-1", req.StartTime, req.EndTime, "").Return(false, nil)
			f.repo.On("OwnerHasConflict", ctx, models.StudentOwner("stu-1"), req.StartTime, req.EndTime, "").Return(false, nil)
			f.repo.On("CreateInSlot", ctx, mock.Anything).Return(nil)
			f.bus.On("PublishJSON", "booking.created", mock.Anything).Return(nil)

			_, err := f.svc.CreateBooking(ctx, req)
			assert.NoError(t, err)
		})
	}
}

func TestUpdateBooking(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Add(2 * time.Hour)
	end := start.Add(time.Hour)

	existing := func() *models.Booking {
		return &models.Booking{
			ID:        "bk-1",
			RoomID:    "room-1",
			Owner:     models.StudentOwner("stu-1"),
			StartTime: start,
			EndTime:   end,
			Room:      models.RoomSnapshot{Name: "Lab A", Location: "Building 1", Capacity: 12},
			Person:    models.PersonSnapshot{Name: "Ada Byron", MatriNumber: "M-100"},
			Status:    models.StatusActive,
		}
	}

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBooking", ctx, "missing").Return(nil, ErrBookingNotFound).Once()

		_, err := f.svc.UpdateBooking(ctx, "missing", studentRequest(start, end))
		assert.EqualError(t, err, "Booking not found")
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("ExcludesItselfFromConflicts", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)

		f.repo.On("GetBooking", ctx, "bk-1").Return(existing(), nil).Once()
		f.rooms.On("RoomExists", ctx, "room-1").Return(true, nil).Once()
		f.people.On("StudentExists", ctx, "stu-1").Return(true, nil).Once()
		f.repo.On("RoomHasConflict", ctx, "room-1", start, end, "bk-1").Return(false, nil).Once()
		f.repo.On("OwnerHasConflict", ctx, models.StudentOwner("stu-1"), start, end, "bk-1").Return(false, nil).Once()
		f.repo.On("UpdateInSlot", ctx, mock.Anything).Return(nil).Once()
		f.bus.On("PublishJSON", "booking.updated", mock.Anything).Return(nil).Once()

		_, err := f.svc.UpdateBooking(ctx, "bk-1", req)
		assert.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("SameIdentityKeepsSnapshots", func(t *testing.T) {
		f := newFixture(t)
		newStart := start.Add(time.Hour)
		req := studentRequest(newStart, newStart.Add(time.Hour))

		f.repo.On("GetBooking", ctx, "bk-1").Return(existing(), nil).Once()
		f.rooms.On("RoomExists", ctx, "room-1").Return(true, nil).Once()
		f.people.On("StudentExists", ctx, "stu-1").Return(true, nil).Once()
		f.repo.On("RoomHasConflict", ctx, "room-1", req.StartTime, req.EndTime, "bk-1").Return(false, nil).Once()
		f.repo.On("OwnerHasConflict", ctx, models.StudentOwner("stu-1"), req.StartTime, req.EndTime, "bk-1").Return(false, nil).Once()
		f.repo.On("UpdateInSlot", ctx, mock.Anything).Return(nil).Once()
		f.bus.On("PublishJSON", "booking.updated", mock.Anything).Return(nil).Once()

		b, err := f.svc.UpdateBooking(ctx, "bk-1", req)
		assert.NoError(t, err)
		assert.Equal(t, "Lab A", b.Room.Name)
		assert.Equal(t, "Ada Byron", b.Person.Name)
		// No GetRoom or GetStudent calls were registered; AssertExpectations
		// would fail on an unexpected call.
		f.rooms.AssertExpectations(t)
		f.people.AssertExpectations(t)
	})

	t.Run("RoomChangeRefreshesRoomSnapshotOnly", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)
		req.RoomID = "room-2"

		f.repo.On("GetBooking", ctx, "bk-1").Return(existing(), nil).Once()
		f.rooms.On("RoomExists", ctx, "room-2").Return(true, nil).Once()
		f.people.On("StudentExists", ctx, "stu-1").Return(true, nil).Once()
		f.repo.On("RoomHasConflict", ctx, "room-2", start, end, "bk-1").Return(false, nil).Once()
		f.repo.On("OwnerHasConflict", ctx, models.StudentOwner("stu-1"), start, end, "bk-1").Return(false, nil).Once()
		f.rooms.On("GetRoom", ctx, "room-2").Return(&models.Room{
			ID: "room-2", Name: "Lab B", Location: "Building 2", Capacity: 30,
		}, nil).Once()
		f.repo.On("UpdateInSlot", ctx, mock.Anything).Return(nil).Once()
		f.bus.On("PublishJSON", "booking.updated", mock.Anything).Return(nil).Once()

		b, err := f.svc.UpdateBooking(ctx, "bk-1", req)
		assert.NoError(t, err)
		assert.Equal(t, "room-2", b.RoomID)
		assert.Equal(t, "Lab B", b.Room.Name)
		assert.Equal(t, "Ada Byron", b.Person.Name)
		f.people.AssertExpectations(t)
	})

	t.Run("OwnerChangeRefreshesPersonSnapshot", func(t *testing.T) {
		f := newFixture(t)
		req := studentRequest(start, end)
		req.StudentID = ""
		req.ProfessorID = "prof-1"

		f.repo.On("GetBooking", ctx, "bk-1").Return(existing(), nil).Once()
		f.rooms.On("RoomExists", ctx, "room-1").Return(true, nil).Once()
		f.people.On("ProfessorExists", ctx, "prof-1").Return(true, nil).Once()
		f.repo.On("RoomHasConflict", ctx, "room-1", start, end, "bk-1").Return(false, nil).Once()
		f.repo.On("OwnerHasConflict", ctx, models.ProfessorOwner("prof-1"), start, end, "bk-1").Return(false, nil).Once()
		f.people.On("GetProfessor", ctx, "prof-1").Return(&models.Professor{
			ID: "prof-1", FirstName: "Grace", LastName: "Hopper", Title: "Dr.", Department: "CS",
		}, nil).Once()
		f.repo.On("UpdateInSlot", ctx, mock.Anything).Return(nil).Once()
		f.bus.On("PublishJSON", "booking.updated", mock.Anything).Return(nil).Once()

		b, err := f.svc.UpdateBooking(ctx, "bk-1", req)
		assert.NoError(t, err)
		assert.Equal(t, models.ProfessorOwner("prof-1"), b.Owner)
		assert.Equal(t, "Dr. Grace Hopper", b.Person.Name)
		assert.Equal(t, "CS", b.Person.Department)
		assert.Empty(t, b.Person.MatriNumber)
	})
}

func TestDeleteBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("Deactivate", ctx, "bk-1").Return(nil).Once()
		f.bus.On("PublishJSON", "booking.cancelled", mock.Anything).Return(nil).Once()

		assert.NoError(t, f.svc.DeleteBooking(ctx, "bk-1"))
	})

	t.Run("SecondDeleteReportsNotFound", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("Deactivate", ctx, "bk-1").Return(nil).Once()
		f.bus.On("PublishJSON", "booking.cancelled", mock.Anything).Return(nil).Once()
		f.repo.On("Deactivate", ctx, "bk-1").Return(ErrBookingNotFound).Once()

		assert.NoError(t, f.svc.DeleteBooking(ctx, "bk-1"))
		err := f.svc.DeleteBooking(ctx, "bk-1")
		assert.EqualError(t, err, "Booking not found")
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	t.Run("Free", func(t *testing.T) {
		f := newFixture(t)
		f.rooms.On("RoomExists", ctx, "room-1").Return(true, nil).Once()
		f.repo.On("RoomHasConflict", ctx, "room-1", start, end, "").Return(false, nil).Once()

		available, err := f.svc.CheckAvailability(ctx, "room-1", start, end)
		assert.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("Busy", func(t *testing.T) {
		f := newFixture(t)
		f.rooms.On("RoomExists", ctx, "room-1").Return(true, nil).Once()
		f.repo.On("RoomHasConflict", ctx, "room-1", start, end, "").Return(true, nil).Once()

		available, err := f.svc.CheckAvailability(ctx, "room-1", start, end)
		assert.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("UnknownRoom", func(t *testing.T) {
		f := newFixture(t)
		f.rooms.On("RoomExists", ctx, "ghost").Return(false, nil).Once()

		_, err := f.svc.CheckAvailability(ctx, "ghost", start, end)
		assert.EqualError(t, err, "Room not found")
	})
}

func TestGetBookingsByPerson(t *testing.T) {
	ctx := context.Background()

	t.Run("Student", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBookingsByOwner", ctx, models.StudentOwner("stu-1")).Return([]models.Booking{}, nil).Once()

		_, err := f.svc.GetBookingsByPerson(ctx, "stu-1", "")
		assert.NoError(t, err)
	})

	t.Run("Professor", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetBookingsByOwner", ctx, models.ProfessorOwner("prof-1")).Return([]models.Booking{}, nil).Once()

		_, err := f.svc.GetBookingsByPerson(ctx, "", "prof-1")
		assert.NoError(t, err)
	})

	t.Run("Neither", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetBookingsByPerson(ctx, "", "")
		assert.EqualError(t, err, "Either StudentId or ProfessorId must be provided")
	})
}

func TestGetBookingsByDateRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	start := time.Now()

	_, err := f.svc.GetBookingsByDateRange(ctx, start, start)
	assert.EqualError(t, err, "Start date must be before end date")

	f.repo.On("GetBookingsByDateRange", ctx, start, start.Add(time.Hour)).Return([]models.Booking{}, nil).Once()
	_, err = f.svc.GetBookingsByDateRange(ctx, start, start.Add(time.Hour))
	assert.NoError(t, err)
}
