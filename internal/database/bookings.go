package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HastyAy/RoomManagementSystem/internal/booking"
	"github.com/HastyAy/RoomManagementSystem/internal/models"
)

const bookingColumns = `id, room_id, student_id, professor_id, start_time, end_time, purpose,
	room_name, room_location, room_capacity, person_name, matri_number, department,
	status, created_at, updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx, so the conflict checks
// can run standalone or inside an admission transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetBooking returns an active booking by id.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings WHERE id = ? AND status = 'active'`, id)

	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// GetActiveBookings returns all active bookings ordered by start time.
func (db *DB) GetActiveBookings(ctx context.Context) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings WHERE status = 'active' ORDER BY start_time`)
}

// GetAllBookings returns every booking, inactive rows included.
func (db *DB) GetAllBookings(ctx context.Context) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings ORDER BY start_time`)
}

// GetBookingsByRoom returns active bookings on a room ordered by start time.
func (db *DB) GetBookingsByRoom(ctx context.Context, roomID string) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings WHERE room_id = ? AND status = 'active' ORDER BY start_time`, roomID)
}

// GetBookingsByOwner returns active bookings owned by a person, most recent
// first.
func (db *DB) GetBookingsByOwner(ctx context.Context, owner models.Owner) ([]models.Booking, error) {
	column := "student_id"
	if owner.Kind == models.OwnerProfessor {
		column = "professor_id"
	}
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings WHERE `+column+` = ? AND status = 'active' ORDER BY start_time DESC`, owner.ID)
}

// GetBookingsByDateRange returns active bookings fully contained in
// [start, end].
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'active' AND start_time >= ? AND end_time <= ?
		ORDER BY start_time`, start.UTC(), end.UTC())
}

// RoomHasConflict reports whether an active booking on the room overlaps
// [start, end) under half-open semantics.
func (db *DB) RoomHasConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error) {
	return roomHasConflict(ctx, db.DB, roomID, start, end, excludeID)
}

// OwnerHasConflict reports whether the person owns an active booking
// overlapping [start, end).
func (db *DB) OwnerHasConflict(ctx context.Context, owner models.Owner, start, end time.Time, excludeID string) (bool, error) {
	return ownerHasConflict(ctx, db.DB, owner, start, end, excludeID)
}

// CreateInSlot inserts a booking after re-verifying both conflict rules in
// the same transaction. The transaction takes the write lock immediately, so
// two concurrent creates for an overlapping slot serialize and the loser
// gets a slot-taken error instead of corrupting the no-overlap invariant.
func (db *DB) CreateInSlot(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := verifySlotFree(ctx, tx, b, ""); err != nil {
		return err
	}

	b.ID = uuid.NewString()
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Status = models.StatusActive

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, room_id, student_id, professor_id, start_time, end_time, purpose,
			room_name, room_location, room_capacity, person_name, matri_number, department,
			status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.RoomID,
		nullable(b.Owner.StudentID()), nullable(b.Owner.ProfessorID()),
		b.StartTime.UTC(), b.EndTime.UTC(), b.Purpose,
		b.Room.Name, b.Room.Location, b.Room.Capacity,
		b.Person.Name, b.Person.MatriNumber, b.Person.Department,
		string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateInSlot replaces a stored booking under the same transactional
// guarantees as CreateInSlot, excluding the booking's own id from the
// conflict re-check so a booking can be moved within its old slot.
func (db *DB) UpdateInSlot(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM bookings WHERE id = ?`, b.ID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && status != string(models.StatusActive)) {
		return booking.ErrBookingNotFound
	}
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}

	if err := verifySlotFree(ctx, tx, b, b.ID); err != nil {
		return err
	}

	b.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE bookings SET
			room_id = ?, student_id = ?, professor_id = ?,
			start_time = ?, end_time = ?, purpose = ?,
			room_name = ?, room_location = ?, room_capacity = ?,
			person_name = ?, matri_number = ?, department = ?,
			updated_at = ?
		WHERE id = ?`,
		b.RoomID,
		nullable(b.Owner.StudentID()), nullable(b.Owner.ProfessorID()),
		b.StartTime.UTC(), b.EndTime.UTC(), b.Purpose,
		b.Room.Name, b.Room.Location, b.Room.Capacity,
		b.Person.Name, b.Person.MatriNumber, b.Person.Department,
		b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Deactivate soft-deletes an active booking. Repeating the call reports not
// found: the row is retained but no longer visible to normal queries.
func (db *DB) Deactivate(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE bookings SET status = 'inactive', updated_at = ?
		WHERE id = ? AND status = 'active'`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

func verifySlotFree(ctx context.Context, q querier, b *models.Booking, excludeID string) error {
	busy, err := roomHasConflict(ctx, q, b.RoomID, b.StartTime, b.EndTime, excludeID)
	if err != nil {
		return err
	}
	if busy {
		return booking.ErrRoomSlotTaken
	}

	busy, err = ownerHasConflict(ctx, q, b.Owner, b.StartTime, b.EndTime, excludeID)
	if err != nil {
		return err
	}
	if busy {
		return booking.ErrOwnerSlotTaken
	}
	return nil
}

func roomHasConflict(ctx context.Context, q querier, roomID string, start, end time.Time, excludeID string) (bool, error) {
	// Half-open overlap: existing.start < end AND existing.end > start, so
	// back-to-back bookings never collide.
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE room_id = ? AND status = 'active'
		  AND start_time < ? AND end_time > ?`
	args := []any{roomID, end.UTC(), start.UTC()}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	var count int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("room conflict query: %w", err)
	}
	return count > 0, nil
}

func ownerHasConflict(ctx context.Context, q querier, owner models.Owner, start, end time.Time, excludeID string) (bool, error) {
	column := "student_id"
	if owner.Kind == models.OwnerProfessor {
		column = "professor_id"
	}

	query := `
		SELECT COUNT(*) FROM bookings
		WHERE ` + column + ` = ? AND status = 'active'
		  AND start_time < ? AND end_time > ?`
	args := []any{owner.ID, end.UTC(), start.UTC()}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	var count int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("owner conflict query: %w", err)
	}
	return count > 0, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b                      models.Booking
		studentID, professorID sql.NullString
		status                 string
	)
	err := row.Scan(
		&b.ID, &b.RoomID, &studentID, &professorID,
		&b.StartTime, &b.EndTime, &b.Purpose,
		&b.Room.Name, &b.Room.Location, &b.Room.Capacity,
		&b.Person.Name, &b.Person.MatriNumber, &b.Person.Department,
		&status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch {
	case studentID.Valid:
		b.Owner = models.StudentOwner(studentID.String)
	case professorID.Valid:
		b.Owner = models.ProfessorOwner(professorID.String)
	}
	b.Status = models.Status(status)
	return &b, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
