// Package rooms implements the room service: CRUD persistence and the HTTP
// surface the booking service reads room snapshots from.
package rooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"

	"github.com/HastyAy/RoomManagementSystem/internal/models"
)

// ErrRoomNotFound is returned when no active room has the id.
var ErrRoomNotFound = errors.New("room not found")

const roomColumns = `id, name, capacity, type, location, description, is_active, created_at, updated_at`

// Store is the room service database.
type Store struct {
	*sql.DB
	logger *zerolog.Logger
}

// NewStore opens (or creates) the room database and ensures the schema.
func NewStore(path string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			capacity INTEGER NOT NULL,
			type TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_type ON rooms(type)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_active ON rooms(is_active)`,
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return nil, fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	logger.Info().Str("path", path).Msg("Room database initialized")
	return &Store{DB: db, logger: logger}, nil
}

// Create inserts a room with a fresh id.
func (s *Store) Create(ctx context.Context, room *models.Room) error {
	room.ID = uuid.NewString()
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	room.IsActive = true

	_, err := s.ExecContext(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.Capacity, room.Type, room.Location,
		room.Description, room.IsActive, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an active room.
func (s *Store) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	result, err := s.ExecContext(ctx, `
		UPDATE rooms SET name = ?, capacity = ?, type = ?, location = ?, description = ?, updated_at = ?
		WHERE id = ? AND is_active = 1`,
		room.Name, room.Capacity, room.Type, room.Location, room.Description,
		room.UpdatedAt, room.ID,
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return requireRow(result, ErrRoomNotFound)
}

// Deactivate soft-deletes a room.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	result, err := s.ExecContext(ctx, `
		UPDATE rooms SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate room: %w", err)
	}
	return requireRow(result, ErrRoomNotFound)
}

// GetByID returns an active room.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Room, error) {
	row := s.QueryRowContext(ctx, `
		SELECT `+roomColumns+` FROM rooms WHERE id = ? AND is_active = 1`, id)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// List returns all active rooms.
func (s *Store) List(ctx context.Context) ([]models.Room, error) {
	return s.queryRooms(ctx, `
		SELECT `+roomColumns+` FROM rooms WHERE is_active = 1 ORDER BY name`)
}

// ListByType returns active rooms of the given type.
func (s *Store) ListByType(ctx context.Context, roomType string) ([]models.Room, error) {
	return s.queryRooms(ctx, `
		SELECT `+roomColumns+` FROM rooms WHERE type = ? AND is_active = 1 ORDER BY name`, roomType)
}

// ListByMinCapacity returns active rooms seating at least minCapacity.
func (s *Store) ListByMinCapacity(ctx context.Context, minCapacity int) ([]models.Room, error) {
	return s.queryRooms(ctx, `
		SELECT `+roomColumns+` FROM rooms WHERE capacity >= ? AND is_active = 1 ORDER BY capacity, name`, minCapacity)
}

func (s *Store) queryRooms(ctx context.Context, query string, args ...any) ([]models.Room, error) {
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var result []models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		result = append(result, *room)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var room models.Room
	err := row.Scan(
		&room.ID, &room.Name, &room.Capacity, &room.Type, &room.Location,
		&room.Description, &room.IsActive, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func requireRow(result sql.Result, missing error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return missing
	}
	return nil
}
