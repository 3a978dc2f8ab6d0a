package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the booking service database.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

// NewDB opens (or creates) the booking database and ensures the schema.
// Transactions take the write lock up front (_txlock=immediate), which keeps
// the conflict-check-then-insert admission path serialized.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, path: path, logger: logger}
	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Booking database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			student_id TEXT,
			professor_id TEXT,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			purpose TEXT NOT NULL DEFAULT '',
			room_name TEXT NOT NULL DEFAULT '',
			room_location TEXT NOT NULL DEFAULT '',
			room_capacity INTEGER NOT NULL DEFAULT 0,
			person_name TEXT NOT NULL DEFAULT '',
			matri_number TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_room_status ON bookings(room_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_student ON bookings(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_professor ON bookings(professor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_start ON bookings(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
