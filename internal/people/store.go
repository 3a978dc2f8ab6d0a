// Package people implements the user service: student and professor
// persistence plus the HTTP surface the booking service resolves owners
// against.
package people

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

// Store errors.
var (
	ErrStudentNotFound   = errors.New("student not found")
	ErrProfessorNotFound = errors.New("professor not found")
)

const (
	studentColumns   = `id, first_name, last_name, matri_number, email, is_active, created_at, updated_at`
	professorColumns = `id, first_name, last_name, department, title, email, is_active, created_at, updated_at`
)

// Store is the user service database. Students and professors live in
// separate tables with their own query paths.
type Store struct {
	*sql.DB
	logger *zerolog.Logger
}

// NewStore opens (or creates) the user database and ensures the schema.
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
		`CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			matri_number TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS professors (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			department TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_students_matri ON students(matri_number)`,
		`CREATE INDEX IF NOT EXISTS idx_professors_department ON professors(department)`,
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return nil, fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	logger.Info().Str("path", path).Msg("User database initialized")
	return &Store{DB: db, logger: logger}, nil
}

// --- students ---

// CreateStudent inserts a student with a fresh id.
func (s *Store) CreateStudent(ctx context.Context, st *models.Student) error {
	st.ID = uuid.NewString()
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now
	st.IsActive = true

	_, err := s.ExecContext(ctx, `
		INSERT INTO students (`+studentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.FirstName, st.LastName, st.MatriNumber, st.Email,
		st.IsActive, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// UpdateStudent replaces the mutable fields of an active student.
func (s *Store) UpdateStudent(ctx context.Context, st *models.Student) error {
	st.UpdatedAt = time.Now().UTC()
	result, err := s.ExecContext(ctx, `
		UPDATE students SET first_name = ?, last_name = ?, matri_number = ?, email = ?, updated_at = ?
		WHERE id = ? AND is_active = 1`,
		st.FirstName, st.LastName, st.MatriNumber, st.Email, st.UpdatedAt, st.ID,
	)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireRow(result, ErrStudentNotFound)
}

// DeactivateStudent soft-deletes a student.
func (s *Store) DeactivateStudent(ctx context.Context, id string) error {
	result, err := s.ExecContext(ctx, `
		UPDATE students SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return requireRow(result, ErrStudentNotFound)
}

// GetStudent returns an active student by id.
func (s *Store) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	row := s.QueryRowContext(ctx, `
		SELECT `+studentColumns+` FROM students WHERE id = ? AND is_active = 1`, id)
	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	return st, err
}

// GetStudentByMatri returns an active student by matriculation number.
func (s *Store) GetStudentByMatri(ctx context.Context, matriNumber string) (*models.Student, error) {
	row := s.QueryRowContext(ctx, `
		SELECT `+studentColumns+` FROM students WHERE matri_number = ? AND is_active = 1`, matriNumber)
	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	return st, err
}

// ListStudents returns all active students.
func (s *Store) ListStudents(ctx context.Context) ([]models.Student, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT `+studentColumns+` FROM students WHERE is_active = 1 ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var result []models.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		result = append(result, *st)
	}
	return result, rows.Err()
}

// --- professors ---

// CreateProfessor inserts a professor with a fresh id.
func (s *Store) CreateProfessor(ctx context.Context, p *models.Professor) error {
	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.IsActive = true

	_, err := s.ExecContext(ctx, `
		INSERT INTO professors (`+professorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FirstName, p.LastName, p.Department, p.Title, p.Email,
		p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert professor: %w", err)
	}
	return nil
}

// UpdateProfessor replaces the mutable fields of an active professor.
func (s *Store) UpdateProfessor(ctx context.Context, p *models.Professor) error {
	p.UpdatedAt = time.Now().UTC()
	result, err := s.ExecContext(ctx, `
		UPDATE professors SET first_name = ?, last_name = ?, department = ?, title = ?, email = ?, updated_at = ?
		WHERE id = ? AND is_active = 1`,
		p.FirstName, p.LastName, p.Department, p.Title, p.Email, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update professor: %w", err)
	}
	return requireRow(result, ErrProfessorNotFound)
}

// DeactivateProfessor soft-deletes a professor.
func (s *Store) DeactivateProfessor(ctx context.Context, id string) error {
	result, err := s.ExecContext(ctx, `
		UPDATE professors SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate professor: %w", err)
	}
	return requireRow(result, ErrProfessorNotFound)
}

// GetProfessor returns an active professor by id.
func (s *Store) GetProfessor(ctx context.Context, id string) (*models.Professor, error) {
	row := s.QueryRowContext(ctx, `
		SELECT `+professorColumns+` FROM professors WHERE id = ? AND is_active = 1`, id)
	p, err := scanProfessor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfessorNotFound
	}
	return p, err
}

// ListProfessors returns all active professors.
func (s *Store) ListProfessors(ctx context.Context) ([]models.Professor, error) {
	return s.queryProfessors(ctx, `
		SELECT `+professorColumns+` FROM professors WHERE is_active = 1 ORDER BY last_name, first_name`)
}

// ListProfessorsByDepartment returns active professors in the department.
func (s *Store) ListProfessorsByDepartment(ctx context.Context, department string) ([]models.Professor, error) {
	return s.queryProfessors(ctx, `
		SELECT `+professorColumns+` FROM professors WHERE department = ? AND is_active = 1 ORDER BY last_name, first_name`, department)
}

func (s *Store) queryProfessors(ctx context.Context, query string, args ...any) ([]models.Professor, error) {
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query professors: %w", err)
	}
	defer rows.Close()

	var result []models.Professor
	for rows.Next() {
		p, err := scanProfessor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan professor: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*models.Student, error) {
	var st models.Student
	err := row.Scan(
		&st.ID, &st.FirstName, &st.LastName, &st.MatriNumber, &st.Email,
		&st.IsActive, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func scanProfessor(row rowScanner) (*models.Professor, error) {
	var p models.Professor
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Department, &p.Title, &p.Email,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
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
