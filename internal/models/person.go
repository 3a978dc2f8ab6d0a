package models

import "time"

// Student is owned by the user service.
type Student struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	MatriNumber string    `json:"matri_number"`
	Email       string    `json:"email"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName is the display name embedded into booking snapshots.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Professor is owned by the user service.
type Professor struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Department string    `json:"department,omitempty"`
	Title      string    `json:"title,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FullName is the display name embedded into booking snapshots.
func (p *Professor) FullName() string {
	if p.Title != "" {
		return p.Title + " " + p.FirstName + " " + p.LastName
	}
	return p.FirstName + " " + p.LastName
}
