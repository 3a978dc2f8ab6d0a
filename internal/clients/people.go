package clients

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/HastyAy/RoomManagementSystem/internal/models"
)

// PersonClient reads student and professor reference data from the user
// service.
type PersonClient struct {
	*Client
}

// NewPersonClient constructs a user service client.
func NewPersonClient(baseURL string, logger *zerolog.Logger) *PersonClient {
	return &PersonClient{Client: New(baseURL, logger)}
}

// GetStudent fetches a student snapshot by id; a miss yields (nil, nil).
func (c *PersonClient) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	cacheKey := "student:" + id
	var student models.Student

	if c.readCache(ctx, cacheKey, &student) {
		return &student, nil
	}

	found, err := c.getEnvelope(ctx, fmt.Sprintf("/api/student/%s", url.PathEscape(id)), &student)
	if err != nil {
		c.logger.Warn().Err(err).Str("student_id", id).Msg("student lookup failed")
		return nil, err
	}
	if !found {
		return nil, nil
	}

	c.writeCache(ctx, cacheKey, student)
	return &student, nil
}

// GetProfessor fetches a professor snapshot by id; a miss yields (nil, nil).
func (c *PersonClient) GetProfessor(ctx context.Context, id string) (*models.Professor, error) {
	cacheKey := "professor:" + id
	var prof models.Professor

	if c.readCache(ctx, cacheKey, &prof) {
		return &prof, nil
	}

	found, err := c.getEnvelope(ctx, fmt.Sprintf("/api/professor/%s", url.PathEscape(id)), &prof)
	if err != nil {
		c.logger.Warn().Err(err).Str("professor_id", id).Msg("professor lookup failed")
		return nil, err
	}
	if !found {
		return nil, nil
	}

	c.writeCache(ctx, cacheKey, prof)
	return &prof, nil
}

// StudentExists reports whether the user service knows the student.
func (c *PersonClient) StudentExists(ctx context.Context, id string) (bool, error) {
	student, err := c.GetStudent(ctx, id)
	if err != nil {
		return false, err
	}
	return student != nil, nil
}

// ProfessorExists reports whether the user service knows the professor.
func (c *PersonClient) ProfessorExists(ctx context.Context, id string) (bool, error) {
	prof, err := c.GetProfessor(ctx, id)
	if err != nil {
		return false, err
	}
	return prof != nil, nil
}
