package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/HastyAy/RoomManagementSystem/internal/booking"
	"github.com/HastyAy/RoomManagementSystem/internal/metrics"
	"github.com/HastyAy/RoomManagementSystem/internal/models"
	"github.com/HastyAy/RoomManagementSystem/shared/envelope"
)

// BookingRequest is the request body for POST and PUT /api/booking.
type BookingRequest struct {
	RoomID      string    `json:"room_id"`
	StudentID   string    `json:"student_id,omitempty"`
	ProfessorID string    `json:"professor_id,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Purpose     string    `json:"purpose,omitempty"`
}

// BookingResponse is a booking as rendered on the wire, snapshot fields
// flattened the way downstream consumers expect them.
type BookingResponse struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"room_id"`
	StudentID    string    `json:"student_id,omitempty"`
	ProfessorID  string    `json:"professor_id,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Purpose      string    `json:"purpose,omitempty"`
	RoomName     string    `json:"room_name,omitempty"`
	RoomLocation string    `json:"room_location,omitempty"`
	RoomCapacity int       `json:"room_capacity,omitempty"`
	PersonName   string    `json:"person_name,omitempty"`
	MatriNumber  string    `json:"matri_number,omitempty"`
	Department   string    `json:"department,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		RoomID:       b.RoomID,
		StudentID:    b.Owner.StudentID(),
		ProfessorID:  b.Owner.ProfessorID(),
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Purpose:      b.Purpose,
		RoomName:     b.Room.Name,
		RoomLocation: b.Room.Location,
		RoomCapacity: b.Room.Capacity,
		PersonName:   b.Person.Name,
		MatriNumber:  b.Person.MatriNumber,
		Department:   b.Person.Department,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toBookingResponses(bookings []models.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	return out
}

func decodeBookingRequest(r *http.Request) (booking.Request, error) {
	var req BookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return booking.Request{}, fmt.Errorf("invalid JSON body")
	}
	return booking.Request{
		RoomID:      req.RoomID,
		StudentID:   req.StudentID,
		ProfessorID: req.ProfessorID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Purpose:     req.Purpose,
	}, nil
}

// handleCreate admits a new booking.
// POST /api/booking
func (s *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_create")

	req, err := decodeBookingRequest(r)
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.svc.CreateBooking(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err, "Failed to create booking")
		return
	}

	s.log.Info().
		Str("booking_id", b.ID).
		Str("room_id", b.RoomID).
		Time("start", b.StartTime).
		Time("end", b.EndTime).
		Msg("booking created")
	envelope.WriteData(w, http.StatusCreated, toBookingResponse(b))
}

// handleUpdate replaces an existing booking.
// PUT /api/booking/{id}
func (s *HTTPServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_update")

	req, err := decodeBookingRequest(r)
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.svc.UpdateBooking(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err, "Failed to update booking")
		return
	}

	s.log.Info().Str("booking_id", b.ID).Msg("booking updated")
	envelope.WriteData(w, http.StatusOK, toBookingResponse(b))
}

// handleDelete soft-deletes a booking.
// DELETE /api/booking/{id}
func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_delete")

	id := r.PathValue("id")
	if err := s.svc.DeleteBooking(r.Context(), id); err != nil {
		s.writeServiceError(w, err, "Failed to delete booking")
		return
	}

	s.log.Info().Str("booking_id", id).Msg("booking cancelled")
	envelope.WriteData(w, http.StatusOK, nil)
}

// handleGetByID returns one active booking.
// GET /api/booking/{id}
func (s *HTTPServer) handleGetByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_get")

	b, err := s.svc.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "Failed to get booking")
		return
	}
	envelope.WriteData(w, http.StatusOK, toBookingResponse(b))
}

// handleGetAll lists active bookings.
// GET /api/booking
func (s *HTTPServer) handleGetAll(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_list")

	bookings, err := s.svc.GetAllBookings(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "Failed to get bookings")
		return
	}
	envelope.WriteData(w, http.StatusOK, toBookingResponses(bookings))
}

// handleGetByRoom lists active bookings for one room.
// GET /api/booking/room/{roomId}
func (s *HTTPServer) handleGetByRoom(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_by_room")

	bookings, err := s.svc.GetBookingsByRoom(r.Context(), r.PathValue("roomId"))
	if err != nil {
		s.writeServiceError(w, err, "Failed to get bookings")
		return
	}
	envelope.WriteData(w, http.StatusOK, toBookingResponses(bookings))
}

// handleGetByStudent lists active bookings owned by a student.
// GET /api/booking/student/{id}
func (s *HTTPServer) handleGetByStudent(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_by_student")

	bookings, err := s.svc.GetBookingsByPerson(r.Context(), r.PathValue("id"), "")
	if err != nil {
		s.writeServiceError(w, err, "Failed to get bookings")
		return
	}
	envelope.WriteData(w, http.StatusOK, toBookingResponses(bookings))
}

// handleGetByProfessor lists active bookings owned by a professor.
// GET /api/booking/professor/{id}
func (s *HTTPServer) handleGetByProfessor(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_by_professor")

	bookings, err := s.svc.GetBookingsByPerson(r.Context(), "", r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "Failed to get bookings")
		return
	}
	envelope.WriteData(w, http.StatusOK, toBookingResponses(bookings))
}

// handleGetByDateRange lists active bookings contained in [start, end].
// GET /api/booking/date-range?start=RFC3339&end=RFC3339
func (s *HTTPServer) handleGetByDateRange(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_by_date_range")

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, "invalid start; expected RFC3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, "invalid end; expected RFC3339 timestamp")
		return
	}

	bookings, err := s.svc.GetBookingsByDateRange(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, err, "Failed to get bookings")
		return
	}
	envelope.WriteData(w, http.StatusOK, toBookingResponses(bookings))
}

// handleAvailability reports whether a room is free for a slot.
// GET /api/booking/room/{roomId}/availability?start=RFC3339&end=RFC3339
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_availability")

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, "invalid start; expected RFC3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		envelope.WriteError(w, http.StatusBadRequest, "invalid end; expected RFC3339 timestamp")
		return
	}

	available, err := s.svc.CheckAvailability(r.Context(), r.PathValue("roomId"), start, end)
	if err != nil {
		s.writeServiceError(w, err, "Failed to check room availability")
		return
	}
	envelope.WriteData(w, http.StatusOK, map[string]bool{"available": available})
}

// handleReport streams the bookings workbook.
// GET /api/booking/report
func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_report")

	if s.reporter == nil {
		envelope.WriteError(w, http.StatusNotFound, "report export is not configured")
		return
	}

	filename := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := s.reporter.Build(r.Context(), w); err != nil {
		s.log.Error().Err(err).Msg("report export failed")
	}
}
