// Package api exposes the booking service HTTP surface. Every endpoint
// answers with the shared {success, data, message} envelope.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/HastyAy/RoomManagementSystem/internal/booking"
	"github.com/HastyAy/RoomManagementSystem/internal/models"
	"github.com/HastyAy/RoomManagementSystem/shared/envelope"
)

// BookingService is the admission controller surface the handlers call.
type BookingService interface {
	CreateBooking(ctx context.Context, req booking.Request) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id string, req booking.Request) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	CheckAvailability(ctx context.Context, roomID string, start, end time.Time) (bool, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetAllBookings(ctx context.Context) ([]models.Booking, error)
	GetBookingsByRoom(ctx context.Context, roomID string) ([]models.Booking, error)
	GetBookingsByPerson(ctx context.Context, studentID, professorID string) ([]models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)
}

// Reporter renders the bookings workbook for the report endpoint.
type Reporter interface {
	Build(ctx context.Context, w io.Writer) error
}

// HTTPServer serves the booking API.
type HTTPServer struct {
	server   *http.Server
	svc      BookingService
	reporter Reporter
	log      *zerolog.Logger
}

// NewHTTPServer builds the server with its routes and middleware. rps and
// burst configure the per-client rate limiter; rps <= 0 disables it.
func NewHTTPServer(addr string, svc BookingService, reporter Reporter, rps float64, burst int, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{svc: svc, reporter: reporter, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/booking", s.handleGetAll)
	mux.HandleFunc("POST /api/booking", s.handleCreate)
	mux.HandleFunc("GET /api/booking/date-range", s.handleGetByDateRange)
	mux.HandleFunc("GET /api/booking/report", s.handleReport)
	mux.HandleFunc("GET /api/booking/room/{roomId}", s.handleGetByRoom)
	mux.HandleFunc("GET /api/booking/room/{roomId}/availability", s.handleAvailability)
	mux.HandleFunc("GET /api/booking/student/{id}", s.handleGetByStudent)
	mux.HandleFunc("GET /api/booking/professor/{id}", s.handleGetByProfessor)
	mux.HandleFunc("GET /api/booking/{id}", s.handleGetByID)
	mux.HandleFunc("PUT /api/booking/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/booking/{id}", s.handleDelete)
	mux.HandleFunc("GET /healthz", handleHealthz)

	var handler http.Handler = mux
	if rps > 0 {
		handler = RateLimit(rps, burst)(handler)
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the configured handler chain, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info().Str("addr", s.server.Addr).Msg("booking API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// writeServiceError maps admission errors onto HTTP statuses; anything
// untyped becomes a generic 500 so no internal detail leaks to callers.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error, generic string) {
	switch booking.KindOf(err) {
	case booking.KindValidation:
		envelope.WriteError(w, http.StatusBadRequest, err.Error())
	case booking.KindConflict:
		envelope.WriteError(w, http.StatusConflict, err.Error())
	case booking.KindNotFound:
		envelope.WriteError(w, http.StatusNotFound, err.Error())
	case booking.KindUnavailable:
		envelope.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error().Err(err).Msg(generic)
		envelope.WriteError(w, http.StatusInternalServerError, generic)
	}
}
