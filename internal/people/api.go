package people

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/HastyAy/RoomManagementSystem/internal/metrics"
	"github.com/HastyAy/RoomManagementSystem/internal/models"
	"github.com/HastyAy/RoomManagementSystem/shared/envelope"
)

// StudentRequest is the student create/update payload.
type StudentRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	MatriNumber string `json:"matri_number"`
	Email       string `json:"email"`
}

// ProfessorRequest is the professor create/update payload.
type ProfessorRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	Title      string `json:"title"`
	Email      string `json:"email"`
}

// HTTPServer exposes the user store over HTTP.
type HTTPServer struct {
	server *http.Server
	store  *Store
	log    *zerolog.Logger
}

// NewHTTPServer builds the user service HTTP surface.
func NewHTTPServer(addr string, store *Store, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{store: store, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/student", s.handleListStudents)
	mux.HandleFunc("POST /api/student", s.handleCreateStudent)
	mux.HandleFunc("GET /api/student/matri/{matriNumber}", s.handleStudentByMatri)
	mux.HandleFunc("GET /api/student/{id}", s.handleGetStudent)
	mux.HandleFunc("PUT /api/student/{id}", s.handleUpdateStudent)
	mux.HandleFunc("DELETE /api/student/{id}", s.handleDeleteStudent)

	mux.HandleFunc("GET /api/professor", s.handleListProfessors)
	mux.HandleFunc("POST /api/professor", s.handleCreateProfessor)
	mux.HandleFunc("GET /api/professor/department/{department}", s.handleProfessorsByDepartment)
	mux.HandleFunc("GET /api/professor/{id}", s.handleGetProfessor)
	mux.HandleFunc("PUT /api/professor/{id}", s.handleUpdateProfessor)
	mux.HandleFunc("DELETE /api/professor/{id}", s.handleDeleteProfessor)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctxPing, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := store.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the configured mux.
func (s *HTTPServer) Handler() http.Handler { return s.server.Handler }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("User service listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

// --- student handlers ---

func (s *HTTPServer) handleListStudents(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("student_list")
	list, err := s.store.ListStudents(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if list == nil {
		list = []models.Student{}
	}
	envelope.WriteData(w, http.StatusOK, list)
}

func (s *HTTPServer) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("student_get")
	st, err := s.store.GetStudent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	envelope.WriteData(w, http.StatusOK, st)
}

func (s *HTTPServer) handleStudentByMatri(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("student_by_matri")
	st, err := s.store.GetStudentByMatri(r.Context(), r.PathValue("matriNumber"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	envelope.WriteData(w, http.StatusOK, st)
}

func (s *HTTPServer) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("student_create")
	req, ok := decodeBody[StudentRequest](w, r)
	if !ok {
		return
	}
	if msg := req.validate(); msg != "" {
		envelope.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	st := req.toModel()
	if err := s.store.CreateStudent(r.Context(), st); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info().Str("student_id", st.ID).Str("matri_number", st.MatriNumber).Msg("Student created")
	envelope.WriteData(w, http.StatusCreated, st)
}

func (s *HTTPServer) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("student_update")
	req, ok := decodeBody[StudentRequest](w, r)
	if !ok {
		return
	}
	if msg := req.validate(); msg != "" {
		envelope.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	st := req.toModel()
	st.ID = r.PathValue("id")
	if err := s.store.UpdateStudent(r.Context(), st); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info().Str("student_id", st.ID).Msg("Student updated")
	envelope.WriteData(w, http.StatusOK, st)
}

func (s *HTTPServer) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("student_delete")
	id := r.PathValue("id")
	if err := s.store.DeactivateStudent(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info().Str("student_id", id).Msg("Student deleted")
	envelope.WriteJSON(w, http.StatusOK, envelope.Response{Success: true, Message: "Student deleted successfully"})
}

// --- professor handlers ---

func (s *HTTPServer) handleListProfessors(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("professor_list")
	list, err := s.store.ListProfessors(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if list == nil {
		list = []models.Professor{}
	}
	envelope.WriteData(w, http.StatusOK, list)
}

func (s *HTTPServer) handleGetProfessor(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("professor_get")
	p, err := s.store.GetProfessor(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	envelope.WriteData(w, http.StatusOK, p)
}

func (s *HTTPServer) handleProfessorsByDepartment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("professor_by_department")
	list, err := s.store.ListProfessorsByDepartment(r.Context(), r.PathValue("department"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if list == nil {
		list = []models.Professor{}
	}
	envelope.WriteData(w, http.StatusOK, list)
}

func (s *HTTPServer) handleCreateProfessor(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("professor_create")
	req, ok := decodeBody[ProfessorRequest](w, r)
	if !ok {
		return
	}
	if msg := req.validate(); msg != "" {
		envelope.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	p := req.toModel()
	if err := s.store.CreateProfessor(r.Context(), p); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info().Str("professor_id", p.ID).Str("department", p.Department).Msg("Professor created")
	envelope.WriteData(w, http.StatusCreated, p)
}

func (s *HTTPServer) handleUpdateProfessor(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("professor_update")
	req, ok := decodeBody[ProfessorRequest](w, r)
	if !ok {
		return
	}
	if msg := req.validate(); msg != "" {
		envelope.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	p := req.toModel()
	p.ID = r.PathValue("id")
	if err := s.store.UpdateProfessor(r.Context(), p); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info().Str("professor_id", p.ID).Msg("Professor updated")
	envelope.WriteData(w, http.StatusOK, p)
}

func (s *HTTPServer) handleDeleteProfessor(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("professor_delete")
	id := r.PathValue("id")
	if err := s.store.DeactivateProfessor(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info().Str("professor_id", id).Msg("Professor deleted")
	envelope.WriteJSON(w, http.StatusOK, envelope.Response{Success: true, Message: "Professor deleted successfully"})
}

func decodeBody[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		envelope.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return &req, true
}

func (r *StudentRequest) validate() string {
	switch {
	case strings.TrimSpace(r.FirstName) == "":
		return "FirstName is required"
	case strings.TrimSpace(r.LastName) == "":
		return "LastName is required"
	case strings.TrimSpace(r.MatriNumber) == "":
		return "MatriNumber is required"
	}
	return ""
}

func (r *StudentRequest) toModel() *models.Student {
	return &models.Student{
		FirstName:   strings.TrimSpace(r.FirstName),
		LastName:    strings.TrimSpace(r.LastName),
		MatriNumber: strings.TrimSpace(r.MatriNumber),
		Email:       strings.TrimSpace(r.Email),
	}
}

func (r *ProfessorRequest) validate() string {
	switch {
	case strings.TrimSpace(r.FirstName) == "":
		return "FirstName is required"
	case strings.TrimSpace(r.LastName) == "":
		return "LastName is required"
	case strings.TrimSpace(r.Department) == "":
		return "Department is required"
	}
	return ""
}

func (r *ProfessorRequest) toModel() *models.Professor {
	return &models.Professor{
		FirstName:  strings.TrimSpace(r.FirstName),
		LastName:   strings.TrimSpace(r.LastName),
		Department: strings.TrimSpace(r.Department),
		Title:      strings.TrimSpace(r.Title),
		Email:      strings.TrimSpace(r.Email),
	}
}

func (s *HTTPServer) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrStudentNotFound):
		envelope.WriteError(w, http.StatusNotFound, "Student not found")
	case errors.Is(err, ErrProfessorNotFound):
		envelope.WriteError(w, http.StatusNotFound, "Professor not found")
	default:
		s.log.Error().Err(err).Msg("User store error")
		envelope.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
