package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/HastyAy/RoomManagementSystem/internal/metrics"
	"github.com/HastyAy/RoomManagementSystem/internal/models"
	"github.com/HastyAy/RoomManagementSystem/shared/envelope"
)

// RoomRequest is the create/update payload.
type RoomRequest struct {
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	Type        string `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// HTTPServer exposes the room store over HTTP.
type HTTPServer struct {
	server *http.Server
	store  *Store
	log    *zerolog.Logger
}

// NewHTTPServer builds the room service HTTP surface.
func NewHTTPServer(addr string, store *Store, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{store: store, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/room", s.handleList)
	mux.HandleFunc("POST /api/room", s.handleCreate)
	mux.HandleFunc("GET /api/room/type/{type}", s.handleByType)
	mux.HandleFunc("GET /api/room/capacity/{min}", s.handleByCapacity)
	mux.HandleFunc("GET /api/room/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/room/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/room/{id}", s.handleDelete)
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
		s.log.Info().Str("addr", s.server.Addr).Msg("Room service listening")
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

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("room_list")
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	envelope.WriteData(w, http.StatusOK, emptyIfNil(list))
}

func (s *HTTPServer) handleGet(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("room_get")
	room, err := s.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	envelope.WriteData(w, http.StatusOK, room)
}

func (s *HTTPServer) handleByType(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("room_by_type")
	list, err := s.store.ListByType(r.Context(), r.PathValue("type"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	envelope.WriteData(w, http.StatusOK, emptyIfNil(list))
}

func (s *HTTPServer) handleByCapacity(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("room_by_capacity")
	min, err := strconv.Atoi(r.PathValue("min"))
	if err != nil || min < 1 {
		envelope.WriteError(w, http.StatusBadRequest, "invalid minimum capacity")
		return
	}
	list, err := s.store.ListByMinCapacity(r.Context(), min)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	envelope.WriteData(w, http.StatusOK, emptyIfNil(list))
}

func (s *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("room_create")
	req, ok := s.decodeRoom(w, r)
	if !ok {
		return
	}
	room := req.toModel()
	if err := s.store.Create(r.Context(), room); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info().Str("room_id", room.ID).Str("name", room.Name).Msg("Room created")
	envelope.WriteData(w, http.StatusCreated, room)
}

func (s *HTTPServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("room_update")
	req, ok := s.decodeRoom(w, r)
	if !ok {
		return
	}
	room := req.toModel()
	room.ID = r.PathValue("id")
	if err := s.store.Update(r.Context(), room); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info().Str("room_id", room.ID).Msg("Room updated")
	envelope.WriteData(w, http.StatusOK, room)
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("room_delete")
	id := r.PathValue("id")
	if err := s.store.Deactivate(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info().Str("room_id", id).Msg("Room deleted")
	envelope.WriteJSON(w, http.StatusOK, envelope.Response{Success: true, Message: "Room deleted successfully"})
}

func (s *HTTPServer) decodeRoom(w http.ResponseWriter, r *http.Request) (*RoomRequest, bool) {
	var req RoomRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		envelope.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if msg := req.validate(); msg != "" {
		envelope.WriteError(w, http.StatusBadRequest, msg)
		return nil, false
	}
	return &req, true
}

func (r *RoomRequest) validate() string {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return "Name is required"
	case r.Capacity < 1:
		return "Capacity must be at least 1"
	case strings.TrimSpace(r.Type) == "":
		return "Type is required"
	}
	return ""
}

func (r *RoomRequest) toModel() *models.Room {
	return &models.Room{
		Name:        strings.TrimSpace(r.Name),
		Capacity:    r.Capacity,
		Type:        strings.TrimSpace(r.Type),
		Location:    strings.TrimSpace(r.Location),
		Description: strings.TrimSpace(r.Description),
	}
}

func (s *HTTPServer) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrRoomNotFound) {
		envelope.WriteError(w, http.StatusNotFound, "Room not found")
		return
	}
	s.log.Error().Err(err).Msg("Room store error")
	envelope.WriteError(w, http.StatusInternalServerError, "internal server error")
}

func emptyIfNil(list []models.Room) []models.Room {
	if list == nil {
		return []models.Room{}
	}
	return list
}
