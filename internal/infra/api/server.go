// Package api serves the control panel REST API and the live event stream.
//
//	GET  /api/devices                    device list
//	POST /api/devices/{id}/toggle        flip one device (needs connection)
//	POST /api/devices/all/{on|off}       switch every device (needs connection)
//	POST /api/connection/{on|off}        connect or drop the device link
//	GET  /api/history                    recent voice commands, newest first
//	POST /api/listening/{on|off}         start or stop voice control
//	GET  /api/status                     voice control and monitor state
//	POST /api/monitor/{on|off}           start or stop sensor monitoring
//	GET  /api/readings                   current reading, window and trend
//	GET  /ws                             websocket event stream
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"voice-home/internal/application"
	"voice-home/internal/domain"
)

type Server struct {
	addr      string
	assistant *application.Assistant
	home      *application.Home
	monitor   *application.Monitor
	stream    *Stream
	router    *mux.Router
	logger    *slog.Logger

	mu      sync.Mutex
	server  *http.Server
	baseCtx context.Context
}

func NewServer(
	addr string,
	assistant *application.Assistant,
	home *application.Home,
	monitor *application.Monitor,
	stream *Stream,
	logger *slog.Logger,
) *Server {
	s := &Server{
		addr:      addr,
		assistant: assistant,
		home:      home,
		monitor:   monitor,
		stream:    stream,
		router:    mux.NewRouter(),
		logger:    logger,
		baseCtx:   context.Background(),
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/devices", s.handleDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices/all/{state:on|off}", s.handleAllDevices).Methods(http.MethodPost)
	api.HandleFunc("/devices/{id}/toggle", s.handleToggle).Methods(http.MethodPost)
	api.HandleFunc("/connection/{state:on|off}", s.handleConnection).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/listening/{state:on|off}", s.handleListening).Methods(http.MethodPost)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/monitor/{state:on|off}", s.handleMonitor).Methods(http.MethodPost)
	api.HandleFunc("/readings", s.handleReadings).Methods(http.MethodGet)
	s.router.Handle("/ws", stream).Methods(http.MethodGet)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background. ctx bounds the lifetime of work started
// through the API, such as sensor monitoring.
func (s *Server) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return
	}
	s.baseCtx = ctx
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	srv := s.server

	go func() {
		s.logger.Info("api server starting", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()
}

func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := srv.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	return nil
}

func (s *Server) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.home.Devices())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	d, err := s.home.Toggle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAllDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.home.SetAll(r.Context(), isOn(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	s.home.SetConnected(isOn(r))
	writeJSON(w, http.StatusOK, map[string]bool{"connected": s.home.Connected()})
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.assistant.History())
}

func (s *Server) handleListening(w http.ResponseWriter, r *http.Request) {
	if isOn(r) {
		if err := s.assistant.StartListening(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	} else {
		s.assistant.StopListening(r.Context())
	}
	writeJSON(w, http.StatusOK, s.assistant.Status())
}

type statusResponse struct {
	application.Status
	Monitoring bool `json:"monitoring"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:     s.assistant.Status(),
		Monitoring: s.monitor.Monitoring(),
	})
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	if isOn(r) {
		s.monitor.Start(s.baseContext())
	} else {
		s.monitor.Stop()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"monitoring": s.monitor.Monitoring()})
}

type readingsResponse struct {
	Current         domain.Reading   `json:"current"`
	Readings        []domain.Reading `json:"readings"`
	Trend           domain.Trend     `json:"trend"`
	TemperatureBand string           `json:"temperature_band"`
	HumidityBand    string           `json:"humidity_band"`
	Monitoring      bool             `json:"monitoring"`
}

func (s *Server) handleReadings(w http.ResponseWriter, _ *http.Request) {
	current := s.monitor.Current()
	writeJSON(w, http.StatusOK, readingsResponse{
		Current:         current,
		Readings:        s.monitor.Readings(),
		Trend:           s.monitor.Trend(),
		TemperatureBand: domain.TemperatureBand(current.Temperature),
		HumidityBand:    domain.HumidityBand(current.Humidity),
		Monitoring:      s.monitor.Monitoring(),
	})
}

func isOn(r *http.Request) bool {
	return mux.Vars(r)["state"] == "on"
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDeviceNotFound):
		code = http.StatusNotFound
	case errors.Is(err, application.ErrNotConnected):
		code = http.StatusConflict
	case errors.Is(err, application.ErrUnsupported):
		code = http.StatusNotImplemented
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
