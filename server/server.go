// Package server is the gateway's HTTP surface: circuit dispatch,
// credential saving, backend discovery, the circuit library and metrics.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/perclft/QuantumBridge/backends"
	"github.com/perclft/QuantumBridge/circuit"
	"github.com/perclft/QuantumBridge/credentials"
	"github.com/perclft/QuantumBridge/dispatch"
	"github.com/perclft/QuantumBridge/library"
)

type Server struct {
	orchestrator *dispatch.Orchestrator
	registry     *backends.Registry
	credStore    *credentials.Store
	library      *library.Store
	maxShots     int
	logger       *slog.Logger
}

func New(orc *dispatch.Orchestrator, reg *backends.Registry, credStore *credentials.Store,
	lib *library.Store, maxShots int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		orchestrator: orc,
		registry:     reg,
		credStore:    credStore,
		library:      lib,
		maxShots:     maxShots,
		logger:       logger,
	}
}

// Routes mounts every handler on mux. The /circuits routes are only
// available when a library store is configured.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("POST /save_credentials", s.handleSaveCredentials)
	mux.HandleFunc("GET /backends", s.handleListBackends)
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.library != nil {
		mux.HandleFunc("POST /circuits", s.handleSaveCircuit)
		mux.HandleFunc("GET /circuits", s.handleListCircuits)
		mux.HandleFunc("GET /circuits/{id}", s.handleLoadCircuit)
		mux.HandleFunc("DELETE /circuits/{id}", s.handleDeleteCircuit)
	}
}

// ------------------------------------------------------------------
// Dispatch
// ------------------------------------------------------------------

type runRequest struct {
	Provider               string       `json:"provider"`
	Circuit                circuit.Spec `json:"circuit"`
	Shots                  int          `json:"shots"`
	UseSimulatorIfQPUFails bool         `json:"use_simulator_if_qpu_fails"`
	SimulatorChoice        string       `json:"simulator_choice"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, "provider is required", "")
		return
	}
	if req.Shots > s.maxShots {
		writeError(w, http.StatusBadRequest,
			"shots exceeds the maximum of "+strconv.Itoa(s.maxShots), req.Provider)
		return
	}

	res, failure := s.orchestrator.Dispatch(r.Context(), dispatch.Request{
		Provider:               req.Provider,
		Circuit:                req.Circuit,
		Shots:                  req.Shots,
		UseSimulatorIfQPUFails: req.UseSimulatorIfQPUFails,
		SimulatorChoice:        req.SimulatorChoice,
	})
	if failure != nil {
		writeError(w, statusFor(failure), failure.Message, failure.BackendUsed)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps a terminal dispatch failure to an HTTP status. A
// credential failure is a 401 only when no fallback attempt ran; once a
// fallback has been tried and failed, the response is a plain 500.
func statusFor(f *dispatch.Failure) int {
	switch f.Class {
	case dispatch.ClassValidation, dispatch.ClassConfiguration:
		return http.StatusBadRequest
	case dispatch.ClassCredential:
		if !f.FallbackAttempted {
			return http.StatusUnauthorized
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ------------------------------------------------------------------
// Credentials
// ------------------------------------------------------------------

type saveCredentialsRequest struct {
	Provider    string             `json:"provider"`
	Credentials credentials.Bundle `json:"credentials"`
}

func (s *Server) handleSaveCredentials(w http.ResponseWriter, r *http.Request) {
	var req saveCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, "provider is required", "")
		return
	}
	s.credStore.Save(req.Provider, req.Credentials)
	s.logger.Info("credentials saved", "provider", req.Provider)
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "provider": req.Provider})
}

// ------------------------------------------------------------------
// Backend discovery
// ------------------------------------------------------------------

func (s *Server) handleListBackends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"backends": s.registry.List()})
}

// ------------------------------------------------------------------
// Circuit library
// ------------------------------------------------------------------

type saveCircuitRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Circuit     circuit.Spec `json:"circuit"`
}

func (s *Server) handleSaveCircuit(w http.ResponseWriter, r *http.Request) {
	var req saveCircuitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", "")
		return
	}

	rec, err := s.library.Save(r.Context(), req.Name, req.Description, req.Circuit)
	if err != nil {
		var ve *circuit.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}
		s.logger.Error("circuit save failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to save circuit", "")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListCircuits(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	records, err := s.library.List(r.Context(), page, pageSize)
	if err != nil {
		s.logger.Error("circuit list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list circuits", "")
		return
	}
	if records == nil {
		records = []library.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"circuits": records})
}

func (s *Server) handleLoadCircuit(w http.ResponseWriter, r *http.Request) {
	rec, err := s.library.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error(), "")
			return
		}
		s.logger.Error("circuit load failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load circuit", "")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteCircuit(w http.ResponseWriter, r *http.Request) {
	if err := s.library.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error(), "")
			return
		}
		s.logger.Error("circuit delete failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete circuit", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ------------------------------------------------------------------
// Response helpers
// ------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg, backendUsed string) {
	writeJSON(w, status, map[string]string{"error": msg, "backend_used": backendUsed})
}
