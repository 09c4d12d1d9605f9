package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"casservice/internal/dispatcher"
	"casservice/internal/engine"
	"casservice/internal/preprocess"
	"casservice/pkg/logging"
)

// maxBodyBytes caps request bodies well above the largest accepted
// expression (engine guards reject anything past a few hundred bytes).
const maxBodyBytes = 64 << 10

// Server is the HTTP wire adapter over the dispatcher. It owns no engine
// state; every handler delegates and translates between JSON and the
// dispatcher's types.
type Server struct {
	dispatcher *dispatcher.Dispatcher
	version    string
	started    time.Time
	httpServer *http.Server
}

// New creates the wire adapter.
func New(d *dispatcher.Dispatcher, version string) *Server {
	return &Server{
		dispatcher: d,
		version:    version,
		started:    time.Now(),
	}
}

// Handler returns the route table as an http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/compute", s.handleCompute)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/engines", s.handleEngines)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.sendError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then drains with
// a shutdown grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("server", "CAS service listening on %s", addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("server", "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

type validateRequest struct {
	Latex     string   `json:"latex"`
	Engines   []string `json:"engines"`
	Consensus bool     `json:"consensus"`
}

type validateResponse struct {
	Results           []engine.Result `json:"results"`
	Consensus         bool            `json:"consensus"`
	LatexPreprocessed string          `json:"latex_preprocessed"`
	TimeMs            int64           `json:"time_ms"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	var req validateRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.Latex == "" {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "latex field is required", nil)
		return
	}

	selection, err := s.dispatcher.SelectForValidate(req.Engines, req.Consensus)
	if err != nil {
		var unknown *dispatcher.UnknownEngineError
		if errors.As(err, &unknown) {
			s.sendError(w, http.StatusUnprocessableEntity, "UNKNOWN_ENGINE",
				err.Error(), map[string]any{"available": unknown.Available})
			return
		}
		s.sendError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	if len(selection) == 0 {
		s.sendError(w, http.StatusServiceUnavailable, "NO_ENGINES", "No engines available", nil)
		return
	}

	start := time.Now()
	preprocessed := preprocess.Preprocess(req.Latex)
	results := s.dispatcher.Validate(preprocessed, selection, req.Consensus)

	s.sendJSON(w, http.StatusOK, validateResponse{
		Results:           results,
		Consensus:         req.Consensus,
		LatexPreprocessed: preprocessed,
		TimeMs:            time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	var req engine.ComputeRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.Engine == "" {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "engine field is required", nil)
		return
	}
	if req.TaskType != "template" {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST",
			`task_type must be "template"`, nil)
		return
	}
	if req.Template == "" {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "template field is required", nil)
		return
	}
	if req.Inputs == nil {
		req.Inputs = map[string]string{}
	}

	result, err := s.dispatcher.Compute(req)
	if err != nil {
		var unknown *dispatcher.UnknownEngineError
		var capErr *dispatcher.CapabilityError
		var unavailable *dispatcher.UnavailableError
		switch {
		case errors.As(err, &unknown):
			s.sendError(w, http.StatusUnprocessableEntity, "UNKNOWN_ENGINE",
				err.Error(), map[string]any{"available": unknown.Available})
		case errors.As(err, &capErr):
			s.sendError(w, http.StatusBadRequest, "NOT_IMPLEMENTED", err.Error(), nil)
		case errors.As(err, &unavailable):
			s.sendError(w, http.StatusServiceUnavailable, "ENGINE_UNAVAILABLE", err.Error(), nil)
		default:
			s.sendError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		}
		return
	}

	// Engine-plane failures ride inside the 200 body.
	s.sendJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	engines := s.dispatcher.Engines()
	available := 0
	for _, e := range engines {
		if e.IsAvailable() {
			available++
		}
	}

	s.sendJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"service":           "cas-service",
		"uptime_seconds":    s.uptimeSeconds(),
		"engines_total":     len(engines),
		"engines_available": available,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	enginesInfo := make(map[string]any)
	for _, e := range s.dispatcher.Engines() {
		info := map[string]any{
			"available": e.IsAvailable(),
			"version":   e.Version(),
		}
		if p, ok := e.(interface{ Path() string }); ok {
			info["path"] = p.Path()
		}
		enginesInfo[e.Name()] = info
	}

	s.sendJSON(w, http.StatusOK, map[string]any{
		"service":        "cas-service",
		"version":        s.version,
		"uptime_seconds": s.uptimeSeconds(),
		"default_engine": s.dispatcher.Default(),
		"engines":        enginesInfo,
	})
}

func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	var list []map[string]any
	for _, e := range s.dispatcher.Engines() {
		entry := map[string]any{
			"name":         e.Name(),
			"available":    e.IsAvailable(),
			"version":      e.Version(),
			"capabilities": e.Capabilities(),
			"description":  engineDescription(e),
		}
		if reason := e.AvailabilityReason(); reason != "" {
			entry["availability_reason"] = reason
		}
		if templates := e.Templates(); len(templates) > 0 {
			entry["templates"] = engine.TemplateDescriptions(templates)
		}
		list = append(list, entry)
	}

	s.sendJSON(w, http.StatusOK, map[string]any{"engines": list})
}

// engineDescription summarizes an engine for /engines.
func engineDescription(e engine.Engine) string {
	caps := e.Capabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return fmt.Sprintf("%s engine (%s)", e.Name(), strings.Join(names, ", "))
}

func (s *Server) uptimeSeconds() float64 {
	return float64(int(time.Since(s.started).Seconds()*10)) / 10
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		s.sendError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty", nil)
		return false
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_JSON", fmt.Sprintf("Invalid JSON: %v", err), nil)
		return false
	}
	return true
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("server", err, "Failed to encode response")
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	body := map[string]any{"error": message, "code": code}
	if details != nil {
		body["details"] = details
	}
	s.sendJSON(w, status, body)
}
