// Package api provides HTTP handlers for the MatCorner API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dkozyrev/matcorner/internal/ai"
	"github.com/dkozyrev/matcorner/internal/coach"
	"github.com/dkozyrev/matcorner/internal/config"
	"github.com/dkozyrev/matcorner/internal/session"
)

// Handler serves the MatCorner REST API.
type Handler struct {
	coach    *coach.Service
	sessions *session.Manager
	cfg      *config.Config
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(coachSvc *coach.Service, sessions *session.Manager, cfg *config.Config) *Handler {
	return &Handler{
		coach:    coachSvc,
		sessions: sessions,
		cfg:      cfg,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.handleHealth)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", h.handleDeleteSession)
			r.Post("/image", h.handleUploadImage)
			r.Post("/video", h.handleUploadVideo)
			r.Post("/plan", h.handlePlan)
			r.Post("/analyze", h.handleAnalyze)
			r.Post("/flowchart", h.handleFlowChart)
			r.Post("/flowchart/image", h.handleFlowChartImage)
			r.Post("/measurements", h.handleMeasurements)
			r.Post("/move", h.handleMove)
			r.Get("/diagram", h.handleDiagram)
			r.Get("/history", h.handleHistory)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeError maps the failure taxonomy onto HTTP statuses. Every mapped
// failure is non-fatal to the session: the user may retry the same or a
// different action without restarting.
func writeError(w http.ResponseWriter, err error) {
	var inputErr *coach.InputError
	if errors.As(err, &inputErr) {
		Error(w, http.StatusBadRequest, inputErr.Reason)
		return
	}
	if errors.Is(err, coach.ErrSessionNotFound) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	var svcErr *ai.ServiceError
	if errors.As(err, &svcErr) {
		slog.Error("AI service call failed", "operation", svcErr.Op, "error", svcErr.Err)
		Error(w, http.StatusBadGateway, "the AI service could not complete the request, please try again")
		return
	}
	slog.Error("request failed", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}

// decodeBody decodes a size-capped JSON request body.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.sessions.Count(),
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		slog.Error("failed to create session", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	JSON(w, http.StatusCreated, map[string]string{"session_id": s.ID})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(sessionID(r)) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
