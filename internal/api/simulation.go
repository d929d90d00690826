package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/arthshield/fraudlabs/internal/content"
	"github.com/arthshield/fraudlabs/internal/domain"
	"github.com/arthshield/fraudlabs/internal/engine"
	"github.com/arthshield/fraudlabs/internal/identity"
	"github.com/arthshield/fraudlabs/internal/shared"
	"github.com/go-chi/chi/v5"
)

const historyLimit = 20

// SimulationHandler handles the simulation lifecycle endpoints.
type SimulationHandler struct {
	*Handler
}

// NewSimulationHandler creates a simulation handler over the shared
// dependencies.
func NewSimulationHandler(base *Handler) *SimulationHandler {
	return &SimulationHandler{Handler: base}
}

// RegisterRoutes registers the simulation routes.
func (h *SimulationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/simulation", func(r chi.Router) {
		r.Post("/start", h.Start)
		r.Post("/choose", h.Choose)
		r.Post("/reset", h.Reset)
		r.Get("/state", h.State)
		r.Get("/results", h.Results)
		r.Get("/history", h.History)
		r.Post("/audio/play", h.PlayCue)
		r.Post("/audio/stop", h.StopCue)
	})
	r.Get("/api/me", h.GetMe)
	r.Get("/api/languages", h.Languages)
	r.Get("/api/content", h.Content)
}

// stateResponse pairs the engine snapshot with the localized content
// for the current step so the client renders from one payload.
type stateResponse struct {
	State   engine.Snapshot `json:"state"`
	Content content.Entry   `json:"content"`
}

func (h *SimulationHandler) stateResponse(snap engine.Snapshot) stateResponse {
	return stateResponse{
		State:   snap,
		Content: h.catalog.EntryFor(snap.Step, snap.Language),
	}
}

// Start begins a fresh simulation session for the user.
func (h *SimulationHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Language string `json:"language"`
	}
	// An empty body means the default language; a malformed one is a
	// client bug.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m := h.registry.GetOrCreate(userID)
	snap, err := m.Start(req.Language)
	if err != nil {
		slog.Error("Failed to start simulation", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to start simulation")
		return
	}

	if err := h.repo.UpdateLastSeen(r.Context(), userID, time.Now()); err != nil {
		slog.Warn("Failed to update last seen", "error", err, "user_id", userID)
	}

	JSON(w, http.StatusOK, h.stateResponse(snap))
}

// Choose applies a decision at the current step and returns the
// post-transition state.
func (h *SimulationHandler) Choose(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req struct {
		ChoiceID string `json:"choice_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChoiceID == "" {
		Error(w, http.StatusBadRequest, "choice_id is required")
		return
	}

	m := h.registry.Get(userID)
	if m == nil {
		Error(w, http.StatusNotFound, "no_active_session")
		return
	}

	snap, err := m.Choose(req.ChoiceID)
	switch {
	case errors.Is(err, engine.ErrNoSession):
		Error(w, http.StatusNotFound, "no_active_session")
		return
	case errors.Is(err, engine.ErrInvalidChoice):
		// The state in the response may have moved if a timer expiry
		// superseded this choice.
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": "invalid_choice",
			"state": snap,
		})
		return
	case err != nil:
		slog.Error("Failed to apply choice", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to apply choice")
		return
	}

	if snap.Step.Terminal() {
		h.persistResult(r.Context(), m, userID)
	}

	JSON(w, http.StatusOK, h.stateResponse(snap))
}

// persistResult saves the completed run. Reaching the terminal step
// happens exactly once per run, so this cannot duplicate rows.
func (h *SimulationHandler) persistResult(ctx context.Context, m *engine.Machine, userID string) {
	result, err := m.Results()
	if err != nil {
		slog.Error("Failed to read results for persistence", "error", err, "user_id", userID)
		return
	}

	if err := h.saveRunWithRetry(ctx, userID, result); err != nil {
		slog.Error("Failed to persist run result", "error", err, "user_id", userID)
		return
	}
	slog.Info("Run result persisted", "user_id", userID, "score", result.AwarenessScore)
}

// saveRunWithRetry retries SQLITE_BUSY conflicts with exponential
// backoff.
func (h *SimulationHandler) saveRunWithRetry(ctx context.Context, userID string, result domain.RunResult) error {
	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		if _, err = h.repo.SaveRunResult(ctx, userID, result); err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			return err
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("Database locked during run save, retrying",
			"user_id", userID,
			"attempt", i+1,
			"delay", delay)
		time.Sleep(delay)
	}
	return err
}

// Reset restarts the session from the intro step.
func (h *SimulationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	m := h.registry.Get(userID)
	if m == nil {
		Error(w, http.StatusNotFound, "no_active_session")
		return
	}

	snap, err := m.Reset()
	if err != nil {
		Error(w, http.StatusNotFound, "no_active_session")
		return
	}
	JSON(w, http.StatusOK, h.stateResponse(snap))
}

// State returns the current read model.
func (h *SimulationHandler) State(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	m := h.registry.Get(userID)
	if m == nil {
		Error(w, http.StatusNotFound, "no_active_session")
		return
	}

	snap, err := m.Snapshot()
	if err != nil {
		Error(w, http.StatusNotFound, "no_active_session")
		return
	}
	JSON(w, http.StatusOK, h.stateResponse(snap))
}

// Results returns the terminal outcome of the current run.
func (h *SimulationHandler) Results(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	m := h.registry.Get(userID)
	if m == nil {
		Error(w, http.StatusNotFound, "no_active_session")
		return
	}

	result, err := m.Results()
	switch {
	case errors.Is(err, engine.ErrNoSession):
		Error(w, http.StatusNotFound, "no_active_session")
		return
	case errors.Is(err, engine.ErrNotTerminal):
		Error(w, http.StatusConflict, "not_terminal")
		return
	case err != nil:
		Error(w, http.StatusInternalServerError, "failed to read results")
		return
	}

	JSON(w, http.StatusOK, result)
}

// History returns the user's past completed runs.
func (h *SimulationHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	records, err := h.repo.ListRunResults(r.Context(), userID, historyLimit)
	if err != nil {
		slog.Error("Failed to list run history", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if records == nil {
		records = []domain.RunRecord{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"runs": records})
}

// PlayCue plays the current step's narration cue.
func (h *SimulationHandler) PlayCue(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	m := h.registry.Get(userID)
	if m == nil {
		Error(w, http.StatusNotFound, "no_active_session")
		return
	}
	if err := m.PlayCue(); err != nil {
		Error(w, http.StatusNotFound, "no_active_session")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "playing"})
}

// StopCue stops any active narration cue.
func (h *SimulationHandler) StopCue(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	if m := h.registry.Get(userID); m != nil {
		m.StopCue()
	}
	JSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// GetMe returns the current user's information.
func (h *SimulationHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		Error(w, http.StatusUnauthorized, "user not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":        user.UserID,
		"username":       user.Username,
		"active_session": h.registry.Get(userID) != nil,
	})
}

// Content resolves a single content key for a step and language, with
// fallback to the default language. The client uses it for copy it
// renders outside the session state payload, such as narration
// transcripts and the red-flag recap cards.
func (h *SimulationHandler) Content(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	step, err := domain.ParseStep(q.Get("step"))
	if err != nil {
		Error(w, http.StatusBadRequest, "unknown step")
		return
	}
	key := q.Get("key")
	if key == "" {
		Error(w, http.StatusBadRequest, "key is required")
		return
	}
	language := q.Get("language")
	if language == "" {
		language = h.catalog.DefaultLanguage()
	}

	resp := map[string]interface{}{
		"step":     step,
		"key":      key,
		"language": language,
	}
	if key == "red_flags" {
		flags := h.catalog.RedFlags(step, language)
		if flags == nil {
			flags = []string{}
		}
		resp["items"] = flags
		JSON(w, http.StatusOK, resp)
		return
	}

	text, err := h.catalog.Resolve(step, key, language)
	if errors.Is(err, content.ErrMissingContent) {
		Error(w, http.StatusNotFound, "missing_content")
		return
	}
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to resolve content")
		return
	}
	resp["text"] = text
	JSON(w, http.StatusOK, resp)
}

// Languages returns the authored content languages.
func (h *SimulationHandler) Languages(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"languages": h.catalog.Languages(),
		"default":   h.catalog.DefaultLanguage(),
	})
}
