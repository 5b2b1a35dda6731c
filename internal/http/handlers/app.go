// Package handlers exposes the composition pipeline over JSON HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"composer/internal/compose"
	"composer/internal/domain"
	"composer/internal/providers/prompt"
	"composer/internal/providers/stock"
	"composer/internal/recency"
)

// App carries every dependency the handlers need.
type App struct {
	Logger       zerolog.Logger
	Orchestrator *compose.Orchestrator
	Variations   *compose.VariationEngine
	Stock        *stock.Aggregator
	Store        *recency.Store
	Enhancer     prompt.Enhancer

	// GenerationTimeout bounds one upstream generation call.
	GenerationTimeout time.Duration

	// VariationCount is the number of variation calls fired when the
	// request does not ask for a specific count.
	VariationCount int
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, errorResponse{Error: errorBody{Code: slug, Message: message}})
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

// submitError maps the orchestrator's refusal and validation errors onto HTTP
// statuses. Upstream failures never reach here; they come back as a failed
// session snapshot.
func (a *App) submitError(w http.ResponseWriter, snap compose.Session, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		a.error(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, domain.ErrGenerationInFlight):
		a.error(w, http.StatusConflict, "in_flight", "a generation is already running for this session")
	default:
		// Validation failures carry the session's failure state.
		a.json(w, http.StatusUnprocessableEntity, toSessionResponse(snap))
	}
}

func (a *App) generationContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := a.GenerationTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return context.WithTimeout(r.Context(), timeout)
}
