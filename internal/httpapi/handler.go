// Package httpapi exposes the combat engine over a JSON HTTP surface.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mgriffith/spindial/internal/dialogue"
	"github.com/mgriffith/spindial/internal/game/engine"
	"github.com/mgriffith/spindial/internal/game/loot"
)

// HealthFunc reports backing-store health for the health endpoint.
type HealthFunc func(ctx context.Context) error

// Handler routes combat API requests to the engine.
type Handler struct {
	engine   *engine.Engine
	dialogue dialogue.Generator
	health   HealthFunc
	logger   *zap.Logger
}

// NewHandler builds a Handler. dialogue may be nil, in which case the taunt
// endpoint returns 404.
//
// Precondition: eng and logger must be non-nil.
func NewHandler(eng *engine.Engine, gen dialogue.Generator, health HealthFunc, logger *zap.Logger) *Handler {
	return &Handler{
		engine:   eng,
		dialogue: gen,
		health:   health,
		logger:   logger,
	}
}

// Routes returns the API's request multiplexer.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("POST /v1/combat/sessions", h.handleStart)
	mux.HandleFunc("GET /v1/combat/sessions/{id}", h.handleGet)
	mux.HandleFunc("DELETE /v1/combat/sessions/{id}", h.handleAbandon)
	mux.HandleFunc("POST /v1/combat/sessions/{id}/attack", h.handleAttack)
	mux.HandleFunc("POST /v1/combat/sessions/{id}/defend", h.handleDefend)
	mux.HandleFunc("POST /v1/combat/sessions/{id}/complete", h.handleComplete)
	mux.HandleFunc("GET /v1/combat/sessions/{id}/recover", h.handleRecover)
	mux.HandleFunc("GET /v1/combat/sessions/{id}/taunt", h.handleTaunt)
	return mux
}

type startRequest struct {
	PlayerID   string `json:"player_id"`
	LocationID string `json:"location_id"`
	Level      int    `json:"level"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlayerID == "" || req.LocationID == "" {
		writeError(w, http.StatusBadRequest, "player_id and location_id are required")
		return
	}

	view, err := h.engine.Start(r.Context(), req.PlayerID, req.LocationID, req.Level)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

type tapRequest struct {
	TapDegrees float64 `json:"tap_degrees"`
}

func (h *Handler) handleAttack(w http.ResponseWriter, r *http.Request) {
	var req tapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.engine.Attack(r.Context(), r.PathValue("id"), req.TapDegrees)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) handleDefend(w http.ResponseWriter, r *http.Request) {
	var req tapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.engine.Defend(r.Context(), r.PathValue("id"), req.TapDegrees)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type completeRequest struct {
	Result string `json:"result"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := engine.ParseResult(req.Result)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	rewards, err := h.engine.Complete(r.Context(), r.PathValue("id"), result)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Abandon(r.Context(), r.PathValue("id")); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleRecover(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "player_id query parameter is required")
		return
	}

	view, err := h.engine.GetForRecovery(r.Context(), r.PathValue("id"), playerID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type tauntResponse struct {
	Line string `json:"line"`
}

func (h *Handler) handleTaunt(w http.ResponseWriter, r *http.Request) {
	if h.dialogue == nil {
		writeError(w, http.StatusNotFound, "dialogue generation is disabled")
		return
	}

	view, err := h.engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	moment := dialogue.Moment(r.URL.Query().Get("moment"))
	if moment == "" {
		moment = dialogue.MomentEncounter
	}
	line, err := h.dialogue.Taunt(r.Context(), dialogue.Request{
		EnemyTypeID:       view.EnemyTypeID,
		Tone:              view.DialogueTone,
		PersonalityTraits: view.PersonalityTraits,
		Moment:            moment,
	})
	if err != nil {
		h.logger.Warn("taunt generation failed",
			zap.String("session_id", view.ID),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "dialogue generation failed")
		return
	}
	writeJSON(w, http.StatusOK, tauntResponse{Line: line})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeEngineError maps engine errors onto HTTP status codes. Unrecognized
// errors surface as 500 without leaking internals to the client.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidTapDegrees),
		errors.Is(err, engine.ErrInvalidLevel),
		errors.Is(err, engine.ErrInvalidResult):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrActiveSessionExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrSessionNotFound),
		errors.Is(err, engine.ErrPlayerNotFound),
		errors.Is(err, engine.ErrEnemyNotFound),
		errors.Is(err, engine.ErrWeaponNotFound),
		errors.Is(err, engine.ErrPoolNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrNoEligibleEnemies),
		errors.Is(err, loot.ErrNonPositiveWeight):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
