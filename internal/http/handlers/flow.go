package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/valentine-be/internal/auth"
	"github.com/hongminglow/valentine-be/internal/flow"
	"github.com/hongminglow/valentine-be/internal/http/respond"
	"github.com/hongminglow/valentine-be/internal/models/dto"
	"github.com/hongminglow/valentine-be/internal/session"
)

// FlowHandler exposes the session state and accepts triggers from the UI.
type FlowHandler struct {
	engine   *flow.Engine
	sessions *session.Registry
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

// NewFlowHandler constructs the handler.
func NewFlowHandler(engine *flow.Engine, sessions *session.Registry, tokens *auth.TokenManager, logger *slog.Logger) *FlowHandler {
	return &FlowHandler{engine: engine, sessions: sessions, tokens: tokens, logger: logger}
}

// Register attaches flow routes to the mux.
func (h *FlowHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/flow", h.handleState)
	mux.HandleFunc("/flow/trigger", h.handleTrigger)
}

func (h *FlowHandler) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := authorize(w, r, h.tokens)
	if !ok {
		return
	}
	var view flow.View
	err := h.sessions.Do(claims.Username, claims.SessionID, func(s *flow.Session) error {
		view = s.View()
		return nil
	})
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "session expired")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", view)
}

func (h *FlowHandler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := authorize(w, r, h.tokens)
	if !ok {
		return
	}
	var req dto.TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	ev := flow.Event{Trigger: flow.Trigger(strings.TrimSpace(req.Trigger))}
	if ev.Trigger == "" {
		respond.Error(w, http.StatusBadRequest, "trigger is required")
		return
	}
	if ev.Trigger == flow.TriggerToggle {
		if req.Item == nil {
			respond.Error(w, http.StatusBadRequest, "toggle requires an item")
			return
		}
		ev.Item = *req.Item
	}

	var (
		view    flow.View
		fireErr error
	)
	err := h.sessions.Do(claims.Username, claims.SessionID, func(s *flow.Session) error {
		fireErr = h.engine.Fire(s, ev)
		view = s.View()
		return nil
	})
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		respond.Error(w, http.StatusUnauthorized, "session expired")
	case errors.Is(fireErr, flow.ErrIllegalTransition):
		h.logger.DebugContext(r.Context(), "trigger rejected", "session_id", claims.SessionID, "error", fireErr)
		respond.JSON(w, http.StatusConflict, "illegal transition", view)
	default:
		respond.JSON(w, http.StatusOK, "ok", view)
	}
}
