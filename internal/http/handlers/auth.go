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

const (
	msgInvalidCredentials = "invalid credentials"
	msgUnavailable        = "service temporarily unavailable"
)

// AuthHandler owns signup/login/logout/me endpoints.
type AuthHandler struct {
	authn    *auth.Authenticator
	engine   *flow.Engine
	sessions *session.Registry
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authn *auth.Authenticator, engine *flow.Engine, sessions *session.Registry, tokens *auth.TokenManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authn: authn, engine: engine, sessions: sessions, tokens: tokens, logger: logger}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/signup", h.handleSignup)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/logout", h.handleLogout)
	mux.HandleFunc("/me", h.handleMe)
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	created, err := h.authn.Create(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			respond.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrDuplicateUser):
			respond.Error(w, http.StatusConflict, "user already exists")
		default:
			respond.Error(w, http.StatusServiceUnavailable, msgUnavailable)
		}
		return
	}
	respond.JSON(w, http.StatusCreated, "user created successfully", dto.SignupResponse{User: created})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || strings.TrimSpace(req.Password) == "" {
		respond.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result := h.authn.Verify(r.Context(), username, req.Password)
	switch result {
	case auth.Authenticated:
	case auth.BackendUnavailable:
		respond.Error(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	default:
		respond.Error(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	s := h.engine.NewSession()
	if err := h.engine.Fire(s, flow.Event{Trigger: flow.TriggerCredentialsSubmitted, Auth: result}); err != nil {
		h.logger.ErrorContext(r.Context(), "start session", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	token, err := h.tokens.Generate(username, s.ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "generate token", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	h.sessions.Start(username, s)
	h.logger.InfoContext(r.Context(), "session started", "username", username, "session_id", s.ID)
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, State: s.View()})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := authorize(w, r, h.tokens)
	if !ok {
		return
	}
	if err := h.sessions.End(claims.Username, claims.SessionID); err != nil {
		respond.Error(w, http.StatusUnauthorized, "session expired")
		return
	}
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := authorize(w, r, h.tokens)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.MeResponse{Username: claims.Username, SessionID: claims.SessionID})
}

// authorize parses the bearer token and writes a 401 when it is missing or invalid.
func authorize(w http.ResponseWriter, r *http.Request, tokens *auth.TokenManager) (auth.Claims, bool) {
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || strings.TrimSpace(raw) == "" {
		respond.Error(w, http.StatusUnauthorized, "missing bearer token")
		return auth.Claims{}, false
	}
	claims, err := tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return auth.Claims{}, false
	}
	return claims, true
}
