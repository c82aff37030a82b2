package handlers

import (
	"net/http"
	"time"

	"github.com/hongminglow/valentine-be/internal/auth"
	"github.com/hongminglow/valentine-be/internal/http/respond"
)

// HealthHandler returns uptime, the auth mode and basic status.
type HealthHandler struct {
	startedAt time.Time
	mode      auth.Mode
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, mode auth.Mode) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, mode: mode}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", map[string]string{
		"status":    "ok",
		"auth_mode": h.mode.String(),
		"uptime":    time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}
