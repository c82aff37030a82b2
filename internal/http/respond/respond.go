package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Body is the standard API response wrapper used across handlers.
type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a success or informational response using the common wrapper.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Body{Code: status, Message: message, Data: data})
}

// Error writes an error response with the shared wrapper structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Body{Code: status, Message: message})
}

func write(w http.ResponseWriter, status int, payload Body) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", "error", err)
	}
}
