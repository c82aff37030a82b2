package dto

import (
	"github.com/hongminglow/valentine-be/internal/flow"
	"github.com/hongminglow/valentine-be/internal/models"
)

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignupResponse struct {
	User models.User `json:"user"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	State flow.View `json:"state"`
}

type MeResponse struct {
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
}

type TriggerRequest struct {
	Trigger string `json:"trigger"`
	Item    *int   `json:"item,omitempty"`
}
