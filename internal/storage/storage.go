package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/valentine-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures the credential persistence the authenticator needs.
// CreateUser must insert atomically and report ErrAlreadyExists without
// touching the existing row. UpdatePasswordHash reports ErrNotFound when the
// username does not exist.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UpdatePasswordHash(ctx context.Context, username, hash string) error
	Close() error
}
