package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hongminglow/valentine-be/internal/models"
	"github.com/hongminglow/valentine-be/internal/storage"
)

var (
	// ErrValidation reports an empty username or password, or a password
	// bcrypt cannot hash.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateUser reports that the username is already registered.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrBackendUnavailable reports that the credential store could not be
	// used. It never carries the backend's own error text.
	ErrBackendUnavailable = errors.New("credential backend unavailable")
)

// Mode is the authentication policy, fixed at startup.
type Mode int

const (
	// ModeEnforced checks every login against the credential store.
	ModeEnforced Mode = iota
	// ModePermissive runs without a store and admits any login whose
	// username and password are both non-empty.
	ModePermissive
)

func (m Mode) String() string {
	switch m {
	case ModeEnforced:
		return "enforced"
	case ModePermissive:
		return "permissive"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Result is the outcome of Verify.
type Result int

const (
	Rejected Result = iota
	Authenticated
	BackendUnavailable
)

func (r Result) String() string {
	switch r {
	case Rejected:
		return "rejected"
	case Authenticated:
		return "authenticated"
	case BackendUnavailable:
		return "backend_unavailable"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Authenticator creates and verifies credentials. It is safe for concurrent
// use; the store is the only state shared between calls.
type Authenticator struct {
	mode   Mode
	store  storage.UserStore
	hasher *Hasher
	logger *slog.Logger
}

// NewAuthenticator builds an authenticator. In ModeEnforced store must not be
// nil; in ModePermissive it is ignored.
func NewAuthenticator(mode Mode, store storage.UserStore, hasher *Hasher, logger *slog.Logger) (*Authenticator, error) {
	if hasher == nil {
		return nil, errors.New("hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	switch mode {
	case ModeEnforced:
		if store == nil {
			return nil, errors.New("enforced mode requires a credential store")
		}
	case ModePermissive:
		store = nil
	default:
		return nil, fmt.Errorf("unknown auth mode %d", int(mode))
	}
	return &Authenticator{mode: mode, store: store, hasher: hasher, logger: logger}, nil
}

// Mode returns the policy chosen at construction.
func (a *Authenticator) Mode() Mode { return a.mode }

// Create registers username with a salted hash of password. The username is
// trimmed; the password is hashed as given.
func (a *Authenticator) Create(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if len(password) > maxPasswordBytes {
		return models.User{}, fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, maxPasswordBytes)
	}
	if a.mode == ModePermissive {
		return models.User{}, ErrBackendUnavailable
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		a.logger.ErrorContext(ctx, "hash password", "error", err)
		return models.User{}, fmt.Errorf("%w: password could not be hashed", ErrValidation)
	}

	created, err := a.store.CreateUser(ctx, models.User{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, ErrDuplicateUser
		}
		a.logger.ErrorContext(ctx, "create user", "username", username, "error", err)
		return models.User{}, ErrBackendUnavailable
	}
	return created, nil
}

// Verify checks a login attempt. Unknown usernames and wrong passwords both
// yield Rejected after the same amount of hashing work.
func (a *Authenticator) Verify(ctx context.Context, username, password string) Result {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return Rejected
	}
	if a.mode == ModePermissive {
		return Authenticated
	}
	if len(password) > maxPasswordBytes {
		// Create never stores such a password.
		a.hasher.burn(password[:maxPasswordBytes])
		return Rejected
	}

	user, err := a.store.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		a.hasher.burn(password)
		return Rejected
	case err != nil:
		a.logger.ErrorContext(ctx, "lookup user", "error", err)
		return BackendUnavailable
	}
	if !a.hasher.Matches(user.PasswordHash, password) {
		return Rejected
	}
	if a.hasher.NeedsRehash(user.PasswordHash) {
		a.rehash(ctx, user.Username, password)
	}
	return Authenticated
}

// rehash rewrites a stored hash at the current cost. Failures are logged and
// do not affect the login.
func (a *Authenticator) rehash(ctx context.Context, username, password string) {
	hash, err := a.hasher.Hash(password)
	if err != nil {
		a.logger.ErrorContext(ctx, "rehash password", "username", username, "error", err)
		return
	}
	if err := a.store.UpdatePasswordHash(ctx, username, hash); err != nil {
		a.logger.WarnContext(ctx, "store rehashed password", "username", username, "error", err)
		return
	}
	a.logger.InfoContext(ctx, "password hash upgraded", "username", username)
}
