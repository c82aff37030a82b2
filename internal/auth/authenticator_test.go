package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/valentine-be/internal/models"
	"github.com/hongminglow/valentine-be/internal/storage"
	"github.com/hongminglow/valentine-be/internal/storage/sqlite"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newEnforced(t *testing.T) (*Authenticator, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	a, err := NewAuthenticator(ModeEnforced, store, newHasher(t), quietLogger())
	require.NoError(t, err)
	return a, store
}

// brokenStore fails every call with a backend-specific message.
type brokenStore struct {
	err error
}

func (b brokenStore) CreateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, b.err
}

func (b brokenStore) FindByUsername(context.Context, string) (models.User, error) {
	return models.User{}, b.err
}

func (b brokenStore) UpdatePasswordHash(context.Context, string, string) error {
	return b.err
}

func (b brokenStore) Close() error { return nil }

func TestNewAuthenticator_Validation(t *testing.T) {
	_, err := NewAuthenticator(ModeEnforced, nil, newHasher(t), nil)
	require.Error(t, err)
	_, err = NewAuthenticator(ModeEnforced, brokenStore{}, nil, nil)
	require.Error(t, err)
	_, err = NewAuthenticator(Mode(9), brokenStore{}, newHasher(t), nil)
	require.Error(t, err)

	a, err := NewAuthenticator(ModePermissive, nil, newHasher(t), nil)
	require.NoError(t, err)
	assert.Equal(t, ModePermissive, a.Mode())
}

func TestCreate_Validation(t *testing.T) {
	a, _ := newEnforced(t)
	ctx := context.Background()

	for _, tc := range []struct{ user, pass string }{
		{"", "pw"},
		{"   ", "pw"},
		{"alice", ""},
		{"alice", " \t "},
		{"alice", strings.Repeat("x", 73)},
	} {
		_, err := a.Create(ctx, tc.user, tc.pass)
		assert.ErrorIs(t, err, ErrValidation, "user=%q", tc.user)
	}
}

func TestCreate_DuplicateKeepsOriginalHash(t *testing.T) {
	a, store := newEnforced(t)
	ctx := context.Background()

	created, err := a.Create(ctx, "  alice ", "first-pass")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.NotEqual(t, "first-pass", created.PasswordHash)
	assert.NotContains(t, created.PasswordHash, "first-pass")

	before, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)

	_, err = a.Create(ctx, "alice", "second-pass")
	require.ErrorIs(t, err, ErrDuplicateUser)

	after, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)

	assert.Equal(t, Authenticated, a.Verify(ctx, "alice", "first-pass"))
	assert.Equal(t, Rejected, a.Verify(ctx, "alice", "second-pass"))
}

func TestCreate_UsernamesAreCaseSensitive(t *testing.T) {
	a, _ := newEnforced(t)
	ctx := context.Background()

	_, err := a.Create(ctx, "Alice", "pw-upper")
	require.NoError(t, err)
	_, err = a.Create(ctx, "alice", "pw-lower")
	require.NoError(t, err)

	assert.Equal(t, Authenticated, a.Verify(ctx, "Alice", "pw-upper"))
	assert.Equal(t, Rejected, a.Verify(ctx, "Alice", "pw-lower"))
	assert.Equal(t, Authenticated, a.Verify(ctx, "alice", "pw-lower"))
}

func TestVerify_Enforced(t *testing.T) {
	a, _ := newEnforced(t)
	ctx := context.Background()
	_, err := a.Create(ctx, "alice", "correct horse")
	require.NoError(t, err)

	assert.Equal(t, Authenticated, a.Verify(ctx, "alice", "correct horse"))
	assert.Equal(t, Authenticated, a.Verify(ctx, " alice ", "correct horse"))
	assert.Equal(t, Rejected, a.Verify(ctx, "alice", "correct horse "))
	assert.Equal(t, Rejected, a.Verify(ctx, "alice", "wrongpass"))
	assert.Equal(t, Rejected, a.Verify(ctx, "ghost", "anything"))
	assert.Equal(t, Rejected, a.Verify(ctx, "", "correct horse"))
	assert.Equal(t, Rejected, a.Verify(ctx, "alice", ""))
	assert.Equal(t, Rejected, a.Verify(ctx, "alice", "correct horse"+strings.Repeat("!", 80)))
}

func TestVerify_BackendFailures(t *testing.T) {
	ctx := context.Background()
	secret := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	a, err := NewAuthenticator(ModeEnforced, brokenStore{err: secret}, newHasher(t), quietLogger())
	require.NoError(t, err)

	assert.Equal(t, BackendUnavailable, a.Verify(ctx, "alice", "pw"))

	_, err = a.Create(ctx, "alice", "pw")
	require.ErrorIs(t, err, ErrBackendUnavailable)
	assert.NotContains(t, err.Error(), "10.0.0.5")
}

func TestPermissive(t *testing.T) {
	ctx := context.Background()
	a, err := NewAuthenticator(ModePermissive, brokenStore{err: errors.New("unused")}, newHasher(t), quietLogger())
	require.NoError(t, err)

	assert.Equal(t, Authenticated, a.Verify(ctx, "anyone", "anything"))
	assert.Equal(t, Rejected, a.Verify(ctx, "anyone", "  "))
	assert.Equal(t, Rejected, a.Verify(ctx, "", "anything"))

	_, err = a.Create(ctx, "anyone", "anything")
	require.ErrorIs(t, err, ErrBackendUnavailable)
	_, err = a.Create(ctx, "", "anything")
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreate_ConcurrentSameUsername(t *testing.T) {
	a, _ := newEnforced(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.Create(ctx, "bob", fmt.Sprintf("pw-%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDuplicateUser):
				dupes++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, dupes)
}

func TestResultAndModeStrings(t *testing.T) {
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "backend_unavailable", BackendUnavailable.String())
	assert.Equal(t, Rejected, Result(0), "zero value rejects")
	assert.Equal(t, "enforced", ModeEnforced.String())
	assert.Equal(t, "permissive", ModePermissive.String())
}

var _ storage.UserStore = brokenStore{}

// readOnlyStore refuses hash updates.
type readOnlyStore struct {
	*sqlite.Store
}

func (readOnlyStore) UpdatePasswordHash(context.Context, string, string) error {
	return errors.New("attempt to write a readonly database")
}

func seedAtCost(t *testing.T, store storage.UserStore, username, password string, cost int) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	require.NoError(t, err)
	_, err = store.CreateUser(context.Background(), models.User{Username: username, PasswordHash: string(hash)})
	require.NoError(t, err)
	return string(hash)
}

func TestVerify_UpgradesHashToCurrentCost(t *testing.T) {
	a, store := newEnforced(t)
	ctx := context.Background()
	legacy := seedAtCost(t, store, "alice", "s3cret", bcrypt.MinCost+2)

	assert.Equal(t, Rejected, a.Verify(ctx, "alice", "wrong"))
	unchanged, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, legacy, unchanged.PasswordHash)

	assert.Equal(t, Authenticated, a.Verify(ctx, "alice", "s3cret"))

	upgraded, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, legacy, upgraded.PasswordHash)
	storedCost, err := bcrypt.Cost([]byte(upgraded.PasswordHash))
	require.NoError(t, err)
	dummyCost, err := bcrypt.Cost(a.hasher.dummy)
	require.NoError(t, err)
	assert.Equal(t, dummyCost, storedCost, "unknown users and wrong passwords must compare at the same cost")
	assert.False(t, a.hasher.NeedsRehash(upgraded.PasswordHash))

	assert.Equal(t, Authenticated, a.Verify(ctx, "alice", "s3cret"))
	assert.Equal(t, Rejected, a.Verify(ctx, "alice", "wrong"))
}

func TestVerify_CurrentCostHashIsNotRewritten(t *testing.T) {
	a, store := newEnforced(t)
	ctx := context.Background()
	hash := seedAtCost(t, store, "bob", "pw", bcrypt.MinCost)

	assert.Equal(t, Authenticated, a.Verify(ctx, "bob", "pw"))
	after, err := store.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, hash, after.PasswordHash)
}

func TestVerify_UpgradeFailureStillAuthenticates(t *testing.T) {
	store, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	legacy := seedAtCost(t, store, "carol", "pw", bcrypt.MinCost+1)

	a, err := NewAuthenticator(ModeEnforced, readOnlyStore{store}, newHasher(t), quietLogger())
	require.NoError(t, err)

	ctx := context.Background()
	assert.Equal(t, Authenticated, a.Verify(ctx, "carol", "pw"))
	after, err := store.FindByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, legacy, after.PasswordHash)
}

func TestNeedsRehash(t *testing.T) {
	h := newHasher(t)
	current, err := h.Hash("pw")
	require.NoError(t, err)
	assert.False(t, h.NeedsRehash(current))

	older, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost+1)
	require.NoError(t, err)
	assert.True(t, h.NeedsRehash(string(older)))
	assert.True(t, h.NeedsRehash("not-a-hash"))
}
