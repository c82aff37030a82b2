package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/valentine-be/internal/flow"
)

func TestRegistry_OneSessionPerIdentity(t *testing.T) {
	r := NewRegistry()
	first := &flow.Session{ID: "s1"}
	second := &flow.Session{ID: "s2"}

	r.Start("alice", first)
	r.Start("alice", second)
	assert.Equal(t, 1, r.Len())

	err := r.Do("alice", "s1", func(*flow.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	var got *flow.Session
	require.NoError(t, r.Do("alice", "s2", func(s *flow.Session) error {
		got = s
		return nil
	}))
	assert.Same(t, second, got)
}

func TestRegistry_DoPropagatesError(t *testing.T) {
	r := NewRegistry()
	r.Start("alice", &flow.Session{ID: "s1"})
	boom := errors.New("boom")
	assert.ErrorIs(t, r.Do("alice", "s1", func(*flow.Session) error { return boom }), boom)
	assert.ErrorIs(t, r.Do("bob", "s1", func(*flow.Session) error { return nil }), ErrSessionNotFound)
}

func TestRegistry_End(t *testing.T) {
	r := NewRegistry()
	r.Start("alice", &flow.Session{ID: "s1"})

	assert.ErrorIs(t, r.End("alice", "other"), ErrSessionNotFound)
	require.NoError(t, r.End("alice", "s1"))
	assert.Zero(t, r.Len())
	assert.ErrorIs(t, r.End("alice", "s1"), ErrSessionNotFound)
}
