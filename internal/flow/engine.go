package flow

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hongminglow/valentine-be/internal/auth"
)

// ErrIllegalTransition reports a trigger that does not apply to the current
// screen, or whose guard does not hold. The session is left unchanged.
var ErrIllegalTransition = errors.New("illegal transition")

// TransitionError carries the screen and trigger of a rejected transition.
type TransitionError struct {
	From    Screen
	Trigger Trigger
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition: %q on %s", e.Trigger, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// Event is one trigger plus its optional payload. Item is read by toggle,
// Auth by credentials_submitted.
type Event struct {
	Trigger Trigger
	Item    int
	Auth    auth.Result
}

// Config sizes the sessions an Engine creates.
type Config struct {
	Slots        int
	AcceptSlot   int
	GalleryItems int
	Rand         Rand
}

// DefaultConfig lays the proposal out on seven slots with the accept control
// centred, and a five-item gallery.
func DefaultConfig() Config {
	return Config{
		Slots:        7,
		AcceptSlot:   3,
		GalleryItems: 5,
		Rand:         DefaultRand,
	}
}

// Engine applies triggers to sessions according to the transition table.
// It holds no per-session state and is safe to share.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if _, err := NewEvasion(cfg.Slots, cfg.AcceptSlot); err != nil {
		return nil, err
	}
	if cfg.GalleryItems < 0 {
		return nil, fmt.Errorf("gallery items must not be negative, got %d", cfg.GalleryItems)
	}
	if cfg.Rand == nil {
		cfg.Rand = DefaultRand
	}
	return &Engine{cfg: cfg}, nil
}

// NewSession starts a session on the login screen.
func (e *Engine) NewSession() *Session {
	// NewEngine already validated the slot layout.
	ev, _ := NewEvasion(e.cfg.Slots, e.cfg.AcceptSlot)
	return &Session{
		ID:      uuid.NewString(),
		Screen:  Login,
		Toggles: make(map[int]bool),
		evasion: ev,
		items:   e.cfg.GalleryItems,
	}
}

// Fire applies ev to s. A trigger that is not listed for the current screen,
// or whose guard fails, returns a *TransitionError and changes nothing.
func (e *Engine) Fire(s *Session, ev Event) error {
	illegal := &TransitionError{From: s.Screen, Trigger: ev.Trigger}

	switch s.Screen {
	case Login:
		if ev.Trigger == TriggerCredentialsSubmitted && ev.Auth == auth.Authenticated {
			s.Screen = Buildup
			return nil
		}
	case Buildup:
		if ev.Trigger == TriggerReady {
			s.Screen = Proposal
			return nil
		}
	case Proposal:
		switch ev.Trigger {
		case TriggerAccept:
			s.Screen = Celebration
			return nil
		case TriggerDecline:
			s.evasion.Relocate(e.cfg.Rand)
			s.DeclineCount++
			return nil
		}
	case Celebration:
		if ev.Trigger == TriggerContinue {
			s.Screen = Gallery
			return nil
		}
	case Gallery:
		switch ev.Trigger {
		case TriggerToggle:
			if ev.Item < 0 || ev.Item >= s.items {
				return illegal
			}
			s.Toggles[ev.Item] = !s.Toggles[ev.Item]
			return nil
		case TriggerReadyForFinale:
			s.Screen = Envelope
			return nil
		}
	case Envelope:
		switch ev.Trigger {
		case TriggerOpen:
			if !s.EnvelopeOpened {
				s.EnvelopeOpened = true
				return nil
			}
		case TriggerContinue:
			if s.EnvelopeOpened {
				s.Screen = Letter
				return nil
			}
		}
	case Letter:
		if ev.Trigger == TriggerContinue {
			s.Screen = Final
			return nil
		}
	case Final:
	}
	return illegal
}
