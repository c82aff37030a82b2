package flow

// Session is the mutable state of one proposal session. Only Engine.Fire
// changes it; renderers read it through View.
type Session struct {
	ID             string
	Screen         Screen
	DeclineCount   int
	Toggles        map[int]bool
	EnvelopeOpened bool

	evasion *Evasion
	items   int
}

// View is the snapshot a renderer needs to draw the current screen.
type View struct {
	SessionID      string  `json:"session_id"`
	Screen         Screen  `json:"screen"`
	DeclineCount   int     `json:"decline_count"`
	Tier           int     `json:"tier"`
	AcceptScale    float64 `json:"accept_scale"`
	Slots          int     `json:"slots"`
	AcceptSlot     int     `json:"accept_slot"`
	DeclineSlot    int     `json:"decline_slot"`
	Toggles        []bool  `json:"toggles"`
	EnvelopeOpened bool    `json:"envelope_opened"`
}

// AcceptSlot returns the fixed slot of the accept control.
func (s *Session) AcceptSlot() int { return s.evasion.AcceptSlot() }

// DeclineSlot returns the current slot of the decline control.
func (s *Session) DeclineSlot() int { return s.evasion.DeclineSlot() }

// Items returns how many gallery items can be toggled.
func (s *Session) Items() int { return s.items }

// View copies the session into a renderer snapshot.
func (s *Session) View() View {
	toggles := make([]bool, s.items)
	for i := range toggles {
		toggles[i] = s.Toggles[i]
	}
	return View{
		SessionID:      s.ID,
		Screen:         s.Screen,
		DeclineCount:   s.DeclineCount,
		Tier:           Tier(s.DeclineCount),
		AcceptScale:    AcceptScale(s.DeclineCount),
		Slots:          s.evasion.Slots(),
		AcceptSlot:     s.evasion.AcceptSlot(),
		DeclineSlot:    s.evasion.DeclineSlot(),
		Toggles:        toggles,
		EnvelopeOpened: s.EnvelopeOpened,
	}
}

// Tier buckets the number of declines into the escalating message level:
// 0 before any decline, then 1 for 1-2, 2 for 3-5, 3 for 6-9 and 4 from 10 on.
func Tier(declines int) int {
	switch {
	case declines <= 0:
		return 0
	case declines < 3:
		return 1
	case declines < 6:
		return 2
	case declines < 10:
		return 3
	default:
		return 4
	}
}

const (
	acceptScaleStep = 0.15
	acceptScaleMax  = 2.5
)

// AcceptScale is how much the accept control has grown after the given
// number of declines.
func AcceptScale(declines int) float64 {
	if declines <= 0 {
		return 1
	}
	return min(1+acceptScaleStep*float64(declines), acceptScaleMax)
}
