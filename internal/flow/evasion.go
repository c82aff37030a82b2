package flow

import (
	"fmt"
	"math/rand/v2"
)

// Rand is the randomness source used to place the decline control.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the math/rand/v2 top-level generator, which is safe
// for concurrent use.
var DefaultRand Rand = globalRand{}

// Evasion tracks where the accept and decline controls sit among a fixed row
// of slots.
//
// With only two slots the decline control has exactly one legal position, so
// it never moves. Three or more slots are needed for it to visibly evade.
type Evasion struct {
	slots   int
	accept  int
	decline int
}

// NewEvasion places the accept control at acceptSlot and the decline control
// on the next slot to its right, wrapping around.
func NewEvasion(slots, acceptSlot int) (*Evasion, error) {
	if slots < 2 {
		return nil, fmt.Errorf("evasion needs at least 2 slots, got %d", slots)
	}
	if acceptSlot < 0 || acceptSlot >= slots {
		return nil, fmt.Errorf("accept slot %d out of range [0, %d)", acceptSlot, slots)
	}
	return &Evasion{
		slots:   slots,
		accept:  acceptSlot,
		decline: (acceptSlot + 1) % slots,
	}, nil
}

// Slots returns the number of positions.
func (e *Evasion) Slots() int { return e.slots }

// AcceptSlot returns the fixed position of the accept control.
func (e *Evasion) AcceptSlot() int { return e.accept }

// DeclineSlot returns the current position of the decline control.
func (e *Evasion) DeclineSlot() int { return e.decline }

// Relocate moves the decline control to a slot drawn uniformly from every
// slot except the accept slot and its current one, and returns it.
func (e *Evasion) Relocate(r Rand) int {
	candidates := make([]int, 0, e.slots)
	for i := 0; i < e.slots; i++ {
		if i == e.accept || i == e.decline {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		// two slots: decline already holds the only non-accept position
		return e.decline
	}
	e.decline = candidates[r.IntN(len(candidates))]
	return e.decline
}
