// Package flow sequences the screens of a proposal session and enforces
// which user actions are legal on each of them.
package flow

import "fmt"

// Screen identifies one step of the session, in normal progression order.
type Screen int

const (
	Login Screen = iota
	Buildup
	Proposal
	Celebration
	Gallery
	Envelope
	Letter
	Final
)

var screenNames = [...]string{
	Login:       "login",
	Buildup:     "buildup",
	Proposal:    "proposal",
	Celebration: "celebration",
	Gallery:     "gallery",
	Envelope:    "envelope",
	Letter:      "letter",
	Final:       "final",
}

func (s Screen) String() string {
	if s < Login || s > Final {
		return fmt.Sprintf("screen(%d)", int(s))
	}
	return screenNames[s]
}

// MarshalText renders the screen by name so JSON clients never see the ordinal.
func (s Screen) MarshalText() ([]byte, error) {
	if s < Login || s > Final {
		return nil, fmt.Errorf("unknown screen %d", int(s))
	}
	return []byte(screenNames[s]), nil
}

// Trigger is a named user action delivered by the UI layer.
type Trigger string

const (
	TriggerCredentialsSubmitted Trigger = "credentials_submitted"
	TriggerReady                Trigger = "ready"
	TriggerAccept               Trigger = "accept"
	TriggerDecline              Trigger = "decline"
	TriggerContinue             Trigger = "continue"
	TriggerToggle               Trigger = "toggle"
	TriggerReadyForFinale       Trigger = "ready_for_finale"
	TriggerOpen                 Trigger = "open"
)
