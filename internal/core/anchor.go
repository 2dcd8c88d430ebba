package core

import "time"

// PlayState represents the transport state carried by an anchor.
type PlayState byte

const (
	StateStopped PlayState = iota
	StatePlaying
	StatePaused
)

// String returns the human-readable state name.
func (s PlayState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Anchor is an immutable snapshot of playback state plus a wall-clock
// reference. Current position is derived from it without polling the player:
// while playing, position = Position + (now - SetAt); otherwise Position is
// frozen. Commands produce new anchors, never mutate one in place.
type Anchor struct {
	State    PlayState
	Position time.Duration
	SetAt    time.Time
}

// NewAnchor constructs an anchor referenced to now.
func NewAnchor(state PlayState, position time.Duration, now time.Time) Anchor {
	return Anchor{State: state, Position: position, SetAt: now}
}

// PositionAt computes the playback position the anchor implies at t.
func (a Anchor) PositionAt(t time.Time) time.Duration {
	if a.State != StatePlaying {
		return a.Position
	}
	pos := a.Position + t.Sub(a.SetAt)
	if pos < 0 {
		return 0
	}
	return pos
}

// Playing reports whether the anchor describes active playback.
func (a Anchor) Playing() bool {
	return a.State == StatePlaying
}
