package clock

import (
	"time"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/wire"
)

// Default drift thresholds. Seeks below the hard threshold are audible
// artifacts without being audible drift, so the soft band is never corrected
// by seeking.
const (
	DefaultSoft = 150 * time.Millisecond
	DefaultHard = 750 * time.Millisecond
)

// Action is the correction a member must apply after a heartbeat.
type Action byte

const (
	// ActionNone: deviation within tolerance, or only the soft band was
	// exceeded; rely on the next command or a harder heartbeat.
	ActionNone Action = iota
	// ActionHardSeek: seek the player to Position and re-anchor.
	ActionHardSeek
	// ActionSwitchTrack: the leader is on a different track; skip to it
	// immediately regardless of position deviation.
	ActionSwitchTrack
	// ActionStateChange: position agrees but the transport state differs
	// (e.g. leader paused while a command was lost); adopt the leader's.
	ActionStateChange
)

// Decision is the outcome of evaluating one heartbeat.
type Decision struct {
	Action   Action
	Track    int
	Position time.Duration
	State    core.PlayState
	Drift    time.Duration
}

// Reconciler compares a member's local anchor against leader heartbeats.
type Reconciler struct {
	Soft time.Duration
	Hard time.Duration
}

// New returns a reconciler with the given thresholds; zero values select the
// defaults.
func New(soft, hard time.Duration) *Reconciler {
	if soft <= 0 {
		soft = DefaultSoft
	}
	if hard <= 0 {
		hard = DefaultHard
	}
	return &Reconciler{Soft: soft, Hard: hard}
}

// LeaderPosition computes the position the heartbeat's anchor implies at now.
// The heartbeat's reference instant is taken relative to the local clock,
// assuming both clocks run at the same rate; no skew correction is attempted.
func LeaderPosition(hb *wire.Heartbeat, now time.Time) time.Duration {
	if hb.State != core.StatePlaying {
		return hb.Position
	}
	pos := hb.Position + now.Sub(hb.SetAt)
	if pos < 0 {
		return 0
	}
	return pos
}

// Evaluate decides what correction, if any, a member should apply for hb
// given its local anchor and track index.
func (r *Reconciler) Evaluate(local core.Anchor, localTrack int, hb *wire.Heartbeat, now time.Time) Decision {
	leaderPos := LeaderPosition(hb, now)

	// Track mismatch always forces an immediate switch.
	if int(hb.Track) != localTrack {
		return Decision{
			Action:   ActionSwitchTrack,
			Track:    int(hb.Track),
			Position: leaderPos,
			State:    hb.State,
		}
	}

	if local.State != hb.State {
		return Decision{
			Action:   ActionStateChange,
			Track:    localTrack,
			Position: leaderPos,
			State:    hb.State,
		}
	}

	drift := local.PositionAt(now) - leaderPos
	abs := drift
	if abs < 0 {
		abs = -abs
	}
	if abs > r.Hard {
		return Decision{
			Action:   ActionHardSeek,
			Track:    localTrack,
			Position: leaderPos,
			State:    hb.State,
			Drift:    drift,
		}
	}
	return Decision{Action: ActionNone, Track: localTrack, State: hb.State, Drift: drift}
}
