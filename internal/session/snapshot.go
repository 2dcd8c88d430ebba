package session

import (
	"time"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/roster"
)

// Snapshot is a point-in-time view of the session for display. All fields are
// copies; the UI never holds engine state.
type Snapshot struct {
	NodeID string
	Role   core.Role

	State      core.PlayState
	TrackIndex int
	TrackCount int
	Track      core.Track
	Position   time.Duration
	Duration   time.Duration

	Participants  []roster.Participant
	LeaderID      string
	Rediscovering bool
	Quit          bool
	Err           error
}

// Snapshot returns the current session view. Safe to call from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	now := e.now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Snapshot{
		NodeID:        e.opts.NodeID,
		Role:          e.opts.Role,
		State:         e.anchor.State,
		TrackIndex:    e.track,
		TrackCount:    len(e.tracks),
		Rediscovering: e.rediscovering,
		Quit:          e.quitRequested,
		Err:           e.runErr,
		LeaderID:      e.roster.LeaderID(),
		Participants:  e.roster.Participants(),
	}
	if e.loaded {
		s.Track = e.tracks[e.track]
		s.Duration = s.Track.Duration
		s.Position = e.anchor.PositionAt(now)
		if s.Duration > 0 && s.Position > s.Duration {
			s.Position = s.Duration
		}
	}
	return s
}

// Anchor returns the current playback anchor.
func (e *Engine) Anchor() core.Anchor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.anchor
}

// State returns the current playback state.
func (e *Engine) State() core.PlayState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.anchor.State
}

// Track returns the current track index.
func (e *Engine) Track() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.track
}

// Rediscovering reports whether the node is probing for a silent leader.
func (e *Engine) Rediscovering() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rediscovering
}

// QuitRequested reports whether a local Stop has asked the process to exit.
func (e *Engine) QuitRequested() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.quitRequested
}

// Err returns the fatal error that ended the run, if any.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runErr
}

func (e *Engine) setAnchor(a core.Anchor) {
	e.mu.Lock()
	e.anchor = a
	e.mu.Unlock()
}

func (e *Engine) setTrack(i int, dur time.Duration) {
	e.mu.Lock()
	e.track = i
	e.tracks[i].Duration = dur
	e.loaded = true
	e.mu.Unlock()
}

func (e *Engine) trackDuration() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.loaded {
		return 0
	}
	return e.tracks[e.track].Duration
}

func (e *Engine) setRediscovering(v bool) {
	e.mu.Lock()
	e.rediscovering = v
	e.mu.Unlock()
}

func (e *Engine) setQuitRequested(v bool) {
	e.mu.Lock()
	e.quitRequested = v
	e.mu.Unlock()
}

func (e *Engine) setErr(err error) {
	e.mu.Lock()
	e.runErr = err
	e.mu.Unlock()
}
