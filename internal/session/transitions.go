package session

import (
	"fmt"
	"time"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/errors"
)

// apply executes one command against the playback state machine. Commands are
// applied in receipt order; IssuedAt is diagnostic only.
func (e *Engine) apply(cmd core.Command) {
	now := e.now()

	switch cmd.Kind {
	case core.CommandPlay:
		if e.State() == core.StatePlaying {
			return
		}
		pos := e.Anchor().PositionAt(now)
		if err := e.opts.Player.Play(); err != nil {
			e.logger.Printf("session: play failed: %v", err)
			return
		}
		e.setAnchor(core.NewAnchor(core.StatePlaying, pos, now))

	case core.CommandPause:
		if e.State() != core.StatePlaying {
			return
		}
		pos := e.Anchor().PositionAt(now)
		if err := e.opts.Player.Pause(); err != nil {
			e.logger.Printf("session: pause failed: %v", err)
			return
		}
		e.setAnchor(core.NewAnchor(core.StatePaused, pos, now))

	case core.CommandRestart:
		if err := e.opts.Player.Seek(0); err != nil {
			e.logger.Printf("session: restart seek failed: %v", err)
			return
		}
		if e.State() != core.StatePlaying {
			if err := e.opts.Player.Play(); err != nil {
				e.logger.Printf("session: restart play failed: %v", err)
				return
			}
		}
		e.setAnchor(core.NewAnchor(core.StatePlaying, 0, now))

	case core.CommandStop:
		if err := e.opts.Player.Stop(); err != nil {
			e.logger.Printf("session: stop failed: %v", err)
		}
		e.setAnchor(core.NewAnchor(core.StateStopped, 0, now))

	case core.CommandSkip:
		target := cmd.Track
		if target < 0 || target >= len(e.tracks) {
			target = e.nextTrack()
		}
		state := core.StateStopped
		if e.State() == core.StatePlaying {
			state = core.StatePlaying
		}
		e.changeTrack(target, state, 0, now)
	}
}

// adoptState follows a leader state change without touching position, so a
// lost Play or Pause command is repaired on the next heartbeat.
func (e *Engine) adoptState(state core.PlayState, now time.Time) {
	pos := e.Anchor().PositionAt(now)

	var err error
	switch state {
	case core.StatePlaying:
		err = e.opts.Player.Play()
	case core.StatePaused:
		err = e.opts.Player.Pause()
	case core.StateStopped:
		err = e.opts.Player.Stop()
		pos = 0
	}
	if err != nil {
		e.logger.Printf("session: adopting leader state %s failed: %v", state, err)
		return
	}
	e.setAnchor(core.NewAnchor(state, pos, now))
}

// switchTrack moves to the leader's track at the leader's position.
func (e *Engine) switchTrack(target int, state core.PlayState, pos time.Duration, now time.Time) {
	if target < 0 || target >= len(e.tracks) {
		e.logger.Printf("session: leader track %d out of range (%d tracks); ignoring", target, len(e.tracks))
		return
	}
	e.changeTrack(target, state, pos, now)
}

// changeTrack loads target and resumes at pos in the given state. A track
// that fails to load is marked unavailable and skipped, trying each remaining
// track once before giving up in the stopped state.
func (e *Engine) changeTrack(target int, state core.PlayState, pos time.Duration, now time.Time) {
	n := len(e.tracks)
	for tries := 0; tries < n; tries++ {
		t := e.tracks[target]
		if err := e.opts.Player.Load(t.Path); err != nil {
			e.logger.Printf("session: cannot load %q: %v; skipping", t.Name, err)
			e.unavailable[target] = true
			target = (target + 1) % n
			pos = 0
			continue
		}
		delete(e.unavailable, target)
		e.setTrack(target, e.opts.Player.Duration())

		if pos > 0 {
			if err := e.opts.Player.Seek(pos); err != nil {
				e.logger.Printf("session: seek to %v failed: %v", pos, err)
				pos = 0
			}
		}
		if state == core.StatePlaying {
			if err := e.opts.Player.Play(); err != nil {
				e.logger.Printf("session: play after track change failed: %v", err)
				state = core.StateStopped
				pos = 0
			}
		}
		e.setAnchor(core.NewAnchor(state, pos, now))
		return
	}

	e.logger.Printf("session: no loadable track; stopping")
	e.setAnchor(core.NewAnchor(core.StateStopped, 0, now))
}

// initialLoad loads the first loadable track and parks the machine stopped on
// it. All tracks failing is fatal at startup.
func (e *Engine) initialLoad(now time.Time) error {
	for i := range e.tracks {
		t := e.tracks[i]
		if err := e.opts.Player.Load(t.Path); err != nil {
			e.logger.Printf("session: cannot load %q: %v", t.Name, err)
			e.unavailable[i] = true
			continue
		}
		e.setTrack(i, e.opts.Player.Duration())
		e.setAnchor(core.NewAnchor(core.StateStopped, 0, now))
		return nil
	}
	return fmt.Errorf("%w: none of the %d tracks could be loaded", errors.ErrTrackLoadFailure, len(e.tracks))
}

// nextTrack returns the index after the current one, wrapping at the end.
func (e *Engine) nextTrack() int {
	return (e.Track() + 1) % len(e.tracks)
}

// autoAdvance moves to the next track when the current one ends. Every node
// advances locally rather than waiting for a command; identical media means
// identical durations, and heartbeat reconciliation absorbs any residual
// disagreement.
func (e *Engine) autoAdvance(now time.Time) {
	if e.State() != core.StatePlaying {
		return
	}
	dur := e.trackDuration()
	if dur <= 0 || e.Anchor().PositionAt(now) < dur {
		return
	}
	e.changeTrack(e.nextTrack(), core.StatePlaying, 0, now)
}
