package clock

import (
	"testing"
	"time"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/wire"
)

func TestLeaderPositionWhilePlaying(t *testing.T) {
	setAt := time.Now()
	hb := &wire.Heartbeat{
		State:    core.StatePlaying,
		Position: 10 * time.Second,
		SetAt:    setAt,
	}

	got := LeaderPosition(hb, setAt.Add(2*time.Second))
	if got != 12*time.Second {
		t.Errorf("LeaderPosition() = %v, want 12s", got)
	}
}

func TestLeaderPositionFrozenWhilePaused(t *testing.T) {
	setAt := time.Now()
	hb := &wire.Heartbeat{
		State:    core.StatePaused,
		Position: 10 * time.Second,
		SetAt:    setAt,
	}

	got := LeaderPosition(hb, setAt.Add(30*time.Second))
	if got != 10*time.Second {
		t.Errorf("LeaderPosition() = %v, want frozen 10s", got)
	}
}

func TestEvaluateWithinSoftBand(t *testing.T) {
	r := New(0, 0)
	now := time.Now()
	local := core.NewAnchor(core.StatePlaying, 10*time.Second, now)
	hb := &wire.Heartbeat{
		State:    core.StatePlaying,
		Position: 10*time.Second + 80*time.Millisecond,
		SetAt:    now,
		Track:    0,
	}

	d := r.Evaluate(local, 0, hb, now)
	if d.Action != ActionNone {
		t.Errorf("Action = %v, want none (drift %v)", d.Action, d.Drift)
	}
}

func TestEvaluateSoftBandNeverSeeks(t *testing.T) {
	r := New(150*time.Millisecond, 750*time.Millisecond)
	now := time.Now()
	local := core.NewAnchor(core.StatePlaying, 10*time.Second, now)

	// Deviation between soft and hard: no seek, correction deferred.
	hb := &wire.Heartbeat{
		State:    core.StatePlaying,
		Position: 10*time.Second + 400*time.Millisecond,
		SetAt:    now,
	}
	if d := r.Evaluate(local, 0, hb, now); d.Action != ActionNone {
		t.Errorf("Action = %v, want none within [soft, hard]", d.Action)
	}
}

func TestEvaluateHardCorrection(t *testing.T) {
	r := New(0, 0)
	now := time.Now()
	local := core.NewAnchor(core.StatePlaying, 10*time.Second, now)
	hb := &wire.Heartbeat{
		State:    core.StatePlaying,
		Position: 12 * time.Second,
		SetAt:    now,
	}

	d := r.Evaluate(local, 0, hb, now)
	if d.Action != ActionHardSeek {
		t.Fatalf("Action = %v, want hard seek", d.Action)
	}
	// Post-correction position must equal the leader's reported position.
	if d.Position != 12*time.Second {
		t.Errorf("Position = %v, want 12s", d.Position)
	}
	if d.Drift != -2*time.Second {
		t.Errorf("Drift = %v, want -2s", d.Drift)
	}
}

func TestEvaluateTrackMismatchAlwaysSwitches(t *testing.T) {
	r := New(0, 0)
	now := time.Now()
	// Position agrees perfectly; track index does not.
	local := core.NewAnchor(core.StatePlaying, 10*time.Second, now)
	hb := &wire.Heartbeat{
		State:    core.StatePlaying,
		Position: 10 * time.Second,
		SetAt:    now,
		Track:    4,
	}

	d := r.Evaluate(local, 2, hb, now)
	if d.Action != ActionSwitchTrack {
		t.Fatalf("Action = %v, want switch track", d.Action)
	}
	if d.Track != 4 {
		t.Errorf("Track = %d, want 4", d.Track)
	}
}

func TestEvaluateStateChange(t *testing.T) {
	r := New(0, 0)
	now := time.Now()
	local := core.NewAnchor(core.StatePlaying, 10*time.Second, now)
	hb := &wire.Heartbeat{
		State:    core.StatePaused,
		Position: 10 * time.Second,
		SetAt:    now,
	}

	d := r.Evaluate(local, 0, hb, now)
	if d.Action != ActionStateChange {
		t.Fatalf("Action = %v, want state change", d.Action)
	}
	if d.State != core.StatePaused {
		t.Errorf("State = %v, want paused", d.State)
	}
}

func TestHeartbeatTransitScenario(t *testing.T) {
	// Leader anchors Play at t=0; the member receives it 50ms later and
	// evaluates at t=1050ms. Computed leader position must be ~1000ms,
	// within the soft threshold of the member's own derived position.
	r := New(0, 0)
	t0 := time.Now()
	hb := &wire.Heartbeat{
		State:    core.StatePlaying,
		Position: 0,
		SetAt:    t0,
	}

	at := t0.Add(1050 * time.Millisecond)
	leaderPos := LeaderPosition(hb, at)
	if leaderPos != 1050*time.Millisecond {
		t.Fatalf("LeaderPosition() = %v, want 1.05s", leaderPos)
	}

	// Member anchored its own Play on receipt at t=50ms with position 50ms
	// (derived from the same reference instant), so positions agree.
	local := core.NewAnchor(core.StatePlaying, 50*time.Millisecond, t0.Add(50*time.Millisecond))
	d := r.Evaluate(local, 0, hb, at)
	if d.Action != ActionNone {
		t.Errorf("Action = %v, want none (drift %v)", d.Action, d.Drift)
	}
	if d.Drift > DefaultSoft || d.Drift < -DefaultSoft {
		t.Errorf("Drift = %v, want within ±%v", d.Drift, DefaultSoft)
	}
}
