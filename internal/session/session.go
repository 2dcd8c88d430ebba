package session

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/tessro/syncstream/internal/bus"
	"github.com/tessro/syncstream/internal/clock"
	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/discovery"
	"github.com/tessro/syncstream/internal/errors"
	"github.com/tessro/syncstream/internal/roster"
	"github.com/tessro/syncstream/internal/wire"
)

// tickInterval paces the timer activity: heartbeats, liveness sweeps and
// discovery retries are all evaluated on this grain.
const tickInterval = 100 * time.Millisecond

// Transport is the slice of the discovery socket the engine drives. Tests
// substitute an in-memory implementation.
type Transport interface {
	Broadcast(m *wire.Message) error
	Send(m *wire.Message, to *net.UDPAddr) error
	LocalAddr() string
}

// Options configures an engine. Zero durations select the package defaults.
type Options struct {
	NodeID string
	Role   core.Role
	Tracks []core.Track
	Player core.Player

	Transport Transport
	Packets   <-chan discovery.Packet
	Logger    *log.Logger

	Heartbeat     time.Duration
	Stale         time.Duration
	Departed      time.Duration
	RetryInterval time.Duration
	RetryCount    int
	EpsilonSoft   time.Duration
	EpsilonHard   time.Duration
	DedupWindow   int

	// Now overrides the clock; tests use it. Defaults to time.Now.
	Now func() time.Time
}

// Engine is the per-node playback state machine driver. It owns SessionState
// exclusively: the network receive loop and the UI only enqueue, and a single
// goroutine (Run) serializes every mutation, so no transition races another.
type Engine struct {
	opts   Options
	logger *log.Logger
	now    func() time.Time

	bus    *bus.Bus
	roster *roster.Roster
	recon  *clock.Reconciler
	prober *discovery.Prober

	// user commands from the input collaborator
	commands chan core.CommandKind

	// Guarded state. Written only by the driver; the mutex exists so
	// Snapshot can be read from the UI goroutine.
	mu            sync.RWMutex
	anchor        core.Anchor
	track         int
	tracks        []core.Track
	loaded        bool
	rediscovering bool
	quitRequested bool
	runErr        error

	lastLeaderHeard time.Time
	lastHeartbeat   time.Time
	lastDiscover    time.Time
	unavailable     map[int]bool
}

// New validates options and assembles an engine. No network or player
// activity happens until Run.
func New(opts Options) (*Engine, error) {
	if opts.NodeID == "" {
		return nil, fmt.Errorf("session: empty node id")
	}
	if len(opts.Tracks) == 0 {
		return nil, errors.ErrNoTracks
	}
	if opts.Player == nil {
		return nil, fmt.Errorf("session: nil player")
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("session: nil transport")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = time.Second
	}
	if opts.Stale <= 0 {
		opts.Stale = 5 * time.Second
	}
	if opts.Departed <= 0 {
		opts.Departed = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tracks := make([]core.Track, len(opts.Tracks))
	copy(tracks, opts.Tracks)

	e := &Engine{
		opts:        opts,
		logger:      opts.Logger,
		now:         opts.Now,
		bus:         bus.New(opts.NodeID, opts.DedupWindow),
		roster:      roster.New(opts.NodeID),
		recon:       clock.New(opts.EpsilonSoft, opts.EpsilonHard),
		prober:      discovery.NewProber(opts.RetryInterval, opts.RetryCount),
		commands:    make(chan core.CommandKind, 16),
		tracks:      tracks,
		unavailable: make(map[int]bool),
	}
	return e, nil
}

// Run drives the state machine until ctx is canceled, the node quits, or a
// fatal condition (leader lost past the retry bound) occurs. Player calls
// happen only here, never on the receive path, so a slow seek cannot stall
// datagram reception.
func (e *Engine) Run(ctx context.Context) error {
	now := e.now()

	// Bind own role into the roster. For the leader this fixes the session's
	// leader binding to ourselves; conflicting claims are then ignored.
	if err := e.roster.Observe(e.opts.NodeID, nil, e.opts.Role, now); err != nil {
		e.logger.Printf("session: %v", err)
	}

	if err := e.initialLoad(now); err != nil {
		return err
	}

	if e.opts.Role == core.RoleMember {
		e.sendDiscover(now)
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown(true)
			return ctx.Err()

		case pkt, ok := <-e.opts.Packets:
			if !ok {
				e.shutdown(false)
				return fmt.Errorf("session: packet source closed")
			}
			e.handlePacket(pkt)

		case kind := <-e.commands:
			e.originate(kind)

		case <-ticker.C:
			if err := e.handleTick(e.now()); err != nil {
				e.shutdown(false)
				e.setErr(err)
				return err
			}
		}

		if e.QuitRequested() {
			return nil
		}
	}
}

// Dispatch enqueues a user-issued command. Safe to call from any goroutine.
func (e *Engine) Dispatch(kind core.CommandKind) {
	select {
	case e.commands <- kind:
	default:
		// A full queue means the driver is wedged on a player call; the
		// keystroke is droppable, the user will retry.
	}
}

// TogglePlay enqueues Play or Pause depending on the current state, mirroring
// the single 'p' key.
func (e *Engine) TogglePlay() {
	if e.State() == core.StatePlaying {
		e.Dispatch(core.CommandPause)
	} else {
		e.Dispatch(core.CommandPlay)
	}
}

// handlePacket dispatches one decoded inbound datagram.
func (e *Engine) handlePacket(pkt discovery.Packet) {
	msg := pkt.Msg
	now := e.now()

	// Envelope-level duplicate suppression, uniform across message kinds.
	if !e.bus.Admit(msg.Sender, msg.Seq) {
		return
	}

	role := core.RoleMember
	if msg.Type == wire.TypeHeartbeat {
		role = core.RoleLeader
	}
	if err := e.roster.Observe(msg.Sender, pkt.From, role, now); err != nil {
		e.logger.Printf("session: ignoring %s from %s: %v", msg.Type, msg.Sender, err)
	}

	switch msg.Type {
	case wire.TypeDiscover:
		e.sendAnnounce(pkt.From)

	case wire.TypeAnnounce:
		e.roster.Merge(msg.Announce.Participants, now)
		e.noteLeaderContact(now, msg.Sender)

	case wire.TypeHeartbeat:
		e.handleHeartbeat(msg, now)

	case wire.TypeCommand:
		e.apply(bus.ToCommand(msg))

	case wire.TypeLeave:
		wasLeader := e.roster.IsLeader(msg.Sender)
		e.roster.Remove(msg.Sender)
		e.logger.Printf("session: %s left", msg.Sender)
		if wasLeader {
			e.leaderLost(now)
		}
	}
}

// handleHeartbeat applies clock reconciliation for a leader heartbeat.
// Heartbeats from anything but the bound leader are roster conflicts and were
// already demoted by Observe; they must not steer playback.
func (e *Engine) handleHeartbeat(msg *wire.Message, now time.Time) {
	if !e.roster.IsLeader(msg.Sender) {
		return
	}
	e.noteLeaderContact(now, msg.Sender)

	if e.opts.Role != core.RoleMember {
		return
	}

	d := e.recon.Evaluate(e.Anchor(), e.Track(), msg.Heartbeat, now)
	switch d.Action {
	case clock.ActionSwitchTrack:
		e.logger.Printf("session: heartbeat reports track %d, local %d; switching", d.Track, e.Track())
		e.switchTrack(d.Track, d.State, d.Position, now)

	case clock.ActionHardSeek:
		e.logger.Printf("session: drift %v exceeds hard threshold; seeking to %v", d.Drift, d.Position)
		if err := e.opts.Player.Seek(d.Position); err != nil {
			e.logger.Printf("session: seek failed: %v", err)
			return
		}
		e.setAnchor(core.NewAnchor(d.State, d.Position, now))

	case clock.ActionStateChange:
		e.adoptState(d.State, now)
	}
}

// noteLeaderContact refreshes leader liveness and ends rediscovery if the
// contacted node is the bound leader.
func (e *Engine) noteLeaderContact(now time.Time, sender string) {
	if !e.roster.IsLeader(sender) {
		return
	}
	e.lastLeaderHeard = now
	if e.Rediscovering() {
		e.logger.Printf("session: leader %s reappeared; resuming reconciliation", sender)
		e.setRediscovering(false)
	}
	e.prober.Reset()
}

// handleTick runs the periodic duties: heartbeats (leader), liveness sweep,
// discovery retries and end-of-track advance.
func (e *Engine) handleTick(now time.Time) error {
	for _, ev := range e.roster.Sweep(now, e.opts.Stale, e.opts.Departed) {
		e.logger.Printf("session: %s is %s", ev.Participant.ID, ev.Participant.Liveness)
		if ev.Type == roster.EventDeparted && ev.Participant.Role == core.RoleLeader {
			e.leaderLost(now)
		}
	}

	if e.opts.Role == core.RoleLeader {
		if now.Sub(e.lastHeartbeat) >= e.opts.Heartbeat {
			e.sendHeartbeat(now)
		}
	} else {
		if err := e.memberTick(now); err != nil {
			return err
		}
	}

	e.autoAdvance(now)
	return nil
}

// memberTick watches leader liveness and drives the discover exchange.
func (e *Engine) memberTick(now time.Time) error {
	_, haveLeader := e.roster.Leader()

	if haveLeader && !e.Rediscovering() {
		if e.lastLeaderHeard.IsZero() || now.Sub(e.lastLeaderHeard) <= e.opts.Stale {
			return nil
		}
		e.leaderLost(now)
	}

	// No leader (yet, or anymore): probe until the bound is exhausted. The
	// last probe still gets a full interval to draw a reply.
	if e.prober.Due(now) {
		e.sendDiscover(now)
	}
	if e.prober.Exhausted() && now.Sub(e.lastDiscover) >= e.prober.Interval {
		return errors.WithSuggestion(
			fmt.Errorf("%w after %d discovery attempts", errors.ErrLeaderUnreachable, e.prober.Attempts()),
			"Make sure the leader is running and reachable by UDP broadcast, then run 'syncstream join' again",
		)
	}
	return nil
}

// leaderLost pauses playback so the node does not drift unsupervised, and
// enters rediscovery.
func (e *Engine) leaderLost(now time.Time) {
	if e.opts.Role != core.RoleMember || e.Rediscovering() {
		return
	}
	e.logger.Printf("session: leader silent past stale timeout; pausing and rediscovering")
	if e.State() == core.StatePlaying {
		pos := e.Anchor().PositionAt(now)
		if err := e.opts.Player.Pause(); err != nil {
			e.logger.Printf("session: pause failed: %v", err)
		}
		e.setAnchor(core.NewAnchor(core.StatePaused, pos, now))
	}
	e.setRediscovering(true)
	e.prober.Reset()
}

// originate applies a user command locally first, then broadcasts it.
func (e *Engine) originate(kind core.CommandKind) {
	now := e.now()
	target := 0
	if kind == core.CommandSkip {
		target = e.nextTrack()
	}

	msg := e.bus.Originate(kind, target, now)
	e.apply(bus.ToCommand(msg))
	// Loopback of our own datagram is filtered by sender id, so applying
	// before broadcasting cannot double-apply.
	if err := e.opts.Transport.Broadcast(msg); err != nil {
		e.logger.Printf("session: broadcast %s failed (will not retry): %v", kind, err)
	}

	if kind == core.CommandStop {
		e.sendLeave()
		e.setQuitRequested(true)
	}
}

func (e *Engine) sendDiscover(now time.Time) {
	if err := e.opts.Transport.Broadcast(e.bus.Envelope(wire.TypeDiscover)); err != nil {
		e.logger.Printf("session: discover broadcast failed: %v", err)
	}
	e.prober.Sent(now)
	e.lastDiscover = now
}

func (e *Engine) sendAnnounce(to *net.UDPAddr) {
	msg := e.bus.Envelope(wire.TypeAnnounce)
	msg.Announce = e.roster.Announce(e.opts.Transport.LocalAddr(), e.opts.Role)
	if err := e.opts.Transport.Send(msg, to); err != nil {
		e.logger.Printf("session: announce failed: %v", err)
	}
}

func (e *Engine) sendHeartbeat(now time.Time) {
	anchor := e.Anchor()
	msg := e.bus.Envelope(wire.TypeHeartbeat)
	msg.Heartbeat = &wire.Heartbeat{
		State:         anchor.State,
		Position:      anchor.PositionAt(now),
		SetAt:         now,
		Track:         uint32(e.Track()),
		RosterVersion: e.roster.Version(),
	}
	if err := e.opts.Transport.Broadcast(msg); err != nil {
		e.logger.Printf("session: heartbeat failed (retrying next period): %v", err)
		return
	}
	e.lastHeartbeat = now
}

func (e *Engine) sendLeave() {
	if err := e.opts.Transport.Broadcast(e.bus.Envelope(wire.TypeLeave)); err != nil {
		e.logger.Printf("session: leave notice failed: %v", err)
	}
}

// shutdown halts the player; broadcast of Leave is best-effort on cancel.
func (e *Engine) shutdown(leave bool) {
	if leave {
		e.sendLeave()
	}
	if err := e.opts.Player.Stop(); err != nil {
		e.logger.Printf("session: player stop failed: %v", err)
	}
}
