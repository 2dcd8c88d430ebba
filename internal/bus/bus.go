package bus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/wire"
)

// DefaultWindow bounds the recent-message set used for duplicate suppression.
const DefaultWindow = 512

// Bus originates transport commands and suppresses duplicate inbound
// messages. Sequence numbers are strictly increasing per originator and are
// checked uniformly for every message kind, so a retransmitted heartbeat is
// dropped the same way a looped command is.
type Bus struct {
	id  string
	seq atomic.Uint64

	mu     sync.Mutex
	window int
	seen   map[seenKey]struct{}
	order  []seenKey
}

type seenKey struct {
	origin string
	seq    uint64
}

// New creates a bus for the node with the given id. window <= 0 selects
// DefaultWindow.
func New(id string, window int) *Bus {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Bus{
		id:     id,
		window: window,
		seen:   make(map[seenKey]struct{}, window),
	}
}

// ID returns the originator id used on outbound messages.
func (b *Bus) ID() string {
	return b.id
}

// NextSeq returns the next per-node sequence number. Never reused.
func (b *Bus) NextSeq() uint64 {
	return b.seq.Add(1)
}

// Envelope wraps an outbound payload in a fresh envelope.
func (b *Bus) Envelope(t wire.Type) *wire.Message {
	return &wire.Message{Type: t, Sender: b.id, Seq: b.NextSeq()}
}

// Originate builds a command message ready for local application and
// broadcast. Track is only meaningful for Skip.
func (b *Bus) Originate(kind core.CommandKind, track int, now time.Time) *wire.Message {
	m := b.Envelope(wire.TypeCommand)
	m.Command = &wire.Command{
		Kind:     kind,
		Track:    uint32(track),
		IssuedAt: now,
	}
	return m
}

// Admit records (origin, seq) and reports whether the message is new. A
// false return means duplicate: the caller discards silently. The window
// evicts its oldest entries once the bound is exceeded.
func (b *Bus) Admit(origin string, seq uint64) bool {
	if origin == b.id {
		// Own broadcasts loop back on the shared port.
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := seenKey{origin: origin, seq: seq}
	if _, dup := b.seen[key]; dup {
		return false
	}
	b.seen[key] = struct{}{}
	b.order = append(b.order, key)
	for len(b.order) > b.window {
		oldest := b.order[0]
		b.order = b.order[1:]
		delete(b.seen, oldest)
	}
	return true
}

// ToCommand converts an admitted wire command into the state machine's
// command representation.
func ToCommand(m *wire.Message) core.Command {
	return core.Command{
		Kind:     m.Command.Kind,
		Track:    int(m.Command.Track),
		Origin:   m.Sender,
		Seq:      m.Seq,
		IssuedAt: m.Command.IssuedAt,
	}
}
