package wire

import (
	"time"

	"github.com/tessro/syncstream/internal/core"
)

// Type tags the kind of a datagram.
type Type byte

const (
	TypeDiscover Type = iota + 1
	TypeAnnounce
	TypeHeartbeat
	TypeCommand
	TypeLeave
)

// String returns the human-readable type name.
func (t Type) String() string {
	switch t {
	case TypeDiscover:
		return "discover"
	case TypeAnnounce:
		return "announce"
	case TypeHeartbeat:
		return "heartbeat"
	case TypeCommand:
		return "command"
	case TypeLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// Message is the envelope carried by every datagram: a type tag, the sender
// id, and a per-sender sequence number used uniformly for duplicate
// suppression across all message kinds. Exactly one payload field is set,
// matching Type; Discover and Leave carry no payload.
type Message struct {
	Type   Type
	Sender string
	Seq    uint64

	Announce  *Announce
	Heartbeat *Heartbeat
	Command   *Command
}

// ParticipantInfo is one roster entry inside an Announce.
type ParticipantInfo struct {
	ID   string
	Addr string
	Role core.Role
}

// Announce is the roster snapshot a node sends in reply to Discover.
type Announce struct {
	Participants []ParticipantInfo
}

// Heartbeat carries the Leader's current playback anchor, track index and a
// hash of its roster view.
type Heartbeat struct {
	State         core.PlayState
	Position      time.Duration
	SetAt         time.Time
	Track         uint32
	RosterVersion uint64
}

// Command is a transport command on the wire.
type Command struct {
	Kind     core.CommandKind
	Track    uint32
	IssuedAt time.Time
}
