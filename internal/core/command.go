package core

import "time"

// CommandKind enumerates the transport commands any participant may issue.
type CommandKind byte

const (
	CommandPlay CommandKind = iota
	CommandPause
	CommandRestart
	CommandStop
	CommandSkip
)

// String returns the human-readable command name.
func (k CommandKind) String() string {
	switch k {
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandRestart:
		return "restart"
	case CommandStop:
		return "stop"
	case CommandSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Command is a transport command as observed by the state machine. Origin and
// Seq identify it for duplicate suppression; Track is only meaningful for
// Skip.
type Command struct {
	Kind     CommandKind
	Track    int
	Origin   string
	Seq      uint64
	IssuedAt time.Time
}
