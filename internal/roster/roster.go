package roster

import (
	"net"
	"sort"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/errors"
	"github.com/tessro/syncstream/internal/wire"
)

// Liveness tracks how recently a participant was heard from.
type Liveness byte

const (
	Active Liveness = iota
	Stale
	Departed
)

// String returns the human-readable liveness name.
func (l Liveness) String() string {
	switch l {
	case Stale:
		return "stale"
	case Departed:
		return "departed"
	default:
		return "active"
	}
}

// Participant is one known node in the session.
type Participant struct {
	ID       string
	Addr     *net.UDPAddr
	Role     core.Role
	LastSeen time.Time
	Liveness Liveness
}

// EventType describes a liveness transition produced by Sweep.
type EventType byte

const (
	EventStale EventType = iota
	EventDeparted
)

// Event is a liveness transition for one participant.
type Event struct {
	Type        EventType
	Participant Participant
}

// Roster is the locally known set of participants, keyed by id. Exactly one
// entry may carry the Leader role: the first leader observed becomes the
// session binding, and later conflicting claims are recorded as members and
// reported once via ErrRosterConflict.
type Roster struct {
	mu       sync.RWMutex
	self     string
	leaderID string
	entries  map[string]*Participant
	warned   map[string]bool
}

// New creates an empty roster for the node with the given id.
func New(selfID string) *Roster {
	return &Roster{
		self:    selfID,
		entries: make(map[string]*Participant),
		warned:  make(map[string]bool),
	}
}

// Observe records a message from id at addr, creating the participant on
// first sight and refreshing LastSeen otherwise. A leader claim from a second
// id is demoted to member and reported with ErrRosterConflict exactly once.
func (r *Roster) Observe(id string, addr *net.UDPAddr, role core.Role, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.observeLocked(id, addr, role, now)
}

func (r *Roster) observeLocked(id string, addr *net.UDPAddr, role core.Role, now time.Time) error {
	var conflict error
	if role == core.RoleLeader {
		if r.leaderID == "" {
			r.leaderID = id
		} else if r.leaderID != id {
			role = core.RoleMember
			if !r.warned[id] {
				r.warned[id] = true
				conflict = errors.ErrRosterConflict
			}
		}
	}

	p, ok := r.entries[id]
	if !ok {
		r.entries[id] = &Participant{ID: id, Addr: addr, Role: role, LastSeen: now, Liveness: Active}
		return conflict
	}
	p.LastSeen = now
	p.Liveness = Active
	if addr != nil {
		p.Addr = addr
	}
	if role == core.RoleLeader || p.Role != core.RoleLeader {
		p.Role = role
	}
	return conflict
}

// Merge unions an Announce roster snapshot into the local view, keeping the
// freshest sighting per id. Entries whose address cannot be parsed are
// skipped.
func (r *Roster) Merge(parts []wire.ParticipantInfo, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pi := range parts {
		if pi.ID == r.self {
			continue
		}
		var addr *net.UDPAddr
		if pi.Addr != "" {
			a, err := net.ResolveUDPAddr("udp4", pi.Addr)
			if err != nil {
				continue
			}
			addr = a
		}
		if existing, ok := r.entries[pi.ID]; ok && existing.LastSeen.After(now) {
			continue
		}
		_ = r.observeLocked(pi.ID, addr, pi.Role, now)
	}
}

// Sweep applies the liveness timeouts: no message for staleAfter marks a
// participant Stale, no message for departedAfter evicts it. Returns the
// transitions in id order. The local node is never swept.
func (r *Roster) Sweep(now time.Time, staleAfter, departedAfter time.Duration) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []Event
	for id, p := range r.entries {
		if id == r.self {
			continue
		}
		silence := now.Sub(p.LastSeen)
		switch {
		case silence >= departedAfter:
			p.Liveness = Departed
			events = append(events, Event{Type: EventDeparted, Participant: *p})
			delete(r.entries, id)
			if r.leaderID == id {
				r.leaderID = ""
			}
		case silence >= staleAfter && p.Liveness == Active:
			p.Liveness = Stale
			events = append(events, Event{Type: EventStale, Participant: *p})
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Participant.ID < events[j].Participant.ID
	})
	return events
}

// Remove evicts a participant, e.g. after a Leave notice.
func (r *Roster) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	if r.leaderID == id {
		r.leaderID = ""
	}
}

// Leader returns the bound leader entry if it is currently known.
func (r *Roster) Leader() (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.leaderID == "" {
		return Participant{}, false
	}
	p, ok := r.entries[r.leaderID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// LeaderID returns the id the session is bound to, or "" before a leader has
// been observed.
func (r *Roster) LeaderID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.leaderID
}

// IsLeader reports whether id matches the bound leader.
func (r *Roster) IsLeader(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.leaderID != "" && r.leaderID == id
}

// Participants returns a snapshot of all entries sorted by id.
func (r *Roster) Participants() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, 0, len(r.entries))
	for _, p := range r.entries {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of known participants.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Announce builds the wire roster snapshot: the current view plus this node.
func (r *Roster) Announce(selfAddr string, selfRole core.Role) *wire.Announce {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parts := make([]wire.ParticipantInfo, 0, len(r.entries)+1)
	parts = append(parts, wire.ParticipantInfo{ID: r.self, Addr: selfAddr, Role: selfRole})
	for id, p := range r.entries {
		if id == r.self {
			continue
		}
		addr := ""
		if p.Addr != nil {
			addr = p.Addr.String()
		}
		parts = append(parts, wire.ParticipantInfo{ID: id, Addr: addr, Role: p.Role})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].ID < parts[j].ID })
	return &wire.Announce{Participants: parts}
}

// versionEntry is the hashed shape of one roster row.
type versionEntry struct {
	ID   string
	Role byte
}

// Version returns a hash of the membership view (ids and roles, sorted).
// Carried in heartbeats so members can notice roster divergence cheaply.
func (r *Roster) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]versionEntry, 0, len(r.entries))
	for id, p := range r.entries {
		rows = append(rows, versionEntry{ID: id, Role: byte(p.Role)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	h, err := hashstructure.Hash(rows, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}
