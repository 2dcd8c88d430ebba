package roster

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/tessro/syncstream/internal/core"
	syncerrors "github.com/tessro/syncstream/internal/errors"
	"github.com/tessro/syncstream/internal/wire"
)

func udpAddr(t *testing.T, s string) *net.UDPAddr {
	t.Helper()
	a, err := net.ResolveUDPAddr("udp4", s)
	if err != nil {
		t.Fatalf("ResolveUDPAddr(%q) error = %v", s, err)
	}
	return a
}

func TestObserveCreatesAndRefreshes(t *testing.T) {
	r := New("self")
	now := time.Now()

	if err := r.Observe("node-b", udpAddr(t, "10.0.0.2:41205"), core.RoleMember, now); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	later := now.Add(2 * time.Second)
	if err := r.Observe("node-b", nil, core.RoleMember, later); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}

	ps := r.Participants()
	if !ps[0].LastSeen.Equal(later) {
		t.Errorf("LastSeen = %v, want %v", ps[0].LastSeen, later)
	}
	if ps[0].Addr == nil {
		t.Error("Addr dropped on refresh with nil addr")
	}
}

func TestLeaderBindingAndConflict(t *testing.T) {
	r := New("self")
	now := time.Now()

	if err := r.Observe("leader-1", udpAddr(t, "10.0.0.1:41205"), core.RoleLeader, now); err != nil {
		t.Fatalf("first leader claim error = %v", err)
	}
	if got := r.LeaderID(); got != "leader-1" {
		t.Fatalf("LeaderID() = %q, want %q", got, "leader-1")
	}

	// A second claimant is demoted and reported once.
	err := r.Observe("leader-2", udpAddr(t, "10.0.0.9:41205"), core.RoleLeader, now)
	if !errors.Is(err, syncerrors.ErrRosterConflict) {
		t.Fatalf("second leader claim error = %v, want ErrRosterConflict", err)
	}
	if err := r.Observe("leader-2", nil, core.RoleLeader, now.Add(time.Second)); err != nil {
		t.Errorf("repeated conflict reported again: %v", err)
	}

	if got := r.LeaderID(); got != "leader-1" {
		t.Errorf("LeaderID() = %q after conflict, want %q", got, "leader-1")
	}
	leaders := 0
	for _, p := range r.Participants() {
		if p.Role == core.RoleLeader {
			leaders++
		}
	}
	if leaders != 1 {
		t.Errorf("leader entries = %d, want 1", leaders)
	}
}

func TestSweepTransitions(t *testing.T) {
	r := New("self")
	start := time.Now()
	stale := 5 * time.Second
	departed := 15 * time.Second

	if err := r.Observe("node-b", udpAddr(t, "10.0.0.2:41205"), core.RoleMember, start); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}

	if events := r.Sweep(start.Add(time.Second), stale, departed); len(events) != 0 {
		t.Fatalf("Sweep(fresh) events = %d, want 0", len(events))
	}

	events := r.Sweep(start.Add(6*time.Second), stale, departed)
	if len(events) != 1 || events[0].Type != EventStale {
		t.Fatalf("Sweep(stale) events = %+v, want one EventStale", events)
	}
	if events[0].Participant.Liveness != Stale {
		t.Errorf("Liveness = %v, want stale", events[0].Participant.Liveness)
	}

	// Hearing from the node reactivates it.
	if err := r.Observe("node-b", nil, core.RoleMember, start.Add(7*time.Second)); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if ps := r.Participants(); ps[0].Liveness != Active {
		t.Errorf("Liveness after refresh = %v, want active", ps[0].Liveness)
	}

	events = r.Sweep(start.Add(30*time.Second), stale, departed)
	if len(events) != 1 || events[0].Type != EventDeparted {
		t.Fatalf("Sweep(departed) events = %+v, want one EventDeparted", events)
	}
	if r.Len() != 0 {
		t.Errorf("Len() after eviction = %d, want 0", r.Len())
	}
}

func TestSweepEvictsLeaderBinding(t *testing.T) {
	r := New("self")
	start := time.Now()

	if err := r.Observe("leader-1", udpAddr(t, "10.0.0.1:41205"), core.RoleLeader, start); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	r.Sweep(start.Add(time.Minute), 5*time.Second, 15*time.Second)

	if _, ok := r.Leader(); ok {
		t.Error("Leader() still bound after eviction")
	}
	// A new leader claim (same session restarted) may now bind.
	if err := r.Observe("leader-1", udpAddr(t, "10.0.0.1:41205"), core.RoleLeader, start.Add(2*time.Minute)); err != nil {
		t.Errorf("rebind after eviction error = %v", err)
	}
	if got := r.LeaderID(); got != "leader-1" {
		t.Errorf("LeaderID() = %q, want leader-1", got)
	}
}

func TestMergeKeepsFreshest(t *testing.T) {
	r := New("self")
	now := time.Now()

	r.Merge([]wire.ParticipantInfo{
		{ID: "node-b", Addr: "10.0.0.2:41205", Role: core.RoleMember},
		{ID: "self", Addr: "10.0.0.5:41205", Role: core.RoleMember}, // ignored
		{ID: "node-c", Addr: "not an address", Role: core.RoleMember},
	}, now)

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (self and unparsable skipped)", r.Len())
	}
	if ps := r.Participants(); ps[0].ID != "node-b" {
		t.Errorf("merged id = %q, want node-b", ps[0].ID)
	}
}

func TestAnnounceIncludesSelf(t *testing.T) {
	r := New("self")
	now := time.Now()
	if err := r.Observe("node-b", udpAddr(t, "10.0.0.2:41205"), core.RoleMember, now); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}

	ann := r.Announce("10.0.0.5:41205", core.RoleLeader)
	if len(ann.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(ann.Participants))
	}
	var foundSelf bool
	for _, p := range ann.Participants {
		if p.ID == "self" {
			foundSelf = true
			if p.Role != core.RoleLeader {
				t.Errorf("self role = %v, want leader", p.Role)
			}
		}
	}
	if !foundSelf {
		t.Error("announce missing self entry")
	}
}

func TestVersionChangesWithMembership(t *testing.T) {
	r := New("self")
	now := time.Now()

	v0 := r.Version()
	if err := r.Observe("node-b", udpAddr(t, "10.0.0.2:41205"), core.RoleMember, now); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	v1 := r.Version()
	if v0 == v1 {
		t.Error("Version() unchanged after join")
	}

	// LastSeen refreshes must not perturb the version.
	if err := r.Observe("node-b", nil, core.RoleMember, now.Add(time.Second)); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if got := r.Version(); got != v1 {
		t.Errorf("Version() = %#x after refresh, want %#x", got, v1)
	}
}
