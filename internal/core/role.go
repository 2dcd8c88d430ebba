package core

// Role identifies a participant's function within a session. It is fixed by
// user choice at startup and never renegotiated.
type Role byte

const (
	RoleMember Role = iota
	RoleLeader
)

// String returns the human-readable role name.
func (r Role) String() string {
	if r == RoleLeader {
		return "leader"
	}
	return "member"
}
