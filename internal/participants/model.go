package participants

import "time"

// Role is a participant's session-local role. It is assigned once on join
// and never changes for the lifetime of the membership.
type Role string

const (
	RoleMentor  = Role("mentor")
	RoleStudent = Role("student")
)

// ParseRole validates a remembered role token presented on join.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleMentor, RoleStudent:
		return Role(s), true
	}
	return "", false
}

// Participant is one connected session endpoint inside a room.
type Participant struct {
	ID       string    `json:"id"`
	Role     Role      `json:"role"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joinedAt"`
}
