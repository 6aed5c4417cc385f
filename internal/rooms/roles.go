package rooms

import (
	"errors"

	"codementor/internal/participants"
)

// ErrRoleUnassigned is returned when arbitration produced no role; the join
// fails rather than defaulting silently.
var ErrRoleUnassigned = errors.New("no role could be assigned")

// assignRole decides the role for a joining participant. A valid remembered
// role always wins, even if the mentor slot is already taken elsewhere;
// otherwise the first participant ever to join this room becomes mentor and
// everyone after it a student. The mentorAssigned flag is a test-and-set
// under the room lock and survives the original mentor leaving, for as long
// as the room lives.
//
// Callers must hold r.mu.
func (r *Room) assignRole(remembered string) (participants.Role, error) {
	if role, ok := participants.ParseRole(remembered); ok {
		return role, nil
	}
	if !r.mentorAssigned {
		r.mentorAssigned = true
		return participants.RoleMentor, nil
	}
	return participants.RoleStudent, nil
}
