package rooms

import (
	"sync"
	"time"

	"codementor/internal/exercises"
	"codementor/internal/participants"
)

// Room is the server-side collaborative state for one exercise.
//
// The room mutex serializes membership, role assignment and buffer commits
// for this room; rooms never share state, so different rooms proceed fully
// in parallel. Evaluations only snapshot the buffer under the lock and run
// out-of-line.
type Room struct {
	ID           string
	Participants *participants.Store
	CreatedAt    time.Time

	mu             sync.Mutex
	buffer         string
	mentorAssigned bool
	lastActive     time.Time
	judge          *exercises.Exercise
}

func newRoom(id string, ex *exercises.Exercise) *Room {
	now := time.Now()
	return &Room{
		ID:           id,
		Participants: participants.NewStore(),
		CreatedAt:    now,
		buffer:       ex.Code,
		lastActive:   now,
		judge:        ex,
	}
}

// Judge returns the exercise's static judge data. Immutable after creation.
func (r *Room) Judge() *exercises.Exercise {
	return r.judge
}

// Buffer returns the current shared text.
func (r *Room) Buffer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffer
}

// CommitText replaces the shared text. Called once per settled broadcast,
// so readers always see either the previous or the fully settled value.
func (r *Room) CommitText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = text
	r.lastActive = time.Now()
}

func (r *Room) touch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActive = time.Now()
}

func (r *Room) idleSince(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return now.Sub(r.lastActive)
}
