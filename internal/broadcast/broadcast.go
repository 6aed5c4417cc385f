// Package broadcast coalesces and fans out edit events.
//
// Edits are debounced per (room, participant): rapid submissions within the
// window collapse to the last one, which is committed to the room buffer and
// broadcast in one step. Concurrent edits from two participants within one
// window follow last-writer-wins; one side's change can be superseded.
package broadcast

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"codementor/internal/metrics"
)

// CommitFunc applies settled text to the room buffer. It reports false when
// the room no longer exists, in which case nothing is broadcast.
type CommitFunc func(roomID, text string) bool

// EmitFunc delivers settled text to every room member except the originator.
type EmitFunc func(roomID, originID, text string)

type pendingKey struct {
	roomID        string
	participantID string
}

type pendingEdit struct {
	timer *time.Timer
	seq   uint64
}

// Channel is the debounced edit fan-out for all rooms.
type Channel struct {
	mu      sync.Mutex
	pending map[pendingKey]*pendingEdit
	seq     uint64

	delay  time.Duration
	commit CommitFunc
	emit   EmitFunc
	log    zerolog.Logger
}

func NewChannel(delay time.Duration, commit CommitFunc, emit EmitFunc, log zerolog.Logger) *Channel {
	return &Channel{
		pending: make(map[pendingKey]*pendingEdit),
		delay:   delay,
		commit:  commit,
		emit:    emit,
		log:     log.With().Str("component", "broadcast").Logger(),
	}
}

// SubmitEdit schedules text for broadcast after the debounce window,
// replacing any value this participant submitted earlier in the window.
// Fire-and-forget: the submitter gets no echo of its own broadcast.
func (c *Channel) SubmitEdit(roomID, participantID, text string) {
	key := pendingKey{roomID, participantID}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.pending[key]; e != nil {
		e.timer.Stop()
	}
	c.seq++
	seq := c.seq
	timer := time.AfterFunc(c.delay, func() {
		c.fire(key, seq, text)
	})
	c.pending[key] = &pendingEdit{timer: timer, seq: seq}
}

// Cancel drops any pending edit for the participant. Called on leave.
func (c *Channel) Cancel(roomID, participantID string) {
	key := pendingKey{roomID, participantID}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.pending[key]; e != nil {
		e.timer.Stop()
		delete(c.pending, key)
	}
}

// fire runs when a debounce timer expires. The sequence check drops a
// timer that lost the stop race against a newer submission, so exactly one
// broadcast happens per quiescence window.
func (c *Channel) fire(key pendingKey, seq uint64, text string) {
	c.mu.Lock()
	e := c.pending[key]
	if e == nil || e.seq != seq {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	c.mu.Unlock()

	if !c.commit(key.roomID, text) {
		c.log.Debug().Str("room", key.roomID).Msg("dropping edit for evicted room")
		return
	}
	metrics.EditBroadcasts.Inc()
	c.emit(key.roomID, key.participantID, text)
}
