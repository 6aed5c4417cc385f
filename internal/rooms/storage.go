package rooms

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"codementor/internal/events"
	"codementor/internal/exercises"
	"codementor/internal/metrics"
	"codementor/internal/participants"
)

// ErrUnknownExercise is returned by Join when no judge data exists for the
// requested exercise id.
var ErrUnknownExercise = errors.New("unknown exercise")

// ExerciseSource is the external data store contract the registry needs:
// judge data on room creation, best-effort text persistence on teardown.
type ExerciseSource interface {
	FetchByID(id string) (*exercises.Exercise, error)
	UpdateText(id, text string) error
}

// Store owns all live rooms, keyed by exercise id.
//
// Lock order: Store.mu before Room.mu. Membership changes hold both; buffer
// commits and snapshots take only the room lock.
type Store struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	source ExerciseSource
	bus    *events.Bus
	log    zerolog.Logger

	sweepInterval time.Duration
	staleTTL      time.Duration
}

// JoinResult reports the outcome of a join: the room handle, the role the
// arbiter assigned (the client is expected to remember it for future
// joins), and whether this join created the room.
type JoinResult struct {
	Room    *Room
	Role    participants.Role
	Created bool
}

func NewStore(source ExerciseSource, bus *events.Bus, log zerolog.Logger, sweepInterval, staleTTL time.Duration) *Store {
	s := &Store{
		rooms:         make(map[string]*Room),
		source:        source,
		bus:           bus,
		log:           log.With().Str("component", "rooms").Logger(),
		sweepInterval: sweepInterval,
		staleTTL:      staleTTL,
	}
	if sweepInterval > 0 {
		go s.sweepStale()
	}
	return s
}

// Join adds a participant to the room for an exercise id, creating the room
// on first join. Judge data is fetched fresh from the source whenever the
// room does not already exist in memory, so a re-join after eviction never
// resumes stale state.
func (s *Store) Join(roomID, participantID, rememberedRole string) (JoinResult, error) {
	// Judge data is fetched outside the registry lock; if another join wins
	// the creation race meanwhile, the candidate is discarded and the
	// winner's room adopted.
	var candidate *Room

	s.mu.Lock()
	room := s.rooms[roomID]
	for room == nil {
		if candidate != nil {
			s.rooms[roomID] = candidate
			room = candidate
			break
		}
		s.mu.Unlock()
		ex, err := s.source.FetchByID(roomID)
		if errors.Is(err, exercises.ErrNotFound) {
			return JoinResult{}, fmt.Errorf("%w: %s", ErrUnknownExercise, roomID)
		}
		if err != nil {
			return JoinResult{}, fmt.Errorf("fetching judge data for %s: %w", roomID, err)
		}
		candidate = newRoom(roomID, ex)
		s.mu.Lock()
		room = s.rooms[roomID]
	}
	created := room == candidate && candidate != nil

	// Role assignment and membership happen under the registry lock so a
	// concurrent last-leave cannot evict the room mid-join.
	room.mu.Lock()
	role, err := room.assignRole(rememberedRole)
	if err == nil && role == "" {
		err = ErrRoleUnassigned
	}
	if err != nil {
		room.mu.Unlock()
		if created {
			delete(s.rooms, roomID)
		}
		s.mu.Unlock()
		return JoinResult{}, fmt.Errorf("assigning role in %s: %w", roomID, err)
	}
	room.lastActive = time.Now()
	room.mu.Unlock()

	room.Participants.Add(participantID, role)
	s.mu.Unlock()

	metrics.RecordJoin(created)
	s.bus.Publish(events.RoomEvent{Kind: events.ParticipantJoined, RoomID: roomID, ParticipantID: participantID})
	s.log.Info().
		Str("room", roomID).
		Str("participant", participantID).
		Str("role", string(role)).
		Bool("created", created).
		Msg("participant joined")

	return JoinResult{Room: room, Role: role, Created: created}, nil
}

// Leave removes a participant. When the last one leaves, the room is
// evicted and its final buffer flushed to the source asynchronously;
// flush failures are logged, never retried, and never block teardown.
func (s *Store) Leave(roomID, participantID string) {
	s.mu.Lock()
	room := s.rooms[roomID]
	if room == nil {
		s.mu.Unlock()
		return
	}

	p := room.Participants.Remove(participantID)
	if p == nil {
		s.mu.Unlock()
		return
	}

	evicted := false
	var finalText string
	if room.Participants.Count() == 0 {
		delete(s.rooms, roomID)
		evicted = true
		finalText = room.Buffer()
	} else {
		room.touch()
	}
	s.mu.Unlock()

	metrics.RecordLeave(evicted)
	s.bus.Publish(events.RoomEvent{Kind: events.ParticipantLeft, RoomID: roomID, ParticipantID: participantID})
	s.log.Info().
		Str("room", roomID).
		Str("participant", participantID).
		Bool("evicted", evicted).
		Msg("participant left")

	if evicted {
		s.bus.Publish(events.RoomEvent{Kind: events.RoomEmptied, RoomID: roomID})
		go s.flush(roomID, finalText)
	}
}

// CurrentParticipants returns the active participant set for a room.
func (s *Store) CurrentParticipants(roomID string) []*participants.Participant {
	room := s.Get(roomID)
	if room == nil {
		return nil
	}
	return room.Participants.GetList()
}

// CommitText updates a room's buffer; reports false if the room is gone.
func (s *Store) CommitText(roomID, text string) bool {
	room := s.Get(roomID)
	if room == nil {
		return false
	}
	room.CommitText(text)
	return true
}

func (s *Store) Get(roomID string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[roomID]
}

func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

func (s *Store) flush(roomID, text string) {
	if err := s.source.UpdateText(roomID, text); err != nil {
		metrics.FlushFailures.Inc()
		s.log.Error().Err(err).Str("room", roomID).Msg("flushing room buffer failed")
		return
	}
	s.log.Debug().Str("room", roomID).Msg("flushed room buffer")
}

// sweepStale evicts rooms idle past the TTL. Dead connections can leave a
// room occupied forever without a leave event; the sweep is the backstop,
// and it bounds the lifetime of the first-ever-mentor flag.
func (s *Store) sweepStale() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		s.mu.Lock()
		for id, room := range s.rooms {
			if room.idleSince(now) > s.staleTTL {
				delete(s.rooms, id)
				s.log.Warn().Str("room", id).Msg("evicting stale room")
				go s.flush(id, room.Buffer())
			}
		}
		s.mu.Unlock()
	}
}
