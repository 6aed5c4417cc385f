package participants

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Store holds the participant set for a single room.
type Store struct {
	mu           sync.Mutex
	participants map[string]*Participant
}

func NewStore() *Store {
	return &Store{
		participants: make(map[string]*Participant),
	}
}

func (s *Store) Add(id string, role Role) *Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &Participant{ID: id, Role: role, Color: randomColorHex(), JoinedAt: time.Now()}
	s.participants[id] = p
	return p
}

func (s *Store) Get(id string) *Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participants[id]
}

func (s *Store) GetList() []*Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Participant, 0, len(s.participants))
	for _, p := range s.participants {
		list = append(list, p)
	}
	return list
}

func (s *Store) Remove(id string) *Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.participants[id]
	delete(s.participants, id)
	return p
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.participants[id]
	return exists
}

// randomColorHex picks a display color for the roster.
func randomColorHex() string {
	n, err := rand.Int(rand.Reader, big.NewInt(0xffffff))
	if err != nil {
		return "#888888"
	}
	return fmt.Sprintf("#%06x", n.Int64())
}
