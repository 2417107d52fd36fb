package conversations

import (
	"slices"
	"sync"
)

// Store maps room identifiers to their histories for the lifetime of the
// process. Histories are created lazily and never evicted.
type Store struct {
	mu        sync.RWMutex
	histories map[string]*History
}

func NewStore() *Store {
	return &Store{histories: map[string]*History{}}
}

// GetOrCreate returns the history for room, installing an empty one if the
// room has not been seen yet. Concurrent callers always get the same handle.
func (s *Store) GetOrCreate(room string) *History {
	s.mu.RLock()
	history, ok := s.histories[room]
	s.mu.RUnlock()
	if ok {
		return history
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if history, ok := s.histories[room]; ok {
		return history
	}

	history = newHistory(room)
	s.histories[room] = history
	return history
}

// Register makes sure room exists with a history. A room that is already
// known keeps its turns.
func (s *Store) Register(room string) *History {
	return s.GetOrCreate(room)
}

func (s *Store) Lookup(room string) (*History, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.histories[room]
	return history, ok
}

// Rooms returns the known room identifiers in lexical order.
func (s *Store) Rooms() []string {
	s.mu.RLock()
	rooms := make([]string, 0, len(s.histories))
	for room := range s.histories {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()

	slices.Sort(rooms)
	return rooms
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.histories)
}
