package duel

import "sync"

type entry struct {
	mu   sync.Mutex
	duel *Duel
	gone bool
}

// Store holds the active duels. The map lock is only taken for lookups,
// inserts and deletes; each duel has its own lock for everything else, so a
// long fight never blocks unrelated duels.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) Insert(d *Duel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[d.ID]; exists {
		return ErrDuplicate
	}
	s.entries[d.ID] = &entry{duel: d}
	return nil
}

// With runs fn while holding the duel's lock. If fn leaves the duel in a
// terminal state it is removed from the store before the lock is released.
func (s *Store) With(id string, fn func(d *Duel) error) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gone {
		return ErrNotFound
	}

	err := fn(e.duel)

	if e.duel.State.Terminal() {
		e.gone = true
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
	}
	return err
}

// Remove drops a duel regardless of state.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if ok {
		e.mu.Lock()
		e.gone = true
		e.mu.Unlock()
	}
}

// Get returns a copy of the duel.
func (s *Store) Get(id string) (Duel, bool) {
	var out Duel
	err := s.With(id, func(d *Duel) error {
		out = d.snapshot()
		return nil
	})
	return out, err == nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
