package services

import "sync"

// SessionStore is a process-wide registry of live session state keyed by
// session id. Mutations against the same key are serialized through a
// per-key mutex, so two concurrent submissions to one session cannot
// interleave; different sessions never block each other.
type SessionStore[T any] struct {
	mu      sync.Mutex
	entries map[string]*storeEntry[T]
}

type storeEntry[T any] struct {
	mu    sync.Mutex
	value *T
}

func NewSessionStore[T any]() *SessionStore[T] {
	return &SessionStore[T]{
		entries: make(map[string]*storeEntry[T]),
	}
}

func (s *SessionStore[T]) Put(id string, value *T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &storeEntry[T]{value: value}
}

// Get returns the live value for id. Callers that intend to mutate the
// value must go through Mutate instead.
func (s *SessionStore[T]) Get(id string) (*T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Mutate runs fn against the value for id while holding that key's lock.
// Returns ErrNotFound if the id is absent or was deleted before the lock
// was acquired.
func (s *SessionStore[T]) Mutate(id string, fn func(*T) error) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The entry may have been deleted while waiting on its lock.
	s.mu.Lock()
	current, ok := s.entries[id]
	s.mu.Unlock()
	if !ok || current != e {
		return ErrNotFound
	}
	return fn(e.value)
}

func (s *SessionStore[T]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

func (s *SessionStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
