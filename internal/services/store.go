package services

import (
	"sync"

	"github.com/aluque/mailpilot/internal/gmail"
)

// EmailStore is the single in-memory owner of the loaded email list.
// All reads hand out clones so callers can never mutate shared state;
// all writes go through Patch, CompareAndReplace or CompareAndAppend.
type EmailStore struct {
	mu         sync.RWMutex
	emails     []*gmail.Email
	index      map[string]int
	generation uint64
}

// NewEmailStore creates an empty store
func NewEmailStore() *EmailStore {
	return &EmailStore{index: make(map[string]int)}
}

// Generation returns the current reset generation. A fetch captures it
// before starting work and commits only if no Reset happened in between.
func (s *EmailStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// CompareAndReplace swaps the whole list if the generation still matches.
// Returns false when the fetch was superseded by a Reset.
func (s *EmailStore) CompareAndReplace(generation uint64, emails []*gmail.Email) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return false
	}
	s.emails = emails
	s.reindexLocked()
	return true
}

// CompareAndAppend appends a page if the generation still matches.
// Emails already present keep their stored state and are skipped.
func (s *EmailStore) CompareAndAppend(generation uint64, emails []*gmail.Email) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return false
	}
	for _, e := range emails {
		if _, exists := s.index[e.ID]; exists {
			continue
		}
		s.index[e.ID] = len(s.emails)
		s.emails = append(s.emails, e)
	}
	return true
}

// Reset clears the list and bumps the generation so in-flight fetches
// started before the reset cannot commit stale results
func (s *EmailStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = nil
	s.index = make(map[string]int)
	s.generation++
}

// Get returns a clone of the email with the given ID
func (s *EmailStore) Get(id string) (*gmail.Email, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.emails[i].Clone(), true
}

// Patch applies fn to the stored email under the write lock.
// Returns false if the email is no longer in the store.
func (s *EmailStore) Patch(id string, fn func(*gmail.Email)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	fn(s.emails[i])
	return true
}

// Remove drops the email with the given ID, preserving list order
func (s *EmailStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.emails = append(s.emails[:i], s.emails[i+1:]...)
	s.reindexLocked()
	return true
}

// Snapshot returns a cloned copy of the full list in load order
func (s *EmailStore) Snapshot() []*gmail.Email {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*gmail.Email, len(s.emails))
	for i, e := range s.emails {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of loaded emails
func (s *EmailStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.emails)
}

func (s *EmailStore) reindexLocked() {
	s.index = make(map[string]int, len(s.emails))
	for i, e := range s.emails {
		s.index[e.ID] = i
	}
}
