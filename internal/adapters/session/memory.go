// Package session holds in-flight form sessions outside durable storage.
package session

import (
	"context"
	"sync"

	"github.com/example/bpbot/internal/ports/secondary"
)

// MemoryStore keeps sessions in process memory. Everything is lost on
// restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]secondary.FormSessionRecord
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]secondary.FormSessionRecord)}
}

// Load returns a copy of the stored session, or nil.
func (s *MemoryStore) Load(ctx context.Context, identityID int64) (*secondary.FormSessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[identityID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Save replaces the session for record.IdentityID.
func (s *MemoryStore) Save(ctx context.Context, record *secondary.FormSessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[record.IdentityID] = *record
	return nil
}

// Clear drops the session for the identity.
func (s *MemoryStore) Clear(ctx context.Context, identityID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, identityID)
	return nil
}

var _ secondary.SessionStore = (*MemoryStore)(nil)
