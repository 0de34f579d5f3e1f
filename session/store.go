package session

import (
	"context"
	"sync"

	"github.com/knoxite/admin"
)

// Store keeps a credential across process restarts. Load returns an empty
// credential and no error when nothing is stored.
type Store interface {
	Load(ctx context.Context) (admin.Credential, error)
	Save(ctx context.Context, cred admin.Credential) error
	Clear(ctx context.Context) error
}

// MemoryStore is a Store that lives as long as the process.
type MemoryStore struct {
	mu   sync.Mutex
	cred admin.Credential
}

var _ Store = (*MemoryStore)(nil)

// Load returns the stored credential.
func (s *MemoryStore) Load(context.Context) (admin.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, nil
}

// Save replaces the stored credential.
func (s *MemoryStore) Save(_ context.Context, cred admin.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	return nil
}

// Clear forgets the stored credential.
func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = ""
	return nil
}
