package inmem

import (
	"context"

	"github.com/knoxite/admin"
	"go.uber.org/zap"
)

// Persister keeps the clients of a Service across restarts.
type Persister interface {
	LoadClients(ctx context.Context) ([]admin.Client, error)
	PutClient(ctx context.Context, c admin.Client) error
	DeleteClient(ctx context.Context, id admin.ID) error
}

// WithPersister writes every change through to p. Call Load once before
// serving to read what p holds.
func WithPersister(p Persister) ServiceOption {
	return func(s *Service) {
		s.persister = p
	}
}

// Load replaces the clients in memory with those held by the persister.
func (s *Service) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	clients, err := s.persister.LoadClients(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = make(map[admin.ID]admin.Client, len(clients))
	s.lastID = admin.InvalidID
	for _, c := range clients {
		s.clients[c.ID] = c
		if c.ID > s.lastID {
			s.lastID = c.ID
		}
	}
	s.log.Info("Clients loaded", zap.Int("count", len(clients)))
	return nil
}

func (s *Service) persist(ctx context.Context, c admin.Client) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.PutClient(ctx, c)
}

func (s *Service) unpersist(ctx context.Context, id admin.ID) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.DeleteClient(ctx, id)
}
