package inmem

import (
	"context"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/ledger"
)

var _ admin.StorageService = (*Service)(nil)

// Capacity returns the total storage capacity.
func (s *Service) Capacity(ctx context.Context) (admin.ByteCount, error) {
	n, err := s.capacity(ctx)
	if err != nil {
		return 0, unavailable(OpPrefix+admin.OpCapacity, err)
	}
	return n, nil
}

// CapacityPlusQuota returns the largest quota the client with id may hold.
func (s *Service) CapacityPlusQuota(ctx context.Context, id admin.ID) (admin.ByteCount, error) {
	capacity, err := s.Capacity(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return 0, notFound(admin.OpCapacityPlusQuota)
	}
	return ledger.RemainingCapacityFor(s.ledger(capacity), &c), nil
}

// CapacityMinusQuota returns the capacity no client holds.
func (s *Service) CapacityMinusQuota(ctx context.Context) (admin.ByteCount, error) {
	capacity, err := s.Capacity(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger(capacity).Unallocated(), nil
}

// TotalQuota returns the sum of all quotas.
func (s *Service) TotalQuota(ctx context.Context) (admin.ByteCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger(0).TotalQuota, nil
}

// UsedSpace returns the sum of the space used by all clients.
func (s *Service) UsedSpace(ctx context.Context) (admin.ByteCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger(0).TotalUsed, nil
}
