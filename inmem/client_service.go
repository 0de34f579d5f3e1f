package inmem

import (
	"context"
	"sort"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/ledger"
	"go.uber.org/zap"
)

var (
	_ admin.ClientService     = (*Service)(nil)
	_ admin.ClientAuthService = (*Service)(nil)
)

var errClientNameTaken = &admin.Error{
	Code: admin.EConflict,
	Msg:  "client name already in use",
}

// FindClients returns every client ordered by ID.
func (s *Service) FindClients(ctx context.Context) ([]*admin.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]*admin.Client, 0, len(s.clients))
	for _, c := range s.clients {
		c := c
		clients = append(clients, &c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients, nil
}

// FindClientByID returns a single client by ID.
func (s *Service) FindClientByID(ctx context.Context, id admin.ID) (*admin.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, notFound(admin.OpFindClientByID)
	}
	return &c, nil
}

// FindClientByAuthCode returns the client presenting code.
func (s *Service) FindClientByAuthCode(ctx context.Context, code string) (*admin.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if code == "" {
		return nil, notFound(admin.OpFindClientByAuthCode)
	}
	for _, c := range s.clients {
		if c.AuthCode == code {
			c := c
			return &c, nil
		}
	}
	return nil, notFound(admin.OpFindClientByAuthCode)
}

// CreateClient creates a client, assigning its ID and AuthCode. The quota
// must fit in the capacity no other client holds.
func (s *Service) CreateClient(ctx context.Context, c *admin.Client) error {
	op := OpPrefix + admin.OpCreateClient
	if err := c.Valid(); err != nil {
		return withOp(op, err)
	}

	capacity, err := s.capacity(ctx)
	if err != nil {
		return unavailable(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(c.Name, admin.InvalidID) {
		return withOp(op, errClientNameTaken)
	}
	if c.Quota > ledger.RemainingCapacityFor(s.ledger(capacity), nil) {
		return withOp(op, admin.ErrNoSpace)
	}

	code, err := s.TokenGenerator.Token()
	if err != nil {
		return withOp(op, err)
	}

	if s.storages != nil {
		if err := s.storages.Create(c.Name); err != nil {
			return withOp(op, err)
		}
	}

	created := *c
	created.ID = s.lastID + 1
	created.AuthCode = code
	created.UsedSpace = 0
	if err := s.persist(ctx, created); err != nil {
		if s.storages != nil {
			_ = s.storages.Remove(c.Name)
		}
		return withOp(op, err)
	}
	s.lastID = created.ID
	s.clients[created.ID] = created
	*c = created

	s.log.Debug("Client stored", zap.Stringer("id", c.ID), zap.Uint64("quota", uint64(c.Quota)))
	return nil
}

// UpdateClient applies upd. A new quota may use the capacity no other
// client holds and may not drop below the client's used space.
func (s *Service) UpdateClient(ctx context.Context, id admin.ID, upd admin.ClientUpdate) (*admin.Client, error) {
	op := OpPrefix + admin.OpUpdateClient

	capacity, err := s.capacity(ctx)
	if err != nil {
		return nil, unavailable(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.clients[id]
	if !ok {
		return nil, notFound(admin.OpUpdateClient)
	}

	updated := existing
	upd.Apply(&updated)
	if err := updated.Valid(); err != nil {
		return nil, withOp(op, err)
	}
	if updated.Name != existing.Name && s.nameTaken(updated.Name, id) {
		return nil, withOp(op, errClientNameTaken)
	}

	if upd.Quota != nil {
		if updated.Quota < existing.UsedSpace {
			return nil, withOp(op, admin.ErrQuotaBelowUsage)
		}
		if updated.Quota > ledger.RemainingCapacityFor(s.ledger(capacity), &existing) {
			return nil, withOp(op, admin.ErrNoSpace)
		}
	}

	if s.storages != nil && updated.Name != existing.Name {
		if err := s.storages.Rename(existing.Name, updated.Name); err != nil {
			return nil, withOp(op, err)
		}
	}

	if err := s.persist(ctx, updated); err != nil {
		return nil, withOp(op, err)
	}
	s.clients[id] = updated
	return &updated, nil
}

// DeleteClient removes a client and its storage directory.
func (s *Service) DeleteClient(ctx context.Context, id admin.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok {
		return notFound(admin.OpDeleteClient)
	}
	if s.storages != nil {
		if err := s.storages.Remove(c.Name); err != nil {
			return withOp(OpPrefix+admin.OpDeleteClient, err)
		}
	}
	if err := s.unpersist(ctx, id); err != nil {
		return withOp(OpPrefix+admin.OpDeleteClient, err)
	}
	delete(s.clients, id)
	return nil
}

// SetUsedSpace records the space a client occupies in its storage.
func (s *Service) SetUsedSpace(ctx context.Context, id admin.ID, used admin.ByteCount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok {
		return notFound("SetUsedSpace")
	}
	c.UsedSpace = used
	if err := s.persist(ctx, c); err != nil {
		return withOp(OpPrefix+"SetUsedSpace", err)
	}
	s.clients[id] = c
	return nil
}

// ledger folds the stored clients. Callers hold mu.
func (s *Service) ledger(capacity admin.ByteCount) ledger.Ledger {
	l := ledger.Ledger{Capacity: capacity}
	for _, c := range s.clients {
		l.TotalQuota += c.Quota
		l.TotalUsed += c.UsedSpace
	}
	return l
}

func (s *Service) nameTaken(name string, except admin.ID) bool {
	for id, c := range s.clients {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func notFound(op string) error {
	return &admin.Error{
		Code: admin.ENotFound,
		Op:   OpPrefix + op,
		Msg:  admin.ErrClientNotFound.Msg,
	}
}

func unavailable(op string, err error) error {
	return &admin.Error{
		Code: admin.EUnavailable,
		Op:   op,
		Msg:  "unable to determine storage capacity",
		Err:  err,
	}
}

func withOp(op string, err error) error {
	return &admin.Error{
		Op:  op,
		Err: err,
	}
}
