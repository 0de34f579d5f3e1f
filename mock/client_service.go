package mock

import (
	"context"

	"github.com/knoxite/admin"
)

var (
	_ admin.ClientService     = (*ClientService)(nil)
	_ admin.ClientAuthService = (*ClientService)(nil)
)

// ClientService is a mock implementation of admin.ClientService and
// admin.ClientAuthService.
type ClientService struct {
	FindClientsFn          func(context.Context) ([]*admin.Client, error)
	FindClientByIDFn       func(context.Context, admin.ID) (*admin.Client, error)
	FindClientByAuthCodeFn func(context.Context, string) (*admin.Client, error)
	CreateClientFn         func(context.Context, *admin.Client) error
	UpdateClientFn         func(context.Context, admin.ID, admin.ClientUpdate) (*admin.Client, error)
	DeleteClientFn         func(context.Context, admin.ID) error
}

// NewClientService returns a mock of ClientService where its methods will return zero values.
func NewClientService() *ClientService {
	return &ClientService{
		FindClientsFn:          func(context.Context) ([]*admin.Client, error) { return nil, nil },
		FindClientByIDFn:       func(context.Context, admin.ID) (*admin.Client, error) { return nil, nil },
		FindClientByAuthCodeFn: func(context.Context, string) (*admin.Client, error) { return nil, admin.ErrClientNotFound },
		CreateClientFn:         func(context.Context, *admin.Client) error { return nil },
		UpdateClientFn: func(context.Context, admin.ID, admin.ClientUpdate) (*admin.Client, error) {
			return nil, nil
		},
		DeleteClientFn: func(context.Context, admin.ID) error { return nil },
	}
}

// FindClients returns every client.
func (s *ClientService) FindClients(ctx context.Context) ([]*admin.Client, error) {
	return s.FindClientsFn(ctx)
}

// FindClientByID returns a single client by ID.
func (s *ClientService) FindClientByID(ctx context.Context, id admin.ID) (*admin.Client, error) {
	return s.FindClientByIDFn(ctx, id)
}

// FindClientByAuthCode returns the client presenting code.
func (s *ClientService) FindClientByAuthCode(ctx context.Context, code string) (*admin.Client, error) {
	return s.FindClientByAuthCodeFn(ctx, code)
}

// CreateClient creates a client.
func (s *ClientService) CreateClient(ctx context.Context, c *admin.Client) error {
	return s.CreateClientFn(ctx, c)
}

// UpdateClient updates a client.
func (s *ClientService) UpdateClient(ctx context.Context, id admin.ID, upd admin.ClientUpdate) (*admin.Client, error) {
	return s.UpdateClientFn(ctx, id, upd)
}

// DeleteClient removes a client.
func (s *ClientService) DeleteClient(ctx context.Context, id admin.ID) error {
	return s.DeleteClientFn(ctx, id)
}
