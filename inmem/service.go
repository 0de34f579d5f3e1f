package inmem

import (
	"context"
	"sync"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/rand"
	"go.uber.org/zap"
)

// OpPrefix is the op prefix.
const OpPrefix = "inmem/"

// CapacityFunc reports the total storage capacity shared by all clients.
type CapacityFunc func(ctx context.Context) (admin.ByteCount, error)

// FixedCapacity returns a CapacityFunc that always reports n.
func FixedCapacity(n admin.ByteCount) CapacityFunc {
	return func(context.Context) (admin.ByteCount, error) { return n, nil }
}

// Service implements the client and storage services in memory.
type Service struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[admin.ID]admin.Client
	lastID  admin.ID

	TokenGenerator admin.TokenGenerator
	capacity       CapacityFunc
	storages       *StorageDirs
	persister      Persister
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// WithCapacity sets the source of the storage capacity.
func WithCapacity(fn CapacityFunc) ServiceOption {
	return func(s *Service) {
		s.capacity = fn
	}
}

// WithStorageDirs keeps a directory per client in sync with the clients.
func WithStorageDirs(d *StorageDirs) ServiceOption {
	return func(s *Service) {
		s.storages = d
	}
}

// NewService creates an instance of a Service. Without WithCapacity the
// capacity is zero and no quota can be granted.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		log:            zap.NewNop(),
		clients:        make(map[admin.ID]admin.Client),
		TokenGenerator: rand.NewTokenGenerator(rand.DefaultTokenSize),
		capacity:       FixedCapacity(0),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}
