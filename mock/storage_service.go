package mock

import (
	"context"

	"github.com/knoxite/admin"
)

var _ admin.StorageService = (*StorageService)(nil)

// StorageService is a mock implementation of admin.StorageService.
type StorageService struct {
	CapacityFn           func(context.Context) (admin.ByteCount, error)
	CapacityPlusQuotaFn  func(context.Context, admin.ID) (admin.ByteCount, error)
	CapacityMinusQuotaFn func(context.Context) (admin.ByteCount, error)
	TotalQuotaFn         func(context.Context) (admin.ByteCount, error)
	UsedSpaceFn          func(context.Context) (admin.ByteCount, error)
}

// NewStorageService returns a mock of StorageService where its methods will return zero values.
func NewStorageService() *StorageService {
	zero := func(context.Context) (admin.ByteCount, error) { return 0, nil }
	return &StorageService{
		CapacityFn:           zero,
		CapacityPlusQuotaFn:  func(context.Context, admin.ID) (admin.ByteCount, error) { return 0, nil },
		CapacityMinusQuotaFn: zero,
		TotalQuotaFn:         zero,
		UsedSpaceFn:          zero,
	}
}

func (s *StorageService) Capacity(ctx context.Context) (admin.ByteCount, error) {
	return s.CapacityFn(ctx)
}

func (s *StorageService) CapacityPlusQuota(ctx context.Context, id admin.ID) (admin.ByteCount, error) {
	return s.CapacityPlusQuotaFn(ctx, id)
}

func (s *StorageService) CapacityMinusQuota(ctx context.Context) (admin.ByteCount, error) {
	return s.CapacityMinusQuotaFn(ctx)
}

func (s *StorageService) TotalQuota(ctx context.Context) (admin.ByteCount, error) {
	return s.TotalQuotaFn(ctx)
}

func (s *StorageService) UsedSpace(ctx context.Context) (admin.ByteCount, error) {
	return s.UsedSpaceFn(ctx)
}
