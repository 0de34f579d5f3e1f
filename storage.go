package admin

import "context"

// Ops for storage errors.
const (
	OpCapacity           = "Capacity"
	OpCapacityPlusQuota  = "CapacityPlusQuota"
	OpCapacityMinusQuota = "CapacityMinusQuota"
	OpTotalQuota         = "TotalQuota"
	OpUsedSpace          = "UsedSpace"
)

// StorageService reports the aggregate figures of the shared storage.
type StorageService interface {
	// Capacity returns the total storage the clients share.
	Capacity(ctx context.Context) (ByteCount, error)

	// CapacityPlusQuota returns the capacity not handed out to clients other
	// than id, i.e. the ceiling for id's quota.
	CapacityPlusQuota(ctx context.Context, id ID) (ByteCount, error)

	// CapacityMinusQuota returns the capacity not handed out to any client,
	// i.e. the ceiling for a new client's quota.
	CapacityMinusQuota(ctx context.Context) (ByteCount, error)

	// TotalQuota returns the sum of every client's quota.
	TotalQuota(ctx context.Context) (ByteCount, error)

	// UsedSpace returns the sum of every client's used space.
	UsedSpace(ctx context.Context) (ByteCount, error)
}
