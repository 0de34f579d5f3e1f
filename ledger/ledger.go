// Package ledger aggregates client quotas and usage against the shared
// storage capacity.
//
// A Ledger is a plain value. The dashboard owns the only live copy and
// replaces it through Recompute, ApplyDelete and ApplyCreateOrUpdate; the
// functions here never mutate their inputs.
package ledger

import (
	"errors"
	"math"

	"github.com/knoxite/admin"
	kerrors "github.com/knoxite/admin/kit/platform/errors"
)

// ErrZeroWhole is returned by Percentage when the denominator is zero.
var ErrZeroWhole = errors.New("percentage of a zero total is undefined")

// Ledger holds the aggregate storage figures.
type Ledger struct {
	Capacity   admin.ByteCount
	TotalQuota admin.ByteCount
	TotalUsed  admin.ByteCount
}

// Recompute folds clients into a fresh ledger. A capacity that has not been
// loaded yet is passed as zero.
func Recompute(clients []*admin.Client, capacity admin.ByteCount) Ledger {
	l := Ledger{Capacity: capacity}
	for _, c := range clients {
		if c == nil {
			continue
		}
		l.TotalQuota += c.Quota
		l.TotalUsed += c.UsedSpace
	}
	return l
}

// Unallocated is the capacity not handed out as quota to anyone.
func (l Ledger) Unallocated() admin.ByteCount {
	return sub(l.Capacity, l.TotalQuota)
}

// RemainingCapacityFor is the largest quota editing may hold: the unallocated
// capacity plus whatever editing already holds. A nil editing means a new
// client. Over-allocated ledgers yield zero instead of wrapping.
func RemainingCapacityFor(l Ledger, editing *admin.Client) admin.ByteCount {
	var own admin.ByteCount
	if editing != nil {
		own = editing.Quota
	}
	if l.TotalQuota > l.Capacity+own {
		return 0
	}
	return l.Capacity - l.TotalQuota + own
}

// ValidateQuota rejects a proposed quota outside
// [editing.UsedSpace, RemainingCapacityFor(l, editing)].
func ValidateQuota(l Ledger, editing *admin.Client, proposed admin.ByteCount) error {
	var floor admin.ByteCount
	if editing != nil {
		floor = editing.UsedSpace
	}
	if proposed < floor {
		return &kerrors.Error{
			Code: kerrors.EUnprocessableEntity,
			Op:   "ledger.ValidateQuota",
			Msg:  "quota of " + proposed.String() + " is below the " + floor.String() + " already used",
		}
	}
	if ceiling := RemainingCapacityFor(l, editing); proposed > ceiling {
		return &kerrors.Error{
			Code: kerrors.EUnprocessableEntity,
			Op:   "ledger.ValidateQuota",
			Msg:  "quota of " + proposed.String() + " exceeds the " + ceiling.String() + " still available",
		}
	}
	return nil
}

// ApplyDelete removes a client's contribution. removed must be the client as
// it was before removal.
func ApplyDelete(l Ledger, removed *admin.Client) Ledger {
	if removed == nil {
		return l
	}
	l.TotalQuota = sub(l.TotalQuota, removed.Quota)
	l.TotalUsed = sub(l.TotalUsed, removed.UsedSpace)
	return l
}

// ApplyCreateOrUpdate replaces old's contribution with updated's. old is nil
// for a newly created client.
func ApplyCreateOrUpdate(l Ledger, old, updated *admin.Client) Ledger {
	if old != nil {
		l = ApplyDelete(l, old)
	}
	if updated != nil {
		l.TotalQuota += updated.Quota
		l.TotalUsed += updated.UsedSpace
	}
	return l
}

// Percentage returns round(100*part/whole) clamped to [0,100]. It returns
// ErrZeroWhole when whole is zero so callers can show a placeholder.
func Percentage(part, whole admin.ByteCount) (int, error) {
	if whole == 0 {
		return 0, ErrZeroWhole
	}
	pct := math.Round(100 * float64(part) / float64(whole))
	if pct > 100 {
		pct = 100
	}
	return int(pct), nil
}

func sub(a, b admin.ByteCount) admin.ByteCount {
	if b > a {
		return 0
	}
	return a - b
}
