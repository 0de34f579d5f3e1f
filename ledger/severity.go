package ledger

import (
	"strconv"

	"github.com/knoxite/admin"
)

// Severity classifies how full a quota or the capacity is.
type Severity int

// Severity bands in ascending order.
const (
	Low Severity = iota
	Info
	Warn
	Critical
)

func (s Severity) String() string {
	switch s {
	case Low:
		return "low"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Critical:
		return "critical"
	}
	return "unknown"
}

// SeverityBand maps a percentage onto Low [0,25), Info [25,50),
// Warn [50,75) and Critical [75,100].
func SeverityBand(pct int) Severity {
	switch {
	case pct < 25:
		return Low
	case pct < 50:
		return Info
	case pct < 75:
		return Warn
	default:
		return Critical
	}
}

// Usage is a displayable fill level.
type Usage struct {
	Part    admin.ByteCount
	Whole   admin.ByteCount
	Percent int
	Band    Severity
	// Defined is false when Whole is zero; Percent and Band are then meaningless.
	Defined bool
}

// NewUsage computes the fill level of part against whole.
func NewUsage(part, whole admin.ByteCount) Usage {
	u := Usage{Part: part, Whole: whole}
	pct, err := Percentage(part, whole)
	if err != nil {
		return u
	}
	u.Percent = pct
	u.Band = SeverityBand(pct)
	u.Defined = true
	return u
}

// String renders the percentage, or "n/a" when undefined.
func (u Usage) String() string {
	if !u.Defined {
		return "n/a"
	}
	return strconv.Itoa(u.Percent) + "% (" + u.Band.String() + ")"
}

// QuotaUsage is the share of capacity handed out as quota.
func (l Ledger) QuotaUsage() Usage { return NewUsage(l.TotalQuota, l.Capacity) }

// SpaceUsage is the share of capacity actually used.
func (l Ledger) SpaceUsage() Usage { return NewUsage(l.TotalUsed, l.Capacity) }

// ClientUsage is the share of a client's quota it uses.
func ClientUsage(c *admin.Client) Usage {
	if c == nil {
		return Usage{}
	}
	return NewUsage(c.UsedSpace, c.Quota)
}
