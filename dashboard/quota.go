package dashboard

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/kit/platform/errors"
	"github.com/knoxite/admin/units"
)

// QuotaInput is a quota as an operator enters it: a whole number in a unit.
// It is converted to bytes before anything is sent.
type QuotaInput struct {
	Value uint64
	Unit  units.Unit
}

// QuotaInputFor presents b in the unit ChooseUnit picks, the way an edit
// form is prefilled.
func QuotaInputFor(b admin.ByteCount) QuotaInput {
	v, u := units.ChooseUnit(uint64(b))
	return QuotaInput{Value: v, Unit: u}
}

// Bytes converts the input to a byte count.
func (q QuotaInput) Bytes() (admin.ByteCount, error) {
	n, err := units.ToBytes(q.Value, q.Unit)
	if err != nil {
		return 0, &errors.Error{
			Code: errors.EUnprocessableEntity,
			Op:   "dashboard.QuotaInput",
			Msg:  "quota is too large",
			Err:  err,
		}
	}
	return admin.ByteCount(n), nil
}

func (q QuotaInput) String() string {
	return strconv.FormatUint(q.Value, 10) + " " + q.Unit.String()
}

// ParseQuota reads inputs such as "500", "12GB" or "12 GB". A missing unit
// means bytes.
func ParseQuota(s string) (QuotaInput, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	num, unit := s, ""
	if i >= 0 {
		num, unit = s[:i], strings.TrimSpace(s[i:])
	}

	v, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return QuotaInput{}, &errors.Error{
			Code: errors.EUnprocessableEntity,
			Op:   "dashboard.ParseQuota",
			Msg:  "quota " + strconv.Quote(s) + " is not a whole number",
		}
	}

	u := units.Bytes
	if unit != "" {
		if u, err = units.ParseUnit(unit); err != nil {
			return QuotaInput{}, &errors.Error{
				Code: errors.EUnprocessableEntity,
				Op:   "dashboard.ParseQuota",
				Msg:  err.Error(),
			}
		}
	}
	return QuotaInput{Value: v, Unit: u}, nil
}
