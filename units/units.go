// Package units converts raw byte counts to and from decimal display units.
//
// Every step between units is a factor of 1000. Display values are always
// whole numbers: conversions towards larger units floor.
package units

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Unit is a decimal storage unit. The zero value is Bytes.
type Unit int

// Units in ascending order.
const (
	Bytes Unit = iota
	KB
	MB
	GB
	TB
	PB
	EB
	ZB
	YB
)

// Threshold is the smallest value that is shown in the next larger unit.
const Threshold = 10000

const step = 1000

// ErrOverflow is returned when a value does not fit in a uint64 byte count.
var ErrOverflow = errors.New("value exceeds the largest representable byte count")

var labels = [...]string{
	Bytes: "bytes",
	KB:    "kB",
	MB:    "MB",
	GB:    "GB",
	TB:    "TB",
	PB:    "PB",
	EB:    "EB",
	ZB:    "ZB",
	YB:    "YB",
}

// Valid reports whether u is one of the defined units.
func (u Unit) Valid() bool {
	return u >= Bytes && u <= YB
}

// Steps is the number of factor-1000 steps from Bytes to u.
func (u Unit) Steps() int { return int(u) }

// String returns the display label of u.
func (u Unit) String() string {
	if !u.Valid() {
		return "Unit(" + strconv.Itoa(int(u)) + ")"
	}
	return labels[u]
}

// Set implements pflag.Value.
func (u *Unit) Set(s string) error {
	v, err := ParseUnit(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Type implements pflag.Value.
func (u *Unit) Type() string { return "unit" }

// ParseUnit parses a unit label. Matching ignores case, and "b" is accepted
// for bytes.
func ParseUnit(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "b") || strings.EqualFold(s, "byte") {
		return Bytes, nil
	}
	for u, l := range labels {
		if strings.EqualFold(s, l) {
			return Unit(u), nil
		}
	}
	return Bytes, fmt.Errorf("unknown unit %q; valid units are %s", s, strings.Join(labels[:], ", "))
}

// ChooseUnit returns the largest unit in which bytes reads as a whole number
// below Threshold. Each step floors, so ChooseUnit(12345) is (12, KB).
func ChooseUnit(bytes uint64) (uint64, Unit) {
	return chooseUnitFrom(bytes, Bytes)
}

// chooseUnitFrom keeps dividing value, already expressed in unit, until it
// drops below Threshold. The search stops at YB and returns whatever value
// remains there.
func chooseUnitFrom(value uint64, unit Unit) (uint64, Unit) {
	for value >= Threshold && unit < YB {
		value /= step
		unit++
	}
	return value, unit
}

// ToBytes converts value in unit u to raw bytes.
func ToBytes(value uint64, u Unit) (uint64, error) {
	if !u.Valid() {
		return 0, fmt.Errorf("invalid unit %d", int(u))
	}
	result := value
	for i := 0; i < u.Steps(); i++ {
		hi, lo := bits.Mul64(result, step)
		if hi != 0 {
			return 0, ErrOverflow
		}
		result = lo
	}
	return result, nil
}

// ScaleBySteps floors bytes down by the given number of factor-1000 steps.
// Negative steps are treated as zero.
func ScaleBySteps(bytes uint64, steps int) uint64 {
	for i := 0; i < steps && bytes > 0; i++ {
		bytes /= step
	}
	return bytes
}

// UnitsUpTo lists every unit from Bytes to u inclusive, for offering the
// choices a quota may be entered in.
func UnitsUpTo(u Unit) []Unit {
	if u < Bytes {
		return nil
	}
	if u > YB {
		u = YB
	}
	out := make([]Unit, 0, int(u)+1)
	for i := Bytes; i <= u; i++ {
		out = append(out, i)
	}
	return out
}

// Format renders bytes in the unit chosen by ChooseUnit, e.g. "12 kB".
func Format(bytes uint64) string {
	v, u := ChooseUnit(bytes)
	return formatValue(v) + " " + u.String()
}

// FormatIn renders bytes scaled down to unit u.
func FormatIn(bytes uint64, u Unit) string {
	return formatValue(ScaleBySteps(bytes, u.Steps())) + " " + u.String()
}

func formatValue(v uint64) string {
	if v > math.MaxInt64 {
		return strconv.FormatUint(v, 10)
	}
	return humanize.Comma(int64(v))
}
