package admin

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is the canonical identifier of a client. Servers have been seen to
// emit identifiers both as JSON numbers and as numeric strings; both decode
// to the same ID so comparisons never mix representations.
type ID uint64

// InvalidID is the zero ID. No stored client carries it.
const InvalidID ID = 0

// IDFromString parses a decimal identifier.
func IDFromString(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return InvalidID, &Error{
			Code: EInvalid,
			Msg:  "invalid client id " + strconv.Quote(s),
			Err:  err,
		}
	}
	return ID(v), nil
}

// Valid reports whether the ID is non-zero.
func (i ID) Valid() bool { return i != InvalidID }

// String returns the decimal form of the ID.
func (i ID) String() string {
	return strconv.FormatUint(uint64(i), 10)
}

// MarshalJSON always encodes a JSON number.
func (i ID) MarshalJSON() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalJSON accepts a JSON number or a JSON string holding a number.
func (i *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	if string(b) == "null" {
		*i = InvalidID
		return nil
	}
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return &Error{
			Code: EInvalid,
			Msg:  "invalid client id " + strconv.Quote(string(b)),
			Err:  err,
		}
	}
	*i = ID(v)
	return nil
}
