package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Supabase columns backed by numeric or text types arrive inconsistently:
// JSON numbers, quoted numbers, empty strings, or null. FlexFloat and FlexInt
// absorb all of these and decode to zero when the value cannot be parsed, so
// row decoding never fails on a malformed cell.

// FlexFloat is a float64 that tolerates string, number and null JSON encodings.
type FlexFloat float64

// UnmarshalJSON implements lenient numeric decoding.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat(parseLenientFloat(data))
	return nil
}

// MarshalJSON encodes the value as a plain JSON number.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

// FlexInt is an int that tolerates string, number and null JSON encodings.
// Fractional inputs are truncated toward zero.
type FlexInt int

// UnmarshalJSON implements lenient numeric decoding.
func (i *FlexInt) UnmarshalJSON(data []byte) error {
	*i = FlexInt(int(parseLenientFloat(data)))
	return nil
}

// MarshalJSON encodes the value as a plain JSON number.
func (i FlexInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(i))
}

func parseLenientFloat(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0
	}
	s := string(data)
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return 0
		}
		s = strings.TrimSpace(unquoted)
	}
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
