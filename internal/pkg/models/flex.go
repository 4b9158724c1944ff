package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Flex is a percent-like or numeric JSON leaf as served by the prediction API.
// It accepts null, a number or a string ("45%", "1.4", ""). Anything else decodes to null.
type Flex struct {
	Value any // nil, float64 or string
}

// Num returns a Flex holding a number.
func Num(v float64) Flex { return Flex{Value: v} }

// Str returns a Flex holding a string.
func Str(s string) Flex { return Flex{Value: s} }

// IsNull reports whether the leaf was absent or null.
func (f Flex) IsNull() bool { return f.Value == nil }

func (f *Flex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.Value = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			f.Value = nil
			return nil
		}
		f.Value = s
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			f.Value = nil
			return nil
		}
		f.Value = n
	}
	return nil
}

func (f Flex) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}
