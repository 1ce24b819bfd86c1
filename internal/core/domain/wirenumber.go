package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// WireNumber keeps a numeric amount exactly as it appeared on the wire, so
// decimal amounts never pass through a float.
// Both JSON numbers and JSON strings are accepted; null leaves it empty.
type WireNumber string

// UnmarshalJSON implements json.Unmarshaler.
func (r *WireNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
		*r = WireNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	*r = WireNumber(n.String())
	return nil
}
