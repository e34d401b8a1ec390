// Package id provides the identifier type used for backend entities.
// The backend emits integer primary keys but some endpoints (and older
// payloads) send them as strings, so ID accepts both on the wire.
package id

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an opaque backend identifier. The zero value means "unset".
type ID string

// FromInt converts an integer primary key to ID.
func FromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// Parse validates a user-supplied identifier.
func Parse(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("empty id")
	}
	return ID(s), nil
}

// String implements fmt.Stringer.
func (i ID) String() string { return string(i) }

// IsNil checks if ID is unset.
func (i ID) IsNil() bool { return i == "" }

// Int64 returns the numeric form of the ID.
func (i ID) Int64() (int64, error) {
	return strconv.ParseInt(string(i), 10, 64)
}

// MarshalJSON emits canonical integer IDs as JSON numbers, anything else as a
// string. "007" and "+5" stay strings since they are not valid JSON numbers.
func (i ID) MarshalJSON() ([]byte, error) {
	if i == "" {
		return []byte("null"), nil
	}
	if n, err := i.Int64(); err == nil && strconv.FormatInt(n, 10) == string(i) {
		return []byte(i), nil
	}
	return json.Marshal(string(i))
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (i *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*i = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*i = ID(n.String())
		return nil
	}
}
