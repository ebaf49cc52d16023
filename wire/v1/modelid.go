package v1

import (
	"fmt"
	"strconv"
)

// ModelID is an opaque model identifier.
//
// The vendor mixes types on the wire: hub and breaker IDs are strings,
// CT IDs are JSON numbers. ModelID normalizes both to a string in memory and
// re-emits numeric-looking IDs as numbers so outbound frames round-trip the
// server's own encoding.
type ModelID string

func (id ModelID) String() string { return string(id) }

// MarshalJSON emits a JSON number when the ID is purely numeric, otherwise a
// JSON string.
func (id ModelID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return []byte(strconv.Quote(string(id))), nil
}

// UnmarshalJSON accepts both string and number encodings.
func (id *ModelID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("empty model id")
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("invalid model id: %w", err)
		}
		*id = ModelID(s)
		return nil
	}
	if _, err := strconv.ParseInt(string(b), 10, 64); err != nil {
		return fmt.Errorf("invalid model id: %w", err)
	}
	*id = ModelID(b)
	return nil
}
