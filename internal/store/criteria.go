package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Criteria maps field names (their JSON names) to required values. A string
// value matches when the field's string form contains it, case-insensitively.
// Any other value matches by equality. Every criterion must match.
type Criteria map[string]any

func (c Criteria) matches(rec any) (bool, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false, err
	}

	for key, want := range c {
		got, ok := fields[key]

		if s, isString := want.(string); isString {
			if !ok || got == nil {
				return false, nil
			}
			if !strings.Contains(strings.ToLower(stringify(got)), strings.ToLower(s)) {
				return false, nil
			}
			continue
		}

		if !ok || !looseEqual(got, want) {
			return false, nil
		}
	}
	return true, nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// looseEqual compares through the JSON form so that, for example, a caller's
// int criterion equals the float64 a decoded record field carries.
func looseEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
