package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// flexString decodes a JSON string, number, null, or list, yielding
// the first non-empty scalar as text.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexString(firstScalar(v))
	return nil
}

// flexStrings decodes a JSON list, scalar, or null into a string
// slice, dropping empty elements.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = nil
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if s := firstScalar(e); s != "" {
				*f = append(*f, s)
			}
		}
	default:
		if s := firstScalar(v); s != "" {
			*f = append(*f, s)
		}
	}
	return nil
}

func firstScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		// Registry years and numbers arrive as JSON numbers; render
		// integers without an exponent or decimal point.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%v", t)
	case []any:
		for _, e := range t {
			if s := firstScalar(e); s != "" {
				return s
			}
		}
		return ""
	default:
		return ""
	}
}
