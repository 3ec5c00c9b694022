// Package record defines the opaque record type shared by the fetch,
// storage and rendering layers.
//
// Records originate from the remote endpoint and are never validated. Only a
// handful of optional display fields are ever read.
package record

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Record is a single log or metric entry as returned by the remote endpoint.
//
// Numbers are decoded as [json.Number] so archived records keep the exact
// textual value that was received.
type Record map[string]any

// String returns the field at key rendered as a string.
//
// Missing keys, JSON null and non-scalar values return fallback. Booleans and
// numbers are formatted the way they appeared on the wire.
func (r Record) String(key, fallback string) string {
	if s, ok := Scalar(r[key]); ok {
		return s
	}
	return fallback
}

// Int returns the field at key as an integer.
//
// Numbers, including fractional ones, and numeric strings are accepted and
// truncated toward zero. Anything else returns fallback.
func (r Record) Int(key string, fallback int) int {
	switch val := r[key].(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n)
		}
		if f, err := val.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(val)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return int(f)
		}
	}
	return fallback
}

// Strings returns the field at key as a list of strings.
//
// A single scalar is treated as a one-element list and non-scalar list
// elements are skipped. Missing keys and other shapes return nil.
func (r Record) Strings(key string) []string {
	switch val := r[key].(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, el := range val {
			if s, ok := Scalar(el); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		if s, ok := Scalar(val); ok && s != "" {
			return []string{s}
		}
		return nil
	}
}

// Scalar renders a decoded JSON scalar as a string. It reports false for
// null, objects and arrays.
func Scalar(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// From returns v as a Record when it is a decoded JSON object, or nil.
func From(v any) Record {
	switch val := v.(type) {
	case Record:
		return val
	case map[string]any:
		return Record(val)
	default:
		return nil
	}
}

// Has reports whether key is present with a non-null value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}
