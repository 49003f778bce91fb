package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a client record keyed by attribute name.
// Values are scalars: numbers (float64, ints, json.Number, numeric strings),
// strings, bools or nil.
type Record map[string]any

// Clone returns a shallow copy; values are scalars so this is a full copy
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether the attribute is present and not null
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Float returns the attribute as float64.
// Missing or null attributes return ErrMissingAttribute, anything that can't be
// read as a number returns ErrInvalidType.
func (r Record) Float(key string) (float64, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingAttribute, key)
	}

	f, ok := ToFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be numeric, got %T", ErrInvalidType, key, v)
	}
	return f, nil
}

// Canonical returns a deterministic JSON encoding of the record.
// encoding/json sorts map keys, so equal records give equal bytes.
func (r Record) Canonical() ([]byte, error) {
	return json.Marshal(map[string]any(r))
}

// ToFloat converts a scalar to float64
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// IsFinite reports whether f is neither NaN nor ±Inf
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FeatureVector is the numeric vector produced by the preprocessing transform.
// Length and ordering are owned by the transform artifact.
type FeatureVector []float64

