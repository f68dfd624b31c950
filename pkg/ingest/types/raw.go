package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Raw is an as-received JSON object from an export file. Exported Teams data
// is semi-structured: fields may be absent, hold unexpected types, or carry
// JSON encoded as a string. Raw centralizes the "missing field means
// null/default" policy so callers never access the underlying map directly.
type Raw map[string]interface{}

// Str returns the value under key rendered as a string. Missing values and
// nested objects render as the empty string; numbers render without an
// exponent where possible.
func (r Raw) Str(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; sequence ids and epoch values
		// must not pick up a fractional rendering.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]interface{}, []interface{}:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Value returns the raw value under key, or nil when absent.
func (r Raw) Value(key string) interface{} {
	return r[key]
}

// Has reports whether key is present with a non-nil value.
func (r Raw) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Map returns the object under key, or nil when the value is absent or not
// an object.
func (r Raw) Map(key string) Raw {
	if m, ok := r[key].(map[string]interface{}); ok {
		return Raw(m)
	}
	return nil
}

// List returns the array under key, or nil when the value is absent or not
// an array.
func (r Raw) List(key string) []interface{} {
	if l, ok := r[key].([]interface{}); ok {
		return l
	}
	return nil
}

// ObjectList returns the array of objects under key. The exporter sometimes
// serializes lists twice, so a string value is decoded as JSON first.
// Non-object elements are dropped; anything unparseable yields nil.
func (r Raw) ObjectList(key string) []Raw {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}

	var elems []interface{}
	switch t := v.(type) {
	case []interface{}:
		elems = t
	case string:
		if t == "" {
			return nil
		}
		var decoded []interface{}
		if err := json.Unmarshal([]byte(t), &decoded); err != nil {
			return nil
		}
		elems = decoded
	default:
		return nil
	}

	out := make([]Raw, 0, len(elems))
	for _, e := range elems {
		if m, ok := e.(map[string]interface{}); ok {
			out = append(out, Raw(m))
		}
	}
	return out
}

// FirstStr returns the first non-empty string among the given keys.
func (r Raw) FirstStr(keys ...string) string {
	for _, k := range keys {
		if s := r.Str(k); s != "" {
			return s
		}
	}
	return ""
}

// CompactJSON renders the object as compact JSON. Used to preserve the
// original properties payload on emitted records. Returns "{}" when the
// object cannot be serialized.
func (r Raw) CompactJSON() string {
	if r == nil {
		return "{}"
	}
	data, err := json.Marshal(map[string]interface{}(r))
	if err != nil {
		return "{}"
	}
	return string(data)
}
