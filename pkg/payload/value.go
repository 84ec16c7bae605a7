// Package payload wraps the analysis engine's loosely structured JSON output.
//
// A Value never panics and never returns an error from its accessors: every
// read takes a typed default that is used when the field is missing, null or
// of the wrong shape. This is the single place where untyped JSON is
// inspected; everything downstream works with the defaults it returns.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrEmpty is returned by Parse for empty or whitespace-only input.
var ErrEmpty = errors.New("empty payload")

// Value is an immutable view of one JSON node. The zero Value is absent.
type Value struct {
	raw     any
	present bool
}

// Parse decodes data as a single JSON document.
func Parse(data []byte) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Value{}, ErrEmpty
	}
	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Value{}, err
	}
	return From(raw), nil
}

// From wraps an already decoded JSON tree (maps, slices, float64, string,
// bool, nil).
func From(raw any) Value {
	return Value{raw: raw, present: raw != nil}
}

// Present reports whether the value exists and is not JSON null.
func (v Value) Present() bool { return v.present }

// Raw returns the underlying decoded tree. Callers must not modify it.
func (v Value) Raw() any { return v.raw }

// IsObject reports whether v is a JSON object.
func (v Value) IsObject() bool {
	_, ok := v.raw.(map[string]any)
	return ok
}

// IsList reports whether v is a JSON array.
func (v Value) IsList() bool {
	_, ok := v.raw.([]any)
	return ok
}

// IsNumber reports whether v is a JSON number.
func (v Value) IsNumber() bool {
	_, ok := v.raw.(float64)
	return ok
}

// IsString reports whether v is a JSON string.
func (v Value) IsString() bool {
	_, ok := v.raw.(string)
	return ok
}

// Get returns the named field of an object, or an absent Value.
func (v Value) Get(key string) Value {
	m, ok := v.raw.(map[string]any)
	if !ok {
		return Value{}
	}
	return From(m[key])
}

// Has reports whether an object carries key with a non-null value.
func (v Value) Has(key string) bool {
	return v.Get(key).Present()
}

// First returns the first present field among keys. It resolves field
// aliases such as "line_number" / "line".
func (v Value) First(keys ...string) Value {
	for _, k := range keys {
		if f := v.Get(k); f.Present() {
			return f
		}
	}
	return Value{}
}

// Path walks nested objects.
func (v Value) Path(keys ...string) Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
	}
	return cur
}

// Keys returns the sorted field names of an object.
func (v Value) Keys() []string {
	m, ok := v.raw.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List returns the elements of an array; anything else yields an empty list.
func (v Value) List() []Value {
	items, ok := v.raw.([]any)
	if !ok {
		return []Value{}
	}
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = From(item)
	}
	return out
}

// Len returns the number of elements of an array or fields of an object.
func (v Value) Len() int {
	switch t := v.raw.(type) {
	case []any:
		return len(t)
	case map[string]any:
		return len(t)
	default:
		return 0
	}
}

// String returns a string field. Numbers and booleans are formatted; blank
// strings and other shapes yield def.
func (v Value) String(def string) string {
	switch t := v.raw.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return def
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return def
	}
}

// Float returns a numeric field. Numeric strings are parsed.
func (v Value) Float(def float64) float64 {
	switch t := v.raw.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return def
		}
		return f
	default:
		return def
	}
}

// Int returns a numeric field truncated toward zero.
func (v Value) Int(def int) int {
	if !v.IsNumber() && !v.IsString() {
		return def
	}
	f := v.Float(math.NaN())
	if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return def
	}
	return int(f)
}

// Bool returns a boolean field. The strings "true"/"false" are accepted.
func (v Value) Bool(def bool) bool {
	switch t := v.raw.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		return b
	default:
		return def
	}
}

// Strings returns the string elements of an array, skipping other shapes.
func (v Value) Strings() []string {
	out := []string{}
	for _, item := range v.List() {
		if s := item.String(""); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Empty reports whether v carries no data: absent, null, a blank string or
// an empty array or object. Numbers and booleans are never empty.
func (v Value) Empty() bool {
	switch t := v.raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		for _, child := range t {
			if !From(child).Empty() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// HasData reports whether v is an object with at least one non-empty
// top-level section.
func (v Value) HasData() bool {
	m, ok := v.raw.(map[string]any)
	if !ok {
		return false
	}
	for _, section := range m {
		if !From(section).Empty() {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the wrapped tree; an absent Value encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

// UnmarshalJSON decodes into the Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = From(raw)
	return nil
}
