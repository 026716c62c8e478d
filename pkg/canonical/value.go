package canonical

import (
	"math"
	"sort"
	"strconv"
	"unicode/utf16"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a JSON value whose serialization does not depend on how it was
// built. Map entries are emitted in sorted key order and numbers in one fixed
// textual form, so two logically equal values always encode to the same bytes.
//
// The zero Value is null. Values are immutable once constructed.
type Value struct {
	kind Kind
	b    bool

	// exact integer text, or empty when f holds the number
	intText string
	f       float64

	s      string
	list   []Value
	fields map[string]Value
}

// Null returns the JSON null value
func Null() Value { return Value{} }

// Bool returns a JSON boolean
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer number, encoded exactly
func Int(n int64) Value { return Value{kind: KindNumber, intText: strconv.FormatInt(n, 10)} }

// Uint returns an unsigned integer number, encoded exactly
func Uint(n uint64) Value { return Value{kind: KindNumber, intText: strconv.FormatUint(n, 10)} }

// Float returns a floating point number. NaN and infinities are accepted here
// but fail at Marshal time, since JSON cannot represent them.
func Float(f float64) Value {
	if f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger {
		return Int(int64(f))
	}
	return Value{kind: KindNumber, f: f}
}

// String returns a JSON string
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns a JSON array holding items in order
func List(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}
}

// Map returns a JSON object. The map is copied.
func Map(fields map[string]Value) Value {
	out := make(map[string]Value, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return Value{kind: KindMap, fields: out}
}

// Kind reports the variant
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsString returns the string held by v
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsFloat returns the number held by v as a float64
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if v.intText != "" {
		f, err := strconv.ParseFloat(v.intText, 64)
		return f, err == nil
	}
	return v.f, true
}

// Len returns the number of list items or map entries
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.fields)
	default:
		return 0
	}
}

// Index returns the i-th list item
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Value{}, false
	}
	return v.list[i], true
}

// Field returns the map entry for key
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Lookup follows a chain of map keys, e.g. Lookup("message", "intent").
func (v Value) Lookup(path ...string) (Value, bool) {
	cur := v
	for _, key := range path {
		next, ok := cur.Field(key)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Keys returns the map keys in canonical order
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// With returns a copy of map v with key set to field
func (v Value) With(key string, field Value) Value {
	out := make(map[string]Value, len(v.fields)+1)
	for k, f := range v.fields {
		out[k] = f
	}
	out[key] = field
	return Value{kind: KindMap, fields: out}
}

// MarshalJSON emits the canonical encoding
func (v Value) MarshalJSON() ([]byte, error) {
	return Marshal(v)
}

// sortKeys orders keys by UTF-16 code units, as RFC 8785 requires. For keys
// made only of BMP characters this is plain byte order.
func sortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		return lessUTF16(keys[i], keys[j])
	})
}

func lessUTF16(a, b string) bool {
	if isASCII(a) && isASCII(b) {
		return a < b
	}
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
