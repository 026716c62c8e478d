package canonical

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	valueType         = reflect.TypeOf(Value{})
)

// FromGo converts a Go value into a Value.
//
// Supported inputs are Value itself, nil, booleans, strings, all integer and
// float kinds, json.Number, json.RawMessage, maps with string keys, slices,
// arrays and pointers to any of these. Structs and types implementing
// json.Marshaler go through encoding/json first, so their json tags apply.
// []byte becomes a base64 string, as encoding/json would produce.
//
// Cycles through pointers, maps or slices return a *SerializationError instead
// of recursing forever.
func FromGo(v any) (Value, error) {
	c := &converter{visiting: make(map[visitKey]bool)}
	return c.convert(reflect.ValueOf(v), "$", 0)
}

type visitKey struct {
	ptr uintptr
	typ reflect.Type
}

type converter struct {
	visiting map[visitKey]bool
}

func (c *converter) convert(rv reflect.Value, path string, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, serializationError(path, "maximum nesting depth exceeded")
	}
	if !rv.IsValid() {
		return Null(), nil
	}

	if rv.Type() == valueType {
		return rv.Interface().(Value), nil
	}

	switch x := rv.Interface().(type) {
	case json.Number:
		return numberFromLiteral(string(x), path)
	case json.RawMessage:
		if x == nil {
			return Null(), nil
		}
		return parseAt(x, path)
	}

	if rv.Kind() != reflect.Pointer && rv.Kind() != reflect.Interface &&
		(rv.Type().Implements(jsonMarshalerType) || rv.Type().Implements(textMarshalerType)) {
		return c.viaEncodingJSON(rv, path)
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return c.convert(rv.Elem(), path, depth)

	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		if rv.Type().Implements(jsonMarshalerType) || rv.Type().Implements(textMarshalerType) {
			return c.viaEncodingJSON(rv, path)
		}
		key := visitKey{ptr: rv.Pointer(), typ: rv.Type()}
		if c.visiting[key] {
			return Value{}, serializationError(path, "cycle detected")
		}
		c.visiting[key] = true
		defer delete(c.visiting, key)
		return c.convert(rv.Elem(), path, depth)

	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.String:
		return String(rv.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil

	case reflect.Float32:
		// widen through the shortest float32 text so 0.1 stays 0.1
		f, _ := strconv.ParseFloat(strconv.FormatFloat(rv.Float(), 'g', -1, 32), 64)
		return Float(f), nil

	case reflect.Float64:
		return Float(rv.Float()), nil

	case reflect.Map:
		if rv.IsNil() {
			return Null(), nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, serializationError(path, fmt.Sprintf("unsupported map key type %s", rv.Type().Key()))
		}
		key := visitKey{ptr: rv.Pointer(), typ: rv.Type()}
		if c.visiting[key] {
			return Value{}, serializationError(path, "cycle detected")
		}
		c.visiting[key] = true
		defer delete(c.visiting, key)

		fields := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			item, err := c.convert(iter.Value(), path+"."+k, depth+1)
			if err != nil {
				return Value{}, err
			}
			fields[k] = item
		}
		return Value{kind: KindMap, fields: fields}, nil

	case reflect.Slice:
		if rv.IsNil() {
			return Null(), nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return c.viaEncodingJSON(rv, path)
		}
		key := visitKey{ptr: rv.Pointer(), typ: rv.Type()}
		if c.visiting[key] {
			return Value{}, serializationError(path, "cycle detected")
		}
		c.visiting[key] = true
		defer delete(c.visiting, key)
		return c.convertList(rv, path, depth)

	case reflect.Array:
		return c.convertList(rv, path, depth)

	case reflect.Struct:
		return c.viaEncodingJSON(rv, path)

	default:
		return Value{}, serializationError(path, fmt.Sprintf("unsupported type %s", rv.Type()))
	}
}

func (c *converter) convertList(rv reflect.Value, path string, depth int) (Value, error) {
	items := make([]Value, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := c.convert(rv.Index(i), path+"["+strconv.Itoa(i)+"]", depth+1)
		if err != nil {
			return Value{}, err
		}
		items[i] = item
	}
	return Value{kind: KindList, list: items}, nil
}

// viaEncodingJSON lets encoding/json apply struct tags and custom marshalers,
// then re-reads the result as a Value.
func (c *converter) viaEncodingJSON(rv reflect.Value, path string) (Value, error) {
	// encoding/json replaces invalid UTF-8 with U+FFFD, so check first
	if bad, ok := invalidUTF8(rv, path, 0); ok {
		return Value{}, serializationError(bad, errInvalidUTF8.Error())
	}
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return Value{}, &SerializationError{Path: path, Reason: "encoding/json rejected value", Err: err}
	}
	return parseAt(data, path)
}

// numberFromLiteral keeps integer values exact and normalizes everything
// else through float64. A literal with a zero fraction or an exponent that
// denotes an integer within the int64/uint64 range, such as 100.0 or 1E2, is
// the same number as its plain integer form and encodes identically.
func numberFromLiteral(lit, path string) (Value, error) {
	if isIntegerLiteral(lit) {
		if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return Int(n), nil
		}
		if n, err := strconv.ParseUint(lit, 10, 64); err == nil {
			return Uint(n), nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, &SerializationError{Path: path, Reason: fmt.Sprintf("invalid number %q", lit), Err: err}
	}
	if f == math.Trunc(f) && math.Abs(f) <= 1<<64 {
		if r, ok := new(big.Rat).SetString(lit); ok && r.IsInt() {
			n := r.Num()
			if n.IsInt64() {
				return Int(n.Int64()), nil
			}
			if n.IsUint64() {
				return Uint(n.Uint64()), nil
			}
		}
	}
	return Float(f), nil
}

// invalidUTF8 walks the strings encoding/json would emit for rv and returns
// the path of the first one that is not valid UTF-8.
func invalidUTF8(rv reflect.Value, path string, depth int) (string, bool) {
	if !rv.IsValid() || depth > MaxDepth {
		return "", false
	}
	switch rv.Kind() {
	case reflect.String:
		if !utf8.ValidString(rv.String()) {
			return path, true
		}
	case reflect.Interface, reflect.Pointer:
		if !rv.IsNil() {
			return invalidUTF8(rv.Elem(), path, depth+1)
		}
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() && !f.Anonymous {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.Name
			}
			if bad, ok := invalidUTF8(rv.Field(i), path+"."+name, depth+1); ok {
				return bad, true
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			if k.Kind() == reflect.String && !utf8.ValidString(k.String()) {
				return path, true
			}
			if bad, ok := invalidUTF8(iter.Value(), path+"."+fmt.Sprint(k), depth+1); ok {
				return bad, true
			}
		}
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return "", false
		}
		for i := 0; i < rv.Len(); i++ {
			if bad, ok := invalidUTF8(rv.Index(i), path+"["+strconv.Itoa(i)+"]", depth+1); ok {
				return bad, true
			}
		}
	}
	return "", false
}

func isIntegerLiteral(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
