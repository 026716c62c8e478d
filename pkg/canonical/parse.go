package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

// Parse decodes JSON text into a Value. Numbers keep their literal precision
// where they are integers. Duplicate object keys and trailing data are
// rejected, because either would make the canonical form ambiguous.
func Parse(data []byte) (Value, error) {
	return parseAt(data, "$")
}

func parseAt(data []byte, path string) (Value, error) {
	// the decoder would silently substitute U+FFFD
	if !utf8.Valid(data) {
		return Value{}, serializationError(path, errInvalidUTF8.Error())
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec, path, 0)
	if err != nil {
		return Value{}, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, serializationError(path, "trailing data after JSON value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder, path string, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, serializationError(path, "maximum nesting depth exceeded")
	}

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, serializationError(path, "unexpected end of JSON input")
		}
		return Value{}, &SerializationError{Path: path, Reason: "invalid JSON", Err: err}
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return numberFromLiteral(string(t), path)
	case json.Delim:
		switch t {
		case '[':
			return parseList(dec, path, depth)
		case '{':
			return parseMap(dec, path, depth)
		}
	}
	return Value{}, serializationError(path, fmt.Sprintf("unexpected token %v", tok))
}

func parseList(dec *json.Decoder, path string, depth int) (Value, error) {
	var items []Value
	for dec.More() {
		item, err := parseValue(dec, path+"["+strconv.Itoa(len(items))+"]", depth+1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, &SerializationError{Path: path, Reason: "unterminated array", Err: err}
	}
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}, nil
}

func parseMap(dec *json.Decoder, path string, depth int) (Value, error) {
	fields := make(map[string]Value)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, &SerializationError{Path: path, Reason: "invalid object key", Err: err}
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, serializationError(path, fmt.Sprintf("unexpected object key %v", tok))
		}
		if _, dup := fields[key]; dup {
			return Value{}, serializationError(path, fmt.Sprintf("duplicate object key %q", key))
		}

		item, err := parseValue(dec, path+"."+key, depth+1)
		if err != nil {
			return Value{}, err
		}
		fields[key] = item
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, &SerializationError{Path: path, Reason: "unterminated object", Err: err}
	}
	return Value{kind: KindMap, fields: fields}, nil
}
