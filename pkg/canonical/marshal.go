// Copyright (C) 2025 SAGE-X Project
//
// This file is part of sage-beckn-go.
//
// sage-beckn-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sage-beckn-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sage-beckn-go.  If not, see <https://www.gnu.org/licenses/>.

package canonical

import (
	"bytes"
	"math"
	"strconv"
	"unicode/utf8"
)

const (
	// MaxDepth bounds list/map nesting for Marshal, FromGo and Parse
	MaxDepth = 512

	// 2^53, the largest integer every IEEE-754 double represents exactly
	maxSafeInteger = 1 << 53

	hexDigits = "0123456789abcdef"
)

// Marshal returns the canonical JSON encoding of v:
//
//   - no insignificant whitespace
//   - object members sorted by key (UTF-16 code unit order)
//   - strings escaped as ECMAScript JSON.stringify does, without HTML escaping
//   - integers in plain decimal; other numbers in ECMAScript shortest form
//
// NaN, infinities and strings that are not valid UTF-8 produce a
// *SerializationError.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v, "$", 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustMarshal is Marshal for values known to be valid, such as fixtures.
func MustMarshal(v Value) []byte {
	out, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return out
}

func encode(buf *bytes.Buffer, v Value, path string, depth int) error {
	if depth > MaxDepth {
		return serializationError(path, "maximum nesting depth exceeded")
	}

	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if v.intText != "" {
			buf.WriteString(v.intText)
			return nil
		}
		text, err := formatFloat(v.f)
		if err != nil {
			return serializationError(path, err.Error())
		}
		buf.WriteString(text)
	case KindString:
		if err := writeString(buf, v.s); err != nil {
			return serializationError(path, err.Error())
		}
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, item, path+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, key := range v.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, key); err != nil {
				return serializationError(path, "invalid object key: "+err.Error())
			}
			buf.WriteByte(':')
			if err := encode(buf, v.fields[key], path+"."+key, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return serializationError(path, "unknown value kind "+v.kind.String())
	}
	return nil
}

// formatFloat renders f the way ECMAScript Number.prototype.toString does:
// plain notation for 1e-6 <= |f| < 1e21, exponent notation otherwise, with
// the shortest digits that round-trip.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errUnsupportedNumber(f)
	}
	if f == 0 {
		return "0", nil
	}

	format := byte('f')
	if abs := math.Abs(f); abs < 1e-6 || abs >= 1e21 {
		format = 'e'
	}

	b := strconv.AppendFloat(nil, f, format, -1, 64)
	if format == 'e' {
		// e-07 -> e-7
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return string(b), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	buf.WriteByte('"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			buf.WriteString(s[start:i])
			switch c {
			case '"':
				buf.WriteString(`\"`)
			case '\\':
				buf.WriteString(`\\`)
			case '\b':
				buf.WriteString(`\b`)
			case '\f':
				buf.WriteString(`\f`)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			default:
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
			}
			i++
			start = i
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return errInvalidUTF8
		}
		i += size
	}
	buf.WriteString(s[start:])
	buf.WriteByte('"')
	return nil
}
