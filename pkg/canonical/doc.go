// Package canonical provides a JSON value type with a single, deterministic
// byte encoding.
//
// Beckn receivers recompute the SHA-256 digest over the exact request body,
// so the sender must produce the same bytes for the same logical payload no
// matter how the payload was assembled. Value makes that a property of the
// type: objects are always emitted with sorted keys, numbers in one textual
// form, strings with one escaping rule, and no whitespace.
//
//	a := canonical.Map(map[string]canonical.Value{"a": canonical.Int(1), "b": canonical.Int(2)})
//	body, _ := canonical.Marshal(a) // {"a":1,"b":2}
//
// Arbitrary Go payloads are converted with FromGo, and JSON text with Parse.
// Both report problems (cycles, NaN, invalid UTF-8, duplicate keys) as
// *SerializationError.
//
// The encoding follows RFC 8785 (JCS) for key order, string escaping and
// non-integer numbers. Integers are written exactly, even beyond 2^53, and a
// literal such as 1.0 or 1E2 whose value is an integer in the int64/uint64
// range is written the same way as its plain integer form.
package canonical
