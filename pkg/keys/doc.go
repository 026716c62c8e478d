// Package keys manages the Ed25519 key pair a Beckn subscriber signs with.
//
// # Lifecycle
//
// Keys are generated once, explicitly, and persisted:
//
//	kp, err := keys.Generate()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	files, err := keys.Persist(kp, "keys")
//
// Persist refuses to replace an existing private key unless WithOverwrite is
// passed. At process start the key is loaded, and a missing or malformed key
// is fatal:
//
//	kp, err := keys.Load("keys")
//	if errors.Is(err, keys.ErrKeyNotFound) {
//	    log.Fatal("no signing key, run keygen generate first")
//	}
//
// # Files
//
//   - private_key.pem - PKCS#8 PEM private key (mode 0600)
//   - public_key.pem - SPKI PEM public key
//   - public_key.b64 - base64 of the raw 32-byte public key, for registry onboarding
//
// # PEM and DER handling
//
// PEM files are written and read with the SAGE formats exporter and importer.
// Before a private key is imported its PKCS#8 DER is walked with cryptobyte.
// RawPublicKey walks the SubjectPublicKeyInfo, checks the id-Ed25519 OID
// (1.3.101.112) and the key length, and rejects trailing data instead of
// slicing the last 32 bytes of whatever it is given.
//
// The returned *KeyPair implements the SAGE crypto.KeyPair interface and is
// immutable, so one handle can be shared by every request goroutine.
package keys
