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

package keys

import (
	"bytes"
	"crypto/ed25519"
	"encoding/asn1"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// oidEd25519 is id-Ed25519 from RFC 8410
var oidEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}

// readAlgorithmIdentifier consumes an AlgorithmIdentifier and requires it to be
// id-Ed25519 with the parameters field absent (RFC 8410 section 3).
func readAlgorithmIdentifier(s *cryptobyte.String) error {
	var algo cryptobyte.String
	if !s.ReadASN1(&algo, cbasn1.SEQUENCE) {
		return formatError("malformed AlgorithmIdentifier")
	}

	var oid asn1.ObjectIdentifier
	if !algo.ReadASN1ObjectIdentifier(&oid) {
		return formatError("malformed algorithm OID")
	}
	if !oid.Equal(oidEd25519) {
		return formatError(fmt.Sprintf("unexpected algorithm OID %s, want %s", oid, oidEd25519))
	}
	if !algo.Empty() {
		return formatError("Ed25519 AlgorithmIdentifier must not carry parameters")
	}
	return nil
}

// RawPublicKey decodes a DER SubjectPublicKeyInfo and returns the 32-byte
// Ed25519 public key it carries. The structure is walked field by field; the
// algorithm OID, the BIT STRING padding, the key length and the absence of
// trailing data are all checked.
func RawPublicKey(spkiDER []byte) ([]byte, error) {
	input := cryptobyte.String(spkiDER)

	var spki cryptobyte.String
	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) {
		return nil, formatError("malformed SubjectPublicKeyInfo")
	}
	if !input.Empty() {
		return nil, formatError("trailing data after SubjectPublicKeyInfo")
	}

	if err := readAlgorithmIdentifier(&spki); err != nil {
		return nil, err
	}

	var bits asn1.BitString
	if !spki.ReadASN1BitString(&bits) {
		return nil, formatError("malformed subjectPublicKey BIT STRING")
	}
	if !spki.Empty() {
		return nil, formatError("trailing data in SubjectPublicKeyInfo")
	}
	if bits.BitLength != ed25519.PublicKeySize*8 {
		return nil, formatError(fmt.Sprintf("public key must be %d bits, got %d", ed25519.PublicKeySize*8, bits.BitLength))
	}

	out := make([]byte, ed25519.PublicKeySize)
	copy(out, bits.Bytes)
	return out, nil
}

// parsePKCS8 decodes a DER PKCS#8 (RFC 5958) Ed25519 private key and returns
// its 32-byte seed. Version 1 keys with an embedded public key are accepted
// when the embedded key matches the one derived from the seed.
func parsePKCS8(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)

	var pk cryptobyte.String
	if !input.ReadASN1(&pk, cbasn1.SEQUENCE) {
		return nil, formatError("malformed PrivateKeyInfo")
	}
	if !input.Empty() {
		return nil, formatError("trailing data after PrivateKeyInfo")
	}

	var version int
	if !pk.ReadASN1Integer(&version) {
		return nil, formatError("malformed PrivateKeyInfo version")
	}
	if version != 0 && version != 1 {
		return nil, formatError(fmt.Sprintf("unsupported PrivateKeyInfo version %d", version))
	}

	if err := readAlgorithmIdentifier(&pk); err != nil {
		return nil, err
	}

	var wrapped, seed cryptobyte.String
	if !pk.ReadASN1(&wrapped, cbasn1.OCTET_STRING) {
		return nil, formatError("malformed privateKey OCTET STRING")
	}
	if !wrapped.ReadASN1(&seed, cbasn1.OCTET_STRING) || !wrapped.Empty() {
		return nil, formatError("malformed CurvePrivateKey")
	}
	if len(seed) != ed25519.SeedSize {
		return nil, formatError(fmt.Sprintf("private key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed)))
	}

	// attributes [0]
	if !pk.SkipOptionalASN1(cbasn1.Tag(0).Constructed().ContextSpecific()) {
		return nil, formatError("malformed PrivateKeyInfo attributes")
	}

	// publicKey [1] IMPLICIT BIT STRING
	var embedded cryptobyte.String
	var hasPublic bool
	if !pk.ReadOptionalASN1(&embedded, &hasPublic, cbasn1.Tag(1).ContextSpecific()) {
		return nil, formatError("malformed PrivateKeyInfo publicKey")
	}
	if !pk.Empty() {
		return nil, formatError("trailing data in PrivateKeyInfo")
	}

	if hasPublic {
		derived := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
		if len(embedded) != ed25519.PublicKeySize+1 || embedded[0] != 0 || !bytes.Equal(embedded[1:], derived) {
			return nil, formatError("embedded public key does not match private key")
		}
	}

	out := make([]byte, ed25519.SeedSize)
	copy(out, seed)
	return out, nil
}
