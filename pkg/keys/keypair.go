package keys

import (
	"bytes"
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/sage-x-project/sage/pkg/agent/crypto"
	"github.com/sage-x-project/sage/pkg/agent/crypto/formats"
	sagekeys "github.com/sage-x-project/sage/pkg/agent/crypto/keys"
)

const (
	pemTypePrivateKey = "PRIVATE KEY"
	pemTypePublicKey  = "PUBLIC KEY"
)

var errSignatureInvalid = errors.New("ed25519 signature verification failed")

// KeyPair is an immutable Ed25519 key handle. It satisfies the SAGE
// crypto.KeyPair interface so it can be handed to any signer that accepts one.
//
// A KeyPair is safe for concurrent use: nothing mutates it after construction.
type KeyPair struct {
	id   string
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

var _ crypto.KeyPair = (*KeyPair)(nil)

// Generate creates a fresh Ed25519 key pair. Nothing is written to disk; use
// Persist for that.
func Generate() (*KeyPair, error) {
	generated, err := sagekeys.GenerateEd25519KeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}

	var seed []byte
	switch priv := generated.PrivateKey().(type) {
	case ed25519.PrivateKey:
		seed = priv.Seed()
	case *ed25519.PrivateKey:
		seed = priv.Seed()
	default:
		return nil, fmt.Errorf("unexpected private key type %T from ed25519 generator", priv)
	}

	return NewKeyPairFromSeed(seed)
}

// NewKeyPairFromSeed derives a key pair from a 32-byte Ed25519 seed.
func NewKeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, formatError(fmt.Sprintf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed)))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	fingerprint := sha256.Sum256(pub)

	return &KeyPair{
		id:   hex.EncodeToString(fingerprint[:8]),
		priv: priv,
		pub:  pub,
	}, nil
}

// ID returns a short fingerprint of the public key
func (k *KeyPair) ID() string {
	return k.id
}

// PublicKey returns the ed25519.PublicKey
func (k *KeyPair) PublicKey() stdcrypto.PublicKey {
	return k.RawPublicKey()
}

// PrivateKey returns the ed25519.PrivateKey
func (k *KeyPair) PrivateKey() stdcrypto.PrivateKey {
	out := make(ed25519.PrivateKey, len(k.priv))
	copy(out, k.priv)
	return out
}

// Type always reports crypto.KeyTypeEd25519
func (k *KeyPair) Type() crypto.KeyType {
	return crypto.KeyTypeEd25519
}

// Sign produces a pure Ed25519 signature over message (no pre-hashing).
func (k *KeyPair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, message), nil
}

// Verify checks an Ed25519 signature over message against this key pair's public key.
func (k *KeyPair) Verify(message, signature []byte) error {
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("ed25519 signature must be %d bytes, got %d", ed25519.SignatureSize, len(signature))
	}
	if !ed25519.Verify(k.pub, message, signature) {
		return errSignatureInvalid
	}
	return nil
}

// RawPublicKey returns a copy of the 32-byte public key
func (k *KeyPair) RawPublicKey() ed25519.PublicKey {
	out := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(out, k.pub)
	return out
}

// PublicKeyBase64 returns the raw public key in standard base64, the form
// registered with the counterparty out of band.
func (k *KeyPair) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.pub)
}

// Seed returns a copy of the 32-byte private seed
func (k *KeyPair) Seed() []byte {
	return k.priv.Seed()
}

// PublicKeyPEM returns the SPKI "PUBLIC KEY" PEM block
func (k *KeyPair) PublicKeyPEM() ([]byte, error) {
	out, err := formats.NewPEMExporter().ExportPublic(k, crypto.KeyFormatPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to export public key: %w", err)
	}
	return out, nil
}

// PrivateKeyPEM returns the PKCS#8 "PRIVATE KEY" PEM block
func (k *KeyPair) PrivateKeyPEM() ([]byte, error) {
	out, err := formats.NewPEMExporter().Export(k, crypto.KeyFormatPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to export private key: %w", err)
	}
	return out, nil
}

// ParsePrivateKeyPEM decodes a PKCS#8 PEM block into a KeyPair. The DER is
// checked structurally (Ed25519 OID, 32-byte seed, matching embedded public
// key) before the SAGE PEM importer builds the key.
func ParsePrivateKeyPEM(data []byte) (*KeyPair, error) {
	der, err := decodePEM(data, pemTypePrivateKey)
	if err != nil {
		return nil, err
	}

	seed, err := parsePKCS8(der)
	if err != nil {
		return nil, err
	}

	imported, err := formats.NewPEMImporter().Import(data, crypto.KeyFormatPEM)
	if err != nil {
		return nil, &KeyFormatError{Reason: "unparseable private key", Err: err}
	}
	if imported.Type() != crypto.KeyTypeEd25519 {
		return nil, formatError(fmt.Sprintf("unexpected key type %s", imported.Type()))
	}
	priv, ok := imported.PrivateKey().(ed25519.PrivateKey)
	if !ok || !bytes.Equal(priv.Seed(), seed) {
		return nil, formatError("imported private key does not match its DER encoding")
	}

	return NewKeyPairFromSeed(seed)
}

// ParsePublicKeyPEM decodes an SPKI PEM block and returns the raw 32-byte key.
func ParsePublicKeyPEM(data []byte) (ed25519.PublicKey, error) {
	der, err := decodePEM(data, pemTypePublicKey)
	if err != nil {
		return nil, err
	}
	return RawPublicKey(der)
}

func decodePEM(data []byte, wantType string) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, formatError("no PEM block found")
	}
	if block.Type != wantType {
		return nil, formatError(fmt.Sprintf("unexpected PEM block type %q, want %q", block.Type, wantType))
	}
	if len(block.Headers) != 0 {
		return nil, formatError("encrypted or annotated PEM blocks are not supported")
	}
	return block.Bytes, nil
}
