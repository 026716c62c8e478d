package client

import (
	"bytes"
	"context"
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/sage-x-project/sage-beckn-go/pkg/digest"
	"github.com/sage-x-project/sage-beckn-go/pkg/signer"
	"github.com/sage-x-project/sage/pkg/agent/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockKeyPair for testing
type mockKeyPair struct {
	pubKey  ed25519.PublicKey
	privKey ed25519.PrivateKey
	signErr error
}

func (m *mockKeyPair) ID() string {
	return "test-key-id"
}

func (m *mockKeyPair) PublicKey() stdcrypto.PublicKey {
	return m.pubKey
}

func (m *mockKeyPair) PrivateKey() stdcrypto.PrivateKey {
	return m.privKey
}

func (m *mockKeyPair) Type() crypto.KeyType {
	return crypto.KeyTypeEd25519
}

func (m *mockKeyPair) Sign(data []byte) ([]byte, error) {
	if m.signErr != nil {
		return nil, m.signErr
	}
	return ed25519.Sign(m.privKey, data), nil
}

func (m *mockKeyPair) Verify(data, signature []byte) error {
	if !ed25519.Verify(m.pubKey, data, signature) {
		return errors.New("invalid signature")
	}
	return nil
}

func newMockKeyPair(t *testing.T) *mockKeyPair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return &mockKeyPair{pubKey: pub, privKey: priv}
}

var signaturePattern = regexp.MustCompile(`signature="([^"]+)"$`)

// assertSigned checks that r carries a Digest matching body and a signature
// over that digest by kp
func assertSigned(t *testing.T, kp *mockKeyPair, r *http.Request, body []byte) {
	t.Helper()

	d := r.Header.Get("Digest")
	assert.Equal(t, digest.OfBytes(body), d)

	auth := r.Header.Get("Authorization")
	assert.Contains(t, auth, `Signature keyId="bap.example.org",algorithm="ed25519",headers="digest"`)

	m := signaturePattern.FindStringSubmatch(auth)
	require.Len(t, m, 2)
	sig, err := base64.StdEncoding.DecodeString(m[1])
	require.NoError(t, err)
	assert.NoError(t, kp.Verify([]byte(signer.SigningString(d)), sig))
}

// Test NewBecknClient creates client with required dependencies
func TestNewBecknClient(t *testing.T) {
	keyPair := newMockKeyPair(t)

	client := NewBecknClient("bap.example.org", keyPair, nil)

	assert.NotNil(t, client)
	assert.Equal(t, "bap.example.org", client.subscriberID)
	assert.NotNil(t, client.signer)
	assert.Equal(t, http.DefaultClient, client.httpClient)
	assert.Equal(t, "bap.example.org", client.GetSubscriberID())
	assert.Equal(t, keyPair, client.GetKeyPair())
}

// Test NewBecknClient with custom HTTP client and signer
func TestNewBecknClientWithOptions(t *testing.T) {
	customClient := &http.Client{}
	customSigner := signer.NewDefaultBecknSignerWithOptions(&signer.SigningOptions{Format: signer.HeaderFormatV1})

	client := NewBecknClient("bap.example.org", newMockKeyPair(t), customClient, WithSigner(customSigner), WithSigner(nil))

	assert.Equal(t, customClient, client.httpClient)
	assert.Same(t, customSigner, client.signer)
}

// Test Post sends canonical bytes with matching signature headers
func TestBecknClient_Post(t *testing.T) {
	keyPair := newMockKeyPair(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"context":{"action":"search"},"message":{"n":1}}`, string(body))
		assertSigned(t, keyPair, r, body)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":{"ack":{"status":"ACK"}}}`))
	}))
	defer server.Close()

	client := NewBecknClient("bap.example.org", keyPair, nil)

	payload := map[string]any{"message": map[string]any{"n": 1}, "context": map[string]any{"action": "search"}}
	resp, err := client.Post(context.Background(), server.URL+"/search", payload)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Test Do canonicalizes a prepared request before signing
func TestBecknClient_Do(t *testing.T) {
	keyPair := newMockKeyPair(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"a":1,"b":[true,null]}`, string(body))
		assertSigned(t, keyPair, r, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewBecknClient("bap.example.org", keyPair, nil)

	req, err := http.NewRequest(http.MethodPost, server.URL, bytes.NewReader([]byte(`{ "b": [true, null], "a": 1 }`)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Test context cancellation
func TestBecknClient_ContextCancellation(t *testing.T) {
	client := NewBecknClient("bap.example.org", newMockKeyPair(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, err := http.NewRequest(http.MethodPost, "http://example.com", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)

	_, err = client.Do(ctx, req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")

	_, err = client.Post(ctx, "http://example.com", map[string]any{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}

// Test that nothing is sent when signing fails
func TestBecknClient_SigningErrorSendsNothing(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	failing := newMockKeyPair(t)
	failing.signErr = errors.New("key unavailable")

	tests := []struct {
		name   string
		client *BecknClient
		body   any
	}{
		{"key error", NewBecknClient("bap.example.org", failing, nil), map[string]any{"a": 1}},
		{"invalid subscriber", NewBecknClient(`bap"x`, newMockKeyPair(t), nil), map[string]any{"a": 1}},
		{"nil key pair", NewBecknClient("bap.example.org", nil, nil), map[string]any{"a": 1}},
		{"unserializable", NewBecknClient("bap.example.org", newMockKeyPair(t), nil), map[string]any{"c": make(chan int)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.client.Post(context.Background(), server.URL, tt.body)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to sign request")
		})
	}

	req, err := http.NewRequest(http.MethodPost, server.URL, bytes.NewReader([]byte(`not json`)))
	require.NoError(t, err)
	_, err = NewBecknClient("bap.example.org", newMockKeyPair(t), nil).Do(context.Background(), req)
	assert.Error(t, err)

	assert.Equal(t, int32(0), hits.Load())
}

// Test HTTP client error handling
func TestBecknClient_HTTPError(t *testing.T) {
	client := NewBecknClient("bap.example.org", newMockKeyPair(t), nil)

	_, err := client.Post(context.Background(), "://invalid-url", map[string]any{})
	assert.Error(t, err)

	_, err = client.Post(context.Background(), "", map[string]any{})
	assert.Error(t, err)
}
