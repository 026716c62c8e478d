package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sage-x-project/sage-beckn-go/pkg/config"
	"github.com/sage-x-project/sage-beckn-go/pkg/keys"
	"github.com/sage-x-project/sage-beckn-go/pkg/observability"
	"github.com/sage-x-project/sage-beckn-go/pkg/protocol"
	"github.com/sage-x-project/sage-beckn-go/pkg/signer"
	"github.com/sage-x-project/sage-beckn-go/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockForwarder records the last search and replies with resp or err
type mockForwarder struct {
	last *protocol.Request
	resp *transport.Response
	err  error
}

func (m *mockForwarder) Search(ctx context.Context, req *protocol.Request) (*transport.Response, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func ackResponse() *transport.Response {
	return &transport.Response{
		StatusCode: http.StatusOK,
		Ack:        &protocol.AckResponse{Message: &protocol.AckMessage{Ack: protocol.Ack{Status: protocol.AckStatusACK}}},
		Body:       json.RawMessage(`{"message":{"ack":{"status":"ACK"}}}`),
	}
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.BapID = "bap.example.org"
	cfg.BapURI = "https://bap.example.org"
	return cfg
}

func newTestServer(fwd Forwarder) (*Server, http.Handler) {
	s := New(testConfig(), fwd, nil, nil)
	return s, s.Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	_, h := newTestServer(&mockForwarder{})

	rec := do(h, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthMessage, rec.Body.String())

	rec = do(h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Search_UsesRequestGPS(t *testing.T) {
	fwd := &mockForwarder{resp: ackResponse()}
	_, h := newTestServer(fwd)

	rec := do(h, http.MethodPost, "/search",
		`{"message":{"intent":{"fulfillment":{"start":{"location":{"gps":"28.6139,77.2090"}}}}}}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, fwd.last)

	msg, ok := fwd.last.Message.(*protocol.SearchMessage)
	require.True(t, ok)
	assert.Equal(t, "28.6139,77.2090", msg.Intent.Fulfillment.Start.Location.GPS)
	assert.Equal(t, protocol.DefaultRadius, *msg.Intent.Fulfillment.Start.Location.Radius)

	c := fwd.last.Context
	assert.Equal(t, protocol.ActionSearch, c.Action)
	assert.Equal(t, "bap.example.org", c.BapID)
	assert.Equal(t, "https://bap.example.org", c.BapURI)
	assert.Equal(t, "uei:charging", c.Domain)
	assert.Equal(t, "IND", c.Location.Country.Code)
	assert.Equal(t, "std:080", c.Location.City.Code)
	_, err := uuid.Parse(c.TransactionID)
	assert.NoError(t, err)

	var out struct {
		Context  protocol.Context `json:"context"`
		Response json.RawMessage  `json:"response"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, c, out.Context)
	assert.JSONEq(t, `{"message":{"ack":{"status":"ACK"}}}`, string(out.Response))
}

func TestServer_Search_DefaultGPS(t *testing.T) {
	for _, body := range []string{"", "{}", `{"message":{"intent":{}}}`} {
		fwd := &mockForwarder{resp: ackResponse()}
		_, h := newTestServer(fwd)

		rec := do(h, http.MethodPost, "/search", body)

		require.Equal(t, http.StatusOK, rec.Code)
		msg := fwd.last.Message.(*protocol.SearchMessage)
		assert.Equal(t, protocol.DefaultGPS, msg.Intent.Fulfillment.Start.Location.GPS, "body %q", body)
	}
}

func TestServer_Search_FreshIDsPerCall(t *testing.T) {
	fwd := &mockForwarder{resp: ackResponse()}
	_, h := newTestServer(fwd)

	do(h, http.MethodPost, "/search", "{}")
	first := fwd.last.Context
	do(h, http.MethodPost, "/search", "{}")
	second := fwd.last.Context

	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.NotEqual(t, first.MessageID, second.MessageID)
}

func TestServer_Search_InvalidJSON(t *testing.T) {
	fwd := &mockForwarder{resp: ackResponse()}
	_, h := newTestServer(fwd)

	rec := do(h, http.MethodPost, "/search", `{"message":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, fwd.last, "nothing must be forwarded")
}

func TestServer_Search_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		details string
	}{
		{
			name:    "not signed",
			err:     fmt.Errorf("%w: %w", transport.ErrNotSent, signer.ErrSigning),
			status:  http.StatusInternalServerError,
			message: "Failed to sign search request",
		},
		{
			name:    "gateway rejected",
			err:     &transport.GatewayError{StatusCode: 401, Body: []byte(`{"error":{"code":"10002"}}`)},
			status:  http.StatusBadGateway,
			message: "Failed to forward search to Beckn Gateway",
			details: `{"error":{"code":"10002"}}`,
		},
		{
			name:    "gateway plain text",
			err:     &transport.GatewayError{StatusCode: 503, Body: []byte(`unavailable`)},
			status:  http.StatusBadGateway,
			message: "Failed to forward search to Beckn Gateway",
			details: `"gateway returned HTTP 503: unavailable"`,
		},
		{
			name:    "network",
			err:     errors.New("HTTP request failed: connection refused"),
			status:  http.StatusBadGateway,
			message: "Failed to forward search to Beckn Gateway",
			details: `"HTTP request failed: connection refused"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newTestServer(&mockForwarder{err: tt.err})

			rec := do(h, http.MethodPost, "/search", "{}")

			assert.Equal(t, tt.status, rec.Code)
			var out struct {
				Error   string          `json:"error"`
				Details json.RawMessage `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.Equal(t, tt.message, out.Error)
			if tt.details != "" {
				assert.JSONEq(t, tt.details, string(out.Details))
			}
		})
	}
}

func TestServer_Callbacks(t *testing.T) {
	var logs bytes.Buffer
	metrics := observability.NewMetrics()
	s := New(testConfig(), &mockForwarder{}, observability.NewLogger("bap", "test", &logs), metrics)
	h := s.Handler()

	for _, action := range protocol.WebhookActions() {
		t.Run(action.Callback(), func(t *testing.T) {
			rec := do(h, http.MethodPost, "/"+action.Callback(), `{"context":{"transaction_id":"txn-1","message_id":"msg-1"},"message":{}}`)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"ack":{"status":"ACK"}}`, rec.Body.String())
		})
	}

	assert.Contains(t, logs.String(), `"route":"on_search"`)
	assert.Contains(t, logs.String(), `"transaction_id":"txn-1"`)
	assert.Contains(t, logs.String(), `"message":"callback received"`)

	rec := do(h, http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), `beckn_callbacks_total{action="on_support"} 1`)
}

func TestServer_Callback_UnknownAndInvalid(t *testing.T) {
	_, h := newTestServer(&mockForwarder{})

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/on_rating", "{}").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodGet, "/on_search", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/on_search", "not json").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/on_search", "").Code)
}

func TestServer_Callback_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.CallbackRate = 0.001
	cfg.CallbackBurst = 2
	s := New(cfg, &mockForwarder{}, nil, nil)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/on_search", "{}").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/on_select", "{}").Code)

	rec := do(h, http.MethodPost, "/on_search", "{}")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// other callers have their own bucket
	req := httptest.NewRequest(http.MethodPost, "/on_search", strings.NewReader("{}"))
	req.RemoteAddr = "10.0.0.9:4444"
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)

	// health and search are not limited
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/", "").Code)
}

func TestServer_AccessLog(t *testing.T) {
	var logs bytes.Buffer
	s := New(testConfig(), &mockForwarder{}, observability.NewLogger("bap", "test", &logs), nil)

	do(s.Handler(), http.MethodGet, "/", "")

	assert.Contains(t, logs.String(), `"method":"GET"`)
	assert.Contains(t, logs.String(), `"path":"/"`)
	assert.Contains(t, logs.String(), `"status":200`)
}

// TestServer_SearchThroughGateway wires the server to a real transport and
// a gateway that checks the signature
func TestServer_SearchThroughGateway(t *testing.T) {
	kp, err := keys.Generate()
	require.NoError(t, err)

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), `Signature keyId="bap.example.org"`))
		assert.NotEmpty(t, r.Header.Get("Digest"))
		_, _ = w.Write([]byte(`{"message":{"ack":{"status":"ACK"}}}`))
	}))
	defer gateway.Close()

	gw := transport.NewGatewayTransport(gateway.URL, "bap.example.org", kp, nil)
	_, h := newTestServer(gw)

	rec := do(h, http.MethodPost, "/search", "{}")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestServer_Serve_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.ShutdownTimeout = time.Second
	s := New(cfg, &mockForwarder{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestMapLimiter(t *testing.T) {
	assert.Nil(t, NewMapLimiter(0, 1, 0))
	assert.Nil(t, NewMapLimiter(1, 0, 0))

	var nilLimiter *MapLimiter
	assert.True(t, nilLimiter.Allow("a", time.Now()))
	assert.Equal(t, 0, nilLimiter.Len())

	l := NewMapLimiter(1, 1, time.Minute)
	now := time.Now()
	assert.True(t, l.Allow("a", now))
	assert.False(t, l.Allow("a", now))
	assert.True(t, l.Allow("b", now))
	assert.True(t, l.Allow("a", now.Add(1100*time.Millisecond)))
	assert.Equal(t, 2, l.Len())
}

func TestMapLimiter_EvictsIdle(t *testing.T) {
	l := NewMapLimiter(1000, 1000, time.Second)
	start := time.Now()
	l.Allow("idle", start)

	later := start.Add(time.Hour)
	for i := 0; i < 511; i++ {
		l.Allow("busy", later)
	}

	assert.Equal(t, 1, l.Len())
}

func TestRateLimitMiddleware_CustomErrorHandler(t *testing.T) {
	m := NewRateLimitMiddleware(NewMapLimiter(0.001, 1, 0), nil, nil)
	var got error
	m.SetErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do(h, http.MethodPost, "/on_search", "{}")
	rec := do(h, http.MethodPost, "/on_search", "{}")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.ErrorIs(t, got, ErrRateLimited)
}

func TestRemoteKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", remoteKey(r))

	r.RemoteAddr = "192.0.2.1"
	assert.Equal(t, "192.0.2.1", remoteKey(r))

	r.RemoteAddr = ""
	assert.Equal(t, "unknown", remoteKey(r))
}
