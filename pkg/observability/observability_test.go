package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("beckn-bap", "1.0.0", &buf)

	log.WithSubscriber("bap.example.org").WithTransaction("txn", "msg").Info("hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "beckn-bap", lines[0]["service"])
	assert.Equal(t, "1.0.0", lines[0]["version"])
	assert.Equal(t, "bap.example.org", lines[0]["subscriber_id"])
	assert.Equal(t, "txn", lines[0]["transaction_id"])
	assert.Equal(t, "msg", lines[0]["message_id"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.NotEmpty(t, lines[0]["host"])
}

func TestLogger_Events(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("beckn-bap", "1.0.0", &buf)
	require.NoError(t, log.SetLevel("debug"))

	log.RequestSigned("search", "SHA-256=abc", `Signature keyId="a"`)
	log.GatewayForwarded("search", 200, "ACK", 15*time.Millisecond)
	log.GatewayFailed("search", errors.New("boom"), time.Second)
	log.CallbackReceived("on_search", []byte(`{"ack":1}`))
	log.CallbackReceived("on_select", nil)
	log.HTTPRequest("POST", "/search", 200, 42, time.Millisecond, "127.0.0.1:1")
	log.RateLimited("127.0.0.1:1", "/on_search")
	log.SigningFailed("search", errors.New("no key"))
	log.WithRoute("/search").Warn("warned")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 9)
	assert.Equal(t, "SHA-256=abc", lines[0]["digest"])
	assert.Equal(t, float64(200), lines[1]["status_code"])
	assert.Equal(t, "boom", lines[2]["error"])
	assert.Equal(t, map[string]any{"ack": float64(1)}, lines[3]["body"])
	assert.NotContains(t, lines[4], "body")
	assert.Equal(t, "/search", lines[5]["path"])
	assert.Equal(t, "warn", lines[6]["level"])
	assert.Equal(t, "error", lines[7]["level"])
	assert.Equal(t, "/search", lines[8]["route"])
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("beckn-bap", "1.0.0", &buf)
	require.NoError(t, log.SetLevel("warn"))

	log.Info("hidden")
	log.Debug("hidden")
	log.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])

	assert.Error(t, log.SetLevel("loud"))
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Info("nothing")
	log.Error(errors.New("x"), "nothing")
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordSignature(true, 0.0001)
	m.RecordSignature(false, 0.0001)
	m.RecordGatewayRequest("search", "ack", 0.2)
	m.RecordCallback("on_search")
	m.RecordRateLimited("/on_search")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	assert.Contains(t, text, `beckn_signatures_total{status="success"} 1`)
	assert.Contains(t, text, `beckn_signatures_total{status="failure"} 1`)
	assert.Contains(t, text, `beckn_gateway_requests_total{action="search",status="ack"} 1`)
	assert.Contains(t, text, `beckn_gateway_request_duration_seconds_count{action="search"} 1`)
	assert.Contains(t, text, `beckn_callbacks_total{action="on_search"} 1`)
	assert.Contains(t, text, `beckn_rate_limited_total{path="/on_search"} 1`)
	assert.Contains(t, text, `beckn_sign_duration_seconds_count 2`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.RecordCallback("on_search")

	assert.NotSame(t, a.Registry(), b.Registry())

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), `beckn_callbacks_total{action="on_search"}`)
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	shutdown, err := InitTracing(context.Background(), "beckn-bap", "1.0.0")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
