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

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sage-x-project/sage-beckn-go/pkg/observability"
	"github.com/sage-x-project/sage-beckn-go/pkg/protocol"
	"github.com/sage-x-project/sage-beckn-go/pkg/signer"
	"github.com/sage-x-project/sage/pkg/agent/crypto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseSize bounds how much of a gateway reply is read
const maxResponseSize = 10 << 20

// ErrNotSent marks failures that happened before anything was sent
var ErrNotSent = errors.New("request not sent")

// GatewayError is returned when the gateway answers with a non-2xx status
type GatewayError struct {
	StatusCode int
	Body       []byte
}

func (e *GatewayError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("gateway returned HTTP %d: %s", e.StatusCode, body)
}

// Response is a 2xx gateway reply
type Response struct {
	StatusCode int

	// Ack is the decoded acknowledgement. A NACK is not an error at this
	// layer; check Ack.Acked.
	Ack *protocol.AckResponse

	// Body is the raw JSON reply
	Body json.RawMessage

	// Digest is the Digest header value that was sent
	Digest string
}

// GatewayTransport posts signed Beckn requests to a gateway.
//
// Each action is sent as POST baseURL/<action> with the canonical request
// body and its Digest and Authorization headers.
type GatewayTransport struct {
	baseURL      string
	subscriberID string
	keyPair      crypto.KeyPair
	signer       signer.BecknSigner
	httpClient   *http.Client
	metrics      *observability.Metrics
	logger       *observability.Logger
	tracer       trace.Tracer
}

// Option configures a GatewayTransport
type Option func(*GatewayTransport)

// WithSigner replaces the default signer
func WithSigner(s signer.BecknSigner) Option {
	return func(t *GatewayTransport) {
		if s != nil {
			t.signer = s
		}
	}
}

// WithMetrics records signing and gateway metrics on m
func WithMetrics(m *observability.Metrics) Option {
	return func(t *GatewayTransport) { t.metrics = m }
}

// WithLogger logs every gateway call on l
func WithLogger(l *observability.Logger) Option {
	return func(t *GatewayTransport) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTracerProvider uses tp instead of the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *GatewayTransport) {
		if tp != nil {
			t.tracer = tp.Tracer(observability.TracerName)
		}
	}
}

// NewGatewayTransport creates a transport for the gateway at baseURL.
//
// Parameters:
//   - baseURL: The gateway base URL (e.g., "https://gateway.becknprotocol.io")
//   - subscriberID: Your registered subscriber id, used as keyId
//   - keyPair: Your Ed25519 signing key
//   - httpClient: Optional HTTP client (nil to use http.DefaultClient)
func NewGatewayTransport(
	baseURL string,
	subscriberID string,
	keyPair crypto.KeyPair,
	httpClient *http.Client,
	opts ...Option,
) *GatewayTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	t := &GatewayTransport{
		baseURL:      strings.TrimRight(baseURL, "/"),
		subscriberID: subscriberID,
		keyPair:      keyPair,
		signer:       signer.NewDefaultBecknSigner(),
		httpClient:   httpClient,
		logger:       observability.NewNopLogger(),
		tracer:       otel.Tracer(observability.TracerName),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BaseURL returns the gateway base URL
func (t *GatewayTransport) BaseURL() string {
	return t.baseURL
}

// Send posts req to the route of action. The context action of req must
// match action.
func (t *GatewayTransport) Send(ctx context.Context, action protocol.Action, req *protocol.Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", ErrNotSent)
	}
	if req.Context.Action != action {
		return nil, fmt.Errorf("%w: context action %q does not match %q", ErrNotSent, req.Context.Action, action)
	}

	ctx, span := t.tracer.Start(ctx, "beckn.gateway."+string(action),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("beckn.action", string(action)),
			attribute.String("beckn.subscriber_id", t.subscriberID),
			attribute.String("beckn.transaction_id", req.Context.TransactionID),
			attribute.String("beckn.message_id", req.Context.MessageID),
		),
	)
	defer span.End()

	resp, status, err := t.do(ctx, action, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}
	span.SetAttributes(attribute.String("beckn.status", status))

	return resp, err
}

func (t *GatewayTransport) do(ctx context.Context, action protocol.Action, req *protocol.Request) (*Response, string, error) {
	signStart := time.Now()
	headers, err := t.signer.CreateHeaders(ctx, req, t.subscriberID, t.keyPair)
	if t.metrics != nil {
		t.metrics.RecordSignature(err == nil, time.Since(signStart).Seconds())
	}
	if err != nil {
		t.logger.SigningFailed(string(action), err)
		return nil, "unsigned", fmt.Errorf("%w: %w", ErrNotSent, err)
	}
	t.logger.RequestSigned(string(action), headers.Digest, headers.Authorization)

	url := t.baseURL + "/" + string(action)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(headers.Body))
	if err != nil {
		return nil, "unsigned", fmt.Errorf("%w: failed to create HTTP request: %w", ErrNotSent, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	headers.Apply(httpReq.Header)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	resp, status, err := t.roundTrip(httpReq)
	elapsed := time.Since(start)

	if t.metrics != nil {
		t.metrics.RecordGatewayRequest(string(action), status, elapsed.Seconds())
	}
	if err != nil {
		t.logger.GatewayFailed(string(action), err, elapsed)
		return nil, status, err
	}
	t.logger.GatewayForwarded(string(action), resp.StatusCode, string(resp.Ack.Status()), elapsed)

	resp.Digest = headers.Digest
	return resp, status, nil
}

func (t *GatewayTransport) roundTrip(req *http.Request) (*Response, string, error) {
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, "error", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, "error", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Sprintf("http_%d", resp.StatusCode), &GatewayError{StatusCode: resp.StatusCode, Body: body}
	}

	var ack protocol.AckResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, "error", fmt.Errorf("failed to parse gateway response: %w", err)
	}

	status := "ack"
	if !ack.Acked() {
		status = "nack"
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Ack:        &ack,
		Body:       json.RawMessage(body),
	}, status, nil
}

// Search implements the 'search' action.
func (t *GatewayTransport) Search(ctx context.Context, req *protocol.Request) (*Response, error) {
	return t.Send(ctx, protocol.ActionSearch, req)
}

// Select implements the 'select' action.
func (t *GatewayTransport) Select(ctx context.Context, req *protocol.Request) (*Response, error) {
	return t.Send(ctx, protocol.ActionSelect, req)
}

// Init implements the 'init' action.
func (t *GatewayTransport) Init(ctx context.Context, req *protocol.Request) (*Response, error) {
	return t.Send(ctx, protocol.ActionInit, req)
}

// Confirm implements the 'confirm' action.
func (t *GatewayTransport) Confirm(ctx context.Context, req *protocol.Request) (*Response, error) {
	return t.Send(ctx, protocol.ActionConfirm, req)
}

// Status implements the 'status' action.
func (t *GatewayTransport) Status(ctx context.Context, req *protocol.Request) (*Response, error) {
	return t.Send(ctx, protocol.ActionStatus, req)
}

// Track implements the 'track' action.
func (t *GatewayTransport) Track(ctx context.Context, req *protocol.Request) (*Response, error) {
	return t.Send(ctx, protocol.ActionTrack, req)
}

// Cancel implements the 'cancel' action.
func (t *GatewayTransport) Cancel(ctx context.Context, req *protocol.Request) (*Response, error) {
	return t.Send(ctx, protocol.ActionCancel, req)
}

// Support implements the 'support' action.
func (t *GatewayTransport) Support(ctx context.Context, req *protocol.Request) (*Response, error) {
	return t.Send(ctx, protocol.ActionSupport, req)
}
