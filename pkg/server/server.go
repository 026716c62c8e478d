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
	"time"

	"github.com/sage-x-project/sage-beckn-go/pkg/canonical"
	"github.com/sage-x-project/sage-beckn-go/pkg/config"
	"github.com/sage-x-project/sage-beckn-go/pkg/observability"
	"github.com/sage-x-project/sage-beckn-go/pkg/protocol"
	"github.com/sage-x-project/sage-beckn-go/pkg/transport"
)

const (
	// HealthMessage is the body of GET /
	HealthMessage = "✅ Beckn BAP is live"

	maxBodySize = 1 << 20
)

// Forwarder sends a signed search to the gateway
type Forwarder interface {
	Search(ctx context.Context, req *protocol.Request) (*transport.Response, error)
}

// Server is the BAP HTTP front end. It forwards searches to the gateway and
// acknowledges the gateway's on_ callbacks.
type Server struct {
	cfg     config.Config
	gateway Forwarder
	logger  *observability.Logger
	metrics *observability.Metrics
	limiter *RateLimitMiddleware
}

// New creates a BAP server. logger and metrics may be nil.
func New(cfg config.Config, gateway Forwarder, logger *observability.Logger, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	limiter := NewMapLimiter(cfg.CallbackRate, cfg.CallbackBurst, 0)

	return &Server{
		cfg:     cfg,
		gateway: gateway,
		logger:  logger,
		metrics: metrics,
		limiter: NewRateLimitMiddleware(limiter, logger, metrics),
	}
}

// Handler returns the routed and logged HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.Handle("GET /metrics", s.metrics.Handler())

	for _, action := range protocol.WebhookActions() {
		route := action.Callback()
		mux.Handle("POST /"+route, s.limiter.Wrap(s.callbackHandler(route)))
	}

	return AccessLog(s.logger, mux)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.ServerStarted(ln.Addr().String(), s.cfg.BapID, s.cfg.GatewayURL)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	s.logger.Info("BAP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, HealthMessage)
}

type searchResponse struct {
	Context  *protocol.Context `json:"context"`
	Response json.RawMessage   `json:"response"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	body, err := readJSON(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body", Details: err.Error()})
		return
	}

	gps, ok := protocol.SearchGPS(body)
	if !ok {
		gps = s.cfg.DefaultGPS
	}

	bctx, err := protocol.NewContextBuilder(protocol.ActionSearch).
		WithDomain(s.cfg.Domain).
		WithLocation(s.cfg.Country, s.cfg.City).
		WithCoreVersion(s.cfg.CoreVersion).
		WithBAP(s.cfg.BapID, s.cfg.BapURI).
		Build()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to build search context", Details: err.Error()})
		return
	}

	log := s.logger.WithTransaction(bctx.TransactionID, bctx.MessageID)
	req := protocol.NewRequest(bctx, protocol.NewSearchMessage(gps, s.cfg.Radius))

	resp, err := s.gateway.Search(r.Context(), req)
	if err != nil {
		if errors.Is(err, transport.ErrNotSent) {
			log.Error(err, "search not sent")
			writeJSON(w, http.StatusInternalServerError, errorBody{
				Error:   "Failed to sign search request",
				Details: err.Error(),
			})
			return
		}

		log.Error(err, "search forwarding failed")
		writeJSON(w, http.StatusBadGateway, errorBody{
			Error:   "Failed to forward search to Beckn Gateway",
			Details: gatewayDetails(err),
		})
		return
	}

	log.Info("search forwarded to gateway")
	writeJSON(w, http.StatusOK, searchResponse{Context: bctx, Response: resp.Body})
}

// gatewayDetails returns the gateway's JSON error body when there is one
func gatewayDetails(err error) any {
	var gwErr *transport.GatewayError
	if errors.As(err, &gwErr) && json.Valid(gwErr.Body) {
		return json.RawMessage(gwErr.Body)
	}
	return err.Error()
}

func (s *Server) callbackHandler(route string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readJSON(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body", Details: err.Error()})
			return
		}

		log := s.logger
		if txn, ok := body.Lookup("context", "transaction_id"); ok {
			if id, ok := txn.AsString(); ok {
				msgID := ""
				if m, ok := body.Lookup("context", "message_id"); ok {
					msgID, _ = m.AsString()
				}
				log = log.WithTransaction(id, msgID)
			}
		}

		raw, err := canonical.Marshal(body)
		if err != nil {
			raw = nil
		}
		log.CallbackReceived(route, raw)
		s.metrics.RecordCallback(route)

		writeJSON(w, http.StatusOK, protocol.NewCallbackAck())
	})
}

// readJSON parses the request body. An empty body reads as {}.
func readJSON(r *http.Request) (canonical.Value, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return canonical.Value{}, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) > maxBodySize {
		return canonical.Value{}, fmt.Errorf("body exceeds %d bytes", maxBodySize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return canonical.Map(nil), nil
	}
	return canonical.Parse(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
