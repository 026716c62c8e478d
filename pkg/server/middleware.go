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
	"errors"
	"net/http"
	"time"

	"github.com/sage-x-project/sage-beckn-go/pkg/observability"
)

// ErrRateLimited is passed to the error handler for rejected requests
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrorHandler handles requests rejected by a middleware
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// RateLimitMiddleware rejects callers that exceed their token bucket
type RateLimitMiddleware struct {
	limiter      *MapLimiter
	errorHandler ErrorHandler
	logger       *observability.Logger
	metrics      *observability.Metrics
	now          func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware keyed by
// remote address. logger and metrics may be nil.
func NewRateLimitMiddleware(limiter *MapLimiter, logger *observability.Logger, metrics *observability.Metrics) *RateLimitMiddleware {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &RateLimitMiddleware{
		limiter:      limiter,
		errorHandler: defaultErrorHandler,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// SetErrorHandler sets a custom error handler
func (m *RateLimitMiddleware) SetErrorHandler(handler ErrorHandler) {
	m.errorHandler = handler
}

// Wrap wraps an HTTP handler with rate limiting
func (m *RateLimitMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := remoteKey(r)
		if !m.limiter.Allow(key, m.now()) {
			m.logger.RateLimited(key, r.URL.Path)
			if m.metrics != nil {
				m.metrics.RecordRateLimited(r.URL.Path)
			}
			m.errorHandler(w, r, ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AccessLog logs every request with its status, size and latency
func AccessLog(logger *observability.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.HTTPRequest(r.Method, r.URL.Path, rec.status, rec.size, time.Since(start), r.RemoteAddr)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// defaultErrorHandler is the default error handler
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, ErrRateLimited) {
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}
