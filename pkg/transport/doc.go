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

// Package transport sends signed Beckn requests to a gateway.
//
// GatewayTransport exposes one method per Beckn action. Each call
// canonicalizes the request, signs it, posts it to baseURL/<action> and
// decodes the synchronous acknowledgement.
//
// # Usage
//
//	gw := transport.NewGatewayTransport(
//	    "https://gateway.becknprotocol.io",
//	    "bap.example.org",
//	    keyPair,
//	    &http.Client{Timeout: 30 * time.Second},
//	    transport.WithMetrics(metrics),
//	    transport.WithLogger(logger),
//	)
//
//	resp, err := gw.Search(ctx, searchRequest)
//	if err != nil {
//	    var gwErr *transport.GatewayError
//	    switch {
//	    case errors.Is(err, transport.ErrNotSent):
//	        // signing failed, nothing left this process
//	    case errors.As(err, &gwErr):
//	        // gateway rejected the request
//	    }
//	}
//
// # Observability
//
// Every call runs in a client span named beckn.gateway.<action> on the
// global tracer provider unless WithTracerProvider is given. With
// WithMetrics the transport records signing and gateway latency.
package transport
