// Package server provides the BAP (Beckn Application Platform) HTTP server.
//
// # Routes
//
//   - GET /            health check
//   - POST /search     builds a search request, signs it and forwards it to
//     the gateway
//   - POST /on_<action> gateway callbacks for search, select, init,
//     confirm, status, track, cancel and support
//   - GET /metrics     Prometheus metrics
//
// # Basic Usage
//
//	cfg, _ := config.LoadFromPath("")
//	kp, _ := keys.Load(cfg.KeysDir)
//	gw := transport.NewGatewayTransport(cfg.GatewayURL, cfg.BapID, kp, nil)
//
//	srv := server.New(cfg, gw, logger, metrics)
//	err := srv.ListenAndServe(ctx, cfg.Addr())
//
// # Search
//
// The start location is read from message.intent.fulfillment.start.location.gps
// of the request body and falls back to the configured default. A fresh
// context with new transaction and message ids is built for every call.
//
//	200 {"context": {...}, "response": <gateway reply>}
//	400 {"error": "Invalid JSON body", ...}
//	500 {"error": "Failed to sign search request", ...}
//	502 {"error": "Failed to forward search to Beckn Gateway", "details": ...}
//
// A search that cannot be signed is never sent.
//
// # Callbacks
//
// Every on_ route logs the body and replies
//
//	{"ack":{"status":"ACK"}}
//
// Callbacks are rate limited per remote address with a token bucket. A
// caller over its budget receives 429 Too Many Requests.
//
// # Custom Error Handler
//
//	limiter := server.NewRateLimitMiddleware(server.NewMapLimiter(5, 10, 0), logger, nil)
//	limiter.SetErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
//	    http.Error(w, "slow down", http.StatusTooManyRequests)
//	})
//
// # Graceful Shutdown
//
// ListenAndServe returns after ctx is canceled and in-flight requests have
// finished or the configured shutdown timeout has passed.
package server
