package observability

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog for structured logging.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new structured logger.
func NewLogger(service, version string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("host", getHostname()).
		Logger()

	return &Logger{
		logger: logger,
	}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// SetLevel sets the minimum level from its name ("debug", "info", ...).
func (l *Logger) SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.logger = l.logger.Level(lvl)
	return nil
}

// WithSubscriber adds subscriber_id context to logger.
func (l *Logger) WithSubscriber(subscriberID string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("subscriber_id", subscriberID).Logger(),
	}
}

// WithRoute adds route context to logger.
func (l *Logger) WithRoute(route string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("route", route).Logger(),
	}
}

// WithTransaction adds Beckn transaction and message ids to logger.
func (l *Logger) WithTransaction(transactionID, messageID string) *Logger {
	return &Logger{
		logger: l.logger.With().
			Str("transaction_id", transactionID).
			Str("message_id", messageID).
			Logger(),
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(err error, msg string) {
	l.logger.Fatal().Err(err).Msg(msg)
}

// ServerStarted logs the listen address.
func (l *Logger) ServerStarted(addr, subscriberID, gatewayURL string) {
	l.logger.Info().
		Str("addr", addr).
		Str("subscriber_id", subscriberID).
		Str("gateway_url", gatewayURL).
		Msg("BAP server listening")
}

// RequestSigned logs a signed outbound request. Only public values are logged.
func (l *Logger) RequestSigned(action, digest, authorization string) {
	l.logger.Debug().
		Str("action", action).
		Str("digest", digest).
		Str("authorization", authorization).
		Msg("request signed")
}

// SigningFailed logs a request that was not sent because it could not be signed.
func (l *Logger) SigningFailed(action string, err error) {
	l.logger.Error().
		Str("action", action).
		Err(err).
		Msg("failed to sign request")
}

// GatewayForwarded logs a gateway call that returned a response.
func (l *Logger) GatewayForwarded(action string, statusCode int, ack string, duration time.Duration) {
	l.logger.Info().
		Str("action", action).
		Int("status_code", statusCode).
		Str("ack", ack).
		Float64("duration_seconds", duration.Seconds()).
		Msg("request forwarded to gateway")
}

// GatewayFailed logs a gateway call that failed.
func (l *Logger) GatewayFailed(action string, err error, duration time.Duration) {
	l.logger.Error().
		Str("action", action).
		Err(err).
		Float64("duration_seconds", duration.Seconds()).
		Msg("failed to forward request to gateway")
}

// CallbackReceived logs an on_ callback and its JSON body.
func (l *Logger) CallbackReceived(route string, body []byte) {
	ev := l.logger.Info().Str("route", route).Int("body_size", len(body))
	if len(body) > 0 {
		ev = ev.RawJSON("body", body)
	}
	ev.Msg("callback received")
}

// HTTPRequest logs a completed inbound HTTP request.
func (l *Logger) HTTPRequest(method, path string, status int, size int, duration time.Duration, remoteAddr string) {
	l.logger.Info().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Int("size", size).
		Float64("duration_ms", float64(duration.Microseconds())/1000).
		Str("remote_addr", remoteAddr).
		Msg("http request")
}

// RateLimited logs a rejected request.
func (l *Logger) RateLimited(remoteAddr, path string) {
	l.logger.Warn().
		Str("remote_addr", remoteAddr).
		Str("path", path).
		Msg("rate limit exceeded")
}

// Helper function to get hostname.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
