package channel

import (
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"goleviton/internal/envcfg"
)

// DefaultSocketURL is the vendor push-socket endpoint.
const DefaultSocketURL = "wss://socket.cloud.leviton.com/"

// Options configures a Channel.
type Options struct {
	// URL is the push-socket endpoint.
	URL string

	// HandshakeTimeout bounds dial + auth + ready (Connecting through
	// Connected). Exceeding it is a transport failure.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each outbound frame write.
	WriteTimeout time.Duration

	// Backoff is the reconnect wait policy.
	Backoff Backoff

	// UserAgent is sent on the upgrade request.
	UserAgent string

	// Logger receives structured channel events. Nil gets a JSON logger on
	// stdout at info level.
	Logger *slog.Logger

	// Dialer opens the transport. Nil uses the production websocket dialer.
	// Tests substitute a scripted in-memory implementation.
	Dialer Dialer

	// Registerer, when non-nil, receives the channel metric collectors.
	Registerer prometheus.Registerer
}

// DefaultOptions returns Options with stock values, each overridable via
// LEVITON_WS_* environment variables.
func DefaultOptions() Options {
	return Options{
		URL:              envcfg.String("LEVITON_WS_URL", DefaultSocketURL),
		HandshakeTimeout: envcfg.Duration("LEVITON_WS_HANDSHAKE_TIMEOUT", defaultHandshakeTimeout),
		WriteTimeout:     envcfg.Duration("LEVITON_WS_WRITE_TIMEOUT", defaultWriteTimeout),
		Backoff: Backoff{
			Base:           envcfg.Duration("LEVITON_WS_BACKOFF_BASE", backoffBase),
			Max:            envcfg.Duration("LEVITON_WS_BACKOFF_MAX", backoffMax),
			JitterFraction: backoffJitterFraction,
		},
		UserAgent: envcfg.String("LEVITON_USER_AGENT", defaultUserAgent),
	}
}

const defaultUserAgent = "goleviton/1"

func (o Options) normalized() Options {
	if o.URL == "" {
		o.URL = DefaultSocketURL
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = defaultHandshakeTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	if o.Backoff.Base <= 0 && o.Backoff.Max <= 0 {
		o.Backoff = DefaultBackoff()
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	if o.Dialer == nil {
		o.Dialer = &wsDialer{userAgent: o.UserAgent}
	}
	return o
}
