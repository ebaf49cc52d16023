package channel

import "time"

const (
	// Max bytes per socket frame read (hard limit).
	maxFrameBytes = 64 << 10 // 64 KiB

	// Max frames consumed while waiting for the post-auth ready status.
	maxHandshakeFrames = 10
)

const (
	// Handshake and write defaults (overridable via env in DefaultOptions).
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 5 * time.Second

	// Backoff defaults.
	backoffBase           = 1 * time.Second
	backoffMax            = 16 * time.Second
	backoffJitterFraction = 0.25
)
