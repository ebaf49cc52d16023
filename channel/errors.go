package channel

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailed is returned when the transport cannot be opened,
	// times out, or drops during the handshake.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrAuthRejected is returned when the server refuses the auth handshake.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrTokenExpired is the auth-rejection sub-kind signalling that the
	// session token is stale. It matches ErrAuthRejected under errors.Is;
	// the owning application should refresh the token and reconnect.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrAuthRejected)

	// ErrProtocol classifies a structurally invalid inbound frame. It is
	// never returned from public operations; malformed frames are logged
	// and dropped without affecting the connection.
	ErrProtocol = errors.New("protocol violation")

	// ErrAlreadyConnected is returned by Connect when a connection is
	// established or in progress.
	ErrAlreadyConnected = errors.New("already connected")
)

func connErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrConnectionFailed, op, err)
}
