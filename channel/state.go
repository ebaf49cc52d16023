package channel

// State is the channel connection state. Exactly one value holds at any
// instant; transitions are serialized by the channel mutex.
type State uint8

const (
	// Disconnected is the resting state: no socket, subscriptions retained.
	Disconnected State = iota
	// Connecting means the transport-level socket is being opened.
	Connecting
	// Authenticating means the socket is open and the auth handshake is
	// in flight.
	Authenticating
	// Connected means the handshake completed and subscription traffic is
	// accepted.
	Connected
	// Closed is the transient teardown state during Reset.
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Authenticating:
		return "authenticating"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
