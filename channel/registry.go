package channel

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Handle is the opaque token returned on callback registration. Deregistering
// an unknown or already-removed handle is a no-op.
type Handle string

// newHandle returns a ULID handle. ULIDs are sortable, which makes
// registration order visible in logs.
func newHandle() Handle {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	if err != nil {
		// rand failure is effectively unreachable; an empty handle still
		// deregisters as a no-op.
		return ""
	}
	return Handle(id.String())
}

type registryEntry[T any] struct {
	handle Handle
	fn     T
}

// registry is a handle-indexed callback list preserving registration order.
// Not safe for concurrent use; the channel mutex serializes access.
type registry[T any] struct {
	entries []registryEntry[T]
}

func (r *registry[T]) add(fn T) Handle {
	h := newHandle()
	r.entries = append(r.entries, registryEntry[T]{handle: h, fn: fn})
	return h
}

// remove deletes the entry for h and reports whether it existed.
func (r *registry[T]) remove(h Handle) bool {
	if h == "" {
		return false
	}
	for i, e := range r.entries {
		if e.handle == h {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot returns the callbacks in registration order. The copy keeps
// dispatch safe against registrations made from inside a callback.
func (r *registry[T]) snapshot() []T {
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.fn
	}
	return out
}

func (r *registry[T]) clear() {
	r.entries = nil
}

func (r *registry[T]) len() int { return len(r.entries) }
