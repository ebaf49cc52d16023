package channel

import (
	"math/rand/v2"
	"time"
)

// Backoff maps a reconnect-attempt count to a wait duration.
//
// The deterministic component is min(Max, Base*2^attempts): monotonically
// non-decreasing up to the ceiling, then constant. Jitter, when enabled, adds
// up to JitterFraction of the deterministic delay; the result never exceeds
// Max. With Rand left nil and JitterFraction zeroed the policy is fully
// deterministic, which is what the tests pin down.
type Backoff struct {
	// Base is the delay for attempt 0.
	Base time.Duration

	// Max is the delay ceiling.
	Max time.Duration

	// JitterFraction bounds additive jitter as a fraction of the
	// deterministic delay. 0 disables jitter.
	JitterFraction float64

	// Rand returns a value in [0, 1). Nil uses math/rand/v2.
	Rand func() float64
}

// DefaultBackoff returns the stock policy: 1s doubling to a 16s ceiling with
// up to 25% additive jitter.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:           backoffBase,
		Max:            backoffMax,
		JitterFraction: backoffJitterFraction,
	}
}

// DelayFor returns the wait before reconnect attempt number attempts.
// Negative inputs are treated as 0.
func (b Backoff) DelayFor(attempts int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = backoffBase
	}
	ceil := b.Max
	if ceil <= 0 {
		ceil = backoffMax
	}
	if base > ceil {
		base = ceil
	}

	d := base
	for i := 0; i < attempts; i++ {
		if d >= ceil {
			d = ceil
			break
		}
		d *= 2
	}
	if d > ceil {
		d = ceil
	}

	if b.JitterFraction > 0 {
		r := b.Rand
		if r == nil {
			r = rand.Float64
		}
		d += time.Duration(float64(d) * b.JitterFraction * r())
		if d > ceil {
			d = ceil
		}
	}

	return d
}
