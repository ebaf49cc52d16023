// Package channel implements the WebSocket session manager for the Leviton
// push API: connection lifecycle, socket auth handshake, subscription-set
// management, reconnection with backoff, and notification dispatch.
//
// A Channel is a state machine (see State) whose transitions are serialized
// by an internal mutex. Suspension points are limited to dial, frame reads,
// frame writes, and the backoff wait; everywhere else the machine executes
// synchronously with respect to its own state. Multiple Channel instances
// share nothing and operate independently.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	v1 "goleviton/wire/v1"
)

// TokenSource supplies the current session token at handshake time. The
// channel never caches token material, so refreshes made by the owning
// application are observed on the next handshake. The channel itself never
// refreshes tokens: an expired token surfaces as ErrTokenExpired and the
// application decides what to do.
type TokenSource interface {
	SessionToken() v1.Token
}

// NotificationFunc receives a decoded push notification.
type NotificationFunc func(n v1.Notification)

// DisconnectFunc is invoked after an unexpected connection drop.
type DisconnectFunc func()

// Channel owns one socket to the push endpoint.
//
// Explicit operations (Connect, Reconnect, Subscribe, Unsubscribe) surface
// their errors to the caller. Failures inside the autonomous reconnect loop
// or frame dispatch never propagate; they are observable through disconnect
// callbacks, logs, and metrics.
type Channel struct {
	log     *slog.Logger
	opts    Options
	tokens  TokenSource
	dialer  Dialer
	metrics *Metrics

	mu           sync.Mutex
	state        State
	conn         Conn
	connectionID string
	subs         *SubscriptionSet
	notifyCbs    registry[NotificationFunc]
	dropCbs      registry[DisconnectFunc]
	attempts     int
	gen          uint64

	// ctlMu guards the cancel funcs so Disconnect/Reset can interrupt an
	// in-flight dial or backoff wait without blocking on mu.
	ctlMu       sync.Mutex
	dialCancel  context.CancelFunc
	retryCancel context.CancelFunc
}

// New constructs a Channel bound to tokens. The channel starts Disconnected;
// call Connect to open it.
func New(tokens TokenSource, opts Options) *Channel {
	opts = opts.normalized()

	c := &Channel{
		log:    opts.Logger,
		opts:   opts,
		tokens: tokens,
		dialer: opts.Dialer,
		subs:   NewSubscriptionSet(),
	}
	if opts.Registerer != nil {
		c.metrics = NewMetrics(opts.Registerer)
	}
	return c
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConnectionID returns the server-assigned connection identifier, empty
// unless Connected.
func (c *Channel) ConnectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectionID
}

// Subscriptions returns a snapshot of the subscription set in its stable
// (insertion) order.
func (c *Channel) Subscriptions() []SubscriptionKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs.All()
}

// Connect opens the socket, authenticates with the current session token,
// and replays the subscription set. It returns ErrAlreadyConnected when a
// connection is established or in progress, a ConnectionFailed error on
// transport failure, or an AuthRejected error when the handshake is refused.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// Reconnect re-opens the socket using the existing (non-cleared)
// subscription set. Any current connection is closed first.
func (c *Channel) Reconnect(ctx context.Context) error {
	c.Disconnect()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// Disconnect closes the socket cleanly. Subscriptions and callback
// registrations are preserved, and the automatic reconnect loop does not
// fire: only unexpected drops trigger it. Safe to call from any state, and
// interrupts an in-flight dial or backoff wait promptly.
func (c *Channel) Disconnect() {
	c.cancelInFlight()

	c.mu.Lock()
	c.teardownLocked()
	c.setStateLocked(Disconnected)
	c.mu.Unlock()

	c.log.Debug("ws.disconnect")
}

// Reset fully tears the channel down: socket closed, subscription set and
// both callback registries cleared, attempt counter zeroed. The resting
// state is Disconnected.
func (c *Channel) Reset() {
	c.cancelInFlight()

	c.mu.Lock()
	c.setStateLocked(Closed)
	c.teardownLocked()
	c.subs.Clear()
	c.notifyCbs.clear()
	c.dropCbs.clear()
	c.attempts = 0
	c.setStateLocked(Disconnected)
	c.mu.Unlock()

	c.log.Debug("ws.reset")
}

// Subscribe records the (kind, id) subscription and, when Connected, sends a
// subscribe frame for newly added keys. Subscribing while Disconnected only
// mutates the set; the key is replayed on the next successful handshake.
// Re-subscribing an existing key is a no-op.
func (c *Channel) Subscribe(ctx context.Context, kind string, id v1.ModelID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := SubscriptionKey{Kind: kind, ID: id}
	if !c.subs.Add(key) {
		return nil
	}
	if c.state != Connected || c.conn == nil {
		return nil
	}

	if err := c.writeFrameLocked(ctx, subscribeFrame(v1.TypeSubscribe, key)); err != nil {
		// The key stays in the set: it reflects intent and will be
		// replayed after the next handshake.
		return connErr("subscribe", err)
	}
	c.log.Debug("ws.subscribe", "kind", kind, "model_id", id.String())
	return nil
}

// Unsubscribe removes the subscription and, when Connected, sends an
// unsubscribe frame for keys that were present. Removing an absent key is a
// no-op.
func (c *Channel) Unsubscribe(ctx context.Context, kind string, id v1.ModelID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := SubscriptionKey{Kind: kind, ID: id}
	if !c.subs.Remove(key) {
		return nil
	}
	if c.state != Connected || c.conn == nil {
		return nil
	}

	if err := c.writeFrameLocked(ctx, subscribeFrame(v1.TypeUnsubscribe, key)); err != nil {
		return connErr("unsubscribe", err)
	}
	c.log.Debug("ws.unsubscribe", "kind", kind, "model_id", id.String())
	return nil
}

// OnNotification registers a callback for inbound notifications and returns
// its deregistration handle.
func (c *Channel) OnNotification(fn NotificationFunc) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notifyCbs.add(fn)
}

// OnDisconnect registers a callback fired after an unexpected drop and
// returns its deregistration handle.
func (c *Channel) OnDisconnect(fn DisconnectFunc) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropCbs.add(fn)
}

// Off deregisters the callback for h. Unknown or already-removed handles are
// a no-op.
func (c *Channel) Off(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.notifyCbs.remove(h) {
		c.dropCbs.remove(h)
	}
}

// ---- state machine internals ----

func (c *Channel) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.log.Debug("ws.state", "from", c.state.String(), "to", s.String())
	c.state = s
}

// connectLocked drives Disconnected -> Connecting -> Authenticating ->
// Connected under c.mu. Every failure path resolves to Disconnected and
// increments the attempt counter.
func (c *Channel) connectLocked(ctx context.Context) error {
	switch c.state {
	case Connecting, Authenticating, Connected:
		return ErrAlreadyConnected
	}

	c.setStateLocked(Connecting)

	hctx, hcancel := context.WithTimeout(ctx, c.opts.HandshakeTimeout)
	c.armDial(hcancel)
	defer func() {
		c.disarmDial()
		hcancel()
	}()

	conn, err := c.dialer.Dial(hctx, c.opts.URL)
	if err != nil {
		c.attempts++
		c.setStateLocked(Disconnected)
		return connErr("dial", err)
	}

	c.setStateLocked(Authenticating)

	auth, err := json.Marshal(v1.AuthFrame{Token: c.tokens.SessionToken()})
	if err != nil {
		_ = conn.Close()
		c.attempts++
		c.setStateLocked(Disconnected)
		return connErr("auth encode", err)
	}
	if err := conn.Write(hctx, auth); err != nil {
		_ = conn.Close()
		c.attempts++
		c.setStateLocked(Disconnected)
		return connErr("auth write", err)
	}

	connID, err := c.awaitReady(hctx, conn)
	if err != nil {
		_ = conn.Close()
		c.attempts++
		c.setStateLocked(Disconnected)
		return err
	}

	c.conn = conn
	c.connectionID = connID
	c.attempts = 0
	c.setStateLocked(Connected)
	c.log.Info("ws.connect", "connection_id", connID)

	// Replay the subscription set in its stable order so the server's view
	// matches the application's intent exactly.
	for _, key := range c.subs.All() {
		if err := c.writeFrameLocked(ctx, subscribeFrame(v1.TypeSubscribe, key)); err != nil {
			_ = conn.Close()
			c.conn = nil
			c.connectionID = ""
			c.attempts++
			c.setStateLocked(Disconnected)
			return connErr("replay", err)
		}
	}

	c.gen++
	go c.readLoop(conn, c.gen)
	return nil
}

// awaitReady consumes handshake frames until the server reports ready.
// Frames that fail to decode are dropped; an error frame is an auth
// rejection; read failure or frame exhaustion is a transport failure.
func (c *Channel) awaitReady(ctx context.Context, conn Conn) (string, error) {
	for i := 0; i < maxHandshakeFrames; i++ {
		data, err := conn.Read(ctx)
		if err != nil {
			return "", connErr("handshake read", err)
		}

		var frame v1.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Warn("ws.handshake.frame.drop", "err", err)
			c.metrics.incFramesDropped()
			continue
		}

		switch frame.Type {
		case v1.TypeStatus:
			if frame.Status == v1.StatusReady {
				return frame.ConnectionID, nil
			}
		case v1.TypeError:
			return "", authRejection(frame.Error)
		}
	}
	return "", fmt.Errorf("%w: no ready status after %d frames", ErrConnectionFailed, maxHandshakeFrames)
}

// authRejection classifies a handshake error frame, distinguishing the
// token-expired sub-kind so the owning application can refresh and retry.
func authRejection(detail *v1.ErrorDetail) error {
	if detail == nil {
		return fmt.Errorf("%w: handshake refused", ErrAuthRejected)
	}
	if detail.Code == "TOKEN_EXPIRED" || strings.Contains(strings.ToLower(detail.Message), "expired") {
		return fmt.Errorf("%w: %s", ErrTokenExpired, detail.Message)
	}
	if detail.Message != "" {
		return fmt.Errorf("%w: %s", ErrAuthRejected, detail.Message)
	}
	return fmt.Errorf("%w: %s", ErrAuthRejected, detail.Code)
}

func subscribeFrame(typ string, key SubscriptionKey) v1.SubscribeFrame {
	return v1.SubscribeFrame{
		Type: typ,
		Subscription: v1.Subscription{
			ModelName: key.Kind,
			ModelID:   key.ID,
		},
	}
}

func (c *Channel) writeFrameLocked(ctx context.Context, frame any) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
	defer cancel()
	return c.conn.Write(wctx, b)
}

// teardownLocked closes the socket and invalidates the read loop so a
// pending read failure from the old connection is ignored.
func (c *Channel) teardownLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connectionID = ""
	c.gen++
}

// ---- read loop & autonomous reconnection ----

func (c *Channel) readLoop(conn Conn, gen uint64) {
	for {
		data, err := conn.Read(context.Background())
		if err != nil {
			c.onConnLost(gen, err)
			return
		}
		c.route(data)
	}
}

// onConnLost handles an unexpected drop: transition to Disconnected, fire
// disconnect callbacks, start the silent reconnect loop. Stale generations
// (explicit Disconnect/Reset/Reconnect already tore the socket down) are
// ignored.
func (c *Channel) onConnLost(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen || c.state != Connected {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.connectionID = ""
	c.setStateLocked(Disconnected)
	cbs := c.dropCbs.snapshot()
	// Arm the retry context before the callbacks run: a Disconnect issued
	// from inside one must find it and cancel the loop.
	ctx := c.armRetry()
	c.mu.Unlock()

	c.log.Info("ws.drop", "err", cause)

	for _, fn := range cbs {
		c.invokeDisconnect(fn)
	}

	go c.reconnectLoop(ctx, gen)
}

// reconnectLoop retries until Connected or interrupted by Disconnect/Reset.
// Errors never propagate to a caller; the backoff wait is interruptible. gen
// is the generation the loop was armed for: explicit teardown bumps the
// counter, so a loop that raced Disconnect stops instead of redialing.
func (c *Channel) reconnectLoop(ctx context.Context, gen uint64) {
	for {
		if ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		if c.state != Disconnected || c.gen != gen {
			c.mu.Unlock()
			return
		}
		attempts := c.attempts
		c.mu.Unlock()

		delay := c.opts.Backoff.DelayFor(attempts)
		c.log.Info("ws.reconnect.wait", "attempts", attempts, "delay", delay)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}

		c.metrics.incReconnects()

		c.mu.Lock()
		if c.state != Disconnected || c.gen != gen {
			c.mu.Unlock()
			return
		}
		err := c.connectLocked(ctx)
		c.mu.Unlock()

		if err == nil {
			c.log.Info("ws.reconnect.ok")
			return
		}
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("ws.reconnect.fail", "err", err)
	}
}

// ---- in-flight cancellation ----

func (c *Channel) armDial(cancel context.CancelFunc) {
	c.ctlMu.Lock()
	c.dialCancel = cancel
	c.ctlMu.Unlock()
}

func (c *Channel) disarmDial() {
	c.ctlMu.Lock()
	c.dialCancel = nil
	c.ctlMu.Unlock()
}

func (c *Channel) armRetry() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	c.ctlMu.Lock()
	if c.retryCancel != nil {
		c.retryCancel()
	}
	c.retryCancel = cancel
	c.ctlMu.Unlock()

	return ctx
}

// cancelInFlight interrupts an in-progress dial/handshake and backoff wait.
// It deliberately does not take c.mu so Disconnect never blocks behind a
// connect attempt.
func (c *Channel) cancelInFlight() {
	c.ctlMu.Lock()
	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}
	if c.retryCancel != nil {
		c.retryCancel()
		c.retryCancel = nil
	}
	c.ctlMu.Unlock()
}
