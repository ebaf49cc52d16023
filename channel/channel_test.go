package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v1 "goleviton/wire/v1"
)

// ---- scripted transport ----

type fakeConn struct {
	inbox  chan []byte
	closed chan struct{}

	mu     sync.Mutex
	once   sync.Once
	writes [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbox:  make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case b := <-c.inbox:
		return b, nil
	case <-c.closed:
		return nil, errors.New("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Write(ctx context.Context, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("write on closed connection")
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	c.mu.Lock()
	c.writes = append(c.writes, append([]byte(nil), data...))
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// serve queues a server-to-client frame.
func (c *fakeConn) serve(frame string) {
	c.inbox <- []byte(frame)
}

func (c *fakeConn) sentFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn

	// dialTimes records when each Dial call arrived, refused ones included.
	dialTimes []time.Time

	// failures is the number of dials to refuse before succeeding.
	failures int

	// onDial prepares each new conn before the handshake reads it,
	// typically by queueing the ready frame.
	onDial func(n int, c *fakeConn)
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialTimes = append(d.dialTimes, time.Now())
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("dial refused")
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	if d.onDial != nil {
		d.onDial(len(d.conns), c)
	}
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

func (d *fakeDialer) times() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]time.Time, len(d.dialTimes))
	copy(out, d.dialTimes)
	return out
}

func readyOnDial(n int, c *fakeConn) {
	c.serve(fmt.Sprintf(`{"type":"status","status":"ready","connectionId":"conn-%d"}`, n))
}

type staticTokens struct{ tok v1.Token }

func (s staticTokens) SessionToken() v1.Token { return s.tok }

func newTestChannel(d Dialer) *Channel {
	return New(staticTokens{tok: v1.Token{ID: "tok-1", TTL: 5184000, UserID: "user-1"}}, Options{
		URL:              "wss://example.invalid/",
		HandshakeTimeout: time.Second,
		WriteTimeout:     time.Second,
		Backoff:          Backoff{Base: time.Millisecond, Max: 4 * time.Millisecond},
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dialer:           d,
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type sentFrame struct {
	Type         string          `json:"type"`
	Subscription v1.Subscription `json:"subscription"`
	Token        *v1.Token       `json:"token"`
}

func decodeFrames(t *testing.T, raw [][]byte) []sentFrame {
	t.Helper()
	out := make([]sentFrame, len(raw))
	for i, b := range raw {
		if err := json.Unmarshal(b, &out[i]); err != nil {
			t.Fatalf("decode sent frame %d %s: %v", i, b, err)
		}
	}
	return out
}

// ---- tests ----

func TestChannel_ConnectHandshake(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	if ch.State() != Disconnected {
		t.Fatalf("initial state=%v want Disconnected", ch.State())
	}
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if ch.State() != Connected {
		t.Fatalf("state=%v want Connected", ch.State())
	}
	if got := ch.ConnectionID(); got != "conn-1" {
		t.Fatalf("ConnectionID=%q want conn-1", got)
	}

	frames := decodeFrames(t, d.conn(0).sentFrames())
	if len(frames) != 1 {
		t.Fatalf("sent %d frames, want auth only", len(frames))
	}
	if frames[0].Token == nil || frames[0].Token.ID != "tok-1" {
		t.Fatalf("auth frame=%+v want token id tok-1", frames[0])
	}
	if frames[0].Type != "" {
		t.Fatalf("auth frame must not carry a type field, got %q", frames[0].Type)
	}
}

func TestChannel_ConnectWhileConnected(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := ch.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("second Connect err=%v want ErrAlreadyConnected", err)
	}
	if d.dialCount() != 1 {
		t.Fatalf("dials=%d want 1", d.dialCount())
	}
}

func TestChannel_AuthRejected(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		frame   string
		wantErr error
	}{
		{
			name:    "expired token",
			frame:   `{"type":"error","error":{"code":"TOKEN_EXPIRED","message":"token expired"}}`,
			wantErr: ErrTokenExpired,
		},
		{
			name:    "generic rejection",
			frame:   `{"type":"error","error":{"code":"AUTH_FAILED","message":"bad token"}}`,
			wantErr: ErrAuthRejected,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := &fakeDialer{}
			d.onDial = func(n int, c *fakeConn) { c.serve(tc.frame) }
			ch := newTestChannel(d)

			err := ch.Connect(context.Background())
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Connect err=%v want %v", err, tc.wantErr)
			}
			// Every rejection is an auth rejection; expiry is a sub-kind.
			if !errors.Is(err, ErrAuthRejected) {
				t.Fatalf("Connect err=%v should match ErrAuthRejected", err)
			}
			if ch.State() != Disconnected {
				t.Fatalf("state=%v want Disconnected", ch.State())
			}
		})
	}
}

func TestChannel_DialFailure(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{failures: 1}
	ch := newTestChannel(d)

	err := ch.Connect(context.Background())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect err=%v want ErrConnectionFailed", err)
	}
	if ch.State() != Disconnected {
		t.Fatalf("state=%v want Disconnected", ch.State())
	}
}

func TestChannel_SubscribeSendsOneFrame(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	ctx := context.Background()
	if err := ch.Subscribe(ctx, v1.KindHub, "hub-1"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	// Duplicate subscribe is a no-op on the wire.
	if err := ch.Subscribe(ctx, v1.KindHub, "hub-1"); err != nil {
		t.Fatalf("duplicate Subscribe: %v", err)
	}

	frames := decodeFrames(t, d.conn(0).sentFrames())
	var subs []sentFrame
	for _, f := range frames {
		if f.Type == v1.TypeSubscribe {
			subs = append(subs, f)
		}
	}
	if len(subs) != 1 {
		t.Fatalf("subscribe frames=%d want 1", len(subs))
	}
	if subs[0].Subscription.ModelName != v1.KindHub || subs[0].Subscription.ModelID != "hub-1" {
		t.Fatalf("subscribe frame=%+v", subs[0].Subscription)
	}
	if got := ch.Subscriptions(); len(got) != 1 {
		t.Fatalf("Subscriptions=%v want one key", got)
	}
}

func TestChannel_UnsubscribeAbsentKeyIsNoop(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := ch.Unsubscribe(context.Background(), v1.KindBreaker, "nope"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	for _, f := range decodeFrames(t, d.conn(0).sentFrames()) {
		if f.Type == v1.TypeUnsubscribe {
			t.Fatalf("unexpected unsubscribe frame: %+v", f)
		}
	}
}

func TestChannel_SubscribeWhileDisconnectedReplaysOnConnect(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	ctx := context.Background()
	keys := []SubscriptionKey{
		{Kind: v1.KindHub, ID: "h1"},
		{Kind: v1.KindBreaker, ID: "b1"},
		{Kind: v1.KindCT, ID: "42"},
	}
	for _, k := range keys {
		if err := ch.Subscribe(ctx, k.Kind, k.ID); err != nil {
			t.Fatalf("Subscribe(%v): %v", k, err)
		}
	}
	if d.dialCount() != 0 {
		t.Fatalf("subscribing while disconnected must not dial")
	}

	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	frames := decodeFrames(t, d.conn(0).sentFrames())
	var got []SubscriptionKey
	for _, f := range frames {
		if f.Type == v1.TypeSubscribe {
			got = append(got, SubscriptionKey{Kind: f.Subscription.ModelName, ID: f.Subscription.ModelID})
		}
	}
	if len(got) != len(keys) {
		t.Fatalf("replayed %d subscriptions, want %d", len(got), len(keys))
	}
	for i := range keys {
		if got[i] != keys[i] {
			t.Fatalf("replay[%d]=%v want %v (insertion order)", i, got[i], keys[i])
		}
	}
}

func TestChannel_NotificationDispatchOrder(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	var mu sync.Mutex
	var calls []string
	done := make(chan struct{})

	ch.OnNotification(func(n v1.Notification) {
		mu.Lock()
		calls = append(calls, "first:"+n.ModelID.String())
		mu.Unlock()
	})
	ch.OnNotification(func(n v1.Notification) {
		mu.Lock()
		calls = append(calls, "second:"+n.ModelID.String())
		mu.Unlock()
		close(done)
	})

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	d.conn(0).serve(`{"type":"notification","notification":{"modelName":"ResidentialBreaker","modelId":"b7","data":{"currentRating":20}}}`)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("notification never dispatched")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || calls[0] != "first:b7" || calls[1] != "second:b7" {
		t.Fatalf("calls=%v want registration order", calls)
	}
}

func TestChannel_CallbackPanicIsolated(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	done := make(chan struct{})
	ch.OnNotification(func(n v1.Notification) { panic("boom") })
	ch.OnNotification(func(n v1.Notification) { close(done) })

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	d.conn(0).serve(`{"type":"notification","notification":{"modelName":"IotWhem","modelId":"h1","data":{}}}`)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("second callback never ran after first panicked")
	}
	if ch.State() != Connected {
		t.Fatalf("state=%v want Connected after callback panic", ch.State())
	}
}

func TestChannel_MalformedFrameIgnored(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	done := make(chan struct{})
	ch.OnNotification(func(n v1.Notification) { close(done) })

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	d.conn(0).serve(`{not json`)
	d.conn(0).serve(`{"type":"bogus"}`)
	d.conn(0).serve(`{"type":"notification","notification":{"modelName":"IotCt","modelId":42,"data":{}}}`)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("valid notification lost behind malformed frames")
	}
	if ch.State() != Connected {
		t.Fatalf("state=%v want Connected", ch.State())
	}
}

func TestChannel_UnexpectedDropReconnectsAndReplays(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	var drops atomic.Int32
	ch.OnDisconnect(func() { drops.Add(1) })

	ctx := context.Background()
	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := ch.Subscribe(ctx, v1.KindPanel, "p1"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Server-side close: unexpected drop.
	_ = d.conn(0).Close()

	waitFor(t, "reconnect", func() bool {
		return d.dialCount() == 2 && ch.State() == Connected
	})
	if got := drops.Load(); got != 1 {
		t.Fatalf("disconnect callbacks=%d want 1", got)
	}
	if got := ch.ConnectionID(); got != "conn-2" {
		t.Fatalf("ConnectionID=%q want conn-2", got)
	}

	frames := decodeFrames(t, d.conn(1).sentFrames())
	var replayed []SubscriptionKey
	for _, f := range frames {
		if f.Type == v1.TypeSubscribe {
			replayed = append(replayed, SubscriptionKey{Kind: f.Subscription.ModelName, ID: f.Subscription.ModelID})
		}
	}
	if len(replayed) != 1 || replayed[0] != (SubscriptionKey{Kind: v1.KindPanel, ID: "p1"}) {
		t.Fatalf("replayed=%v want the panel subscription", replayed)
	}
}

func TestChannel_ReconnectRetriesThroughDialFailures(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	d.mu.Lock()
	d.failures = 2
	d.mu.Unlock()
	_ = d.conn(0).Close()

	waitFor(t, "reconnect after failed dials", func() bool {
		return ch.State() == Connected && ch.ConnectionID() == "conn-2"
	})
}

func TestChannel_DisconnectInsideDropCallbackStopsReconnect(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)

	// The drop callback gives up instead of letting the channel retry.
	ch.OnDisconnect(func() { ch.Disconnect() })

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	_ = d.conn(0).Close()

	waitFor(t, "disconnect", func() bool { return ch.State() == Disconnected })

	// With a millisecond backoff base a surviving reconnect loop would
	// redial well within this window.
	time.Sleep(300 * time.Millisecond)
	if got := d.dialCount(); got != 1 {
		t.Fatalf("dials=%d after Disconnect from the drop callback, want 1", got)
	}
	if ch.State() != Disconnected {
		t.Fatalf("state=%v want Disconnected", ch.State())
	}
}

func TestChannel_ReconnectDelaysFollowAttemptSchedule(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	policy := Backoff{Base: 60 * time.Millisecond, Max: time.Second}
	ch := New(staticTokens{tok: v1.Token{ID: "tok-1"}}, Options{
		URL:              "wss://example.invalid/",
		HandshakeTimeout: time.Second,
		WriteTimeout:     time.Second,
		Backoff:          policy,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dialer:           d,
	})
	defer ch.Disconnect()

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	d.mu.Lock()
	d.failures = 2
	d.mu.Unlock()

	dropAt := time.Now()
	_ = d.conn(0).Close()

	waitFor(t, "reconnect", func() bool {
		return ch.State() == Connected && ch.ConnectionID() == "conn-2"
	})

	times := d.times()
	if len(times) != 4 {
		t.Fatalf("dials=%d want 4 (connect, two refused, success)", len(times))
	}

	// The loop feeds attempts 0, 1, 2 into the policy across the failed
	// cycles: each redial waits at least DelayFor(n) and lands before the
	// next step of the schedule.
	delays := []time.Duration{
		times[1].Sub(dropAt),
		times[2].Sub(times[1]),
		times[3].Sub(times[2]),
	}
	for n, got := range delays {
		if want := policy.DelayFor(n); got < want {
			t.Fatalf("redial %d after %v, want at least DelayFor(%d)=%v", n, got, n, want)
		}
		if next := policy.DelayFor(n + 1); got >= next {
			t.Fatalf("redial %d after %v, want under DelayFor(%d)=%v", n, got, n+1, next)
		}
	}
	if delays[0] > delays[1] || delays[1] > delays[2] {
		t.Fatalf("delays %v must be non-decreasing", delays)
	}
}

func TestChannel_ExplicitDisconnectDoesNotReconnect(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)

	var drops atomic.Int32
	ch.OnDisconnect(func() { drops.Add(1) })

	ctx := context.Background()
	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := ch.Subscribe(ctx, v1.KindHub, "h1"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ch.Disconnect()

	if ch.State() != Disconnected {
		t.Fatalf("state=%v want Disconnected", ch.State())
	}
	// Give a would-be reconnect loop time to misbehave.
	time.Sleep(20 * time.Millisecond)
	if d.dialCount() != 1 {
		t.Fatalf("dials=%d after explicit Disconnect, want 1", d.dialCount())
	}
	if got := drops.Load(); got != 0 {
		t.Fatalf("disconnect callbacks=%d for clean disconnect, want 0", got)
	}

	// The set survives the disconnect and replays on the next connect.
	if got := ch.Subscriptions(); len(got) != 1 {
		t.Fatalf("Subscriptions=%v should survive Disconnect", got)
	}
	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("re-Connect: %v", err)
	}
	defer ch.Disconnect()

	frames := decodeFrames(t, d.conn(1).sentFrames())
	found := false
	for _, f := range frames {
		if f.Type == v1.TypeSubscribe && f.Subscription.ModelID == "h1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("subscription not replayed after manual reconnect: %v", frames)
	}
}

func TestChannel_Reset(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)

	notified := make(chan struct{}, 1)
	ch.OnNotification(func(n v1.Notification) { notified <- struct{}{} })

	ctx := context.Background()
	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := ch.Subscribe(ctx, v1.KindHub, "h1"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ch.Reset()

	if ch.State() != Disconnected {
		t.Fatalf("state=%v want Disconnected after Reset", ch.State())
	}
	if got := ch.Subscriptions(); len(got) != 0 {
		t.Fatalf("Subscriptions=%v want empty after Reset", got)
	}

	// Callbacks were cleared: a new session delivers nothing to them.
	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("re-Connect: %v", err)
	}
	defer ch.Disconnect()
	d.conn(1).serve(`{"type":"notification","notification":{"modelName":"IotWhem","modelId":"h1","data":{}}}`)

	select {
	case <-notified:
		t.Fatalf("cleared callback still received a notification")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannel_OffDeregisters(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{onDial: readyOnDial}
	ch := newTestChannel(d)
	defer ch.Disconnect()

	var first atomic.Int32
	done := make(chan struct{})
	h := ch.OnNotification(func(n v1.Notification) { first.Add(1) })
	ch.OnNotification(func(n v1.Notification) { close(done) })

	ch.Off(h)
	ch.Off(h) // double deregistration is a no-op
	ch.Off("bogus")

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	d.conn(0).serve(`{"type":"notification","notification":{"modelName":"IotWhem","modelId":"h1","data":{}}}`)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("remaining callback never ran")
	}
	if got := first.Load(); got != 0 {
		t.Fatalf("deregistered callback ran %d times", got)
	}
}
