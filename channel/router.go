package channel

import (
	"encoding/json"
	"fmt"

	v1 "goleviton/wire/v1"
)

// route decodes one inbound frame and dispatches it. Malformed frames are
// logged and dropped; nothing that happens here tears the connection down.
func (c *Channel) route(data []byte) {
	var frame v1.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.log.Warn("ws.frame.drop", "err", fmt.Errorf("%w: bad json: %v", ErrProtocol, err))
		c.metrics.incFramesDropped()
		return
	}

	if err := frame.Validate(); err != nil {
		c.log.Warn("ws.frame.drop", "err", fmt.Errorf("%w: %v", ErrProtocol, err))
		c.metrics.incFramesDropped()
		return
	}

	switch frame.Type {
	case v1.TypeNotification:
		c.dispatch(*frame.Notification)
	case v1.TypeStatus:
		c.log.Debug("ws.status", "status", frame.Status, "connection_id", frame.ConnectionID)
	case v1.TypeError:
		if frame.Error != nil {
			c.log.Warn("ws.server.error", "code", frame.Error.Code, "msg", frame.Error.Message)
		} else {
			c.log.Warn("ws.server.error")
		}
	}
}

// dispatch invokes every registered notification callback in registration
// order. A panicking callback is isolated: it is logged and counted, later
// callbacks still run, and connection state is untouched.
func (c *Channel) dispatch(n v1.Notification) {
	c.mu.Lock()
	cbs := c.notifyCbs.snapshot()
	c.mu.Unlock()

	c.metrics.incNotifications()

	for _, fn := range cbs {
		c.invokeNotification(fn, n)
	}
}

func (c *Channel) invokeNotification(fn NotificationFunc, n v1.Notification) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("ws.callback.panic", "kind", n.ModelName, "model_id", n.ModelID.String(), "panic", r)
			c.metrics.incCallbackFailures()
		}
	}()
	fn(n)
}

func (c *Channel) invokeDisconnect(fn DisconnectFunc) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("ws.disconnect.callback.panic", "panic", r)
			c.metrics.incCallbackFailures()
		}
	}()
	fn()
}
