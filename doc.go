// Package goleviton is a client for the My Leviton cloud platform.
//
// It covers the load-center product line: LWHEM whole-home energy monitor
// hubs, DAU smart breaker panels, smart breakers, and CT clamps. The package
// has two halves:
//
//   - Client: authenticated REST access for login, device discovery,
//     breaker and hub control, energy history, and firmware checks.
//   - channel.Channel: the push side, a managed WebSocket session that
//     delivers live model updates and reconnects on its own.
//
// A Client satisfies channel.TokenSource, so the usual wiring is to log in
// once and hand the client to the channel:
//
//	c := goleviton.NewClient(goleviton.DefaultConfig())
//	if _, err := c.Login(ctx, email, password, ""); err != nil {
//		return err
//	}
//	ch := channel.New(c, channel.DefaultOptions())
//	ch.OnNotification(func(n v1.Notification) { ... })
//	if err := ch.Connect(ctx); err != nil {
//		return err
//	}
//
// Local network access to the devices is out of scope; everything goes
// through the vendor cloud.
package goleviton
