package goleviton

import (
	"context"
	"fmt"
	"net/http"
)

// Breaker and hub control commands. Each one is a fire-and-forget write: the
// API acknowledges the request, and the resulting state change arrives later
// as a push notification on the websocket channel.

// TripBreaker remote-trips a smart breaker. The breaker must be reset at the
// panel before it can carry load again.
func (c *Client) TripBreaker(ctx context.Context, breakerID string) error {
	return c.breakerCommand(ctx, breakerID, map[string]any{"remoteTrip": true})
}

// TurnOnBreaker closes a gen2 smart breaker remotely.
func (c *Client) TurnOnBreaker(ctx context.Context, breakerID string) error {
	return c.breakerCommand(ctx, breakerID, map[string]any{"remoteOn": true})
}

// TurnOffBreaker opens a gen2 smart breaker remotely. On gen1 hardware this
// is the same operation as TripBreaker.
func (c *Client) TurnOffBreaker(ctx context.Context, breakerID string) error {
	return c.breakerCommand(ctx, breakerID, map[string]any{"remoteTrip": true})
}

// BlinkLED makes a smart breaker blink its status LED for identification.
func (c *Client) BlinkLED(ctx context.Context, breakerID string) error {
	return c.breakerCommand(ctx, breakerID, map[string]any{"blinkLED": true})
}

// StopBlinkLED stops a running LED blink.
func (c *Client) StopBlinkLED(ctx context.Context, breakerID string) error {
	return c.breakerCommand(ctx, breakerID, map[string]any{"blinkLED": false})
}

func (c *Client) breakerCommand(ctx context.Context, breakerID string, body map[string]any) error {
	if err := c.ensureAuthenticated(); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:        http.MethodPatch,
		path:          fmt.Sprintf(breakerPath, breakerID),
		body:          body,
		discardResult: true,
	}, nil)
}

// IdentifyWhem makes an LWHEM hub blink its LED for ten seconds.
func (c *Client) IdentifyWhem(ctx context.Context, whemID string) error {
	return c.whemCommand(ctx, whemID, map[string]any{"identify": 10})
}

// WHEM reporting bandwidth levels.
const (
	WhemBandwidthSlow   = 0
	WhemBandwidthFast   = 1
	WhemBandwidthMedium = 2
)

// SetWhemBandwidth sets the reporting bandwidth on an LWHEM hub. Faster
// bandwidth raises the push notification rate for live power readings.
func (c *Client) SetWhemBandwidth(ctx context.Context, whemID string, bandwidth int) error {
	return c.whemCommand(ctx, whemID, map[string]any{"bandwidth": bandwidth})
}

// TriggerWhemOTA asks an LWHEM hub to apply a pending firmware update.
func (c *Client) TriggerWhemOTA(ctx context.Context, whemID string) error {
	return c.whemCommand(ctx, whemID, map[string]any{"apply_ota": 2})
}

func (c *Client) whemCommand(ctx context.Context, whemID string, body map[string]any) error {
	if err := c.ensureAuthenticated(); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:        http.MethodPut,
		path:          fmt.Sprintf(whemPath, whemID),
		body:          body,
		discardResult: true,
	}, nil)
}

// SetPanelBandwidth enables or disables real-time push data on a DAU panel.
// The panel API encodes the mode as 1 (on) or 0 (off).
func (c *Client) SetPanelBandwidth(ctx context.Context, panelID string, enabled bool) error {
	if err := c.ensureAuthenticated(); err != nil {
		return err
	}
	bw := 0
	if enabled {
		bw = 1
	}
	return c.do(ctx, request{
		method:        http.MethodPut,
		path:          fmt.Sprintf(panelPath, panelID),
		body:          map[string]any{"bandwidth": bw},
		discardResult: true,
	}, nil)
}
