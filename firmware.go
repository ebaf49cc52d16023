package goleviton

import (
	"context"
	"net/http"
	"net/url"
)

// Firmware describes one available firmware image for a device.
type Firmware struct {
	ID        string `json:"id,omitempty"`
	Version   string `json:"version"`
	FileURL   string `json:"fileUrl,omitempty"`
	Signature string `json:"signature,omitempty"`
	Hash      string `json:"hash,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Release   string `json:"release,omitempty"`
}

// CheckFirmware checks for firmware updates available to a device. appID is
// the application family (for example "LWHEM"), model the device model code,
// serial the device serial number, and modelType the vendor model name (for
// example "IotWhem"). An empty slice means the device is up to date.
func (c *Client) CheckFirmware(ctx context.Context, appID, model, serial, modelType string) ([]Firmware, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	var out []Firmware
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   firmwareCheckPath,
		query: url.Values{
			"appId":     {appID},
			"model":     {model},
			"serial":    {serial},
			"modelType": {modelType},
			"data":      {`{"condensed":false}`},
		},
	}, &out)
	return out, err
}
