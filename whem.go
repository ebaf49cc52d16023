package goleviton

import "encoding/json"

// Whem is an IotWhem: the LWHEM whole-home energy hub.
type Whem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Model        string  `json:"model"`
	Serial       string  `json:"serial"`
	Manufacturer string  `json:"manufacturer"`
	Version      *string `json:"version,omitempty"`
	VersionBLE   *string `json:"versionBLE,omitempty"`
	Connected    bool    `json:"connected"`
	LocalIP      *string `json:"localIP,omitempty"`
	MAC          *string `json:"mac,omitempty"`
	RSSI         *int    `json:"rssi,omitempty"`
	ResidenceID  *int64  `json:"residenceId,omitempty"`
	RMSVoltageA  *int    `json:"rmsVoltageA,omitempty"`
	RMSVoltageB  *int    `json:"rmsVoltageB,omitempty"`
	FrequencyA   *int    `json:"frequencyA,omitempty"`
	FrequencyB   *int    `json:"frequencyB,omitempty"`
	PanelSize    *int    `json:"panelSize,omitempty"`
	BreakerCount *int    `json:"breakerCount,omitempty"`
	Bandwidth    *int    `json:"bandwidth,omitempty"`
	Identify     *int    `json:"identify,omitempty"`
}

// ApplyUpdate merges a partial notification payload into the model. Fields
// absent from data are left unchanged.
func (w *Whem) ApplyUpdate(data json.RawMessage) error {
	return json.Unmarshal(data, w)
}
