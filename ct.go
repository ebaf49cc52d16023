package goleviton

import "encoding/json"

// CT is an IotCt: a sensing-only current-transformer clamp (LWHEM only).
// CT IDs are numeric on the wire, unlike hub and breaker IDs.
type CT struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Channel            int      `json:"channel"`
	IotWhemID          string   `json:"iotWhemId"`
	ActivePower        *int     `json:"activePower,omitempty"`
	ActivePower2       *int     `json:"activePower2,omitempty"`
	EnergyConsumption  *float64 `json:"energyConsumption,omitempty"`
	EnergyConsumption2 *float64 `json:"energyConsumption2,omitempty"`
	EnergyImport       *float64 `json:"energyImport,omitempty"`
	EnergyImport2      *float64 `json:"energyImport2,omitempty"`
	RMSCurrent         *int     `json:"rmsCurrent,omitempty"`
	RMSCurrent2        *int     `json:"rmsCurrent2,omitempty"`
	Connected          bool     `json:"connected"`
	UsageType          *string  `json:"usageType,omitempty"`
}

// ApplyUpdate merges a partial notification payload into the model.
func (c *CT) ApplyUpdate(data json.RawMessage) error {
	return json.Unmarshal(data, c)
}
