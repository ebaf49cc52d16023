package goleviton

import "encoding/json"

// Breaker is a ResidentialBreaker: an individual circuit breaker, child of a
// hub or panel. Placeholder slots and LSBMA CT accessories also appear as
// breakers; see the Is* helpers.
type Breaker struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Model         string  `json:"model"`
	BranchType    *string `json:"branchType,omitempty"`
	Position      int     `json:"position"`
	Poles         int     `json:"poles"`
	CurrentRating *int    `json:"currentRating,omitempty"`

	CurrentState       *string  `json:"currentState,omitempty"`
	CurrentState2      *string  `json:"currentState2,omitempty"`
	OperationalState   *string  `json:"operationalState,omitempty"`
	Power              *int     `json:"power,omitempty"`
	Power2             *int     `json:"power2,omitempty"`
	RMSCurrent         *int     `json:"rmsCurrent,omitempty"`
	RMSCurrent2        *int     `json:"rmsCurrent2,omitempty"`
	RMSVoltage         *int     `json:"rmsVoltage,omitempty"`
	RMSVoltage2        *int     `json:"rmsVoltage2,omitempty"`
	EnergyConsumption  *float64 `json:"energyConsumption,omitempty"`
	EnergyConsumption2 *float64 `json:"energyConsumption2,omitempty"`
	EnergyImport       *float64 `json:"energyImport,omitempty"`
	EnergyImport2      *float64 `json:"energyImport2,omitempty"`
	LineFrequency      *float64 `json:"lineFrequency,omitempty"`
	LineFrequency2     *float64 `json:"lineFrequency2,omitempty"`
	BLERSSI            *int     `json:"bleRSSI,omitempty"`

	Connected   bool    `json:"connected"`
	RemoteTrip  bool    `json:"remoteTrip"`
	RemoteState *string `json:"remoteState,omitempty"`
	RemoteOn    bool    `json:"remoteOn"`
	CanRemoteOn bool    `json:"canRemoteOn"`
	Locked      bool    `json:"locked"`
	BlinkLED    bool    `json:"blinkLED"`

	FirmwareVersionBLE    *string `json:"firmwareVersionBLE,omitempty"`
	FirmwareVersionMeter  *string `json:"firmwareVersionMeter,omitempty"`
	FirmwareVersionSiLabs *string `json:"firmwareVersionSiLabs,omitempty"`
	FirmwareVersionGFCI   *string `json:"firmwareVersionGFCI,omitempty"`
	FirmwareVersionAFCI   *string `json:"firmwareVersionAFCI,omitempty"`
	HWVersion             *string `json:"hwVersion,omitempty"`
	SerialNumber          *string `json:"serialNumber,omitempty"`

	LsbmaID                   *string `json:"lsbmaId,omitempty"`
	LsbmaID2                  *string `json:"lsbmaId2,omitempty"`
	LsbmaParentID             *string `json:"lsbmaParentId,omitempty"`
	IotWhemID                 *string `json:"iotWhemId,omitempty"`
	ResidentialBreakerPanelID *string `json:"residentialBreakerPanelId,omitempty"`
}

// IsSmart reports whether this is a real smart breaker (not a placeholder
// slot or an LSBMA accessory).
func (b *Breaker) IsSmart() bool {
	switch b.Model {
	case "NONE", "NONE-1", "NONE-2", "LSBMA":
		return false
	}
	return true
}

// IsPlaceholder reports whether this is a placeholder/dummy slot.
func (b *Breaker) IsPlaceholder() bool {
	switch b.Model {
	case "NONE", "NONE-1", "NONE-2":
		return true
	}
	return false
}

// IsLSBMA reports whether this is a physical LSBMA CT accessory.
func (b *Breaker) IsLSBMA() bool { return b.Model == "LSBMA" }

// HasLSBMA reports whether this placeholder slot has LSBMA CTs attached.
func (b *Breaker) HasLSBMA() bool {
	return b.IsPlaceholder() && b.LsbmaID != nil && *b.LsbmaID != ""
}

// IsGen2 reports whether this breaker supports remote on/off.
func (b *Breaker) IsGen2() bool { return b.CanRemoteOn }

// ApplyUpdate merges a partial notification payload into the model.
func (b *Breaker) ApplyUpdate(data json.RawMessage) error {
	return json.Unmarshal(data, b)
}
