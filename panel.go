package goleviton

import (
	"encoding/json"
	"time"
)

// Panel is a ResidentialBreakerPanel: the DAU/LDATA hub.
type Panel struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Model           string  `json:"model"`
	Manufacturer    string  `json:"manufacturer"`
	BreakerCount    *int    `json:"breakerCount,omitempty"`
	PanelSize       *int    `json:"panelSize,omitempty"`
	Status          *string `json:"status,omitempty"`
	Commissioned    bool    `json:"commissioned"`
	ResidenceID     *int64  `json:"residenceId,omitempty"`
	Bandwidth       *int    `json:"bandwidth,omitempty"`
	RMSVoltage      *int    `json:"rmsVoltage,omitempty"`
	RMSVoltage2     *int    `json:"rmsVoltage2,omitempty"`
	WifiMode        *string `json:"wifiMode,omitempty"`
	WifiRSSI        *int    `json:"wifiRSSI,omitempty"`
	WifiSSID        *string `json:"wifiSSID,omitempty"`
	VersionBCM      *string `json:"versionBCM,omitempty"`
	VersionBCMRadio *string `json:"versionBCMRadio,omitempty"`
	VersionBSM      *string `json:"versionBSM,omitempty"`
	VersionBSMRadio *string `json:"versionBSMRadio,omitempty"`
	VersionNCM      *string `json:"versionNCM,omitempty"`
	PackageVer      *string `json:"packageVer,omitempty"`
	Online          *string `json:"online,omitempty"`
	Offline         *string `json:"offline,omitempty"`

	// Breakers is populated when the panel is fetched with its
	// residentialBreakers relation included.
	Breakers []Breaker `json:"residentialBreakers,omitempty"`
}

// IsOnline compares the online/offline ISO 8601 timestamps: the panel is
// online when the online mark is more recent than the offline mark.
func (p *Panel) IsOnline() bool {
	if p.Online == nil {
		return false
	}
	if p.Offline == nil {
		return true
	}
	on, err := time.Parse(time.RFC3339, *p.Online)
	if err != nil {
		return false
	}
	off, err := time.Parse(time.RFC3339, *p.Offline)
	if err != nil {
		return false
	}
	return on.After(off)
}

// ApplyUpdate merges a partial notification payload into the model.
func (p *Panel) ApplyUpdate(data json.RawMessage) error {
	return json.Unmarshal(data, p)
}
