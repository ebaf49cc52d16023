package goleviton

import "encoding/json"

// AuthToken is the session material issued by the login endpoint. The wire
// field names are reused verbatim by the socket auth handshake.
type AuthToken struct {
	Token   string          `json:"id"`
	TTL     int64           `json:"ttl"`
	Created string          `json:"created"`
	UserID  string          `json:"userId"`
	User    json.RawMessage `json:"user,omitempty"`
}

// Permission grants access to a residence or a residential account.
type Permission struct {
	ID                   int64  `json:"id"`
	Access               string `json:"access"`
	Status               string `json:"status"`
	PersonID             string `json:"personId"`
	ResidenceID          *int64 `json:"residenceId,omitempty"`
	ResidentialAccountID *int64 `json:"residentialAccountId,omitempty"`
}

// Timezone is the nested timezone object on a residence.
type Timezone struct {
	ID string `json:"id"`
}

// Residence is a physical site containing hubs and their children.
type Residence struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Status               string    `json:"status"`
	Timezone             *Timezone `json:"timezone,omitempty"`
	ResidentialAccountID *int64    `json:"residentialAccountId,omitempty"`
	EnergyCost           *float64  `json:"energyCost,omitempty"`
}

// TimezoneID returns the IANA timezone identifier, empty when unset.
func (r *Residence) TimezoneID() string {
	if r.Timezone == nil {
		return ""
	}
	return r.Timezone.ID
}
