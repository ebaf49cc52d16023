package goleviton

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// EnergyPoint is one sample in an energy history series. X is the bucket
// label (hour of day, day of month, or month index depending on the query
// granularity); the API emits it as either a number or a string.
type EnergyPoint struct {
	X                 FlexString `json:"x"`
	Timestamp         string     `json:"timestamp,omitempty"`
	EnergyConsumption float64    `json:"energyConsumption"`
	EnergyImport      float64    `json:"energyImport"`
	Total             float64    `json:"total"`
	TotalCost         float64    `json:"totalCost"`
}

// EnergySeries is the history for one device: a breaker position or CT clamp
// under a hub, keyed by the device's channel label.
type EnergySeries map[string][]EnergyPoint

// EnergyReport is the result of an energy history query. The API returns a
// single object mixing a "totals" series with one series object per hub,
// keyed by hub ID.
type EnergyReport struct {
	// Totals is the residence-wide series.
	Totals []EnergyPoint
	// Hubs maps hub ID to the per-device breakdown for that hub.
	Hubs map[string]EnergySeries
}

// UnmarshalJSON splits the flat vendor object into totals and per-hub
// series.
func (r *EnergyReport) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Totals = nil
	r.Hubs = make(map[string]EnergySeries, len(raw))
	for key, val := range raw {
		if key == "totals" {
			if err := json.Unmarshal(val, &r.Totals); err != nil {
				return err
			}
			continue
		}
		var series EnergySeries
		if err := json.Unmarshal(val, &series); err != nil {
			return err
		}
		r.Hubs[key] = series
	}
	return nil
}

// FlexString decodes a JSON value that may arrive as a string or a number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// EnergyForDay returns hourly energy consumption for every device in a
// residence on one day. startDay is a YYYY-MM-DD date and timezone an IANA
// zone name, both interpreted server-side.
func (c *Client) EnergyForDay(ctx context.Context, residenceID int64, startDay, timezone string) (EnergyReport, error) {
	return c.energyQuery(ctx, energyDayPath, residenceID, url.Values{
		"startDay": {startDay},
		"timezone": {timezone},
	})
}

// EnergyForWeek returns daily energy consumption for the week starting at
// startDay (YYYY-MM-DD).
func (c *Client) EnergyForWeek(ctx context.Context, residenceID int64, startDay, timezone string) (EnergyReport, error) {
	return c.energyQuery(ctx, energyWeekPath, residenceID, url.Values{
		"startDay": {startDay},
		"timezone": {timezone},
	})
}

// EnergyForMonth returns daily energy consumption for the billing month
// ending at billingDayInMonth (YYYY-MM-DD).
func (c *Client) EnergyForMonth(ctx context.Context, residenceID int64, billingDayInMonth, timezone string) (EnergyReport, error) {
	return c.energyQuery(ctx, energyMonthPath, residenceID, url.Values{
		"billingDayInMonth": {billingDayInMonth},
		"timezone":          {timezone},
	})
}

// EnergyForYear returns monthly energy consumption for the year ending at
// billingDayInEndMonth (YYYY-MM-DD). Pass the current date for year-to-date
// or December 31 for a full calendar year.
func (c *Client) EnergyForYear(ctx context.Context, residenceID int64, billingDayInEndMonth, timezone string) (EnergyReport, error) {
	return c.energyQuery(ctx, energyYearPath, residenceID, url.Values{
		"billingDayInEndMonth": {billingDayInEndMonth},
		"timezone":             {timezone},
	})
}

func (c *Client) energyQuery(ctx context.Context, path string, residenceID int64, query url.Values) (EnergyReport, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return EnergyReport{}, err
	}
	query.Set("id", strconv.FormatInt(residenceID, 10))

	var out EnergyReport
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   path,
		query:  query,
	}, &out)
	return out, err
}
