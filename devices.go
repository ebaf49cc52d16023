package goleviton

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Permissions returns the residential permissions of the authenticated user.
// Permissions are the discovery root: each one points at a residential
// account or directly at a residence.
func (c *Client) Permissions(ctx context.Context) ([]Permission, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	var out []Permission
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf(permissionsPath, c.UserID()),
		filter: map[string]any{},
	}, &out)
	return out, err
}

// Residences returns all residences under a residential account.
func (c *Client) Residences(ctx context.Context, accountID int64) ([]Residence, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	var out []Residence
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf(accountResidencesPath, accountID),
		filter: map[string]any{},
	}, &out)
	return out, err
}

// ResidenceFromPermission resolves a residence-level permission (one with a
// residenceId but no residentialAccountId) to its residence.
func (c *Client) ResidenceFromPermission(ctx context.Context, permissionID int64) (Residence, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return Residence{}, err
	}

	var out Residence
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf(permissionResidencePath, permissionID),
		query:  url.Values{"refresh": {"true"}},
	}, &out)
	return out, err
}

// Whems returns all LWHEM hubs in a residence.
func (c *Client) Whems(ctx context.Context, residenceID int64) ([]Whem, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	var out []Whem
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf(residenceWhemsPath, residenceID),
		filter: map[string]any{},
	}, &out)
	return out, err
}

// Panels returns all DAU/LDATA panels in a residence, with their breakers
// included.
func (c *Client) Panels(ctx context.Context, residenceID int64) ([]Panel, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	var out []Panel
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf(residencePanelsPath, residenceID),
		filter: map[string]any{"include": []string{"residentialBreakers"}},
	}, &out)
	return out, err
}

// Whem returns a single LWHEM hub.
func (c *Client) Whem(ctx context.Context, whemID string) (Whem, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return Whem{}, err
	}

	var out Whem
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf(whemPath, whemID),
		filter: map[string]any{},
	}, &out)
	return out, err
}

// Panel returns a single DAU panel.
func (c *Client) Panel(ctx context.Context, panelID string) (Panel, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return Panel{}, err
	}

	var out Panel
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf(panelPath, panelID),
		filter: map[string]any{},
	}, &out)
	return out, err
}

// WhemBreakers returns all breakers managed by an LWHEM hub.
func (c *Client) WhemBreakers(ctx context.Context, whemID string) ([]Breaker, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	var out []Breaker
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf(whemBreakersPath, whemID),
		filter: map[string]any{},
	}, &out)
	return out, err
}

// PanelBreakers returns all breakers in a DAU panel.
func (c *Client) PanelBreakers(ctx context.Context, panelID string) ([]Breaker, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	var out []Breaker
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf(panelBreakersPath, panelID),
		filter: map[string]any{},
	}, &out)
	return out, err
}

// CTs returns all current-transformer clamps on an LWHEM hub.
func (c *Client) CTs(ctx context.Context, whemID string) ([]CT, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	var out []CT
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf(whemCTsPath, whemID),
		filter: map[string]any{},
	}, &out)
	return out, err
}
