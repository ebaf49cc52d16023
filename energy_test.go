package goleviton

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnergyReport_Decode(t *testing.T) {
	t.Parallel()

	payload := `{
		"totals": [
			{"x": 0, "timestamp": "2026-08-01T00:00:00Z", "energyConsumption": 1.5, "energyImport": 0.2, "total": 1.7, "totalCost": 0.34},
			{"x": 1, "energyConsumption": 2.0, "energyImport": 0.0, "total": 2.0, "totalCost": 0.4}
		],
		"hub-1": {
			"Breaker 4": [
				{"x": "0", "energyConsumption": 0.5, "energyImport": 0, "total": 0.5, "totalCost": 0.1}
			],
			"CT 2": [
				{"x": "1", "energyConsumption": 0.3, "energyImport": 0, "total": 0.3, "totalCost": 0.06}
			]
		}
	}`

	var rep EnergyReport
	if err := json.Unmarshal([]byte(payload), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(rep.Totals) != 2 {
		t.Fatalf("totals=%d want 2", len(rep.Totals))
	}
	// X arrives as a number here and a string in the hub series; both land
	// as the same normalized value.
	if rep.Totals[0].X != "0" || rep.Totals[1].X != "1" {
		t.Fatalf("totals x=%q,%q", rep.Totals[0].X, rep.Totals[1].X)
	}
	if rep.Totals[0].Total != 1.7 {
		t.Fatalf("totals[0].Total=%v", rep.Totals[0].Total)
	}

	hub, ok := rep.Hubs["hub-1"]
	if !ok {
		t.Fatalf("hub-1 missing: %+v", rep.Hubs)
	}
	if len(hub) != 2 {
		t.Fatalf("hub series=%d want 2", len(hub))
	}
	if pts := hub["Breaker 4"]; len(pts) != 1 || pts[0].X != "0" || pts[0].Total != 0.5 {
		t.Fatalf("breaker series=%+v", pts)
	}
	if _, ok := rep.Hubs["totals"]; ok {
		t.Fatalf("totals leaked into the hub map")
	}
}

func TestClient_EnergyQueries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		wantPath string
		wantKey  string
		call     func(c *Client) error
	}{
		{
			name:     "day",
			wantPath: "/Residences/getAllEnergyConsumptionForDay",
			wantKey:  "startDay",
			call: func(c *Client) error {
				_, err := c.EnergyForDay(context.Background(), 7, "2026-08-28", "America/New_York")
				return err
			},
		},
		{
			name:     "week",
			wantPath: "/Residences/getAllEnergyConsumptionForWeek",
			wantKey:  "startDay",
			call: func(c *Client) error {
				_, err := c.EnergyForWeek(context.Background(), 7, "2026-08-28", "America/New_York")
				return err
			},
		},
		{
			name:     "month",
			wantPath: "/Residences/getAllEnergyConsumptionForMonth",
			wantKey:  "billingDayInMonth",
			call: func(c *Client) error {
				_, err := c.EnergyForMonth(context.Background(), 7, "2026-08-28", "America/New_York")
				return err
			},
		},
		{
			name:     "year",
			wantPath: "/Residences/getAllEnergyConsumptionForYear",
			wantKey:  "billingDayInEndMonth",
			call: func(c *Client) error {
				_, err := c.EnergyForYear(context.Background(), 7, "2026-08-28", "America/New_York")
				return err
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tc.wantPath {
					t.Errorf("path=%s want %s", r.URL.Path, tc.wantPath)
				}
				q := r.URL.Query()
				if q.Get("id") != "7" {
					t.Errorf("id=%q want 7", q.Get("id"))
				}
				if q.Get(tc.wantKey) != "2026-08-28" {
					t.Errorf("%s=%q", tc.wantKey, q.Get(tc.wantKey))
				}
				if q.Get("timezone") != "America/New_York" {
					t.Errorf("timezone=%q", q.Get("timezone"))
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"totals":[]}`)
			}))
			t.Cleanup(srv.Close)

			c := NewClient(Config{
				BaseURL: srv.URL,
				Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			c.RestoreSession("tok-abc", "user-9")

			if err := tc.call(c); err != nil {
				t.Fatalf("%s: %v", tc.name, err)
			}
		})
	}
}
