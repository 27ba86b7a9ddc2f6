// Copyright 2025 Matthew Gall <me@matthewgall.dev>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func validQuery() url.Values {
	q := url.Values{}
	q.Set("api_key", "test-api-key")
	q.Set("site_id", "12345")
	q.Set("start", "2024-06-01")
	q.Set("end", "2024-06-02")
	return q
}

func TestParseDashboardRequest(t *testing.T) {
	req, err := ParseDashboardRequest(validQuery(), GranularityQuarterHour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if req.Creds.APIKey != "test-api-key" {
		t.Errorf("Expected API key test-api-key, got %s", req.Creds.APIKey)
	}
	if req.Creds.SiteID != "12345" {
		t.Errorf("Expected site ID 12345, got %s", req.Creds.SiteID)
	}
	if req.Start.Day() != 1 || req.End.Day() != 2 {
		t.Errorf("Unexpected range %v - %v", req.Start, req.End)
	}
	if req.Unit != UnitWh {
		t.Errorf("Expected default unit Wh, got %s", req.Unit)
	}
	if req.Granularity != GranularityQuarterHour {
		t.Errorf("Expected default granularity, got %s", req.Granularity)
	}
}

func TestParseDashboardRequestOverrides(t *testing.T) {
	q := validQuery()
	q.Set("unit", "kWh")
	q.Set("time_unit", "HOUR")

	req, err := ParseDashboardRequest(q, GranularityQuarterHour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if req.Unit != UnitKWh {
		t.Errorf("Expected kWh, got %s", req.Unit)
	}
	if req.Granularity != GranularityHour {
		t.Errorf("Expected HOUR granularity, got %s", req.Granularity)
	}
}

func TestParseDashboardRequestValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(url.Values)
		field  string
	}{
		{
			name:   "missing API key",
			mutate: func(q url.Values) { q.Del("api_key") },
			field:  "api_key",
		},
		{
			name:   "missing site ID",
			mutate: func(q url.Values) { q.Del("site_id") },
			field:  "site_id",
		},
		{
			name:   "missing start date",
			mutate: func(q url.Values) { q.Del("start") },
			field:  "start",
		},
		{
			name:   "malformed start date",
			mutate: func(q url.Values) { q.Set("start", "01/06/2024") },
			field:  "start",
		},
		{
			name:   "missing end date",
			mutate: func(q url.Values) { q.Del("end") },
			field:  "end",
		},
		{
			name:   "inverted range",
			mutate: func(q url.Values) { q.Set("start", "2024-06-10") },
			field:  "date_range",
		},
		{
			name:   "unknown time unit",
			mutate: func(q url.Values) { q.Set("time_unit", "WEEK") },
			field:  "time_unit",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuery()
			tc.mutate(q)

			_, err := ParseDashboardRequest(q, GranularityQuarterHour)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("Expected ValidationError, got %T", err)
			}
			if valErr.Field != tc.field {
				t.Errorf("Expected field %s, got %s", tc.field, valErr.Field)
			}
		})
	}
}

func TestDashboardRequestQueryRoundTrip(t *testing.T) {
	q := validQuery()
	q.Set("unit", "kWh")

	req, err := ParseDashboardRequest(q, GranularityQuarterHour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	roundTripped, err := ParseDashboardRequest(req.Query(), GranularityDay)
	if err != nil {
		t.Fatalf("Expected re-encoded query to parse, got %v", err)
	}
	if roundTripped.Unit != UnitKWh {
		t.Errorf("Expected unit to survive round trip, got %s", roundTripped.Unit)
	}
	if roundTripped.Granularity != GranularityQuarterHour {
		t.Errorf("Expected granularity to survive round trip, got %s", roundTripped.Granularity)
	}
	if !roundTripped.Start.Equal(req.Start) || !roundTripped.End.Equal(req.End) {
		t.Error("Expected range to survive round trip")
	}
}

// fakeMonitoringAPI answers all three dataset endpoints, with per-endpoint
// status overrides
func fakeMonitoringAPI(t *testing.T, failures map[string]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/overview"):
			if status := failures["overview"]; status != 0 {
				http.Error(w, "error", status)
				return
			}
			fmt.Fprint(w, `{"overview":{"lastUpdateTime":"2024-06-02 18:00:00","currentPower":{"power":2000},"lastDayData":{"energy":9000},"lifeTimeData":{"energy":5000000}}}`)
		case strings.HasSuffix(r.URL.Path, "/energy"):
			if status := failures["energy"]; status != 0 {
				http.Error(w, "error", status)
				return
			}
			fmt.Fprint(w, `{"energy":{"timeUnit":"QUARTER_OF_AN_HOUR","unit":"Wh","values":[
				{"date":"2024-06-01 10:00:00","value":100},
				{"date":"2024-06-01 12:00:00","value":400},
				{"date":"2024-06-02 11:00:00","value":300}
			]}}`)
		case strings.HasSuffix(r.URL.Path, "/envBenefits"):
			if status := failures["envBenefits"]; status != 0 {
				http.Error(w, "error", status)
				return
			}
			fmt.Fprint(w, `{"envBenefits":{"gasEmissionSaved":{"units":"kg","co2":670.5},"treesPlanted":20}}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func testDashboardRequest(t *testing.T) *DashboardRequest {
	t.Helper()
	req, err := ParseDashboardRequest(validQuery(), GranularityQuarterHour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return req
}

func TestBuildDashboard(t *testing.T) {
	server := fakeMonitoringAPI(t, nil)
	defer server.Close()

	client := newTestClient(server)
	data := BuildDashboard(context.Background(), client, testDashboardRequest(t))

	if data.OverviewError != "" || data.EnergyError != "" || data.EnvironmentError != "" {
		t.Fatalf("Expected no dataset errors, got %v", data.FailedDatasets())
	}
	if data.Overview == nil || data.Overview.CurrentPowerW != 2000 {
		t.Error("Expected overview with 2000 W current power")
	}
	if data.Environment == nil || data.Environment.CO2SavedKg != 670.5 {
		t.Error("Expected environmental summary with 670.5 kg CO2")
	}
	if data.TotalWh != 800 {
		t.Errorf("Expected total 800 Wh, got %v", data.TotalWh)
	}
	if data.Peak == nil || data.Peak.WattHours != 400 {
		t.Error("Expected peak reading of 400 Wh")
	}
	if data.PeakWatts != 1600 {
		t.Errorf("Expected peak power 1600 W, got %v", data.PeakWatts)
	}
	if len(data.Daily) != 2 {
		t.Errorf("Expected 2 daily totals, got %d", len(data.Daily))
	}
	if len(data.Monthly) != 1 {
		t.Errorf("Expected 1 monthly stat, got %d", len(data.Monthly))
	}
	if data.Heatmap == nil || len(data.Heatmap.Days) != 2 {
		t.Error("Expected heatmap over 2 days")
	}
	if len(data.FailedDatasets()) != 0 {
		t.Errorf("Expected no failed datasets, got %v", data.FailedDatasets())
	}
}

func TestBuildDashboardDatasetIsolation(t *testing.T) {
	// One dataset failing never blocks the others
	server := fakeMonitoringAPI(t, map[string]int{"envBenefits": http.StatusInternalServerError})
	defer server.Close()

	client := newTestClient(server)
	data := BuildDashboard(context.Background(), client, testDashboardRequest(t))

	if data.EnvironmentError == "" {
		t.Fatal("Expected an environment dataset error")
	}
	if !strings.Contains(data.EnvironmentError, "environmental benefits") {
		t.Errorf("Expected the message to name the dataset, got %q", data.EnvironmentError)
	}
	if data.Overview == nil {
		t.Error("Expected overview to render despite environment failure")
	}
	if data.TotalWh != 800 {
		t.Errorf("Expected energy aggregates despite environment failure, got total %v", data.TotalWh)
	}

	failed := data.FailedDatasets()
	if len(failed) != 1 || failed[0] != datasetEnvironment {
		t.Errorf("Expected only the environment dataset to fail, got %v", failed)
	}
}

func TestBuildDashboardEnergyFailure(t *testing.T) {
	server := fakeMonitoringAPI(t, map[string]int{"energy": http.StatusForbidden})
	defer server.Close()

	client := newTestClient(server)
	data := BuildDashboard(context.Background(), client, testDashboardRequest(t))

	if data.EnergyError == "" {
		t.Fatal("Expected an energy dataset error")
	}
	if !strings.Contains(data.EnergyError, "403") {
		t.Errorf("Expected the message to carry the status, got %q", data.EnergyError)
	}
	if data.Overview == nil || data.Environment == nil {
		t.Error("Expected overview and environment to render despite energy failure")
	}
	// Derived views are skipped, not zero-filled
	if data.Peak != nil || data.Heatmap != nil || len(data.Daily) != 0 {
		t.Error("Expected no derived views when the energy fetch fails")
	}
}

func TestFetchErrorMessage(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "transport failure",
			err:      NewAPIError(0, "/site/1/overview", "connection refused", nil),
			expected: "site overview: could not reach the monitoring service",
		},
		{
			name:     "API status",
			err:      NewAPIError(429, "/site/1/overview", "too many requests", nil),
			expected: "site overview: monitoring API returned status 429",
		},
		{
			name:     "decode failure",
			err:      &DecodeError{Endpoint: "/site/1/overview", Err: errors.New("bad json")},
			expected: "site overview: unexpected response format",
		},
		{
			name:     "validation failure",
			err:      &ValidationError{Field: "date_range", Message: "start date must not be after end date"},
			expected: "site overview: start date must not be after end date",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := fetchErrorMessage(datasetOverview, tc.err); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}
