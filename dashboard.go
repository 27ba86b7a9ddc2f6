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
	"net/url"
	"time"
)

// Dataset names used in user-facing error messages
const (
	datasetOverview    = "site overview"
	datasetEnergy      = "energy details"
	datasetEnvironment = "environmental benefits"
)

// DashboardRequest is the per-session input of one fetch-and-render cycle:
// credentials, date range and display unit. Nothing here outlives the cycle.
type DashboardRequest struct {
	Creds       SiteCredentials
	Start       time.Time
	End         time.Time
	Unit        Unit
	Granularity Granularity
}

// ParseDashboardRequest validates the form/query values of a fetch action.
// A missing or malformed field returns a ValidationError naming it;
// acquisition is never attempted on invalid input.
func ParseDashboardRequest(q url.Values, granularity Granularity) (*DashboardRequest, error) {
	apiKey := q.Get("api_key")
	if apiKey == "" {
		return nil, &ValidationError{Field: "api_key", Message: "API key is required"}
	}
	siteID := q.Get("site_id")
	if siteID == "" {
		return nil, &ValidationError{Field: "site_id", Message: "site ID is required"}
	}

	startStr := q.Get("start")
	if startStr == "" {
		return nil, &ValidationError{Field: "start", Message: "start date is required"}
	}
	start, err := time.Parse(solarEdgeDateLayout, startStr)
	if err != nil {
		return nil, &ValidationError{Field: "start", Value: startStr, Message: "expected YYYY-MM-DD"}
	}

	endStr := q.Get("end")
	if endStr == "" {
		return nil, &ValidationError{Field: "end", Message: "end date is required"}
	}
	end, err := time.Parse(solarEdgeDateLayout, endStr)
	if err != nil {
		return nil, &ValidationError{Field: "end", Value: endStr, Message: "expected YYYY-MM-DD"}
	}

	if end.Before(start) {
		return nil, &ValidationError{Field: "date_range", Message: "start date must not be after end date"}
	}

	if g := q.Get("time_unit"); g != "" {
		if !Granularity(g).Valid() {
			return nil, &ValidationError{Field: "time_unit", Value: g, Message: "unknown time unit"}
		}
		granularity = Granularity(g)
	}

	return &DashboardRequest{
		Creds:       SiteCredentials{APIKey: apiKey, SiteID: siteID},
		Start:       start,
		End:         end,
		Unit:        ParseUnit(q.Get("unit")),
		Granularity: granularity,
	}, nil
}

// Query returns the request re-encoded as query values, used to build the
// export links so downloads always reflect the rendered range and unit
func (r *DashboardRequest) Query() url.Values {
	q := url.Values{}
	q.Set("api_key", r.Creds.APIKey)
	q.Set("site_id", r.Creds.SiteID)
	q.Set("start", r.Start.Format(solarEdgeDateLayout))
	q.Set("end", r.End.Format(solarEdgeDateLayout))
	q.Set("unit", string(r.Unit))
	q.Set("time_unit", string(r.Granularity))
	return q
}

// DashboardData is the result of one fetch cycle. Every derived view is a
// pure function of Readings and the selected unit; nothing is cached across
// cycles. Per-dataset errors are recorded instead of aborting the cycle.
type DashboardData struct {
	SiteID      string      `json:"site_id"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Unit        Unit        `json:"unit"`
	Granularity Granularity `json:"granularity"`
	FetchedAt   time.Time   `json:"fetched_at"`

	Overview      *Overview `json:"overview,omitempty"`
	OverviewError string    `json:"overview_error,omitempty"`

	Environment      *EnvironmentalSummary `json:"environment,omitempty"`
	EnvironmentError string                `json:"environment_error,omitempty"`

	Readings    []EnergyReading `json:"readings,omitempty"`
	EnergyError string          `json:"energy_error,omitempty"`

	TotalWh    float64         `json:"total_wh"`
	Peak       *EnergyReading  `json:"peak,omitempty"`
	PeakWatts  float64         `json:"peak_watts"`
	Daily      []DailyTotal    `json:"daily,omitempty"`
	DailyPeaks []DailyPeak     `json:"daily_peaks,omitempty"`
	Hourly     []HourlyAverage `json:"hourly,omitempty"`
	Monthly    []MonthlyStat   `json:"monthly,omitempty"`
	Heatmap    *Heatmap        `json:"heatmap,omitempty"`
}

// FailedDatasets lists the datasets that did not render this cycle
func (d *DashboardData) FailedDatasets() []string {
	var failed []string
	if d.OverviewError != "" {
		failed = append(failed, datasetOverview)
	}
	if d.EnergyError != "" {
		failed = append(failed, datasetEnergy)
	}
	if d.EnvironmentError != "" {
		failed = append(failed, datasetEnvironment)
	}
	return failed
}

// BuildDashboard runs one acquisition-and-aggregation cycle. Each dataset is
// fetched independently; a failure is captured as a message on that dataset
// and the rest of the cycle continues.
func BuildDashboard(ctx context.Context, client *SolarEdgeClient, req *DashboardRequest) *DashboardData {
	data := &DashboardData{
		SiteID:      req.Creds.SiteID,
		Start:       req.Start,
		End:         req.End,
		Unit:        req.Unit,
		Granularity: req.Granularity,
		FetchedAt:   time.Now(),
	}

	overview, err := client.GetOverview(ctx, req.Creds)
	if err != nil {
		data.OverviewError = fetchErrorMessage(datasetOverview, err)
	} else {
		data.Overview = overview
	}

	env, err := client.GetEnvironmentalBenefits(ctx, req.Creds)
	if err != nil {
		data.EnvironmentError = fetchErrorMessage(datasetEnvironment, err)
	} else {
		data.Environment = env
	}

	readings, err := client.GetEnergyDetails(ctx, req.Creds, req.Start, req.End, req.Granularity)
	if err != nil {
		data.EnergyError = fetchErrorMessage(datasetEnergy, err)
		return data
	}
	data.Readings = readings

	data.TotalWh = TotalEnergy(readings)
	if peak, ok := PeakReading(readings); ok {
		data.Peak = &peak
		data.PeakWatts = PowerFromEnergy(peak.WattHours, req.Granularity)
	}
	data.Daily = DailyTotals(readings)
	data.DailyPeaks = DailyPeakPower(readings, req.Granularity)
	data.Hourly = HourlyAverages(readings)
	data.Monthly = MonthlyStats(readings, req.Granularity)
	hm := HeatmapMatrix(readings)
	data.Heatmap = &hm

	return data
}

// fetchErrorMessage maps an acquisition error to the single user-visible
// message for its dataset
func fetchErrorMessage(dataset string, err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 0 {
			return fmt.Sprintf("%s: could not reach the monitoring service", dataset)
		}
		return fmt.Sprintf("%s: monitoring API returned status %d", dataset, apiErr.StatusCode)
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return fmt.Sprintf("%s: unexpected response format", dataset)
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return fmt.Sprintf("%s: %s", dataset, valErr.Message)
	}

	return fmt.Sprintf("%s: %v", dataset, err)
}
