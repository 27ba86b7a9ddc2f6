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
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// API endpoints
var solarEdgeEndpoints = map[string]string{
	"monitoring": "https://monitoringapi.solaredge.com",
}

// Helper function to get endpoint URLs
func getEndpoint(key string) string {
	if url, exists := solarEdgeEndpoints[key]; exists {
		return url
	}
	// Fallback to the monitoring API if key doesn't exist
	return solarEdgeEndpoints["monitoring"]
}

// Granularity is the time-bucket size the monitoring API aggregates
// readings into before returning them
type Granularity string

const (
	GranularityQuarterHour Granularity = "QUARTER_OF_AN_HOUR"
	GranularityHour        Granularity = "HOUR"
	GranularityDay         Granularity = "DAY"
)

// Valid reports whether g is a granularity the energy endpoint accepts
func (g Granularity) Valid() bool {
	switch g {
	case GranularityQuarterHour, GranularityHour, GranularityDay:
		return true
	}
	return false
}

// Hours returns the bucket length in hours, used to derive power (W) from
// energy (Wh) within a bucket
func (g Granularity) Hours() float64 {
	switch g {
	case GranularityQuarterHour:
		return 0.25
	case GranularityHour:
		return 1
	case GranularityDay:
		return 24
	default:
		return 1
	}
}

// SiteCredentials are the per-session credentials the user supplies. They
// are passed through to the API unchanged and never persisted.
type SiteCredentials struct {
	APIKey string
	SiteID string
}

// APIMetrics tracks monitoring API call performance
type APIMetrics struct {
	mu sync.Mutex

	// API call durations by endpoint
	RequestDurations map[string][]float64 // endpoint -> list of durations in seconds

	// Totals by endpoint
	TotalRequests  int64
	FailedRequests map[string]int64 // endpoint -> failures
}

// NewAPIMetrics creates a new metrics tracker
func NewAPIMetrics() *APIMetrics {
	return &APIMetrics{
		RequestDurations: make(map[string][]float64),
		FailedRequests:   make(map[string]int64),
	}
}

func (m *APIMetrics) recordRequest(endpoint string, duration float64, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRequests++
	m.RequestDurations[endpoint] = append(m.RequestDurations[endpoint], duration)
	if failed {
		m.FailedRequests[endpoint]++
	}
}

// Snapshot returns copies of the counters for the metrics endpoint
func (m *APIMetrics) Snapshot() (total int64, durations map[string][]float64, failed map[string]int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	durations = make(map[string][]float64, len(m.RequestDurations))
	for k, v := range m.RequestDurations {
		durations[k] = append([]float64(nil), v...)
	}
	failed = make(map[string]int64, len(m.FailedRequests))
	for k, v := range m.FailedRequests {
		failed[k] = v
	}
	return m.TotalRequests, durations, failed
}

// SolarEdgeClient talks to the SolarEdge monitoring API. It holds no
// credentials itself; every call takes the session's SiteCredentials, so a
// single client is shared safely across dashboard sessions.
type SolarEdgeClient struct {
	BaseURL string
	client  *http.Client
	logger  *Logger
	metrics *APIMetrics
}

// NewSolarEdgeClient creates a new monitoring API client
func NewSolarEdgeClient(baseURL string, timeout time.Duration, logger *Logger) *SolarEdgeClient {
	if baseURL == "" {
		baseURL = getEndpoint("monitoring")
	}
	if timeout <= 0 {
		timeout = HTTPClientTimeout
	}
	return &SolarEdgeClient{
		BaseURL: baseURL,
		logger:  logger.WithComponent("solaredge_client"),
		metrics: NewAPIMetrics(),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Metrics exposes the client's request counters
func (c *SolarEdgeClient) Metrics() *APIMetrics {
	return c.metrics
}

// get issues one GET to path (already containing the site id) with the given
// query parameters and decodes the JSON body into out. The api_key is added
// here and never logged.
func (c *SolarEdgeClient) get(ctx context.Context, path, apiKey string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", apiKey)

	reqURL := c.BaseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return NewAPIError(0, path, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", GetUserAgent())

	c.logger.Debug("→ HTTP Request",
		"method", http.MethodGet,
		"path", path,
		"api_key", maskAPIKey(apiKey),
	)

	startTime := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(startTime).Seconds()
	if err != nil {
		c.metrics.recordRequest(path, duration, true)
		return NewAPIError(0, path, err.Error(), err)
	}
	defer resp.Body.Close()

	c.logger.LogAPIRequest(http.MethodGet, path, resp.StatusCode, duration)
	c.metrics.recordRequest(path, duration, resp.StatusCode != http.StatusOK)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewAPIError(resp.StatusCode, path, string(body), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Endpoint: path, Err: err}
	}

	return nil
}

type overviewResponse struct {
	Overview struct {
		LastUpdateTime string `json:"lastUpdateTime"`
		CurrentPower   struct {
			Power float64 `json:"power"`
		} `json:"currentPower"`
		LastDayData struct {
			Energy float64 `json:"energy"`
		} `json:"lastDayData"`
		LifeTimeData struct {
			Energy float64 `json:"energy"`
		} `json:"lifeTimeData"`
	} `json:"overview"`
}

type energyResponse struct {
	Energy struct {
		TimeUnit string `json:"timeUnit"`
		Unit     string `json:"unit"`
		Values   []struct {
			Date  string   `json:"date"`
			Value *float64 `json:"value"`
		} `json:"values"`
	} `json:"energy"`
}

type envBenefitsResponse struct {
	EnvBenefits struct {
		GasEmissionSaved struct {
			Units string  `json:"units"`
			CO2   float64 `json:"co2"`
		} `json:"gasEmissionSaved"`
		TreesPlanted float64 `json:"treesPlanted"`
	} `json:"envBenefits"`
}

// GetOverview fetches the site overview snapshot: current power, today's
// energy and lifetime energy
func (c *SolarEdgeClient) GetOverview(ctx context.Context, creds SiteCredentials) (*Overview, error) {
	path := fmt.Sprintf("/site/%s/overview", creds.SiteID)

	var result overviewResponse
	if err := c.get(ctx, path, creds.APIKey, nil, &result); err != nil {
		return nil, err
	}

	ov := &Overview{
		CurrentPowerW: result.Overview.CurrentPower.Power,
		LastDayWh:     result.Overview.LastDayData.Energy,
		LifetimeWh:    result.Overview.LifeTimeData.Energy,
		UpdatedAt:     time.Now(),
	}
	if ts, err := time.Parse(solarEdgeTimeLayout, result.Overview.LastUpdateTime); err == nil {
		ov.UpdatedAt = ts
	}

	return ov, nil
}

// GetCurrentPower fetches the most recent power sample for the site
func (c *SolarEdgeClient) GetCurrentPower(ctx context.Context, creds SiteCredentials) (*PowerReading, error) {
	ov, err := c.GetOverview(ctx, creds)
	if err != nil {
		return nil, err
	}
	return &PowerReading{
		Timestamp: ov.UpdatedAt,
		Watts:     ov.CurrentPowerW,
	}, nil
}

// GetEnergyDetails fetches the energy time series for [start, end] inclusive
// at the given granularity. Ranges longer than the API's per-request limit
// are split into chunks and concatenated; a failed chunk fails the whole
// fetch, there is no partial-result stitching.
func (c *SolarEdgeClient) GetEnergyDetails(ctx context.Context, creds SiteCredentials, start, end time.Time, granularity Granularity) ([]EnergyReading, error) {
	if !granularity.Valid() {
		return nil, &ValidationError{Field: "granularity", Value: string(granularity), Message: "unknown time unit"}
	}
	if end.Before(start) {
		return nil, &ValidationError{Field: "date_range", Message: "start date must not be after end date"}
	}

	var readings []EnergyReading
	current := start
	for !current.After(end) {
		chunkEnd := current.AddDate(0, 0, MaxChunkDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		chunk, err := c.fetchEnergyChunk(ctx, creds, current, chunkEnd, granularity)
		if err != nil {
			return nil, err
		}
		readings = append(readings, chunk...)

		current = chunkEnd.AddDate(0, 0, 1)
	}

	c.logger.Debug("Energy details fetched",
		"site_id", creds.SiteID,
		"readings", len(readings),
		"granularity", string(granularity),
	)

	return readings, nil
}

func (c *SolarEdgeClient) fetchEnergyChunk(ctx context.Context, creds SiteCredentials, start, end time.Time, granularity Granularity) ([]EnergyReading, error) {
	path := fmt.Sprintf("/site/%s/energy", creds.SiteID)
	params := url.Values{}
	params.Set("timeUnit", string(granularity))
	params.Set("startDate", start.Format(solarEdgeDateLayout))
	params.Set("endDate", end.Format(solarEdgeDateLayout))

	var result energyResponse
	if err := c.get(ctx, path, creds.APIKey, params, &result); err != nil {
		return nil, err
	}

	readings := make([]EnergyReading, 0, len(result.Energy.Values))
	for _, v := range result.Energy.Values {
		ts, err := parseSolarEdgeTime(v.Date)
		if err != nil {
			return nil, &DecodeError{Endpoint: path, Err: err}
		}
		// Empty buckets come back as null; treat as zero production
		value := 0.0
		if v.Value != nil {
			value = *v.Value
		}
		readings = append(readings, EnergyReading{
			Timestamp: ts,
			WattHours: value,
		})
	}

	return readings, nil
}

// GetEnvironmentalBenefits fetches the environmental impact snapshot. The
// trees-equivalent figure is derived from CO2 saved rather than taken from
// the payload, matching how the dashboard has always reported it.
func (c *SolarEdgeClient) GetEnvironmentalBenefits(ctx context.Context, creds SiteCredentials) (*EnvironmentalSummary, error) {
	path := fmt.Sprintf("/site/%s/envBenefits", creds.SiteID)

	var result envBenefitsResponse
	if err := c.get(ctx, path, creds.APIKey, nil, &result); err != nil {
		return nil, err
	}

	co2 := result.EnvBenefits.GasEmissionSaved.CO2
	trees := 0
	if co2 > 0 {
		trees = int(math.Round(co2 / CO2KgPerTree))
	}

	return &EnvironmentalSummary{
		CO2SavedKg:      co2,
		TreesEquivalent: trees,
	}, nil
}

// parseSolarEdgeTime accepts both the full timestamp and date-only forms the
// API uses depending on granularity
func parseSolarEdgeTime(s string) (time.Time, error) {
	if ts, err := time.Parse(solarEdgeTimeLayout, s); err == nil {
		return ts, nil
	}
	return time.Parse(solarEdgeDateLayout, s)
}
