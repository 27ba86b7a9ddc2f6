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

import "time"

// HTTP client settings
const (
	// HTTPClientTimeout - bound on every monitoring API call so a slow
	// response never hangs a dashboard render
	HTTPClientTimeout = 30 * time.Second
)

// Monitoring API limits
const (
	// MaxChunkDays - the energy endpoint rejects ranges longer than 31 days
	// at sub-daily granularity, so longer ranges are fetched in chunks
	MaxChunkDays = 31
)

// Display conversions
const (
	// WattHoursPerKilowattHour - Wh to kWh display conversion
	WattHoursPerKilowattHour = 1000.0

	// CO2KgPerTree - EPA urban tree sequestration equivalency (12,940 kg
	// CO2 per 386 trees), used to derive the "trees planted" metric
	CO2KgPerTree = 12940.0 / 386.0
)

// Web server defaults
const (
	// WebDefaultPort - default dashboard listen port
	WebDefaultPort = 8080

	// WebReadHeaderTimeout - header read bound on the dashboard server
	WebReadHeaderTimeout = 10 * time.Second
)

// Environment variables checked for credential pre-fill, matching the
// conventions of the SolarEdge tooling this replaces
const (
	EnvAPIKey = "SE_API_KEY"
	EnvSiteID = "SE_SITE_ID"
)

// solarEdgeTimeLayout is the timestamp format the monitoring API reports in.
// Timestamps stay in the API's reporting timezone; no local conversion.
const solarEdgeTimeLayout = "2006-01-02 15:04:05"

// solarEdgeDateLayout is the date-only format used for query parameters and
// daily-granularity buckets.
const solarEdgeDateLayout = "2006-01-02"
