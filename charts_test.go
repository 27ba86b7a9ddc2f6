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
	"bytes"
	"strings"
	"testing"
	"time"
)

func chartTestData() *DashboardData {
	readings := []EnergyReading{
		reading("2024-06-01 10:00:00", 100),
		reading("2024-06-01 12:00:00", 400),
		reading("2024-06-02 11:00:00", 300),
	}
	hm := HeatmapMatrix(readings)
	return &DashboardData{
		SiteID:     "12345",
		Unit:       UnitWh,
		FetchedAt:  time.Now(),
		Readings:   readings,
		TotalWh:    TotalEnergy(readings),
		Daily:      DailyTotals(readings),
		DailyPeaks: DailyPeakPower(readings, GranularityQuarterHour),
		Hourly:     HourlyAverages(readings),
		Monthly:    MonthlyStats(readings, GranularityQuarterHour),
		Heatmap:    &hm,
	}
}

func TestDashboardCharts(t *testing.T) {
	page := dashboardCharts(chartTestData())

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		t.Fatalf("Expected page to render, got %v", err)
	}

	html := buf.String()
	expected := []string{
		"SolarEdge Dashboard - site 12345",
		"Daily Total Energy",
		"Daily Peak Power",
		"Average Hourly Production",
		"Monthly Average vs Peak Power",
		"Energy Heatmap",
	}
	for _, want := range expected {
		if !strings.Contains(html, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
}

func TestDashboardChartsEnergyFailure(t *testing.T) {
	data := &DashboardData{
		SiteID:      "12345",
		Unit:        UnitWh,
		EnergyError: "energy details: monitoring API returned status 403",
	}

	page := dashboardCharts(data)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		t.Fatalf("Expected empty page to render, got %v", err)
	}
	if strings.Contains(buf.String(), "Daily Total Energy") {
		t.Error("Expected no charts when the energy dataset failed")
	}
}

func TestDashboardChartsNoReadings(t *testing.T) {
	data := &DashboardData{SiteID: "12345", Unit: UnitWh}
	page := dashboardCharts(data)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		t.Fatalf("Expected empty page to render, got %v", err)
	}
}
