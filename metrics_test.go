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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsCollector(t *testing.T) {
	api := fakeMonitoringAPI(t, map[string]int{"envBenefits": http.StatusInternalServerError})
	defer api.Close()

	client := newTestClient(api)
	client.GetOverview(context.Background(), testCreds)
	client.GetEnvironmentalBenefits(context.Background(), testCreds)

	collector := NewMetricsCollector(client)
	rec := httptest.NewRecorder()
	collector.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("Expected text exposition format, got %s", rec.Header().Get("Content-Type"))
	}

	body := rec.Body.String()
	expected := []string{
		"# HELP solarview_info",
		"# TYPE solarview_info gauge",
		"solarview_up 1",
		"solarview_api_requests_total 2",
		`solarview_api_request_failures_total{endpoint="/site/12345/envBenefits"} 1`,
		"solarview_api_request_duration_seconds_avg",
	}
	for _, want := range expected {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metric output to contain %q", want)
		}
	}
}

func TestMetricsCollectorEmpty(t *testing.T) {
	client := NewSolarEdgeClient("http://localhost:1", HTTPClientTimeout, NewLogger(false))
	collector := NewMetricsCollector(client)

	rec := httptest.NewRecorder()
	collector.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "solarview_api_requests_total 0") {
		t.Error("Expected zero request total before any fetch")
	}
	if strings.Contains(body, "failures_total{") {
		t.Error("Expected no per-endpoint failure series before any fetch")
	}
}

func TestWriteMetric(t *testing.T) {
	collector := NewMetricsCollector(nil)

	var sb strings.Builder
	collector.writeMetric(&sb, "solarview_test", nil, 42)
	if sb.String() != "solarview_test 42\n" {
		t.Errorf("Unexpected unlabelled output %q", sb.String())
	}

	sb.Reset()
	collector.writeMetric(&sb, "solarview_test", map[string]string{"b": "2", "a": "1"}, 1.5)
	if sb.String() != `solarview_test{a="1",b="2"} 1.5`+"\n" {
		t.Errorf("Expected sorted labels, got %q", sb.String())
	}
}
