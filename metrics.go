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
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// MetricsCollector exposes Prometheus-format metrics about the monitoring
// API client
type MetricsCollector struct {
	client    *SolarEdgeClient
	startTime time.Time
}

func NewMetricsCollector(client *SolarEdgeClient) *MetricsCollector {
	return &MetricsCollector{
		client:    client,
		startTime: time.Now(),
	}
}

func (m *MetricsCollector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	var sb strings.Builder

	m.writeMetricHeader(&sb, "solarview_info", "gauge", "Information about the solarview instance")
	m.writeMetric(&sb, "solarview_info", map[string]string{"version": GetVersion()}, 1)

	m.writeMetricHeader(&sb, "solarview_up", "gauge", "Whether the solarview instance is up")
	m.writeMetric(&sb, "solarview_up", nil, 1)

	m.writeMetricHeader(&sb, "solarview_uptime_seconds", "counter", "Seconds since the instance started")
	m.writeMetric(&sb, "solarview_uptime_seconds", nil, time.Since(m.startTime).Seconds())

	total, durations, failed := m.client.Metrics().Snapshot()

	m.writeMetricHeader(&sb, "solarview_api_requests_total", "counter", "Total monitoring API requests issued")
	m.writeMetric(&sb, "solarview_api_requests_total", nil, float64(total))

	m.writeMetricHeader(&sb, "solarview_api_request_failures_total", "counter", "Monitoring API request failures by endpoint")
	for _, endpoint := range sortedKeysInt64(failed) {
		m.writeMetric(&sb, "solarview_api_request_failures_total", map[string]string{"endpoint": endpoint}, float64(failed[endpoint]))
	}

	m.writeMetricHeader(&sb, "solarview_api_request_duration_seconds_avg", "gauge", "Average monitoring API request duration by endpoint")
	for _, endpoint := range sortedKeysFloat64(durations) {
		samples := durations[endpoint]
		if len(samples) == 0 {
			continue
		}
		var sum float64
		for _, d := range samples {
			sum += d
		}
		m.writeMetric(&sb, "solarview_api_request_duration_seconds_avg", map[string]string{"endpoint": endpoint}, sum/float64(len(samples)))
	}

	fmt.Fprint(w, sb.String())
}

func (m *MetricsCollector) writeMetricHeader(sb *strings.Builder, name, metricType, description string) {
	sb.WriteString(fmt.Sprintf("# HELP %s %s\n", name, description))
	sb.WriteString(fmt.Sprintf("# TYPE %s %s\n", name, metricType))
}

func (m *MetricsCollector) writeMetric(sb *strings.Builder, name string, labels map[string]string, value float64) {
	if len(labels) == 0 {
		sb.WriteString(fmt.Sprintf("%s %g\n", name, value))
		return
	}

	pairs := make([]string, 0, len(labels))
	for _, k := range sortedKeysString(labels) {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	sb.WriteString(fmt.Sprintf("%s{%s} %g\n", name, strings.Join(pairs, ","), value))
}

func sortedKeysString(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysInt64(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysFloat64(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
