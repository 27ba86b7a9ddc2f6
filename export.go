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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
)

// WriteReadingsCSV writes the reading table as CSV in the selected display
// unit. Values are written at full precision so re-parsing the file
// reproduces exactly the displayed (timestamp, value) pairs.
func WriteReadingsCSV(w io.Writer, readings []EnergyReading, unit Unit) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "value_" + strings.ToLower(unit.Label())}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range readings {
		record := []string{
			r.Timestamp.Format(solarEdgeTimeLayout),
			strconv.FormatFloat(unit.Convert(r.WattHours), 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// RenderDailyTotalsPNG rasterizes the daily-totals chart for download, in
// the selected display unit
func RenderDailyTotalsPNG(w io.Writer, daily []DailyTotal, unit Unit) error {
	if len(daily) == 0 {
		return fmt.Errorf("no readings to chart")
	}

	bars := make([]chart.Value, len(daily))
	for i, d := range daily {
		bars[i] = chart.Value{
			Label: d.Date.Format("01-02"),
			Value: unit.Convert(d.WattHours),
		}
	}

	// go-chart requires at least two bars to compute spacing
	if len(bars) == 1 {
		bars = append(bars, chart.Value{Label: "", Value: 0})
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("Daily Total Energy (%s)", unit.Label()),
		Height:   512,
		BarWidth: 24,
		Bars:     bars,
		Background: chart.Style{
			Padding: chart.Box{Top: 48},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart image: %w", err)
	}
	return nil
}
