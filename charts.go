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

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// dailyTotalsChart renders the per-date energy totals as a bar chart in the
// selected display unit
func dailyTotalsChart(daily []DailyTotal, unit Unit) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Daily Total Energy",
			Subtitle: fmt.Sprintf("Unit: %s", unit.Label()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Date",
			Type: "category",
			AxisLabel: &opts.AxisLabel{
				Rotate: 45,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: unit.Label(),
			Type: "value",
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   "10%",
			Right:  "10%",
			Bottom: "20%",
			Top:    "80",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "400px",
		}),
	)

	xLabels := make([]string, len(daily))
	barData := make([]opts.BarData, len(daily))
	for i, d := range daily {
		xLabels[i] = d.Date.Format(solarEdgeDateLayout)
		barData[i] = opts.BarData{Value: unit.Convert(d.WattHours)}
	}

	bar.SetXAxis(xLabels)
	bar.AddSeries(unit.Label(), barData,
		charts.WithBarChartOpts(opts.BarChart{
			BarGap: "10%",
		}),
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color: "#f59e0b",
		}),
	)

	return bar
}

// dailyPeakChart renders the per-date peak power as a line chart in watts
func dailyPeakChart(peaks []DailyPeak) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Daily Peak Power",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Date",
			Type: "category",
			AxisLabel: &opts.AxisLabel{
				Rotate: 45,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "W",
			Type: "value",
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   "10%",
			Right:  "10%",
			Bottom: "20%",
			Top:    "80",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "400px",
		}),
	)

	xLabels := make([]string, len(peaks))
	lineData := make([]opts.LineData, len(peaks))
	for i, p := range peaks {
		xLabels[i] = p.Date.Format(solarEdgeDateLayout)
		lineData[i] = opts.LineData{Value: p.Watts}
	}

	line.SetXAxis(xLabels)
	line.AddSeries("W", lineData,
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
	)

	return line
}

// hourlyProfileChart renders the mean production per hour-of-day
func hourlyProfileChart(hourly []HourlyAverage, unit Unit) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Average Hourly Production",
			Subtitle: fmt.Sprintf("Unit: %s", unit.Label()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Hour",
			Type: "category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: unit.Label(),
			Type: "value",
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   "10%",
			Right:  "10%",
			Bottom: "15%",
			Top:    "80",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "400px",
		}),
	)

	xLabels := make([]string, len(hourly))
	lineData := make([]opts.LineData, len(hourly))
	for i, h := range hourly {
		xLabels[i] = fmt.Sprintf("%02d:00", h.Hour)
		lineData[i] = opts.LineData{Value: unit.Convert(h.WattHours)}
	}

	line.SetXAxis(xLabels)
	line.AddSeries(fmt.Sprintf("Avg %s", unit.Label()), lineData,
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithAreaStyleOpts(opts.AreaStyle{
			Opacity: opts.Float(0.2),
		}),
	)

	return line
}

// monthlyPowerChart renders mean vs peak power per calendar month as a
// grouped bar chart
func monthlyPowerChart(monthly []MonthlyStat) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Monthly Average vs Peak Power",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "30",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Month",
			Type: "category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "W",
			Type: "value",
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   "10%",
			Right:  "10%",
			Bottom: "15%",
			Top:    "80",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "400px",
		}),
	)

	xLabels := make([]string, len(monthly))
	avgData := make([]opts.BarData, len(monthly))
	peakData := make([]opts.BarData, len(monthly))
	for i, m := range monthly {
		xLabels[i] = m.Month
		avgData[i] = opts.BarData{Value: m.MeanWatts}
		peakData[i] = opts.BarData{Value: m.PeakWatts}
	}

	bar.SetXAxis(xLabels)
	bar.AddSeries("Average W", avgData,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#5470c6"}),
	)
	bar.AddSeries("Peak W", peakData,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ee6666"}),
	)

	return bar
}

// energyHeatmap renders the (day × hour) matrix of mean production
func energyHeatmap(hm *Heatmap, unit Unit) *charts.HeatMap {
	heatmap := charts.NewHeatMap()

	dayLabels := make([]string, len(hm.Days))
	for i, d := range hm.Days {
		dayLabels[i] = d.Format(solarEdgeDateLayout)
	}
	hourLabels := make([]string, len(hm.Hours))
	for i, h := range hm.Hours {
		hourLabels[i] = fmt.Sprintf("%02d", h)
	}

	var heatmapData []opts.HeatMapData
	maxVal := 0.0
	for h := range hm.Values {
		for d, wh := range hm.Values[h] {
			v := unit.Convert(wh)
			if v > maxVal {
				maxVal = v
			}
			heatmapData = append(heatmapData, opts.HeatMapData{
				Value: [3]interface{}{d, h, v},
			})
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	heatmap.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Energy Heatmap (Hour vs Day)",
			Subtitle: fmt.Sprintf("Unit: %s", unit.Label()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Day",
			Type:      "category",
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
			AxisLabel: &opts.AxisLabel{
				Rotate: 45,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "Hour",
			Type:      "category",
			Data:      hourLabels,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxVal),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#ffffcc", "#fed976", "#fd8d3c", "#e31a1c", "#800026"},
			},
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   "10%",
			Right:  "15%",
			Bottom: "20%",
			Top:    "80",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "500px",
		}),
	)

	heatmap.SetXAxis(dayLabels).
		AddSeries(unit.Label(), heatmapData)

	return heatmap
}

// dashboardCharts assembles the chart page for one fetch cycle. Chart
// sections are only added when the energy dataset rendered.
func dashboardCharts(data *DashboardData) *components.Page {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("SolarEdge Dashboard - site %s", data.SiteID)

	if data.EnergyError != "" || len(data.Readings) == 0 {
		return page
	}

	page.AddCharts(
		dailyTotalsChart(data.Daily, data.Unit),
		dailyPeakChart(data.DailyPeaks),
		hourlyProfileChart(data.Hourly, data.Unit),
		monthlyPowerChart(data.Monthly),
		energyHeatmap(data.Heatmap, data.Unit),
	)

	return page
}
