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
	"sort"
	"time"
)

// EnergyReading is a single timestamped energy sample as reported by the
// monitoring API. Values are always stored in watt-hours; unit conversion
// happens at display time only.
type EnergyReading struct {
	Timestamp time.Time `json:"timestamp"`
	WattHours float64   `json:"watt_hours"`
}

// PowerReading is a single timestamped power sample in watts
type PowerReading struct {
	Timestamp time.Time `json:"timestamp"`
	Watts     float64   `json:"watts"`
}

// Overview is the site-level snapshot from the overview endpoint
type Overview struct {
	CurrentPowerW float64   `json:"current_power_w"`
	LastDayWh     float64   `json:"last_day_wh"`
	LifetimeWh    float64   `json:"lifetime_wh"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EnvironmentalSummary is the environmental impact snapshot
type EnvironmentalSummary struct {
	CO2SavedKg      float64 `json:"co2_saved_kg"`
	TreesEquivalent int     `json:"trees_equivalent"`
}

// Unit is the display unit for energy values
type Unit string

const (
	UnitWh  Unit = "Wh"
	UnitKWh Unit = "kWh"
)

// ParseUnit normalizes a user-supplied unit string, defaulting to Wh
func ParseUnit(s string) Unit {
	if s == string(UnitKWh) {
		return UnitKWh
	}
	return UnitWh
}

// Convert converts a stored watt-hour value into the display unit
func (u Unit) Convert(wattHours float64) float64 {
	if u == UnitKWh {
		return wattHours / WattHoursPerKilowattHour
	}
	return wattHours
}

// Label returns the display label for the unit
func (u Unit) Label() string {
	return string(u)
}

// TotalEnergy returns the sum of all reading values in watt-hours
func TotalEnergy(readings []EnergyReading) float64 {
	var total float64
	for _, r := range readings {
		total += r.WattHours
	}
	return total
}

// PeakReading returns the reading with the maximum value. Ties are broken by
// the earliest timestamp. ok is false for an empty collection.
func PeakReading(readings []EnergyReading) (peak EnergyReading, ok bool) {
	for _, r := range readings {
		if !ok || r.WattHours > peak.WattHours ||
			(r.WattHours == peak.WattHours && r.Timestamp.Before(peak.Timestamp)) {
			peak = r
			ok = true
		}
	}
	return peak, ok
}

// PowerFromEnergy derives average power in watts over one bucket of the
// given granularity from its energy in watt-hours
func PowerFromEnergy(wattHours float64, granularity Granularity) float64 {
	return wattHours / granularity.Hours()
}

// DailyTotal is the energy produced on one calendar date
type DailyTotal struct {
	Date      time.Time `json:"date"`
	WattHours float64   `json:"watt_hours"`
}

// DailyTotals sums readings by calendar date, returned in date order
func DailyTotals(readings []EnergyReading) []DailyTotal {
	byDate := make(map[time.Time]float64)
	for _, r := range readings {
		day := dateOf(r.Timestamp)
		byDate[day] += r.WattHours
	}

	totals := make([]DailyTotal, 0, len(byDate))
	for day, wh := range byDate {
		totals = append(totals, DailyTotal{Date: day, WattHours: wh})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Date.Before(totals[j].Date)
	})
	return totals
}

// DailyPeak is the highest bucket value of one calendar date, expressed as
// average power over the bucket
type DailyPeak struct {
	Date  time.Time `json:"date"`
	Watts float64   `json:"watts"`
}

// DailyPeakPower returns the peak bucket of each date converted to watts,
// in date order
func DailyPeakPower(readings []EnergyReading, granularity Granularity) []DailyPeak {
	byDate := make(map[time.Time]float64)
	for _, r := range readings {
		day := dateOf(r.Timestamp)
		if r.WattHours > byDate[day] {
			byDate[day] = r.WattHours
		}
	}

	peaks := make([]DailyPeak, 0, len(byDate))
	for day, wh := range byDate {
		peaks = append(peaks, DailyPeak{Date: day, Watts: PowerFromEnergy(wh, granularity)})
	}
	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].Date.Before(peaks[j].Date)
	})
	return peaks
}

// HourlyAverage is the mean reading value for one hour-of-day across all
// days in the fetched range
type HourlyAverage struct {
	Hour      int     `json:"hour"`
	WattHours float64 `json:"watt_hours"`
}

// HourlyAverages computes the mean value per hour-of-day, in hour order.
// Hours with no readings are omitted rather than reported as zero.
func HourlyAverages(readings []EnergyReading) []HourlyAverage {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, r := range readings {
		h := r.Timestamp.Hour()
		sums[h] += r.WattHours
		counts[h]++
	}

	averages := make([]HourlyAverage, 0, len(sums))
	for h, sum := range sums {
		averages = append(averages, HourlyAverage{Hour: h, WattHours: sum / float64(counts[h])})
	}
	sort.Slice(averages, func(i, j int) bool {
		return averages[i].Hour < averages[j].Hour
	})
	return averages
}

// MonthlyStat reports mean and peak bucket power for one calendar month
type MonthlyStat struct {
	Month     string  `json:"month"` // YYYY-MM
	MeanWatts float64 `json:"mean_watts"`
	PeakWatts float64 `json:"peak_watts"`
}

// MonthlyStats groups readings by calendar month and reports both the mean
// and the maximum bucket value converted to watts, in month order
func MonthlyStats(readings []EnergyReading, granularity Granularity) []MonthlyStat {
	type acc struct {
		sum   float64
		max   float64
		count int
	}
	byMonth := make(map[string]*acc)
	for _, r := range readings {
		key := r.Timestamp.Format("2006-01")
		a, exists := byMonth[key]
		if !exists {
			a = &acc{}
			byMonth[key] = a
		}
		a.sum += r.WattHours
		if r.WattHours > a.max {
			a.max = r.WattHours
		}
		a.count++
	}

	stats := make([]MonthlyStat, 0, len(byMonth))
	for month, a := range byMonth {
		stats = append(stats, MonthlyStat{
			Month:     month,
			MeanWatts: PowerFromEnergy(a.sum/float64(a.count), granularity),
			PeakWatts: PowerFromEnergy(a.max, granularity),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Month < stats[j].Month
	})
	return stats
}

// Heatmap is a (day × hour) matrix of mean reading values. Values[h][d] is
// the mean for hour h of day Days[d]; cells with no readings stay zero.
type Heatmap struct {
	Days   []time.Time `json:"days"`
	Hours  []int       `json:"hours"`
	Values [][]float64 `json:"values"`
}

// HeatmapMatrix pivots readings into a (day, hour-of-day) matrix of mean
// values. Missing cells are zero, not interpolated.
func HeatmapMatrix(readings []EnergyReading) Heatmap {
	type cell struct {
		day  time.Time
		hour int
	}
	sums := make(map[cell]float64)
	counts := make(map[cell]int)
	daySet := make(map[time.Time]bool)

	for _, r := range readings {
		c := cell{day: dateOf(r.Timestamp), hour: r.Timestamp.Hour()}
		sums[c] += r.WattHours
		counts[c]++
		daySet[c.day] = true
	}

	days := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	hours := make([]int, 24)
	for h := range hours {
		hours[h] = h
	}

	values := make([][]float64, 24)
	for h := 0; h < 24; h++ {
		values[h] = make([]float64, len(days))
		for d, day := range days {
			c := cell{day: day, hour: h}
			if n := counts[c]; n > 0 {
				values[h][d] = sums[c] / float64(n)
			}
		}
	}

	return Heatmap{Days: days, Hours: hours, Values: values}
}

// dateOf truncates a timestamp to its calendar date in the same location
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
