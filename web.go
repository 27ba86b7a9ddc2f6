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
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type WebServer struct {
	client *SolarEdgeClient
	config *Config
	logger *Logger
	server *http.Server
}

func NewWebServer(client *SolarEdgeClient, config *Config, logger *Logger) *WebServer {
	ws := &WebServer{
		client: client,
		config: config,
		logger: logger.WithComponent("web"),
	}

	router := mux.NewRouter()
	router.HandleFunc("/", ws.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/dashboard", ws.handleDashboard).Methods(http.MethodGet)
	router.HandleFunc("/export/csv", ws.handleExportCSV).Methods(http.MethodGet)
	router.HandleFunc("/export/png", ws.handleExportPNG).Methods(http.MethodGet)
	router.HandleFunc("/api/dashboard", ws.handleDashboardAPI).Methods(http.MethodGet)
	router.Handle("/metrics", NewMetricsCollector(client))

	ws.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.WebPort),
		Handler:           cors.Default().Handler(router),
		ReadHeaderTimeout: WebReadHeaderTimeout,
	}

	return ws
}

func (ws *WebServer) Start() error {
	ws.logger.Info("Starting web server", "addr", ws.server.Addr)
	return ws.server.ListenAndServe()
}

// defaultGranularity is the time unit used when the form does not override it
func (ws *WebServer) defaultGranularity() Granularity {
	return Granularity(ws.config.TimeUnit)
}

// formView carries the state of the query form, including re-filled values
// after a validation error
type formView struct {
	APIKey   string
	SiteID   string
	Start    string
	End      string
	Unit     string
	TimeUnit string
	Error    string
}

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	today := time.Now()
	view := formView{
		APIKey:   os.Getenv(EnvAPIKey),
		SiteID:   os.Getenv(EnvSiteID),
		Start:    time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()).Format(solarEdgeDateLayout),
		End:      today.Format(solarEdgeDateLayout),
		Unit:     string(UnitWh),
		TimeUnit: string(ws.defaultGranularity()),
	}
	ws.renderForm(w, view)
}

func (ws *WebServer) renderForm(w http.ResponseWriter, view formView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTemplate.Execute(w, view); err != nil {
		ws.logger.Error("Failed to render form", "error", err)
	}
}

func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	req, err := ParseDashboardRequest(r.URL.Query(), ws.defaultGranularity())
	if err != nil {
		// Missing or malformed input is reported inline on the form; the
		// service stays ready for another attempt
		var valErr *ValidationError
		message := "invalid request"
		if errors.As(err, &valErr) {
			message = valErr.Message
		}
		q := r.URL.Query()
		ws.renderForm(w, formView{
			APIKey:   q.Get("api_key"),
			SiteID:   q.Get("site_id"),
			Start:    q.Get("start"),
			End:      q.Get("end"),
			Unit:     string(ParseUnit(q.Get("unit"))),
			TimeUnit: q.Get("time_unit"),
			Error:    message,
		})
		return
	}

	startTime := time.Now()
	data := BuildDashboard(r.Context(), ws.client, req)
	ws.logger.LogFetchCycle(req.Creds.SiteID, len(data.Readings), data.FailedDatasets(), time.Since(startTime).Seconds())

	page := dashboardCharts(data)
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		ws.logger.Error("Failed to render charts", "error", err)
		http.Error(w, "Failed to render charts", http.StatusInternalServerError)
		return
	}

	// go-echarts renders a bare chart page; inject the summary section and
	// styles around it
	html := buf.String()
	html = strings.Replace(html, "</head>", dashboardCSS+"</head>", 1)
	html = strings.Replace(html, "<body>", "<body>\n"+ws.buildSummaryHTML(req, data), 1)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

func (ws *WebServer) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	req, err := ParseDashboardRequest(r.URL.Query(), ws.defaultGranularity())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	data := BuildDashboard(r.Context(), ws.client, req)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   true,
		"dashboard": data,
	})
}

// parseExportRequest validates export query parameters and fetches the
// reading table they describe. Exports always re-fetch: the table reflects
// the latest data in exactly the requested unit, never a cached cycle.
func (ws *WebServer) parseExportRequest(r *http.Request) (*DashboardRequest, []EnergyReading, error) {
	req, err := ParseDashboardRequest(r.URL.Query(), ws.defaultGranularity())
	if err != nil {
		return nil, nil, err
	}

	readings, err := ws.client.GetEnergyDetails(r.Context(), req.Creds, req.Start, req.End, req.Granularity)
	if err != nil {
		return req, nil, err
	}
	return req, readings, nil
}

func exportErrorStatus(err error) int {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func (ws *WebServer) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	req, readings, err := ws.parseExportRequest(r)
	if err != nil {
		http.Error(w, fetchErrorMessage(datasetEnergy, err), exportErrorStatus(err))
		return
	}

	filename := fmt.Sprintf("solarview_%s_%s_%s.csv",
		req.Creds.SiteID,
		req.Start.Format(solarEdgeDateLayout),
		req.End.Format(solarEdgeDateLayout),
	)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := WriteReadingsCSV(w, readings, req.Unit); err != nil {
		ws.logger.Error("CSV export failed", "error", err)
	}
}

func (ws *WebServer) handleExportPNG(w http.ResponseWriter, r *http.Request) {
	req, readings, err := ws.parseExportRequest(r)
	if err != nil {
		http.Error(w, fetchErrorMessage(datasetEnergy, err), exportErrorStatus(err))
		return
	}

	daily := DailyTotals(readings)
	if len(daily) == 0 {
		http.Error(w, "no readings in the selected range", http.StatusNotFound)
		return
	}

	filename := fmt.Sprintf("solarview_%s_%s_%s.png",
		req.Creds.SiteID,
		req.Start.Format(solarEdgeDateLayout),
		req.End.Format(solarEdgeDateLayout),
	)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := RenderDailyTotalsPNG(w, daily, req.Unit); err != nil {
		ws.logger.Error("PNG export failed", "error", err)
	}
}

// summaryView carries the pre-formatted metric strings for the dashboard
// header section
type summaryView struct {
	SiteID     string
	RangeLabel string
	Unit       string
	FetchedAt  string

	CurrentPower  string
	TodayEnergy   string
	LifetimeKWh   string
	TotalEnergy   string
	Peak          string
	PeakTime      string
	CO2Saved      string
	Trees         string
	ReadingCount  string
	NoData        bool

	OverviewError    string
	EnvironmentError string
	EnergyError      string

	CSVHref string
	PNGHref string
}

func (ws *WebServer) buildSummaryHTML(req *DashboardRequest, data *DashboardData) string {
	view := summaryView{
		SiteID:     data.SiteID,
		RangeLabel: fmt.Sprintf("%s – %s", data.Start.Format(solarEdgeDateLayout), data.End.Format(solarEdgeDateLayout)),
		Unit:       data.Unit.Label(),
		FetchedAt:  data.FetchedAt.Format("2006-01-02 15:04:05"),

		OverviewError:    data.OverviewError,
		EnvironmentError: data.EnvironmentError,
		EnergyError:      data.EnergyError,

		CSVHref: "/export/csv?" + req.Query().Encode(),
		PNGHref: "/export/png?" + req.Query().Encode(),
	}

	if data.Overview != nil {
		view.CurrentPower = humanize.CommafWithDigits(data.Overview.CurrentPowerW, 0) + " W"
		view.TodayEnergy = humanize.CommafWithDigits(data.Unit.Convert(data.Overview.LastDayWh), 2) + " " + data.Unit.Label()
		view.LifetimeKWh = humanize.CommafWithDigits(data.Overview.LifetimeWh/WattHoursPerKilowattHour, 0) + " kWh"
	}

	if data.Environment != nil {
		view.CO2Saved = humanize.CommafWithDigits(data.Environment.CO2SavedKg, 0) + " kg"
		view.Trees = humanize.Comma(int64(data.Environment.TreesEquivalent))
	}

	if data.EnergyError == "" {
		view.ReadingCount = humanize.Comma(int64(len(data.Readings)))
		view.TotalEnergy = humanize.CommafWithDigits(data.Unit.Convert(data.TotalWh), 2) + " " + data.Unit.Label()
		if data.Peak != nil {
			view.Peak = humanize.CommafWithDigits(data.PeakWatts, 0) + " W"
			view.PeakTime = data.Peak.Timestamp.Format("2006-01-02 15:04")
		}
		view.NoData = len(data.Readings) == 0
	}

	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, view); err != nil {
		ws.logger.Error("Failed to render summary section", "error", err)
		return ""
	}
	return buf.String()
}

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>SolarEdge Production Dashboard</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            background: linear-gradient(135deg, #f59e0b 0%, #d97706 100%);
            color: white;
            min-height: 100vh;
            padding: 20px;
        }

        .container {
            max-width: 560px;
            margin: 0 auto;
        }

        .header {
            text-align: center;
            margin-bottom: 30px;
        }

        .header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }

        .card {
            background: rgba(255, 255, 255, 0.12);
            backdrop-filter: blur(10px);
            border-radius: 10px;
            padding: 25px;
        }

        .field {
            margin-bottom: 18px;
        }

        .field label {
            display: block;
            font-weight: bold;
            margin-bottom: 6px;
        }

        .field input, .field select {
            width: 100%;
            padding: 10px;
            border-radius: 6px;
            border: 1px solid rgba(255, 255, 255, 0.4);
            background: rgba(255, 255, 255, 0.9);
            color: #1f2937;
            font-size: 1rem;
        }

        .unit-toggle label {
            display: inline-block;
            font-weight: normal;
            margin-right: 20px;
        }

        .error {
            background: rgba(127, 29, 29, 0.6);
            border-left: 4px solid #f87171;
            border-radius: 4px;
            padding: 12px;
            margin-bottom: 18px;
        }

        button {
            width: 100%;
            padding: 12px;
            border: none;
            border-radius: 6px;
            background: #1f2937;
            color: white;
            font-size: 1.1rem;
            font-weight: bold;
            cursor: pointer;
        }

        button:hover {
            background: #374151;
        }

        .footer {
            text-align: center;
            margin-top: 25px;
            opacity: 0.7;
            font-size: 0.8rem;
            line-height: 1.4;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>☀️ SolarEdge Production Dashboard</h1>
        </div>

        <div class="card">
            {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
            <form action="/dashboard" method="get">
                <div class="field">
                    <label for="api_key">API Key</label>
                    <input type="password" id="api_key" name="api_key" value="{{.APIKey}}" autocomplete="off">
                </div>
                <div class="field">
                    <label for="site_id">Site ID</label>
                    <input type="text" id="site_id" name="site_id" value="{{.SiteID}}">
                </div>
                <div class="field">
                    <label for="start">Start Date</label>
                    <input type="date" id="start" name="start" value="{{.Start}}">
                </div>
                <div class="field">
                    <label for="end">End Date</label>
                    <input type="date" id="end" name="end" value="{{.End}}">
                </div>
                <div class="field unit-toggle">
                    <label>Energy unit:</label>
                    <label><input type="radio" name="unit" value="Wh" {{if ne .Unit "kWh"}}checked{{end}}> Wh</label>
                    <label><input type="radio" name="unit" value="kWh" {{if eq .Unit "kWh"}}checked{{end}}> kWh</label>
                </div>
                <input type="hidden" name="time_unit" value="{{.TimeUnit}}">
                <button type="submit">Fetch Data</button>
            </form>
        </div>

        <div class="footer">
            <p>This is an unofficial third-party application.
            "SolarEdge" is a trademark of SolarEdge Technologies.
            This application is not affiliated with, endorsed by, or connected to SolarEdge.</p>
        </div>
    </div>
</body>
</html>`))

var summaryTemplate = template.Must(template.New("summary").Parse(`<div class="summary-container">
    <div class="summary-header">
        <h1>☀️ SolarEdge Production Dashboard</h1>
        <div class="summary-sub">Site {{.SiteID}} | {{.RangeLabel}} | Unit: {{.Unit}} | Fetched: {{.FetchedAt}}</div>
        <div class="summary-links">
            <a href="/">New query</a>
            {{if .TotalEnergy}}<a href="{{.CSVHref}}">Download CSV</a>
            <a href="{{.PNGHref}}">Download PNG</a>{{end}}
        </div>
    </div>

    {{if .OverviewError}}<div class="dataset-error">{{.OverviewError}}</div>{{end}}
    {{if .EnvironmentError}}<div class="dataset-error">{{.EnvironmentError}}</div>{{end}}
    {{if .EnergyError}}<div class="dataset-error">{{.EnergyError}}</div>{{end}}
    {{if .NoData}}<div class="dataset-error">No data found in the selected range.</div>{{end}}

    <div class="metric-grid">
        {{if .CurrentPower}}<div class="metric"><div class="metric-value">{{.CurrentPower}}</div><div>Current Power</div></div>{{end}}
        {{if .TodayEnergy}}<div class="metric"><div class="metric-value">{{.TodayEnergy}}</div><div>Today</div></div>{{end}}
        {{if .LifetimeKWh}}<div class="metric"><div class="metric-value">{{.LifetimeKWh}}</div><div>Lifetime</div></div>{{end}}
        {{if .TotalEnergy}}<div class="metric"><div class="metric-value">{{.TotalEnergy}}</div><div>Total Energy</div></div>{{end}}
        {{if .Peak}}<div class="metric"><div class="metric-value">{{.Peak}}</div><div>Peak Power ({{.PeakTime}})</div></div>{{end}}
        {{if .CO2Saved}}<div class="metric"><div class="metric-value">{{.CO2Saved}}</div><div>CO2 Saved</div></div>{{end}}
        {{if .Trees}}<div class="metric"><div class="metric-value">{{.Trees}}</div><div>Trees Planted</div></div>{{end}}
        {{if .ReadingCount}}<div class="metric"><div class="metric-value">{{.ReadingCount}}</div><div>Readings</div></div>{{end}}
    </div>
</div>
`))

const dashboardCSS = `
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            max-width: 1400px;
            margin: 0 auto;
            padding: 20px;
        }
        .summary-container {
            margin-bottom: 25px;
        }
        .summary-header {
            border-bottom: 2px solid #f59e0b;
            padding-bottom: 12px;
            margin-bottom: 15px;
        }
        .summary-header h1 {
            margin: 0 0 6px 0;
            font-size: 1.5rem;
        }
        .summary-sub {
            color: #6b7280;
            font-size: 0.9rem;
        }
        .summary-links {
            margin-top: 8px;
        }
        .summary-links a {
            margin-right: 16px;
            color: #d97706;
            font-weight: bold;
            text-decoration: none;
        }
        .dataset-error {
            background: #fef2f2;
            border-left: 4px solid #f87171;
            color: #7f1d1d;
            border-radius: 4px;
            padding: 10px;
            margin-bottom: 10px;
        }
        .metric-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 12px;
        }
        .metric {
            background: #f9fafb;
            border: 1px solid #e5e7eb;
            border-radius: 8px;
            padding: 14px;
            text-align: center;
            color: #374151;
        }
        .metric-value {
            font-size: 1.3rem;
            font-weight: bold;
            margin-bottom: 4px;
            color: #111827;
        }
        .container {
            margin: 0 0 10px 0 !important;
        }
        .item > div[_echarts_instance_] {
            width: 100% !important;
        }
    </style>
`
