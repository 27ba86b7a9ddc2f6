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
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	// Credentials from a local .env file pre-fill the query form; a missing
	// file is not an error
	_ = godotenv.Load()

	var configPath string
	var debug, jsonLogs, showVersion bool
	var webPort, timeout int

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	flag.IntVar(&webPort, "port", 0, "Web UI port (default: 8080)")
	flag.IntVar(&timeout, "timeout", 0, "Monitoring API request timeout in seconds (default: 30)")
	flag.Parse()

	// Handle version flag
	if showVersion {
		fmt.Printf("solarview %s\n", GetVersion())
		fmt.Printf("User-Agent: %s\n", GetUserAgent())
		os.Exit(0)
	}

	// Load configuration file if provided
	config, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Error loading config file: %v", err)
	}
	config.ApplyDefaults()

	// Command line arguments override the config file
	if webPort > 0 {
		config.WebPort = webPort
	}
	if timeout > 0 {
		config.RequestTimeout = timeout
	}
	if debug {
		config.Debug = true
	}
	if jsonLogs {
		config.JSONLogs = true
	}

	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var logger *Logger
	if config.JSONLogs {
		logger = NewJSONLogger(config.Debug)
	} else {
		logger = NewLogger(config.Debug)
	}

	logger.Info("Starting SolarEdge production dashboard",
		"version", GetVersion(),
		"port", config.WebPort,
		"timeout_seconds", config.RequestTimeout,
	)
	if key := os.Getenv(EnvAPIKey); key != "" {
		logger.Info("Query form will be pre-filled from environment",
			"api_key", maskAPIKey(key),
			"site_id", os.Getenv(EnvSiteID),
		)
	}

	client := NewSolarEdgeClient(config.BaseURL, time.Duration(config.RequestTimeout)*time.Second, logger)
	server := NewWebServer(client, config, logger)

	logger.Info("Web UI available", "url", fmt.Sprintf("http://localhost:%d", config.WebPort))
	if err := server.Start(); err != nil {
		log.Fatalf("Web server failed: %v", err)
	}
}
