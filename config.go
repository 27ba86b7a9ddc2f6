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
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	WebPort        int    `yaml:"web_port"`
	Debug          bool   `yaml:"debug"`
	JSONLogs       bool   `yaml:"json_logs"`
	RequestTimeout int    `yaml:"request_timeout_seconds"`
	TimeUnit       string `yaml:"time_unit"`
	BaseURL        string `yaml:"base_url"`
}

func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		WebPort:        WebDefaultPort,
		Debug:          false,
		JSONLogs:       false,
		RequestTimeout: int(HTTPClientTimeout.Seconds()),
		TimeUnit:       string(GranularityQuarterHour),
	}

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func (c *Config) ApplyDefaults() {
	if c.WebPort <= 0 {
		c.WebPort = WebDefaultPort
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = int(HTTPClientTimeout.Seconds())
	}
	if c.TimeUnit == "" {
		c.TimeUnit = string(GranularityQuarterHour)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	if c.WebPort < 1 || c.WebPort > 65535 {
		errors = append(errors, fmt.Sprintf("web port must be between 1-65535, got: %d", c.WebPort))
	}
	if c.WebPort < 1024 && c.WebPort != 0 {
		errors = append(errors, fmt.Sprintf("warning: port %d requires root privileges (consider using 8080 or higher)", c.WebPort))
	}

	if c.RequestTimeout < 1 {
		errors = append(errors, fmt.Sprintf("request timeout must be at least 1 second, got: %d", c.RequestTimeout))
	}
	if c.RequestTimeout > 300 {
		errors = append(errors, fmt.Sprintf("request timeout seems too long (%d seconds), a slow API response will hang the page that long", c.RequestTimeout))
	}

	if !Granularity(c.TimeUnit).Valid() {
		errors = append(errors, fmt.Sprintf("time unit must be one of %s, %s, %s, got: %s",
			GranularityQuarterHour, GranularityHour, GranularityDay, c.TimeUnit))
	}

	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http") {
		errors = append(errors, fmt.Sprintf("base URL must be an http(s) URL, got: %s", c.BaseURL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
