// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log/slog"
	"os"
	"strconv"
)

// Config holds the server settings. Precedence, lowest to highest:
// built-in defaults, config.yaml, environment variables, CLI flags.
type Config struct {
	// Port is the HTTP listen port.
	Port string `yaml:"port"`

	// ModelsFile is the path to the JSON model registry.
	ModelsFile string `yaml:"models_file"`

	// DataDir is where fine-tune training files are written.
	DataDir string `yaml:"data_dir"`

	// LogDir enables daily JSON log files when set.
	LogDir string `yaml:"log_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// SessionTimeoutSeconds is the idle time after which the next
	// interactive request terminates the process.
	SessionTimeoutSeconds int `yaml:"session_timeout_seconds"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Port:                  "12310",
		ModelsFile:            "models.json",
		DataDir:               "data",
		LogLevel:              "info",
		SessionTimeoutSeconds: 300,
	}
}

// ApplyEnv overrides config values from MAILFORGE_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MAILFORGE_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("MAILFORGE_MODELS_FILE"); v != "" {
		c.ModelsFile = v
	}
	if v := os.Getenv("MAILFORGE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("MAILFORGE_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("MAILFORGE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MAILFORGE_SESSION_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			slog.Warn("Ignoring invalid MAILFORGE_SESSION_TIMEOUT_SECONDS", "value", v)
		} else {
			c.SessionTimeoutSeconds = seconds
		}
	}
}

// ApplyFlags overrides config values from CLI flags that were set.
func (c *Config) ApplyFlags() {
	if flagPort != "" {
		c.Port = flagPort
	}
	if flagModelsFile != "" {
		c.ModelsFile = flagModelsFile
	}
	if flagDataDir != "" {
		c.DataDir = flagDataDir
	}
	if flagSessionTimeout > 0 {
		c.SessionTimeoutSeconds = flagSessionTimeout
	}
}
