// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

// =============================================================================
// Logger Tests
// =============================================================================

func logFilePath(dir, service string) string {
	name := service + "_" + time.Now().Format("2006-01-02") + ".log"
	return filepath.Join(dir, name)
}

func TestNew_FileOutputIsJSON(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "mailforge-test",
		Quiet:   true,
	})

	logger.Info("registry reloaded", "public_models", 2)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logFilePath(dir, "mailforge-test"))
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "registry reloaded", entry["msg"])
	assert.Equal(t, "mailforge-test", entry["service"])
	assert.EqualValues(t, 2, entry["public_models"])
}

func TestNew_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelWarn,
		LogDir:  dir,
		Service: "filter-test",
		Quiet:   true,
	})

	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logFilePath(dir, "filter-test"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestWith_CarriesAttributes(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "with-test", Quiet: true})

	child := logger.With("request_id", "abc-123")
	child.Info("processing")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logFilePath(dir, "with-test"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "abc-123")
}

func TestClose_WithoutFile(t *testing.T) {
	logger := Default()
	assert.NoError(t, logger.Close())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".mailforge/logs"), expandPath("~/.mailforge/logs"))
	assert.Equal(t, "/var/log/mailforge", expandPath("/var/log/mailforge"))
}
