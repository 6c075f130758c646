// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances manually and records exit calls.
type fakeClock struct {
	current  time.Time
	exited   bool
	exitCode int
}

func newGuardWithClock(timeout time.Duration) (*Guard, *fakeClock) {
	clk := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g := NewGuard(timeout)
	g.now = func() time.Time { return clk.current }
	g.exit = func(code int) {
		clk.exited = true
		clk.exitCode = code
	}
	g.lastActive = clk.current
	return g, clk
}

func TestActivityWithinTimeoutKeepsSessionAlive(t *testing.T) {
	g, clk := newGuardWithClock(300 * time.Second)

	clk.current = clk.current.Add(299 * time.Second)
	g.Touch()

	assert.False(t, clk.exited)
}

func TestExpiryTerminatesOnNextInteraction(t *testing.T) {
	g, clk := newGuardWithClock(300 * time.Second)

	clk.current = clk.current.Add(301 * time.Second)
	g.Touch()

	assert.True(t, clk.exited)
	assert.Equal(t, 0, clk.exitCode, "hard stop carries no exit code distinction")
}

func TestEachInteractionRestartsTheClock(t *testing.T) {
	g, clk := newGuardWithClock(300 * time.Second)

	for i := 0; i < 5; i++ {
		clk.current = clk.current.Add(200 * time.Second)
		g.Touch()
	}

	assert.False(t, clk.exited, "steady activity must never expire the session")
}

func TestNonPositiveTimeoutUsesDefault(t *testing.T) {
	g := NewGuard(0)
	assert.Equal(t, DefaultTimeout, g.timeout)
}

func TestNoBackgroundExpiry(t *testing.T) {
	_, clk := newGuardWithClock(300 * time.Second)

	// Idle far past the timeout with no interaction: nothing happens
	// until the next Touch.
	clk.current = clk.current.Add(24 * time.Hour)

	assert.False(t, clk.exited)
}
