// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session enforces the coarse inactivity timeout. Expiry is checked
// once per interaction, not on a background timer; when the gap since the
// last interaction exceeds the timeout the whole process terminates
// unconditionally. No graceful shutdown, no partial-state save.
package session

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultTimeout is the session inactivity limit.
const DefaultTimeout = 300 * time.Second

// Guard tracks the last interaction time and terminates the process when a
// new interaction arrives after the timeout has lapsed.
//
// # Thread Safety
//
// Safe for concurrent use.
type Guard struct {
	mu         sync.Mutex
	timeout    time.Duration
	lastActive time.Time

	// now and exit are injectable for tests.
	now  func() time.Time
	exit func(code int)
}

// NewGuard creates a guard with the given timeout; non-positive values fall
// back to DefaultTimeout. The clock starts at construction.
func NewGuard(timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	g := &Guard{
		timeout: timeout,
		now:     time.Now,
		exit:    os.Exit,
	}
	g.lastActive = g.now()
	return g
}

// Touch records one interaction. If the session already expired the process
// is stopped hard; otherwise the inactivity clock restarts.
func (g *Guard) Touch() {
	g.mu.Lock()
	now := g.now()
	idle := now.Sub(g.lastActive)
	if idle > g.timeout {
		g.mu.Unlock()
		slog.Warn("session expired, terminating",
			"idle_seconds", int(idle.Seconds()),
			"timeout_seconds", int(g.timeout.Seconds()))
		g.exit(0)
		return
	}
	g.lastActive = now
	g.mu.Unlock()
}

// Middleware applies the guard to every request on a router group. Mount it
// on the interactive API surface only; liveness and metrics endpoints must
// not keep a session alive or be able to kill the process.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		g.Touch()
		c.Next()
	}
}
