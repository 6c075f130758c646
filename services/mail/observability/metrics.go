// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the mail service.
//
// # Description
//
// Metrics cover the three generation workflows end to end:
//   - Request counters (by workflow and status)
//   - Per-slot generation counters (by model alias and outcome)
//   - Sanitizer outcomes and name redactions
//   - Workflow latency histograms
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "mailforge"

// Subsystem for generation metrics
const generationSubsystem = "generation"

// MailMetrics holds all Prometheus metrics for email generation operations.
//
// # Fields
//
//   - RequestsTotal: Counter of workflow requests by workflow and status
//   - GenerationSlotsTotal: Counter of (alias, sample) slots by outcome
//   - SanitizerOutcomesTotal: Counter of sanitizer results (clean, redacted, failed)
//   - SanitizerAttempts: Histogram of generate attempts consumed per slot
//   - RedactionsTotal: Counter of placeholder substitutions by protected name
//   - WorkflowDurationSeconds: Histogram of full-batch workflow duration
//
// # Thread Safety
//
// All operations are thread-safe.
type MailMetrics struct {
	// RequestsTotal counts workflow requests.
	// Labels: workflow (rewrite, reply, revise), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// GenerationSlotsTotal counts individual (alias, sample) slots.
	// Labels: alias, outcome (ok, skipped)
	GenerationSlotsTotal *prometheus.CounterVec

	// SanitizerOutcomesTotal counts sanitizer results.
	// Labels: outcome (clean, redacted, failed)
	SanitizerOutcomesTotal *prometheus.CounterVec

	// SanitizerAttempts measures generate calls consumed per slot.
	SanitizerAttempts prometheus.Histogram

	// RedactionsTotal counts placeholder substitutions.
	// Labels: name
	RedactionsTotal *prometheus.CounterVec

	// WorkflowDurationSeconds measures full-batch duration.
	// Labels: workflow
	WorkflowDurationSeconds *prometheus.HistogramVec
}

// DefaultMetrics is the singleton instance of MailMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *MailMetrics

// InitMetrics initializes the default metrics instance.
//
// Call once at application startup. Panics if called twice (duplicate
// registration with the default Prometheus registry).
func InitMetrics() *MailMetrics {
	DefaultMetrics = &MailMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: generationSubsystem,
				Name:      "requests_total",
				Help:      "Total workflow requests by workflow and status",
			},
			[]string{"workflow", "status"},
		),

		GenerationSlotsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: generationSubsystem,
				Name:      "slots_total",
				Help:      "Total (alias, sample) generation slots by outcome",
			},
			[]string{"alias", "outcome"},
		),

		SanitizerOutcomesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: generationSubsystem,
				Name:      "sanitizer_outcomes_total",
				Help:      "Sanitizer results by outcome",
			},
			[]string{"outcome"},
		),

		SanitizerAttempts: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: generationSubsystem,
				Name:      "sanitizer_attempts",
				Help:      "Generate calls consumed per slot",
				Buckets:   []float64{1, 2, 3, 4, 5},
			},
		),

		RedactionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: generationSubsystem,
				Name:      "redactions_total",
				Help:      "Placeholder substitutions by protected name",
			},
			[]string{"name"},
		),

		WorkflowDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: generationSubsystem,
				Name:      "workflow_duration_seconds",
				Help:      "Full-batch workflow duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"workflow"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Helper Functions
// =============================================================================
//
// Package-level helpers no-op when InitMetrics has not run, so library code
// and tests can call them unconditionally.

// RecordRequest records a completed workflow request.
func RecordRequest(workflow string, success bool) {
	if DefaultMetrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	DefaultMetrics.RequestsTotal.WithLabelValues(workflow, status).Inc()
}

// RecordSlot records one (alias, sample) generation slot.
func RecordSlot(alias string, ok bool) {
	if DefaultMetrics == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "skipped"
	}
	DefaultMetrics.GenerationSlotsTotal.WithLabelValues(alias, outcome).Inc()
}

// RecordSanitizerOutcome records a sanitizer result and the attempts consumed.
func RecordSanitizerOutcome(outcome string, attempts int) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.SanitizerOutcomesTotal.WithLabelValues(outcome).Inc()
	DefaultMetrics.SanitizerAttempts.Observe(float64(attempts))
}

// RecordRedaction records one placeholder substitution.
func RecordRedaction(name string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.RedactionsTotal.WithLabelValues(name).Inc()
}

// RecordWorkflowDuration records the full-batch duration for a workflow.
func RecordWorkflowDuration(workflow string, seconds float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.WorkflowDurationSeconds.WithLabelValues(workflow).Observe(seconds)
}
