// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// =============================================================================
// Response Sanitizer
// =============================================================================
//
// Package sanitizer decides whether a generated email text is acceptable and,
// when it is not, retries generation or redacts the offending names.
//
// A candidate is clean when every protected name is either absent from the
// candidate (case-insensitive substring match) or already present in the text
// the user submitted. Names the user typed themselves are never touched.
package sanitizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/AleutianAI/MailForge/services/mail/observability"
)

// Placeholder replaces an offending name when every attempt came back unclean.
const Placeholder = "[Name]"

// DefaultMaxAttempts bounds the regenerate loop when the caller passes zero.
const DefaultMaxAttempts = 3

// protectedNames is the fixed blocklist. It is deliberately not configurable
// at runtime; changing it is a code change.
var protectedNames = []string{"Scott", "Jos", "Marieke", "Deborah"}

// stripLiterals are removed from every candidate before the cleanliness
// check, so they never trigger the redaction logic themselves.
var stripLiterals = []string{
	"Sent from my iPhone",
	"Get Outlook for iOS",
}

// GenerateFunc produces one candidate text. Each invocation is one call to
// the upstream model.
type GenerateFunc func(ctx context.Context) (string, error)

// ProtectedNames returns a copy of the blocklist.
func ProtectedNames() []string {
	out := make([]string, len(protectedNames))
	copy(out, protectedNames)
	return out
}

// Sanitize runs generate up to maxAttempts times and returns the first clean
// candidate.
//
// # Description
//
//	Each candidate first has the fixed editorial literals stripped, then is
//	checked against the blocklist. A clean candidate is returned immediately
//	with no further generate calls. If no attempt is clean, the last
//	successful candidate is returned with the lowercase, UPPERCASE, and
//	Title-case forms of each offending name replaced by Placeholder. The
//	redacted text is not re-verified.
//
// # Inputs
//
//   - ctx: passed through to generate.
//   - generate: one upstream model call per invocation.
//   - inputText: the user-supplied text; names already present here are
//     allowed through untouched.
//   - maxAttempts: retry bound; values < 1 fall back to DefaultMaxAttempts.
//
// # Outputs
//
//   - string: clean or redacted text.
//   - error: non-nil only when every generate call failed; wraps the last
//     failure.
func Sanitize(ctx context.Context, generate GenerateFunc, inputText string, maxAttempts int) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	var candidate string
	produced := false

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := generate(ctx)
		if err != nil {
			lastErr = err
			slog.Warn("sanitizer: generation attempt failed",
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"error", err)
			continue
		}
		produced = true
		candidate = stripEditorialLiterals(text)

		offending := offendingNames(candidate, inputText)
		if len(offending) == 0 {
			observability.RecordSanitizerOutcome("clean", attempt)
			return candidate, nil
		}
		slog.Debug("sanitizer: candidate leaked protected names",
			"attempt", attempt,
			"offending_count", len(offending))
	}

	if !produced {
		observability.RecordSanitizerOutcome("failed", maxAttempts)
		return "", fmt.Errorf("all %d generation attempts failed: %w", maxAttempts, lastErr)
	}

	offending := offendingNames(candidate, inputText)
	for _, name := range offending {
		observability.RecordRedaction(name)
	}
	observability.RecordSanitizerOutcome("redacted", maxAttempts)
	slog.Info("sanitizer: redacting final candidate",
		"offending_count", len(offending))
	return redact(candidate, offending), nil
}

func stripEditorialLiterals(text string) string {
	for _, lit := range stripLiterals {
		text = strings.ReplaceAll(text, lit, "")
	}
	return text
}

// offendingNames returns the protected names present in the candidate but
// absent from the user's input, in blocklist order.
func offendingNames(candidate, inputText string) []string {
	var offending []string
	for _, name := range protectedNames {
		if containsFold(candidate, name) && !containsFold(inputText, name) {
			offending = append(offending, name)
		}
	}
	return offending
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// redact replaces the three conventional case forms of each offending name.
// Substring matches inside longer words are replaced too; callers get no
// re-verification pass.
func redact(text string, offending []string) string {
	for _, name := range offending {
		text = strings.ReplaceAll(text, strings.ToLower(name), Placeholder)
		text = strings.ReplaceAll(text, strings.ToUpper(name), Placeholder)
		text = strings.ReplaceAll(text, titleCase(name), Placeholder)
	}
	return text
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
