// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workflow

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/MailForge/services/mail/sanitizer"
)

// DefaultLocation is used when the sender gives a display name but no
// location.
const DefaultLocation = "New York"

// Persona is derived fresh for every request from the sender's display name
// and location. It is never persisted.
type Persona struct {
	DisplayName string
	Location    string
}

// SystemPrompt renders the persona as a system instruction. Returns the
// empty string when no display name is set; callers must then omit the
// system turn entirely.
func (p Persona) SystemPrompt() string {
	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		return ""
	}
	location := strings.TrimSpace(p.Location)
	if location == "" {
		location = DefaultLocation
	}
	return fmt.Sprintf("You are %s, a professional based in %s. Write email text in their natural voice and keep their tone.", name, location)
}

// protectedNameInstruction forbids the blocklisted names, except any name
// the sender's own display name matches.
func protectedNameInstruction(displayName string) string {
	lowered := strings.ToLower(displayName)
	var names []string
	for _, name := range sanitizer.ProtectedNames() {
		if strings.Contains(lowered, strings.ToLower(name)) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("Never mention, address, or sign with the names %s unless they already appear in the email you were given.",
		strings.Join(names, ", "))
}
