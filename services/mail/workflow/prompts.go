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
)

// Kind names one of the three email workflows.
type Kind string

const (
	// KindRewrite rewrites the user's own email.
	KindRewrite Kind = "rewrite"

	// KindReply generates a fresh reply to a received email.
	KindReply Kind = "reply"

	// KindRevise improves the user's draft reply to a received email.
	KindRevise Kind = "revise"
)

// Valid reports whether k is one of the three known workflows.
func (k Kind) Valid() bool {
	switch k {
	case KindRewrite, KindReply, KindRevise:
		return true
	}
	return false
}

// BuildPrompt renders the user turn for a workflow. The wording is part of
// the product behavior; fine-tuned models were trained against these exact
// templates, so do not reword them.
//
// A revise request with a blank draft degrades to the rewrite prompt.
func BuildPrompt(kind Kind, email, draftReply string) (string, error) {
	switch kind {
	case KindRewrite:
		return fmt.Sprintf("Please rewrite this email:\n\n%s", email), nil
	case KindReply:
		return fmt.Sprintf("Please write a reply to this email:\n\n%s", email), nil
	case KindRevise:
		if strings.TrimSpace(draftReply) == "" {
			return fmt.Sprintf("Please rewrite this email:\n\n%s", email), nil
		}
		return fmt.Sprintf(
			"Original Email:\n%s\n\nYour Reply:\n%s\n\nPlease improve this reply while maintaining the same general message.",
			email, draftReply), nil
	default:
		return "", fmt.Errorf("unknown workflow %q", kind)
	}
}
