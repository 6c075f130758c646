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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewritePromptTemplate(t *testing.T) {
	prompt, err := BuildPrompt(KindRewrite, "hi team, meeting at 3", "")
	require.NoError(t, err)
	assert.Equal(t, "Please rewrite this email:\n\nhi team, meeting at 3", prompt)
}

func TestReplyPromptTemplate(t *testing.T) {
	prompt, err := BuildPrompt(KindReply, "can you make Friday?", "")
	require.NoError(t, err)
	assert.Equal(t, "Please write a reply to this email:\n\ncan you make Friday?", prompt)
}

func TestRevisePromptTemplate(t *testing.T) {
	prompt, err := BuildPrompt(KindRevise, "can you make Friday?", "yes I can")
	require.NoError(t, err)
	assert.Equal(t,
		"Original Email:\ncan you make Friday?\n\nYour Reply:\nyes I can\n\nPlease improve this reply while maintaining the same general message.",
		prompt)
}

func TestReviseWithBlankDraftFallsBackToRewrite(t *testing.T) {
	prompt, err := BuildPrompt(KindRevise, "can you make Friday?", "   \n")
	require.NoError(t, err)
	assert.Equal(t, "Please rewrite this email:\n\ncan you make Friday?", prompt)
}

func TestUnknownWorkflowRejected(t *testing.T) {
	_, err := BuildPrompt(Kind("summarize"), "x", "")
	assert.Error(t, err)
}

func TestKindValidity(t *testing.T) {
	assert.True(t, KindRewrite.Valid())
	assert.True(t, KindReply.Valid())
	assert.True(t, KindRevise.Valid())
	assert.False(t, Kind("").Valid())
	assert.False(t, Kind("translate").Valid())
}

func TestPersonaDefaultsLocation(t *testing.T) {
	p := Persona{DisplayName: "Sam"}
	assert.Equal(t, "You are Sam, a professional based in New York. Write email text in their natural voice and keep their tone.", p.SystemPrompt())
}

func TestPersonaUsesGivenLocation(t *testing.T) {
	p := Persona{DisplayName: "Sam", Location: "Amsterdam"}
	assert.Contains(t, p.SystemPrompt(), "based in Amsterdam")
}

func TestPersonaEmptyWithoutDisplayName(t *testing.T) {
	assert.Empty(t, Persona{Location: "Amsterdam"}.SystemPrompt())
	assert.Empty(t, Persona{DisplayName: "   "}.SystemPrompt())
}
