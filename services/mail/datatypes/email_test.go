// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteRequestRequiresEmail(t *testing.T) {
	req := RewriteRequest{}
	assert.Error(t, req.Validate())

	req.Email = "hi team"
	assert.NoError(t, req.Validate())
}

func TestEmailSizeLimitIsBytes(t *testing.T) {
	req := RewriteRequest{Email: strings.Repeat("a", MaxEmailBytes)}
	assert.NoError(t, req.Validate())

	req.Email += "a"
	assert.Error(t, req.Validate())
}

func TestTemperatureRange(t *testing.T) {
	ok := float32(0.7)
	req := ReplyRequest{Email: "x", Temperature: &ok}
	assert.NoError(t, req.Validate())

	tooHot := float32(2.1)
	req.Temperature = &tooHot
	assert.Error(t, req.Validate())

	zero := float32(0)
	req.Temperature = &zero
	assert.NoError(t, req.Validate(), "temperature 0 is a valid explicit choice")
}

func TestReviseRequestAllowsBlankDraft(t *testing.T) {
	req := ReviseRequest{Email: "original"}
	assert.NoError(t, req.Validate())
}

func TestUpsertModelRequestValidation(t *testing.T) {
	req := UpsertModelRequest{}
	assert.Error(t, req.Validate())

	req = UpsertModelRequest{Alias: "prod", ID: "ft:gpt-4o-mini:org::abc"}
	assert.NoError(t, req.Validate())
}

func TestFineTuneJobRequestValidation(t *testing.T) {
	req := FineTuneJobRequest{}
	assert.Error(t, req.Validate())

	epochs := 3
	req = FineTuneJobRequest{
		TrainingFile: "/data/filtered_data.jsonl",
		BaseModel:    "gpt-4o-mini-2024-07-18",
		Epochs:       &epochs,
	}
	assert.NoError(t, req.Validate())

	bad := 0
	req.Epochs = &bad
	assert.Error(t, req.Validate())
}
