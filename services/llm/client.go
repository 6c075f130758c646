// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import "context"

// Message roles, mirroring the chat-completion wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn in a chat-completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams carries per-call generation settings. The model identifier is
// required; nil optionals use the backend's defaults.
type ChatParams struct {
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

// Client defines the standard interface for any chat-completion backend.
type Client interface {
	Chat(ctx context.Context, messages []Message, params ChatParams) (string, error)
}

// FineTuneParams describes a fine-tune job to create. TrainingFile is the
// backend's file identifier returned by UploadTrainingFile, not a local path.
type FineTuneParams struct {
	TrainingFile           string   `json:"training_file"`
	BaseModel              string   `json:"base_model"`
	Suffix                 string   `json:"suffix,omitempty"`
	Epochs                 *int     `json:"epochs,omitempty"`
	BatchSize              *int     `json:"batch_size,omitempty"`
	LearningRateMultiplier *float64 `json:"learning_rate_multiplier,omitempty"`
}

// FineTuneJob is the backend's view of a fine-tune job.
type FineTuneJob struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	BaseModel      string `json:"base_model"`
	FineTunedModel string `json:"fine_tuned_model,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	FinishedAt     int64  `json:"finished_at,omitempty"`
}

// Tuner is implemented by backends that support fine-tuning.
type Tuner interface {
	UploadTrainingFile(ctx context.Context, path string) (string, error)
	CreateFineTune(ctx context.Context, params FineTuneParams) (FineTuneJob, error)
	GetFineTune(ctx context.Context, jobID string) (FineTuneJob, error)
}
