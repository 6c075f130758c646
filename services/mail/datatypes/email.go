// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response types for the mail
// service HTTP surface.
package datatypes

import (
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxEmailBytes is the maximum size of a submitted email or draft.
	// Byte length, not rune count; oversized payloads are rejected before
	// any upstream call.
	MaxEmailBytes = 32 * 1024 // 32KB

	// MaxSenderFieldBytes bounds the free-text persona fields.
	MaxSenderFieldBytes = 256
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// mailValidate is the validator instance for mail datatypes.
// Initialized in init() with custom validators.
var mailValidate *validator.Validate

func init() {
	mailValidate = validator.New()
	_ = mailValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length (not rune count) against MaxEmailBytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxEmailBytes
}

// =============================================================================
// Generation Request Types
// =============================================================================

// RewriteRequest asks for rewrites of the user's own email.
//
// # Fields
//
//   - Email: Required. The email body to rewrite, max 32KB.
//   - SenderName: Optional. Display name used to derive the persona.
//   - SenderLocation: Optional. Persona location; blank means New York.
//   - Temperature: Optional. Sampling temperature, 0.0-2.0. Nil uses the
//     upstream default.
type RewriteRequest struct {
	Email          string   `json:"email" validate:"required,maxbytes"`
	SenderName     string   `json:"sender_name" validate:"max=256"`
	SenderLocation string   `json:"sender_location" validate:"max=256"`
	Temperature    *float32 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

// Validate checks the request against its declared constraints.
func (r *RewriteRequest) Validate() error {
	return mailValidate.Struct(r)
}

// ReplyRequest asks for fresh replies to a received email.
type ReplyRequest struct {
	Email          string   `json:"email" validate:"required,maxbytes"`
	SenderName     string   `json:"sender_name" validate:"max=256"`
	SenderLocation string   `json:"sender_location" validate:"max=256"`
	Temperature    *float32 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

// Validate checks the request against its declared constraints.
func (r *ReplyRequest) Validate() error {
	return mailValidate.Struct(r)
}

// ReviseRequest asks for improved versions of the user's draft reply.
// A blank draft degrades to a rewrite of the original email.
type ReviseRequest struct {
	Email          string   `json:"email" validate:"required,maxbytes"`
	Reply          string   `json:"reply" validate:"maxbytes"`
	SenderName     string   `json:"sender_name" validate:"max=256"`
	SenderLocation string   `json:"sender_location" validate:"max=256"`
	Temperature    *float32 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

// Validate checks the request against its declared constraints.
func (r *ReviseRequest) Validate() error {
	return mailValidate.Struct(r)
}

// =============================================================================
// Generation Response Types
// =============================================================================

// GenerationResponse is the batch result for any of the three workflows.
// Samples are keyed by model alias; per-alias order matches generation
// order. Warnings name the slots that produced nothing.
type GenerationResponse struct {
	ID        string              `json:"id"`
	Workflow  string              `json:"workflow"`
	CreatedAt int64               `json:"created_at"`
	Samples   map[string][]string `json:"samples"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// ModelsResponse is the public registry view.
type ModelsResponse struct {
	Models  map[string]string `json:"models"`
	Warning string            `json:"warning,omitempty"`
}

// =============================================================================
// Admin Types
// =============================================================================

// UpsertModelRequest adds or replaces a registry entry.
type UpsertModelRequest struct {
	Alias  string `json:"alias" validate:"required,max=128"`
	ID     string `json:"id" validate:"required,max=256"`
	Public *bool  `json:"public"`
}

// Validate checks the request against its declared constraints.
func (r *UpsertModelRequest) Validate() error {
	return mailValidate.Struct(r)
}

// FineTuneJobRequest starts a fine-tune job from a prepared JSONL file.
type FineTuneJobRequest struct {
	TrainingFile           string   `json:"training_file" validate:"required"`
	BaseModel              string   `json:"base_model" validate:"required"`
	Suffix                 string   `json:"suffix" validate:"max=64"`
	Epochs                 *int     `json:"epochs" validate:"omitempty,gte=1,lte=50"`
	BatchSize              *int     `json:"batch_size" validate:"omitempty,gte=1,lte=256"`
	LearningRateMultiplier *float64 `json:"learning_rate_multiplier" validate:"omitempty,gt=0"`

	// RegisterAlias, when set, adds the tuned model to the registry once
	// the job succeeds (checked on status polls).
	RegisterAlias string `json:"register_alias" validate:"max=128"`
}

// Validate checks the request against its declared constraints.
func (r *FineTuneJobRequest) Validate() error {
	return mailValidate.Struct(r)
}
