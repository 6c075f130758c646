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
// Request Orchestrator
// =============================================================================
//
// Package workflow turns one user action into a batch of sanitized
// generation calls: one prompt per workflow, persona and blocklist
// instructions prepended as system turns, then one call per (model, sample)
// pair, sequentially, collecting whatever succeeds.
//
// Sample counts are asymmetric. The primary model (lexicographically first
// public alias) gets three samples for rewrites; for the reply and revise
// workflows the secondary model gets the three instead. The inversion is
// long-standing product behavior tuned against the fine-tuned model pairs
// in production registries; keep it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/MailForge/services/llm"
	"github.com/AleutianAI/MailForge/services/mail/observability"
	"github.com/AleutianAI/MailForge/services/mail/registry"
	"github.com/AleutianAI/MailForge/services/mail/sanitizer"
)

// Sample counts per (model, workflow) role.
const (
	favoredSampleCount = 3
	defaultSampleCount = 1
)

// ErrNoPublicModels indicates the registry is empty or unreadable; no
// generation can be offered.
var ErrNoPublicModels = errors.New("no public models available")

// ErrNoClient indicates neither an ambient inference client nor a
// per-request API key is available.
var ErrNoClient = errors.New("no inference client configured")

// Request is one user action. Constructed fresh per button press and not
// retained.
type Request struct {
	Kind           Kind
	Email          string
	DraftReply     string
	SenderName     string
	SenderLocation string
	Temperature    *float32

	// APIKey optionally overrides the server's ambient credentials for
	// this request only, e.g. a key the user typed into the UI.
	APIKey string
}

// Result collects the batch outcome. Samples are keyed by model alias with
// per-alias order preserved; Warnings names the slots that produced nothing.
type Result struct {
	ID        string              `json:"id"`
	Workflow  Kind                `json:"workflow"`
	CreatedAt time.Time           `json:"created_at"`
	Samples   map[string][]string `json:"samples"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// Orchestrator runs generation batches against the registry's public models.
type Orchestrator struct {
	store  *registry.Store
	client llm.Client

	// ClientForKey builds a one-off client for a per-request API key.
	// Left nil, per-request keys are rejected.
	ClientForKey func(apiKey string) llm.Client

	// MaxAttempts bounds the sanitizer retry loop per slot.
	MaxAttempts int
}

// NewOrchestrator creates an orchestrator. client may be nil when the
// deployment relies exclusively on per-request keys.
func NewOrchestrator(store *registry.Store, client llm.Client) *Orchestrator {
	return &Orchestrator{
		store:       store,
		client:      client,
		MaxAttempts: sanitizer.DefaultMaxAttempts,
	}
}

// Run executes one workflow batch.
//
// # Description
//
//	Resolves the public model set and role assignment, assembles the message
//	list, then issues sanitized generation calls sequentially, one network
//	round-trip at a time. Slot failures become warnings, not errors; partial
//	results are expected. Errors are returned only when the whole batch is
//	impossible (no models, fewer than two models, no client, bad workflow).
//
// # Outputs
//
//   - *Result: samples keyed by alias, per-alias order preserved.
//   - error: ErrNoPublicModels, registry.ErrNotEnoughModels, ErrNoClient,
//     or a prompt construction failure.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	prompt, err := BuildPrompt(req.Kind, req.Email, req.DraftReply)
	if err != nil {
		observability.RecordRequest(string(req.Kind), false)
		return nil, err
	}

	public := o.store.PublicModels()
	if len(public) == 0 {
		observability.RecordRequest(string(req.Kind), false)
		return nil, ErrNoPublicModels
	}
	roles, err := registry.AssignRoles(public)
	if err != nil {
		observability.RecordRequest(string(req.Kind), false)
		return nil, err
	}

	client, err := o.resolveClient(req.APIKey)
	if err != nil {
		observability.RecordRequest(string(req.Kind), false)
		return nil, err
	}

	messages := o.buildMessages(req, prompt)

	// The rewrite workflow favors the primary model; reply and revise
	// favor the secondary.
	favored := roles.Secondary
	if req.Kind == KindRewrite {
		favored = roles.Primary
	}

	// Names the user typed themselves are allowed through the sanitizer.
	inputText := req.Email
	if req.Kind == KindRevise {
		inputText = req.Email + "\n" + req.DraftReply
	}

	result := &Result{
		ID:        uuid.NewString(),
		Workflow:  req.Kind,
		CreatedAt: time.Now().UTC(),
		Samples:   make(map[string][]string),
	}

	for _, alias := range registry.SortedAliases(public) {
		modelID := public[alias]
		count := defaultSampleCount
		if alias == favored {
			count = favoredSampleCount
		}

		for i := 0; i < count; i++ {
			generate := func(ctx context.Context) (string, error) {
				return client.Chat(ctx, messages, llm.ChatParams{
					Model:       modelID,
					Temperature: req.Temperature,
				})
			}
			text, err := sanitizer.Sanitize(ctx, generate, inputText, o.MaxAttempts)
			if err != nil {
				slog.Warn("could not generate sample",
					"workflow", req.Kind,
					"alias", alias,
					"sample", i+1,
					"error", err)
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("could not generate sample %d for %s", i+1, alias))
				observability.RecordSlot(alias, false)
				continue
			}
			result.Samples[alias] = append(result.Samples[alias], text)
			observability.RecordSlot(alias, true)
		}
	}

	observability.RecordRequest(string(req.Kind), true)
	observability.RecordWorkflowDuration(string(req.Kind), time.Since(start).Seconds())
	slog.Info("workflow batch complete",
		"workflow", req.Kind,
		"request_id", result.ID,
		"models", len(public),
		"warnings", len(result.Warnings),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func (o *Orchestrator) resolveClient(apiKey string) (llm.Client, error) {
	if apiKey != "" {
		if o.ClientForKey == nil {
			return nil, ErrNoClient
		}
		return o.ClientForKey(apiKey), nil
	}
	if o.client == nil {
		return nil, ErrNoClient
	}
	return o.client, nil
}

// buildMessages assembles the ordered message list: persona first (when
// present), then the blocklist instruction, then the user turn.
func (o *Orchestrator) buildMessages(req Request, prompt string) []llm.Message {
	var messages []llm.Message
	persona := Persona{DisplayName: req.SenderName, Location: req.SenderLocation}
	if sys := persona.SystemPrompt(); sys != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: sys})
	}
	if guard := protectedNameInstruction(req.SenderName); guard != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: guard})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})
	return messages
}
