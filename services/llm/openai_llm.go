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

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const openAISecretPath = "/run/secrets/openai_api_key"

// defaultRequestsPerSecond throttles outbound calls; overridable via
// OPENAI_RPS. The batch loop is sequential, so a small burst is enough.
const defaultRequestsPerSecond = 2

type OpenAIClient struct {
	client  *openai.Client
	limiter *rate.Limiter
}

// NewOpenAIClient builds a client from ambient configuration. The API key
// comes from OPENAI_API_KEY or, failing that, the container secret file.
func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKeyBytes, err := os.ReadFile(openAISecretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API Key from Podman Secrets")
		} else {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", openAISecretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	return NewOpenAIClientWithKey(apiKey), nil
}

// NewOpenAIClientWithKey builds a client for an explicitly supplied key,
// e.g. one the user typed into the UI for a single request.
func NewOpenAIClientWithKey(apiKey string) *OpenAIClient {
	rps := float64(defaultRequestsPerSecond)
	if v := os.Getenv("OPENAI_RPS"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			slog.Warn("Invalid OPENAI_RPS, using default", "value", v)
		} else {
			rps = parsed
		}
	}
	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Chat implements the Client interface.
func (o *OpenAIClient) Chat(ctx context.Context, messages []Message, params ChatParams) (string, error) {
	if params.Model == "" {
		return "", fmt.Errorf("model identifier is required")
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	slog.Debug("Generating text via OpenAI", "model", params.Model, "messages", len(messages))

	req := openai.ChatCompletionRequest{
		Model:    params.Model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("OpenAI API call failed", "model", params.Model, "error", err)
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices or empty content")
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// UploadTrainingFile implements the Tuner interface. The file must already
// be in JSONL chat format.
func (o *OpenAIClient) UploadTrainingFile(ctx context.Context, path string) (string, error) {
	file, err := o.client.CreateFile(ctx, openai.FileRequest{
		FileName: filepath.Base(path),
		FilePath: path,
		Purpose:  "fine-tune",
	})
	if err != nil {
		return "", fmt.Errorf("upload training file: %w", err)
	}
	slog.Info("Uploaded fine-tune training file", "file_id", file.ID)
	return file.ID, nil
}

// CreateFineTune implements the Tuner interface.
func (o *OpenAIClient) CreateFineTune(ctx context.Context, params FineTuneParams) (FineTuneJob, error) {
	req := openai.FineTuningJobRequest{
		TrainingFile: params.TrainingFile,
		Model:        params.BaseModel,
		Suffix:       params.Suffix,
	}
	hp := &openai.Hyperparameters{}
	hasHP := false
	if params.Epochs != nil {
		hp.Epochs = *params.Epochs
		hasHP = true
	}
	if params.BatchSize != nil {
		hp.BatchSize = *params.BatchSize
		hasHP = true
	}
	if params.LearningRateMultiplier != nil {
		hp.LearningRateMultiplier = *params.LearningRateMultiplier
		hasHP = true
	}
	if hasHP {
		req.Hyperparameters = hp
	}

	job, err := o.client.CreateFineTuningJob(ctx, req)
	if err != nil {
		return FineTuneJob{}, fmt.Errorf("create fine-tune job: %w", err)
	}
	slog.Info("Created fine-tune job", "job_id", job.ID, "base_model", params.BaseModel)
	return convertFineTuningJob(job), nil
}

// GetFineTune implements the Tuner interface.
func (o *OpenAIClient) GetFineTune(ctx context.Context, jobID string) (FineTuneJob, error) {
	job, err := o.client.RetrieveFineTuningJob(ctx, jobID)
	if err != nil {
		return FineTuneJob{}, fmt.Errorf("retrieve fine-tune job %s: %w", jobID, err)
	}
	return convertFineTuningJob(job), nil
}

func convertFineTuningJob(job openai.FineTuningJob) FineTuneJob {
	return FineTuneJob{
		ID:             job.ID,
		Status:         job.Status,
		BaseModel:      job.Model,
		FineTunedModel: job.FineTunedModel,
		CreatedAt:      job.CreatedAt,
		FinishedAt:     job.FinishedAt,
	}
}
