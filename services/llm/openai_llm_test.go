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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// newTestClient points an OpenAIClient at a local stub server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func TestChatSendsModelAndReturnsContent(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": "Sounds good, see you then."},
					"finish_reason": "stop",
				},
			},
		})
	})

	temp := float32(0.8)
	out, err := client.Chat(context.Background(),
		[]Message{
			{Role: RoleSystem, Content: "You are a professional."},
			{Role: RoleUser, Content: "Please rewrite this email:\n\nhi"},
		},
		ChatParams{Model: "gpt-4o-mini", Temperature: &temp},
	)

	require.NoError(t, err)
	assert.Equal(t, "Sounds good, see you then.", out)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, RoleSystem, gotReq.Messages[0].Role)
	assert.InDelta(t, 0.8, gotReq.Temperature, 0.001)
}

func TestChatRequiresModelIdentifier(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, ChatParams{})

	assert.Error(t, err)
}

func TestChatRejectsEmptyChoiceList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-2","object":"chat.completion","choices":[]}`))
	})

	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, ChatParams{Model: "m"})

	assert.ErrorContains(t, err, "no choices")
}
