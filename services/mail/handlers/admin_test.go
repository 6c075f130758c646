// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/MailForge/services/llm"
	"github.com/AleutianAI/MailForge/services/mail/datatypes"
	"github.com/AleutianAI/MailForge/services/mail/registry"
)

// MockTuner implements llm.Tuner for admin endpoint testing.
type MockTuner struct {
	UploadedPath string
	FileID       string
	UploadErr    error

	CreatedParams llm.FineTuneParams
	CreatedJob    llm.FineTuneJob
	CreateErr     error

	RetrievedID  string
	RetrievedJob llm.FineTuneJob
	GetErr       error
}

func (m *MockTuner) UploadTrainingFile(ctx context.Context, path string) (string, error) {
	m.UploadedPath = path
	return m.FileID, m.UploadErr
}

func (m *MockTuner) CreateFineTune(ctx context.Context, params llm.FineTuneParams) (llm.FineTuneJob, error) {
	m.CreatedParams = params
	return m.CreatedJob, m.CreateErr
}

func (m *MockTuner) GetFineTune(ctx context.Context, jobID string) (llm.FineTuneJob, error) {
	m.RetrievedID = jobID
	return m.RetrievedJob, m.GetErr
}

// =============================================================================
// Model Administration
// =============================================================================

func TestAdminListIncludesPrivateModels(t *testing.T) {
	store := newStoreWithModels(t, `{
		"pub": {"id": "m1", "public": true},
		"priv": {"id": "m2", "public": false}
	}`)
	router := createTestRouter("GET", "/v1/admin/models", HandleAdminListModels(store))

	w := performRequest(router, "GET", "/v1/admin/models", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Models map[string]registry.Entry `json:"models"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Models, 2)
	assert.False(t, resp.Models["priv"].Public)
}

func TestUpsertModelDefaultsToPublic(t *testing.T) {
	store := newStoreWithModels(t, `{}`)
	router := createTestRouter("PUT", "/v1/admin/models", HandleUpsertModel(store))

	w := performRequest(router, "PUT", "/v1/admin/models",
		datatypes.UpsertModelRequest{Alias: "tuned", ID: "ft:gpt-4o-mini:org::abc"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"tuned": "ft:gpt-4o-mini:org::abc"}, store.PublicModels())
}

func TestUpsertModelHonorsPrivateFlag(t *testing.T) {
	store := newStoreWithModels(t, `{}`)
	router := createTestRouter("PUT", "/v1/admin/models", HandleUpsertModel(store))

	private := false
	w := performRequest(router, "PUT", "/v1/admin/models",
		datatypes.UpsertModelRequest{Alias: "staging", ID: "m2", Public: &private})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.PublicModels())
	assert.Len(t, store.Entries(), 1)
}

func TestUpsertModelRejectsMissingFields(t *testing.T) {
	store := newStoreWithModels(t, `{}`)
	router := createTestRouter("PUT", "/v1/admin/models", HandleUpsertModel(store))

	w := performRequest(router, "PUT", "/v1/admin/models",
		datatypes.UpsertModelRequest{Alias: "x"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveModel(t *testing.T) {
	store := newStoreWithModels(t, `{"gone": {"id": "m1", "public": true}}`)
	router := createTestRouter("DELETE", "/v1/admin/models/:alias", HandleRemoveModel(store))

	w := performRequest(router, "DELETE", "/v1/admin/models/gone", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.Entries())
}

func TestRemoveUnknownModelIs404(t *testing.T) {
	store := newStoreWithModels(t, `{}`)
	router := createTestRouter("DELETE", "/v1/admin/models/:alias", HandleRemoveModel(store))

	w := performRequest(router, "DELETE", "/v1/admin/models/nope", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// Fine-Tune Endpoints
// =============================================================================

func buildDataRequest(t *testing.T, csvContents string, senders []string, group string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "export.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csvContents))
	require.NoError(t, err)
	for _, s := range senders {
		require.NoError(t, mw.WriteField("senders", s))
	}
	if group != "" {
		require.NoError(t, mw.WriteField("group_by_first_name", group))
	}
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest("POST", "/v1/admin/finetune/data", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const exportCSV = "Parsed From,Parsed Subject,Parsed Body\nJane Doe,Lunch,See you at noon\nJane Doe (Work),Re: Lunch,Works for me\nBob Smith,Budget,Numbers attached\n"

func TestBuildDataWritesTrainingFile(t *testing.T) {
	mgr := NewFineTuneManager(&MockTuner{}, newStoreWithModels(t, `{}`), t.TempDir())
	router := createTestRouter("POST", "/v1/admin/finetune/data", mgr.HandleBuildData())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, buildDataRequest(t, exportCSV, []string{"Jane Doe"}, ""))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		TrainingFile string `json:"training_file"`
		Examples     int    `json:"examples"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Examples)
	assert.FileExists(t, resp.TrainingFile)
}

func TestBuildDataGroupsByFirstName(t *testing.T) {
	mgr := NewFineTuneManager(&MockTuner{}, newStoreWithModels(t, `{}`), t.TempDir())
	router := createTestRouter("POST", "/v1/admin/finetune/data", mgr.HandleBuildData())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, buildDataRequest(t, exportCSV, []string{"Jane"}, "true"))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Examples int `json:"examples"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Examples, "both Jane variations selected via first name")
}

func TestBuildDataUnknownSenderIs422(t *testing.T) {
	mgr := NewFineTuneManager(&MockTuner{}, newStoreWithModels(t, `{}`), t.TempDir())
	router := createTestRouter("POST", "/v1/admin/finetune/data", mgr.HandleBuildData())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, buildDataRequest(t, exportCSV, []string{"Nobody"}, ""))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateJobUploadsThenStartsFineTune(t *testing.T) {
	tuner := &MockTuner{
		FileID:     "file-123",
		CreatedJob: llm.FineTuneJob{ID: "ftjob-1", Status: "queued"},
	}
	mgr := NewFineTuneManager(tuner, newStoreWithModels(t, `{}`), t.TempDir())
	router := createTestRouter("POST", "/v1/admin/finetune/jobs", mgr.HandleCreateJob())

	epochs := 3
	w := performRequest(router, "POST", "/v1/admin/finetune/jobs", datatypes.FineTuneJobRequest{
		TrainingFile: "/data/filtered_data.jsonl",
		BaseModel:    "gpt-4o-mini-2024-07-18",
		Epochs:       &epochs,
	})

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "/data/filtered_data.jsonl", tuner.UploadedPath)
	assert.Equal(t, "file-123", tuner.CreatedParams.TrainingFile)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", tuner.CreatedParams.BaseModel)
	require.NotNil(t, tuner.CreatedParams.Epochs)
	assert.Equal(t, 3, *tuner.CreatedParams.Epochs)
}

func TestSucceededJobRegistersTunedModelAsPublic(t *testing.T) {
	tuner := &MockTuner{
		FileID:     "file-123",
		CreatedJob: llm.FineTuneJob{ID: "ftjob-1", Status: "queued"},
		RetrievedJob: llm.FineTuneJob{
			ID:             "ftjob-1",
			Status:         "succeeded",
			FineTunedModel: "ft:gpt-4o-mini:org::abc",
		},
	}
	store := newStoreWithModels(t, `{}`)
	mgr := NewFineTuneManager(tuner, store, t.TempDir())

	createRouter := createTestRouter("POST", "/v1/admin/finetune/jobs", mgr.HandleCreateJob())
	w := performRequest(createRouter, "POST", "/v1/admin/finetune/jobs", datatypes.FineTuneJobRequest{
		TrainingFile:  "/data/filtered_data.jsonl",
		BaseModel:     "gpt-4o-mini-2024-07-18",
		RegisterAlias: "jane-voice",
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	getRouter := createTestRouter("GET", "/v1/admin/finetune/jobs/:id", mgr.HandleGetJob())
	w = performRequest(getRouter, "GET", "/v1/admin/finetune/jobs/ftjob-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ftjob-1", tuner.RetrievedID)
	assert.Equal(t, map[string]string{"jane-voice": "ft:gpt-4o-mini:org::abc"}, store.PublicModels())
}

func TestFineTuneEndpointsRequireCredentials(t *testing.T) {
	mgr := NewFineTuneManager(nil, newStoreWithModels(t, `{}`), t.TempDir())
	router := createTestRouter("POST", "/v1/admin/finetune/jobs", mgr.HandleCreateJob())

	w := performRequest(router, "POST", "/v1/admin/finetune/jobs", datatypes.FineTuneJobRequest{
		TrainingFile: "x",
		BaseModel:    "y",
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
