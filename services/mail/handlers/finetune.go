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
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/MailForge/services/llm"
	"github.com/AleutianAI/MailForge/services/mail/datatypes"
	"github.com/AleutianAI/MailForge/services/mail/finetune"
	"github.com/AleutianAI/MailForge/services/mail/registry"
)

// FineTuneManager wires the fine-tune admin endpoints together: data
// preparation writes JSONL files into dataDir, job creation uploads them,
// and status polls register succeeded models into the registry.
type FineTuneManager struct {
	tuner   llm.Tuner
	store   *registry.Store
	dataDir string

	mu sync.Mutex
	// registerAliases remembers which alias a job's tuned model should be
	// published under once the job succeeds.
	registerAliases map[string]string
}

// NewFineTuneManager creates a manager. tuner may be nil when the server
// has no ambient credentials; the endpoints then answer 503.
func NewFineTuneManager(tuner llm.Tuner, store *registry.Store, dataDir string) *FineTuneManager {
	return &FineTuneManager{
		tuner:           tuner,
		store:           store,
		dataDir:         dataDir,
		registerAliases: map[string]string{},
	}
}

// HandleBuildData serves POST /v1/admin/finetune/data.
//
// Multipart form: one or more "files" CSV uploads, repeated "senders"
// values, optional "group_by_first_name". When grouping is on, each sender
// value is a first name expanded to every matching full sender.
func (m *FineTuneManager) HandleBuildData() gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form upload"})
			return
		}
		files := form.File["files"]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no CSV files uploaded"})
			return
		}
		selected := form.Value["senders"]
		if len(selected) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pick at least one sender to filter on"})
			return
		}

		var rows []finetune.Row
		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("open %s: %v", fh.Filename, err)})
				return
			}
			fileRows, err := finetune.ReadRows(f)
			f.Close()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("parse %s: %v", fh.Filename, err)})
				return
			}
			rows = append(rows, fileRows...)
		}

		groupByFirstName, _ := strconv.ParseBool(c.PostForm("group_by_first_name"))
		senders := selected
		if groupByFirstName {
			groups := finetune.GroupByFirstName(finetune.UniqueSenders(rows))
			senders = nil
			for _, firstName := range selected {
				if variations, ok := groups[firstName]; ok {
					senders = append(senders, variations...)
				} else {
					senders = append(senders, firstName)
				}
			}
		}

		outPath := filepath.Join(m.dataDir, fmt.Sprintf("finetune-%s.jsonl", uuid.NewString()))
		count, err := finetune.BuildJSONLFile(rows, senders, outPath)
		if err != nil {
			slog.Error("Failed to write fine-tune JSONL", "path", outPath, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if count == 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no rows found for those senders"})
			return
		}

		slog.Info("Fine-tune data prepared", "path", outPath, "examples", count)
		c.JSON(http.StatusOK, gin.H{"training_file": outPath, "examples": count})
	}
}

// HandleCreateJob serves POST /v1/admin/finetune/jobs.
func (m *FineTuneManager) HandleCreateJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.tuner == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "fine-tuning requires server-side API credentials"})
			return
		}
		var req datatypes.FineTuneJobRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		fileID, err := m.tuner.UploadTrainingFile(ctx, req.TrainingFile)
		if err != nil {
			slog.Error("Training file upload failed", "file", req.TrainingFile, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		job, err := m.tuner.CreateFineTune(ctx, llm.FineTuneParams{
			TrainingFile:           fileID,
			BaseModel:              req.BaseModel,
			Suffix:                 req.Suffix,
			Epochs:                 req.Epochs,
			BatchSize:              req.BatchSize,
			LearningRateMultiplier: req.LearningRateMultiplier,
		})
		if err != nil {
			slog.Error("Fine-tune job creation failed", "base_model", req.BaseModel, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		if req.RegisterAlias != "" {
			m.mu.Lock()
			m.registerAliases[job.ID] = req.RegisterAlias
			m.mu.Unlock()
		}

		slog.Info("Fine-tune job created", "job_id", job.ID, "base_model", req.BaseModel)
		c.JSON(http.StatusAccepted, job)
	}
}

// HandleGetJob serves GET /v1/admin/finetune/jobs/:id. A succeeded job with
// a pending alias registration publishes the tuned model as public, same as
// the model management flow.
func (m *FineTuneManager) HandleGetJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.tuner == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "fine-tuning requires server-side API credentials"})
			return
		}
		jobID := c.Param("id")
		job, err := m.tuner.GetFineTune(c.Request.Context(), jobID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		if job.Status == "succeeded" && job.FineTunedModel != "" {
			m.maybeRegister(job)
		}
		c.JSON(http.StatusOK, job)
	}
}

func (m *FineTuneManager) maybeRegister(job llm.FineTuneJob) {
	m.mu.Lock()
	alias, ok := m.registerAliases[job.ID]
	if ok {
		delete(m.registerAliases, job.ID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if err := m.store.Upsert(alias, registry.Entry{ID: job.FineTunedModel, Public: true}); err != nil {
		slog.Error("Failed to register fine-tuned model", "alias", alias, "error", err)
		return
	}
	slog.Info("Fine-tuned model registered", "alias", alias, "model", job.FineTunedModel)
}
