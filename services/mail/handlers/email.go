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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/MailForge/services/mail/datatypes"
	"github.com/AleutianAI/MailForge/services/mail/registry"
	"github.com/AleutianAI/MailForge/services/mail/workflow"
)

var mailTracer = otel.Tracer("aleutian.mailforge.handlers")

// APIKeyHeader optionally carries a user-supplied OpenAI key for one
// request, overriding the server's ambient credentials.
const APIKeyHeader = "X-OpenAI-Key"

// HandleRewrite serves POST /v1/email/rewrite.
func HandleRewrite(orc *workflow.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := mailTracer.Start(c.Request.Context(), "HandleRewrite")
		defer span.End()

		var req datatypes.RewriteRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the rewrite request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := orc.Run(ctx, workflow.Request{
			Kind:           workflow.KindRewrite,
			Email:          req.Email,
			SenderName:     req.SenderName,
			SenderLocation: req.SenderLocation,
			Temperature:    req.Temperature,
			APIKey:         c.GetHeader(APIKeyHeader),
		})
		if err != nil {
			writeWorkflowError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, toGenerationResponse(result))
	}
}

// HandleReply serves POST /v1/email/reply.
func HandleReply(orc *workflow.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := mailTracer.Start(c.Request.Context(), "HandleReply")
		defer span.End()

		var req datatypes.ReplyRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the reply request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := orc.Run(ctx, workflow.Request{
			Kind:           workflow.KindReply,
			Email:          req.Email,
			SenderName:     req.SenderName,
			SenderLocation: req.SenderLocation,
			Temperature:    req.Temperature,
			APIKey:         c.GetHeader(APIKeyHeader),
		})
		if err != nil {
			writeWorkflowError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, toGenerationResponse(result))
	}
}

// HandleRevise serves POST /v1/email/revise.
func HandleRevise(orc *workflow.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := mailTracer.Start(c.Request.Context(), "HandleRevise")
		defer span.End()

		var req datatypes.ReviseRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the revise request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := orc.Run(ctx, workflow.Request{
			Kind:           workflow.KindRevise,
			Email:          req.Email,
			DraftReply:     req.Reply,
			SenderName:     req.SenderName,
			SenderLocation: req.SenderLocation,
			Temperature:    req.Temperature,
			APIKey:         c.GetHeader(APIKeyHeader),
		})
		if err != nil {
			writeWorkflowError(c, span, err)
			return
		}
		c.JSON(http.StatusOK, toGenerationResponse(result))
	}
}

// writeWorkflowError maps orchestrator failures to user-facing responses.
// Batch-level failures are the only errors that reach here; slot failures
// are already warnings inside the result.
func writeWorkflowError(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	switch {
	case errors.Is(err, workflow.ErrNoPublicModels):
		slog.Warn("Workflow refused: model registry empty or unreadable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "no models are currently available; contact the admin or try again later",
		})
	case errors.Is(err, registry.ErrNotEnoughModels):
		slog.Warn("Workflow refused: fewer than two public models")
		c.JSON(http.StatusConflict, gin.H{
			"error": "at least two public models are required before generation is offered",
		})
	case errors.Is(err, workflow.ErrNoClient):
		slog.Warn("Workflow refused: no inference credentials")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "no API key configured; set OPENAI_API_KEY on the server or supply the " + APIKeyHeader + " header",
		})
	default:
		slog.Error("Workflow failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func toGenerationResponse(result *workflow.Result) datatypes.GenerationResponse {
	return datatypes.GenerationResponse{
		ID:        result.ID,
		Workflow:  string(result.Workflow),
		CreatedAt: result.CreatedAt.Unix(),
		Samples:   result.Samples,
		Warnings:  result.Warnings,
	}
}
