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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/MailForge/services/mail/datatypes"
	"github.com/AleutianAI/MailForge/services/mail/registry"
)

// HandleAdminListModels serves GET /v1/admin/models: the full registry,
// private entries included.
func HandleAdminListModels(store *registry.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Reload(); err != nil {
			slog.Warn("Admin model listing with unreadable registry", "error", err)
		}
		c.JSON(http.StatusOK, gin.H{"models": store.Entries()})
	}
}

// HandleUpsertModel serves PUT /v1/admin/models. Missing "public" defaults
// to visible, matching the registry file convention.
func HandleUpsertModel(store *registry.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UpsertModelRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		public := true
		if req.Public != nil {
			public = *req.Public
		}
		if err := store.Upsert(req.Alias, registry.Entry{ID: req.ID, Public: public}); err != nil {
			slog.Error("Failed to upsert model", "alias", req.Alias, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Model upserted", "alias", req.Alias, "public", public)
		c.JSON(http.StatusOK, gin.H{"models": store.Entries()})
	}
}

// HandleRemoveModel serves DELETE /v1/admin/models/:alias.
func HandleRemoveModel(store *registry.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		alias := c.Param("alias")
		if err := store.Remove(alias); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Model removed", "alias", alias)
		c.JSON(http.StatusOK, gin.H{"models": store.Entries()})
	}
}
