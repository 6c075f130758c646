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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/MailForge/services/mail/datatypes"
	"github.com/AleutianAI/MailForge/services/mail/registry"
)

// HandleListModels serves GET /v1/models: the public alias -> identifier
// view, re-read from disk so the UI always reflects the current file.
// A missing or malformed registry is a warning, never an error status.
func HandleListModels(store *registry.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		models := store.LoadPublicModels()
		resp := datatypes.ModelsResponse{Models: models}
		if len(models) == 0 {
			resp.Warning = "No publicly visible models. Please contact the admin or make some models public."
		} else if len(models) < 2 {
			resp.Warning = "At least two public models are required before generation is offered."
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleHealthCheck serves GET /health.
func HandleHealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "mailforge"})
	}
}
