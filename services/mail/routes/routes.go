// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/MailForge/services/mail/handlers"
	"github.com/AleutianAI/MailForge/services/mail/registry"
	"github.com/AleutianAI/MailForge/services/mail/session"
	"github.com/AleutianAI/MailForge/services/mail/ui"
	"github.com/AleutianAI/MailForge/services/mail/workflow"
)

// SetupRoutes wires the full HTTP surface.
//
// The session guard covers the /v1 group only: liveness probes, metrics
// scrapes, and static assets must neither keep a session alive nor be able
// to terminate the process.
func SetupRoutes(router *gin.Engine, store *registry.Store, orc *workflow.Orchestrator,
	ftm *handlers.FineTuneManager, guard *session.Guard) {

	router.GET("/health", handlers.HandleHealthCheck())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.StaticFS("/ui", ui.FileSystem())

	// Friendly redirects to the actual HTML file
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/ui/index.html")
	})
	router.GET("/mail", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/ui/index.html")
	})

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(guard.Middleware())
	{
		v1.GET("/models", handlers.HandleListModels(store))

		email := v1.Group("/email")
		{
			email.POST("/rewrite", handlers.HandleRewrite(orc))
			email.POST("/reply", handlers.HandleReply(orc))
			email.POST("/revise", handlers.HandleRevise(orc))
		}

		// Model and fine-tune administration routes
		admin := v1.Group("/admin")
		{
			admin.GET("/models", handlers.HandleAdminListModels(store))
			admin.PUT("/models", handlers.HandleUpsertModel(store))
			admin.DELETE("/models/:alias", handlers.HandleRemoveModel(store))

			admin.POST("/finetune/data", ftm.HandleBuildData())
			admin.POST("/finetune/jobs", ftm.HandleCreateJob())
			admin.GET("/finetune/jobs/:id", ftm.HandleGetJob())
		}
	}
}
