// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/MailForge/pkg/logging"
	"github.com/AleutianAI/MailForge/services/llm"
	"github.com/AleutianAI/MailForge/services/mail/handlers"
	"github.com/AleutianAI/MailForge/services/mail/observability"
	"github.com/AleutianAI/MailForge/services/mail/registry"
	"github.com/AleutianAI/MailForge/services/mail/routes"
	"github.com/AleutianAI/MailForge/services/mail/session"
	"github.com/AleutianAI/MailForge/services/mail/workflow"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	// Get the collector URL from the env var set in the compose file
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "mailforge-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("mailforge-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func runServe(cmd *cobra.Command, args []string) {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(config.LogLevel),
		LogDir:  config.LogDir,
		Service: "mailforge",
		JSON:    true,
	})
	defer func() { _ = logger.Close() }()
	logging.SetDefault(logger)

	observability.InitMetrics()

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	if err := os.MkdirAll(config.DataDir, 0o750); err != nil {
		log.Fatalf("FATAL: Could not create data directory %s: %v", config.DataDir, err)
	}

	store := registry.NewStore(config.ModelsFile)

	watcher, err := registry.NewFileWatcher(store, nil)
	if err != nil {
		slog.Warn("Registry file watching disabled", "error", err)
	} else {
		go watcher.Start(context.Background())
		defer func() {
			if err := watcher.Stop(); err != nil {
				slog.Warn("Failed to stop registry watcher", "error", err)
			}
		}()
	}

	// Server-side credentials are optional. Without them every request
	// must carry its own key in the X-OpenAI-Key header.
	var chatClient llm.Client
	var tuner llm.Tuner
	openAIClient, err := llm.NewOpenAIClient()
	if err != nil {
		slog.Warn("No server-side OpenAI credentials; requests must supply their own key",
			"error", err)
	} else {
		chatClient = openAIClient
		tuner = openAIClient
	}

	orc := workflow.NewOrchestrator(store, chatClient)
	orc.ClientForKey = func(apiKey string) llm.Client {
		return llm.NewOpenAIClientWithKey(apiKey)
	}

	ftm := handlers.NewFineTuneManager(tuner, store, config.DataDir)

	timeout := time.Duration(config.SessionTimeoutSeconds) * time.Second
	guard := session.NewGuard(timeout)

	router := gin.Default()
	router.Use(otelgin.Middleware("mailforge-service"))

	routes.SetupRoutes(router, store, orc, ftm, guard)

	slog.Info("Starting the MailForge server",
		"port", config.Port,
		"models_file", config.ModelsFile,
		"session_timeout", timeout.String())
	if err := router.Run(":" + config.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
