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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	flagPort           string
	flagModelsFile     string
	flagDataDir        string
	flagSessionTimeout int

	modelAlias   string
	modelID      string
	modelPrivate bool

	prepareSenders []string
	prepareGroup   bool
	prepareOutput  string

	rootCmd = &cobra.Command{
		Use:   "mailforge",
		Short: "A cli to run and manage the MailForge email writing service",
		Long: `MailForge serves email rewrite, reply, and revision workflows
				backed by fine-tuned language models you manage yourself.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the MailForge HTTP server",
		Run:   runServe, // Defined in cmd_serve.go
	}

	// --- Model Registry Management ---
	modelsCmd = &cobra.Command{
		Use:   "models",
		Short: "Manage the model registry file",
	}
	modelsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all registered models, including private ones",
		Run:   runModelsList, // Defined in cmd_models.go
	}
	modelsAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Add or update a model alias in the registry",
		Run:   runModelsAdd, // Defined in cmd_models.go
	}
	modelsRemoveCmd = &cobra.Command{
		Use:   "remove [alias]",
		Short: "Remove a model alias from the registry",
		Args:  cobra.ExactArgs(1),
		Run:   runModelsRemove, // Defined in cmd_models.go
	}

	// --- Fine-Tune Utilities ---
	finetuneCmd = &cobra.Command{
		Use:   "finetune",
		Short: "Prepare fine-tune training data from exported email CSVs",
	}
	finetunePrepareCmd = &cobra.Command{
		Use:   "prepare [csv_file...]",
		Short: "Build a JSONL training file from parsed email CSV exports",
		Args:  cobra.MinimumNArgs(1),
		Run:   runFineTunePrepare, // Defined in cmd_finetune.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagModelsFile, "models-file", "",
		"Path to the JSON model registry (default models.json)")

	serveCmd.Flags().StringVar(&flagPort, "port", "",
		"HTTP listen port (default 12310)")
	serveCmd.Flags().StringVar(&flagDataDir, "data-dir", "",
		"Directory for fine-tune training files (default data)")
	serveCmd.Flags().IntVar(&flagSessionTimeout, "session-timeout", 0,
		"Idle seconds before the session terminates (default 300)")

	modelsAddCmd.Flags().StringVar(&modelAlias, "alias", "", "Display alias for the model")
	modelsAddCmd.Flags().StringVar(&modelID, "id", "", "Backend model identifier")
	modelsAddCmd.Flags().BoolVar(&modelPrivate, "private", false,
		"Hide the model from the public list")
	_ = modelsAddCmd.MarkFlagRequired("alias")
	_ = modelsAddCmd.MarkFlagRequired("id")

	finetunePrepareCmd.Flags().StringSliceVar(&prepareSenders, "senders", nil,
		"Sender names to keep (matched case-insensitively)")
	finetunePrepareCmd.Flags().BoolVar(&prepareGroup, "group-by-first-name", false,
		"Expand each sender to everyone sharing their first name")
	finetunePrepareCmd.Flags().StringVar(&prepareOutput, "output", "filtered_data.jsonl",
		"Path of the JSONL file to write")

	modelsCmd.AddCommand(modelsListCmd, modelsAddCmd, modelsRemoveCmd)
	finetuneCmd.AddCommand(finetunePrepareCmd)
	rootCmd.AddCommand(serveCmd, modelsCmd, finetuneCmd)
}
