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
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/MailForge/services/mail/registry"
)

func openRegistry() *registry.Store {
	path := config.ModelsFile
	if path == "" {
		path = "models.json"
	}
	return registry.NewStore(path)
}

func runModelsList(cmd *cobra.Command, args []string) {
	store := openRegistry()
	entries := store.Entries()
	if len(entries) == 0 {
		fmt.Println("No models registered.")
		return
	}

	aliases := make([]string, 0, len(entries))
	for alias := range entries {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ALIAS\tMODEL ID\tVISIBILITY")
	for _, alias := range aliases {
		entry := entries[alias]
		visibility := "public"
		if !entry.Public {
			visibility = "private"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", alias, entry.ID, visibility)
	}
	_ = w.Flush()
}

func runModelsAdd(cmd *cobra.Command, args []string) {
	store := openRegistry()
	entry := registry.Entry{ID: modelID, Public: !modelPrivate}
	if err := store.Upsert(modelAlias, entry); err != nil {
		log.Fatalf("Failed to add model: %v", err)
	}
	fmt.Printf("Registered %q as %s\n", modelAlias, modelID)
}

func runModelsRemove(cmd *cobra.Command, args []string) {
	store := openRegistry()
	if err := store.Remove(args[0]); err != nil {
		log.Fatalf("Failed to remove model: %v", err)
	}
	fmt.Printf("Removed %q from the registry\n", args[0])
}
