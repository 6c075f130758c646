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
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/MailForge/services/mail/finetune"
)

func runFineTunePrepare(cmd *cobra.Command, args []string) {
	rows, err := finetune.ReadRowFiles(args...)
	if err != nil {
		log.Fatalf("Failed to read CSV files: %v", err)
	}
	fmt.Printf("Read %d rows from %d file(s)\n", len(rows), len(args))

	// Without --senders there is nothing to filter on, so show who is
	// available in the export instead.
	if len(prepareSenders) == 0 {
		fmt.Println("No --senders given. Senders found in the export:")
		for _, sender := range finetune.UniqueSenders(rows) {
			fmt.Println("  " + sender)
		}
		return
	}

	senders := prepareSenders
	if prepareGroup {
		groups := finetune.GroupByFirstName(finetune.UniqueSenders(rows))
		expanded := make([]string, 0, len(senders))
		for _, sender := range senders {
			first := finetune.FirstName(sender)
			matched := false
			for name, members := range groups {
				if strings.EqualFold(name, first) {
					expanded = append(expanded, members...)
					matched = true
				}
			}
			if !matched {
				expanded = append(expanded, sender)
			}
		}
		senders = expanded
		fmt.Printf("Grouping by first name matched %d sender(s)\n", len(senders))
	}

	count, err := finetune.BuildJSONLFile(rows, senders, prepareOutput)
	if err != nil {
		log.Fatalf("Failed to write training file: %v", err)
	}
	if count == 0 {
		log.Fatalf("No rows matched the requested senders; nothing written to %s", prepareOutput)
	}
	fmt.Printf("Wrote %d training example(s) to %s\n", count, prepareOutput)
}
