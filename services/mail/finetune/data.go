// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// =============================================================================
// Fine-Tune Data Preparation
// =============================================================================
//
// Package finetune converts exported email CSVs into chat-format JSONL
// training files. Rows are filtered to a chosen set of senders so a tuned
// model learns one author's voice; senders can be grouped by first name to
// capture address-book variations of the same person.
//
// Expected CSV columns: "Parsed From", "Parsed Subject", "Parsed Body".
package finetune

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/AleutianAI/MailForge/services/llm"
)

// CSV column names produced by the mailbox export tooling.
const (
	columnFrom    = "Parsed From"
	columnSubject = "Parsed Subject"
	columnBody    = "Parsed Body"
)

// userContentTemplate is the user turn written for every training example.
// Tuned models expect this exact wording at inference time.
const userContentTemplate = "Subject: %s\nPlease respond with the email body style."

// Row is one exported email.
type Row struct {
	From    string
	Subject string
	Body    string
}

// trainingExample is one JSONL line in the chat fine-tune format.
type trainingExample struct {
	Messages []llm.Message `json:"messages"`
}

// ReadRows parses one CSV stream into rows. Columns beyond the three known
// ones are ignored; short records yield empty fields rather than errors.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		rows = append(rows, Row{
			From:    field(record, index, columnFrom),
			Subject: field(record, index, columnSubject),
			Body:    field(record, index, columnBody),
		})
	}
	return rows, nil
}

// ReadRowFiles reads and concatenates several CSV files.
func ReadRowFiles(paths ...string) ([]Row, error) {
	var all []Row
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		rows, err := ReadRows(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}

func field(record []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// UniqueSenders returns the distinct non-empty senders, sorted.
func UniqueSenders(rows []Row) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		from := strings.TrimSpace(row.From)
		if from == "" {
			continue
		}
		seen[from] = struct{}{}
	}
	senders := make([]string, 0, len(seen))
	for s := range seen {
		senders = append(senders, s)
	}
	sort.Strings(senders)
	return senders
}

// FirstName extracts the first whitespace-separated token of a full name.
func FirstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// GroupByFirstName buckets senders under their first name, so "Jane Doe"
// and "Jane Doe (Work)" can be selected as one person.
func GroupByFirstName(senders []string) map[string][]string {
	groups := map[string][]string{}
	for _, s := range senders {
		fn := FirstName(s)
		groups[fn] = append(groups[fn], s)
	}
	return groups
}

// BuildJSONL writes one chat-format training line per row whose sender
// matches any of the selected senders (case-insensitive). Returns the
// number of examples written.
func BuildJSONL(rows []Row, senders []string, w io.Writer) (int, error) {
	selected := make(map[string]struct{}, len(senders))
	for _, s := range senders {
		selected[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	count := 0
	enc := json.NewEncoder(w)
	for _, row := range rows {
		from := strings.ToLower(strings.TrimSpace(row.From))
		if _, ok := selected[from]; !ok || from == "" {
			continue
		}
		example := trainingExample{
			Messages: []llm.Message{
				{Role: llm.RoleUser, Content: fmt.Sprintf(userContentTemplate, strings.TrimSpace(row.Subject))},
				{Role: llm.RoleAssistant, Content: strings.TrimSpace(row.Body)},
			},
		}
		if err := enc.Encode(example); err != nil {
			return count, fmt.Errorf("encode training example: %w", err)
		}
		count++
	}
	return count, nil
}

// BuildJSONLFile is BuildJSONL writing to a new file at path.
func BuildJSONLFile(rows []Row, senders []string, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return BuildJSONL(rows, senders, f)
}
