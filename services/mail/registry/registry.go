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
// Model Registry
// =============================================================================
//
// Package registry maps human-readable model aliases to upstream model
// identifiers with a public/private visibility flag. The backing store is a
// small JSON file. Values are either {"id": string, "public": bool} objects
// or legacy bare identifier strings, which are treated as public.
//
// Reads fail softly: an unreadable or malformed file yields an empty registry
// and a logged warning, never an error past this package's read path.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
)

// ErrNotEnoughModels indicates fewer than two public models are registered,
// so no primary/secondary role assignment is possible.
var ErrNotEnoughModels = errors.New("at least two public models are required")

// Entry is one registered model.
type Entry struct {
	ID     string `json:"id"`
	Public bool   `json:"public"`
}

// Roles names the two lexicographically earliest public aliases. Workflows
// use them to decide which model gets the larger sample count.
type Roles struct {
	Primary   string
	Secondary string
}

// Store is a file-backed model registry with an in-memory snapshot.
//
// # Thread Safety
//
// Safe for concurrent use. The snapshot is guarded by a RWMutex; Reload and
// the mutating operations take the write lock.
type Store struct {
	path    string
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStore creates a Store backed by the JSON file at path and performs an
// initial read. A missing or malformed file is not fatal; the store starts
// empty and logs a warning.
func NewStore(path string) *Store {
	s := &Store{
		path:    path,
		entries: map[string]Entry{},
	}
	if err := s.Reload(); err != nil {
		slog.Warn("model registry unavailable, starting empty",
			"path", path,
			"error", err)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the backing file and replaces the snapshot.
//
// On failure the snapshot is cleared so callers never act on stale entries
// from a registry that no longer decodes.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.swap(map[string]Entry{})
		return fmt.Errorf("read model registry: %w", err)
	}
	entries, err := decodeEntries(data)
	if err != nil {
		s.swap(map[string]Entry{})
		return err
	}
	s.swap(entries)
	return nil
}

func (s *Store) swap(entries map[string]Entry) {
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

// Entries returns a copy of the full snapshot, private models included.
func (s *Store) Entries() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry, len(s.entries))
	for alias, e := range s.entries {
		out[alias] = e
	}
	return out
}

// PublicModels returns the alias -> identifier view of public entries from
// the current snapshot.
func (s *Store) PublicModels() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string)
	for alias, e := range s.entries {
		if e.Public {
			out[alias] = e.ID
		}
	}
	return out
}

// LoadPublicModels re-reads the backing file and returns the public view.
// Read failures produce an empty mapping and a warning, never an error.
func (s *Store) LoadPublicModels() map[string]string {
	if err := s.Reload(); err != nil {
		slog.Warn("could not load model registry",
			"path", s.path,
			"error", err)
	}
	return s.PublicModels()
}

// Upsert adds or replaces an entry and persists the registry.
func (s *Store) Upsert(alias string, entry Entry) error {
	if alias == "" {
		return errors.New("model alias must not be empty")
	}
	if entry.ID == "" {
		return errors.New("model identifier must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[alias] = entry
	return s.saveLocked()
}

// Remove deletes an entry and persists the registry. Removing an unknown
// alias is an error so callers can report typos.
func (s *Store) Remove(alias string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[alias]; !ok {
		return fmt.Errorf("unknown model alias %q", alias)
	}
	delete(s.entries, alias)
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model registry: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write model registry: %w", err)
	}
	return nil
}

// SortedAliases returns the aliases of a public view in lexicographic order.
func SortedAliases(public map[string]string) []string {
	aliases := make([]string, 0, len(public))
	for alias := range public {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// AssignRoles designates the two lexicographically earliest aliases as
// primary and secondary. Returns ErrNotEnoughModels when fewer than two
// public models exist; callers must refuse to generate in that case.
func AssignRoles(public map[string]string) (Roles, error) {
	if len(public) < 2 {
		return Roles{}, ErrNotEnoughModels
	}
	aliases := SortedAliases(public)
	return Roles{Primary: aliases[0], Secondary: aliases[1]}, nil
}

// decodeEntries parses the registry JSON, converting legacy bare-string
// values into public entries.
func decodeEntries(data []byte) (map[string]Entry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse model registry: %w", err)
	}
	entries := make(map[string]Entry, len(raw))
	for alias, msg := range raw {
		var id string
		if err := json.Unmarshal(msg, &id); err == nil {
			// Legacy format: alias -> bare identifier, public by default.
			entries[alias] = Entry{ID: id, Public: true}
			continue
		}
		var obj struct {
			ID     string `json:"id"`
			Public *bool  `json:"public"`
		}
		if err := json.Unmarshal(msg, &obj); err != nil {
			return nil, fmt.Errorf("parse model registry entry %q: %w", alias, err)
		}
		if obj.ID == "" {
			slog.Warn("skipping registry entry with empty identifier",
				"alias", alias)
			continue
		}
		public := true
		if obj.Public != nil {
			public = *obj.Public
		}
		entries[alias] = Entry{ID: obj.ID, Public: public}
	}
	return entries, nil
}
