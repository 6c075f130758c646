// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher reloads a Store when its backing file changes on disk.
//
// # Description
//
// Detects external edits to the registry file (manual edits, admin tooling,
// fine-tune completions from another process) and refreshes the in-memory
// snapshot. The parent directory is watched rather than the file itself so
// that editors which replace the file via rename are still observed.
//
// # Thread Safety
//
// Safe for concurrent use. Start should only be called once.
type FileWatcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	callback func()
}

// NewFileWatcher creates a watcher for the store's backing file.
//
// # Inputs
//
//   - store: The registry store to refresh.
//   - callback: Optional callback after each successful reload.
//
// # Outputs
//
//   - *FileWatcher: Ready-to-start watcher.
//   - error: Non-nil if watcher creation fails.
func NewFileWatcher(store *Store, callback func()) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{
		store:    store,
		watcher:  watcher,
		callback: callback,
	}, nil
}

// Start begins watching for registry file changes.
//
// Blocks until the context is cancelled. Should be run in a goroutine:
//
//	watcher, _ := registry.NewFileWatcher(store, nil)
//	go watcher.Start(ctx)
func (w *FileWatcher) Start(ctx context.Context) {
	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		slog.Warn("failed to watch model registry directory",
			"dir", dir,
			"error", err)
		return
	}

	slog.Debug("started watching model registry",
		"path", w.store.Path())

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("model registry watcher error",
				"error", err)

		case <-ctx.Done():
			slog.Debug("model registry watcher stopping")
			return
		}
	}
}

// handleEvent processes a single fsnotify event.
func (w *FileWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.store.Path()) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	if err := w.store.Reload(); err != nil {
		slog.Warn("model registry changed but could not be reloaded",
			"path", w.store.Path(),
			"error", err)
		return
	}

	slog.Info("model registry reloaded",
		"path", w.store.Path(),
		"public_models", len(w.store.PublicModels()))

	if w.callback != nil {
		w.callback()
	}
}

// Stop stops the watcher.
//
// Stops watching and releases resources. Safe to call multiple times.
func (w *FileWatcher) Stop() error {
	return w.watcher.Close()
}
