// Copyright 2025 The Semindex Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// renameWindow is how long a rename waits for its matching create
// before being reported as a deletion. fsnotify reports a move as a
// Rename on the old path followed by a Create on the new one.
const renameWindow = 500 * time.Millisecond

// Watcher watches a directory tree for file changes using fsnotify.
type Watcher struct {
	watcher       *fsnotify.Watcher
	rootDir       string
	eventChan     chan ChangeEvent
	ctx           context.Context
	cancel        context.CancelFunc
	mu            sync.RWMutex
	isWatching    bool
	debounceDelay time.Duration

	// emitMu serializes sends against Stop closing eventChan.
	emitMu sync.Mutex
	closed bool

	// pendingRename holds the source path of an unmatched Rename.
	pendingRename   string
	pendingRenameAt time.Time
	renameTimer     *time.Timer
	renameMu        sync.Mutex
}

// Config configures the watcher.
type Config struct {
	RootDir       string
	DebounceDelay time.Duration // Delay before processing events (default: 100ms)
}

// NewWatcher creates a watcher for the given root directory.
func NewWatcher(cfg Config) (*Watcher, error) {
	info, err := os.Stat(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory %s: %w", cfg.RootDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", cfg.RootDir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}

	return &Watcher{
		watcher:       watcher,
		rootDir:       cfg.RootDir,
		eventChan:     make(chan ChangeEvent, 100),
		debounceDelay: debounce,
	}, nil
}

// Start begins watching the tree for changes.
func (w *Watcher) Start(ctx context.Context) (<-chan ChangeEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isWatching {
		return w.eventChan, nil
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isWatching = true

	if err := w.setupWatching(); err != nil {
		w.isWatching = false
		return nil, err
	}

	go w.watchEvents()

	slog.Info("Started file watcher", "path", w.rootDir)

	return w.eventChan, nil
}

// Stop stops watching for changes.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isWatching {
		return nil
	}

	w.cancel()
	w.isWatching = false

	// A rename still waiting for its create must not fire its expiry
	// timer into a closed channel.
	w.renameMu.Lock()
	if w.renameTimer != nil {
		w.renameTimer.Stop()
		w.renameTimer = nil
	}
	w.pendingRename = ""
	w.renameMu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return err
	}

	w.emitMu.Lock()
	w.closed = true
	close(w.eventChan)
	w.emitMu.Unlock()

	slog.Info("Stopped file watcher", "path", w.rootDir)

	return nil
}

// IsWatching returns whether the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isWatching
}

// setupWatching adds the root and all subdirectories to the watcher.
func (w *Watcher) setupWatching() error {
	if err := w.watcher.Add(w.rootDir); err != nil {
		return err
	}

	return filepath.Walk(w.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != w.rootDir {
			if err := w.watcher.Add(path); err != nil {
				slog.Warn("Failed to watch directory", "path", path, "error", err)
			}
		}
		return nil
	})
}

// watchEvents processes fsnotify events.
func (w *Watcher) watchEvents() {
	// Coalesce rapid events per path, preserving first-seen order so a
	// Rename still precedes its matching Create.
	pendingOps := make(map[string]fsnotify.Op)
	var pendingOrder []string
	var pendingMu sync.Mutex
	var debounceTimer *time.Timer

	processEvents := func() {
		pendingMu.Lock()
		order := pendingOrder
		ops := pendingOps
		pendingOrder = nil
		pendingOps = make(map[string]fsnotify.Op)
		pendingMu.Unlock()

		for _, path := range order {
			w.handleFileEvent(fsnotify.Event{Name: path, Op: ops[path]})
		}
	}

	for {
		select {
		case <-w.ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			processEvents()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Skip chmod events
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			pendingMu.Lock()
			if _, seen := pendingOps[event.Name]; !seen {
				pendingOrder = append(pendingOrder, event.Name)
			}
			pendingOps[event.Name] |= event.Op
			pendingMu.Unlock()

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounceDelay, processEvents)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "path", w.rootDir, "error", err)
		}
	}
}

// handleFileEvent turns a coalesced fsnotify event into change events.
func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	path := event.Name
	now := time.Now()

	switch {
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		w.recordRename(path, now)

	case event.Op&fsnotify.Remove == fsnotify.Remove:
		w.emit(ChangeEvent{Type: EventDeleted, Path: path, FileType: FileTypeOf(path, false), Source: SourceFilesystem, Timestamp: now})

	case event.Op&fsnotify.Create == fsnotify.Create:
		info, err := os.Stat(path)
		isDir := err == nil && info.IsDir()
		if isDir {
			if err := w.watcher.Add(path); err != nil {
				slog.Warn("Failed to watch new directory", "path", path, "error", err)
			}
		}

		if src, ok := w.takeRename(now); ok {
			w.emit(ChangeEvent{
				Type:        EventMoved,
				Path:        path,
				SrcPath:     src,
				IsDir:       isDir,
				FileType:    FileTypeOf(path, isDir),
				SrcFileType: FileTypeOf(src, isDir),
				Source:      SourceFilesystem,
				Timestamp:   now,
			})
			if event.Op&fsnotify.Write == fsnotify.Write && !isDir {
				w.emit(ChangeEvent{Type: EventModified, Path: path, FileType: FileTypeOf(path, false), Source: SourceFilesystem, Timestamp: now})
			}
			return
		}
		w.emit(ChangeEvent{Type: EventCreated, Path: path, IsDir: isDir, FileType: FileTypeOf(path, isDir), Source: SourceFilesystem, Timestamp: now})

		// Debouncing coalesces the create-then-write burst of a new
		// file into one op. The write half still has to surface, or a
		// freshly written file would wait for its next edit.
		if event.Op&fsnotify.Write == fsnotify.Write && !isDir {
			w.emit(ChangeEvent{Type: EventModified, Path: path, FileType: FileTypeOf(path, false), Source: SourceFilesystem, Timestamp: now})
		}

	case event.Op&fsnotify.Write == fsnotify.Write:
		info, err := os.Stat(path)
		isDir := err == nil && info.IsDir()
		w.emit(ChangeEvent{Type: EventModified, Path: path, IsDir: isDir, FileType: FileTypeOf(path, isDir), Source: SourceFilesystem, Timestamp: now})
	}
}

// recordRename stages a rename source and schedules its expiry. A
// rename whose create never arrives was a move out of the tree, which
// looks like a deletion from here.
func (w *Watcher) recordRename(path string, now time.Time) {
	w.renameMu.Lock()
	defer w.renameMu.Unlock()

	// An older unmatched rename gets flushed as a deletion first.
	if w.pendingRename != "" {
		w.emit(ChangeEvent{Type: EventDeleted, Path: w.pendingRename, FileType: FileTypeOf(w.pendingRename, false), Source: SourceFilesystem, Timestamp: now})
	}
	if w.renameTimer != nil {
		w.renameTimer.Stop()
	}

	w.pendingRename = path
	w.pendingRenameAt = now
	w.renameTimer = time.AfterFunc(renameWindow, w.expireRename)
}

// takeRename claims the pending rename source if it is still fresh.
func (w *Watcher) takeRename(now time.Time) (string, bool) {
	w.renameMu.Lock()
	defer w.renameMu.Unlock()

	if w.pendingRename == "" || now.Sub(w.pendingRenameAt) > renameWindow {
		return "", false
	}

	src := w.pendingRename
	w.pendingRename = ""
	if w.renameTimer != nil {
		w.renameTimer.Stop()
		w.renameTimer = nil
	}
	return src, true
}

// expireRename reports a stale rename as a deletion.
func (w *Watcher) expireRename() {
	w.renameMu.Lock()
	defer w.renameMu.Unlock()

	if w.pendingRename == "" {
		return
	}
	w.emit(ChangeEvent{Type: EventDeleted, Path: w.pendingRename, FileType: FileTypeOf(w.pendingRename, false), Source: SourceFilesystem, Timestamp: time.Now()})
	w.pendingRename = ""
	w.renameTimer = nil
}

// emit delivers an event, blocking until the consumer takes it. The
// watcher is the backpressure point: a slow orchestrator slows event
// intake rather than losing changes.
func (w *Watcher) emit(ev ChangeEvent) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	if w.closed {
		return
	}

	select {
	case w.eventChan <- ev:
	case <-w.ctx.Done():
	}
}
