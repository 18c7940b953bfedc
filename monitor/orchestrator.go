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

// Package monitor keeps the index in sync with a watched directory.
// It classifies change events, maintains file identities, and pushes
// upserts and deletes to the indexing server. Failures on this path are
// logged and dropped; the reconciler closes the gaps later.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/semindex/semindex/fault"
	"github.com/semindex/semindex/filestore"
	"github.com/semindex/semindex/indexclient"
	"github.com/semindex/semindex/watch"
)

// IdentityStore is the slice of the file identity store the
// orchestrator needs.
type IdentityStore interface {
	EnsureID(ctx context.Context, path string) (string, error)
	UpdatePath(ctx context.Context, oldPath, newPath string) (string, error)
	SoftDelete(ctx context.Context, path string) (string, error)
	ListDeletedSince(ctx context.Context, cutoff time.Time) ([]filestore.FileRecord, error)
	ListLive(ctx context.Context) ([]filestore.FileRecord, error)
}

// Indexer pushes changes to the indexing server.
type Indexer interface {
	Upsert(ctx context.Context, fileID, filePath string) (*indexclient.UpsertResponse, error)
	Delete(ctx context.Context, fileID string) (*indexclient.DeleteResponse, error)
}

// SupportedFunc decides whether a path's type is indexable.
type SupportedFunc func(path string) bool

// OrchestratorConfig tunes event handling policy.
type OrchestratorConfig struct {
	// IndexOnCreate indexes files on creation events. Off by default:
	// creations are often followed by writes while the file is still
	// partial, and the modify event covers the final content.
	IndexOnCreate bool

	// ReindexOnMove pushes an upsert after a move so the indexed path
	// metadata stays fresh. Off by default: the identity keeps the
	// point valid and the next modify refreshes the path.
	ReindexOnMove bool
}

// Orchestrator applies change events to the identity store and index.
type Orchestrator struct {
	store     IdentityStore
	indexer   Indexer
	supported SupportedFunc
	cfg       OrchestratorConfig
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(store IdentityStore, indexer Indexer, supported SupportedFunc, cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		store:     store,
		indexer:   indexer,
		supported: supported,
		cfg:       cfg,
	}
}

// Run consumes events until the channel closes or the context ends.
// Events are processed strictly in order, one at a time; a failed event
// is logged and dropped, never retried here.
func (o *Orchestrator) Run(ctx context.Context, events <-chan watch.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := o.HandleEvent(ctx, ev); err != nil {
				slog.Error("Failed to process file event",
					"event", ev.Type, "path", ev.Path, "error", err)
			}
		}
	}
}

// HandleEvent dispatches a single change event.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev watch.ChangeEvent) error {
	// Directory events never reach the index.
	if ev.IsDir {
		return nil
	}

	switch ev.Type {
	case watch.EventCreated:
		if !o.cfg.IndexOnCreate {
			slog.Debug("Ignoring create event", "path", ev.Path)
			return nil
		}
		return o.handleModify(ctx, ev.Path)

	case watch.EventModified:
		if !o.supported(ev.Path) {
			slog.Debug("Ignoring unsupported file", "path", ev.Path)
			return nil
		}
		return o.handleModify(ctx, ev.Path)

	case watch.EventDeleted:
		if !o.supported(ev.Path) {
			return nil
		}
		return o.handleDelete(ctx, ev.Path)

	case watch.EventMoved:
		return o.handleMove(ctx, ev.SrcPath, ev.Path)

	default:
		slog.Warn("Unknown event type", "event", ev.Type, "path", ev.Path)
		return nil
	}
}

// handleModify resolves the file's identity and pushes an upsert. The
// identity is created on first sight, so repeated modifies reuse it.
func (o *Orchestrator) handleModify(ctx context.Context, path string) error {
	if !o.supported(path) {
		slog.Debug("Ignoring unsupported file", "path", path)
		return nil
	}

	fileID, err := o.store.EnsureID(ctx, path)
	if err != nil {
		return err
	}

	resp, err := o.indexer.Upsert(ctx, fileID, path)
	if err != nil {
		return err
	}

	slog.Info("Indexed file", "path", path, "file_id", fileID, "status", resp.Status)
	return nil
}

// handleDelete soft-deletes the identity and drops the index point.
// A path with no identity was never indexed and needs nothing.
func (o *Orchestrator) handleDelete(ctx context.Context, path string) error {
	fileID, err := o.store.SoftDelete(ctx, path)
	if err != nil {
		if fault.Is(err, fault.KindNotFound) {
			slog.Debug("Delete for untracked file", "path", path)
			return nil
		}
		return err
	}

	if _, err := o.indexer.Delete(ctx, fileID); err != nil {
		// The identity is already marked deleted; the reconciler will
		// re-issue this delete.
		return err
	}

	slog.Info("Removed file from index", "path", path, "file_id", fileID)
	return nil
}

// handleMove carries the identity from the old path to the new one.
// Moves into an unsupported type behave like a delete of the source;
// a move of an untracked file is a no-op, the destination gets picked
// up by its next modify.
func (o *Orchestrator) handleMove(ctx context.Context, srcPath, destPath string) error {
	if !o.supported(destPath) {
		if o.supported(srcPath) {
			return o.handleDelete(ctx, srcPath)
		}
		return nil
	}

	fileID, err := o.store.UpdatePath(ctx, srcPath, destPath)
	if err != nil {
		if fault.Is(err, fault.KindNotFound) {
			slog.Debug("Move of untracked file", "from", srcPath, "to", destPath)
			return nil
		}
		return err
	}

	slog.Info("Tracked file move", "from", srcPath, "to", destPath, "file_id", fileID)

	if o.cfg.ReindexOnMove {
		resp, err := o.indexer.Upsert(ctx, fileID, destPath)
		if err != nil {
			return err
		}
		slog.Info("Reindexed moved file", "path", destPath, "file_id", fileID, "status", resp.Status)
	}

	return nil
}
