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

package monitor

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// Reconciler periodically closes the gaps the event path can leave. A
// delete can fail after the identity is marked deleted, leaving an
// orphaned index point, and a deletion that happens while the monitor
// is down is never observed at all. Each pass re-issues recent index
// deletes and sweeps live records whose file no longer exists. Deletes
// are idempotent, so re-issuing an already-applied one is harmless.
type Reconciler struct {
	store    IdentityStore
	indexer  Indexer
	interval time.Duration
}

// NewReconciler creates a reconciler running every interval.
func NewReconciler(store IdentityStore, indexer Indexer, interval time.Duration) *Reconciler {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{
		store:    store,
		indexer:  indexer,
		interval: interval,
	}
}

// Run blocks until the context ends, reconciling once per interval.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ReconcileOnce(ctx)
		}
	}
}

// ReconcileOnce runs one pass: re-issue deletes for records soft-deleted
// within the last two intervals, then sweep live records against the
// filesystem. The delete window overlaps the previous pass so a pass
// that ran long never leaves a record uncovered.
func (r *Reconciler) ReconcileOnce(ctx context.Context) {
	r.reissueDeletes(ctx)
	r.sweepMissing(ctx)
}

func (r *Reconciler) reissueDeletes(ctx context.Context) {
	cutoff := time.Now().Add(-2 * r.interval)

	records, err := r.store.ListDeletedSince(ctx, cutoff)
	if err != nil {
		slog.Error("Reconciliation pass failed", "error", err)
		return
	}
	if len(records) == 0 {
		return
	}

	reissued := 0
	for _, rec := range records {
		if _, err := r.indexer.Delete(ctx, rec.ID); err != nil {
			slog.Warn("Failed to reconcile deleted file",
				"file_id", rec.ID, "path", rec.Path, "error", err)
			continue
		}
		reissued++
	}

	slog.Info("Reconciled deleted files", "candidates", len(records), "reissued", reissued)
}

// sweepMissing retires live records whose file is gone from disk, which
// happens when a deletion occurred while the monitor was not running.
func (r *Reconciler) sweepMissing(ctx context.Context) {
	records, err := r.store.ListLive(ctx)
	if err != nil {
		slog.Error("Live record sweep failed", "error", err)
		return
	}

	retired := 0
	for _, rec := range records {
		if _, err := os.Stat(rec.Path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if _, err := r.store.SoftDelete(ctx, rec.Path); err != nil {
			slog.Warn("Failed to retire missing file",
				"file_id", rec.ID, "path", rec.Path, "error", err)
			continue
		}
		if _, err := r.indexer.Delete(ctx, rec.ID); err != nil {
			// Marked deleted; the next pass re-issues this delete.
			slog.Warn("Failed to drop index point for missing file",
				"file_id", rec.ID, "path", rec.Path, "error", err)
			continue
		}
		retired++
	}

	if retired > 0 {
		slog.Info("Retired records for missing files", "retired", retired)
	}
}
