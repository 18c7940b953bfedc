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

package filestore

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semindex/semindex/fault"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	db, dialect, err := Open("sqlite", ":memory:")
	require.NoError(t, err)

	store, err := NewSQLStore(db, dialect)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestNewIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^file_[0-9a-f]{12}$`)
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := NewID()
		assert.Regexp(t, pattern, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestEnsureIDStable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id1, err := store.EnsureID(ctx, "/docs/a.txt")
	require.NoError(t, err)

	id2, err := store.EnsureID(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	other, err := store.EnsureID(ctx, "/docs/b.txt")
	require.NoError(t, err)
	assert.NotEqual(t, id1, other)
}

func TestGetByPathMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetByPath(context.Background(), "/nowhere.txt")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindNotFound))
}

func TestUpdatePathKeepsID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.EnsureID(ctx, "/docs/old.txt")
	require.NoError(t, err)

	movedID, err := store.UpdatePath(ctx, "/docs/old.txt", "/docs/new.txt")
	require.NoError(t, err)
	assert.Equal(t, id, movedID)

	rec, err := store.GetByPath(ctx, "/docs/new.txt")
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)

	_, err = store.GetByPath(ctx, "/docs/old.txt")
	assert.True(t, fault.Is(err, fault.KindNotFound))
}

func TestUpdatePathMissingSource(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpdatePath(context.Background(), "/ghost.txt", "/new.txt")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindNotFound))
}

func TestSoftDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.EnsureID(ctx, "/docs/gone.txt")
	require.NoError(t, err)

	deletedID, err := store.SoftDelete(ctx, "/docs/gone.txt")
	require.NoError(t, err)
	assert.Equal(t, id, deletedID)

	// The record is hidden from live lookups but retained.
	_, err = store.GetByPath(ctx, "/docs/gone.txt")
	assert.True(t, fault.Is(err, fault.KindNotFound))

	// A recreated path gets a fresh identity.
	newID, err := store.EnsureID(ctx, "/docs/gone.txt")
	require.NoError(t, err)
	assert.NotEqual(t, id, newID)
}

func TestSoftDeleteUntracked(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SoftDelete(context.Background(), "/never-seen.txt")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindNotFound))
}

func TestListDeletedSince(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.EnsureID(ctx, "/docs/keep.txt")
	require.NoError(t, err)
	_, err = store.EnsureID(ctx, "/docs/drop.txt")
	require.NoError(t, err)

	droppedID, err := store.SoftDelete(ctx, "/docs/drop.txt")
	require.NoError(t, err)

	records, err := store.ListDeletedSince(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, droppedID, records[0].ID)
	assert.True(t, records[0].IsDeleted)

	// A cutoff in the future excludes it.
	records, err = store.ListDeletedSince(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListLive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.EnsureID(ctx, "/docs/b.txt")
	require.NoError(t, err)
	_, err = store.EnsureID(ctx, "/docs/a.txt")
	require.NoError(t, err)
	_, err = store.SoftDelete(ctx, "/docs/b.txt")
	require.NoError(t, err)

	records, err := store.ListLive(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "/docs/a.txt", records[0].Path)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, _, err := Open("oracle", "dsn")
	require.Error(t, err)
}
