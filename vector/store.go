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

// Package vector stores file embeddings as points keyed by file identity
// and serves similarity search with threshold filtering.
package vector

import (
	"context"
)

// Status reports which branch an upsert took.
type Status string

const (
	// StatusCreated means no point existed for the file id.
	StatusCreated Status = "created"

	// StatusUpdated means an existing point was replaced.
	StatusUpdated Status = "updated"
)

// Point is the payload of one stored embedding.
type Point struct {
	FileID   string
	FilePath string
	Summary  string
	Vector   []float32
}

// Result is one similarity search hit.
type Result struct {
	FileID   string  `json:"file_id"`
	FilePath string  `json:"file_path"`
	Score    float32 `json:"score"`
}

// Store is the index of file embeddings. All operations are idempotent
// with respect to file id.
type Store interface {
	// Exists reports whether any point carries the file id.
	Exists(ctx context.Context, fileID string) (bool, error)

	// Upsert replaces the point for the file id, reporting whether it
	// was created or updated. At most one live point per file id holds
	// afterwards.
	Upsert(ctx context.Context, point Point) (Status, error)

	// Delete removes all points for the file id. Removing a file id
	// with no points is not an error.
	Delete(ctx context.Context, fileID string) error

	// Search returns up to limit results scoring at or above threshold,
	// ordered by descending score.
	Search(ctx context.Context, vector []float32, limit int, threshold float32) ([]Result, error)

	// Close releases the store connection.
	Close() error
}
