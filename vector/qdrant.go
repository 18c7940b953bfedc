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

package vector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// pointNamespace is the UUIDv5 namespace for deterministic point ids.
// Deriving the point id from the file id makes an insert with the same
// file id replace the previous point server-side, so "one live point per
// file id" holds even under concurrent upserts.
var pointNamespace = uuid.MustParse("8d9a6b42-5c7e-4f1a-9e3b-2d4f8c1a7e50")

// PointID returns the deterministic point id for a file id.
func PointID(fileID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(fileID)).String()
}

// QdrantConfig configures the Qdrant store.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the points collection name (default: file_embeddings).
	Collection string

	// Dimension of stored vectors (default: 768).
	Dimension int

	// Distance metric: cosine, euclidean, or dot (default: cosine).
	Distance string

	// APIKey for authenticated access (optional).
	APIKey string

	// UseTLS enables TLS connections.
	UseTLS bool
}

// QdrantStore implements Store using the Qdrant vector database.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
	distance   qdrant.Distance
}

// NewQdrantStore connects to Qdrant and ensures the collection exists.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "file_embeddings"
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 768
	}

	distance, err := parseDistance(cfg.Distance)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client for %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	s := &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		distance:   distance,
	}

	if err := s.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return s, nil
}

func parseDistance(name string) (qdrant.Distance, error) {
	switch strings.ToLower(name) {
	case "", "cosine":
		return qdrant.Distance_Cosine, nil
	case "euclidean":
		return qdrant.Distance_Euclid, nil
	case "dot":
		return qdrant.Distance_Dot, nil
	default:
		return qdrant.Distance_Cosine, fmt.Errorf("unsupported distance metric: %s", name)
	}
}

// ensureCollection creates the collection when missing.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		slog.Info("Qdrant collection exists", "collection", s.collection)
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: s.distance,
		}),
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}

	slog.Info("Created Qdrant collection", "collection", s.collection, "dimension", s.dimension)
	return nil
}

// fileIDFilter matches all points with the given file id payload.
func fileIDFilter(fileID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "file_id",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: fileID},
						},
					},
				},
			},
		},
	}
}

// Exists reports whether any point carries the file id.
func (s *QdrantStore) Exists(ctx context.Context, fileID string) (bool, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         fileIDFilter(fileID),
	})
	if err != nil {
		return false, fmt.Errorf("failed to count points for file %s: %w", fileID, err)
	}
	return count > 0, nil
}

// Upsert replaces the point for point.FileID and reports created or
// updated. Existing points for the file id are deleted first, which also
// collects any strays from before deterministic ids.
func (s *QdrantStore) Upsert(ctx context.Context, point Point) (Status, error) {
	existing, err := s.findExisting(ctx, point.FileID)
	if err != nil {
		return "", err
	}

	status := StatusCreated
	createdAt := time.Now().UTC()
	if existing != nil {
		status = StatusUpdated
		if existing.createdAt != "" {
			if t, err := time.Parse(time.RFC3339, existing.createdAt); err == nil {
				createdAt = t
			}
		}
		if err := s.Delete(ctx, point.FileID); err != nil {
			return "", err
		}
	}

	now := time.Now().UTC()
	payload := map[string]*qdrant.Value{
		"file_id":    qdrant.NewValueString(point.FileID),
		"file_path":  qdrant.NewValueString(point.FilePath),
		"summary":    qdrant.NewValueString(point.Summary),
		"created_at": qdrant.NewValueString(createdAt.Format(time.RFC3339)),
		"updated_at": qdrant.NewValueString(now.Format(time.RFC3339)),
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(PointID(point.FileID)),
				Vectors: qdrant.NewVectors(point.Vector...),
				Payload: payload,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert point for file %s: %w", point.FileID, err)
	}

	return status, nil
}

// Delete removes all points for the file id. A missing file id is a
// no-op.
func (s *QdrantStore) Delete(ctx context.Context, fileID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: fileIDFilter(fileID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete points for file %s: %w", fileID, err)
	}
	return nil
}

// Search returns results scoring at or above threshold, best first.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int, threshold float32) ([]Result, error) {
	points, err := s.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]Result, 0, len(points.Result))
	for _, p := range points.Result {
		results = append(results, Result{
			FileID:   p.Payload["file_id"].GetStringValue(),
			FilePath: p.Payload["file_path"].GetStringValue(),
			Score:    p.Score,
		})
	}

	return results, nil
}

// Close closes the Qdrant client.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// existingPoint carries the payload fields preserved across replacements.
type existingPoint struct {
	createdAt string
}

// findExisting scrolls for the current point of a file id, nil if none.
func (s *QdrantStore) findExisting(ctx context.Context, fileID string) (*existingPoint, error) {
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         fileIDFilter(fileID),
		Limit:          qdrant.PtrOf(uint32(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll points for file %s: %w", fileID, err)
	}
	if len(points) == 0 {
		return nil, nil
	}

	return &existingPoint{
		createdAt: points[0].Payload["created_at"].GetStringValue(),
	}, nil
}

// Ensure QdrantStore implements Store.
var _ Store = (*QdrantStore)(nil)
