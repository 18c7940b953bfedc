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

// Package embedder converts text into fixed-dimension vectors.
package embedder

import (
	"context"
	"log/slog"
	"time"

	"github.com/semindex/semindex/fault"
	"github.com/semindex/semindex/ollama"
)

// Embedder converts text to a vector embedding.
type Embedder interface {
	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int
}

// OllamaEmbedder implements Embedder using Ollama's embeddings API.
type OllamaEmbedder struct {
	client    *ollama.Client
	model     string
	dimension int
	timeout   time.Duration
}

// Config configures the Ollama embedder.
type Config struct {
	// Client is the shared Ollama client. Required.
	Client *ollama.Client

	// Model name (default: nomic-embed-text).
	Model string

	// Dimension of embeddings (default: 768).
	Dimension int

	// Timeout bounds a single embedding call (default: 30s).
	Timeout time.Duration
}

// NewOllamaEmbedder creates a new Ollama embedder.
func NewOllamaEmbedder(cfg Config) *OllamaEmbedder {
	model := cfg.Model
	if model == "" {
		model = "nomic-embed-text"
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 768
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OllamaEmbedder{
		client:    cfg.Client,
		model:     model,
		dimension: dimension,
		timeout:   timeout,
	}
}

// Embed converts text to a vector embedding. Any model failure, transport
// failure, or empty response surfaces as a service_unavailable fault.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vector, err := e.client.Embed(ctx, e.model, text)
	if err != nil {
		return nil, fault.Wrap(fault.KindUnavailable, err, "failed to generate embedding")
	}
	if len(vector) == 0 {
		return nil, fault.New(fault.KindUnavailable, "received empty embedding from model %s", e.model)
	}

	if len(vector) != e.dimension {
		slog.Warn("Embedding dimension mismatch",
			"model", e.model, "expected", e.dimension, "got", len(vector))
	}

	return vector, nil
}

// Dimension returns the embedding vector dimension.
func (e *OllamaEmbedder) Dimension() int {
	return e.dimension
}

// Model returns the model name being used.
func (e *OllamaEmbedder) Model() string {
	return e.model
}

// Ensure OllamaEmbedder implements Embedder.
var _ Embedder = (*OllamaEmbedder)(nil)
