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

// Package config holds the configuration surface for both the indexing
// server and the file monitor.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Qdrant  QdrantConfig  `yaml:"qdrant"`
	Ollama  OllamaConfig  `yaml:"ollama"`
	Vector  VectorConfig  `yaml:"vector"`
	Query   QueryConfig   `yaml:"query"`
	Extract ExtractConfig `yaml:"extract"`
	Summary SummaryConfig `yaml:"summary"`
	Monitor MonitorConfig `yaml:"monitor"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the indexing API server.
type ServerConfig struct {
	// Host is the listen address (default: 0.0.0.0).
	Host string `yaml:"host"`

	// Port is the listen port (default: 5000).
	Port int `yaml:"port"`

	// Version is reported by the health endpoint.
	Version string `yaml:"version"`
}

// QdrantConfig configures the vector database connection.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string `yaml:"host"`

	// Port is the Qdrant gRPC port (default: 6334).
	Port int `yaml:"port"`

	// Collection is the points collection name (default: file_embeddings).
	Collection string `yaml:"collection"`

	// APIKey for authenticated access (optional).
	APIKey string `yaml:"api_key,omitempty"`

	// UseTLS enables TLS connections.
	UseTLS bool `yaml:"use_tls,omitempty"`
}

// OllamaConfig configures the model provider.
type OllamaConfig struct {
	// BaseURL for the Ollama API (default: http://localhost:11434).
	BaseURL string `yaml:"base_url"`

	// SummaryModel generates summaries and vision descriptions
	// (default: gemma3:4b).
	SummaryModel string `yaml:"summary_model"`

	// EmbeddingModel generates embeddings (default: nomic-embed-text).
	EmbeddingModel string `yaml:"embedding_model"`

	// EmbedTimeout bounds a single embedding call (default: 30s).
	EmbedTimeout time.Duration `yaml:"embed_timeout"`

	// GenerateTimeout bounds a single completion call (default: 60s).
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
}

// VectorConfig configures embedding geometry.
type VectorConfig struct {
	// Dimension of embedding vectors (default: 768).
	Dimension int `yaml:"dimension"`

	// Distance metric: cosine, euclidean, or dot (default: cosine).
	Distance string `yaml:"distance"`
}

// QueryConfig configures similarity search behavior.
type QueryConfig struct {
	// Threshold filters out results scoring below it (default: 0.4).
	Threshold float32 `yaml:"threshold"`

	// DefaultLimit applies when a query omits a limit (default: 10).
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit caps any requested limit (default: 100).
	MaxLimit int `yaml:"max_limit"`
}

// ExtractConfig configures content extraction.
type ExtractConfig struct {
	// MaxFileSize is the per-file size ceiling in bytes (default: 10 MiB).
	MaxFileSize int64 `yaml:"max_file_size"`
}

// SummaryConfig configures summarization.
type SummaryConfig struct {
	// MaxTextLength is the single-call ceiling in characters; longer
	// inputs go through chunk-reduce (default: 50000).
	MaxTextLength int `yaml:"max_text_length"`

	// ChunkSize is the target chunk length in characters (default: 1000).
	ChunkSize int `yaml:"chunk_size"`
}

// MonitorConfig configures the file monitor process.
type MonitorConfig struct {
	// RootDir is the directory tree to watch. Required for the watch
	// command.
	RootDir string `yaml:"root_dir"`

	// IndexURL is the base URL of the indexing API
	// (default: http://localhost:5000).
	IndexURL string `yaml:"index_url"`

	// DBDriver selects the identity store backend: sqlite, postgres, or
	// mysql (default: sqlite).
	DBDriver string `yaml:"db_driver"`

	// DBDSN is the identity store connection string
	// (default: file_monitor.db for sqlite).
	DBDSN string `yaml:"db_dsn"`

	// DebounceDelay coalesces rapid filesystem events (default: 100ms).
	DebounceDelay time.Duration `yaml:"debounce_delay"`

	// IndexOnCreate also indexes Created events instead of waiting for
	// the first Modified event. Default false: a freshly created file
	// may not be fully written yet, and a Modified event follows anyway.
	IndexOnCreate bool `yaml:"index_on_create"`

	// ReindexOnMove pushes an upsert after a rename so index metadata
	// tracks the new path. Default false: a rename does not change
	// content, so re-embedding is skipped.
	ReindexOnMove bool `yaml:"reindex_on_move"`

	// ReconcileInterval is the period of the pass that retries vector
	// deletes for soft-deleted records. Negative disables it
	// (default: 5m).
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`

	// HealthPort exposes the monitor's health/search surface
	// (default: 4000; negative disables).
	HealthPort int `yaml:"health_port"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level: debug, info, warn, error (default: info).
	Level string `yaml:"level"`

	// Format: text or json (default: text).
	Format string `yaml:"format"`

	// File receives log output; empty means stderr.
	File string `yaml:"file,omitempty"`
}

// SetDefaults applies default values to all sections.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Version == "" {
		c.Server.Version = "1.0.0"
	}

	if c.Qdrant.Host == "" {
		c.Qdrant.Host = "localhost"
	}
	if c.Qdrant.Port == 0 {
		c.Qdrant.Port = 6334
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "file_embeddings"
	}

	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.Ollama.SummaryModel == "" {
		c.Ollama.SummaryModel = "gemma3:4b"
	}
	if c.Ollama.EmbeddingModel == "" {
		c.Ollama.EmbeddingModel = "nomic-embed-text"
	}
	if c.Ollama.EmbedTimeout == 0 {
		c.Ollama.EmbedTimeout = 30 * time.Second
	}
	if c.Ollama.GenerateTimeout == 0 {
		c.Ollama.GenerateTimeout = 60 * time.Second
	}

	if c.Vector.Dimension == 0 {
		c.Vector.Dimension = 768
	}
	if c.Vector.Distance == "" {
		c.Vector.Distance = "cosine"
	}

	if c.Query.Threshold == 0 {
		c.Query.Threshold = 0.4
	}
	if c.Query.DefaultLimit == 0 {
		c.Query.DefaultLimit = 10
	}
	if c.Query.MaxLimit == 0 {
		c.Query.MaxLimit = 100
	}

	if c.Extract.MaxFileSize == 0 {
		c.Extract.MaxFileSize = 10 * 1024 * 1024
	}

	if c.Summary.MaxTextLength == 0 {
		c.Summary.MaxTextLength = 50000
	}
	if c.Summary.ChunkSize == 0 {
		c.Summary.ChunkSize = 1000
	}

	if c.Monitor.IndexURL == "" {
		c.Monitor.IndexURL = "http://localhost:5000"
	}
	if c.Monitor.DBDriver == "" {
		c.Monitor.DBDriver = "sqlite"
	}
	if c.Monitor.DBDSN == "" && (c.Monitor.DBDriver == "sqlite" || c.Monitor.DBDriver == "sqlite3") {
		c.Monitor.DBDSN = "file_monitor.db"
	}
	if c.Monitor.DebounceDelay == 0 {
		c.Monitor.DebounceDelay = 100 * time.Millisecond
	}
	if c.Monitor.ReconcileInterval == 0 {
		c.Monitor.ReconcileInterval = 5 * time.Minute
	}
	if c.Monitor.HealthPort == 0 {
		c.Monitor.HealthPort = 4000
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Monitor.DBDriver {
	case "sqlite", "sqlite3", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported db driver: %s (supported: sqlite, postgres, mysql)", c.Monitor.DBDriver)
	}

	switch c.Vector.Distance {
	case "cosine", "euclidean", "dot":
	default:
		return fmt.Errorf("unsupported distance metric: %s (supported: cosine, euclidean, dot)", c.Vector.Distance)
	}

	if c.Query.Threshold < 0 || c.Query.Threshold > 1 {
		return fmt.Errorf("query threshold must be within [0,1], got %v", c.Query.Threshold)
	}
	if c.Query.DefaultLimit > c.Query.MaxLimit {
		return fmt.Errorf("default query limit %d exceeds max %d", c.Query.DefaultLimit, c.Query.MaxLimit)
	}
	if c.Summary.ChunkSize <= 0 || c.Summary.MaxTextLength <= 0 {
		return fmt.Errorf("chunk size and max text length must be positive")
	}
	return nil
}
