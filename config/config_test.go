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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, "file_embeddings", cfg.Qdrant.Collection)
	assert.Equal(t, "gemma3:4b", cfg.Ollama.SummaryModel)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbeddingModel)
	assert.Equal(t, 768, cfg.Vector.Dimension)
	assert.Equal(t, "cosine", cfg.Vector.Distance)
	assert.InDelta(t, 0.4, cfg.Query.Threshold, 1e-6)
	assert.Equal(t, 10, cfg.Query.DefaultLimit)
	assert.Equal(t, 100, cfg.Query.MaxLimit)
	assert.Equal(t, int64(10*1024*1024), cfg.Extract.MaxFileSize)
	assert.Equal(t, 50000, cfg.Summary.MaxTextLength)
	assert.Equal(t, 1000, cfg.Summary.ChunkSize)
	assert.Equal(t, "sqlite", cfg.Monitor.DBDriver)
	assert.Equal(t, 100*time.Millisecond, cfg.Monitor.DebounceDelay)

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadDriver(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Monitor.DBDriver = "mongodb"

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadDistance(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Vector.Distance = "manhattan"

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Query.Threshold = 1.5

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsLimitAboveMax(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Query.DefaultLimit = 200

	assert.Error(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
monitor:
  root_dir: /tmp/watched
  reindex_on_move: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/tmp/watched", cfg.Monitor.RootDir)
	assert.True(t, cfg.Monitor.ReindexOnMove)
	// Untouched sections still get defaults.
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("SEMINDEX_TEST_HOST", "qdrant.internal")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
qdrant:
  host: ${SEMINDEX_TEST_HOST}
ollama:
  base_url: ${SEMINDEX_TEST_OLLAMA:-http://fallback:11434}
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	assert.Equal(t, "http://fallback:11434", cfg.Ollama.BaseURL)
}
