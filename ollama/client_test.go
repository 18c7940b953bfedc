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

package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gemma3:4b", req["model"])
		assert.Equal(t, "say hi", req["prompt"])
		assert.Equal(t, false, req["stream"])

		_ = json.NewEncoder(w).Encode(map[string]string{"response": "hi"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	out, err := c.Generate(context.Background(), "gemma3:4b", "say hi")

	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestGenerateWithImage(t *testing.T) {
	image := []byte{0x89, 'P', 'N', 'G'}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Images []string `json:"images"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Images, 1)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req.Images[0])

		_ = json.NewEncoder(w).Encode(map[string]string{"response": "a picture"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	out, err := c.Generate(context.Background(), "gemma3:4b", "describe", image)

	require.NoError(t, err)
	assert.Equal(t, "a picture", out)
}

func TestGenerateModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Generate(context.Background(), "missing", "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req["model"])
		assert.Equal(t, "some text", req["prompt"])

		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	vec, err := c.Embed(context.Background(), "nomic-embed-text", "some text")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, 0)
	_, err := c.Embed(ctx, "nomic-embed-text", "text")
	assert.Error(t, err)
}
