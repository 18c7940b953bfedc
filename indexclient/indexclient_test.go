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

package indexclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semindex/semindex/fault"
)

func TestUpsert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/upsert", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "file_1", req["file_id"])
		assert.Equal(t, "/docs/a.txt", req["file_path"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "file indexed successfully",
			"file_id": "file_1",
			"status":  "created",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	resp, err := c.Upsert(context.Background(), "file_1", "/docs/a.txt")

	require.NoError(t, err)
	assert.Equal(t, "created", resp.Status)
	assert.Equal(t, "file_1", resp.FileID)
}

func TestDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/delete", r.URL.Path)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"file_id": "file_1",
			"status":  "deleted",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	resp, err := c.Delete(context.Background(), "file_1")

	require.NoError(t, err)
	assert.Equal(t, "deleted", resp.Status)
}

func TestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tax documents", req["text"])
		assert.EqualValues(t, 5, req["limit"])

		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"file_id": "file_1", "file_path": "/docs/tax.pdf", "score": 0.92},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	results, err := c.Query(context.Background(), "tax documents", 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/tax.pdf", results[0].FilePath)
	assert.InDelta(t, 0.92, results[0].Score, 1e-6)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   fault.Kind
	}{
		{http.StatusNotFound, fault.KindNotFound},
		{http.StatusBadRequest, fault.KindInvalidInput},
		{http.StatusUnsupportedMediaType, fault.KindUnsupportedType},
		{http.StatusRequestEntityTooLarge, fault.KindTooLarge},
		{http.StatusUnprocessableEntity, fault.KindUnprocessable},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "nope"})
		}))

		c := NewClient(srv.URL, 0)
		_, err := c.Upsert(context.Background(), "file_1", "/a.txt")

		require.Error(t, err)
		assert.Equal(t, tt.kind, fault.KindOf(err), "status %d", tt.status)
		assert.Contains(t, err.Error(), "nope")

		srv.Close()
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	assert.NoError(t, c.Health(context.Background()))
}

func TestHealthUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)
	err := c.Health(context.Background())

	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindUnavailable))
}
