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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semindex/semindex/fault"
	"github.com/semindex/semindex/vector"
)

type fakeQuerier struct {
	results []vector.Result
	err     error
	last    string
}

func (f *fakeQuerier) Query(ctx context.Context, text string, limit int) ([]vector.Result, error) {
	f.last = text
	return f.results, f.err
}

func TestHealthEndpoints(t *testing.T) {
	h := NewHealthHandler(&fakeQuerier{}, "/watched")
	router := h.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/watched", body["root_dir"])
}

func TestFilesSearch(t *testing.T) {
	q := &fakeQuerier{results: []vector.Result{{FileID: "file_1", FilePath: "/docs/a.txt", Score: 0.8}}}
	router := NewHealthHandler(q, "/watched").Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files?search=invoices", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invoices", q.last)

	var body struct {
		Results []vector.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "/docs/a.txt", body.Results[0].FilePath)
}

func TestFilesSearchRequiresParam(t *testing.T) {
	router := NewHealthHandler(&fakeQuerier{}, "/watched").Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilesSearchPropagatesFault(t *testing.T) {
	q := &fakeQuerier{err: fault.New(fault.KindUnavailable, "index down")}
	router := NewHealthHandler(q, "/watched").Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files?search=x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
