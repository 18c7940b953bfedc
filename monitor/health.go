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
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/semindex/semindex/fault"
	"github.com/semindex/semindex/vector"
)

// Querier runs semantic searches through the indexing server.
type Querier interface {
	Query(ctx context.Context, text string, limit int) ([]vector.Result, error)
}

// HealthHandler is the monitor's small HTTP surface: liveness plus a
// convenience search endpoint proxied to the indexing server.
type HealthHandler struct {
	querier Querier
	rootDir string
}

// NewHealthHandler creates the handler. querier may be nil, in which
// case /files reports the index as unavailable.
func NewHealthHandler(querier Querier, rootDir string) *HealthHandler {
	return &HealthHandler{querier: querier, rootDir: rootDir}
}

// Router builds the chi router for the health surface.
func (h *HealthHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Get("/files", h.handleFiles)

	return r
}

func (h *HealthHandler) handleRoot(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "file monitor running",
		"root_dir": h.rootDir,
	})
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleFiles proxies a semantic search to the indexing server.
func (h *HealthHandler) handleFiles(w http.ResponseWriter, req *http.Request) {
	search := req.URL.Query().Get("search")
	if search == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "search parameter is required"})
		return
	}
	if h.querier == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "index server not configured"})
		return
	}

	results, err := h.querier.Query(req.Context(), search, 0)
	if err != nil {
		slog.Error("File search failed", "search", search, "error", err)
		writeJSON(w, fault.KindOf(err).HTTPStatus(), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
