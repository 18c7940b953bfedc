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

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/semindex/semindex/fault"
	"github.com/semindex/semindex/vector"
)

type upsertRequest struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
}

type upsertResponse struct {
	Message string `json:"message"`
	FileID  string `json:"file_id"`
	Status  string `json:"status"`
}

type deleteRequest struct {
	FileID string `json:"file_id"`
}

type queryRequest struct {
	Text  string `json:"text"`
	Limit int    `json:"limit"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "semantic file indexing server",
		"version": s.cfg.Version,
		"status":  "healthy",
	})
}

// handleUpsert runs the full pipeline for one file: extract, summarize,
// embed, store. The response status reports whether the file was new to
// the index.
func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.New(fault.KindInvalidInput, "invalid request body: %v", err))
		return
	}
	if req.FileID == "" || req.FilePath == "" {
		writeError(w, fault.New(fault.KindInvalidInput, "file_id and file_path are required"))
		return
	}

	ctx := r.Context()

	text, err := s.extractor.Extract(ctx, req.FilePath)
	if err != nil {
		slog.Error("Extraction failed", "file_id", req.FileID, "path", req.FilePath, "error", err)
		writeError(w, err)
		return
	}

	summary, err := s.summarizer.Summarize(ctx, text, req.FilePath)
	if err != nil {
		slog.Error("Summarization failed", "file_id", req.FileID, "path", req.FilePath, "error", err)
		writeError(w, err)
		return
	}

	embedding, err := s.embedder.Embed(ctx, summary)
	if err != nil {
		slog.Error("Embedding failed", "file_id", req.FileID, "path", req.FilePath, "error", err)
		writeError(w, err)
		return
	}

	status, err := s.store.Upsert(ctx, vector.Point{
		FileID:   req.FileID,
		FilePath: req.FilePath,
		Summary:  summary,
		Vector:   embedding,
	})
	if err != nil {
		slog.Error("Vector upsert failed", "file_id", req.FileID, "path", req.FilePath, "error", err)
		writeError(w, fault.Wrap(fault.KindUnavailable, err, "vector store upsert failed"))
		return
	}

	slog.Info("Upserted file", "file_id", req.FileID, "path", req.FilePath, "status", status)
	writeJSON(w, http.StatusOK, upsertResponse{
		Message: "file indexed successfully",
		FileID:  req.FileID,
		Status:  string(status),
	})
}

// handleDelete removes the file's index point. Deleting an unknown
// file id succeeds; the operation is idempotent.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.New(fault.KindInvalidInput, "invalid request body: %v", err))
		return
	}
	if req.FileID == "" {
		writeError(w, fault.New(fault.KindInvalidInput, "file_id is required"))
		return
	}

	if err := s.store.Delete(r.Context(), req.FileID); err != nil {
		slog.Error("Vector delete failed", "file_id", req.FileID, "error", err)
		writeError(w, fault.Wrap(fault.KindUnavailable, err, "vector store delete failed"))
		return
	}

	slog.Info("Deleted file from index", "file_id", req.FileID)
	writeJSON(w, http.StatusOK, upsertResponse{
		Message: "file removed from index",
		FileID:  req.FileID,
		Status:  "deleted",
	})
}

// handleQuery embeds the query text and searches the index.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.New(fault.KindInvalidInput, "invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, fault.New(fault.KindInvalidInput, "text is required"))
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	embedding, err := s.embedder.Embed(r.Context(), req.Text)
	if err != nil {
		slog.Error("Query embedding failed", "error", err)
		writeError(w, err)
		return
	}

	results, err := s.store.Search(r.Context(), embedding, limit, s.cfg.QueryThreshold)
	if err != nil {
		slog.Error("Vector search failed", "error", err)
		writeError(w, fault.Wrap(fault.KindUnavailable, err, "vector store search failed"))
		return
	}

	// Empty result sets serialize as an empty list, not null.
	if results == nil {
		results = []vector.Result{}
	}

	// The body is the bare result array, empty when nothing clears
	// the threshold.
	writeJSON(w, http.StatusOK, results)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, fault.KindOf(err).HTTPStatus(), errorResponse{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
