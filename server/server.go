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

// Package server exposes the indexing pipeline over HTTP: upsert a
// file into the index, delete it, and query by meaning.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/semindex/semindex/embedder"
	"github.com/semindex/semindex/summarizer"
	"github.com/semindex/semindex/vector"
)

// Extractor pulls indexable text out of a file on disk.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Config holds the server's tunables.
type Config struct {
	Host    string
	Port    int
	Version string

	// QueryThreshold filters out low-scoring search results.
	QueryThreshold float32

	// DefaultLimit applies when a query names no limit.
	DefaultLimit int

	// MaxLimit caps the per-query result count.
	MaxLimit int
}

// Server is the indexing API server.
type Server struct {
	cfg        Config
	extractor  Extractor
	summarizer summarizer.Summarizer
	embedder   embedder.Embedder
	store      vector.Store

	httpServer *http.Server
}

// New wires the server from its pipeline stages.
func New(cfg Config, ex Extractor, sum summarizer.Summarizer, emb embedder.Embedder, store vector.Store) *Server {
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxLimit == 0 {
		cfg.MaxLimit = 100
	}

	s := &Server{
		cfg:        cfg,
		extractor:  ex,
		summarizer: sum,
		embedder:   emb,
		store:      store,
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Post("/query", s.handleQuery)
	r.Post("/upsert", s.handleUpsert)
	r.Put("/upsert", s.handleUpsert)
	r.Delete("/delete", s.handleDelete)

	return r
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	slog.Info("Starting indexing server", "addr", s.httpServer.Addr, "version", s.cfg.Version)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down indexing server")
	return s.httpServer.Shutdown(ctx)
}
