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

// Command semindex runs the semantic file indexing pipeline.
//
// Usage:
//
//	semindex serve --config config.yaml
//	semindex watch --root ~/Documents
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/semindex/semindex/config"
	"github.com/semindex/semindex/embedder"
	"github.com/semindex/semindex/extract"
	"github.com/semindex/semindex/filestore"
	"github.com/semindex/semindex/indexclient"
	"github.com/semindex/semindex/logger"
	"github.com/semindex/semindex/monitor"
	"github.com/semindex/semindex/ollama"
	"github.com/semindex/semindex/server"
	"github.com/semindex/semindex/summarizer"
	"github.com/semindex/semindex/vector"
	"github.com/semindex/semindex/watch"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the indexing API server."`
	Watch   WatchCmd   `cmd:"" help:"Start the file monitor."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (text or json)." default:"text"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("semindex version %s\n", version)
	return nil
}

// ServeCmd starts the indexing API server.
type ServeCmd struct {
	Port int `help:"Port to listen on (overrides config)."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	ollamaClient := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.GenerateTimeout)

	extractor := extract.New(extract.Config{
		MaxFileSize: cfg.Extract.MaxFileSize,
		Vision:      extract.NewOllamaVision(ollamaClient, cfg.Ollama.SummaryModel, cfg.Ollama.GenerateTimeout),
	})

	sum := summarizer.New(summarizer.Config{
		Client:        ollamaClient,
		Model:         cfg.Ollama.SummaryModel,
		MaxTextLength: cfg.Summary.MaxTextLength,
		ChunkSize:     cfg.Summary.ChunkSize,
		Timeout:       cfg.Ollama.GenerateTimeout,
	})

	emb := embedder.NewOllamaEmbedder(embedder.Config{
		Client:    ollamaClient,
		Model:     cfg.Ollama.EmbeddingModel,
		Dimension: cfg.Vector.Dimension,
		Timeout:   cfg.Ollama.EmbedTimeout,
	})

	store, err := vector.NewQdrantStore(ctx, vector.QdrantConfig{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		Collection: cfg.Qdrant.Collection,
		Dimension:  cfg.Vector.Dimension,
		Distance:   cfg.Vector.Distance,
		APIKey:     cfg.Qdrant.APIKey,
		UseTLS:     cfg.Qdrant.UseTLS,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to vector store: %w", err)
	}
	defer store.Close()

	srv := server.New(server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        cfg.Server.Version,
		QueryThreshold: cfg.Query.Threshold,
		DefaultLimit:   cfg.Query.DefaultLimit,
		MaxLimit:       cfg.Query.MaxLimit,
	}, extractor, sum, emb, store)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
	}()

	return srv.Start()
}

// WatchCmd starts the file monitor.
type WatchCmd struct {
	Root     string `help:"Directory tree to watch (overrides config)." type:"path"`
	IndexURL string `name:"index-url" help:"Indexing server base URL (overrides config)."`
}

func (c *WatchCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	if c.Root != "" {
		cfg.Monitor.RootDir = c.Root
	}
	if c.IndexURL != "" {
		cfg.Monitor.IndexURL = c.IndexURL
	}
	if cfg.Monitor.RootDir == "" {
		return fmt.Errorf("a watch root is required (--root or monitor.root_dir)")
	}

	db, dialect, err := filestore.Open(cfg.Monitor.DBDriver, cfg.Monitor.DBDSN)
	if err != nil {
		return err
	}
	store, err := filestore.NewSQLStore(db, dialect)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer store.Close()

	index := indexclient.NewClient(cfg.Monitor.IndexURL, 0)
	if err := index.Health(ctx); err != nil {
		slog.Warn("Index server not reachable yet", "url", cfg.Monitor.IndexURL, "error", err)
	}

	watcher, err := watch.NewWatcher(watch.Config{
		RootDir:       cfg.Monitor.RootDir,
		DebounceDelay: cfg.Monitor.DebounceDelay,
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	events, err := watcher.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	orch := monitor.NewOrchestrator(store, index, extract.IsSupported, monitor.OrchestratorConfig{
		IndexOnCreate: cfg.Monitor.IndexOnCreate,
		ReindexOnMove: cfg.Monitor.ReindexOnMove,
	})

	if cfg.Monitor.ReconcileInterval > 0 {
		reconciler := monitor.NewReconciler(store, index, cfg.Monitor.ReconcileInterval)
		go reconciler.Run(ctx)
	}

	if cfg.Monitor.HealthPort > 0 {
		health := monitor.NewHealthHandler(index, cfg.Monitor.RootDir)
		healthSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Monitor.HealthPort),
			Handler:           health.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("Starting monitor health server", "addr", healthSrv.Addr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Health server failed", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = healthSrv.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("Monitoring directory", "root", cfg.Monitor.RootDir, "index_url", cfg.Monitor.IndexURL)
	orch.Run(ctx, events)
	return nil
}

// loadConfig reads the config file or falls back to pure defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		slog.Info("Loaded configuration", "path", path)
		return cfg, nil
	}

	cfg := &config.Config{}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	return ctx, cancel
}

func main() {
	_ = config.LoadDotEnv()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("semindex"),
		kong.Description("semindex - local semantic file indexing"),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}

	output := os.Stderr
	if cli.LogFile != "" {
		f, cleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		output = f
	}
	logger.Init(level, output, cli.LogFormat)

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
