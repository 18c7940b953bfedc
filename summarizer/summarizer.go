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

// Package summarizer produces natural-language summaries of extracted
// file content, applying chunk-reduce to oversized inputs.
package summarizer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/semindex/semindex/fault"
	"github.com/semindex/semindex/ollama"
)

// Summarizer turns extracted text into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, text, filePath string) (string, error)
}

// OllamaSummarizer implements Summarizer over an Ollama completion model.
type OllamaSummarizer struct {
	client        *ollama.Client
	model         string
	maxTextLength int
	chunkSize     int
	timeout       time.Duration
}

// Config configures the summarizer.
type Config struct {
	// Client is the shared Ollama client. Required.
	Client *ollama.Client

	// Model name (default: gemma3:4b).
	Model string

	// MaxTextLength is the single-call ceiling in characters; longer
	// inputs go through chunk-reduce (default: 50000).
	MaxTextLength int

	// ChunkSize is the target chunk length in characters (default: 1000).
	ChunkSize int

	// Timeout bounds each completion call (default: 60s).
	Timeout time.Duration
}

// New creates an Ollama-backed summarizer.
func New(cfg Config) *OllamaSummarizer {
	model := cfg.Model
	if model == "" {
		model = "gemma3:4b"
	}
	maxLen := cfg.MaxTextLength
	if maxLen == 0 {
		maxLen = 50000
	}
	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = 1000
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &OllamaSummarizer{
		client:        cfg.Client,
		model:         model,
		maxTextLength: maxLen,
		chunkSize:     chunkSize,
		timeout:       timeout,
	}
}

// Summarize produces a summary of text. Inputs within MaxTextLength get
// a single completion call; longer inputs are chunk-reduced.
func (s *OllamaSummarizer) Summarize(ctx context.Context, text, filePath string) (string, error) {
	if len(text) <= s.maxTextLength {
		summary, err := s.complete(ctx, summaryPrompt(text, filePath))
		if err != nil {
			return "", fault.Wrap(fault.KindUnavailable, err, "failed to generate summary for %s", filePath)
		}
		if summary == "" {
			return "", fault.New(fault.KindUnprocessable, "summary model returned empty result for %s", filePath)
		}
		return summary, nil
	}

	return s.chunkReduce(ctx, text, filePath)
}

// chunkReduce summarizes each chunk independently, then reduces the
// chunk summaries into one. The reduction step is best-effort: if it
// fails or comes back empty, the concatenated chunk summaries stand in.
// Only zero successful chunk summaries fail the whole operation.
func (s *OllamaSummarizer) chunkReduce(ctx context.Context, text, filePath string) (string, error) {
	chunks := ChunkText(text, s.chunkSize)
	slog.Info("Summarizing oversized text in chunks",
		"path", filePath, "text_len", len(text), "chunks", len(chunks))

	var chunkSummaries []string
	for i, chunk := range chunks {
		summary, err := s.complete(ctx, chunkSummaryPrompt(chunk, i+1, len(chunks), filePath))
		if err != nil {
			slog.Warn("Chunk summarization failed",
				"path", filePath, "chunk", i+1, "total", len(chunks), "error", err)
			continue
		}
		if summary == "" {
			continue
		}
		chunkSummaries = append(chunkSummaries, summary)
	}

	if len(chunkSummaries) == 0 {
		return "", fault.New(fault.KindUnavailable, "all %d chunk summaries failed for %s", len(chunks), filePath)
	}

	final, err := s.complete(ctx, finalSummaryPrompt(chunkSummaries, filePath))
	if err != nil || final == "" {
		if err != nil {
			slog.Warn("Final summary reduction failed, using chunk summaries",
				"path", filePath, "error", err)
		}
		return strings.Join(chunkSummaries, "\n\n"), nil
	}

	return final, nil
}

// complete issues one bounded completion call.
func (s *OllamaSummarizer) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.client.Generate(ctx, s.model, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// Ensure OllamaSummarizer implements Summarizer.
var _ Summarizer = (*OllamaSummarizer)(nil)
