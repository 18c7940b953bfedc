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

// Package extract turns file paths into indexable text.
//
// Dispatch is a closed table keyed by lowercase extension: plain text
// (with encoding fallbacks), PDF, DOCX, XLSX, and images via a
// vision-capable model. Unknown extensions are rejected before any file
// content is read.
package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/semindex/semindex/fault"
)

// Kind identifies the extraction strategy for a file.
type Kind int

const (
	// KindText reads the file as text with encoding fallbacks.
	KindText Kind = iota

	// KindPDF extracts per-page text.
	KindPDF

	// KindDOCX extracts per-paragraph text.
	KindDOCX

	// KindXLSX extracts per-sheet cell text.
	KindXLSX

	// KindImage describes the image through a vision model.
	KindImage
)

// supportedKinds maps every indexable extension to its extraction kind.
// Built once; lookups reject unknown extensions early.
var supportedKinds = map[string]Kind{
	// Text files
	".txt": KindText, ".md": KindText, ".py": KindText, ".js": KindText,
	".ts": KindText, ".jsx": KindText, ".tsx": KindText, ".html": KindText,
	".htm": KindText, ".css": KindText, ".json": KindText, ".xml": KindText,
	".yaml": KindText, ".yml": KindText, ".toml": KindText, ".ini": KindText,
	".cfg": KindText, ".conf": KindText, ".sh": KindText, ".bat": KindText,
	".ps1": KindText, ".sql": KindText, ".csv": KindText, ".log": KindText,

	// Document files
	".pdf":  KindPDF,
	".doc":  KindText,
	".docx": KindDOCX,
	".xlsx": KindXLSX,
	".rtf":  KindText,

	// Code files
	".c": KindText, ".cpp": KindText, ".h": KindText, ".hpp": KindText,
	".java": KindText, ".go": KindText, ".rs": KindText, ".php": KindText,
	".rb": KindText, ".swift": KindText, ".kt": KindText, ".scala": KindText,
	".r": KindText, ".m": KindText,

	// Image files (processed with vision)
	".png": KindImage, ".jpg": KindImage, ".jpeg": KindImage,
	".gif": KindImage, ".bmp": KindImage, ".tiff": KindImage,
	".webp": KindImage, ".svg": KindImage,
}

// KindFor returns the extraction kind for a path's extension.
func KindFor(path string) (Kind, bool) {
	kind, ok := supportedKinds[strings.ToLower(filepath.Ext(path))]
	return kind, ok
}

// IsSupported reports whether the path's extension is indexable.
func IsSupported(path string) bool {
	_, ok := KindFor(path)
	return ok
}

// Vision describes image content through a model call.
type Vision interface {
	Describe(ctx context.Context, image []byte) (string, error)
}

// Extractor turns file paths into indexable text.
type Extractor struct {
	maxFileSize int64
	vision      Vision
}

// Config configures the extractor.
type Config struct {
	// MaxFileSize is the per-file size ceiling in bytes (default: 10 MiB).
	MaxFileSize int64

	// Vision handles image files. Nil makes image extraction fail as
	// service_unavailable.
	Vision Vision
}

// New creates an extractor.
func New(cfg Config) *Extractor {
	maxSize := cfg.MaxFileSize
	if maxSize == 0 {
		maxSize = 10 * 1024 * 1024
	}

	return &Extractor{
		maxFileSize: maxSize,
		vision:      cfg.Vision,
	}
}

// Extract reads and extracts indexable text from the file at path.
//
// Failure kinds: not_found if the path does not exist, invalid_input if
// it is a directory, unsupported_type for unknown extensions, too_large
// beyond the size ceiling, unprocessable when nothing usable comes out,
// service_unavailable when the vision model call fails.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fault.New(fault.KindNotFound, "file not found: %s", path)
	}
	if err != nil {
		return "", fault.Wrap(fault.KindInternal, err, "failed to stat %s", path)
	}
	if info.IsDir() {
		return "", fault.New(fault.KindInvalidInput, "path is a directory: %s", path)
	}

	kind, ok := KindFor(path)
	if !ok {
		return "", fault.New(fault.KindUnsupportedType, "unsupported file type: %s", filepath.Ext(path))
	}

	if info.Size() > e.maxFileSize {
		return "", fault.New(fault.KindTooLarge, "file %s exceeds size limit (%d > %d bytes)",
			path, info.Size(), e.maxFileSize)
	}

	switch kind {
	case KindPDF:
		return extractPDF(ctx, path, info.Size())
	case KindDOCX:
		return extractDOCX(path)
	case KindXLSX:
		return extractXLSX(ctx, path)
	case KindImage:
		return e.extractImage(ctx, path)
	default:
		return extractText(path)
	}
}

// extractImage delegates to the vision model.
func (e *Extractor) extractImage(ctx context.Context, path string) (string, error) {
	if e.vision == nil {
		return "", fault.New(fault.KindUnavailable, "no vision model configured for image %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fault.Wrap(fault.KindInternal, err, "failed to read image %s", path)
	}

	description, err := e.vision.Describe(ctx, data)
	if err != nil {
		return "", fault.Wrap(fault.KindUnavailable, err, "vision model failed for %s", path)
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return "", fault.New(fault.KindUnprocessable, "vision model returned no description for %s", path)
	}

	return description, nil
}
