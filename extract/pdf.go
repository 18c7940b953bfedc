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

package extract

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/semindex/semindex/fault"
)

// extractPDF extracts per-page text and joins non-empty pages with a
// blank line. Pages that fail to extract are skipped.
func extractPDF(ctx context.Context, path string, size int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fault.Wrap(fault.KindInternal, err, "failed to open PDF %s", path)
	}
	defer file.Close()

	reader, err := pdf.NewReader(file, size)
	if err != nil {
		return "", fault.Wrap(fault.KindUnprocessable, err, "failed to parse PDF %s", path)
	}

	var pages []string
	totalPages := reader.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Debug("PDF page extraction failed", "path", path, "page", pageNum, "error", err)
			continue
		}

		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	if len(pages) == 0 {
		return "", fault.New(fault.KindUnprocessable, "no extractable text in PDF %s", path)
	}

	return strings.Join(pages, "\n\n"), nil
}
