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
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/semindex/semindex/fault"
)

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
	xmlEntities      = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

// extractDOCX extracts per-paragraph text and joins non-empty paragraphs
// with a blank line.
func extractDOCX(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fault.Wrap(fault.KindUnprocessable, err, "failed to parse DOCX %s", path)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()

	var paragraphs []string
	for _, raw := range docxParagraphEnd.Split(content, -1) {
		text := strings.TrimSpace(xmlEntities.Replace(xmlTag.ReplaceAllString(raw, "")))
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	if len(paragraphs) == 0 {
		return "", fault.New(fault.KindUnprocessable, "no extractable text in DOCX %s", path)
	}

	return strings.Join(paragraphs, "\n\n"), nil
}
