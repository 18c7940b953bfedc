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

package summarizer

import (
	"fmt"
	"strings"
)

// summaryPrompt builds the single-call summarization prompt.
func summaryPrompt(text, filePath string) string {
	return fmt.Sprintf(`Summarize the following text content%s. Focus on main topics, key concepts, and important details. Write a comprehensive yet concise summary that captures the essence for semantic search. Return only the summary text without any labels or formatting.

%s`, fileContext(filePath), text)
}

// chunkSummaryPrompt builds the prompt for one chunk of an oversized
// document. Chunk numbers are 1-indexed.
func chunkSummaryPrompt(chunk string, chunkNumber, totalChunks int, filePath string) string {
	return fmt.Sprintf(`Summarize this text chunk (part %d of %d)%s. Focus on key information and main topics in this section. Return only the summary text without any labels.

%s`, chunkNumber, totalChunks, fileContext(filePath), chunk)
}

// finalSummaryPrompt builds the reduction prompt over chunk summaries.
func finalSummaryPrompt(chunkSummaries []string, filePath string) string {
	var sections strings.Builder
	for i, summary := range chunkSummaries {
		if i > 0 {
			sections.WriteString("\n\n")
		}
		fmt.Fprintf(&sections, "Section %d: %s", i+1, summary)
	}

	return fmt.Sprintf(`Create a comprehensive final summary based on these section summaries%s. Capture the overall content and main themes of the entire document. Return only the summary text without any labels.

%s`, fileContext(filePath), sections.String())
}

func fileContext(filePath string) string {
	if filePath == "" {
		return ""
	}
	return " from " + filePath
}
