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
	"strings"
	"unicode/utf8"
)

// ChunkText splits text into chunks of roughly chunkSize characters.
//
// Break points are chosen within the back half of each window, preferring
// a paragraph boundary ("\n\n"), then a sentence boundary ("."). A chunk
// never breaks earlier than its midpoint; with no boundary at all it
// breaks at chunkSize (adjusted to a rune boundary). Chunks are exact
// slices: concatenating them reconstructs the input.
func ChunkText(text string, chunkSize int) []string {
	if chunkSize <= 0 || len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		remaining := len(text) - start
		if remaining <= chunkSize {
			chunks = append(chunks, text[start:])
			break
		}

		window := text[start : start+chunkSize]
		half := chunkSize / 2

		cut := -1
		if idx := strings.LastIndex(window[half:], "\n\n"); idx >= 0 {
			cut = half + idx + len("\n\n")
		} else if idx := strings.LastIndex(window[half:], "."); idx >= 0 {
			cut = half + idx + len(".")
		}

		if cut < 0 {
			cut = chunkSize
			// Don't split a multi-byte rune.
			for cut > half && !utf8.RuneStart(text[start+cut]) {
				cut--
			}
		}

		chunks = append(chunks, text[start:start+cut])
		start += cut
	}

	return chunks
}
