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
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextShortInput(t *testing.T) {
	chunks := ChunkText("short text", 1000)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestChunkTextExactBoundary(t *testing.T) {
	text := strings.Repeat("a", 100)
	chunks := ChunkText(text, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkTextReconstruction(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	chunks := ChunkText(text, 1000)

	require.Greater(t, len(chunks), 1)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestChunkTextPrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("word ", 140) // ~700 chars
	text := para + "\n\n" + para + "\n\n" + para

	chunks := ChunkText(text, 1000)
	require.Greater(t, len(chunks), 1)

	// The first chunk ends on the paragraph break, not mid-sentence.
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"))
}

func TestChunkTextFallsBackToSentenceBoundary(t *testing.T) {
	sentence := strings.Repeat("word ", 30) + "end."
	text := strings.Repeat(sentence+" ", 50)

	chunks := ChunkText(text, 1000)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(strings.TrimRight(chunks[0], " "), "."))
}

func TestChunkTextNeverBreaksBeforeMidpoint(t *testing.T) {
	// A period right at the start of the window must not produce a
	// tiny chunk: boundaries are only considered in the back half.
	text := "a." + strings.Repeat("b", 5000)

	chunks := ChunkText(text, 1000)
	for i, chunk := range chunks[:len(chunks)-1] {
		assert.GreaterOrEqual(t, len(chunk), 500, "chunk %d too small", i)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestChunkTextNoBoundaryHardCut(t *testing.T) {
	text := strings.Repeat("x", 2500)
	chunks := ChunkText(text, 1000)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 500)
}

func TestChunkTextRespectsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("ü", 2000) // 2 bytes per rune, no . or \n\n
	chunks := ChunkText(text, 999)

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d splits a rune", i)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}
