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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semindex/semindex/fault"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExtractMissingFile(t *testing.T) {
	e := New(Config{})
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))

	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindNotFound))
}

func TestExtractDirectory(t *testing.T) {
	e := New(Config{})
	_, err := e.Extract(context.Background(), t.TempDir())

	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindInvalidInput))
}

func TestExtractUnsupportedExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "binary.exe", []byte{0x4d, 0x5a})

	e := New(Config{})
	_, err := e.Extract(context.Background(), path)

	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindUnsupportedType))
}

func TestExtractTooLarge(t *testing.T) {
	path := writeFile(t, t.TempDir(), "big.txt", make([]byte, 2048))

	e := New(Config{MaxFileSize: 1024})
	_, err := e.Extract(context.Background(), path)

	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindTooLarge))
}

func TestExtractPlainText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", []byte("hello world\n"))

	e := New(Config{})
	text, err := e.Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "hello world\n", text)
}

func TestExtractTextWithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	path := writeFile(t, t.TempDir(), "bom.txt", data)

	e := New(Config{})
	text, err := e.Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestExtractLatin1Fallback(t *testing.T) {
	// "café" in ISO-8859-1: é is 0xE9, invalid as UTF-8.
	path := writeFile(t, t.TempDir(), "latin1.txt", []byte{'c', 'a', 'f', 0xE9})

	e := New(Config{})
	text, err := e.Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "café", text)
}

func TestExtractCodeFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "main.go", []byte("package main\n"))

	e := New(Config{})
	text, err := e.Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "package main\n", text)
}

func TestExtractImageWithoutVision(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pic.png", []byte{0x89, 'P', 'N', 'G'})

	e := New(Config{})
	_, err := e.Extract(context.Background(), path)

	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindUnavailable))
}

type staticVision struct {
	description string
}

func (v staticVision) Describe(ctx context.Context, image []byte) (string, error) {
	return v.description, nil
}

func TestExtractImageWithVision(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pic.jpg", []byte{0xFF, 0xD8, 0xFF})

	e := New(Config{Vision: staticVision{description: "a red square"}})
	text, err := e.Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "a red square", text)
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		path string
		kind Kind
		ok   bool
	}{
		{"doc.txt", KindText, true},
		{"doc.md", KindText, true},
		{"main.py", KindText, true},
		{"report.PDF", KindPDF, true},
		{"letter.docx", KindDOCX, true},
		{"sheet.xlsx", KindXLSX, true},
		{"photo.jpeg", KindImage, true},
		{"archive.zip", 0, false},
		{"noext", 0, false},
	}

	for _, tt := range tests {
		kind, ok := KindFor(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if tt.ok {
			assert.Equal(t, tt.kind, kind, tt.path)
		}
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a/b/c.txt"))
	assert.True(t, IsSupported("slides.pdf"))
	assert.False(t, IsSupported("movie.mp4"))
}
