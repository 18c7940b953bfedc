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

// Package watch turns raw fsnotify notifications into a stream of
// file change events with move detection and debouncing.
package watch

import (
	"path/filepath"
	"strings"
	"time"
)

// EventType classifies a file change.
type EventType string

const (
	EventCreated  EventType = "created"
	EventModified EventType = "modified"
	EventDeleted  EventType = "deleted"
	EventMoved    EventType = "moved"
)

// SourceFilesystem marks events observed directly from the filesystem,
// as opposed to synthesized ones (reconciliation passes and the like).
const SourceFilesystem = "filesystem"

// ChangeEvent is a single observed change to a watched file.
// For EventMoved, Path is the destination and SrcPath the origin;
// for every other type SrcPath and SrcFileType are empty.
type ChangeEvent struct {
	Type        EventType
	Path        string
	SrcPath     string
	IsDir       bool
	FileType    string
	SrcFileType string
	Source      string
	Timestamp   time.Time
}

// Ext returns the lowercased extension of the event's path.
func (e ChangeEvent) Ext() string {
	return strings.ToLower(filepath.Ext(e.Path))
}

// FileTypeOf reports the extension of path without its leading dot,
// "directory" for directories and "no_extension" when there is none.
func FileTypeOf(path string, isDir bool) string {
	if isDir {
		return "directory"
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "no_extension"
	}
	return ext[1:]
}
