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

// Package fault defines the error taxonomy shared by the indexing pipeline.
//
// Every boundary error carries a Kind so that callers can decide how to
// surface it: the HTTP layer maps kinds to status codes, while the file
// monitor logs and drops.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindInternal is an unexpected failure with no better classification.
	KindInternal Kind = iota

	// KindNotFound indicates a path or resource that does not exist.
	KindNotFound

	// KindInvalidInput indicates a malformed request, e.g. a directory
	// where a file was expected or a missing required field.
	KindInvalidInput

	// KindUnsupportedType indicates a file extension outside the
	// indexable set.
	KindUnsupportedType

	// KindTooLarge indicates a file exceeding the configured size ceiling.
	KindTooLarge

	// KindUnprocessable indicates extraction or summarization yielded
	// nothing usable.
	KindUnprocessable

	// KindUnavailable indicates a downstream model or store call failed
	// or timed out.
	KindUnavailable
)

// String returns the kind's wire name.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindUnsupportedType:
		return "unsupported_type"
	case KindTooLarge:
		return "too_large"
	case KindUnprocessable:
		return "unprocessable"
	case KindUnavailable:
		return "service_unavailable"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to its HTTP response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnsupportedType:
		return http.StatusUnsupportedMediaType
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified pipeline error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
