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

// Package indexclient is the HTTP client for the indexing server API,
// used by the file monitor to push changes.
package indexclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/semindex/semindex/fault"
	"github.com/semindex/semindex/httpclient"
	"github.com/semindex/semindex/vector"
)

// Client talks to the indexing server.
type Client struct {
	baseURL    string
	httpClient *httpclient.Client
}

// UpsertResponse is the server's answer to an upsert.
type UpsertResponse struct {
	Message string `json:"message"`
	FileID  string `json:"file_id"`
	Status  string `json:"status"`
}

// DeleteResponse is the server's answer to a delete.
type DeleteResponse struct {
	Message string `json:"message"`
	FileID  string `json:"file_id"`
	Status  string `json:"status"`
}

// NewClient creates a client for the indexing server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
		),
	}
}

// Upsert asks the server to (re)index the file at path under fileID.
func (c *Client) Upsert(ctx context.Context, fileID, filePath string) (*UpsertResponse, error) {
	body := map[string]string{
		"file_id":   fileID,
		"file_path": filePath,
	}

	var resp UpsertResponse
	if err := c.do(ctx, http.MethodPost, "/upsert", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete asks the server to drop the index point for fileID.
func (c *Client) Delete(ctx context.Context, fileID string) (*DeleteResponse, error) {
	body := map[string]string{"file_id": fileID}

	var resp DeleteResponse
	if err := c.do(ctx, http.MethodDelete, "/delete", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Query runs a semantic search. A zero limit uses the server default.
func (c *Client) Query(ctx context.Context, text string, limit int) ([]vector.Result, error) {
	body := map[string]any{"text": text}
	if limit > 0 {
		body["limit"] = limit
	}

	// The server answers with the bare result array.
	var results []vector.Result
	if err := c.do(ctx, http.MethodPost, "/query", body, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Health checks whether the server is reachable and healthy.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fault.Wrap(fault.KindUnavailable, err, "index server unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fault.New(fault.KindUnavailable, "index server unhealthy: HTTP %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fault.Wrap(fault.KindUnavailable, err, "index server unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// apiError maps an error response back to a fault kind.
func apiError(resp *http.Response) error {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	msg := body.Detail
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	kind := fault.KindInternal
	switch resp.StatusCode {
	case http.StatusNotFound:
		kind = fault.KindNotFound
	case http.StatusBadRequest:
		kind = fault.KindInvalidInput
	case http.StatusUnsupportedMediaType:
		kind = fault.KindUnsupportedType
	case http.StatusRequestEntityTooLarge:
		kind = fault.KindTooLarge
	case http.StatusUnprocessableEntity:
		kind = fault.KindUnprocessable
	case http.StatusServiceUnavailable:
		kind = fault.KindUnavailable
	}

	return fault.New(kind, "%s", msg)
}
