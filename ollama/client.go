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

// Package ollama provides a shared client for the Ollama API: text
// completion (optionally with images, for vision models) and embeddings.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/semindex/semindex/httpclient"
)

// Client is a shared HTTP client for Ollama API interactions.
type Client struct {
	baseURL    string
	httpClient *httpclient.Client
}

// generateRequest is the payload for /api/generate.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"` // base64-encoded
	Stream bool     `json:"stream"`
}

// generateResponse is the non-streaming response from /api/generate.
type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// embeddingsRequest is the payload for /api/embeddings.
type embeddingsRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embeddingsResponse is the response from /api/embeddings.
type embeddingsResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// NewClient creates an Ollama client. An empty baseURL defaults to the
// local daemon.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(2*time.Second),
		),
	}
}

// Generate issues a completion request and returns the model's response
// text. Images, when present, are base64-encoded into the request for
// vision-capable models.
func (c *Client) Generate(ctx context.Context, model, prompt string, images ...[]byte) (string, error) {
	req := generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}
	for _, img := range images {
		req.Images = append(req.Images, base64.StdEncoding.EncodeToString(img))
	}

	slog.Debug("Ollama generate request", "model", model, "prompt_len", len(prompt), "images", len(req.Images))

	var resp generateResponse
	if err := c.post(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama generate error: %s", resp.Error)
	}

	return resp.Response, nil
}

// Embed converts text to a vector embedding.
func (c *Client) Embed(ctx context.Context, model, text string) ([]float32, error) {
	req := embeddingsRequest{Model: model, Prompt: text}

	slog.Debug("Ollama embedding request", "model", model, "text_len", len(text))

	var resp embeddingsResponse
	if err := c.post(ctx, "/api/embeddings", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama embeddings error: %s", resp.Error)
	}

	return resp.Embedding, nil
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// post marshals payload, performs the request, and decodes the response
// into out.
func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Ollama API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
