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
	"time"

	"github.com/semindex/semindex/ollama"
)

// visionPrompt instructs the model to produce searchable content for an
// image rather than a caption.
const visionPrompt = `Describe this image for semantic search indexing. ` +
	`Transcribe any visible text exactly as written. Describe the main ` +
	`subjects, any diagrams, charts, or UI elements, and the overall ` +
	`context. Focus on content someone might search for. Return only the ` +
	`description without labels or formatting.`

// OllamaVision implements Vision using a vision-capable Ollama model.
type OllamaVision struct {
	client  *ollama.Client
	model   string
	timeout time.Duration
}

// NewOllamaVision creates a vision extractor backed by the given model.
func NewOllamaVision(client *ollama.Client, model string, timeout time.Duration) *OllamaVision {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &OllamaVision{client: client, model: model, timeout: timeout}
}

// Describe sends the image to the vision model and returns its free-text
// description.
func (v *OllamaVision) Describe(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	return v.client.Generate(ctx, v.model, visionPrompt, image)
}

// Ensure OllamaVision implements Vision.
var _ Vision = (*OllamaVision)(nil)
