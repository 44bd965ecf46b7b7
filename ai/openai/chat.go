// Copyright 2025 Poiesic Systems
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

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/retry"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxParseAttempts = 3

// chatModel sends JSON-mode prompts and decodes the reply.
type chatModel struct {
	client       llms.Model
	maxRetries   int
	retryDelay   time.Duration
	maxTextChars int
	logger       *slog.Logger
}

func newChatModel(config *ai.Config, component string) (*chatModel, error) {
	client, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken(token(config)),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}
	return &chatModel{
		client:       client,
		maxRetries:   config.MaxRetries,
		retryDelay:   config.RetryDelay,
		maxTextChars: config.MaxTextChars,
		logger:       slog.Default().With("component", component),
	}, nil
}

func token(config *ai.Config) string {
	if config.APIKey == "" {
		return "none"
	}
	return config.APIKey
}

// generateJSON decodes the model's answer to systemPrompt and userText into out.
func (m *chatModel) generateJSON(ctx context.Context, systemPrompt, userText string, out any) error {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, truncate(userText, m.maxTextChars)),
	}

	var lastErr error
	for attempt := 1; attempt <= maxParseAttempts; attempt++ {
		var response *llms.ContentResponse
		err := retry.WithBackoff(ctx, func() error {
			r, err := m.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
			if err != nil {
				return err
			}
			response = r
			return nil
		}, m.maxRetries, m.retryDelay)
		if err != nil {
			m.logger.Error("failed to generate content", "err", err)
			return fmt.Errorf("%w: %w", ErrModelCall, err)
		}

		if len(response.Choices) < 1 {
			return ErrNoChoices
		}

		text := repairJSON(stripCodeFences(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(text), out); err != nil {
			lastErr = err
			m.logger.Warn("error parsing model response",
				"attempt", attempt,
				"response", text,
				"err", err)
			continue
		}
		return nil
	}

	m.logger.Error("failed to parse model response after retries", "err", lastErr)
	return fmt.Errorf("%w: %w", ErrMalformedResponse, lastErr)
}
