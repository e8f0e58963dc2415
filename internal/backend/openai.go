// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient answers through an OpenAI-compatible chat completions API.
type OpenAIClient struct {
	client     *openai.Client
	model      string
	configured bool
}

// NewOpenAIClient creates a client. baseURL may point at any compatible
// server; empty uses api.openai.com, which then requires apiKey.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &OpenAIClient{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		configured: apiKey != "" || baseURL != "",
	}
}

// Name implements Generator.
func (c *OpenAIClient) Name() string { return "openai" }

// Generate sends question as a single user message and returns
// choices[0].message.content, or "" when there is no choice.
func (c *OpenAIClient) Generate(ctx context.Context, question string) (string, error) {
	if !c.configured {
		return "", fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &APIError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
