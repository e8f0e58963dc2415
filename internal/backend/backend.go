// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jeranaias/devdose-tui/internal/config"
)

// Generator answers a single question.
type Generator interface {
	Generate(ctx context.Context, question string) (string, error)
	Name() string
}

var (
	// ErrNotConfigured means the backend has no endpoint or API key.
	ErrNotConfigured = errors.New("backend not configured")

	// ErrTransport wraps failures to reach the endpoint at all.
	ErrTransport = errors.New("request failed")

	// ErrUnknownBackend means api.backend names no known backend.
	ErrUnknownBackend = errors.New("unknown backend")
)

// APIError is a non-2xx reply from the generation endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation request failed (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("generation request failed (HTTP %d): %s", e.Status, e.Message)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

// New builds the backend named by cfg.API.Backend. A backend missing its
// credentials still builds; its requests fail with ErrNotConfigured so the
// UI keeps running.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	var (
		gen Generator
		err error
	)

	switch cfg.API.Backend {
	case config.BackendHTTP, "":
		endpoint := cfg.API.Endpoint
		if endpoint == "" && cfg.API.APIKey != "" {
			endpoint = GeminiEndpoint(cfg.API.BaseURL, cfg.API.Model, cfg.API.APIKey)
		}
		gen = NewHTTPClient(endpoint).
			WithTimeout(cfg.Timeout()).
			WithMaxRetries(cfg.API.MaxRetries)

	case config.BackendGenAI:
		if cfg.API.APIKey == "" {
			gen = unconfigured(config.BackendGenAI)
			break
		}
		gen, err = NewGenAIClient(ctx, cfg.API.APIKey, cfg.API.Model)

	case config.BackendOpenAI:
		gen = NewOpenAIClient(cfg.API.APIKey, cfg.API.Endpoint, cfg.API.Model)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.API.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("backend", gen.Name()).
		Str("model", cfg.API.Model).
		Int("requests_per_minute", cfg.API.RequestsPerMinute).
		Msg("generation backend ready")

	return WithRateLimit(gen, cfg.API.RequestsPerMinute), nil
}

// =============================================================================
// RATE LIMITING
// =============================================================================

// Limited delays requests so at most perMinute start in any minute.
type Limited struct {
	next    Generator
	limiter *rate.Limiter
}

// WithRateLimit wraps g in a limiter. perMinute <= 0 returns g unchanged.
func WithRateLimit(g Generator, perMinute int) Generator {
	if perMinute <= 0 {
		return g
	}
	return &Limited{
		next:    g,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Generate waits for a token and forwards the request.
func (l *Limited) Generate(ctx context.Context, question string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return l.next.Generate(ctx, question)
}

// Name returns the wrapped backend's name.
func (l *Limited) Name() string { return l.next.Name() }

// Unwrap returns the wrapped backend.
func (l *Limited) Unwrap() Generator { return l.next }

type unconfigured string

func (u unconfigured) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("%s: %w", string(u), ErrNotConfigured)
}

func (u unconfigured) Name() string { return string(u) }
