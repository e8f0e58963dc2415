// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/devdose-tui/internal/util"
)

const (
	// DefaultTimeout bounds one HTTP request.
	DefaultTimeout = 60 * time.Second

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second

	// MaxResponseSize caps the response body.
	MaxResponseSize = 10 * 1024 * 1024
)

// GeminiEndpoint builds the generateContent URL for model.
func GeminiEndpoint(baseURL, model, apiKey string) string {
	base := strings.TrimSuffix(baseURL, "/")
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		base, url.PathEscape(model), url.QueryEscape(apiKey))
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// HTTPClient posts questions to a Gemini-style REST endpoint.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	maxRetries int
	retryBase  time.Duration
}

// NewHTTPClient creates a client for endpoint. An empty endpoint makes
// every request fail with ErrNotConfigured.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retryBase:  retryBaseDelay,
	}
}

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func (c *HTTPClient) WithTimeout(timeout time.Duration) *HTTPClient {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithMaxRetries sets how many extra attempts follow a 5xx or 429.
func (c *HTTPClient) WithMaxRetries(n int) *HTTPClient {
	if n < 0 {
		n = 0
	}
	c.maxRetries = n
	return c
}

// WithHTTPClient replaces the underlying client.
func (c *HTTPClient) WithHTTPClient(hc *http.Client) *HTTPClient {
	c.httpClient = hc
	return c
}

// Name implements Generator.
func (c *HTTPClient) Name() string { return "http" }

// IsConfigured reports whether an endpoint is set.
func (c *HTTPClient) IsConfigured() bool { return c.endpoint != "" }

// Generate sends question and returns candidates[0].content.parts[0].text,
// or "" when that path is absent.
func (c *HTTPClient) Generate(ctx context.Context, question string) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("http: %w", ErrNotConfigured)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: question}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			log.Debug().Err(lastErr).Int("attempt", attempt).Dur("delay", delay).Msg("retrying generation request")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		text, err := c.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		if !isRetryable(err) {
			return "", err
		}
		lastErr = err
	}

	if c.maxRetries == 0 {
		return "", lastErr
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *HTTPClient) doRequest(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "devdose")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	// The URL may carry the API key; log the status only.
	log.Debug().Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("generation response")

	data, err := readResponse(resp)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errorFromResponse(resp.StatusCode, data)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return ExtractText(decoded), nil
}

func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// maxErrorMessageRunes caps a non-JSON error body kept in an APIError.
const maxErrorMessageRunes = 200

func errorFromResponse(status int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{Status: status, Message: apiErr.Error.Message}
	}
	msg := util.PrefixRunes(strings.TrimSpace(string(body)), maxErrorMessageRunes)
	return &APIError{Status: status, Message: msg}
}

// ExtractText walks candidates[0].content.parts[0].text in a decoded JSON
// value. Any missing or mistyped step yields "".
func ExtractText(v any) string {
	step := func(v any, key string) any {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		return m[key]
	}
	first := func(v any) any {
		list, ok := v.([]any)
		if !ok || len(list) == 0 {
			return nil
		}
		return list[0]
	}

	v = first(step(v, "candidates"))
	v = first(step(step(v, "content"), "parts"))
	text, _ := step(v, "text").(string)
	return text
}

func (c *HTTPClient) calculateBackoff(attempt int) time.Duration {
	delay := c.retryBase * time.Duration(1<<(attempt-1))
	if delay > retryMaxDelay || delay <= 0 {
		delay = retryMaxDelay
	}
	return delay
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return errors.Is(err, ErrTransport)
}
