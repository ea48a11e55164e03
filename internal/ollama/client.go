// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ollachat/ollachat/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorType classifies client failures.
type ErrorType string

const (
	ErrorTypeNotRunning    ErrorType = "not_running"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeModelNotFound ErrorType = "model_not_found"
	ErrorTypeAPI           ErrorType = "api_error"
	ErrorTypeNetwork       ErrorType = "network_error"
)

// ClientError is the error type returned by all client operations.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Sentinel errors for errors.Is checks.
var (
	ErrNotRunning = &ClientError{
		Type:    ErrorTypeNotRunning,
		Message: "ollama is not running",
	}
	ErrTimeout = &ClientError{
		Type:    ErrorTypeTimeout,
		Message: "request timed out",
	}
	ErrModelNotFound = &ClientError{
		Type:    ErrorTypeModelNotFound,
		Message: "model not found",
	}
)

// Is matches ClientErrors by Type so wrapped errors compare against the
// sentinels.
func (e *ClientError) Is(target error) bool {
	var ce *ClientError
	if errors.As(target, &ce) {
		return e.Type == ce.Type
	}
	return false
}

// IsNotRunning reports whether err indicates the Ollama server is
// unreachable.
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsModelNotFound reports whether err indicates an unknown model.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

// =============================================================================
// CLIENT
// =============================================================================

// DefaultBaseURL is the standard local Ollama endpoint.
const DefaultBaseURL = "http://127.0.0.1:11434"

// ClientConfig controls client behavior. Zero fields take defaults.
type ClientConfig struct {
	// BaseURL of the Ollama server.
	BaseURL string
	// Timeout for non-streaming requests.
	Timeout time.Duration
	// DefaultModel used when a request names none.
	DefaultModel string
}

// Client talks to a local Ollama server.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	defaultModel string
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(ClientConfig{})
}

// NewClientWithConfig creates a client, filling in defaults for any
// zero-valued fields.
func NewClientWithConfig(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		defaultModel: cfg.DefaultModel,
	}
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DefaultModel returns the configured default model name.
func (c *Client) DefaultModel() string {
	return c.defaultModel
}

// =============================================================================
// SERVER LIFECYCLE
// =============================================================================

// CheckRunning verifies the server answers on its base URL.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return &ClientError{Type: ErrorTypeNetwork, Message: "failed to build request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ClientError{Type: ErrorTypeNotRunning, Message: "ollama is not running", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrorTypeNotRunning,
			Message: fmt.Sprintf("ollama returned status %d", resp.StatusCode),
		}
	}
	return nil
}

// EnsureRunning checks the server and, if it is down, attempts to start
// it as a background process and waits for it to answer.
func (c *Client) EnsureRunning(ctx context.Context) error {
	if err := c.CheckRunning(ctx); err == nil {
		return nil
	}
	if err := c.startServer(ctx); err != nil {
		return err
	}
	return c.CheckRunning(ctx)
}

// =============================================================================
// MODELS
// =============================================================================

// ListModels fetches the installed models from /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrorTypeNetwork, Message: "failed to build request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.wrapTransportError("failed to list models", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var list ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &ClientError{Type: ErrorTypeAPI, Message: "failed to decode model list", Cause: err}
	}
	return list.Models, nil
}

// =============================================================================
// CHAT
// =============================================================================

// Chat sends a non-streaming chat request and returns the complete
// response.
func (c *Client) Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error) {
	if model == "" {
		model = c.defaultModel
	}

	body, err := json.Marshal(ChatRequest{Model: model, Messages: messages, Stream: false})
	if err != nil {
		return nil, &ClientError{Type: ErrorTypeAPI, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrorTypeNetwork, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.wrapTransportError("chat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ClientError{Type: ErrorTypeAPI, Message: "failed to decode response", Cause: err}
	}
	return &out, nil
}

// ChatStream sends a streaming chat request, invoking callback for each
// chunk until the stream ends or ctx is cancelled. The callback runs on
// the calling goroutine.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message, callback StreamCallback) error {
	if model == "" {
		model = c.defaultModel
	}

	body, err := json.Marshal(ChatRequest{Model: model, Messages: messages, Stream: true})
	if err != nil {
		return &ClientError{Type: ErrorTypeAPI, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrorTypeNetwork, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	// No client timeout here: a streaming response is open-ended.
	// Cancellation comes from ctx.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return c.wrapTransportError("chat stream request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}

	return NewStreamReader(resp.Body).Process(ctx, callback)
}

// =============================================================================
// HELPERS
// =============================================================================

// wrapTransportError converts low-level HTTP errors into typed client
// errors.
func (c *Client) wrapTransportError(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrorTypeTimeout, Message: msg, Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	util.Debugf("transport error: %s: %v", msg, err)
	return &ClientError{Type: ErrorTypeNotRunning, Message: msg, Cause: err}
}

// apiError decodes an Ollama error body into a typed error.
func (c *Client) apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr OllamaError
	msg := fmt.Sprintf("ollama returned status %d", resp.StatusCode)
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}

	if resp.StatusCode == http.StatusNotFound {
		return &ClientError{Type: ErrorTypeModelNotFound, Message: msg}
	}
	return &ClientError{Type: ErrorTypeAPI, Message: msg}
}
