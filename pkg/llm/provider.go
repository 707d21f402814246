// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Default provider settings.
const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultModel     = "openai/gpt-4o-mini"
	DefaultOllamaURL = "http://localhost:11434"
	DefaultTimeout   = 30 * time.Second
)

var (
	// ErrSchema marks a response that does not conform to the requested
	// output schema. Callers must not retry it.
	ErrSchema = errors.New("response does not conform to the output schema")

	// ErrMissingAPIKey is returned when an authenticated provider has no key.
	ErrMissingAPIKey = errors.New("API key is required")
)

// Provider completes a single prompt.
type Provider interface {
	// Complete sends req and returns the model's raw text. A response that
	// violates req.Schema is reported with an error wrapping ErrSchema.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider identifier.
	Name() string
}

// Schema is a named JSON schema the response must follow.
type Schema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	JSON        json.RawMessage `json:"schema"`
}

// CompletionRequest represents a single-prompt completion request.
type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature"`
	Schema      *Schema `json:"schema,omitempty"`
}

// CompletionResponse contains the model output.
type CompletionResponse struct {
	Text         string        `json:"text"`
	Model        string        `json:"model"`
	PromptTokens int           `json:"prompt_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	TotalTokens  int           `json:"total_tokens,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
}

// ProviderConfig holds configuration for creating providers.
type ProviderConfig struct {
	// Provider type: "openrouter", "openai", "ollama", "mock"
	Type string `json:"type"`

	// BaseURL for the API endpoint
	BaseURL string `json:"base_url,omitempty"`

	// APIKey for authenticated providers (OpenRouter, OpenAI)
	APIKey string `json:"api_key,omitempty"`

	// DefaultModel to use if not specified in requests
	DefaultModel string `json:"default_model,omitempty"`

	// Timeout bounds each HTTP request
	Timeout time.Duration `json:"timeout,omitempty"`
}

// NewProvider creates a Provider based on configuration.
// Supported types: "openrouter" (default), "openai", "ollama", "mock".
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch strings.ToLower(cfg.Type) {
	case "openrouter", "openai", "openai-compatible", "":
		return NewOpenAIProvider(cfg)
	case "ollama", "local":
		return newOllamaProvider(cfg)
	case "mock", "test":
		return &MockProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s (supported: openrouter, openai, ollama, mock)", cfg.Type)
	}
}

// =============================================================================
// OPENAI-COMPATIBLE PROVIDER (OpenRouter, OpenAI)
// =============================================================================

// OpenAIProvider talks to an OpenAI-compatible chat completions endpoint.
// A request schema is sent as a strict json_schema response format.
type OpenAIProvider struct {
	baseURL      string
	apiKey       string
	defaultModel string
	client       *http.Client
}

// NewOpenAIProvider creates an OpenAI-compatible provider.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.DefaultModel
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &OpenAIProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       cfg.APIKey,
		defaultModel: model,
		client:       &http.Client{Timeout: timeout},
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

// BaseURL returns the API root the provider sends requests to.
func (p *OpenAIProvider) BaseURL() string { return p.baseURL }

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	opts := []openai.Option{
		openai.WithToken(p.apiKey),
		openai.WithBaseURL(p.baseURL),
		openai.WithModel(model),
		openai.WithHTTPClient(p.client),
	}
	if req.Schema != nil {
		format, err := responseFormat(req.Schema)
		if err != nil {
			return nil, err
		}
		opts = append(opts, openai.WithResponseFormat(format))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}

	start := time.Now()
	resp, err := client.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt)},
		callOptions(req)...,
	)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	out, err := firstChoice(resp, model, start)
	if err != nil {
		return nil, err
	}
	return out, checkConformance(req, out.Text)
}

// responseFormat converts a JSON schema into the structured-output format
// of the OpenAI API.
func responseFormat(s *Schema) (*openai.ResponseFormat, error) {
	var prop openai.ResponseFormatJSONSchemaProperty
	if err := json.Unmarshal(s.JSON, &prop); err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", s.Name, err)
	}
	return &openai.ResponseFormat{
		Type: "json_schema",
		JSONSchema: &openai.ResponseFormatJSONSchema{
			Name:   s.Name,
			Strict: true,
			Schema: &prop,
		},
	}, nil
}

// =============================================================================
// OLLAMA PROVIDER
// =============================================================================

type ollamaProvider struct {
	baseURL      string
	defaultModel string
	client       *http.Client
}

func newOllamaProvider(cfg ProviderConfig) (*ollamaProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if cfg.DefaultModel == "" {
		return nil, fmt.Errorf("ollama provider requires a model")
	}
	return &ollamaProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		defaultModel: cfg.DefaultModel,
		client:       &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *ollamaProvider) Name() string { return "ollama" }

func (p *ollamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	opts := []ollama.Option{
		ollama.WithServerURL(p.baseURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(p.client),
	}
	if req.Schema != nil {
		// Ollama only supports free-form JSON mode here; the caller
		// validates the structure.
		opts = append(opts, ollama.WithFormat("json"))
	}
	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}

	start := time.Now()
	resp, err := client.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt)},
		callOptions(req)...,
	)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}
	out, err := firstChoice(resp, model, start)
	if err != nil {
		return nil, err
	}
	return out, checkConformance(req, out.Text)
}

// =============================================================================
// SHARED
// =============================================================================

func callOptions(req CompletionRequest) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	return opts
}

func firstChoice(resp *llms.ContentResponse, model string, start time.Time) (*CompletionResponse, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("empty response from model")
	}
	choice := resp.Choices[0]
	out := &CompletionResponse{
		Text:     choice.Content,
		Model:    model,
		Duration: time.Since(start),
	}
	out.PromptTokens = intInfo(choice.GenerationInfo, "PromptTokens")
	out.OutputTokens = intInfo(choice.GenerationInfo, "CompletionTokens")
	out.TotalTokens = intInfo(choice.GenerationInfo, "TotalTokens")
	return out, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// checkConformance rejects output that cannot be a schema instance.
// Field-level validation is the caller's job.
func checkConformance(req CompletionRequest, text string) error {
	if req.Schema == nil {
		return nil
	}
	if !json.Valid([]byte(ExtractJSON(text))) {
		return fmt.Errorf("%w: %s output is not valid JSON", ErrSchema, req.Schema.Name)
	}
	return nil
}

// =============================================================================
// MOCK PROVIDER (for testing)
// =============================================================================

// MockProvider is a test provider that returns predictable responses.
type MockProvider struct {
	CompleteFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if p.CompleteFunc != nil {
		return p.CompleteFunc(ctx, req)
	}
	return &CompletionResponse{
		Text:         fmt.Sprintf("[mock] Completion for: %.50s...", req.Prompt),
		Model:        "mock-model",
		PromptTokens: len(req.Prompt) / 4,
		OutputTokens: 20,
		TotalTokens:  len(req.Prompt)/4 + 20,
		Duration:     10 * time.Millisecond,
	}, nil
}
