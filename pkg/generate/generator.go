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

// Package generate turns repository content and extracted metadata into
// validated README suggestions through a language model.
//
// A Generate call pulls context from the retrieval index, renders a fixed
// prompt and drives one model call through an explicit retry state
// machine (see State). Malformed output fails immediately with
// *SchemaValidationError; request errors are retried with exponential
// backoff and fail with *GenerationError once attempts run out.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kraklabs/repolift/pkg/index"
	"github.com/kraklabs/repolift/pkg/llm"
	"github.com/kraklabs/repolift/pkg/recommend"
)

// Defaults for Config.
const (
	DefaultMaxAttempts    = 3
	DefaultRequestTimeout = 30 * time.Second
)

// Config controls model calls.
type Config struct {
	// Model overrides the provider's default model.
	Model string

	// Temperature is sent with every request.
	Temperature float64

	// RequestTimeout bounds each request.
	RequestTimeout time.Duration

	// MaxAttempts is the number of requests before giving up.
	MaxAttempts int

	// BackoffUnit scales the 2^n+1 wait. Zero means one second.
	BackoffUnit time.Duration

	// TopK is the number of fragments pulled into the prompt.
	TopK int

	// Sleeper waits between attempts. Nil uses TimerSleep.
	Sleeper Sleeper
}

// DefaultConfig returns the default generator configuration.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: DefaultRequestTimeout,
		MaxAttempts:    DefaultMaxAttempts,
		BackoffUnit:    time.Second,
		TopK:           index.DefaultTopK,
	}
}

// Generator produces SuggestionRecords with one provider.
type Generator struct {
	provider llm.Provider
	cfg      Config
	logger   *slog.Logger
}

// New creates a Generator.
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = def.BackoffUnit
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = SleeperFunc(TimerSleep)
	}
	return &Generator{provider: provider, cfg: cfg, logger: logger}
}

// Generate builds the prompt from content, metadata and retrieved context
// and returns the validated suggestions.
func (g *Generator) Generate(ctx context.Context, content string, metadata recommend.MetadataRecord, retriever index.Retriever) (*SuggestionRecord, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: original content is empty", ErrMissingInput)
	}
	if retriever == nil {
		return nil, fmt.Errorf("%w: no retrieval handle", ErrMissingInput)
	}
	if g.provider == nil {
		return nil, fmt.Errorf("%w: no model provider", ErrMissingInput)
	}

	fragments, err := retriever.Query(ctx, ContextQuery, g.cfg.TopK)
	if err != nil {
		g.logger.Error("generate.retrieve.error", "err", err)
		return nil, &GenerationError{Err: fmt.Errorf("retrieve context: %w", err)}
	}
	g.logger.Debug("generate.retrieve", "fragments", len(fragments))

	prompt, err := RenderPrompt(PromptData{
		Context:         JoinContext(fragments),
		OriginalContent: content,
		Metadata:        metadata,
	})
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	schema, err := LLMSchema()
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	return g.run(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		Schema:      schema,
	})
}

// run drives the state machine until it reaches a terminal state.
func (g *Generator) run(ctx context.Context, req llm.CompletionRequest) (*SuggestionRecord, error) {
	var (
		state    = StateIdle
		backoff  = NewBackoff(g.cfg.MaxAttempts, g.cfg.BackoffUnit)
		attempts int
		wait     time.Duration
		record   *SuggestionRecord
		lastErr  error
	)
	step := func(e event) {
		prev := state
		state = next(state, e)
		g.logger.Debug("generate.state", "from", prev, "event", e, "to", state, "attempt", attempts)
	}

	step(eventStart)
	for !state.Terminal() {
		switch state {
		case StateRequesting:
			attempts++
			g.logger.Info("generate.attempt", "attempt", attempts, "max_attempts", g.cfg.MaxAttempts)
			rec, err := g.attempt(ctx, req)
			var schemaErr *SchemaValidationError
			switch {
			case err == nil:
				record = rec
				step(eventOK)
			case errors.As(err, &schemaErr):
				lastErr = err
				recordSchemaFailure()
				g.logger.Error("generate.validation.error", "attempt", attempts, "err", err)
				step(eventInvalid)
			default:
				lastErr = err
				g.logger.Warn("generate.request.error", "attempt", attempts, "err", err)
				step(eventTransient)
			}

		case StateTransientFailed:
			d, stop := backoff.Next()
			if stop {
				step(eventExhausted)
				continue
			}
			wait = d
			recordRetry()
			g.logger.Info("generate.backoff", "wait", wait, "next_attempt", attempts+1)
			step(eventRetry)

		case StateWaiting:
			if err := g.cfg.Sleeper.Sleep(ctx, wait); err != nil {
				lastErr = errors.Join(lastErr, err)
				step(eventCancelled)
				continue
			}
			step(eventWoke)

		default:
			return nil, fmt.Errorf("generator stuck in state %s", state)
		}
	}

	switch state {
	case StateSuccess:
		g.logger.Info("generate.success", "attempts", attempts)
		return record, nil
	case StateValidationFailed:
		return nil, lastErr
	default:
		recordExhausted()
		g.logger.Error("generate.exhausted", "attempts", attempts, "err", lastErr)
		return nil, &GenerationError{Attempts: attempts, Err: lastErr}
	}
}

// attempt sends one request and validates the response. Validation
// failures, including provider-detected ones, are *SchemaValidationError.
func (g *Generator) attempt(ctx context.Context, req llm.CompletionRequest) (*SuggestionRecord, error) {
	recordAttempt()
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.provider.Complete(callCtx, req)
	observeRequest(time.Since(start))
	if err != nil {
		if errors.Is(err, llm.ErrSchema) {
			return nil, &SchemaValidationError{Err: err}
		}
		return nil, err
	}
	return DecodeRecord(resp.Text)
}
