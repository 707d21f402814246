// Copyright 2025 KrakLabs
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

package testing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kraklabs/repolift/pkg/index"
	"github.com/kraklabs/repolift/pkg/ingestion"
	"github.com/kraklabs/repolift/pkg/llm"
)

// MockFileContent is a README used across pipeline tests.
const MockFileContent = `
# Project Alpha: Multi-Agent RAG System

This project demonstrates agent orchestration using LangGraph.
It is essential for documentation, stability, and reliable testing.
The system uses the RAG pattern for reliable context grounding. RAG stability is critical.
`

// ValidSuggestionJSON is model output that satisfies the output schema.
const ValidSuggestionJSON = `{
  "new_title": "Project Alpha: Reliable Multi-Agent RAG",
  "short_summary": "Project Alpha orchestrates LangGraph agents around a retrieval augmented generation core.",
  "readme_edits": [
    "Add an installation section",
    "Document the required environment variables",
    "Add a usage example with expected output"
  ]
}`

// InvalidSuggestionJSON has only one README edit.
const InvalidSuggestionJSON = `{"new_title": "Test Title", "short_summary": "Test summary.", "readme_edits": ["a"]}`

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// CLONER
// =============================================================================

// FakeCloner writes Files into the clone destination, or fails with Err.
// It records every destination it was given.
type FakeCloner struct {
	Files map[string]string
	Err   error

	mu    sync.Mutex
	dests []string
}

// NewFakeCloner creates a cloner that materializes files.
func NewFakeCloner(files map[string]string) *FakeCloner {
	return &FakeCloner{Files: files}
}

// NewFailingCloner creates a cloner that fails like git exiting with status.
func NewFailingCloner(status int) *FakeCloner {
	return &FakeCloner{Err: &ingestion.CloneError{
		Status: status,
		Err:    fmt.Errorf("exit status %d: repository not found", status),
	}}
}

var _ ingestion.Cloner = (*FakeCloner)(nil)

// Clone implements ingestion.Cloner.
func (c *FakeCloner) Clone(_ context.Context, repoURL, dest string) error {
	c.mu.Lock()
	c.dests = append(c.dests, dest)
	c.mu.Unlock()

	if c.Err != nil {
		if ce, ok := c.Err.(*ingestion.CloneError); ok && ce.URL == "" {
			copied := *ce
			copied.URL = repoURL
			return &copied
		}
		return c.Err
	}
	for name, content := range c.Files {
		path := filepath.Join(dest, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}
	}
	return nil
}

// Dests returns the destinations passed to Clone, in call order.
func (c *FakeCloner) Dests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.dests...)
}

// =============================================================================
// RETRIEVER
// =============================================================================

// StaticRetriever returns a retriever that answers every query with the
// first k of fragments.
func StaticRetriever(fragments ...ingestion.Fragment) index.Retriever {
	return index.RetrieverFunc(func(_ context.Context, _ string, k int) ([]ingestion.Fragment, error) {
		if k <= 0 || k > len(fragments) {
			k = len(fragments)
		}
		return append([]ingestion.Fragment(nil), fragments[:k]...), nil
	})
}

// =============================================================================
// MODEL PROVIDER
// =============================================================================

// Step is one scripted provider outcome.
type Step struct {
	Text string
	Err  error
	// Block makes the call wait for its context to end, like a request that
	// never answers.
	Block bool
}

// Respond scripts a successful response.
func Respond(text string) Step { return Step{Text: text} }

// Fail scripts a request error.
func Fail(err error) Step { return Step{Err: err} }

// Hang scripts a request that only ends when its context does.
func Hang() Step { return Step{Block: true} }

// ScriptedProvider replays Steps in order; the last step repeats.
type ScriptedProvider struct {
	mu       sync.Mutex
	steps    []Step
	requests []llm.CompletionRequest
}

// NewScriptedProvider creates a provider that replays steps.
func NewScriptedProvider(steps ...Step) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

var _ llm.Provider = (*ScriptedProvider)(nil)

func (p *ScriptedProvider) Name() string { return "scripted" }

// Complete implements llm.Provider.
func (p *ScriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	n := len(p.requests)
	p.requests = append(p.requests, req)
	var step Step
	if len(p.steps) > 0 {
		step = p.steps[min(n, len(p.steps)-1)]
	}
	p.mu.Unlock()

	if step.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return &llm.CompletionResponse{Text: step.Text, Model: "scripted-model"}, nil
}

// Calls returns the number of Complete calls.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns the requests received, in order.
func (p *ScriptedProvider) Requests() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.CompletionRequest(nil), p.requests...)
}

// =============================================================================
// SLEEPER
// =============================================================================

// RecordingSleeper records requested waits and returns immediately, or
// with the context error if the context is already done.
type RecordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

// Sleep records d.
func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Waits returns the recorded durations.
func (s *RecordingSleeper) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}
