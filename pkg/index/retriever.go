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

package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github.com/kraklabs/repolift/pkg/ingestion"
)

// DefaultTopK is the number of fragments a query returns when k <= 0.
const DefaultTopK = 4

// Retriever maps a query to fragments ranked by relevance.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]ingestion.Fragment, error)
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(ctx context.Context, text string, k int) ([]ingestion.Fragment, error)

// Query calls f.
func (f RetrieverFunc) Query(ctx context.Context, text string, k int) ([]ingestion.Fragment, error) {
	return f(ctx, text, k)
}

// IndexBuildError reports that the embedding backend could not index the
// fragments.
type IndexBuildError struct {
	Err error
}

func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("failed to build retrieval index: %v", e.Err)
}

func (e *IndexBuildError) Unwrap() error { return e.Err }

// Builder indexes fragments with one embedder.
type Builder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(embedder embeddings.Embedder, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{embedder: embedder, logger: logger}
}

// BuildIndex indexes fragments with embedder and a default logger.
func BuildIndex(ctx context.Context, embedder embeddings.Embedder, fragments []ingestion.Fragment) (Retriever, error) {
	return NewBuilder(embedder, nil).Build(ctx, fragments)
}

// Build embeds every fragment into a fresh MemoryStore. Failures are
// returned as *IndexBuildError.
func (b *Builder) Build(ctx context.Context, fragments []ingestion.Fragment) (Retriever, error) {
	if b.embedder == nil {
		return nil, &IndexBuildError{Err: ErrNoEmbedder}
	}
	if len(fragments) == 0 {
		return nil, &IndexBuildError{Err: errors.New("no fragments to index")}
	}

	docs := make([]schema.Document, len(fragments))
	unique := make(map[string]struct{}, len(fragments))
	for i, f := range fragments {
		docs[i] = f.Document()
		unique[f.ID()] = struct{}{}
	}

	start := time.Now()
	store := NewMemoryStore(b.embedder)
	if _, err := store.AddDocuments(ctx, docs); err != nil {
		b.logger.Error("index.build.error", "fragments", len(fragments), "err", err)
		return nil, &IndexBuildError{Err: err}
	}

	b.logger.Info("index.build.complete",
		"fragments", store.Len(),
		"unique", len(unique),
		"duration", time.Since(start),
	)
	return &storeRetriever{store: store}, nil
}

// storeRetriever queries a MemoryStore through a langchaingo retriever.
type storeRetriever struct {
	store vectorstores.VectorStore
}

func (r *storeRetriever) Query(ctx context.Context, text string, k int) ([]ingestion.Fragment, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	docs, err := vectorstores.ToRetriever(r.store, k).GetRelevantDocuments(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	out := make([]ingestion.Fragment, len(docs))
	for i, d := range docs {
		out[i] = ingestion.FragmentFromDocument(d)
	}
	return out, nil
}
