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
	"maps"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// ErrNoEmbedder is returned when neither the store nor the call options
// provide an embedder.
var ErrNoEmbedder = errors.New("no embedder configured")

type storedDoc struct {
	doc    schema.Document
	vector []float32
	seq    int
}

// MemoryStore is an in-memory cosine-similarity vector store.
// It is safe for concurrent use, but one store should serve one run.
type MemoryStore struct {
	embedder embeddings.Embedder

	mu        sync.RWMutex
	docs      []storedDoc
	dimension int
}

var _ vectorstores.VectorStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store that embeds with embedder.
func NewMemoryStore(embedder embeddings.Embedder) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// AddDocuments embeds docs and stores them. The returned IDs are insertion
// sequence numbers.
func (s *MemoryStore) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := s.applyOptions(options)
	if opts.Embedder == nil {
		return nil, ErrNoEmbedder
	}
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.PageContent
	}
	vectors, err := opts.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(docs))
	for i, d := range docs {
		vec := vectors[i]
		if len(vec) == 0 {
			return nil, fmt.Errorf("embedder returned an empty vector for document %d", i)
		}
		if s.dimension == 0 {
			s.dimension = len(vec)
		}
		if len(vec) != s.dimension {
			return nil, fmt.Errorf("dimension mismatch for document %d (got %d want %d)", i, len(vec), s.dimension)
		}
		if opts.Deduplicater != nil && opts.Deduplicater(ctx, d) {
			continue
		}
		seq := len(s.docs)
		s.docs = append(s.docs, storedDoc{
			doc: schema.Document{
				PageContent: d.PageContent,
				Metadata:    maps.Clone(d.Metadata),
			},
			vector: append([]float32(nil), vec...),
			seq:    seq,
		})
		ids = append(ids, strconv.Itoa(seq))
	}
	return ids, nil
}

// SimilaritySearch returns up to numDocuments documents ranked by cosine
// similarity to query. Equal scores keep insertion order.
func (s *MemoryStore) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := s.applyOptions(options)
	if opts.Embedder == nil {
		return nil, ErrNoEmbedder
	}
	if numDocuments <= 0 {
		return nil, nil
	}

	qv, err := opts.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimension != 0 && len(qv) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch (got %d want %d)", len(qv), s.dimension)
	}

	type candidate struct {
		stored storedDoc
		score  float32
	}
	candidates := make([]candidate, 0, len(s.docs))
	for _, sd := range s.docs {
		score := cosineSimilarity(sd.vector, qv)
		if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
			continue
		}
		candidates = append(candidates, candidate{stored: sd, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score == candidates[j].score {
			return candidates[i].stored.seq < candidates[j].stored.seq
		}
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > numDocuments {
		candidates = candidates[:numDocuments]
	}

	out := make([]schema.Document, len(candidates))
	for i, c := range candidates {
		out[i] = schema.Document{
			PageContent: c.stored.doc.PageContent,
			Metadata:    maps.Clone(c.stored.doc.Metadata),
			Score:       c.score,
		}
	}
	return out, nil
}

func (s *MemoryStore) applyOptions(options []vectorstores.Option) vectorstores.Options {
	opts := vectorstores.Options{Embedder: s.embedder}
	for _, o := range options {
		o(&opts)
	}
	return opts
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
