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
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/embeddings/huggingface"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Default embedding settings per provider.
const (
	DefaultHashDimension     = 384
	DefaultOpenAIEmbedModel  = "text-embedding-3-small"
	DefaultOllamaEmbedModel  = "nomic-embed-text"
	DefaultOllamaURL         = "http://localhost:11434"
	DefaultHuggingFaceModel  = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultEmbedderCacheSize = 1024
)

// EmbedderConfig selects and configures an embedding provider.
type EmbedderConfig struct {
	// Provider is one of "hash", "openai", "ollama", "huggingface".
	Provider string

	// Model is the provider's embedding model. Empty uses the provider default.
	Model string

	// BaseURL overrides the provider endpoint (openai, ollama).
	BaseURL string

	// APIKey authenticates the openai provider.
	APIKey string

	// Dimension is the hash embedder's vector size.
	Dimension int

	// CacheSize wraps the provider in an LRU cache when > 0.
	CacheSize int
}

// NewEmbedder creates an embedding provider based on config.
// Supported providers:
//   - "hash" or "": deterministic feature hashing, offline
//   - "openai": OpenAI-compatible API (requires APIKey)
//   - "ollama": local Ollama server
//   - "huggingface": Hugging Face inference API (reads HUGGINGFACEHUB_API_TOKEN)
func NewEmbedder(cfg EmbedderConfig, logger *slog.Logger) (embeddings.Embedder, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		emb embeddings.Embedder
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "hash", "":
		dim := cfg.Dimension
		if dim <= 0 {
			dim = DefaultHashDimension
		}
		emb, err = embeddings.NewEmbedder(NewHashEmbedder(dim), embeddings.WithStripNewLines(false))

	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires an API key")
		}
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIEmbedModel
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithEmbeddingModel(model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		var client *openai.LLM
		client, err = openai.New(opts...)
		if err == nil {
			emb, err = embeddings.NewEmbedder(client)
		}

	case "ollama", "local":
		model := cfg.Model
		if model == "" {
			model = DefaultOllamaEmbedModel
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		var client *ollama.LLM
		client, err = ollama.New(ollama.WithModel(model), ollama.WithServerURL(baseURL))
		if err == nil {
			emb, err = embeddings.NewEmbedder(client)
		}

	case "huggingface", "hf":
		model := cfg.Model
		if model == "" {
			model = DefaultHuggingFaceModel
		}
		emb, err = huggingface.NewHuggingface(huggingface.WithModel(model))

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: hash, openai, ollama, huggingface)", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s embedder: %w", cfg.Provider, err)
	}

	logger.Debug("index.embedder.ready", "provider", cfg.Provider, "model", cfg.Model, "cache_size", cfg.CacheSize)

	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(emb, cfg.CacheSize)
	}
	return emb, nil
}

// HashEmbedder generates deterministic embeddings by feature hashing: every
// lowercase word is hashed into one of dimension buckets with a signed
// count, and the vector is L2-normalized. Texts sharing vocabulary land
// close together, which is enough to rank a handful of README fragments
// without a model.
type HashEmbedder struct {
	dimension int
}

var _ embeddings.EmbedderClient = (*HashEmbedder)(nil)

// NewHashEmbedder creates a hash embedder with the given dimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// CreateEmbedding implements embeddings.EmbedderClient.
func (h *HashEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.Embed(t)
	}
	return out, nil
}

// Embed returns the normalized hashed bag-of-words vector for text.
// Text without any word yields the zero vector.
func (h *HashEmbedder) Embed(text string) []float32 {
	vec := make([]float32, h.dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		hash := hashString(w)
		idx := hash % uint64(h.dimension)
		if (hash/uint64(h.dimension))&1 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	norm := float32(0.0)
	for _, v := range vec {
		norm += v * v
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// hashString is djb2.
func hashString(s string) uint64 {
	var hash uint64 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint64(c)
	}
	return hash
}
