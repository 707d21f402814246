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

// Package index builds a similarity index over ingestion fragments.
//
// BuildIndex embeds every fragment into a per-run MemoryStore and returns a
// Retriever, the read-only handle the generator queries. The store satisfies
// langchaingo's vectorstores.VectorStore, so any langchaingo embeddings.Embedder
// can back it:
//
//	embedder, err := index.NewEmbedder(index.EmbedderConfig{Provider: "hash"}, logger)
//	if err != nil {
//	    return err
//	}
//	retriever, err := index.NewBuilder(embedder, logger).Build(ctx, fragments)
//	if err != nil {
//	    return err // *index.IndexBuildError
//	}
//	top, err := retriever.Query(ctx, "missing documentation", 4)
//
// # Embedding Providers
//
//   - "hash": offline feature-hashing embedder, no network (default)
//   - "openai": OpenAI-compatible embeddings endpoint
//   - "ollama": local Ollama server
//   - "huggingface": Hugging Face inference API
//     (sentence-transformers/all-MiniLM-L6-v2 by default)
//
// Any provider can be wrapped in an LRU cache (EmbedderConfig.CacheSize) so
// identical text embedded across runs in one process is only sent once.
package index
