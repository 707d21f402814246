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

// Package llm provides a small interface over language model providers.
//
// The pipeline needs exactly one operation from a model: complete a prompt,
// optionally constrained to a JSON schema. Provider captures that, and the
// implementations here adapt langchaingo clients to it.
//
// # Supported Providers
//
//   - OpenRouter / OpenAI: any OpenAI-compatible chat completions API
//     (default base URL https://openrouter.ai/api/v1). A request schema is
//     sent as a strict json_schema response format.
//   - Ollama: local models; a request schema switches on JSON mode.
//   - Mock: canned responses for tests.
//
// # Quick Start
//
//	provider, err := llm.NewProvider(llm.ProviderConfig{
//	    Type:   "openrouter",
//	    APIKey: os.Getenv("OPENROUTER_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	schema, _ := llm.NewSchema("suggestion_record", "", schemaDoc)
//	resp, err := provider.Complete(ctx, llm.CompletionRequest{
//	    Prompt: prompt,
//	    Schema: schema,
//	})
//
// # Errors
//
// A response that cannot be an instance of the requested schema is reported
// with an error wrapping ErrSchema; callers should not retry it. Every other
// error (network, HTTP status, timeout) is a request error and may be
// retried.
//
// # Health
//
// CheckHealth and ListModels probe GET <base>/models with bearer
// authentication:
//
//	if !llm.CheckHealth(ctx, llm.DefaultBaseURL, apiKey, llm.DefaultHealthTimeout) {
//	    fmt.Println("model API unreachable")
//	}
package llm
