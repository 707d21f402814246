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

// Package testing provides test helpers for repolift packages.
//
// The helpers replace the pipeline's external systems with in-process
// fakes: a cloner that writes files instead of running git, a retriever
// with fixed results, a model provider that replays scripted responses and
// a sleeper that records backoff waits instead of blocking.
//
// # Quick Start
//
//	func TestMyFeature(t *testing.T) {
//	    cloner := rltest.NewFakeCloner(map[string]string{
//	        "README.md": rltest.MockFileContent,
//	    })
//	    provider := rltest.NewScriptedProvider(
//	        rltest.Fail(context.DeadlineExceeded),
//	        rltest.Respond(rltest.ValidSuggestionJSON),
//	    )
//	    sleeper := &rltest.RecordingSleeper{}
//
//	    // Wire them into an ingestion.Ingestor and a generate.Generator...
//	}
//
// Import the package under an alias; its name shadows the standard
// library testing package.
//
// # Fixtures
//
//   - MockFileContent: a short README mentioning agents and RAG
//   - ValidSuggestionJSON: model output that passes validation
//   - InvalidSuggestionJSON: model output with too few README edits
package testing
