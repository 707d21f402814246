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

// Package ingestion turns a remote repository into text fragments.
//
// The Ingestor runs three steps against a scratch directory it owns for the
// duration of one Process call:
//
//  1. Clone: copy the remote repository into a fresh temporary directory
//  2. Load: read a fixed allow-list of files (README, entry point, manifest)
//  3. Split: window each file into overlapping fragments tagged with their
//     source file
//
// The scratch directory is removed before Process returns, whatever the
// outcome.
//
// # Quick Start
//
//	ing := ingestion.NewIngestor(ingestion.DefaultConfig(), nil, logger)
//	res, err := ing.Process(ctx, "https://github.com/user/repo")
//	if err != nil {
//	    var cloneErr *ingestion.CloneError
//	    if errors.As(err, &cloneErr) {
//	        log.Printf("clone failed with status %d", cloneErr.Status)
//	    }
//	    return err
//	}
//	fmt.Printf("%d fragments\n", len(res.Fragments))
//
// # Errors
//
// Process fails with *CloneError when the clone step fails (no retry) and
// with an error matching ErrEmptyContent when no fragment could be produced.
// Missing allow-listed files are skipped silently; unreadable ones are logged
// and skipped.
//
// # Splitting
//
// Splitting uses langchaingo's recursive character splitter with separators
// "\n\n", "\n", " " and "" in decreasing priority. Window length and overlap
// are measured in runes (defaults 1000 and 200).
package ingestion
