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

package ingestion

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyContent is matched by *EmptyContentError.
var ErrEmptyContent = errors.New("no content could be extracted from the repository")

// StatusUnknown is the CloneError status when git never reported one.
const StatusUnknown = -1

// CloneError reports a failed clone step.
type CloneError struct {
	URL    string // sanitized for display
	Status int    // git exit status, or StatusUnknown
	Err    error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("git clone failed (status: %d): %v", e.Status, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

// EmptyContentError reports that none of the allow-listed files produced a
// fragment.
type EmptyContentError struct {
	Files []string // allow-list that was searched
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("%s (looked for: %s)", ErrEmptyContent, strings.Join(e.Files, ", "))
}

// Is lets errors.Is(err, ErrEmptyContent) match.
func (e *EmptyContentError) Is(target error) bool {
	return target == ErrEmptyContent
}
