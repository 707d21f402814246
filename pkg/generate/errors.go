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

package generate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingInput reports a Generate call without the inputs earlier stages
// produce.
var ErrMissingInput = errors.New("missing generator input")

// SchemaValidationError reports model output that does not conform to the
// output schema. It is never retried.
type SchemaValidationError struct {
	Raw      string   // model output as received
	Problems []string // individual violations, if known
	Err      error
}

func (e *SchemaValidationError) Error() string {
	var b strings.Builder
	b.WriteString("LLM provided invalid structured output")
	if len(e.Problems) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Problems, "; "))
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// GenerationError reports that the model could not produce output after
// Attempts requests.
type GenerationError struct {
	Attempts int
	Err      error // last request error
}

func (e *GenerationError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("LLM generation failed: %v", e.Err)
	}
	return fmt.Sprintf("max retries reached for LLM generation after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
