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

package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/repolift/pkg/generate"
	"github.com/kraklabs/repolift/pkg/index"
	"github.com/kraklabs/repolift/pkg/ingestion"
	"github.com/kraklabs/repolift/pkg/recommend"
)

// Outcome is the final state of a run.
type Outcome string

const (
	// OutcomeSuccess means metadata and suggestions were produced.
	OutcomeSuccess Outcome = "success"
	// OutcomeNoContent means no indexable content came out of the
	// repository. No metadata or suggestions are reported.
	OutcomeNoContent Outcome = "no_content"
	// OutcomeGenerationFailed means metadata was extracted but the model
	// produced no valid suggestions.
	OutcomeGenerationFailed Outcome = "generation_failed"
)

// ErrorKind classifies the stage error of a failed run.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindClone            ErrorKind = "clone"
	KindEmptyContent     ErrorKind = "empty_content"
	KindIndex            ErrorKind = "index"
	KindSchemaValidation ErrorKind = "schema_validation"
	KindGeneration       ErrorKind = "generation"
	KindCancelled        ErrorKind = "cancelled"
	KindInternal         ErrorKind = "internal"
)

// Report is the result of one run.
type Report struct {
	RunID         uuid.UUID                  `json:"run_id"`
	RepoURL       string                     `json:"repo_url"`
	Outcome       Outcome                    `json:"outcome"`
	FragmentCount int                        `json:"fragment_count"`
	Duration      time.Duration              `json:"-"`
	Seconds       float64                    `json:"duration_seconds"`
	Metadata      *recommend.MetadataRecord  `json:"metadata,omitempty"`
	Suggestions   *generate.SuggestionRecord `json:"suggestions,omitempty"`
	Error         string                     `json:"error,omitempty"`
	ErrorKind     ErrorKind                  `json:"error_kind,omitempty"`

	err error
}

// Err returns the stage error of a failed run, or nil.
func (r *Report) Err() error { return r.err }

// OK reports whether the run succeeded.
func (r *Report) OK() bool { return r.Outcome == OutcomeSuccess }

func (r *Report) fail(outcome Outcome, err error) {
	r.Outcome = outcome
	r.err = err
	r.Error = err.Error()
	r.ErrorKind = Classify(err)
}

// Classify maps a stage error to its ErrorKind. Cancellation wins over
// the stage that observed it.
func Classify(err error) ErrorKind {
	var (
		cloneErr  *ingestion.CloneError
		indexErr  *index.IndexBuildError
		schemaErr *generate.SchemaValidationError
		genErr    *generate.GenerationError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.As(err, &cloneErr):
		return KindClone
	case errors.Is(err, ingestion.ErrEmptyContent):
		return KindEmptyContent
	case errors.As(err, &indexErr):
		return KindIndex
	case errors.As(err, &schemaErr):
		return KindSchemaValidation
	case errors.As(err, &genErr):
		return KindGeneration
	default:
		return KindInternal
	}
}
