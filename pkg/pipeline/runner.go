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

// Package pipeline runs the three repolift stages against one repository:
// ingestion (clone, load, split and index), metadata recommendation and
// suggestion generation.
//
// A run never returns an error. Its Report carries one of three outcomes:
//
//	OutcomeNoContent         clone, empty content or index build failed
//	OutcomeGenerationFailed  metadata extracted, model produced nothing valid
//	OutcomeSuccess           metadata and suggestions
//
// A failed stage stops the run; nothing after it executes.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/repolift/pkg/generate"
	"github.com/kraklabs/repolift/pkg/index"
	"github.com/kraklabs/repolift/pkg/ingestion"
	"github.com/kraklabs/repolift/pkg/recommend"
)

// Stage names a pipeline step in logs, metrics and observer callbacks.
type Stage string

const (
	StageIngest    Stage = "ingest"
	StageIndex     Stage = "index"
	StageRecommend Stage = "recommend"
	StageGenerate  Stage = "generate"
)

// Ingester clones a repository and splits its content into fragments.
type Ingester interface {
	Process(ctx context.Context, repoURL string) (*ingestion.Result, error)
}

// Indexer builds a retrieval index over fragments.
type Indexer interface {
	Build(ctx context.Context, fragments []ingestion.Fragment) (index.Retriever, error)
}

// Recommender extracts metadata from content. It cannot fail.
type Recommender interface {
	Suggest(content string) recommend.MetadataRecord
}

// Generator produces suggestions from content, metadata and context.
type Generator interface {
	Generate(ctx context.Context, content string, metadata recommend.MetadataRecord, retriever index.Retriever) (*generate.SuggestionRecord, error)
}

// Observer is notified around each stage. The CLI uses it to drive
// progress spinners.
type Observer interface {
	StageStarted(stage Stage)
	StageFinished(stage Stage, err error)
}

// Stages are the components a Runner drives.
type Stages struct {
	Ingester    Ingester
	Indexer     Indexer
	Recommender Recommender
	Generator   Generator
}

// ErrMissingStage is returned by NewRunner when a stage is nil.
var ErrMissingStage = errors.New("pipeline stage not configured")

// Runner executes runs. It keeps no per-run state and may be reused.
type Runner struct {
	stages   Stages
	observer Observer
	logger   *slog.Logger
}

// NewRunner creates a Runner. Every stage is required.
func NewRunner(stages Stages, logger *slog.Logger) (*Runner, error) {
	switch {
	case stages.Ingester == nil:
		return nil, errors.Join(ErrMissingStage, errors.New("ingester"))
	case stages.Indexer == nil:
		return nil, errors.Join(ErrMissingStage, errors.New("indexer"))
	case stages.Recommender == nil:
		return nil, errors.Join(ErrMissingStage, errors.New("recommender"))
	case stages.Generator == nil:
		return nil, errors.Join(ErrMissingStage, errors.New("generator"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{stages: stages, logger: logger}, nil
}

// WithObserver sets the stage observer and returns r.
func (r *Runner) WithObserver(o Observer) *Runner {
	r.observer = o
	return r
}

// Run processes repoURL and reports the outcome.
func (r *Runner) Run(ctx context.Context, repoURL string) *Report {
	start := time.Now()
	report := &Report{
		RunID:   uuid.New(),
		RepoURL: ingestion.SanitizeURL(repoURL),
	}
	logger := r.logger.With("run_id", report.RunID.String())
	logger.Info("pipeline.start", "url", report.RepoURL)

	r.execute(ctx, logger, repoURL, report)

	report.Duration = time.Since(start)
	report.Seconds = report.Duration.Seconds()
	recordOutcome(report.Outcome)
	observeRun(report.Duration)

	attrs := []any{
		"outcome", report.Outcome,
		"fragments", report.FragmentCount,
		"duration", report.Duration,
	}
	if report.err != nil {
		attrs = append(attrs, "error_kind", report.ErrorKind, "err", report.err)
	}
	logger.Info("pipeline.complete", attrs...)
	return report
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, repoURL string, report *Report) {
	var ingested *ingestion.Result
	if err := r.stage(StageIngest, func() (err error) {
		ingested, err = r.stages.Ingester.Process(ctx, repoURL)
		return err
	}); err != nil {
		logger.Error("pipeline.ingest.failed", "err", err)
		report.fail(OutcomeNoContent, err)
		return
	}
	report.FragmentCount = len(ingested.Fragments)

	var retriever index.Retriever
	if err := r.stage(StageIndex, func() (err error) {
		retriever, err = r.stages.Indexer.Build(ctx, ingested.Fragments)
		return err
	}); err != nil {
		logger.Error("pipeline.index.failed", "err", err)
		report.fail(OutcomeNoContent, err)
		return
	}

	var metadata recommend.MetadataRecord
	_ = r.stage(StageRecommend, func() error {
		metadata = r.stages.Recommender.Suggest(ingested.Content)
		return nil
	})
	report.Metadata = &metadata

	var suggestions *generate.SuggestionRecord
	if err := r.stage(StageGenerate, func() (err error) {
		suggestions, err = r.stages.Generator.Generate(ctx, ingested.Content, metadata, retriever)
		return err
	}); err != nil {
		logger.Error("pipeline.generate.failed", "err", err)
		report.fail(OutcomeGenerationFailed, err)
		return
	}

	report.Suggestions = suggestions
	report.Outcome = OutcomeSuccess
}

// stage times fn and notifies the observer.
func (r *Runner) stage(s Stage, fn func() error) error {
	if r.observer != nil {
		r.observer.StageStarted(s)
	}
	start := time.Now()
	err := fn()
	observeStage(s, time.Since(start))
	r.logger.Debug("pipeline.stage", "stage", s, "duration", time.Since(start), "ok", err == nil)
	if r.observer != nil {
		r.observer.StageFinished(s, err)
	}
	return err
}
