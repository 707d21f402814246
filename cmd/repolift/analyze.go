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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/kraklabs/repolift/internal/config"
	"github.com/kraklabs/repolift/internal/errors"
	"github.com/kraklabs/repolift/internal/output"
	"github.com/kraklabs/repolift/internal/ui"
	"github.com/kraklabs/repolift/pkg/generate"
	"github.com/kraklabs/repolift/pkg/index"
	"github.com/kraklabs/repolift/pkg/ingestion"
	"github.com/kraklabs/repolift/pkg/llm"
	"github.com/kraklabs/repolift/pkg/pipeline"
	"github.com/kraklabs/repolift/pkg/recommend"
)

// analyzeDeps replaces pipeline backends. Zero values use the configured
// ones.
type analyzeDeps struct {
	cloner   ingestion.Cloner
	embedder embeddings.Embedder
	provider llm.Provider
}

// runAnalyze executes the 'analyze' command: it validates the repository
// URL, runs the pipeline and prints the report. The exit code follows the
// outcome.
//
// Flags:
//   - --json: Print the report as JSON
//   - --log-level: debug, info, warn or error (default from config)
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
//   - --top-k: Number of fragments retrieved for the prompt
//   - --model: Model name override
//   - --allow-any-host: Accept repository URLs on any host
func runAnalyze(args []string, configPath string, globals GlobalFlags, env cliEnv, deps analyzeDeps) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	jsonOut := fs.Bool("json", globals.JSON, "Print the report as JSON")
	quiet := fs.BoolP("quiet", "q", globals.Quiet, "Suppress progress output")
	noColor := fs.Bool("no-color", globals.NoColor, "Disable colored output")
	cfgPath := fs.String("config", configPath, "Path to config file")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	topK := fs.Int("top-k", 0, "Fragments retrieved as prompt context")
	model := fs.String("model", "", "Model name (overrides REPOLIFT_MODEL)")
	anyHost := fs.Bool("allow-any-host", false, "Accept repository URLs on any host")

	fs.Usage = func() {
		fmt.Fprintf(env.stderr, `Usage: repolift analyze <repo-url> [options]

Description:
  Clone a public repository, extract keywords, tags and categories from
  README.md, main.py and requirements.txt, and ask the model for a new
  title, a short summary and 3-5 README edits.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(env.stderr, `
Exit codes:
  0 success, 1 config, 2 clone failed, 3 network, 4 invalid input,
  5 generation failed, 6 no content

Examples:
  repolift analyze https://github.com/user/repo
  repolift analyze https://github.com/user/repo --json --top-k 6
`)
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errors.ExitSuccess
		}
		fmt.Fprintln(env.stderr, err)
		fs.Usage()
		return errors.ExitInput
	}
	globals.JSON = *jsonOut
	globals.Quiet = *quiet || *jsonOut
	globals.NoColor = *noColor
	ui.InitColors(globals.NoColor)

	fail := func(err error) int {
		return errors.Report(env.stderr, err, globals.JSON, globals.NoColor)
	}

	if fs.NArg() != 1 {
		return fail(errors.NewInputError(
			"Expected exactly one repository URL",
			fmt.Sprintf("Got %d arguments", fs.NArg()),
			"Run: repolift analyze https://github.com/<owner>/<repo>",
		))
	}
	repoURL := fs.Arg(0)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fail(errors.NewConfigError("Cannot load configuration", err.Error(), "Fix the config file or unset the offending environment variable", err))
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *topK > 0 {
		cfg.TopK = *topK
	}
	if *model != "" {
		cfg.LLM.Model = *model
	}
	if *anyHost {
		cfg.Ingestion.AllowedHost = "*"
	}
	if err := cfg.Validate(); err != nil {
		return fail(errors.NewConfigError("Invalid option", err.Error(), "Run: repolift analyze --help", err))
	}
	if deps.provider == nil {
		if err := cfg.RequireAPIKey(); err != nil {
			return fail(errors.NewConfigError(
				"Missing API key",
				"OPENROUTER_API_KEY is not set",
				"Export OPENROUTER_API_KEY or add it to a .env file",
				err,
			))
		}
	}

	if err := ingestion.ValidateRepoURL(repoURL, cfg.Ingestion.AllowedHost); err != nil {
		return fail(errors.NewInputError(
			"Invalid repository URL",
			err.Error(),
			"Use a URL like https://github.com/<owner>/<repo> (no trailing slash or extra path)",
		))
	}

	logger := newLogger(env.stderr, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		shutdown := serveMetrics(*metricsAddr, logger)
		defer shutdown()
	}

	runner, err := buildRunner(cfg, deps, logger)
	if err != nil {
		return fail(errors.NewConfigError("Cannot set up the pipeline", err.Error(), "Check the llm and embedding sections of the config", err))
	}

	progress := newStageProgress(NewProgressConfig(globals, env.stderr))
	report := runner.WithObserver(progress).Run(ctx, repoURL)
	progress.Close()

	if globals.JSON {
		if err := output.JSONTo(env.stdout, report); err != nil {
			return fail(errors.NewInternalError("Cannot encode report", err.Error(), "", err))
		}
	} else {
		ui.NewPrinter(env.stdout).RenderReport(report)
	}

	userErr := errors.FromReport(report)
	if userErr == nil {
		return errors.ExitSuccess
	}
	if globals.JSON {
		return userErr.ExitCode
	}
	return fail(userErr)
}

// buildRunner assembles the pipeline from config, preferring injected
// backends.
func buildRunner(cfg *config.Config, deps analyzeDeps, logger *slog.Logger) (*pipeline.Runner, error) {
	cloner := deps.cloner
	if cloner == nil {
		cloner = ingestion.GitCloner{Depth: cfg.Ingestion.CloneDepth}
	}

	embedder := deps.embedder
	if embedder == nil {
		var err error
		if embedder, err = index.NewEmbedder(cfg.EmbedderConfig(), logger); err != nil {
			return nil, err
		}
	}

	provider := deps.provider
	if provider == nil {
		var err error
		if provider, err = llm.NewProvider(cfg.ProviderConfig()); err != nil {
			return nil, err
		}
	}

	return pipeline.NewRunner(pipeline.Stages{
		Ingester:    ingestion.NewIngestor(cfg.IngestionConfig(), cloner, logger),
		Indexer:     index.NewBuilder(embedder, logger),
		Recommender: recommend.New(logger),
		Generator:   generate.New(provider, cfg.GeneratorConfig(), logger),
	}, logger)
}
