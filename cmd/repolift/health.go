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
	"net/http"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repolift/internal/config"
	"github.com/kraklabs/repolift/internal/errors"
	"github.com/kraklabs/repolift/internal/output"
	"github.com/kraklabs/repolift/internal/ui"
	"github.com/kraklabs/repolift/pkg/llm"
)

// healthResult is the JSON form of the health command.
type healthResult struct {
	BaseURL   string   `json:"base_url"`
	Healthy   bool     `json:"healthy"`
	Status    int      `json:"status,omitempty"`
	LatencyMS int64    `json:"latency_ms"`
	Models    []string `json:"models,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// runHealth executes the 'health' command: it probes GET <base>/models on
// the configured model API.
//
// Flags:
//   - --json: Print the result as JSON
//   - --models: List the advertised model IDs
//   - --timeout: Override the probe timeout
func runHealth(args []string, configPath string, globals GlobalFlags, env cliEnv) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	jsonOut := fs.Bool("json", globals.JSON, "Print the result as JSON")
	cfgPath := fs.String("config", configPath, "Path to config file")
	listModels := fs.Bool("models", false, "List available model IDs")
	timeout := fs.Duration("timeout", 0, "Probe timeout (default from config)")

	fs.Usage = func() {
		fmt.Fprintf(env.stderr, `Usage: repolift health [options]

Description:
  Check that the model API answers GET /models with HTTP 200.

Options:
`)
		fs.PrintDefaults()
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
	globals.Quiet = globals.Quiet || globals.JSON
	ui.InitColors(globals.NoColor)

	fail := func(err error) int {
		return errors.Report(env.stderr, err, globals.JSON, globals.NoColor)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fail(errors.NewConfigError("Cannot load configuration", err.Error(), "Fix the config file", err))
	}
	if *timeout > 0 {
		cfg.LLM.HealthTimeout = *timeout
	}

	if err := cfg.RequireAPIKey(); err != nil {
		return fail(errors.NewConfigError(
			"Missing API key",
			"OPENROUTER_API_KEY is not set",
			"Export OPENROUTER_API_KEY or add it to a .env file",
			err,
		))
	}

	spinner := NewSpinner(NewProgressConfig(globals, env.stderr), "Contacting "+cfg.LLM.BaseURL)
	ctx := context.Background()
	start := time.Now()
	res := healthResult{BaseURL: cfg.LLM.BaseURL}
	status, probeErr := llm.ProbeModels(ctx, cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.HealthTimeout)
	res.LatencyMS = time.Since(start).Milliseconds()
	res.Status = status
	switch {
	case probeErr != nil:
		res.Error = probeErr.Error()
	case status != http.StatusOK:
		res.Error = fmt.Sprintf("GET /models returned HTTP %d", status)
	default:
		res.Healthy = true
	}
	if res.Healthy && *listModels {
		models, err := llm.ListModels(ctx, cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.HealthTimeout)
		if err != nil {
			res.Error = err.Error()
		}
		res.Models = models
	}
	if spinner != nil {
		_ = spinner.Finish()
	}

	if globals.JSON {
		if err := output.JSONTo(env.stdout, res); err != nil {
			return fail(errors.NewInternalError("Cannot encode result", err.Error(), "", err))
		}
	} else {
		p := ui.NewPrinter(env.stdout)
		p.Field("API", res.BaseURL)
		p.Field("Latency", fmt.Sprintf("%dms", res.LatencyMS))
		if res.Healthy {
			p.Success("OK")
		} else {
			p.Error("FAILED")
		}
		for _, m := range res.Models {
			p.Line("  " + m)
		}
		if res.Healthy && res.Error != "" {
			p.Warning(res.Error)
		}
	}

	if !res.Healthy {
		if globals.JSON {
			return errors.ExitNetwork
		}
		return fail(errors.NewNetworkError(
			"Model API health check failed",
			res.Error,
			"Check OPENROUTER_API_BASE and OPENROUTER_API_KEY, then run 'repolift health' again",
			probeErr,
		))
	}
	return errors.ExitSuccess
}
