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

// Package main implements the repolift CLI, which analyzes a GitHub
// repository and suggests a better title, summary and README.
//
// Usage:
//
//	repolift analyze <repo-url> [--json]   Analyze a repository
//	repolift health [--json]               Check the model API
//	repolift version                       Show version information
package main

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repolift/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags are accepted before the command name.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
}

// cliEnv carries the process streams so commands can be tested.
type cliEnv struct {
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], cliEnv{stdout: os.Stdout, stderr: os.Stderr}))
}

// run parses global flags, dispatches to a command and returns the exit
// code.
func run(args []string, env cliEnv) int {
	fs := flag.NewFlagSet("repolift", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(env.stderr)

	var globals GlobalFlags
	showVersion := fs.Bool("version", false, "Show version and exit")
	configPath := fs.String("config", "", "Path to config file (default: ./.repolift.yaml)")
	fs.BoolVar(&globals.JSON, "json", false, "Machine-readable JSON output")
	fs.BoolVarP(&globals.Quiet, "quiet", "q", false, "Suppress progress output")
	fs.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")

	fs.Usage = func() {
		fmt.Fprintf(env.stderr, `repolift - GitHub repository improver

repolift clones a repository, extracts keywords, tags and categories from
its README and entry points, and asks a language model for a better title,
summary and README edits.

Usage:
  repolift [global options] <command> [options]

Commands:
  analyze <repo-url>  Analyze a repository and print suggestions
  health              Check that the model API answers
  version             Show version information

Global Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(env.stderr, `
Examples:
  repolift analyze https://github.com/user/repo
  repolift analyze https://github.com/user/repo --json
  repolift health

Environment Variables:
  OPENROUTER_API_KEY           API key for the model provider (required)
  OPENROUTER_API_BASE          API base URL (default: https://openrouter.ai/api/v1)
  REPOLIFT_MODEL               Model name (default: openai/gpt-4o-mini)
  REPOLIFT_EMBEDDING_PROVIDER  hash, huggingface, openai or ollama (default: hash)
  REPOLIFT_LOG_LEVEL           debug, info, warn or error

For detailed command help: repolift <command> --help
`)
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(env.stderr, err)
		fs.Usage()
		return 1
	}
	if *showVersion {
		printVersion(env.stdout)
		return 0
	}
	if globals.JSON {
		globals.Quiet = true
	}
	ui.InitColors(globals.NoColor)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 1
	}

	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "analyze":
		return runAnalyze(cmdArgs, *configPath, globals, env, analyzeDeps{})
	case "health":
		return runHealth(cmdArgs, *configPath, globals, env)
	case "version":
		printVersion(env.stdout)
		return 0
	default:
		fmt.Fprintf(env.stderr, "Unknown command: %s\n", command)
		fs.Usage()
		return 1
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "repolift version %s\n", version)
	fmt.Fprintf(w, "commit: %s\n", commit)
	fmt.Fprintf(w, "built: %s\n", date)
}
