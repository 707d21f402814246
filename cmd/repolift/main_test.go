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
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repolift/internal/config"
	"github.com/kraklabs/repolift/internal/errors"
	rltest "github.com/kraklabs/repolift/internal/testing"
)

const testRepo = "https://github.com/user/repo"

// isolate runs the test in an empty directory with no repolift
// environment variables set.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{
		config.EnvAPIKey, config.EnvAPIBase, config.EnvModel,
		config.EnvEmbeddingProvider, config.EnvEmbeddingModel,
		config.EnvLogLevel, config.EnvOllamaHost,
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func newTestEnv() (cliEnv, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return cliEnv{stdout: &stdout, stderr: &stderr}, &stdout, &stderr
}

func readmeCloner() *rltest.FakeCloner {
	return rltest.NewFakeCloner(map[string]string{"README.md": rltest.MockFileContent})
}

func TestRun_Version(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}} {
		env, stdout, _ := newTestEnv()
		assert.Equal(t, 0, run(args, env))
		assert.Contains(t, stdout.String(), "repolift version dev")
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		want     []string
	}{
		{name: "no command", args: nil, wantCode: 1, want: []string{"Usage:"}},
		{name: "unknown command", args: []string{"frobnicate"}, wantCode: 1, want: []string{"Unknown command: frobnicate"}},
		{name: "unknown flag", args: []string{"--frob"}, wantCode: 1, want: []string{"unknown flag: --frob", "Usage:"}},
		{
			name:     "analyze unknown flag",
			args:     []string{"analyze", "--frob", testRepo},
			wantCode: errors.ExitInput,
			want:     []string{"unknown flag: --frob", "Usage: repolift analyze"},
		},
		{
			name:     "analyze bad flag value",
			args:     []string{"analyze", "--top-k", "many", testRepo},
			wantCode: errors.ExitInput,
			want:     []string{"--top-k", "Usage: repolift analyze"},
		},
		{
			name:     "health unknown flag",
			args:     []string{"health", "--frob"},
			wantCode: errors.ExitInput,
			want:     []string{"unknown flag: --frob", "Usage: repolift health"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _, stderr := newTestEnv()
			assert.Equal(t, tt.wantCode, run(tt.args, env))
			for _, w := range tt.want {
				assert.Contains(t, stderr.String(), w)
			}
		})
	}
}

func TestRun_AnalyzeHelp(t *testing.T) {
	env, _, stderr := newTestEnv()
	assert.Equal(t, 0, run([]string{"analyze", "--help"}, env))
	assert.Contains(t, stderr.String(), "Usage: repolift analyze <repo-url>")
}

func TestRun_AnalyzeRejectsURL(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvAPIKey, "sk-test")

	for _, url := range []string{
		"https://github.com/user/repo/",
		"https://gitlab.com/user/repo",
		"github.com/user/repo",
	} {
		env, stdout, stderr := newTestEnv()
		assert.Equal(t, errors.ExitInput, run([]string{"--no-color", "analyze", url}, env), url)
		assert.Contains(t, stderr.String(), "Invalid repository URL")
		assert.Empty(t, stdout.String())
	}
}

func TestRunAnalyze_MissingAPIKey(t *testing.T) {
	isolate(t)
	env, _, stderr := newTestEnv()

	code := runAnalyze([]string{testRepo}, "", GlobalFlags{NoColor: true}, env, analyzeDeps{})
	assert.Equal(t, errors.ExitConfig, code)
	assert.Contains(t, stderr.String(), "OPENROUTER_API_KEY")
}

func TestRunAnalyze_ArgumentCount(t *testing.T) {
	isolate(t)
	for _, args := range [][]string{nil, {testRepo, testRepo}} {
		env, _, stderr := newTestEnv()
		code := runAnalyze(args, "", GlobalFlags{NoColor: true}, env, analyzeDeps{})
		assert.Equal(t, errors.ExitInput, code)
		assert.Contains(t, stderr.String(), "Expected exactly one repository URL")
	}
}

func TestRunAnalyze_InvalidOption(t *testing.T) {
	isolate(t)
	env, _, stderr := newTestEnv()
	deps := analyzeDeps{cloner: readmeCloner(), provider: rltest.NewScriptedProvider()}

	code := runAnalyze([]string{testRepo, "--top-k", "500"}, "", GlobalFlags{NoColor: true}, env, deps)
	assert.Equal(t, errors.ExitConfig, code)
	assert.Contains(t, stderr.String(), "TopK")
}

func TestRunAnalyze_SuccessJSON(t *testing.T) {
	isolate(t)
	env, stdout, _ := newTestEnv()
	provider := rltest.NewScriptedProvider(rltest.Respond(rltest.ValidSuggestionJSON))
	deps := analyzeDeps{cloner: readmeCloner(), provider: provider}

	code := runAnalyze([]string{testRepo, "--json", "--top-k", "2"}, "", GlobalFlags{}, env, deps)
	require.Equal(t, errors.ExitSuccess, code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "success", got["outcome"])
	assert.Equal(t, testRepo, got["repo_url"])
	assert.NotEmpty(t, got["run_id"])
	assert.Contains(t, got, "metadata")
	assert.Contains(t, got, "suggestions")
	assert.NotContains(t, got, "error")
	assert.Equal(t, 1, provider.Calls())
}

func TestRunAnalyze_SuccessText(t *testing.T) {
	isolate(t)
	env, stdout, _ := newTestEnv()
	deps := analyzeDeps{
		cloner:   readmeCloner(),
		provider: rltest.NewScriptedProvider(rltest.Respond(rltest.ValidSuggestionJSON)),
	}

	code := runAnalyze([]string{testRepo}, "", GlobalFlags{NoColor: true}, env, deps)
	require.Equal(t, errors.ExitSuccess, code)
	out := stdout.String()
	assert.Contains(t, out, "repolift: "+testRepo)
	assert.Contains(t, out, "Keywords:")
}

func TestRunAnalyze_Failures(t *testing.T) {
	tests := []struct {
		name     string
		deps     func() analyzeDeps
		wantCode int
		wantErr  string
	}{
		{
			name: "clone fails",
			deps: func() analyzeDeps {
				return analyzeDeps{cloner: rltest.NewFailingCloner(128), provider: rltest.NewScriptedProvider()}
			},
			wantCode: errors.ExitClone,
			wantErr:  "no_content",
		},
		{
			name: "no content files",
			deps: func() analyzeDeps {
				return analyzeDeps{
					cloner:   rltest.NewFakeCloner(map[string]string{"LICENSE": "MIT"}),
					provider: rltest.NewScriptedProvider(),
				}
			},
			wantCode: errors.ExitNoContent,
			wantErr:  "no_content",
		},
		{
			name: "invalid model output",
			deps: func() analyzeDeps {
				return analyzeDeps{
					cloner:   readmeCloner(),
					provider: rltest.NewScriptedProvider(rltest.Respond(rltest.InvalidSuggestionJSON)),
				}
			},
			wantCode: errors.ExitGeneration,
			wantErr:  "generation_failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			env, stdout, _ := newTestEnv()

			code := runAnalyze([]string{testRepo, "--json"}, "", GlobalFlags{}, env, tt.deps())
			assert.Equal(t, tt.wantCode, code)

			var got map[string]any
			require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
			assert.Equal(t, tt.wantErr, got["outcome"])
			assert.NotEmpty(t, got["error"])
		})
	}
}

func TestRunAnalyze_FailureText(t *testing.T) {
	isolate(t)
	env, _, stderr := newTestEnv()
	deps := analyzeDeps{cloner: rltest.NewFailingCloner(128), provider: rltest.NewScriptedProvider()}

	code := runAnalyze([]string{testRepo}, "", GlobalFlags{NoColor: true}, env, deps)
	assert.Equal(t, errors.ExitClone, code)
	assert.True(t, strings.Contains(stderr.String(), "Error:"), stderr.String())
}
