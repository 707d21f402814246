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

package testing

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repolift/pkg/ingestion"
	"github.com/kraklabs/repolift/pkg/llm"
)

func TestFakeCloner_WritesFiles(t *testing.T) {
	c := NewFakeCloner(map[string]string{"README.md": MockFileContent, "docs/guide.md": "guide"})
	dest := t.TempDir()

	require.NoError(t, c.Clone(context.Background(), "https://github.com/test/test-repo", dest))

	got, err := os.ReadFile(filepath.Join(dest, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, MockFileContent, string(got))
	assert.FileExists(t, filepath.Join(dest, "docs", "guide.md"))
	assert.Equal(t, []string{dest}, c.Dests())
}

func TestFailingCloner(t *testing.T) {
	c := NewFailingCloner(128)

	err := c.Clone(context.Background(), "https://github.com/test/missing", t.TempDir())

	var cloneErr *ingestion.CloneError
	require.ErrorAs(t, err, &cloneErr)
	assert.Equal(t, 128, cloneErr.Status)
	assert.Equal(t, "https://github.com/test/missing", cloneErr.URL)
	assert.Empty(t, c.Err.(*ingestion.CloneError).URL, "template error must not be mutated")
}

func TestStaticRetriever(t *testing.T) {
	frags := []ingestion.Fragment{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	r := StaticRetriever(frags...)

	got, err := r.Query(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Equal(t, frags[:2], got)

	all, err := r.Query(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestScriptedProvider(t *testing.T) {
	boom := errors.New("boom")
	p := NewScriptedProvider(Fail(boom), Respond("ok"))
	ctx := context.Background()

	_, err := p.Complete(ctx, llmRequest("first"))
	assert.ErrorIs(t, err, boom)

	resp, err := p.Complete(ctx, llmRequest("second"))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)

	resp, err = p.Complete(ctx, llmRequest("third"))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text, "last step repeats")

	assert.Equal(t, 3, p.Calls())
	assert.Equal(t, "second", p.Requests()[1].Prompt)
}

func TestScriptedProvider_Hang(t *testing.T) {
	p := NewScriptedProvider(Hang())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Complete(ctx, llmRequest("x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRecordingSleeper(t *testing.T) {
	s := &RecordingSleeper{}
	require.NoError(t, s.Sleep(context.Background(), 2*time.Second))
	require.NoError(t, s.Sleep(context.Background(), 3*time.Second))
	assert.Equal(t, []time.Duration{2 * time.Second, 3 * time.Second}, s.Waits())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Sleep(ctx, time.Second), context.Canceled)
}

func TestFixtures(t *testing.T) {
	var valid map[string]any
	require.NoError(t, json.Unmarshal([]byte(ValidSuggestionJSON), &valid))
	assert.Len(t, valid["readme_edits"], 3)

	var invalid map[string]any
	require.NoError(t, json.Unmarshal([]byte(InvalidSuggestionJSON), &invalid))
	assert.Len(t, invalid["readme_edits"], 1)
}

func llmRequest(prompt string) llm.CompletionRequest {
	return llm.CompletionRequest{Prompt: prompt}
}
