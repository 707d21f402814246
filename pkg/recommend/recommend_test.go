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

package recommend

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest_LangGraphScenario(t *testing.T) {
	rec := Suggest("LangGraph orchestration uses agents for RAG. RAG stability is critical.")

	want := MetadataRecord{
		Keywords:    []string{"rag", "langgraph", "orchestration", "uses", "agents", "stability", "critical"},
		Tags:        []string{"rag", "langgraph", "orchestration", "uses", "agents", "LLM/Generative AI"},
		Categories:  []string{"LLM/Generative AI"},
		BadgesToAdd: DefaultBadges,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("Suggest() mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, rec.Keywords, "is")
	assert.NotContains(t, rec.Keywords, "for")
}

func TestSuggest_NeverNil(t *testing.T) {
	inputs := []string{"", "   ", "!!! ??? ...", "a an the is", "日本語のテキスト"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			rec := Suggest(in)
			assert.NotNil(t, rec.Keywords)
			assert.NotNil(t, rec.Tags)
			assert.NotNil(t, rec.Categories)
			assert.NotNil(t, rec.BadgesToAdd)
			assert.Len(t, rec.BadgesToAdd, 3)
		})
	}
}

func TestSuggest_ExcludesStopwordsAndShortTokens(t *testing.T) {
	rec := Suggest("It is an ok go cli; we do ship the tooling and it works with yaml")

	for _, kw := range rec.Keywords {
		assert.GreaterOrEqual(t, len(kw), MinTokenLength, "keyword %q too short", kw)
		assert.False(t, IsStopWord(kw), "keyword %q is a stopword", kw)
	}
	assert.Equal(t, []string{"cli", "ship", "tooling", "works", "yaml"}, rec.Keywords)
}

func TestSuggest_Deterministic(t *testing.T) {
	content := strings.Repeat("alpha beta gamma delta epsilon zeta eta theta iota kappa lambda omicron sigma ", 3)
	first := Suggest(content)
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(first, Suggest(content)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
	assert.Len(t, first.Keywords, DefaultTopN)
	assert.Equal(t, "alpha", first.Keywords[0])
	assert.NotContains(t, first.Keywords, "sigma", "13th distinct token must be cut")
}

func TestRankKeywords(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		n      int
		want   []string
	}{
		{name: "empty", tokens: nil, n: 5, want: []string{}},
		{name: "frequency first", tokens: []string{"foo", "bar", "bar", "baz", "baz", "baz"}, n: 5, want: []string{"baz", "bar", "foo"}},
		{name: "ties keep first appearance", tokens: []string{"zed", "abc", "mid", "abc", "zed"}, n: 5, want: []string{"zed", "abc", "mid"}},
		{name: "truncated", tokens: []string{"one", "two", "three"}, n: 2, want: []string{"one", "two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankKeywords(tt.tokens, tt.n)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RankKeywords() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchCategories_Monotonic(t *testing.T) {
	base := "A small utility."
	require.Empty(t, MatchCategories(base))

	added := ""
	var prev []string
	for _, c := range Categories {
		added += " " + c.Triggers[0]
		got := MatchCategories(base + added)
		for _, p := range prev {
			assert.Contains(t, got, p, "adding triggers must not remove %q", p)
		}
		assert.Contains(t, got, c.Name)
		prev = got
	}
	assert.Equal(t, []string{"LLM/Generative AI", "Python Development", "Data Science"}, prev)
}

func TestMatchCategories_Substring(t *testing.T) {
	// "storage" contains "rag"; substring matching is intentional.
	assert.Equal(t, []string{"LLM/Generative AI"}, MatchCategories("Object STORAGE layer"))
	assert.Equal(t, []string{"Python Development", "Data Science"}, MatchCategories("Python code for DATA wrangling"))
}

func TestTokenize_StripsPunctuation(t *testing.T) {
	got := Tokenize("Multi-Agent RAG: (v2) pipeline_runner!")
	assert.Equal(t, []string{"multiagent", "rag", "pipelinerunner"}, got)
}

func TestRecommender_Knobs(t *testing.T) {
	r := New(nil)
	r.TopN = 2
	r.TagKeywords = 1

	rec := r.Suggest("deploy deploy deploy build build test")
	assert.Equal(t, []string{"deploy", "build"}, rec.Keywords)
	assert.Equal(t, []string{"deploy"}, rec.Tags)
}

func TestMergeTags_Dedup(t *testing.T) {
	got := mergeTags([]string{"data", "rag"}, []string{"rag", "Data Science"})
	assert.Equal(t, []string{"data", "rag", "Data Science"}, got)
}

func TestSuggest_BadgesAreCopied(t *testing.T) {
	rec := Suggest("anything")
	rec.BadgesToAdd[0] = "mutated"
	assert.Equal(t, "[Maintenance] Needs Review", DefaultBadges[0])
}
