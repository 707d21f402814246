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

package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/kraklabs/repolift/pkg/generate"
	"github.com/kraklabs/repolift/pkg/pipeline"
	"github.com/kraklabs/repolift/pkg/recommend"
)

// noColor disables colors for the duration of the test.
func noColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })
}

func TestInitColors(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	color.NoColor = false
	InitColors(false)
	if color.NoColor {
		t.Error("InitColors(false) must not disable colors")
	}

	InitColors(true)
	if !color.NoColor {
		t.Error("InitColors(true): color.NoColor = false, want true")
	}
}

func TestPrinter_Messages(t *testing.T) {
	noColor(t)

	tests := []struct {
		name  string
		print func(p *Printer)
		want  string
	}{
		{"success", func(p *Printer) { p.Success("done") }, "✓ done\n"},
		{"warning", func(p *Printer) { p.Warning("careful") }, "⚠ careful\n"},
		{"error", func(p *Printer) { p.Error("failed") }, "✗ failed\n"},
		{"info", func(p *Printer) { p.Info("note") }, "ℹ note\n"},
		{"header", func(p *Printer) { p.Header("Título") }, "Título\n======\n"},
		{"field", func(p *Printer) { p.Field("Run:", "abc") }, "Run: abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.print(NewPrinter(&buf))
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextHelpers(t *testing.T) {
	noColor(t)
	if got := Label("Keywords:"); got != "Keywords:" {
		t.Errorf("Label() = %q", got)
	}
	if got := DimText("/tmp/x"); got != "/tmp/x" {
		t.Errorf("DimText() = %q", got)
	}
	if got := CountText(42); got != "42" {
		t.Errorf("CountText() = %q", got)
	}
	if NewPrinter(nil).Writer() == nil {
		t.Error("NewPrinter(nil) should default to stdout")
	}
}

func sampleReport(outcome pipeline.Outcome) *pipeline.Report {
	r := &pipeline.Report{
		RunID:         uuid.MustParse("6f1c1a47-0000-4000-8000-000000000001"),
		RepoURL:       "https://github.com/kraklabs/alpha",
		Outcome:       outcome,
		FragmentCount: 2,
		Duration:      1500 * time.Millisecond,
	}
	meta := recommend.MetadataRecord{
		Keywords:    []string{"rag", "agents"},
		Tags:        []string{"rag", "agents", "LLM/Generative AI"},
		Categories:  []string{"LLM/Generative AI"},
		BadgesToAdd: []string{"Build Status"},
	}
	switch outcome {
	case pipeline.OutcomeSuccess:
		r.Metadata = &meta
		r.Suggestions = &generate.SuggestionRecord{
			NewTitle:     "Alpha",
			ShortSummary: "A RAG system.",
			ReadmeEdits:  []string{"Add install steps", "Add usage", "Add license"},
		}
	case pipeline.OutcomeGenerationFailed:
		r.Metadata = &meta
		r.Error = "max retries reached"
		r.ErrorKind = pipeline.KindGeneration
	default:
		r.Error = "no content could be extracted"
		r.ErrorKind = pipeline.KindEmptyContent
	}
	return r
}

func TestRenderReport(t *testing.T) {
	noColor(t)

	tests := []struct {
		outcome pipeline.Outcome
		want    []string
		notWant []string
	}{
		{
			outcome: pipeline.OutcomeSuccess,
			want: []string{
				"repolift: https://github.com/kraklabs/alpha\n",
				"Duration: 1.5s",
				"Keywords:   rag, agents",
				"Categories: LLM/Generative AI",
				"Title:   Alpha",
				"    1. Add install steps\n    2. Add usage\n    3. Add license\n",
				"✓ Analysis complete",
			},
		},
		{
			outcome: pipeline.OutcomeGenerationFailed,
			want:    []string{"Metadata", "Tags:       rag, agents, LLM/Generative AI", "✗ Suggestion generation failed: max retries reached"},
			notWant: []string{"Suggestions", "Analysis complete"},
		},
		{
			outcome: pipeline.OutcomeNoContent,
			want:    []string{"✗ No content could be analyzed: no content could be extracted"},
			notWant: []string{"Metadata", "Suggestions"},
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).RenderReport(sampleReport(tt.outcome))
			got := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(got, s) {
					t.Errorf("output missing %q\nGot:\n%s", s, got)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(got, s) {
					t.Errorf("output should not contain %q\nGot:\n%s", s, got)
				}
			}
		})
	}
}

func TestRenderMetadata_Empty(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.RenderMetadata(nil)
	empty := recommend.EmptyRecord()
	p.RenderMetadata(&empty)
	p.RenderSuggestions(nil)

	if got := strings.Count(buf.String(), "(none)"); got != 6 {
		t.Errorf("(none) count = %d, want 6\n%s", got, buf.String())
	}
}
