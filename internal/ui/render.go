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
	"fmt"
	"strings"
	"time"

	"github.com/kraklabs/repolift/pkg/generate"
	"github.com/kraklabs/repolift/pkg/pipeline"
	"github.com/kraklabs/repolift/pkg/recommend"
)

// RenderReport prints a run report in the form that fits its outcome:
// metadata and suggestions on success, metadata and the error after a
// generation failure, only the error when no content was found.
func (p *Printer) RenderReport(r *pipeline.Report) {
	p.Header("repolift: " + r.RepoURL)
	p.Field("Run:", DimText(r.RunID.String()))
	p.Field("Fragments:", CountText(r.FragmentCount))
	p.Field("Duration:", r.Duration.Round(time.Millisecond).String())
	p.Line("")

	switch r.Outcome {
	case pipeline.OutcomeSuccess:
		p.RenderMetadata(r.Metadata)
		p.Line("")
		p.RenderSuggestions(r.Suggestions)
		p.Line("")
		p.Success("Analysis complete")
	case pipeline.OutcomeGenerationFailed:
		p.RenderMetadata(r.Metadata)
		p.Line("")
		p.Error("Suggestion generation failed: " + r.Error)
	default:
		p.Error("No content could be analyzed: " + r.Error)
	}
}

// RenderMetadata prints the extracted metadata block.
func (p *Printer) RenderMetadata(m *recommend.MetadataRecord) {
	p.SubHeader("Metadata")
	if m == nil {
		p.Line("  " + DimText("(none)"))
		return
	}
	p.Field("  Keywords:  ", joinOrNone(m.Keywords))
	p.Field("  Tags:      ", joinOrNone(m.Tags))
	p.Field("  Categories:", joinOrNone(m.Categories))
	p.Field("  Badges:    ", joinOrNone(m.BadgesToAdd))
}

// RenderSuggestions prints the title, summary and numbered README edits.
func (p *Printer) RenderSuggestions(s *generate.SuggestionRecord) {
	p.SubHeader("Suggestions")
	if s == nil {
		p.Line("  " + DimText("(none)"))
		return
	}
	p.Field("  Title:  ", s.NewTitle)
	p.Field("  Summary:", s.ShortSummary)
	p.Line("  " + Label("README edits:"))
	for i, edit := range s.ReadmeEdits {
		p.Line(fmt.Sprintf("    %d. %s", i+1, edit))
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return DimText("(none)")
	}
	return strings.Join(items, ", ")
}
