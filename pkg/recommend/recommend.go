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

// Package recommend derives keywords, tags, categories and badge
// suggestions from repository text. It performs no I/O and never fails.
package recommend

import (
	"log/slog"
	"strings"
	"unicode"
)

// Defaults for the ranking knobs.
const (
	DefaultTopN        = 12
	DefaultTagKeywords = 5
	MinTokenLength     = 3
)

// Badge suggestions attached to every record.
var DefaultBadges = []string{
	"[Maintenance] Needs Review",
	"[License] Recommended MIT",
	"[Status] Work in Progress",
}

// Category pairs a category label with the substrings that trigger it.
type Category struct {
	Name     string
	Triggers []string
}

// Categories is the fixed category table, matched in order.
var Categories = []Category{
	{Name: "LLM/Generative AI", Triggers: []string{"rag", "agent", "llm"}},
	{Name: "Python Development", Triggers: []string{"python", "code"}},
	{Name: "Data Science", Triggers: []string{"data", "analysis", "model"}},
}

// MetadataRecord is the Recommender's output.
type MetadataRecord struct {
	Keywords    []string `json:"keywords"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
	BadgesToAdd []string `json:"badges_to_add"`
}

// EmptyRecord returns a record whose four fields are empty, non-nil slices.
func EmptyRecord() MetadataRecord {
	return MetadataRecord{
		Keywords:    []string{},
		Tags:        []string{},
		Categories:  []string{},
		BadgesToAdd: []string{},
	}
}

// Recommender runs keyword extraction with configurable ranking sizes.
type Recommender struct {
	// TopN is the number of keywords kept. Zero uses DefaultTopN.
	TopN int
	// TagKeywords is how many leading keywords become tags. Zero uses
	// DefaultTagKeywords.
	TagKeywords int

	logger *slog.Logger
}

// New creates a Recommender with default knobs.
func New(logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{TopN: DefaultTopN, TagKeywords: DefaultTagKeywords, logger: logger}
}

// Suggest extracts a metadata record from content using default settings.
func Suggest(content string) MetadataRecord {
	return New(nil).Suggest(content)
}

// Suggest extracts a metadata record from content. A panic during
// extraction degrades to EmptyRecord.
func (r *Recommender) Suggest(content string) (rec MetadataRecord) {
	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("recommend.panic", "panic", p)
			rec = EmptyRecord()
		}
	}()

	topN := r.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	tagN := r.TagKeywords
	if tagN <= 0 {
		tagN = DefaultTagKeywords
	}

	keywords := RankKeywords(Tokenize(content), topN)
	categories := MatchCategories(content)

	rec = MetadataRecord{
		Keywords:    keywords,
		Tags:        mergeTags(keywords[:min(tagN, len(keywords))], categories),
		Categories:  categories,
		BadgesToAdd: append([]string(nil), DefaultBadges...),
	}
	logger.Debug("recommend.complete",
		"keywords", len(rec.Keywords),
		"tags", len(rec.Tags),
		"categories", len(rec.Categories),
	)
	return rec
}

// Tokenize lowercases content, strips every rune other than ASCII letters,
// digits and whitespace, splits on whitespace and drops stopwords and
// tokens shorter than MinTokenLength.
func Tokenize(content string) []string {
	var b strings.Builder
	b.Grow(len(content))
	for _, r := range strings.ToLower(content) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := fields[:0]
	for _, w := range fields {
		if len(w) < MinTokenLength || IsStopWord(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// RankKeywords returns up to n distinct tokens ordered by frequency, with
// ties broken by first appearance.
func RankKeywords(tokens []string, n int) []string {
	counts := make(map[string]int, len(tokens))
	var order []string
	for _, t := range tokens {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	// Insertion sort keeps first-appearance order among equal counts.
	ranked := make([]string, 0, len(order))
	for _, w := range order {
		i := len(ranked)
		ranked = append(ranked, w)
		for i > 0 && counts[ranked[i-1]] < counts[w] {
			ranked[i] = ranked[i-1]
			i--
		}
		ranked[i] = w
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// MatchCategories returns the categories whose triggers occur as substrings
// of the lowercased content, in table order.
func MatchCategories(content string) []string {
	lower := strings.ToLower(content)
	out := []string{}
	for _, c := range Categories {
		for _, trig := range c.Triggers {
			if strings.Contains(lower, trig) {
				out = append(out, c.Name)
				break
			}
		}
	}
	return out
}

func mergeTags(keywords, categories []string) []string {
	seen := make(map[string]struct{}, len(keywords)+len(categories))
	tags := make([]string, 0, len(keywords)+len(categories))
	for _, group := range [][]string{keywords, categories} {
		for _, t := range group {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	return tags
}
