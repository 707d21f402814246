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

package ingestion

import (
	"strings"

	"github.com/tmc/langchaingo/schema"
)

// Metadata keys carried on langchaingo documents.
const (
	MetaSource = "source"
	MetaIndex  = "index"
	MetaID     = "fragment_id"
)

// ContentSeparator joins fragments into the original content string.
const ContentSeparator = "\n\n"

// Fragment is a bounded slice of a source file, the unit of retrieval.
type Fragment struct {
	Content string `json:"content"`
	Source  string `json:"source"` // allow-listed file the window came from
	Index   int    `json:"index"`  // position in the ingestion order
}

// ID returns the fragment's content ID, see FragmentID.
func (f Fragment) ID() string { return FragmentID(f.Source, f.Content) }

// Document converts the fragment into a langchaingo document.
func (f Fragment) Document() schema.Document {
	return schema.Document{
		PageContent: f.Content,
		Metadata: map[string]any{
			MetaSource: f.Source,
			MetaIndex:  f.Index,
			MetaID:     f.ID(),
		},
	}
}

// FragmentFromDocument is the inverse of Fragment.Document.
// Missing metadata yields an empty source and index -1.
func FragmentFromDocument(doc schema.Document) Fragment {
	f := Fragment{Content: doc.PageContent, Index: -1}
	if src, ok := doc.Metadata[MetaSource].(string); ok {
		f.Source = src
	}
	switch idx := doc.Metadata[MetaIndex].(type) {
	case int:
		f.Index = idx
	case float64:
		f.Index = int(idx)
	}
	return f
}

// JoinContent concatenates fragment contents in order.
func JoinContent(fragments []Fragment) string {
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = f.Content
	}
	return strings.Join(parts, ContentSeparator)
}
