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

package generate

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/kraklabs/repolift/pkg/ingestion"
	"github.com/kraklabs/repolift/pkg/recommend"
)

// ContextQuery is the retrieval query used to pick prompt context.
const ContextQuery = "summarize the repository and identify missing documentation sections"

// ContextSeparator joins retrieved fragments in the prompt.
const ContextSeparator = "\n---\n"

const promptText = `You are an expert GitHub repository analyst. The output must strictly adhere to the provided JSON schema.

REPOSITORY METADATA & CONTEXT: {{ .Context }}
ORIGINAL CONTENT: {{ .OriginalContent }}
EXTRACTED METADATA: {{ .Metadata | toPrettyJson }}

Based on the information, generate the required structured response.
`

var promptTemplate = template.Must(
	template.New("suggestions").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(promptText),
)

// PromptData is the input of the suggestions prompt.
type PromptData struct {
	Context         string
	OriginalContent string
	Metadata        recommend.MetadataRecord
}

// RenderPrompt fills the suggestions prompt.
func RenderPrompt(data PromptData) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// JoinContext concatenates retrieved fragments for the prompt.
func JoinContext(fragments []ingestion.Fragment) string {
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = f.Content
	}
	return strings.Join(parts, ContextSeparator)
}
