// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/repolift/pkg/generate"
	"github.com/kraklabs/repolift/pkg/pipeline"
	"github.com/kraklabs/repolift/pkg/recommend"
)

func TestJSONTo(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{
		"repo_url": "https://github.com/user/repo",
		"count":    42,
	}

	if err := JSONTo(&buf, data); err != nil {
		t.Fatalf("JSONTo failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "  \"repo_url\"") {
		t.Errorf("expected 2-space indentation, got: %s", out)
	}
	if !strings.Contains(out, `"count": 42`) {
		t.Errorf("missing count field, got: %s", out)
	}
	if !strings.HasSuffix(out, "}\n") {
		t.Errorf("expected trailing newline, got: %q", out)
	}
}

func TestJSONTo_NoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONTo(&buf, map[string]string{"edit": "Add <badge> & docs"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"Add <badge> & docs"`) {
		t.Errorf("HTML characters were escaped: %s", buf.String())
	}
}

func TestJSONTo_Unencodable(t *testing.T) {
	var buf bytes.Buffer
	err := JSONTo(&buf, map[string]any{"ch": make(chan int)})
	if err == nil || !strings.Contains(err.Error(), "JSON encoding failed") {
		t.Errorf("JSONTo(chan) error = %v", err)
	}
}

func TestJSONTo_Report(t *testing.T) {
	report := &pipeline.Report{
		RunID:         uuid.New(),
		RepoURL:       "https://github.com/kraklabs/alpha",
		Outcome:       pipeline.OutcomeSuccess,
		FragmentCount: 3,
		Duration:      2 * time.Second,
		Seconds:       2,
		Metadata: &recommend.MetadataRecord{
			Keywords:    []string{"rag"},
			Tags:        []string{"rag", "LLM/Generative AI"},
			Categories:  []string{"LLM/Generative AI"},
			BadgesToAdd: []string{"Build Status"},
		},
		Suggestions: &generate.SuggestionRecord{
			NewTitle:     "Alpha",
			ShortSummary: "Summary.",
			ReadmeEdits:  []string{"a", "b", "c"},
		},
	}

	var buf bytes.Buffer
	if err := JSONTo(&buf, report); err != nil {
		t.Fatal(err)
	}

	var got struct {
		RunID       string                    `json:"run_id"`
		Outcome     string                    `json:"outcome"`
		Seconds     float64                   `json:"duration_seconds"`
		Metadata    recommend.MetadataRecord  `json:"metadata"`
		Suggestions generate.SuggestionRecord `json:"suggestions"`
		Error       *string                   `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if got.RunID != report.RunID.String() || got.Outcome != "success" || got.Seconds != 2 {
		t.Errorf("header fields = %+v", got)
	}
	if got.Metadata.BadgesToAdd[0] != "Build Status" {
		t.Errorf("badges_to_add = %v", got.Metadata.BadgesToAdd)
	}
	if len(got.Suggestions.ReadmeEdits) != 3 {
		t.Errorf("readme_edits = %v", got.Suggestions.ReadmeEdits)
	}
	if got.Error != nil {
		t.Errorf("error should be omitted on success, got %q", *got.Error)
	}
}
