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
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRepoURL = "https://github.com/user/project-alpha"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writingCloner populates dest with files instead of running git.
func writingCloner(files map[string]string) ClonerFunc {
	return func(_ context.Context, _ string, dest string) error {
		for name, content := range files {
			path := filepath.Join(dest, filepath.FromSlash(name))
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				return err
			}
		}
		return nil
	}
}

func assertRemoved(t *testing.T, dir string) {
	t.Helper()
	require.NotEmpty(t, dir)
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "scratch dir %s still exists", dir)
}

func TestProcess_LoadsAllowListedFiles(t *testing.T) {
	files := map[string]string{
		"README.md":        "# Project Alpha\n\nA multi-agent RAG system.",
		"main.py":          "print('hello')",
		"requirements.txt": "langchain\nfaiss-cpu",
		"setup.py":         "ignored",
	}
	ing := NewIngestor(DefaultConfig(), writingCloner(files), quietLogger())

	res, err := ing.Process(context.Background(), testRepoURL)
	require.NoError(t, err)
	require.Len(t, res.Fragments, 3)

	sources := make([]string, 0, len(res.Fragments))
	for i, f := range res.Fragments {
		assert.Equal(t, i, f.Index)
		sources = append(sources, f.Source)
	}
	assert.Equal(t, DefaultFiles, sources)
	assert.NotContains(t, res.Content, "ignored")
	assert.Equal(t, JoinContent(res.Fragments), res.Content)
	assertRemoved(t, res.ScratchDir)
}

func TestProcess_SplitsLongFiles(t *testing.T) {
	paragraph := strings.Repeat("word ", 150) // 750 runes
	readme := strings.Join([]string{paragraph, paragraph, paragraph}, "\n\n")

	cfg := DefaultConfig()
	ing := NewIngestor(cfg, writingCloner(map[string]string{"README.md": readme}), quietLogger())

	res, err := ing.Process(context.Background(), testRepoURL)
	require.NoError(t, err)
	require.Greater(t, len(res.Fragments), 1)
	for _, f := range res.Fragments {
		assert.LessOrEqual(t, utf8.RuneCountInString(f.Content), cfg.ChunkSize)
		assert.Equal(t, "README.md", f.Source)
	}
}

func TestProcess_NoAllowListedFiles(t *testing.T) {
	ing := NewIngestor(DefaultConfig(), writingCloner(map[string]string{"LICENSE": "MIT"}), quietLogger())

	var scratch string
	inner := ing.cloner
	ing.cloner = ClonerFunc(func(ctx context.Context, url, dest string) error {
		scratch = dest
		return inner.Clone(ctx, url, dest)
	})

	res, err := ing.Process(context.Background(), testRepoURL)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrEmptyContent))

	var emptyErr *EmptyContentError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, DefaultFiles, emptyErr.Files)
	assertRemoved(t, scratch)
}

func TestProcess_EmptyFilesYieldNoContent(t *testing.T) {
	files := map[string]string{"README.md": "", "main.py": "   \n\n  "}
	ing := NewIngestor(DefaultConfig(), writingCloner(files), quietLogger())

	_, err := ing.Process(context.Background(), testRepoURL)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestProcess_CloneFailure(t *testing.T) {
	tests := []struct {
		name       string
		cloneErr   error
		wantStatus int
	}{
		{
			name:       "typed clone error keeps status",
			cloneErr:   &CloneError{URL: testRepoURL, Status: 128, Err: errors.New("repository not found")},
			wantStatus: 128,
		},
		{
			name:       "plain error gets unknown status",
			cloneErr:   errors.New("network unreachable"),
			wantStatus: StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var scratch string
			cloner := ClonerFunc(func(_ context.Context, _ string, dest string) error {
				scratch = dest
				// Partial clone output must be removed too.
				_ = os.WriteFile(filepath.Join(dest, "README.md"), []byte("partial"), 0o600)
				return tt.cloneErr
			})
			ing := NewIngestor(DefaultConfig(), cloner, quietLogger())

			res, err := ing.Process(context.Background(), testRepoURL)
			assert.Nil(t, res)

			var cloneErr *CloneError
			require.ErrorAs(t, err, &cloneErr)
			assert.Equal(t, tt.wantStatus, cloneErr.Status)
			assert.Contains(t, err.Error(), "git clone failed")
			assertRemoved(t, scratch)
		})
	}
}

func TestProcess_SkipsUnreadableEntries(t *testing.T) {
	cloner := ClonerFunc(func(_ context.Context, _ string, dest string) error {
		// A directory named like an allow-listed file is skipped.
		if err := os.Mkdir(filepath.Join(dest, "main.py"), 0o750); err != nil {
			return err
		}
		// Invalid UTF-8 is skipped.
		if err := os.WriteFile(filepath.Join(dest, "requirements.txt"), []byte{0xff, 0xfe, 0xfd}, 0o600); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dest, "README.md"), []byte("readme"), 0o600)
	})
	ing := NewIngestor(DefaultConfig(), cloner, quietLogger())

	res, err := ing.Process(context.Background(), testRepoURL)
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, "README.md", res.Fragments[0].Source)
}

func TestProcess_MaxFileSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFileSize = 10
	files := map[string]string{
		"README.md": strings.Repeat("x", 11),
		"main.py":   "small",
	}
	ing := NewIngestor(cfg, writingCloner(files), quietLogger())

	res, err := ing.Process(context.Background(), testRepoURL)
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, "main.py", res.Fragments[0].Source)
}

func TestProcess_NoSizeLimitByDefault(t *testing.T) {
	assert.Zero(t, DefaultConfig().MaxFileSize)

	readme := strings.Repeat("agent ", 200_000)
	require.Greater(t, len(readme), 1<<20)
	ing := NewIngestor(DefaultConfig(), writingCloner(map[string]string{"README.md": readme}), quietLogger())

	res, err := ing.Process(context.Background(), testRepoURL)
	require.NoError(t, err)
	require.NotEmpty(t, res.Fragments)
	assert.Equal(t, "README.md", res.Fragments[0].Source)
}

func TestNewIngestor_Defaults(t *testing.T) {
	ing := NewIngestor(Config{ChunkSize: 100, ChunkOverlap: 500}, nil, nil)

	assert.Equal(t, DefaultFiles, ing.cfg.Files)
	assert.Equal(t, 100, ing.cfg.ChunkSize)
	assert.Equal(t, 50, ing.cfg.ChunkOverlap)
	assert.Equal(t, "repolift-clone-*", ing.cfg.ScratchPrefix)
	assert.IsType(t, GitCloner{}, ing.cloner)
}

func TestFragmentDocumentRoundTrip(t *testing.T) {
	f := Fragment{Content: "hello", Source: "README.md", Index: 7}
	assert.Equal(t, f, FragmentFromDocument(f.Document()))

	doc := f.Document()
	assert.Equal(t, f.ID(), doc.Metadata[MetaID])
	doc.Metadata[MetaIndex] = float64(3)
	assert.Equal(t, 3, FragmentFromDocument(doc).Index)

	doc.Metadata = nil
	assert.Equal(t, Fragment{Content: "hello", Index: -1}, FragmentFromDocument(doc))
}

func TestJoinContent(t *testing.T) {
	assert.Equal(t, "", JoinContent(nil))
	assert.Equal(t, "a\n\nb", JoinContent([]Fragment{{Content: "a"}, {Content: "b"}}))
}

func TestEmptyContentError(t *testing.T) {
	err := &EmptyContentError{Files: []string{"README.md"}}
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Contains(t, err.Error(), "README.md")
}
