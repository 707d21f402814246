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
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// Config controls what the Ingestor reads and how it splits it.
type Config struct {
	// Files is the allow-list of paths, relative to the repository root.
	Files []string

	// ChunkSize is the target window length in runes.
	ChunkSize int

	// ChunkOverlap is the number of runes shared by consecutive windows.
	ChunkOverlap int

	// MaxFileSize skips larger files. Zero disables the limit.
	MaxFileSize int64

	// ScratchPrefix is the os.MkdirTemp pattern for the clone directory.
	ScratchPrefix string
}

// DefaultFiles is the default allow-list: README, entry point, manifest.
var DefaultFiles = []string{"README.md", "main.py", "requirements.txt"}

// Separators used by the splitter, in decreasing priority.
var Separators = []string{"\n\n", "\n", " ", ""}

// DefaultConfig returns the default ingestion configuration.
func DefaultConfig() Config {
	return Config{
		Files:         append([]string(nil), DefaultFiles...),
		ChunkSize:     1000,
		ChunkOverlap:  200,
		ScratchPrefix: "repolift-clone-*",
	}
}

// Result is the output of a successful Process call.
type Result struct {
	Fragments []Fragment

	// Content is every fragment joined with ContentSeparator.
	Content string

	// ScratchDir is the directory the clone used. It no longer exists.
	ScratchDir string
}

// Ingestor clones a repository and splits its allow-listed files.
// An Ingestor holds no per-run state and may be reused across runs.
type Ingestor struct {
	cfg      Config
	cloner   Cloner
	splitter textsplitter.TextSplitter
	logger   *slog.Logger
}

// NewIngestor creates an Ingestor. A nil cloner uses a shallow GitCloner.
func NewIngestor(cfg Config, cloner Cloner, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if len(cfg.Files) == 0 {
		cfg.Files = def.Files
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = min(def.ChunkOverlap, cfg.ChunkSize/2)
	}
	if cfg.ScratchPrefix == "" {
		cfg.ScratchPrefix = def.ScratchPrefix
	}
	if cloner == nil {
		cloner = GitCloner{Depth: 1}
	}
	return &Ingestor{
		cfg:    cfg,
		cloner: cloner,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
			textsplitter.WithSeparators(Separators),
		),
		logger: logger,
	}
}

// Process clones repoURL into a fresh scratch directory, loads the
// allow-listed files and splits them into fragments. The scratch directory
// is removed before Process returns on every path.
func (in *Ingestor) Process(ctx context.Context, repoURL string) (*Result, error) {
	logURL := SanitizeURL(repoURL)

	scratch, err := os.MkdirTemp("", in.cfg.ScratchPrefix)
	if err != nil {
		return nil, &CloneError{URL: logURL, Status: StatusUnknown, Err: fmt.Errorf("create scratch dir: %w", err)}
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			in.logger.Warn("ingest.cleanup.error", "dir", scratch, "err", rmErr)
			return
		}
		in.logger.Debug("ingest.cleanup", "dir", scratch)
	}()

	in.logger.Info("repo.clone.start", "url", logURL, "scratch_dir", scratch)
	start := time.Now()
	if err := in.cloner.Clone(ctx, repoURL, scratch); err != nil {
		var cloneErr *CloneError
		if !errors.As(err, &cloneErr) {
			cloneErr = &CloneError{URL: logURL, Status: StatusUnknown, Err: err}
		}
		recordCloneFailure()
		in.logger.Error("repo.clone.error", "url", logURL, "status", cloneErr.Status, "err", cloneErr.Err)
		return nil, cloneErr
	}
	observeClone(time.Since(start))
	in.logger.Info("repo.clone.success", "url", logURL, "duration", time.Since(start))

	docs := in.load(ctx, scratch)
	fragments := in.split(docs)
	if len(fragments) == 0 {
		in.logger.Error("ingest.empty", "url", logURL, "files", in.cfg.Files)
		return nil, &EmptyContentError{Files: append([]string(nil), in.cfg.Files...)}
	}
	recordFragments(len(fragments))

	in.logger.Info("ingest.split.complete",
		"files", len(docs),
		"fragments", len(fragments),
	)

	return &Result{
		Fragments:  fragments,
		Content:    JoinContent(fragments),
		ScratchDir: scratch,
	}, nil
}

// load reads the allow-listed files that exist under root. Missing files
// are skipped silently, unreadable ones are logged and skipped.
func (in *Ingestor) load(ctx context.Context, root string) []schema.Document {
	var docs []schema.Document
	for _, name := range in.cfg.Files {
		path := filepath.Join(root, filepath.FromSlash(name))

		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			in.logger.Debug("ingest.load.missing", "file", name)
			continue
		}
		if err != nil {
			in.logger.Warn("ingest.load.error", "file", name, "err", err)
			continue
		}
		if info.IsDir() {
			in.logger.Warn("ingest.load.error", "file", name, "err", "is a directory")
			continue
		}
		if in.cfg.MaxFileSize > 0 && info.Size() > in.cfg.MaxFileSize {
			in.logger.Warn("ingest.load.skip_large_file",
				"file", name,
				"size", info.Size(),
				"limit", in.cfg.MaxFileSize,
			)
			continue
		}

		doc, err := loadText(ctx, path)
		if err != nil {
			in.logger.Warn("ingest.load.error", "file", name, "err", err)
			continue
		}
		doc.Metadata[MetaSource] = name
		docs = append(docs, doc)
		in.logger.Debug("ingest.load.file", "file", name, "bytes", info.Size())
	}
	return docs
}

func loadText(ctx context.Context, path string) (schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return schema.Document{}, err
	}
	defer f.Close()

	docs, err := documentloaders.NewText(f).Load(ctx)
	if err != nil {
		return schema.Document{}, err
	}
	if len(docs) != 1 {
		return schema.Document{}, fmt.Errorf("text loader returned %d documents", len(docs))
	}
	if !utf8.ValidString(docs[0].PageContent) {
		return schema.Document{}, fmt.Errorf("not valid UTF-8")
	}
	if docs[0].Metadata == nil {
		docs[0].Metadata = map[string]any{}
	}
	return docs[0], nil
}

// split windows each document and numbers the fragments in file order.
// A document the splitter rejects is logged and skipped.
func (in *Ingestor) split(docs []schema.Document) []Fragment {
	var fragments []Fragment
	for _, doc := range docs {
		chunks, err := textsplitter.SplitDocuments(in.splitter, []schema.Document{doc})
		if err != nil {
			in.logger.Warn("ingest.split.error", "file", doc.Metadata[MetaSource], "err", err)
			continue
		}
		for _, chunk := range chunks {
			if chunk.PageContent == "" {
				continue
			}
			f := FragmentFromDocument(chunk)
			f.Index = len(fragments)
			fragments = append(fragments, f)
		}
	}
	return fragments
}
