// Package extract turns files into searchable entries.
//
// Plain text is read directly, PDFs go through pdftotext, and .webloc
// property lists yield a titled URL. Files without an extension are indexed
// by name; other extensions are skipped.
package extract

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Options configures an Extractor.
type Options struct {
	// PDFToText is the pdftotext executable. Defaults to "pdftotext".
	PDFToText string
	// PDFTimeout bounds one pdftotext run. Zero means no bound.
	PDFTimeout time.Duration
	// MaxFileSize is the largest text file read, in bytes. Zero means no limit.
	MaxFileSize int64
	// Runner executes pdftotext. Defaults to ExecRunner.
	Runner CommandRunner
}

// Extractor converts files to entries. It is safe for concurrent use.
type Extractor struct {
	opts   Options
	runner CommandRunner
	tmpDir string
}

// New creates an Extractor with its own scratch directory for pdftotext
// output. Call Close to remove it.
func New(opts Options) (*Extractor, error) {
	if opts.PDFToText == "" {
		opts.PDFToText = "pdftotext"
	}
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	dir, err := os.MkdirTemp("", "memex-extract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Extractor{opts: opts, runner: runner, tmpDir: dir}, nil
}

// Extract produces the entry for path. It returns (nil, nil) for files whose
// kind is skipped.
func (e *Extractor) Extract(ctx context.Context, path string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		entry *Entry
		err   error
	)
	switch KindOf(path) {
	case KindSkip:
		return nil, nil
	case KindOpaque:
		entry = &Entry{Title: Stem(path), ArchiveLoc: strPtr(path)}
	case KindPlainText:
		entry, err = e.extractText(path)
	case KindPortableDocument:
		entry, err = e.extractPDF(ctx, path)
	case KindWebLocation:
		entry, err = e.extractWebloc(path)
	}
	if err != nil {
		return nil, err
	}
	entry.Source = path
	return entry, nil
}

// Close removes the scratch directory.
func (e *Extractor) Close() error {
	return os.RemoveAll(e.tmpDir)
}
