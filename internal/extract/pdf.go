package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// extractPDF converts path with `pdftotext <path> <tmp>` and reads <tmp>.
// The scratch file is removed on every return path.
func (e *Extractor) extractPDF(ctx context.Context, path string) (*Entry, error) {
	stem := Stem(path)

	tmp, err := os.CreateTemp(e.tmpDir, stem+"-*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file for %s: %w", path, err)
	}
	out := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(out) }()

	if e.opts.PDFTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.PDFTimeout)
		defer cancel()
	}

	if output, err := e.runner.Run(ctx, e.opts.PDFToText, path, out); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrToolMissing, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrToolFailed, path, ctxErr)
		}
		if msg := bytes.TrimSpace(output); len(msg) > 0 {
			return nil, fmt.Errorf("%w: %s: %w: %s", ErrToolFailed, path, err, msg)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrToolFailed, path, err)
	}

	body, err := e.readText(out)
	if err != nil {
		return nil, err
	}
	return &Entry{Title: stem, Body: strPtr(body), ArchiveLoc: strPtr(path)}, nil
}
