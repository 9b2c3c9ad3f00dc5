package extract

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

func (e *Extractor) extractText(path string) (*Entry, error) {
	body, err := e.readText(path)
	if err != nil {
		return nil, err
	}
	return &Entry{Title: Stem(path), Body: strPtr(body), ArchiveLoc: strPtr(path)}, nil
}

// readText reads a UTF-8 file, enforcing MaxFileSize.
func (e *Extractor) readText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if limit := e.opts.MaxFileSize; limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}
	if limit := e.opts.MaxFileSize; limit > 0 && int64(len(data)) > limit {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, path, limit)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrMalformed, path)
	}
	return string(data), nil
}
