// Package store holds the memex full-text index on top of bleve.
//
// An Index is opened from disk (or memory), filled through a Writer and
// queried through a Reader with queries built by a Parser.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	merrors "github.com/Aman-CERP/memex/internal/errors"
)

// Index is an open bleve index with the memex mapping.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// Open opens the index at path, creating it when the path does not exist
// or is an empty directory. An empty path gives a memory-only index.
// An existing path that is not a usable index is reported as
// ERR_205_CORRUPT_INDEX and left untouched.
func Open(path string) (*Index, error) {
	indexMapping, err := NewMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	if path == "" {
		idx, err := bleve.NewMemOnly(indexMapping)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	if isEmptyDir(path) {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to prepare %s: %w", path, err)
		}
	}

	idx, err := bleve.Open(path)
	switch {
	case err == bleve.ErrorIndexPathDoesNotExist:
		slog.Debug("index_created", slog.String("path", path))
		idx, err = bleve.New(path, indexMapping)
		if err != nil {
			return nil, fmt.Errorf("failed to create index at %s: %w", path, err)
		}
	case err != nil:
		return nil, merrors.New(merrors.ErrCodeCorruptIndex, fmt.Sprintf("cannot open index at %s", path), err).
			WithSuggestion("Remove the directory or choose another --destination, then rebuild")
	default:
		slog.Debug("index_opened", slog.String("path", path))
	}

	return &Index{index: idx, path: path}, nil
}

// ErrIndexNotFound is returned by OpenExisting when path holds no index.
var ErrIndexNotFound = errors.New("index not found")

// OpenExisting opens an index a build already wrote. It never creates one:
// a missing path or an empty directory gives ErrIndexNotFound, anything
// else that bleve cannot open is ERR_205_CORRUPT_INDEX.
func OpenExisting(path string) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIndexNotFound, path, err)
	}
	if isEmptyDir(path) {
		return nil, fmt.Errorf("%w: %s is empty", ErrIndexNotFound, path)
	}

	idx, err := bleve.Open(path)
	if err != nil {
		return nil, merrors.New(merrors.ErrCodeCorruptIndex, fmt.Sprintf("cannot open index at %s", path), err).
			WithSuggestion("Rebuild it with 'memex build'")
	}
	slog.Debug("index_opened", slog.String("path", path))
	return &Index{index: idx, path: path}, nil
}

// isEmptyDir reports whether path is an existing directory with no entries.
func isEmptyDir(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) == 0
}

// Path returns the on-disk location, or "" for a memory index.
func (i *Index) Path() string {
	return i.path
}

// DocCount returns the number of committed documents.
func (i *Index) DocCount() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return 0, fmt.Errorf("index is closed")
	}
	return i.index.DocCount()
}

// NewWriter returns a Writer that flushes every batchSize documents.
func (i *Index) NewWriter(batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Writer{idx: i, batch: i.index.NewBatch(), batchSize: batchSize}
}

// Reader returns a Reader over the committed documents.
func (i *Index) Reader() *Reader {
	return &Reader{idx: i}
}

// Parser returns a query parser over DefaultFields.
func (i *Index) Parser() *Parser {
	return NewParser(DefaultFields)
}

// Close releases the index. Further calls are no-ops.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.index.Close()
}
