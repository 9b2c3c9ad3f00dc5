// Package index builds a memex index from a directory tree.
//
// The Runner walks the source with a pool of goroutines that also extract
// each file. Extracted entries flow through a channel bounded by the thread
// count to a single writer goroutine, so a slow index stalls the walk
// instead of growing memory.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"

	merrors "github.com/Aman-CERP/memex/internal/errors"
	"github.com/Aman-CERP/memex/internal/extract"
	"github.com/Aman-CERP/memex/internal/store"
	"github.com/Aman-CERP/memex/internal/ui"
)

// DefaultBatchSize is used when RunnerConfig.BatchSize is not positive.
const DefaultBatchSize = 500

// RunnerConfig configures a build.
type RunnerConfig struct {
	// Source is the file or directory to index.
	Source string

	// Destination is the index directory. Empty builds a memory-only index.
	Destination string

	// Threads is the number of walker goroutines and the channel capacity.
	Threads int

	// BatchSize is the number of documents per index batch.
	BatchSize int

	// Hidden, NoIgnore, FollowSymlinks and Exclude are passed to the walker.
	Hidden         bool
	NoIgnore       bool
	FollowSymlinks bool
	Exclude        []string
}

// RunnerResult is the outcome of a successful build.
type RunnerResult struct {
	// Index is the built index, open and ready to query.
	Index *store.Index

	// Indexed is the number of documents written.
	Indexed int

	// Skipped is the number of files whose kind is not indexed.
	Skipped int

	// Failed is the number of files or directories that could not be read
	// or extracted.
	Failed int

	// Duration is the total build time.
	Duration time.Duration

	lock *store.DestinationLock
}

// Close closes the index and releases the destination lock.
func (r *RunnerResult) Close() error {
	err := r.Index.Close()
	if r.lock != nil {
		if uerr := r.lock.Unlock(); err == nil {
			err = uerr
		}
	}
	return err
}

// Extractor turns a file into an entry. A nil entry means the file is not
// indexed.
type Extractor interface {
	Extract(ctx context.Context, path string) (*extract.Entry, error)
}

// RunnerDependencies contains the injected dependencies for Runner.
type RunnerDependencies struct {
	// Renderer for progress display (required).
	Renderer ui.Renderer

	// Extractor for file contents (required).
	Extractor Extractor

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Runner executes builds with progress reporting.
type Runner struct {
	renderer  ui.Renderer
	extractor Extractor
	logger    *slog.Logger
}

// NewRunner creates a Runner with injected dependencies.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if deps.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{renderer: deps.Renderer, extractor: deps.Extractor, logger: logger}, nil
}

// Run builds the index described by cfg. On success the caller owns the
// returned index and must Close the result. On failure nothing stays open.
func (r *Runner) Run(ctx context.Context, cfg RunnerConfig) (*RunnerResult, error) {
	start := time.Now()
	if cfg.Source == "" {
		return nil, merrors.ValidationError("source is required", nil)
	}
	if cfg.Threads <= 0 {
		return nil, merrors.ValidationError(fmt.Sprintf("threads must be positive, got %d", cfg.Threads), nil)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	var lock *store.DestinationLock
	if cfg.Destination != "" {
		var err error
		if lock, err = store.LockDestination(cfg.Destination); err != nil {
			return nil, err
		}
	}
	release := func() {
		if lock != nil {
			_ = lock.Unlock()
		}
	}

	idx, err := store.Open(cfg.Destination)
	if err != nil {
		release()
		return nil, err
	}

	r.logger.Info("build_started",
		slog.String("source", cfg.Source),
		slog.String("destination", cfg.Destination),
		slog.Int("threads", cfg.Threads))

	counts, err := r.pipeline(ctx, cfg, idx.NewWriter(cfg.BatchSize))
	if err != nil {
		_ = idx.Close()
		release()
		return nil, err
	}

	result := &RunnerResult{
		Index:    idx,
		Indexed:  counts.indexed,
		Skipped:  counts.skipped,
		Failed:   counts.failed,
		Duration: time.Since(start),
		lock:     lock,
	}

	r.logger.Info("build_completed",
		slog.Int("indexed", result.Indexed),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", result.Duration))

	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageComplete,
		Indexed: result.Indexed,
		Skipped: result.Skipped,
		Failed:  result.Failed,
	})
	r.renderer.Complete(ui.CompletionStats{
		Source:      cfg.Source,
		Destination: cfg.Destination,
		Indexed:     result.Indexed,
		Skipped:     result.Skipped,
		Failed:      result.Failed,
		Duration:    result.Duration,
	})
	return result, nil
}

// DocumentID derives a stable document id from the source path, so a
// rebuild into the same destination replaces documents in place.
func DocumentID(source string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(source))
}

// ToDocument converts an extracted entry to an index document.
func ToDocument(e *extract.Entry) store.Document {
	doc := store.Document{ID: DocumentID(e.Source), Title: e.Title}
	if e.Body != nil {
		doc.Body = *e.Body
	}
	if e.Loc != nil {
		doc.Loc = *e.Loc
	}
	if e.ArchiveLoc != nil {
		doc.ArchiveLoc = *e.ArchiveLoc
	}
	return doc
}
