package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	merrors "github.com/Aman-CERP/memex/internal/errors"
	"github.com/Aman-CERP/memex/internal/extract"
	"github.com/Aman-CERP/memex/internal/store"
	"github.com/Aman-CERP/memex/internal/ui"
	"github.com/Aman-CERP/memex/internal/walker"
)

// sink receives documents from the writer goroutine. *store.Writer is the
// production sink.
type sink interface {
	Add(ctx context.Context, doc store.Document) error
	Commit(ctx context.Context) error
}

// progressInterval bounds how often per-file progress reaches the renderer.
// Stage changes are always sent.
const progressInterval = 50 * time.Millisecond

type pipelineCounts struct {
	indexed int
	skipped int
	failed  int
}

// progress holds counters shared by walker goroutines and the writer.
type progress struct {
	indexed atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

func (p *progress) event(stage ui.Stage, file string) ui.ProgressEvent {
	return ui.ProgressEvent{
		Stage:       stage,
		Indexed:     int(p.indexed.Load()),
		Skipped:     int(p.skipped.Load()),
		Failed:      int(p.failed.Load()),
		CurrentFile: file,
	}
}

// pipeline walks cfg.Source, extracts every file and feeds the entries to
// out. The walk and the writer run in one errgroup: a fatal error on either
// side cancels the other. Commit runs once, after the channel drains.
func (r *Runner) pipeline(ctx context.Context, cfg RunnerConfig, out sink) (pipelineCounts, error) {
	w, err := walker.New(walker.Options{
		Root:           cfg.Source,
		Threads:        cfg.Threads,
		Hidden:         cfg.Hidden,
		NoIgnore:       cfg.NoIgnore,
		FollowSymlinks: cfg.FollowSymlinks,
		Exclude:        cfg.Exclude,
	})
	if err != nil {
		return pipelineCounts{}, merrors.ValidationError("invalid source", err)
	}

	var p progress
	limiter := rate.NewLimiter(rate.Every(progressInterval), 1)
	entries := make(chan *extract.Entry, cfg.Threads)
	g, gctx := errgroup.WithContext(ctx)

	r.renderer.UpdateProgress(p.event(ui.StageCrawling, ""))

	g.Go(func() error {
		err := w.Walk(gctx, func(path string, walkErr error) walker.Action {
			if walkErr != nil {
				r.logger.Warn("walk_failed", slog.String("path", path), slog.String("error", walkErr.Error()))
				r.renderer.AddError(ui.ErrorEvent{File: path, Err: walkErr, IsWarn: true})
				p.failed.Add(1)
				return walker.Continue
			}

			entry, err := r.extractor.Extract(gctx, path)
			switch {
			case err != nil && gctx.Err() != nil:
				return walker.Quit
			case err != nil:
				r.logger.Debug("extract_failed",
					slog.String("path", path),
					slog.String("code", extractCode(err)),
					slog.String("error", err.Error()))
				r.renderer.AddError(ui.ErrorEvent{File: path, Err: err, IsWarn: true})
				p.failed.Add(1)
				return walker.Continue
			case entry == nil:
				p.skipped.Add(1)
				return walker.Continue
			}

			select {
			case entries <- entry:
				return walker.Continue
			case <-gctx.Done():
				return walker.Quit
			}
		})
		if err != nil {
			// The writer leaves through gctx.Done, so the channel stays open.
			return err
		}
		close(entries)
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					r.renderer.UpdateProgress(p.event(ui.StageCommitting, ""))
					if err := out.Commit(gctx); err != nil {
						return merrors.New(merrors.ErrCodeIndexFailed, "failed to commit index", err)
					}
					return nil
				}
				if err := out.Add(gctx, ToDocument(entry)); err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					return merrors.New(merrors.ErrCodeIndexFailed, fmt.Sprintf("failed to index %s", entry.Source), err)
				}
				p.indexed.Add(1)
				if limiter.Allow() {
					r.renderer.UpdateProgress(p.event(ui.StageCrawling, entry.Source))
				}
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	err = g.Wait()
	counts := pipelineCounts{
		indexed: int(p.indexed.Load()),
		skipped: int(p.skipped.Load()),
		failed:  int(p.failed.Load()),
	}
	return counts, err
}

// extractCode classifies a per-file failure for the debug log.
func extractCode(err error) string {
	if errors.Is(err, extract.ErrTooLarge) {
		return merrors.ErrCodeFileTooLarge
	}
	return merrors.ErrCodeExtractionFailed
}
