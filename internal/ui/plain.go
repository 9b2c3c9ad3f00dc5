package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// plainEvery is how many indexed files pass between plain progress lines.
const plainEvery = 1000

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu          sync.Mutex
	out         io.Writer
	stage       Stage
	started     bool
	lastPrinted int
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer. It prints on stage changes, explicit
// messages and every plainEvery indexed files.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stageChanged := !r.started || event.Stage != r.stage
	r.started = true
	r.stage = event.Stage

	switch {
	case event.Message != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), event.Message)
	case stageChanged || event.Indexed-r.lastPrinted >= plainEvery:
		_, _ = fmt.Fprintf(r.out, "[%s] %d indexed, %d skipped, %d failed\n",
			event.Stage.Icon(), event.Indexed, event.Skipped, event.Failed)
	default:
		return
	}
	r.lastPrinted = event.Indexed
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}
	if event.File != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.File, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d files indexed in %s", stats.Indexed, stats.Duration.Round(100*time.Millisecond))
	if stats.Skipped > 0 || stats.Failed > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d skipped, %d failed)", stats.Skipped, stats.Failed)
	}
	_, _ = fmt.Fprintln(r.out)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
