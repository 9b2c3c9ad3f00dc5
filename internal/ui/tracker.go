package ui

import (
	"sync"
	"time"
)

// rateInterval is the minimum spacing between throughput samples.
const rateInterval = 500 * time.Millisecond

// Tracker accumulates build progress for display. It is safe for
// concurrent use.
type Tracker struct {
	mu          sync.Mutex
	stage       Stage
	indexed     int
	skipped     int
	failed      int
	warnings    int
	currentFile string
	start       time.Time

	lastIndexed int
	lastSample  time.Time
	rate        float64
	peak        float64
}

// TrackerStats is a snapshot of a Tracker.
type TrackerStats struct {
	Stage       Stage
	Indexed     int
	Skipped     int
	Failed      int
	Warnings    int
	CurrentFile string
	Elapsed     time.Duration
	Rate        float64
	Peak        float64
}

// NewTracker returns a Tracker starting now.
func NewTracker() *Tracker {
	now := time.Now()
	return &Tracker{start: now, lastSample: now}
}

// Update records ev and refreshes the smoothed indexing rate.
func (t *Tracker) Update(ev ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stage = ev.Stage
	t.indexed = ev.Indexed
	t.skipped = ev.Skipped
	t.failed = ev.Failed
	if ev.CurrentFile != "" {
		t.currentFile = ev.CurrentFile
	}

	now := time.Now()
	elapsed := now.Sub(t.lastSample)
	if elapsed < rateInterval {
		return
	}
	if delta := t.indexed - t.lastIndexed; delta > 0 {
		sample := float64(delta) / elapsed.Seconds()
		if t.rate == 0 {
			t.rate = sample
		} else {
			t.rate = 0.2*sample + 0.8*t.rate
		}
		if sample > t.peak {
			t.peak = sample
		}
	}
	t.lastIndexed = t.indexed
	t.lastSample = now
}

// SetStage moves the tracker to stage without touching the counters.
func (t *Tracker) SetStage(stage Stage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stage = stage
}

// AddError counts a failed file.
func (t *Tracker) AddError(ev ErrorEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ev.IsWarn {
		t.warnings++
	}
}

// Stats returns a snapshot.
func (t *Tracker) Stats() TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TrackerStats{
		Stage:       t.stage,
		Indexed:     t.indexed,
		Skipped:     t.skipped,
		Failed:      t.failed,
		Warnings:    t.warnings,
		CurrentFile: t.currentFile,
		Elapsed:     time.Since(t.start),
		Rate:        t.rate,
		Peak:        t.peak,
	}
}
