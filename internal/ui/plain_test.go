package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_PrintsStageChanges(t *testing.T) {
	// Given: a plain renderer
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))
	require.NoError(t, r.Start(context.Background()))

	// When: progress moves through crawling into committing
	r.UpdateProgress(ProgressEvent{Stage: StageCrawling})
	r.UpdateProgress(ProgressEvent{Stage: StageCrawling, Indexed: 5})
	r.UpdateProgress(ProgressEvent{Stage: StageCommitting, Indexed: 12, Skipped: 3, Failed: 1})

	// Then: one line per stage is written, with no escape codes
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[CRAWL] 0 indexed, 0 skipped, 0 failed", lines[0])
	assert.Equal(t, "[COMMIT] 12 indexed, 3 skipped, 1 failed", lines[1])
	assert.NotContains(t, out, "\x1b[")
}

func TestPlainRenderer_ThrottlesWithinStage(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	for i := 0; i <= 2500; i++ {
		r.UpdateProgress(ProgressEvent{Stage: StageCrawling, Indexed: i})
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "1000 indexed")
	assert.Contains(t, lines[2], "2000 indexed")
}

func TestPlainRenderer_Message(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	r.UpdateProgress(ProgressEvent{Stage: StageCrawling, Message: "Walking /notes"})

	assert.Equal(t, "[CRAWL] Walking /notes\n", buf.String())
}

func TestPlainRenderer_AddError(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	r.AddError(ErrorEvent{File: "/notes/a.pdf", Err: errors.New("pdftotext failed"), IsWarn: true})
	r.AddError(ErrorEvent{Err: errors.New("boom")})

	assert.Equal(t, "WARN: /notes/a.pdf: pdftotext failed\nERROR: boom\n", buf.String())
}

func TestPlainRenderer_Complete(t *testing.T) {
	tests := []struct {
		name  string
		stats CompletionStats
		want  string
	}{
		{
			name:  "clean",
			stats: CompletionStats{Indexed: 10, Duration: 1500 * time.Millisecond},
			want:  "Complete: 10 files indexed in 1.5s\n",
		},
		{
			name:  "with skips",
			stats: CompletionStats{Indexed: 10, Skipped: 4, Failed: 1, Duration: 2 * time.Second},
			want:  "Complete: 10 files indexed in 2s (4 skipped, 1 failed)\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewPlainRenderer(NewConfig(&buf))

			r.Complete(tt.stats)

			assert.Equal(t, tt.want, buf.String())
			assert.NoError(t, r.Stop())
		})
	}
}
