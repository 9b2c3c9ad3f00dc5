package ui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildModel_ViewShowsProgress(t *testing.T) {
	// Given: a model over a tracker with some progress
	tr := NewTracker()
	tr.Update(ProgressEvent{Stage: StageCrawling, Indexed: 7, Skipped: 2, Failed: 1, CurrentFile: "/notes/plan.txt"})
	m := newBuildModel(tr, "")
	m.styles = NoColorStyles()

	// When: rendering
	view := m.View()

	// Then: stage, counters and the current file appear
	assert.Contains(t, view, "memex")
	assert.Contains(t, view, "Crawling")
	assert.Contains(t, view, "indexed 7")
	assert.Contains(t, view, "skipped 2")
	assert.Contains(t, view, "failed 1")
	assert.Contains(t, view, "/notes/plan.txt")
}

func TestBuildModel_CompleteQuits(t *testing.T) {
	m := newBuildModel(NewTracker(), "memex")
	m.styles = NoColorStyles()

	_, cmd := m.Update(completeMsg(CompletionStats{
		Source:      "/notes",
		Destination: "/tmp/idx",
		Indexed:     3,
		Duration:    65 * time.Second,
	}))

	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	view := m.View()
	assert.Contains(t, view, "Index built")
	assert.Contains(t, view, "/notes")
	assert.Contains(t, view, "/tmp/idx")
	assert.Contains(t, view, "1m 5s")
}

func TestBuildModel_WindowSize(t *testing.T) {
	m := newBuildModel(NewTracker(), "")

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, m.width)
}

func TestTUIRenderer_StopWithoutStart(t *testing.T) {
	r := NewTUIRenderer(NewConfig(&bytes.Buffer{}, WithNoColor(true)))

	r.UpdateProgress(ProgressEvent{Stage: StageCrawling, Indexed: 1})
	r.Complete(CompletionStats{Indexed: 1})

	assert.NoError(t, r.Stop())
	assert.Equal(t, StageComplete, r.tracker.Stats().Stage)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{3 * time.Minute, "3m"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{time.Hour + 2*time.Minute, "1h 2m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "/a/b", truncatePath("/a/b", 10))
	assert.Equal(t, ".../c.txt", truncatePath("/aaaa/bbbb/c.txt", 9))
	assert.Equal(t, "...", truncatePath("/aaaa", 3))
}

func TestGetStyles(t *testing.T) {
	assert.Equal(t, "plain", GetStyles(true).Header.Render("plain"))
	assert.NotPanics(t, func() { _ = GetStyles(false).Panel.Render("x") })
}
