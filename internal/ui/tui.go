package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer draws live build progress with bubbletea. It renders inline
// so the summary stays on screen once the program exits.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	tracker *Tracker
	model   *buildModel
	program *tea.Program
	done    chan struct{}
}

// NewTUIRenderer creates an interactive renderer writing to cfg.Output.
func NewTUIRenderer(cfg Config) *TUIRenderer {
	tracker := NewTracker()
	model := newBuildModel(tracker, cfg.Title)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}
	return &TUIRenderer{cfg: cfg, tracker: tracker, model: model, done: make(chan struct{})}
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		return nil
	}

	r.program = tea.NewProgram(r.model,
		tea.WithOutput(r.cfg.Output),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)
	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.tracker.Update(event)
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.tracker.AddError(event)
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.tracker.SetStage(StageComplete)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer. It waits briefly for the final frame.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()
	if program == nil {
		return nil
	}

	select {
	case <-r.done:
	case <-time.After(200 * time.Millisecond):
		program.Quit()
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	return nil
}

type completeMsg CompletionStats
type tickMsg time.Time

// buildModel is the bubbletea model for a running build.
type buildModel struct {
	tracker  *Tracker
	spinner  spinner.Model
	styles   Styles
	title    string
	width    int
	complete bool
	stats    CompletionStats
}

func newBuildModel(tracker *Tracker, title string) *buildModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))
	if title == "" {
		title = "memex"
	}
	return &buildModel{tracker: tracker, spinner: s, styles: DefaultStyles(), title: title, width: 80}
}

// Init implements tea.Model.
func (m *buildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit
	case tickMsg:
		return m, tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *buildModel) View() string {
	if m.complete {
		return m.renderComplete()
	}

	st := m.tracker.Stats()
	width := m.width - 4
	if width < 40 {
		width = 40
	}

	lines := []string{
		m.styles.Header.Render(m.title),
		fmt.Sprintf("%s %s  %s",
			m.spinner.View(),
			m.styles.Active.Render(st.Stage.String()),
			m.styles.Label.Render(formatDuration(st.Elapsed))),
		m.counters(st.Indexed, st.Skipped, st.Failed),
	}
	if st.Rate > 0 {
		lines = append(lines, m.styles.Label.Render(fmt.Sprintf("%.0f files/s (peak %.0f)", st.Rate, st.Peak)))
	}
	if st.CurrentFile != "" {
		lines = append(lines, m.styles.Dim.Render(truncatePath(st.CurrentFile, width-2)))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *buildModel) counters(indexed, skipped, failed int) string {
	parts := []string{
		m.styles.Label.Render("indexed ") + m.styles.Active.Render(fmt.Sprint(indexed)),
		m.styles.Label.Render("skipped ") + m.styles.Active.Render(fmt.Sprint(skipped)),
	}
	if failed > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("failed %d", failed)))
	}
	return strings.Join(parts, m.styles.Dim.Render("  │  "))
}

func (m *buildModel) renderComplete() string {
	lines := []string{
		m.styles.Success.Render("✓ Index built"),
		"",
		m.styles.Label.Render("Source:   ") + m.stats.Source,
	}
	if m.stats.Destination != "" {
		lines = append(lines, m.styles.Label.Render("Index:    ")+m.stats.Destination)
	}
	lines = append(lines,
		m.styles.Label.Render("Files:    ")+m.counters(m.stats.Indexed, m.stats.Skipped, m.stats.Failed),
		m.styles.Label.Render("Duration: ")+m.styles.Active.Render(formatDuration(m.stats.Duration)),
	)
	return m.styles.Panel.Render(strings.Join(lines, "\n")) + "\n"
}
