package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	merrors "github.com/Aman-CERP/memex/internal/errors"
	"github.com/Aman-CERP/memex/internal/extract"
	"github.com/Aman-CERP/memex/internal/store"
	"github.com/Aman-CERP/memex/internal/ui"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newSource creates a small tree: three indexable files and one skipped.
func newSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alpha.txt"), "hello world")
	writeFile(t, filepath.Join(dir, "notes", "beta.md"), "# Beta\nsecond document")
	writeFile(t, filepath.Join(dir, "notes", "Makefile"), "all:")
	writeFile(t, filepath.Join(dir, "photo.png"), "\x89PNG")
	return dir
}

func newExtractor(t *testing.T) *extract.Extractor {
	t.Helper()
	ex, err := extract.New(extract.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ex.Close() })
	return ex
}

func newRunner(t *testing.T, ex Extractor, r ui.Renderer) *Runner {
	t.Helper()
	if r == nil {
		r = ui.NopRenderer{}
	}
	runner, err := NewRunner(RunnerDependencies{Renderer: r, Extractor: ex})
	require.NoError(t, err)
	return runner
}

func search(t *testing.T, idx *store.Index, q string) *store.Result {
	t.Helper()
	parsed, err := idx.Parser().Parse(q)
	require.NoError(t, err)
	res, err := idx.Reader().Search(context.Background(), parsed, 10, 0)
	require.NoError(t, err)
	return res
}

// recordingRenderer keeps the completion stats and errors it was given.
type recordingRenderer struct {
	ui.NopRenderer
	mu       sync.Mutex
	complete *ui.CompletionStats
	errs     []ui.ErrorEvent
	stages   map[ui.Stage]bool
}

func (r *recordingRenderer) UpdateProgress(ev ui.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stages == nil {
		r.stages = map[ui.Stage]bool{}
	}
	r.stages[ev.Stage] = true
}

func (r *recordingRenderer) AddError(ev ui.ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, ev)
}

func (r *recordingRenderer) Complete(stats ui.CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete = &stats
}

func TestNewRunner_RequiresDependencies(t *testing.T) {
	_, err := NewRunner(RunnerDependencies{Extractor: newExtractor(t)})
	assert.ErrorContains(t, err, "renderer is required")

	_, err = NewRunner(RunnerDependencies{Renderer: ui.NopRenderer{}})
	assert.ErrorContains(t, err, "extractor is required")
}

func TestRunner_Run_RejectsInvalidConfig(t *testing.T) {
	r := newRunner(t, newExtractor(t), nil)

	_, err := r.Run(context.Background(), RunnerConfig{Threads: 2})
	assert.ErrorContains(t, err, "source is required")

	_, err = r.Run(context.Background(), RunnerConfig{Source: t.TempDir()})
	assert.ErrorContains(t, err, "threads must be positive")
}

func TestRunner_Run_BuildsSearchableMemoryIndex(t *testing.T) {
	// Given: a source tree and a memory destination
	src := newSource(t)
	rec := &recordingRenderer{}
	r := newRunner(t, newExtractor(t), rec)

	// When: building
	res, err := r.Run(context.Background(), RunnerConfig{Source: src, Threads: 4})
	require.NoError(t, err)
	defer func() { _ = res.Close() }()

	// Then: indexable files are searchable and the rest are counted
	assert.Equal(t, 3, res.Indexed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Failed)

	count, err := res.Index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	hits := search(t, res.Index, "hello")
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "alpha", hits.Hits[0].Title)
	assert.Equal(t, filepath.Join(src, "alpha.txt"), hits.Hits[0].ArchiveLoc)

	hits = search(t, res.Index, "makefile")
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "Makefile", hits.Hits[0].Title)

	require.NotNil(t, rec.complete)
	assert.Equal(t, 3, rec.complete.Indexed)
	assert.Equal(t, src, rec.complete.Source)
	assert.True(t, rec.stages[ui.StageCrawling])
	assert.True(t, rec.stages[ui.StageCommitting])
	assert.True(t, rec.stages[ui.StageComplete])
}

func TestRunner_Run_SingleFileSource(t *testing.T) {
	src := newSource(t)
	r := newRunner(t, newExtractor(t), nil)

	res, err := r.Run(context.Background(), RunnerConfig{Source: filepath.Join(src, "alpha.txt"), Threads: 1})
	require.NoError(t, err)
	defer func() { _ = res.Close() }()

	assert.Equal(t, 1, res.Indexed)
}

func TestRunner_Run_PersistsDestination(t *testing.T) {
	// Given: a fresh destination path that does not exist yet
	src := newSource(t)
	dest := filepath.Join(t.TempDir(), "nested", "index")
	r := newRunner(t, newExtractor(t), nil)

	// When: building and closing
	res, err := r.Run(context.Background(), RunnerConfig{Source: src, Destination: dest, Threads: 2, BatchSize: 2})
	require.NoError(t, err)
	require.NoError(t, res.Close())

	// Then: the index reopens with every document
	idx, err := store.Open(dest)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestRunner_Run_RebuildReplacesDocuments(t *testing.T) {
	src := newSource(t)
	dest := filepath.Join(t.TempDir(), "index")
	r := newRunner(t, newExtractor(t), nil)

	for i := 0; i < 2; i++ {
		res, err := r.Run(context.Background(), RunnerConfig{Source: src, Destination: dest, Threads: 2})
		require.NoError(t, err)
		count, err := res.Index.DocCount()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), count)
		require.NoError(t, res.Close())
	}
}

func TestRunner_Run_LockedDestination(t *testing.T) {
	// Given: another holder of the destination lock
	dest := filepath.Join(t.TempDir(), "index")
	lock, err := store.LockDestination(dest)
	require.NoError(t, err)
	defer func() { _ = lock.Unlock() }()

	// When: building into it
	r := newRunner(t, newExtractor(t), nil)
	_, err = r.Run(context.Background(), RunnerConfig{Source: newSource(t), Destination: dest, Threads: 2})

	// Then: the build fails fast
	require.Error(t, err)
	assert.Equal(t, merrors.ErrCodeIndexLocked, merrors.GetCode(err))
}

func TestRunner_Run_LockReleasedOnClose(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "index")
	r := newRunner(t, newExtractor(t), nil)

	res, err := r.Run(context.Background(), RunnerConfig{Source: newSource(t), Destination: dest, Threads: 2})
	require.NoError(t, err)
	require.NoError(t, res.Close())

	lock, err := store.LockDestination(dest)
	require.NoError(t, err)
	assert.NoError(t, lock.Unlock())
}

func TestRunner_Run_MissingSource(t *testing.T) {
	r := newRunner(t, newExtractor(t), nil)

	_, err := r.Run(context.Background(), RunnerConfig{Source: filepath.Join(t.TempDir(), "missing"), Threads: 2})

	assert.ErrorContains(t, err, "failed to read root")
}

// failingExtractor fails for paths containing "bad" and delegates the rest.
type failingExtractor struct {
	next Extractor
}

func (f failingExtractor) Extract(ctx context.Context, path string) (*extract.Entry, error) {
	if strings.Contains(filepath.Base(path), "bad") {
		return nil, fmt.Errorf("%w: %s", extract.ErrMalformed, path)
	}
	return f.next.Extract(ctx, path)
}

func TestRunner_Run_ExtractErrorsDoNotAbort(t *testing.T) {
	// Given: a tree with one file that fails extraction
	src := newSource(t)
	writeFile(t, filepath.Join(src, "bad.txt"), "x")
	rec := &recordingRenderer{}
	r := newRunner(t, failingExtractor{next: newExtractor(t)}, rec)

	// When: building
	res, err := r.Run(context.Background(), RunnerConfig{Source: src, Threads: 2})
	require.NoError(t, err)
	defer func() { _ = res.Close() }()

	// Then: the failure is counted and reported, the rest is indexed
	assert.Equal(t, 3, res.Indexed)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, rec.errs, 1)
	assert.Equal(t, filepath.Join(src, "bad.txt"), rec.errs[0].File)
	assert.ErrorIs(t, rec.errs[0].Err, extract.ErrMalformed)
}

// countingExtractor returns an entry for every path and counts calls.
type countingExtractor struct {
	calls atomic.Int64
}

func (c *countingExtractor) Extract(ctx context.Context, path string) (*extract.Entry, error) {
	c.calls.Add(1)
	body := "body"
	return &extract.Entry{Title: filepath.Base(path), Body: &body, Source: path}, nil
}

// gatedSink blocks every Add until release is closed.
type gatedSink struct {
	release chan struct{}
	added   atomic.Int64
	commits atomic.Int64
	failAt  int64
	failErr error
}

func (s *gatedSink) Add(ctx context.Context, doc store.Document) error {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n := s.added.Add(1)
	if s.failAt > 0 && n == s.failAt {
		return s.failErr
	}
	return nil
}

func (s *gatedSink) Commit(ctx context.Context) error {
	s.commits.Add(1)
	return nil
}

func treeOf(t *testing.T, dirs, files int) string {
	t.Helper()
	root := t.TempDir()
	for d := 0; d < dirs; d++ {
		for f := 0; f < files; f++ {
			writeFile(t, filepath.Join(root, fmt.Sprintf("d%d", d), fmt.Sprintf("f%d.txt", f)), "x")
		}
	}
	return root
}

func TestPipeline_BackpressureBoundsExtraction(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	// Given: a stalled writer and plenty of files
	const threads = 2
	root := treeOf(t, 4, 10)
	ex := &countingExtractor{}
	sink := &gatedSink{release: make(chan struct{})}
	r := newRunner(t, ex, nil)

	type outcome struct {
		counts pipelineCounts
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		counts, err := r.pipeline(context.Background(), RunnerConfig{Source: root, Threads: threads}, sink)
		done <- outcome{counts, err}
	}()

	// When: the walk has had time to run ahead
	time.Sleep(300 * time.Millisecond)

	// Then: extraction stalls at the channel capacity plus one entry per
	// walker goroutine plus the one held by the writer
	calls := ex.calls.Load()
	assert.Positive(t, calls)
	assert.LessOrEqual(t, calls, int64(2*threads+1))

	close(sink.release)
	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.Equal(t, 40, out.counts.indexed)
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline did not finish")
	}
	assert.Equal(t, int64(1), sink.commits.Load())
}

func TestPipeline_InsertFailureIsFatal(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	// Given: a sink that fails on its third document
	insertErr := errors.New("disk full")
	sink := &gatedSink{failAt: 3, failErr: insertErr}
	r := newRunner(t, &countingExtractor{}, nil)

	// When: running the pipeline
	_, err := r.pipeline(context.Background(), RunnerConfig{Source: treeOf(t, 3, 20), Threads: 4}, sink)

	// Then: the error surfaces as an index failure and nothing is committed
	require.Error(t, err)
	assert.Equal(t, merrors.ErrCodeIndexFailed, merrors.GetCode(err))
	assert.ErrorIs(t, err, insertErr)
	assert.Zero(t, sink.commits.Load())
}

func TestPipeline_Cancellation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	sink := &gatedSink{release: make(chan struct{})}
	r := newRunner(t, &countingExtractor{}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.pipeline(ctx, RunnerConfig{Source: treeOf(t, 2, 20), Threads: 2}, sink)
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline did not stop")
	}
	assert.Zero(t, sink.commits.Load())
}

func TestDocumentID(t *testing.T) {
	a := DocumentID("/notes/a.txt")

	assert.Len(t, a, 16)
	assert.Equal(t, a, DocumentID("/notes/a.txt"))
	assert.NotEqual(t, a, DocumentID("/notes/b.txt"))
}

func TestToDocument(t *testing.T) {
	url := "https://example.com"
	doc := ToDocument(&extract.Entry{Title: "Example", Loc: &url, Source: "/links/example.webloc"})

	assert.Equal(t, DocumentID("/links/example.webloc"), doc.ID)
	assert.Equal(t, "Example", doc.Title)
	assert.Equal(t, url, doc.Loc)
	assert.Empty(t, doc.Body)
	assert.Empty(t, doc.ArchiveLoc)
}

func TestExtractCode(t *testing.T) {
	tooLarge := fmt.Errorf("%w: /a.txt exceeds 10 bytes", extract.ErrTooLarge)
	malformed := fmt.Errorf("%w: /b.webloc", extract.ErrMalformed)

	assert.Equal(t, merrors.ErrCodeFileTooLarge, extractCode(tooLarge))
	assert.Equal(t, merrors.ErrCodeExtractionFailed, extractCode(malformed))
}
