package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Target describes the build being checked. Empty fields skip their checks.
type Target struct {
	Source      string
	Destination string
	PDFToText   string
}

// Checker performs preflight validation checks.
type Checker struct {
	verbose bool
	output  io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints details under each result.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{output: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check that applies to t.
func (c *Checker) RunAll(_ context.Context, t Target) []CheckResult {
	var results []CheckResult

	if t.Source != "" {
		results = append(results, c.CheckSource(t.Source))
	}
	if t.Destination != "" {
		parent := existingParent(t.Destination)
		results = append(results, c.CheckWritePermissions(parent))
		results = append(results, c.CheckDiskSpace(parent))
	}
	results = append(results, c.CheckFileDescriptors())
	if t.PDFToText != "" {
		results = append(results, c.CheckPDFToText(t.PDFToText))
	}

	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns "ready", "ready_with_warnings" or "failed".
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status != StatusPass {
			hasWarnings = true
		}
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "memex system check")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "       %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))
}

// CheckSource checks that the source exists and, for a directory, can be
// listed.
func (c *Checker) CheckSource(path string) CheckResult {
	result := CheckResult{Name: "source", Required: true}

	info, err := os.Stat(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot read %s", path)
		result.Details = err.Error()
		return result
	}
	if info.IsDir() {
		if _, err := os.ReadDir(path); err != nil {
			result.Status = StatusFail
			result.Message = fmt.Sprintf("cannot list %s", path)
			result.Details = err.Error()
			return result
		}
	}

	result.Status = StatusPass
	result.Message = path
	return result
}

// CheckWritePermissions checks that dir accepts new files.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{Name: "write_permissions", Required: true}

	f, err := os.CreateTemp(dir, ".memex-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot write to %s", dir)
		result.Details = err.Error()
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = dir
	return result
}

// CheckPDFToText checks that the PDF extractor can be found. A missing tool
// is a warning: the build still runs and counts PDFs as failed.
func (c *Checker) CheckPDFToText(name string) CheckResult {
	result := CheckResult{Name: "pdftotext", Required: false}

	path, err := exec.LookPath(name)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s not found, PDFs will not be indexed", name)
		result.Details = "Install poppler-utils (Linux) or poppler (Homebrew), or set extract.pdftotext"
		return result
	}

	result.Status = StatusPass
	result.Message = path
	return result
}

// existingParent returns the nearest existing ancestor of path, which is
// where a build would create the destination.
func existingParent(path string) string {
	dir := filepath.Dir(filepath.Clean(path))
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		next := filepath.Dir(dir)
		if next == dir {
			return dir
		}
		dir = next
	}
}
