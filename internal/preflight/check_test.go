package preflight

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus_String(t *testing.T) {
	assert.Equal(t, "PASS", StatusPass.String())
	assert.Equal(t, "WARN", StatusWarn.String())
	assert.Equal(t, "FAIL", StatusFail.String())
	assert.Equal(t, "UNKNOWN", CheckStatus(9).String())
}

func TestCheckSource(t *testing.T) {
	c := New()

	assert.Equal(t, StatusPass, c.CheckSource(t.TempDir()).Status)

	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Equal(t, StatusPass, c.CheckSource(file).Status)

	missing := c.CheckSource(filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, StatusFail, missing.Status)
	assert.True(t, missing.IsCritical())
}

func TestCheckWritePermissions_LeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()

	result := New().CheckWritePermissions(dir)

	assert.Equal(t, StatusPass, result.Status)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheckPDFToText_MissingIsWarning(t *testing.T) {
	result := New().CheckPDFToText("memex-no-such-tool")

	assert.Equal(t, StatusWarn, result.Status)
	assert.False(t, result.IsCritical())
}

func TestCheckDiskSpaceAndFileDescriptors(t *testing.T) {
	c := New()

	disk := c.CheckDiskSpace(t.TempDir())
	assert.NotEqual(t, "", disk.Message)
	assert.Contains(t, disk.Message, "free")

	fds := c.CheckFileDescriptors()
	assert.Contains(t, fds.Message, "minimum: 1024")
}

func TestRunAll_SelectsChecks(t *testing.T) {
	c := New()

	onlyLimits := c.RunAll(context.Background(), Target{})
	require.Len(t, onlyLimits, 1)
	assert.Equal(t, "file_descriptors", onlyLimits[0].Name)

	// A destination under directories that do not exist yet is checked at
	// its nearest existing ancestor.
	all := c.RunAll(context.Background(), Target{
		Source:      t.TempDir(),
		Destination: filepath.Join(t.TempDir(), "a", "b", "idx"),
		PDFToText:   "memex-no-such-tool",
	})
	names := make([]string, 0, len(all))
	for _, r := range all {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"source", "write_permissions", "disk_space", "file_descriptors", "pdftotext"}, names)
	assert.Equal(t, StatusPass, all[1].Status)
}

func TestSummaryStatus(t *testing.T) {
	c := New()
	pass := CheckResult{Status: StatusPass, Required: true}
	warn := CheckResult{Status: StatusWarn}
	fail := CheckResult{Status: StatusFail, Required: true}

	assert.Equal(t, "ready", c.SummaryStatus([]CheckResult{pass}))
	assert.Equal(t, "ready_with_warnings", c.SummaryStatus([]CheckResult{pass, warn}))
	assert.Equal(t, "failed", c.SummaryStatus([]CheckResult{pass, warn, fail}))
	assert.True(t, c.HasCriticalFailures([]CheckResult{fail}))
	assert.False(t, c.HasCriticalFailures([]CheckResult{pass, warn}))
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithOutput(&buf), WithVerbose(true))

	c.PrintResults([]CheckResult{
		{Name: "source", Status: StatusPass, Message: "/notes"},
		{Name: "pdftotext", Status: StatusWarn, Message: "not found", Details: "install poppler"},
	})

	out := buf.String()
	assert.Contains(t, out, "[PASS] source: /notes")
	assert.Contains(t, out, "[WARN] pdftotext: not found")
	assert.Contains(t, out, "install poppler")
	assert.Contains(t, out, "Status: READY_WITH_WARNINGS")
}
