package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/memex/internal/search"
)

func sampleResponse() *search.Response {
	return &search.Response{
		Total: 7,
		Items: []search.Result{
			search.NewResult("Alpha", "", "/tmp/a.txt"),
			search.NewResult("Beta", "http://b", ""),
			search.NewResult("Gamma", "", "notes/g.txt"),
		},
	}
}

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a status message
	w.Status("🔍", "Opening index...")

	// Then: output contains icon and message
	assert.Equal(t, "🔍 Opening index...\n", buf.String())
}

func TestWriter_Status_NoIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Status("", "indented")

	assert.Equal(t, "   indented\n", buf.String())
}

func TestWriter_Warningf(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Warningf("%d files failed", 3)

	assert.Contains(t, buf.String(), "⚠️")
	assert.Contains(t, buf.String(), "3 files failed")
}

func TestWriter_Results_Text(t *testing.T) {
	// Given: a page starting at offset 2
	buf := &bytes.Buffer{}

	// When: printing as text
	require.NoError(t, New(buf).Results(sampleResponse(), 2, FormatText))

	// Then: results are numbered from the offset with their action
	out := buf.String()
	assert.Contains(t, out, "  3. Alpha\n     file  /tmp/a.txt\n")
	assert.Contains(t, out, "  4. Beta\n     url   http://b\n")
	assert.Contains(t, out, "  5. Gamma\n     notes/g.txt\n")
	assert.Contains(t, out, "Showing 3-5 of 7")
}

func TestWriter_Results_Empty(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).Results(&search.Response{}, 0, FormatText))

	assert.Equal(t, "No results.\n", buf.String())
}

func TestWriter_Results_JSON(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).Results(sampleResponse(), 0, FormatJSON))

	var got struct {
		Total uint64          `json:"total"`
		Items []search.Result `json:"items"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, uint64(7), got.Total)
	require.Len(t, got.Items, 3)
	assert.Equal(t, "/tmp/a.txt", *got.Items[0].Action.File)
	assert.Nil(t, got.Items[0].Action.URL)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("yaml")
	assert.ErrorContains(t, err, "unknown format")
}
