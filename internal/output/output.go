// Package output formats memex CLI output: status lines and search results.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Aman-CERP/memex/internal/search"
)

// Format selects how search results are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Println prints a plain line.
func (w *Writer) Println(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Printf prints a formatted plain line.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format+"\n", args...)
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Results prints a search response. offset numbers the first result.
func (w *Writer) Results(resp *search.Response, offset int, format Format) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Total uint64          `json:"total"`
			Items []search.Result `json:"items"`
		}{resp.Total, resp.Items})
	}

	if len(resp.Items) == 0 {
		w.Println("No results.")
		return nil
	}
	for i, item := range resp.Items {
		w.Printf("%3d. %s", offset+i+1, item.Title)
		switch {
		case item.Action.File != nil:
			w.Printf("     file  %s", *item.Action.File)
		case item.Action.URL != nil:
			w.Printf("     url   %s", *item.Action.URL)
		case item.Arg != "":
			w.Printf("     %s", item.Arg)
		}
	}
	w.Newline()
	w.Printf("Showing %d-%d of %d", offset+1, offset+len(resp.Items), resp.Total)
	return nil
}
