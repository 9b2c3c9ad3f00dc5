package errors

import (
	"fmt"
	"log/slog"
	"strings"
)

// FormatForCLI formats an error for terminal display.
// Plain errors are printed as-is; MemexErrors add the hint and code.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	me, ok := As(err)
	if !ok {
		return fmt.Sprintf("Error: %s\n", err.Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", me.Message))
	if me.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", me.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", me.Code))

	return sb.String()
}

// LogAttrs returns slog attributes describing err.
// MemexErrors contribute their code, category and details.
func LogAttrs(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	me, ok := As(err)
	if !ok {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error", me.Message),
		slog.String("error_code", me.Code),
		slog.String("category", string(me.Category)),
	}
	if me.Cause != nil {
		attrs = append(attrs, slog.String("cause", me.Cause.Error()))
	}
	for k, v := range me.Details {
		attrs = append(attrs, slog.String("detail_"+k, v))
	}
	return attrs
}
