// Package logging configures slog for memex.
//
// Without --debug, memex logs human-readable text to stderr at the configured
// level. With --debug, JSON records are also written to ~/.memex/logs/memex.log,
// which is rotated by size.
package logging
