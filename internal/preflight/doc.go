// Package preflight checks that a build can run before it starts.
//
// The checks cover:
//
//   - the source exists and can be listed
//
//   - the destination's parent is writable
//
//   - free disk space at the destination (minimum 100 MB)
//
//   - the file descriptor limit (minimum 1024)
//
//   - pdftotext is on PATH (a warning only: PDFs are then counted as failed)
//
//     checker := preflight.New()
//     results := checker.RunAll(ctx, preflight.Target{Source: src, Destination: dst})
//     if checker.HasCriticalFailures(results) {
//     // refuse to build
//     }
package preflight
