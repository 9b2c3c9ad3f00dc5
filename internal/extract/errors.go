package extract

import "errors"

// Extraction failures. Returned errors wrap one of these and the cause.
var (
	// ErrToolMissing means the pdftotext executable could not be found.
	ErrToolMissing = errors.New("pdftotext not found (install poppler: brew install poppler, apt install poppler-utils)")
	// ErrToolFailed means pdftotext ran but failed or timed out.
	ErrToolFailed = errors.New("pdftotext failed")
	// ErrMalformed means the file content could not be decoded.
	ErrMalformed = errors.New("malformed content")
	// ErrUnreadable means the file could not be opened or read.
	ErrUnreadable = errors.New("unreadable file")
	// ErrTooLarge means the file exceeds the configured size limit.
	ErrTooLarge = errors.New("file too large")
)
