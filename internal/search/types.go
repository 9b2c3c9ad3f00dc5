// Package search answers launcher queries against a memex index.
//
// A Service parses the user's query string, runs it over the index and
// shapes every hit into a Result: a title, the location to open and whether
// that location is a file or a URL.
package search

import (
	"errors"
	"strings"
)

const (
	// DefaultNHits is the page size used when a request does not set one.
	DefaultNHits = 10

	// MaxNHits caps the page size. Larger requests are served MaxNHits results.
	MaxNHits = 1000

	// MaxOffset is the deepest page start accepted. Larger offsets are
	// rejected with ErrInvalidRequest.
	MaxOffset = 1_000_000
)

// ErrInvalidRequest is matched by errors for paging values out of range.
var ErrInvalidRequest = errors.New("invalid request")

// Request is one query.
type Request struct {
	// Query uses bleve query string syntax.
	Query string

	// NHits is the maximum number of results. Values <= 0 mean DefaultNHits;
	// values above MaxNHits mean MaxNHits.
	NHits int

	// Offset skips that many ranked results. Negative values mean 0.
	Offset int
}

// Response is a page of ranked results.
type Response struct {
	Items []Result `json:"items"`

	// Total is the number of matching documents across all pages.
	Total uint64 `json:"-"`
}

// Result is one hit in launcher form.
type Result struct {
	Title  string `json:"title"`
	Arg    string `json:"arg"`
	Action Action `json:"action"`
}

// Action says how to open Arg. At most one field is set.
type Action struct {
	File *string `json:"file"`
	URL  *string `json:"url"`
}

// NewResult builds a Result from a hit's stored fields. The location is
// archiveLoc when non-empty, else loc. Absolute paths are files, anything
// containing "://" is a URL; a path wins if both hold.
func NewResult(title, loc, archiveLoc string) Result {
	location := loc
	if archiveLoc != "" {
		location = archiveLoc
	}

	r := Result{Title: title, Arg: location}
	switch {
	case strings.HasPrefix(location, "/"):
		r.Action.File = &location
	case strings.Contains(location, "://"):
		r.Action.URL = &location
	}
	return r
}
