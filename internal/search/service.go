package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	merrors "github.com/Aman-CERP/memex/internal/errors"
	"github.com/Aman-CERP/memex/internal/store"
)

// Service runs queries against one index. It is safe for concurrent use
// and holds no mutable state.
type Service struct {
	reader *store.Reader
	parser *store.Parser
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for query events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService returns a Service over idx. Unqualified query terms search the
// tokenized fields only.
func NewService(idx *store.Index, opts ...Option) *Service {
	s := &Service{
		reader: idx.Reader(),
		parser: idx.Parser(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs req and returns its page of results in ranked order.
// A query that does not parse returns an error matching
// store.ErrInvalidQuery and an offset above MaxOffset one matching
// ErrInvalidRequest; other failures are ERR_503_SEARCH_FAILED.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	if req.NHits <= 0 {
		req.NHits = DefaultNHits
	}
	if req.NHits > MaxNHits {
		req.NHits = MaxNHits
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Offset > MaxOffset {
		return nil, merrors.New(merrors.ErrCodeInvalidInput,
			fmt.Sprintf("offset %d exceeds the maximum of %d", req.Offset, MaxOffset),
			ErrInvalidRequest)
	}

	q, err := s.parser.Parse(req.Query)
	if err != nil {
		return nil, merrors.New(merrors.ErrCodeInvalidQuery, fmt.Sprintf("cannot parse query %q", req.Query), err).
			WithSuggestion(`Check quotes and parentheses, or escape special characters like ":" with "\"`)
	}

	res, err := s.reader.Search(ctx, q, req.NHits, req.Offset)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, merrors.New(merrors.ErrCodeSearchFailed, "search failed", err)
	}

	items := make([]Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		items = append(items, NewResult(h.Title, h.Loc, h.ArchiveLoc))
	}

	s.logger.Debug("search_completed",
		slog.String("query", req.Query),
		slog.Int("nhits", req.NHits),
		slog.Int("offset", req.Offset),
		slog.Int("results", len(items)),
		slog.Uint64("total", res.Total),
		slog.Duration("latency", time.Since(start)))

	return &Response{Items: items, Total: res.Total}, nil
}

// IsInvalidRequest reports whether err was caused by the request itself:
// a query that does not parse or paging out of range.
func IsInvalidRequest(err error) bool {
	return IsInvalidQuery(err) || errors.Is(err, ErrInvalidRequest)
}

// IsInvalidQuery reports whether err came from a query that does not parse.
func IsInvalidQuery(err error) bool {
	return errors.Is(err, store.ErrInvalidQuery)
}
