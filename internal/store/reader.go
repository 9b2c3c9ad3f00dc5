package store

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Hit is one ranked match with its stored fields. Absent fields are "".
type Hit struct {
	ID         string
	Score      float64
	Title      string
	Loc        string
	ArchiveLoc string
}

// Result is a page of hits plus the total number of matches.
type Result struct {
	Total uint64
	Hits  []Hit
}

// Reader runs queries against an Index. It is safe for concurrent use.
type Reader struct {
	idx *Index
}

// Search returns up to size hits starting at from, best first.
func (r *Reader) Search(ctx context.Context, q query.Query, size, from int) (*Result, error) {
	r.idx.mu.RLock()
	defer r.idx.mu.RUnlock()
	if r.idx.closed {
		return nil, fmt.Errorf("index is closed")
	}

	req := bleve.NewSearchRequestOptions(q, size, from, false)
	req.Fields = StoredFields

	res, err := r.idx.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{
			ID:         h.ID,
			Score:      h.Score,
			Title:      stringField(h.Fields, FieldTitle),
			Loc:        stringField(h.Fields, FieldLoc),
			ArchiveLoc: stringField(h.Fields, FieldArchiveLoc),
		})
	}
	return &Result{Total: res.Total, Hits: hits}, nil
}

func stringField(fields map[string]interface{}, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
