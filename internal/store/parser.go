package store

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// ErrInvalidQuery is returned by Parse for query strings that do not parse.
var ErrInvalidQuery = errors.New("invalid query")

// Parser turns user query strings into bleve queries. Unqualified terms
// match the default fields; field:value addresses any field.
type Parser struct {
	defaultFields []string
}

// NewParser returns a Parser over fields.
func NewParser(fields []string) *Parser {
	return &Parser{defaultFields: append([]string(nil), fields...)}
}

// DefaultFields returns the fields searched by unqualified terms.
func (p *Parser) DefaultFields() []string {
	return append([]string(nil), p.defaultFields...)
}

// Parse parses s with bleve query string syntax: terms, "phrases",
// +required, -excluded, field:value, prefix*, fuzzy~ and boosts^2.
// A clause without a field matches any of the default fields.
func (p *Parser) Parse(s string) (query.Query, error) {
	q, err := bleve.NewQueryStringQuery(s).Parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if v, ok := q.(query.ValidatableQuery); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
	}
	return p.scope(q), nil
}

// scope rewrites unqualified clauses of q in place. The boolean wrapper is
// kept so query-string semantics (a lone -term, should-minimums) survive.
func (p *Parser) scope(q query.Query) query.Query {
	if len(p.defaultFields) == 0 {
		return q
	}
	switch q := q.(type) {
	case *query.BooleanQuery:
		if q == nil {
			return q
		}
		q.Must = p.scope(q.Must)
		q.Should = p.scope(q.Should)
		q.MustNot = p.scope(q.MustNot)
		return q
	case *query.ConjunctionQuery:
		if q == nil {
			return q
		}
		for i := range q.Conjuncts {
			q.Conjuncts[i] = p.scope(q.Conjuncts[i])
		}
		return q
	case *query.DisjunctionQuery:
		if q == nil {
			return q
		}
		for i := range q.Disjuncts {
			q.Disjuncts[i] = p.scope(q.Disjuncts[i])
		}
		return q
	case query.FieldableQuery:
		if q.Field() != "" {
			return q
		}
		perField := make([]query.Query, 0, len(p.defaultFields))
		for _, f := range p.defaultFields {
			c := cloneFieldable(q)
			c.SetField(f)
			perField = append(perField, c)
		}
		if len(perField) == 1 {
			return perField[0]
		}
		return query.NewDisjunctionQuery(perField)
	default:
		return q
	}
}

// cloneFieldable returns a shallow copy of a leaf query. Every leaf the
// query-string parser produces is a pointer to a struct.
func cloneFieldable(q query.FieldableQuery) query.FieldableQuery {
	v := reflect.ValueOf(q)
	c := reflect.New(v.Elem().Type())
	c.Elem().Set(v.Elem())
	return c.Interface().(query.FieldableQuery)
}
