package store

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/length"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Field names of an indexed document.
const (
	FieldTitle      = "title"
	FieldBody       = "body"
	FieldLoc        = "loc"
	FieldArchiveLoc = "archive_loc"
)

const (
	// TextAnalyzerName splits on Unicode word boundaries, drops overlong
	// tokens and lowercases.
	TextAnalyzerName = "memex_text"

	// longTokenFilterName drops tokens longer than maxTokenLength bytes.
	longTokenFilterName = "memex_long_token"
	maxTokenLength      = 40
)

// DefaultFields are the tokenized fields searched by unqualified query terms.
var DefaultFields = []string{FieldTitle, FieldBody}

// StoredFields are returned with every hit.
var StoredFields = []string{FieldTitle, FieldLoc, FieldArchiveLoc}

// Document is one indexed entry. Absent optional fields are stored as "".
type Document struct {
	ID         string
	Title      string
	Body       string
	Loc        string
	ArchiveLoc string
}

// fields returns the document as bleve sees it.
func (d Document) fields() map[string]interface{} {
	return map[string]interface{}{
		FieldTitle:      d.Title,
		FieldBody:       d.Body,
		FieldLoc:        d.Loc,
		FieldArchiveLoc: d.ArchiveLoc,
	}
}

// NewMapping builds the index mapping:
//   - title: tokenized with positions, stored, searched by default
//   - body: tokenized with positions, not stored, searched by default
//   - loc, archive_loc: exact match, stored, only reachable as field:value
func NewMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomTokenFilter(longTokenFilterName, map[string]interface{}{
		"type": length.Name,
		"max":  float64(maxTokenLength),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add token filter: %w", err)
	}

	err = indexMapping.AddCustomAnalyzer(TextAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			longTokenFilterName,
			lowercase.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = TextAnalyzerName

	title := bleve.NewTextFieldMapping()
	title.Analyzer = TextAnalyzerName
	title.Store = true
	title.IncludeInAll = true

	body := bleve.NewTextFieldMapping()
	body.Analyzer = TextAnalyzerName
	body.Store = false
	body.IncludeTermVectors = true
	body.IncludeInAll = true

	exact := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = true
		f.IncludeTermVectors = false
		f.IncludeInAll = false
		return f
	}

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(FieldTitle, title)
	doc.AddFieldMappingsAt(FieldBody, body)
	doc.AddFieldMappingsAt(FieldLoc, exact())
	doc.AddFieldMappingsAt(FieldArchiveLoc, exact())
	indexMapping.DefaultMapping = doc

	return indexMapping, nil
}
