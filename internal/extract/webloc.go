package extract

import (
	"fmt"
	"os"

	"howett.net/plist"
)

// webloc is the property list stored in a .webloc file.
type webloc struct {
	Name string `plist:"Name"`
	URL  string `plist:"URL"`
}

// extractWebloc decodes an XML or binary property list. URL is required;
// a missing or empty Name falls back to the file stem.
func (e *Extractor) extractWebloc(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}

	var w webloc
	if _, err := plist.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}
	if w.URL == "" {
		return nil, fmt.Errorf("%w: %s has no URL", ErrMalformed, path)
	}

	title := w.Name
	if title == "" {
		title = Stem(path)
	}
	return &Entry{Title: title, Loc: strPtr(w.URL)}, nil
}
