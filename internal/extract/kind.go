package extract

import (
	"path/filepath"
	"strings"
)

// Kind classifies a file by the extension of its base name.
// The zero value is KindSkip.
type Kind int

const (
	// KindSkip is an extension memex does not index.
	KindSkip Kind = iota
	// KindOpaque is a file without an extension, indexed by name only.
	KindOpaque
	// KindPlainText is txt, md or markdown.
	KindPlainText
	// KindPortableDocument is pdf, converted with pdftotext.
	KindPortableDocument
	// KindWebLocation is a macOS .webloc property list.
	KindWebLocation
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindOpaque:
		return "opaque"
	case KindPlainText:
		return "text"
	case KindPortableDocument:
		return "pdf"
	case KindWebLocation:
		return "webloc"
	default:
		return "skip"
	}
}

// KindOf classifies path by the text after the last dot of its base name.
// Matching is case-sensitive: "notes.MD" is skipped.
func KindOf(path string) Kind {
	base := filepath.Base(path)
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return KindOpaque
	}
	switch base[dot+1:] {
	case "pdf":
		return KindPortableDocument
	case "txt", "markdown", "md":
		return KindPlainText
	case "webloc":
		return KindWebLocation
	default:
		return KindSkip
	}
}

// Stem returns the base name without its final extension. A leading dot
// does not start an extension, so ".bashrc" is its own stem.
func Stem(path string) string {
	base := filepath.Base(path)
	if dot := strings.LastIndexByte(base, '.'); dot > 0 {
		return base[:dot]
	}
	return base
}
