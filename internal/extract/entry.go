package extract

// Entry is the searchable record produced for one file. Unset optional
// fields are nil, never empty strings.
type Entry struct {
	// Title is the display name: the file stem or a web location's Name.
	Title string
	// Body is the extracted text.
	Body *string
	// Loc is a remote location such as a URL.
	Loc *string
	// ArchiveLoc is the local path of the file itself.
	ArchiveLoc *string
	// Source is the path the entry was extracted from.
	Source string
}

func strPtr(s string) *string {
	return &s
}
