// Package bib defines the canonical bibliographic entry model and the
// adapters that build it from raw parsed records.
package bib

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies the bibliography export format.
type Format string

const (
	FormatBibLaTeX Format = "biblatex"
	FormatCSLJSON  Format = "csl-json"
)

// ParseFormat validates a format string from configuration.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatBibLaTeX:
		return FormatBibLaTeX, nil
	case FormatCSLJSON:
		return FormatCSLJSON, nil
	}
	return "", fmt.Errorf("unrecognized library format: %q (valid: biblatex, csl-json)", s)
}

// ErrMissingCitekey is returned when a raw record has no citation key for
// its declared format. Such records are skipped, not fatal to a load.
var ErrMissingCitekey = errors.New("record has no citation key")

// Author represents one author with split name parts.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// Entry is the canonical, format-independent bibliographic record.
// Entries are built once per load cycle and never mutated afterwards.
type Entry struct {
	Citekey string `json:"citekey"`
	Format  Format `json:"format"`

	Title    string   `json:"title"`
	Authors  []Author `json:"authors"`
	Year     int      `json:"year"`
	Venue    string   `json:"venue"` // Journal or container title
	DOI      string   `json:"doi"`
	Abstract string   `json:"abstract"`

	// Attachment file paths as recorded in the export, in export order.
	AttachmentPaths []string `json:"attachment_paths,omitempty"`
}

// PrimaryAttachment returns the first attachment path, or "".
func (e *Entry) PrimaryAttachment() string {
	if len(e.AttachmentPaths) == 0 {
		return ""
	}
	return e.AttachmentPaths[0]
}

// ManagerURI returns the external reference-manager URI for the entry,
// in Zotero's select-item scheme. Derived from the citekey.
func (e *Entry) ManagerURI() string {
	return "zotero://select/items/@" + e.Citekey
}

// AuthorString formats the author list as "Given Family, Given Family".
func (e *Entry) AuthorString() string {
	names := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		if a.Given != "" && a.Family != "" {
			names = append(names, a.Given+" "+a.Family)
		} else if a.Family != "" {
			names = append(names, a.Family)
		} else if a.Given != "" {
			names = append(names, a.Given)
		}
	}
	return strings.Join(names, ", ")
}

// NormalizeDOI normalizes a DOI for comparison. Removes common URL and
// "doi:" prefixes and lowercases.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}
