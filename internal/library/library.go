// Package library holds the resolved citekey -> entry mapping for one
// load cycle and the template-variable projection built from it.
package library

import (
	"fmt"
	"sort"

	"github.com/matsen/bibnote/internal/bib"
)

// Library is the citekey -> Entry mapping for one completed load
// cycle. It is built once and read-only afterwards; a new load cycle
// produces a whole new Library, never a patched one.
type Library struct {
	entries map[string]*bib.Entry
}

// New builds a Library from adapted entries. A duplicate citekey keeps
// the later entry, matching the export file's own last-wins semantics.
func New(entries []*bib.Entry) *Library {
	m := make(map[string]*bib.Entry, len(entries))
	for _, e := range entries {
		m[e.Citekey] = e
	}
	return &Library{entries: m}
}

// Size returns the number of entries.
func (l *Library) Size() int {
	return len(l.entries)
}

// Get returns the entry for a citekey.
func (l *Library) Get(citekey string) (*bib.Entry, bool) {
	e, ok := l.entries[citekey]
	return e, ok
}

// Citekeys returns all citekeys in sorted order.
func (l *Library) Citekeys() []string {
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns all entries ordered by citekey.
func (l *Library) Entries() []*bib.Entry {
	keys := l.Citekeys()
	entries := make([]*bib.Entry, len(keys))
	for i, k := range keys {
		entries[i] = l.entries[k]
	}
	return entries
}

// Variables is the named-variable bag consumed by every template. All
// templates share this one projection so any template may reference any
// field.
type Variables struct {
	Citekey         string
	Title           string
	AuthorString    string
	Authors         []bib.Author
	Year            int
	Venue           string
	ContainerTitle  string
	DOI             string
	Abstract        string
	ZoteroSelectURI string
	AttachmentPath  string
}

// Projection builds the template variables for a citekey. Returns an
// unknown-citekey error if the library has no such entry.
func (l *Library) Projection(citekey string) (Variables, error) {
	entry, ok := l.entries[citekey]
	if !ok {
		return Variables{}, fmt.Errorf("unknown citekey: %s", citekey)
	}

	return Variables{
		Citekey:         entry.Citekey,
		Title:           entry.Title,
		AuthorString:    entry.AuthorString(),
		Authors:         entry.Authors,
		Year:            entry.Year,
		Venue:           entry.Venue,
		ContainerTitle:  entry.Venue,
		DOI:             entry.DOI,
		Abstract:        entry.Abstract,
		ZoteroSelectURI: entry.ManagerURI(),
		AttachmentPath:  entry.PrimaryAttachment(),
	}, nil
}
