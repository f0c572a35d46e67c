package bib

import (
	"testing"

	"pgregory.net/rapid"
)

// Adapting never fails when only optional fields vary: any record that
// carries a citekey yields an Entry, whatever else is missing or odd.
func TestAdaptTotalityBibLaTeX(t *testing.T) {
	fieldName := rapid.SampledFrom([]string{
		"title", "author", "year", "date", "journaltitle", "journal",
		"booktitle", "doi", "abstract", "file", "note", "keywords",
	})

	rapid.Check(t, func(t *rapid.T) {
		fields := make(map[string]string)
		for _, name := range rapid.SliceOfDistinct(fieldName, rapid.ID).Draw(t, "names") {
			fields[name] = rapid.String().Draw(t, "value-"+name)
		}

		entry, err := Adapt(RawRecord{BibLaTeX: &BibLaTeXRecord{
			Type:   "article",
			Key:    rapid.StringMatching(`[A-Za-z][A-Za-z0-9_-]{0,20}`).Draw(t, "key"),
			Fields: fields,
		}})
		if err != nil {
			t.Fatalf("Adapt failed on optional fields only: %v", err)
		}
		if entry.Citekey == "" {
			t.Fatal("entry has empty citekey")
		}
	})
}

func TestAdaptTotalityCSL(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rec := &CSLRecord{
			ID:             FlexibleString(rapid.StringMatching(`[A-Za-z][A-Za-z0-9_-]{0,20}`).Draw(t, "id")),
			Title:          rapid.String().Draw(t, "title"),
			ContainerTitle: rapid.String().Draw(t, "container"),
			DOI:            rapid.String().Draw(t, "doi"),
		}
		numAuthors := rapid.IntRange(0, 4).Draw(t, "authors")
		for i := 0; i < numAuthors; i++ {
			rec.Author = append(rec.Author, CSLName{
				Given:  rapid.String().Draw(t, "given"),
				Family: rapid.String().Draw(t, "family"),
			})
		}
		if rapid.Bool().Draw(t, "hasDate") {
			rec.Issued = CSLDate{DateParts: [][]FlexibleString{{
				FlexibleString(rapid.StringMatching(`[0-9]{1,4}`).Draw(t, "year")),
			}}}
		}

		entry, err := Adapt(RawRecord{CSL: rec})
		if err != nil {
			t.Fatalf("Adapt failed on optional fields only: %v", err)
		}
		if entry.Citekey == "" {
			t.Fatal("entry has empty citekey")
		}
	})
}
