package bib

import (
	"reflect"
	"testing"
)

func TestParseBibLaTeX(t *testing.T) {
	src := `
@comment{jabref-meta: databaseType:biblatex;}

@article{smith2020,
  title = {A {Study} of Things},
  author = {Smith, Jane and Robert {de} Jones},
  journaltitle = {Journal of Things},
  date = {2020-03-01},
  doi  = {10.1000/xyz123},
  file = {Full Text:attachments/smith2020.pdf:application/pdf;attachments/si.pdf},
}

@book{doe1999,
  title = "An Older Book",
  author = {Doe, John},
  year = 1999
}
`
	records, err := ParseBibLaTeX(src)
	if err != nil {
		t.Fatalf("ParseBibLaTeX: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	rec := records[0].BibLaTeX
	if rec == nil {
		t.Fatal("first record is not BibLaTeX-shaped")
	}
	if rec.Key != "smith2020" {
		t.Errorf("key = %q, want smith2020", rec.Key)
	}
	if rec.Type != "article" {
		t.Errorf("type = %q, want article", rec.Type)
	}
	if got := rec.Fields["title"]; got != "A Study of Things" {
		t.Errorf("title = %q, want brace-stripped title", got)
	}
	if got := rec.Fields["doi"]; got != "10.1000/xyz123" {
		t.Errorf("doi = %q", got)
	}

	second := records[1].BibLaTeX
	if second.Key != "doe1999" {
		t.Errorf("second key = %q, want doe1999", second.Key)
	}
	if got := second.Fields["title"]; got != "An Older Book" {
		t.Errorf("quoted title = %q", got)
	}
	if got := second.Fields["year"]; got != "1999" {
		t.Errorf("bare year = %q", got)
	}
}

func TestParseBibLaTeXKeylessEntry(t *testing.T) {
	src := `@article{
  title = {No Key Here},
}`
	records, err := ParseBibLaTeX(src)
	if err != nil {
		t.Fatalf("ParseBibLaTeX: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0].BibLaTeX
	if rec.Key != "" {
		t.Errorf("key = %q, want empty", rec.Key)
	}
	if got := rec.Fields["title"]; got != "No Key Here" {
		t.Errorf("title = %q, fields should still parse", got)
	}
}

func TestAdaptBibLaTeX(t *testing.T) {
	tests := []struct {
		name    string
		rec     *BibLaTeXRecord
		want    *Entry
		wantErr error
	}{
		{
			name: "full entry",
			rec: &BibLaTeXRecord{
				Type: "article",
				Key:  "smith2020",
				Fields: map[string]string{
					"title":        "A Study",
					"author":       "Smith, Jane",
					"journaltitle": "Journal of Things",
					"date":         "2020-03-01",
					"doi":          "10.1000/xyz123",
					"file":         "Full Text:attachments/smith2020.pdf:application/pdf",
				},
			},
			want: &Entry{
				Citekey:         "smith2020",
				Format:          FormatBibLaTeX,
				Title:           "A Study",
				Authors:         []Author{{Given: "Jane", Family: "Smith"}},
				Year:            2020,
				Venue:           "Journal of Things",
				DOI:             "10.1000/xyz123",
				AttachmentPaths: []string{"attachments/smith2020.pdf"},
			},
		},
		{
			name: "only a key",
			rec:  &BibLaTeXRecord{Type: "misc", Key: "bare", Fields: map[string]string{}},
			want: &Entry{Citekey: "bare", Format: FormatBibLaTeX},
		},
		{
			name: "legacy year field",
			rec: &BibLaTeXRecord{
				Type:   "book",
				Key:    "doe1999",
				Fields: map[string]string{"year": "1999", "journal": "Somewhere"},
			},
			want: &Entry{Citekey: "doe1999", Format: FormatBibLaTeX, Year: 1999, Venue: "Somewhere"},
		},
		{
			name:    "missing key",
			rec:     &BibLaTeXRecord{Type: "article", Fields: map[string]string{"title": "No Key"}},
			wantErr: ErrMissingCitekey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Adapt(RawRecord{BibLaTeX: tt.rec})
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Adapt: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Adapt = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseNameList(t *testing.T) {
	tests := []struct {
		field string
		want  []Author
	}{
		{"Smith, Jane", []Author{{Given: "Jane", Family: "Smith"}}},
		{"Jane Smith", []Author{{Given: "Jane", Family: "Smith"}}},
		{"Smith, Jane and Doe, John", []Author{
			{Given: "Jane", Family: "Smith"},
			{Given: "John", Family: "Doe"},
		}},
		{"Martin Luther King Jr", []Author{{Given: "Martin Luther", Family: "King Jr"}}},
		{"Madonna", []Author{{Family: "Madonna"}}},
		{"", nil},
	}

	for _, tt := range tests {
		if got := parseNameList(tt.field); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseNameList(%q) = %+v, want %+v", tt.field, got, tt.want)
		}
	}
}

func TestParseFileField(t *testing.T) {
	tests := []struct {
		field string
		want  []string
	}{
		{"attachments/a.pdf", []string{"attachments/a.pdf"}},
		{"Full Text:attachments/a.pdf:application/pdf", []string{"attachments/a.pdf"}},
		{"a.pdf;b.pdf", []string{"a.pdf", "b.pdf"}},
		{"", nil},
	}

	for _, tt := range tests {
		if got := parseFileField(tt.field); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFileField(%q) = %v, want %v", tt.field, got, tt.want)
		}
	}
}
