package render

import (
	"strings"
	"testing"

	"github.com/matsen/bibnote/internal/library"
)

func testVars() library.Variables {
	return library.Variables{
		Citekey:         "smith2020",
		Title:           "A Study of <Things> & Stuff",
		AuthorString:    "Jane Smith",
		Year:            2020,
		ZoteroSelectURI: "zotero://select/items/@smith2020",
	}
}

func TestRender(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{Citation, "[[@{{.Citekey}}]]", "[[@smith2020]]"},
		{AltCitation, "[@{{.Citekey}}]", "[@smith2020]"},
		{NoteTitle, "@{{.Citekey}} {{.Year}}", "@smith2020 2020"},
		{NoteContent, "# {{.Title}}\n{{.AuthorString}}", "# A Study of <Things> & Stuff\nJane Smith"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.name, tt.src, testVars())
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got != tt.want {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

// Output goes into Markdown documents, so nothing may be HTML-escaped.
func TestRenderNoEscaping(t *testing.T) {
	e := NewEngine()

	got, err := e.Render(NoteContent, "{{.Title}}", testVars())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(got, "&lt;") || strings.Contains(got, "&amp;") {
		t.Errorf("output was HTML-escaped: %q", got)
	}
}

func TestRenderCompileErrorPropagates(t *testing.T) {
	e := NewEngine()

	if _, err := e.Render(Citation, "{{.Citekey", testVars()); err == nil {
		t.Fatal("expected compile error for unterminated action")
	}
}

func TestRenderExecuteErrorPropagates(t *testing.T) {
	e := NewEngine()

	if _, err := e.Render(Citation, "{{.NoSuchField}}", testVars()); err == nil {
		t.Fatal("expected execute error for unknown field")
	}
}

func TestRenderCacheKeyedBySource(t *testing.T) {
	e := NewEngine()

	if _, err := e.Render(Citation, "A {{.Citekey}}", testVars()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(e.cache) != 1 {
		t.Fatalf("cache size = %d, want 1", len(e.cache))
	}

	// Same source: reuses the compilation.
	if _, err := e.Render(Citation, "A {{.Citekey}}", testVars()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(e.cache) != 1 {
		t.Errorf("cache size = %d after repeat render, want 1", len(e.cache))
	}

	// Edited setting string is a new key and recompiles.
	got, err := e.Render(Citation, "B {{.Citekey}}", testVars())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "B smith2020" {
		t.Errorf("Render = %q, want recompiled output", got)
	}
	if len(e.cache) != 2 {
		t.Errorf("cache size = %d, want 2", len(e.cache))
	}
}
