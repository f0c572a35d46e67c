package notes

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/matsen/bibnote/internal/config"
	"github.com/matsen/bibnote/internal/library"
	"github.com/matsen/bibnote/internal/render"
)

func testResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	root := t.TempDir()
	return NewResolver(root, config.Default(), render.NewEngine(), nil), root
}

func smithVars() library.Variables {
	return library.Variables{
		Citekey:         "smith2020",
		Title:           "A Study",
		AuthorString:    "Jane Smith",
		Year:            2020,
		ZoteroSelectURI: "zotero://select/items/@smith2020",
	}
}

func TestResolveCreatesNote(t *testing.T) {
	r, root := testResolver(t)

	path, created, err := r.Resolve(smithVars())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !created {
		t.Error("created = false on first resolve")
	}
	want := filepath.Join(root, config.DefaultNoteFolder, "@smith2020.md")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading note: %v", err)
	}
	for _, part := range []string{"A Study", "Smith", "(2020)", "zotero://select/items/@smith2020"} {
		if !strings.Contains(string(content), part) {
			t.Errorf("note content missing %q:\n%s", part, content)
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r, _ := testResolver(t)
	vars := smithVars()

	first, created, err := r.Resolve(vars)
	if err != nil || !created {
		t.Fatalf("first Resolve: path %q created %v err %v", first, created, err)
	}
	second, created, err := r.Resolve(vars)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if created {
		t.Error("second resolve created a new note")
	}
	if second != first {
		t.Errorf("second resolve path %q, want %q", second, first)
	}
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	r, root := testResolver(t)

	folder := filepath.Join(root, config.DefaultNoteFolder)
	if err := os.MkdirAll(folder, 0755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(folder, "@SMITH2020.md")
	if err := os.WriteFile(existing, []byte("my annotations"), 0644); err != nil {
		t.Fatal(err)
	}

	path, created, err := r.Resolve(smithVars())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if created {
		t.Error("resolve created a duplicate differing only by case")
	}
	if path != existing {
		t.Errorf("path = %q, want existing %q", path, existing)
	}

	content, _ := os.ReadFile(existing)
	if string(content) != "my annotations" {
		t.Error("existing note was overwritten")
	}
}

func TestResolveNoteAccessError(t *testing.T) {
	root := t.TempDir()
	// Occupy the note folder path with a regular file so MkdirAll fails.
	cfg := config.Default()
	if err := os.WriteFile(filepath.Join(root, cfg.NoteFolder), nil, 0644); err != nil {
		t.Fatal(err)
	}
	r := NewResolver(root, cfg, render.NewEngine(), nil)

	if _, _, err := r.Resolve(smithVars()); !errors.Is(err, ErrNoteAccess) {
		t.Fatalf("err = %v, want ErrNoteAccess", err)
	}
}

func TestNoteFilenameSanitized(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.TitleTemplate = "{{.Title}}"
	r := NewResolver(root, cfg, render.NewEngine(), nil)

	vars := smithVars()
	vars.Title = `What? A "Study": Notes/Models [draft]`
	name, err := r.NoteFilename(vars)
	if err != nil {
		t.Fatalf("NoteFilename: %v", err)
	}
	if want := "What A Study NotesModels draft.md"; name != want {
		t.Errorf("name = %q, want %q", name, want)
	}
}

func TestNoteFilenameEmptyAfterSanitizing(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.TitleTemplate = "{{.Title}}"
	r := NewResolver(root, cfg, render.NewEngine(), nil)

	vars := smithVars()
	vars.Title = `???///:::`
	if _, err := r.NoteFilename(vars); err == nil {
		t.Fatal("NoteFilename accepted a title that sanitizes to nothing")
	}
}

func TestSanitizeFilenameProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.String().Draw(t, "name")
		got := SanitizeFilename(name)

		if strings.ContainsAny(got, illegalFilenameChars) {
			t.Fatalf("sanitized name %q still contains illegal characters", got)
		}
		for _, r := range got {
			if r < 0x20 {
				t.Fatalf("sanitized name %q contains control character %q", got, r)
			}
		}
		if got != strings.TrimSpace(got) {
			t.Fatalf("sanitized name %q has surrounding whitespace", got)
		}
		// Sanitizing is a fixpoint.
		if again := SanitizeFilename(got); again != got {
			t.Fatalf("SanitizeFilename not idempotent: %q -> %q", got, again)
		}
	})
}

func TestCitationTemplates(t *testing.T) {
	r, _ := testResolver(t)
	vars := smithVars()

	cite, err := r.Citation(vars, false)
	if err != nil {
		t.Fatalf("Citation: %v", err)
	}
	if cite != "[[@smith2020]]" {
		t.Errorf("citation = %q", cite)
	}

	alt, err := r.Citation(vars, true)
	if err != nil {
		t.Fatalf("alt Citation: %v", err)
	}
	if alt != "[@smith2020]" {
		t.Errorf("alt citation = %q", alt)
	}

	link, err := r.MarkdownLink(vars)
	if err != nil {
		t.Fatalf("MarkdownLink: %v", err)
	}
	if link != "[smith2020](zotero://select/items/@smith2020)" {
		t.Errorf("markdown link = %q", link)
	}
}
