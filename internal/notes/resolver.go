package notes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/matsen/bibnote/internal/config"
	"github.com/matsen/bibnote/internal/library"
	"github.com/matsen/bibnote/internal/render"
)

// ErrNoteAccess is returned when a literature note cannot be created
// or read. The triggering operation aborts; nothing is inserted.
var ErrNoteAccess = errors.New("cannot access literature note")

// Resolver locates and creates literature note files for citekeys.
// Resolution is case-insensitive against existing files so platforms
// with case-insensitive filesystems never grow duplicate notes
// differing only by case.
type Resolver struct {
	vaultRoot string
	cfg       *config.Config
	engine    *render.Engine
	logger    *zap.Logger
}

// NewResolver creates a resolver for the vault at root.
func NewResolver(vaultRoot string, cfg *config.Config, engine *render.Engine, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		vaultRoot: vaultRoot,
		cfg:       cfg,
		engine:    engine,
		logger:    logger,
	}
}

// Folder returns the absolute literature-note folder path.
func (r *Resolver) Folder() string {
	return filepath.Join(r.vaultRoot, r.cfg.NoteFolder)
}

// NoteFilename renders the title template for the given variables and
// sanitizes it into a valid Markdown file name.
func (r *Resolver) NoteFilename(vars library.Variables) (string, error) {
	title, err := r.engine.Render(render.NoteTitle, r.cfg.TitleTemplate, vars)
	if err != nil {
		return "", err
	}
	name := SanitizeFilename(title)
	if name == "" {
		return "", fmt.Errorf("title template produced an empty file name for %s", vars.Citekey)
	}
	return name + ".md", nil
}

// Resolve returns the path of the literature note for the given
// variables, creating the note from the content template if no
// existing file matches case-insensitively. Calling it twice for the
// same citekey always yields the same file.
func (r *Resolver) Resolve(vars library.Variables) (path string, created bool, err error) {
	filename, err := r.NoteFilename(vars)
	if err != nil {
		return "", false, err
	}

	folder := r.Folder()
	path = filepath.Join(folder, filename)

	// Exact match first.
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("%w: %v", ErrNoteAccess, err)
	}

	// Case-insensitive scan of existing notes.
	if existing, ok, err := r.findInsensitive(folder, filename); err != nil {
		return "", false, err
	} else if ok {
		return existing, false, nil
	}

	content, err := r.RenderContent(vars)
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrNoteAccess, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrNoteAccess, err)
	}

	r.logger.Info("created literature note",
		zap.String("citekey", vars.Citekey),
		zap.String("path", path))
	return path, true, nil
}

// findInsensitive scans folder for a file whose name equals filename
// ignoring case.
func (r *Resolver) findInsensitive(folder, filename string) (string, bool, error) {
	dirents, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrNoteAccess, err)
	}
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		if strings.EqualFold(d.Name(), filename) {
			return filepath.Join(folder, d.Name()), true, nil
		}
	}
	return "", false, nil
}

// RenderContent renders the note content template.
func (r *Resolver) RenderContent(vars library.Variables) (string, error) {
	return r.engine.Render(render.NoteContent, r.cfg.NoteTemplate, vars)
}

// Citation renders the inline citation template, or the alternative
// one when alt is set.
func (r *Resolver) Citation(vars library.Variables, alt bool) (string, error) {
	if alt {
		return r.engine.Render(render.AltCitation, r.cfg.AltCitationTemplate, vars)
	}
	return r.engine.Render(render.Citation, r.cfg.CitationTemplate, vars)
}

// markdownLinkTemplate backs the "insert Markdown citation" action;
// it is fixed rather than user-configured.
const markdownLinkTemplate = "[{{.Citekey}}]({{.ZoteroSelectURI}})"

// MarkdownLink renders a Markdown link pointing at the entry in the
// external reference manager.
func (r *Resolver) MarkdownLink(vars library.Variables) (string, error) {
	return r.engine.Render(render.MarkdownLink, markdownLinkTemplate, vars)
}

// illegalFilenameChars are characters stripped from note file names.
// The set covers Windows, macOS and Linux plus Markdown link breakers.
const illegalFilenameChars = `/\:*?"<>|#^[]`

// SanitizeFilename strips characters that are illegal in file names on
// common filesystems, control characters included.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(illegalFilenameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
