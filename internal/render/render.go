// Package render compiles and renders the user-configured templates
// against the library's variable projection.
package render

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/matsen/bibnote/internal/library"
)

// Logical template names. All four share the library.Variables
// projection, so any template may reference any projected field.
const (
	NoteTitle    = "note-title"
	NoteContent  = "note-content"
	Citation     = "citation"
	AltCitation  = "alt-citation"
	MarkdownLink = "markdown-link"
)

// Engine compiles template strings and renders them with projected
// variables. Output is literal Markdown: text/template performs no
// HTML escaping, so rendered text can be inserted into notes as-is.
//
// Compiled templates are cached keyed by the template source string
// itself. Settings are the source of truth, so an edited setting is a
// new key and recompiles automatically.
type Engine struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{cache: make(map[string]*template.Template)}
}

// Render compiles src (or reuses the cached compilation) and executes
// it with the given variables. Compile and execute failures both
// propagate to the caller as render errors.
func (e *Engine) Render(name, src string, vars library.Variables) (string, error) {
	tmpl, err := e.compile(name, src)
	if err != nil {
		return "", fmt.Errorf("compiling %s template: %w", name, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", name, err)
	}
	return buf.String(), nil
}

func (e *Engine) compile(name, src string) (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.cache[src]; ok {
		return tmpl, nil
	}

	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return nil, err
	}
	e.cache[src] = tmpl
	return tmpl, nil
}
