// Package config handles vault configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/bibnote/internal/bib"
)

// Config is the vault configuration stored in .bibnote/config.json.
// Template strings use text/template syntax against the projection
// fields (Citekey, Title, AuthorString, Year, ...).
type Config struct {
	LibraryPath   string `json:"library_path"`   // Bibliography export file (absolute or vault-relative)
	LibraryFormat string `json:"library_format"` // biblatex or csl-json
	NoteFolder    string `json:"note_folder"`    // Vault-relative folder for literature notes

	TitleTemplate       string `json:"title_template"`
	NoteTemplate        string `json:"note_template"`
	CitationTemplate    string `json:"citation_template"`
	AltCitationTemplate string `json:"alt_citation_template"`

	DebounceMs int `json:"debounce_ms,omitempty"` // Quiescence window for the file watcher
}

const (
	BibnoteDir = ".bibnote"
	ConfigFile = "config.json"
	CacheDir   = "cache"
	DBFile     = "library.db"
)

// Default templates. Kept deliberately small; users are expected to
// replace the note template with their own.
const (
	DefaultTitleTemplate       = "@{{.Citekey}}"
	DefaultNoteTemplate        = "# {{.Title}}\n\n{{.AuthorString}} ({{.Year}})\n\n[Open in Zotero]({{.ZoteroSelectURI}})\n"
	DefaultCitationTemplate    = "[[@{{.Citekey}}]]"
	DefaultAltCitationTemplate = "[@{{.Citekey}}]"
	DefaultNoteFolder          = "Reading notes"
	DefaultDebounceMs          = 500
)

// BibnotePath returns the path to the .bibnote directory from a vault root.
func BibnotePath(root string) string {
	return filepath.Join(root, BibnoteDir)
}

// ConfigPath returns the path to config.json from a vault root.
func ConfigPath(root string) string {
	return filepath.Join(root, BibnoteDir, ConfigFile)
}

// CachePath returns the path to the cache directory from a vault root.
func CachePath(root string) string {
	return filepath.Join(root, BibnoteDir, CacheDir)
}

// DBPath returns the path to library.db from a vault root.
func DBPath(root string) string {
	return filepath.Join(root, BibnoteDir, CacheDir, DBFile)
}

// Default returns a config populated with the default templates.
func Default() *Config {
	return &Config{
		LibraryFormat:       string(bib.FormatCSLJSON),
		NoteFolder:          DefaultNoteFolder,
		TitleTemplate:       DefaultTitleTemplate,
		NoteTemplate:        DefaultNoteTemplate,
		CitationTemplate:    DefaultCitationTemplate,
		AltCitationTemplate: DefaultAltCitationTemplate,
		DebounceMs:          DefaultDebounceMs,
	}
}

// IsVault checks if the given path contains a bibnote vault marker.
func IsVault(root string) bool {
	info, err := os.Stat(BibnotePath(root))
	return err == nil && info.IsDir()
}

// FindVault walks up from the given path to find a bibnote vault.
// Returns the vault root path or an error if not found.
func FindVault(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsVault(abs) {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a bibnote vault (no .bibnote directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the vault at the given root. Missing
// template strings and debounce fall back to the defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Save writes configuration to the vault at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.LibraryFormat == "" {
		c.LibraryFormat = def.LibraryFormat
	}
	if c.NoteFolder == "" {
		c.NoteFolder = def.NoteFolder
	}
	if c.TitleTemplate == "" {
		c.TitleTemplate = def.TitleTemplate
	}
	if c.NoteTemplate == "" {
		c.NoteTemplate = def.NoteTemplate
	}
	if c.CitationTemplate == "" {
		c.CitationTemplate = def.CitationTemplate
	}
	if c.AltCitationTemplate == "" {
		c.AltCitationTemplate = def.AltCitationTemplate
	}
	if c.DebounceMs <= 0 {
		c.DebounceMs = def.DebounceMs
	}
}

// Format returns the validated library format.
func (c *Config) Format() (bib.Format, error) {
	return bib.ParseFormat(c.LibraryFormat)
}

// ResolveLibraryPath resolves the export path against the vault root.
// Absolute paths and ~ paths are used as-is after expansion.
func (c *Config) ResolveLibraryPath(root string) (string, error) {
	if c.LibraryPath == "" {
		return "", fmt.Errorf("library_path not configured (use 'bibnote config set library_path /path/to/export')")
	}
	path := ExpandPath(c.LibraryPath)
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return path, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
