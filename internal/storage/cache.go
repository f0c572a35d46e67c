// Package storage caches the last successfully loaded library in
// SQLite so one-shot commands can warm-start without re-parsing an
// unchanged export.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/matsen/bibnote/internal/bib"
)

// Cache wraps the SQLite connection backing the library cache.
// The export file is the source of truth; the cache is rebuilt
// wholesale after every successful load cycle and keyed by the
// export's content hash.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			citekey TEXT PRIMARY KEY,
			format TEXT NOT NULL,
			title TEXT,
			venue TEXT,
			doi TEXT,
			abstract TEXT,
			pub_year INTEGER,
			authors_json TEXT NOT NULL,
			attachments_json TEXT
		);

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Replace clears the cache and rewrites it from the given entries,
// recording the content hash of the export they were parsed from.
func (c *Cache) Replace(entries []*bib.Entry, contentHash string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO entries (
			citekey, format, title, venue, doi, abstract, pub_year,
			authors_json, attachments_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		authorsJSON, err := json.Marshal(e.Authors)
		if err != nil {
			return fmt.Errorf("encoding authors for %s: %w", e.Citekey, err)
		}
		attachmentsJSON, err := json.Marshal(e.AttachmentPaths)
		if err != nil {
			return fmt.Errorf("encoding attachments for %s: %w", e.Citekey, err)
		}

		if _, err := stmt.Exec(
			e.Citekey, string(e.Format), e.Title, e.Venue, e.DOI,
			e.Abstract, e.Year, string(authorsJSON), string(attachmentsJSON),
		); err != nil {
			return fmt.Errorf("inserting %s: %w", e.Citekey, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('content_hash', ?)",
		contentHash,
	); err != nil {
		return fmt.Errorf("recording content hash: %w", err)
	}

	return tx.Commit()
}

// Load returns the cached entries if the cache was built from an
// export with the given content hash. ok is false on a hash mismatch
// or an empty cache.
func (c *Cache) Load(contentHash string) (entries []*bib.Entry, ok bool, err error) {
	var cached string
	err = c.db.QueryRow("SELECT value FROM meta WHERE key = 'content_hash'").Scan(&cached)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading content hash: %w", err)
	}
	if cached != contentHash {
		return nil, false, nil
	}

	rows, err := c.db.Query(`
		SELECT citekey, format, title, venue, doi, abstract, pub_year,
			authors_json, attachments_json
		FROM entries`)
	if err != nil {
		return nil, false, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e bib.Entry
		var format, authorsJSON, attachmentsJSON string
		if err := rows.Scan(
			&e.Citekey, &format, &e.Title, &e.Venue, &e.DOI,
			&e.Abstract, &e.Year, &authorsJSON, &attachmentsJSON,
		); err != nil {
			return nil, false, fmt.Errorf("scanning entry: %w", err)
		}
		e.Format = bib.Format(format)
		if err := json.Unmarshal([]byte(authorsJSON), &e.Authors); err != nil {
			return nil, false, fmt.Errorf("decoding authors for %s: %w", e.Citekey, err)
		}
		if attachmentsJSON != "" {
			if err := json.Unmarshal([]byte(attachmentsJSON), &e.AttachmentPaths); err != nil {
				return nil, false, fmt.Errorf("decoding attachments for %s: %w", e.Citekey, err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return entries, true, nil
}
