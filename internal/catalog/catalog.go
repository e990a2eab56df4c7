// Package catalog is the relational library store spec.md §6 names but
// leaves external: artists, publishers, releases, tracks, track_locations,
// playlists, playlist_items and genres, backed by modernc.org/sqlite. The
// playback core never imports this package directly; it only consumes the
// CatalogRead interface, hydrated once per user selection into a
// queue.Item tree by Hydrator in hydrate.go.
package catalog

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// Catalog owns the sqlite connection and schema for one library.
type Catalog struct {
	db *sql.DB
}

// Open creates or migrates the catalog database at path and returns a
// ready-to-query Catalog. Use ":memory:" for a scratch/test catalog.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog: %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{db: db}, nil
}

// DB exposes the underlying connection. Callers outside this package
// should prefer the CatalogRead methods.
func (c *Catalog) DB() *sql.DB { return c.db }

// Close releases the underlying connection.
func (c *Catalog) Close() error { return c.db.Close() }
