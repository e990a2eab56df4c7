package catalog

import "database/sql"

const currentSchemaVersion = 1

// initSchema creates the normalized tables spec.md §6 names: artists,
// publishers, releases, tracks, track_locations, playlists, playlist_items
// (with a type discriminator and three nullable foreign keys), and genres.
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS artists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			sort_name TEXT,
			mb_artist_id TEXT,
			UNIQUE(name)
		);

		CREATE TABLE IF NOT EXISTS publishers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			catalog_number TEXT,
			UNIQUE(name, catalog_number)
		);

		CREATE TABLE IF NOT EXISTS genres (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS releases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			artist_id INTEGER REFERENCES artists(id) ON DELETE SET NULL,
			publisher_id INTEGER REFERENCES publishers(id) ON DELETE SET NULL,
			genre_id INTEGER REFERENCES genres(id) ON DELETE SET NULL,
			year INTEGER,
			mb_release_id TEXT,
			UNIQUE(title, artist_id)
		);

		CREATE TABLE IF NOT EXISTS tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			release_id INTEGER REFERENCES releases(id) ON DELETE CASCADE,
			artist_id INTEGER REFERENCES artists(id) ON DELETE SET NULL,
			genre_id INTEGER REFERENCES genres(id) ON DELETE SET NULL,
			title TEXT NOT NULL,
			disc_number INTEGER,
			track_number INTEGER,
			duration_ms INTEGER,
			added_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_release ON tracks(release_id);
		CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist_id);

		CREATE TABLE IF NOT EXISTS track_locations (
			track_id INTEGER PRIMARY KEY REFERENCES tracks(id) ON DELETE CASCADE,
			path TEXT NOT NULL UNIQUE,
			mtime INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			external_id TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL
		);

		-- playlist_items is the recursive Track/Release/Playlist union spec.md
		-- §6 describes: kind discriminates which of the three FKs is valid
		-- (0=Track, 1=Release, 2=Playlist), the other two stay NULL.
		CREATE TABLE IF NOT EXISTS playlist_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			kind INTEGER NOT NULL CHECK (kind IN (0, 1, 2)),
			track_id INTEGER REFERENCES tracks(id) ON DELETE CASCADE,
			release_id INTEGER REFERENCES releases(id) ON DELETE CASCADE,
			nested_playlist_id INTEGER REFERENCES playlists(id) ON DELETE CASCADE,
			UNIQUE(playlist_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_items_playlist ON playlist_items(playlist_id, position);
	`)
	if err != nil {
		return err
	}

	var version int
	row := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`)
	if err := row.Scan(&version); err != nil {
		_, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
		return err
	}
	return nil
}
