package catalog

import (
	"database/sql"

	"github.com/google/uuid"
)

// CreatePlaylist inserts an empty playlist, stamping it with a uuid
// external id so playlist export/import (spec.md §3's supplemented
// playlist-portability feature) survives a catalog rebuild even though
// the internal integer id does not.
func (c *Catalog) CreatePlaylist(name string) (int64, error) {
	res, err := c.db.Exec(
		`INSERT INTO playlists (name, external_id, created_at) VALUES (?, ?, unixepoch())`,
		name, uuid.NewString(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AppendTrack appends a track entry to the end of a playlist.
func (c *Catalog) AppendTrack(playlistID, trackID int64) error {
	return c.appendItem(playlistID, kindTrack, sql.NullInt64{Int64: trackID, Valid: true}, sql.NullInt64{}, sql.NullInt64{})
}

// AppendRelease appends a whole-release entry to the end of a playlist.
func (c *Catalog) AppendRelease(playlistID, releaseID int64) error {
	return c.appendItem(playlistID, kindRelease, sql.NullInt64{}, sql.NullInt64{Int64: releaseID, Valid: true}, sql.NullInt64{})
}

// AppendPlaylist nests another playlist at the end of a playlist. Cycle
// detection happens at hydration time (Hydrator.playlist), not here.
func (c *Catalog) AppendPlaylist(playlistID, nestedID int64) error {
	return c.appendItem(playlistID, kindPlaylist, sql.NullInt64{}, sql.NullInt64{}, sql.NullInt64{Int64: nestedID, Valid: true})
}

func (c *Catalog) appendItem(playlistID int64, kind int, trackID, releaseID, nestedID sql.NullInt64) error {
	var next int
	err := c.db.QueryRow(`SELECT COALESCE(MAX(position), -1) + 1 FROM playlist_items WHERE playlist_id = ?`, playlistID).Scan(&next)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(`
		INSERT INTO playlist_items (playlist_id, position, kind, track_id, release_id, nested_playlist_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, playlistID, next, kind, trackID, releaseID, nestedID)
	return err
}

// ExternalID returns a playlist's stable export/import identifier.
func (c *Catalog) ExternalID(playlistID int64) (string, error) {
	var id string
	err := c.db.QueryRow(`SELECT external_id FROM playlists WHERE id = ?`, playlistID).Scan(&id)
	return id, err
}
