package catalog

import (
	"database/sql"
	"errors"

	"github.com/mgilbert/soundshelf/internal/queue"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("catalog: not found")

// itemKind mirrors the playlist_items.kind discriminator.
const (
	kindTrack    = 0
	kindRelease  = 1
	kindPlaylist = 2
)

// CatalogRead is the read-only contract the playback core actually
// depends on (spec.md §6): tracks_of, tracks_of_artist, playlist_items,
// resolve_track_path. The core hydrates a queue.Item tree from these once
// per user selection and caches nothing from the catalog itself.
type CatalogRead interface {
	TracksOf(releaseID int64) ([]queue.TrackRecord, error)
	TracksOfArtist(artistID int64) ([]queue.TrackRecord, error)
	PlaylistItems(playlistID int64) ([]PlaylistEntry, error)
	ResolveTrackPath(trackID int64) (string, bool, error)
}

// PlaylistEntry is one row of playlist_items, already resolved into
// whichever of Track/Release/Playlist its kind names.
type PlaylistEntry struct {
	Kind           int
	TrackID        int64
	ReleaseID      int64
	NestedPlaylist int64
}

var _ CatalogRead = (*Catalog)(nil)

// TracksOf returns every track on a release, ordered by disc then track
// number (ties broken by id, for files tagged with no track number).
func (c *Catalog) TracksOf(releaseID int64) ([]queue.TrackRecord, error) {
	rows, err := c.db.Query(`
		SELECT t.id, tl.path
		FROM tracks t
		JOIN track_locations tl ON tl.track_id = t.id
		WHERE t.release_id = ?
		ORDER BY COALESCE(t.disc_number, 1), COALESCE(t.track_number, 0), t.id
	`, releaseID)
	if err != nil {
		return nil, err
	}
	return scanTrackRecords(rows)
}

// TracksOfArtist returns every track credited to an artist across all
// releases, release-major ordered so whole discographies play coherently.
func (c *Catalog) TracksOfArtist(artistID int64) ([]queue.TrackRecord, error) {
	rows, err := c.db.Query(`
		SELECT t.id, tl.path
		FROM tracks t
		JOIN track_locations tl ON tl.track_id = t.id
		JOIN releases r ON r.id = t.release_id
		WHERE t.artist_id = ? OR r.artist_id = ?
		ORDER BY r.year, r.id, COALESCE(t.disc_number, 1), COALESCE(t.track_number, 0), t.id
	`, artistID, artistID)
	if err != nil {
		return nil, err
	}
	return scanTrackRecords(rows)
}

// PlaylistItems returns a playlist's entries in position order, leaving
// Track/Release/Playlist resolution to the caller (hydrate.go), matching
// the recursive shape spec.md §6 describes.
func (c *Catalog) PlaylistItems(playlistID int64) ([]PlaylistEntry, error) {
	rows, err := c.db.Query(`
		SELECT kind,
		       COALESCE(track_id, 0),
		       COALESCE(release_id, 0),
		       COALESCE(nested_playlist_id, 0)
		FROM playlist_items
		WHERE playlist_id = ?
		ORDER BY position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlaylistEntry
	for rows.Next() {
		var e PlaylistEntry
		if err := rows.Scan(&e.Kind, &e.TrackID, &e.ReleaseID, &e.NestedPlaylist); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ResolveTrackPath looks up a track's filesystem path. The bool return is
// false (with a nil error) when the track has no known location, e.g. its
// file vanished between scans — resolve_track_path's Option<path> in
// spec.md §6.
func (c *Catalog) ResolveTrackPath(trackID int64) (string, bool, error) {
	var path string
	err := c.db.QueryRow(`SELECT path FROM track_locations WHERE track_id = ?`, trackID).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

func scanTrackRecords(rows *sql.Rows) ([]queue.TrackRecord, error) {
	defer rows.Close()
	var out []queue.TrackRecord
	for rows.Next() {
		var r queue.TrackRecord
		if err := rows.Scan(&r.TrackID, &r.Path); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
