package catalog

// ReleaseSummary is one row of the library-browse list: enough to render a
// menu entry and to call Hydrator.Release/TracksOf without another lookup.
type ReleaseSummary struct {
	ID         int64
	Title      string
	ArtistName string
	Year       int
}

// ListReleases returns every release, artist-then-year ordered, for the
// browse menu a control surface builds against the catalog.
func (c *Catalog) ListReleases() ([]ReleaseSummary, error) {
	rows, err := c.db.Query(`
		SELECT r.id, r.title, COALESCE(a.name, ''), COALESCE(r.year, 0)
		FROM releases r
		LEFT JOIN artists a ON a.id = r.artist_id
		ORDER BY a.sort_name, a.name, r.year, r.title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReleaseSummary
	for rows.Next() {
		var rs ReleaseSummary
		if err := rows.Scan(&rs.ID, &rs.Title, &rs.ArtistName, &rs.Year); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// PlaylistSummary is one row of the playlist-browse list.
type PlaylistSummary struct {
	ID   int64
	Name string
}

// ListPlaylists returns every playlist, name ordered.
func (c *Catalog) ListPlaylists() ([]PlaylistSummary, error) {
	rows, err := c.db.Query(`SELECT id, name FROM playlists ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlaylistSummary
	for rows.Next() {
		var ps PlaylistSummary
		if err := rows.Scan(&ps.ID, &ps.Name); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}
