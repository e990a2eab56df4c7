package catalog

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/mgilbert/soundshelf/internal/db"
)

const scanWorkers = 8

// ScanProgress reports folder-scan state to a UI or logger. Percent is
// computed as (100*(i+1))/total per spec.md §9's Open Question #2 — the
// corrected arithmetic, not the truncating heuristic the distilled spec
// flagged as a bug in its source (which reported 0% for every item but
// the last).
type ScanProgress struct {
	Phase       string // "scanning", "processing", "done"
	Current     int
	Total       int
	Percent     int
	CurrentFile string
}

type scannedFile struct {
	path  string
	mtime int64
}

type scannedTrack struct {
	path  string
	mtime int64
	tags  trackTags
}

// Scan walks roots for files IsMusicFile recognizes, extracts tags in
// parallel, and upserts the result into the catalog's relational schema.
// The scan's own correctness (what it finds, how fast) is explicitly out
// of the playback core's guarantees per spec.md §1; only the QueueItem
// hand-off through Hydrator is.
func (c *Catalog) Scan(roots []string, progress chan<- ScanProgress) error {
	defer close(progress)

	var files []scannedFile
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil //nolint:nilerr // keep scanning the rest of the tree
			}
			if d.IsDir() || !IsMusicFile(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil //nolint:nilerr // unreadable entry, skip it
			}
			files = append(files, scannedFile{path: path, mtime: info.ModTime().Unix()})
			return nil
		})
		if err != nil {
			return err
		}
	}

	progress <- ScanProgress{Phase: "scanning", Current: len(files), Total: len(files), Percent: 100}

	tracks := c.extractTags(files, progress)

	for i, t := range tracks {
		if err := c.upsertTrack(t); err != nil {
			return err
		}
		progress <- ScanProgress{
			Phase:       "processing",
			Current:     i + 1,
			Total:       len(tracks),
			Percent:     (100 * (i + 1)) / max(len(tracks), 1),
			CurrentFile: t.path,
		}
	}

	progress <- ScanProgress{Phase: "done", Current: len(tracks), Total: len(tracks), Percent: 100}
	return nil
}

// extractTags reads tags for every file concurrently (tag parsing is
// CPU/IO bound per file, independent across files), grounded on the
// teacher's library.processFiles worker-pool shape.
func (c *Catalog) extractTags(files []scannedFile, progress chan<- ScanProgress) []scannedTrack {
	workCh := make(chan scannedFile, len(files))
	resultCh := make(chan scannedTrack, len(files))
	var processed atomic.Int64

	var wg sync.WaitGroup
	for range scanWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range workCh {
				tags, err := readTags(f.path)
				processed.Add(1)
				if err != nil || tags.Artist == "" || tags.Album == "" {
					continue
				}
				resultCh <- scannedTrack{path: f.path, mtime: f.mtime, tags: tags}
			}
		}()
	}

	go func() {
		for _, f := range files {
			workCh <- f
		}
		close(workCh)
	}()
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var out []scannedTrack
	for t := range resultCh {
		out = append(out, t)
		progress <- ScanProgress{
			Phase:   "scanning",
			Current: int(processed.Load()),
			Total:   len(files),
			Percent: (100 * int(processed.Load())) / max(len(files), 1),
		}
	}
	return out
}

// upsertTrack resolves (or creates) the artist/publisher/genre/release
// rows a track's tags imply, then inserts or updates the track and its
// location, all inside one transaction via db.WithTx.
func (c *Catalog) upsertTrack(t scannedTrack) error {
	return db.WithTx(c.db, func(tx *sql.Tx) error {
		artistID, err := findOrCreate(tx, "artists", "name", t.tags.AlbumArtist, "mb_artist_id", t.tags.MBArtistID)
		if err != nil {
			return err
		}
		trackArtistID := artistID
		if t.tags.Artist != "" && t.tags.Artist != t.tags.AlbumArtist {
			trackArtistID, err = findOrCreate(tx, "artists", "name", t.tags.Artist, "mb_artist_id", "")
			if err != nil {
				return err
			}
		}

		var genreID sql.NullInt64
		if t.tags.Genre != "" {
			id, err := findOrCreate(tx, "genres", "name", t.tags.Genre, "", "")
			if err != nil {
				return err
			}
			genreID = sql.NullInt64{Int64: id, Valid: true}
		}

		var publisherID sql.NullInt64
		if t.tags.Publisher != "" {
			id, err := findOrCreatePublisher(tx, t.tags.Publisher, t.tags.CatalogNum)
			if err != nil {
				return err
			}
			publisherID = sql.NullInt64{Int64: id, Valid: true}
		}

		releaseID, err := findOrCreateRelease(tx, t.tags.Album, artistID, publisherID, genreID, t.tags.Year, t.tags.MBReleaseID)
		if err != nil {
			return err
		}

		var trackID int64
		row := tx.QueryRow(`SELECT t.id FROM tracks t JOIN track_locations tl ON tl.track_id = t.id WHERE tl.path = ?`, t.path)
		err = row.Scan(&trackID)
		switch {
		case err == sql.ErrNoRows:
			res, err := tx.Exec(`
				INSERT INTO tracks (release_id, artist_id, genre_id, title, disc_number, track_number, added_at)
				VALUES (?, ?, ?, ?, ?, ?, unixepoch())
			`, releaseID, trackArtistID, genreID, t.tags.Title, nullIfZero(t.tags.Disc), nullIfZero(t.tags.Track))
			if err != nil {
				return err
			}
			trackID, err = res.LastInsertId()
			if err != nil {
				return err
			}
			_, err = tx.Exec(`INSERT INTO track_locations (track_id, path, mtime) VALUES (?, ?, ?)`, trackID, t.path, t.mtime)
			return err
		case err != nil:
			return err
		default:
			_, err := tx.Exec(`
				UPDATE tracks SET release_id = ?, artist_id = ?, genre_id = ?, title = ?, disc_number = ?, track_number = ?
				WHERE id = ?
			`, releaseID, trackArtistID, genreID, t.tags.Title, nullIfZero(t.tags.Disc), nullIfZero(t.tags.Track), trackID)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`UPDATE track_locations SET mtime = ? WHERE track_id = ?`, t.mtime, trackID)
			return err
		}
	})
}

func findOrCreate(tx *sql.Tx, table, col, value, extraCol, extraVal string) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM `+table+` WHERE `+col+` = ?`, value).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	if extraCol != "" {
		res, err := tx.Exec(`INSERT INTO `+table+` (`+col+`, `+extraCol+`) VALUES (?, ?)`, value, extraVal)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	res, err := tx.Exec(`INSERT INTO `+table+` (`+col+`) VALUES (?)`, value)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func findOrCreatePublisher(tx *sql.Tx, name, catalogNum string) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM publishers WHERE name = ? AND catalog_number IS ?`, name, nullIfEmpty(catalogNum)).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.Exec(`INSERT INTO publishers (name, catalog_number) VALUES (?, ?)`, name, nullIfEmpty(catalogNum))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func findOrCreateRelease(tx *sql.Tx, title string, artistID int64, publisherID, genreID sql.NullInt64, year int, mbReleaseID string) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM releases WHERE title = ? AND artist_id = ?`, title, artistID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.Exec(`
		INSERT INTO releases (title, artist_id, publisher_id, genre_id, year, mb_release_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, title, artistID, publisherID, genreID, nullIfZero(year), nullIfEmpty(mbReleaseID))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func nullIfZero(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
