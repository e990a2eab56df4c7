package catalog

import (
	"testing"

	_ "modernc.org/sqlite"

	"github.com/mgilbert/soundshelf/internal/queue"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func insertTrack(t *testing.T, c *Catalog, artist, album, title string, disc, track int, path string) scannedTrack {
	t.Helper()
	tr := scannedTrack{
		path:  path,
		mtime: 1,
		tags: trackTags{
			Title:       title,
			Artist:      artist,
			AlbumArtist: artist,
			Album:       album,
			Disc:        disc,
			Track:       track,
		},
	}
	if err := c.upsertTrack(tr); err != nil {
		t.Fatalf("upsertTrack(%s): %v", title, err)
	}
	return tr
}

func TestUpsertTrack_DedupesArtistAndRelease(t *testing.T) {
	c := openTestCatalog(t)
	insertTrack(t, c, "Boards of Canada", "Geogaddi", "Gyroscope", 1, 1, "/music/geogaddi/01.flac")
	insertTrack(t, c, "Boards of Canada", "Geogaddi", "Music Is Math", 1, 2, "/music/geogaddi/02.flac")

	var artistCount, releaseCount int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM artists`).Scan(&artistCount); err != nil {
		t.Fatal(err)
	}
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM releases`).Scan(&releaseCount); err != nil {
		t.Fatal(err)
	}
	if artistCount != 1 {
		t.Errorf("artists = %d, want 1", artistCount)
	}
	if releaseCount != 1 {
		t.Errorf("releases = %d, want 1", releaseCount)
	}
}

func TestTracksOf_OrderedByDiscAndTrackNumber(t *testing.T) {
	c := openTestCatalog(t)
	insertTrack(t, c, "Artist", "Album", "Two", 1, 2, "/a/02.flac")
	insertTrack(t, c, "Artist", "Album", "One", 1, 1, "/a/01.flac")

	var releaseID int64
	if err := c.db.QueryRow(`SELECT id FROM releases`).Scan(&releaseID); err != nil {
		t.Fatal(err)
	}

	tracks, err := c.TracksOf(releaseID)
	if err != nil {
		t.Fatalf("TracksOf: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len(tracks) = %d, want 2", len(tracks))
	}
	if tracks[0].Path != "/a/01.flac" || tracks[1].Path != "/a/02.flac" {
		t.Errorf("tracks not in track-number order: %+v", tracks)
	}
}

func TestResolveTrackPath_Missing(t *testing.T) {
	c := openTestCatalog(t)
	_, ok, err := c.ResolveTrackPath(999)
	if err != nil {
		t.Fatalf("ResolveTrackPath: %v", err)
	}
	if ok {
		t.Errorf("expected ok=false for unknown track id")
	}
}

func TestHydrator_Release(t *testing.T) {
	c := openTestCatalog(t)
	insertTrack(t, c, "Artist", "Album", "One", 1, 1, "/a/01.flac")
	insertTrack(t, c, "Artist", "Album", "Two", 1, 2, "/a/02.flac")

	var releaseID int64
	if err := c.db.QueryRow(`SELECT id FROM releases`).Scan(&releaseID); err != nil {
		t.Fatal(err)
	}

	h := NewHydrator(c)
	item, err := h.Release(releaseID, nil)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if item.Kind != queue.KindAlbum {
		t.Fatalf("Kind = %v, want KindAlbum", item.Kind)
	}
	if len(item.Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(item.Children))
	}
}

func TestHydrator_PlaylistNestedRelease(t *testing.T) {
	c := openTestCatalog(t)
	insertTrack(t, c, "Artist", "Album", "One", 1, 1, "/a/01.flac")
	var releaseID int64
	if err := c.db.QueryRow(`SELECT id FROM releases`).Scan(&releaseID); err != nil {
		t.Fatal(err)
	}

	playlistID, err := c.CreatePlaylist("Favorites")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if err := c.AppendRelease(playlistID, releaseID); err != nil {
		t.Fatalf("AppendRelease: %v", err)
	}

	h := NewHydrator(c)
	item, err := h.Playlist(playlistID, nil)
	if err != nil {
		t.Fatalf("Playlist: %v", err)
	}
	if item.Kind != queue.KindPlaylist {
		t.Fatalf("Kind = %v, want KindPlaylist", item.Kind)
	}
	if len(item.Children) != 1 || item.Children[0].Kind != queue.KindAlbum {
		t.Fatalf("expected one nested Album child, got %+v", item.Children)
	}
}

func TestHydrator_PlaylistCycleRejected(t *testing.T) {
	c := openTestCatalog(t)
	playlistID, err := c.CreatePlaylist("Loop")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if err := c.AppendPlaylist(playlistID, playlistID); err != nil {
		t.Fatalf("AppendPlaylist: %v", err)
	}

	h := NewHydrator(c)
	if _, err := h.Playlist(playlistID, nil); err != ErrCycle {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestExternalID_IsStable(t *testing.T) {
	c := openTestCatalog(t)
	id, err := c.CreatePlaylist("Test")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	ext1, err := c.ExternalID(id)
	if err != nil {
		t.Fatalf("ExternalID: %v", err)
	}
	ext2, err := c.ExternalID(id)
	if err != nil {
		t.Fatalf("ExternalID: %v", err)
	}
	if ext1 == "" || ext1 != ext2 {
		t.Errorf("external id not stable: %q vs %q", ext1, ext2)
	}
}

func TestListReleases_ReturnsEveryReleaseWithArtistName(t *testing.T) {
	c := openTestCatalog(t)
	insertTrack(t, c, "Boards of Canada", "Geogaddi", "Ready Lets Go", 1, 1, "/m/geogaddi.opus")
	insertTrack(t, c, "Boards of Canada", "Music Has the Right to Children", "Wildlife Analysis", 1, 1, "/m/mhrc.opus")

	releases, err := c.ListReleases()
	if err != nil {
		t.Fatalf("ListReleases: %v", err)
	}
	if len(releases) != 2 {
		t.Fatalf("ListReleases returned %d rows, want 2", len(releases))
	}
	for _, r := range releases {
		if r.ArtistName != "Boards of Canada" {
			t.Errorf("ArtistName = %q, want Boards of Canada", r.ArtistName)
		}
	}
}

func TestListPlaylists_ReturnsCreatedPlaylists(t *testing.T) {
	c := openTestCatalog(t)
	if _, err := c.CreatePlaylist("Focus"); err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	playlists, err := c.ListPlaylists()
	if err != nil {
		t.Fatalf("ListPlaylists: %v", err)
	}
	if len(playlists) != 1 || playlists[0].Name != "Focus" {
		t.Fatalf("ListPlaylists = %+v, want one playlist named Focus", playlists)
	}
}
