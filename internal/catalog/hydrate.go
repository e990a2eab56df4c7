package catalog

import (
	"errors"
	"fmt"

	"github.com/mgilbert/soundshelf/internal/queue"
)

// ErrCycle guards against a playlist nesting itself, which the recursive
// playlist_items schema does not otherwise forbid.
var ErrCycle = errors.New("catalog: playlist references itself")

// Hydrator builds queue.Item trees from a CatalogRead, the one place the
// relational model meets the playback core's tagged-union queue
// representation (spec.md §6: "the core hydrates a QueueItem tree once per
// user selection; it caches nothing from the catalog").
type Hydrator struct {
	read CatalogRead
}

// NewHydrator wraps a CatalogRead for tree construction.
func NewHydrator(read CatalogRead) *Hydrator {
	return &Hydrator{read: read}
}

// Track resolves a single track id to a leaf Item.
func (h *Hydrator) Track(trackID int64) (*queue.Item, error) {
	path, ok, err := h.read.ResolveTrackPath(trackID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("catalog: track %d has no known location", trackID)
	}
	return queue.NewTrackItem(queue.TrackRecord{TrackID: trackID, Path: path}), nil
}

// Release builds an Album item from every track on a release, in the
// default sequential/no-repeat shuffle policy; callers wanting shuffle
// override opts after construction.
func (h *Hydrator) Release(releaseID int64, opts *queue.QueueOptions) (*queue.Item, error) {
	tracks, err := h.read.TracksOf(releaseID)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = defaultOptions()
	}
	return queue.NewAlbumItem(releaseID, tracks, opts), nil
}

// Artist builds an ad-hoc Album item (ReleaseID unset) spanning every
// track credited to an artist, release-major ordered by CatalogRead.
func (h *Hydrator) Artist(artistID int64, opts *queue.QueueOptions) (*queue.Item, error) {
	tracks, err := h.read.TracksOfArtist(artistID)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = defaultOptions()
	}
	return queue.NewAlbumItem(0, tracks, opts), nil
}

// Playlist recursively hydrates a playlist's entries into nested Track,
// Album (ad hoc, via inline release expansion) and Playlist items,
// bounded by queue.DepthLimit to match the core's own recursion bound.
func (h *Hydrator) Playlist(playlistID int64, opts *queue.QueueOptions) (*queue.Item, error) {
	return h.playlist(playlistID, opts, 0, map[int64]bool{})
}

func (h *Hydrator) playlist(playlistID int64, opts *queue.QueueOptions, depth int, seen map[int64]bool) (*queue.Item, error) {
	if depth >= queue.DepthLimit {
		return nil, queue.ErrMaxDepthReached
	}
	if seen[playlistID] {
		return nil, ErrCycle
	}
	seen[playlistID] = true

	entries, err := h.read.PlaylistItems(playlistID)
	if err != nil {
		return nil, err
	}

	children := make([]*queue.Item, 0, len(entries))
	for _, e := range entries {
		var child *queue.Item
		var cerr error
		switch e.Kind {
		case kindTrack:
			child, cerr = h.Track(e.TrackID)
		case kindRelease:
			child, cerr = h.Release(e.ReleaseID, nil)
		case kindPlaylist:
			child, cerr = h.playlist(e.NestedPlaylist, nil, depth+1, seen)
		default:
			cerr = fmt.Errorf("catalog: playlist_items: unknown kind %d", e.Kind)
		}
		if cerr != nil {
			return nil, cerr
		}
		children = append(children, child)
	}

	if opts == nil {
		opts = defaultOptions()
	}
	return queue.NewPlaylistItem(playlistID, children, opts), nil
}

// defaultOptions is the sequential, play-once-through policy used when a
// caller hydrates a release or playlist without a specific shuffle mode.
func defaultOptions() *queue.QueueOptions {
	return &queue.QueueOptions{Shuffle: queue.ShuffleNone, StopCondition: queue.StopEndOfList}
}
