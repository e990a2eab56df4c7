// Package queue implements the recursive queue/selection model: Track,
// Album and Playlist items composed into a tree, descended via per-level
// shuffle policies, with history tracking so nested containers resume
// consistently across invocations.
package queue

import "errors"

// DepthLimit bounds recursion through nested Album/Playlist items.
const DepthLimit = 10

var (
	ErrMaxDepthReached = errors.New("queue: recursion exceeded depth limit")
	ErrSizeMismatch    = errors.New("queue: shuffle weight vector length mismatch")
	ErrEmpty           = errors.New("queue: no playable track")
)

// Kind tags which arm of the Track/Album/Playlist union an Item carries.
type Kind uint8

const (
	KindTrack Kind = iota
	KindAlbum
	KindPlaylist
)

// TrackRecord carries a catalog track reference plus its resolved
// filesystem path.
type TrackRecord struct {
	TrackID int64
	Path    string
}

// Item is the tagged Track/Album/Playlist variant. Track items carry no
// identifier; Album and Playlist items carry an ID assigned by
// Queue.assignIDs for history pairing.
type Item struct {
	Kind Kind
	ID   int // valid for KindAlbum/KindPlaylist only

	// KindTrack
	Track TrackRecord

	// KindAlbum / KindPlaylist
	ReleaseID  int64 // 0 if not backed by a release record (ad hoc album)
	PlaylistID int64 // 0 if not backed by a playlist record
	Children   []*Item
	Options    *QueueOptions
}

// NewTrackItem wraps a resolved track as a leaf Item.
func NewTrackItem(track TrackRecord) *Item {
	return &Item{Kind: KindTrack, Track: track}
}

// NewAlbumItem wraps an ordered track sequence with its own shuffle policy.
func NewAlbumItem(releaseID int64, tracks []TrackRecord, opts *QueueOptions) *Item {
	children := make([]*Item, len(tracks))
	for i, t := range tracks {
		children[i] = NewTrackItem(t)
	}
	return &Item{Kind: KindAlbum, ReleaseID: releaseID, Children: children, Options: opts}
}

// NewPlaylistItem wraps an ordered, possibly-nested sequence of items.
func NewPlaylistItem(playlistID int64, children []*Item, opts *QueueOptions) *Item {
	return &Item{Kind: KindPlaylist, PlaylistID: playlistID, Children: children, Options: opts}
}

// IsEmpty reports whether this item has no reachable, unconsumed leaves.
// A Track is empty iff it has no path. An Album/Playlist is empty iff its
// child list is empty; its StopCondition (including StopNone, loop
// endlessly) is not consulted.
func (it *Item) IsEmpty() bool {
	switch it.Kind {
	case KindTrack:
		return it.Track.Path == ""
	case KindAlbum, KindPlaylist:
		return len(it.Children) == 0
	default:
		return true
	}
}

// Flatten depth-first walks this item's leaves into a flat Track sequence,
// used by the engine's Play(item, flatten=true) command.
func (it *Item) Flatten() []TrackRecord {
	switch it.Kind {
	case KindTrack:
		return []TrackRecord{it.Track}
	case KindAlbum, KindPlaylist:
		var out []TrackRecord
		for _, c := range it.Children {
			out = append(out, c.Flatten()...)
		}
		return out
	default:
		return nil
	}
}

// clone makes a shallow copy suitable for cloning the chosen leaf on
// non-removing descent (TrueRandom/Weighted variants with repeat).
func (it *Item) clone() *Item {
	cp := *it
	return &cp
}

// assignIDsRec assigns depth-first numbering to Album/Playlist nodes
// (skipping Track leaves), matching set_id_rec from spec.md §4.6.
func assignIDsRec(it *Item, next *int) {
	if it.Kind != KindTrack {
		it.ID = *next
		*next++
	}
	for _, c := range it.Children {
		assignIDsRec(c, next)
	}
}
