package queue

import "testing"

func sequentialOpts() *QueueOptions {
	return &QueueOptions{Shuffle: ShuffleNone, StopCondition: StopEndOfList}
}

func TestQueue_PlaySingleAlbum_SequentialOrder(t *testing.T) {
	q := New(10)
	tracks := []TrackRecord{
		{TrackID: 1, Path: "a.opus"},
		{TrackID: 2, Path: "b.opus"},
		{TrackID: 3, Path: "c.opus"},
	}
	q.Play(NewAlbumItem(100, tracks, sequentialOpts()), false)

	for i, want := range tracks {
		got, err := q.NextTrack()
		if err != nil {
			t.Fatalf("NextTrack() #%d error = %v", i, err)
		}
		if got.TrackID != want.TrackID {
			t.Errorf("NextTrack() #%d = %+v, want %+v", i, got, want)
		}
	}

	if _, err := q.NextTrack(); err != ErrEmpty {
		t.Errorf("NextTrack() after exhaustion = %v, want ErrEmpty", err)
	}
}

func TestQueue_Enqueue_DoesNotInterruptCurrent(t *testing.T) {
	q := New(10)
	first := []TrackRecord{{TrackID: 1, Path: "a.opus"}}
	q.Play(NewAlbumItem(1, first, sequentialOpts()), false)

	track, err := q.NextTrack()
	if err != nil {
		t.Fatalf("NextTrack() error = %v", err)
	}
	if track.TrackID != 1 {
		t.Fatalf("NextTrack() = %+v, want track 1", track)
	}

	second := []TrackRecord{{TrackID: 2, Path: "b.opus"}}
	q.Enqueue(NewAlbumItem(2, second, sequentialOpts()))

	track, err = q.NextTrack()
	if err != nil {
		t.Fatalf("NextTrack() after enqueue error = %v", err)
	}
	if track.TrackID != 2 {
		t.Errorf("NextTrack() after enqueue = %+v, want track 2", track)
	}
}

func TestQueue_RepeatCurrent_ReturnsSameTrack(t *testing.T) {
	q := New(10)
	tracks := []TrackRecord{{TrackID: 1, Path: "a.opus"}, {TrackID: 2, Path: "b.opus"}}
	q.Play(NewAlbumItem(1, tracks, sequentialOpts()), false)

	first, err := q.NextTrack()
	if err != nil {
		t.Fatalf("NextTrack() error = %v", err)
	}

	q.RepeatCurrent = true
	for i := 0; i < 3; i++ {
		got, err := q.NextTrack()
		if err != nil {
			t.Fatalf("NextTrack() repeat #%d error = %v", i, err)
		}
		if got.TrackID != first.TrackID {
			t.Errorf("NextTrack() repeat #%d = %+v, want %+v", i, got, first)
		}
	}
}

func TestQueue_EmptyQueue_ReturnsErrEmpty(t *testing.T) {
	q := New(10)
	if _, err := q.NextTrack(); err != ErrEmpty {
		t.Errorf("NextTrack() on empty queue = %v, want ErrEmpty", err)
	}
}

func TestQueue_PlayFlatten_ExpandsNestedPlaylist(t *testing.T) {
	q := New(10)
	inner := NewAlbumItem(1, []TrackRecord{
		{TrackID: 1, Path: "a.opus"},
		{TrackID: 2, Path: "b.opus"},
	}, sequentialOpts())
	outer := NewPlaylistItem(10, []*Item{inner}, sequentialOpts())

	q.Play(outer, true)

	if len(q.QueueItems) != 2 {
		t.Fatalf("flattened QueueItems length = %d, want 2", len(q.QueueItems))
	}
	for _, it := range q.QueueItems {
		if it.Kind != KindTrack {
			t.Errorf("flattened item kind = %v, want KindTrack", it.Kind)
		}
	}
}

func TestQueue_NestedPlaylist_MirrorIncludesTrackThatDrainsAlbum(t *testing.T) {
	q := New(10)
	album := NewAlbumItem(1, []TrackRecord{
		{TrackID: 1, Path: "a.t1.opus"},
		{TrackID: 2, Path: "a.t2.opus"},
	}, sequentialOpts())
	trackX := NewTrackItem(TrackRecord{TrackID: 3, Path: "x.opus"})
	playlist := NewPlaylistItem(10, []*Item{album, trackX}, sequentialOpts())

	q.Play(playlist, false)

	want := []int64{1, 2, 3}
	for i, wantID := range want {
		got, err := q.NextTrack()
		if err != nil {
			t.Fatalf("NextTrack() #%d error = %v", i, err)
		}
		if got.TrackID != wantID {
			t.Errorf("NextTrack() #%d = %+v, want TrackID %d", i, got, wantID)
		}
	}
	if _, err := q.NextTrack(); err != ErrEmpty {
		t.Errorf("NextTrack() after exhaustion = %v, want ErrEmpty", err)
	}

	// played_items is a flat list: the Playlist's own mirror (the one
	// spec.md §8 scenario 5 names) sits alongside the nested Album's own
	// mirror, each tracking the sequence as seen from its own level.
	var playlistMirror *Item
	for _, it := range q.PlayedItems {
		if it.Kind == KindPlaylist && it.ID == playlist.ID {
			playlistMirror = it
		}
	}
	if playlistMirror == nil {
		t.Fatalf("PlayedItems = %+v, want a Playlist mirror with id %d", q.PlayedItems, playlist.ID)
	}
	if len(playlistMirror.Children) != 3 {
		t.Fatalf("playlist mirror.Children = %+v, want 3 tracks (A.t1, A.t2, X)", playlistMirror.Children)
	}
	for i, wantID := range want {
		if playlistMirror.Children[i].Track.TrackID != wantID {
			t.Errorf("playlist mirror.Children[%d].TrackID = %d, want %d", i, playlistMirror.Children[i].Track.TrackID, wantID)
		}
	}
}

func TestItem_IsEmpty(t *testing.T) {
	track := NewTrackItem(TrackRecord{TrackID: 1, Path: "a.opus"})
	if track.IsEmpty() {
		t.Error("track item should never report empty")
	}

	emptyAlbum := NewAlbumItem(1, nil, sequentialOpts())
	if !emptyAlbum.IsEmpty() {
		t.Error("album with no children should be empty")
	}

	fullAlbum := NewAlbumItem(1, []TrackRecord{{TrackID: 1, Path: "a.opus"}}, sequentialOpts())
	if fullAlbum.IsEmpty() {
		t.Error("album with children should not be empty")
	}
}
