package queue

import "math/rand/v2"

// Queue is the top-level recursive selection state shared between the
// control surface (which populates queue_items/next_up) and the playback
// engine (which calls NextTrack).
type Queue struct {
	QueueItems  []*Item
	PlayedItems []*Item
	NextUp      []*Item

	MaxHistory    int
	RepeatCurrent bool
	CurrentTrack  *TrackRecord

	// Options governs descent into QueueItems at the top level.
	Options *QueueOptions

	nextID int
	rng    *rand.Rand
}

// New constructs an empty Queue ready to receive items via Play/Enqueue.
func New(maxHistory int) *Queue {
	return &Queue{
		MaxHistory: maxHistory,
		Options:    &QueueOptions{Shuffle: ShuffleNone, StopCondition: StopEndOfList},
		rng:        rand.New(rand.NewPCG(1, 2)),
		nextID:     1,
	}
}

// Reset clears all queue state and restores the default top-level options.
func (q *Queue) Reset() {
	q.QueueItems = nil
	q.PlayedItems = nil
	q.NextUp = nil
	q.CurrentTrack = nil
	q.Options = &QueueOptions{Shuffle: ShuffleNone, StopCondition: StopEndOfList}
}

// assignIDs numbers an item tree depth-first before it enters the queue,
// so history pairing can find the right sibling later.
func (q *Queue) assignIDs(it *Item) {
	assignIDsRec(it, &q.nextID)
}

// Play replaces queue_items with either [item] or item.Flatten() mapped to
// Track leaves, per the flatten flag.
func (q *Queue) Play(item *Item, flatten bool) {
	q.PlayedItems = nil
	q.NextUp = nil
	if flatten {
		tracks := item.Flatten()
		items := make([]*Item, len(tracks))
		for i, t := range tracks {
			items[i] = NewTrackItem(t)
		}
		q.QueueItems = items
	} else {
		q.assignIDs(item)
		q.QueueItems = []*Item{item}
	}
}

// Enqueue appends to queue_items without interrupting playback.
func (q *Queue) Enqueue(item *Item) {
	q.assignIDs(item)
	q.QueueItems = append(q.QueueItems, item)
}

func (q *Queue) pushHistory(it *Item) {
	q.PlayedItems = append(q.PlayedItems, it)
	if q.MaxHistory > 0 && len(q.PlayedItems) > q.MaxHistory {
		q.PlayedItems = q.PlayedItems[len(q.PlayedItems)-q.MaxHistory:]
	}
}

// findHistorySibling scans played_items tail-to-head for an Album/Playlist
// mirror sharing id, per spec.md §4.6's pairing rule.
func (q *Queue) findHistorySibling(id int) *Item {
	for i := len(q.PlayedItems) - 1; i >= 0; i-- {
		if q.PlayedItems[i].ID == id && q.PlayedItems[i].Kind != KindTrack {
			return q.PlayedItems[i]
		}
	}
	return nil
}

// NextTrack implements the ordering from spec.md §4.6: repeat_current,
// then next_up, then queue_items via randomized descent.
func (q *Queue) NextTrack() (*TrackRecord, error) {
	if q.RepeatCurrent && q.CurrentTrack != nil {
		return q.CurrentTrack, nil
	}

	for len(q.NextUp) > 0 {
		chosen := q.NextUp[0]
		q.NextUp = q.NextUp[1:]

		track, err := q.descendFirst(chosen, 0)
		if err != nil {
			continue
		}
		mirror := NewTrackItem(*track)
		q.pushHistory(mirror)
		q.CurrentTrack = track
		return track, nil
	}

	for len(q.QueueItems) > 0 {
		track, removedIdx, shouldRemove, err := q.descendRandom(q.QueueItems, q.Options, 0)
		if err != nil {
			if removedIdx >= 0 && removedIdx < len(q.QueueItems) && q.QueueItems[removedIdx].IsEmpty() {
				q.QueueItems = append(q.QueueItems[:removedIdx], q.QueueItems[removedIdx+1:]...)
				continue
			}
			return nil, err
		}
		if shouldRemove && removedIdx >= 0 && removedIdx < len(q.QueueItems) {
			q.QueueItems = append(q.QueueItems[:removedIdx], q.QueueItems[removedIdx+1:]...)
		}
		q.CurrentTrack = track
		return track, nil
	}

	return nil, ErrEmpty
}

// descendFirst picks the deterministic "first element" leaf of item,
// used for next_up descent, bounded by DepthLimit.
func (q *Queue) descendFirst(item *Item, depth int) (*TrackRecord, error) {
	if depth > DepthLimit {
		return nil, ErrMaxDepthReached
	}
	switch item.Kind {
	case KindTrack:
		return &item.Track, nil
	case KindAlbum, KindPlaylist:
		for _, c := range item.Children {
			if c.IsEmpty() {
				continue
			}
			return q.descendFirst(c, depth+1)
		}
		return nil, ErrEmpty
	default:
		return nil, ErrEmpty
	}
}

// descendRandom picks the randomized leaf under siblings[*] using each
// level's own QueueOptions, returning the chosen track, the index within
// siblings that was entered, whether that sibling should be removed per
// the consumption rule, and any selection error.
func (q *Queue) descendRandom(siblings []*Item, opts *QueueOptions, depth int) (*TrackRecord, int, bool, error) {
	if depth > DepthLimit {
		return nil, -1, false, ErrMaxDepthReached
	}

	attempts := 0
	for attempts < DepthLimit {
		attempts++
		idx, err := getRandom(q.rng, siblings, opts)
		if err != nil {
			return nil, -1, false, err
		}
		chosen := siblings[idx]
		if chosen.IsEmpty() {
			continue
		}

		switch chosen.Kind {
		case KindTrack:
			remove := removeOnConsumeTopLevel(opts)
			if remove {
				return &chosen.Track, idx, true, nil
			}
			// Non-removing draw: clone on repeat rather than mutate source.
			clone := chosen.clone()
			q.recordMirror(chosen, clone)
			return &clone.Track, idx, false, nil

		case KindAlbum, KindPlaylist:
			mirror := q.findHistorySibling(chosen.ID)
			if mirror == nil {
				mirror = &Item{Kind: chosen.Kind, ID: chosen.ID}
				q.pushHistory(mirror)
			}
			track, childIdx, remove, derr := q.descendRandom(chosen.Children, chosen.Options, depth+1)
			if derr != nil {
				continue
			}
			if remove && childIdx >= 0 && childIdx < len(chosen.Children) {
				chosen.Children = append(chosen.Children[:childIdx], chosen.Children[childIdx+1:]...)
			}
			// Append to the mirror on every successful draw, regardless of
			// whether this draw just emptied chosen: the track that empties
			// a container is still part of its played sequence (spec.md §8
			// scenario 5).
			mirror.Children = append(mirror.Children, NewTrackItem(*track))
			return track, idx, chosen.IsEmpty() && removeOnConsumeTopLevel(opts), nil
		}
	}
	return nil, -1, false, ErrMaxDepthReached
}

// recordMirror pushes a history entry for a directly-chosen Track leaf
// drawn without removal (TrueRandom/Weighted variants with repeat).
func (q *Queue) recordMirror(_, clone *Item) {
	q.pushHistory(clone)
}

func removeOnConsumeTopLevel(opts *QueueOptions) bool {
	if opts.Shuffle == ShuffleNone {
		return true
	}
	return removeOnConsume(opts)
}
