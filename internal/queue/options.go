package queue

import "math/rand/v2"

// ShuffleKind selects the per-level descent strategy.
type ShuffleKind uint8

const (
	ShuffleNone ShuffleKind = iota
	ShuffleTrueRandom
	ShuffleWeightedRandom
	ShuffleWeightedDefault
	ShuffleWeightedRandomWithDefault
)

// StopCondition bounds how long a container keeps producing items.
type StopCondition uint8

const (
	StopEndOfList StopCondition = iota
	StopNone                    // endless
	StopAmountTracks
	StopTime
)

// QueueOptions is the per-level shuffle/stop configuration attached to an
// Album or Playlist item, plus the top-level queue's own selection state.
type QueueOptions struct {
	Shuffle       ShuffleKind
	StopCondition StopCondition
	StopAmount    int // valid when StopCondition == StopAmountTracks
	StopTimeMs    int64

	// SelectedIndex records the last chosen child, used for sequential
	// advance and resume. nil means "no selection yet".
	SelectedIndex *int

	// Weights backs WeightedRandom and the mutable half of
	// WeightedRandomWithDefault; it is mutated by the anti-repeat rule.
	Weights []float64

	// Defaults backs WeightedDefault (the only weights) and the static
	// half of WeightedRandomWithDefault.
	Defaults []float64
}

// getRandom implements the per-shuffle-variant descent rule from
// spec.md §4.6. It returns the chosen index, or ErrEmpty when no child can
// be chosen and ErrSizeMismatch when a weight vector's length differs from
// len(siblings). Whether the chosen child is removed afterward is decided
// by the caller (removeOnConsumeTopLevel).
//
// siblings is consulted only by ShuffleNone: a level must keep resolving
// to its currently selected child for as long as that child still has
// unconsumed content, and only step to the next sibling once it reports
// IsEmpty(). The other shuffle kinds re-draw independently on every call
// and need no such memory.
func getRandom(rng *rand.Rand, siblings []*Item, opts *QueueOptions) (idx int, err error) {
	length := len(siblings)
	if length == 0 {
		return 0, ErrEmpty
	}

	switch opts.Shuffle {
	case ShuffleNone:
		if opts.SelectedIndex != nil && *opts.SelectedIndex < length && !siblings[*opts.SelectedIndex].IsEmpty() {
			return *opts.SelectedIndex, nil
		}
		start := 0
		if opts.SelectedIndex != nil {
			start = *opts.SelectedIndex + 1
		}
		for i := start; i < length; i++ {
			if !siblings[i].IsEmpty() {
				found := i
				opts.SelectedIndex = &found
				return found, nil
			}
		}
		opts.SelectedIndex = nil
		return 0, ErrEmpty

	case ShuffleTrueRandom:
		return rng.IntN(length), nil

	case ShuffleWeightedRandom:
		if len(opts.Weights) != length {
			return 0, ErrSizeMismatch
		}
		chosen := weightedDraw(rng, opts.Weights)
		antiRepeatMutate(opts.Weights, chosen)
		return chosen, nil

	case ShuffleWeightedDefault:
		if len(opts.Defaults) != length {
			return 0, ErrSizeMismatch
		}
		return weightedDraw(rng, opts.Defaults), nil

	case ShuffleWeightedRandomWithDefault:
		if len(opts.Weights) != length || len(opts.Defaults) != length {
			return 0, ErrSizeMismatch
		}
		combined := make([]float64, length)
		for i := range combined {
			combined[i] = opts.Weights[i] + opts.Defaults[i]
		}
		chosen := weightedDraw(rng, combined)
		antiRepeatMutate(opts.Weights, chosen)
		return chosen, nil

	default:
		return 0, ErrSizeMismatch
	}
}

// weightedDraw picks an index with probability proportional to w[i]. A
// non-positive total falls back to uniform selection.
func weightedDraw(rng *rand.Rand, w []float64) int {
	total := 0.0
	for _, v := range w {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return rng.IntN(len(w))
	}
	target := rng.Float64() * total
	acc := 0.0
	for i, v := range w {
		if v > 0 {
			acc += v
		}
		if target < acc {
			return i
		}
	}
	return len(w) - 1
}

// antiRepeatMutate increments every weight by 1 and resets the chosen
// weight to 0, preventing an immediate repeat of the same index.
func antiRepeatMutate(w []float64, chosen int) {
	for i := range w {
		w[i]++
	}
	if chosen >= 0 && chosen < len(w) {
		w[chosen] = 0
	}
}

// removeOnConsume reports whether the queue's consumption rule removes the
// chosen child from its parent container after it plays, from the repeat
// flag alone (StopNone means "loop forever", i.e. repeat=true); the shuffle
// kind is taken into account by removeOnConsumeTopLevel.
func removeOnConsume(opts *QueueOptions) bool {
	if opts.StopCondition == StopNone {
		return false
	}
	return true
}
