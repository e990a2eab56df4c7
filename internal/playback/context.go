// Package playback holds PlaybackContext, the only state shared between
// the control surface and the audio callback thread.
package playback

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mgilbert/soundshelf/internal/queue"
)

// Context is the shared, multi-reader/one-writer bundle described in
// spec.md §3: a mutex-guarded Queue plus atomic scalars for UI display and
// volume application. The decoder and resampler are never reachable from
// here; they are owned exclusively by the audio thread.
type Context struct {
	mu    sync.Mutex
	queue *queue.Queue

	samplesLeft atomic.Int64
	length      atomic.Int64
	sampleRate  atomic.Int64
	volumeBits  atomic.Uint64 // math.Float64bits(volume), clamped >= 0
	currentPath atomic.Pointer[string]
}

// NewContext builds a Context with a fresh empty Queue and unity volume.
func NewContext(maxHistory int) *Context {
	c := &Context{queue: queue.New(maxHistory)}
	c.SetVolume(1.0)
	return c
}

// WithQueue runs fn with the queue locked, blocking until the lock is free.
// Go mutexes do not poison on panic the way std::sync::Mutex does, and the
// deferred Unlock releases the lock even if fn panics; the recovery step
// kept here is that a nil queue is replaced with a fresh empty one (and
// logged) before fn runs.
func (c *Context) WithQueue(fn func(q *queue.Queue)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue == nil {
		slog.Warn("playback: queue was nil, reinitializing")
		c.queue = queue.New(0)
	}
	fn(c.queue)
}

// TryWithQueue attempts the lock without blocking, for callers that must
// not wait on it. Returns false if the lock is currently held.
func (c *Context) TryWithQueue(fn func(q *queue.Queue)) bool {
	if !c.mu.TryLock() {
		return false
	}
	defer c.mu.Unlock()
	if c.queue == nil {
		c.queue = queue.New(0)
	}
	fn(c.queue)
	return true
}

// SamplesLeft returns the advisory remaining-samples counter.
func (c *Context) SamplesLeft() int64 { return c.samplesLeft.Load() }

// SetSamplesLeft publishes a new remaining-samples value.
func (c *Context) SetSamplesLeft(v int64) { c.samplesLeft.Store(v) }

// Length returns the advisory current-track length.
func (c *Context) Length() int64 { return c.length.Load() }

// SetLength publishes a new track length, called on every track change.
func (c *Context) SetLength(v int64) { c.length.Store(v) }

// SampleRate returns the advisory native sample rate of the current track.
func (c *Context) SampleRate() int64 { return c.sampleRate.Load() }

// SetSampleRate publishes the current track's native sample rate.
func (c *Context) SetSampleRate(v int64) { c.sampleRate.Store(v) }

// CurrentPath returns the filesystem path of the track currently open on
// the audio thread, or "" before the first track is opened.
func (c *Context) CurrentPath() string {
	if p := c.currentPath.Load(); p != nil {
		return *p
	}
	return ""
}

// SetCurrentPath publishes the path of the track the engine just opened.
func (c *Context) SetCurrentPath(v string) { c.currentPath.Store(&v) }

// Volume returns the current volume multiplier (>= 0).
func (c *Context) Volume() float64 {
	return float64fromBits(c.volumeBits.Load())
}

// SetVolume clamps v at 0 and publishes it atomically.
func (c *Context) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	c.volumeBits.Store(float64bits(v))
}

// ChangeVolume applies a relative delta, clamped at 0.
func (c *Context) ChangeVolume(dv float64) {
	for {
		old := c.volumeBits.Load()
		v := float64fromBits(old) + dv
		if v < 0 {
			v = 0
		}
		if c.volumeBits.CompareAndSwap(old, float64bits(v)) {
			return
		}
	}
}
