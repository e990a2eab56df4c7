// Package engine implements the pull-based playback engine: the audio
// callback contract described in spec.md §4.5. Construction happens once;
// Fill is called by the host audio framework once per hardware period.
package engine

import (
	"log/slog"

	"github.com/mgilbert/soundshelf/internal/decoder"
	"github.com/mgilbert/soundshelf/internal/playback"
	"github.com/mgilbert/soundshelf/internal/queue"
	"github.com/mgilbert/soundshelf/internal/resample"
)

// OpenFile abstracts filesystem access so the engine's construction path
// stays testable without touching disk.
type OpenFile func(path string) (decoder.ReadSeekCloser, error)

// Engine owns the decoder, resampler scratch buffers, and output ring on
// behalf of the audio callback thread. Context is the only state it shares
// with control-surface goroutines.
type Engine struct {
	ctx      *playback.Context
	cmds     *playback.CommandChannel
	openFile OpenFile

	deviceSampleRate int
	channels         int

	dec       *decoder.Decoder
	resampler *resample.Resampler

	ring   []float32 // FIFO of interleaved device-rate samples
	volume float64
	paused bool

	currentPath   string
	currentLength int64
}

// New builds an Engine targeting deviceSampleRate/channels, starting on
// the Silence arm until the first Play command arrives.
func New(ctx *playback.Context, cmds *playback.CommandChannel, openFile OpenFile, deviceSampleRate, channels int) *Engine {
	return &Engine{
		ctx:              ctx,
		cmds:             cmds,
		openFile:         openFile,
		deviceSampleRate: deviceSampleRate,
		channels:         channels,
		dec:              decoder.Silence(),
		volume:           ctx.Volume(),
	}
}

// Fill writes exactly len(out)/channels frames of interleaved samples,
// draining pending commands first. Play, Enqueue and the advance to the
// next track take the queue lock through the blocking WithQueue, and the
// path is not allocation-free: the command drain, the output ring and the
// decoders allocate as they run.
func (e *Engine) Fill(out []float32) {
	shutdown := e.drainCommands()
	if shutdown || e.paused || e.dec.IsSilence() {
		for i := range out {
			out[i] = 0
		}
		return
	}

	needed := len(out)
	pos := 0
	for pos < needed {
		if len(e.ring) == 0 {
			if !e.runResampleCycle() {
				// Track exhausted; try to advance, else emit silence.
				if !e.advanceTrack() {
					for i := pos; i < needed; i++ {
						out[i] = 0
					}
					e.paused = true
					return
				}
				continue
			}
		}
		n := copy(out[pos:], e.ring)
		e.ring = e.ring[n:]
		pos += n
	}

	vol := float32(e.volume)
	for i := range out {
		out[i] *= vol
	}

	e.ctx.SetSamplesLeft(e.dec.SamplesLeft())
}

// runResampleCycle pulls one decoder.Fill + resample.Process cycle into
// the ring. Returns false when the decoder has nothing left to give.
func (e *Engine) runResampleCycle() bool {
	if e.resampler == nil {
		return false
	}
	before := e.dec.SamplesLeft()
	buf := e.resampler.DecoderOutBuffer()
	e.dec.Fill(buf)
	out := e.resampler.Process()
	e.ring = append(e.ring, out...)
	return before > 0
}

// advanceTrack asks the queue for the next track and opens it. Returns
// false if the queue has nothing playable, in which case the engine
// enters the paused state.
func (e *Engine) advanceTrack() bool {
	var next *queue.TrackRecord
	var err error
	e.ctx.WithQueue(func(q *queue.Queue) {
		next, err = q.NextTrack()
	})
	if err != nil || next == nil {
		return false
	}
	if openErr := e.openTrack(next.Path); openErr != nil {
		slog.Warn("engine: failed to open next track", "path", next.Path, "err", openErr)
		return e.advanceTrack()
	}
	return true
}

// openTrack constructs a new Decoder and reconfigures (or rebuilds) the
// resampler for it.
func (e *Engine) openTrack(path string) error {
	d, err := decoder.Open(path, e.openFile)
	if err != nil {
		return err
	}
	if e.dec != nil && !e.dec.IsSilence() {
		_ = e.dec.Close()
	}
	e.dec = d
	e.currentPath = path
	e.currentLength = d.Length()
	e.ring = nil

	inputRate := d.SampleRate()
	channels := d.Channels()
	if e.resampler == nil {
		r, rerr := resample.New(inputRate, e.deviceSampleRate, channels)
		if rerr != nil {
			return rerr
		}
		e.resampler = r
	} else if rerr := e.resampler.Reconfigure(inputRate, e.deviceSampleRate, channels); rerr != nil {
		return rerr
	}

	e.ctx.SetLength(d.Length())
	e.ctx.SetSampleRate(int64(inputRate))
	e.ctx.SetSamplesLeft(d.SamplesLeft())
	e.ctx.SetCurrentPath(path)
	return nil
}

// drainCommands processes every command currently buffered. Returns true
// if a Shutdown command was seen.
func (e *Engine) drainCommands() bool {
	cmds := e.cmds.Drain()
	shutdown := false
	for _, cmd := range cmds {
		switch cmd.Kind {
		case playback.CmdPlaying:
			e.paused = false
		case playback.CmdPaused:
			e.paused = true
		case playback.CmdPlayPause:
			e.paused = !e.paused
		case playback.CmdGoTo:
			e.seekTo(int64(cmd.Seconds) * int64(e.dec.SampleRate()))
		case playback.CmdFastForward:
			e.seekRelative(int64(cmd.Seconds) * int64(e.dec.SampleRate()))
		case playback.CmdRewind:
			e.seekRelative(-int64(cmd.Seconds) * int64(e.dec.SampleRate()))
		case playback.CmdPlay:
			e.handlePlay(cmd.Item, cmd.Flatten)
		case playback.CmdEnqueue:
			e.ctx.WithQueue(func(q *queue.Queue) {
				q.Enqueue(cmd.Item)
			})
		case playback.CmdSetVolume:
			e.volume = cmd.Volume
			if e.volume < 0 {
				e.volume = 0
			}
			e.ctx.SetVolume(e.volume)
		case playback.CmdChangeVolume:
			e.volume += cmd.Volume
			if e.volume < 0 {
				e.volume = 0
			}
			e.ctx.SetVolume(e.volume)
		case playback.CmdShutdown:
			shutdown = true
		}
	}
	return shutdown
}

func (e *Engine) seekTo(target int64) {
	if target < 0 {
		target = 0
	}
	length := e.dec.Length()
	if target > length {
		e.paused = true
		return
	}
	if err := e.dec.GoTo(target); err != nil {
		slog.Warn("engine: seek failed, continuing from current position", "err", err)
		return
	}
	e.ring = nil
}

func (e *Engine) seekRelative(delta int64) {
	current := e.dec.Length() - e.dec.SamplesLeft()
	e.seekTo(current + delta)
}

func (e *Engine) handlePlay(item *queue.Item, flatten bool) {
	if item == nil {
		return
	}
	var first *queue.TrackRecord
	var err error
	e.ctx.WithQueue(func(q *queue.Queue) {
		q.Play(item, flatten)
		first, err = q.NextTrack()
	})
	if err != nil || first == nil {
		return
	}
	if oerr := e.openTrack(first.Path); oerr != nil {
		slog.Warn("engine: failed to open track", "path", first.Path, "err", oerr)
		return
	}
	e.paused = false
}
