package playback

import "github.com/mgilbert/soundshelf/internal/queue"

// CommandKind tags the wire shape from spec.md §6: a tagged union carrying
// Playing, Paused, PlayPause, GoTo, FastForward, Rewind, Play, Enqueue,
// SetVolume, ChangeVolume, Shutdown.
type CommandKind uint8

const (
	CmdPlaying CommandKind = iota
	CmdPaused
	CmdPlayPause
	CmdGoTo
	CmdFastForward
	CmdRewind
	CmdPlay
	CmdEnqueue
	CmdSetVolume
	CmdChangeVolume
	CmdShutdown
)

// Command is the engine's control-surface message. Only the fields
// relevant to Kind are populated; zero values elsewhere are ignored.
type Command struct {
	Kind CommandKind

	Seconds uint64 // GoTo, FastForward, Rewind

	Item    *queue.Item // Play, Enqueue
	Flatten bool        // Play

	Volume float64 // SetVolume, ChangeVolume
}

// commandBufferSize bounds the lock-free command channel. A full channel
// drops the newest command; at 32 slots and one drain per audio callback,
// this only happens under sustained control-surface flooding.
const commandBufferSize = 32

// CommandChannel is a bounded, single-consumer queue of Commands, sent
// non-blocking from any number of producer goroutines (control surfaces)
// and drained by the engine's audio callback.
type CommandChannel struct {
	ch chan Command
}

// NewCommandChannel builds a bounded command channel.
func NewCommandChannel() *CommandChannel {
	return &CommandChannel{ch: make(chan Command, commandBufferSize)}
}

// Send submits a command, dropping it silently if the buffer is full.
func (c *CommandChannel) Send(cmd Command) {
	select {
	case c.ch <- cmd:
	default:
	}
}

// Recv returns the channel for the engine's drain loop to range over.
func (c *CommandChannel) Recv() <-chan Command { return c.ch }

// Drain pulls every command currently buffered, for use at the top of an
// audio callback. Never blocks.
func (c *CommandChannel) Drain() []Command {
	var out []Command
	for {
		select {
		case cmd := <-c.ch:
			out = append(out, cmd)
		default:
			return out
		}
	}
}
