package playback

import (
	"testing"

	"github.com/mgilbert/soundshelf/internal/queue"
)

func TestContext_VolumeDefaultsToUnity(t *testing.T) {
	ctx := NewContext(10)
	if got := ctx.Volume(); got != 1.0 {
		t.Errorf("Volume() = %v, want 1.0", got)
	}
}

func TestContext_SetVolume_ClampsAtZero(t *testing.T) {
	ctx := NewContext(10)
	ctx.SetVolume(-0.5)
	if got := ctx.Volume(); got != 0 {
		t.Errorf("Volume() after SetVolume(-0.5) = %v, want 0", got)
	}
}

func TestContext_ChangeVolume_ClampsAtZero(t *testing.T) {
	ctx := NewContext(10)
	ctx.SetVolume(0.2)
	ctx.ChangeVolume(-1.0)
	if got := ctx.Volume(); got != 0 {
		t.Errorf("Volume() after large negative delta = %v, want 0", got)
	}
}

func TestContext_ChangeVolume_Accumulates(t *testing.T) {
	ctx := NewContext(10)
	ctx.SetVolume(0.5)
	ctx.ChangeVolume(0.1)
	ctx.ChangeVolume(0.1)
	if got := ctx.Volume(); got < 0.69 || got > 0.71 {
		t.Errorf("Volume() after two +0.1 deltas = %v, want ~0.7", got)
	}
}

func TestContext_SamplesLeftAndLength(t *testing.T) {
	ctx := NewContext(10)
	ctx.SetLength(48000)
	ctx.SetSamplesLeft(24000)
	ctx.SetSampleRate(48000)

	if ctx.Length() != 48000 {
		t.Errorf("Length() = %d, want 48000", ctx.Length())
	}
	if ctx.SamplesLeft() != 24000 {
		t.Errorf("SamplesLeft() = %d, want 24000", ctx.SamplesLeft())
	}
	if ctx.SampleRate() != 48000 {
		t.Errorf("SampleRate() = %d, want 48000", ctx.SampleRate())
	}
}

func TestContext_CurrentPath_EmptyUntilSet(t *testing.T) {
	ctx := NewContext(10)
	if got := ctx.CurrentPath(); got != "" {
		t.Errorf("CurrentPath() before any track = %q, want empty", got)
	}
	ctx.SetCurrentPath("/music/track.opus")
	if got := ctx.CurrentPath(); got != "/music/track.opus" {
		t.Errorf("CurrentPath() = %q, want /music/track.opus", got)
	}
}

func TestContext_WithQueue_ReinitializesNilQueue(t *testing.T) {
	ctx := NewContext(10)
	ctx.queue = nil

	var sawQueue bool
	ctx.WithQueue(func(q *queue.Queue) {
		sawQueue = q != nil
	})
	if !sawQueue {
		t.Error("WithQueue should reinitialize a nil queue before calling fn")
	}
}
