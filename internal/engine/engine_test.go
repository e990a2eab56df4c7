package engine

import (
	"testing"

	"github.com/mgilbert/soundshelf/internal/decoder"
	"github.com/mgilbert/soundshelf/internal/playback"
)

func noOpenFile(path string) (decoder.ReadSeekCloser, error) {
	return nil, decoder.ErrNoDecoder
}

func TestEngine_Fill_EmitsSilenceBeforeAnyTrack(t *testing.T) {
	ctx := playback.NewContext(10)
	cmds := playback.NewCommandChannel()
	e := New(ctx, cmds, noOpenFile, 48000, 2)

	out := make([]float32, 256)
	for i := range out {
		out[i] = 1
	}
	e.Fill(out)

	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 (silence) before any track is opened", i, v)
		}
	}
}

func TestEngine_Fill_NeverBlocksOnEmptyQueue(t *testing.T) {
	ctx := playback.NewContext(10)
	cmds := playback.NewCommandChannel()
	e := New(ctx, cmds, noOpenFile, 48000, 2)

	cmds.Send(playback.Command{Kind: playback.CmdPlaying})
	out := make([]float32, 128)
	e.Fill(out) // must return promptly; the Silence arm short-circuits Fill

	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 with nothing queued", i, v)
		}
	}
}

func TestEngine_PlayPauseToggle(t *testing.T) {
	ctx := playback.NewContext(10)
	cmds := playback.NewCommandChannel()
	e := New(ctx, cmds, noOpenFile, 48000, 2)

	if e.paused {
		t.Fatal("engine should start unpaused")
	}
	cmds.Send(playback.Command{Kind: playback.CmdPlayPause})
	e.Fill(make([]float32, 64))
	if !e.paused {
		t.Error("PlayPause should have paused the engine")
	}
	cmds.Send(playback.Command{Kind: playback.CmdPlayPause})
	e.Fill(make([]float32, 64))
	if e.paused {
		t.Error("second PlayPause should have resumed the engine")
	}
}

func TestEngine_SetVolume_PublishesToContext(t *testing.T) {
	ctx := playback.NewContext(10)
	cmds := playback.NewCommandChannel()
	e := New(ctx, cmds, noOpenFile, 48000, 2)

	cmds.Send(playback.Command{Kind: playback.CmdSetVolume, Volume: 0.3})
	e.Fill(make([]float32, 64))

	if got := ctx.Volume(); got != 0.3 {
		t.Errorf("Context.Volume() = %v, want 0.3", got)
	}
}

func TestEngine_Shutdown_StopsProducingPastSilence(t *testing.T) {
	ctx := playback.NewContext(10)
	cmds := playback.NewCommandChannel()
	e := New(ctx, cmds, noOpenFile, 48000, 2)

	cmds.Send(playback.Command{Kind: playback.CmdShutdown})
	out := make([]float32, 64)
	for i := range out {
		out[i] = 1
	}
	e.Fill(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 after shutdown", i, v)
		}
	}
}
