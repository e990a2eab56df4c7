//go:build linux

// Package mpris exposes the engine's command channel over MPRIS/D-Bus. It
// is a control surface like any other (spec.md §5): it only ever posts
// Commands and reads advisory state off playback.Context, never touching
// the decoder or resampler.
package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/mgilbert/soundshelf/internal/playback"
)

// Adapter connects the engine's Context/CommandChannel pair to MPRIS.
type Adapter struct {
	ctx    *playback.Context
	cmds   *playback.CommandChannel
	server *server.Server
}

// New creates and starts the MPRIS D-Bus server in the background.
func New(ctx *playback.Context, cmds *playback.CommandChannel) (*Adapter, error) {
	a := &Adapter{ctx: ctx, cmds: cmds}
	a.server = server.NewServer("soundshelf", &rootAdapter{}, &playerAdapter{a: a})

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the D-Bus server.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error               { return nil }
func (r *rootAdapter) Quit() error                { return nil }
func (r *rootAdapter) CanQuit() (bool, error)      { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error)     { return false, nil }
func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }
func (r *rootAdapter) Identity() (string, error)   { return "soundshelf", nil }

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/mp4"}, nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter by translating
// calls into Commands on the engine's channel. The command wire shape
// (spec.md §6) has no track-skip primitive — advance happens only when the
// engine's queue produces the next track on its own — so Next/Previous are
// left unsupported rather than invented.
type playerAdapter struct {
	a *Adapter
}

func (p *playerAdapter) Next() error     { return nil }
func (p *playerAdapter) Previous() error { return nil }

func (p *playerAdapter) Pause() error {
	p.a.cmds.Send(playback.Command{Kind: playback.CmdPaused})
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.a.cmds.Send(playback.Command{Kind: playback.CmdPlayPause})
	return nil
}

func (p *playerAdapter) Stop() error {
	p.a.cmds.Send(playback.Command{Kind: playback.CmdPaused})
	return nil
}

func (p *playerAdapter) Play() error {
	p.a.cmds.Send(playback.Command{Kind: playback.CmdPlaying})
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	seconds := uint64(time.Duration(offset) * time.Microsecond / time.Second)
	p.a.cmds.Send(playback.Command{Kind: playback.CmdFastForward, Seconds: seconds})
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	seconds := uint64(time.Duration(position) * time.Microsecond / time.Second)
	p.a.cmds.Send(playback.Command{Kind: playback.CmdGoTo, Seconds: seconds})
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error { return nil }

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	if p.a.ctx.SamplesLeft() == 0 {
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusPlaying, nil
}

func (p *playerAdapter) Rate() (float64, error)        { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error       { return nil }
func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

// Metadata reports what Context exposes; track title/artist/album live in
// the catalog, which this adapter never reads. Album art is looked up in
// the current track's directory via FindAlbumArt.
func (p *playerAdapter) Metadata() (types.Metadata, error) {
	length := p.a.ctx.Length()
	rate := p.a.ctx.SampleRate()
	path := p.a.ctx.CurrentPath()
	var micros int64
	if rate > 0 {
		micros = length * 1_000_000 / rate
	}
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(path)),
		Length:  types.Microseconds(micros),
	}
	if art := FindAlbumArt(path); art != "" {
		meta.ArtUrl = "file://" + art
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) { return p.a.ctx.Volume(), nil }

func (p *playerAdapter) SetVolume(v float64) error {
	p.a.cmds.Send(playback.Command{Kind: playback.CmdSetVolume, Volume: v})
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	length, left := p.a.ctx.Length(), p.a.ctx.SamplesLeft()
	rate := p.a.ctx.SampleRate()
	if rate == 0 {
		return 0, nil
	}
	return (length - left) * 1_000_000 / rate, nil
}

func (p *playerAdapter) CanGoNext() (bool, error)     { return false, nil }
func (p *playerAdapter) CanGoPrevious() (bool, error) { return false, nil }
func (p *playerAdapter) CanPlay() (bool, error)       { return true, nil }
func (p *playerAdapter) CanPause() (bool, error)      { return true, nil }
func (p *playerAdapter) CanSeek() (bool, error)       { return true, nil }
func (p *playerAdapter) CanControl() (bool, error)    { return true, nil }

func formatTrackID(key string) string {
	h := fnv.New64a()
	h.Write([]byte(key))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
