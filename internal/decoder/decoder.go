// Package decoder defines the tagged Decoder union {Opus, Secondary, Silence}
// that the playback engine drives. Every operation delegates to whichever
// arm is active; the union exists so the engine can be constructed before a
// track is chosen and swap decoders without tearing down the audio callback.
package decoder

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/mgilbert/soundshelf/internal/ogg"
	"github.com/mgilbert/soundshelf/internal/opus"
	"github.com/mgilbert/soundshelf/internal/secondary"
)

// ErrNoDecoder is returned when no arm matches a file extension.
var ErrNoDecoder = errors.New("decoder: no decoder matched the file extension")

// kind tags which arm is active.
type kind int

const (
	kindSilence kind = iota
	kindOpus
	kindSecondary
)

// Decoder is the uniform interface the playback engine drives, regardless
// of which concrete arm backs it.
type Decoder struct {
	k         kind
	opusArm   *opus.Decoder
	secondary *secondary.Decoder
}

// Silence constructs the Silence arm: channels=0, sample_rate=1, length=0,
// fill writes equilibrium samples and returns 0, goto is a no-op.
func Silence() *Decoder {
	return &Decoder{k: kindSilence}
}

// secondaryExtensions lists extensions routed to the Secondary arm. Opus is
// handled separately since .opus/.ogg/.oga may carry an Opus payload.
var secondaryExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".m4a":  true,
	".mp4":  true,
	".aac":  true,
	".alac": true,
}

// Open selects a decoder arm by the file's extension (ASCII-lowercased) and
// constructs it. ".opus" always routes to the Opus arm. ".ogg"/".oga" probe
// the stream: an Opus payload routes to the Opus arm, anything else is
// rejected (Vorbis-in-Ogg is explicitly unsupported, see internal/ogg).
// Any other known audio extension routes to the Secondary arm. An unknown
// extension returns ErrNoDecoder so the caller can skip the item.
func Open(path string, openFile func(string) (ReadSeekCloser, error)) (*Decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".opus":
		f, err := openFile(path)
		if err != nil {
			return nil, err
		}
		d, err := opus.New(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &Decoder{k: kindOpus, opusArm: d}, nil

	case ".ogg", ".oga":
		f, err := openFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := ogg.ProbeCodec(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		d, err := opus.New(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &Decoder{k: kindOpus, opusArm: d}, nil

	default:
		if !secondaryExtensions[ext] {
			return nil, ErrNoDecoder
		}
		f, err := openFile(path)
		if err != nil {
			return nil, err
		}
		d, err := secondary.Open(path, f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &Decoder{k: kindSecondary, secondary: d}, nil
	}
}

// ReadSeekCloser is the file handle contract Open needs from its caller.
type ReadSeekCloser interface {
	Read(p []byte) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
	Close() error
}

// Channels returns the active arm's channel count.
func (d *Decoder) Channels() int {
	switch d.k {
	case kindOpus:
		return d.opusArm.Channels()
	case kindSecondary:
		return d.secondary.Channels()
	default:
		return 0
	}
}

// SampleRate returns the active arm's native sample rate.
func (d *Decoder) SampleRate() int {
	switch d.k {
	case kindOpus:
		return d.opusArm.SampleRate()
	case kindSecondary:
		return d.secondary.SampleRate()
	default:
		return 1
	}
}

// Length returns the total sample count of the active arm.
func (d *Decoder) Length() int64 {
	switch d.k {
	case kindOpus:
		return d.opusArm.Length()
	case kindSecondary:
		return d.secondary.Length()
	default:
		return 0
	}
}

// SamplesLeft returns the remaining-samples counter.
func (d *Decoder) SamplesLeft() int64 {
	switch d.k {
	case kindOpus:
		return d.opusArm.SamplesLeft()
	case kindSecondary:
		return d.secondary.SamplesLeft()
	default:
		return 0
	}
}

// Fill decodes into out (interleaved), zero-padding any tail once the
// stream is exhausted, and returns the remaining-samples counter.
func (d *Decoder) Fill(out []float32) int64 {
	switch d.k {
	case kindOpus:
		return d.opusArm.Fill(out)
	case kindSecondary:
		return d.secondary.Fill(out)
	default:
		for i := range out {
			out[i] = 0
		}
		return 0
	}
}

// GoTo seeks the active arm to an absolute sample position. A no-op on
// Silence.
func (d *Decoder) GoTo(target int64) error {
	switch d.k {
	case kindOpus:
		return d.opusArm.GoTo(target)
	case kindSecondary:
		return d.secondary.GoTo(target)
	default:
		return nil
	}
}

// Close releases the underlying file handle, if any.
func (d *Decoder) Close() error {
	switch d.k {
	case kindOpus:
		return d.opusArm.Close()
	case kindSecondary:
		return d.secondary.Close()
	default:
		return nil
	}
}

// IsSilence reports whether this is the Silence arm.
func (d *Decoder) IsSilence() bool { return d.k == kindSilence }
