// Package secondary adapts the third-party multi-codec decoders (MP3,
// FLAC, M4A/AAC, ALAC) into the engine's uniform Decoder contract. Each
// concrete codec already implements beep.StreamSeekCloser; this package
// wraps that contract rather than reimplementing format parsing.
package secondary

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
	gomp3 "github.com/llehouerou/go-mp3"
)

// ErrUnsupportedFormat is returned when the extension matches no codec arm.
var ErrUnsupportedFormat = errors.New("secondary: unsupported format")

type readSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Decoder wraps a beep.StreamSeekCloser-backed codec behind the engine's
// Decoder arm interface, tracking a length and a remaining-samples counter
// that is always recomputed after each decode rather than cached.
type Decoder struct {
	stream     beep.StreamSeekCloser
	channels   int
	sampleRate int
	length     int64
}

// Open dispatches on path's extension (ASCII-lowercased) to the matching
// codec and wraps it.
func Open(path string, f readSeekCloser) (*Decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".mp3":
		return openMP3(f)
	case ".flac":
		return openFLAC(f)
	case ".m4a", ".mp4", ".aac", ".alac":
		return openM4A(f)
	default:
		_ = f.Close()
		return nil, ErrUnsupportedFormat
	}
}

func openMP3(f readSeekCloser) (*Decoder, error) {
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Decoder{
		stream:     &mp3Stream{decoder: dec, closer: f},
		channels:   2,
		sampleRate: dec.SampleRate(),
		length:     int64(max(dec.SampleCount(), 0)),
	}, nil
}

func openFLAC(f readSeekCloser) (*Decoder, error) {
	streamer, format, err := flac.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Decoder{
		stream:     streamer,
		channels:   2,
		sampleRate: int(format.SampleRate),
		length:     int64(streamer.Len()),
	}, nil
}

func openM4A(f readSeekCloser) (*Decoder, error) {
	container, err := m4a.Open(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	codecType := container.Codec()
	channels := int(container.Channels())

	d := &m4aStream{
		container:  container,
		closer:     f,
		codecType:  codecType,
		channels:   channels,
		sampleSize: int(container.SampleSize()),
		totalLen:   int(container.Duration().Seconds() * float64(container.SampleRate())),
	}

	switch codecType {
	case m4a.CodecAAC:
		dec, err := faad2.NewDecoder(faad2Ctx)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := dec.Init(faad2Ctx, container.CodecConfig()); err != nil {
			_ = f.Close()
			return nil, err
		}
		d.aacDecoder = dec
	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  int(container.SampleRate()),
			SampleSize:  int(container.SampleSize()),
			NumChannels: channels,
			FrameSize:   4096,
		})
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		d.alacDecoder = dec
	default:
		_ = f.Close()
		return nil, errors.New("secondary: unsupported codec in m4a container")
	}

	return &Decoder{
		stream:     d,
		channels:   2,
		sampleRate: int(container.SampleRate()),
		length:     int64(d.totalLen),
	}, nil
}

// Channels returns the decoder's output channel count (always stereo, the
// beep convention used throughout this arm).
func (d *Decoder) Channels() int { return d.channels }

// SampleRate returns the codec's native sample rate.
func (d *Decoder) SampleRate() int { return d.sampleRate }

// Length returns the total sample count.
func (d *Decoder) Length() int64 { return d.length }

// SamplesLeft recomputes left = length - position after every call,
// never caching a stale value across decodes.
func (d *Decoder) SamplesLeft() int64 {
	left := d.length - int64(d.stream.Position())
	if left < 0 {
		return 0
	}
	return left
}

// Fill decodes interleaved stereo samples into out (len(out)/2 frames),
// zero-padding the tail once the underlying stream is exhausted.
func (d *Decoder) Fill(out []float32) int64 {
	frames := len(out) / d.channels
	buf := make([][2]float64, frames)

	n, _ := d.stream.Stream(buf)
	for i := 0; i < n; i++ {
		out[i*2] = float32(buf[i][0])
		out[i*2+1] = float32(buf[i][1])
	}
	for i := n * d.channels; i < len(out); i++ {
		out[i] = 0
	}

	return d.SamplesLeft()
}

// GoTo seeks to an absolute sample position.
func (d *Decoder) GoTo(target int64) error {
	if target < 0 {
		target = 0
	}
	return d.stream.Seek(int(target))
}

// Close releases the underlying file handle and any codec state.
func (d *Decoder) Close() error {
	return d.stream.Close()
}
