// Package opus turns an Ogg/Opus packet stream into a monotonic PCM stream
// of 48 kHz float32 samples, honoring pre-skip trimming and end-of-stream
// sample accounting (RFC 7845).
package opus

import (
	"encoding/binary"
	"errors"
	"io"

	upstreamopus "github.com/jj11hh/opus"

	"github.com/mgilbert/soundshelf/internal/ogg"
)

const (
	// SampleRate is the fixed Opus decode rate.
	SampleRate = 48000

	// MaxDecodeErrors bounds consecutive corrupt-frame retries in Fill.
	MaxDecodeErrors = 3

	maxFrameSamples = 5760 // largest Opus frame at 48kHz (120ms)
)

var (
	ErrInvalidOpusHead   = errors.New("opus: invalid OpusHead packet")
	ErrInvalidOpusTags   = errors.New("opus: invalid OpusTags packet")
	ErrUnsupported       = errors.New("opus: unsupported stream")
	ErrDecodeRetryExceed = errors.New("opus: too many consecutive decode errors")
)

// Header is the parsed OpusHead identification packet.
type Header struct {
	Version       uint8
	Channels      uint8
	PreSkip       uint16
	InputSampRate uint32
	OutputGainQ78 int16
	MappingFamily uint8
}

func parseHead(data []byte) (Header, error) {
	var h Header
	if len(data) < 19 || string(data[0:8]) != "OpusHead" {
		return h, ErrInvalidOpusHead
	}
	h.Version = data[8]
	if h.Version > 15 {
		return h, ErrUnsupported
	}
	h.Channels = data[9]
	if h.Channels != 1 && h.Channels != 2 {
		return h, ErrUnsupported
	}
	h.PreSkip = binary.LittleEndian.Uint16(data[10:12])
	h.InputSampRate = binary.LittleEndian.Uint32(data[12:16])
	//nolint:gosec // output gain is a signed Q7.8 dB value transmitted as a little-endian pair
	h.OutputGainQ78 = int16(binary.LittleEndian.Uint16(data[16:18]))
	h.MappingFamily = data[18]
	if h.MappingFamily != 0 {
		return h, ErrUnsupported
	}
	return h, nil
}

// Decoder streams decoded, pre-skip-trimmed PCM from an Ogg/Opus logical
// stream. It implements the Decoder arm contract consumed by
// internal/decoder.
type Decoder struct {
	demux *ogg.Demuxer
	dec   *upstreamopus.Decoder

	head         Header
	totalSamples int64 // granule-of-last-page - preSkip
	frameSize    int   // samples per channel per packet, from the first audio packet

	buf      []float32 // interleaved samples not yet consumed by Fill
	granule  int64     // sample index of buf[0] (post pre-skip, 0-based)
	consumed int64     // samples delivered so far via Fill

	decodeErrs int
}

// New constructs a Decoder: reads OpusHead + OpusTags, computes total
// sample length, decodes forward until pre-skip samples have accumulated
// and discards them so the exported stream begins at sample 0.
func New(r io.ReadSeeker) (*Decoder, error) {
	demux, err := ogg.Open(r)
	if err != nil {
		return nil, err
	}

	headPkt, _, err := demux.ReadPacket()
	if err != nil {
		return nil, err
	}
	head, err := parseHead(headPkt)
	if err != nil {
		return nil, err
	}

	tagsPkt, _, err := demux.ReadPacket()
	if err != nil {
		return nil, err
	}
	if len(tagsPkt) < 8 || string(tagsPkt[0:8]) != "OpusTags" {
		return nil, ErrInvalidOpusTags
	}

	dec, err := upstreamopus.NewDecoder(SampleRate, int(head.Channels))
	if err != nil {
		return nil, err
	}

	lastGranule, err := demux.LastGranule()
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		demux:        demux,
		dec:          dec,
		head:         head,
		totalSamples: lastGranule - int64(head.PreSkip),
	}

	if err := d.primeAndTrimPreSkip(); err != nil {
		return nil, err
	}

	return d, nil
}

// Channels returns the stream's channel count.
func (d *Decoder) Channels() int { return int(d.head.Channels) }

// SampleRate is always 48000 for Opus.
func (d *Decoder) SampleRate() int { return SampleRate }

// Length returns the total number of samples after pre-skip trimming.
func (d *Decoder) Length() int64 { return d.totalSamples }

// SamplesLeft returns the number of samples not yet delivered via Fill.
func (d *Decoder) SamplesLeft() int64 {
	left := d.totalSamples - d.consumed
	if left < 0 {
		return 0
	}
	return left
}

func (d *Decoder) channels() int { return int(d.head.Channels) }

// decodeNextPacket decodes one packet into the tail of d.buf, trimming the
// final frame of a last-flagged packet to the samples still remaining in
// the post-pre-skip stream (totalSamples minus those already decoded).
// Returns io.EOF when the stream is exhausted.
func (d *Decoder) decodeNextPacket() error {
	for {
		pkt, last, err := d.demux.ReadPacket()
		if err != nil {
			return err
		}

		scratch := make([]float32, maxFrameSamples*d.channels())
		n, decErr := d.dec.DecodeFloat32(pkt, scratch)
		if decErr != nil {
			d.decodeErrs++
			if d.decodeErrs >= MaxDecodeErrors {
				return ErrDecodeRetryExceed
			}
			continue
		}
		d.decodeErrs = 0

		if d.frameSize == 0 {
			d.frameSize = n
		}

		samples := scratch[:n*d.channels()]
		if last {
			// The final page is trimmed to whatever sample count remains in
			// the post-pre-skip stream, regardless of the decoded frame size.
			totalDecodedBefore := d.consumed + int64(len(d.buf))/int64(d.channels())
			remaining := d.totalSamples - totalDecodedBefore
			if remaining < 0 {
				remaining = 0
			}
			if remaining < int64(n) {
				samples = samples[:remaining*int64(d.channels())]
			}
		}

		d.buf = append(d.buf, samples...)
		return nil
	}
}

// primeAndTrimPreSkip decodes forward until at least PreSkip samples have
// accumulated, then drops them from the front of buf so sample 0 of the
// exported stream is the first post-pre-skip sample.
func (d *Decoder) primeAndTrimPreSkip() error {
	need := int64(d.head.PreSkip)
	for int64(len(d.buf))/int64(d.channels()) < need {
		if err := d.decodeNextPacket(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
	}
	drop := need * int64(d.channels())
	if drop > int64(len(d.buf)) {
		drop = int64(len(d.buf))
	}
	d.buf = d.buf[drop:]
	return nil
}

// Fill decodes forward until out is filled with interleaved samples (or
// the stream is exhausted, in which case the tail is zero-padded with
// equilibrium samples). Returns the number of samples left afterward.
func (d *Decoder) Fill(out []float32) int64 {
	ch := d.channels()
	needFrames := len(out) / ch

	for len(d.buf)/ch < needFrames {
		if err := d.decodeNextPacket(); err != nil {
			break // exhausted or unrecoverable; caller sees a short/zero tail
		}
	}

	avail := len(d.buf) / ch
	take := min(avail, needFrames)
	copy(out, d.buf[:take*ch])
	if take < needFrames {
		for i := take * ch; i < len(out); i++ {
			out[i] = 0
		}
	}
	d.buf = d.buf[take*ch:]
	d.consumed += int64(take)
	d.granule += int64(take)

	return d.SamplesLeft()
}

// GoTo seeks to the given absolute sample position (relative to the
// post-pre-skip stream) and clears any buffered output.
func (d *Decoder) GoTo(target int64) error {
	if target < 0 {
		target = 0
	}

	rawTarget := target + int64(d.head.PreSkip)

	var pageGranule int64
	var err error
	if target > d.granule {
		pageGranule, err = d.demux.SeekToGranuleLast(rawTarget, true)
	} else {
		pageGranule, err = d.demux.SeekToGranuleLast(rawTarget, false)
	}
	if err != nil {
		return err
	}

	d.buf = nil
	d.decodeErrs = 0
	d.frameSize = 0

	offset := rawTarget - pageGranule
	if offset < 0 {
		offset = 0
	}

	if d.frameSize == 0 {
		// Prime frame size with one decode before computing whole-packet skip.
		if err := d.decodeNextPacket(); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
	if d.frameSize > 0 {
		wholePackets := offset / int64(d.frameSize)
		for i := int64(0); i < wholePackets; i++ {
			d.buf = nil
			if err := d.decodeNextPacket(); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
		}
		discard := offset % int64(d.frameSize)
		drop := discard * int64(d.channels())
		if drop > int64(len(d.buf)) {
			drop = int64(len(d.buf))
		}
		d.buf = d.buf[drop:]
	}

	d.granule = target
	d.consumed = target
	return nil
}

// Close releases the underlying reader if it implements io.Closer.
func (d *Decoder) Close() error {
	if c, ok := any(d.demux).(io.Closer); ok {
		return c.Close()
	}
	return nil
}
