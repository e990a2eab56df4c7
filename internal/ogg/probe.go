package ogg

import (
	"errors"
	"io"

	"github.com/jfreymuth/vorbis"
)

// ErrVorbisNotSupported is returned by ProbeCodec for Ogg streams carrying
// a Vorbis identification header; only Opus payloads are decoded.
var ErrVorbisNotSupported = errors.New("ogg: vorbis-in-ogg is not supported")

// ProbeCodec reads the first packet of an Ogg logical stream and reports
// which codec it carries, without disturbing r's position for callers that
// reopen it afterward (r must support rewinding to its current offset).
//
// Vorbis identification is confirmed with the real Vorbis header parser
// rather than a bare magic-byte check, so a truncated or corrupt Vorbis
// header surfaces as a parse error instead of a false positive.
func ProbeCodec(r io.ReadSeeker) (string, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", err
	}
	defer func() { _, _ = r.Seek(start, io.SeekStart) }()

	demux, err := Open(r)
	if err != nil {
		return "", err
	}
	pkt, _, err := demux.ReadPacket()
	if err != nil {
		return "", err
	}

	if len(pkt) >= 8 && string(pkt[0:8]) == "OpusHead" {
		return "opus", nil
	}
	if len(pkt) >= 7 && pkt[0] == 0x01 && string(pkt[1:7]) == "vorbis" {
		dec := &vorbis.Decoder{}
		if err := dec.ReadHeader(pkt); err != nil {
			return "", err
		}
		return "vorbis", ErrVorbisNotSupported
	}
	return "", ErrUnknownCodec
}

// ErrUnknownCodec is returned when the first packet matches neither the
// Opus nor the Vorbis identification header.
var ErrUnknownCodec = errors.New("ogg: unknown codec (not opus or vorbis)")
