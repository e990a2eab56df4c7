package secondary

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
	gomp3 "github.com/llehouerou/go-mp3"
)

var faad2Ctx = context.Background()

// mp3Stream adapts llehouerou/go-mp3 to beep.StreamSeekCloser.
type mp3Stream struct {
	decoder *gomp3.Decoder
	closer  io.Closer
	err     error
	readBuf []byte
}

func (s *mp3Stream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}

	bytesNeeded := len(samples) * 4
	if len(s.readBuf) < bytesNeeded {
		s.readBuf = make([]byte, bytesNeeded)
	}

	bytesRead, err := io.ReadFull(s.decoder, s.readBuf[:bytesNeeded])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.err = err
		return 0, false
	}

	samplesRead := bytesRead / 4
	if samplesRead == 0 {
		return 0, false
	}

	for i := 0; i < samplesRead; i++ {
		offset := i * 4
		left := int16(binary.LittleEndian.Uint16(s.readBuf[offset:]))
		right := int16(binary.LittleEndian.Uint16(s.readBuf[offset+2:]))
		samples[i][0] = float64(left) / 32768.0
		samples[i][1] = float64(right) / 32768.0
	}
	return samplesRead, true
}

func (s *mp3Stream) Err() error { return s.err }

func (s *mp3Stream) Len() int {
	count := s.decoder.SampleCount()
	if count < 0 {
		return 0
	}
	return int(count)
}

func (s *mp3Stream) Position() int { return int(s.decoder.SamplePosition()) }

func (s *mp3Stream) Seek(p int) error {
	if p < 0 {
		p = 0
	}
	if err := s.decoder.SeekToSample(int64(p)); err != nil {
		return err
	}
	s.err = nil
	return nil
}

func (s *mp3Stream) Close() error { return s.closer.Close() }

// m4aStream adapts go-m4a's container plus an AAC (go-faad2) or ALAC
// decoder to beep.StreamSeekCloser.
type m4aStream struct {
	container  *m4a.Reader
	closer     io.Closer
	codecType  m4a.CodecType
	channels   int
	sampleSize int
	totalLen   int
	currentIdx int
	err        error

	aacDecoder  *faad2.Decoder
	alacDecoder *alac.Alac

	pcmBuffer [][2]float64
	pcmOffset int
}

func (s *m4aStream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}

	for n < len(samples) {
		if s.pcmOffset < len(s.pcmBuffer) {
			for n < len(samples) && s.pcmOffset < len(s.pcmBuffer) {
				samples[n] = s.pcmBuffer[s.pcmOffset]
				s.pcmOffset++
				n++
			}
			continue
		}

		if s.currentIdx >= s.container.SampleCount() {
			if n > 0 {
				return n, true
			}
			return 0, false
		}

		sampleData, err := s.container.ReadSample(s.currentIdx)
		if err != nil {
			s.err = err
			return n, n > 0
		}
		s.currentIdx++

		switch s.codecType {
		case m4a.CodecAAC:
			pcm, err := s.aacDecoder.Decode(faad2Ctx, sampleData)
			if err != nil {
				s.err = err
				return n, n > 0
			}
			s.pcmBuffer = int16ToFloat64Stereo(pcm, s.channels)
		case m4a.CodecALAC:
			raw := s.alacDecoder.Decode(sampleData)
			s.pcmBuffer = alacBytesToFloat64Stereo(raw, s.channels, s.sampleSize)
		default:
			s.err = errors.New("secondary: unsupported m4a codec")
			return n, n > 0
		}
		s.pcmOffset = 0
	}
	return n, true
}

func (s *m4aStream) Err() error { return s.err }

func (s *m4aStream) Len() int { return s.totalLen }

func (s *m4aStream) Position() int {
	pos := s.container.SampleTime(s.currentIdx)
	return int(pos.Seconds() * float64(s.container.SampleRate()))
}

func (s *m4aStream) Seek(p int) error {
	if p < 0 {
		p = 0
	}
	if p > s.totalLen {
		p = s.totalLen
	}
	sampleRate := s.container.SampleRate()
	pos := time.Duration(float64(p) / float64(sampleRate) * float64(time.Second))
	s.currentIdx = s.container.SeekToTime(pos)
	s.pcmBuffer = nil
	s.pcmOffset = 0
	s.err = nil
	return nil
}

func (s *m4aStream) Close() error {
	if s.aacDecoder != nil {
		s.aacDecoder.Close(faad2Ctx)
	}
	return s.closer.Close()
}

func int16ToFloat64Stereo(pcm []int16, channels int) [][2]float64 {
	if channels == 2 {
		frames := make([][2]float64, len(pcm)/2)
		for i := range frames {
			frames[i][0] = float64(pcm[i*2]) / 32768.0
			frames[i][1] = float64(pcm[i*2+1]) / 32768.0
		}
		return frames
	}
	frames := make([][2]float64, len(pcm))
	for i, sample := range pcm {
		v := float64(sample) / 32768.0
		frames[i][0] = v
		frames[i][1] = v
	}
	return frames
}

func alacBytesToFloat64Stereo(data []byte, channels, sampleSize int) [][2]float64 {
	if sampleSize == 24 {
		bytesPerFrame := 3 * channels
		if bytesPerFrame == 0 {
			return nil
		}
		frameCount := len(data) / bytesPerFrame
		frames := make([][2]float64, frameCount)
		for i := range frameCount {
			offset := i * bytesPerFrame
			left := int32(data[offset]) | int32(data[offset+1])<<8 | int32(data[offset+2])<<16
			if left&0x800000 != 0 {
				left |= ^0xFFFFFF
			}
			right := left
			if channels == 2 {
				right = int32(data[offset+3]) | int32(data[offset+4])<<8 | int32(data[offset+5])<<16
				if right&0x800000 != 0 {
					right |= ^0xFFFFFF
				}
			}
			frames[i][0] = float64(left) / 8388608.0
			frames[i][1] = float64(right) / 8388608.0
		}
		return frames
	}

	bytesPerFrame := 2 * channels
	if bytesPerFrame == 0 {
		return nil
	}
	frameCount := len(data) / bytesPerFrame
	frames := make([][2]float64, frameCount)
	for i := range frameCount {
		offset := i * bytesPerFrame
		left := int16(data[offset]) | int16(data[offset+1])<<8
		right := left
		if channels == 2 {
			right = int16(data[offset+2]) | int16(data[offset+3])<<8
		}
		frames[i][0] = float64(left) / 32768.0
		frames[i][1] = float64(right) / 32768.0
	}
	return frames
}
