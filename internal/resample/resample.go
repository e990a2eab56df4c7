// Package resample implements the fixed-ratio FFT resampler the playback
// engine uses to convert a decoder's native-rate interleaved f32 samples to
// the audio sink's device rate, preserving channel count.
//
// The ratio output_rate/input_rate is fixed once per track; frame counts
// per chunk are derived from it and never recomputed mid-track.
package resample

import (
	"errors"

	"github.com/thesyncim/gopus/celt"
)

// ErrChannelMismatch reports a channel-count mismatch; upmix/downmix is not
// implemented. Nothing in this package returns it: Reconfigure rebuilds the
// resampler for whatever channel count it is given.
var ErrChannelMismatch = errors.New("resample: channel count mismatch (upmix/downmix not implemented)")

// Resampler converts fixed-size chunks of interleaved input samples at
// inputRate to fixed-size chunks at outputRate via frequency-domain
// zero-pad/truncate resampling.
type Resampler struct {
	channels   int
	inputRate  int
	outputRate int

	chunkInputFrames  int
	chunkOutputFrames int

	fftIn  int // FFT size covering chunkInputFrames
	fftOut int // FFT size covering chunkOutputFrames

	fwdState *celt.KissFFT64State
	invState *celt.KissFFT64State

	decoderOut     []float32 // interleaved, chunkInputFrames*channels
	outInterleaved []float32 // interleaved, chunkOutputFrames*channels

	planarIn  [][]complex128 // per channel, length fftIn
	freq      [][]complex128 // per channel, length max(fftIn, fftOut)
	planarOut [][]complex128 // per channel, length fftOut
}

// New builds a Resampler for the given native/device rates and channel
// count. chunk_input_frames = input_rate/500 (2ms), per spec.
func New(inputRate, outputRate, channels int) (*Resampler, error) {
	r := &Resampler{}
	if err := r.configure(inputRate, outputRate, channels); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resampler) configure(inputRate, outputRate, channels int) error {
	chunkIn := inputRate / 500
	if chunkIn < 1 {
		chunkIn = 1
	}
	chunkOut := (chunkIn*outputRate + inputRate/2) / inputRate
	if chunkOut < 1 {
		chunkOut = 1
	}

	fftIn := nextSmooth5(chunkIn)
	fftOut := nextSmooth5(chunkOut)

	r.channels = channels
	r.inputRate = inputRate
	r.outputRate = outputRate
	r.chunkInputFrames = chunkIn
	r.chunkOutputFrames = chunkOut
	r.fftIn = fftIn
	r.fftOut = fftOut
	r.fwdState = celt.GetKissFFT64State(fftIn)
	r.invState = celt.GetKissFFT64State(fftOut)

	r.decoderOut = make([]float32, chunkIn*channels)
	r.outInterleaved = make([]float32, chunkOut*channels)

	r.planarIn = make([][]complex128, channels)
	r.planarOut = make([][]complex128, channels)
	r.freq = make([][]complex128, channels)
	for c := range channels {
		r.planarIn[c] = make([]complex128, fftIn)
		r.planarOut[c] = make([]complex128, fftOut)
		freqLen := fftIn
		if fftOut > freqLen {
			freqLen = fftOut
		}
		r.freq[c] = make([]complex128, freqLen)
	}
	return nil
}

// Reconfigure adapts the resampler to a new track by rebuilding its
// configuration, FFT states and buffers in full, whether or not the channel
// count changed.
func (r *Resampler) Reconfigure(inputRate, outputRate, channels int) error {
	if channels != r.channels {
		return r.configure(inputRate, outputRate, channels)
	}
	return r.configure(inputRate, outputRate, channels)
}

// ChunkInputFrames returns the fixed number of input frames fill() is
// expected to produce per cycle.
func (r *Resampler) ChunkInputFrames() int { return r.chunkInputFrames }

// ChunkOutputFrames returns the fixed number of output frames one cycle
// produces.
func (r *Resampler) ChunkOutputFrames() int { return r.chunkOutputFrames }

// DecoderOutBuffer exposes the scratch buffer the caller fills via
// decoder.Fill before calling Process.
func (r *Resampler) DecoderOutBuffer() []float32 { return r.decoderOut }

// Process resamples the frames currently sitting in DecoderOutBuffer and
// returns the interleaved output chunk (valid until the next call).
func (r *Resampler) Process() []float32 {
	ch := r.channels

	// Interleaved -> planar, zero-padded to the forward FFT size.
	for c := 0; c < ch; c++ {
		in := r.planarIn[c]
		for i := 0; i < r.fftIn; i++ {
			if i < r.chunkInputFrames {
				in[i] = complex(float64(r.decoderOut[i*ch+c]), 0)
			} else {
				in[i] = 0
			}
		}
	}

	for c := 0; c < ch; c++ {
		r.fwdState.KissFFT(r.planarIn[c], r.freq[c][:r.fftIn])
		r.remapSpectrum(r.freq[c])
		r.invState.KissIFFT(r.freq[c][:r.fftOut], r.planarOut[c])
	}

	scale := float64(r.fftOut) / float64(r.fftIn)
	for i := 0; i < r.chunkOutputFrames; i++ {
		for c := 0; c < ch; c++ {
			v := real(r.planarOut[c][i]) * scale
			r.outInterleaved[i*ch+c] = float32(v)
		}
	}
	return r.outInterleaved
}

// remapSpectrum relocates the forward-FFT bins (length fftIn, in the usual
// FFT bin order: 0, +1..+N/2, -N/2..-1) into the inverse-FFT-sized buffer
// in place, truncating high frequencies when downsampling or inserting
// zeros for frequencies that don't exist in the source when upsampling.
func (r *Resampler) remapSpectrum(buf []complex128) {
	n, m := r.fftIn, r.fftOut
	if n == m {
		return
	}

	src := make([]complex128, n)
	copy(src, buf[:n])

	out := buf[:m]
	for i := range out {
		out[i] = 0
	}

	half := min(n, m) / 2
	for k := 0; k <= half; k++ {
		out[k] = src[k]
		if k > 0 && k < half {
			out[m-k] = src[n-k]
		}
	}
}

// nextSmooth5 returns the smallest integer >= n whose only prime factors
// are 2, 3, and 5 (the radices KissFFT64State supports).
func nextSmooth5(n int) int {
	if n < 1 {
		n = 1
	}
	for candidate := n; ; candidate++ {
		if isSmooth5(candidate) {
			return candidate
		}
	}
}

func isSmooth5(n int) bool {
	for _, p := range [...]int{2, 3, 5} {
		for n%p == 0 {
			n /= p
		}
	}
	return n == 1
}
