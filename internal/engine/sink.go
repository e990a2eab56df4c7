package engine

// BeepStreamer adapts Engine.Fill to github.com/gopxl/beep/v2's
// Streamer interface (Stream(samples [][2]float64) (n int, ok bool)) so
// the demo binary can drive the engine through beep/speaker, the concrete
// AudioSink spec.md §6 leaves unspecified.
type BeepStreamer struct {
	eng     *Engine
	scratch []float32
}

// NewBeepStreamer wraps eng for use as a beep.Streamer. eng must be
// configured for 2 channels.
func NewBeepStreamer(eng *Engine) *BeepStreamer {
	return &BeepStreamer{eng: eng}
}

// Stream fills samples with the engine's next frames. Always returns
// ok=true: the engine never signals end-of-stream through this contract,
// it pauses and emits silence instead, matching spec.md §4.5's
// never-block/always-return-a-full-buffer guarantee.
func (s *BeepStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	need := len(samples) * 2
	if cap(s.scratch) < need {
		s.scratch = make([]float32, need)
	}
	buf := s.scratch[:need]
	s.eng.Fill(buf)
	for i := range samples {
		samples[i][0] = float64(buf[i*2])
		samples[i][1] = float64(buf[i*2+1])
	}
	return len(samples), true
}

// Err always returns nil: the engine surfaces no terminal error through
// this contract (see spec.md §7, "never fatal").
func (s *BeepStreamer) Err() error { return nil }
