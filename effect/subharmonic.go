package effect

// Subharmonic lowpass-filters the input below CutoffHz, half-wave
// rectifies that low band and adds it back onto the signal, blended in at
// Mix. Rectifying adds a DC offset and harmonics of the low band; there is
// no pitch tracking and no octave-down divider.
type Subharmonic struct {
	Base

	CutoffHz float64

	lowpass []biquad
}

func NewSubharmonic() *Subharmonic {
	return &Subharmonic{Base: NewBase(), CutoffHz: 100}
}

func (s *Subharmonic) Initialize(cfg Config) {
	s.Base.Initialize(cfg)
	s.lowpass = make([]biquad, cfg.Channels)
	s.recompute()
}

func (s *Subharmonic) recompute() {
	sr := float64(s.Config().SampleRate)
	for c := range s.lowpass {
		s.lowpass[c].setLowpass(sr, s.CutoffHz, 0.707)
	}
}

// SetCutoff updates the cutoff frequency and recomputes filter
// coefficients atomically.
func (s *Subharmonic) SetCutoff(hz float64) {
	s.CutoffHz = hz
	s.recompute()
}

func (s *Subharmonic) Process(buf []float32, nFrames int) {
	if s.Bypassed() {
		return
	}
	ch := s.Config().Channels
	mix := s.Mix()

	for i := 0; i < nFrames; i++ {
		for c := 0; c < ch; c++ {
			idx := i*ch + c
			dry := buf[idx]
			low := s.lowpass[c].process(dry)
			rectified := low
			if rectified < 0 {
				rectified = 0
			}
			wet := dry + rectified
			buf[idx] = dry + mix*(wet-dry)
		}
	}
}

func (s *Subharmonic) Reset() {
	for c := range s.lowpass {
		s.lowpass[c].reset()
	}
}

func (s *Subharmonic) Dispose() {}
