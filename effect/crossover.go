package effect

// Crossover splits its input into low and high bands at FrequencyHz using
// a Linkwitz-Riley-equivalent 24dB/octave slope (two cascaded 2nd-order
// Butterworth sections per band, which sum back to a flat response). It
// exposes ProcessSplit for callers (the smart-master phase-align stage)
// that need both bands; Process (the Effect interface method) replaces buf
// with the low band only, so a Crossover can also sit in a plain Chain as
// a standalone lowpass-like node.
type Crossover struct {
	Base

	FrequencyHz float64

	lowStage1, lowStage2   []biquad
	highStage1, highStage2 []biquad
}

func NewCrossover() *Crossover {
	return &Crossover{
		Base:        NewBase(),
		FrequencyHz: 2000,
	}
}

func (x *Crossover) Initialize(cfg Config) {
	x.Base.Initialize(cfg)
	x.lowStage1 = make([]biquad, cfg.Channels)
	x.lowStage2 = make([]biquad, cfg.Channels)
	x.highStage1 = make([]biquad, cfg.Channels)
	x.highStage2 = make([]biquad, cfg.Channels)
	x.recompute()
}

func (x *Crossover) recompute() {
	sr := float64(x.Config().SampleRate)
	const q = 0.7071067811865476 // Butterworth Q; two cascaded stages yield Linkwitz-Riley
	for c := range x.lowStage1 {
		x.lowStage1[c].setLowpass(sr, x.FrequencyHz, q)
		x.lowStage2[c].setLowpass(sr, x.FrequencyHz, q)
		x.highStage1[c].setHighpass(sr, x.FrequencyHz, q)
		x.highStage2[c].setHighpass(sr, x.FrequencyHz, q)
	}
}

// SetFrequency updates the crossover point and recomputes all coefficients
// atomically.
func (x *Crossover) SetFrequency(hz float64) {
	x.FrequencyHz = hz
	x.recompute()
}

// ProcessSplit reads in (interleaved) and writes the low and high bands
// into the caller-provided buffers, which must be the same length as in.
func (x *Crossover) ProcessSplit(in, low, high []float32, nFrames int) {
	ch := x.Config().Channels
	for i := 0; i < nFrames; i++ {
		for c := 0; c < ch; c++ {
			idx := i*ch + c
			s := in[idx]
			low[idx] = x.lowStage2[c].process(x.lowStage1[c].process(s))
			high[idx] = x.highStage2[c].process(x.highStage1[c].process(s))
		}
	}
}

// Process implements the Effect interface by replacing buf with its low
// band only.
func (x *Crossover) Process(buf []float32, nFrames int) {
	if x.Bypassed() {
		return
	}
	mix := x.Mix()
	ch := x.Config().Channels
	for i := 0; i < nFrames; i++ {
		for c := 0; c < ch; c++ {
			idx := i*ch + c
			dry := buf[idx]
			wet := x.lowStage2[c].process(x.lowStage1[c].process(dry))
			buf[idx] = dry + mix*(wet-dry)
		}
	}
}

func (x *Crossover) Reset() {
	for c := range x.lowStage1 {
		x.lowStage1[c].reset()
		x.lowStage2[c].reset()
		x.highStage1[c].reset()
		x.highStage2[c].reset()
	}
}

func (x *Crossover) Dispose() {}
