package effect

// PhaseAligner applies a per-channel fractional delay (to correct driver/
// speaker time-of-flight offsets) and an optional polarity invert, used by
// the smart-master chain's per-band alignment stage.
type PhaseAligner struct {
	Base

	DelayMS []float64 // per channel
	Invert  []bool    // per channel

	lines    [][]float32
	writePos []int
}

func NewPhaseAligner() *PhaseAligner {
	return &PhaseAligner{Base: NewBase()}
}

func (p *PhaseAligner) Initialize(cfg Config) {
	p.Base.Initialize(cfg)
	if len(p.DelayMS) != cfg.Channels {
		p.DelayMS = make([]float64, cfg.Channels)
	}
	if len(p.Invert) != cfg.Channels {
		p.Invert = make([]bool, cfg.Channels)
	}
	maxDelaySamples := int(0.05*float64(cfg.SampleRate)) + 1
	p.lines = make([][]float32, cfg.Channels)
	p.writePos = make([]int, cfg.Channels)
	for c := range p.lines {
		p.lines[c] = make([]float32, maxDelaySamples)
	}
}

func (p *PhaseAligner) Process(buf []float32, nFrames int) {
	if p.Bypassed() {
		return
	}
	ch := p.Config().Channels
	mix := p.Mix()
	sr := float64(p.Config().SampleRate)

	for i := 0; i < nFrames; i++ {
		for c := 0; c < ch; c++ {
			line := p.lines[c]
			n := len(line)
			idx := i*ch + c
			dry := buf[idx]

			line[p.writePos[c]] = dry
			p.writePos[c] = (p.writePos[c] + 1) % n

			delaySamples := p.DelayMS[c] / 1000 * sr
			readPosF := float64(p.writePos[c]) - delaySamples
			for readPosF < 0 {
				readPosF += float64(n)
			}
			idx0 := int(readPosF) % n
			idx1 := (idx0 + 1) % n
			frac := float32(readPosF - float64(int(readPosF)))
			delayed := line[idx0] + frac*(line[idx1]-line[idx0])

			if p.Invert[c] {
				delayed = -delayed
			}

			buf[idx] = dry + mix*(delayed-dry)
		}
	}
}

func (p *PhaseAligner) Reset() {
	for c := range p.lines {
		for i := range p.lines[c] {
			p.lines[c][i] = 0
		}
		p.writePos[c] = 0
	}
}

func (p *PhaseAligner) Dispose() {}
