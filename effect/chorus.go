package effect

// Chorus is a modulated delay line with an LFO per voice; voices beyond
// the first are phase-offset copies summed together. Uses the shared
// fastSin lookup table for the LFO, matching the teacher's oscillator
// style.
type Chorus struct {
	Base

	RateHz  float64
	DepthMS float64
	Voices  int

	lines    [][]float32
	writePos []int
	phase    []float32 // one phase accumulator per channel per voice, flattened
}

func NewChorus() *Chorus {
	return &Chorus{
		Base:    NewBase(),
		RateHz:  0.5,
		DepthMS: 3,
		Voices:  2,
	}
}

func (c *Chorus) Initialize(cfg Config) {
	c.Base.Initialize(cfg)
	maxDelaySamples := int(0.05*float64(cfg.SampleRate)) + 1 // 50ms max line
	c.lines = make([][]float32, cfg.Channels)
	c.writePos = make([]int, cfg.Channels)
	if c.Voices < 1 {
		c.Voices = 1
	}
	c.phase = make([]float32, cfg.Channels*c.Voices)
	for i := range c.phase {
		c.phase[i] = float32(i) * (twoPi / float32(c.Voices+1))
	}
	for ch := range c.lines {
		c.lines[ch] = make([]float32, maxDelaySamples)
	}
}

func (c *Chorus) Process(buf []float32, nFrames int) {
	if c.Bypassed() {
		return
	}
	ch := c.Config().Channels
	mix := c.Mix()
	sr := float32(c.Config().SampleRate)
	phaseInc := twoPi * float32(c.RateHz) / sr
	depthSamples := float32(c.DepthMS) / 1000 * sr
	centerSamples := depthSamples + 2

	for i := 0; i < nFrames; i++ {
		for cix := 0; cix < ch; cix++ {
			line := c.lines[cix]
			n := len(line)
			idx := i*ch + cix
			dry := buf[idx]

			line[c.writePos[cix]] = dry
			c.writePos[cix] = (c.writePos[cix] + 1) % n

			var voiceSum float32
			for v := 0; v < c.Voices; v++ {
				p := &c.phase[cix*c.Voices+v]
				lfo := fastSin(*p)
				*p += phaseInc
				if *p >= twoPi {
					*p -= twoPi
				}

				delaySamples := centerSamples + lfo*depthSamples
				readPosF := float64(c.writePos[cix]) - float64(delaySamples)
				for readPosF < 0 {
					readPosF += float64(n)
				}
				idx0 := int(readPosF) % n
				idx1 := (idx0 + 1) % n
				frac := float32(readPosF - float64(int(readPosF)))
				voiceSum += line[idx0] + frac*(line[idx1]-line[idx0])
			}
			voiceSum /= float32(c.Voices)

			wet := dry + voiceSum
			buf[idx] = dry + mix*(wet-dry)
		}
	}
}

func (c *Chorus) Reset() {
	for ch := range c.lines {
		for i := range c.lines[ch] {
			c.lines[ch][i] = 0
		}
		c.writePos[ch] = 0
	}
	for i := range c.phase {
		c.phase[i] = float32(i) * (twoPi / float32(c.Voices+1))
	}
}

func (c *Chorus) Dispose() {}
