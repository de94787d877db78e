package effect

// Reverb is a Schroeder/Freeverb-style reverb: four parallel comb filters
// feeding two series allpass filters, preceded by a short pre-delay. Comb
// delay lengths and decay factors are ported from the teacher's
// SoundChip.applyReverb, generalized to run per-channel with a
// stereo-width control rather than the teacher's fixed mono network.
type Reverb struct {
	Base

	Size        float64 // 0..1, scales comb decay
	Damp        float64 // 0..1, one-pole damping in each comb's feedback
	Wet         float64
	Dry         float64
	StereoWidth float64 // 0..1
	// The spec's per-node "mix" parameter is Base's atomic Mix()/SetMix().

	preDelayMS float64

	perChannel []reverbChannel
}

type reverbChannel struct {
	preDelay     []float32
	preDelayPos  int
	combs        [4]combFilter
	allpass      [2]allpassFilter
}

var combDelays = [4]int{1687, 1601, 2053, 2251}
var combDecays = [4]float64{0.97, 0.95, 0.93, 0.91}
var allpassDelays = [2]int{389, 307}
var allpassCoeff = float32(0.5)

type combFilter struct {
	buf    []float32
	pos    int
	decay  float32
	damp   float32
	filterState float32
}

func (c *combFilter) process(x float32) float32 {
	out := c.buf[c.pos]
	c.filterState = out*(1-c.damp) + c.filterState*c.damp
	c.buf[c.pos] = x + c.filterState*c.decay
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

type allpassFilter struct {
	buf []float32
	pos int
}

func (a *allpassFilter) process(x float32) float32 {
	bufOut := a.buf[a.pos]
	y := -x + bufOut
	a.buf[a.pos] = x + bufOut*allpassCoeff
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return y
}

func NewReverb() *Reverb {
	return &Reverb{
		Base:        NewBase(),
		Size:        0.5,
		Damp:        0.5,
		Wet:         0.3,
		Dry:         0.7,
		StereoWidth: 1.0,
		preDelayMS:  8,
	}
}

func (r *Reverb) Initialize(cfg Config) {
	r.Base.Initialize(cfg)
	sr := cfg.SampleRate
	preDelaySamples := int(r.preDelayMS / 1000 * float64(sr))
	if preDelaySamples < 1 {
		preDelaySamples = 1
	}

	r.perChannel = make([]reverbChannel, cfg.Channels)
	for c := range r.perChannel {
		rc := &r.perChannel[c]
		rc.preDelay = make([]float32, preDelaySamples)
		for i, d := range combDelays {
			rc.combs[i] = combFilter{
				buf:   make([]float32, d),
				decay: float32(combDecays[i]) * float32(r.Size),
				damp:  float32(r.Damp),
			}
		}
		for i, d := range allpassDelays {
			rc.allpass[i] = allpassFilter{buf: make([]float32, d)}
		}
	}
}

func (r *Reverb) Process(buf []float32, nFrames int) {
	if r.Bypassed() {
		return
	}
	ch := r.Config().Channels
	mix := r.Mix()
	wet := float32(r.Wet)
	dry := float32(r.Dry)

	for i := 0; i < nFrames; i++ {
		for c := 0; c < ch; c++ {
			rc := &r.perChannel[c]
			idx := i*ch + c
			input := buf[idx]

			n := len(rc.preDelay)
			delayed := rc.preDelay[rc.preDelayPos]
			rc.preDelay[rc.preDelayPos] = input
			rc.preDelayPos = (rc.preDelayPos + 1) % n

			var sum float32
			for ci := range rc.combs {
				sum += rc.combs[ci].process(delayed)
			}
			sum /= float32(len(rc.combs))

			for ai := range rc.allpass {
				sum = rc.allpass[ai].process(sum)
			}

			outWet := dry*input + wet*sum
			buf[idx] = input + mix*(outWet-input)
		}
	}

	if ch == 2 && r.StereoWidth < 1 {
		width := float32(r.StereoWidth)
		for i := 0; i < nFrames; i++ {
			l := buf[i*2]
			rr := buf[i*2+1]
			mid := (l + rr) / 2
			buf[i*2] = mid + (l-mid)*width
			buf[i*2+1] = mid + (rr-mid)*width
		}
	}
}

func (r *Reverb) Reset() {
	for c := range r.perChannel {
		rc := &r.perChannel[c]
		for i := range rc.preDelay {
			rc.preDelay[i] = 0
		}
		for ci := range rc.combs {
			for i := range rc.combs[ci].buf {
				rc.combs[ci].buf[i] = 0
			}
			rc.combs[ci].filterState = 0
		}
		for ai := range rc.allpass {
			for i := range rc.allpass[ai].buf {
				rc.allpass[ai].buf[i] = 0
			}
		}
	}
}

func (r *Reverb) Dispose() {}
