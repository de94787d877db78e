package effect

// Delay is a fractional delay line with feedback and a one-pole damping
// filter in the feedback path, one line per channel.
type Delay struct {
	Base

	TimeMS   float64
	Feedback float64 // 0..<1
	Damping  float64 // 0..1, one-pole coefficient in the feedback path

	lines    [][]float32
	writePos []int
	damped   []float32
}

func NewDelay() *Delay {
	return &Delay{
		Base:     NewBase(),
		TimeMS:   300,
		Feedback: 0.35,
		Damping:  0.2,
	}
}

func (d *Delay) Initialize(cfg Config) {
	d.Base.Initialize(cfg)
	maxDelaySamples := cfg.SampleRate * 2 // support up to 2s delay
	if maxDelaySamples < 1 {
		maxDelaySamples = 1
	}
	d.lines = make([][]float32, cfg.Channels)
	d.writePos = make([]int, cfg.Channels)
	d.damped = make([]float32, cfg.Channels)
	for c := range d.lines {
		d.lines[c] = make([]float32, maxDelaySamples)
	}
}

func (d *Delay) delaySamples() float64 {
	return d.TimeMS / 1000 * float64(d.Config().SampleRate)
}

func (d *Delay) Process(buf []float32, nFrames int) {
	if d.Bypassed() {
		return
	}
	ch := d.Config().Channels
	mix := d.Mix()
	delaySamples := d.delaySamples()
	feedback := float32(d.Feedback)
	damping := float32(d.Damping)

	for i := 0; i < nFrames; i++ {
		for c := 0; c < ch; c++ {
			line := d.lines[c]
			n := len(line)
			if n == 0 {
				continue
			}

			readPosF := float64(d.writePos[c]) - delaySamples
			for readPosF < 0 {
				readPosF += float64(n)
			}
			idx0 := int(readPosF) % n
			idx1 := (idx0 + 1) % n
			frac := float32(readPosF - float64(int(readPosF)))
			delayed := line[idx0] + frac*(line[idx1]-line[idx0])

			d.damped[c] = d.damped[c] + damping*(delayed-d.damped[c])

			idx := i*ch + c
			dry := buf[idx]
			line[d.writePos[c]] = dry + d.damped[c]*feedback
			d.writePos[c] = (d.writePos[c] + 1) % n

			wet := dry + delayed
			buf[idx] = dry + mix*(wet-dry)
		}
	}
}

func (d *Delay) Reset() {
	for c := range d.lines {
		for i := range d.lines[c] {
			d.lines[c][i] = 0
		}
		d.writePos[c] = 0
		d.damped[c] = 0
	}
}

func (d *Delay) Dispose() {}
