package effect

import "math"

// DynamicAmp is a program-dependent automatic gain stage with slow
// ballistics: it estimates long-term RMS loudness and nudges gain toward a
// target loudness over many seconds, avoiding the audible pumping a fast
// compressor would cause.
type DynamicAmp struct {
	Base

	TargetLoudnessDB float64
	BallisticsMS      float64 // time constant, typically several seconds

	ballisticsCoeff float32
	rmsEnvelope     float32
	currentGainDB   float32
}

func NewDynamicAmp() *DynamicAmp {
	return &DynamicAmp{
		Base:             NewBase(),
		TargetLoudnessDB: -16,
		BallisticsMS:     3000,
	}
}

func (d *DynamicAmp) Initialize(cfg Config) {
	d.Base.Initialize(cfg)
	d.recompute()
}

func (d *DynamicAmp) recompute() {
	sr := float64(d.Config().SampleRate)
	if sr == 0 {
		sr = 48000
	}
	d.ballisticsCoeff = float32(math.Exp(-1 / (d.BallisticsMS / 1000 * sr)))
}

// SetBallistics updates the ballistics time constant and recomputes the
// smoothing coefficient atomically.
func (d *DynamicAmp) SetBallistics(ms float64) {
	d.BallisticsMS = ms
	d.recompute()
}

func (d *DynamicAmp) Process(buf []float32, nFrames int) {
	if d.Bypassed() {
		return
	}
	ch := d.Config().Channels
	mix := d.Mix()

	for i := 0; i < nFrames; i++ {
		var sumSq float32
		for c := 0; c < ch; c++ {
			s := buf[i*ch+c]
			sumSq += s * s
		}
		frameRMS := float32(math.Sqrt(float64(sumSq / float32(ch))))
		d.rmsEnvelope = d.ballisticsCoeff*d.rmsEnvelope + (1-d.ballisticsCoeff)*frameRMS

		currentDB := linearToDB(d.rmsEnvelope)
		targetGainDB := float32(d.TargetLoudnessDB) - float32(currentDB)
		d.currentGainDB = d.ballisticsCoeff*d.currentGainDB + (1-d.ballisticsCoeff)*targetGainDB

		gain := dbToLinear(float64(d.currentGainDB))
		for c := 0; c < ch; c++ {
			idx := i*ch + c
			dry := buf[idx]
			wet := dry * gain
			buf[idx] = dry + mix*(wet-dry)
		}
	}
}

func (d *DynamicAmp) Reset() {
	d.rmsEnvelope = 0
	d.currentGainDB = 0
}

func (d *DynamicAmp) Dispose() {}
