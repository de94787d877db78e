package effect

import "math"

// Limiter is a brick-wall peak limiter: once the envelope exceeds
// threshold, gain is reduced so the output never exceeds ceiling, released
// over ReleaseMS. No lookahead (optional per spec, omitted here for a
// zero-added-latency render path).
type Limiter struct {
	Base

	ThresholdDB float64
	CeilingDB   float64
	ReleaseMS   float64

	releaseCoeff float32
	gainReduction float32 // current applied reduction, linear, <=1
}

func NewLimiter() *Limiter {
	return &Limiter{
		Base:        NewBase(),
		ThresholdDB: -1,
		CeilingDB:   -0.3,
		ReleaseMS:   50,
		gainReduction: 1,
	}
}

func (l *Limiter) Initialize(cfg Config) {
	l.Base.Initialize(cfg)
	l.recompute()
}

func (l *Limiter) recompute() {
	sr := float64(l.Config().SampleRate)
	if sr == 0 {
		sr = 48000
	}
	// exp(-1/(t*sr)) one-pole release coefficient, consistent with the
	// compressor's envelope smoother.
	l.releaseCoeff = float32(math.Exp(-1 / (l.ReleaseMS / 1000 * sr)))
}

func (l *Limiter) Process(buf []float32, nFrames int) {
	if l.Bypassed() {
		return
	}
	ch := l.Config().Channels
	mix := l.Mix()
	ceiling := dbToLinear(l.CeilingDB)
	threshold := dbToLinear(l.ThresholdDB)

	for i := 0; i < nFrames; i++ {
		var peak float32
		for c := 0; c < ch; c++ {
			a := buf[i*ch+c]
			if a < 0 {
				a = -a
			}
			if a > peak {
				peak = a
			}
		}

		target := float32(1)
		if peak > threshold {
			target = ceiling / peak
			if target > 1 {
				target = 1
			}
		}

		if target < l.gainReduction {
			l.gainReduction = target // instant attack - never exceed ceiling
		} else {
			l.gainReduction = l.releaseCoeff*l.gainReduction + (1-l.releaseCoeff)*target
			if l.gainReduction > 1 {
				l.gainReduction = 1
			}
		}

		for c := 0; c < ch; c++ {
			idx := i*ch + c
			dry := buf[idx]
			wet := dry * l.gainReduction
			buf[idx] = dry + mix*(wet-dry)
		}
	}
}

func (l *Limiter) Reset()   { l.gainReduction = 1 }
func (l *Limiter) Dispose() {}
