package smartmaster

import (
	"github.com/ModernMube/ownaudio/effect"
)

// phaseAlignActive reports whether p carries any non-identity per-channel
// delay or polarity invert, the trigger for inserting the crossover/
// phase-align split stage into the built chain.
func phaseAlignActive(p Preset) bool {
	for _, d := range p.TimeDelays {
		if d != 0 {
			return true
		}
	}
	for _, inv := range p.PhaseInvert {
		if inv {
			return true
		}
	}
	return false
}

// BuildChain composes a preset into an ordered effect.Chain: Graphic EQ ->
// optional Subharmonic -> optional Compressor -> optional phase-align split
// (a single composed node wrapping a crossover and three phase aligners) ->
// Limiter. Every node is Initialize'd against cfg before being added, so
// the returned chain is immediately safe to call Process on.
func BuildChain(cfg effect.Config, p Preset) *effect.Chain {
	chain := effect.NewChain()

	eq := effect.NewGraphicEQ()
	eq.Initialize(cfg)
	eq.SetAllGains(p.GraphicEQGains[:])
	chain.Add(eq)

	if p.SubharmonicEnabled {
		sub := effect.NewSubharmonic()
		sub.SetCutoff(p.SubharmonicFreqRange)
		sub.Initialize(cfg)
		sub.SetMix(float32(p.SubharmonicMix))
		chain.Add(sub)
	}

	if p.CompressorEnabled {
		comp := effect.NewCompressor()
		comp.SetParams(p.CompressorThreshold, p.CompressorRatio, p.CompressorAttack, p.CompressorRelease, 0)
		comp.Initialize(cfg)
		chain.Add(comp)
	}

	if phaseAlignActive(p) {
		split := newPhaseSplit(p)
		split.Initialize(cfg)
		chain.Add(split)
	}

	lim := effect.NewLimiter()
	lim.ThresholdDB = p.LimiterThreshold
	lim.CeilingDB = p.LimiterCeiling
	lim.ReleaseMS = p.LimiterRelease
	lim.Initialize(cfg)
	chain.Add(lim)

	return chain
}

// phaseSplit is the composed node behind BuildChain's phase-align stage:
// a crossover splits the bus into low/high bands, the high band's left and
// right channels and the low band's mono-summed content ("mono_sub") each
// get their own phase aligner, and the three aligned streams are summed
// back into the output buffer. It satisfies effect.Effect so it can sit in
// a plain Chain alongside the EQ/compressor/limiter nodes even though its
// own Process fans out internally.
type phaseSplit struct {
	effect.Base

	preset Preset

	crossover *effect.Crossover
	alignL    *effect.PhaseAligner
	alignR    *effect.PhaseAligner
	alignSub  *effect.PhaseAligner

	low, high        []float32 // interleaved scratch, full channel count
	monoSub          []float32
	highL, highR     []float32
	outL, outR, outS []float32
}

func newPhaseSplit(p Preset) *phaseSplit {
	s := &phaseSplit{Base: effect.NewBase(), preset: p}
	s.crossover = effect.NewCrossover()
	s.crossover.SetFrequency(p.CrossoverFrequency)
	s.alignL = effect.NewPhaseAligner()
	s.alignR = effect.NewPhaseAligner()
	s.alignSub = effect.NewPhaseAligner()
	return s
}

func (s *phaseSplit) Initialize(cfg effect.Config) {
	s.Base.Initialize(cfg)
	s.crossover.Initialize(cfg)

	mono := effect.Config{SampleRate: cfg.SampleRate, Channels: 1, MaxBlockFrames: cfg.MaxBlockFrames}
	s.alignL.Initialize(mono)
	s.alignR.Initialize(mono)
	s.alignSub.Initialize(mono)

	delay := func(i int) float64 {
		if i < len(s.preset.TimeDelays) {
			return s.preset.TimeDelays[i]
		}
		return 0
	}
	invert := func(i int) bool {
		if i < len(s.preset.PhaseInvert) {
			return s.preset.PhaseInvert[i]
		}
		return false
	}
	s.alignL.DelayMS[0], s.alignL.Invert[0] = delay(0), invert(0)
	s.alignR.DelayMS[0], s.alignR.Invert[0] = delay(1), invert(1)
	s.alignSub.DelayMS[0], s.alignSub.Invert[0] = delay(2), invert(2)

	n := cfg.MaxBlockFrames
	ch := cfg.Channels
	s.low = make([]float32, n*ch)
	s.high = make([]float32, n*ch)
	s.monoSub = make([]float32, n)
	s.highL = make([]float32, n)
	s.highR = make([]float32, n)
	s.outL = make([]float32, n)
	s.outR = make([]float32, n)
	s.outS = make([]float32, n)
}

func (s *phaseSplit) Process(buf []float32, nFrames int) {
	if s.Bypassed() {
		return
	}
	ch := s.Config().Channels
	low := s.low[:nFrames*ch]
	high := s.high[:nFrames*ch]
	s.crossover.ProcessSplit(buf, low, high, nFrames)

	monoSub := s.monoSub[:nFrames]
	for i := 0; i < nFrames; i++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += low[i*ch+c]
		}
		monoSub[i] = sum / float32(ch)
	}

	highL := s.highL[:nFrames]
	highR := s.highR[:nFrames]
	for i := 0; i < nFrames; i++ {
		highL[i] = high[i*ch]
		if ch > 1 {
			highR[i] = high[i*ch+1]
		} else {
			highR[i] = high[i*ch]
		}
	}

	outL, outR, outS := s.outL[:nFrames], s.outR[:nFrames], s.outS[:nFrames]
	copy(outL, highL)
	copy(outR, highR)
	copy(outS, monoSub)
	s.alignL.Process(outL, nFrames)
	s.alignR.Process(outR, nFrames)
	s.alignSub.Process(outS, nFrames)

	mix := s.Mix()
	for i := 0; i < nFrames; i++ {
		wetL := outL[i] + outS[i]
		wetR := outR[i] + outS[i]
		dryL := buf[i*ch]
		buf[i*ch] = dryL + mix*(wetL-dryL)
		if ch > 1 {
			dryR := buf[i*ch+1]
			buf[i*ch+1] = dryR + mix*(wetR-dryR)
		}
	}
}

func (s *phaseSplit) Reset() {
	s.crossover.Reset()
	s.alignL.Reset()
	s.alignR.Reset()
	s.alignSub.Reset()
}

func (s *phaseSplit) Dispose() {}
