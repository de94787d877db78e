package effect

// isoCenterFrequencies are the 31 ISO-standard one-third-octave band center
// frequencies, matching the preset format's graphicEQGains[31] field.
var isoCenterFrequencies = [31]float64{
	20, 25, 31.5, 40, 50, 63, 80, 100, 125, 160,
	200, 250, 315, 400, 500, 630, 800, 1000, 1250, 1600,
	2000, 2500, 3150, 4000, 5000, 6300, 8000, 10000, 12500, 16000, 20000,
}

// band is one channel's worth of filter state for one EQ band (stereo and
// beyond each get their own biquad per band per channel).
type band struct {
	filters []biquad // one per channel
	gainDB  float64
	q       float64
}

// GraphicEQ is a >=30-band parametric EQ built from cascaded peaking
// biquads, one per band per channel. SetAllGains replaces the gain array
// atomically (a fresh coefficient recompute, not a mid-block change).
type GraphicEQ struct {
	Base
	bands [len(isoCenterFrequencies)]band
}

// NewGraphicEQ returns a GraphicEQ with all bands at 0 dB and Q=1.4
// (roughly one-octave bandwidth).
func NewGraphicEQ() *GraphicEQ {
	eq := &GraphicEQ{Base: NewBase()}
	for i := range eq.bands {
		eq.bands[i].q = 1.4
	}
	return eq
}

func (e *GraphicEQ) Initialize(cfg Config) {
	e.Base.Initialize(cfg)
	for i := range e.bands {
		e.bands[i].filters = make([]biquad, cfg.Channels)
		e.recomputeBand(i)
	}
}

func (e *GraphicEQ) recomputeBand(i int) {
	sr := float64(e.Config().SampleRate)
	for c := range e.bands[i].filters {
		e.bands[i].filters[c].setPeaking(sr, isoCenterFrequencies[i], e.bands[i].q, e.bands[i].gainDB)
	}
}

// SetAllGains replaces every band's gain (dB) atomically, recomputing all
// filter coefficients. len(gains) should be 31; extra/missing entries are
// ignored/left at their prior value.
func (e *GraphicEQ) SetAllGains(gains []float64) {
	n := len(e.bands)
	if len(gains) < n {
		n = len(gains)
	}
	for i := 0; i < n; i++ {
		e.bands[i].gainDB = gains[i]
		e.recomputeBand(i)
	}
}

// SetBandGain sets a single band's gain in dB.
func (e *GraphicEQ) SetBandGain(band int, gainDB float64) {
	if band < 0 || band >= len(e.bands) {
		return
	}
	e.bands[band].gainDB = gainDB
	e.recomputeBand(band)
}

func (e *GraphicEQ) Process(buf []float32, nFrames int) {
	if e.Bypassed() {
		return
	}
	ch := e.Config().Channels
	mix := e.Mix()
	for i := 0; i < nFrames; i++ {
		for c := 0; c < ch; c++ {
			idx := i*ch + c
			dry := buf[idx]
			wet := dry
			for b := range e.bands {
				wet = e.bands[b].filters[c].process(wet)
			}
			buf[idx] = dry + mix*(wet-dry)
		}
	}
}

func (e *GraphicEQ) Reset() {
	for i := range e.bands {
		for c := range e.bands[i].filters {
			e.bands[i].filters[c].reset()
		}
	}
}

func (e *GraphicEQ) Dispose() {}
