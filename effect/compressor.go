package effect

import "math"

// Compressor is a feedforward peak-envelope compressor with a one-pole
// attack/release smoother and static makeup gain, following the envelope-
// follower idiom used by the teacher's ADSR-driven amplitude shaping.
type Compressor struct {
	Base

	ThresholdDB float64
	Ratio       float64 // e.g. 4 means 4:1
	AttackMS    float64
	ReleaseMS   float64
	MakeupDB    float64

	attackCoeff, releaseCoeff float32
	envelope                  float32
}

func NewCompressor() *Compressor {
	return &Compressor{
		Base:        NewBase(),
		ThresholdDB: -18,
		Ratio:       4,
		AttackMS:    10,
		ReleaseMS:   100,
	}
}

func (c *Compressor) Initialize(cfg Config) {
	c.Base.Initialize(cfg)
	c.recomputeCoeffs()
}

func (c *Compressor) recomputeCoeffs() {
	sr := float64(c.Config().SampleRate)
	if sr == 0 {
		sr = 48000
	}
	c.attackCoeff = float32(math.Exp(-1 / (c.AttackMS / 1000 * sr)))
	c.releaseCoeff = float32(math.Exp(-1 / (c.ReleaseMS / 1000 * sr)))
}

// SetParams updates all parameters atomically (single coefficient
// recompute) to avoid a half-updated envelope.
func (c *Compressor) SetParams(thresholdDB, ratio, attackMS, releaseMS, makeupDB float64) {
	c.ThresholdDB = thresholdDB
	c.Ratio = ratio
	c.AttackMS = attackMS
	c.ReleaseMS = releaseMS
	c.MakeupDB = makeupDB
	c.recomputeCoeffs()
}

func linearToDB(x float32) float64 {
	if x <= 0 {
		return -100
	}
	return 20 * math.Log10(float64(x))
}

func dbToLinear(db float64) float32 {
	return float32(math.Pow(10, db/20))
}

func (c *Compressor) Process(buf []float32, nFrames int) {
	if c.Bypassed() {
		return
	}
	ch := c.Config().Channels
	mix := c.Mix()
	makeup := dbToLinear(c.MakeupDB)

	for i := 0; i < nFrames; i++ {
		// Detect on the loudest channel in this frame (RMS of abs here
		// approximated by peak, cheap and adequate for a feedforward
		// gain-reduction stage).
		var peak float32
		for ch2 := 0; ch2 < ch; ch2++ {
			a := buf[i*ch+ch2]
			if a < 0 {
				a = -a
			}
			if a > peak {
				peak = a
			}
		}

		if peak > c.envelope {
			c.envelope = c.attackCoeff*c.envelope + (1-c.attackCoeff)*peak
		} else {
			c.envelope = c.releaseCoeff*c.envelope + (1-c.releaseCoeff)*peak
		}

		levelDB := linearToDB(c.envelope)
		gainDB := 0.0
		if levelDB > c.ThresholdDB {
			over := levelDB - c.ThresholdDB
			gainDB = over/c.Ratio - over
		}
		gain := dbToLinear(gainDB) * makeup

		for c2 := 0; c2 < ch; c2++ {
			idx := i*ch + c2
			dry := buf[idx]
			wet := dry * gain
			buf[idx] = dry + mix*(wet-dry)
		}
	}
}

func (c *Compressor) Reset() { c.envelope = 0 }
func (c *Compressor) Dispose() {}
