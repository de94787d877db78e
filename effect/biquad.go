package effect

import "math"

// biquad is a Direct-Form-I second-order IIR section, the building block
// for the graphic EQ's peaking bands and the crossover/subharmonic
// lowpass/highpass stages.
type biquad struct {
	b0, b1, b2, a1, a2 float32
	x1, x2, y1, y2     float32
}

func (bq *biquad) reset() {
	bq.x1, bq.x2, bq.y1, bq.y2 = 0, 0, 0, 0
}

func (bq *biquad) process(x float32) float32 {
	y := bq.b0*x + bq.b1*bq.x1 + bq.b2*bq.x2 - bq.a1*bq.y1 - bq.a2*bq.y2
	bq.x2, bq.x1 = bq.x1, x
	bq.y2, bq.y1 = bq.y1, y
	return y
}

// setPeaking configures bq as an RBJ peaking EQ section at freq Hz with the
// given Q and gain in dB.
func (bq *biquad) setPeaking(sampleRate, freq, q, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := 1 + alpha*a
	b1 := -2 * cosw0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosw0
	a2 := 1 - alpha/a

	bq.b0 = float32(b0 / a0)
	bq.b1 = float32(b1 / a0)
	bq.b2 = float32(b2 / a0)
	bq.a1 = float32(a1 / a0)
	bq.a2 = float32(a2 / a0)
}

// setLowpass configures bq as a Butterworth-Q lowpass at freq Hz.
func (bq *biquad) setLowpass(sampleRate, freq, q float64) {
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 - cosw0) / 2
	b1 := 1 - cosw0
	b2 := (1 - cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	bq.b0 = float32(b0 / a0)
	bq.b1 = float32(b1 / a0)
	bq.b2 = float32(b2 / a0)
	bq.a1 = float32(a1 / a0)
	bq.a2 = float32(a2 / a0)
}

// setHighpass configures bq as a Butterworth-Q highpass at freq Hz.
func (bq *biquad) setHighpass(sampleRate, freq, q float64) {
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 + cosw0) / 2
	b1 := -(1 + cosw0)
	b2 := (1 + cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	bq.b0 = float32(b0 / a0)
	bq.b1 = float32(b1 / a0)
	bq.b2 = float32(b2 / a0)
	bq.a1 = float32(a1 / a0)
	bq.a2 = float32(a2 / a0)
}
