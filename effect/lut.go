package effect

import "math"

// Lookup tables for the hot-path oscillator/saturation helpers. fastSin
// drives the chorus LFO; fastTanh is not called by any effect in this
// package. Sizes and interpolation scheme follow the teacher's own
// lookup-table approach for the same two functions.
const (
	sinLUTSize  = 8192
	sinLUTMask  = sinLUTSize - 1
	tanhLUTSize = 4096
	tanhLUTMin  = float32(-4.0)
	tanhLUTMax  = float32(4.0)

	twoPi = float32(2 * math.Pi)
)

const (
	sinLUTScale  = float32(sinLUTSize) / twoPi
	tanhLUTScale = float32(tanhLUTSize-1) / (tanhLUTMax - tanhLUTMin)
)

var sinLUT [sinLUTSize]float32
var tanhLUT [tanhLUTSize]float32

func init() {
	for i := 0; i < sinLUTSize; i++ {
		phase := float64(i) * 2 * math.Pi / float64(sinLUTSize)
		sinLUT[i] = float32(math.Sin(phase))
	}
	for i := 0; i < tanhLUTSize; i++ {
		x := float64(tanhLUTMin) + float64(i)*float64(tanhLUTMax-tanhLUTMin)/float64(tanhLUTSize-1)
		tanhLUT[i] = float32(math.Tanh(x))
	}
}

// fastSin returns sin(phase) via linear-interpolated lookup. Phase is
// wrapped into [0, 2pi) first.
//
//go:nosplit
func fastSin(phase float32) float32 {
	if phase < 0 {
		phase += twoPi
		if phase < 0 {
			phase = phase - twoPi*float32(int(phase/twoPi)-1)
		}
	} else if phase >= twoPi {
		phase = phase - twoPi*float32(int(phase/twoPi))
	}

	indexF := phase * sinLUTScale
	index := int(indexF)
	frac := indexF - float32(index)

	index &= sinLUTMask
	nextIndex := (index + 1) & sinLUTMask
	return sinLUT[index] + frac*(sinLUT[nextIndex]-sinLUT[index])
}

// fastTanh returns tanh(x) via linear-interpolated lookup, clamped to
// [-1, 1] outside the table's [-4, 4] domain.
//
//go:nosplit
func fastTanh(x float32) float32 {
	if x <= tanhLUTMin {
		return -1.0
	}
	if x >= tanhLUTMax {
		return 1.0
	}

	indexF := (x - tanhLUTMin) * tanhLUTScale
	index := int(indexF)
	frac := indexF - float32(index)

	if index < 0 {
		return tanhLUT[0]
	}
	if index >= tanhLUTSize-1 {
		return tanhLUT[tanhLUTSize-1]
	}
	return tanhLUT[index] + frac*(tanhLUT[index+1]-tanhLUT[index])
}
