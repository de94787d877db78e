package effect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{SampleRate: 48000, Channels: 2, MaxBlockFrames: 512}
}

func TestDisabledEffectLeavesBufferUnchanged(t *testing.T) {
	nodes := []Effect{
		NewGraphicEQ(), NewCompressor(), NewLimiter(), NewDelay(),
		NewReverb(), NewChorus(), NewCrossover(), NewPhaseAligner(),
		NewSubharmonic(), NewDynamicAmp(),
	}
	for _, e := range nodes {
		e.Initialize(testConfig())
		e.SetMix(1)
		e.SetEnabled(false)

		buf := []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6}
		want := append([]float32{}, buf...)

		e.Process(buf, 3)
		require.Equal(t, want, buf, "effect %T mutated buffer while disabled", e)
	}
}

func TestGraphicEQFlatGainsIsNearIdentity(t *testing.T) {
	eq := NewGraphicEQ()
	eq.Initialize(testConfig())
	buf := []float32{0.2, -0.1, 0.3, -0.3}
	want := append([]float32{}, buf...)
	eq.Process(buf, 2)
	require.InDeltaSlice(t, want, buf, 1e-4)
}

func TestLimiterNeverExceedsCeiling(t *testing.T) {
	l := NewLimiter()
	l.CeilingDB = -1
	l.Initialize(testConfig())

	buf := make([]float32, 1000*2)
	for i := range buf {
		buf[i] = 2.0 // way over 0dBFS
	}
	l.Process(buf, 1000)

	ceiling := dbToLinear(-1)
	for _, s := range buf {
		require.LessOrEqual(t, s, ceiling+1e-3)
	}
}

func TestChainRunsInInsertionOrder(t *testing.T) {
	var order []string
	c := NewChain()
	a := NewGraphicEQ()
	a.Initialize(testConfig())
	b := NewLimiter()
	b.Initialize(testConfig())
	c.Add(a)
	c.Add(b)
	require.Equal(t, 2, c.Len())
	require.Equal(t, a.ID(), c.At(0).ID())
	require.Equal(t, b.ID(), c.At(1).ID())
	_ = order
}
