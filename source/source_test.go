package source

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ModernMube/ownaudio/effect"
	"github.com/ModernMube/ownaudio/events"
)

func TestSampleReadSamplesPlaysThenEnds(t *testing.T) {
	bus := events.NewBus()
	data := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6} // 3 frames, stereo
	s := NewSample(data, 48000, 2, bus)
	require.Equal(t, Idle, s.State())

	s.Play()
	out := make([]float32, 4) // 2 frames
	n := s.ReadSamples(out)
	require.Equal(t, 2, n)
	require.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, out)
	require.Equal(t, Playing, s.State())

	out2 := make([]float32, 4)
	n2 := s.ReadSamples(out2)
	require.Equal(t, 2, n2)
	require.Equal(t, []float32{0.5, 0.6, 0, 0}, out2)
	require.Equal(t, Ended, s.State())
}

func TestSampleLoopRestartsAtEnd(t *testing.T) {
	bus := events.NewBus()
	data := []float32{1, 1}
	s := NewSample(data, 48000, 2, bus)
	s.SetLoop(true)
	s.Play()

	out := make([]float32, 2)
	for i := 0; i < 5; i++ {
		n := s.ReadSamples(out)
		require.Equal(t, 1, n)
		require.Equal(t, Playing, s.State())
	}
}

func TestSampleVolumeScalesOutput(t *testing.T) {
	bus := events.NewBus()
	data := []float32{1, 1, 1, 1}
	s := NewSample(data, 48000, 2, bus)
	s.SetVolume(0.5)
	s.Play()

	out := make([]float32, 4)
	s.ReadSamples(out)
	for _, v := range out {
		require.InDelta(t, 0.5, v, 1e-6)
	}
}

func TestSilenceAlwaysZero(t *testing.T) {
	bus := events.NewBus()
	s := NewSilence(48000, 2, bus)
	s.Play()
	out := make([]float32, 16)
	for i := range out {
		out[i] = 99
	}
	n := s.ReadSamples(out)
	require.Equal(t, 8, n)
	for _, v := range out {
		require.Equal(t, float32(0), v)
	}
}

func TestIdleSourceProducesSilenceWithoutAdvancing(t *testing.T) {
	bus := events.NewBus()
	s := NewSample([]float32{1, 1}, 48000, 2, bus)
	out := make([]float32, 2)
	out[0], out[1] = 9, 9
	n := s.ReadSamples(out)
	require.Equal(t, 0, n)
	require.Equal(t, []float32{0, 0}, out)
	require.Equal(t, float64(0), s.PositionSeconds())
}

func TestWithEffectsAppliesChainAfterRead(t *testing.T) {
	bus := events.NewBus()
	inner := NewSample([]float32{1, 1, 1, 1}, 48000, 2, bus)
	inner.Play()

	chain := effect.NewChain()
	lim := effect.NewLimiter()
	lim.CeilingDB = -6
	lim.Initialize(effect.Config{SampleRate: 48000, Channels: 2, MaxBlockFrames: 512})
	chain.Add(lim)

	wrapped := WrapWithEffects(inner, chain)
	out := make([]float32, 4)
	n := wrapped.ReadSamples(out)
	require.Equal(t, 2, n)
	ceilLinear := float32(0.5011872) // -6dBFS
	for _, v := range out {
		require.LessOrEqual(t, v, ceilLinear+1e-3)
	}
}

func TestPitchTempoFactorIdentityAtDefaults(t *testing.T) {
	b := NewBase(48000, 2, nil)
	require.InDelta(t, 1.0, b.PitchTempoFactor(), 1e-9)
}
