package mixer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ModernMube/ownaudio/clock"
	"github.com/ModernMube/ownaudio/events"
	"github.com/ModernMube/ownaudio/source"
)

func TestRenderAdvancesClockByExactlyNFrames(t *testing.T) {
	bus := events.NewBus()
	m := New(48000, 2, clock.Offline, 512, bus)

	const nFrames = 512
	out := make([]float32, nFrames*2)
	for k := 0; k < 10; k++ {
		m.Render(out, nFrames)
	}
	require.EqualValues(t, 10*nFrames, m.Clock().CurrentSamplePosition())
	require.EqualValues(t, 10*nFrames, m.TotalMixedFrames())
}

func TestMasterVolumeZeroProducesExactSilence(t *testing.T) {
	bus := events.NewBus()
	m := New(48000, 2, clock.Offline, 256, bus)

	s := source.NewSample([]float32{1, 1, -1, -1, 0.5, 0.5, 0.5, 0.5}, 48000, 2, bus)
	s.Play()
	m.AddSource(s)
	m.SetMasterVolume(0)

	out := make([]float32, 256*2)
	m.Render(out, 256)
	for _, v := range out {
		require.Equal(t, float32(0), v)
	}
}

func TestUnderrunIncrementsStatsAndPadsSilence(t *testing.T) {
	bus := events.NewBus()
	m := New(48000, 2, clock.Offline, 512, bus)

	// A sample source that Ends after 1 frame starves for the remaining
	// blocks, exercising the underrun path.
	s := source.NewSample([]float32{0.5, 0.5}, 48000, 2, bus)
	s.Play()
	m.AddSource(s)

	out := make([]float32, 512*2)
	m.Render(out, 512) // consumes the single frame, then Ends
	m.Render(out, 512) // starved: source produces 0 frames

	require.EqualValues(t, 1, m.Stats.TotalUnderruns.Load())
	for _, v := range out {
		require.Equal(t, float32(0), v)
	}
}

func TestUnderrunPostsTrackDropoutWithSourceID(t *testing.T) {
	bus := events.NewBus()
	sub := bus.Subscribe(8)
	m := New(48000, 2, clock.Offline, 512, bus)

	s := source.NewSample([]float32{0.5, 0.5}, 48000, 2, bus)
	s.Play()
	m.AddSource(s)

	out := make([]float32, 512*2)
	m.Render(out, 512) // consumes the single frame, then Ends
	m.Render(out, 512) // starved: source produces 0 frames

	select {
	case ev := <-sub:
		dropout, ok := ev.(events.TrackDropout)
		require.True(t, ok)
		require.Equal(t, s.ID(), dropout.SourceID)
		require.Equal(t, 512, dropout.MissedFrames)
		require.Equal(t, events.ReasonUnderrun, dropout.Reason)
	default:
		t.Fatal("expected a TrackDropout event to have been posted")
	}
}

func TestRenderSanitizesNonFiniteSamplesToZero(t *testing.T) {
	bus := events.NewBus()
	m := New(48000, 2, clock.Offline, 4, bus)

	s := source.NewSample([]float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)), 0.25}, 48000, 2, bus)
	s.Play()
	m.AddSource(s)

	out := make([]float32, 4*2)
	m.Render(out, 4)

	for _, v := range out {
		require.False(t, math.IsNaN(float64(v)))
		require.False(t, math.IsInf(float64(v), 0))
	}
	require.Equal(t, float32(0), out[0])
	require.Equal(t, float32(0), out[1])
	require.Equal(t, float32(0.25), out[3])
}

func TestRemoveSourceReturnsItAndDropsItFromMix(t *testing.T) {
	bus := events.NewBus()
	m := New(48000, 2, clock.Offline, 256, bus)

	s := source.NewSilence(48000, 2, bus)
	m.AddSource(s)
	require.Len(t, m.Sources(), 1)

	removed := m.RemoveSource(s.ID())
	require.NotNil(t, removed)
	require.Len(t, m.Sources(), 0)
}
