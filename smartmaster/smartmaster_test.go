package smartmaster

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ModernMube/ownaudio/clock"
	"github.com/ModernMube/ownaudio/effect"
	"github.com/ModernMube/ownaudio/events"
	"github.com/ModernMube/ownaudio/mixer"
	"github.com/ModernMube/ownaudio/source"
)

func chainConfigForTest() effect.Config {
	return effect.Config{SampleRate: 48000, Channels: 2, MaxBlockFrames: 512}
}

func TestFactoryPresetsAllSixNamed(t *testing.T) {
	presets := FactoryPresets()
	for _, name := range []string{"Default", "HiFi", "Headphone", "Studio", "Club", "Concert"} {
		_, ok := presets[name]
		require.True(t, ok, "missing factory preset %q", name)
	}
}

func TestEnsureFactoryPresetsWritesOnlyMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnsureFactoryPresets(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	custom := flatPreset()
	custom.MicInputGain = 42
	require.NoError(t, SavePreset(dir, "Default", custom))

	require.NoError(t, EnsureFactoryPresets(dir))
	loaded, err := LoadPreset(dir, "Default")
	require.NoError(t, err)
	require.Equal(t, float64(42), loaded.MicInputGain, "EnsureFactoryPresets must not overwrite an existing preset")
}

func TestSavePresetThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	p := flatPreset()
	p.GraphicEQGains[10] = 3.5
	p.CompressorEnabled = true

	require.NoError(t, SavePreset(dir, "custom", p))
	loaded, err := LoadPreset(dir, "custom")
	require.NoError(t, err)
	require.Equal(t, p.GraphicEQGains, loaded.GraphicEQGains)
	require.True(t, loaded.CompressorEnabled)

	require.NoFileExists(t, filepath.Join(dir, "custom.smartmaster.json.tmp"))
}

func TestLoadPresetMissingReturnsErrorConfigUnchanged(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadPreset(dir, "nonexistent")
	require.Error(t, err)
}

func TestApplyCorrectionClampsBandsAndSubharmonic(t *testing.T) {
	base := flatPreset()
	var r Result
	for i := range r.BandsDB {
		r.BandsDB[i] = 20 // a huge deviation, should clamp hard
	}
	r.SubDB = -55

	next := ApplyCorrection(base, r)
	for band := 0; band <= 4; band++ {
		require.LessOrEqual(t, next.GraphicEQGains[band], 3.0)
		require.GreaterOrEqual(t, next.GraphicEQGains[band], -12.0)
	}
	for band := 5; band < 31; band++ {
		require.LessOrEqual(t, next.GraphicEQGains[band], 12.0)
		require.GreaterOrEqual(t, next.GraphicEQGains[band], -12.0)
	}
	require.True(t, next.SubharmonicEnabled, "sub below -40dB should enable subharmonic synth")
	require.NotNil(t, next.LastMeasurement)
}

func TestApplyCorrectionLeavesSubharmonicDisabledWhenSubIsStrong(t *testing.T) {
	base := flatPreset()
	var r Result
	r.SubDB = -10
	next := ApplyCorrection(base, r)
	require.False(t, next.SubharmonicEnabled)
}

func newTestMixer(t *testing.T) (*mixer.Mixer, *source.Input, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	mx := mixer.New(48000, 2, clock.Offline, 512, bus)
	in := source.NewInput(48000, 2, 1.0, bus)
	return mx, in, bus
}

// TestMeasurementCancelAtCheckingSubReturnsToIdleConfigUnchanged exercises
// scenario 6: cancel mid-measurement leaves the state machine back at a
// terminal non-Completed phase, writes no preset file, and the base config
// passed in is never mutated.
func TestMeasurementCancelAtCheckingSubReturnsToIdleConfigUnchanged(t *testing.T) {
	mx, in, bus := newTestMixer(t)
	m := NewMeasurement(mx, in, bus)

	base := flatPreset()
	baseCopy := base

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	require.Eventually(t, func() bool {
		return m.Phase() == CheckingRight || m.Phase() == CheckingLeft || m.Phase() == CheckingSub
	}, time.Second, time.Millisecond, "measurement should reach a checking phase")

	m.Cancel()

	require.Eventually(t, func() bool {
		return m.Phase() == Cancelled
	}, time.Second, time.Millisecond, "measurement should unwind to Cancelled")

	require.Equal(t, baseCopy, base, "cancelling a measurement must not mutate the caller's preset")

	dir := t.TempDir()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "cancelled measurement must not have written any preset file")
}

func TestMeasurementSecondStartSupersedesFirst(t *testing.T) {
	mx, in, bus := newTestMixer(t)
	m := NewMeasurement(mx, in, bus)

	ctx := context.Background()
	m.Start(ctx)
	require.Eventually(t, func() bool {
		return m.Phase() != Idle
	}, time.Second, time.Millisecond)

	// Starting again bumps the generation counter; the first run's next
	// cooperative check observes the mismatch and becomes Cancelled while
	// the second run proceeds from Initializing.
	m.Start(ctx)
	require.Eventually(t, func() bool {
		return m.Phase() != Idle
	}, time.Second, time.Millisecond)
}

func TestBuildChainWithoutPhaseAlignOmitsSplitNode(t *testing.T) {
	p := flatPreset()
	cfg := chainConfigForTest()
	chain := BuildChain(cfg, p)
	// Graphic EQ + Limiter only, no compressor/subharmonic/phase-split.
	require.Equal(t, 2, chain.Len())
}

func TestBuildChainWithAllStagesEnabled(t *testing.T) {
	p := flatPreset()
	p.SubharmonicEnabled = true
	p.CompressorEnabled = true
	p.TimeDelays[0] = 0.3
	cfg := chainConfigForTest()
	chain := BuildChain(cfg, p)
	// EQ + Subharmonic + Compressor + phase-split + Limiter.
	require.Equal(t, 5, chain.Len())
}
