package clock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvanceAccumulatesExactSampleCount(t *testing.T) {
	c := New(48000, Offline)
	for i := 0; i < 10; i++ {
		c.Advance(512)
	}
	require.Equal(t, int64(5120), c.CurrentSamplePosition())
}

func TestTimestampSecondsDerivedFromSamplePosition(t *testing.T) {
	c := New(48000, Offline)
	c.Advance(48000)
	require.InDelta(t, 1.0, c.CurrentTimestampSeconds(), 1e-9)
}

type fakeAttachment struct {
	jumpSeek bool
	resets   int
}

func (f *fakeAttachment) ClockReset()        { f.resets++ }
func (f *fakeAttachment) SupportsJumpSeek() bool { return f.jumpSeek }

func TestSeekRejectedInRealtimeWithNonSeekableSource(t *testing.T) {
	c := New(48000, Realtime)
	input := &fakeAttachment{jumpSeek: false}
	c.Attach(input)

	err := c.Seek(5)
	require.Error(t, err)
}

func TestSeekAllowedWhenAllSourcesSeekable(t *testing.T) {
	c := New(48000, Realtime)
	file := &fakeAttachment{jumpSeek: true}
	c.Attach(file)

	err := c.Seek(5)
	require.NoError(t, err)
	require.Equal(t, int64(5*48000), c.CurrentSamplePosition())
	require.Equal(t, 1, file.resets)
}

func TestResetZeroesPosition(t *testing.T) {
	c := New(48000, Offline)
	c.Advance(1000)
	c.Reset()
	require.Equal(t, int64(0), c.CurrentSamplePosition())
}
