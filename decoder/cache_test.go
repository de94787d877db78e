package decoder

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ModernMube/ownaudio/frame"
)

// countingDecoder returns one fixed-size frame per call and counts how many
// times DecodeNextFrame actually ran, so tests can see which decodes
// reached the inner decoder.
type countingDecoder struct {
	calls  int
	frames int
}

func (c *countingDecoder) StreamInfo() frame.StreamInfo {
	return frame.StreamInfo{SampleRate: 48000, Channels: 2, Codec: frame.CodecWAV}
}

func (c *countingDecoder) DecodeNextFrame() (frame.AudioFrame, bool, error) {
	if c.calls >= c.frames {
		return frame.AudioFrame{}, true, nil
	}
	c.calls++
	return frame.AudioFrame{Samples: []float32{0.1, 0.2, 0.3, 0.4}, SampleRate: 48000, Channels: 2}, false, nil
}

func (c *countingDecoder) ReadFrames(buf []float32) (int, error) { return 0, io.EOF }
func (c *countingDecoder) TrySeek(t time.Duration) error         { return nil }
func (c *countingDecoder) Release()                              {}

func TestCacheDecodesNewFramesThroughInnerAndSeekPurges(t *testing.T) {
	inner := &countingDecoder{frames: 3}
	c := NewCache(inner, "src-1", 1<<20)

	for i := 0; i < 3; i++ {
		_, atEOF, err := c.DecodeNextFrame()
		require.NoError(t, err)
		require.False(t, atEOF)
	}
	require.Equal(t, 3, inner.calls)

	// Seeking purges the cache (frameIndex no longer lines up with inner's
	// position after a seek) and restarts the index.
	require.NoError(t, c.TrySeek(0))
	require.Equal(t, 0, c.lru.Len())
	require.Equal(t, 0, c.bytesUsed)
}
