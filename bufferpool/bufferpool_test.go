package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloatPoolRentIsZeroed(t *testing.T) {
	p := NewFloatPool(4, 2)
	buf := p.Rent()
	require.Equal(t, []float32{0, 0, 0, 0}, buf)

	buf[0] = 1
	p.Return(buf)

	reused := p.Rent()
	require.Equal(t, []float32{0, 0, 0, 0}, reused)
}

func TestFloatPoolDiscardsWrongSize(t *testing.T) {
	p := NewFloatPool(4, 2)
	p.Return(make([]float32, 3))
	require.Equal(t, 0, len(p.free))
}

func TestFloatPoolRespectsHighWaterMark(t *testing.T) {
	p := NewFloatPool(2, 1)
	p.Return(make([]float32, 2))
	p.Return(make([]float32, 2))
	require.Equal(t, 1, len(p.free))
}

func TestFramePoolRentResetsState(t *testing.T) {
	p := NewFramePool(16, 2)
	f := p.Rent()
	f.Len = 10
	f.PresentationMS = 42
	p.Return(f)

	reused := p.Rent()
	require.Equal(t, 0, reused.Len)
	require.Equal(t, float64(0), reused.PresentationMS)
	require.Equal(t, 16, len(reused.Data))
}
