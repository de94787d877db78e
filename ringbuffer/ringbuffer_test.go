package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCapacityRoundsToPowerOfTwo(t *testing.T) {
	r := New[float32](10)
	require.Equal(t, 15, r.Capacity()) // next pow2 of 10 is 16, usable = 15
}

func TestWriteReturnsPartialWhenFull(t *testing.T) {
	r := New[float32](7) // usable capacity 7
	full := make([]float32, 7)
	n := r.Write(full)
	require.Equal(t, 7, n)

	n2 := r.Write([]float32{1})
	require.Equal(t, 0, n2)
}

func TestReadReturnsZeroWhenEmpty(t *testing.T) {
	r := New[float32](4)
	out := make([]float32, 4)
	require.Equal(t, 0, r.Read(out))
}

func TestWriteReadOrderPreserved(t *testing.T) {
	r := New[float32](16)
	in := []float32{1, 2, 3, 4, 5}
	require.Equal(t, len(in), r.Write(in))

	out := make([]float32, len(in))
	require.Equal(t, len(in), r.Read(out))
	require.Equal(t, in, out)
}

func TestWraparoundCopiesBothHalves(t *testing.T) {
	r := New[float32](4) // 4 slots, usable capacity 3
	r.Write([]float32{1, 2, 3})
	out := make([]float32, 2)
	r.Read(out) // consume 1,2 -> read idx now at slot 2

	r.Write([]float32{4, 5}) // 4 fills slot 3, 5 wraps around to slot 0
	rest := make([]float32, 3)
	n := r.Read(rest)
	require.Equal(t, 3, n)
	require.Equal(t, []float32{3, 4, 5}, rest)
}

func TestAvailableInvariantAtQuiescence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cap := rapid.IntRange(1, 64).Draw(t, "cap")
		r := New[float32](cap)

		writes := rapid.SliceOfN(rapid.Float32(), 0, 200).Draw(t, "writes")
		reads := rapid.IntRange(0, 200).Draw(t, "reads")

		remaining := writes
		for len(remaining) > 0 {
			n := r.Write(remaining)
			if n == 0 {
				break
			}
			remaining = remaining[n:]
		}

		scratch := make([]float32, reads)
		r.Read(scratch)

		require.Equal(t, r.Capacity(), r.AvailableRead()+r.AvailableWrite())
	})
}

func TestClearResetsToEmpty(t *testing.T) {
	r := New[float32](8)
	r.Write([]float32{1, 2, 3})
	r.Clear()
	require.Equal(t, 0, r.AvailableRead())
	require.Equal(t, r.Capacity(), r.AvailableWrite())
}
