package smartmaster

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/ModernMube/ownaudio/source"
)

const monitorPollInterval = 50 * time.Millisecond

// Monitor is a background microphone-level meter: it reads whatever input
// source it is given every ~50ms, computes RMS in dB, and publishes the
// result via a lock-free bit-cast float so any number of readers can poll
// LevelDB without contending with the polling goroutine. No allocation
// happens per tick - the scratch buffer is sized once at NewMonitor.
type Monitor struct {
	input *source.Input

	levelBits atomic.Uint64 // math.Float64bits(dB)
	gen       atomic.Uint64

	scratch []float32
}

// NewMonitor returns a Monitor polling input, sized for maxBlockFrames at
// the input's own sample rate/channel count.
func NewMonitor(input *source.Input, maxBlockFrames, channels int) *Monitor {
	m := &Monitor{
		input:   input,
		scratch: make([]float32, maxBlockFrames*channels),
	}
	m.levelBits.Store(math.Float64bits(-100))
	return m
}

// LevelDB returns the most recently published RMS level in dB, floored at
// -100 (silence or no data yet).
func (m *Monitor) LevelDB() float64 {
	return math.Float64frombits(m.levelBits.Load())
}

// Start begins polling in the background. Calling Start again supersedes
// any previous run via the generation counter, same pattern as Measurement.
func (m *Monitor) Start() {
	gen := m.gen.Add(1)
	go m.run(gen)
}

// Stop cancels the polling goroutine at its next tick.
func (m *Monitor) Stop() {
	m.gen.Add(1)
}

func (m *Monitor) run(gen uint64) {
	ticker := time.NewTicker(monitorPollInterval)
	defer ticker.Stop()
	for range ticker.C {
		if m.gen.Load() != gen {
			return
		}
		n := m.input.ReadSamples(m.scratch)
		if n == 0 {
			continue
		}
		db := rmsDB(m.scratch[:n*m.input.Channels])
		m.levelBits.Store(math.Float64bits(db))
	}
}
