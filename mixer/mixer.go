// Package mixer implements the Mixer: it sums N sources under a shared
// Master Clock, applies an ordered master-effect chain to the result,
// reports peak levels and underruns, and emits dropout events. Render is
// the audio-thread entry point and must not allocate, block, or take a
// lock the control thread can hold for more than a few microseconds; list
// mutation (AddSource/RemoveSource/AddMasterEffect/RemoveMasterEffect)
// publishes a fresh copy-on-write snapshot behind an atomic.Pointer that
// the render path only ever Loads. Grounded on the vopenia-io media-sdk
// mixer's Stats block (atomic counters for mixes/timing anomalies/
// dropped input) generalized from a single fixed stats struct to the
// spec's mixer-level counters.
package mixer

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ModernMube/ownaudio/bufferpool"
	"github.com/ModernMube/ownaudio/clock"
	"github.com/ModernMube/ownaudio/config"
	"github.com/ModernMube/ownaudio/effect"
	"github.com/ModernMube/ownaudio/events"
	"github.com/ModernMube/ownaudio/source"
)

// Stats are advisory atomic counters for observability, modeled on the
// pack's production mixer stats block.
type Stats struct {
	Mixes          atomic.Uint64
	TotalUnderruns atomic.Uint64
	TotalDropped   atomic.Uint64
}

// Mixer owns the source list, the master-effect chain, master volume, peak
// meters, and the Master Clock for one engine configuration.
type Mixer struct {
	sampleRate int
	channels   int

	masterVolumeBits atomic.Uint32

	clock  *clock.MasterClock
	bus    *events.Bus
	logger *log.Logger

	mu           sync.Mutex // control-plane mutation lock; render never takes it
	sourcesPtr   atomic.Pointer[[]source.Source]
	effectsPtr   atomic.Pointer[[]effect.Effect]

	scratchPool *bufferpool.FloatPool

	peakLBits atomic.Uint32
	peakRBits atomic.Uint32

	totalMixedFrames atomic.Uint64

	Stats Stats
}

// New returns a Mixer configured for sampleRate/channels, with an empty
// source list and master-effect chain, master volume 1, and a fresh
// Master Clock in the given mode.
func New(sampleRate, channels int, mode clock.Mode, maxBlockFrames int, bus *events.Bus) *Mixer {
	m := &Mixer{
		sampleRate:  sampleRate,
		channels:    channels,
		clock:       clock.New(sampleRate, mode),
		bus:         bus,
		logger:      config.NewLogger("mixer"),
		scratchPool: bufferpool.NewFloatPool(maxBlockFrames*channels, 4),
	}
	m.masterVolumeBits.Store(math.Float32bits(1))
	empty := []source.Source{}
	m.sourcesPtr.Store(&empty)
	emptyFx := []effect.Effect{}
	m.effectsPtr.Store(&emptyFx)
	return m
}

// Clock returns the mixer's Master Clock, so callers can Attach/Detach
// sources and perform Seek.
func (m *Mixer) Clock() *clock.MasterClock { return m.clock }

func (m *Mixer) SampleRate() int { return m.sampleRate }
func (m *Mixer) Channels() int   { return m.channels }

func (m *Mixer) MasterVolume() float32 { return math.Float32frombits(m.masterVolumeBits.Load()) }

// SetMasterVolume clamps to [0, 2], matching the per-source volume range.
func (m *Mixer) SetMasterVolume(v float32) {
	if v < 0 {
		v = 0
	}
	if v > 2 {
		v = 2
	}
	m.masterVolumeBits.Store(math.Float32bits(v))
}

// AddSource appends src to the mix, attaching it to the Master Clock.
// Control-plane only: acquires the short mutation lock, never touched by
// Render.
func (m *Mixer) AddSource(src source.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := *m.sourcesPtr.Load()
	next := make([]source.Source, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, src)
	m.sourcesPtr.Store(&next)
	src.AttachClock(m.clock)
}

// RemoveSource detaches and removes the source with the given id,
// returning it to the caller (ownership transfer, per the spec's
// RemoveSource contract) or nil if not present.
func (m *Mixer) RemoveSource(id uuid.UUID) source.Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := *m.sourcesPtr.Load()
	for i, s := range cur {
		if s.ID() == id {
			next := make([]source.Source, 0, len(cur)-1)
			next = append(next, cur[:i]...)
			next = append(next, cur[i+1:]...)
			m.sourcesPtr.Store(&next)
			s.DetachClock()
			return s
		}
	}
	return nil
}

// Sources returns a snapshot of the currently mixed sources.
func (m *Mixer) Sources() []source.Source {
	return append([]source.Source{}, *m.sourcesPtr.Load()...)
}

// AddMasterEffect appends e (already Initialize'd by the caller for this
// mixer's Config) to the end of the master-bus effect chain.
func (m *Mixer) AddMasterEffect(e effect.Effect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := *m.effectsPtr.Load()
	next := make([]effect.Effect, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, e)
	m.effectsPtr.Store(&next)
}

// RemoveMasterEffect removes and returns the master effect with the given
// id, or nil if not present.
func (m *Mixer) RemoveMasterEffect(id uuid.UUID) effect.Effect {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := *m.effectsPtr.Load()
	for i, e := range cur {
		if e.ID() == id {
			next := make([]effect.Effect, 0, len(cur)-1)
			next = append(next, cur[:i]...)
			next = append(next, cur[i+1:]...)
			m.effectsPtr.Store(&next)
			return e
		}
	}
	return nil
}

// SetMasterEffects atomically replaces the entire master-effect chain in
// one publish - used by the smart-master preset-load path, where every
// node must change together within a single render-block boundary.
func (m *Mixer) SetMasterEffects(effects []effect.Effect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := append([]effect.Effect{}, effects...)
	m.effectsPtr.Store(&snapshot)
}

// PeakL and PeakR report the most recent block's decayed peak level, in
// [0, ~2] depending on headroom.
func (m *Mixer) PeakL() float32 { return math.Float32frombits(m.peakLBits.Load()) }
func (m *Mixer) PeakR() float32 { return math.Float32frombits(m.peakRBits.Load()) }

func (m *Mixer) TotalMixedFrames() uint64 { return m.totalMixedFrames.Load() }

// Start resets the Master Clock and rents the mixer's scratch buffer in
// advance (returning it straight to the pool), so Render's Rent reuses it
// instead of allocating.
func (m *Mixer) Start() {
	m.clock.Reset()
	m.scratchPool.Return(m.scratchPool.Rent())
}

// Stop is a no-op: FloatPool has no global "drain" operation, and Render
// returns its own scratch rental before it exits.
func (m *Mixer) Stop() {}

const peakDecay = 0.999

// Render is the audio-thread entry point. See package doc for the
// allocation/locking contract.
func (m *Mixer) Render(out []float32, nFrames int) {
	for i := range out {
		out[i] = 0
	}

	sources := *m.sourcesPtr.Load()
	masterVol := m.MasterVolume()

	scratch := m.scratchPool.Rent()
	defer m.scratchPool.Return(scratch)
	buf := scratch[:nFrames*m.channels]

	underrun := false
	for _, src := range sources {
		n := src.ReadSamples(buf)
		if n < nFrames {
			underrun = true
			m.Stats.TotalDropped.Add(uint64(nFrames - n))
			for i := n * m.channels; i < len(buf); i++ {
				buf[i] = 0
			}
			if m.bus != nil {
				m.bus.Post(events.TrackDropout{
					SourceID:           src.ID(),
					MasterTimestampSec: m.clock.CurrentTimestampSeconds(),
					MissedFrames:       nFrames - n,
					Reason:             events.ReasonUnderrun,
				})
			}
		}
		if masterVol == 1 {
			for i := 0; i < len(buf); i++ {
				out[i] += buf[i]
			}
		} else {
			for i := 0; i < len(buf); i++ {
				out[i] += buf[i] * masterVol
			}
		}
	}

	effects := *m.effectsPtr.Load()
	for _, e := range effects {
		e.Process(out, nFrames)
	}

	m.sanitizeNonFinite(out)
	m.updatePeaks(out, nFrames)

	m.clock.Advance(nFrames)
	m.totalMixedFrames.Add(uint64(nFrames))
	m.Stats.Mixes.Add(1)
	if underrun {
		m.Stats.TotalUnderruns.Add(1)
	}
}

// sanitizeNonFinite replaces any NaN/±Inf sample with exact zero before it
// reaches the peak meters or the device. The audio callback never
// propagates a bad sample outward; it warns once per block rather than
// once per sample so a sustained fault (e.g. an unstable biquad) doesn't
// flood the log from the audio thread.
func (m *Mixer) sanitizeNonFinite(out []float32) {
	warned := false
	for i, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			out[i] = 0
			if !warned && m.logger != nil {
				m.logger.Warn("non-finite sample sanitized to zero in render block")
				warned = true
			}
		}
	}
}

func (m *Mixer) updatePeaks(out []float32, nFrames int) {
	if m.channels < 1 {
		return
	}
	var peakL, peakR float32
	for i := 0; i < nFrames; i++ {
		l := abs32(out[i*m.channels])
		if l > peakL {
			peakL = l
		}
		if m.channels > 1 {
			r := abs32(out[i*m.channels+1])
			if r > peakR {
				peakR = r
			}
		} else {
			peakR = peakL
		}
	}

	prevL := math.Float32frombits(m.peakLBits.Load())
	prevR := math.Float32frombits(m.peakRBits.Load())
	if peakL < prevL*peakDecay {
		peakL = prevL * peakDecay
	}
	if peakR < prevR*peakDecay {
		peakR = prevR * peakDecay
	}
	m.peakLBits.Store(math.Float32bits(peakL))
	m.peakRBits.Store(math.Float32bits(peakR))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
