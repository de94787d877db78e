// Package effect implements the pure, stateful DSP nodes that make up an
// effect chain: graphic EQ, compressor, limiter, delay, reverb, chorus,
// crossover, phase aligner, subharmonic synth, and dynamic amplifier, plus
// the Chain type that threads an ordered list of them.
package effect

import (
	"math"
	"sync/atomic"

	"github.com/google/uuid"
)

// Config is passed to Initialize and fixes the sample rate/channel count an
// effect's internal state (filter histories, delay lines) is built for.
type Config struct {
	SampleRate     int
	Channels       int
	MaxBlockFrames int
}

// Effect is the open capability interface every DSP node implements.
// Process must be pure over (state, buffer): no heap allocation once
// Initialize has run.
type Effect interface {
	Initialize(cfg Config)
	Process(buf []float32, nFrames int)
	Reset()
	Dispose()

	ID() uuid.UUID
	Enabled() bool
	SetEnabled(bool)
	Mix() float32
	SetMix(float32)
}

// Base is embedded by every concrete effect to provide identity, the
// enabled flag, and the wet/dry mix parameter. Enabled and Mix are stored
// atomically since the control plane may flip them from a different
// goroutine than the one calling Process; captured once at the top of
// Process per the "parameters captured once per block" ordering rule.
type Base struct {
	id      uuid.UUID
	enabled atomic.Bool
	mixBits atomic.Uint32
	cfg     Config
}

// NewBase returns a Base with a fresh identity, enabled by default and
// mix=1 (fully wet).
func NewBase() Base {
	b := Base{id: uuid.New()}
	b.enabled.Store(true)
	b.mixBits.Store(math.Float32bits(1))
	return b
}

func (b *Base) ID() uuid.UUID     { return b.id }
func (b *Base) Enabled() bool     { return b.enabled.Load() }
func (b *Base) SetEnabled(v bool) { b.enabled.Store(v) }
func (b *Base) Mix() float32      { return math.Float32frombits(b.mixBits.Load()) }
func (b *Base) SetMix(m float32) {
	if m < 0 {
		m = 0
	}
	if m > 1 {
		m = 1
	}
	b.mixBits.Store(math.Float32bits(m))
}

// Config returns the Config captured at Initialize.
func (b *Base) Config() Config { return b.cfg }

// Initialize stores cfg for later use by the embedding effect's own
// Initialize override (which should call Base.Initialize first).
func (b *Base) Initialize(cfg Config) { b.cfg = cfg }

// Bypassed reports whether Process should leave buf untouched: the
// invariant is that a disabled effect never mutates its buffer, regardless
// of the mix setting.
func (b *Base) Bypassed() bool { return !b.Enabled() }

// Chain is an ordered list of effects wrapping a source's output or the
// mixer's master bus. Mutation (Add/Remove) is control-plane only; Process
// is called from the render path and must not allocate.
type Chain struct {
	effects []Effect
}

// NewChain returns an empty effect chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends e to the end of the chain.
func (c *Chain) Add(e Effect) {
	c.effects = append(c.effects, e)
}

// Remove deletes the first effect with the given id, returning it for the
// caller to Dispose, or nil if not found.
func (c *Chain) Remove(id uuid.UUID) Effect {
	for i, e := range c.effects {
		if e.ID() == id {
			c.effects = append(c.effects[:i], c.effects[i+1:]...)
			return e
		}
	}
	return nil
}

// Process runs every effect in insertion order over buf.
func (c *Chain) Process(buf []float32, nFrames int) {
	for _, e := range c.effects {
		e.Process(buf, nFrames)
	}
}

// Len returns the number of effects currently in the chain.
func (c *Chain) Len() int { return len(c.effects) }

// At returns the effect at index i.
func (c *Chain) At(i int) Effect { return c.effects[i] }
