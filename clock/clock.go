// Package clock implements the Master Clock: the sample-counted timeline
// against which all sources in a mixer synchronize.
package clock

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Mode distinguishes a realtime-driven clock (wall-clock paced, via a
// device callback) from an offline one (driven as fast as the caller pumps
// it, e.g. bounce-to-file).
type Mode int

const (
	Realtime Mode = iota
	Offline
)

// Attachment is implemented by sources that want to be notified when the
// clock resets, so they can re-derive their expected position.
type Attachment interface {
	ClockReset()
	SupportsJumpSeek() bool
}

// Stats are advisory wall-clock-drift counters. The clock's authoritative
// position is always the cumulative mixed-frame count; these counters only
// flag anomalous scheduling (callback starvation, backwards time jumps).
type Stats struct {
	JumpTicks    atomic.Uint64
	TimingResets atomic.Uint64
}

// MasterClock owns the monotonic sample position and the set of attached
// sources.
type MasterClock struct {
	sampleRate            int
	mode                   Mode
	driftToleranceSamples  int64

	samplePosition atomic.Int64

	mu       sync.Mutex
	attached map[Attachment]struct{}
	lastTick time.Time

	Stats Stats
}

// DefaultDriftTolerance is ~10ms at 48kHz, the spec's suggested default.
func DefaultDriftTolerance(sampleRate int) int64 {
	return int64(float64(sampleRate) * 0.01)
}

// New constructs a MasterClock for the given sample rate and mode, with the
// default drift tolerance.
func New(sampleRate int, mode Mode) *MasterClock {
	return &MasterClock{
		sampleRate:            sampleRate,
		mode:                  mode,
		driftToleranceSamples: DefaultDriftTolerance(sampleRate),
		attached:              make(map[Attachment]struct{}),
	}
}

// SampleRate returns the clock's sample rate.
func (c *MasterClock) SampleRate() int { return c.sampleRate }

// DriftToleranceSamples returns the configured drift tolerance in samples.
func (c *MasterClock) DriftToleranceSamples() int64 { return c.driftToleranceSamples }

// SetDriftToleranceSamples overrides the default drift tolerance.
func (c *MasterClock) SetDriftToleranceSamples(n int64) { c.driftToleranceSamples = n }

// CurrentSamplePosition returns the cumulative number of frames mixed since
// the last reset or seek.
func (c *MasterClock) CurrentSamplePosition() int64 {
	return c.samplePosition.Load()
}

// CurrentTimestampSeconds is CurrentSamplePosition expressed in seconds.
func (c *MasterClock) CurrentTimestampSeconds() float64 {
	return float64(c.samplePosition.Load()) / float64(c.sampleRate)
}

// Advance is called exactly once per render block, by the mixer only. It
// never goes backwards and is the sole writer of the authoritative
// position.
func (c *MasterClock) Advance(nFrames int) {
	now := time.Now()
	c.mu.Lock()
	if !c.lastTick.IsZero() {
		dt := now.Sub(c.lastTick)
		expected := time.Duration(float64(nFrames) / float64(c.sampleRate) * float64(time.Second))
		if dt > expected*2 {
			c.Stats.JumpTicks.Add(1)
		} else if dt < 0 {
			c.Stats.TimingResets.Add(1)
		}
	}
	c.lastTick = now
	c.mu.Unlock()

	c.samplePosition.Add(int64(nFrames))
}

// Seek repositions the clock to the given offset in seconds. In Realtime
// mode this is rejected unless every attached source supports jump-seek
// (file sources do; input sources do not).
func (c *MasterClock) Seek(seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == Realtime {
		for a := range c.attached {
			if !a.SupportsJumpSeek() {
				return fmt.Errorf("clock: seek rejected, an attached source does not support jump-seek")
			}
		}
	}

	c.samplePosition.Store(int64(seconds * float64(c.sampleRate)))
	for a := range c.attached {
		a.ClockReset()
	}
	return nil
}

// Reset zeroes the clock's position and notifies attached sources, without
// the Realtime jump-seek gate Seek applies.
func (c *MasterClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samplePosition.Store(0)
	c.lastTick = time.Time{}
	for a := range c.attached {
		a.ClockReset()
	}
}

// Attach registers a source with the clock. Detaching later does not
// destroy the clock - it is a weak association.
func (c *MasterClock) Attach(a Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attached[a] = struct{}{}
}

// Detach unregisters a source previously attached.
func (c *MasterClock) Detach(a Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attached, a)
}

// ExpectedSamplePosition returns the sample position a source with the
// given start offset (in seconds) should currently be at, per the clock's
// authoritative timeline - used by sources to detect drift.
func (c *MasterClock) ExpectedSamplePosition(startOffsetSeconds float64) int64 {
	return c.CurrentSamplePosition() - int64(startOffsetSeconds*float64(c.sampleRate))
}
