// Package source implements the polymorphic audio producer model: file,
// live input, in-memory sample, and silence sources, plus a transparent
// effects-wrapping decorator. Sources are a closed set dispatched through
// one interface, in contrast to the open effect.Effect capability
// interface.
package source

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ModernMube/ownaudio/clock"
	"github.com/ModernMube/ownaudio/events"
)

// Kind is the closed tag identifying which of the four source variants an
// instance is.
type Kind int

const (
	KindFile Kind = iota
	KindInput
	KindSample
	KindSilence
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindInput:
		return "input"
	case KindSample:
		return "sample"
	case KindSilence:
		return "silence"
	default:
		return "unknown"
	}
}

// State is a source's position in the Idle/Buffering/Playing/Paused/
// Stopped/Ended/Failed state machine.
type State int

const (
	Idle State = iota
	Buffering
	Playing
	Paused
	Stopped
	Ended
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Buffering:
		return "buffering"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	case Ended:
		return "ended"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Source is the common producer interface for all four variants.
type Source interface {
	ID() uuid.UUID
	Kind() Kind
	State() State

	// ReadSamples fills out (interleaved at the engine's sample rate and
	// channel count) and returns the number of frames written. Semantics
	// are kind-specific: see each concrete type's ReadSamples.
	ReadSamples(out []float32) (framesWritten int)

	Volume() float32
	SetVolume(float32)
	Pitch() float32   // semitones, -12..+12
	SetPitch(float32)
	Tempo() float32 // ratio, 0.25..4.0
	SetTempo(float32)

	StartOffsetSeconds() float64
	PositionSeconds() float64
	Loop() bool
	SetLoop(bool)

	Play()
	Pause()
	Stop()
	Seek(seconds float64) error

	AttachClock(c *clock.MasterClock)
	DetachClock()

	clock.Attachment
}

// Base implements the identity, volume/pitch/tempo/loop bookkeeping, and
// state machine shared by every concrete source kind. Concrete types embed
// Base and implement ReadSamples, Kind, SupportsJumpSeek, and Seek
// themselves.
type Base struct {
	id uuid.UUID

	state atomic.Int32 // State

	volumeBits atomic.Uint32
	pitchBits  atomic.Uint32
	tempoBits  atomic.Uint32

	startOffsetSeconds float64
	loop               atomic.Bool

	mu       sync.Mutex
	clock    *clock.MasterClock
	position float64 // seconds, monotone between seeks

	SampleRate int
	Channels   int

	Events *events.Bus
}

// NewBase returns a Base with a fresh identity, volume=1, pitch=0, tempo=1,
// in the Idle state.
func NewBase(sampleRate, channels int, bus *events.Bus) Base {
	b := Base{
		id:         uuid.New(),
		SampleRate: sampleRate,
		Channels:   channels,
		Events:     bus,
	}
	b.state.Store(int32(Idle))
	b.volumeBits.Store(math.Float32bits(1))
	b.tempoBits.Store(math.Float32bits(1))
	return b
}

func (b *Base) ID() uuid.UUID { return b.id }
func (b *Base) State() State  { return State(b.state.Load()) }
func (b *Base) setState(s State) { b.state.Store(int32(s)) }

func (b *Base) Volume() float32 { return math.Float32frombits(b.volumeBits.Load()) }
func (b *Base) SetVolume(v float32) {
	if v < 0 {
		v = 0
	}
	if v > 2 {
		v = 2
	}
	b.volumeBits.Store(math.Float32bits(v))
}

func (b *Base) Pitch() float32 { return math.Float32frombits(b.pitchBits.Load()) }
func (b *Base) SetPitch(p float32) {
	if p < -12 {
		p = -12
	}
	if p > 12 {
		p = 12
	}
	b.pitchBits.Store(math.Float32bits(p))
}

func (b *Base) Tempo() float32 { return math.Float32frombits(b.tempoBits.Load()) }
func (b *Base) SetTempo(t float32) {
	if t < 0.25 {
		t = 0.25
	}
	if t > 4 {
		t = 4
	}
	b.tempoBits.Store(math.Float32bits(t))
}

// PitchTempoFactor combines tempo and pitch into the single resample-rate
// factor the file source's converter applies: pitch is implemented as
// resampler-rate coupling (speed-coupled), the simpler of the two legal
// readings of the open question on pitch-shift semantics. Only
// (tempo=1, pitch=0) is contractually identity.
func (b *Base) PitchTempoFactor() float64 {
	pitchFactor := math.Pow(2, float64(b.Pitch())/12)
	return float64(b.Tempo()) * pitchFactor
}

func (b *Base) StartOffsetSeconds() float64 { return b.startOffsetSeconds }
func (b *Base) SetStartOffsetSeconds(s float64) { b.startOffsetSeconds = s }

func (b *Base) PositionSeconds() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position
}

func (b *Base) advancePosition(frames int) {
	b.mu.Lock()
	b.position += float64(frames) / float64(b.SampleRate)
	b.mu.Unlock()
}

func (b *Base) setPosition(seconds float64) {
	b.mu.Lock()
	b.position = seconds
	b.mu.Unlock()
}

func (b *Base) Loop() bool      { return b.loop.Load() }
func (b *Base) SetLoop(v bool)  { b.loop.Store(v) }

func (b *Base) Play() {
	if b.State() == Paused {
		b.setState(Playing)
		return
	}
	b.setState(Buffering)
}

func (b *Base) Pause() {
	if b.State() == Playing {
		b.setState(Paused)
	}
}

func (b *Base) Stop() {
	b.setState(Stopped)
}

func (b *Base) fail(msg string) {
	b.setState(Failed)
	if b.Events != nil {
		b.Events.Post(events.SourceError{SourceID: b.id, Message: msg})
	}
}

func (b *Base) AttachClock(c *clock.MasterClock) {
	b.mu.Lock()
	b.clock = c
	b.mu.Unlock()
	c.Attach(b)
}

func (b *Base) DetachClock() {
	b.mu.Lock()
	c := b.clock
	b.clock = nil
	b.mu.Unlock()
	if c != nil {
		c.Detach(b)
	}
}

func (b *Base) attachedClock() *clock.MasterClock {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock
}

// ClockReset implements clock.Attachment: re-derive nothing here since the
// Base's own position is independently tracked; concrete sources override
// this when they hold decoder-side state that needs realigning.
func (b *Base) ClockReset() {}

// shouldEmitSilence consults an attached clock (if any) to decide whether
// this source should emit silence-and-not-advance because playback hasn't
// reached its start offset yet.
func (b *Base) shouldEmitSilence() bool {
	c := b.attachedClock()
	if c == nil {
		return false
	}
	return c.CurrentTimestampSeconds() < b.startOffsetSeconds
}

// driftFrames returns the signed difference in samples between this
// source's internal position and what the clock expects, or 0 if no clock
// is attached.
func (b *Base) driftFrames() int64 {
	c := b.attachedClock()
	if c == nil {
		return 0
	}
	expected := c.ExpectedSamplePosition(b.startOffsetSeconds)
	actual := int64(b.PositionSeconds() * float64(b.SampleRate))
	return actual - expected
}

// postDropout emits a TrackDropout event if a clock is attached.
func (b *Base) postDropout(missed int, reason events.DropoutReason) {
	c := b.attachedClock()
	if c == nil || b.Events == nil {
		return
	}
	b.Events.Post(events.TrackDropout{
		SourceID:           b.id,
		MasterTimestampSec: c.CurrentTimestampSeconds(),
		MissedFrames:       missed,
		Reason:             reason,
	})
}
