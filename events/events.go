// Package events carries notifications posted by the mixer and sources.
// The render path calls Bus.Post directly; Post does a non-blocking send
// into each subscriber's buffered channel, and subscribers receive on
// their own goroutines. There is no separate dispatcher goroutine.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// SourceError reports that a source transitioned to Failed.
type SourceError struct {
	SourceID uuid.UUID
	Message  string
}

// DropoutReason classifies why a TrackDropout occurred.
type DropoutReason string

const (
	ReasonUnderrun    DropoutReason = "underrun"
	ReasonDriftSkip   DropoutReason = "drift_skip"
	ReasonDriftPad    DropoutReason = "drift_pad"
	ReasonDecoderFail DropoutReason = "decoder_fail"
)

// TrackDropout reports a block in which a source failed to produce all
// requested frames, or was deliberately nudged for clock drift.
type TrackDropout struct {
	SourceID             uuid.UUID
	MasterTimestampSec   float64
	MissedFrames         int
	Reason               DropoutReason
}

// Event is the union of event kinds delivered on the control thread.
type Event interface{ isEvent() }

func (SourceError) isEvent()  {}
func (TrackDropout) isEvent() {}

// Bus is a small fan-out dispatcher: Post is safe to call from the render
// path (it never blocks - a full channel drops the event rather than
// stalling the audio thread) and Subscribe registers a control-thread
// receiver.
type Bus struct {
	mu   sync.RWMutex
	subs []chan Event
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a channel that receives every event posted after this
// call. The channel is buffered; a slow subscriber only risks missing
// events, never blocking the poster.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Post delivers ev to all subscribers without blocking; a subscriber whose
// buffer is full simply does not receive this event.
func (b *Bus) Post(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
