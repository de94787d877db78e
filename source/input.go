package source

import (
	"github.com/ModernMube/ownaudio/events"
	"github.com/ModernMube/ownaudio/ringbuffer"
)

// Input reads live capture audio pushed in by an engine's input callback.
// Unlike File, there is no background goroutine here: the engine backend
// is the producer (calling PushCaptured from its own capture thread/
// callback) and ReadSamples on the render thread is the consumer.
type Input struct {
	Base

	ring *ringbuffer.Ring[float32]
}

// NewInput returns an Input source with room for roughly bufferSeconds of
// capture audio at engineRate/engineChannels.
func NewInput(engineRate, engineChannels int, bufferSeconds float64, bus *events.Bus) *Input {
	capacity := int(bufferSeconds*float64(engineRate)) * engineChannels
	if capacity < engineChannels {
		capacity = engineChannels
	}
	return &Input{
		Base: NewBase(engineRate, engineChannels, bus),
		ring: ringbuffer.New[float32](capacity),
	}
}

func (in *Input) Kind() Kind             { return KindInput }
func (in *Input) SupportsJumpSeek() bool { return false }
func (in *Input) ClockReset()            {}

// Seek is not meaningful for a live capture stream.
func (in *Input) Seek(seconds float64) error { return nil }

// PushCaptured is called by the owning engine backend's capture callback
// with newly captured, already engine-format interleaved audio. Returns
// the number of samples accepted; excess is dropped rather than blocking
// the capture thread.
func (in *Input) PushCaptured(samples []float32) int {
	return in.ring.Write(samples)
}

func (in *Input) ReadSamples(out []float32) int {
	ch := in.Channels

	if in.State() != Playing && in.State() != Buffering {
		for i := range out {
			out[i] = 0
		}
		return 0
	}
	if in.State() == Buffering {
		in.setState(Playing)
	}

	got := in.ring.Read(out)
	gotFrames := got / ch
	if got < len(out) {
		for i := got; i < len(out); i++ {
			out[i] = 0
		}
		// The mixer posts TrackDropout for any source under-producing;
		// it knows the source id and clock timestamp without requiring
		// this source to be clock-attached.
	}

	vol := in.Volume()
	if vol != 1 {
		for i := range out {
			out[i] *= vol
		}
	}

	in.advancePosition(gotFrames)
	return gotFrames
}
