package source

import "github.com/ModernMube/ownaudio/events"

// Sample plays a fully-decoded, in-memory buffer (already at the engine's
// sample rate and channel count). Used for short one-shots (UI sounds,
// triggered stingers) where the file-source decode-goroutine machinery is
// unwarranted overhead.
type Sample struct {
	Base

	data []float32
	pos  int // sample index into data, not frame index
}

// NewSample wraps data (interleaved, already engineChannels-wide) as a
// playable Source. data is not copied; the caller must not mutate it while
// the Sample is in use.
func NewSample(data []float32, engineRate, engineChannels int, bus *events.Bus) *Sample {
	return &Sample{
		Base: NewBase(engineRate, engineChannels, bus),
		data: data,
	}
}

func (s *Sample) Kind() Kind             { return KindSample }
func (s *Sample) SupportsJumpSeek() bool { return true }
func (s *Sample) ClockReset()            {}

func (s *Sample) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	s.pos = int(seconds*float64(s.SampleRate)) * s.Channels
	if s.pos > len(s.data) {
		s.pos = len(s.data)
	}
	s.setPosition(seconds)
	return nil
}

func (s *Sample) ReadSamples(out []float32) int {
	ch := s.Channels
	wantFrames := len(out) / ch

	state := s.State()
	if state != Playing && state != Buffering {
		for i := range out {
			out[i] = 0
		}
		return 0
	}
	if state == Buffering {
		s.setState(Playing)
	}

	if s.shouldEmitSilence() {
		for i := range out {
			out[i] = 0
		}
		return wantFrames
	}

	remaining := len(s.data) - s.pos
	if remaining < 0 {
		remaining = 0
	}
	n := len(out)
	if n > remaining {
		n = remaining
	}
	copy(out[:n], s.data[s.pos:s.pos+n])
	for i := n; i < len(out); i++ {
		out[i] = 0
	}

	vol := s.Volume()
	if vol != 1 {
		for i := range out {
			out[i] *= vol
		}
	}

	s.pos += n
	s.advancePosition(wantFrames)

	if s.pos >= len(s.data) {
		if s.Loop() {
			s.pos = 0
			s.setPosition(0)
		} else {
			s.setState(Ended)
		}
	}

	return wantFrames
}
