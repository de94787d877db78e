package source

import "github.com/ModernMube/ownaudio/events"

// Silence produces zero-valued samples indefinitely. Useful as a mixer
// placeholder slot, or to hold a clock's drift accounting steady while a
// real source is being prepared.
type Silence struct {
	Base
}

// NewSilence returns a Silence source.
func NewSilence(engineRate, engineChannels int, bus *events.Bus) *Silence {
	return &Silence{Base: NewBase(engineRate, engineChannels, bus)}
}

func (s *Silence) Kind() Kind             { return KindSilence }
func (s *Silence) SupportsJumpSeek() bool { return true }
func (s *Silence) ClockReset()            {}

func (s *Silence) Seek(seconds float64) error {
	s.setPosition(seconds)
	return nil
}

func (s *Silence) ReadSamples(out []float32) int {
	for i := range out {
		out[i] = 0
	}
	wantFrames := len(out) / s.Channels
	if s.State() == Playing || s.State() == Buffering {
		s.setState(Playing)
		s.advancePosition(wantFrames)
	}
	return wantFrames
}
