package engine

import "github.com/ModernMube/ownaudio/ringbuffer"

// PushEngine is the shared plumbing for the push-queue dispatch model: the
// engine owns an output ring buffer, Send writes into it, and a backend-
// owned drain thread reads it via Receive. Concrete push backends (ALSA)
// embed this rather than reimplementing the queue.
type PushEngine struct {
	ring            *ringbuffer.Ring[float32]
	framesPerBuffer int
	channels        int
}

// NewPushEngine returns a PushEngine whose ring buffer holds roughly
// bufferSeconds of audio at sampleRate/channels.
func NewPushEngine(bufferSeconds float64, sampleRate, channels, framesPerBuffer int) *PushEngine {
	capacity := int(bufferSeconds*float64(sampleRate)) * channels
	if capacity < framesPerBuffer*channels {
		capacity = framesPerBuffer * channels
	}
	return &PushEngine{
		ring:            ringbuffer.New[float32](capacity),
		framesPerBuffer: framesPerBuffer,
		channels:        channels,
	}
}

func (p *PushEngine) Send(samples []float32) (int, error) {
	return p.ring.Write(samples), nil
}

func (p *PushEngine) Receive(out []float32) (int, error) {
	return p.ring.Read(out), nil
}

func (p *PushEngine) FramesPerBuffer() int { return p.framesPerBuffer }

// OutputBufferAvailable is the free space (in samples) a caller may Send
// into before Write starts returning partial counts - the "free space" the
// backpressure-aware pumpers (the smart-master measurement service) poll
// before writing another chunk.
func (p *PushEngine) OutputBufferAvailable() int { return p.ring.AvailableWrite() }

func (p *PushEngine) ClearOutputBuffer() { p.ring.Clear() }
