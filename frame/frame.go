// Package frame defines the immutable PCM carrier type handed from decoders
// to sources, and the metadata describing a decoded stream.
package frame

import "time"

// AudioFrame is an immutable chunk of interleaved float32 PCM produced by a
// decoder and consumed by a source. Once constructed its Samples slice
// should not be mutated by any party other than the owner that rents it
// from a pool.
type AudioFrame struct {
	PresentationMS float64
	Samples        []float32
	SampleRate     int
	Channels       int
}

// FrameCount returns the number of per-channel frames carried by f.
func (f AudioFrame) FrameCount() int {
	if f.Channels == 0 {
		return 0
	}
	return len(f.Samples) / f.Channels
}

// Codec identifies the container/codec a StreamInfo was decoded from.
type Codec string

const (
	CodecWAV    Codec = "wav"
	CodecMP3    Codec = "mp3"
	CodecFLAC   Codec = "flac"
	CodecNative Codec = "native"
)

// StreamInfo describes a decoded stream's format. Duration is zero when
// unknown (live/streamed sources).
type StreamInfo struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
	Codec      Codec
}

// HasKnownDuration reports whether Duration is a meaningful value.
func (s StreamInfo) HasKnownDuration() bool {
	return s.Duration > 0
}
