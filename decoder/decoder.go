// Package decoder defines the container-agnostic Decoder interface used by
// file sources, dispatches to a concrete implementation by file extension,
// and provides an LRU frame cache wrapper for looped content.
package decoder

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ModernMube/ownaudio/decoder/flac"
	"github.com/ModernMube/ownaudio/decoder/mp3"
	"github.com/ModernMube/ownaudio/decoder/wav"
	"github.com/ModernMube/ownaudio/frame"
)

// Decoder produces successive PCM float32 frames from a container. A
// caller-supplied implementation of this interface is the "opaque native
// decoder" variant the spec allows for formats the core does not parse
// itself.
type Decoder interface {
	StreamInfo() frame.StreamInfo
	DecodeNextFrame() (f frame.AudioFrame, atEOF bool, err error)
	ReadFrames(buf []float32) (n int, err error)
	TrySeek(t time.Duration) error
	Release()
}

// Failure taxonomy. The first three are terminal; ErrSeekOutOfRange is
// recoverable. The bundled WAV/MP3/FLAC decoders do not return it: their
// TrySeek rejects an out-of-range target with its own error before moving,
// so the read position stays where it was.
var (
	ErrInvalidContainer  = fmt.Errorf("decoder: invalid container")
	ErrUnsupportedCodec  = fmt.Errorf("decoder: unsupported codec")
	ErrIO                = fmt.Errorf("decoder: I/O error")
	ErrSeekOutOfRange    = fmt.Errorf("decoder: seek out of range")
)

// Open dispatches to a concrete decoder by file extension.
func Open(path string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Open(path)
	case ".mp3":
		return mp3.Open(path)
	case ".flac":
		return flac.Open(path)
	default:
		return nil, fmt.Errorf("%w: unrecognized extension %q", ErrUnsupportedCodec, filepath.Ext(path))
	}
}
