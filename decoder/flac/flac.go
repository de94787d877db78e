// Package flac implements the decoder.Decoder interface for FLAC files,
// backed by mewkiz/flac.
package flac

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mewkiz/flac"

	"github.com/ModernMube/ownaudio/frame"
)

// Decoder adapts mewkiz/flac's per-subframe int32 sample blocks to the
// module's interleaved float32 streaming Decoder interface.
type Decoder struct {
	file   *os.File
	stream *flac.Stream
	info   frame.StreamInfo

	scale float32
}

// Open opens path as a FLAC file and reads its STREAMINFO block.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decoder/flac: open %s: %w", path, err)
	}
	stream, err := flac.NewSeek(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoder/flac: %s: %w", path, err)
	}

	si := stream.Info
	var duration time.Duration
	if si.SampleRate > 0 && si.NSamples > 0 {
		duration = time.Duration(float64(si.NSamples) / float64(si.SampleRate) * float64(time.Second))
	}

	bitsPerSample := int(si.BitsPerSample)
	scale := float32(1 << uint(bitsPerSample-1))

	return &Decoder{
		file:   f,
		stream: stream,
		scale:  scale,
		info: frame.StreamInfo{
			SampleRate: int(si.SampleRate),
			Channels:   int(si.NChannels),
			Duration:   duration,
			Codec:      frame.CodecFLAC,
		},
	}, nil
}

func (d *Decoder) StreamInfo() frame.StreamInfo { return d.info }

// DecodeNextFrame decodes one native FLAC frame (a variable number of
// samples per subframe) and interleaves it into an AudioFrame.
func (d *Decoder) DecodeNextFrame() (frame.AudioFrame, bool, error) {
	fr, err := d.stream.ParseNext()
	if err == io.EOF {
		return frame.AudioFrame{}, true, nil
	}
	if err != nil {
		return frame.AudioFrame{}, true, fmt.Errorf("decoder/flac: %w", err)
	}

	ch := d.info.Channels
	n := fr.BlockSize
	out := make([]float32, n*ch)
	for c := 0; c < ch && c < len(fr.Subframes); c++ {
		sub := fr.Subframes[c]
		for i := 0; i < n && i < len(sub.Samples); i++ {
			out[i*ch+c] = float32(sub.Samples[i]) / d.scale
		}
	}

	return frame.AudioFrame{
		Samples:    out,
		SampleRate: d.info.SampleRate,
		Channels:   ch,
	}, false, nil
}

// ReadFrames pulls successive native FLAC frames (via DecodeNextFrame)
// until buf is filled or the stream ends.
func (d *Decoder) ReadFrames(buf []float32) (int, error) {
	ch := d.info.Channels
	written := 0
	for written < len(buf) {
		f, atEOF, err := d.DecodeNextFrame()
		if atEOF || err != nil {
			return written / ch, err
		}
		n := copy(buf[written:], f.Samples)
		written += n
	}
	return written / ch, nil
}

// TrySeek uses mewkiz/flac's sample-accurate seek table when present.
func (d *Decoder) TrySeek(t time.Duration) error {
	if t < 0 || (d.info.HasKnownDuration() && t > d.info.Duration) {
		return fmt.Errorf("decoder/flac: seek to %v out of range [0, %v]", t, d.info.Duration)
	}
	targetSample := uint64(t.Seconds() * float64(d.info.SampleRate))
	if _, err := d.stream.Seek(targetSample); err != nil {
		return fmt.Errorf("decoder/flac: seek: %w", err)
	}
	return nil
}

func (d *Decoder) Release() {
	d.stream.Close()
	d.file.Close()
}
