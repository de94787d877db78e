// Package wav implements the decoder.Decoder interface for RIFF/WAVE
// files (PCM u8/s16/s24/s32 and IEEE float32), backed by go-audio/wav and
// go-audio/audio.
package wav

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ModernMube/ownaudio/frame"
)

const framesPerChunk = 4096

// Decoder adapts go-audio/wav's chunked IntBuffer reads to the module's
// float32 streaming Decoder interface.
type Decoder struct {
	file     *os.File
	dec      *wav.Decoder
	info     frame.StreamInfo
	bitDepth int

	scratch *audio.IntBuffer
}

// Open opens path as a WAV file and reads its header.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decoder/wav: open %s: %w", path, err)
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("decoder/wav: %s is not a valid WAV file", path)
	}
	d.ReadInfo()

	dur, _ := d.Duration()

	out := &Decoder{
		file:     f,
		dec:      d,
		bitDepth: int(d.BitDepth),
		info: frame.StreamInfo{
			SampleRate: int(d.SampleRate),
			Channels:   int(d.NumChans),
			Duration:   dur,
			Codec:      frame.CodecWAV,
		},
	}
	out.scratch = &audio.IntBuffer{
		Format: &audio.Format{NumChannels: out.info.Channels, SampleRate: out.info.SampleRate},
		Data:   make([]int, framesPerChunk*out.info.Channels),
	}
	return out, nil
}

func (d *Decoder) StreamInfo() frame.StreamInfo { return d.info }

func (d *Decoder) intToFloat32(v int) float32 {
	switch d.bitDepth {
	case 8:
		return (float32(v) - 128) / 128
	case 16:
		return float32(v) / 32768
	case 24:
		return float32(v) / 8388608
	case 32:
		return float32(v) / 2147483648
	default:
		return float32(v) / 32768
	}
}

// ReadFrames decodes directly into buf (interleaved float32), returning the
// number of per-channel frames written.
func (d *Decoder) ReadFrames(buf []float32) (int, error) {
	ch := d.info.Channels
	wantFrames := len(buf) / ch
	if wantFrames == 0 {
		return 0, nil
	}
	if cap(d.scratch.Data) < wantFrames*ch {
		d.scratch.Data = make([]int, wantFrames*ch)
	}
	d.scratch.Data = d.scratch.Data[:wantFrames*ch]

	n, err := d.dec.PCMBuffer(d.scratch)
	if err != nil {
		return 0, fmt.Errorf("decoder/wav: %w", err)
	}
	for i := 0; i < n; i++ {
		buf[i] = d.intToFloat32(d.scratch.Data[i])
	}
	framesRead := n / ch
	return framesRead, nil
}

// DecodeNextFrame decodes one chunk of framesPerChunk frames.
func (d *Decoder) DecodeNextFrame() (frame.AudioFrame, bool, error) {
	buf := make([]float32, framesPerChunk*d.info.Channels)
	n, err := d.ReadFrames(buf)
	if n == 0 {
		return frame.AudioFrame{}, true, err
	}
	return frame.AudioFrame{
		Samples:    buf[:n*d.info.Channels],
		SampleRate: d.info.SampleRate,
		Channels:   d.info.Channels,
	}, false, nil
}

// TrySeek seeks to the data chunk offset corresponding to t. go-audio/wav
// does not expose random-access seeking directly, so this walks forward in
// framesPerChunk strides from the start of the data - adequate for the
// non-performance-critical control-thread seek path.
func (d *Decoder) TrySeek(t time.Duration) error {
	if t < 0 || (d.info.HasKnownDuration() && t > d.info.Duration) {
		return fmt.Errorf("decoder/wav: seek to %v out of range [0, %v]", t, d.info.Duration)
	}
	if err := d.dec.Seek(0, 0); err != nil {
		return fmt.Errorf("decoder/wav: %w", err)
	}
	d.dec.ReadInfo()

	targetFrame := int(t.Seconds() * float64(d.info.SampleRate))
	scratch := make([]float32, framesPerChunk*d.info.Channels)
	for remaining := targetFrame; remaining > 0; {
		want := framesPerChunk
		if want > remaining {
			want = remaining
		}
		n, err := d.ReadFrames(scratch[:want*d.info.Channels])
		if n == 0 || err != nil {
			break
		}
		remaining -= n
	}
	return nil
}

func (d *Decoder) Release() {
	d.file.Close()
}
