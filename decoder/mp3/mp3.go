// Package mp3 implements the decoder.Decoder interface for MP3 (arbitrary
// CBR/VBR) files, backed by hajimehoshi/go-mp3.
package mp3

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"github.com/ModernMube/ownaudio/frame"
)

const mp3Channels = 2 // go-mp3 always decodes to interleaved stereo s16le

// Decoder adapts go-mp3's io.Reader of interleaved signed-16 PCM to the
// module's float32 streaming Decoder interface.
type Decoder struct {
	file *os.File
	dec  *mp3.Decoder
	info frame.StreamInfo

	byteScratch []byte
}

// Open opens path as an MP3 file and reads its header.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decoder/mp3: open %s: %w", path, err)
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoder/mp3: %s: %w", path, err)
	}

	sampleRate := dec.SampleRate()
	var duration time.Duration
	if length := dec.Length(); length >= 0 {
		bytesPerFrame := mp3Channels * 2
		totalFrames := length / int64(bytesPerFrame)
		duration = time.Duration(float64(totalFrames) / float64(sampleRate) * float64(time.Second))
	}

	return &Decoder{
		file: f,
		dec:  dec,
		info: frame.StreamInfo{
			SampleRate: sampleRate,
			Channels:   mp3Channels,
			Duration:   duration,
			Codec:      frame.CodecMP3,
		},
	}, nil
}

func (d *Decoder) StreamInfo() frame.StreamInfo { return d.info }

func (d *Decoder) ReadFrames(buf []float32) (int, error) {
	wantFrames := len(buf) / mp3Channels
	if wantFrames == 0 {
		return 0, nil
	}
	needBytes := wantFrames * mp3Channels * 2
	if cap(d.byteScratch) < needBytes {
		d.byteScratch = make([]byte, needBytes)
	}
	b := d.byteScratch[:needBytes]

	n, err := d.dec.Read(b)
	if n == 0 {
		return 0, err
	}
	samples := n / 2
	for i := 0; i < samples; i++ {
		v := int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
		buf[i] = float32(v) / 32768
	}
	return samples / mp3Channels, nil
}

func (d *Decoder) DecodeNextFrame() (frame.AudioFrame, bool, error) {
	const framesPerChunk = 4096
	buf := make([]float32, framesPerChunk*mp3Channels)
	n, err := d.ReadFrames(buf)
	if n == 0 {
		return frame.AudioFrame{}, true, err
	}
	return frame.AudioFrame{
		Samples:    buf[:n*mp3Channels],
		SampleRate: d.info.SampleRate,
		Channels:   mp3Channels,
	}, false, nil
}

// TrySeek uses go-mp3's byte-offset seek, converting from a time position
// to the equivalent PCM byte offset.
func (d *Decoder) TrySeek(t time.Duration) error {
	if t < 0 {
		return fmt.Errorf("decoder/mp3: seek to %v out of range", t)
	}
	offset := int64(t.Seconds()*float64(d.info.SampleRate)) * int64(mp3Channels) * 2
	if _, err := d.dec.Seek(offset, 0); err != nil {
		return fmt.Errorf("decoder/mp3: seek: %w", err)
	}
	return nil
}

func (d *Decoder) Release() {
	d.file.Close()
}
