package source

import (
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ModernMube/ownaudio/decoder"
	"github.com/ModernMube/ownaudio/events"
	"github.com/ModernMube/ownaudio/pcm"
	"github.com/ModernMube/ownaudio/ringbuffer"
)

// ringFrames is how many frames of converted, engine-rate audio the
// background decode goroutine keeps buffered ahead of the render thread.
const ringFrames = 1 << 16 // ~1.4s at 48kHz

// File streams a decoded container (WAV/MP3/FLAC) from a background
// goroutine into a lock-free ring buffer that ReadSamples drains on the
// render thread. Grounded on the pack's file-player producer-goroutine
// pattern: a single decode goroutine owns the decoder and the ring's write
// side; the render thread only ever reads.
type File struct {
	Base

	path string

	mu      sync.Mutex
	dec     decoder.Decoder
	conv    *pcm.Converter
	tempo   *pcm.Resampler // second resample stage retuned to PitchTempoFactor()
	ring    *ringbuffer.Ring[float32]

	quit     chan struct{}
	wake     chan struct{}
	wg       sync.WaitGroup
	started  atomic.Bool

	seekTo   atomic.Int64 // pending seek target in microseconds; noSeekPending means none
	lastFactor float64

	pendingPadFrames int // frames to emit as silence instead of ring data, correcting a lag
}

const noSeekPending = int64(math.MinInt64)

// NewFile opens path and returns a File source rendering at engineRate/
// engineChannels. The background decode goroutine is started lazily on the
// first Play().
func NewFile(path string, engineRate, engineChannels int, bus *events.Bus) (*File, error) {
	dec, err := decoder.Open(path)
	if err != nil {
		return nil, err
	}
	info := dec.StreamInfo()

	f := &File{
		Base: NewBase(engineRate, engineChannels, bus),
		path: path,
		dec:  dec,
		ring: ringbuffer.New[float32](ringFrames * engineChannels),
		quit: make(chan struct{}),
		wake: make(chan struct{}, 1),
	}
	f.conv = pcm.NewConverter(pcm.Config{
		SourceRate:     info.SampleRate,
		SourceChannels: info.Channels,
		TargetRate:     engineRate,
		TargetChannels: engineChannels,
	})
	f.tempo = pcm.NewResampler(engineRate, engineRate, engineChannels)
	f.lastFactor = 1
	f.seekTo.Store(noSeekPending)
	return f, nil
}

func (f *File) Kind() Kind { return KindFile }

func (f *File) SupportsJumpSeek() bool { return true }

// ClockReset does nothing: a clock Seek/Reset leaves the File's own
// position unchanged, and the underlying decoder is only rewound via Seek.
func (f *File) ClockReset() {}

func (f *File) Play() {
	f.Base.Play()
	if f.started.CompareAndSwap(false, true) {
		f.wg.Add(1)
		go f.decodeLoop()
	}
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

func (f *File) Stop() {
	f.Base.Stop()
	if f.started.CompareAndSwap(true, false) {
		close(f.quit)
		f.wg.Wait()
		// Replace quit with a fresh channel so a later Play() can start a
		// new decodeLoop; the old one is already closed and would make
		// the new goroutine's first select exit immediately otherwise.
		f.quit = make(chan struct{})
	}
}

// Seek requests the decode goroutine rewind to seconds; it takes effect
// asynchronously, the next time the goroutine notices the request.
func (f *File) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	f.seekTo.Store(int64(seconds * 1e6))
	f.setPosition(seconds)
	f.state.CompareAndSwap(int32(Playing), int32(Buffering))
	select {
	case f.wake <- struct{}{}:
	default:
	}
	return nil
}

// ReadSamples drains engine-rate, engine-channel audio from the ring
// buffer. An underrun (the decode goroutine fell behind) is padded with
// silence and reported as a TrackDropout.
func (f *File) ReadSamples(out []float32) int {
	ch := f.Channels
	wantFrames := len(out) / ch

	if f.State() != Playing && f.State() != Buffering {
		for i := range out {
			out[i] = 0
		}
		return 0
	}

	if f.shouldEmitSilence() {
		for i := range out {
			out[i] = 0
		}
		return wantFrames
	}

	padFrames := 0
	if f.pendingPadFrames > 0 {
		padFrames = f.pendingPadFrames
		if padFrames > wantFrames {
			padFrames = wantFrames
		}
		f.pendingPadFrames -= padFrames
		for i := 0; i < padFrames*ch; i++ {
			out[i] = 0
		}
	}

	rest := out[padFrames*ch:]
	got := f.ring.Read(rest)
	if got > 0 {
		f.state.CompareAndSwap(int32(Buffering), int32(Playing))
	}
	gotFrames := padFrames + got/ch
	if gotFrames < wantFrames {
		for i := got; i < len(rest); i++ {
			rest[i] = 0
		}
		// The mixer itself posts TrackDropout for any source reporting
		// fewer frames than requested; it knows the source id and the
		// clock timestamp without needing us attached to a clock.
	}

	vol := f.Volume()
	if vol != 1 {
		for i := range out {
			out[i] *= vol
		}
	}

	f.advancePosition(gotFrames)

	tolerance := f.SampleRate / 100 // ~10ms
	switch drift := f.driftFrames(); {
	case drift > int64(tolerance):
		// Running ahead of the clock: the ring holds more decoded audio
		// than playback should have reached yet. Drop the excess from the
		// ring so the next block's content catches down to where it
		// should be, rather than letting the lead grow unbounded.
		skipped := f.ring.Skip(int(drift) * ch)
		f.postDropout(skipped/ch, events.ReasonDriftSkip)
	case drift < -int64(tolerance):
		// Running behind the clock: hold back ring consumption and emit
		// silence for the deficit on the next call(s) instead, so
		// playback position catches up to where the clock expects it.
		f.pendingPadFrames += int(-drift - int64(tolerance))
		f.postDropout(int(-drift), events.ReasonDriftPad)
	}

	return gotFrames
}

func (f *File) decodeLoop() {
	defer f.wg.Done()
	defer f.dec.Release()

	scratchFrames := 2048
	srcCh := f.dec.StreamInfo().Channels
	buf := make([]float32, scratchFrames*srcCh)

	for {
		select {
		case <-f.quit:
			return
		default:
		}

		if seekUS := f.seekTo.Swap(noSeekPending); seekUS != noSeekPending {
			target := time.Duration(seekUS) * time.Microsecond
			f.mu.Lock()
			if err := f.dec.TrySeek(target); err != nil {
				f.fail(err.Error())
				f.mu.Unlock()
				return
			}
			f.conv.Reset()
			f.tempo.Reset()
			f.ring.Clear()
			f.mu.Unlock()
		}

		if f.ring.AvailableWrite() < scratchFrames*f.Channels {
			select {
			case <-f.quit:
				return
			case <-f.wake:
			case <-time.After(5 * time.Millisecond):
			}
			continue
		}

		n, err := f.dec.ReadFrames(buf)
		if n == 0 && err != nil && !errors.Is(err, io.EOF) {
			f.fail(err.Error())
			return
		}
		if n == 0 {
			if f.Loop() {
				if serr := f.dec.TrySeek(0); serr == nil {
					f.conv.Reset()
					f.tempo.Reset()
					continue
				}
			}
			f.setState(Ended)
			return
		}

		converted := f.conv.Process(buf[:n*srcCh])

		if factor := f.PitchTempoFactor(); factor != f.lastFactor {
			f.tempo.SetRatio(factor)
			f.lastFactor = factor
		}
		converted = f.tempo.Process(converted)

		written := 0
		for written < len(converted) {
			select {
			case <-f.quit:
				return
			default:
			}
			written += f.ring.Write(converted[written:])
			if written < len(converted) {
				time.Sleep(time.Millisecond)
			}
		}
	}
}
