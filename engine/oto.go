//go:build !headless

// Pull-callback output backend: oto's own playback thread calls Read,
// requesting audio in its own time, and the mixer's RenderFunc is invoked
// directly from that thread. Grounded on the teacher's audio_backend_oto.go
// (NewContext/NewPlayer/Read-as-callback shape, atomic.Pointer handoff of
// the render source instead of a lock).
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"

	"github.com/ModernMube/ownaudio/config"
)

// OtoEngine is the preferred backend: the device need not own an output
// ring buffer since oto pulls directly.
type OtoEngine struct {
	cfg             config.AudioConfig
	ctx             *oto.Context
	player          *oto.Player
	render          atomic.Pointer[RenderFunc]
	scratch         []float32
	framesPerBuffer int

	mu      sync.Mutex
	started bool
}

// NewOtoEngine returns an uninitialized OtoEngine.
func NewOtoEngine() *OtoEngine {
	return &OtoEngine{}
}

func (e *OtoEngine) Initialize(cfg config.AudioConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0, // let oto pick a sane low-latency default
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return config.NewError(config.Device, fmt.Errorf("oto: %w", err))
	}
	<-ready

	e.cfg = cfg
	e.ctx = ctx
	e.framesPerBuffer = cfg.BufferSizeFrames
	e.scratch = make([]float32, cfg.BufferSizeFrames*cfg.Channels)
	return nil
}

func (e *OtoEngine) Start(render RenderFunc, capture CaptureFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx == nil {
		return config.NewError(config.Device, fmt.Errorf("oto: Start called before Initialize"))
	}
	e.render.Store(&render)
	if e.player == nil {
		e.player = e.ctx.NewPlayer(e)
	}
	if !e.started {
		e.player.Play()
		e.started = true
	}
	return nil
}

// Read implements io.Reader for oto.Context.NewPlayer: it is called from
// oto's own playback thread and must never block or allocate once warmed
// up. render is loaded atomically so a control-thread Start/Stop racing
// with this callback never tears a partial render.
func (e *OtoEngine) Read(p []byte) (int, error) {
	renderPtr := e.render.Load()
	if renderPtr == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	bytesPerFrame := 4 * e.cfg.Channels
	nFrames := len(p) / bytesPerFrame
	needed := nFrames * e.cfg.Channels
	if cap(e.scratch) < needed {
		e.scratch = make([]float32, needed)
	}
	buf := e.scratch[:needed]

	(*renderPtr)(buf, nFrames)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&buf[0]))[:nFrames*bytesPerFrame])
	for i := nFrames * bytesPerFrame; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

func (e *OtoEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.render.Store(nil)
	if e.started && e.player != nil {
		e.player.Pause()
		e.started = false
	}
	return nil
}

func (e *OtoEngine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player != nil {
		e.player.Close()
		e.player = nil
	}
	return nil
}

func (e *OtoEngine) FramesPerBuffer() int { return e.framesPerBuffer }

// Send/Receive are unsupported on a pure pull backend: there is no
// intermediate queue for the application to feed or drain.
func (e *OtoEngine) Send(samples []float32) (int, error)    { return 0, nil }
func (e *OtoEngine) Receive(out []float32) (int, error)     { return 0, nil }
func (e *OtoEngine) OutputBufferAvailable() int             { return e.framesPerBuffer }
func (e *OtoEngine) ClearOutputBuffer()                     {}

// Device enumeration: oto has no cross-platform enumeration API, so a
// single synthesized default device is reported, matching the teacher's
// own single-device assumption.
func (e *OtoEngine) OutputDevices() []DeviceInfo {
	return []DeviceInfo{{ID: "default", Name: "System Default Output", MaxOutputChannels: e.cfg.Channels, IsDefault: true}}
}
func (e *OtoEngine) InputDevices() []DeviceInfo { return nil }

func (e *OtoEngine) SetOutputDevice(id string) error {
	return config.NewError(config.Device, fmt.Errorf("oto: device selection not supported, only %q", "default"))
}
func (e *OtoEngine) SetInputDevice(id string) error {
	return config.NewError(config.Device, fmt.Errorf("oto: input not supported by this backend"))
}
