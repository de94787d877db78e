//go:build !headless

// Portable fallback output backend built on miniaudio via gen2brain/malgo.
// Per the spec, "falling back to a portable miniaudio-equivalent
// implementation must always succeed if any output device exists" - this
// is that backend, selected when neither oto nor a platform-native backend
// is available. Grounded on the pack's malgo playback pattern
// (InitContext/DefaultDeviceConfig/DeviceCallbacks.Data as the pull
// callback), generalized from a fixed mono ring buffer to a direct
// RenderFunc pull so no intermediate copy is needed.
package engine

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/ModernMube/ownaudio/config"
)

type MalgoEngine struct {
	cfg    config.AudioConfig
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	render atomic.Pointer[RenderFunc]

	mu      sync.Mutex
	started bool

	scratch []float32
}

func NewMalgoEngine() *MalgoEngine {
	return &MalgoEngine{}
}

func (e *MalgoEngine) Initialize(cfg config.AudioConfig) error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return config.NewError(config.Device, fmt.Errorf("malgo: init context: %w", err))
	}
	e.cfg = cfg
	e.ctx = ctx
	e.scratch = make([]float32, cfg.BufferSizeFrames*cfg.Channels)
	return nil
}

func (e *MalgoEngine) Start(render RenderFunc, capture CaptureFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	e.render.Store(&render)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(e.cfg.Channels)
	deviceConfig.SampleRate = uint32(e.cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(e.cfg.BufferSizeFrames)

	onSendFrames := func(pOutput, pInput []byte, frameCount uint32) {
		renderPtr := e.render.Load()
		nFrames := int(frameCount)
		needed := nFrames * e.cfg.Channels
		if cap(e.scratch) < needed {
			e.scratch = make([]float32, needed)
		}
		buf := e.scratch[:needed]
		if renderPtr == nil {
			for i := range buf {
				buf[i] = 0
			}
		} else {
			(*renderPtr)(buf, nFrames)
		}
		for i, s := range buf {
			binary.LittleEndian.PutUint32(pOutput[i*4:], math.Float32bits(s))
		}
	}

	device, err := malgo.InitDevice(e.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSendFrames})
	if err != nil {
		return config.NewError(config.Device, fmt.Errorf("malgo: init device: %w", err))
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return config.NewError(config.Device, fmt.Errorf("malgo: start device: %w", err))
	}

	e.device = device
	e.started = true
	return nil
}

func (e *MalgoEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.render.Store(nil)
	if e.started && e.device != nil {
		e.device.Stop()
		e.started = false
	}
	return nil
}

func (e *MalgoEngine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.device != nil {
		e.device.Uninit()
		e.device = nil
	}
	if e.ctx != nil {
		e.ctx.Uninit()
		e.ctx.Free()
		e.ctx = nil
	}
	return nil
}

func (e *MalgoEngine) FramesPerBuffer() int { return e.cfg.BufferSizeFrames }

func (e *MalgoEngine) Send(samples []float32) (int, error) { return 0, nil }
func (e *MalgoEngine) Receive(out []float32) (int, error)  { return 0, nil }
func (e *MalgoEngine) OutputBufferAvailable() int          { return e.cfg.BufferSizeFrames }
func (e *MalgoEngine) ClearOutputBuffer()                  {}

func (e *MalgoEngine) OutputDevices() []DeviceInfo {
	if e.ctx == nil {
		return nil
	}
	infos, err := e.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil
	}
	out := make([]DeviceInfo, 0, len(infos))
	for _, d := range infos {
		out = append(out, DeviceInfo{ID: d.ID.String(), Name: d.Name(), MaxOutputChannels: e.cfg.Channels, IsDefault: d.IsDefault != 0})
	}
	return out
}

func (e *MalgoEngine) InputDevices() []DeviceInfo {
	if e.ctx == nil {
		return nil
	}
	infos, err := e.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil
	}
	out := make([]DeviceInfo, 0, len(infos))
	for _, d := range infos {
		out = append(out, DeviceInfo{ID: d.ID.String(), Name: d.Name(), MaxInputChannels: 1, IsDefault: d.IsDefault != 0})
	}
	return out
}

func (e *MalgoEngine) SetOutputDevice(id string) error {
	return config.NewError(config.Device, fmt.Errorf("malgo: device switching requires a device re-init, not implemented"))
}
func (e *MalgoEngine) SetInputDevice(id string) error {
	return config.NewError(config.Device, fmt.Errorf("malgo: input capture device switching not implemented"))
}
