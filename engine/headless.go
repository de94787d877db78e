//go:build headless

// Zero-I/O stub backend for CI and deterministic tests, matching the
// teacher's own headless build-tag convention (audio_backend_headless.go):
// no device is opened, render is still pumped so callers can exercise the
// mixer/source chain without real hardware.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ModernMube/ownaudio/config"
)

type HeadlessEngine struct {
	cfg     config.AudioConfig
	render  atomic.Pointer[RenderFunc]
	mu      sync.Mutex
	started bool
	quit    chan struct{}
	wg      sync.WaitGroup
}

func NewHeadlessEngine() *HeadlessEngine { return &HeadlessEngine{} }

func (e *HeadlessEngine) Initialize(cfg config.AudioConfig) error {
	e.cfg = cfg
	return nil
}

func (e *HeadlessEngine) Start(render RenderFunc, capture CaptureFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	e.render.Store(&render)
	e.started = true
	e.quit = make(chan struct{})

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		buf := make([]float32, e.cfg.BufferSizeFrames*e.cfg.Channels)
		interval := time.Duration(float64(e.cfg.BufferSizeFrames) / float64(e.cfg.SampleRate) * float64(time.Second))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-e.quit:
				return
			case <-ticker.C:
				if r := e.render.Load(); r != nil {
					(*r)(buf, e.cfg.BufferSizeFrames)
				}
			}
		}
	}()
	return nil
}

func (e *HeadlessEngine) Stop() error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	close(e.quit)
	e.started = false
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

func (e *HeadlessEngine) Dispose() error { return nil }

func (e *HeadlessEngine) FramesPerBuffer() int { return e.cfg.BufferSizeFrames }

func (e *HeadlessEngine) Send(samples []float32) (int, error) { return len(samples), nil }
func (e *HeadlessEngine) Receive(out []float32) (int, error)  { return 0, nil }
func (e *HeadlessEngine) OutputBufferAvailable() int          { return e.cfg.BufferSizeFrames }
func (e *HeadlessEngine) ClearOutputBuffer()                  {}

func (e *HeadlessEngine) OutputDevices() []DeviceInfo {
	return []DeviceInfo{{ID: "headless", Name: "Headless", MaxOutputChannels: e.cfg.Channels, IsDefault: true}}
}
func (e *HeadlessEngine) InputDevices() []DeviceInfo {
	return []DeviceInfo{{ID: "headless", Name: "Headless", MaxInputChannels: e.cfg.Channels, IsDefault: true}}
}
func (e *HeadlessEngine) SetOutputDevice(id string) error { return nil }
func (e *HeadlessEngine) SetInputDevice(id string) error  { return nil }
