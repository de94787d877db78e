//go:build !headless && linux

// Push-queue output backend: the application (or this package's own drain
// goroutine, pulling from the mixer) writes into an output ring buffer via
// Send, and a dedicated thread drains it to the ALSA device. Grounded on
// the teacher's audio_backend_alsa.go cgo wrapper (open/setup/write/close
// PCM helpers); generalized from a fixed mono sample rate to the engine's
// configured rate/channel count.
package engine

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* ownaudio_alsa_open(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int ownaudio_alsa_setup(snd_pcm_t* handle, unsigned int rate, unsigned int channels) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, channels);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int ownaudio_alsa_write(snd_pcm_t* handle, float* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void ownaudio_alsa_close(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/ModernMube/ownaudio/config"
)

// ALSAEngine is a push-queue backend for Linux hosts. engine.New never
// selects it (it tries oto, then malgo); callers construct it directly
// with NewALSAEngine.
type ALSAEngine struct {
	*PushEngine

	handle *C.snd_pcm_t
	cfg    config.AudioConfig

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	wg      sync.WaitGroup

	drainScratch []float32
}

// NewALSAEngine returns an uninitialized ALSAEngine.
func NewALSAEngine() *ALSAEngine {
	return &ALSAEngine{}
}

func (e *ALSAEngine) Initialize(cfg config.AudioConfig) error {
	var cerr C.int
	device := C.CString("default")
	defer C.free(unsafe.Pointer(device))

	handle := C.ownaudio_alsa_open(device, &cerr)
	if cerr < 0 {
		return config.NewError(config.Device, fmt.Errorf("alsa: open: %s", C.GoString(C.snd_strerror(cerr))))
	}
	if rc := C.ownaudio_alsa_setup(handle, C.uint(cfg.SampleRate), C.uint(cfg.Channels)); rc < 0 {
		C.ownaudio_alsa_close(handle)
		return config.NewError(config.Device, fmt.Errorf("alsa: setup: %s", C.GoString(C.snd_strerror(rc))))
	}

	e.handle = handle
	e.cfg = cfg
	e.PushEngine = NewPushEngine(0.25, cfg.SampleRate, cfg.Channels, cfg.BufferSizeFrames)
	e.drainScratch = make([]float32, cfg.BufferSizeFrames*cfg.Channels)
	return nil
}

// Start begins draining the output ring to the ALSA device on a dedicated
// goroutine. If render is non-nil, a second goroutine pulls from it and
// feeds Send directly, so callers that never call Send themselves (i.e.
// the mixer invoked as a plain Engine rather than being pumped externally)
// still get audio out.
func (e *ALSAEngine) Start(render RenderFunc, capture CaptureFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	e.running = true
	e.quit = make(chan struct{})

	e.wg.Add(1)
	go e.drainLoop()

	if render != nil {
		e.wg.Add(1)
		go e.fillLoop(render)
	}
	return nil
}

// fillLoop pumps the mixer's RenderFunc into the push queue in
// FramesPerBuffer chunks whenever there is free space, sleeping briefly
// otherwise - the same backpressure pattern the smart-master measurement
// service uses against any Engine.
func (e *ALSAEngine) fillLoop(render RenderFunc) {
	defer e.wg.Done()
	buf := make([]float32, e.framesPerBuffer*e.channels)
	for {
		select {
		case <-e.quit:
			return
		default:
		}
		if e.OutputBufferAvailable() < len(buf) {
			time.Sleep(time.Millisecond)
			continue
		}
		render(buf, e.framesPerBuffer)
		e.Send(buf)
	}
}

func (e *ALSAEngine) drainLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.quit:
			return
		default:
		}
		n, _ := e.Receive(e.drainScratch)
		if n == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		frames := n / e.cfg.Channels
		rc := C.ownaudio_alsa_write(e.handle, (*C.float)(unsafe.Pointer(&e.drainScratch[0])), C.int(frames))
		if rc < 0 && rc == -C.EPIPE {
			C.snd_pcm_prepare(e.handle)
		}
	}
}

func (e *ALSAEngine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	close(e.quit)
	e.running = false
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

func (e *ALSAEngine) Dispose() error {
	if e.handle != nil {
		C.ownaudio_alsa_close(e.handle)
		e.handle = nil
	}
	return nil
}

func (e *ALSAEngine) OutputDevices() []DeviceInfo {
	return []DeviceInfo{{ID: "default", Name: "ALSA default", MaxOutputChannels: e.cfg.Channels, IsDefault: true}}
}
func (e *ALSAEngine) InputDevices() []DeviceInfo { return nil }

func (e *ALSAEngine) SetOutputDevice(id string) error {
	return config.NewError(config.Device, fmt.Errorf("alsa: only the %q device is supported by this backend", "default"))
}
func (e *ALSAEngine) SetInputDevice(id string) error {
	return config.NewError(config.Device, fmt.Errorf("alsa: input capture not implemented by this backend"))
}
