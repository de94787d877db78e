// Package engine implements the abstract audio device interface: device
// enumeration, configuration, start/stop lifecycle, and callback dispatch
// to the mixer. Concrete backends (oto pull-callback, ALSA push-queue,
// malgo portable fallback, a headless stub) all satisfy the same Engine
// interface so the mixer and application code never depend on which one is
// active.
package engine

import (
	"github.com/ModernMube/ownaudio/config"
)

// DeviceInfo describes one enumerated audio device.
type DeviceInfo struct {
	ID                string
	Name              string
	MaxOutputChannels int
	MaxInputChannels  int
	IsDefault         bool
}

// RenderFunc is supplied by the mixer: fills out (interleaved, nFrames *
// channels samples) with the next block to play. Called from the backend's
// own high-priority thread in the pull-callback dispatch model.
type RenderFunc func(out []float32, nFrames int)

// CaptureFunc is called by the backend's own capture thread with newly
// captured, already engine-format interleaved audio. An input source's
// Input.PushCaptured also returns the accepted count, so it is passed in
// through a small closure rather than directly.
type CaptureFunc func(samples []float32)

// Engine is the abstract device interface every backend implements.
// Initialize/Start/Stop/Dispose are control-plane operations; Send/Receive
// exist for the push-queue dispatch model and are no-ops (or unsupported)
// on a pure pull-callback backend.
type Engine interface {
	Initialize(cfg config.AudioConfig) error
	Start(render RenderFunc, capture CaptureFunc) error
	Stop() error
	Dispose() error

	FramesPerBuffer() int

	// Send writes samples into the engine's output queue (push-queue
	// backends only); pull-callback backends return 0, nil since they
	// have no intermediate queue for the application to feed.
	Send(samples []float32) (n int, err error)
	// Receive reads captured samples out of the engine's input queue.
	Receive(out []float32) (n int, err error)

	OutputDevices() []DeviceInfo
	InputDevices() []DeviceInfo
	SetOutputDevice(id string) error
	SetInputDevice(id string) error

	ClearOutputBuffer()
	OutputBufferAvailable() int
}
