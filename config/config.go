// Package config holds the engine-wide AudioConfig type, the discriminated
// error-kind taxonomy shared across the module, and the ambient structured
// logger construction.
package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// AudioConfig is immutable after Initialize. Constructed via NewAudioConfig,
// which validates eagerly rather than letting an invalid config surface as
// a panic deep in the engine.
type AudioConfig struct {
	SampleRate       int
	Channels         int
	BufferSizeFrames int
	EnableInput      bool
	EnableOutput     bool
	PreferredDevice  string
	HostTypeHint     string
}

// NewAudioConfig validates cfg per the data-model invariants (sample rate
// > 0, channels in [1, 32], buffer size a positive integer) and returns an
// *Error of kind Configuration describing the first violation found.
func NewAudioConfig(cfg AudioConfig) (AudioConfig, error) {
	if cfg.SampleRate <= 0 {
		return AudioConfig{}, NewError(Configuration, fmt.Errorf("sample rate must be > 0, got %d", cfg.SampleRate))
	}
	if cfg.Channels < 1 || cfg.Channels > 32 {
		return AudioConfig{}, NewError(Configuration, fmt.Errorf("channels must be in [1, 32], got %d", cfg.Channels))
	}
	if cfg.BufferSizeFrames <= 0 {
		return AudioConfig{}, NewError(Configuration, fmt.Errorf("buffer size must be a positive integer, got %d", cfg.BufferSizeFrames))
	}
	return cfg, nil
}

// ErrorKind discriminates the error taxonomy from the error-handling design:
// configuration, device, format, I/O, runtime, and measurement errors.
type ErrorKind int

const (
	Configuration ErrorKind = iota
	Device
	Format
	IO
	Runtime
	Measurement
)

func (k ErrorKind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Device:
		return "device"
	case Format:
		return "format"
	case IO:
		return "io"
	case Runtime:
		return "runtime"
	case Measurement:
		return "measurement"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a discriminated kind so callers can
// branch on failure category without string matching.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewLogger returns a charmbracelet/log logger scoped with a "component"
// field, constructed explicitly rather than drawn from a package-level
// global so each owner (engine, mixer, smartmaster) threads its own handle.
func NewLogger(component string) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          component,
	})
	return l
}
