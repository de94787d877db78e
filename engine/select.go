//go:build !headless

package engine

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ModernMube/ownaudio/config"
)

// New selects a concrete backend in the spec's advisory order - oto's
// pull-callback model first, falling back to the portable malgo backend,
// which must always succeed if any output device exists - and returns it
// already Initialize'd. No package-level engine singleton is kept; callers
// thread the returned handle explicitly into the mixer/smartmaster
// constructors.
func New(cfg config.AudioConfig, logger *log.Logger) (Engine, error) {
	oto := NewOtoEngine()
	if err := oto.Initialize(cfg); err == nil {
		if logger != nil {
			logger.Info("selected backend", "backend", "oto")
		}
		return oto, nil
	}

	m := NewMalgoEngine()
	if err := m.Initialize(cfg); err == nil {
		if logger != nil {
			logger.Info("selected backend", "backend", "malgo")
		}
		return m, nil
	}

	return nil, config.NewError(config.Device, fmt.Errorf("no audio output backend available"))
}
