//go:build headless

package engine

import (
	"github.com/charmbracelet/log"

	"github.com/ModernMube/ownaudio/config"
)

// New returns the headless stub backend when built with the headless tag,
// matching the teacher's own headless build-tag convention for CI.
func New(cfg config.AudioConfig, logger *log.Logger) (Engine, error) {
	e := NewHeadlessEngine()
	if err := e.Initialize(cfg); err != nil {
		return nil, err
	}
	return e, nil
}
