// Package smartmaster implements the smart-master control plane: preset
// persistence, the measurement state machine, the microphone monitor, and
// the composed smart-master effect chain those presets drive.
package smartmaster

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Preset is the on-disk JSON shape for a smart-master configuration,
// camelCase field names per the spec's preset format.
type Preset struct {
	GraphicEQGains       [31]float64    `json:"graphicEQGains"`
	SubharmonicEnabled   bool           `json:"subharmonicEnabled"`
	SubharmonicMix       float64        `json:"subharmonicMix"`
	SubharmonicFreqRange float64        `json:"subharmonicFreqRange"`
	CompressorEnabled    bool           `json:"compressorEnabled"`
	CompressorThreshold  float64        `json:"compressorThreshold"`
	CompressorRatio      float64        `json:"compressorRatio"`
	CompressorAttack     float64        `json:"compressorAttack"`
	CompressorRelease    float64        `json:"compressorRelease"`
	CrossoverFrequency   float64        `json:"crossoverFrequency"`
	TimeDelays           [3]float64     `json:"timeDelays"`
	PhaseInvert          [3]bool        `json:"phaseInvert"`
	ParametricEQGains    [3][10]float64 `json:"parametricEQGains"`
	LimiterThreshold     float64        `json:"limiterThreshold"`
	LimiterCeiling       float64        `json:"limiterCeiling"`
	LimiterRelease       float64        `json:"limiterRelease"`
	MicInputGain         float64        `json:"micInputGain"`
	LastMeasurement      *Result        `json:"lastMeasurement,omitempty"`
}

// flatPreset is the identity EQ/compressor/limiter starting point every
// factory preset is derived from.
func flatPreset() Preset {
	return Preset{
		CompressorThreshold: -18,
		CompressorRatio:     4,
		CompressorAttack:    10,
		CompressorRelease:   100,
		CrossoverFrequency:  2000,
		LimiterThreshold:    -1,
		LimiterCeiling:      -0.3,
		LimiterRelease:      50,
		MicInputGain:        1,
		SubharmonicFreqRange: 100,
	}
}

// FactoryPresets returns the six presets auto-generated on first run.
// Named per the spec's factory list: Default, HiFi, Headphone, Studio,
// Club, Concert.
func FactoryPresets() map[string]Preset {
	presets := map[string]Preset{
		"Default":  flatPreset(),
		"HiFi":     flatPreset(),
		"Headphone": flatPreset(),
		"Studio":   flatPreset(),
		"Club":     flatPreset(),
		"Concert":  flatPreset(),
	}

	hifi := presets["HiFi"]
	for i := 24; i < 31; i++ {
		hifi.GraphicEQGains[i] = 2 // gentle top-end lift
	}
	presets["HiFi"] = hifi

	headphone := presets["Headphone"]
	headphone.SubharmonicEnabled = true
	headphone.SubharmonicMix = 0.2
	presets["Headphone"] = headphone

	studio := presets["Studio"]
	studio.CompressorEnabled = true
	presets["Studio"] = studio

	club := presets["Club"]
	club.SubharmonicEnabled = true
	club.SubharmonicMix = 0.4
	club.CompressorEnabled = true
	club.CompressorRatio = 6
	for i := 0; i < 5; i++ {
		club.GraphicEQGains[i] = 3 // bass-forward, clamped range for bands 0-4
	}
	presets["Club"] = club

	concert := presets["Concert"]
	concert.LimiterThreshold = -3
	concert.LimiterCeiling = -0.5
	presets["Concert"] = concert

	return presets
}

// PresetDir returns the user config directory presets are persisted under:
// <user home>/.ownaudio/smartmasterpresets.
func PresetDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("smartmaster: resolve user home: %w", err)
	}
	return filepath.Join(home, ".ownaudio", "smartmasterpresets"), nil
}

func presetPath(dir, name string) string {
	return filepath.Join(dir, name+".smartmaster.json")
}

// LoadPreset reads and unmarshals a named preset. An invalid or missing
// preset returns an error; the caller's current configuration is left
// untouched per the spec's "invalid preset -> error returned, configuration
// unchanged" rule (this function is read-only, so that invariant holds
// trivially).
func LoadPreset(dir, name string) (Preset, error) {
	data, err := os.ReadFile(presetPath(dir, name))
	if err != nil {
		return Preset{}, fmt.Errorf("smartmaster: load preset %q: %w", name, err)
	}
	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("smartmaster: parse preset %q: %w", name, err)
	}
	return p, nil
}

// SavePreset writes p as a new named preset. Measurement results are
// always saved as a new, separate preset rather than hot-applied, per the
// spec's explicit design decision.
func SavePreset(dir, name string, p Preset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("smartmaster: create preset dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("smartmaster: marshal preset %q: %w", name, err)
	}

	tmp := presetPath(dir, name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("smartmaster: write preset %q: %w", name, err)
	}
	// Rename is atomic on the platforms this targets, so a crash mid-write
	// never leaves a partial preset file visible under its real name - the
	// property the measurement-cancel scenario depends on.
	if err := os.Rename(tmp, presetPath(dir, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("smartmaster: finalize preset %q: %w", name, err)
	}
	return nil
}

// EnsureFactoryPresets writes any of the six factory presets that do not
// already exist on disk under dir, per "missing preset on first run ->
// factory preset auto-generated."
func EnsureFactoryPresets(dir string) error {
	for name, p := range FactoryPresets() {
		if _, err := os.Stat(presetPath(dir, name)); err == nil {
			continue
		}
		if err := SavePreset(dir, name, p); err != nil {
			return err
		}
	}
	return nil
}
