package emu

import (
	"fmt"
	"strings"
)

// Model identifies the emulated machine variant.
type Model int

const (
	// ModelPC8500 is the later machine: 16KB of display memory
	// driving a 480x200 panel.
	ModelPC8500 Model = iota
	// ModelPC8401A is the original: 8KB of display memory driving a
	// 480x128 panel.
	ModelPC8401A
)

// Machine timing. Both variants clock the CPU at half the 7.987 MHz
// master crystal and refresh the panel at 44 Hz.
const (
	z80ClockHz      = 7987000 / 2
	framesPerSecond = 44
)

// ModelSpec describes the hardware differences between variants.
type ModelSpec struct {
	Name         string
	DisplayRAM   int // display controller memory in bytes
	VisibleLines int // panel height in pixels
}

// GetModelSpec returns the hardware fit for a model.
func GetModelSpec(m Model) ModelSpec {
	switch m {
	case ModelPC8401A:
		return ModelSpec{
			Name:         "PC-8401A",
			DisplayRAM:   0x2000,
			VisibleLines: 128,
		}
	default:
		return ModelSpec{
			Name:         "PC-8500",
			DisplayRAM:   0x4000,
			VisibleLines: 200,
		}
	}
}

// ParseModel maps a user-facing model name to a Model.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(s) {
	case "pc8500", "pc-8500":
		return ModelPC8500, nil
	case "pc8401a", "pc-8401a", "pc8401":
		return ModelPC8401A, nil
	}
	return ModelPC8500, fmt.Errorf("unknown model %q", s)
}
