package adapter

import (
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emstarlet/emu"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the Starlet emulator.
type Factory struct{}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            "emstarlet",
		ConsoleName:     "NEC PC-8500",
		Extensions:      []string{".rom", ".bin"},
		ScreenWidth:     emu.ScreenWidth,
		MaxScreenHeight: emu.MaxScreenHeight,
		AspectRatio:     480.0 / 200.0,
		SampleRate:      48000,
		Buttons: []emucore.Button{
			{Name: "Enter", ID: 4, DefaultKey: "Enter", DefaultPad: "A"},
			{Name: "Space", ID: 5, DefaultKey: "Space", DefaultPad: "B"},
			{Name: "Shift", ID: 6, DefaultKey: "Shift", DefaultPad: "X"},
			{Name: "Stop", ID: 7, DefaultKey: "End", DefaultPad: "Start"},
			{Name: "Esc", ID: 8, DefaultKey: "Escape", DefaultPad: "Select"},
			{Name: "F1", ID: 9, DefaultKey: "F1", DefaultPad: "L1"},
			{Name: "F2", ID: 10, DefaultKey: "F2", DefaultPad: "R1"},
			{Name: "F3", ID: 11, DefaultKey: "F3", DefaultPad: "Y"},
			{Name: "F4", ID: 12, DefaultKey: "F4", DefaultPad: "L2"},
			{Name: "F5", ID: 13, DefaultKey: "F5", DefaultPad: "R2"},
		},
		Players: 1,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "ram_expansion",
				Label:       "32KB RAM Cartridge",
				Description: "Fit the 32KB RAM expansion cartridge for 96KB total",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
			},
			{
				Key:         "pc8401a",
				Label:       "PC-8401A Model",
				Description: "Emulate the original PC-8401A with its 480x128 panel",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
			},
		},
		DataDirName:   "emstarlet",
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: emu.SerializeSize(),
	}
}

// CreateEmulator creates a new emulator instance with the given ROM and region.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	e, err := emu.NewEmulator(rom, region)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DetectRegion reports the region for a firmware image. The bool
// return is false since the machine shipped worldwide with one
// timing; nothing in the image changes it.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emu.DetectRegion(rom), false
}
