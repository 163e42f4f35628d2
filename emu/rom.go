package emu

import (
	"errors"
	"fmt"
)

// Internal ROM layout: four 32KB banks selectable through the low
// window. Stock firmware fills the first banks; the rest of the
// region reads back erased.
const (
	romBankSize   = 0x8000
	romBankCount  = 4
	romRegionSize = romBankSize * romBankCount
)

// ErrNoROM indicates an empty firmware image.
var ErrNoROM = errors.New("no firmware ROM")

// ValidateROM checks that data is a plausible firmware image. Dumps
// are whole 32KB mask ROMs, so anything else is a truncated or
// oversized file.
func ValidateROM(data []byte) error {
	if len(data) == 0 {
		return ErrNoROM
	}
	if len(data) > romRegionSize {
		return fmt.Errorf("firmware image is %d bytes, maximum is %d", len(data), romRegionSize)
	}
	if len(data)%romBankSize != 0 {
		return fmt.Errorf("firmware image is %d bytes, not a multiple of the %d byte bank size", len(data), romBankSize)
	}
	return nil
}

// ValidateBootCode checks that the reset bank holds something besides
// erased bytes. An image whose first bank is all erased would leave
// the CPU restarting into 0x0038 forever.
func ValidateBootCode(data []byte) error {
	n := len(data)
	if n > romBankSize {
		n = romBankSize
	}
	for i := 0; i < n; i++ {
		if data[i] != openBusValue {
			return nil
		}
	}
	return errors.New("firmware reset bank is erased")
}

// newROMRegion pads a firmware image out to the full four-bank
// region. Unpopulated banks read as erased mask ROM.
func newROMRegion(data []byte) []byte {
	region := make([]byte, romRegionSize)
	for i := range region {
		region[i] = openBusValue
	}
	copy(region, data)
	return region
}
