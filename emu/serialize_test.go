package emu

import (
	"encoding/binary"
	"hash/crc32"
	"testing"
)

// createTestEmulator creates an Emulator with a minimal firmware
// image: a HALT at the reset vector so running frames is benign.
func createTestEmulator() *Emulator {
	rom := make([]byte, romBankSize)
	rom[0] = 0x76 // HALT
	base, err := NewEmulator(rom, RegionNTSC)
	if err != nil {
		panic("createTestEmulator: " + err.Error())
	}
	return &base
}

func TestSerializeSize(t *testing.T) {
	size1 := SerializeSize()
	size2 := SerializeSize()

	if size1 != size2 {
		t.Errorf("SerializeSize not consistent: %d vs %d", size1, size2)
	}

	if size1 < stateHeaderSize {
		t.Errorf("SerializeSize too small: %d < %d (header)", size1, stateHeaderSize)
	}

	// No configuration produces a state past the preallocation bound
	base := createTestEmulator()
	if base.SerializeSize() > size1 {
		t.Errorf("64KB fit: %d exceeds bound %d", base.SerializeSize(), size1)
	}

	base.SetRAMExpansion(true)
	if base.SerializeSize() != size1 {
		t.Errorf("largest fit should match the bound: %d vs %d", base.SerializeSize(), size1)
	}
}

func TestSerializedLengthMatchesReported(t *testing.T) {
	base := createTestEmulator()

	state, err := base.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(state) != base.SerializeSize() {
		t.Errorf("expected %d bytes, got %d", base.SerializeSize(), len(state))
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	base := createTestEmulator()

	// Touch every serialized component through the port dispatcher
	base.io.Out(portMMR, 0x04)
	base.mem.Write(0x1234, 0xAB)
	base.crtVRAM[5] = 0xCD
	base.io.Out(portIOCartA15, 0x23)
	base.io.Out(portUARTCtrl, 0x4E)

	base.io.Out(portKeyData, 0x10)
	base.io.Out(portKeyData, 0x18)
	m := IdleMatrix()
	m.Press(1, 0x01)
	base.kbd.SetMatrix(m)
	base.kbd.Scan()

	base.io.Out(portLCDData, lcdCmdCSRW)
	base.io.Out(portLCDStatus, 0x00)
	base.io.Out(portLCDStatus, 0x01)
	base.io.Out(portLCDData, lcdCmdMWrite)
	base.io.Out(portLCDStatus, 0x77)

	base.io.Out(portRTCData, 0x03)
	base.io.Out(portRTCCtrl, 0x02)
	rtcShift := base.rtc.shift

	// Serialize
	state, err := base.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// Corrupt emulator state
	base.io.Out(portMMR, 0x00)
	base.ram[0x1234] = 0xFF
	base.crtVRAM[5] = 0xFF
	base.io.Out(portIOCartA15, 0x99)
	base.kbd.StatusWrite(0x00)
	base.lcd.vram[0x100] = 0xFF
	base.rtc.shift = 0

	// Deserialize
	err = base.Deserialize(state)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if v := base.mem.MMR(); v != 0x04 {
		t.Errorf("bank register: expected 0x04, got 0x%02X", v)
	}
	// The low window mapping must be re-derived from the register
	if v := base.mem.Read(0x1234); v != 0xAB {
		t.Errorf("RAM through window: expected 0xAB, got 0x%02X", v)
	}
	if base.crtVRAM[5] != 0xCD {
		t.Errorf("CRT video RAM: expected 0xCD, got 0x%02X", base.crtVRAM[5])
	}
	if base.io.ioAddr != 0x2300 {
		t.Errorf("cartridge counter: expected 0x2300, got 0x%05X", base.io.ioAddr)
	}
	if base.uart.mode != 0x4E {
		t.Errorf("serial mode: expected 0x4E, got 0x%02X", base.uart.mode)
	}
	if v := base.kbd.StatusRead(); v != 0x11 {
		t.Errorf("keyboard status: expected 0x11, got 0x%02X", v)
	}
	if base.lcd.vram[0x100] != 0x77 {
		t.Errorf("display memory: expected 0x77, got 0x%02X", base.lcd.vram[0x100])
	}
	if base.rtc.shift != rtcShift {
		t.Errorf("clock register: expected 0x%010X, got 0x%010X", rtcShift, base.rtc.shift)
	}
}

func TestDeserialize_RebuildsRAMFit(t *testing.T) {
	expanded := createTestEmulator()
	expanded.SetRAMExpansion(true)
	expanded.ram[0x17FFF] = 0x42

	state, err := expanded.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// Loading into a standard fit machine power cycles it into the
	// state's fit first
	base := createTestEmulator()
	if err := base.Deserialize(state); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if len(base.ram) != expandedRAMSize {
		t.Fatalf("expected %d bytes of RAM, got %d", expandedRAMSize, len(base.ram))
	}
	if base.ram[0x17FFF] != 0x42 {
		t.Errorf("expansion contents: expected 0x42, got 0x%02X", base.ram[0x17FFF])
	}
}

func TestDeserialize_RebuildsModel(t *testing.T) {
	small := createTestEmulator()
	small.SetModel(ModelPC8401A)
	small.lcd.vram[0x1FFF] = 0x24

	state, err := small.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	base := createTestEmulator()
	if err := base.Deserialize(state); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if base.model != ModelPC8401A {
		t.Fatal("expected the restored machine to be a PC-8401A")
	}
	if len(base.lcd.vram) != 0x2000 {
		t.Errorf("display memory: expected 0x2000 bytes, got 0x%X", len(base.lcd.vram))
	}
	if base.lcd.vram[0x1FFF] != 0x24 {
		t.Errorf("display contents: expected 0x24, got 0x%02X", base.lcd.vram[0x1FFF])
	}
	if base.GetActiveHeight() != 128 {
		t.Errorf("panel height: expected 128, got %d", base.GetActiveHeight())
	}
}

func TestVerifyState_ValidState(t *testing.T) {
	base := createTestEmulator()

	state, err := base.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	err = base.VerifyState(state)
	if err != nil {
		t.Errorf("VerifyState should pass for valid state: %v", err)
	}
}

func TestVerifyState_InvalidMagic(t *testing.T) {
	base := createTestEmulator()

	state, err := base.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// Corrupt magic bytes
	state[0] = 'X'

	err = base.VerifyState(state)
	if err == nil {
		t.Error("VerifyState should reject invalid magic bytes")
	}
}

func TestVerifyState_UnsupportedVersion(t *testing.T) {
	base := createTestEmulator()

	state, err := base.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// Set a future version number
	binary.LittleEndian.PutUint16(state[12:14], 9999)

	err = base.VerifyState(state)
	if err == nil {
		t.Error("VerifyState should reject unsupported version")
	}
}

func TestVerifyState_CorruptData(t *testing.T) {
	base := createTestEmulator()

	state, err := base.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// Corrupt state data (after header)
	state[stateHeaderSize+5] ^= 0xFF

	err = base.VerifyState(state)
	if err == nil {
		t.Error("VerifyState should reject corrupted data")
	}
}

func TestVerifyState_WrongROM(t *testing.T) {
	base1 := createTestEmulator()

	state, err := base1.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// A different firmware image
	differentROM := make([]byte, romBankSize)
	for i := range differentROM {
		differentROM[i] = byte(i)
	}
	differentROM[0] = 0x76

	init2, err := NewEmulator(differentROM, RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	base2 := &init2

	err = base2.VerifyState(state)
	if err == nil {
		t.Error("VerifyState should reject state from different ROM")
	}
}

func TestVerifyState_TooShort(t *testing.T) {
	base := createTestEmulator()

	// Create data smaller than header
	state := make([]byte, stateHeaderSize-1)

	err := base.VerifyState(state)
	if err == nil {
		t.Error("VerifyState should reject data smaller than header")
	}
}

func TestDeserialize_PreservesRegion(t *testing.T) {
	rom := make([]byte, romBankSize)
	rom[0] = 0x76

	ntscInit, err := NewEmulator(rom, RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator NTSC failed: %v", err)
	}
	baseNTSC := &ntscInit

	state, err := baseNTSC.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	palInit, err := NewEmulator(rom, RegionPAL)
	if err != nil {
		t.Fatalf("NewEmulator PAL failed: %v", err)
	}
	basePAL := &palInit

	if basePAL.GetRegion() != RegionPAL {
		t.Fatal("Initial region should be PAL")
	}

	// Load NTSC state into PAL emulator
	err = basePAL.Deserialize(state)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	// Region should still be PAL
	if basePAL.GetRegion() != RegionPAL {
		t.Errorf("Region should be preserved as PAL, got %v", basePAL.GetRegion())
	}
}

func TestSerialize_StateIntegrity(t *testing.T) {
	base := createTestEmulator()

	state, err := base.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// Check magic bytes
	if string(state[0:12]) != stateMagic {
		t.Errorf("Magic bytes: expected %q, got %q", stateMagic, string(state[0:12]))
	}

	// Check version
	version := binary.LittleEndian.Uint16(state[12:14])
	if version != stateVersion {
		t.Errorf("Version: expected %d, got %d", stateVersion, version)
	}

	// Verify ROM CRC32 matches
	romCRC := binary.LittleEndian.Uint32(state[14:18])
	if romCRC != base.romCRC {
		t.Errorf("ROM CRC32: expected 0x%08X, got 0x%08X", base.romCRC, romCRC)
	}

	// Verify data CRC32
	dataCRC := binary.LittleEndian.Uint32(state[18:22])
	calculatedCRC := crc32.ChecksumIEEE(state[stateHeaderSize:])
	if dataCRC != calculatedCRC {
		t.Errorf("Data CRC32: expected 0x%08X, got 0x%08X", calculatedCRC, dataCRC)
	}
}
