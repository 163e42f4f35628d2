package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/user-none/go-chip-z80"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eSTARState\x00\x00"
	stateHeaderSize = 22 // magic(12) + version(2) + romCRC(4) + dataCRC(4)
)

// Fixed serialization sizes for inline components
const (
	configSerializeSize   = 2                       // model(1) + ram96(1)
	memSerializeFixedSize = 1 + 4 + 4 + crtVRAMSize // mmr(1) + invalid count(4) + ramLen(4) + CRT video RAM
	ioSerializeSize       = 4                       // ioAddr
	keyboardSerializeSize = keyboardRows + 3        // matrix + strobe(1) + latch(1) + irqEnabled(1)
	uartSerializeSize     = 3                       // mode(1) + command(1) + modeSet(1)
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SerializeSize returns the total size in bytes needed for a save
// state of this machine's configuration. RAM and display memory fits
// vary, so this is a method.
func (e *Emulator) SerializeSize() int {
	return stateHeaderSize +
		configSerializeSize +
		z80.SerializeSize +
		memSerializeFixedSize + len(e.ram) +
		ioSerializeSize +
		keyboardSerializeSize +
		uartSerializeSize +
		rtcSerializeSize +
		e.lcd.SerializeSize()
}

// SerializeSize returns the largest save state any configuration
// produces, for frontends that preallocate.
func SerializeSize() int {
	return stateHeaderSize +
		configSerializeSize +
		z80.SerializeSize +
		memSerializeFixedSize + expandedRAMSize +
		ioSerializeSize +
		keyboardSerializeSize +
		uartSerializeSize +
		rtcSerializeSize +
		lcdSerializeFixedSize + GetModelSpec(ModelPC8500).DisplayRAM
}

// Serialize creates a save state and returns it as a byte slice.
func (e *Emulator) Serialize() ([]byte, error) {
	size := e.SerializeSize()
	data := make([]byte, size)

	// Write header
	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], e.romCRC)

	offset := stateHeaderSize

	// Hardware configuration
	data[offset] = byte(e.model)
	offset++
	data[offset] = boolByte(e.ram96)
	offset++

	// Z80 CPU
	if err := e.z80.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += z80.SerializeSize

	// Memory
	offset = e.serializeMemory(data, offset)

	// IO
	offset = e.serializeIO(data, offset)

	// Keyboard
	offset = e.serializeKeyboard(data, offset)

	// UART
	offset = e.serializeUART(data, offset)

	// RTC
	if err := e.rtc.Serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += rtcSerializeSize

	// LCD
	if err := e.lcd.Serialize(data[offset:]); err != nil {
		return nil, err
	}

	// Calculate and write data CRC32 (over everything after header)
	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[18:22], dataCRC)

	return data, nil
}

// Deserialize restores emulator state from a save state byte slice.
// A state captured on a different hardware fit power cycles the
// machine into that fit first. Region is not restored.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}

	offset := stateHeaderSize

	// Hardware configuration
	model := Model(data[offset])
	offset++
	ram96 := data[offset] != 0
	offset++
	if model != e.model || ram96 != e.ram96 {
		e.model = model
		e.ram96 = ram96
		e.rebuild()
	}
	if len(data) < e.SerializeSize() {
		return errors.New("save state too short")
	}

	// Z80 CPU
	if err := e.z80.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += z80.SerializeSize

	// Memory
	var err error
	offset, err = e.deserializeMemory(data, offset)
	if err != nil {
		return err
	}

	// IO
	offset = e.deserializeIO(data, offset)

	// Keyboard
	offset = e.deserializeKeyboard(data, offset)

	// UART
	offset = e.deserializeUART(data, offset)

	// RTC
	if err := e.rtc.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += rtcSerializeSize

	// LCD
	return e.lcd.Deserialize(data[offset:])
}

// VerifyState checks if a save state is valid without loading it.
func (e *Emulator) VerifyState(data []byte) error {
	if len(data) < stateHeaderSize+configSerializeSize {
		return errors.New("save state too short")
	}

	if string(data[0:12]) != stateMagic {
		return errors.New("invalid save state magic")
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return errors.New("unsupported save state version")
	}

	romCRC := binary.LittleEndian.Uint32(data[14:18])
	if romCRC != e.romCRC {
		return errors.New("save state is for a different ROM")
	}

	expectedCRC := binary.LittleEndian.Uint32(data[18:22])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	if expectedCRC != actualCRC {
		return errors.New("save state data is corrupted")
	}

	return nil
}

// serializeMemory writes Memory state to the data buffer. Window
// mappings are derived from the register, so only the register, the
// diagnostics counter and the backing stores are captured.
func (e *Emulator) serializeMemory(data []byte, offset int) int {
	data[offset] = e.mem.mmr
	offset++

	binary.LittleEndian.PutUint32(data[offset:], uint32(e.mem.invalidMMRWrites))
	offset += 4

	binary.LittleEndian.PutUint32(data[offset:], uint32(len(e.ram)))
	offset += 4
	copy(data[offset:], e.ram)
	offset += len(e.ram)

	copy(data[offset:], e.crtVRAM)
	offset += crtVRAMSize

	return offset
}

// deserializeMemory reads Memory state from the data buffer and
// re-resolves the window mappings.
func (e *Emulator) deserializeMemory(data []byte, offset int) (int, error) {
	e.mem.mmr = data[offset]
	offset++

	invalid := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4

	ramLen := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if ramLen != len(e.ram) {
		return offset, errors.New("save state RAM size mismatch")
	}
	copy(e.ram, data[offset:offset+ramLen])
	offset += ramLen

	copy(e.crtVRAM, data[offset:offset+crtVRAMSize])
	offset += crtVRAMSize

	e.mem.resolveBanks(e.mem.mmr)
	e.mem.invalidMMRWrites = invalid

	return offset, nil
}

// serializeIO writes IO state to the data buffer.
func (e *Emulator) serializeIO(data []byte, offset int) int {
	binary.LittleEndian.PutUint32(data[offset:], e.io.ioAddr)
	offset += 4
	return offset
}

// deserializeIO reads IO state from the data buffer.
func (e *Emulator) deserializeIO(data []byte, offset int) int {
	e.io.ioAddr = binary.LittleEndian.Uint32(data[offset:])
	offset += 4
	return offset
}

// serializeKeyboard writes Keyboard state to the data buffer.
func (e *Emulator) serializeKeyboard(data []byte, offset int) int {
	copy(data[offset:], e.kbd.rows[:])
	offset += keyboardRows

	data[offset] = boolByte(e.kbd.strobe)
	offset++
	data[offset] = e.kbd.latch
	offset++
	data[offset] = boolByte(e.kbd.irqEnabled)
	offset++

	return offset
}

// deserializeKeyboard reads Keyboard state from the data buffer.
func (e *Emulator) deserializeKeyboard(data []byte, offset int) int {
	copy(e.kbd.rows[:], data[offset:offset+keyboardRows])
	offset += keyboardRows

	e.kbd.strobe = data[offset] != 0
	offset++
	e.kbd.latch = data[offset]
	offset++
	e.kbd.irqEnabled = data[offset] != 0
	offset++

	return offset
}

// serializeUART writes UART register state to the data buffer.
// Pending receive data is transport state and not captured.
func (e *Emulator) serializeUART(data []byte, offset int) int {
	data[offset] = e.uart.mode
	offset++
	data[offset] = e.uart.command
	offset++
	data[offset] = boolByte(e.uart.modeSet)
	offset++
	return offset
}

// deserializeUART reads UART register state from the data buffer.
func (e *Emulator) deserializeUART(data []byte, offset int) int {
	e.uart.mode = data[offset]
	offset++
	e.uart.command = data[offset]
	offset++
	e.uart.modeSet = data[offset] != 0
	offset++
	return offset
}
