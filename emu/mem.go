package emu

// Memory sizes.
const (
	baseRAMSize     = 0x10000 // 64KB standard fit
	expandedRAMSize = 0x18000 // 96KB with the RAM expansion cartridge
	crtVRAMSize     = 0x2000  // external monitor adapter video RAM
	midCellSize     = 0x4000
)

// openBusValue is returned for reads no device claims.
const openBusValue = 0xFF

// Window boundaries in the CPU address space.
const (
	midWindowBase  = 0x8000
	highWindowBase = 0xC000
	topWindowBase  = 0xE800
)

// Low window source selections from the bank switch register.
const (
	lowSourceROM     = 0 // internal ROM bank or left cartridge slot
	lowSourceRAMLow  = 1 // RAM 0x0000-0x7FFF
	lowSourceRAMHigh = 2 // RAM 0x8000-0xFFFF
	lowSourceNone    = 3 // reserved, window floats
)

// midCellRAMCart is the mid window selector decoding to the RAM
// expansion cartridge position.
const midCellRAMCart = 3

// mmrFields is the unpacked form of the bank switch register.
type mmrFields struct {
	romBank   int  // low window ROM bank, 3 selects the cartridge slot
	lowSource int  // low window source
	midCell   int  // mid window 16KB RAM cell
	videoRAM  bool // high window shows CRT video RAM instead of RAM
}

func decodeMMR(v byte) mmrFields {
	return mmrFields{
		romBank:   int(v & 0x03),
		lowSource: int(v>>2) & 0x03,
		midCell:   int(v>>4) & 0x03,
		videoRAM:  v&0x40 != 0,
	}
}

// window is one region of the CPU address space. read and write hold
// the currently installed bank as slices over the backing store. A
// nil read floats, a nil write drops stores. Offsets past the end of
// a short slice behave the same, which is how the CRT video RAM
// leaves the top 2KB of the high window open.
type window struct {
	base  uint16
	read  []byte
	write []byte
}

// Memory is the CPU address space. The Z80 sees 64KB arranged as four
// windows, three of them switched through the bank switch register at
// I/O port 0x30:
//
//	0x0000-0x7FFF  low   ROM bank 0-2, left cartridge, or a RAM half
//	0x8000-0xBFFF  mid   one 16KB RAM cell
//	0xC000-0xE7FF  high  RAM, or CRT video RAM with the top 2KB open
//	0xE800-0xFFFF  top   RAM, fixed
//
// Window contents resolve once per register change, not per access.
type Memory struct {
	mmr byte

	rom     []byte // internal ROM region, padded to romRegionSize
	ram     []byte // main RAM, lent by the system core
	crtVRAM []byte // CRT adapter video RAM, lent by the system core
	cartROM []byte // left slot cartridge window, nil when empty

	low  window
	mid  window
	high window
	top  window

	// Count of register writes selecting the reserved low window
	// source. Diagnostic only.
	invalidMMRWrites int
}

// NewMemory builds the address space. ram and crtVRAM belong to the
// caller and are mapped in place; rom and cart are copied into padded
// regions. The windows come up as a register value of zero selects.
func NewMemory(rom []byte, ram []byte, crtVRAM []byte, cart *Cartridge) *Memory {
	m := &Memory{
		rom:     newROMRegion(rom),
		ram:     ram,
		crtVRAM: crtVRAM,
		cartROM: cart.window32K(),
		low:     window{base: 0},
		mid:     window{base: midWindowBase},
		high:    window{base: highWindowBase},
		top:     window{base: topWindowBase},
	}
	tail := ram[topWindowBase:baseRAMSize]
	m.top.read, m.top.write = tail, tail
	m.resolveBanks(0)
	return m
}

// SetMMR writes the bank switch register. Resolution only runs when
// the value changes.
func (m *Memory) SetMMR(v byte) {
	if v != m.mmr {
		m.resolveBanks(v)
	}
	m.mmr = v
}

// MMR returns the last value written to the bank switch register.
func (m *Memory) MMR() byte {
	return m.mmr
}

// Reset resolves the windows as if the register were zero. The
// register itself keeps its last written value, matching the gate
// array, which clears the bank latches but not the readback latch.
func (m *Memory) Reset() {
	m.resolveBanks(0)
}

// InvalidMMRWrites returns how many register writes selected the
// reserved low window source.
func (m *Memory) InvalidMMRWrites() int {
	return m.invalidMMRWrites
}

// resolveBanks installs window slices for register value v.
func (m *Memory) resolveBanks(v byte) {
	f := decodeMMR(v)

	switch f.lowSource {
	case lowSourceROM:
		if f.romBank < romBankCount-1 {
			m.low.read = m.rom[f.romBank*romBankSize : (f.romBank+1)*romBankSize]
		} else {
			// Bank 3 decodes to the left cartridge slot.
			m.low.read = m.cartROM
		}
		m.low.write = nil
	case lowSourceRAMLow:
		half := m.ram[:midWindowBase]
		m.low.read, m.low.write = half, half
	case lowSourceRAMHigh:
		half := m.ram[midWindowBase:baseRAMSize]
		m.low.read, m.low.write = half, half
	case lowSourceNone:
		m.low.read, m.low.write = nil, nil
		m.invalidMMRWrites++
	}

	// Mid window cells tile RAM upward from address zero. The last
	// selector is the RAM cartridge position and only maps when the
	// expansion is fitted; on a base machine it leaves the window open.
	if f.midCell == midCellRAMCart && len(m.ram) <= baseRAMSize {
		m.mid.read, m.mid.write = nil, nil
	} else {
		cell := m.ram[f.midCell*midCellSize : (f.midCell+1)*midCellSize]
		m.mid.read, m.mid.write = cell, cell
	}

	if f.videoRAM {
		m.high.read, m.high.write = m.crtVRAM, m.crtVRAM
	} else {
		ramHigh := m.ram[highWindowBase:topWindowBase]
		m.high.read, m.high.write = ramHigh, ramHigh
	}
}

func (m *Memory) windowFor(addr uint16) *window {
	switch {
	case addr < midWindowBase:
		return &m.low
	case addr < highWindowBase:
		return &m.mid
	case addr < topWindowBase:
		return &m.high
	default:
		return &m.top
	}
}

// Read returns the byte at addr through the current window mapping.
func (m *Memory) Read(addr uint16) byte {
	w := m.windowFor(addr)
	off := int(addr - w.base)
	if off >= len(w.read) {
		return openBusValue
	}
	return w.read[off]
}

// Write stores a byte at addr through the current window mapping.
// Stores to ROM and unmapped ranges are dropped.
func (m *Memory) Write(addr uint16, v byte) {
	w := m.windowFor(addr)
	off := int(addr - w.base)
	if off >= len(w.write) {
		return
	}
	w.write[off] = v
}
