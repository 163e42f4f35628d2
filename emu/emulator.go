package emu

import (
	"hash/crc32"
	"time"

	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/go-chip-z80"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

// Flat address boundaries for ReadMemory. Main RAM sits first, the
// CRT adapter video RAM above the largest RAM fit.
const (
	crtVRAMStart = 0x018000
	crtVRAMEnd   = crtVRAMStart + crtVRAMSize - 1
)

// Pad button bit assignments above the directional bits, mirroring
// the order advertised by the frontend adapter. The machine has no
// joypad; a practical subset of the keyboard is exposed instead.
const (
	padButtonEnter = 4
	padButtonSpace = 5
	padButtonShift = 6
	padButtonStop  = 7
	padButtonEsc   = 8
	padButtonF1    = 9
	padButtonF2    = 10
	padButtonF3    = 11
	padButtonF4    = 12
	padButtonF5    = 13
)

// padKeys places each pad button in the keyboard matrix. The cursor
// pad only has left and right; the machine has no up or down keys.
var padKeys = []struct {
	bit  int
	row  int
	mask byte
}{
	{int(emucore.ButtonLeft), 9, 0x01},
	{int(emucore.ButtonRight), 8, 0x80},
	{padButtonEnter, 9, 0x04},
	{padButtonSpace, 1, 0x01},
	{padButtonShift, 0, 0x40},
	{padButtonStop, 0, 0x80},
	{padButtonEsc, 7, 0x80},
	{padButtonF1, 7, 0x02},
	{padButtonF2, 7, 0x04},
	{padButtonF3, 7, 0x08},
	{padButtonF4, 7, 0x10},
	{padButtonF5, 7, 0x20},
}

// Emulator wires the CPU, the banked address space and the on-board
// peripherals into a complete machine.
type Emulator struct {
	z80  *z80.CPU
	mem  *Memory
	io   *IO
	kbd  *Keyboard
	rtc  *RTC
	uart *UART
	lcd  *LCD
	bus  *Bus

	rom    []byte
	romCRC uint32

	ram     []byte
	crtVRAM []byte
	cart    *Cartridge
	ioCart  *Cartridge
	serial  SerialPort

	model Model
	spec  ModelSpec
	ram96 bool

	region Region

	cyclesPerFrame    int
	cyclesPerScanline int
	scanlines         int

	framebuffer []byte

	// The machine has no sound hardware; an empty buffer satisfies
	// the frontend contract.
	audioBuffer []int16
}

// NewEmulator creates a PC-8500 with the standard 64KB fit and empty
// cartridge slots.
func NewEmulator(rom []byte, region Region) (Emulator, error) {
	if err := ValidateROM(rom); err != nil {
		return Emulator{}, err
	}

	e := Emulator{
		rom:         rom,
		romCRC:      crc32.ChecksumIEEE(rom),
		model:       ModelPC8500,
		region:      region,
		audioBuffer: make([]int16, 0),
	}
	e.rebuild()
	return e, nil
}

// rebuild assembles the machine from the current configuration.
// Called at construction and when an option changes the hardware fit;
// equivalent to a power cycle.
func (e *Emulator) rebuild() {
	e.spec = GetModelSpec(e.model)

	ramSize := baseRAMSize
	if e.ram96 {
		ramSize = expandedRAMSize
	}
	e.ram = make([]byte, ramSize)
	e.crtVRAM = make([]byte, crtVRAMSize)

	e.kbd = NewKeyboard()
	e.rtc = NewRTC(z80ClockHz)
	e.rtc.SetTime(time.Now())
	e.uart = NewUART()
	e.uart.SetPort(e.serial)
	e.lcd = NewLCD(e.spec.DisplayRAM, e.spec.VisibleLines)

	e.mem = NewMemory(e.rom, e.ram, e.crtVRAM, e.cart)
	e.io = NewIO(e.mem, e.kbd, e.rtc, e.uart, e.lcd, e.ioCart)
	e.bus = NewBus(e.mem, e.io)
	e.z80 = z80.New(e.bus)
	e.io.SetCPU(e.z80)

	e.scanlines = e.spec.VisibleLines
	e.cyclesPerFrame = z80ClockHz / framesPerSecond
	e.cyclesPerScanline = e.cyclesPerFrame / e.scanlines

	e.framebuffer = make([]byte, ScreenWidth*4*e.spec.VisibleLines)
}

// Reset performs a machine reset: the CPU restarts, the memory
// windows resolve as if the bank switch register were zero, keyboard
// interrupts disable and the calendar chip select reasserts. Memory
// and peripheral contents survive.
func (e *Emulator) Reset() {
	e.z80.Reset()
	e.mem.Reset()
	e.kbd.Reset()
	e.rtc.SetCS(true)
}

// AttachCartridge inserts a program cartridge in the left slot and
// power cycles the machine.
func (e *Emulator) AttachCartridge(data []byte) {
	e.cart = NewCartridge(data)
	e.rebuild()
}

// AttachIOCartridge inserts an I/O cartridge in the right slot and
// power cycles the machine.
func (e *Emulator) AttachIOCartridge(data []byte) {
	e.ioCart = NewCartridge(data)
	e.rebuild()
}

// SetModel selects the emulated variant and power cycles the machine.
func (e *Emulator) SetModel(m Model) {
	if m == e.model {
		return
	}
	e.model = m
	e.rebuild()
}

// SetRAMExpansion fits or removes the 32KB RAM expansion and power
// cycles the machine.
func (e *Emulator) SetRAMExpansion(fitted bool) {
	if fitted == e.ram96 {
		return
	}
	e.ram96 = fitted
	e.rebuild()
}

// SetSerialPort attaches a transport to the serial jack.
func (e *Emulator) SetSerialPort(p SerialPort) {
	e.serial = p
	e.uart.SetPort(p)
}

// SerialReceive queues bytes arriving at the serial jack.
func (e *Emulator) SerialReceive(data []byte) {
	for _, b := range data {
		e.uart.Receive(b)
	}
}

// RunFrame executes one display refresh worth of emulation.
func (e *Emulator) RunFrame() {
	// The keyboard scans once per refresh. A hit holds INT asserted
	// until the firmware acknowledges through the keyboard data port.
	if e.kbd.Scan() {
		e.z80.INT(true, keyboardIRQVector)
	}

	for i := 0; i < e.scanlines; i++ {
		budget := e.cyclesPerScanline
		for budget > 0 {
			consumed := e.z80.StepCycles(budget)
			if consumed == 0 {
				break // halted
			}
			budget -= consumed
		}
		e.rtc.Tick(e.cyclesPerScanline)
	}

	e.lcd.RenderFrame(e.framebuffer, e.GetFramebufferStride())
}

// SetInput presses the pad-mapped subset of the keyboard. Player 1
// only; the machine has a single keyboard.
func (e *Emulator) SetInput(player int, buttons uint32) {
	if player != 0 {
		return
	}
	m := IdleMatrix()
	for _, k := range padKeys {
		if buttons&(1<<k.bit) != 0 {
			m.Press(k.row, k.mask)
		}
	}
	e.kbd.SetMatrix(m)
}

// SetKeyMatrix replaces the keyboard snapshot, for frontends that map
// a full host keyboard.
func (e *Emulator) SetKeyMatrix(m KeyMatrix) {
	e.kbd.SetMatrix(m)
}

// GetFramebuffer returns raw RGBA pixel data for the current frame.
func (e *Emulator) GetFramebuffer() []byte {
	return e.framebuffer
}

// GetFramebufferStride returns the stride (bytes per row) of the
// framebuffer.
func (e *Emulator) GetFramebufferStride() int {
	return ScreenWidth * 4
}

// GetActiveHeight returns the panel height of the emulated model.
func (e *Emulator) GetActiveHeight() int {
	return e.spec.VisibleLines
}

// GetAudioSamples returns the frame's audio. Always empty: no sound
// hardware is fitted.
func (e *Emulator) GetAudioSamples() []int16 {
	return e.audioBuffer
}

// GetRegion returns the configured region. The machine has no
// regional timing differences.
func (e *Emulator) GetRegion() Region {
	return e.region
}

// SetRegion stores the region. Timing is fixed regardless.
func (e *Emulator) SetRegion(region Region) {
	e.region = region
}

// GetTiming returns the fixed 44 Hz refresh and the line count of the
// emulated model.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       framesPerSecond,
		Scanlines: e.scanlines,
	}
}

// SetOption applies a core option change identified by key. The
// "model" key takes a model name; "pc8401a" is the same switch as a
// boolean for frontends that only present toggles.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "ram_expansion":
		e.SetRAMExpansion(value == "true")
	case "model":
		if m, err := ParseModel(value); err == nil {
			e.SetModel(m)
		}
	case "pc8401a":
		if value == "true" {
			e.SetModel(ModelPC8401A)
		} else {
			e.SetModel(ModelPC8500)
		}
	}
}

// Close releases any resources held by the emulator.
func (e *Emulator) Close() {}

// ReadMemory reads from a flat address into buf and returns the
// number of bytes read. Main RAM starts at 0, the CRT adapter video
// RAM at 0x18000.
func (e *Emulator) ReadMemory(addr uint32, buf []byte) uint32 {
	var count uint32
	for i := range buf {
		cur := addr + uint32(i)
		var b byte
		switch {
		case cur < uint32(len(e.ram)):
			b = e.ram[cur]
		case cur >= crtVRAMStart && cur <= crtVRAMEnd:
			b = e.crtVRAM[cur-crtVRAMStart]
		default:
			return count
		}
		buf[i] = b
		count++
	}
	return count
}

// MemoryMap returns a list of available memory regions with sizes.
func (e *Emulator) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: len(e.ram)},
	}
}

// ReadRegion returns a copy of the specified memory region.
func (e *Emulator) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		out := make([]byte, len(e.ram))
		copy(out, e.ram)
		return out
	}
	return nil
}

// WriteRegion writes data to the specified memory region.
func (e *Emulator) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		copy(e.ram, data)
	}
}

