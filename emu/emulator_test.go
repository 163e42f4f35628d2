package emu

import (
	"bytes"
	"errors"
	"testing"

	emucore "github.com/user-none/eblitui/api"
)

// haltFilledROM returns a one bank firmware image made of HALT
// opcodes, so stray execution stops at the next byte.
func haltFilledROM() []byte {
	rom := make([]byte, romBankSize)
	for i := range rom {
		rom[i] = 0x76
	}
	return rom
}

// makeProgramEmulator builds a machine whose firmware starts with the
// given code.
func makeProgramEmulator(t *testing.T, code []byte) *Emulator {
	t.Helper()
	rom := haltFilledROM()
	copy(rom, code)
	base, err := NewEmulator(rom, RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	return &base
}

func TestNewEmulator_RejectsBadROM(t *testing.T) {
	_, err := NewEmulator(nil, RegionNTSC)
	if !errors.Is(err, ErrNoROM) {
		t.Errorf("empty image: expected ErrNoROM, got %v", err)
	}

	_, err = NewEmulator(make([]byte, romBankSize+1), RegionNTSC)
	if err == nil {
		t.Error("partial bank image should be rejected")
	}
}

func TestEmulator_RunsBankedProgram(t *testing.T) {
	// The program writes 0xAA to 0x8123, moves the mid window to cell
	// 1 through the bank switch register, writes 0xBB to the same
	// address and halts.
	//
	//	LD HL, 0x8123
	//	LD (HL), 0xAA
	//	LD A, 0x10
	//	OUT (0x30), A
	//	LD (HL), 0xBB
	//	HALT
	e := makeProgramEmulator(t, []byte{
		0x21, 0x23, 0x81,
		0x36, 0xAA,
		0x3E, 0x10,
		0xD3, 0x30,
		0x36, 0xBB,
		0x76,
	})

	e.RunFrame()

	if !e.z80.Halted() {
		t.Fatal("program should have halted")
	}
	if e.ram[0x0123] != 0xAA {
		t.Errorf("cell 0 write: expected 0xAA, got 0x%02X", e.ram[0x0123])
	}
	if e.ram[0x4123] != 0xBB {
		t.Errorf("cell 1 write: expected 0xBB, got 0x%02X", e.ram[0x4123])
	}
	if v := e.mem.MMR(); v != 0x10 {
		t.Errorf("bank register: expected 0x10, got 0x%02X", v)
	}
}

func TestEmulator_KeyboardInterrupt(t *testing.T) {
	// Boot code enables keyboard interrupts through the acknowledge
	// port handshake, selects interrupt mode 1 and halts with
	// interrupts enabled.
	//
	//	LD SP, 0xF000
	//	LD A, 0x10
	//	OUT (0x71), A
	//	LD A, 0x18
	//	OUT (0x71), A
	//	IM 1
	//	EI
	//	HALT
	//	JR -3
	main := []byte{
		0x31, 0x00, 0xF0,
		0x3E, 0x10,
		0xD3, 0x71,
		0x3E, 0x18,
		0xD3, 0x71,
		0xED, 0x56,
		0xFB,
		0x76,
		0x18, 0xFD,
	}

	// The mode 1 service routine at 0x0038 stores the latched row data
	// to 0xF000 and writes the acknowledge port, dropping the
	// interrupt line.
	//
	//	IN A, (0x71)
	//	LD (0xF000), A
	//	OUT (0x71), A
	//	EI
	//	RET
	isr := []byte{
		0xDB, 0x71,
		0x32, 0x00, 0xF0,
		0xD3, 0x71,
		0xFB,
		0xC9,
	}

	rom := haltFilledROM()
	copy(rom, main)
	copy(rom[0x0038:], isr)
	base, err := NewEmulator(rom, RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	e := &base

	// First frame: nothing held, the program ends up halted waiting
	// for a key.
	e.RunFrame()
	if !e.z80.Halted() {
		t.Fatal("program should be halted waiting for the interrupt")
	}
	if e.ram[0xF000] != 0x00 {
		t.Fatalf("service routine ran before any key was held")
	}

	// Hold the space bar across the next frame's scan.
	m := IdleMatrix()
	m.Press(1, 0x01)
	e.SetKeyMatrix(m)
	e.RunFrame()

	if e.ram[0xF000] != 0xFE {
		t.Errorf("service routine latch store: expected 0xFE, got 0x%02X", e.ram[0xF000])
	}
	if v := e.kbd.StatusRead(); v != 0x11 {
		t.Errorf("scan status: expected 0x11, got 0x%02X", v)
	}
}

func TestEmulator_ResetKeepsBankRegister(t *testing.T) {
	// Two firmware banks with distinct fill values. Bank 0 starts with
	// HALT so frames are benign.
	rom := make([]byte, 2*romBankSize)
	for i := romBankSize; i < len(rom); i++ {
		rom[i] = 0x11
	}
	rom[0] = 0x76
	base, err := NewEmulator(rom, RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	e := &base

	e.io.Out(portMMR, 0x01)
	if v := e.mem.Read(0x0000); v != 0x11 {
		t.Fatalf("bank 1 selected: expected 0x11, got 0x%02X", v)
	}

	e.Reset()

	// The windows resolve as if the register were zero, the readback
	// latch keeps the written value.
	if v := e.mem.Read(0x0000); v != 0x76 {
		t.Errorf("after reset: expected bank 0 byte 0x76, got 0x%02X", v)
	}
	if v := e.io.In(portMMR); v != 0x01 {
		t.Errorf("register readback after reset: expected 0x01, got 0x%02X", v)
	}
}

func TestEmulator_SetInput(t *testing.T) {
	e := createTestEmulator()

	e.SetInput(0, 1<<padButtonSpace)
	if v := e.kbd.Row(1); v != 0xFE {
		t.Errorf("space bar row: expected 0xFE, got 0x%02X", v)
	}

	// Each call replaces the whole matrix.
	e.SetInput(0, 1<<uint(emucore.ButtonLeft)|1<<padButtonShift)
	if v := e.kbd.Row(1); v != 0xFF {
		t.Errorf("space bar should have released, got 0x%02X", v)
	}
	if v := e.kbd.Row(9); v != 0xFE {
		t.Errorf("cursor left row: expected 0xFE, got 0x%02X", v)
	}
	if v := e.kbd.Row(0); v != 0xBF {
		t.Errorf("shift row: expected 0xBF, got 0x%02X", v)
	}

	// Single keyboard, there is no second player.
	e.SetInput(1, 1<<padButtonSpace)
	if v := e.kbd.Row(9); v != 0xFE {
		t.Errorf("player 2 input should be ignored, got 0x%02X", v)
	}
	if v := e.kbd.Row(1); v != 0xFF {
		t.Errorf("player 2 space bar should not register, got 0x%02X", v)
	}
}

func TestEmulator_TimingAndModel(t *testing.T) {
	e := createTestEmulator()

	timing := e.GetTiming()
	if timing.FPS != 44 {
		t.Errorf("refresh rate: expected 44, got %v", timing.FPS)
	}
	if timing.Scanlines != 200 {
		t.Errorf("scanlines: expected 200, got %d", timing.Scanlines)
	}
	if e.GetActiveHeight() != 200 {
		t.Errorf("active height: expected 200, got %d", e.GetActiveHeight())
	}

	e.SetModel(ModelPC8401A)
	if e.GetTiming().Scanlines != 128 {
		t.Errorf("original model scanlines: expected 128, got %d", e.GetTiming().Scanlines)
	}
	if e.GetActiveHeight() != 128 {
		t.Errorf("original model height: expected 128, got %d", e.GetActiveHeight())
	}
	if len(e.GetFramebuffer()) != ScreenWidth*4*128 {
		t.Errorf("framebuffer should resize with the panel, got %d bytes", len(e.GetFramebuffer()))
	}
}

func TestEmulator_FramebufferAndAudio(t *testing.T) {
	e := createTestEmulator()

	if len(e.GetFramebuffer()) != ScreenWidth*4*200 {
		t.Errorf("framebuffer size: expected %d, got %d", ScreenWidth*4*200, len(e.GetFramebuffer()))
	}
	if e.GetFramebufferStride() != ScreenWidth*4 {
		t.Errorf("stride: expected %d, got %d", ScreenWidth*4, e.GetFramebufferStride())
	}

	// Display comes up blanked, the panel shows paper after a frame.
	e.RunFrame()
	fb := e.GetFramebuffer()
	for i, want := range penPaper {
		if fb[i] != want {
			t.Fatalf("blanked panel pixel byte %d: expected %d, got %d", i, want, fb[i])
		}
	}

	// No sound hardware is fitted.
	if n := len(e.GetAudioSamples()); n != 0 {
		t.Errorf("expected no audio samples, got %d", n)
	}
}

func TestEmulator_ReadMemory(t *testing.T) {
	e := createTestEmulator()
	e.ram[0x100] = 0x42
	e.crtVRAM[3] = 0x99

	buf := make([]byte, 4)
	if n := e.ReadMemory(0x100, buf); n != 4 || buf[0] != 0x42 {
		t.Errorf("RAM read: expected 4 bytes starting 0x42, got %d bytes starting 0x%02X", n, buf[0])
	}

	// The standard fit leaves a hole between RAM and the CRT video RAM.
	if n := e.ReadMemory(0x10000, buf); n != 0 {
		t.Errorf("expansion hole: expected 0 bytes, got %d", n)
	}

	if n := e.ReadMemory(crtVRAMStart+3, buf); n != 4 || buf[0] != 0x99 {
		t.Errorf("CRT video RAM read: expected 4 bytes starting 0x99, got %d bytes starting 0x%02X", n, buf[0])
	}

	if n := e.ReadMemory(crtVRAMEnd+1, buf); n != 0 {
		t.Errorf("past the end: expected 0 bytes, got %d", n)
	}

	// A read straddling the top of RAM truncates at the hole.
	if n := e.ReadMemory(0xFFFE, buf); n != 2 {
		t.Errorf("straddling read: expected 2 bytes, got %d", n)
	}
}

func TestEmulator_ReadMemoryExpanded(t *testing.T) {
	e := createTestEmulator()
	e.SetRAMExpansion(true)
	e.ram[0x10000] = 0x24

	buf := make([]byte, 1)
	if n := e.ReadMemory(0x10000, buf); n != 1 || buf[0] != 0x24 {
		t.Errorf("expansion read: expected 0x24, got %d bytes starting 0x%02X", n, buf[0])
	}
}

func TestEmulator_MemoryRegions(t *testing.T) {
	e := createTestEmulator()

	regions := e.MemoryMap()
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}
	if regions[0].Type != emucore.MemorySystemRAM {
		t.Errorf("region type: expected system RAM, got %d", regions[0].Type)
	}
	if regions[0].Size != baseRAMSize {
		t.Errorf("region size: expected %d, got %d", baseRAMSize, regions[0].Size)
	}

	e.ram[5] = 0x77
	snap := e.ReadRegion(emucore.MemorySystemRAM)
	if len(snap) != baseRAMSize || snap[5] != 0x77 {
		t.Fatalf("snapshot: expected %d bytes with 0x77 at 5", baseRAMSize)
	}

	// The snapshot is a copy.
	snap[5] = 0x00
	if e.ram[5] != 0x77 {
		t.Error("mutating the snapshot changed live RAM")
	}

	e.WriteRegion(emucore.MemorySystemRAM, []byte{1, 2, 3})
	if e.ram[0] != 1 || e.ram[1] != 2 || e.ram[2] != 3 {
		t.Error("WriteRegion should copy into RAM")
	}

	if e.ReadRegion(999) != nil {
		t.Error("unknown region should read nil")
	}
}

func TestEmulator_AttachCartridge(t *testing.T) {
	e := createTestEmulator()
	e.ram[0x100] = 0x5A

	cart := make([]byte, romBankSize)
	for i := range cart {
		cart[i] = 0xC7
	}
	e.AttachCartridge(cart)

	// Inserting a cartridge power cycles the machine.
	if e.ram[0x100] != 0x00 {
		t.Error("RAM should clear on cartridge insert")
	}

	// Bank 3 decodes to the left slot.
	e.io.Out(portMMR, 0x03)
	if v := e.mem.Read(0x100); v != 0xC7 {
		t.Errorf("cartridge read: expected 0xC7, got 0x%02X", v)
	}
}

func TestEmulator_AttachIOCartridge(t *testing.T) {
	e := createTestEmulator()

	data := make([]byte, 0x20000)
	data[0x12345] = 0x5A
	e.AttachIOCartridge(data)

	e.io.Out(portIOCartA17, 0x01)
	e.io.Out(portIOCartA15, 0x23)
	e.io.Out(portIOCartA7, 0x45)
	if v := e.io.In(portIOCartRead); v != 0x5A {
		t.Errorf("I/O cartridge read: expected 0x5A, got 0x%02X", v)
	}
}

func TestEmulator_SetOption(t *testing.T) {
	e := createTestEmulator()

	e.SetOption("ram_expansion", "true")
	if len(e.ram) != expandedRAMSize {
		t.Errorf("expansion fitted: expected %d bytes, got %d", expandedRAMSize, len(e.ram))
	}
	e.SetOption("ram_expansion", "false")
	if len(e.ram) != baseRAMSize {
		t.Errorf("expansion removed: expected %d bytes, got %d", baseRAMSize, len(e.ram))
	}

	e.SetOption("model", "pc8401a")
	if e.GetActiveHeight() != 128 {
		t.Errorf("model option: expected height 128, got %d", e.GetActiveHeight())
	}
	e.SetOption("model", "nonsense")
	if e.GetActiveHeight() != 128 {
		t.Error("unknown model value should not change the machine")
	}
	e.SetOption("model", "pc8500")
	if e.GetActiveHeight() != 200 {
		t.Errorf("model option: expected height 200, got %d", e.GetActiveHeight())
	}

	// Boolean form of the model switch.
	e.SetOption("pc8401a", "true")
	if e.GetActiveHeight() != 128 {
		t.Errorf("pc8401a option: expected height 128, got %d", e.GetActiveHeight())
	}
	e.SetOption("pc8401a", "false")
	if e.GetActiveHeight() != 200 {
		t.Errorf("pc8401a option: expected height 200, got %d", e.GetActiveHeight())
	}

	// Unknown keys are ignored.
	e.SetOption("turbo", "true")
}

func TestEmulator_SerialLoopback(t *testing.T) {
	e := createTestEmulator()
	port := &recordPort{}
	e.SetSerialPort(port)

	// Mode instruction first, then enable transmitter and receiver.
	e.io.Out(portUARTCtrl, 0x4E)
	e.io.Out(portUARTCtrl, 0x05)

	e.io.Out(portUARTData, 0x41)
	if !bytes.Equal(port.sent, []byte{0x41}) {
		t.Errorf("transmit: expected [0x41], got %v", port.sent)
	}

	e.SerialReceive([]byte{0x55})
	if v := e.io.In(portUARTCtrl); v&0x02 == 0 {
		t.Error("status should show receive data pending")
	}
	if v := e.io.In(portUARTData); v != 0x55 {
		t.Errorf("receive: expected 0x55, got 0x%02X", v)
	}
}
