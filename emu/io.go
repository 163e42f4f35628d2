package emu

import (
	"github.com/user-none/go-chip-z80"
)

// I/O port map, low 8 address bits only.
//
//	0x00-0x09  keyboard matrix rows
//	0x10       calendar command and data-in lines
//	0x20-0x21  serial interface data/control
//	0x30       bank switch register
//	0x40       calendar control lines, read returns output pins
//	0x60-0x61  display controller
//	0x70-0x71  keyboard scan status/data
//	0x98-0x99  external monitor adapter, not fitted
//	0xB0-0xB3  I/O cartridge address counter and data
//	0xFC-0xFF  parallel interface, not fitted
const (
	portKeyRowLast = 0x09
	portRTCData    = 0x10
	portUARTData   = 0x20
	portUARTCtrl   = 0x21
	portMMR        = 0x30
	portRTCCtrl    = 0x40
	portLCDStatus  = 0x60 // write: instruction parameter
	portLCDData    = 0x61 // write: instruction
	portKeyStatus  = 0x70
	portKeyData    = 0x71
	portIOCartA17  = 0xB0
	portIOCartA15  = 0xB1
	portIOCartA7   = 0xB2
	portIOCartRead = 0xB3
)

// IO dispatches Z80 port accesses to the peripherals. Unclaimed ports
// read the open bus value and swallow writes.
type IO struct {
	mem  *Memory
	kbd  *Keyboard
	rtc  *RTC
	uart *UART
	lcd  *LCD

	cpu *z80.CPU

	// Right slot I/O cartridge and its 18-bit address counter.
	ioCart *Cartridge
	ioAddr uint32
}

func NewIO(mem *Memory, kbd *Keyboard, rtc *RTC, uart *UART, lcd *LCD, ioCart *Cartridge) *IO {
	return &IO{
		mem:    mem,
		kbd:    kbd,
		rtc:    rtc,
		uart:   uart,
		lcd:    lcd,
		ioCart: ioCart,
	}
}

// SetCPU attaches the CPU after construction. The keyboard
// acknowledge port drops the interrupt line.
func (io *IO) SetCPU(cpu *z80.CPU) {
	io.cpu = cpu
}

// In reads a peripheral port.
func (io *IO) In(port uint16) uint8 {
	p := uint8(port)
	switch {
	case p <= portKeyRowLast:
		return io.kbd.Row(int(p))
	case p == portUARTData:
		return io.uart.ReadData()
	case p == portUARTCtrl:
		return io.uart.ReadStatus()
	case p == portMMR:
		return io.mem.MMR()
	case p == portRTCCtrl:
		return io.rtcRead()
	case p == portLCDStatus:
		return io.lcd.StatusRead()
	case p == portLCDData:
		return io.lcd.DataRead()
	case p == portKeyStatus:
		return io.kbd.StatusRead()
	case p == portKeyData:
		return io.kbd.DataRead()
	case p == portIOCartRead:
		return io.ioCart.ReadROM(io.ioAddr)
	}
	return openBusValue
}

// Out writes a peripheral port.
func (io *IO) Out(port uint16, v uint8) {
	p := uint8(port)
	switch {
	case p == portRTCData:
		io.rtcDataWrite(v)
	case p == portUARTData:
		io.uart.WriteData(v)
	case p == portUARTCtrl:
		io.uart.WriteControl(v)
	case p == portMMR:
		io.mem.SetMMR(v)
	case p == portRTCCtrl:
		io.rtcCtrlWrite(v)
	case p == portLCDStatus:
		io.lcd.DataWrite(v)
	case p == portLCDData:
		io.lcd.CommandWrite(v)
	case p == portKeyStatus:
		io.kbd.StatusWrite(v)
	case p == portKeyData:
		if io.cpu != nil {
			io.cpu.INT(false, keyboardIRQVector)
		}
		io.kbd.DataWrite(v)
	case p >= portIOCartA17 && p <= portIOCartRead:
		io.cartAddrWrite(int(p-portIOCartA17), v)
	}
}

// rtcDataWrite unpacks the port 0x10 latch onto the calendar command
// and data lines.
func (io *IO) rtcDataWrite(v uint8) {
	io.rtc.SetC0(v&0x01 != 0)
	io.rtc.SetC1(v&0x02 != 0)
	io.rtc.SetC2(v&0x04 != 0)
	io.rtc.SetDataIn(v&0x08 != 0)
}

// rtcCtrlWrite unpacks the port 0x40 latch onto the calendar control
// lines. Strobe and clock edges happen here.
func (io *IO) rtcCtrlWrite(v uint8) {
	io.rtc.SetOE(v&0x01 != 0)
	io.rtc.SetStb(v&0x02 != 0)
	io.rtc.SetClk(v&0x04 != 0)
}

// rtcRead packs the calendar output pins: data out on bit 1, timing
// pulse on bit 2.
func (io *IO) rtcRead() uint8 {
	var v uint8
	if io.rtc.DataOut() {
		v |= 0x02
	}
	if io.rtc.TP() {
		v |= 0x04
	}
	return v
}

// cartAddrWrite updates the I/O cartridge address counter, loaded a
// byte at a time: offset 0 takes the top two bits, offset 1 the
// middle byte, offset 2 the low byte. The firmware writes offset 3
// alongside reads but it latches nothing.
func (io *IO) cartAddrWrite(offset int, v uint8) {
	switch offset {
	case 0:
		io.ioAddr = uint32(v&0x03)<<16 | io.ioAddr&0x00FFFF
	case 1:
		io.ioAddr = io.ioAddr&0x300FF | uint32(v)<<8
	case 2:
		io.ioAddr = io.ioAddr&0x3FF00 | uint32(v)
	case 3:
	}
}
