package emu

import "time"

// uPD1990AC commands, latched from the C2..C0 lines on the rising
// edge of STB.
const (
	rtcCmdRegisterHold  = 0
	rtcCmdRegisterShift = 1
	rtcCmdTimeSet       = 2
	rtcCmdTimeRead      = 3
	rtcCmdTP64Hz        = 4
	rtcCmdTP256Hz       = 5
	rtcCmdTP2048Hz      = 6
)

const rtcShiftBits = 40

// rtcLine is one control input with the previous level kept for edge
// detection.
type rtcLine struct {
	latch bool
	value bool
}

func (l *rtcLine) set(v bool) {
	l.latch = l.value
	l.value = v
}

func (l *rtcLine) rise() bool {
	return !l.latch && l.value
}

// RTC is the uPD1990AC serial clock/calendar. The CPU drives it one
// line at a time through two output latches: commands latch on the
// rising edge of STB, serial data moves through a 40-bit register one
// bit per CLK. The calendar keeps counting in hold mode; the shift
// register only exchanges with the counters on the time set and time
// read commands.
type RTC struct {
	cs     bool
	oe     bool
	stb    rtcLine
	clk    rtcLine
	c0     bool
	c1     bool
	c2     bool
	dataIn bool

	cmd     int
	shift   uint64 // 40-bit serial register, bit 0 shifts out first
	dataOut bool
	tp      bool

	// Calendar counters. The chip has no year, so February is always
	// 28 days.
	second  int
	minute  int
	hour    int
	day     int
	weekday int
	month   int

	clockHz   int
	tpRate    int
	tpCycles  int
	secCycles int
}

// NewRTC creates the clock. Chip select is asserted at power on; the
// machine never drops it. clockHz is the CPU clock Tick counts in.
func NewRTC(clockHz int) *RTC {
	return &RTC{
		cs:      true,
		clockHz: clockHz,
		tpRate:  64,
		day:     1,
		month:   1,
	}
}

// SetTime loads the calendar counters.
func (r *RTC) SetTime(t time.Time) {
	r.second = t.Second()
	r.minute = t.Minute()
	r.hour = t.Hour()
	r.day = t.Day()
	r.weekday = int(t.Weekday())
	r.month = int(t.Month())
}

func (r *RTC) SetCS(v bool) { r.cs = v }
func (r *RTC) SetOE(v bool) { r.oe = v }

func (r *RTC) SetC0(v bool) { r.c0 = v }
func (r *RTC) SetC1(v bool) { r.c1 = v }
func (r *RTC) SetC2(v bool) { r.c2 = v }

func (r *RTC) SetDataIn(v bool) { r.dataIn = v }

// SetStb drives the strobe line. The command on C2..C0 executes on
// the rising edge while chip select is held.
func (r *RTC) SetStb(v bool) {
	r.stb.set(v)
	if r.stb.rise() && r.cs {
		r.command()
	}
}

// SetClk drives the shift clock. In register shift mode each rising
// edge moves the serial register one bit: the tail appears on data
// out, data in enters at the head.
func (r *RTC) SetClk(v bool) {
	r.clk.set(v)
	if r.clk.rise() && r.cs && r.cmd == rtcCmdRegisterShift {
		r.shift >>= 1
		if r.dataIn {
			r.shift |= 1 << (rtcShiftBits - 1)
		}
		r.dataOut = r.shift&1 != 0
	}
}

func (r *RTC) command() {
	cmd := 0
	if r.c0 {
		cmd |= 1
	}
	if r.c1 {
		cmd |= 2
	}
	if r.c2 {
		cmd |= 4
	}
	r.cmd = cmd

	switch cmd {
	case rtcCmdRegisterHold:
		// Shift register detached, counters keep running.
	case rtcCmdRegisterShift:
		r.dataOut = r.shift&1 != 0
	case rtcCmdTimeSet:
		r.loadCounters(r.shift)
		r.dataOut = r.shift&1 != 0
	case rtcCmdTimeRead:
		r.shift = r.packCounters()
		r.dataOut = r.shift&1 != 0
	case rtcCmdTP64Hz:
		r.tpRate = 64
	case rtcCmdTP256Hz:
		r.tpRate = 256
	case rtcCmdTP2048Hz:
		r.tpRate = 2048
	}
}

// Command returns the latched command. Exposed for the port
// dispatcher's benefit in diagnostics and tests.
func (r *RTC) Command() int {
	return r.cmd
}

// DataOut returns the serial data output level. With output disabled
// the pin follows the timing pulse.
func (r *RTC) DataOut() bool {
	if !r.oe {
		return r.tp
	}
	return r.dataOut
}

// TP returns the timing pulse output level.
func (r *RTC) TP() bool {
	return r.tp
}

// Tick advances the chip by CPU cycles. The timing pulse toggles at
// twice the selected rate and the calendar advances once per second.
func (r *RTC) Tick(cycles int) {
	r.tpCycles += cycles
	half := r.clockHz / (2 * r.tpRate)
	for r.tpCycles >= half {
		r.tpCycles -= half
		r.tp = !r.tp
	}

	r.secCycles += cycles
	for r.secCycles >= r.clockHz {
		r.secCycles -= r.clockHz
		r.tickSecond()
	}
}

var rtcMonthDays = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func (r *RTC) tickSecond() {
	r.second++
	if r.second < 60 {
		return
	}
	r.second = 0
	r.minute++
	if r.minute < 60 {
		return
	}
	r.minute = 0
	r.hour++
	if r.hour < 24 {
		return
	}
	r.hour = 0
	r.weekday = (r.weekday + 1) % 7

	limit := 31
	if r.month >= 1 && r.month <= 12 {
		limit = rtcMonthDays[r.month]
	}
	r.day++
	if r.day > limit {
		r.day = 1
		r.month++
		if r.month > 12 {
			r.month = 1
		}
	}
}

// packCounters assembles the 40-bit serial image: BCD seconds,
// minutes, hours and day of month, then the weekday and month
// nibbles.
func (r *RTC) packCounters() uint64 {
	return uint64(bcd(r.second)) |
		uint64(bcd(r.minute))<<8 |
		uint64(bcd(r.hour))<<16 |
		uint64(bcd(r.day))<<24 |
		uint64(r.weekday&0x0F)<<32 |
		uint64(r.month&0x0F)<<36
}

func (r *RTC) loadCounters(v uint64) {
	r.second = fromBCD(byte(v))
	r.minute = fromBCD(byte(v >> 8))
	r.hour = fromBCD(byte(v >> 16))
	r.day = fromBCD(byte(v >> 24))
	r.weekday = int(v>>32) & 0x0F
	r.month = int(v>>36) & 0x0F
}

func bcd(v int) byte {
	return byte(v/10<<4 | v%10)
}

func fromBCD(v byte) int {
	return int(v>>4)*10 + int(v&0x0F)
}
