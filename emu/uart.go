package emu

// i8251 status register bits.
const (
	uartStatusTxReady = 0x01
	uartStatusRxReady = 0x02
	uartStatusTxEmpty = 0x04
	uartStatusDSR     = 0x80
)

// i8251 command register bits.
const (
	uartCmdTxEnable      = 0x01
	uartCmdRxEnable      = 0x04
	uartCmdInternalReset = 0x40
)

// SerialPort receives bytes transmitted out the RS-232C jack. Pacing
// and flow control are the transport's concern; transmission here is
// instantaneous.
type SerialPort interface {
	TxByte(b byte)
}

// nullPort discards transmitted bytes when nothing is attached.
type nullPort struct{}

func (nullPort) TxByte(byte) {}

// UART is the i8251 serial interface. After reset the first control
// write is the mode instruction; writes after that are command
// instructions until a command requests internal reset.
type UART struct {
	port SerialPort

	mode    byte
	command byte
	modeSet bool

	rx []byte
}

func NewUART() *UART {
	return &UART{port: nullPort{}}
}

// SetPort attaches a transport for transmitted bytes. A nil port
// discards them.
func (u *UART) SetPort(p SerialPort) {
	if p == nil {
		p = nullPort{}
	}
	u.port = p
}

// Reset returns the chip to the mode instruction phase and drops
// pending receive data.
func (u *UART) Reset() {
	u.mode = 0
	u.command = 0
	u.modeSet = false
	u.rx = u.rx[:0]
}

// Receive queues a byte arriving from the remote side. Dropped unless
// the receiver is enabled.
func (u *UART) Receive(b byte) {
	if u.command&uartCmdRxEnable == 0 {
		return
	}
	u.rx = append(u.rx, b)
}

// ReadData pops the oldest received byte.
func (u *UART) ReadData() byte {
	if len(u.rx) == 0 {
		return 0
	}
	b := u.rx[0]
	u.rx = u.rx[1:]
	return b
}

// ReadStatus reports transmitter and receiver readiness. The
// transmitter never backs up and the modem lines are strapped ready.
func (u *UART) ReadStatus() byte {
	v := byte(uartStatusTxReady | uartStatusTxEmpty | uartStatusDSR)
	if len(u.rx) > 0 {
		v |= uartStatusRxReady
	}
	return v
}

// WriteData transmits a byte when the transmitter is enabled.
func (u *UART) WriteData(b byte) {
	if u.command&uartCmdTxEnable == 0 {
		return
	}
	u.port.TxByte(b)
}

// WriteControl handles the mode/command write sequence.
func (u *UART) WriteControl(b byte) {
	if !u.modeSet {
		u.mode = b
		u.modeSet = true
		return
	}
	u.command = b
	if b&uartCmdInternalReset != 0 {
		u.modeSet = false
	}
}
