package emu

// Keyboard matrix geometry and scan constants.
const (
	keyboardRows = 10
	keyRowIdle   = 0xFF // rows are active low, idle reads all ones

	// Vector placed on the data bus for the keyboard interrupt. The
	// firmware services it through RST 28H.
	keyboardIRQVector = 0xEF
)

// Interrupt enable handshake. The boot firmware writes 0x10 then 0x18
// to the acknowledge port before it starts polling. The gate array
// protocol is undocumented; recognizing that pair is sufficient for
// the stock firmware.
const (
	keyIRQArmValue    = 0x10
	keyIRQEnableValue = 0x18
)

// KeyMatrix is a full keyboard snapshot, one active-low byte per row.
type KeyMatrix [keyboardRows]byte

// IdleMatrix returns a matrix with no keys held.
func IdleMatrix() KeyMatrix {
	var m KeyMatrix
	for i := range m {
		m[i] = keyRowIdle
	}
	return m
}

// Press marks one key held. Rows outside the matrix are ignored.
func (m *KeyMatrix) Press(row int, mask byte) {
	if row < 0 || row >= len(m) {
		return
	}
	m[row] &^= mask
}

// Keyboard models the 10x8 key matrix and the scan logic in front of
// it. The machine walks the whole matrix once per display refresh; a
// scan that finds any held key latches that row's data and raises the
// keyboard interrupt on the idle-to-held edge.
type Keyboard struct {
	rows KeyMatrix

	strobe     bool
	latch      byte
	irqEnabled bool
}

func NewKeyboard() *Keyboard {
	return &Keyboard{rows: IdleMatrix()}
}

// Reset disables keyboard interrupts and drops any in-progress
// strobe. Latched row data survives reset.
func (k *Keyboard) Reset() {
	k.irqEnabled = false
	k.strobe = false
}

// SetMatrix replaces the matrix snapshot.
func (k *Keyboard) SetMatrix(rows KeyMatrix) {
	k.rows = rows
}

// Row returns the level of one matrix row. Rows outside the matrix
// float.
func (k *Keyboard) Row(n int) byte {
	if n < 0 || n >= keyboardRows {
		return openBusValue
	}
	return k.rows[n]
}

// Scan walks the matrix once and reports whether the keyboard
// interrupt fires. Scanning is gated on the interrupt enable. A held
// key keeps the strobe up across scans, so only the first scan after
// an idle matrix fires; the strobe drops through StatusWrite, not by
// releasing the key.
func (k *Keyboard) Scan() bool {
	if !k.irqEnabled {
		return false
	}

	strobe := false
	for _, row := range k.rows {
		if row != keyRowIdle {
			strobe = true
			k.latch = row
		}
	}

	fire := strobe && !k.strobe
	if strobe {
		k.strobe = true
	}
	return fire
}

// StatusRead returns the scan status: bit 4 is wired high, bit 0 is
// the strobe.
func (k *Keyboard) StatusRead() byte {
	v := byte(0x10)
	if k.strobe {
		v |= 0x01
	}
	return v
}

// StatusWrite clears the strobe. The written value is ignored.
func (k *Keyboard) StatusWrite(byte) {
	k.strobe = false
}

// DataRead returns the row data latched by the last scan hit.
func (k *Keyboard) DataRead() byte {
	return k.latch
}

// DataWrite acknowledges the interrupt and feeds the enable
// handshake. The port dispatcher drops the CPU interrupt line on
// every write here before calling.
func (k *Keyboard) DataWrite(v byte) {
	if k.latch == keyIRQArmValue && v == keyIRQEnableValue {
		k.irqEnabled = true
	}
	k.latch = v
}
