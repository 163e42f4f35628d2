package emu

import "testing"

// enableKeyboard runs the firmware's interrupt enable handshake.
func enableKeyboard(k *Keyboard) {
	k.DataWrite(0x10)
	k.DataWrite(0x18)
}

func TestKeyMatrix_Press(t *testing.T) {
	m := IdleMatrix()
	for i, row := range m {
		if row != keyRowIdle {
			t.Errorf("row %d: expected 0x%02X, got 0x%02X", i, keyRowIdle, row)
		}
	}

	m.Press(3, 0x08)
	if m[3] != 0xF7 {
		t.Errorf("expected 0xF7, got 0x%02X", m[3])
	}

	// Rows outside the matrix are ignored
	m.Press(-1, 0x01)
	m.Press(keyboardRows, 0x01)
	if m[0] != keyRowIdle {
		t.Errorf("row 0 should be untouched, got 0x%02X", m[0])
	}
}

func TestKeyboard_RowReads(t *testing.T) {
	k := NewKeyboard()

	m := IdleMatrix()
	m.Press(5, 0x04)
	k.SetMatrix(m)

	if v := k.Row(5); v != 0xFB {
		t.Errorf("row 5: expected 0xFB, got 0x%02X", v)
	}
	if v := k.Row(0); v != keyRowIdle {
		t.Errorf("row 0: expected 0x%02X, got 0x%02X", keyRowIdle, v)
	}

	// Rows past the matrix float
	if v := k.Row(keyboardRows); v != openBusValue {
		t.Errorf("row 10: expected 0x%02X, got 0x%02X", openBusValue, v)
	}
	if v := k.Row(-1); v != openBusValue {
		t.Errorf("row -1: expected 0x%02X, got 0x%02X", openBusValue, v)
	}
}

func TestKeyboard_ScanDisabledBeforeHandshake(t *testing.T) {
	k := NewKeyboard()

	m := IdleMatrix()
	m.Press(2, 0x01)
	k.SetMatrix(m)

	if k.Scan() {
		t.Error("scan should not fire before the enable handshake")
	}
	if v := k.StatusRead(); v != 0x10 {
		t.Errorf("status: expected 0x10, got 0x%02X", v)
	}
}

func TestKeyboard_EnableHandshake(t *testing.T) {
	// The 0x10 then 0x18 pair mirrors what the boot firmware writes.
	// The real gate array protocol is undocumented, so the pair is a
	// behavioral heuristic rather than a confirmed handshake.
	k := NewKeyboard()
	enableKeyboard(k)

	m := IdleMatrix()
	m.Press(2, 0x01)
	k.SetMatrix(m)

	if !k.Scan() {
		t.Error("scan should fire after the enable handshake")
	}
}

func TestKeyboard_HandshakeRequiresSequence(t *testing.T) {
	k := NewKeyboard()

	m := IdleMatrix()
	m.Press(2, 0x01)
	k.SetMatrix(m)

	// 0x18 without the arm value first
	k.DataWrite(0x18)
	if k.Scan() {
		t.Error("0x18 alone should not enable")
	}

	// Arm value followed by the wrong byte
	k.DataWrite(0x10)
	k.DataWrite(0x17)
	if k.Scan() {
		t.Error("0x10, 0x17 should not enable")
	}

	enableKeyboard(k)
	if !k.Scan() {
		t.Error("0x10, 0x18 should enable")
	}
}

func TestKeyboard_ScanFiresOnceWhileHeld(t *testing.T) {
	k := NewKeyboard()
	enableKeyboard(k)

	m := IdleMatrix()
	m.Press(1, 0x01)
	k.SetMatrix(m)

	if !k.Scan() {
		t.Fatal("first scan should fire")
	}
	if k.Scan() {
		t.Error("second scan should not fire while the key is held")
	}
	if v := k.StatusRead(); v != 0x11 {
		t.Errorf("status: expected 0x11, got 0x%02X", v)
	}
}

func TestKeyboard_StrobePersistsAfterRelease(t *testing.T) {
	k := NewKeyboard()
	enableKeyboard(k)

	m := IdleMatrix()
	m.Press(1, 0x01)
	k.SetMatrix(m)
	k.Scan()

	// Releasing the key does not drop the strobe; only a status
	// write does.
	k.SetMatrix(IdleMatrix())
	if k.Scan() {
		t.Error("scan with an idle matrix should not fire")
	}
	if v := k.StatusRead(); v != 0x11 {
		t.Errorf("status after release: expected 0x11, got 0x%02X", v)
	}
}

func TestKeyboard_StatusWriteRearmsScan(t *testing.T) {
	k := NewKeyboard()
	enableKeyboard(k)

	m := IdleMatrix()
	m.Press(1, 0x01)
	k.SetMatrix(m)
	k.Scan()

	k.StatusWrite(0x00)
	if v := k.StatusRead(); v != 0x10 {
		t.Errorf("status after clear: expected 0x10, got 0x%02X", v)
	}

	// The key is still held, so the next scan sees a fresh edge
	if !k.Scan() {
		t.Error("scan should fire again after the strobe clears")
	}
}

func TestKeyboard_LatchHoldsRowData(t *testing.T) {
	k := NewKeyboard()
	enableKeyboard(k)

	m := IdleMatrix()
	m.Press(5, 0x80)
	k.SetMatrix(m)
	k.Scan()

	if v := k.DataRead(); v != 0x7F {
		t.Errorf("latch: expected 0x7F, got 0x%02X", v)
	}

	// The latch survives key release
	k.SetMatrix(IdleMatrix())
	k.Scan()
	if v := k.DataRead(); v != 0x7F {
		t.Errorf("latch after release: expected 0x7F, got 0x%02X", v)
	}
}

func TestKeyboard_LatchTakesLastScannedRow(t *testing.T) {
	k := NewKeyboard()
	enableKeyboard(k)

	// Two rows held: the scan walks row 0 to row 9, so the higher
	// row's data wins the latch.
	m := IdleMatrix()
	m.Press(2, 0x01)
	m.Press(7, 0x02)
	k.SetMatrix(m)
	k.Scan()

	if v := k.DataRead(); v != 0xFD {
		t.Errorf("latch: expected 0xFD, got 0x%02X", v)
	}
}

func TestKeyboard_ResetDisablesInterrupts(t *testing.T) {
	k := NewKeyboard()
	enableKeyboard(k)

	m := IdleMatrix()
	m.Press(1, 0x01)
	k.SetMatrix(m)
	k.Scan()

	k.Reset()
	if v := k.StatusRead(); v != 0x10 {
		t.Errorf("status after reset: expected 0x10, got 0x%02X", v)
	}
	if k.Scan() {
		t.Error("scan should not fire after reset until re-enabled")
	}

	// Latched data survives reset
	if v := k.DataRead(); v != 0xFE {
		t.Errorf("latch after reset: expected 0xFE, got 0x%02X", v)
	}
}
