package emu

import (
	"encoding/binary"
	"errors"
)

const (
	lcdSerializeVersion = 1
	// lcdSerializeFixedSize is the register portion of LCD
	// serialization. version(1) + vramLen(4) + ir(1) + pbc(4) +
	// mode flags(6) + fx(1) + fy(1) + cr(1) + tcr(1) + lf(1) + ap(2) +
	// sad(8) + sl1(1) + sl2(1) + mx(1) + dm1(1) + dm2(1) + ov(1) +
	// csr(2) + cd(1) + crx(1) + cry(1) + curBlock(1) + flash(1) +
	// sag(2) + hdotScr(1) + displayOn(1) + sleeping(1)
	lcdSerializeFixedSize = 49
)

// SerializeSize returns the bytes needed to serialize this
// controller, including its display memory.
func (l *LCD) SerializeSize() int {
	return lcdSerializeFixedSize + len(l.vram)
}

// Serialize writes LCD state to buf. buf must be at least
// SerializeSize bytes.
func (l *LCD) Serialize(buf []byte) error {
	if len(buf) < l.SerializeSize() {
		return errors.New("LCD serialize buffer too small")
	}

	offset := 0

	// Version
	buf[offset] = lcdSerializeVersion
	offset++

	// Display memory
	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(l.vram)))
	offset += 4
	copy(buf[offset:], l.vram)
	offset += len(l.vram)

	// Instruction decode
	buf[offset] = l.ir
	offset++
	binary.LittleEndian.PutUint32(buf[offset:], uint32(l.pbc))
	offset += 4

	// SYSTEM SET
	buf[offset] = boolByte(l.m0)
	offset++
	buf[offset] = boolByte(l.m1)
	offset++
	buf[offset] = boolByte(l.m2)
	offset++
	buf[offset] = boolByte(l.ws)
	offset++
	buf[offset] = boolByte(l.iv)
	offset++
	buf[offset] = boolByte(l.wf)
	offset++
	buf[offset] = byte(l.fx)
	offset++
	buf[offset] = byte(l.fy)
	offset++
	buf[offset] = byte(l.cr)
	offset++
	buf[offset] = byte(l.tcr)
	offset++
	buf[offset] = byte(l.lf)
	offset++
	binary.LittleEndian.PutUint16(buf[offset:], l.ap)
	offset += 2

	// Screen blocks
	for _, sad := range l.sad {
		binary.LittleEndian.PutUint16(buf[offset:], sad)
		offset += 2
	}
	buf[offset] = byte(l.sl1)
	offset++
	buf[offset] = byte(l.sl2)
	offset++

	// Overlay
	buf[offset] = byte(l.mx)
	offset++
	buf[offset] = boolByte(l.dm1)
	offset++
	buf[offset] = boolByte(l.dm2)
	offset++
	buf[offset] = boolByte(l.ov)
	offset++

	// Cursor
	binary.LittleEndian.PutUint16(buf[offset:], l.csr)
	offset += 2
	buf[offset] = byte(l.cd)
	offset++
	buf[offset] = byte(l.crx)
	offset++
	buf[offset] = byte(l.cry)
	offset++
	buf[offset] = boolByte(l.curBlock)
	offset++
	buf[offset] = l.flash
	offset++

	// Glyph base and horizontal scroll
	binary.LittleEndian.PutUint16(buf[offset:], l.sag)
	offset += 2
	buf[offset] = byte(l.hdotScr)
	offset++

	buf[offset] = boolByte(l.displayOn)
	offset++
	buf[offset] = boolByte(l.sleeping)
	offset++

	return nil
}

// Deserialize reads LCD state from buf. buf must be at least
// SerializeSize bytes.
func (l *LCD) Deserialize(buf []byte) error {
	if len(buf) < l.SerializeSize() {
		return errors.New("LCD deserialize buffer too small")
	}

	offset := 0

	// Version
	version := buf[offset]
	offset++
	if version > lcdSerializeVersion {
		return errors.New("unsupported LCD state version")
	}

	// Display memory
	vramLen := int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	if vramLen != len(l.vram) {
		return errors.New("LCD display memory size mismatch")
	}
	copy(l.vram, buf[offset:offset+vramLen])
	offset += vramLen

	// Instruction decode
	l.ir = buf[offset]
	offset++
	l.pbc = int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4

	// SYSTEM SET
	l.m0 = buf[offset] != 0
	offset++
	l.m1 = buf[offset] != 0
	offset++
	l.m2 = buf[offset] != 0
	offset++
	l.ws = buf[offset] != 0
	offset++
	l.iv = buf[offset] != 0
	offset++
	l.wf = buf[offset] != 0
	offset++
	l.fx = int(buf[offset])
	offset++
	l.fy = int(buf[offset])
	offset++
	l.cr = int(buf[offset])
	offset++
	l.tcr = int(buf[offset])
	offset++
	l.lf = int(buf[offset])
	offset++
	l.ap = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2

	// Screen blocks
	for i := range l.sad {
		l.sad[i] = binary.LittleEndian.Uint16(buf[offset:])
		offset += 2
	}
	l.sl1 = int(buf[offset])
	offset++
	l.sl2 = int(buf[offset])
	offset++

	// Overlay
	l.mx = int(buf[offset])
	offset++
	l.dm1 = buf[offset] != 0
	offset++
	l.dm2 = buf[offset] != 0
	offset++
	l.ov = buf[offset] != 0
	offset++

	// Cursor
	l.csr = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2
	l.cd = int(buf[offset])
	offset++
	l.crx = int(buf[offset])
	offset++
	l.cry = int(buf[offset])
	offset++
	l.curBlock = buf[offset] != 0
	offset++
	l.flash = buf[offset]
	offset++

	// Glyph base and horizontal scroll
	l.sag = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2
	l.hdotScr = int(buf[offset])
	offset++

	l.displayOn = buf[offset] != 0
	offset++
	l.sleeping = buf[offset] != 0
	offset++

	return nil
}
