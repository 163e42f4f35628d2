package emu

import (
	"encoding/binary"
	"errors"
)

const (
	rtcSerializeVersion = 1
	// rtcSerializeSize is the total bytes needed for RTC serialization.
	// version(1) + cs(1) + oe(1) + stb(2) + clk(2) +
	// c0(1) + c1(1) + c2(1) + dataIn(1) + cmd(1) + shift(8) +
	// dataOut(1) + tp(1) + calendar(6) + tpRate(4) +
	// tpCycles(8) + secCycles(8)
	rtcSerializeSize = 48
)

// Serialize writes RTC state to buf. buf must be at least
// rtcSerializeSize bytes.
func (r *RTC) Serialize(buf []byte) error {
	if len(buf) < rtcSerializeSize {
		return errors.New("RTC serialize buffer too small")
	}

	offset := 0

	// Version
	buf[offset] = rtcSerializeVersion
	offset++

	// Control lines
	buf[offset] = boolByte(r.cs)
	offset++
	buf[offset] = boolByte(r.oe)
	offset++
	buf[offset] = boolByte(r.stb.latch)
	offset++
	buf[offset] = boolByte(r.stb.value)
	offset++
	buf[offset] = boolByte(r.clk.latch)
	offset++
	buf[offset] = boolByte(r.clk.value)
	offset++
	buf[offset] = boolByte(r.c0)
	offset++
	buf[offset] = boolByte(r.c1)
	offset++
	buf[offset] = boolByte(r.c2)
	offset++
	buf[offset] = boolByte(r.dataIn)
	offset++

	// Command and serial register
	buf[offset] = byte(r.cmd)
	offset++
	binary.LittleEndian.PutUint64(buf[offset:], r.shift)
	offset += 8
	buf[offset] = boolByte(r.dataOut)
	offset++
	buf[offset] = boolByte(r.tp)
	offset++

	// Calendar counters
	buf[offset] = byte(r.second)
	offset++
	buf[offset] = byte(r.minute)
	offset++
	buf[offset] = byte(r.hour)
	offset++
	buf[offset] = byte(r.day)
	offset++
	buf[offset] = byte(r.weekday)
	offset++
	buf[offset] = byte(r.month)
	offset++

	// Timing pulse and second accumulators
	binary.LittleEndian.PutUint32(buf[offset:], uint32(r.tpRate))
	offset += 4
	binary.LittleEndian.PutUint64(buf[offset:], uint64(r.tpCycles))
	offset += 8
	binary.LittleEndian.PutUint64(buf[offset:], uint64(r.secCycles))
	offset += 8

	return nil
}

// Deserialize reads RTC state from buf. buf must be at least
// rtcSerializeSize bytes.
func (r *RTC) Deserialize(buf []byte) error {
	if len(buf) < rtcSerializeSize {
		return errors.New("RTC deserialize buffer too small")
	}

	offset := 0

	// Version
	version := buf[offset]
	offset++
	if version > rtcSerializeVersion {
		return errors.New("unsupported RTC state version")
	}

	// Control lines
	r.cs = buf[offset] != 0
	offset++
	r.oe = buf[offset] != 0
	offset++
	r.stb.latch = buf[offset] != 0
	offset++
	r.stb.value = buf[offset] != 0
	offset++
	r.clk.latch = buf[offset] != 0
	offset++
	r.clk.value = buf[offset] != 0
	offset++
	r.c0 = buf[offset] != 0
	offset++
	r.c1 = buf[offset] != 0
	offset++
	r.c2 = buf[offset] != 0
	offset++
	r.dataIn = buf[offset] != 0
	offset++

	// Command and serial register
	r.cmd = int(buf[offset])
	offset++
	r.shift = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	r.dataOut = buf[offset] != 0
	offset++
	r.tp = buf[offset] != 0
	offset++

	// Calendar counters
	r.second = int(buf[offset])
	offset++
	r.minute = int(buf[offset])
	offset++
	r.hour = int(buf[offset])
	offset++
	r.day = int(buf[offset])
	offset++
	r.weekday = int(buf[offset])
	offset++
	r.month = int(buf[offset])
	offset++

	// Timing pulse and second accumulators
	r.tpRate = int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	r.tpCycles = int(binary.LittleEndian.Uint64(buf[offset:]))
	offset += 8
	r.secCycles = int(binary.LittleEndian.Uint64(buf[offset:]))
	offset += 8

	return nil
}
