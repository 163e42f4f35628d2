package ui

import (
	"sync"

	"github.com/user-none/emstarlet/emu"
)

// Compile-time interface check.
var _ emu.SerialPort = (*SerialCapture)(nil)

// SerialCapture is a thread-safe ring buffer collecting bytes the
// machine transmits on the serial jack. The emulation goroutine
// writes via TxByte() during RunFrame; the Ebiten thread drains on
// its own schedule. Writes never block; on overflow the oldest bytes
// are dropped so a stalled consumer cannot stall the machine.
type SerialCapture struct {
	buf      []byte
	readPos  int
	writePos int
	count    int
	capacity int
	mu       sync.Mutex
}

// NewSerialCapture creates a capture buffer with the given capacity in bytes.
func NewSerialCapture(capacity int) *SerialCapture {
	return &SerialCapture{
		buf:      make([]byte, capacity),
		capacity: capacity,
	}
}

// TxByte implements emu.SerialPort, adding one transmitted byte.
func (sc *SerialCapture) TxByte(b byte) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Drop the oldest byte when full
	if sc.count == sc.capacity {
		sc.readPos = (sc.readPos + 1) % sc.capacity
		sc.count--
	}

	sc.buf[sc.writePos] = b
	sc.writePos = (sc.writePos + 1) % sc.capacity
	sc.count++
}

// Drain returns and removes everything buffered since the last call.
// Returns nil when nothing arrived.
func (sc *SerialCapture) Drain() []byte {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.count == 0 {
		return nil
	}

	// Copy data out of the buffer (may wrap around)
	out := make([]byte, sc.count)
	firstChunk := sc.capacity - sc.readPos
	if firstChunk >= sc.count {
		copy(out, sc.buf[sc.readPos:sc.readPos+sc.count])
	} else {
		copy(out, sc.buf[sc.readPos:])
		copy(out[firstChunk:], sc.buf[:sc.count-firstChunk])
	}

	sc.readPos = 0
	sc.writePos = 0
	sc.count = 0
	return out
}
