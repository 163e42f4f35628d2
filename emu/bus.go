package emu

// Bus adapts the memory map and the port dispatcher to the CPU
// core's bus interface.
type Bus struct {
	mem *Memory
	io  *IO
}

func NewBus(mem *Memory, io *IO) *Bus {
	return &Bus{mem: mem, io: io}
}

func (b *Bus) Fetch(addr uint16) uint8    { return b.mem.Read(addr) }
func (b *Bus) Read(addr uint16) uint8     { return b.mem.Read(addr) }
func (b *Bus) Write(addr uint16, v uint8) { b.mem.Write(addr, v) }
func (b *Bus) In(port uint16) uint8       { return b.io.In(port) }
func (b *Bus) Out(port uint16, v uint8)   { b.io.Out(port, v) }
