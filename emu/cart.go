package emu

// Cartridge is a read-only ROM image plugged into one of the two
// external slots. The same type backs both: the left slot is reached
// through the low memory window, the right slot through the I/O
// cartridge address counter.
type Cartridge struct {
	data []byte
}

// NewCartridge wraps a raw cartridge image. A nil or empty image is
// an empty slot.
func NewCartridge(data []byte) *Cartridge {
	if len(data) == 0 {
		return nil
	}
	return &Cartridge{data: data}
}

// ReadROM returns the byte at offset. Offsets beyond the image and
// empty slots read the open bus value.
func (c *Cartridge) ReadROM(offset uint32) byte {
	if c == nil || int(offset) >= len(c.data) {
		return openBusValue
	}
	return c.data[offset]
}

// Size returns the image size in bytes, 0 for an empty slot.
func (c *Cartridge) Size() int {
	if c == nil {
		return 0
	}
	return len(c.data)
}

// window32K returns the view of the image the low memory window maps,
// padded with the open bus value when the image is smaller than the
// window. Nil for an empty slot.
func (c *Cartridge) window32K() []byte {
	if c == nil {
		return nil
	}
	if len(c.data) >= romBankSize {
		return c.data[:romBankSize]
	}
	w := make([]byte, romBankSize)
	for i := range w {
		w[i] = openBusValue
	}
	copy(w, c.data)
	return w
}
