package emu

// Panel geometry. Both machine variants drive a 480 dot wide panel;
// they differ in line count and display memory fit.
const (
	ScreenWidth     = 480
	MaxScreenHeight = 200
)

// Display controller instruction codes.
const (
	lcdCmdSystemSet   = 0x40
	lcdCmdMWrite      = 0x42
	lcdCmdMRead       = 0x43
	lcdCmdScroll      = 0x44
	lcdCmdCSRW        = 0x46
	lcdCmdCSRR        = 0x47
	lcdCmdCSRDirRight = 0x4C
	lcdCmdCSRDirLeft  = 0x4D
	lcdCmdCSRDirUp    = 0x4E
	lcdCmdCSRDirDown  = 0x4F
	lcdCmdSleepIn     = 0x53
	lcdCmdDispOff     = 0x58
	lcdCmdDispOn      = 0x59
	lcdCmdHDotScr     = 0x5A
	lcdCmdOvlay       = 0x5B
	lcdCmdCGRAMAdr    = 0x5C
	lcdCmdCSRForm     = 0x5D
)

// Cursor step directions, the low two bits of the CSRDIR commands.
const (
	csrDirRight = 0
	csrDirLeft  = 1
	csrDirUp    = 2
	csrDirDown  = 3
)

// Layer composition, the low two bits of the overlay register, plus
// an internal replace mode for the base layer.
const (
	mixOR      = 0
	mixXOR     = 1
	mixAND     = 2
	mixPOR     = 3 // priority OR, same as OR for a two layer panel
	mixReplace = 4
)

// Panel pens: a green electroluminescent backlight behind dark blue
// ink.
var (
	penPaper = [4]byte{39, 108, 51, 255}
	penInk   = [4]byte{16, 37, 84, 255}
)

// LCD is the SED1330 display controller with its own display memory.
// The CPU talks to it through two ports: commands set the instruction
// register, data reads and writes then move parameters or display
// memory depending on the pending instruction.
//
// Display memory holds up to two screen blocks. A block is either
// character codes fed through the glyph generator or dot-addressed
// pixels, per the overlay register; the second block composes onto
// the first.
type LCD struct {
	vram []byte
	mask int

	height int

	// Instruction decode: pending instruction and parameter count.
	ir  byte
	pbc int

	// SYSTEM SET parameters.
	m0  bool   // external glyph generator for all codes
	m1  bool
	m2  bool
	ws  bool
	iv  bool
	wf  bool
	fx  int    // character cell width in dots
	fy  int    // character cell height in dots
	cr  int    // display addresses per line, minus one
	tcr int
	lf  int    // lines per frame, minus one
	ap  uint16 // address pitch between display lines

	// Screen block start addresses and line counts.
	sad [4]uint16
	sl1 int
	sl2 int

	// Overlay register.
	mx  int
	dm1 bool // block 1 dot addressed
	dm2 bool // block 2 dot addressed
	ov  bool

	// Cursor.
	csr      uint16
	cd       int
	crx      int
	cry      int
	curBlock bool
	flash    byte

	sag     uint16 // external glyph generator base
	hdotScr int

	displayOn bool
	sleeping  bool
}

// NewLCD creates the controller with size bytes of display memory and
// lines visible scanlines. size must be a power of two. Geometry
// defaults cover the panel until the firmware runs SYSTEM SET.
func NewLCD(size, lines int) *LCD {
	return &LCD{
		vram:   make([]byte, size),
		mask:   size - 1,
		height: lines,
		fx:     8,
		fy:     8,
		cr:     ScreenWidth/8 - 1,
		ap:     ScreenWidth / 8,
		lf:     lines - 1,
		sl1:    lines - 1,
		sl2:    lines - 1,
	}
}

// Height returns the visible line count.
func (l *LCD) Height() int {
	return l.height
}

// StatusRead reports the controller status. The busy flag never
// raises; command processing is immediate here.
func (l *LCD) StatusRead() byte {
	return 0
}

// CommandWrite latches an instruction and resets the parameter
// counter. Instructions that carry their operand in the opcode take
// effect immediately.
func (l *LCD) CommandWrite(v byte) {
	l.ir = v
	l.pbc = 0

	switch v {
	case lcdCmdCSRDirRight, lcdCmdCSRDirLeft, lcdCmdCSRDirUp, lcdCmdCSRDirDown:
		l.cd = int(v & 0x03)
	case lcdCmdDispOn, lcdCmdDispOff:
		l.displayOn = v&0x01 != 0
	case lcdCmdSleepIn:
		l.sleeping = true
	case lcdCmdSystemSet:
		l.sleeping = false
	}
}

// DataWrite feeds a parameter byte to the pending instruction, or
// stores display memory under MWRITE.
func (l *LCD) DataWrite(v byte) {
	switch l.ir {
	case lcdCmdSystemSet:
		switch l.pbc {
		case 0:
			l.m0 = v&0x01 != 0
			l.m1 = v&0x02 != 0
			l.m2 = v&0x04 != 0
			l.ws = v&0x08 != 0
			l.iv = v&0x20 != 0
		case 1:
			l.fx = int(v&0x07) + 1
			l.wf = v&0x80 != 0
		case 2:
			l.fy = int(v&0x0F) + 1
		case 3:
			l.cr = int(v)
		case 4:
			l.tcr = int(v)
		case 5:
			l.lf = int(v)
		case 6:
			l.ap = l.ap&0xFF00 | uint16(v)
		case 7:
			l.ap = l.ap&0x00FF | uint16(v)<<8
		}
	case lcdCmdScroll:
		switch l.pbc {
		case 0:
			l.sad[0] = l.sad[0]&0xFF00 | uint16(v)
		case 1:
			l.sad[0] = l.sad[0]&0x00FF | uint16(v)<<8
		case 2:
			l.sl1 = int(v)
		case 3:
			l.sad[1] = l.sad[1]&0xFF00 | uint16(v)
		case 4:
			l.sad[1] = l.sad[1]&0x00FF | uint16(v)<<8
		case 5:
			l.sl2 = int(v)
		case 6:
			l.sad[2] = l.sad[2]&0xFF00 | uint16(v)
		case 7:
			l.sad[2] = l.sad[2]&0x00FF | uint16(v)<<8
		case 8:
			l.sad[3] = l.sad[3]&0xFF00 | uint16(v)
		case 9:
			l.sad[3] = l.sad[3]&0x00FF | uint16(v)<<8
		}
	case lcdCmdCSRForm:
		switch l.pbc {
		case 0:
			l.crx = int(v&0x0F) + 1
		case 1:
			l.cry = int(v&0x0F) + 1
			l.curBlock = v&0x80 != 0
		}
	case lcdCmdCGRAMAdr:
		switch l.pbc {
		case 0:
			l.sag = l.sag&0xFF00 | uint16(v)
		case 1:
			l.sag = l.sag&0x00FF | uint16(v)<<8
		}
	case lcdCmdHDotScr:
		l.hdotScr = int(v & 0x07)
	case lcdCmdOvlay:
		l.mx = int(v & 0x03)
		l.dm1 = v&0x04 != 0
		l.dm2 = v&0x08 != 0
		l.ov = v&0x10 != 0
	case lcdCmdCSRW:
		switch l.pbc {
		case 0:
			l.csr = l.csr&0xFF00 | uint16(v)
		case 1:
			l.csr = l.csr&0x00FF | uint16(v)<<8
		}
	case lcdCmdDispOn, lcdCmdDispOff:
		l.flash = v
	case lcdCmdMWrite:
		l.vram[int(l.csr)&l.mask] = v
		l.stepCursor()
	}
	l.pbc++
}

// DataRead returns display memory under MREAD or the cursor address
// under CSRR.
func (l *LCD) DataRead() byte {
	switch l.ir {
	case lcdCmdMRead:
		v := l.vram[int(l.csr)&l.mask]
		l.stepCursor()
		return v
	case lcdCmdCSRR:
		var v byte
		if l.pbc == 0 {
			v = byte(l.csr)
		} else {
			v = byte(l.csr >> 8)
		}
		l.pbc++
		return v
	}
	return 0
}

func (l *LCD) stepCursor() {
	switch l.cd {
	case csrDirRight:
		l.csr++
	case csrDirLeft:
		l.csr--
	case csrDirUp:
		l.csr -= l.ap
	case csrDirDown:
		l.csr += l.ap
	}
}

// RenderFrame paints the panel into an RGBA framebuffer with the
// given row stride.
func (l *LCD) RenderFrame(fb []byte, stride int) {
	var line [ScreenWidth]byte
	for y := 0; y < l.height; y++ {
		for i := range line {
			line[i] = 0
		}
		if l.displayOn && !l.sleeping {
			l.composeLine(y, line[:])
		}
		row := fb[y*stride : y*stride+ScreenWidth*4]
		for x := 0; x < ScreenWidth; x++ {
			pen := &penPaper
			if line[x] != 0 {
				pen = &penInk
			}
			copy(row[x*4:x*4+4], pen[:])
		}
	}
}

func (l *LCD) composeLine(y int, line []byte) {
	if y <= l.sl1 {
		l.blockLine(y, l.sad[0], l.dm1, mixReplace, line)
	}
	if y <= l.sl2 {
		l.blockLine(y, l.sad[1], l.dm2, l.mx, line)
	}
	l.cursorLine(y, line)
}

// blockLine renders one scanline of a screen block. Dot addressed
// blocks read pixels straight from display memory; character blocks
// go through the glyph generator.
func (l *LCD) blockLine(y int, sad uint16, dots bool, mode int, line []byte) {
	if dots {
		l.graphicsLine(y, sad, mode, line)
	} else {
		l.textLine(y, sad, mode, line)
	}
}

func (l *LCD) graphicsLine(y int, sad uint16, mode int, line []byte) {
	base := int(sad) + y*int(l.ap)
	count := l.cr + 1
	if max := (len(line) + 7) / 8; count > max {
		count = max
	}
	x := 0
	for i := 0; i < count; i++ {
		b := l.vram[(base+i)&l.mask]
		for bit := 7; bit >= 0 && x < len(line); bit-- {
			mixPixel(line, x, b>>uint(bit)&1, mode)
			x++
		}
	}
}

func (l *LCD) textLine(y int, sad uint16, mode int, line []byte) {
	row := y / l.fy
	glyphLine := y % l.fy
	base := int(sad) + row*int(l.ap)
	count := l.cr + 1
	x := 0
	for c := 0; c < count && x < len(line); c++ {
		code := l.vram[(base+c)&l.mask]
		bits := l.glyphRow(code, glyphLine)
		for i := 0; i < l.fx && x < len(line); i++ {
			mixPixel(line, x, bits>>uint(7-i)&1, mode)
			x++
		}
	}
}

// glyphRow returns one row of the glyph for a character code. Codes
// with the high bit set come from glyph memory at the CGRAM base, the
// rest from the built-in generator unless SYSTEM SET routed all codes
// externally.
func (l *LCD) glyphRow(code byte, row int) byte {
	if l.m0 || code&0x80 != 0 {
		addr := int(l.sag) + int(code)*8 + row
		return l.vram[addr&l.mask]
	}
	return cgromRow(code, row)
}

// cursorLine overdraws the cursor when it sits in the first screen
// block and that block holds text. Flashing modes render steady.
func (l *LCD) cursorLine(y int, line []byte) {
	if l.flash&0x03 == 0 || l.dm1 || l.ap == 0 {
		return
	}
	off := int(l.csr) - int(l.sad[0])
	if off < 0 {
		return
	}
	row := off / int(l.ap)
	col := off % int(l.ap)

	top := row * l.fy
	y0, y1 := top, top+l.cry
	if !l.curBlock {
		y0 = top + l.cry - 1
	}
	if y < y0 || y >= y1 {
		return
	}

	x0 := col * l.fx
	for i := 0; i < l.crx && x0+i < len(line); i++ {
		line[x0+i] = 1
	}
}

func mixPixel(line []byte, x int, bit byte, mode int) {
	switch mode {
	case mixReplace:
		line[x] = bit
	case mixOR, mixPOR:
		line[x] |= bit
	case mixXOR:
		line[x] ^= bit
	case mixAND:
		line[x] &= bit
	}
}
