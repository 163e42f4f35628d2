// Package cli provides a command-line runner for the emulator.
// It handles input polling and runs the emulator in a window without the full UI.
package cli

import (
	"io"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	emubridge "github.com/user-none/emstarlet/bridge/ebiten"
	"github.com/user-none/emstarlet/emu"
	"github.com/user-none/emstarlet/ui"
)

// Serial capture capacity in bytes. The machine transmits at most a
// few KB/s, so this holds several seconds of backlog.
const serialBufferSize = 16384

// matrixBinding ties one host key to a switch position in the key matrix.
type matrixBinding struct {
	key  ebiten.Key
	row  int
	mask byte
}

// keyBindings lays the host keyboard onto the machine's 10-row key
// matrix, following the keyboard scan order.
var keyBindings = []matrixBinding{
	// Row 0: STOP and SHIFT
	{ebiten.KeyEnd, 0, 0x80},
	{ebiten.KeyShiftLeft, 0, 0x40},
	{ebiten.KeyShiftRight, 0, 0x40},

	// Row 1: SPACE and A-G
	{ebiten.KeySpace, 1, 0x01},
	{ebiten.KeyA, 1, 0x02},
	{ebiten.KeyB, 1, 0x04},
	{ebiten.KeyC, 1, 0x08},
	{ebiten.KeyD, 1, 0x10},
	{ebiten.KeyE, 1, 0x20},
	{ebiten.KeyF, 1, 0x40},
	{ebiten.KeyG, 1, 0x80},

	// Row 2: H-O
	{ebiten.KeyH, 2, 0x01},
	{ebiten.KeyI, 2, 0x02},
	{ebiten.KeyJ, 2, 0x04},
	{ebiten.KeyK, 2, 0x08},
	{ebiten.KeyL, 2, 0x10},
	{ebiten.KeyM, 2, 0x20},
	{ebiten.KeyN, 2, 0x40},
	{ebiten.KeyO, 2, 0x80},

	// Row 3: P-W
	{ebiten.KeyP, 3, 0x01},
	{ebiten.KeyQ, 3, 0x02},
	{ebiten.KeyR, 3, 0x04},
	{ebiten.KeyS, 3, 0x08},
	{ebiten.KeyT, 3, 0x10},
	{ebiten.KeyU, 3, 0x20},
	{ebiten.KeyV, 3, 0x40},
	{ebiten.KeyW, 3, 0x80},

	// Row 4: X-Z and right-side punctuation
	{ebiten.KeyX, 4, 0x01},
	{ebiten.KeyY, 4, 0x02},
	{ebiten.KeyZ, 4, 0x04},
	{ebiten.KeyBracketLeft, 4, 0x08},
	{ebiten.KeyBackslash, 4, 0x10},
	{ebiten.KeyBracketRight, 4, 0x20},
	{ebiten.KeyQuote, 4, 0x40},
	{ebiten.KeyMinus, 4, 0x80},

	// Row 5: digits 0-7
	{ebiten.KeyDigit0, 5, 0x01},
	{ebiten.KeyDigit1, 5, 0x02},
	{ebiten.KeyDigit2, 5, 0x04},
	{ebiten.KeyDigit3, 5, 0x08},
	{ebiten.KeyDigit4, 5, 0x10},
	{ebiten.KeyDigit5, 5, 0x20},
	{ebiten.KeyDigit6, 5, 0x40},
	{ebiten.KeyDigit7, 5, 0x80},

	// Row 6: digits 8-9 and center punctuation
	{ebiten.KeyDigit8, 6, 0x01},
	{ebiten.KeyDigit9, 6, 0x02},
	{ebiten.KeySemicolon, 6, 0x04},
	{ebiten.KeyComma, 6, 0x10},
	{ebiten.KeyPeriod, 6, 0x20},
	{ebiten.KeySlash, 6, 0x40},
	{ebiten.KeyEqual, 6, 0x80},

	// Row 7: F1-F5, TAB, ESC
	{ebiten.KeyF1, 7, 0x02},
	{ebiten.KeyF2, 7, 0x04},
	{ebiten.KeyF3, 7, 0x08},
	{ebiten.KeyF4, 7, 0x10},
	{ebiten.KeyF5, 7, 0x20},
	{ebiten.KeyTab, 7, 0x40},
	{ebiten.KeyEscape, 7, 0x80},

	// Row 8: F6-F7 and the right cursor
	{ebiten.KeyF7, 8, 0x20},
	{ebiten.KeyF6, 8, 0x40},
	{ebiten.KeyArrowRight, 8, 0x80},

	// Row 9: left cursor, BS, ENTER, F8-F12
	{ebiten.KeyArrowLeft, 9, 0x01},
	{ebiten.KeyBackspace, 9, 0x02},
	{ebiten.KeyDelete, 9, 0x02},
	{ebiten.KeyEnter, 9, 0x04},
	{ebiten.KeyNumpadEnter, 9, 0x04},
	{ebiten.KeyF12, 9, 0x08},
	{ebiten.KeyF11, 9, 0x10},
	{ebiten.KeyF10, 9, 0x20},
	{ebiten.KeyF9, 9, 0x40},
	{ebiten.KeyF8, 9, 0x80},
}

// Runner wraps an emulator for command-line mode.
// The emulator runs on a dedicated goroutine with frame timing.
// The Ebiten thread handles input polling and rendering from the shared framebuffer.
type Runner struct {
	emulator *emubridge.Emulator

	serial    *ui.SerialCapture
	serialOut io.Writer

	// Emulation goroutine control
	emuControl        *ui.EmuControl
	sharedMatrix      *ui.SharedMatrix
	sharedFramebuffer *ui.SharedFramebuffer
	emuDone           chan struct{}
}

// NewRunner creates a new Runner wrapping the given emulator.
// When serialOut is non-nil, bytes the machine transmits on the
// serial jack are captured and written to it.
func NewRunner(e *emubridge.Emulator, serialOut io.Writer) *Runner {
	r := &Runner{
		emulator:          e,
		serialOut:         serialOut,
		emuControl:        ui.NewEmuControl(),
		sharedMatrix:      ui.NewSharedMatrix(),
		sharedFramebuffer: ui.NewSharedFramebuffer(),
		emuDone:           make(chan struct{}),
	}

	if serialOut != nil {
		r.serial = ui.NewSerialCapture(serialBufferSize)
		e.SetSerialPort(r.serial)
	}

	// Start emulation goroutine
	go r.emulationLoop()

	return r
}

// Close stops the emulation goroutine and flushes captured serial data.
func (r *Runner) Close() {
	if r.emuControl != nil {
		r.emuControl.Stop()
		<-r.emuDone
	}

	r.flushSerial()
}

// flushSerial writes captured transmit data to the serial output.
func (r *Runner) flushSerial() {
	if r.serial == nil {
		return
	}
	if data := r.serial.Drain(); len(data) > 0 {
		r.serialOut.Write(data)
	}
}

// emulationLoop runs on a dedicated goroutine with frame timing.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	timing := r.emulator.GetTiming()
	frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
	lastFrameTime := time.Now()

	for {
		if !r.emuControl.CheckPause() {
			return
		}

		// Read keyboard state from shared state
		r.emulator.SetKeyMatrix(r.sharedMatrix.Read())

		// Run one frame
		r.emulator.RunFrame()

		// Update shared framebuffer
		r.sharedFramebuffer.Update(
			r.emulator.GetFramebuffer(),
			r.emulator.GetFramebufferStride(),
			r.emulator.GetActiveHeight(),
		)

		// Sleep out the remainder of the frame
		elapsed := time.Since(lastFrameTime)
		sleepTime := frameTime - elapsed
		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	r.flushSerial()

	// Pause while the window is unfocused so held keys release
	// instead of repeating into the machine.
	if !ebiten.IsFocused() {
		r.sharedMatrix.Set(emu.IdleMatrix())
		r.emuControl.RequestPause()
		return nil
	}
	r.emuControl.RequestResume()

	r.pollInputToShared()
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, stride, height := r.sharedFramebuffer.Read()
	if height == 0 {
		return
	}
	r.emulator.DrawCachedFramebuffer(screen, pixels, stride, height)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.emulator.Layout(outsideWidth, outsideHeight)
}

// pollInputToShared reads keyboard and gamepad input and writes the
// resulting key matrix to shared state.
func (r *Runner) pollInputToShared() {
	matrix := emu.IdleMatrix()

	for _, b := range keyBindings {
		if ebiten.IsKeyPressed(b.key) {
			matrix.Press(b.row, b.mask)
		}
	}

	// Gamepad convenience mapping (all connected gamepads)
	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}

		// D-pad left/right drive the cursor keys
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftLeft) {
			matrix.Press(9, 0x01)
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftRight) {
			matrix.Press(8, 0x80)
		}

		// Face buttons: A/Cross=Space, B/Circle=Enter, Start=STOP, Select=ESC
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom) {
			matrix.Press(1, 0x01)
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightRight) {
			matrix.Press(9, 0x04)
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonCenterRight) {
			matrix.Press(0, 0x80)
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonCenterLeft) {
			matrix.Press(7, 0x80)
		}

		// Left analog stick (with deadzone)
		const deadzone = 0.5
		axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		if axisX < -deadzone {
			matrix.Press(9, 0x01)
		}
		if axisX > deadzone {
			matrix.Press(8, 0x80)
		}
	}

	r.sharedMatrix.Set(matrix)
}
