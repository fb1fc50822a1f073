package graphics

import (
	"errors"
	"fmt"
	"sync/atomic"

	"nescore/internal/bus"
	"nescore/internal/input"
)

// ErrQuit is returned by Viewer.Update when the user closes the viewer
var ErrQuit = errors.New("viewer closed")

// Emulator is the machine driven by the viewer
type Emulator interface {
	StepFrame() error
	GetBus() *bus.Bus
	Pause()
	TogglePause()
	IsPaused() bool
	Reset()
}

// KeyboardSource turns window key events into joypad state and, while the
// CPU awaits input, typed bytes. It is only touched from the window's
// update loop.
type KeyboardSource struct {
	buttons [8]bool
	typed   []uint8
}

const maxTyped = 64

// Press records a joypad button change
func (s *KeyboardSource) Press(button input.Button, pressed bool) {
	for i, b := range input.Buttons {
		if b == button {
			s.buttons[i] = pressed
		}
	}
}

// Type queues a byte for the next Poll. The oldest byte is dropped when
// the queue is full.
func (s *KeyboardSource) Type(value uint8) {
	if len(s.typed) == maxTyped {
		s.typed = s.typed[1:]
	}
	s.typed = append(s.typed, value)
}

// Poll implements bus.InputSource
func (s *KeyboardSource) Poll() (uint8, bool) {
	if len(s.typed) == 0 {
		return 0, false
	}
	v := s.typed[0]
	s.typed = s.typed[1:]
	return v, true
}

// Buttons implements bus.InputSource
func (s *KeyboardSource) Buttons() [8]bool {
	return s.buttons
}

// Viewer runs the emulator one frame per window update and shows the
// video memory view
type Viewer struct {
	emu      Emulator
	window   Window
	renderer *ViewRenderer
	keys     map[Key]input.Button
	source   *KeyboardSource

	quit   atomic.Bool
	status string
}

// NewViewer connects emu to window. keys maps window keys to joypad
// buttons; Escape quits, P pauses, R resets and Tab cycles the palette
// unless they are mapped.
func NewViewer(emu Emulator, window Window, keys map[Key]input.Button, palette int) *Viewer {
	v := &Viewer{
		emu:      emu,
		window:   window,
		renderer: NewViewRenderer(palette),
		keys:     keys,
		source:   &KeyboardSource{},
	}
	if b := emu.GetBus(); b != nil {
		b.SetInputSource(v.source)
	}
	return v
}

// Source returns the input source fed by window events
func (v *Viewer) Source() *KeyboardSource {
	return v.source
}

// Quit makes the next Update return ErrQuit. It may be called from any
// goroutine.
func (v *Viewer) Quit() {
	v.quit.Store(true)
}

// Run drives the viewer until the window closes or the user quits
func (v *Viewer) Run() error {
	return v.window.Run(v.Update)
}

// Update handles pending input, runs one frame and presents the view
func (v *Viewer) Update() error {
	for _, event := range v.window.PollEvents() {
		v.handleEvent(event)
	}
	if v.quit.Load() {
		return ErrQuit
	}

	b := v.emu.GetBus()
	if err := v.emu.StepFrame(); err != nil {
		v.emu.Pause()
		v.status = fmt.Sprintf("%v at $%04X, P to continue", err, b.CPU.PC)
	}

	v.window.SetStatusText(v.statusLine(b))
	return v.window.RenderFrame(v.renderer.Render(b))
}

func (v *Viewer) handleEvent(event InputEvent) {
	if event.Type == InputEventTypeQuit {
		v.Quit()
		return
	}

	if button, ok := v.keys[event.Key]; ok {
		v.source.Press(button, event.Pressed)
		if event.Pressed {
			v.typeKey(event.Key)
		}
		return
	}
	if !event.Pressed {
		return
	}

	switch event.Key {
	case KeyEscape:
		v.Quit()
	case KeyP:
		v.emu.TogglePause()
		v.status = ""
	case KeyR:
		v.emu.Reset()
		v.status = "reset"
	case KeyTab:
		v.renderer.SetPalette(v.renderer.Palette() + 1)
	default:
		v.typeKey(event.Key)
	}
}

func (v *Viewer) typeKey(key Key) {
	if c, ok := key.ASCII(); ok {
		v.source.Type(c)
	}
}

func (v *Viewer) statusLine(b *bus.Bus) string {
	line := fmt.Sprintf("frame %d  PC $%04X  %s  palette %d",
		b.FrameCount(), b.CPU.PC, b.CPU.State(), v.renderer.Palette())
	if v.emu.IsPaused() {
		line += "  [paused]"
	}
	if v.status != "" {
		line += "  " + v.status
	}
	return line
}
