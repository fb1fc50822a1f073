package graphics

import (
	"errors"
	"strings"
	"testing"

	"nescore/internal/bus"
	"nescore/internal/cpu"
	"nescore/internal/input"
)

// testEmulator drives a bus the way the application does
type testEmulator struct {
	bus    *bus.Bus
	paused bool
	resets int
}

func (e *testEmulator) StepFrame() error {
	if e.paused {
		return nil
	}
	if !e.bus.RunFrames(1) {
		return errors.New("breakpoint hit")
	}
	return nil
}

func (e *testEmulator) GetBus() *bus.Bus { return e.bus }
func (e *testEmulator) Pause()           { e.paused = true }
func (e *testEmulator) TogglePause()     { e.paused = !e.paused }
func (e *testEmulator) IsPaused() bool   { return e.paused }
func (e *testEmulator) Reset()           { e.resets++; e.bus.Reset() }

func newTestViewer(t *testing.T) (*Viewer, *testEmulator, *HeadlessWindow) {
	t.Helper()
	backend := NewHeadlessBackend()
	if err := backend.Initialize(Config{Scale: 1}); err != nil {
		t.Fatal(err)
	}
	w, err := backend.CreateWindow("test", ViewWidth, ViewHeight)
	if err != nil {
		t.Fatal(err)
	}
	emu := &testEmulator{bus: newViewBus(t)}
	keys := map[Key]input.Button{KeyJ: input.ButtonA, KeyEnter: input.ButtonStart}
	return NewViewer(emu, w, keys, 0), emu, w.(*HeadlessWindow)
}

func press(key Key, pressed bool) InputEvent {
	return InputEvent{Type: InputEventTypeKey, Key: key, Pressed: pressed}
}

func TestViewerRunsOneFramePerUpdate(t *testing.T) {
	v, emu, w := newTestViewer(t)

	for i := 0; i < 3; i++ {
		if err := v.Update(); err != nil {
			t.Fatal(err)
		}
	}
	if emu.bus.FrameCount() != 3 || w.GetFrameCount() != 3 {
		t.Errorf("Expected 3 frames, bus=%d window=%d", emu.bus.FrameCount(), w.GetFrameCount())
	}
	if w.LastFrame() == nil {
		t.Error("Expected a rendered frame")
	}
	if !strings.Contains(w.Status(), "frame 3") {
		t.Errorf("Unexpected status %q", w.Status())
	}
}

func TestViewerMapsKeysToJoypad(t *testing.T) {
	v, emu, w := newTestViewer(t)

	w.PushEvents(press(KeyEnter, true))
	v.Update()
	if !emu.bus.Controller.IsPressed(input.ButtonStart) {
		t.Fatal("Expected Start pressed after the frame")
	}

	w.PushEvents(press(KeyEnter, false))
	v.Update()
	if emu.bus.Controller.IsPressed(input.ButtonStart) {
		t.Error("Expected Start released")
	}
}

func TestViewerFeedsTypedKeys(t *testing.T) {
	v, emu, w := newTestViewer(t)
	emu.bus.CPU.AwaitInput(cpu.RegisterA)

	w.PushEvents(press(KeyZ, true))
	v.Update()
	if emu.bus.CPU.State() != cpu.Running || emu.bus.CPU.A != 'Z' {
		t.Errorf("Expected A='Z' and running, got A=0x%02X state=%s", emu.bus.CPU.A, emu.bus.CPU.State())
	}
}

func TestViewerControlKeys(t *testing.T) {
	v, emu, w := newTestViewer(t)

	w.PushEvents(press(KeyP, true), press(KeyP, false))
	v.Update()
	if !emu.IsPaused() || emu.bus.FrameCount() != 0 {
		t.Fatal("Expected P to pause before the frame ran")
	}
	if !strings.Contains(w.Status(), "[paused]") {
		t.Errorf("Expected paused status, got %q", w.Status())
	}

	w.PushEvents(press(KeyR, true))
	v.Update()
	if emu.resets != 1 {
		t.Errorf("Expected one reset, got %d", emu.resets)
	}

	w.PushEvents(press(KeyTab, true))
	v.Update()
	if v.renderer.Palette() != 1 {
		t.Errorf("Expected Tab to select palette 1, got %d", v.renderer.Palette())
	}

	w.PushEvents(press(KeyEscape, true))
	if err := v.Update(); !errors.Is(err, ErrQuit) {
		t.Errorf("Expected ErrQuit, got %v", err)
	}
}

func TestViewerPausesOnBreakpoint(t *testing.T) {
	v, emu, w := newTestViewer(t)
	emu.bus.AddBreakpoint(0x8000)

	if err := v.Update(); err != nil {
		t.Fatal(err)
	}
	if !emu.IsPaused() {
		t.Error("Expected the viewer to pause on a breakpoint")
	}
	if !strings.Contains(w.Status(), "$8000") {
		t.Errorf("Expected the breakpoint in the status, got %q", w.Status())
	}
}

func TestHeadlessRunStopsAtFrameLimit(t *testing.T) {
	backend := NewHeadlessBackend()
	backend.Initialize(Config{MaxFrames: 5})
	w, _ := backend.CreateWindow("test", ViewWidth, ViewHeight)
	emu := &testEmulator{bus: newViewBus(t)}
	v := NewViewer(emu, w, nil, 0)

	if err := v.Run(); err != nil {
		t.Fatal(err)
	}
	if emu.bus.FrameCount() != 5 {
		t.Errorf("Expected 5 frames, got %d", emu.bus.FrameCount())
	}
}

func TestViewerQuitFromOtherGoroutine(t *testing.T) {
	v, emu, _ := newTestViewer(t)
	done := make(chan struct{})
	go func() {
		v.Quit()
		close(done)
	}()
	<-done

	if err := v.Run(); err != nil {
		t.Fatal(err)
	}
	if emu.bus.FrameCount() != 0 {
		t.Errorf("Expected no frames after Quit, got %d", emu.bus.FrameCount())
	}
}

func TestKeyboardSourceQueue(t *testing.T) {
	var s KeyboardSource
	if _, ok := s.Poll(); ok {
		t.Fatal("Empty source should not report input")
	}
	for i := 0; i < maxTyped+2; i++ {
		s.Type(uint8(i))
	}
	if v, _ := s.Poll(); v != 2 {
		t.Errorf("Expected the two oldest bytes dropped, got %d", v)
	}

	s.Press(input.ButtonLeft, true)
	if !s.Buttons()[6] {
		t.Error("Expected Left in slot 6")
	}
}
