package terminal

import (
	"sync"
	"testing"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/input"
)

var testKeys = map[string]input.Button{
	"w":  input.ButtonUp,
	"j":  input.ButtonA,
	"\r": input.ButtonStart,
}

func TestNewSourceRejectsLongNames(t *testing.T) {
	if _, err := NewSource(map[string]input.Button{"Enter": input.ButtonStart}, 0); err == nil {
		t.Error("Expected an error for a multi-byte key name")
	}
}

func TestMappedKeyHoldsButton(t *testing.T) {
	s, err := NewSource(testKeys, 2)
	if err != nil {
		t.Fatal(err)
	}

	s.RouteHostKey('j')
	for frame := 0; frame < 2; frame++ {
		if !s.Buttons()[0] {
			t.Fatalf("Expected A held on frame %d", frame)
		}
	}
	if s.Buttons()[0] {
		t.Error("Expected A released after the hold time")
	}

	// Auto-repeat refreshes the hold
	s.RouteHostKey('w')
	s.Buttons()
	s.RouteHostKey('w')
	s.Buttons()
	if !s.Buttons()[4] {
		t.Error("Expected Up still held after a repeat")
	}
}

func TestPollQueuesBytes(t *testing.T) {
	s, _ := NewSource(testKeys, 0)
	s.RouteHostKey('h')
	s.RouteHostKey(0x7F)
	// Mapped keys are typed as well as pressed
	s.RouteHostKey('\r')
	if !s.Buttons()[3] {
		t.Error("Expected Start pressed")
	}

	want := []uint8{'h', 0x08, '\r'}
	for _, w := range want {
		v, ok := s.Poll()
		if !ok || v != w {
			t.Errorf("Poll() = 0x%02X, %v; want 0x%02X", v, ok, w)
		}
	}
	if _, ok := s.Poll(); ok {
		t.Error("Expected the queue to be empty")
	}
}

func TestPollDropsOldestWhenFull(t *testing.T) {
	s, _ := NewSource(nil, 0)
	for i := 0; i < maxPending+1; i++ {
		s.RouteHostKey(uint8('A' + i%26))
	}
	if v, _ := s.Poll(); v != 'B' {
		t.Errorf("Expected the oldest byte dropped, got %q", v)
	}
}

func TestInterruptClosesDone(t *testing.T) {
	s, _ := NewSource(nil, 0)
	s.RouteHostKey(0x03)
	s.Quit()

	select {
	case <-s.Done():
	default:
		t.Fatal("Expected Done to be closed")
	}
	if _, ok := s.Poll(); ok {
		t.Error("Ctrl-C should not be queued")
	}
}

func TestConcurrentRouting(t *testing.T) {
	s, _ := NewSource(testKeys, 0)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.RouteHostKey('w')
		}
	}()
	for i := 0; i < 1000; i++ {
		s.Poll()
		s.Buttons()
	}
	wg.Wait()
}

func TestSourceFeedsAwaitingCPU(t *testing.T) {
	cart, err := cartridge.NewROMBuilder().
		WithCode(0x8000, 0x4C, 0x00, 0x80). // JMP $8000
		BuildCartridge(cartridge.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	b := bus.New(cart)
	s, _ := NewSource(testKeys, 0)
	b.SetInputSource(s)

	b.CPU.AwaitInput(cpu.RegisterX)
	b.Step()
	if b.CPU.State() != cpu.AwaitingInput {
		t.Fatal("Expected the CPU to keep waiting without input")
	}

	s.RouteHostKey('7')
	b.Step()
	if b.CPU.State() != cpu.Running || b.CPU.X != '7' {
		t.Errorf("Expected X='7' and running, got X=0x%02X state=%s", b.CPU.X, b.CPU.State())
	}

	s.RouteHostKey('\r')
	b.RunFrames(1)
	if !b.Controller.IsPressed(input.ButtonStart) {
		t.Error("Expected Start pressed after the next frame")
	}
}
