package input

import (
	"testing"
)

func TestNew_ShouldCreateControllerWithDefaultState(t *testing.T) {
	controller := New()

	if controller.buttons != 0 {
		t.Errorf("Expected initial buttons state 0, got %d", controller.buttons)
	}
	if controller.strobe {
		t.Error("Expected initial strobe false, got true")
	}
}

func TestSetButton_ShouldUpdateButtonState(t *testing.T) {
	controller := New()

	for _, button := range Buttons {
		controller.SetButton(button, true)
		if !controller.IsPressed(button) {
			t.Errorf("%s should be pressed after SetButton(true)", button)
		}
		if controller.buttons != uint8(button) {
			t.Errorf("Expected buttons state %d, got %d", uint8(button), controller.buttons)
		}

		controller.SetButton(button, false)
		if controller.IsPressed(button) {
			t.Errorf("%s should not be pressed after SetButton(false)", button)
		}
	}
}

func TestSetButtons_ShouldFollowReportOrder(t *testing.T) {
	controller := New()
	state := [8]bool{true, false, false, true, false, false, true, false}
	controller.SetButtons(state)

	if !controller.IsPressed(ButtonA) || !controller.IsPressed(ButtonStart) || !controller.IsPressed(ButtonLeft) {
		t.Error("Expected A, Start and Left pressed")
	}
	if controller.IsPressed(ButtonB) || controller.IsPressed(ButtonRight) {
		t.Error("Expected B and Right released")
	}
	if controller.State() != state {
		t.Errorf("State() = %v, want %v", controller.State(), state)
	}
}

func TestRead_ShouldReturnSequenceAfterStrobe(t *testing.T) {
	controller := New()
	controller.SetButton(ButtonA, true)
	controller.SetButton(ButtonStart, true)
	controller.SetButton(ButtonRight, true)

	controller.Write(1)
	controller.Write(0)

	expected := []uint8{0x41, 0x40, 0x40, 0x41, 0x40, 0x40, 0x40, 0x41}
	for i, want := range expected {
		if got := controller.Read(); got != want {
			t.Errorf("Read %d (%s): expected 0x%02X, got 0x%02X", i+1, Buttons[i], want, got)
		}
	}

	// Past the eighth read
	for i := 0; i < 3; i++ {
		if got := controller.Read(); got != 0x41 {
			t.Errorf("Extra read %d: expected 0x41, got 0x%02X", i, got)
		}
	}
}

func TestRead_WhileStrobeHighReturnsA(t *testing.T) {
	controller := New()
	controller.Write(1)

	for i := 0; i < 10; i++ {
		if got := controller.Read(); got != 0 {
			t.Fatalf("Expected 0 with A released, got 0x%02X", got)
		}
	}

	controller.SetButton(ButtonA, true)
	if got := controller.Read(); got != 1 {
		t.Errorf("Expected 1 with A pressed, got 0x%02X", got)
	}
}

func TestWrite_OnlyFallingEdgeRestartsSequence(t *testing.T) {
	controller := New()
	controller.SetButton(ButtonB, true)

	controller.Write(1)
	controller.Write(0)
	controller.Read() // A
	controller.Read() // B

	// Writing 0 again is not a falling edge
	controller.Write(0)
	if got := controller.Read(); got != 0x40 {
		t.Errorf("Expected Select (0x40), got 0x%02X", got)
	}

	controller.Write(1)
	controller.Write(0)
	controller.Read()
	if got := controller.Read(); got != 0x41 {
		t.Errorf("Expected B (0x41) after restart, got 0x%02X", got)
	}
}

func TestParseButton(t *testing.T) {
	tests := []struct {
		name string
		want Button
	}{
		{"a", ButtonA},
		{"START", ButtonStart},
		{"Left", ButtonLeft},
	}
	for _, tt := range tests {
		got, err := ParseButton(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("ParseButton(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
	if _, err := ParseButton("turbo"); err == nil {
		t.Error("Expected an error for an unknown button")
	}
}

func TestReset(t *testing.T) {
	controller := New()
	controller.SetButton(ButtonUp, true)
	controller.Write(1)
	controller.Reset()

	if controller.IsPressed(ButtonUp) || controller.strobe || controller.readCount != 0 {
		t.Error("Expected a cleared controller after Reset")
	}
}
