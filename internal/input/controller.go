// Package input implements the NES standard controller.
package input

import (
	"fmt"
	"strings"

	"nescore/internal/debug"
)

// Button represents NES controller buttons
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Buttons in the order the controller reports them
var Buttons = [8]Button{
	ButtonA, ButtonB, ButtonSelect, ButtonStart,
	ButtonUp, ButtonDown, ButtonLeft, ButtonRight,
}

var buttonNames = map[Button]string{
	ButtonA:      "A",
	ButtonB:      "B",
	ButtonSelect: "Select",
	ButtonStart:  "Start",
	ButtonUp:     "Up",
	ButtonDown:   "Down",
	ButtonLeft:   "Left",
	ButtonRight:  "Right",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Button(0x%02X)", uint8(b))
}

// ParseButton maps a button name, case-insensitively, to a Button
func ParseButton(name string) (Button, error) {
	for b, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// Controller represents a NES controller on port $4016.
//
// While strobe is high every read returns the A button. Once strobe drops,
// reads 1-8 return 0x40 with the button bit in bit 0, in the order of
// Buttons, and every later read returns 0x41.
type Controller struct {
	buttons   uint8
	strobe    bool
	readCount int
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a button
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all button states at once, in the order of Buttons
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= uint8(Buttons[i])
		}
	}
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// State returns the button states in the order of Buttons
func (c *Controller) State() [8]bool {
	var state [8]bool
	for i, b := range Buttons {
		state[i] = c.IsPressed(b)
	}
	return state
}

// Write handles writes to the controller register. A high-to-low strobe
// transition restarts the read sequence.
func (c *Controller) Write(value uint8) {
	strobe := value&1 != 0
	if c.strobe && !strobe {
		c.readCount = 0
		debug.Debugf("INPUT", "strobe released, buttons=0x%02X", c.buttons)
	}
	c.strobe = strobe
}

// Read handles reads from the controller register
func (c *Controller) Read() uint8 {
	if c.strobe {
		return c.bit(ButtonA)
	}
	c.readCount++
	if c.readCount > len(Buttons) {
		return 0x41
	}
	return 0x40 | c.bit(Buttons[c.readCount-1])
}

func (c *Controller) bit(button Button) uint8 {
	if c.IsPressed(button) {
		return 1
	}
	return 0
}

// Reset releases every button and the strobe
func (c *Controller) Reset() {
	c.buttons = 0
	c.strobe = false
	c.readCount = 0
}
