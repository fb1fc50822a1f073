// Package graphics provides the debug viewer and its rendering backends
package graphics

import (
	"fmt"
	"image"
	"io"
	"strings"

	"nescore/internal/input"
)

// Backend represents a rendering backend (Ebitengine, terminal, headless)
type Backend interface {
	// Initialize initializes the backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if nothing is displayed
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering target
type Window interface {
	SetTitle(title string)
	GetSize() (width, height int)
	ShouldClose() bool

	// PollEvents returns the input events since the last call
	PollEvents() []InputEvent

	// RenderFrame presents a ViewWidth x ViewHeight image
	RenderFrame(frame *image.RGBA) error

	// SetStatusText sets the line shown under the view
	SetStatusText(text string)

	// Run calls update once per frame until it returns an error or the
	// window closes. ErrQuit ends the loop without an error.
	Run(update func() error) error

	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	WindowTitle string
	Scale       int

	// Headless only
	OutputDir  string
	DumpFrames []uint64
	MaxFrames  uint64

	// Terminal only: draw every Nth frame to Output, stdout when nil
	RenderEvery int
	Output      io.Writer

	Headless bool
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Key     Key
	Pressed bool
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeQuit
)

// Key represents keyboard keys
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeySpace
	KeyTab
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
)

var keyNames = map[Key]string{
	KeyEscape:    "Escape",
	KeyEnter:     "Enter",
	KeySpace:     "Space",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
}

func init() {
	for k := KeyA; k <= KeyZ; k++ {
		keyNames[k] = string(rune('A' + int(k-KeyA)))
	}
	for k := Key0; k <= Key9; k++ {
		keyNames[k] = string(rune('0' + int(k-Key0)))
	}
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// ParseKey maps a key name, case-insensitively, to a Key
func ParseKey(name string) (Key, error) {
	for k, n := range keyNames {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return KeyUnknown, fmt.Errorf("unknown key %q", name)
}

// ASCII returns the byte a key types, if it types one
func (k Key) ASCII() (uint8, bool) {
	switch {
	case k >= KeyA && k <= KeyZ:
		return 'A' + uint8(k-KeyA), true
	case k >= Key0 && k <= Key9:
		return '0' + uint8(k-Key0), true
	}
	switch k {
	case KeyEnter:
		return '\r', true
	case KeySpace:
		return ' ', true
	case KeyTab:
		return '\t', true
	case KeyBackspace:
		return 0x08, true
	case KeyEscape:
		return 0x1B, true
	}
	return 0, false
}

// ParseKeyMapping converts key name -> button pairs into Key -> button
func ParseKeyMapping(names map[string]input.Button) (map[Key]input.Button, error) {
	keys := make(map[Key]input.Button, len(names))
	for name, button := range names {
		key, err := ParseKey(name)
		if err != nil {
			return nil, err
		}
		keys[key] = button
	}
	return keys, nil
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", backendType)
}
