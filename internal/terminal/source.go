// Package terminal feeds raw terminal keystrokes to the emulator as joypad
// presses and typed bytes.
package terminal

import (
	"fmt"
	"sync"

	"nescore/internal/input"
)

const (
	// DefaultHoldFrames is how long a keystroke keeps its button pressed.
	// Terminals report no key releases, so auto-repeat keeps a held key
	// alive.
	DefaultHoldFrames = 8

	maxPending = 64

	keyInterrupt = 0x03 // Ctrl-C
	keyDelete    = 0x7F
	keyBackspace = 0x08
)

// Source implements bus.InputSource over bytes routed from a terminal.
// RouteHostKey is called from the reader goroutine while Poll and Buttons
// are called from the emulation loop.
type Source struct {
	mu         sync.Mutex
	pending    []uint8
	keys       map[byte]input.Button
	held       [8]int
	holdFrames int

	done     chan struct{}
	quitOnce sync.Once
}

// NewSource creates a source that maps single-byte key names to buttons.
// holdFrames <= 0 selects DefaultHoldFrames.
func NewSource(mapping map[string]input.Button, holdFrames int) (*Source, error) {
	if holdFrames <= 0 {
		holdFrames = DefaultHoldFrames
	}
	keys := make(map[byte]input.Button, len(mapping))
	for name, button := range mapping {
		if len(name) != 1 {
			return nil, fmt.Errorf("terminal key %q for %s must be a single byte", name, button)
		}
		keys[name[0]] = button
	}
	return &Source{
		keys:       keys,
		holdFrames: holdFrames,
		done:       make(chan struct{}),
	}, nil
}

// RouteHostKey handles one byte read from the terminal. Ctrl-C closes
// Done. Every other byte is queued for the next Poll, and a mapped key
// also presses its button.
func (s *Source) RouteHostKey(b byte) {
	if b == keyInterrupt {
		s.Quit()
		return
	}
	if b == keyDelete {
		b = keyBackspace
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if button, ok := s.keys[b]; ok {
		for i, candidate := range input.Buttons {
			if candidate == button {
				s.held[i] = s.holdFrames
			}
		}
	}
	if len(s.pending) == maxPending {
		s.pending = s.pending[1:]
	}
	s.pending = append(s.pending, b)
}

// Poll implements bus.InputSource
func (s *Source) Poll() (uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return 0, false
	}
	v := s.pending[0]
	s.pending = s.pending[1:]
	return v, true
}

// Buttons implements bus.InputSource. Each call counts as one frame of
// hold time.
func (s *Source) Buttons() [8]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var buttons [8]bool
	for i := range s.held {
		if s.held[i] > 0 {
			buttons[i] = true
			s.held[i]--
		}
	}
	return buttons
}

// Quit closes Done. It is safe to call more than once.
func (s *Source) Quit() {
	s.quitOnce.Do(func() { close(s.done) })
}

// Done is closed when the user interrupts with Ctrl-C
func (s *Source) Done() <-chan struct{} {
	return s.done
}
