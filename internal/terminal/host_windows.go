//go:build windows

package terminal

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Host puts the console in raw mode and routes every byte read to a
// Source. The reader goroutine blocks in Read, so Stop returns once the
// next key arrives or stdin closes.
type Host struct {
	source   *Source
	stopCh   chan struct{}
	done     chan struct{}
	stopped  sync.Once
	fd       int
	oldState *term.State
}

// NewHost creates a host that reads stdin into source
func NewHost(source *Source) *Host {
	return &Host{
		source: source,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start switches the console to raw mode and begins reading in a
// goroutine. Call Stop to restore it.
func (h *Host) Start() error {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return fmt.Errorf("set raw mode: %w", err)
	}
	h.oldState = oldState

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if n > 0 {
				h.source.RouteHostKey(buf[0])
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
	return nil
}

// Stop ends the reader goroutine and restores the console
func (h *Host) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.oldState != nil {
		_ = term.Restore(h.fd, h.oldState)
		h.oldState = nil
	}
}

// IsTerminal reports whether stdin is an interactive console
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
