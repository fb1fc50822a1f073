package graphics

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// TerminalBackend renders the view with ANSI colors
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow draws each character cell as two vertically stacked
// pixels using the upper half block with separate foreground and
// background colors
type TerminalWindow struct {
	title       string
	width       int
	height      int
	running     bool
	out         io.Writer
	renderEvery int
	frameCount  uint64
	status      string
	frameTime   time.Duration
}

// terminal cells sample every second pixel horizontally and every second
// pixel pair vertically
const (
	terminalStepX = 2
	terminalStepY = 4
)

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}
	if config.RenderEvery <= 0 {
		config.RenderEvery = 4
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a terminal "window"
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	return &TerminalWindow{
		title:       title,
		width:       width,
		height:      height,
		running:     true,
		out:         b.config.Output,
		renderEvery: b.config.RenderEvery,
		frameTime:   time.Second / 60,
	}, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// GetSize returns window dimensions
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns nothing; terminal keys reach the machine through
// the terminal input source
func (w *TerminalWindow) PollEvents() []InputEvent {
	return nil
}

// SetStatusText sets the line printed under the view
func (w *TerminalWindow) SetStatusText(text string) {
	w.status = text
}

// RenderFrame draws every renderEvery-th frame. Lines end in CRLF since
// the terminal is usually in raw mode.
func (w *TerminalWindow) RenderFrame(frame *image.RGBA) error {
	w.frameCount++
	if (w.frameCount-1)%uint64(w.renderEvery) != 0 {
		return nil
	}

	buf := bufio.NewWriter(w.out)
	buf.WriteString("\033[H")
	b := frame.Bounds()
	for y := b.Min.Y; y+terminalStepY/2 < b.Max.Y; y += terminalStepY {
		for x := b.Min.X; x < b.Max.X; x += terminalStepX {
			top := frame.RGBAAt(x, y)
			bottom := frame.RGBAAt(x, y+terminalStepY/2)
			cell := color.RGB(int(top.R), int(top.G), int(top.B)).
				AddBgRGB(int(bottom.R), int(bottom.G), int(bottom.B))
			buf.WriteString(cell.Sprint("▀"))
		}
		buf.WriteString("\r\n")
	}
	buf.WriteString("\033[K")
	buf.WriteString(w.status)
	buf.WriteString("\r\n")
	return buf.Flush()
}

// Run calls update at 60 frames per second until it fails or the window
// closes
func (w *TerminalWindow) Run(update func() error) error {
	fmt.Fprint(w.out, "\033[2J\033[?25l")
	defer fmt.Fprint(w.out, "\033[?25h")

	ticker := time.NewTicker(w.frameTime)
	defer ticker.Stop()
	for w.running {
		if err := update(); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
		<-ticker.C
	}
	return nil
}

// Cleanup releases window resources
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	return nil
}
