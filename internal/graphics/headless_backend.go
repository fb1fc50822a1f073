package graphics

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
)

// HeadlessBackend implements the Backend interface without a display
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow runs the update loop as fast as possible and can save
// selected frames as PNG files
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount uint64
	status     string
	events     []InputEvent
	last       *image.RGBA

	outputDir  string
	dumpFrames map[uint64]bool
	saved      []string
	maxFrames  uint64
	scale      int
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window"
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	w := &HeadlessWindow{
		title:      title,
		width:      width,
		height:     height,
		running:    true,
		outputDir:  b.config.OutputDir,
		dumpFrames: make(map[uint64]bool),
		maxFrames:  b.config.MaxFrames,
		scale:      b.config.Scale,
	}
	for _, f := range b.config.DumpFrames {
		w.dumpFrames[f] = true
	}
	return w, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// PushEvents queues events for the next PollEvents
func (w *HeadlessWindow) PushEvents(events ...InputEvent) {
	w.events = append(w.events, events...)
}

// PollEvents returns the queued events
func (w *HeadlessWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame counts the frame and saves it when it was requested
func (w *HeadlessWindow) RenderFrame(frame *image.RGBA) error {
	w.frameCount++
	w.last = frame

	if w.dumpFrames[w.frameCount] {
		path := filepath.Join(w.outputDir, fmt.Sprintf("frame_%05d.png", w.frameCount))
		if err := SavePNG(path, frame, w.scale); err != nil {
			return err
		}
		w.saved = append(w.saved, path)
	}
	return nil
}

// SavedFrames returns the paths of the frames written so far
func (w *HeadlessWindow) SavedFrames() []string {
	return w.saved
}

// SetStatusText records the status line
func (w *HeadlessWindow) SetStatusText(text string) {
	w.status = text
}

// Status returns the last status line
func (w *HeadlessWindow) Status() string {
	return w.status
}

// Run calls update until it fails, the window closes, or the frame limit
// is reached
func (w *HeadlessWindow) Run(update func() error) error {
	for w.running && (w.maxFrames == 0 || w.frameCount < w.maxFrames) {
		if err := update(); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// GetFrameCount returns the number of frames rendered
func (w *HeadlessWindow) GetFrameCount() uint64 {
	return w.frameCount
}

// LastFrame returns the most recently rendered frame
func (w *HeadlessWindow) LastFrame() *image.RGBA {
	return w.last
}
