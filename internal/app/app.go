package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/debug"
)

// ErrBreakpoint is returned by the run loops when execution reaches a breakpoint
var ErrBreakpoint = errors.New("breakpoint hit")

// ErrNoROM is returned when an operation needs a loaded cartridge
var ErrNoROM = errors.New("no ROM loaded")

// Application ties a loaded cartridge to the system bus and the debug
// tooling selected by the configuration
type Application struct {
	config *Config
	bus    *bus.Bus
	states *StateManager

	romPath   string
	cartridge *cartridge.Cartridge

	trace     *debug.TraceDumper
	tracePath string

	paused    bool
	startTime time.Time
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates an application using config, or the defaults
// when config is nil
func NewApplication(config *Config) *Application {
	if config == nil {
		config = NewConfig()
	}
	debug.SetLevel(config.LogLevel())
	return &Application{
		config:    config,
		states:    NewStateManager(config.Paths.Snapshots),
		startTime: time.Now(),
	}
}

// LoadROM loads an iNES image from disk and builds a fresh bus around it
func (app *Application) LoadROM(romPath string) error {
	cart, err := cartridge.LoadFromFile(romPath, cartridge.LoadOptions{
		Strict: app.config.Emulation.StrictLoading,
		Logger: debug.Default(),
	})
	if err != nil {
		return &ApplicationError{
			Component: "cartridge",
			Operation: "load ROM",
			Err:       err,
		}
	}

	debug.Infof("APP", "loaded %s: %s", filepath.Base(romPath), cart)
	return app.LoadCartridge(cart, romPath)
}

// LoadCartridge attaches an already loaded cartridge and applies the
// debug settings
func (app *Application) LoadCartridge(cart *cartridge.Cartridge, romPath string) error {
	if err := app.closeTrace(); err != nil {
		debug.Warnf("APP", "closing previous trace: %v", err)
	}
	app.cartridge = cart
	app.romPath = romPath
	app.bus = bus.New(cart)

	if err := app.ApplyDebugSettings(); err != nil {
		return &ApplicationError{
			Component: "debug",
			Operation: "apply settings",
			Err:       err,
		}
	}
	return nil
}

// ApplyDebugSettings applies the start PC override, breakpoints and CPU
// tracing from the configuration
func (app *Application) ApplyDebugSettings() error {
	if app.bus == nil {
		return ErrNoROM
	}

	if pc, ok, err := app.config.StartAddress(); err != nil {
		return err
	} else if ok {
		app.bus.CPU.PC = pc
		debug.Infof("APP", "starting at $%04X", pc)
	}

	pcs, err := app.config.BreakpointAddresses()
	if err != nil {
		return err
	}
	for _, pc := range pcs {
		app.bus.AddBreakpoint(pc)
	}

	if app.config.Debug.CPUTracing && app.trace == nil {
		dumper, path, err := debug.CreateTraceFile(app.config.Paths.Traces, app.romPath, app.config.Debug.TraceMaxLines)
		if err != nil {
			return err
		}
		app.trace = dumper
		app.tracePath = path
		app.bus.SetTrace(dumper)
		debug.Infof("APP", "tracing to %s", path)
	}
	return nil
}

// SetTraceOutput traces every instruction to w, replacing any trace file
func (app *Application) SetTraceOutput(w io.Writer) error {
	if app.bus == nil {
		return ErrNoROM
	}
	if err := app.closeTrace(); err != nil {
		return err
	}
	app.trace = debug.NewTraceDumper(w, app.config.Debug.TraceMaxLines)
	app.bus.SetTrace(app.trace)
	return nil
}

func (app *Application) closeTrace() error {
	if app.bus != nil {
		app.bus.SetTrace(nil)
	}
	trace := app.trace
	app.trace = nil
	app.tracePath = ""
	if trace != nil {
		return trace.Close()
	}
	return nil
}

// StepFrame runs the machine for one video frame. It returns ErrBreakpoint
// when a breakpoint interrupted the frame and does nothing while paused.
func (app *Application) StepFrame() error {
	if app.bus == nil {
		return ErrNoROM
	}
	if app.paused {
		return nil
	}
	if !app.bus.RunFrames(1) {
		return ErrBreakpoint
	}
	return nil
}

// Run executes frames until ctx is cancelled, a breakpoint is hit, or the
// frame limit is reached. A limit of 0 uses the configured maximum, and no
// maximum means run until cancelled.
func (app *Application) Run(ctx context.Context, frames int) error {
	if app.bus == nil {
		return ErrNoROM
	}
	if frames <= 0 {
		frames = app.config.Emulation.MaxFrames
	}

	for n := 0; frames == 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := app.StepFrame(); err != nil {
			if errors.Is(err, ErrBreakpoint) {
				debug.Infof("APP", "breakpoint at $%04X after %d frames", app.bus.CPU.PC, app.bus.FrameCount())
			}
			return err
		}
	}
	return nil
}

// SaveState saves the machine state to a slot
func (app *Application) SaveState(slot int) error {
	if app.bus == nil {
		return ErrNoROM
	}
	return app.states.SaveState(app.bus, slot, app.romPath)
}

// LoadState restores the machine state from a slot
func (app *Application) LoadState(slot int) error {
	if app.bus == nil {
		return ErrNoROM
	}
	return app.states.LoadState(app.bus, slot, app.romPath)
}

// Reset resets the machine and reapplies the start PC override
func (app *Application) Reset() {
	if app.bus == nil {
		return
	}
	app.bus.Reset()
	if pc, ok, _ := app.config.StartAddress(); ok {
		app.bus.CPU.PC = pc
	}
}

// Pause stops StepFrame from advancing the machine
func (app *Application) Pause() {
	app.paused = true
}

// Resume undoes Pause
func (app *Application) Resume() {
	app.paused = false
}

// TogglePause toggles the pause state
func (app *Application) TogglePause() {
	app.paused = !app.paused
}

// IsPaused returns true if the application is paused
func (app *Application) IsPaused() bool {
	return app.paused
}

// GetBus returns the system bus, or nil before a ROM is loaded
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

// GetConfig returns the active configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// GetCartridge returns the loaded cartridge
func (app *Application) GetCartridge() *cartridge.Cartridge {
	return app.cartridge
}

// GetROMPath returns the path of the loaded ROM
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetTracePath returns the trace file path, or "" when not tracing to a file
func (app *Application) GetTracePath() string {
	return app.tracePath
}

// GetFrameCount returns the number of completed frames
func (app *Application) GetFrameCount() uint64 {
	if app.bus == nil {
		return 0
	}
	return app.bus.FrameCount()
}

// GetUptime returns the time since the application was created
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// Cleanup flushes and closes the trace output
func (app *Application) Cleanup() error {
	if app.trace != nil {
		debug.Infof("APP", "wrote %d trace lines", app.trace.Lines())
	}
	return app.closeTrace()
}
