package app

import (
	"context"
	"errors"
	"fmt"
)

// Test ROM result protocol. Test programs write a signature at $6001-$6003,
// keep $6000 at statusRunning while working and then store a result code.
// A NUL-terminated message starts at $6004.
const (
	testStatusAddr  = 0x6000
	testSigAddr     = 0x6001
	testMessageAddr = 0x6004

	statusRunning    = 0x80
	statusNeedsReset = 0x81

	// resetDelayFrames approximates the 100ms a test asks to wait before reset
	resetDelayFrames = 6
)

var testSignature = [3]uint8{0xDE, 0xB0, 0x61}

// ErrTestTimeout is returned when a test ROM does not finish in time
var ErrTestTimeout = errors.New("test ROM timed out")

// TestResult is the outcome reported by a test ROM
type TestResult struct {
	Status  uint8
	Message string
	Frames  uint64
}

// Passed reports whether the test ROM returned result code 0
func (r TestResult) Passed() bool {
	return r.Status == 0
}

func (r TestResult) String() string {
	if r.Passed() {
		return fmt.Sprintf("passed after %d frames", r.Frames)
	}
	return fmt.Sprintf("failed with code $%02X after %d frames", r.Status, r.Frames)
}

// RunTestROM runs the loaded program until it reports a result through
// PRG RAM, ctx is cancelled, or the configured frame timeout elapses.
func (app *Application) RunTestROM(ctx context.Context) (TestResult, error) {
	if app.bus == nil {
		return TestResult{}, ErrNoROM
	}

	timeout := app.config.Emulation.TestROMTimeout
	resetAt := -1
	for frame := 0; frame < timeout; frame++ {
		select {
		case <-ctx.Done():
			return TestResult{}, ctx.Err()
		default:
		}
		if err := app.StepFrame(); err != nil {
			return TestResult{}, err
		}

		if !app.hasTestSignature() {
			continue
		}
		switch status := app.bus.Memory.Read(testStatusAddr); status {
		case statusRunning:
		case statusNeedsReset:
			if resetAt < 0 {
				resetAt = frame + resetDelayFrames
			} else if frame >= resetAt {
				app.Reset()
				resetAt = -1
			}
		default:
			return TestResult{
				Status:  status,
				Message: app.testMessage(),
				Frames:  app.bus.FrameCount(),
			}, nil
		}
	}
	return TestResult{Frames: app.bus.FrameCount()}, fmt.Errorf("%w after %d frames", ErrTestTimeout, timeout)
}

func (app *Application) hasTestSignature() bool {
	for i, b := range testSignature {
		if app.bus.Memory.Read(uint16(testSigAddr+i)) != b {
			return false
		}
	}
	return true
}

// testMessage reads the NUL-terminated text at $6004, stopping at the end
// of PRG RAM
func (app *Application) testMessage() string {
	var msg []byte
	for addr := testMessageAddr; addr < 0x8000; addr++ {
		c := app.bus.Memory.Read(uint16(addr))
		if c == 0 {
			break
		}
		msg = append(msg, c)
	}
	return string(msg)
}
