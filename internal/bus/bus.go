// Package bus wires the NES components together and drives them in lockstep.
package bus

import (
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/debug"
	"nescore/internal/input"
	"nescore/internal/memory"
	"nescore/internal/ppu"
)

const (
	// PPUCyclesPerCPUCycle is the fixed NTSC clock ratio
	PPUCyclesPerCPUCycle = 3

	// DMAStallCycles is how long the CPU is halted by an OAM DMA
	DMAStallCycles = 512
)

// InputSource supplies host input. Poll is consulted only while the CPU is
// awaiting input and must not block. Buttons is sampled once per frame.
type InputSource interface {
	Poll() (value uint8, ok bool)
	Buttons() [8]bool
}

// TraceSink receives one line per executed instruction
type TraceSink interface {
	WriteTrace(pc uint16, line string) error
}

// Bus connects all NES components together
type Bus struct {
	CPU        *cpu.CPU
	PPU        *ppu.PPU
	Memory     *memory.Memory
	Controller *input.Controller
	Cartridge  *cartridge.Cartridge

	// CPU cycle count already mirrored onto the PPU
	syncedCycles uint64
	nmiPending   bool
	nmiCount     uint64

	source InputSource
	trace  TraceSink

	breakpoints map[uint16]bool
	breakHit    bool
}

// New creates a system bus around a loaded cartridge and resets it
func New(cart *cartridge.Cartridge) *Bus {
	b := &Bus{
		PPU:         ppu.New(),
		Controller:  input.New(),
		Cartridge:   cart,
		breakpoints: make(map[uint16]bool),
	}

	b.PPU.SetMemory(memory.NewPPUMemory(cart, cart.GetMirrorMode()))
	b.PPU.SetLogger(debug.Default())

	b.Memory = memory.New(b.PPU, cart)
	b.Memory.SetInputSystem(b.Controller)
	b.Memory.SetDMAListener(b.handleDMA)

	b.CPU = cpu.New(b.Memory)
	b.CPU.SetLogger(debug.Default())

	b.Reset()
	return b
}

// Reset resets all components to their initial state
func (b *Bus) Reset() {
	b.PPU.Reset()
	b.Controller.Reset()
	b.CPU.Reset()
	b.syncedCycles = b.CPU.Cycles()
	b.nmiPending = false
	b.nmiCount = 0
	b.breakHit = false
}

// Resync takes the current CPU cycle count as the PPU's reference point
// and drops any pending NMI. Call it after restoring component state.
func (b *Bus) Resync() {
	b.syncedCycles = b.CPU.Cycles()
	b.nmiPending = false
	b.breakHit = false
}

// handleDMA is called by memory after an OAM DMA copy
func (b *Bus) handleDMA(page uint8) {
	debug.Debugf("BUS", "OAM DMA from page $%02X", page)
	b.CPU.Stall(DMAStallCycles)
}

// SetInputSource attaches a host input source, or detaches it when nil
func (b *Bus) SetInputSource(source InputSource) {
	b.source = source
}

// SetTrace sends an instruction trace to sink, or stops tracing when nil
func (b *Bus) SetTrace(sink TraceSink) {
	b.trace = sink
}

// AddBreakpoint stops the run loops when PC reaches pc
func (b *Bus) AddBreakpoint(pc uint16) {
	b.breakpoints[pc] = true
}

// RemoveBreakpoint clears the breakpoint at pc
func (b *Bus) RemoveBreakpoint(pc uint16) {
	delete(b.breakpoints, pc)
}

// Breakpoints returns the active breakpoint addresses
func (b *Bus) Breakpoints() []uint16 {
	pcs := make([]uint16, 0, len(b.breakpoints))
	for pc := range b.breakpoints {
		pcs = append(pcs, pc)
	}
	return pcs
}

// BreakpointHit reports whether the last Step stopped on a breakpoint
func (b *Bus) BreakpointHit() bool {
	return b.breakHit
}

// Step advances the CPU by one instruction, or one idle cycle while it is
// stalled or awaiting input, then runs the PPU three cycles for every CPU
// cycle that elapsed. It returns the CPU cycles consumed.
func (b *Bus) Step() uint64 {
	b.breakHit = false

	if b.CPU.State() == cpu.AwaitingInput && b.source != nil {
		if value, ok := b.source.Poll(); ok {
			b.CPU.FeedInput(value)
		}
	}

	// NMIs raised while the CPU waits for input are held until it resumes
	if b.nmiPending && b.CPU.State() == cpu.Running {
		b.nmiPending = false
		b.CPU.TriggerNMI()
		b.nmiCount++
	}

	if b.trace != nil && b.CPU.State() == cpu.Running && b.CPU.Stalled() == 0 {
		if err := b.trace.WriteTrace(b.CPU.PC, b.CPU.Trace()); err != nil {
			debug.Errorf("BUS", "trace disabled: %v", err)
			b.trace = nil
		}
	}

	b.CPU.Step()
	elapsed := b.CPU.Cycles() - b.syncedCycles
	b.syncedCycles = b.CPU.Cycles()

	frame := b.PPU.Frame()
	for i := uint64(0); i < elapsed*PPUCyclesPerCPUCycle; i++ {
		b.PPU.Step()
		if b.PPU.Scanline() == ppu.VBlankScanline && b.PPU.Cycle() == 1 && b.PPU.NMIEnabled() {
			b.nmiPending = true
		}
	}
	if b.PPU.Frame() != frame {
		b.syncButtons()
	}

	if b.nmiPending && b.CPU.State() == cpu.Running {
		// Delivered before the next instruction; its cycles are charged
		// to the PPU on the following Step
		b.nmiPending = false
		b.CPU.TriggerNMI()
		b.nmiCount++
	}

	if len(b.breakpoints) > 0 && b.breakpoints[b.CPU.PC] {
		b.breakHit = true
	}
	return elapsed
}

func (b *Bus) syncButtons() {
	if b.source != nil {
		b.Controller.SetButtons(b.source.Buttons())
	}
}

// RunFrames runs until n more frames have completed. It returns false if a
// breakpoint interrupted the run.
func (b *Bus) RunFrames(n int) bool {
	target := b.PPU.Frame() + uint64(n)
	for b.PPU.Frame() < target {
		b.Step()
		if b.breakHit {
			return false
		}
	}
	return true
}

// RunCycles runs for at least the given number of CPU cycles. It returns
// false if a breakpoint interrupted the run.
func (b *Bus) RunCycles(cycles uint64) bool {
	target := b.CPU.Cycles() + cycles
	for b.CPU.Cycles() < target {
		b.Step()
		if b.breakHit {
			return false
		}
	}
	return true
}

// RunUntil steps until done returns true, a breakpoint is hit, or limit
// CPU cycles have elapsed. A limit of 0 means no limit. It reports whether
// done was satisfied.
func (b *Bus) RunUntil(done func() bool, limit uint64) bool {
	start := b.CPU.Cycles()
	for !done() {
		if limit > 0 && b.CPU.Cycles()-start >= limit {
			return false
		}
		b.Step()
		if b.breakHit {
			return done()
		}
	}
	return true
}

// SetControllerButton sets the state of a controller button
func (b *Bus) SetControllerButton(button input.Button, pressed bool) {
	b.Controller.SetButton(button, pressed)
}

// FrameCount returns the number of completed frames
func (b *Bus) FrameCount() uint64 {
	return b.PPU.Frame()
}

// CycleCount returns the CPU cycle count
func (b *Bus) CycleCount() uint64 {
	return b.CPU.Cycles()
}

// NMICount returns how many vblank NMIs have been delivered
func (b *Bus) NMICount() uint64 {
	return b.nmiCount
}
