package bus

import (
	"bytes"
	"strings"
	"testing"

	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/debug"
	"nescore/internal/input"
	"nescore/internal/ppu"
)

// nmiProgram enables vblank NMIs and spins; the handler counts into $10
var nmiProgram = []uint8{
	0xA9, 0x80,       // LDA #$80
	0x8D, 0x00, 0x20, // STA $2000
	0x4C, 0x05, 0x80, // JMP $8005
}

var nmiHandler = []uint8{
	0xE6, 0x10, // INC $10
	0x40,       // RTI
}

type fakeSource struct {
	values  []uint8
	buttons [8]bool
	polls   int
}

func (s *fakeSource) Poll() (uint8, bool) {
	s.polls++
	if len(s.values) == 0 {
		return 0, false
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v, true
}

func (s *fakeSource) Buttons() [8]bool {
	return s.buttons
}

type lineSink struct {
	lines []string
}

func (s *lineSink) WriteTrace(pc uint16, line string) error {
	s.lines = append(s.lines, line)
	return nil
}

func newTestBus(t *testing.T, code []uint8) *Bus {
	t.Helper()
	cart, err := cartridge.NewROMBuilder().
		WithCode(0x8000, code...).
		WithCode(0x9000, nmiHandler...).
		WithNMIVector(0x9000).
		BuildCartridge(cartridge.LoadOptions{})
	if err != nil {
		t.Fatalf("Failed to build ROM: %v", err)
	}
	return New(cart)
}

func ppuPosition(b *Bus) uint64 {
	return b.PPU.Frame()*ppu.ScanlinesPerFrame*ppu.CyclesPerScanline +
		uint64(b.PPU.Scanline()*ppu.CyclesPerScanline+b.PPU.Cycle())
}

func TestResetLoadsVector(t *testing.T) {
	b := newTestBus(t, nmiProgram)
	if b.CPU.PC != 0x8000 {
		t.Errorf("Expected PC=$8000, got $%04X", b.CPU.PC)
	}
	if b.CycleCount() != 7 {
		t.Errorf("Expected 7 reset cycles, got %d", b.CycleCount())
	}
}

func TestThreePPUCyclesPerCPUCycle(t *testing.T) {
	b := newTestBus(t, []uint8{
		0xA9, 0x80,       // LDA #$80
		0x4C, 0x00, 0x80, // JMP $8000
	})

	if got := b.Step(); got != 2 {
		t.Fatalf("LDA #imm should take 2 cycles, got %d", got)
	}
	if got := ppuPosition(b); got != 6 {
		t.Errorf("Expected PPU at cycle 6, got %d", got)
	}

	var total uint64
	for i := 0; i < 5000; i++ {
		total += b.Step()
	}
	if got := ppuPosition(b); got != (total+2)*PPUCyclesPerCPUCycle {
		t.Errorf("PPU advanced %d cycles for %d CPU cycles", got, total+2)
	}
}

func TestNMIOncePerVBlank(t *testing.T) {
	b := newTestBus(t, nmiProgram)

	if !b.RunFrames(3) {
		t.Fatal("Unexpected breakpoint stop")
	}
	if b.NMICount() != 3 {
		t.Errorf("Expected 3 NMIs in 3 frames, got %d", b.NMICount())
	}
	if got := b.Memory.RAM()[0x10]; got != 3 {
		t.Errorf("Expected the handler to run 3 times, got %d", got)
	}
}

func TestNoNMIWhenDisabled(t *testing.T) {
	b := newTestBus(t, []uint8{0x4C, 0x00, 0x80}) // JMP $8000

	b.RunFrames(2)
	if b.NMICount() != 0 {
		t.Errorf("Expected no NMIs, got %d", b.NMICount())
	}
	if b.Memory.RAM()[0x10] != 0 {
		t.Error("Handler must not run with NMI disabled")
	}
}

func TestOAMDMAStallsCPU(t *testing.T) {
	b := newTestBus(t, []uint8{
		0xA9, 0x02,       // LDA #$02
		0x8D, 0x14, 0x40, // STA $4014
		0xEA,             // NOP
	})
	b.Memory.Write(0x0200, 0x77)

	b.Step()
	b.Step()
	if b.CPU.Stalled() != DMAStallCycles {
		t.Fatalf("Expected %d stall cycles, got %d", DMAStallCycles, b.CPU.Stalled())
	}
	if b.PPU.OAM()[0] != 0x77 {
		t.Errorf("Expected OAM[0]=0x77, got 0x%02X", b.PPU.OAM()[0])
	}

	pc := b.CPU.PC
	for i := 0; i < DMAStallCycles; i++ {
		if got := b.Step(); got != 1 {
			t.Fatalf("Stall step %d took %d cycles", i, got)
		}
		if b.CPU.PC != pc {
			t.Fatalf("CPU executed during stall step %d", i)
		}
		if b.CPU.Stalled() != DMAStallCycles-i-1 {
			t.Fatalf("Expected stall counter %d, got %d", DMAStallCycles-i-1, b.CPU.Stalled())
		}
	}

	b.Step()
	if b.CPU.PC != pc+1 {
		t.Errorf("Expected NOP to run after the stall, PC=$%04X", b.CPU.PC)
	}
}

func TestInputPolledOnlyWhileAwaiting(t *testing.T) {
	b := newTestBus(t, nmiProgram)
	source := &fakeSource{values: []uint8{0x9C}}
	b.SetInputSource(source)

	for i := 0; i < 10; i++ {
		b.Step()
	}
	if source.polls != 0 {
		t.Fatalf("Source polled %d times while running", source.polls)
	}

	b.CPU.AwaitInput(cpu.RegisterY)
	b.Step()
	if source.polls != 1 {
		t.Errorf("Expected one poll, got %d", source.polls)
	}
	if b.CPU.State() != cpu.Running || b.CPU.Y != 0x9C {
		t.Errorf("Expected Y=0x9C and running, got Y=0x%02X state=%s", b.CPU.Y, b.CPU.State())
	}
	if !b.CPU.N {
		t.Error("Expected N set from the fed value")
	}
}

func TestAwaitingInputIdlesAndDefersNMI(t *testing.T) {
	b := newTestBus(t, nmiProgram)
	source := &fakeSource{}
	b.SetInputSource(source)

	b.Step() // LDA
	b.Step() // STA $2000, NMI now enabled
	b.CPU.AwaitInput(cpu.RegisterX)
	pc := b.CPU.PC

	b.RunFrames(1)
	if b.CPU.PC != pc {
		t.Fatalf("CPU ran while awaiting input, PC=$%04X", b.CPU.PC)
	}
	if b.NMICount() != 0 {
		t.Fatalf("NMI delivered while awaiting input")
	}

	source.values = []uint8{0x42}
	b.Step()
	if b.CPU.X != 0x42 {
		t.Errorf("Expected X=0x42, got 0x%02X", b.CPU.X)
	}
	if b.NMICount() != 1 {
		t.Errorf("Expected the held NMI to be delivered, got %d", b.NMICount())
	}
	if b.CPU.PC != 0x9002 {
		t.Errorf("Expected the handler's first instruction to run, PC=$%04X", b.CPU.PC)
	}
}

func TestButtonsSyncedPerFrame(t *testing.T) {
	b := newTestBus(t, []uint8{0x4C, 0x00, 0x80})
	source := &fakeSource{}
	source.buttons[3] = true
	b.SetInputSource(source)

	b.Step()
	if b.Controller.IsPressed(input.ButtonStart) {
		t.Fatal("Buttons must not sync before a frame completes")
	}
	b.RunFrames(1)
	if !b.Controller.IsPressed(input.ButtonStart) {
		t.Error("Expected Start pressed after a frame")
	}
}

func TestTrace(t *testing.T) {
	b := newTestBus(t, nmiProgram)
	sink := &lineSink{}
	b.SetTrace(sink)

	b.Step()
	b.Step()
	if len(sink.lines) != 2 {
		t.Fatalf("Expected 2 trace lines, got %d", len(sink.lines))
	}
	want := "8000  A9 80     LDA #$80"
	if !strings.HasPrefix(sink.lines[0], want) {
		t.Errorf("Expected %q, got %q", want, sink.lines[0])
	}
	if !strings.HasSuffix(sink.lines[0], "CYC:7") {
		t.Errorf("Expected CYC:7 suffix, got %q", sink.lines[0])
	}
}

func TestTraceDumperSink(t *testing.T) {
	b := newTestBus(t, nmiProgram)
	var buf bytes.Buffer
	dumper := debug.NewTraceDumper(&buf, 3)
	b.SetTrace(dumper)

	for i := 0; i < 10; i++ {
		b.Step()
	}
	if err := dumper.Close(); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 3 {
		t.Errorf("Expected the dumper to cap at 3 lines, got %d", lines)
	}
}

func TestBreakpoints(t *testing.T) {
	b := newTestBus(t, nmiProgram)
	b.AddBreakpoint(0x8005)

	if b.RunFrames(1) {
		t.Fatal("Expected the run to stop at the breakpoint")
	}
	if b.CPU.PC != 0x8005 || !b.BreakpointHit() {
		t.Errorf("Expected stop at $8005, PC=$%04X", b.CPU.PC)
	}

	b.RemoveBreakpoint(0x8005)
	if len(b.Breakpoints()) != 0 {
		t.Errorf("Expected no breakpoints, got %v", b.Breakpoints())
	}
	if !b.RunFrames(1) {
		t.Error("Expected the run to complete without breakpoints")
	}
}

func TestRunUntil(t *testing.T) {
	b := newTestBus(t, nmiProgram)

	ok := b.RunUntil(func() bool { return b.Memory.RAM()[0x10] == 2 }, 0)
	if !ok || b.NMICount() != 2 {
		t.Errorf("Expected to stop after the second NMI, ok=%v nmis=%d", ok, b.NMICount())
	}

	if b.RunUntil(func() bool { return false }, 1000) {
		t.Error("Expected the cycle limit to end the run")
	}
}

func TestRunCycles(t *testing.T) {
	b := newTestBus(t, nmiProgram)
	start := b.CycleCount()
	b.RunCycles(100)
	if b.CycleCount() < start+100 || b.CycleCount() > start+106 {
		t.Errorf("Expected about 100 cycles, ran %d", b.CycleCount()-start)
	}
}
