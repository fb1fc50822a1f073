// Package monitor implements an interactive machine-level debugger: single
// stepping, breakpoints, memory and disassembly views, and snapshots.
package monitor

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"nescore/internal/app"
	"nescore/internal/bus"
	"nescore/internal/cpu"
	"nescore/internal/input"
)

const (
	// maxHistory is the number of executed instructions kept for display
	maxHistory = 64

	// continueFrames bounds a continue that never reaches a breakpoint
	continueFrames = 600

	maxStep     = 100000
	maxDumpSize = 256
)

var errUsage = errors.New("bad arguments")

// Monitor executes debugger commands against an application. It is not
// safe for concurrent use.
type Monitor struct {
	app     *app.Application
	history []string
	quit    bool
}

type command struct {
	names []string
	usage string
	run   func(m *Monitor, args []string) ([]string, error)
}

var commands []command

func init() {
	commands = []command{
		{[]string{"step", "s"}, "step [n]       execute n instructions", (*Monitor).step},
		{[]string{"frame", "f"}, "frame [n]      run n frames", (*Monitor).frame},
		{[]string{"continue", "c"}, "continue       run until a breakpoint", (*Monitor).cont},
		{[]string{"break", "b"}, "break [addr]   set a breakpoint, or list them", (*Monitor).breakpoint},
		{[]string{"delete", "d"}, "delete addr    remove a breakpoint", (*Monitor).deleteBreakpoint},
		{[]string{"regs", "r"}, "regs           show registers", (*Monitor).regs},
		{[]string{"mem", "m"}, "mem addr [n]   dump n bytes of CPU memory", (*Monitor).mem},
		{[]string{"dis", "u"}, "dis [addr] [n] disassemble n instructions", (*Monitor).dis},
		{[]string{"feed"}, "feed byte      deliver a byte to a CPU awaiting input", (*Monitor).feed},
		{[]string{"press"}, "press button   hold a joypad button", (*Monitor).press},
		{[]string{"release"}, "release button release a joypad button", (*Monitor).release},
		{[]string{"save"}, "save slot      write a snapshot", (*Monitor).save},
		{[]string{"load"}, "load slot      restore a snapshot", (*Monitor).load},
		{[]string{"reset"}, "reset          reset the machine", (*Monitor).reset},
		{[]string{"help", "?"}, "help           list commands", (*Monitor).help},
		{[]string{"quit", "q"}, "quit           leave the monitor", (*Monitor).exit},
	}
}

// New creates a monitor for an application with a loaded ROM
func New(a *app.Application) (*Monitor, error) {
	if a.GetBus() == nil {
		return nil, app.ErrNoROM
	}
	return &Monitor{app: a}, nil
}

// Quit reports whether the quit command was given
func (m *Monitor) Quit() bool {
	return m.quit
}

// History returns the most recently executed instructions, oldest first
func (m *Monitor) History() []string {
	return m.history
}

// Execute runs one command line and returns its output. Errors are
// reported as output lines.
func (m *Monitor) Execute(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	for _, c := range commands {
		for _, n := range c.names {
			if n != name {
				continue
			}
			out, err := c.run(m, fields[1:])
			if errors.Is(err, errUsage) {
				return append(out, "usage: "+c.usage)
			}
			if err != nil {
				return append(out, "error: "+err.Error())
			}
			return out
		}
	}
	return []string{fmt.Sprintf("unknown command %q, try help", name)}
}

func (m *Monitor) machine() *bus.Bus {
	return m.app.GetBus()
}

// stepOne executes one bus step, recording the instruction when one runs
func (m *Monitor) stepOne() {
	b := m.machine()
	if b.CPU.State() == cpu.Running && b.CPU.Stalled() == 0 {
		m.record(b.CPU.Trace())
	}
	b.Step()
}

func (m *Monitor) record(line string) {
	if len(m.history) == maxHistory {
		copy(m.history, m.history[1:])
		m.history = m.history[:maxHistory-1]
	}
	m.history = append(m.history, line)
}

func (m *Monitor) status(prefix string) []string {
	b := m.machine()
	out := []string{fmt.Sprintf("%s at $%04X  %s", prefix, b.CPU.PC, b.CPU.Disassemble(b.CPU.PC))}
	if b.CPU.State() == cpu.AwaitingInput {
		out = append(out, "CPU is awaiting input, use feed")
	}
	return out
}

// runFrames steps until n frames complete or a breakpoint is reached
func (m *Monitor) runFrames(n uint64) bool {
	b := m.machine()
	target := b.FrameCount() + n
	for b.FrameCount() < target {
		m.stepOne()
		if b.BreakpointHit() {
			return false
		}
	}
	return true
}

func (m *Monitor) step(args []string) ([]string, error) {
	n, err := countArg(args, 0, 1, maxStep)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		m.stepOne()
		if i < n-1 && m.machine().BreakpointHit() {
			return m.status("breakpoint"), nil
		}
	}
	return m.status("stopped"), nil
}

func (m *Monitor) frame(args []string) ([]string, error) {
	n, err := countArg(args, 0, 1, continueFrames)
	if err != nil {
		return nil, err
	}
	if !m.runFrames(uint64(n)) {
		return m.status("breakpoint"), nil
	}
	return m.status(fmt.Sprintf("frame %d", m.machine().FrameCount())), nil
}

func (m *Monitor) cont(args []string) ([]string, error) {
	// Leave a breakpoint we are sitting on
	m.stepOne()
	if m.machine().BreakpointHit() || !m.runFrames(continueFrames) {
		return m.status("breakpoint"), nil
	}
	return m.status(fmt.Sprintf("no breakpoint after %d frames, stopped", continueFrames)), nil
}

func (m *Monitor) breakpoint(args []string) ([]string, error) {
	b := m.machine()
	if len(args) == 0 {
		pcs := b.Breakpoints()
		if len(pcs) == 0 {
			return []string{"no breakpoints"}, nil
		}
		sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })
		out := make([]string, 0, len(pcs))
		for _, pc := range pcs {
			out = append(out, fmt.Sprintf("$%04X  %s", pc, b.CPU.Disassemble(pc)))
		}
		return out, nil
	}
	pc, err := app.ParseAddress(args[0])
	if err != nil {
		return nil, err
	}
	b.AddBreakpoint(pc)
	return []string{fmt.Sprintf("breakpoint at $%04X", pc)}, nil
}

func (m *Monitor) deleteBreakpoint(args []string) ([]string, error) {
	if len(args) != 1 {
		return nil, errUsage
	}
	pc, err := app.ParseAddress(args[0])
	if err != nil {
		return nil, err
	}
	m.machine().RemoveBreakpoint(pc)
	return []string{fmt.Sprintf("removed $%04X", pc)}, nil
}

func (m *Monitor) regs(args []string) ([]string, error) {
	return Registers(m.machine()), nil
}

// Registers formats the CPU and PPU state for display
func Registers(b *bus.Bus) []string {
	r := b.CPU.Registers()
	p := b.PPU.State()
	return []string{
		r.String(),
		fmt.Sprintf("flags %s  state %s", flagString(r.P), r.State),
		fmt.Sprintf("PPU CTRL:%02X MASK:%02X STATUS:%02X V:%04X T:%04X", p.Control.Byte(), p.Mask.Byte(), p.Status, p.V, p.T),
		fmt.Sprintf("scanline %d cycle %d frame %d  NMIs %d", p.Scanline, p.Cycle, p.Frame, b.NMICount()),
	}
}

func flagString(p uint8) string {
	const names = "NV-BDIZC"
	out := []byte(names)
	for i := range out {
		if p&(0x80>>i) == 0 {
			out[i] = '.'
		}
	}
	return string(out)
}

func (m *Monitor) mem(args []string) ([]string, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, errUsage
	}
	start, err := app.ParseAddress(args[0])
	if err != nil {
		return nil, err
	}
	n, err := countArg(args, 1, 16, maxDumpSize)
	if err != nil {
		return nil, err
	}
	return dump(m.machine(), start, n), nil
}

func dump(b *bus.Bus, start uint16, n int) []string {
	var out []string
	var sb strings.Builder
	for i := 0; i < n; i++ {
		address := start + uint16(i)
		if i%16 == 0 {
			if sb.Len() > 0 {
				out = append(out, sb.String())
				sb.Reset()
			}
			fmt.Fprintf(&sb, "$%04X:", address)
		}
		if v, ok := b.Memory.Peek(address); ok {
			fmt.Fprintf(&sb, " %02X", v)
		} else {
			sb.WriteString(" --")
		}
	}
	if sb.Len() > 0 {
		out = append(out, sb.String())
	}
	return out
}

func (m *Monitor) dis(args []string) ([]string, error) {
	b := m.machine()
	pc := b.CPU.PC
	if len(args) > 0 {
		var err error
		if pc, err = app.ParseAddress(args[0]); err != nil {
			return nil, err
		}
	}
	n, err := countArg(args, 1, 10, 64)
	if err != nil {
		return nil, err
	}
	return Disassemble(b, pc, n), nil
}

// Disassemble lists n instructions starting at pc, marking the current PC
func Disassemble(b *bus.Bus, pc uint16, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		marker := "  "
		if pc == b.CPU.PC {
			marker = "> "
		}
		opcode, ok := b.Memory.Peek(pc)
		if !ok {
			out = append(out, fmt.Sprintf("%s%04X  --        (I/O)", marker, pc))
			pc++
			continue
		}
		length := uint16(cpu.Lookup(opcode).Length)
		if length == 0 {
			length = 1
		}
		var raw strings.Builder
		for j := uint16(0); j < 3; j++ {
			v, ok := b.Memory.Peek(pc + j)
			switch {
			case j >= length:
				raw.WriteString("   ")
			case ok:
				fmt.Fprintf(&raw, "%02X ", v)
			default:
				raw.WriteString("-- ")
			}
		}
		out = append(out, fmt.Sprintf("%s%04X  %s %s", marker, pc, raw.String(), b.CPU.Disassemble(pc)))
		pc += length
	}
	return out
}

func (m *Monitor) feed(args []string) ([]string, error) {
	if len(args) != 1 {
		return nil, errUsage
	}
	v, err := parseByte(args[0])
	if err != nil {
		return nil, err
	}
	if !m.machine().CPU.FeedInput(v) {
		return nil, errors.New("CPU is not awaiting input")
	}
	return []string{fmt.Sprintf("fed $%02X", v)}, nil
}

func parseByte(s string) (uint8, error) {
	if len(s) == 3 && s[0] == '\'' && s[2] == '\'' {
		return s[1], nil
	}
	v, err := app.ParseAddress(s)
	if err != nil {
		return 0, err
	}
	if v > 0xFF {
		return 0, fmt.Errorf("value $%X does not fit in a byte", v)
	}
	return uint8(v), nil
}

func (m *Monitor) press(args []string) ([]string, error) {
	return m.setButton(args, true)
}

func (m *Monitor) release(args []string) ([]string, error) {
	return m.setButton(args, false)
}

func (m *Monitor) setButton(args []string, pressed bool) ([]string, error) {
	if len(args) != 1 {
		return nil, errUsage
	}
	button, err := input.ParseButton(args[0])
	if err != nil {
		return nil, err
	}
	m.machine().SetControllerButton(button, pressed)
	return []string{fmt.Sprintf("%s %s", button, map[bool]string{true: "pressed", false: "released"}[pressed])}, nil
}

func (m *Monitor) save(args []string) ([]string, error) {
	slot, err := slotArg(args)
	if err != nil {
		return nil, err
	}
	if err := m.app.SaveState(slot); err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("saved slot %d", slot)}, nil
}

func (m *Monitor) load(args []string) ([]string, error) {
	slot, err := slotArg(args)
	if err != nil {
		return nil, err
	}
	if err := m.app.LoadState(slot); err != nil {
		return nil, err
	}
	m.history = nil
	return m.status(fmt.Sprintf("loaded slot %d", slot)), nil
}

func slotArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("bad slot %q", args[0])
	}
	return slot, nil
}

func (m *Monitor) reset(args []string) ([]string, error) {
	m.app.Reset()
	m.history = nil
	return m.status("reset"), nil
}

func (m *Monitor) help(args []string) ([]string, error) {
	out := make([]string, 0, len(commands))
	for _, c := range commands {
		out = append(out, c.usage)
	}
	return out, nil
}

func (m *Monitor) exit(args []string) ([]string, error) {
	m.quit = true
	return nil, nil
}

// countArg parses args[i] as a positive count, returning def when absent
func countArg(args []string, i, def, max int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 1 || n > max {
		return 0, fmt.Errorf("count must be between 1 and %d", max)
	}
	return n, nil
}
