// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

import "fmt"

// Addressing modes
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

var modeNames = [...]string{
	"Implied", "Accumulator", "Immediate", "ZeroPage", "ZeroPageX", "ZeroPageY",
	"Relative", "Absolute", "AbsoluteX", "AbsoluteY", "Indirect",
	"IndexedIndirect", "IndirectIndexed",
}

func (m AddressingMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("AddressingMode(%d)", int(m))
}

const (
	stackBase = 0x0100
	// Status register bit masks
	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01

	zeroPageMask = 0xFF
	pageMask     = 0xFF00

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	resetSP = 0xFD

	// interruptCycles is the cost of NMI/IRQ entry
	interruptCycles = 7
)

// RunState tells whether the CPU executes instructions or idles until the
// host supplies an input byte.
type RunState int

const (
	Running RunState = iota
	AwaitingInput
)

func (s RunState) String() string {
	if s == AwaitingInput {
		return "AwaitingInput"
	}
	return "Running"
}

// Register names a destination for host input
type Register int

const (
	RegisterA Register = iota
	RegisterX
	RegisterY
)

// MemoryInterface defines the interface for CPU memory access
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Peeker is implemented by memories that can be read without side effects.
// ok is false for addresses whose reads would change device state.
type Peeker interface {
	Peek(address uint16) (value uint8, ok bool)
}

// Logger receives CPU diagnostics
type Logger interface {
	Warnf(tag, format string, args ...interface{})
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter

	// Status register flags
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal mode (not used in NES)
	B bool // Break
	V bool // Overflow
	N bool // Negative

	memory MemoryInterface
	logger Logger

	cycles uint64
	stall  int

	state       RunState
	inputTarget Register
}

// New creates a new CPU instance. Registers hold their power-up values;
// call Reset to load PC from the reset vector.
func New(memory MemoryInterface) *CPU {
	return &CPU{
		memory: memory,
		SP:     resetSP,
		I:      true,
	}
}

// SetLogger routes unknown-opcode diagnostics to l
func (cpu *CPU) SetLogger(l Logger) {
	cpu.logger = l
}

// Reset puts the CPU in its power-up state and jumps through the reset vector
func (cpu *CPU) Reset() {
	cpu.A = 0
	cpu.X = 0
	cpu.Y = 0
	cpu.SP = resetSP
	cpu.SetStatusByte(unusedMask | iFlagMask)
	cpu.PC = cpu.readWord(resetVector)
	cpu.stall = 0
	cpu.state = Running
	cpu.cycles = interruptCycles
}

// Cycles returns the cycles elapsed since the last reset, counting the
// seven the reset sequence itself takes
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// Stall adds n cycles during which Step executes nothing
func (cpu *CPU) Stall(n int) {
	cpu.stall += n
}

// Stalled returns the number of stall cycles still pending
func (cpu *CPU) Stalled() int {
	return cpu.stall
}

// State returns whether the CPU is running or waiting on host input
func (cpu *CPU) State() RunState {
	return cpu.state
}

// AwaitInput suspends instruction execution until FeedInput delivers a
// byte for target. Step keeps returning idle cycles meanwhile.
func (cpu *CPU) AwaitInput(target Register) {
	cpu.state = AwaitingInput
	cpu.inputTarget = target
}

// InputTarget returns the register that the pending input will land in
func (cpu *CPU) InputTarget() Register {
	return cpu.inputTarget
}

// FeedInput delivers a host input byte. It returns false when the CPU was
// not waiting for one.
func (cpu *CPU) FeedInput(value uint8) bool {
	if cpu.state != AwaitingInput {
		return false
	}
	switch cpu.inputTarget {
	case RegisterX:
		cpu.X = value
	case RegisterY:
		cpu.Y = value
	default:
		cpu.A = value
	}
	cpu.setZN(value)
	cpu.state = Running
	return true
}

// Step executes a single instruction and returns the cycles it took.
// A pending DMA stall or input wait consumes exactly one cycle instead.
func (cpu *CPU) Step() uint64 {
	if cpu.stall > 0 {
		cpu.stall--
		cpu.cycles++
		return 1
	}
	if cpu.state == AwaitingInput {
		cpu.cycles++
		return 1
	}

	opcode := cpu.memory.Read(cpu.PC)
	inst := instructions[opcode]

	if inst.Illegal() {
		cpu.unknownOpcode(opcode, inst)
		cpu.PC++
		cpu.cycles += uint64(inst.Cycles)
		return uint64(inst.Cycles)
	}

	var data uint16
	for i := uint8(1); i < inst.Length; i++ {
		data |= uint16(cpu.memory.Read(cpu.PC+uint16(i))) << (8 * (i - 1))
	}
	address, pageCrossed := cpu.effectiveAddress(inst.Mode, data)

	jumped := cpu.execute(inst, operand{mode: inst.Mode, data: data, address: address})

	cycles := uint64(inst.Cycles)
	if inst.Op.IsBranch() {
		if jumped {
			cycles++
			if pageCrossed {
				cycles += uint64(inst.PageCycles)
			}
		}
	} else if pageCrossed {
		cycles += uint64(inst.PageCycles)
	}
	if !jumped {
		cpu.PC += uint16(inst.Length)
	}

	cpu.cycles += cycles
	return cycles
}

func (cpu *CPU) unknownOpcode(opcode uint8, inst Instruction) {
	if cpu.logger != nil {
		cpu.logger.Warnf("CPU", "%s (opcode 0x%02X) at $%04X is unimplemented", inst.Op, opcode, cpu.PC)
	}
}

func (cpu *CPU) readWord(address uint16) uint16 {
	low := uint16(cpu.memory.Read(address))
	high := uint16(cpu.memory.Read(address + 1))
	return high<<8 | low
}

// Stack operations
func (cpu *CPU) push(value uint8) {
	cpu.memory.Write(stackBase|uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.memory.Read(stackBase | uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8)) // High byte first
	cpu.push(uint8(value & 0xFF))
}

func (cpu *CPU) popWord() uint16 {
	low := uint16(cpu.pop())
	high := uint16(cpu.pop())
	return high<<8 | low
}

// setZN sets Zero and Negative flags based on value
func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = value&nFlagMask != 0
}

// TriggerNMI enters the non-maskable interrupt handler immediately. The
// drive loop calls it between steps; the CPU never polls for it.
func (cpu *CPU) TriggerNMI() {
	cpu.interrupt(nmiVector)
}

// TriggerIRQ enters the maskable interrupt handler unless interrupts are
// disabled. It reports whether the interrupt was taken.
func (cpu *CPU) TriggerIRQ() bool {
	if cpu.I {
		return false
	}
	cpu.interrupt(irqVector)
	return true
}

func (cpu *CPU) interrupt(vector uint16) {
	cpu.pushWord(cpu.PC)
	// Hardware interrupts push B clear
	cpu.push(cpu.GetStatusByte()&^bFlagMask | unusedMask)
	cpu.I = true
	cpu.PC = cpu.readWord(vector)
	cpu.cycles += interruptCycles
}

// GetStatusByte returns the status register as a byte
func (cpu *CPU) GetStatusByte() uint8 {
	status := uint8(unusedMask)
	if cpu.N {
		status |= nFlagMask
	}
	if cpu.V {
		status |= vFlagMask
	}
	if cpu.B {
		status |= bFlagMask
	}
	if cpu.D {
		status |= dFlagMask
	}
	if cpu.I {
		status |= iFlagMask
	}
	if cpu.Z {
		status |= zFlagMask
	}
	if cpu.C {
		status |= cFlagMask
	}
	return status
}

// SetStatusByte loads the flags from a byte. B only exists on the stack
// copy, so it is always cleared here.
func (cpu *CPU) SetStatusByte(status uint8) {
	cpu.N = status&nFlagMask != 0
	cpu.V = status&vFlagMask != 0
	cpu.B = false
	cpu.D = status&dFlagMask != 0
	cpu.I = status&iFlagMask != 0
	cpu.Z = status&zFlagMask != 0
	cpu.C = status&cFlagMask != 0
}

// Registers is a snapshot of the register file
type Registers struct {
	A, X, Y, SP, P uint8
	PC             uint16
	Cycles         uint64
	Stall          int
	State          RunState
}

// Registers captures the current register file
func (cpu *CPU) Registers() Registers {
	return Registers{
		A:      cpu.A,
		X:      cpu.X,
		Y:      cpu.Y,
		SP:     cpu.SP,
		P:      cpu.GetStatusByte(),
		PC:     cpu.PC,
		Cycles: cpu.cycles,
		Stall:  cpu.stall,
		State:  cpu.state,
	}
}

// Restore loads a register file captured by Registers. The CPU resumes
// in the Running state.
func (cpu *CPU) Restore(r Registers) {
	cpu.A, cpu.X, cpu.Y = r.A, r.X, r.Y
	cpu.SP = r.SP
	cpu.PC = r.PC
	cpu.SetStatusByte(r.P)
	cpu.cycles = r.Cycles
	cpu.stall = r.Stall
	cpu.state = Running
}

func (r Registers) String() string {
	return fmt.Sprintf("PC:%04X A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d", r.PC, r.A, r.X, r.Y, r.P, r.SP, r.Cycles)
}
