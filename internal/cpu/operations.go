package cpu

// execute performs the semantic action of inst. It returns true when the
// action set PC itself, in which case Step must not advance it.
func (cpu *CPU) execute(inst Instruction, op operand) bool {
	switch inst.Op {
	// Loads and stores
	case LDA:
		cpu.A = cpu.load(op)
		cpu.setZN(cpu.A)
	case LDX:
		cpu.X = cpu.load(op)
		cpu.setZN(cpu.X)
	case LDY:
		cpu.Y = cpu.load(op)
		cpu.setZN(cpu.Y)
	case STA:
		cpu.memory.Write(op.address, cpu.A)
	case STX:
		cpu.memory.Write(op.address, cpu.X)
	case STY:
		cpu.memory.Write(op.address, cpu.Y)

	// Arithmetic and logic
	case ADC:
		cpu.adc(cpu.load(op))
	case SBC:
		cpu.adc(^cpu.load(op))
	case AND:
		cpu.A &= cpu.load(op)
		cpu.setZN(cpu.A)
	case ORA:
		cpu.A |= cpu.load(op)
		cpu.setZN(cpu.A)
	case EOR:
		cpu.A ^= cpu.load(op)
		cpu.setZN(cpu.A)
	case BIT:
		value := cpu.load(op)
		cpu.N = value&nFlagMask != 0
		cpu.V = value&vFlagMask != 0
		cpu.Z = cpu.A&value == 0
	case CMP:
		cpu.compare(cpu.A, cpu.load(op))
	case CPX:
		cpu.compare(cpu.X, cpu.load(op))
	case CPY:
		cpu.compare(cpu.Y, cpu.load(op))

	// Shifts and rotates
	case ASL:
		cpu.store(op, cpu.asl(cpu.load(op)))
	case LSR:
		cpu.store(op, cpu.lsr(cpu.load(op)))
	case ROL:
		cpu.store(op, cpu.rol(cpu.load(op)))
	case ROR:
		cpu.store(op, cpu.ror(cpu.load(op)))

	// Increments and decrements
	case INC:
		value := cpu.load(op) + 1
		cpu.memory.Write(op.address, value)
		cpu.setZN(value)
	case DEC:
		value := cpu.load(op) - 1
		cpu.memory.Write(op.address, value)
		cpu.setZN(value)
	case INX:
		cpu.X++
		cpu.setZN(cpu.X)
	case INY:
		cpu.Y++
		cpu.setZN(cpu.Y)
	case DEX:
		cpu.X--
		cpu.setZN(cpu.X)
	case DEY:
		cpu.Y--
		cpu.setZN(cpu.Y)

	// Transfers
	case TAX:
		cpu.X = cpu.A
		cpu.setZN(cpu.X)
	case TAY:
		cpu.Y = cpu.A
		cpu.setZN(cpu.Y)
	case TXA:
		cpu.A = cpu.X
		cpu.setZN(cpu.A)
	case TYA:
		cpu.A = cpu.Y
		cpu.setZN(cpu.A)
	case TSX:
		cpu.X = cpu.SP
		cpu.setZN(cpu.X)
	case TXS:
		cpu.SP = cpu.X

	// Stack
	case PHA:
		cpu.push(cpu.A)
	case PHP:
		cpu.push(cpu.GetStatusByte() | bFlagMask)
	case PLA:
		cpu.A = cpu.pop()
		cpu.setZN(cpu.A)
	case PLP:
		cpu.SetStatusByte(cpu.pop())

	// Flags
	case CLC:
		cpu.C = false
	case SEC:
		cpu.C = true
	case CLI:
		cpu.I = false
	case SEI:
		cpu.I = true
	case CLD:
		cpu.D = false
	case SED:
		cpu.D = true
	case CLV:
		cpu.V = false

	// Control flow
	case JMP:
		cpu.PC = op.address
		return true
	case JSR:
		// The pushed address is the last byte of the JSR itself
		cpu.pushWord(cpu.PC + 2)
		cpu.PC = op.address
		return true
	case RTS:
		cpu.PC = cpu.popWord() + 1
		return true
	case RTI:
		cpu.SetStatusByte(cpu.pop())
		cpu.PC = cpu.popWord()
		return true
	case BRK:
		cpu.pushWord(cpu.PC + 2)
		cpu.B = true
		cpu.push(cpu.GetStatusByte())
		cpu.B = false
		cpu.I = true
		cpu.PC = cpu.readWord(irqVector)
		return true

	case BCC:
		return cpu.branch(!cpu.C, op)
	case BCS:
		return cpu.branch(cpu.C, op)
	case BNE:
		return cpu.branch(!cpu.Z, op)
	case BEQ:
		return cpu.branch(cpu.Z, op)
	case BPL:
		return cpu.branch(!cpu.N, op)
	case BMI:
		return cpu.branch(cpu.N, op)
	case BVC:
		return cpu.branch(!cpu.V, op)
	case BVS:
		return cpu.branch(cpu.V, op)

	case NOP:

	// Unofficial opcodes that combine two official operations
	case LAX:
		cpu.A = cpu.load(op)
		cpu.X = cpu.A
		cpu.setZN(cpu.A)
	case SAX:
		cpu.memory.Write(op.address, cpu.A&cpu.X)
	case DCP:
		value := cpu.load(op) - 1
		cpu.memory.Write(op.address, value)
		cpu.compare(cpu.A, value)
	case ISC:
		value := cpu.load(op) + 1
		cpu.memory.Write(op.address, value)
		cpu.adc(^value)
	case SLO:
		value := cpu.asl(cpu.load(op))
		cpu.memory.Write(op.address, value)
		cpu.A |= value
		cpu.setZN(cpu.A)
	case RLA:
		value := cpu.rol(cpu.load(op))
		cpu.memory.Write(op.address, value)
		cpu.A &= value
		cpu.setZN(cpu.A)
	case SRE:
		value := cpu.lsr(cpu.load(op))
		cpu.memory.Write(op.address, value)
		cpu.A ^= value
		cpu.setZN(cpu.A)
	case RRA:
		value := cpu.ror(cpu.load(op))
		cpu.memory.Write(op.address, value)
		cpu.adc(value)
	case ANC:
		cpu.A &= cpu.load(op)
		cpu.setZN(cpu.A)
		cpu.C = cpu.N
	case ALR:
		cpu.A = cpu.lsr(cpu.A & cpu.load(op))
	case ARR:
		value := cpu.A & cpu.load(op)
		cpu.A = value >> 1
		if cpu.C {
			cpu.A |= 0x80
		}
		cpu.setZN(cpu.A)
		cpu.C = cpu.A&0x40 != 0
		cpu.V = (cpu.A>>6^cpu.A>>5)&1 != 0
	case AXS:
		ax := cpu.A & cpu.X
		value := cpu.load(op)
		cpu.C = ax >= value
		cpu.X = ax - value
		cpu.setZN(cpu.X)
	case LAS:
		value := cpu.load(op) & cpu.SP
		cpu.A = value
		cpu.X = value
		cpu.SP = value
		cpu.setZN(value)

	case KIL, AHX, SHX, SHY, TAS, XAA:
		// Filtered out by Step through their zero length
		cpu.unknownOpcode(cpu.memory.Read(cpu.PC), inst)

	default:
		cpu.unknownOpcode(cpu.memory.Read(cpu.PC), inst)
	}
	return false
}

// adc adds value and the carry into A. SBC passes the complement of its
// operand, which turns the same circuit into subtract-with-borrow.
func (cpu *CPU) adc(value uint8) {
	var carry uint16
	if cpu.C {
		carry = 1
	}
	sum := uint16(cpu.A) + uint16(value) + carry
	result := uint8(sum)
	// Overflow when both inputs share a sign the result does not
	cpu.V = (cpu.A^result)&(value^result)&0x80 != 0
	cpu.C = sum > 0xFF
	cpu.A = result
	cpu.setZN(cpu.A)
}

func (cpu *CPU) compare(register, value uint8) {
	cpu.C = register >= value
	cpu.setZN(register - value)
}

func (cpu *CPU) branch(condition bool, op operand) bool {
	if !condition {
		return false
	}
	cpu.PC = op.address
	return true
}

func (cpu *CPU) asl(value uint8) uint8 {
	cpu.C = value&0x80 != 0
	value <<= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) lsr(value uint8) uint8 {
	cpu.C = value&0x01 != 0
	value >>= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) rol(value uint8) uint8 {
	carry := cpu.C
	cpu.C = value&0x80 != 0
	value <<= 1
	if carry {
		value |= 0x01
	}
	cpu.setZN(value)
	return value
}

func (cpu *CPU) ror(value uint8) uint8 {
	carry := cpu.C
	cpu.C = value&0x01 != 0
	value >>= 1
	if carry {
		value |= 0x80
	}
	cpu.setZN(value)
	return value
}
