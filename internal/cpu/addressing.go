package cpu

// operand carries an instruction's trailing bytes together with the
// effective address they resolve to.
type operand struct {
	mode    AddressingMode
	data    uint16 // raw operand bytes, little endian
	address uint16
}

// effectiveAddress resolves data under mode. The second result reports
// whether indexing moved the address onto a different page.
func (cpu *CPU) effectiveAddress(mode AddressingMode, data uint16) (uint16, bool) {
	switch mode {
	case Implied, Accumulator, Immediate:
		return 0, false

	case ZeroPage:
		return data & zeroPageMask, false

	case ZeroPageX:
		return uint16(uint8(data) + cpu.X), false

	case ZeroPageY:
		return uint16(uint8(data) + cpu.Y), false

	case Relative:
		next := cpu.PC + 2
		target := next + uint16(int16(int8(uint8(data))))
		return target, next&pageMask != target&pageMask

	case Absolute:
		return data, false

	case AbsoluteX:
		address := data + uint16(cpu.X)
		return address, data&pageMask != address&pageMask

	case AbsoluteY:
		address := data + uint16(cpu.Y)
		return address, data&pageMask != address&pageMask

	case Indirect: // Only used by JMP
		// The high byte is fetched without carrying into the next page
		low := uint16(cpu.memory.Read(data))
		high := uint16(cpu.memory.Read(data&pageMask | (data+1)&zeroPageMask))
		return high<<8 | low, false

	case IndexedIndirect: // (zp,X)
		ptr := uint8(data) + cpu.X
		low := uint16(cpu.memory.Read(uint16(ptr)))
		high := uint16(cpu.memory.Read(uint16(ptr + 1)))
		return high<<8 | low, false

	case IndirectIndexed: // (zp),Y
		ptr := uint8(data)
		low := uint16(cpu.memory.Read(uint16(ptr)))
		high := uint16(cpu.memory.Read(uint16(ptr + 1)))
		base := high<<8 | low
		address := base + uint16(cpu.Y)
		return address, base&pageMask != address&pageMask
	}
	return 0, false
}

// load reads the value an instruction operates on. Immediate operands are
// the literal byte and never touch the bus.
func (cpu *CPU) load(op operand) uint8 {
	switch op.mode {
	case Immediate:
		return uint8(op.data)
	case Accumulator:
		return cpu.A
	}
	return cpu.memory.Read(op.address)
}

// store writes a read-modify-write result back to A or memory
func (cpu *CPU) store(op operand, value uint8) {
	if op.mode == Accumulator {
		cpu.A = value
		return
	}
	cpu.memory.Write(op.address, value)
}
