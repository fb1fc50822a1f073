package cpu

import (
	"fmt"
	"strings"
)

// Unofficial reports whether opcode is outside the documented 6502 set
func Unofficial(opcode uint8) bool {
	inst := instructions[opcode]
	switch inst.Op {
	case NOP:
		return opcode != 0xEA
	case SBC:
		return opcode == 0xEB
	case LAX, SAX, DCP, ISC, SLO, RLA, SRE, RRA, ANC, ALR, ARR, AXS, LAS,
		KIL, AHX, SHX, SHY, TAS, XAA:
		return true
	}
	return false
}

// peek reads address for display. Memories implementing Peeker never see
// a side-effecting read from here; I/O addresses show as 0.
func (cpu *CPU) peek(address uint16) uint8 {
	if p, ok := cpu.memory.(Peeker); ok {
		v, _ := p.Peek(address)
		return v
	}
	return cpu.memory.Read(address)
}

// Disassemble renders the instruction at pc as assembler text, e.g. "LDA #$10"
func (cpu *CPU) Disassemble(pc uint16) string {
	inst := instructions[cpu.peek(pc)]
	b1 := uint16(cpu.peek(pc + 1))
	b2 := uint16(cpu.peek(pc + 2))
	word := b2<<8 | b1

	name := inst.Op.String()
	switch inst.Mode {
	case Accumulator:
		return name + " A"
	case Immediate:
		return fmt.Sprintf("%s #$%02X", name, b1)
	case ZeroPage:
		return fmt.Sprintf("%s $%02X", name, b1)
	case ZeroPageX:
		return fmt.Sprintf("%s $%02X,X", name, b1)
	case ZeroPageY:
		return fmt.Sprintf("%s $%02X,Y", name, b1)
	case Relative:
		target := pc + 2 + uint16(int16(int8(uint8(b1))))
		return fmt.Sprintf("%s $%04X", name, target)
	case Absolute:
		return fmt.Sprintf("%s $%04X", name, word)
	case AbsoluteX:
		return fmt.Sprintf("%s $%04X,X", name, word)
	case AbsoluteY:
		return fmt.Sprintf("%s $%04X,Y", name, word)
	case Indirect:
		return fmt.Sprintf("%s ($%04X)", name, word)
	case IndexedIndirect:
		return fmt.Sprintf("%s ($%02X,X)", name, b1)
	case IndirectIndexed:
		return fmt.Sprintf("%s ($%02X),Y", name, b1)
	}
	return name
}

// Trace formats the instruction about to execute together with the register
// file, in the column layout of the widely used nestest.log:
//
//	C000  4C F5 C5  JMP $C5F5                       A:00 X:00 Y:00 P:24 SP:FD CYC:7
func (cpu *CPU) Trace() string {
	pc := cpu.PC
	opcode := cpu.peek(pc)
	inst := instructions[opcode]

	var sb strings.Builder
	fmt.Fprintf(&sb, "%04X  %02X ", pc, opcode)
	for i := uint8(1); i < 3; i++ {
		if i < inst.Length {
			fmt.Fprintf(&sb, "%02X ", cpu.peek(pc+uint16(i)))
		} else {
			sb.WriteString("   ")
		}
	}
	if Unofficial(opcode) {
		sb.WriteByte('*')
	} else {
		sb.WriteByte(' ')
	}
	fmt.Fprintf(&sb, "%-32s", cpu.Disassemble(pc))
	fmt.Fprintf(&sb, "A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		cpu.A, cpu.X, cpu.Y, cpu.GetStatusByte(), cpu.SP, cpu.cycles)
	return sb.String()
}
