package cpu

import "testing"

func TestADCSignedOverflow(t *testing.T) {
	h := NewCPUTestHelper()
	h.CPU.C = false
	h.LoadProgram(0x8000, 0xA9, 0x50, 0x69, 0x50) // LDA #$50; ADC #$50
	h.Run(2)

	if h.CPU.A != 0xA0 {
		t.Errorf("Expected A=0xA0, got 0x%02X", h.CPU.A)
	}
	h.AssertFlags(t, "ADC 0x50+0x50", true, true, false, false)
}

func TestSBCBorrow(t *testing.T) {
	h := NewCPUTestHelper()
	h.LoadProgram(0x8000, 0x38, 0xA9, 0x00, 0xE9, 0x01) // SEC; LDA #0; SBC #1
	h.Run(3)

	if h.CPU.A != 0xFF {
		t.Errorf("Expected A=0xFF, got 0x%02X", h.CPU.A)
	}
	h.AssertFlags(t, "SBC 0x00-0x01", true, false, false, false)
}

func TestADCTable(t *testing.T) {
	tests := []struct {
		name       string
		a, operand uint8
		carryIn    bool
		want       uint8
		n, v, z, c bool
	}{
		{"simple", 0x10, 0x20, false, 0x30, false, false, false, false},
		{"carry in", 0x10, 0x20, true, 0x31, false, false, false, false},
		{"unsigned carry out", 0xFF, 0x01, false, 0x00, false, false, true, true},
		{"negative overflow", 0x80, 0x80, false, 0x00, false, true, true, true},
		{"mixed signs never overflow", 0x7F, 0x80, false, 0xFF, true, false, false, false},
		{"positive overflow with carry", 0x7F, 0x00, true, 0x80, true, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper()
			h.CPU.A = tt.a
			h.CPU.C = tt.carryIn
			h.LoadProgram(0x8000, 0x69, tt.operand)
			h.CPU.Step()
			if h.CPU.A != tt.want {
				t.Errorf("Expected A=0x%02X, got 0x%02X", tt.want, h.CPU.A)
			}
			h.AssertFlags(t, tt.name, tt.n, tt.v, tt.z, tt.c)
		})
	}
}

func TestSBCTable(t *testing.T) {
	tests := []struct {
		name       string
		a, operand uint8
		carryIn    bool
		want       uint8
		n, v, z, c bool
	}{
		{"no borrow", 0x50, 0x10, true, 0x40, false, false, false, true},
		{"borrow in", 0x50, 0x10, false, 0x3F, false, false, false, true},
		{"equal", 0x42, 0x42, true, 0x00, false, false, true, true},
		{"signed overflow", 0x80, 0x01, true, 0x7F, false, true, false, true},
		{"positive minus negative overflow", 0x7F, 0xFF, true, 0x80, true, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper()
			h.CPU.A = tt.a
			h.CPU.C = tt.carryIn
			h.LoadProgram(0x8000, 0xE9, tt.operand)
			h.CPU.Step()
			if h.CPU.A != tt.want {
				t.Errorf("Expected A=0x%02X, got 0x%02X", tt.want, h.CPU.A)
			}
			h.AssertFlags(t, tt.name, tt.n, tt.v, tt.z, tt.c)
		})
	}
}

func TestCompareFamily(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		n, z, c bool
	}{
		{"CMP greater", []uint8{0xA9, 0x50, 0xC9, 0x30}, false, false, true},
		{"CMP equal", []uint8{0xA9, 0x50, 0xC9, 0x50}, false, true, true},
		{"CMP less", []uint8{0xA9, 0x30, 0xC9, 0x50}, true, false, false},
		{"CPX equal", []uint8{0xA2, 0x07, 0xE0, 0x07}, false, true, true},
		{"CPY less", []uint8{0xA0, 0x01, 0xC0, 0x02}, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper()
			h.LoadProgram(0x8000, tt.program...)
			h.Run(2)
			h.AssertFlags(t, tt.name, tt.n, false, tt.z, tt.c)
		})
	}
}

func TestShiftsOnAccumulatorAndMemory(t *testing.T) {
	h := NewCPUTestHelper()
	h.Memory.SetBytes(0x0010, 0x81)
	h.LoadProgram(0x8000,
		0xA9, 0x80, // LDA #$80
		0x0A,       // ASL A
		0x06, 0x10, // ASL $10
	)

	h.Run(2)
	if h.CPU.A != 0x00 || !h.CPU.C || !h.CPU.Z {
		t.Errorf("ASL A: got A=0x%02X C=%v Z=%v", h.CPU.A, h.CPU.C, h.CPU.Z)
	}

	h.CPU.Step()
	h.AssertMemory(t, "ASL $10", 0x0010, 0x02)
	if !h.CPU.C {
		t.Error("ASL $10: bit 7 should land in carry")
	}
	if h.CPU.A != 0x00 {
		t.Error("ASL $10 must not touch the accumulator")
	}
}

func TestRotatesThroughCarry(t *testing.T) {
	h := NewCPUTestHelper()
	h.CPU.C = true
	h.CPU.A = 0x01
	h.LoadProgram(0x8000, 0x6A, 0x2A) // ROR A; ROL A

	h.CPU.Step()
	if h.CPU.A != 0x80 || !h.CPU.C || !h.CPU.N {
		t.Errorf("ROR A: got A=0x%02X C=%v N=%v", h.CPU.A, h.CPU.C, h.CPU.N)
	}
	h.CPU.Step()
	if h.CPU.A != 0x01 || !h.CPU.C {
		t.Errorf("ROL A: got A=0x%02X C=%v", h.CPU.A, h.CPU.C)
	}
}

func TestLSRMemory(t *testing.T) {
	h := NewCPUTestHelper()
	h.Memory.SetBytes(0x0300, 0x03)
	h.LoadProgram(0x8000, 0x4E, 0x00, 0x03) // LSR $0300
	h.CPU.Step()
	h.AssertMemory(t, "LSR", 0x0300, 0x01)
	h.AssertFlags(t, "LSR", false, false, false, true)
}

func TestBIT(t *testing.T) {
	h := NewCPUTestHelper()
	h.Memory.SetBytes(0x0020, 0xC0)
	h.CPU.A = 0x01
	h.LoadProgram(0x8000, 0x24, 0x20)
	h.CPU.Step()
	h.AssertFlags(t, "BIT", true, true, true, false)
}

func TestJSRThenRTS(t *testing.T) {
	h := NewCPUTestHelper()
	h.LoadProgram(0x8000, 0x20, 0x34, 0x12, 0xEA) // JSR $1234; NOP
	h.LoadProgram(0x1234, 0x60)                   // RTS

	cycles := h.CPU.Step()
	if cycles != 6 {
		t.Errorf("JSR: Expected 6 cycles, got %d", cycles)
	}
	h.AssertRegisters(t, "JSR", 0, 0, 0, 0xFB, 0x1234)
	h.AssertMemory(t, "JSR high byte", 0x01FD, 0x80)
	h.AssertMemory(t, "JSR low byte", 0x01FC, 0x02)

	h.CPU.Step()
	h.AssertRegisters(t, "RTS", 0, 0, 0, 0xFD, 0x8003)
}

func TestBRKAndRTI(t *testing.T) {
	h := NewCPUTestHelper()
	h.Memory.SetBytes(irqVector, 0x00, 0x90)
	h.CPU.C = true
	h.LoadProgram(0x8000, 0x00, 0xFF) // BRK + padding
	h.LoadProgram(0x9000, 0x40)       // RTI

	h.CPU.Step()
	h.AssertRegisters(t, "BRK", 0, 0, 0, 0xFA, 0x9000)
	h.AssertMemory(t, "BRK return high", 0x01FD, 0x80)
	h.AssertMemory(t, "BRK return low", 0x01FC, 0x02)
	h.AssertMemory(t, "BRK status", 0x01FB, 0x35) // N V 1 B D I Z C = 0011 0101
	if h.CPU.B {
		t.Error("B must be clear after BRK pushed it")
	}
	if !h.CPU.I {
		t.Error("BRK must set I")
	}

	h.CPU.Step()
	h.AssertRegisters(t, "RTI", 0, 0, 0, 0xFD, 0x8002)
	if !h.CPU.C || !h.CPU.I {
		t.Errorf("RTI should restore C and I, got C=%v I=%v", h.CPU.C, h.CPU.I)
	}
}

func TestPHPPLP(t *testing.T) {
	h := NewCPUTestHelper()
	h.CPU.SetStatusByte(0xC3)
	h.LoadProgram(0x8000, 0x08, 0x28) // PHP; PLP

	h.CPU.Step()
	h.AssertMemory(t, "PHP pushes B and the reserved bit", 0x01FD, 0xF3)

	h.CPU.SetStatusByte(0x00)
	h.CPU.Step()
	if got := h.CPU.GetStatusByte(); got != 0xE3 {
		t.Errorf("PLP: Expected status 0xE3, got 0x%02X", got)
	}
}

func TestPHAPLA(t *testing.T) {
	h := NewCPUTestHelper()
	h.LoadProgram(0x8000,
		0xA9, 0x80, // LDA #$80
		0x48,       // PHA
		0xA9, 0x00, // LDA #0
		0x68,       // PLA
	)
	h.Run(4)
	if h.CPU.A != 0x80 || !h.CPU.N || h.CPU.Z {
		t.Errorf("PLA: got A=0x%02X N=%v Z=%v", h.CPU.A, h.CPU.N, h.CPU.Z)
	}
	if h.CPU.SP != 0xFD {
		t.Errorf("Expected SP=0xFD, got 0x%02X", h.CPU.SP)
	}
}

func TestTransfersAndIncrements(t *testing.T) {
	h := NewCPUTestHelper()
	h.LoadProgram(0x8000,
		0xA9, 0xFF, // LDA #$FF
		0xAA,       // TAX
		0xE8,       // INX -> 0
		0xA8,       // TAY
		0x88,       // DEY -> FE
		0x9A,       // TXS
	)
	h.Run(6)
	h.AssertRegisters(t, "transfers", 0xFF, 0x00, 0xFE, 0x00, 0x8007)
	if !h.CPU.N || h.CPU.Z {
		t.Errorf("DEY should leave N set, got N=%v Z=%v", h.CPU.N, h.CPU.Z)
	}
}

func TestINCDECMemory(t *testing.T) {
	h := NewCPUTestHelper()
	h.Memory.SetBytes(0x0040, 0xFF)
	h.LoadProgram(0x8000, 0xE6, 0x40, 0xC6, 0x40, 0xC6, 0x40) // INC; DEC; DEC
	h.CPU.Step()
	h.AssertMemory(t, "INC wraps", 0x0040, 0x00)
	if !h.CPU.Z {
		t.Error("INC to zero should set Z")
	}
	h.Run(2)
	h.AssertMemory(t, "DEC wraps", 0x0040, 0xFE)
}

func TestBranchCycles(t *testing.T) {
	tests := []struct {
		name    string
		pc      uint16
		offset  uint8
		zero    bool
		wantPC  uint16
		wantCyc uint64
	}{
		{"not taken", 0x8000, 0x10, false, 0x8002, 2},
		{"taken same page", 0x8000, 0x10, true, 0x8012, 3},
		{"taken backwards", 0x8010, 0xFC, true, 0x800E, 3},
		{"taken across page", 0x80F0, 0x20, true, 0x8112, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper()
			h.CPU.PC = tt.pc
			h.CPU.Z = tt.zero
			h.LoadProgram(tt.pc, 0xF0, tt.offset) // BEQ
			cycles := h.CPU.Step()
			if h.CPU.PC != tt.wantPC {
				t.Errorf("Expected PC=0x%04X, got 0x%04X", tt.wantPC, h.CPU.PC)
			}
			if cycles != tt.wantCyc {
				t.Errorf("Expected %d cycles, got %d", tt.wantCyc, cycles)
			}
		})
	}
}

func TestJMPAbsolute(t *testing.T) {
	h := NewCPUTestHelper()
	h.LoadProgram(0x8000, 0x4C, 0xF5, 0xC5)
	if cycles := h.CPU.Step(); cycles != 3 {
		t.Errorf("Expected 3 cycles, got %d", cycles)
	}
	if h.CPU.PC != 0xC5F5 {
		t.Errorf("Expected PC=0xC5F5, got 0x%04X", h.CPU.PC)
	}
}

func TestUnofficialLAXAndSAX(t *testing.T) {
	h := NewCPUTestHelper()
	h.Memory.SetBytes(0x0010, 0x8F)
	h.LoadProgram(0x8000,
		0xA7, 0x10, // LAX $10
		0xA9, 0xF0, // LDA #$F0
		0x87, 0x11, // SAX $11
	)
	h.CPU.Step()
	if h.CPU.A != 0x8F || h.CPU.X != 0x8F || !h.CPU.N {
		t.Errorf("LAX should load both A and X, got A=0x%02X X=0x%02X", h.CPU.A, h.CPU.X)
	}
	h.Run(2)
	h.AssertMemory(t, "SAX", 0x0011, 0x80)
}

func TestUnofficialDCP(t *testing.T) {
	h := NewCPUTestHelper()
	h.Memory.SetBytes(0x0010, 0x43)
	h.CPU.A = 0x42
	h.LoadProgram(0x8000, 0xC7, 0x10) // DCP $10
	h.CPU.Step()
	h.AssertMemory(t, "DCP decrement", 0x0010, 0x42)
	h.AssertFlags(t, "DCP compare", false, false, true, true)
}

func TestUnofficialISC(t *testing.T) {
	h := NewCPUTestHelper()
	h.Memory.SetBytes(0x0010, 0x0F)
	h.CPU.A = 0x20
	h.CPU.C = true
	h.LoadProgram(0x8000, 0xE7, 0x10) // ISC $10
	h.CPU.Step()
	h.AssertMemory(t, "ISC increment", 0x0010, 0x10)
	if h.CPU.A != 0x10 {
		t.Errorf("ISC should subtract the incremented value, got A=0x%02X", h.CPU.A)
	}
	h.AssertFlags(t, "ISC", false, false, false, true)
}

func TestUnofficialShiftCombos(t *testing.T) {
	tests := []struct {
		name    string
		opcode  uint8
		mem     uint8
		a       uint8
		carry   bool
		wantMem uint8
		wantA   uint8
		wantC   bool
	}{
		{"SLO", 0x07, 0x81, 0x01, false, 0x02, 0x03, true},
		{"RLA", 0x27, 0x81, 0xFF, true, 0x03, 0x03, true},
		{"SRE", 0x47, 0x03, 0xFF, false, 0x01, 0xFE, true},
		{"RRA", 0x67, 0x02, 0x10, true, 0x81, 0x91, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper()
			h.Memory.SetBytes(0x0010, tt.mem)
			h.CPU.A = tt.a
			h.CPU.C = tt.carry
			h.LoadProgram(0x8000, tt.opcode, 0x10)
			h.CPU.Step()
			h.AssertMemory(t, tt.name, 0x0010, tt.wantMem)
			if h.CPU.A != tt.wantA {
				t.Errorf("Expected A=0x%02X, got 0x%02X", tt.wantA, h.CPU.A)
			}
			if h.CPU.C != tt.wantC {
				t.Errorf("Expected C=%v, got %v", tt.wantC, h.CPU.C)
			}
		})
	}
}

func TestUnofficialImmediateOps(t *testing.T) {
	h := NewCPUTestHelper()
	h.CPU.A = 0xFF
	h.LoadProgram(0x8000, 0x0B, 0x80) // ANC #$80
	h.CPU.Step()
	if h.CPU.A != 0x80 || !h.CPU.C {
		t.Errorf("ANC: got A=0x%02X C=%v", h.CPU.A, h.CPU.C)
	}

	h = NewCPUTestHelper()
	h.CPU.A = 0xFF
	h.LoadProgram(0x8000, 0x4B, 0x03) // ALR #$03
	h.CPU.Step()
	if h.CPU.A != 0x01 || !h.CPU.C {
		t.Errorf("ALR: got A=0x%02X C=%v", h.CPU.A, h.CPU.C)
	}

	h = NewCPUTestHelper()
	h.CPU.A = 0x0F
	h.CPU.X = 0x3C
	h.LoadProgram(0x8000, 0xCB, 0x02) // AXS #$02
	h.CPU.Step()
	if h.CPU.X != 0x0A || !h.CPU.C {
		t.Errorf("AXS: got X=0x%02X C=%v", h.CPU.X, h.CPU.C)
	}
}

func TestUnofficialNOPsConsumeOperands(t *testing.T) {
	tests := []struct {
		opcode uint8
		wantPC uint16
	}{
		{0x1A, 0x8001},
		{0x80, 0x8002},
		{0x04, 0x8002},
		{0x14, 0x8002},
		{0x0C, 0x8003},
		{0x1C, 0x8003},
	}
	for _, tt := range tests {
		h := NewCPUTestHelper()
		h.CPU.A = 0x5A
		h.LoadProgram(0x8000, tt.opcode, 0x00, 0x02)
		h.CPU.Step()
		h.AssertRegisters(t, Lookup(tt.opcode).Op.String(), 0x5A, 0, 0, 0xFD, tt.wantPC)
	}
}

func TestImmediateOperandBypassesBus(t *testing.T) {
	h := NewCPUTestHelper()
	h.LoadProgram(0x8000, 0xA9, 0x42)
	h.CPU.Step()
	if h.CPU.A != 0x42 {
		t.Fatalf("Expected A=0x42, got 0x%02X", h.CPU.A)
	}
	// The operand byte is fetched once by the decoder, not again as data
	if reads := h.Memory.GetReadCount(0x8001); reads != 1 {
		t.Errorf("Expected one read of the operand byte, got %d", reads)
	}
	if reads := h.Memory.GetReadCount(0x0042); reads != 0 {
		t.Errorf("Immediate value must not be used as an address, got %d reads", reads)
	}
}
