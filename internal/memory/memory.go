// Package memory implements the CPU and PPU address maps for the NES.
package memory

// OAMDMAPort is the CPU address that starts a sprite DMA transfer
const OAMDMAPort = 0x4014

// ControllerPort is the CPU address of the first joypad
const ControllerPort = 0x4016

// Memory represents the NES memory map as seen by the CPU
type Memory struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [0x800]uint8

	ppuRegisters PPUInterface
	inputSystem  InputInterface
	cartridge    CartridgeInterface

	// Called after an OAM DMA copy so the owner can stall the CPU
	dmaListener func(page uint8)
}

// PPUInterface defines the interface for PPU register access
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// InputInterface defines the interface for controller port access
type InputInterface interface {
	Read() uint8
	Write(value uint8)
}

// CartridgeInterface defines the interface for cartridge access
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// New creates a new Memory instance
func New(ppu PPUInterface, cart CartridgeInterface) *Memory {
	return &Memory{
		ppuRegisters: ppu,
		cartridge:    cart,
	}
}

// SetInputSystem sets the input system for controller access
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetDMAListener registers the function called after each OAM DMA copy
func (m *Memory) SetDMAListener(listener func(page uint8)) {
	m.dmaListener = listener
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return m.ram[address&0x07FF]

	case address < 0x4000:
		// PPU registers (mirrored every 8 bytes)
		return m.ppuRegisters.ReadRegister(0x2000 | (address & 0x0007))

	case address == ControllerPort:
		if m.inputSystem != nil {
			return m.inputSystem.Read()
		}
		return 0

	case address < 0x6000:
		// APU, second controller and expansion area are not mapped
		return 0

	default:
		if m.cartridge != nil {
			return m.cartridge.ReadPRG(address)
		}
		return 0
	}
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppuRegisters.WriteRegister(0x2000|(address&0x0007), value)

	case address == OAMDMAPort:
		m.performOAMDMA(value)

	case address == ControllerPort:
		if m.inputSystem != nil {
			m.inputSystem.Write(value)
		}

	case address < 0x6000:
		// Unmapped I/O, ignored

	default:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}
	}
}

// Peek reads address without side effects for debuggers and traces. The
// PPU register and I/O range $2000-$401F is not readable this way and
// reports ok false.
func (m *Memory) Peek(address uint16) (value uint8, ok bool) {
	if address >= 0x2000 && address < 0x4020 {
		return 0, false
	}
	return m.Read(address), true
}

// performOAMDMA copies one CPU page into OAM through OAMDATA, starting at
// the current OAMADDR
func (m *Memory) performOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		m.ppuRegisters.WriteRegister(0x2004, m.Read(base+i))
	}
	if m.dmaListener != nil {
		m.dmaListener(page)
	}
}

// RAM exposes the 2KB internal RAM for the monitor
func (m *Memory) RAM() []uint8 {
	return m.ram[:]
}
