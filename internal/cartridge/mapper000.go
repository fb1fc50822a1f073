package cartridge

// Mapper000 implements NROM (mapper 0), the baseline board with no bank
// switching:
// - 0x6000-0x7FFF: 8KB PRG RAM
// - 0x8000-0xFFFF: 16KB or 32KB PRG ROM; a single bank is mirrored at 0xC000
// - PPU 0x0000-0x1FFF: 8KB CHR ROM, or CHR RAM when the header declares none
type Mapper000 struct {
	cart     *Cartridge
	prgBanks int
}

// NewMapper000 creates a new NROM mapper
func NewMapper000(cart *Cartridge) *Mapper000 {
	return &Mapper000{
		cart:     cart,
		prgBanks: len(cart.prgROM) / PRGBankSize,
	}
}

// ReadPRG reads from PRG ROM/RAM
func (m *Mapper000) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		if len(m.cart.prgROM) == 0 {
			return 0
		}
		offset := int(address - 0x8000)
		if m.prgBanks == 1 {
			offset &= PRGBankSize - 1
		}
		return m.cart.prgROM[offset%len(m.cart.prgROM)]
	case address >= 0x6000:
		return m.cart.prgRAM[int(address-0x6000)%PRGRAMSize]
	}
	return 0
}

// WritePRG writes to PRG RAM. Writes to ROM are ignored.
func (m *Mapper000) WritePRG(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		m.cart.prgRAM[int(address-0x6000)%PRGRAMSize] = value
	}
}

// ReadCHR reads from CHR ROM/RAM
func (m *Mapper000) ReadCHR(address uint16) uint8 {
	if int(address) < len(m.cart.chrROM) {
		return m.cart.chrROM[address]
	}
	return 0
}

// WriteCHR writes to CHR RAM. Writes to CHR ROM are ignored.
func (m *Mapper000) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM && int(address) < len(m.cart.chrROM) {
		m.cart.chrROM[address] = value
	}
}
