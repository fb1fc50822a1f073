package memory

import "nescore/internal/cartridge"

// PPUMemory represents the PPU's address space ($0000-$3FFF)
type PPUMemory struct {
	vram       [0x1000]uint8 // room for four-screen layouts
	paletteRAM [32]uint8
	cartridge  CartridgeInterface
	mirroring  cartridge.MirrorMode
}

// NewPPUMemory creates a new PPU memory instance
func NewPPUMemory(cart CartridgeInterface, mirroring cartridge.MirrorMode) *PPUMemory {
	return &PPUMemory{
		cartridge: cart,
		mirroring: mirroring,
	}
}

// Mirroring returns the nametable arrangement
func (pm *PPUMemory) Mirroring() cartridge.MirrorMode {
	return pm.mirroring
}

// Read reads from PPU memory space
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.cartridge == nil {
			return 0
		}
		return pm.cartridge.ReadCHR(address)
	case address < 0x3F00:
		// $3000-$3EFF mirrors $2000-$2EFF
		return pm.vram[pm.nametableIndex(address)]
	default:
		return pm.paletteRAM[paletteIndex(address)]
	}
}

// Write writes to PPU memory space
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.cartridge != nil {
			pm.cartridge.WriteCHR(address, value)
		}
	case address < 0x3F00:
		pm.vram[pm.nametableIndex(address)] = value
	default:
		pm.paletteRAM[paletteIndex(address)] = value & 0x3F
	}
}

// nametableIndex maps a nametable address to its VRAM offset
func (pm *PPUMemory) nametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	table := address >> 10
	offset := address & 0x03FF

	switch pm.mirroring {
	case cartridge.MirrorHorizontal:
		// $2000=$2400, $2800=$2C00
		return (table>>1)*0x400 + offset
	case cartridge.MirrorVertical:
		// $2000=$2800, $2400=$2C00
		return (table&1)*0x400 + offset
	case cartridge.MirrorSingleScreen0:
		return offset
	case cartridge.MirrorSingleScreen1:
		return 0x400 + offset
	case cartridge.MirrorFourScreen:
		return table*0x400 + offset
	}
	return offset
}

// paletteIndex folds palette mirrors, including the sprite backdrop entries
func paletteIndex(address uint16) uint16 {
	index := address & 0x1F
	if index >= 0x10 && index&0x03 == 0 {
		index -= 0x10
	}
	return index
}
