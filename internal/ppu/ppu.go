// Package ppu implements the CPU-visible register interface of the NES
// Picture Processing Unit (2C02).
package ppu

import "nescore/internal/memory"

// CPU-visible register addresses
const (
	PPUCTRL   = 0x2000
	PPUMASK   = 0x2001
	PPUSTATUS = 0x2002
	OAMADDR   = 0x2003
	OAMDATA   = 0x2004
	PPUSCROLL = 0x2005
	PPUADDR   = 0x2006
	PPUDATA   = 0x2007
)

// Frame timing
const (
	CyclesPerScanline = 341
	ScanlinesPerFrame = 262
	VBlankScanline    = 241
	PreRenderScanline = 261
)

const (
	statusSpriteOverflow = 0x20
	statusSprite0Hit     = 0x40
	statusVBlank         = 0x80
)

// Logger receives diagnostics about unsupported register traffic
type Logger interface {
	Warnf(tag, format string, args ...interface{})
}

// Control holds the fields decoded from a PPUCTRL write
type Control struct {
	NametableBase         uint16 // $2000, $2400, $2800 or $2C00
	Increment             uint16 // 1 across, 32 down
	SpritePatternBase     uint16
	BackgroundPatternBase uint16
	SpriteHeight          uint8 // 8 or 16
	NMIEnabled            bool
}

func decodeControl(value uint8) Control {
	c := Control{
		NametableBase: 0x2000 + uint16(value&0x03)*0x400,
		Increment:     1,
		SpriteHeight:  8,
		NMIEnabled:    value&0x80 != 0,
	}
	if value&0x04 != 0 {
		c.Increment = 32
	}
	if value&0x08 != 0 {
		c.SpritePatternBase = 0x1000
	}
	if value&0x10 != 0 {
		c.BackgroundPatternBase = 0x1000
	}
	if value&0x20 != 0 {
		c.SpriteHeight = 16
	}
	return c
}

// Byte encodes the control fields back into a PPUCTRL value. The
// master/slave select bit 6 is not kept and reads as 0.
func (c Control) Byte() uint8 {
	value := uint8((c.NametableBase-0x2000)/0x400) & 0x03
	if c.Increment == 32 {
		value |= 0x04
	}
	if c.SpritePatternBase == 0x1000 {
		value |= 0x08
	}
	if c.BackgroundPatternBase == 0x1000 {
		value |= 0x10
	}
	if c.SpriteHeight == 16 {
		value |= 0x20
	}
	if c.NMIEnabled {
		value |= 0x80
	}
	return value
}

// Mask holds the fields decoded from a PPUMASK write
type Mask struct {
	Grayscale          bool
	ShowBackgroundLeft bool
	ShowSpritesLeft    bool
	ShowBackground     bool
	ShowSprites        bool
	Emphasis           uint8 // RGB emphasis bits 5-7, shifted down
}

func decodeMask(value uint8) Mask {
	return Mask{
		Grayscale:          value&0x01 != 0,
		ShowBackgroundLeft: value&0x02 != 0,
		ShowSpritesLeft:    value&0x04 != 0,
		ShowBackground:     value&0x08 != 0,
		ShowSprites:        value&0x10 != 0,
		Emphasis:           value >> 5,
	}
}

// Byte encodes the mask fields back into a PPUMASK value
func (m Mask) Byte() uint8 {
	value := m.Emphasis << 5
	for i, set := range []bool{m.Grayscale, m.ShowBackgroundLeft, m.ShowSpritesLeft, m.ShowBackground, m.ShowSprites} {
		if set {
			value |= 1 << i
		}
	}
	return value
}

// PPU represents the register file and timing counters of the 2C02
type PPU struct {
	control Control
	mask    Mask
	status  uint8
	oamAddr uint8

	// Internal latches
	v uint16 // current VRAM address (14 bits)
	t uint16 // temporary VRAM address
	x uint8  // fine X scroll
	w bool   // first/second write toggle

	readBuffer uint8
	oam        [256]uint8

	memory *memory.PPUMemory
	logger Logger

	scanline int
	cycle    int
	frame    uint64
}

// New creates a new PPU instance
func New() *PPU {
	p := &PPU{}
	p.Reset()
	return p
}

// Reset returns the registers and counters to their power-up state
func (p *PPU) Reset() {
	p.control = decodeControl(0)
	p.mask = decodeMask(0)
	p.status = 0
	p.oamAddr = 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.readBuffer = 0
	p.oam = [256]uint8{}
	p.scanline = 0
	p.cycle = 0
	p.frame = 0
}

// SetMemory sets the PPU memory interface
func (p *PPU) SetMemory(mem *memory.PPUMemory) {
	p.memory = mem
}

// SetLogger sets the diagnostics sink
func (p *PPU) SetLogger(l Logger) {
	p.logger = l
}

func (p *PPU) warnf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warnf("PPU", format, args...)
	}
}

// ReadRegister reads from a PPU register (CPU $2000-$2007)
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case PPUSTATUS:
		status := p.status
		p.status &^= statusVBlank
		p.w = false
		return status
	case OAMDATA:
		return p.oam[p.oamAddr]
	case PPUDATA:
		return p.readData()
	case PPUCTRL, PPUMASK, OAMADDR, PPUSCROLL, PPUADDR:
		// Write-only
		return 0
	}
	p.warnf("read from unsupported register $%04X", address)
	return 0
}

// WriteRegister writes to a PPU register (CPU $2000-$2007)
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case PPUCTRL:
		p.control = decodeControl(value)
		p.t = (p.t & 0xF3FF) | (uint16(value&0x03) << 10)
	case PPUMASK:
		p.mask = decodeMask(value)
	case PPUSTATUS:
		// Read-only
	case OAMADDR:
		p.oamAddr = value
	case OAMDATA:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case PPUSCROLL:
		p.writeScroll(value)
	case PPUADDR:
		p.writeAddress(value)
	case PPUDATA:
		p.writeData(value)
	default:
		p.warnf("write $%02X to unsupported register $%04X ignored", value, address)
	}
}

func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | uint16(value>>3)
		p.x = value & 0x07
	} else {
		p.t = (p.t & 0x8FFF) | (uint16(value&0x07) << 12)
		p.t = (p.t & 0xFC1F) | (uint16(value&0xF8) << 2)
	}
	p.w = !p.w
}

// writeAddress composes the VRAM address, high byte first
func (p *PPU) writeAddress(value uint8) {
	if !p.w {
		p.t = (p.t & 0x00FF) | (uint16(value&0x3F) << 8)
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
	}
	p.w = !p.w
}

// readData implements one-read-behind PPUDATA reads. Palette reads are
// returned directly and refill the buffer from the nametable underneath.
func (p *PPU) readData() uint8 {
	var data uint8
	if p.memory != nil {
		if p.v >= 0x3F00 {
			data = p.memory.Read(p.v)
			p.readBuffer = p.memory.Read(p.v - 0x1000)
		} else {
			data = p.readBuffer
			p.readBuffer = p.memory.Read(p.v)
		}
	}
	p.incrementAddress()
	return data
}

func (p *PPU) writeData(value uint8) {
	if p.memory != nil {
		p.memory.Write(p.v, value)
	}
	p.incrementAddress()
}

func (p *PPU) incrementAddress() {
	p.v = (p.v + p.control.Increment) & 0x3FFF
}

// WriteOAM writes to OAM directly
func (p *PPU) WriteOAM(address uint8, value uint8) {
	p.oam[address] = value
}

// Step advances the PPU by one cycle. The vblank flag is raised at
// scanline 241 cycle 1 and dropped on the pre-render line.
func (p *PPU) Step() {
	p.cycle++
	if p.cycle >= CyclesPerScanline {
		p.cycle = 0
		p.scanline++
		if p.scanline >= ScanlinesPerFrame {
			p.scanline = 0
			p.frame++
		}
	}

	if p.cycle != 1 {
		return
	}
	switch p.scanline {
	case VBlankScanline:
		p.status |= statusVBlank
	case PreRenderScanline:
		p.status &^= statusVBlank | statusSprite0Hit | statusSpriteOverflow
	}
}

// Scanline returns the current scanline (0-261)
func (p *PPU) Scanline() int {
	return p.scanline
}

// Cycle returns the current cycle within the scanline (0-340)
func (p *PPU) Cycle() int {
	return p.cycle
}

// Frame returns the number of completed frames
func (p *PPU) Frame() uint64 {
	return p.frame
}

// NMIEnabled reports whether PPUCTRL requests an NMI on vblank
func (p *PPU) NMIEnabled() bool {
	return p.control.NMIEnabled
}

// InVBlank reports whether the vblank status flag is set
func (p *PPU) InVBlank() bool {
	return p.status&statusVBlank != 0
}

// Control returns the decoded PPUCTRL fields
func (p *PPU) Control() Control {
	return p.control
}

// Mask returns the decoded PPUMASK fields
func (p *PPU) Mask() Mask {
	return p.mask
}

// Address returns the current VRAM address
func (p *PPU) Address() uint16 {
	return p.v
}

// OAMAddress returns OAMADDR
func (p *PPU) OAMAddress() uint8 {
	return p.oamAddr
}

// OAM returns a copy of object attribute memory
func (p *PPU) OAM() [256]uint8 {
	return p.oam
}

// Memory returns the attached VRAM, or nil
func (p *PPU) Memory() *memory.PPUMemory {
	return p.memory
}

// State is the register and timing state of the PPU
type State struct {
	Control    Control    `json:"control"`
	Mask       Mask       `json:"mask"`
	Status     uint8      `json:"status"`
	OAMAddr    uint8      `json:"oam_addr"`
	V          uint16     `json:"v"`
	T          uint16     `json:"t"`
	X          uint8      `json:"x"`
	W          bool       `json:"w"`
	ReadBuffer uint8      `json:"read_buffer"`
	OAM        [256]uint8 `json:"oam"`
	Scanline   int        `json:"scanline"`
	Cycle      int        `json:"cycle"`
	Frame      uint64     `json:"frame"`
}

// State captures the PPU state
func (p *PPU) State() State {
	return State{
		Control:    p.control,
		Mask:       p.mask,
		Status:     p.status,
		OAMAddr:    p.oamAddr,
		V:          p.v,
		T:          p.t,
		X:          p.x,
		W:          p.w,
		ReadBuffer: p.readBuffer,
		OAM:        p.oam,
		Scanline:   p.scanline,
		Cycle:      p.cycle,
		Frame:      p.frame,
	}
}

// Restore loads a state captured by State
func (p *PPU) Restore(s State) {
	p.control = s.Control
	p.mask = s.Mask
	p.status = s.Status
	p.oamAddr = s.OAMAddr
	p.v, p.t, p.x, p.w = s.V&0x3FFF, s.T&0x7FFF, s.X&0x07, s.W
	p.readBuffer = s.ReadBuffer
	p.oam = s.OAM
	p.scanline = s.Scanline % ScanlinesPerFrame
	p.cycle = s.Cycle % CyclesPerScanline
	p.frame = s.Frame
}
