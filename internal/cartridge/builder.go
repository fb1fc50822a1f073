package cartridge

import (
	"bytes"
	"fmt"
)

// ROMBuilder assembles iNES images in memory. Tests across the module use
// it instead of shipping binary fixtures.
type ROMBuilder struct {
	signature  [4]uint8
	prgBanks   uint8
	chrBanks   uint8
	mapperID   uint8
	mirroring  MirrorMode
	battery    bool
	trainer    []uint8
	prg        map[uint16][]uint8 // keyed by CPU address
	chr        []uint8
	resetVec   uint16
	nmiVec     uint16
	irqVec     uint16
	truncateBy int
}

// NewROMBuilder starts a one-bank NROM image with an 8KB CHR ROM and every
// vector pointing at 0x8000
func NewROMBuilder() *ROMBuilder {
	return &ROMBuilder{
		signature: Signature,
		prgBanks:  1,
		chrBanks:  1,
		mirroring: MirrorHorizontal,
		prg:       make(map[uint16][]uint8),
		resetVec:  0x8000,
		nmiVec:    0x8000,
		irqVec:    0x8000,
	}
}

// WithPRGBanks sets the PRG ROM size in 16KB units
func (b *ROMBuilder) WithPRGBanks(n uint8) *ROMBuilder {
	b.prgBanks = n
	return b
}

// WithCHRBanks sets the CHR ROM size in 8KB units (0 = CHR RAM)
func (b *ROMBuilder) WithCHRBanks(n uint8) *ROMBuilder {
	b.chrBanks = n
	return b
}

// WithMapper sets the mapper ID
func (b *ROMBuilder) WithMapper(id uint8) *ROMBuilder {
	b.mapperID = id
	return b
}

// WithMirroring sets the nametable mirroring mode
func (b *ROMBuilder) WithMirroring(mode MirrorMode) *ROMBuilder {
	b.mirroring = mode
	return b
}

// WithBattery marks PRG RAM as battery backed
func (b *ROMBuilder) WithBattery() *ROMBuilder {
	b.battery = true
	return b
}

// WithTrainer adds a 512-byte trainer holding data
func (b *ROMBuilder) WithTrainer(data []uint8) *ROMBuilder {
	b.trainer = make([]uint8, TrainerSize)
	copy(b.trainer, data)
	return b
}

// WithSignature overrides the magic, for malformed-image tests
func (b *ROMBuilder) WithSignature(sig [4]uint8) *ROMBuilder {
	b.signature = sig
	return b
}

// WithCode places bytes at a CPU address in 0x8000-0xFFFF
func (b *ROMBuilder) WithCode(address uint16, code ...uint8) *ROMBuilder {
	b.prg[address] = append([]uint8(nil), code...)
	return b
}

// WithCHR fills the start of CHR ROM
func (b *ROMBuilder) WithCHR(data []uint8) *ROMBuilder {
	b.chr = append([]uint8(nil), data...)
	return b
}

// WithResetVector sets the reset vector
func (b *ROMBuilder) WithResetVector(address uint16) *ROMBuilder {
	b.resetVec = address
	return b
}

// WithNMIVector sets the NMI vector
func (b *ROMBuilder) WithNMIVector(address uint16) *ROMBuilder {
	b.nmiVec = address
	return b
}

// WithIRQVector sets the IRQ/BRK vector
func (b *ROMBuilder) WithIRQVector(address uint16) *ROMBuilder {
	b.irqVec = address
	return b
}

// Truncate drops n bytes from the end of the built image
func (b *ROMBuilder) Truncate(n int) *ROMBuilder {
	b.truncateBy = n
	return b
}

// Build generates the image bytes
func (b *ROMBuilder) Build() ([]byte, error) {
	var buf bytes.Buffer

	flags6 := b.mapperID << 4
	switch b.mirroring {
	case MirrorVertical:
		flags6 |= 0x01
	case MirrorFourScreen:
		flags6 |= 0x08
	}
	if b.battery {
		flags6 |= 0x02
	}
	if b.trainer != nil {
		flags6 |= 0x04
	}

	buf.Write(b.signature[:])
	buf.WriteByte(b.prgBanks)
	buf.WriteByte(b.chrBanks)
	buf.WriteByte(flags6)
	buf.WriteByte(b.mapperID & 0xF0)
	buf.Write(make([]byte, 8))

	if b.trainer != nil {
		buf.Write(b.trainer)
	}

	prg := make([]uint8, int(b.prgBanks)*PRGBankSize)
	if len(prg) > 0 {
		for address, code := range b.prg {
			if address < 0x8000 {
				return nil, fmt.Errorf("code at $%04X is outside PRG ROM", address)
			}
			offset := int(address-0x8000) % len(prg)
			if offset+len(code) > len(prg) {
				return nil, fmt.Errorf("code at $%04X overruns PRG ROM", address)
			}
			copy(prg[offset:], code)
		}
		vectors := len(prg) - 6
		for i, v := range []uint16{b.nmiVec, b.resetVec, b.irqVec} {
			prg[vectors+2*i] = uint8(v)
			prg[vectors+2*i+1] = uint8(v >> 8)
		}
	}
	buf.Write(prg)

	chr := make([]uint8, int(b.chrBanks)*CHRBankSize)
	copy(chr, b.chr)
	buf.Write(chr)

	data := buf.Bytes()
	if b.truncateBy > 0 && b.truncateBy <= len(data) {
		data = data[:len(data)-b.truncateBy]
	}
	return data, nil
}

// BuildCartridge generates the image and loads it with opts
func (b *ROMBuilder) BuildCartridge(opts LoadOptions) (*Cartridge, error) {
	data, err := b.Build()
	if err != nil {
		return nil, err
	}
	return LoadFromBytes(data, opts)
}
