// Package cartridge implements iNES ROM loading and the NROM mapper.
package cartridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	HeaderSize  = 16
	TrainerSize = 512
	PRGBankSize = 0x4000 // 16KB
	CHRBankSize = 0x2000 // 8KB
	PRGRAMSize  = 0x2000 // 8KB
)

// Signature is the magic that opens every iNES image
var Signature = [4]uint8{'N', 'E', 'S', 0x1A}

var (
	// ErrInvalidSignature is returned in strict mode when the magic is wrong
	ErrInvalidSignature = errors.New("invalid iNES signature")
	// ErrUnsupportedMapper is returned in strict mode for mappers other than NROM
	ErrUnsupportedMapper = errors.New("unsupported mapper")
	// ErrTruncated is returned when the file ends before the data the header promises
	ErrTruncated = errors.New("truncated ROM image")
)

// MirrorMode represents nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorSingleScreen0:
		return "single-screen-0"
	case MirrorSingleScreen1:
		return "single-screen-1"
	case MirrorFourScreen:
		return "four-screen"
	}
	return fmt.Sprintf("MirrorMode(%d)", uint8(m))
}

// Mapper translates CPU and PPU addresses into cartridge storage
type Mapper interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// Header is the 16-byte iNES header
type Header struct {
	Signature [4]uint8
	PRGBanks  uint8 // in 16KB units
	CHRBanks  uint8 // in 8KB units
	Flags6    uint8
	Flags7    uint8
	Flags8    uint8
	Flags9    uint8
	Flags10   uint8
	Unused    [5]uint8
}

// Valid reports whether the signature matches the iNES magic
func (h Header) Valid() bool {
	return h.Signature == Signature
}

// MapperID combines the mapper nibbles of flags 6 and 7
func (h Header) MapperID() uint8 {
	return h.Flags7&0xF0 | h.Flags6>>4
}

// HasTrainer reports whether a 512-byte trainer follows the header
func (h Header) HasTrainer() bool {
	return h.Flags6&0x04 != 0
}

// HasBattery reports whether PRG-RAM is battery backed
func (h Header) HasBattery() bool {
	return h.Flags6&0x02 != 0
}

// Mirroring decodes the nametable arrangement from flags 6
func (h Header) Mirroring() MirrorMode {
	switch {
	case h.Flags6&0x08 != 0:
		return MirrorFourScreen
	case h.Flags6&0x01 != 0:
		return MirrorVertical
	}
	return MirrorHorizontal
}

// Logger receives loader diagnostics
type Logger interface {
	Warnf(tag, format string, args ...interface{})
}

// LoadOptions controls how malformed images are treated. The zero value
// is lenient: a bad signature or unknown mapper is reported and loading
// continues with NROM semantics.
type LoadOptions struct {
	Strict bool
	Logger Logger
}

func (o LoadOptions) warnf(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger.Warnf("CART", format, args...)
	}
}

// Cartridge represents a NES cartridge
type Cartridge struct {
	header  Header
	trainer []uint8
	prgROM  []uint8
	chrROM  []uint8
	prgRAM  [PRGRAMSize]uint8

	hasCHRRAM bool
	mapper    Mapper
}

// LoadFromFile loads a cartridge from an iNES file
func LoadFromFile(filename string, opts LoadOptions) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cart, err := LoadFromReader(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cart, nil
}

// LoadFromBytes loads a cartridge from an in-memory image
func LoadFromBytes(data []byte, opts LoadOptions) (*Cartridge, error) {
	return LoadFromReader(bytes.NewReader(data), opts)
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader, opts LoadOptions) (*Cartridge, error) {
	var header Header
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}

	if !header.Valid() {
		if opts.Strict {
			return nil, fmt.Errorf("%w: % X", ErrInvalidSignature, header.Signature[:])
		}
		opts.warnf("invalid signature % X, loading anyway", header.Signature[:])
	}

	if id := header.MapperID(); id != 0 {
		if opts.Strict {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedMapper, id)
		}
		opts.warnf("mapper %d is not supported, treating as NROM", id)
	}

	cart := &Cartridge{header: header}

	if header.HasTrainer() {
		cart.trainer = make([]uint8, TrainerSize)
		if _, err := io.ReadFull(r, cart.trainer); err != nil {
			return nil, fmt.Errorf("%w: trainer: %v", ErrTruncated, err)
		}
	}

	cart.prgROM = make([]uint8, int(header.PRGBanks)*PRGBankSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, fmt.Errorf("%w: PRG ROM (%d banks): %v", ErrTruncated, header.PRGBanks, err)
	}

	if header.CHRBanks > 0 {
		cart.chrROM = make([]uint8, int(header.CHRBanks)*CHRBankSize)
		if _, err := io.ReadFull(r, cart.chrROM); err != nil {
			return nil, fmt.Errorf("%w: CHR ROM (%d banks): %v", ErrTruncated, header.CHRBanks, err)
		}
	} else {
		cart.chrROM = make([]uint8, CHRBankSize)
		cart.hasCHRRAM = true
	}

	cart.mapper = NewMapper000(cart)
	return cart, nil
}

// Header returns the parsed iNES header
func (c *Cartridge) Header() Header {
	return c.header
}

// MapperID returns the mapper number declared by the header
func (c *Cartridge) MapperID() uint8 {
	return c.header.MapperID()
}

// Trainer returns the 512-byte trainer, or nil when absent
func (c *Cartridge) Trainer() []uint8 {
	return c.trainer
}

// PRGRAM exposes the 8KB work RAM. Test ROMs report results through it.
func (c *Cartridge) PRGRAM() []uint8 {
	return c.prgRAM[:]
}

// CHR returns the pattern table storage
func (c *Cartridge) CHR() []uint8 {
	return c.chrROM
}

// HasCHRRAM reports whether pattern memory is writable
func (c *Cartridge) HasCHRRAM() bool {
	return c.hasCHRRAM
}

// ReadPRG reads from PRG ROM/RAM
func (c *Cartridge) ReadPRG(address uint16) uint8 {
	return c.mapper.ReadPRG(address)
}

// WritePRG writes to PRG ROM/RAM
func (c *Cartridge) WritePRG(address uint16, value uint8) {
	c.mapper.WritePRG(address, value)
}

// ReadCHR reads from CHR ROM/RAM
func (c *Cartridge) ReadCHR(address uint16) uint8 {
	return c.mapper.ReadCHR(address)
}

// WriteCHR writes to CHR ROM/RAM
func (c *Cartridge) WriteCHR(address uint16, value uint8) {
	c.mapper.WriteCHR(address, value)
}

// GetMirrorMode returns the cartridge's mirroring mode
func (c *Cartridge) GetMirrorMode() MirrorMode {
	return c.header.Mirroring()
}

func (c *Cartridge) String() string {
	return fmt.Sprintf("mapper %d, PRG %dx16KB, CHR %dx8KB, %s mirroring",
		c.MapperID(), c.header.PRGBanks, c.header.CHRBanks, c.GetMirrorMode())
}
