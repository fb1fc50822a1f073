package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nescore/internal/bus"
	"nescore/internal/cpu"
	"nescore/internal/ppu"
)

const stateVersion = "1"

// vramSpan covers the four logical nametables; palette RAM follows it
const (
	vramBase    = 0x2000
	vramSpan    = 0x1000
	paletteBase = 0x3F00
	paletteSpan = 0x20
)

// ErrStateMismatch is returned when a state belongs to another ROM
var ErrStateMismatch = errors.New("save state is for a different ROM")

// StateManager manages save states on disk
type StateManager struct {
	saveDirectory string
	maxSlots      int
}

// SaveState represents a saved machine state
type SaveState struct {
	// Metadata
	Version     string    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	ROMName     string    `json:"rom_name"`
	ROMChecksum uint32    `json:"rom_checksum"`
	SlotNumber  int       `json:"slot_number"`

	CPUState    CPUStateData `json:"cpu_state"`
	PPUState    ppu.State    `json:"ppu_state"`
	MemoryState MemoryData   `json:"memory_state"`
	Buttons     [8]bool      `json:"buttons"`
}

// CPUStateData represents CPU state for save files
type CPUStateData struct {
	PC     uint16 `json:"pc"`
	A      uint8  `json:"a"`
	X      uint8  `json:"x"`
	Y      uint8  `json:"y"`
	SP     uint8  `json:"sp"`
	P      uint8  `json:"p"`
	Cycles uint64 `json:"cycles"`
	Stall  int    `json:"stall"`
}

// MemoryData holds the writable memory regions
type MemoryData struct {
	RAM     []uint8 `json:"ram"`
	PRGRAM  []uint8 `json:"prg_ram"`
	VRAM    []uint8 `json:"vram"`
	Palette []uint8 `json:"palette"`
	CHRRAM  []uint8 `json:"chr_ram,omitempty"`
}

// StateSlotInfo contains information about a save state slot
type StateSlotInfo struct {
	SlotNumber int       `json:"slot_number"`
	Used       bool      `json:"used"`
	Timestamp  time.Time `json:"timestamp"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
}

// NewStateManager creates a new state manager
func NewStateManager(saveDirectory string) *StateManager {
	return &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      10,
	}
}

// Capture records the machine state held by b
func Capture(b *bus.Bus, romName string) *SaveState {
	regs := b.CPU.Registers()
	state := &SaveState{
		Version:     stateVersion,
		Timestamp:   time.Now(),
		ROMName:     romName,
		ROMChecksum: romChecksum(b),
		CPUState: CPUStateData{
			PC:     regs.PC,
			A:      regs.A,
			X:      regs.X,
			Y:      regs.Y,
			SP:     regs.SP,
			P:      regs.P,
			Cycles: regs.Cycles,
			Stall:  regs.Stall,
		},
		PPUState: b.PPU.State(),
		Buttons:  b.Controller.State(),
	}

	mem := &state.MemoryState
	mem.RAM = append([]uint8(nil), b.Memory.RAM()...)
	mem.PRGRAM = append([]uint8(nil), b.Cartridge.PRGRAM()...)
	if b.Cartridge.HasCHRRAM() {
		mem.CHRRAM = append([]uint8(nil), b.Cartridge.CHR()...)
	}
	if vram := b.PPU.Memory(); vram != nil {
		mem.VRAM = make([]uint8, vramSpan)
		for i := range mem.VRAM {
			mem.VRAM[i] = vram.Read(uint16(vramBase + i))
		}
		mem.Palette = make([]uint8, paletteSpan)
		for i := range mem.Palette {
			mem.Palette[i] = vram.Read(uint16(paletteBase + i))
		}
	}
	return state
}

// Restore loads state into b. The bus is resynchronized afterwards so the
// PPU continues from the restored CPU cycle count.
func Restore(b *bus.Bus, state *SaveState) error {
	if state.Version != stateVersion {
		return fmt.Errorf("unsupported save state version %q", state.Version)
	}
	if state.ROMChecksum != romChecksum(b) {
		return ErrStateMismatch
	}

	mem := state.MemoryState
	if len(mem.RAM) != len(b.Memory.RAM()) {
		return fmt.Errorf("save state RAM is %d bytes, want %d", len(mem.RAM), len(b.Memory.RAM()))
	}
	copy(b.Memory.RAM(), mem.RAM)
	copy(b.Cartridge.PRGRAM(), mem.PRGRAM)
	if b.Cartridge.HasCHRRAM() {
		copy(b.Cartridge.CHR(), mem.CHRRAM)
	}
	if vram := b.PPU.Memory(); vram != nil {
		for i, v := range mem.VRAM {
			vram.Write(uint16(vramBase+i), v)
		}
		for i, v := range mem.Palette {
			vram.Write(uint16(paletteBase+i), v)
		}
	}

	c := state.CPUState
	b.CPU.Restore(cpu.Registers{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP, P: c.P,
		PC:     c.PC,
		Cycles: c.Cycles,
		Stall:  c.Stall,
	})
	b.PPU.Restore(state.PPUState)
	b.Controller.SetButtons(state.Buttons)
	b.Resync()
	return nil
}

// romChecksum identifies the loaded program by its PRG ROM contents
func romChecksum(b *bus.Bus) uint32 {
	h := crc32.NewIEEE()
	for addr := 0x8000; addr <= 0xFFFF; addr++ {
		h.Write([]byte{b.Cartridge.ReadPRG(uint16(addr))})
	}
	return h.Sum32()
}

// SaveState saves the current machine state to a slot
func (sm *StateManager) SaveState(b *bus.Bus, slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	if b == nil {
		return errors.New("bus cannot be nil")
	}

	state := Capture(b, filepath.Base(romPath))
	state.SlotNumber = slot
	if err := WriteStateFile(state, sm.getSlotFilePath(slot, romPath)); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// LoadState loads a saved state from a slot
func (sm *StateManager) LoadState(b *bus.Bus, slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	if b == nil {
		return errors.New("bus cannot be nil")
	}

	filePath := sm.getSlotFilePath(slot, romPath)
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("save state not found in slot %d", slot)
	}

	state, err := ReadStateFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if err := Restore(b, state); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	return nil
}

// WriteStateFile saves a state as indented JSON
func WriteStateFile(state *SaveState, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ReadStateFile loads a state written by WriteStateFile
func ReadStateFile(filePath string) (*SaveState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var state SaveState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

func (sm *StateManager) checkSlot(slot int) error {
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	return nil
}

// getSlotFilePath generates the file path for a save slot
func (sm *StateManager) getSlotFilePath(slot int, romPath string) string {
	romName := filepath.Base(romPath)
	romName = strings.TrimSuffix(romName, filepath.Ext(romName))
	return filepath.Join(sm.saveDirectory, fmt.Sprintf("%s_slot_%d.json", romName, slot))
}

// GetSlotInfo returns information about all save slots
func (sm *StateManager) GetSlotInfo(romPath string) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)
	for i := range slots {
		slots[i].SlotNumber = i
		filePath := sm.getSlotFilePath(i, romPath)
		if stat, err := os.Stat(filePath); err == nil {
			slots[i].Used = true
			slots[i].FilePath = filePath
			slots[i].FileSize = stat.Size()
			slots[i].Timestamp = stat.ModTime()
		}
	}
	return slots
}

// DeleteState deletes a save state from a slot
func (sm *StateManager) DeleteState(slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}

	filePath := sm.getSlotFilePath(slot, romPath)
	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("save state not found in slot %d", slot)
		}
		return fmt.Errorf("failed to delete save state: %w", err)
	}
	return nil
}

// HasSaveState checks if a save state exists in a slot
func (sm *StateManager) HasSaveState(slot int, romPath string) bool {
	if sm.checkSlot(slot) != nil {
		return false
	}
	_, err := os.Stat(sm.getSlotFilePath(slot, romPath))
	return err == nil
}
