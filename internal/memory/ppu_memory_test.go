package memory

import (
	"testing"

	"nescore/internal/cartridge"
)

func TestNametableMirroring(t *testing.T) {
	tests := []struct {
		name      string
		mode      cartridge.MirrorMode
		write     uint16
		mirror    uint16
		separated uint16
	}{
		{"horizontal", cartridge.MirrorHorizontal, 0x2000, 0x2400, 0x2800},
		{"vertical", cartridge.MirrorVertical, 0x2000, 0x2800, 0x2400},
		{"single screen", cartridge.MirrorSingleScreen0, 0x2000, 0x2C00, 0},
		{"four screen", cartridge.MirrorFourScreen, 0x2000, 0x3000, 0x2400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := NewPPUMemory(&MockCartridge{}, tt.mode)
			pm.Write(tt.write+0x15, 0x77)

			if got := pm.Read(tt.mirror + 0x15); got != 0x77 {
				t.Errorf("Expected $%04X to mirror $%04X, got 0x%02X", tt.mirror+0x15, tt.write+0x15, got)
			}
			if tt.separated != 0 {
				if got := pm.Read(tt.separated + 0x15); got != 0 {
					t.Errorf("Expected $%04X to be a separate table, got 0x%02X", tt.separated+0x15, got)
				}
			}
		})
	}
}

func TestPaletteMirroring(t *testing.T) {
	pm := NewPPUMemory(&MockCartridge{}, cartridge.MirrorHorizontal)

	pm.Write(0x3F10, 0x21)
	if got := pm.Read(0x3F00); got != 0x21 {
		t.Errorf("Expected $3F10 to alias $3F00, got 0x%02X", got)
	}

	pm.Write(0x3F05, 0x16)
	if got := pm.Read(0x3F25); got != 0x16 {
		t.Errorf("Expected $3F25 to mirror $3F05, got 0x%02X", got)
	}

	pm.Write(0x3F11, 0x30)
	if got := pm.Read(0x3F01); got == 0x30 {
		t.Error("Sprite palette entries other than the backdrop must not alias")
	}

	pm.Write(0x3F02, 0xFF)
	if got := pm.Read(0x3F02); got != 0x3F {
		t.Errorf("Palette entries are six bits wide, got 0x%02X", got)
	}
}

func TestPatternTablesUseCHR(t *testing.T) {
	cart := &MockCartridge{}
	pm := NewPPUMemory(cart, cartridge.MirrorVertical)

	pm.Write(0x1234, 0xAB)
	if cart.chrData[0x1234] != 0xAB {
		t.Error("Expected pattern table writes to reach CHR")
	}
	if got := pm.Read(0x5234); got != 0xAB {
		t.Errorf("Expected the 14-bit address space to wrap, got 0x%02X", got)
	}
}
