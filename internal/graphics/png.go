package graphics

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"nescore/internal/bus"
)

// Scale enlarges img by an integer factor without smoothing
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SavePNG writes img scaled by factor to path
func SavePNG(path string, img image.Image, factor int) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}

	if err := png.Encode(file, Scale(img, factor)); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// DumpCHR writes both pattern tables of the machine on b to a PNG,
// colored with the given palette
func DumpCHR(path string, b *bus.Bus, palette, factor int) error {
	mem := b.PPU.Memory()
	if mem == nil {
		return fmt.Errorf("no video memory attached")
	}
	return SavePNG(path, RenderPatternTables(mem, paletteColors(mem, palette&7)), factor)
}
