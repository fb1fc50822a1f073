package graphics

import (
	"image"
	"image/color"
	"image/draw"

	"nescore/internal/bus"
)

// View layout. The debug view has the size of an NES frame: both pattern
// tables across the top, the 32 palette RAM entries below them and the 64
// OAM sprites in a 16x4 grid at the bottom.
const (
	ViewWidth  = 256
	ViewHeight = 240

	patternTableSize = 128
	paletteStripY    = 136
	paletteSwatchW   = 8
	paletteSwatchH   = 16
	spriteGridY      = 160
	spriteCell       = 16
	spriteColumns    = 16
)

// PatternSource is anything that can read PPU address space
type PatternSource interface {
	Read(address uint16) uint8
}

// Tile is a decoded 8x8 tile of 2-bit pixel values
type Tile [8][8]uint8

// DecodeTile decodes tile index of the pattern table starting at base.
// Each tile is 16 bytes: eight bytes of low bit plane then eight of high.
func DecodeTile(src PatternSource, base uint16, index int) Tile {
	var tile Tile
	addr := base + uint16(index)*16
	for y := 0; y < 8; y++ {
		lo := src.Read(addr + uint16(y))
		hi := src.Read(addr + uint16(y) + 8)
		for x := 0; x < 8; x++ {
			shift := uint(7 - x)
			tile[y][x] = (lo>>shift)&1 | ((hi>>shift)&1)<<1
		}
	}
	return tile
}

// ViewRenderer draws the debug view of the video memory
type ViewRenderer struct {
	img     *image.RGBA
	palette int
}

// NewViewRenderer creates a renderer coloring pattern tables with the
// given palette (0-3 background, 4-7 sprite)
func NewViewRenderer(palette int) *ViewRenderer {
	r := &ViewRenderer{img: image.NewRGBA(image.Rect(0, 0, ViewWidth, ViewHeight))}
	r.SetPalette(palette)
	return r
}

// SetPalette selects the palette used for the pattern tables
func (r *ViewRenderer) SetPalette(palette int) {
	r.palette = palette & 7
}

// Palette returns the selected palette
func (r *ViewRenderer) Palette() int {
	return r.palette
}

// Render draws the view for the machine on b. The returned image is
// reused by the next call.
func (r *ViewRenderer) Render(b *bus.Bus) *image.RGBA {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	mem := b.PPU.Memory()
	if mem == nil {
		return r.img
	}

	colors := paletteColors(mem, r.palette)
	drawPatternTable(r.img, image.Point{}, mem, 0x0000, colors)
	drawPatternTable(r.img, image.Point{X: patternTableSize}, mem, 0x1000, colors)

	for i := 0; i < 32; i++ {
		c := Palette[mem.Read(0x3F00+uint16(i))&0x3F]
		rect := image.Rect(i*paletteSwatchW, paletteStripY, (i+1)*paletteSwatchW, paletteStripY+paletteSwatchH)
		draw.Draw(r.img, rect, image.NewUniform(c), image.Point{}, draw.Src)
	}

	oam := b.PPU.OAM()
	base := b.PPU.Control().SpritePatternBase
	for i := 0; i < 64; i++ {
		tile := oam[i*4+1]
		attr := oam[i*4+2]
		origin := image.Point{
			X: (i%spriteColumns)*spriteCell + 4,
			Y: spriteGridY + (i/spriteColumns)*spriteCell + 4,
		}
		drawTile(r.img, origin, DecodeTile(mem, base, int(tile)), paletteColors(mem, 4+int(attr&3)), attr&0x40 != 0, attr&0x80 != 0)
	}
	return r.img
}

// RenderPatternTables draws both pattern tables side by side, 256x128
func RenderPatternTables(src PatternSource, colors [4]color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2*patternTableSize, patternTableSize))
	drawPatternTable(img, image.Point{}, src, 0x0000, colors)
	drawPatternTable(img, image.Point{X: patternTableSize}, src, 0x1000, colors)
	return img
}

// paletteColors resolves a palette through palette RAM. Entry 0 is the
// shared backdrop. A palette that is entirely one color falls back to
// grayscale so tiles stay visible before a program sets up its colors.
func paletteColors(src PatternSource, palette int) [4]color.RGBA {
	var colors [4]color.RGBA
	var indices [4]uint8
	indices[0] = src.Read(0x3F00) & 0x3F
	for p := 1; p < 4; p++ {
		indices[p] = src.Read(0x3F00+uint16(palette*4+p)) & 0x3F
	}
	if indices[0] == indices[1] && indices[1] == indices[2] && indices[2] == indices[3] {
		return grayscale
	}
	for p, idx := range indices {
		colors[p] = Palette[idx]
	}
	return colors
}

func drawPatternTable(img *image.RGBA, origin image.Point, src PatternSource, base uint16, colors [4]color.RGBA) {
	for i := 0; i < 256; i++ {
		at := origin.Add(image.Point{X: (i % 16) * 8, Y: (i / 16) * 8})
		drawTile(img, at, DecodeTile(src, base, i), colors, false, false)
	}
}

func drawTile(img *image.RGBA, origin image.Point, tile Tile, colors [4]color.RGBA, flipH, flipV bool) {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			tx, ty := x, y
			if flipH {
				tx = 7 - x
			}
			if flipV {
				ty = 7 - y
			}
			img.SetRGBA(origin.X+x, origin.Y+y, colors[tile[ty][tx]])
		}
	}
}
