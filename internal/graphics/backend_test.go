package graphics

import (
	"bytes"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nescore/internal/input"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"W", KeyW},
		{"w", KeyW},
		{"enter", KeyEnter},
		{"Space", KeySpace},
		{"7", Key7},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("ParseKey(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
	if _, err := ParseKey("F13"); err == nil {
		t.Error("Expected an error for an unknown key")
	}
}

func TestKeyASCII(t *testing.T) {
	if c, ok := KeyQ.ASCII(); !ok || c != 'Q' {
		t.Errorf("KeyQ.ASCII() = %q, %v", c, ok)
	}
	if c, ok := Key0.ASCII(); !ok || c != '0' {
		t.Errorf("Key0.ASCII() = %q, %v", c, ok)
	}
	if _, ok := KeyUp.ASCII(); ok {
		t.Error("Arrow keys do not type")
	}
}

func TestParseKeyMapping(t *testing.T) {
	keys, err := ParseKeyMapping(map[string]input.Button{"J": input.ButtonA, "Enter": input.ButtonStart})
	if err != nil {
		t.Fatal(err)
	}
	if keys[KeyJ] != input.ButtonA || keys[KeyEnter] != input.ButtonStart {
		t.Errorf("Unexpected mapping %v", keys)
	}
	if _, err := ParseKeyMapping(map[string]input.Button{"Hyper": input.ButtonA}); err == nil {
		t.Error("Expected an error for an unknown key name")
	}
}

func TestCreateBackend(t *testing.T) {
	for _, bt := range []BackendType{BackendHeadless, BackendTerminal} {
		backend, err := CreateBackend(bt)
		if err != nil {
			t.Fatalf("CreateBackend(%s): %v", bt, err)
		}
		if _, err := backend.CreateWindow("x", ViewWidth, ViewHeight); err == nil {
			t.Errorf("%s: expected an error before Initialize", backend.GetName())
		}
		if err := backend.Initialize(Config{}); err != nil {
			t.Fatal(err)
		}
		if err := backend.Initialize(Config{}); err == nil {
			t.Errorf("%s: expected an error on double Initialize", backend.GetName())
		}
	}
	if _, err := CreateBackend("sdl2"); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
}

func solidImage(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ViewWidth, ViewHeight))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestSavePNGScales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "view.png")
	if err := SavePNG(path, solidImage(Palette[0x16]), 2); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 2*ViewWidth || img.Bounds().Dy() != 2*ViewHeight {
		t.Errorf("Expected a 2x image, got %v", img.Bounds())
	}
	r, g, b, _ := img.At(511, 479).RGBA()
	if uint8(r>>8) != Palette[0x16].R || uint8(g>>8) != Palette[0x16].G || uint8(b>>8) != Palette[0x16].B {
		t.Error("Scaled pixel color changed")
	}
}

func TestDumpCHR(t *testing.T) {
	b := newViewBus(t)
	path := filepath.Join(t.TempDir(), "chr.png")
	if err := DumpCHR(path, b, 0, 1); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	config, _, err := image.DecodeConfig(file)
	if err != nil {
		t.Fatal(err)
	}
	if config.Width != 256 || config.Height != 128 {
		t.Errorf("Expected 256x128, got %dx%d", config.Width, config.Height)
	}
}

func TestHeadlessDumpFrames(t *testing.T) {
	dir := t.TempDir()
	backend := NewHeadlessBackend()
	backend.Initialize(Config{OutputDir: dir, DumpFrames: []uint64{2}, Scale: 1})
	w, _ := backend.CreateWindow("test", ViewWidth, ViewHeight)

	frame := solidImage(Palette[0x30])
	for i := 0; i < 3; i++ {
		if err := w.RenderFrame(frame); err != nil {
			t.Fatal(err)
		}
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.png"))
	if len(matches) != 1 || filepath.Base(matches[0]) != "frame_00002.png" {
		t.Errorf("Expected only frame 2 saved, got %v", matches)
	}
	if saved := w.(*HeadlessWindow).SavedFrames(); len(saved) != 1 || saved[0] != matches[0] {
		t.Errorf("SavedFrames() = %v", saved)
	}
}

func TestHeadlessFrameLimitSkipsLaterDumps(t *testing.T) {
	dir := t.TempDir()
	backend := NewHeadlessBackend()
	backend.Initialize(Config{OutputDir: dir, DumpFrames: []uint64{1, 3, 9}, MaxFrames: 4, Scale: 1})
	w, _ := backend.CreateWindow("test", ViewWidth, ViewHeight)

	frame := solidImage(Palette[0x0F])
	err := w.Run(func() error { return w.RenderFrame(frame) })
	if err != nil {
		t.Fatal(err)
	}
	if saved := w.(*HeadlessWindow).SavedFrames(); len(saved) != 2 {
		t.Errorf("Expected frames 1 and 3 saved, got %v", saved)
	}
}

func TestTerminalRenderFrame(t *testing.T) {
	var out bytes.Buffer
	backend := NewTerminalBackend()
	backend.Initialize(Config{Output: &out, RenderEvery: 2})
	w, _ := backend.CreateWindow("test", ViewWidth, ViewHeight)
	w.SetStatusText("frame 1")

	frame := solidImage(Palette[0x21])
	if err := w.RenderFrame(frame); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	if got := strings.Count(text, "\r\n"); got != ViewHeight/terminalStepY+1 {
		t.Errorf("Expected %d lines, got %d", ViewHeight/terminalStepY+1, got)
	}
	if got := strings.Count(text, "▀"); got != (ViewWidth/terminalStepX)*(ViewHeight/terminalStepY) {
		t.Errorf("Unexpected cell count %d", got)
	}
	if !strings.HasSuffix(text, "frame 1\r\n") {
		t.Error("Expected the status line last")
	}

	out.Reset()
	w.RenderFrame(frame)
	if out.Len() != 0 {
		t.Error("Expected every second frame to be skipped")
	}
}
