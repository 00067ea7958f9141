package simpanel

import (
	"image"
	"image/color"
	"testing"

	"github.com/flavioheleno/picolcd/st7789"
)

var (
	red   = color.RGBA{0xFF, 0, 0, 0xFF}
	green = color.RGBA{0, 0xFF, 0, 0xFF}
	black = color.RGBA{0, 0, 0, 0xFF}
)

func TestPhysical(t *testing.T) {
	tests := []struct {
		name     string
		madctl   byte
		col, row int
		wantX    int
		wantY    int
		wantOK   bool
	}{
		{"native", 0x00, 10, 20, 10, 20, true},
		{"swap", 0x20, 10, 20, 20, 10, true},
		{"mirror col", 0x40, 0, 0, 239, 0, true},
		{"mirror row", 0x80, 0, 0, 0, 319, true},
		{"landscape rot 0", 0x60, 319, 0, 239, 319, true},
		{"outside", 0x00, 240, 0, 240, 0, false},
		{"outside swapped", 0x20, 0, 240, 240, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := physical(tt.madctl, tt.col, tt.row)
			if x != tt.wantX || y != tt.wantY || ok != tt.wantOK {
				t.Errorf("physical(%#02x, %d, %d) = (%d, %d, %v), want (%d, %d, %v)",
					tt.madctl, tt.col, tt.row, x, y, ok, tt.wantX, tt.wantY, tt.wantOK)
			}
		})
	}
}

func TestWrite16(t *testing.T) {
	p := New()
	if err := p.SetWindow(1, 1, 2, 2); err != nil {
		t.Fatal(err)
	}
	// Split a pixel across two writes.
	if err := p.WriteData([]byte{0xF8, 0x00, 0x07}); err != nil {
		t.Fatal(err)
	}
	if err := p.WriteData([]byte{0xE0, 0xF8, 0x00, 0x07, 0xE0}); err != nil {
		t.Fatal(err)
	}

	want := map[image.Point]color.RGBA{
		{1, 1}: red,
		{2, 1}: green,
		{1, 2}: red,
		{2, 2}: green,
		{0, 0}: {},
		{3, 1}: {},
	}
	for pt, c := range want {
		if got := p.At(pt.X, pt.Y); got != c {
			t.Errorf("At(%d, %d) = %v, want %v", pt.X, pt.Y, got, c)
		}
	}
	if written, frames := p.Stats(); written != 8 || frames != 1 {
		t.Errorf("Stats() = (%d, %d), want (8, 1)", written, frames)
	}
}

func TestWrite12(t *testing.T) {
	p := New()
	if err := p.WriteCmd(st7789.COLMOD, st7789.ColorRGB444); err != nil {
		t.Fatal(err)
	}
	if err := p.SetWindow(0, 0, 2, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.WriteData([]byte{0xF0, 0x00, 0xF0}); err != nil {
		t.Fatal(err)
	}
	if got := p.At(0, 0); got != red {
		t.Errorf("At(0, 0) = %v, want red", got)
	}
	if got := p.At(1, 0); got != green {
		t.Errorf("At(1, 0) = %v, want green", got)
	}
}

func TestWindowWraps(t *testing.T) {
	p := New()
	if err := p.SetWindow(0, 0, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.WriteData([]byte{0xF8, 0x00, 0x00, 0x00}); err != nil {
		t.Fatal(err)
	}
	if got := p.At(0, 0); got != black {
		t.Errorf("At(0, 0) = %v, want second pixel to overwrite the first", got)
	}
	if got := p.At(0, 1); got != (color.RGBA{}) {
		t.Errorf("At(0, 1) = %v, want untouched", got)
	}
}

func TestDataOutsideWrite(t *testing.T) {
	p := New()
	if err := p.WriteData([]byte{0}); err == nil {
		t.Error("expected error for data before RAMWR")
	}
	if err := p.SetWindow(0, 0, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.WriteCmd(st7789.MADCTL, 0x60); err != nil {
		t.Fatal(err)
	}
	if err := p.WriteData([]byte{0, 0}); err == nil {
		t.Error("expected error for data after a command ended the write")
	}
}

func TestWriteCmdValidation(t *testing.T) {
	p := New()
	tests := []struct {
		name   string
		cmd    byte
		params []byte
	}{
		{"madctl without parameter", st7789.MADCTL, nil},
		{"bad colmod", st7789.COLMOD, []byte{0x06}},
		{"short caset", st7789.CASET, []byte{0, 1}},
		{"reversed raset", st7789.RASET, []byte{0, 10, 0, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.WriteCmd(tt.cmd, tt.params...); err == nil {
				t.Error("expected error but didn't get one")
			}
		})
	}
}

func TestView(t *testing.T) {
	p := New()
	if err := p.WriteCmd(st7789.MADCTL, 0x60); err != nil {
		t.Fatal(err)
	}
	if err := p.SetWindow(300, 10, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.WriteData([]byte{0xF8, 0x00}); err != nil {
		t.Fatal(err)
	}

	landscape := p.View(0x60, image.Rect(0, 0, 320, 240))
	if got := landscape.RGBAAt(300, 10); got != red {
		t.Errorf("landscape view (300, 10) = %v, want red", got)
	}
	portrait := p.View(0x00, image.Rect(0, 0, 240, 320))
	if got := portrait.RGBAAt(239-10, 300); got != red {
		t.Errorf("portrait view = %v, want red", got)
	}
	if got := p.Memory().RGBAAt(229, 300); got != red {
		t.Errorf("memory = %v, want red", got)
	}
}
