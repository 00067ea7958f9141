package font

import (
	"image/color"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// Tinyfont adapts a tinyfont.Fonter to a fixed cell. Glyphs are rendered
// once into a capture buffer and cached, so proportional fonts are laid out
// on the cell of their widest printable ASCII glyph.
type Tinyfont struct {
	f        tinyfont.Fonter
	w, h     int
	baseline int

	mu    sync.Mutex
	cache map[rune][]bool
}

// Default returns the built-in fallback face.
func Default() *Tinyfont {
	return NewTinyfont(&proggy.TinySZ8pt7b)
}

// NewTinyfont wraps f.
func NewTinyfont(f tinyfont.Fonter) *Tinyfont {
	t := &Tinyfont{f: f, cache: map[rune][]bool{}}
	top, bottom := 0, 0
	for r := rune(0x20); r < 0x7F; r++ {
		info := f.GetGlyph(r).Info()
		t.w = max(t.w, int(info.XAdvance), int(info.XOffset)+int(info.Width))
		top = min(top, int(info.YOffset))
		bottom = max(bottom, int(info.YOffset)+int(info.Height))
	}
	t.baseline = -top
	t.h = max(bottom-top, int(f.GetYAdvance()))
	return t
}

// Width implements Face.
func (t *Tinyfont) Width() int { return t.w }

// Height implements Face.
func (t *Tinyfont) Height() int { return t.h }

// Dot implements Face.
func (t *Tinyfont) Dot(r rune, col, row int) bool {
	if col < 0 || row < 0 || col >= t.w || row >= t.h {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	dots, ok := t.cache[r]
	if !ok {
		c := &capture{w: t.w, h: t.h, dots: make([]bool, t.w*t.h)}
		tinyfont.DrawChar(c, t.f, 0, int16(t.baseline), r, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
		dots = c.dots
		t.cache[r] = dots
	}
	return dots[row*t.w+col]
}

// capture is a drivers.Displayer recording which pixels a glyph sets.
type capture struct {
	w, h int
	dots []bool
}

var _ drivers.Displayer = (*capture)(nil)

func (c *capture) Size() (x, y int16) {
	return int16(c.w), int16(c.h)
}

func (c *capture) SetPixel(x, y int16, col color.RGBA) {
	if x < 0 || y < 0 || int(x) >= c.w || int(y) >= c.h || col.A == 0 {
		return
	}
	c.dots[int(y)*c.w+int(x)] = true
}

func (c *capture) Display() error {
	return nil
}
