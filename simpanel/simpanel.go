// Package simpanel emulates the memory of an ST7789 controller.
//
// Panel accepts the same commands as st7789.Dev and keeps the resulting
// pixels, so a picolcd.Surface can run without hardware in tests or on a
// desktop through the window subpackage.
package simpanel

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/flavioheleno/picolcd/pixel"
	"github.com/flavioheleno/picolcd/st7789"
)

// Physical controller memory, columns by rows.
const (
	MemWidth  = 240
	MemHeight = 320
)

// Panel is an in-memory ST7789. It is safe for concurrent use.
type Panel struct {
	mu sync.Mutex

	mem    *image.RGBA // Physical memory, MemWidth x MemHeight
	madctl byte
	colmod byte

	// Address window and write pointer, in logical coordinates
	win     image.Rectangle
	cur     image.Point
	writing bool
	pending []byte

	written int
	frames  int
}

// New returns a blank panel in 16-bit mode.
func New() *Panel {
	return &Panel{
		mem:    image.NewRGBA(image.Rect(0, 0, MemWidth, MemHeight)),
		colmod: st7789.ColorRGB565,
		win:    image.Rect(0, 0, MemWidth, MemHeight),
	}
}

// WriteCmd implements picolcd.Panel.
func (p *Panel) WriteCmd(cmd byte, params ...byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writing = false
	p.pending = p.pending[:0]
	switch cmd {
	case st7789.MADCTL:
		if len(params) != 1 {
			return fmt.Errorf("simpanel: MADCTL takes 1 parameter, got %d", len(params))
		}
		p.madctl = params[0]
	case st7789.COLMOD:
		if len(params) != 1 {
			return fmt.Errorf("simpanel: COLMOD takes 1 parameter, got %d", len(params))
		}
		if params[0] != st7789.ColorRGB565 && params[0] != st7789.ColorRGB444 {
			return fmt.Errorf("simpanel: unsupported COLMOD %#02x", params[0])
		}
		p.colmod = params[0]
	case st7789.CASET, st7789.RASET:
		if len(params) != 4 {
			return fmt.Errorf("simpanel: address command %#02x takes 4 parameters, got %d", cmd, len(params))
		}
		lo := int(params[0])<<8 | int(params[1])
		hi := int(params[2])<<8 | int(params[3])
		if hi < lo {
			return fmt.Errorf("simpanel: address range %d..%d is reversed", lo, hi)
		}
		if cmd == st7789.CASET {
			p.win.Min.X, p.win.Max.X = lo, hi+1
		} else {
			p.win.Min.Y, p.win.Max.Y = lo, hi+1
		}
	case st7789.RAMWR:
		p.writing = true
		p.cur = p.win.Min
		p.frames++
	}
	return nil
}

// SetWindow implements picolcd.Panel the way st7789.Dev does.
func (p *Panel) SetWindow(x, y, w, h int) error {
	if w <= 0 || h <= 0 || x < 0 || y < 0 {
		return fmt.Errorf("simpanel: invalid window %dx%d+%d+%d", w, h, x, y)
	}
	x1, y1 := x+w-1, y+h-1
	if err := p.WriteCmd(st7789.CASET, byte(x>>8), byte(x), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := p.WriteCmd(st7789.RASET, byte(y>>8), byte(y), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return p.WriteCmd(st7789.RAMWR)
}

// WriteData implements picolcd.Panel. Pixels outside physical memory are
// dropped, as on the real controller.
func (p *Panel) WriteData(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.writing {
		return fmt.Errorf("simpanel: %d data bytes outside a memory write", len(data))
	}
	p.written += len(data)
	p.pending = append(p.pending, data...)
	buf := p.pending
	if p.colmod == st7789.ColorRGB444 {
		for ; len(buf) >= 3; buf = buf[3:] {
			p.put(pixel.RGB444{V: uint16(buf[0])<<4 | uint16(buf[1]>>4)})
			p.put(pixel.RGB444{V: uint16(buf[1]&0x0F)<<8 | uint16(buf[2])})
		}
	} else {
		for ; len(buf) >= 2; buf = buf[2:] {
			p.put(pixel.RGB565{V: uint16(buf[0])<<8 | uint16(buf[1])})
		}
	}
	p.pending = append(p.pending[:0], buf...)
	return nil
}

// put stores c at the write pointer and advances it inside the window.
func (p *Panel) put(c color.Color) {
	if x, y, ok := physical(p.madctl, p.cur.X, p.cur.Y); ok {
		p.mem.Set(x, y, c)
	}
	p.cur.X++
	if p.cur.X >= p.win.Max.X {
		p.cur.X = p.win.Min.X
		p.cur.Y++
		if p.cur.Y >= p.win.Max.Y {
			p.cur.Y = p.win.Min.Y
		}
	}
}

// physical maps a logical column and row to physical memory for madctl.
func physical(madctl byte, col, row int) (x, y int, ok bool) {
	x, y = col, row
	if madctl&0x20 != 0 {
		x, y = row, col
	}
	if madctl&0x40 != 0 {
		x = MemWidth - 1 - x
	}
	if madctl&0x80 != 0 {
		y = MemHeight - 1 - y
	}
	return x, y, x >= 0 && x < MemWidth && y >= 0 && y < MemHeight
}

// View reads r back in the logical coordinates madctl defines.
func (p *Panel) View(madctl byte, r image.Rectangle) *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := image.NewRGBA(r)
	for row := r.Min.Y; row < r.Max.Y; row++ {
		for col := r.Min.X; col < r.Max.X; col++ {
			if x, y, ok := physical(madctl, col, row); ok {
				img.SetRGBA(col, row, p.mem.RGBAAt(x, y))
			}
		}
	}
	return img
}

// At returns the color at a logical position under the current MADCTL.
func (p *Panel) At(col, row int) color.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	x, y, ok := physical(p.madctl, col, row)
	if !ok {
		return color.RGBA{}
	}
	return p.mem.RGBAAt(x, y)
}

// Memory returns a copy of the physical memory.
func (p *Panel) Memory() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := image.NewRGBA(p.mem.Rect)
	copy(img.Pix, p.mem.Pix)
	return img
}

// MADCTL returns the last memory access control byte.
func (p *Panel) MADCTL() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.madctl
}

// COLMOD returns the current pixel format.
func (p *Panel) COLMOD() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.colmod
}

// Window returns the current address window.
func (p *Panel) Window() image.Rectangle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.win
}

// Stats returns the number of pixel data bytes and memory writes received.
func (p *Panel) Stats() (written, frames int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written, p.frames
}

// ResetStats zeroes the counters returned by Stats.
func (p *Panel) ResetStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written, p.frames = 0, 0
}
