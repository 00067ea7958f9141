package pixel

import (
	"image"
	"image/color"
)

// Buffer is a packed pixel buffer the display surface can draw into and
// stream to the panel unchanged.
type Buffer interface {
	image.Image
	Set(x, y int, c color.Color)
	Profile() Profile
	RawAt(x, y int) uint16
	SetRaw(x, y int, v uint16)
	FillRaw(r image.Rectangle, v uint16)
	Bytes() []byte
}

// BufferSize returns the number of bytes needed for a w x h buffer.
func BufferSize(p Profile, w, h int) int {
	if w <= 0 || h <= 0 {
		return 0
	}
	return (w*h*p.BitsPerPixel() + 7) / 8
}

// NewBuffer wraps pix as a w x h buffer of profile p. pix must hold at least
// BufferSize(p, w, h) bytes.
func NewBuffer(p Profile, pix []byte, w, h int) Buffer {
	r := image.Rect(0, 0, w, h)
	if p == ProfileRGB444 {
		return &RGB444Image{Pix: pix[:BufferSize(p, w, h)], Rect: r}
	}
	return &RGB565LE{Pix: pix[:BufferSize(p, w, h)], Stride: 2 * w, Rect: r}
}

// RGB565LE is an RGB565 image stored as little-endian uint16 words.
//
// RawAt and SetRaw operate on the stored word. The display surface stores
// byte-swapped colors so that the byte stream is in panel order; At and Set
// undo and apply that swap so the image still reports true colors.
type RGB565LE struct {
	Pix    []byte          // Pixel data (2 bytes per pixel)
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewRGB565LE creates a new RGB565LE image with the specified bounds.
func NewRGB565LE(r image.Rectangle) *RGB565LE {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &RGB565LE{Rect: r}
	}
	return &RGB565LE{
		Pix:    make([]byte, 2*w*h),
		Stride: 2 * w,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *RGB565LE) ColorModel() color.Model {
	return RGB565Model
}

// Bounds returns the image bounds.
func (p *RGB565LE) Bounds() image.Rectangle {
	return p.Rect
}

// Profile returns ProfileRGB565.
func (p *RGB565LE) Profile() Profile {
	return ProfileRGB565
}

// Bytes returns the backing pixel data.
func (p *RGB565LE) Bytes() []byte {
	return p.Pix
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *RGB565LE) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

// At returns the color of the pixel at (x, y).
func (p *RGB565LE) At(x, y int) color.Color {
	return RGB565{V: SwapBytes(p.RawAt(x, y))}
}

// RawAt returns the stored word at (x, y), or 0 out of bounds.
func (p *RGB565LE) RawAt(x, y int) uint16 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	i := p.PixOffset(x, y)
	return uint16(p.Pix[i]) | uint16(p.Pix[i+1])<<8
}

// Set sets the color of the pixel at (x, y).
func (p *RGB565LE) Set(x, y int, c color.Color) {
	p.SetRaw(x, y, SwapBytes(RGB565Model.Convert(c).(RGB565).V))
}

// SetRaw stores word v at (x, y). Out of bounds writes are ignored.
func (p *RGB565LE) SetRaw(x, y int, v uint16) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i] = byte(v)
	p.Pix[i+1] = byte(v >> 8)
}

// FillRaw stores word v in every pixel of r clipped to the image bounds.
func (p *RGB565LE) FillRaw(r image.Rectangle, v uint16) {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return
	}
	lo, hi := byte(v), byte(v>>8)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := p.Pix[p.PixOffset(r.Min.X, y):p.PixOffset(r.Max.X, y)]
		for i := 0; i < len(row); i += 2 {
			row[i] = lo
			row[i+1] = hi
		}
	}
}

// RGB444Image is a 12-bit image where two horizontally adjacent pixels share
// three bytes. Pixels are packed as one continuous stream without row padding,
// so a row with an odd width ends in the middle of a byte.
type RGB444Image struct {
	Pix  []byte          // Pixel data (3 bytes per 2 pixels)
	Rect image.Rectangle // Image bounds
}

// NewRGB444Image creates a new RGB444Image with the specified bounds.
func NewRGB444Image(r image.Rectangle) *RGB444Image {
	return &RGB444Image{
		Pix:  make([]byte, BufferSize(ProfileRGB444, r.Dx(), r.Dy())),
		Rect: r,
	}
}

// ColorModel returns the color model of the image.
func (p *RGB444Image) ColorModel() color.Model {
	return RGB444Model
}

// Bounds returns the image bounds.
func (p *RGB444Image) Bounds() image.Rectangle {
	return p.Rect
}

// Profile returns ProfileRGB444.
func (p *RGB444Image) Profile() Profile {
	return ProfileRGB444
}

// Bytes returns the backing pixel data.
func (p *RGB444Image) Bytes() []byte {
	return p.Pix
}

// PixOffset returns the byte offset of the pixel pair holding (x, y) and
// whether (x, y) is the second pixel of that pair.
func (p *RGB444Image) PixOffset(x, y int) (offset int, odd bool) {
	i := (y-p.Rect.Min.Y)*p.Rect.Dx() + (x - p.Rect.Min.X)
	return (i / 2) * 3, i&1 == 1
}

// At returns the color of the pixel at (x, y).
func (p *RGB444Image) At(x, y int) color.Color {
	return RGB444{V: p.RawAt(x, y)}
}

// RawAt returns the 12-bit value at (x, y), or 0 out of bounds.
func (p *RGB444Image) RawAt(x, y int) uint16 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	o, odd := p.PixOffset(x, y)
	if odd {
		return uint16(p.Pix[o+1]&0x0F)<<8 | uint16(p.Pix[o+2])
	}
	return uint16(p.Pix[o])<<4 | uint16(p.Pix[o+1]>>4)
}

// Set sets the color of the pixel at (x, y).
func (p *RGB444Image) Set(x, y int, c color.Color) {
	p.SetRaw(x, y, RGB444Model.Convert(c).(RGB444).V)
}

// SetRaw stores the 12-bit value v at (x, y). Out of bounds writes are
// ignored.
func (p *RGB444Image) SetRaw(x, y int, v uint16) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	v &= 0x0FFF
	o, odd := p.PixOffset(x, y)
	if odd {
		p.Pix[o+1] = p.Pix[o+1]&0xF0 | byte(v>>8)
		p.Pix[o+2] = byte(v)
		return
	}
	p.Pix[o] = byte(v >> 4)
	p.Pix[o+1] = p.Pix[o+1]&0x0F | byte(v<<4)
}

// FillRaw stores v in every pixel of r clipped to the image bounds.
func (p *RGB444Image) FillRaw(r image.Rectangle, v uint16) {
	r = r.Intersect(p.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p.SetRaw(x, y, v)
		}
	}
}
