package picolcd

import (
	"image"
	"image/draw"

	"github.com/flavioheleno/picolcd/pixel"
)

// drawTarget is where primitives land: the panel itself or the framebuffer.
// Colors handed to a target are already in the target's raw encoding.
type drawTarget interface {
	bounds() image.Rectangle
	fillRect(r image.Rectangle, c uint16) error
	blit(pt image.Point, img image.Image) error
}

// panelTarget writes straight into panel memory. origin is the position of
// the target's (0, 0) in panel addressing for the current rotation.
type panelTarget struct {
	s      *Surface
	origin image.Point
	size   image.Point
}

func (t *panelTarget) bounds() image.Rectangle {
	return image.Rectangle{Max: t.size}
}

func (t *panelTarget) window(r image.Rectangle) error {
	return t.s.p.SetWindow(t.origin.X+r.Min.X, t.origin.Y+r.Min.Y, r.Dx(), r.Dy())
}

// fillRect streams the big-endian color word repeated over r.
func (t *panelTarget) fillRect(r image.Rectangle, c uint16) error {
	r = r.Intersect(t.bounds())
	if r.Empty() {
		return nil
	}
	if err := t.window(r); err != nil {
		return err
	}
	n := 2 * r.Dx() * r.Dy()
	chunk := t.s.chunk[:min(n, len(t.s.chunk))]
	for i := 0; i < len(chunk); i += 2 {
		chunk[i] = byte(c >> 8)
		chunk[i+1] = byte(c)
	}
	return t.s.stream(chunk, n)
}

// blit converts img to big-endian RGB565, composited over black, one chunk at
// a time.
func (t *panelTarget) blit(pt image.Point, img image.Image) error {
	src := img.Bounds()
	r := src.Sub(src.Min).Add(pt).Intersect(t.bounds())
	if r.Empty() {
		return nil
	}
	if err := t.window(r); err != nil {
		return err
	}
	off := src.Min.Sub(pt)
	chunk := t.s.chunk
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v := pixel.Raw(pixel.ProfileRGB565, img.At(x+off.X, y+off.Y))
			chunk[n] = byte(v >> 8)
			chunk[n+1] = byte(v)
			if n += 2; n == len(chunk) {
				if err := t.s.p.WriteData(chunk); err != nil {
					return err
				}
				n = 0
			}
		}
	}
	if n > 0 {
		return t.s.p.WriteData(chunk[:n])
	}
	return nil
}

// bufferTarget draws into the framebuffer.
type bufferTarget struct {
	buf pixel.Buffer
}

func (t *bufferTarget) bounds() image.Rectangle {
	return t.buf.Bounds()
}

func (t *bufferTarget) fillRect(r image.Rectangle, c uint16) error {
	t.buf.FillRaw(r, c)
	return nil
}

func (t *bufferTarget) blit(pt image.Point, img image.Image) error {
	src := img.Bounds()
	draw.Draw(t.buf, src.Sub(src.Min).Add(pt), img, src.Min, draw.Over)
	return nil
}
