package picolcd

import (
	"image"

	"golang.org/x/image/vector"
)

// Ellipse quadrant mask bits.
const (
	QuadTopRight    uint8 = 1 << iota // x+, y-
	QuadTopLeft                       // x-, y-
	QuadBottomLeft                    // x-, y+
	QuadBottomRight                   // x+, y+

	QuadAll = QuadTopRight | QuadTopLeft | QuadBottomLeft | QuadBottomRight
)

func rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

func drawPixel(t drawTarget, x, y int, c uint16) error {
	return t.fillRect(rect(x, y, 1, 1), c)
}

// drawLine is Bresenham's algorithm. Axis-aligned lines become a single fill.
func drawLine(t drawTarget, x0, y0, x1, y1 int, c uint16) error {
	if y0 == y1 {
		return t.fillRect(rect(min(x0, x1), y0, abs(x1-x0)+1, 1), c)
	}
	if x0 == x1 {
		return t.fillRect(rect(x0, min(y0, y1), 1, abs(y1-y0)+1), c)
	}
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if err := drawPixel(t, x0, y0, c); err != nil {
			return err
		}
		if x0 == x1 && y0 == y1 {
			return nil
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func drawRect(t drawTarget, x, y, w, h int, c uint16, fill bool) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if fill || w <= 2 || h <= 2 {
		return t.fillRect(rect(x, y, w, h), c)
	}
	for _, r := range []image.Rectangle{
		rect(x, y, w, 1),
		rect(x, y+h-1, w, 1),
		rect(x, y+1, 1, h-2),
		rect(x+w-1, y+1, 1, h-2),
	} {
		if err := t.fillRect(r, c); err != nil {
			return err
		}
	}
	return nil
}

// drawEllipse is the midpoint ellipse algorithm restricted to the quadrants
// in mask. A zero radius on one axis draws a straight segment.
func drawEllipse(t drawTarget, cx, cy, rx, ry int, c uint16, fill bool, mask uint8) error {
	if rx < 0 || ry < 0 || mask&QuadAll == 0 {
		return nil
	}
	switch {
	case rx == 0 && ry == 0:
		return drawPixel(t, cx, cy, c)
	case rx == 0:
		return t.fillRect(rect(cx, cy-ry, 1, 2*ry+1), c)
	case ry == 0:
		return t.fillRect(rect(cx-rx, cy, 2*rx+1, 1), c)
	}

	points := func(x, y int) error {
		var rs []image.Rectangle
		if fill {
			if mask&QuadTopRight != 0 {
				rs = append(rs, rect(cx, cy-y, x+1, 1))
			}
			if mask&QuadTopLeft != 0 {
				rs = append(rs, rect(cx-x, cy-y, x+1, 1))
			}
			if mask&QuadBottomLeft != 0 {
				rs = append(rs, rect(cx-x, cy+y, x+1, 1))
			}
			if mask&QuadBottomRight != 0 {
				rs = append(rs, rect(cx, cy+y, x+1, 1))
			}
		} else {
			if mask&QuadTopRight != 0 {
				rs = append(rs, rect(cx+x, cy-y, 1, 1))
			}
			if mask&QuadTopLeft != 0 {
				rs = append(rs, rect(cx-x, cy-y, 1, 1))
			}
			if mask&QuadBottomLeft != 0 {
				rs = append(rs, rect(cx-x, cy+y, 1, 1))
			}
			if mask&QuadBottomRight != 0 {
				rs = append(rs, rect(cx+x, cy+y, 1, 1))
			}
		}
		for _, r := range rs {
			if err := t.fillRect(r, c); err != nil {
				return err
			}
		}
		return nil
	}

	twoA2, twoB2 := 2*rx*rx, 2*ry*ry

	// Region where the slope is shallower than -1.
	x, y := rx, 0
	xChange, yChange := ry*ry*(1-2*rx), rx*rx
	e := 0
	stopX, stopY := twoB2*rx, 0
	for stopX >= stopY {
		if err := points(x, y); err != nil {
			return err
		}
		y++
		stopY += twoA2
		e += yChange
		yChange += twoA2
		if 2*e+xChange > 0 {
			x--
			stopX -= twoB2
			e += xChange
			xChange += twoB2
		}
	}

	// Region where the slope is steeper than -1.
	x, y = 0, ry
	xChange, yChange = ry*ry, rx*rx*(1-2*ry)
	e = 0
	stopX, stopY = 0, twoA2*ry
	for stopX <= stopY {
		if err := points(x, y); err != nil {
			return err
		}
		x++
		stopX += twoB2
		e += xChange
		xChange += twoB2
		if 2*e+yChange > 0 {
			y--
			stopY -= twoA2
			e += yChange
			yChange += twoA2
		}
	}
	return nil
}

// drawPolyline draws the closed outline through the points of coords, which
// holds x, y pairs relative to (x, y).
func drawPolyline(t drawTarget, x, y int, coords []int, c uint16) error {
	n := len(coords) / 2
	if n == 0 {
		return nil
	}
	if n == 1 {
		return drawPixel(t, x+coords[0], y+coords[1], c)
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if err := drawLine(t, x+coords[2*i], y+coords[2*i+1], x+coords[2*j], y+coords[2*j+1], c); err != nil {
			return err
		}
	}
	return nil
}

// fillPoly rasterizes the polygon with the non-zero winding rule and fills
// every pixel whose center is at least half covered.
func fillPoly(t drawTarget, x, y int, coords []int, c uint16) error {
	b := t.bounds()
	if len(coords) < 6 || b.Empty() {
		return nil
	}
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	pt := func(i int) (float32, float32) {
		return float32(x+coords[2*i]) + 0.5, float32(y+coords[2*i+1]) + 0.5
	}
	z.MoveTo(pt(0))
	for i := 1; i < len(coords)/2; i++ {
		z.LineTo(pt(i))
	}
	z.ClosePath()

	mask := image.NewAlpha(b)
	z.Draw(mask, b, image.Opaque, image.Point{})
	for row := b.Min.Y; row < b.Max.Y; row++ {
		start := -1
		for col := b.Min.X; col <= b.Max.X; col++ {
			in := col < b.Max.X && mask.AlphaAt(col, row).A >= 0x80
			switch {
			case in && start < 0:
				start = col
			case !in && start >= 0:
				if err := t.fillRect(image.Rect(start, row, col, row+1), c); err != nil {
					return err
				}
				start = -1
			}
		}
	}
	return drawPolyline(t, x, y, coords, c)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
