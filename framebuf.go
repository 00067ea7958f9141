package picolcd

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// FramebufConf describes the optional in-memory sub-window. Geometry is
// always given in landscape orientation, independent of the current rotation.
type FramebufConf struct {
	Enabled bool
	W, H    int
	X, Y    int
}

// FramebufOff is the disabled configuration: draw straight to the panel.
var FramebufOff = FramebufConf{}

// String returns "off" or "WxH+X+Y".
func (c FramebufConf) String() string {
	if !c.Enabled {
		return "off"
	}
	return fmt.Sprintf("%dx%d+%d+%d", c.W, c.H, c.X, c.Y)
}

// Clamp fits c inside a lcdW x lcdH landscape panel. A zero area disables it.
func (c FramebufConf) Clamp(lcdW, lcdH int) FramebufConf {
	if !c.Enabled {
		return FramebufOff
	}
	c.W = min(c.W, lcdW)
	c.H = min(c.H, lcdH)
	if c.W <= 0 || c.H <= 0 {
		return FramebufOff
	}
	c.X = max(0, min(c.X, lcdW-c.W))
	c.Y = max(0, min(c.Y, lcdH-c.H))
	return c
}

// Size returns the buffer size in the requested orientation.
func (c FramebufConf) Size(landscape bool) (w, h int) {
	if !c.Enabled {
		return 0, 0
	}
	if landscape {
		return c.W, c.H
	}
	return c.H, c.W
}

// IsFullScreen reports whether c is disabled or covers the whole panel.
func (c FramebufConf) IsFullScreen(lcdW, lcdH int) bool {
	return !c.Enabled || (c.X == 0 && c.Y == 0 && c.W == lcdW && c.H == lcdH)
}

// window returns the rectangle c occupies in the coordinates of layout l.
// The buffer keeps its landscape shape in every layout where Width >= Height,
// so only portrait layouts swap the axes. The 180 and 270 degree layouts
// mirror the 0 and 90 degree ones.
func (c FramebufConf) window(l RotationLayout) image.Rectangle {
	w, h := c.Size(l.Landscape())
	x, y := c.X, c.Y
	if !l.Landscape() {
		x, y = l.Width-c.Y-c.H, c.X
	}
	if l.Degrees == 180 || l.Degrees == 270 {
		x, y = l.Width-x-w, l.Height-y-h
	}
	return image.Rect(x, y, x+w, y+h)
}

// ParseFramebufConf parses "off", a named preset (full, left, right, top,
// bottom, square), "WxH" or "WxH+X+Y" against a lcdW x lcdH landscape panel.
// Anything else yields the disabled configuration.
func ParseFramebufConf(s string, lcdW, lcdH int) FramebufConf {
	s = strings.ToLower(strings.TrimSpace(s))
	var c FramebufConf
	switch s {
	case "off", "":
		return FramebufOff
	case "full":
		c = FramebufConf{W: lcdW, H: lcdH}
	case "left":
		c = FramebufConf{W: lcdW / 2, H: lcdH}
	case "right":
		c = FramebufConf{W: lcdW / 2, H: lcdH, X: lcdW - lcdW/2}
	case "top":
		c = FramebufConf{W: lcdW, H: lcdH / 2}
	case "bottom":
		c = FramebufConf{W: lcdW, H: lcdH / 2, Y: lcdH - lcdH/2}
	case "square":
		side := min(lcdW, lcdH)
		c = FramebufConf{W: side, H: side, X: (lcdW - side) / 2}
	default:
		var ok bool
		if c, ok = scanGeometry(s); !ok {
			return FramebufOff
		}
	}
	c.Enabled = true
	return c.Clamp(lcdW, lcdH)
}

// scanGeometry reads "WxH" with an optional "+X+Y" suffix.
func scanGeometry(s string) (FramebufConf, bool) {
	var c FramebufConf
	fields := []*int{&c.W, &c.H, &c.X, &c.Y}
	seps := []byte{'x', '+', '+'}
	for i, f := range fields {
		n := 0
		for n < len(s) && s[n] >= '0' && s[n] <= '9' {
			n++
		}
		if n == 0 {
			return c, false
		}
		v, err := strconv.Atoi(s[:n])
		if err != nil {
			return c, false
		}
		*f = v
		s = s[n:]
		if len(s) == 0 {
			// WxH or WxH+X+Y; a dangling X is malformed.
			return c, i == 1 || i == 3
		}
		if i == len(seps) || s[0] != seps[i] {
			return c, false
		}
		s = s[1:]
	}
	return c, false
}
