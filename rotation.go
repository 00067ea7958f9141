package picolcd

import (
	"fmt"
	"image"
	"strings"
)

// MADCTL bits of the ST7789 memory access control register.
const (
	madctlMY = 0x80 // Mirror row address
	madctlMX = 0x40 // Mirror column address
	madctlMV = 0x20 // Swap row/column
)

// RotationLayout is the panel geometry for one orientation.
type RotationLayout struct {
	Degrees int

	// Addressable size in this orientation
	Width  int
	Height int

	// Offset of the visible area inside panel memory
	OffsetX int
	OffsetY int

	MirrorRow  bool // MY
	MirrorCol  bool // MX
	SwapRowCol bool // MV
}

// Landscape reports whether the long dimension is horizontal.
func (l RotationLayout) Landscape() bool {
	return l.Width >= l.Height
}

// Bounds returns the visible area in memory addressed through this layout.
func (l RotationLayout) Bounds() image.Rectangle {
	return image.Rect(l.OffsetX, l.OffsetY, l.OffsetX+l.Width, l.OffsetY+l.Height)
}

// MADCTL returns the memory access control byte for this layout.
func (l RotationLayout) MADCTL() byte {
	var b byte
	if l.MirrorRow {
		b |= madctlMY
	}
	if l.MirrorCol {
		b |= madctlMX
	}
	if l.SwapRowCol {
		b |= madctlMV
	}
	return b
}

// Model describes one physical panel: its landscape size, the size of its
// controller memory and the layout table for the four orientations.
type Model struct {
	Name string

	// Visible size in landscape orientation
	Width  int
	Height int

	// Controller memory size in landscape orientation
	MemWidth  int
	MemHeight int

	Layouts [4]RotationLayout

	// Button name to GPIO pin name
	Buttons map[string]string

	// Button that advances the rotation
	RotateButton string
}

// Layout returns the layout for degrees.
func (m *Model) Layout(degrees int) (RotationLayout, bool) {
	for _, l := range m.Layouts {
		if l.Degrees == degrees {
			return l, true
		}
	}
	return RotationLayout{}, false
}

func (m *Model) layoutIndex(degrees int) int {
	for i, l := range m.Layouts {
		if l.Degrees == degrees {
			return i
		}
	}
	return -1
}

func (m *Model) String() string {
	return fmt.Sprintf("%s (%dx%d)", m.Name, m.Width, m.Height)
}

func layouts(w, h int, x180, y270 int) [4]RotationLayout {
	return [4]RotationLayout{
		{Degrees: 0, Width: w, Height: h, MirrorCol: true, SwapRowCol: true},
		{Degrees: 90, Width: h, Height: w},
		{Degrees: 180, Width: w, Height: h, OffsetX: x180, MirrorRow: true, SwapRowCol: true},
		{Degrees: 270, Width: h, Height: w, OffsetY: y270, MirrorRow: true, MirrorCol: true},
	}
}

// Model13 is the 1.3" 240x240 panel. Its controller memory is 320 lines
// long, so the 180 and 270 degree layouts start 80 pixels in.
var Model13 = &Model{
	Name:      "1_3",
	Width:     240,
	Height:    240,
	MemWidth:  320,
	MemHeight: 240,
	Layouts:   layouts(240, 240, 80, 80),
	Buttons: map[string]string{
		"A": "GPIO15", "B": "GPIO17", "X": "GPIO19", "Y": "GPIO21",
		"UP": "GPIO2", "DOWN": "GPIO18", "LEFT": "GPIO16", "RIGHT": "GPIO20", "CTRL": "GPIO3",
	},
	RotateButton: "A",
}

// Model20 is the 2.0" 320x240 panel.
var Model20 = &Model{
	Name:      "2_0",
	Width:     320,
	Height:    240,
	MemWidth:  320,
	MemHeight: 240,
	Layouts:   layouts(320, 240, 0, 0),
	Buttons: map[string]string{
		"B1": "GPIO15", "B2": "GPIO17", "B3": "GPIO2", "B4": "GPIO3",
	},
	RotateButton: "B2",
}

// Models lists the built-in panels.
var Models = []*Model{Model13, Model20}

// ModelByName returns the built-in panel called name.
func ModelByName(name string) (*Model, bool) {
	for _, m := range Models {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// ParseOrientation parses a rotation in degrees or one of its synonyms.
func ParseOrientation(s string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "landscape", "normal", "default":
		return 0, true
	case "270", "-90", "portrait":
		return 270, true
	case "180", "inverted-landscape":
		return 180, true
	case "90", "inverted-portrait":
		return 90, true
	}
	return 0, false
}
