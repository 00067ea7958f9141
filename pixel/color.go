package pixel

import (
	"image/color"
	"strconv"
	"strings"
)

// Profile selects the quantization formula and storage layout of a pixel.
type Profile uint8

const (
	// ProfileRGB565 is 16bpp: rrrrrggggggbbbbb.
	ProfileRGB565 Profile = iota
	// ProfileRGB444 is 12bpp: rrrrggggbbbb.
	ProfileRGB444
)

// BitsPerPixel returns the storage size of one pixel in bits.
func (p Profile) BitsPerPixel() int {
	if p == ProfileRGB444 {
		return 12
	}
	return 16
}

func (p Profile) String() string {
	switch p {
	case ProfileRGB565:
		return "RGB565"
	case ProfileRGB444:
		return "RGB444"
	}
	return "Profile(" + strconv.Itoa(int(p)) + ")"
}

// ParseProfile parses "rgb565" or "rgb444" (case-insensitive).
func ParseProfile(s string) (Profile, bool) {
	switch strings.ToLower(s) {
	case "rgb565", "565":
		return ProfileRGB565, true
	case "rgb444", "444":
		return ProfileRGB444, true
	}
	return 0, false
}

// scale rounds v*max/255.
func scale(v uint8, max uint32) uint32 {
	return (uint32(v)*max + 127) / 255
}

// expand rounds v*255/max.
func expand(v, max uint32) uint8 {
	return uint8((v*255 + max/2) / max)
}

// Quantize packs an 8-bit per channel color into the profile's pixel value.
// RGB565 values are returned in panel-native order (R in the high bits); the
// caller swaps them when storing into a little-endian buffer.
func Quantize(p Profile, r, g, b uint8) uint16 {
	if p == ProfileRGB444 {
		return uint16(scale(r, 15)<<8 | scale(g, 15)<<4 | scale(b, 15))
	}
	return uint16(scale(r, 31)<<11 | scale(g, 63)<<5 | scale(b, 31))
}

// Decode expands a pixel value back to 8 bits per channel.
func Decode(p Profile, v uint16) (r, g, b uint8) {
	if p == ProfileRGB444 {
		return expand(uint32(v>>8)&0x0F, 15), expand(uint32(v>>4)&0x0F, 15), expand(uint32(v)&0x0F, 15)
	}
	return expand(uint32(v>>11)&0x1F, 31), expand(uint32(v>>5)&0x3F, 63), expand(uint32(v)&0x1F, 31)
}

// SwapBytes swaps the high and low byte of v.
func SwapBytes(v uint16) uint16 {
	return v<<8 | v>>8
}

var namedColors = map[string][3]uint8{
	"red":     {0xFF, 0x00, 0x00},
	"green":   {0x00, 0xFF, 0x00},
	"blue":    {0x00, 0x00, 0xFF},
	"cyan":    {0x00, 0xFF, 0xFF},
	"magenta": {0xFF, 0x00, 0xFF},
	"yellow":  {0xFF, 0xFF, 0x00},
	"white":   {0xFF, 0xFF, 0xFF},
	"black":   {0x00, 0x00, 0x00},
}

// Named resolves one of red, green, blue, cyan, magenta, yellow, white or
// black.
func Named(p Profile, name string) (uint16, bool) {
	rgb, ok := namedColors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, false
	}
	return Quantize(p, rgb[0], rgb[1], rgb[2]), true
}

// Hex resolves a "#RRGGBB" string. The leading '#' is optional.
func Hex(p Profile, s string) (uint16, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return Quantize(p, uint8(v>>16), uint8(v>>8), uint8(v)), true
}

// Lookup tries Named and then Hex.
func Lookup(p Profile, s string) (uint16, bool) {
	if v, ok := Named(p, s); ok {
		return v, true
	}
	return Hex(p, s)
}

// RGB565 is a 16-bit color in panel-native order.
type RGB565 struct {
	V uint16
}

// RGBA implements color.Color.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := Decode(ProfileRGB565, c.V)
	return uint32(r8) * 0x101, uint32(g8) * 0x101, uint32(b8) * 0x101, 0xFFFF
}

// RGB444 is a 12-bit color. Only the lower 12 bits of V are used.
type RGB444 struct {
	V uint16
}

// RGBA implements color.Color.
func (c RGB444) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := Decode(ProfileRGB444, c.V&0x0FFF)
	return uint32(r8) * 0x101, uint32(g8) * 0x101, uint32(b8) * 0x101, 0xFFFF
}

func toRGB565(c color.Color) color.Color {
	if v, ok := c.(RGB565); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB565{V: Quantize(ProfileRGB565, uint8(r>>8), uint8(g>>8), uint8(b>>8))}
}

func toRGB444(c color.Color) color.Color {
	if v, ok := c.(RGB444); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB444{V: Quantize(ProfileRGB444, uint8(r>>8), uint8(g>>8), uint8(b>>8))}
}

// RGB565Model converts colors to RGB565.
var RGB565Model = color.ModelFunc(toRGB565)

// RGB444Model converts colors to RGB444.
var RGB444Model = color.ModelFunc(toRGB444)

// Raw quantizes any color.Color for profile p.
func Raw(p Profile, c color.Color) uint16 {
	if p == ProfileRGB444 {
		return RGB444Model.Convert(c).(RGB444).V
	}
	return RGB565Model.Convert(c).(RGB565).V
}
