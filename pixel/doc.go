// Package pixel provides the color model and packed pixel buffers used by the
// ST7789 display surface.
//
// The panel always receives RGB565 in big-endian byte order. In memory the
// framebuffer is either:
//
// - RGB565LE: one little-endian uint16 word per pixel
// - RGB444: two pixels packed in three bytes, in the order the panel expects
// for its 12-bit interface
//
// Memory layout of two RGB444 pixels:
//
//	Pixels: 0           1
//	Values: R0 G0 B0    R1 G1 B1
//	Bytes:  R0G0  B0R1  G1B1
//
// Colors are quantized with rounding:
//
//	v := pixel.Quantize(pixel.ProfileRGB565, 255, 128, 0) // 0xFC00
//	r, g, b := pixel.Decode(pixel.ProfileRGB565, v)
//
// Named colors and "#RRGGBB" strings resolve through Quantize:
//
//	if v, ok := pixel.Named(pixel.ProfileRGB565, "cyan"); ok {
//		img.SetRaw(0, 0, pixel.SwapBytes(v))
//	}
package pixel
