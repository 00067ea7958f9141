// Package picolcd draws on Waveshare Pico-LCD panels driven by an ST7789
// controller.
//
// The 1.3" (240×240) and 2.0" (320×240) modules share the same 320×240
// controller memory. A Surface hides the differences: it programs the
// memory access control register for the requested orientation, offsets
// the visible window where the glass does not start at column 0, and draws
// either straight into panel memory or into an in-memory framebuffer that
// is streamed to the panel by Show.
//
// # Display Characteristics
//
// - 16-bit RGB565 pixels on the wire, big-endian
// - Optional 12-bit RGB444 framebuffer (3 bytes per 2 pixels) to save memory
// - Four orientations: 0, 90, 180 and 270 degrees
// - Framebuffer window of any size and position, or none at all
// - Panel buttons wired between GPIOs and ground (see package button)
//
// # Hardware Connection
//
// Connect the panel to your system via SPI:
//
//	Panel Pin → System Pin
//	GND       → GND
//	VCC       → 3.3V
//	CLK       → SPI Clock (SCLK)
//	DIN       → SPI Data (MOSI)
//	CS        → SPI Chip Select
//	DC        → GPIO (any available pin)
//	RST       → Optional: GPIO for hardware reset
//	BL        → 3.3V, or a GPIO to switch the backlight
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//
//		"github.com/flavioheleno/picolcd"
//		"github.com/flavioheleno/picolcd/st7789"
//	)
//
//	func main() {
//		host.Init()
//		b, _ := spireg.Open("")
//		dev, _ := st7789.NewSPI(b, gpioreg.ByName("GPIO25"), nil)
//		defer dev.Halt()
//
//		s, _ := picolcd.New(dev, &picolcd.Opts{
//			Model:    picolcd.Model20,
//			Degrees:  90,
//			Framebuf: picolcd.ParseFramebufConf("full", 320, 240),
//		})
//		red, _ := s.ColorByName("red")
//		s.Fill(0)
//		s.Rect(10, 10, 100, 50, red, true)
//		s.Show()
//	}
//
// # Framebuffer
//
// FramebufConf describes the buffered window in landscape coordinates, as
// "WxH+X+Y" or one of the presets full, left, right, top, bottom and square.
// The window follows the panel when it rotates. Drawing calls address the
// window, so (0, 0) is its top-left corner. Without a framebuffer the same
// calls write panel memory immediately, and Show does nothing.
//
// When a framebuffer does not fit Opts.MaxFramebufBytes the Surface logs a
// warning and carries on in direct mode; SetFramebufConf also returns
// ErrFramebufAlloc.
//
// # Colors
//
// Colors are raw values for the live target. Use Color, ColorByName or
// ColorByHex to build them: they take care of the byte order of the RGB565
// framebuffer and of the 12-bit packing of the RGB444 one.
//
// # Text
//
// Package markup renders text with inline formatting tokens on a Surface
// using the dot-matrix fonts of package font. The Surface also implements
// drivers.Displayer, so tinyfont.WriteLine and the rest of the TinyGo
// drivers ecosystem can draw on it.
//
// # Simulation
//
// Package simpanel emulates the controller memory in software and
// simpanel/window shows it in a desktop window, so everything above runs
// without hardware.
package picolcd
