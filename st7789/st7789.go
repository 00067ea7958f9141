// Package st7789 controls a ST7789 TFT LCD controller via SPI.
//
// The driver only moves bytes: it sends commands and parameters, programs the
// addressable window and streams pixel data. Rotation, pixel format and
// drawing are left to the caller, usually a picolcd.Surface.
package st7789

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Commands used by the driver and the panel emulator.
const (
	SWRESET   = 0x01 // Software reset
	SLPIN     = 0x10 // Sleep in
	SLPOUT    = 0x11 // Sleep out
	INVOFF    = 0x20 // Display inversion off
	INVON     = 0x21 // Display inversion on
	DISPOFF   = 0x28 // Display off
	DISPON    = 0x29 // Display on
	CASET     = 0x2A // Column address set
	RASET     = 0x2B // Row address set
	RAMWR     = 0x2C // Memory write
	MADCTL    = 0x36 // Memory data access control
	COLMOD    = 0x3A // Interface pixel format
	PORCTRL   = 0xB2 // Porch setting
	GCTRL     = 0xB7 // Gate control
	VCOMS     = 0xBB // VCOM setting
	LCMCTRL   = 0xC0 // LCM control
	VDVVRHEN  = 0xC2 // VDV and VRH command enable
	VRHS      = 0xC3 // VRH set
	VDVS      = 0xC4 // VDV set
	FRCTRL2   = 0xC6 // Frame rate control in normal mode
	PWCTRL1   = 0xD0 // Power control 1
	PVGAMCTRL = 0xE0 // Positive voltage gamma control
	NVGAMCTRL = 0xE1 // Negative voltage gamma control
)

// COLMOD parameters.
const (
	ColorRGB444 = 0x03 // 12 bits per pixel
	ColorRGB565 = 0x05 // 16 bits per pixel
)

var errHalted = errors.New("st7789: halted")

// Opts is the configuration for the ST7789 controller.
type Opts struct {
	// SPI clock (default: 40MHz)
	Freq physic.Frequency

	// Largest single SPI transfer; 0 asks the port, falling back to 4096.
	MaxTxSize int

	// Optional hardware reset pin
	RST gpio.PinOut
}

// Dev is the device handle for the ST7789 controller.
type Dev struct {
	// Communication
	c   conn.Conn   // SPI connection
	dc  gpio.PinOut // Data/Command pin
	rst gpio.PinOut // Reset pin (optional)

	maxTx int
	freq  physic.Frequency

	// State
	halted bool
}

// NewSPI creates a new ST7789 device connected via SPI.
//
// The SPI port is configured for Mode0 (CPOL=0, CPHA=0), 8-bit transfers.
// The dc (Data/Command) GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("st7789: dc pin is required")
	}
	if opts.MaxTxSize < 0 {
		return nil, errors.New("st7789: negative transfer size")
	}
	freq := opts.Freq
	if freq == 0 {
		freq = 40 * physic.MegaHertz
	}

	c, err := p.Connect(freq, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7789: %w", err)
	}

	maxTx := opts.MaxTxSize
	if maxTx == 0 {
		maxTx = 4096
		if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
			maxTx = l.MaxTxSize()
		}
	}

	d := &Dev{
		c:     c,
		dc:    dc,
		rst:   opts.RST,
		maxTx: maxTx,
		freq:  freq,
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// initSequence is the power-on register setup for the Waveshare Pico-LCD
// modules.
var initSequence = []struct {
	cmd    byte
	params []byte
}{
	{MADCTL, []byte{0x00}},
	{COLMOD, []byte{ColorRGB565}},
	{PORCTRL, []byte{0x0C, 0x0C, 0x00, 0x33, 0x33}},
	{GCTRL, []byte{0x35}},
	{VCOMS, []byte{0x19}},
	{LCMCTRL, []byte{0x2C}},
	{VDVVRHEN, []byte{0x01}},
	{VRHS, []byte{0x12}},
	{VDVS, []byte{0x20}},
	{FRCTRL2, []byte{0x0F}},
	{PWCTRL1, []byte{0xA4, 0xA1}},
	{PVGAMCTRL, []byte{0xD0, 0x04, 0x0D, 0x11, 0x13, 0x2B, 0x3F, 0x54, 0x4C, 0x18, 0x0D, 0x0B, 0x1F, 0x23}},
	{NVGAMCTRL, []byte{0xD0, 0x04, 0x0C, 0x11, 0x13, 0x2C, 0x3F, 0x44, 0x51, 0x2F, 0x1F, 0x1F, 0x20, 0x23}},
	{INVON, nil},
	{SLPOUT, nil},
	{DISPON, nil},
}

// init sends the initialization sequence to the display.
func (d *Dev) init() error {
	// Hardware reset sequence (if RST pin is provided)
	if d.rst != nil {
		for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
			if err := d.rst.Out(l); err != nil {
				return fmt.Errorf("st7789: failed to drive RST %s: %w", l, err)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	for _, s := range initSequence {
		if err := d.WriteCmd(s.cmd, s.params...); err != nil {
			return err
		}
	}
	return nil
}

// WriteCmd sends a command byte followed by its parameters.
func (d *Dev) WriteCmd(cmd byte, params ...byte) error {
	if d.halted {
		return errHalted
	}
	if err := d.sendCommand(cmd); err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	return d.sendData(params)
}

// WriteData sends data bytes, split into transfers the port accepts.
func (d *Dev) WriteData(data []byte) error {
	if d.halted {
		return errHalted
	}
	return d.sendData(data)
}

// SetWindow sets the column and row address window to w x h pixels at
// (x, y) and starts a memory write.
func (d *Dev) SetWindow(x, y, w, h int) error {
	if d.halted {
		return errHalted
	}
	if w <= 0 || h <= 0 || x < 0 || y < 0 || x+w > 0x10000 || y+h > 0x10000 {
		return fmt.Errorf("st7789: invalid window %dx%d+%d+%d", w, h, x, y)
	}
	x1, y1 := x+w-1, y+h-1
	if err := d.WriteCmd(CASET, byte(x>>8), byte(x), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.WriteCmd(RASET, byte(y>>8), byte(y), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return d.WriteCmd(RAMWR)
}

// sendCommand sends a single command byte.
func (d *Dev) sendCommand(cmd byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx([]byte{cmd}, nil)
}

// sendData sends a slice of data bytes.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(data) > 0 {
		n := min(len(data), d.maxTx)
		if err := d.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	if invert {
		return d.WriteCmd(INVON)
	}
	return d.WriteCmd(INVOFF)
}

// Halt turns the display off and puts the controller to sleep.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	if err := d.WriteCmd(DISPOFF); err != nil {
		return err
	}
	err := d.WriteCmd(SLPIN)
	d.halted = true
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("st7789.Dev{%s, %s}", d.c, d.freq)
}
