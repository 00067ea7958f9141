package picolcd_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/flavioheleno/picolcd"
	"github.com/flavioheleno/picolcd/pixel"
	"github.com/flavioheleno/picolcd/simpanel"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	black = color.RGBA{0, 0, 0, 0xFF}
	red   = color.RGBA{0xFF, 0, 0, 0xFF}
	green = color.RGBA{0, 0xFF, 0, 0xFF}
	white = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
)

func newSurface(t *testing.T, opts *picolcd.Opts) (*picolcd.Surface, *simpanel.Panel) {
	t.Helper()
	if opts == nil {
		opts = &picolcd.Opts{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := simpanel.New()
	s, err := picolcd.New(p, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, p
}

func mustColor(t *testing.T, s *picolcd.Surface, name string) uint16 {
	t.Helper()
	c, ok := s.ColorByName(name)
	if !ok {
		t.Fatalf("ColorByName(%q) not found", name)
	}
	return c
}

func TestNew(t *testing.T) {
	s, p := newSurface(t, nil)
	if got := p.MADCTL(); got != 0x60 {
		t.Errorf("MADCTL = %#02x, want 0x60", got)
	}
	if got := p.COLMOD(); got != 0x05 {
		t.Errorf("COLMOD = %#02x, want 0x05", got)
	}
	if written, _ := p.Stats(); written != 320*240*2 {
		t.Errorf("blanked %d bytes, want %d", written, 320*240*2)
	}
	if w, h := s.TargetWindowSize(); w != 320 || h != 240 {
		t.Errorf("TargetWindowSize() = %dx%d, want 320x240", w, h)
	}
	if got, want := s.String(), "picolcd.Surface{2_0 320x240 rot=0 framebuf=off}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		p    picolcd.Panel
		opts *picolcd.Opts
		is   error
	}{
		{"nil panel", nil, nil, nil},
		{"unknown rotation", simpanel.New(), &picolcd.Opts{Degrees: 45}, picolcd.ErrUnknownRotation},
		{"odd chunk", simpanel.New(), &picolcd.Opts{ChunkBytes: 3}, nil},
		{"negative budget", simpanel.New(), &picolcd.Opts{MaxFramebufBytes: -1}, nil},
		{"unknown profile", simpanel.New(), &picolcd.Opts{Profile: 7}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := picolcd.New(tt.p, tt.opts)
			if err == nil {
				t.Fatal("expected error but didn't get one")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestNewFramebufOverBudget(t *testing.T) {
	s, _ := newSurface(t, &picolcd.Opts{
		Framebuf:         picolcd.ParseFramebufConf("full", 320, 240),
		MaxFramebufBytes: 1000,
	})
	if got := s.FramebufConf(); got != picolcd.FramebufOff {
		t.Errorf("FramebufConf() = %v, want off", got)
	}
}

func TestDirectFill(t *testing.T) {
	s, p := newSurface(t, nil)
	c := mustColor(t, s, "red")
	if c != 0xF800 {
		t.Errorf("ColorByName(red) = %#04x, want 0xf800", c)
	}
	if err := s.Fill(c); err != nil {
		t.Fatal(err)
	}
	for _, pt := range []image.Point{{0, 0}, {319, 239}, {160, 120}} {
		if got := p.At(pt.X, pt.Y); got != red {
			t.Errorf("At(%v) = %v, want red", pt, got)
		}
	}
}

func TestFramebufShow(t *testing.T) {
	s, p := newSurface(t, &picolcd.Opts{
		Framebuf: picolcd.ParseFramebufConf("320x120+0+120", 320, 240),
	})
	if w, h := s.TargetWindowSize(); w != 320 || h != 120 {
		t.Fatalf("TargetWindowSize() = %dx%d, want 320x120", w, h)
	}
	c := mustColor(t, s, "green")
	if want := pixel.SwapBytes(0x07E0); c != want {
		t.Errorf("ColorByName(green) = %#04x, want %#04x", c, want)
	}
	if err := s.Fill(c); err != nil {
		t.Fatal(err)
	}
	if got := p.At(0, 200); got != black {
		t.Errorf("At(0, 200) before Show = %v, want black", got)
	}
	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	if got := p.At(0, 200); got != green {
		t.Errorf("At(0, 200) = %v, want green", got)
	}
	if got := p.At(0, 0); got != black {
		t.Errorf("At(0, 0) outside the window = %v, want black", got)
	}
}

func TestRotateHalfScreenFramebuf(t *testing.T) {
	s, p := newSurface(t, &picolcd.Opts{
		Framebuf: picolcd.ParseFramebufConf("320x120+0+120", 320, 240),
	})
	if err := s.Pixel(5, 10, mustColor(t, s, "red")); err != nil {
		t.Fatal(err)
	}
	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	if got := p.At(5, 130); got != red {
		t.Fatalf("At(5, 130) = %v, want red", got)
	}

	p.ResetStats()
	if err := s.SetRotation(90); err != nil {
		t.Fatalf("SetRotation(90) error = %v", err)
	}
	if written, _ := p.Stats(); written != 320*240*2 {
		t.Errorf("rotation wrote %d bytes, want a full blank of %d", written, 320*240*2)
	}
	if got := p.View(0x60, image.Rect(0, 0, 320, 240)).RGBAAt(5, 130); got != black {
		t.Errorf("old pixel survived the blank: %v", got)
	}
	if w, h := s.FramebufSize(); w != 120 || h != 320 {
		t.Errorf("FramebufSize() = %dx%d, want 120x320", w, h)
	}
	if w, h := s.TargetWindowSize(); w != 120 || h != 320 {
		t.Errorf("TargetWindowSize() = %dx%d, want 120x320", w, h)
	}
	if got := s.FramebufConf().String(); got != "320x120+0+120" {
		t.Errorf("FramebufConf() = %s, want it unchanged", got)
	}

	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	if got := p.MADCTL(); got != 0x00 {
		t.Errorf("MADCTL = %#02x, want 0x00", got)
	}
	if got := p.At(5, 10); got != red {
		t.Errorf("transposed pixel At(5, 10) = %v, want red", got)
	}
}

func TestRotateFullScreenFramebuf(t *testing.T) {
	s, p := newSurface(t, &picolcd.Opts{
		Framebuf: picolcd.ParseFramebufConf("full", 320, 240),
	})
	p.ResetStats()
	if err := s.SetRotation(270); err != nil {
		t.Fatal(err)
	}
	if written, _ := p.Stats(); written != 0 {
		t.Errorf("full screen rotation wrote %d bytes, want no blank", written)
	}
	if w, h := s.FramebufSize(); w != 240 || h != 320 {
		t.Errorf("FramebufSize() = %dx%d, want 240x320", w, h)
	}
}

func TestRotateOddFramebuf(t *testing.T) {
	var logs bytes.Buffer
	s, _ := newSurface(t, &picolcd.Opts{
		Framebuf: picolcd.ParseFramebufConf("101x51", 320, 240),
		Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
	})
	if err := s.SetRotation(90); err != nil {
		t.Fatal(err)
	}
	if w, h := s.FramebufSize(); w != 51 || h != 101 {
		t.Errorf("FramebufSize() = %dx%d, want 51x101", w, h)
	}
	if !strings.Contains(logs.String(), "framebuffer blanked") {
		t.Errorf("log %q does not report the blank", logs.String())
	}
}

func TestRotateSquarePanelFramebuf(t *testing.T) {
	s, p := newSurface(t, &picolcd.Opts{
		Model:    picolcd.Model13,
		Framebuf: picolcd.ParseFramebufConf("240x120", 240, 240),
	})
	if err := s.SetRotation(90); err != nil {
		t.Fatal(err)
	}
	if w, h := s.FramebufSize(); w != 240 || h != 120 {
		t.Errorf("FramebufSize() = %dx%d, want 240x120", w, h)
	}
	if err := s.Pixel(5, 10, mustColor(t, s, "red")); err != nil {
		t.Fatal(err)
	}
	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	w, h := s.TargetWindowSize()
	if got := p.Window(); got.Dx() != w || got.Dy() != h {
		t.Errorf("Show() window = %v, framebuffer is %dx%d", got, w, h)
	}
	if got := p.At(5, 10); got != red {
		t.Errorf("At(5, 10) = %v, want red", got)
	}
	if got := p.At(10, 5); got != black {
		t.Errorf("At(10, 5) = %v, want black", got)
	}
}

var errSPI = errors.New("spi error")

// failingPanel fails every write of one command once fail is set.
type failingPanel struct {
	*simpanel.Panel
	cmd  byte
	fail bool
}

func (p *failingPanel) WriteCmd(cmd byte, params ...byte) error {
	if p.fail && cmd == p.cmd {
		return errSPI
	}
	return p.Panel.WriteCmd(cmd, params...)
}

func TestSetRotationPanelError(t *testing.T) {
	p := &failingPanel{Panel: simpanel.New(), cmd: 0x36}
	s, err := picolcd.New(p, &picolcd.Opts{
		Framebuf: picolcd.ParseFramebufConf("320x120+0+120", 320, 240),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	p.fail = true
	if err := s.SetRotation(90); !errors.Is(err, errSPI) {
		t.Fatalf("SetRotation(90) error = %v, want %v", err, errSPI)
	}
	if got := s.RotationDegrees(); got != 0 {
		t.Errorf("RotationDegrees() = %d, want 0", got)
	}
	if w, h := s.FramebufSize(); w != 320 || h != 120 {
		t.Errorf("FramebufSize() = %dx%d, want 320x120", w, h)
	}
	if w, h := s.TargetWindowSize(); w != 320 || h != 120 {
		t.Errorf("TargetWindowSize() = %dx%d, want 320x120", w, h)
	}

	p.fail = false
	if err := s.SetRotation(90); err != nil {
		t.Fatal(err)
	}
	if w, h := s.TargetWindowSize(); w != 120 || h != 320 {
		t.Errorf("TargetWindowSize() after retry = %dx%d, want 120x320", w, h)
	}
}

func TestSetRotationErrors(t *testing.T) {
	s, _ := newSurface(t, nil)
	if err := s.SetRotation(45); !errors.Is(err, picolcd.ErrUnknownRotation) {
		t.Errorf("SetRotation(45) error = %v, want ErrUnknownRotation", err)
	}
	if got := s.RotationDegrees(); got != 0 {
		t.Errorf("RotationDegrees() = %d after a failed rotation, want 0", got)
	}
}

func TestSetRotationNext(t *testing.T) {
	s, p := newSurface(t, nil)
	for _, want := range []int{90, 180, 270, 0} {
		if err := s.SetRotationNext(); err != nil {
			t.Fatal(err)
		}
		if got := s.RotationDegrees(); got != want {
			t.Errorf("RotationDegrees() = %d, want %d", got, want)
		}
		l, _ := s.Model().Layout(want)
		if got := p.MADCTL(); got != l.MADCTL() {
			t.Errorf("MADCTL = %#02x, want %#02x", got, l.MADCTL())
		}
		if w, h := s.LCDSize(); w != l.Width || h != l.Height {
			t.Errorf("LCDSize() = %dx%d, want %dx%d", w, h, l.Width, l.Height)
		}
	}
}

func TestSetFramebufConf(t *testing.T) {
	s, _ := newSurface(t, &picolcd.Opts{MaxFramebufBytes: 320 * 120 * 2})

	got, err := s.SetFramebufConf(picolcd.ParseFramebufConf("bottom", 320, 240))
	if err != nil {
		t.Fatalf("SetFramebufConf(bottom) error = %v", err)
	}
	if got.String() != "320x120+0+120" {
		t.Errorf("SetFramebufConf(bottom) = %s", got)
	}

	got, err = s.SetFramebufConf(picolcd.ParseFramebufConf("full", 320, 240))
	if !errors.Is(err, picolcd.ErrFramebufAlloc) {
		t.Errorf("SetFramebufConf(full) error = %v, want ErrFramebufAlloc", err)
	}
	if got != picolcd.FramebufOff || s.FramebufConf() != picolcd.FramebufOff {
		t.Errorf("conf after failed allocation = %v, %v, want off", got, s.FramebufConf())
	}
	if w, h := s.TargetWindowSize(); w != 320 || h != 240 {
		t.Errorf("TargetWindowSize() = %dx%d, want the panel", w, h)
	}

	got, err = s.SetFramebufConf(picolcd.FramebufConf{Enabled: true, W: 1000, H: 10, X: 50})
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "320x10+0+0" {
		t.Errorf("SetFramebufConf() = %s, want it clamped to 320x10+0+0", got)
	}
}

func TestShowRGB444(t *testing.T) {
	s, p := newSurface(t, &picolcd.Opts{
		Profile:  pixel.ProfileRGB444,
		Framebuf: picolcd.ParseFramebufConf("full", 320, 240),
	})
	c := mustColor(t, s, "red")
	if c != 0xF00 {
		t.Errorf("ColorByName(red) = %#03x, want 0xf00", c)
	}
	if err := s.Fill(c); err != nil {
		t.Fatal(err)
	}
	p.ResetStats()
	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	if written, _ := p.Stats(); written != 320*240*3/2 {
		t.Errorf("Show() wrote %d bytes, want %d", written, 320*240*3/2)
	}
	if got := p.COLMOD(); got != 0x05 {
		t.Errorf("COLMOD after Show = %#02x, want 0x05", got)
	}
	for _, pt := range []image.Point{{0, 0}, {319, 239}} {
		if got := p.At(pt.X, pt.Y); got != red {
			t.Errorf("At(%v) = %v, want red", pt, got)
		}
	}
}

func TestPolyFill(t *testing.T) {
	triangle := []int{0, 0, 10, 0, 10, 10}

	t.Run("direct", func(t *testing.T) {
		var logs bytes.Buffer
		s, p := newSurface(t, &picolcd.Opts{Logger: slog.New(slog.NewTextHandler(&logs, nil))})
		if err := s.Poly(0, 0, triangle, mustColor(t, s, "white"), true); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(logs.String(), "filled polygon") {
			t.Errorf("log %q does not warn about the fill", logs.String())
		}
		if got := p.At(5, 0); got != white {
			t.Errorf("outline At(5, 0) = %v, want white", got)
		}
		if got := p.At(8, 3); got != black {
			t.Errorf("interior At(8, 3) = %v, want black", got)
		}
	})

	t.Run("framebuffer", func(t *testing.T) {
		var logs bytes.Buffer
		s, p := newSurface(t, &picolcd.Opts{
			Framebuf: picolcd.ParseFramebufConf("full", 320, 240),
			Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
		})
		if err := s.Poly(0, 0, triangle, mustColor(t, s, "white"), true); err != nil {
			t.Fatal(err)
		}
		if err := s.Show(); err != nil {
			t.Fatal(err)
		}
		if logs.Len() > 0 {
			t.Errorf("unexpected log %q", logs.String())
		}
		if got := p.At(8, 3); got != white {
			t.Errorf("interior At(8, 3) = %v, want white", got)
		}
		if got := p.At(2, 8); got != black {
			t.Errorf("exterior At(2, 8) = %v, want black", got)
		}
	})
}

func redSquare() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, red)
		}
	}
	return img
}

func TestDrawPNGDeferred(t *testing.T) {
	s, p := newSurface(t, &picolcd.Opts{
		Framebuf: picolcd.ParseFramebufConf("full", 320, 240),
	})
	if err := s.DrawPNG(1, 1, redSquare()); err != nil {
		t.Fatal(err)
	}
	if got := p.At(1, 1); got != black {
		t.Errorf("At(1, 1) before Show = %v, want black", got)
	}
	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	if got := p.At(2, 2); got != red {
		t.Errorf("At(2, 2) after Show = %v, want red", got)
	}

	// The overlay is redrawn on every Show until the next Fill.
	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	if got := p.At(1, 1); got != red {
		t.Errorf("At(1, 1) after second Show = %v, want red", got)
	}
	if err := s.Fill(0); err != nil {
		t.Fatal(err)
	}
	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	if got := p.At(1, 1); got != black {
		t.Errorf("At(1, 1) after Fill = %v, want black", got)
	}
}

func TestBlit(t *testing.T) {
	s, p := newSurface(t, nil)
	if err := s.DrawPNG(10, 20, redSquare()); err != nil {
		t.Fatal(err)
	}
	if got := p.At(11, 21); got != red {
		t.Errorf("direct DrawPNG At(11, 21) = %v, want red", got)
	}

	s, p = newSurface(t, &picolcd.Opts{Framebuf: picolcd.ParseFramebufConf("full", 320, 240)})
	if err := s.Blit(318, 238, redSquare()); err != nil {
		t.Fatal(err)
	}
	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	if got := p.At(319, 239); got != red {
		t.Errorf("framebuffer Blit At(319, 239) = %v, want red", got)
	}
}

func TestClear(t *testing.T) {
	s, p := newSurface(t, &picolcd.Opts{Framebuf: picolcd.ParseFramebufConf("full", 320, 240)})
	if err := s.Fill(mustColor(t, s, "red")); err != nil {
		t.Fatal(err)
	}
	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if got := p.At(0, 0); got != black {
		t.Errorf("At(0, 0) after Clear = %v, want black", got)
	}
	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	if got := p.At(0, 0); got != black {
		t.Errorf("At(0, 0) after Clear and Show = %v, want black", got)
	}
}

func TestColors(t *testing.T) {
	s, _ := newSurface(t, nil)
	if got := s.Color(0xFF, 0, 0); got != 0xF800 {
		t.Errorf("direct Color(red) = %#04x, want 0xf800", got)
	}
	if got, ok := s.ColorByHex("#0000FF"); !ok || got != 0x001F {
		t.Errorf("direct ColorByHex(#0000FF) = %#04x, %v", got, ok)
	}
	if _, ok := s.ColorByName("mauve"); ok {
		t.Error("ColorByName(mauve) found")
	}

	if _, err := s.SetFramebufConf(picolcd.ParseFramebufConf("full", 320, 240)); err != nil {
		t.Fatal(err)
	}
	if got := s.Color(0xFF, 0, 0); got != 0x00F8 {
		t.Errorf("framebuffer Color(red) = %#04x, want 0x00f8", got)
	}
	if got, ok := s.ColorByHex("0000FF"); !ok || got != 0x1F00 {
		t.Errorf("framebuffer ColorByHex(0000FF) = %#04x, %v", got, ok)
	}
}

func TestModel13Offsets(t *testing.T) {
	s, p := newSurface(t, &picolcd.Opts{Model: picolcd.Model13, Degrees: 180})
	if w, h := s.TargetWindowSize(); w != 240 || h != 240 {
		t.Errorf("TargetWindowSize() = %dx%d, want 240x240", w, h)
	}
	if err := s.Fill(mustColor(t, s, "white")); err != nil {
		t.Fatal(err)
	}
	if got := p.At(80, 0); got != white {
		t.Errorf("At(80, 0) = %v, want white", got)
	}
	if got := p.At(79, 0); got != black {
		t.Errorf("At(79, 0) = %v, want black", got)
	}
}

func TestDisplayer(t *testing.T) {
	s, p := newSurface(t, nil)
	if x, y := s.Size(); x != 320 || y != 240 {
		t.Errorf("Size() = %d, %d, want 320, 240", x, y)
	}
	s.SetPixel(1, 1, red)
	if got := p.At(1, 1); got != red {
		t.Errorf("At(1, 1) = %v, want red", got)
	}

	tinyfont.WriteLine(s, &proggy.TinySZ8pt7b, 10, 20, "Hi", white)
	if err := s.Display(); err != nil {
		t.Fatal(err)
	}
	view := p.View(p.MADCTL(), image.Rect(0, 0, 320, 240))
	lit := 0
	for y := 0; y < 40; y++ {
		for x := 10; x < 40; x++ {
			if view.RGBAAt(x, y) == white {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("tinyfont drew nothing")
	}
}
