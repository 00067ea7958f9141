package picolcd

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"github.com/flavioheleno/picolcd/pixel"
	"tinygo.org/x/drivers"
)

// ST7789 commands issued by the surface.
const (
	cmdMADCTL = 0x36 // Memory data access control
	cmdCOLMOD = 0x3A // Interface pixel format

	colmod16 = 0x05
	colmod12 = 0x03
)

var (
	// ErrUnknownRotation is returned for degrees missing from the layout table.
	ErrUnknownRotation = errors.New("picolcd: unknown rotation")
	// ErrFramebufAlloc is returned when a framebuffer does not fit the budget.
	ErrFramebufAlloc = errors.New("picolcd: framebuffer allocation failed")
	// ErrOddDimensions is returned by Transpose for odd sized buffers.
	ErrOddDimensions = errors.New("picolcd: transpose needs even dimensions")
)

// Panel is the raw controller interface the surface draws through.
type Panel interface {
	// WriteCmd sends a command byte followed by its parameters.
	WriteCmd(cmd byte, params ...byte) error
	// WriteData streams pixel data into the current window.
	WriteData(data []byte) error
	// SetWindow programs the addressable window and starts a memory write.
	SetWindow(x, y, w, h int) error
}

// Opts is the configuration for a Surface.
type Opts struct {
	Model   *Model        // Panel model (default: Model20)
	Profile pixel.Profile // Framebuffer pixel format (default: RGB565)
	Degrees int           // Initial rotation (default: 0)

	Framebuf FramebufConf // Initial framebuffer (default: off)

	// Largest framebuffer in bytes; 0 means unlimited.
	MaxFramebufBytes int

	// Transfer chunk size for fills and blanking (default: 4096, must be even)
	ChunkBytes int

	Logger *slog.Logger // Default: slog.Default()
}

var _ drivers.Displayer = (*Surface)(nil)

type overlay struct {
	pt  image.Point
	img image.Image
}

// Surface is a drawable view of the panel, either direct or through an
// in-memory framebuffer window. It is safe for concurrent use.
type Surface struct {
	mu sync.Mutex

	p       Panel
	model   *Model
	profile pixel.Profile
	log     *slog.Logger

	layout   RotationLayout
	conf     FramebufConf
	buf      pixel.Buffer // nil in direct mode
	maxBytes int

	overlays []overlay
	chunk    []byte
}

// New initializes the panel and returns a Surface drawing on it.
//
// The panel is programmed for 16-bit pixels and the requested rotation, and
// its whole memory is blanked. A framebuffer that does not fit
// MaxFramebufBytes is logged and left disabled.
func New(p Panel, opts *Opts) (*Surface, error) {
	if p == nil {
		return nil, errors.New("picolcd: nil panel")
	}
	if opts == nil {
		opts = &Opts{}
	}
	model := opts.Model
	if model == nil {
		model = Model20
	}
	layout, ok := model.Layout(opts.Degrees)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRotation, opts.Degrees)
	}
	if opts.Profile != pixel.ProfileRGB565 && opts.Profile != pixel.ProfileRGB444 {
		return nil, fmt.Errorf("picolcd: unknown pixel profile %v", opts.Profile)
	}
	chunk := opts.ChunkBytes
	if chunk == 0 {
		chunk = 4096
	}
	if chunk < 2 || chunk%2 != 0 {
		return nil, errors.New("picolcd: chunk size must be even and at least 2")
	}
	if opts.MaxFramebufBytes < 0 {
		return nil, errors.New("picolcd: negative framebuffer budget")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Surface{
		p:        p,
		model:    model,
		profile:  opts.Profile,
		log:      log,
		layout:   layout,
		maxBytes: opts.MaxFramebufBytes,
		chunk:    make([]byte, chunk),
	}
	if err := p.WriteCmd(cmdCOLMOD, colmod16); err != nil {
		return nil, fmt.Errorf("picolcd: set pixel format: %w", err)
	}
	if err := p.WriteCmd(cmdMADCTL, layout.MADCTL()); err != nil {
		return nil, fmt.Errorf("picolcd: set rotation: %w", err)
	}
	if err := s.fillMemBlank(); err != nil {
		return nil, err
	}
	if _, err := s.setFramebufConf(opts.Framebuf); err != nil && !errors.Is(err, ErrFramebufAlloc) {
		return nil, err
	}
	return s, nil
}

// Model returns the panel model.
func (s *Surface) Model() *Model {
	return s.model
}

// RotationDegrees returns the current rotation.
func (s *Surface) RotationDegrees() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Degrees
}

// LCDSize returns the panel size in the current rotation.
func (s *Surface) LCDSize() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Width, s.layout.Height
}

// FramebufConf returns the configuration actually in effect.
func (s *Surface) FramebufConf() FramebufConf {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conf
}

// FramebufSize returns the framebuffer size in the current rotation, or
// zeros when it is disabled.
func (s *Surface) FramebufSize() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conf.Size(s.layout.Landscape())
}

// TargetWindowSize returns the size drawing operations address: the
// framebuffer when enabled, the panel otherwise.
func (s *Surface) TargetWindowSize() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.target().bounds()
	return r.Dx(), r.Dy()
}

// SetRotation switches to the layout for degrees.
func (s *Surface) SetRotation(degrees int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setRotation(degrees)
}

// SetRotationNext advances to the next entry of the layout table.
func (s *Surface) SetRotationNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.model.layoutIndex(s.layout.Degrees)
	next := s.model.Layouts[(i+1)%len(s.model.Layouts)]
	return s.setRotation(next.Degrees)
}

func (s *Surface) setRotation(degrees int) error {
	layout, ok := s.model.Layout(degrees)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRotation, degrees)
	}
	if !s.conf.IsFullScreen(s.model.Width, s.model.Height) {
		if err := s.fillMemBlank(); err != nil {
			return err
		}
	}
	if err := s.p.WriteCmd(cmdMADCTL, layout.MADCTL()); err != nil {
		return fmt.Errorf("picolcd: set rotation: %w", err)
	}
	if s.buf != nil && s.layout.Landscape() != layout.Landscape() {
		ob := s.buf.Bounds()
		pix := s.buf.Bytes()
		if err := Transpose(pix, s.profile.BitsPerPixel(), ob.Dx(), ob.Dy()); err != nil {
			if !errors.Is(err, ErrOddDimensions) {
				return err
			}
			s.log.Warn("framebuffer blanked on rotation", "framebuf", s.conf, "degrees", degrees)
			clear(pix)
		}
		w, h := s.conf.Size(layout.Landscape())
		s.buf = pixel.NewBuffer(s.profile, pix, w, h)
	}
	s.layout = layout
	return nil
}

// SetFramebufConf applies c, clamped to the panel. Disabled configurations
// release the buffer. When the buffer cannot be allocated the surface falls
// back to direct mode and returns ErrFramebufAlloc along with the effective
// (disabled) configuration.
func (s *Surface) SetFramebufConf(c FramebufConf) (FramebufConf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setFramebufConf(c)
}

func (s *Surface) setFramebufConf(c FramebufConf) (FramebufConf, error) {
	c = c.Clamp(s.model.Width, s.model.Height)
	s.buf = nil
	s.overlays = nil
	s.conf = FramebufOff
	if !c.Enabled {
		return s.conf, nil
	}

	w, h := c.Size(s.layout.Landscape())
	n := pixel.BufferSize(s.profile, w, h)
	if s.maxBytes > 0 && n > s.maxBytes {
		s.log.Warn("framebuffer disabled", "framebuf", c, "bytes", n, "budget", s.maxBytes)
		return s.conf, fmt.Errorf("%w: %s needs %d bytes", ErrFramebufAlloc, c, n)
	}
	s.buf = pixel.NewBuffer(s.profile, make([]byte, n), w, h)
	s.conf = c
	return s.conf, nil
}

// target selects the live draw target. Callers hold s.mu.
func (s *Surface) target() drawTarget {
	if s.buf != nil {
		return &bufferTarget{buf: s.buf}
	}
	return &panelTarget{
		s:      s,
		origin: image.Pt(s.layout.OffsetX, s.layout.OffsetY),
		size:   image.Pt(s.layout.Width, s.layout.Height),
	}
}

// windowTarget addresses the framebuffer window directly on the panel.
func (s *Surface) windowTarget() *panelTarget {
	r := s.conf.window(s.layout)
	return &panelTarget{
		s:      s,
		origin: r.Min.Add(image.Pt(s.layout.OffsetX, s.layout.OffsetY)),
		size:   r.Size(),
	}
}

// stream writes n bytes by repeating chunk, which must have an even length.
func (s *Surface) stream(chunk []byte, n int) error {
	for n > 0 {
		c := chunk[:min(n, len(chunk))]
		if err := s.p.WriteData(c); err != nil {
			return err
		}
		n -= len(c)
	}
	return nil
}

// FillMemBlank zeroes the whole panel memory, including the parts outside the
// visible area, then restores the framebuffer window if one is active.
func (s *Surface) FillMemBlank() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fillMemBlank()
}

func (s *Surface) fillMemBlank() error {
	w, h := s.model.MemHeight, s.model.MemWidth
	if s.layout.SwapRowCol {
		w, h = s.model.MemWidth, s.model.MemHeight
	}
	if err := s.p.SetWindow(0, 0, w, h); err != nil {
		return err
	}
	clear(s.chunk)
	if err := s.stream(s.chunk, 2*w*h); err != nil {
		return err
	}
	if s.buf != nil {
		t := s.windowTarget()
		return t.window(t.bounds())
	}
	return nil
}

// Show flushes the framebuffer to its window and redraws deferred images.
// It does nothing in direct mode.
func (s *Surface) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.show()
}

func (s *Surface) show() error {
	if s.buf == nil {
		return nil
	}
	// Any command ends a memory write, so the pixel format goes first.
	if s.profile == pixel.ProfileRGB444 {
		if err := s.p.WriteCmd(cmdCOLMOD, colmod12); err != nil {
			return err
		}
	}
	t := s.windowTarget()
	if err := t.window(t.bounds()); err != nil {
		return err
	}
	if err := s.p.WriteData(s.buf.Bytes()); err != nil {
		return err
	}
	if s.profile == pixel.ProfileRGB444 {
		if err := s.p.WriteCmd(cmdCOLMOD, colmod16); err != nil {
			return err
		}
	}
	for _, o := range s.overlays {
		if err := t.blit(o.pt, o.img); err != nil {
			return err
		}
	}
	return nil
}

// Clear drops deferred images, zeroes the framebuffer and blanks the panel.
func (s *Surface) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = nil
	if s.buf != nil {
		clear(s.buf.Bytes())
	}
	return s.fillMemBlank()
}

// encode swaps v when the live target is the little-endian RGB565 framebuffer.
func (s *Surface) encode(v uint16, p pixel.Profile) uint16 {
	if s.buf != nil && p == pixel.ProfileRGB565 {
		return pixel.SwapBytes(v)
	}
	return v
}

func (s *Surface) liveProfile() pixel.Profile {
	if s.buf != nil {
		return s.profile
	}
	return pixel.ProfileRGB565
}

// Color quantizes r, g, b for the live target.
func (s *Surface) Color(r, g, b uint8) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.liveProfile()
	return s.encode(pixel.Quantize(p, r, g, b), p)
}

// ColorByName resolves a named color for the live target.
func (s *Surface) ColorByName(name string) (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.liveProfile()
	v, ok := pixel.Named(p, name)
	if !ok {
		return 0, false
	}
	return s.encode(v, p), true
}

// ColorByHex resolves a "#RRGGBB" color for the live target.
func (s *Surface) ColorByHex(hex string) (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.liveProfile()
	v, ok := pixel.Hex(p, hex)
	if !ok {
		return 0, false
	}
	return s.encode(v, p), true
}

func (s *Surface) rawColor(c color.Color) uint16 {
	p := s.liveProfile()
	return s.encode(pixel.Raw(p, c), p)
}

// Fill paints the whole target window and drops deferred images.
func (s *Surface) Fill(c uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = nil
	t := s.target()
	return t.fillRect(t.bounds(), c)
}

// Pixel sets a single pixel.
func (s *Surface) Pixel(x, y int, c uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return drawPixel(s.target(), x, y, c)
}

// HLine draws a w pixel wide horizontal line.
func (s *Surface) HLine(x, y, w int, c uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target().fillRect(rect(x, y, w, 1), c)
}

// VLine draws a h pixel tall vertical line.
func (s *Surface) VLine(x, y, h int, c uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target().fillRect(rect(x, y, 1, h), c)
}

// Line draws a line between two points, both included.
func (s *Surface) Line(x0, y0, x1, y1 int, c uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return drawLine(s.target(), x0, y0, x1, y1, c)
}

// Rect draws a rectangle outline, or a filled rectangle when fill is set.
func (s *Surface) Rect(x, y, w, h int, c uint16, fill bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return drawRect(s.target(), x, y, w, h, c, fill)
}

// Ellipse draws the quadrants in mask of the ellipse centered on (x, y).
func (s *Surface) Ellipse(x, y, rx, ry int, c uint16, fill bool, mask uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return drawEllipse(s.target(), x, y, rx, ry, c, fill, mask)
}

// Poly draws the closed polygon whose vertices are the x, y pairs of coords,
// offset by (x, y). Filling is only possible in the framebuffer; in direct
// mode the outline is drawn instead.
func (s *Surface) Poly(x, y int, coords []int, c uint16, fill bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.target()
	if fill {
		if _, ok := t.(*bufferTarget); ok {
			return fillPoly(t, x, y, coords, c)
		}
		s.log.Warn("filled polygon needs a framebuffer, drawing outline")
	}
	return drawPolyline(t, x, y, coords, c)
}

// Blit draws img with its top-left corner at (x, y) on the live target.
func (s *Surface) Blit(x, y int, img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target().blit(image.Pt(x, y), img)
}

// DrawPNG draws a decoded PNG at (x, y). With a framebuffer the image is
// drawn on the panel over the framebuffer window after every Show, until the
// next Fill or Clear.
func (s *Surface) DrawPNG(x, y int, img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf == nil {
		return s.target().blit(image.Pt(x, y), img)
	}
	s.overlays = append(s.overlays, overlay{pt: image.Pt(x, y), img: img})
	return nil
}

// Size implements drivers.Displayer.
func (s *Surface) Size() (x, y int16) {
	w, h := s.TargetWindowSize()
	return int16(w), int16(h)
}

// SetPixel implements drivers.Displayer. Errors are logged.
func (s *Surface) SetPixel(x, y int16, c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := drawPixel(s.target(), int(x), int(y), s.rawColor(c)); err != nil {
		s.log.Warn("set pixel", "x", x, "y", y, "err", err)
	}
}

// Display implements drivers.Displayer.
func (s *Surface) Display() error {
	return s.Show()
}

// String returns a summary of the surface state.
func (s *Surface) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("picolcd.Surface{%s %dx%d rot=%d framebuf=%s}",
		s.model.Name, s.layout.Width, s.layout.Height, s.layout.Degrees, s.conf)
}
