// Package markup draws text with inline formatting tokens on a Canvas.
//
// Plain characters are drawn with a dot-matrix Face scaled by the cursor
// size. Tokens have the form [cmd] or [cmd=value]; "[[" draws a literal '['.
//
//	[color=red]    set the cursor color (named or #RRGGBB)
//	[size=3]       pixels per font dot
//	[x=10] [y=10]  move the cursor
//	[hspace=1.5]   dots between characters, vspace for lines
//	[color=prev]   restore the value before the last change (any field)
//	[n]            newline
//	[hline]        rule across the window ([hl] and [hr] too)
//	[rect=WxH,fill,symbol]
//	[ellipse=RX,RY,fill,symbol]
//	[bar=W,H,PCT,FILL,EMPTY]
//	[shift=DX,DY]
//	[png=FILE] [pnm=FILE]
//	[rtc=FORMAT]   see FormatTime
//
// Rendering is best effort: a bad token is drawn literally and logged, and
// the rest of the text is still rendered.
package markup

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/flavioheleno/picolcd/font"
	"github.com/flavioheleno/picolcd/pnm"
)

// Canvas is the drawing surface the interpreter renders to. Colors are raw
// values for the canvas' live target. *picolcd.Surface implements it.
type Canvas interface {
	TargetWindowSize() (w, h int)
	Fill(c uint16) error
	HLine(x, y, w int, c uint16) error
	Rect(x, y, w, h int, c uint16, fill bool) error
	Ellipse(x, y, rx, ry int, c uint16, fill bool, mask uint8) error
	Blit(x, y int, img image.Image) error
	DrawPNG(x, y int, img image.Image) error
	ColorByName(name string) (uint16, bool)
	ColorByHex(hex string) (uint16, bool)
	Show() error
}

const quadAll = 0x0F

// Options controls a single render.
type Options struct {
	Clear bool // Fill the window with black first (Markup and Text only)
	Show  bool // Flush the canvas afterwards (Markup and Text only)

	X, Y int // Top-left corner of the first line
	Size int // Pixels per font dot (default: 5)

	Color string // Initial color, named or #RRGGBB (default: white)

	HSpace float64 // Dots between characters
	VSpace float64 // Dots between lines

	// Epoch returns the time used by rtc tokens. It is called at most once
	// per render. When nil or failing, the local clock is used.
	Epoch func() (int64, error)
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		Clear:  true,
		Show:   true,
		Size:   5,
		Color:  "white",
		HSpace: 1,
		VSpace: 1,
	}
}

// Opts configures a Renderer.
type Opts struct {
	Face   font.Face    // Default: font.Default()
	Images fs.FS        // Source of png and pnm files; nil disables them
	Logger *slog.Logger // Default: slog.Default()
}

// Renderer draws markup on a Canvas.
type Renderer struct {
	c      Canvas
	face   font.Face
	images fs.FS
	log    *slog.Logger
}

// New returns a Renderer drawing on c.
func New(c Canvas, opts *Opts) *Renderer {
	if opts == nil {
		opts = &Opts{}
	}
	r := &Renderer{c: c, face: opts.Face, images: opts.Images, log: opts.Logger}
	if r.face == nil {
		r.face = font.Default()
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// Face returns the font in use.
func (r *Renderer) Face() font.Face {
	return r.face
}

// CharGridSize reports how many glyph cells, with one dot of spacing, fit the
// canvas window at the given size.
func (r *Renderer) CharGridSize(size int) (cols, rows int) {
	if size < 1 {
		size = 1
	}
	w, h := r.c.TargetWindowSize()
	return w / ((r.face.Width() + 1) * size), h / ((r.face.Height() + 1) * size)
}

// Markup renders text, clearing the canvas first and showing it afterwards
// as opts requests.
func (r *Renderer) Markup(text string, opts *Options) error {
	return r.frame(opts, func(rd *render) { rd.markup(text) })
}

// Text renders text without interpreting tokens. Only newlines are special.
func (r *Renderer) Text(text string, opts *Options) error {
	return r.frame(opts, func(rd *render) { rd.text(text) })
}

// Render draws text on top of the canvas contents. Options.Clear and
// Options.Show are ignored.
func (r *Renderer) Render(text string, opts *Options) error {
	rd := r.begin(opts)
	rd.markup(text)
	return rd.err
}

func (r *Renderer) frame(opts *Options, draw func(*render)) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	rd := r.begin(opts)
	if opts.Clear {
		rd.check(r.c.Fill(0))
	}
	draw(rd)
	if opts.Show {
		rd.check(r.c.Show())
	}
	return rd.err
}

// render is the state of one call.
type render struct {
	*Renderer
	cur   cursor
	epoch func() (int64, error)
	clock *int64 // Epoch shared by all rtc tokens
	err   error
}

func (r *Renderer) begin(opts *Options) *render {
	if opts == nil {
		opts = DefaultOptions()
	}
	rd := &render{
		Renderer: r,
		epoch:    opts.Epoch,
		cur: cursor{
			startX: opts.X, startY: opts.Y,
			x: opts.X, y: opts.Y,
			size:   opts.Size,
			hspace: opts.HSpace, vspace: opts.VSpace,
		},
	}
	if opts.Size <= 0 {
		rd.cur.size = 5
	}
	name := opts.Color
	if name == "" {
		name = "white"
	}
	c, ok := rd.color(name)
	if !ok {
		r.log.Warn("markup: unknown color, using white", "color", name)
		c, _ = r.c.ColorByName("white")
	}
	rd.cur.color = c
	return rd
}

// check keeps the first canvas error. Rendering continues regardless.
func (rd *render) check(err error) {
	if err != nil && rd.err == nil {
		rd.err = err
	}
}

func (rd *render) color(s string) (uint16, bool) {
	if c, ok := rd.c.ColorByName(s); ok {
		return c, true
	}
	return rd.c.ColorByHex(s)
}

func (rd *render) markup(s string) {
	for i := 0; i < len(s); {
		ch, n := utf8.DecodeRuneInString(s[i:])
		switch ch {
		case '\n':
			rd.newline()
		case '[':
			if strings.HasPrefix(s[i+1:], "[") {
				rd.glyph('[')
				n = 2
				break
			}
			end := strings.IndexByte(s[i+1:], ']')
			if end < 0 {
				rd.log.Warn("markup: unmatched '['", "offset", i)
				rd.glyph('[')
				break
			}
			rd.token(s[i+1 : i+1+end])
			n = end + 2
		default:
			rd.glyph(ch)
		}
		i += n
	}
}

func (rd *render) text(s string) {
	for _, ch := range s {
		if ch == '\n' {
			rd.newline()
		} else {
			rd.glyph(ch)
		}
	}
}

func (rd *render) glyph(ch rune) {
	size := rd.cur.size
	for col := 0; col < rd.face.Width(); col++ {
		for row := 0; row < rd.face.Height(); row++ {
			if rd.face.Dot(ch, col, row) {
				rd.check(rd.c.Rect(rd.cur.x+col*size, rd.cur.y+row*size, size, size, rd.cur.color, true))
			}
		}
	}
	rd.cur.x += int(float64(size) * (float64(rd.face.Width()) + rd.cur.hspace))
}

func (rd *render) newline() {
	rd.cur.x = rd.cur.startX
	rd.cur.y += int(float64(rd.cur.size) * (float64(rd.face.Height()) + rd.cur.vspace))
}

func (rd *render) hline() {
	w, _ := rd.c.TargetWindowSize()
	rd.check(rd.c.HLine(rd.cur.startX, rd.cur.y, w, rd.cur.color))
	rd.cur.x = rd.cur.startX
	rd.cur.y++
}

// spacing is the extra advance after a symbol, as after a glyph.
func (rd *render) spacing() int {
	return int(rd.cur.hspace * float64(rd.cur.size))
}

var errBadValue = errors.New("bad value")

func (rd *render) token(tok string) {
	cmd, val, _ := strings.Cut(tok, "=")
	cmd = strings.ToLower(cmd)

	var err error
	switch cmd {
	case "n":
		rd.newline()
		return
	case "hline", "hl", "hr":
		rd.hline()
		return
	case "rect":
		err = rd.rect(val)
	case "ellipse":
		err = rd.ellipse(val)
	case "bar":
		err = rd.bar(val)
	case "shift":
		err = rd.shift(val)
	case "png":
		err = rd.png(val)
	case "pnm":
		err = rd.pnm(val)
	case "rtc":
		rd.text(FormatTime(val, rd.now()))
		return
	default:
		f, ok := fields[cmd]
		if !ok || val == "" {
			rd.log.Warn("markup: unknown token", "token", tok)
			rd.text("[" + tok + "]")
			return
		}
		rd.setField(cmd, f, val)
		return
	}

	switch {
	case errors.Is(err, errBadValue):
		rd.log.Warn("markup: invalid token", "token", tok, "err", err)
		rd.text("[" + tok + "]")
	case err != nil:
		rd.log.Warn("markup: token failed", "token", tok, "err", err)
	}
}

func (rd *render) setField(name string, f field, val string) {
	if val == "prev" {
		if !f.restore(&rd.cur) {
			rd.log.Warn("markup: no previous value", "field", name)
		}
		return
	}
	if !f.parse(rd, val) {
		rd.log.Warn("markup: invalid value", "field", name, "value", val)
	}
}

func (rd *render) now() int64 {
	if rd.clock != nil {
		return *rd.clock
	}
	var v int64
	var err error
	if rd.epoch != nil {
		v, err = rd.epoch()
	} else {
		err = errors.New("no epoch source")
	}
	if err != nil {
		rd.log.Warn("markup: epoch not available, using local clock", "err", err)
		v = time.Now().Unix()
	}
	rd.clock = &v
	return v
}

// shape parses "W,H[,fill[,symbol]]" where the first pair may also be "WxH".
func shape(val string) (a, b float64, fill, symbol bool, err error) {
	parts := strings.Split(val, ",")
	if first, second, ok := strings.Cut(parts[0], "x"); ok {
		parts = append([]string{first, second}, parts[1:]...)
	}
	if len(parts) < 2 || len(parts) > 4 {
		return 0, 0, false, false, fmt.Errorf("%w: %q", errBadValue, val)
	}
	var ok bool
	if a, ok = parseFloat(parts[0]); !ok {
		return 0, 0, false, false, fmt.Errorf("%w: %q", errBadValue, parts[0])
	}
	if b, ok = parseFloat(parts[1]); !ok {
		return 0, 0, false, false, fmt.Errorf("%w: %q", errBadValue, parts[1])
	}
	fill = true
	if len(parts) > 2 {
		if fill, ok = parseBool(parts[2]); !ok {
			return 0, 0, false, false, fmt.Errorf("%w: %q", errBadValue, parts[2])
		}
	}
	if len(parts) > 3 {
		if symbol, ok = parseBool(parts[3]); !ok {
			return 0, 0, false, false, fmt.Errorf("%w: %q", errBadValue, parts[3])
		}
	}
	return a, b, fill, symbol, nil
}

func (rd *render) rect(val string) error {
	fw, fh, fill, symbol, err := shape(val)
	if err != nil {
		return err
	}
	if symbol {
		fw *= float64(rd.cur.size)
		fh *= float64(rd.cur.size)
	}
	w, h := int(fw), int(fh)
	rd.check(rd.c.Rect(rd.cur.x, rd.cur.y, w, h, rd.cur.color, fill))
	rd.cur.x += w
	if symbol {
		rd.cur.x += rd.spacing()
	}
	return nil
}

func (rd *render) ellipse(val string) error {
	frx, fry, fill, symbol, err := shape(val)
	if err != nil {
		return err
	}
	if symbol {
		frx *= float64(rd.cur.size)
		fry *= float64(rd.cur.size)
	}
	rx, ry := int(frx), int(fry)
	rd.check(rd.c.Ellipse(rd.cur.x+rx, rd.cur.y+ry, rx, ry, rd.cur.color, fill, quadAll))
	rd.cur.x += 2*rx + 1
	if symbol {
		rd.cur.x += rd.spacing()
	}
	return nil
}

// bar draws W,H,PCT[,FILL[,EMPTY]]. Bars taller than wide fill bottom-up.
func (rd *render) bar(val string) error {
	parts := strings.Split(val, ",")
	if len(parts) < 3 || len(parts) > 5 {
		return fmt.Errorf("%w: %q", errBadValue, val)
	}
	w, okW := parseInt(parts[0])
	h, okH := parseInt(parts[1])
	pct, okP := parseFloat(parts[2])
	if !okW || !okH || !okP {
		return fmt.Errorf("%w: %q", errBadValue, val)
	}
	pct = min(max(pct, 0), 100)

	full, empty := rd.cur.color, uint16(0)
	if len(parts) > 3 {
		c, ok := rd.color(parts[3])
		if !ok {
			return fmt.Errorf("%w: color %q", errBadValue, parts[3])
		}
		full = c
	}
	if len(parts) > 4 {
		c, ok := rd.color(parts[4])
		if !ok {
			return fmt.Errorf("%w: color %q", errBadValue, parts[4])
		}
		empty = c
	}

	x, y := rd.cur.x, rd.cur.y
	rd.check(rd.c.Rect(x, y, w, h, empty, true))
	if h > w {
		fh := int(float64(h) * pct / 100)
		if fh > 0 {
			rd.check(rd.c.Rect(x, y+h-fh, w, fh, full, true))
		}
	} else {
		fw := int(float64(w) * pct / 100)
		if fw > 0 {
			rd.check(rd.c.Rect(x, y, fw, h, full, true))
		}
	}
	rd.cur.x += w
	return nil
}

func (rd *render) shift(val string) error {
	a, b, ok := strings.Cut(val, ",")
	if !ok {
		// "0x-20"; the separator is the first 'x' after the first character.
		i := strings.IndexByte(val[min(len(val), 1):], 'x')
		if i < 0 {
			return fmt.Errorf("%w: %q", errBadValue, val)
		}
		a, b = val[:i+1], val[i+2:]
	}
	dx, okX := parseInt(a)
	dy, okY := parseInt(b)
	if !okX || !okY {
		return fmt.Errorf("%w: %q", errBadValue, val)
	}
	rd.cur.x += dx
	rd.cur.y += dy
	return nil
}

func (rd *render) open(name string, decode func(fs.File) (image.Image, error)) (image.Image, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: missing file name", errBadValue)
	}
	if rd.images == nil {
		return nil, errors.New("no image source")
	}
	f, err := rd.images.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return img, nil
}

func (rd *render) png(name string) error {
	img, err := rd.open(name, func(f fs.File) (image.Image, error) { return png.Decode(f) })
	if err != nil {
		return err
	}
	rd.check(rd.c.DrawPNG(rd.cur.x, rd.cur.y, img))
	return nil
}

func (rd *render) pnm(name string) error {
	img, err := rd.open(name, func(f fs.File) (image.Image, error) { return pnm.Decode(f) })
	if err != nil {
		return err
	}
	rd.check(rd.c.Blit(rd.cur.x, rd.cur.y, img))
	rd.cur.x += img.Bounds().Dx()
	return nil
}

func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	return v, err == nil
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func parseSpacing(s string) (float64, bool) {
	v, ok := parseFloat(s)
	return v, ok && v >= 0
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "t", "1":
		return true, true
	case "n", "no", "false", "f", "0":
		return false, true
	}
	return false, false
}
