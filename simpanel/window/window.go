// Package window shows a simulated panel in a desktop window.
package window

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/flavioheleno/picolcd/simpanel"
)

// Opts is the configuration for the window.
type Opts struct {
	Title string // Default: "picolcd"
	Scale int    // Window pixels per panel pixel (default: 2)

	// Memory view shown in the window: the MADCTL byte used to read panel
	// memory back and the visible rectangle in that addressing.
	MADCTL byte
	View   image.Rectangle // Default: 320x240

	// Step runs once per tick before drawing; an error closes the window.
	Step func() error

	// Keys maps keyboard keys to actions, e.g. simulated buttons.
	Keys map[ebiten.Key]func()
}

type game struct {
	p    *simpanel.Panel
	opts Opts
	img  *ebiten.Image
}

// Run opens the window and blocks until it is closed.
func Run(p *simpanel.Panel, opts *Opts) error {
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Title == "" {
		o.Title = "picolcd"
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
	if o.View.Empty() {
		o.View = image.Rect(0, 0, 320, 240)
	}

	g := &game{p: p, opts: o}
	ebiten.SetWindowTitle(o.Title)
	ebiten.SetWindowSize(o.View.Dx()*o.Scale, o.View.Dy()*o.Scale)
	ebiten.SetTPS(30)
	return ebiten.RunGame(g)
}

func (g *game) Update() error {
	for k, fn := range g.opts.Keys {
		if inpututil.IsKeyJustPressed(k) {
			fn()
		}
	}
	if g.opts.Step != nil {
		return g.opts.Step()
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	v := g.opts.View
	if g.img == nil {
		g.img = ebiten.NewImage(v.Dx(), v.Dy())
	}
	snap := g.p.View(g.opts.MADCTL, v)
	g.img.WritePixels(snap.Pix)
	screen.DrawImage(g.img, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.opts.View.Dx(), g.opts.View.Dy()
}
