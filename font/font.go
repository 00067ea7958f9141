// Package font provides the fixed-cell glyph faces the markup renderer draws
// text with.
//
// A face answers whether a single dot of a glyph is set; the renderer scales
// every dot into a size x size square.
package font

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// Face is a monospaced dot-matrix font.
type Face interface {
	// Width and Height return the glyph cell size in dots.
	Width() int
	Height() int
	// Dot reports whether the dot at col, row of r is set. Runes the face
	// does not cover are blank.
	Dot(r rune, col, row int) bool
}

var errHeader = errors.New("font: truncated header")

// DotMatrix is a font loaded from the font5x8.bin style binary format: a
// two byte (width, height) header followed by one
// ceil(width*height/8) byte block per character code. Dots within a block are
// stored column by column, least significant bit first.
type DotMatrix struct {
	w, h      int
	blockSize int
	data      []byte // Everything after the header
}

// Load reads a DotMatrix font.
func Load(r io.Reader) (*DotMatrix, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errHeader
		}
		return nil, fmt.Errorf("font: %w", err)
	}
	w, h := int(hdr[0]), int(hdr[1])
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("font: invalid glyph size %dx%d", w, h)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("font: %w", err)
	}
	return &DotMatrix{
		w:         w,
		h:         h,
		blockSize: (w*h + 7) / 8,
		data:      data,
	}, nil
}

// Open loads the DotMatrix font called name from fsys.
func Open(fsys fs.FS, name string) (*DotMatrix, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// Width implements Face.
func (d *DotMatrix) Width() int { return d.w }

// Height implements Face.
func (d *DotMatrix) Height() int { return d.h }

// Glyphs returns the number of complete glyph blocks in the font.
func (d *DotMatrix) Glyphs() int {
	return len(d.data) / d.blockSize
}

// Dot implements Face.
func (d *DotMatrix) Dot(r rune, col, row int) bool {
	if r < 0 || col < 0 || row < 0 || col >= d.w || row >= d.h {
		return false
	}
	bit := col*d.h + row
	i := int(r)*d.blockSize + bit/8
	if int(r) >= d.Glyphs() || i >= len(d.data) {
		return false
	}
	return d.data[i]>>(bit%8)&1 == 1
}

// String returns a description of the font.
func (d *DotMatrix) String() string {
	return fmt.Sprintf("font.DotMatrix{%dx%d, %d glyphs}", d.w, d.h, d.Glyphs())
}
