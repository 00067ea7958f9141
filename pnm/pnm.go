// Package pnm decodes the binary Netpbm formats:
// P4 (bitmap), P5 (graymap), P6 (pixmap) and P7 (PAM) with 8-bit samples.
//
// Alpha channels are composited over black. Importing the package registers
// the formats with the image package.
package pnm

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"
)

// ErrUnsupported is returned for ASCII variants and samples wider than 8 bits.
var ErrUnsupported = errors.New("pnm: unsupported format")

var errFormat = errors.New("pnm: invalid format")

// maxPixels bounds the raster allocated for a header's width and height.
const maxPixels = 1 << 24

func init() {
	for _, magic := range []string{"P4", "P5", "P6", "P7"} {
		image.RegisterFormat("pnm", magic, Decode, DecodeConfig)
	}
}

type header struct {
	magic  string
	w, h   int
	depth  int
	maxval int
}

func (h *header) colorModel() color.Model {
	if h.depth >= 3 {
		return color.RGBAModel
	}
	return color.GrayModel
}

// Decode reads a PNM image from r.
func Decode(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	return readRaster(br, h)
}

// DecodeConfig returns the dimensions and color model of a PNM image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: h.colorModel(), Width: h.w, Height: h.h}, nil
}

func readHeader(r *bufio.Reader) (*header, error) {
	var magic [2]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("pnm: reading magic: %w", err)
	}
	h := &header{magic: string(magic[:])}
	switch h.magic {
	case "P1", "P2", "P3":
		return nil, fmt.Errorf("%w: ASCII %s", ErrUnsupported, h.magic)
	case "P4":
		h.depth, h.maxval = 1, 1
		if err := readInts(r, &h.w, &h.h); err != nil {
			return nil, err
		}
	case "P5", "P6":
		h.depth = 1
		if h.magic == "P6" {
			h.depth = 3
		}
		if err := readInts(r, &h.w, &h.h, &h.maxval); err != nil {
			return nil, err
		}
	case "P7":
		if err := readPAMHeader(r, h); err != nil {
			return nil, err
		}
	default:
		return nil, errFormat
	}

	if h.w <= 0 || h.h <= 0 {
		return nil, fmt.Errorf("pnm: invalid size %dx%d", h.w, h.h)
	}
	if h.w > maxPixels/h.h {
		return nil, fmt.Errorf("pnm: image too large %dx%d", h.w, h.h)
	}
	if h.maxval <= 0 {
		return nil, fmt.Errorf("pnm: invalid maxval %d", h.maxval)
	}
	if h.maxval > 255 {
		return nil, fmt.Errorf("%w: maxval %d", ErrUnsupported, h.maxval)
	}
	return h, nil
}

// readInts reads whitespace separated decimal fields, skipping comments, and
// consumes the single whitespace byte that ends the header.
func readInts(r *bufio.Reader, dst ...*int) error {
	for _, d := range dst {
		tok, err := token(r)
		if err != nil {
			return err
		}
		if *d, err = strconv.Atoi(tok); err != nil {
			return fmt.Errorf("%w: field %q", errFormat, tok)
		}
	}
	return nil
}

// token returns the next header field. The whitespace byte following it is
// consumed.
func token(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return "", fmt.Errorf("pnm: reading header: %w", err)
		}
		switch {
		case c == '#':
			if _, err := r.ReadString('\n'); err != nil {
				return "", fmt.Errorf("pnm: reading header: %w", err)
			}
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		case isSpace(c):
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		default:
			sb.WriteByte(c)
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func readPAMHeader(r *bufio.Reader, h *header) error {
	tupl := ""
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return fmt.Errorf("pnm: reading PAM header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		key, val, _ := strings.Cut(line, " ")
		val = strings.TrimSpace(val)
		var dst *int
		switch key {
		case "ENDHDR":
			return checkTupleType(h, tupl)
		case "WIDTH":
			dst = &h.w
		case "HEIGHT":
			dst = &h.h
		case "DEPTH":
			dst = &h.depth
		case "MAXVAL":
			dst = &h.maxval
		case "TUPLTYPE":
			tupl = strings.TrimSpace(tupl + " " + val)
			continue
		default:
			return fmt.Errorf("%w: PAM header %q", errFormat, key)
		}
		if *dst, err = strconv.Atoi(val); err != nil {
			return fmt.Errorf("%w: PAM %s %q", errFormat, key, val)
		}
	}
}

func checkTupleType(h *header, tupl string) error {
	want := map[string]int{
		"BLACKANDWHITE":   1,
		"GRAYSCALE":       1,
		"GRAYSCALE_ALPHA": 2,
		"RGB":             3,
		"RGB_ALPHA":       4,
	}
	if tupl == "" {
		switch h.depth {
		case 1, 2, 3, 4:
			return nil
		}
		return fmt.Errorf("%w: PAM depth %d", ErrUnsupported, h.depth)
	}
	d, ok := want[tupl]
	if !ok {
		return fmt.Errorf("%w: PAM tuple type %s", ErrUnsupported, tupl)
	}
	if d != h.depth {
		return fmt.Errorf("%w: %s with depth %d", errFormat, tupl, h.depth)
	}
	return nil
}

func readRaster(r io.Reader, h *header) (image.Image, error) {
	rect := image.Rect(0, 0, h.w, h.h)
	if h.magic == "P4" {
		img := image.NewGray(rect)
		row := make([]byte, (h.w+7)/8)
		for y := 0; y < h.h; y++ {
			if _, err := io.ReadFull(r, row); err != nil {
				return nil, fmt.Errorf("pnm: reading raster: %w", err)
			}
			for x := 0; x < h.w; x++ {
				if row[x/8]&(0x80>>(x%8)) == 0 {
					img.Pix[y*img.Stride+x] = 0xFF
				}
			}
		}
		return img, nil
	}

	scale := func(v byte) uint8 {
		return uint8((int(v)*255 + h.maxval/2) / h.maxval)
	}
	row := make([]byte, h.w*h.depth)
	var gray *image.Gray
	var rgba *image.RGBA
	if h.depth >= 3 {
		rgba = image.NewRGBA(rect)
	} else {
		gray = image.NewGray(rect)
	}
	for y := 0; y < h.h; y++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return nil, fmt.Errorf("pnm: reading raster: %w", err)
		}
		for x := 0; x < h.w; x++ {
			s := row[x*h.depth : (x+1)*h.depth]
			switch h.depth {
			case 1:
				gray.Pix[y*gray.Stride+x] = scale(s[0])
			case 2:
				gray.Pix[y*gray.Stride+x] = over(scale(s[0]), scale(s[1]))
			case 3, 4:
				a := uint8(0xFF)
				if h.depth == 4 {
					a = scale(s[3])
				}
				i := y*rgba.Stride + 4*x
				rgba.Pix[i+0] = over(scale(s[0]), a)
				rgba.Pix[i+1] = over(scale(s[1]), a)
				rgba.Pix[i+2] = over(scale(s[2]), a)
				rgba.Pix[i+3] = 0xFF
			}
		}
	}
	if rgba != nil {
		return rgba, nil
	}
	return gray, nil
}

// over composites v with alpha a over black.
func over(v, a uint8) uint8 {
	return uint8((int(v)*int(a) + 127) / 255)
}
