package picolcd

import "fmt"

// Transpose reshapes a packed oldW x oldH pixel buffer in place into an
// oldH x oldW buffer.
//
// The pixel at (x, y) keeps its coordinates when it still fits the new
// bounds; every other destination pixel is zeroed. Pixels that no longer fit
// are lost. The buffer is processed two pixels at a time, so both dimensions
// must be even. When the rows grow the walk runs backwards, otherwise
// forwards, so that no source pixel is overwritten before it is read.
func Transpose(pix []byte, bitsPerPixel, oldW, oldH int) error {
	if oldW%2 != 0 || oldH%2 != 0 {
		return ErrOddDimensions
	}
	if bitsPerPixel <= 0 || bitsPerPixel%4 != 0 {
		return fmt.Errorf("picolcd: transpose: unsupported depth %d bpp", bitsPerPixel)
	}
	pairBytes := bitsPerPixel / 4
	if need := oldW * oldH / 2 * pairBytes; len(pix) < need {
		return fmt.Errorf("picolcd: transpose: buffer is %d bytes, need %d", len(pix), need)
	}

	newW, newH := oldH, oldW
	oldPairs, newPairs := oldW/2, newW/2
	zero := make([]byte, pairBytes)

	move := func(y, px int) {
		dst := (y*newPairs + px) * pairBytes
		if px < oldPairs && y < oldH {
			src := (y*oldPairs + px) * pairBytes
			copy(pix[dst:dst+pairBytes], pix[src:src+pairBytes])
			return
		}
		copy(pix[dst:dst+pairBytes], zero)
	}

	switch {
	case newW > oldW:
		for y := newH - 1; y >= 0; y-- {
			for px := newPairs - 1; px >= 0; px-- {
				move(y, px)
			}
		}
	case newW < oldW:
		for y := 0; y < newH; y++ {
			for px := 0; px < newPairs; px++ {
				move(y, px)
			}
		}
	}
	return nil
}
