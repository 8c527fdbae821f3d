package raster

import (
	"errors"
	"fmt"
)

// ErrEmptyBatch is returned by Align when given no glyphs.
var ErrEmptyBatch = errors.New("raster: cannot align an empty batch")

// Align pads every glyph onto a common canvas: baselines line up and each
// glyph is centred horizontally, with an odd leftover column going to the
// right. Only background pixels are added.
func Align(glyphs []Glyph) ([]Bitmap, error) {
	if len(glyphs) == 0 {
		return nil, ErrEmptyBatch
	}

	maxAscent := glyphs[0].YBearing
	maxDescent := glyphs[0].Height - glyphs[0].YBearing
	maxWidth := glyphs[0].Width
	for _, g := range glyphs[1:] {
		maxAscent = max(maxAscent, g.YBearing)
		maxDescent = max(maxDescent, g.Height-g.YBearing)
		maxWidth = max(maxWidth, g.Width)
	}

	out := make([]Bitmap, len(glyphs))
	for i, g := range glyphs {
		src := g.Bitmap
		above := maxAscent - g.YBearing
		below := maxDescent - (src.Rows - g.YBearing)
		extra := maxWidth - src.Cols
		if above < 0 || below < 0 || extra < 0 {
			return nil, fmt.Errorf("glyph %q: bitmap %dx%d disagrees with metrics %+v",
				g.Char, src.Rows, src.Cols, g.Metrics)
		}
		left := extra / 2

		dst := NewBitmap(above+src.Rows+below, maxWidth)
		for y := 0; y < src.Rows; y++ {
			copy(dst.Pix[(above+y)*dst.Cols+left:], src.Pix[y*src.Cols:(y+1)*src.Cols])
		}
		out[i] = dst
	}
	return out, nil
}

// RenderAligned renders each character with the same size and coordinates
// and aligns the results.
func RenderAligned(face Face, chars []rune, size int, coords []float64) ([]Bitmap, error) {
	glyphs := make([]Glyph, 0, len(chars))
	for _, ch := range chars {
		g, err := face.Render(ch, size, coords)
		if err != nil {
			return nil, fmt.Errorf("failed to render %q at size %d: %w", ch, size, err)
		}
		glyphs = append(glyphs, g)
	}
	return Align(glyphs)
}
