package raster

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/font/opentype/tables"
	ftraster "github.com/golang/freetype/raster"
	"golang.org/x/image/math/fixed"
)

// registeredAxes maps the registered OpenType axis tags to readable names.
// fvar name IDs are not exposed by the parser, so custom axes keep their tag.
var registeredAxes = map[string]string{
	"wght": "Weight",
	"wdth": "Width",
	"opsz": "Optical size",
	"ital": "Italic",
	"slnt": "Slant",
	"GRAD": "Grade",
	"XOPQ": "Thick stroke",
	"YOPQ": "Thin stroke",
	"XTRA": "Counter width",
	"YTUC": "Uppercase height",
	"YTLC": "Lowercase height",
	"YTAS": "Ascender height",
	"YTDE": "Descender depth",
	"YTFI": "Figure height",
	"CASL": "Casual",
	"MONO": "Monospace",
	"CRSV": "Cursive",
}

// AxisName returns the display name for an axis tag.
func AxisName(tag string) string {
	if name, ok := registeredAxes[tag]; ok {
		return name
	}
	return tag
}

// goTextFace renders outlines extracted by go-text/typesetting, which
// applies gvar/CFF2 deltas for variable fonts. Outlines are filled with the
// freetype rasterizer through a monochrome painter.
type goTextFace struct {
	face *font.Face
	axes []Axis
	tags []ot.Tag
	upem float64
	rast *ftraster.Rasterizer
}

func newGoTextFace(data []byte) (*goTextFace, error) {
	ld, err := ot.NewLoader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	ft, err := font.NewFont(ld)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	g := &goTextFace{
		face: font.NewFace(ft),
		upem: float64(ft.Upem()),
		rast: ftraster.NewRasterizer(0, 0),
	}
	g.rast.UseNonZeroWinding = true

	fvarTag := ot.MustNewTag("fvar")
	if ld.HasTable(fvarTag) {
		raw, err := ld.RawTable(fvarTag)
		if err != nil {
			return nil, fmt.Errorf("failed to read fvar: %w", err)
		}
		fv, _, err := tables.ParseFvar(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fvar: %w", err)
		}
		for _, rec := range fv.FvarRecords.Axis {
			tag := rec.Tag.String()
			g.tags = append(g.tags, rec.Tag)
			g.axes = append(g.axes, Axis{
				Name:    AxisName(tag),
				Tag:     tag,
				Minimum: float64(rec.Minimum),
				Default: float64(rec.Default),
				Maximum: float64(rec.Maximum),
			})
		}
	}
	if g.upem == 0 {
		g.upem = 1000
	}
	return g, nil
}

func (g *goTextFace) Axes() []Axis {
	if len(g.axes) == 0 {
		return nil
	}
	out := make([]Axis, len(g.axes))
	copy(out, g.axes)
	return out
}

func (g *goTextFace) Render(ch rune, size int, coords []float64) (Glyph, error) {
	if size <= 0 {
		return Glyph{}, ErrInvalidSize
	}
	if err := checkCoords(g.axes, coords); err != nil {
		return Glyph{}, err
	}

	if len(coords) > 0 {
		vars := make([]font.Variation, len(coords))
		for i, v := range coords {
			vars[i] = font.Variation{Tag: g.tags[i], Value: float32(v)}
		}
		g.face.SetVariations(vars)
	} else {
		g.face.SetVariations(nil)
	}

	gid, ok := g.face.NominalGlyph(ch)
	if !ok {
		return Glyph{}, fmt.Errorf("%w: %q", ErrMissingGlyph, ch)
	}
	outline, ok := g.face.GlyphData(gid).(font.GlyphOutline)
	if !ok {
		return Glyph{}, fmt.Errorf("%w: %q has no outline", ErrMissingGlyph, ch)
	}

	scale := float64(size) / g.upem
	b, m := g.fill(outline.Segments, scale)
	return Glyph{Char: ch, Bitmap: b, Metrics: m}, nil
}

// fill scales the outline to pixels and rasterises it into a bitmap sized
// to the outline's control box.
func (g *goTextFace) fill(segs []font.Segment, scale float64) (Bitmap, Metrics) {
	if len(segs) == 0 {
		return Bitmap{}, Metrics{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range segs {
		for _, p := range s.Args[:argCount(s.Op)] {
			x, y := float64(p.X)*scale, float64(p.Y)*scale
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}

	left, right := int(math.Floor(minX)), int(math.Ceil(maxX))
	bottom, top := int(math.Floor(minY)), int(math.Ceil(maxY))
	w, h := right-left, top-bottom
	if w <= 0 || h <= 0 {
		return Bitmap{}, Metrics{YBearing: top, XBearing: left}
	}

	// font units grow up, raster rows grow down
	pt := func(p ot.SegmentPoint) fixed.Point26_6 {
		return fixed.Point26_6{
			X: fixed.Int26_6(math.Round((float64(p.X)*scale - float64(left)) * 64)),
			Y: fixed.Int26_6(math.Round((float64(top) - float64(p.Y)*scale) * 64)),
		}
	}

	r := g.rast
	r.SetBounds(w, h)
	r.Clear()
	var start fixed.Point26_6
	open := false
	for _, s := range segs {
		switch s.Op {
		case ot.SegmentOpMoveTo:
			if open {
				r.Add1(start)
			}
			start = pt(s.Args[0])
			r.Start(start)
			open = true
		case ot.SegmentOpLineTo:
			r.Add1(pt(s.Args[0]))
		case ot.SegmentOpQuadTo:
			r.Add2(pt(s.Args[0]), pt(s.Args[1]))
		case ot.SegmentOpCubeTo:
			r.Add3(pt(s.Args[0]), pt(s.Args[1]), pt(s.Args[2]))
		}
	}
	if open {
		r.Add1(start)
	}

	img := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Rasterize(ftraster.NewMonochromePainter(ftraster.NewAlphaSrcPainter(img)))

	b := NewBitmap(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.AlphaAt(x, y).A != 0 {
				b.Set(y, x, Foreground)
			}
		}
	}
	return b, Metrics{Height: h, Width: w, YBearing: top, XBearing: left}
}

func argCount(op ot.SegmentOp) int {
	switch op {
	case ot.SegmentOpQuadTo:
		return 2
	case ot.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}
