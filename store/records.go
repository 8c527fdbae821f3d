package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wbrown/soundshape/raster"
	"github.com/wbrown/soundshape/shape"
)

// Font is an ingested font file. Fonts are never modified after ingestion.
type Font struct {
	ID         uint64
	Name       string
	FileName   string
	Data       []byte
	IsVariable bool
	IsSerif    bool
	Axes       []raster.Axis
}

// GlyphSet identifies one rendered batch of characters. The combination of
// FontID, Size, Coords and Chars is unique.
type GlyphSet struct {
	ID       uint64
	FontID   uint64
	Size     int
	Coords   []float64
	Chars    []rune
	GlyphIDs []uint64
	Created  time.Time
}

// Key returns the canonical uniqueness key of the glyph set.
func (gs GlyphSet) Key() string {
	return GlyphSetKey(gs.FontID, gs.Size, gs.Coords, gs.Chars)
}

// GlyphSetKey serialises the identity of a glyph set. Empty coordinates
// mean font defaults and are written as "-". Negative zero is written as 0.
func GlyphSetKey(fontID uint64, size int, coords []float64, chars []rune) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "font=%d;size=%d;coords=", fontID, size)
	if len(coords) == 0 {
		sb.WriteByte('-')
	}
	for i, c := range coords {
		if i > 0 {
			sb.WriteByte(',')
		}
		if c == 0 {
			c = 0
		}
		sb.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
	}
	sb.WriteString(";chars=")
	sb.WriteString(strconv.Quote(string(chars)))
	return sb.String()
}

// Glyph is one aligned bitmap inside a glyph set.
type Glyph struct {
	ID         uint64
	GlyphSetID uint64
	Char       rune
	Bitmap     raster.Bitmap
}

// ShapeDistance is the distance between two glyphs of the same set. Points1
// holds the contributing points lying in Glyph1 and Points2 those in Glyph2.
type ShapeDistance struct {
	ID         uint64
	GlyphSetID uint64
	Glyph1     uint64
	Glyph2     uint64
	Char1      rune
	Char2      rune
	Metric     string
	Distance   float64
	Points1    [2]shape.Point
	Points2    [2]shape.Point
}

// SoundDistance is a font independent phonetic distance, with Char1 < Char2.
type SoundDistance struct {
	Char1    rune
	Char2    rune
	Metric   string
	Distance float64
}

// Correlation is the Pearson correlation between the shape and sound
// distances of one glyph set.
type Correlation struct {
	GlyphSetID  uint64
	ShapeMetric string
	SoundMetric string
	R           float64
	P           float64
	N           int
}

// Experiment records one search run.
type Experiment struct {
	ID              uint64
	Name            string
	Method          string
	Start           time.Time
	End             time.Time
	Hyperparameters map[string]float64
}
