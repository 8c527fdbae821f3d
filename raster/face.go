package raster

import (
	"errors"
	"fmt"
)

var (
	// ErrCoordsMismatch is returned when a coordinate vector does not have
	// one value per variation axis.
	ErrCoordsMismatch = errors.New("raster: coordinate count does not match axis count")

	// ErrNotVariable is returned when coordinates are passed to a static font.
	ErrNotVariable = errors.New("raster: font has no variation axes")

	// ErrMissingGlyph is returned when the font does not map a character.
	ErrMissingGlyph = errors.New("raster: character not mapped by font")

	// ErrInvalidSize is returned for non-positive pixel sizes.
	ErrInvalidSize = errors.New("raster: pixel size must be positive")

	// ErrUnknownEngine is returned by Open for an unrecognised engine name.
	ErrUnknownEngine = errors.New("raster: unknown engine")
)

// Axis describes one variation axis of a variable font, in design units.
type Axis struct {
	Name    string
	Tag     string
	Minimum float64
	Default float64
	Maximum float64
}

// Validate checks the Minimum <= Default <= Maximum invariant.
func (a Axis) Validate() error {
	if a.Minimum > a.Maximum {
		return fmt.Errorf("axis %s: minimum %g above maximum %g", a.Tag, a.Minimum, a.Maximum)
	}
	if a.Default < a.Minimum || a.Default > a.Maximum {
		return fmt.Errorf("axis %s: default %g outside [%g, %g]", a.Tag, a.Default, a.Minimum, a.Maximum)
	}
	return nil
}

// Range returns Maximum - Minimum.
func (a Axis) Range() float64 {
	return a.Maximum - a.Minimum
}

// Contains reports whether v lies within the axis bounds.
func (a Axis) Contains(v float64) bool {
	return v >= a.Minimum && v <= a.Maximum
}

// Face is a parsed font that can render single characters. Implementations
// are not safe for concurrent use.
type Face interface {
	// Axes returns the variation axes in font order, or nil for static fonts.
	Axes() []Axis

	// Render rasterises ch at the given pixel size. coords may be nil to use
	// the font defaults; otherwise it must hold one value per axis.
	Render(ch rune, size int, coords []float64) (Glyph, error)
}

// Engine names accepted by WithEngine.
const (
	EngineAuto     = "auto"
	EngineFreetype = "freetype"
	EngineGoText   = "gotext"
)

type options struct {
	engine    string
	threshold uint8
}

// Option configures Open.
type Option func(*options)

// WithEngine forces a rendering engine. The default, EngineAuto, picks
// freetype for static TrueType fonts and gotext for everything else.
func WithEngine(name string) Option {
	return func(o *options) {
		o.engine = name
	}
}

// WithThreshold sets the coverage (0-255) at or above which an anti-aliased
// pixel from the freetype engine becomes ink. The default is 128.
func WithThreshold(t uint8) Option {
	return func(o *options) {
		o.threshold = t
	}
}

// Open parses font data and returns a Face backed by the selected engine.
func Open(data []byte, opts ...Option) (Face, error) {
	o := options{engine: EngineAuto, threshold: 128}
	for _, opt := range opts {
		opt(&o)
	}

	switch o.engine {
	case EngineFreetype:
		return newFreetypeFace(data, o.threshold)
	case EngineGoText:
		return newGoTextFace(data)
	case EngineAuto, "":
		gt, err := newGoTextFace(data)
		if err != nil {
			return nil, err
		}
		if len(gt.Axes()) > 0 {
			return gt, nil
		}
		if ft, err := newFreetypeFace(data, o.threshold); err == nil {
			return ft, nil
		}
		// CFF flavoured OpenType is beyond the freetype port
		return gt, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, o.engine)
	}
}

// checkCoords validates a coordinate vector against axes.
func checkCoords(axes []Axis, coords []float64) error {
	if len(coords) == 0 {
		return nil
	}
	if len(axes) == 0 {
		return ErrNotVariable
	}
	if len(coords) != len(axes) {
		return fmt.Errorf("%w: got %d, font has %d", ErrCoordsMismatch, len(coords), len(axes))
	}
	return nil
}
