package soundshape

import (
	"log/slog"
	"time"

	"github.com/wbrown/soundshape/raster"
	"github.com/wbrown/soundshape/store"
)

// FaceLoader turns a stored font into a renderable face.
type FaceLoader func(font store.Font) (raster.Face, error)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger for the evaluator and any runner built on it.
// Without it the package logger from SetLogger is used.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		e.log = l
	}
}

// WithEngine selects the rasterization engine passed to raster.Open.
func WithEngine(name string) Option {
	return func(e *Evaluator) {
		e.engine = name
	}
}

// DefaultThreshold is the freetype coverage at which a pixel becomes ink.
const DefaultThreshold = 128

// WithThreshold sets the anti-aliasing coverage (1-255) at or above which a
// freetype pixel becomes ink. It has no effect with WithFaceLoader.
func WithThreshold(t uint8) Option {
	return func(e *Evaluator) {
		e.threshold = t
	}
}

// WithSeed seeds the random source used by search strategies so runs are
// reproducible.
func WithSeed(seed int64) Option {
	return func(e *Evaluator) {
		e.seed = seed
	}
}

// WithShapeMetric sets the shape metric that Evaluate correlates against.
func WithShapeMetric(metric string) Option {
	return func(e *Evaluator) {
		e.shapeMetric = metric
	}
}

// WithFaceLoader replaces how fonts are opened. Tests use it to supply
// synthetic faces.
func WithFaceLoader(load FaceLoader) Option {
	return func(e *Evaluator) {
		e.loadFace = load
	}
}

// WithClock replaces time.Now for experiment and glyph set timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}
