package soundshape

import (
	"fmt"

	"github.com/wbrown/soundshape/shape"
)

// ErrFailedRender reports a glyph with no ink. Searches skip candidates that
// fail this way; direct evaluator calls return it.
var ErrFailedRender = shape.ErrFailedRender

// ConfigError reports an invalid search or run parameter. It is returned
// before any evaluation starts.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// ConsistencyError reports shape and sound distance sequences that cannot be
// correlated: mismatched pairs, fewer than two pairs or a constant sequence.
type ConsistencyError struct {
	GlyphSetID uint64
	Reason     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("glyph set %d: %s", e.GlyphSetID, e.Reason)
}
