package soundshape

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled returns false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger sets the package-wide default logger used by evaluators and
// search runners that were not given one with WithLogger. Pass nil to
// silence logging again.
//
// Levels:
//   - Debug: cache hits and skipped recomputation
//   - Info: per-candidate scores, annealing MOVE/STAY decisions, best summaries
//   - Warn: skipped candidates and non-variable fonts
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the package-wide default logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
