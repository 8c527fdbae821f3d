package soundshape

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/wbrown/soundshape/phoneme"
	"github.com/wbrown/soundshape/raster"
	"github.com/wbrown/soundshape/store"
)

// Strategy explores the design space of one font at one size.
type Strategy interface {
	// Method is the stored experiment method name.
	Method() string
	// Validate checks the strategy parameters.
	Validate() error
	// Hyperparameters are stored with the experiment.
	Hyperparameters() map[string]float64
	// Describe names the experiment for a font and size.
	Describe(font string, size int) string

	search(run *searchRun, font store.Font, size int) error
	variableOnly() bool
}

// Candidate is one evaluated coordinate vector.
type Candidate struct {
	Iteration   int
	Coords      []float64
	Result      Result
	Accepted    bool
	Temperature float64
}

// AxisBest is the best value found along a single axis by grid search.
type AxisBest struct {
	Tag   string
	Value float64
	Score float64
}

// Outcome summarises one strategy run over a font and size.
type Outcome struct {
	ExperimentID uint64
	FontID       uint64
	Font         string
	Size         int
	Best         Candidate
	HasBest      bool
	PerAxis      []AxisBest
	Candidates   []Candidate
	Skipped      int
}

// Runner drives a strategy across fonts and sizes.
type Runner struct {
	Evaluator *Evaluator
	Chars     []rune
	Sizes     []int

	// Rand overrides the evaluator's seeded source.
	Rand *rand.Rand
	// Logger overrides the evaluator's logger.
	Logger *slog.Logger
}

func (r *Runner) validate(s Strategy, fonts []store.Font) error {
	if r.Evaluator == nil {
		return &ConfigError{Param: "evaluator", Reason: "nil"}
	}
	if len(r.Chars) < 2 {
		return &ConfigError{Param: "chars", Reason: "need at least two characters"}
	}
	if !phoneme.Known(r.Chars) {
		return &ConfigError{Param: "chars", Reason: fmt.Sprintf("%q has characters without phonetic features", string(r.Chars))}
	}
	if len(r.Sizes) == 0 {
		return &ConfigError{Param: "sizes", Reason: "no sizes"}
	}
	for _, sz := range r.Sizes {
		if sz <= 0 {
			return &ConfigError{Param: "sizes", Reason: fmt.Sprintf("size %d is not positive", sz)}
		}
	}
	if err := s.Validate(); err != nil {
		return err
	}
	for _, f := range fonts {
		for _, a := range f.Axes {
			if a.Minimum > a.Maximum {
				return &ConfigError{
					Param:  "axis",
					Reason: fmt.Sprintf("font %s axis %s has minimum %g above maximum %g", f.Name, a.Tag, a.Minimum, a.Maximum),
				}
			}
		}
	}
	return nil
}

// Run validates the strategy and then searches every variable font at every
// size, recording one experiment per font and size. Failed renders are
// logged and skipped; configuration and consistency errors stop the run.
func (r *Runner) Run(s Strategy, fonts []store.Font) ([]Outcome, error) {
	if err := r.validate(s, fonts); err != nil {
		return nil, err
	}

	log := r.Logger
	if log == nil {
		log = r.Evaluator.log
	}
	rng := r.Rand
	if rng == nil {
		rng = r.Evaluator.rng
	}

	var outcomes []Outcome
	for _, font := range fonts {
		if s.variableOnly() && (!font.IsVariable || len(font.Axes) == 0) {
			log.Warn("skipping font without variation axes", "font", font.Name)
			continue
		}
		for _, size := range r.Sizes {
			run := &searchRun{
				runner: r,
				log:    log.With("font", font.Name, "size", size),
				rng:    rng,
				outcome: Outcome{
					FontID: font.ID,
					Font:   font.Name,
					Size:   size,
				},
			}
			if err := run.begin(s); err != nil {
				return outcomes, err
			}
			err := s.search(run, font, size)
			if endErr := run.end(); err == nil {
				err = endErr
			}
			if err != nil {
				return outcomes, err
			}
			outcomes = append(outcomes, run.outcome)
		}
	}
	return outcomes, nil
}

// EvaluateFonts evaluates every font, variable or not, at its default
// coordinates for every size.
func (r *Runner) EvaluateFonts(fonts []store.Font) ([]Outcome, error) {
	return r.Run(FontDefaults{}, fonts)
}

// searchRun is the state of one strategy over one font and size.
type searchRun struct {
	runner     *Runner
	log        *slog.Logger
	rng        *rand.Rand
	experiment store.Experiment
	outcome    Outcome
}

func (run *searchRun) begin(s Strategy) error {
	ev := run.runner.Evaluator
	run.experiment = store.Experiment{
		Name:            s.Describe(run.outcome.Font, run.outcome.Size),
		Method:          s.Method(),
		Start:           ev.now(),
		Hyperparameters: s.Hyperparameters(),
	}
	err := ev.store.Update(func(tx *store.Tx) error {
		_, err := tx.CreateExperiment(&run.experiment)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record experiment: %w", err)
	}
	run.outcome.ExperimentID = run.experiment.ID
	run.log.Info(run.experiment.Name, "experiment", run.experiment.ID)
	return nil
}

func (run *searchRun) end() error {
	ev := run.runner.Evaluator
	run.experiment.End = ev.now()
	err := ev.store.Update(func(tx *store.Tx) error {
		return tx.PutExperiment(run.experiment)
	})
	if err != nil {
		return fmt.Errorf("failed to close experiment: %w", err)
	}

	if run.outcome.HasBest {
		b := run.outcome.Best
		run.log.Info("best candidate",
			"iteration", b.Iteration,
			"score", b.Result.Score(),
			"coords", b.Coords,
			"evaluated", len(run.outcome.Candidates),
			"skipped", run.outcome.Skipped)
	} else {
		run.log.Warn("no candidate evaluated", "skipped", run.outcome.Skipped)
	}
	return nil
}

// evaluate scores one coordinate vector. ok is false when the candidate was
// skipped because a glyph failed to render.
func (run *searchRun) evaluate(font store.Font, size int, iteration int, coords []float64) (Result, bool, error) {
	ev := run.runner.Evaluator
	res, err := ev.Evaluate(run.runner.Chars, font, size, coords, false)
	if errors.Is(err, ErrFailedRender) {
		run.outcome.Skipped++
		run.log.Warn("failed render, skipping candidate", "iteration", iteration, "coords", coords, "err", err)
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}

	err = ev.store.Update(func(tx *store.Tx) error {
		return tx.LinkExperiment(run.experiment.ID, res.GlyphSetID)
	})
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to link glyph set to experiment: %w", err)
	}
	return res, true, nil
}

// record appends a candidate and updates the best one.
func (run *searchRun) record(c Candidate) {
	run.outcome.Candidates = append(run.outcome.Candidates, c)
	if !run.outcome.HasBest || c.Result.Score() > run.outcome.Best.Result.Score() {
		run.outcome.Best = c
		run.outcome.HasBest = true
	}
}

// round4 rounds to four decimal places, the precision coordinates are
// searched and stored at. Values that round to zero come back as +0.
func round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		return 0
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// defaults returns the default coordinate of every axis.
func defaults(axes []raster.Axis) []float64 {
	out := make([]float64, len(axes))
	for i, a := range axes {
		out[i] = a.Default
	}
	return out
}

// randomCoords draws one uniform coordinate per axis.
func randomCoords(rng *rand.Rand, axes []raster.Axis) []float64 {
	out := make([]float64, len(axes))
	for i, a := range axes {
		out[i] = clamp(round4(a.Minimum+rng.Float64()*a.Range()), a.Minimum, a.Maximum)
	}
	return out
}

// FontDefaults evaluates each font once at its default coordinates.
type FontDefaults struct{}

func (FontDefaults) Method() string                      { return "font_defaults" }
func (FontDefaults) Validate() error                     { return nil }
func (FontDefaults) Hyperparameters() map[string]float64 { return map[string]float64{} }
func (FontDefaults) variableOnly() bool                  { return false }

func (FontDefaults) Describe(font string, size int) string {
	return fmt.Sprintf("Defaults: %s size %d.", font, size)
}

func (FontDefaults) search(run *searchRun, font store.Font, size int) error {
	res, ok, err := run.evaluate(font, size, 1, nil)
	if err != nil || !ok {
		return err
	}
	run.record(Candidate{Iteration: 1, Result: res, Accepted: true})
	run.log.Info("evaluated", "edit", res.Edit, "edit_sum", res.EditSum, "euclidean", res.Euclidean)
	return nil
}
