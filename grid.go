package soundshape

import (
	"fmt"

	"github.com/wbrown/soundshape/store"
)

// GridSearch samples Count evenly spaced values along each axis in turn,
// holding the other axes at their defaults.
type GridSearch struct {
	Count int `json:"count"`
}

func (GridSearch) Method() string     { return "grid_search" }
func (GridSearch) variableOnly() bool { return true }

func (g GridSearch) Validate() error {
	if g.Count < 2 {
		return &ConfigError{Param: "grid count", Reason: fmt.Sprintf("%d is below 2", g.Count)}
	}
	return nil
}

func (g GridSearch) Hyperparameters() map[string]float64 {
	return map[string]float64{"facets": float64(g.Count)}
}

func (g GridSearch) Describe(font string, size int) string {
	return fmt.Sprintf("Grid: %s size %d, %d facets.", font, size, g.Count)
}

// GridCoords returns count evenly spaced values from min to max inclusive.
// Interior values are rounded to four decimal places.
func GridCoords(min, max float64, count int) ([]float64, error) {
	if count < 2 {
		return nil, &ConfigError{Param: "grid count", Reason: fmt.Sprintf("%d is below 2", count)}
	}
	if min > max {
		return nil, &ConfigError{Param: "grid range", Reason: fmt.Sprintf("minimum %g above maximum %g", min, max)}
	}
	step := (max - min) / float64(count-1)
	out := make([]float64, count)
	for i := range out {
		out[i] = clamp(round4(min+float64(i)*step), min, max)
	}
	out[count-1] = max
	return out, nil
}

func (g GridSearch) search(run *searchRun, font store.Font, size int) error {
	iteration := 0
	for i, axis := range font.Axes {
		values, err := GridCoords(axis.Minimum, axis.Maximum, g.Count)
		if err != nil {
			return err
		}

		best := AxisBest{Tag: axis.Tag}
		found := false
		for _, v := range values {
			iteration++
			coords := defaults(font.Axes)
			coords[i] = v

			res, ok, err := run.evaluate(font, size, iteration, coords)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			run.record(Candidate{Iteration: iteration, Coords: coords, Result: res, Accepted: true})
			run.log.Info("candidate", "iteration", iteration, "axis", axis.Tag, "value", v, "score", res.Score())

			if !found || res.Score() > best.Score {
				best.Value, best.Score = v, res.Score()
				found = true
			}
		}
		if found {
			run.outcome.PerAxis = append(run.outcome.PerAxis, best)
			run.log.Info("best on axis", "axis", axis.Tag, "value", best.Value, "score", best.Score)
		}
	}
	return nil
}
