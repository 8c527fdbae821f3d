package soundshape

import (
	"fmt"

	"github.com/wbrown/soundshape/store"
)

// RandomSearch evaluates the all-minimum corner, Points uniformly random
// coordinate vectors, and the all-maximum corner.
type RandomSearch struct {
	Points int `json:"points"`
}

func (RandomSearch) Method() string     { return "random_search" }
func (RandomSearch) variableOnly() bool { return true }

func (r RandomSearch) Validate() error {
	if r.Points < 0 {
		return &ConfigError{Param: "points", Reason: fmt.Sprintf("%d is negative", r.Points)}
	}
	return nil
}

func (r RandomSearch) Hyperparameters() map[string]float64 {
	return map[string]float64{"points": float64(r.Points)}
}

func (r RandomSearch) Describe(font string, size int) string {
	return fmt.Sprintf("Random: %s size %d, %d points.", font, size, r.Points)
}

func (r RandomSearch) search(run *searchRun, font store.Font, size int) error {
	axes := font.Axes
	points := make([][]float64, 0, r.Points+2)

	lo := make([]float64, len(axes))
	hi := make([]float64, len(axes))
	for i, a := range axes {
		lo[i], hi[i] = a.Minimum, a.Maximum
	}
	points = append(points, lo)
	for i := 0; i < r.Points; i++ {
		points = append(points, randomCoords(run.rng, axes))
	}
	points = append(points, hi)

	for i, coords := range points {
		iteration := i + 1
		res, ok, err := run.evaluate(font, size, iteration, coords)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		run.record(Candidate{Iteration: iteration, Coords: coords, Result: res, Accepted: true})
		run.log.Info("candidate", "iteration", iteration, "coords", coords, "score", res.Score())
	}
	return nil
}
