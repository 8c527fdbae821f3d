package soundshape

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/wbrown/soundshape/raster"
	"github.com/wbrown/soundshape/store"
)

// maxResample bounds rejection sampling of a neighbour coordinate. Past it
// the proposal is clamped into range.
const maxResample = 1000

// SimulatedAnnealing starts from a random coordinate vector and walks the
// design space with random perturbations, accepting worse candidates with a
// probability that shrinks as the temperature decays linearly to zero.
type SimulatedAnnealing struct {
	InitialTemperature float64 `json:"initial_temperature"`
	Iterations         int     `json:"iterations"`
	// StepRange is the perturbation size as a fraction of each axis range.
	StepRange float64 `json:"step_range"`
	// Uniform perturbs by U(-s, s) instead of N(0, s).
	Uniform bool `json:"uniform"`
}

func (SimulatedAnnealing) Method() string     { return "simulated_annealing" }
func (SimulatedAnnealing) variableOnly() bool { return true }

func (sa SimulatedAnnealing) Validate() error {
	if sa.Iterations < 1 {
		return &ConfigError{Param: "iterations", Reason: fmt.Sprintf("%d is below 1", sa.Iterations)}
	}
	if !(sa.InitialTemperature > 0) {
		return &ConfigError{Param: "initial temperature", Reason: fmt.Sprintf("%g is not positive", sa.InitialTemperature)}
	}
	if !(sa.StepRange > 0 && sa.StepRange <= 1) {
		return &ConfigError{Param: "step range", Reason: fmt.Sprintf("%g is outside (0, 1]", sa.StepRange)}
	}
	return nil
}

func (sa SimulatedAnnealing) Hyperparameters() map[string]float64 {
	uniform := 0.0
	if sa.Uniform {
		uniform = 1
	}
	return map[string]float64{
		"temp":       sa.InitialTemperature,
		"iterations": float64(sa.Iterations),
		"step_range": sa.StepRange,
		"uniform":    uniform,
	}
}

func (sa SimulatedAnnealing) Describe(font string, size int) string {
	return fmt.Sprintf("Simulated Annealing: %s size %d, initial temp %g, %d iterations.",
		font, size, sa.InitialTemperature, sa.Iterations)
}

// temperature is the linear schedule T0 * (1 - iteration/total).
func (sa SimulatedAnnealing) temperature(iteration int) float64 {
	return sa.InitialTemperature * (1 - float64(iteration)/float64(sa.Iterations))
}

// neighbour perturbs every coordinate, resampling until it lands in range.
func (sa SimulatedAnnealing) neighbour(rng *rand.Rand, coords []float64, axes []raster.Axis) []float64 {
	out := make([]float64, len(coords))
	for i, a := range axes {
		spread := a.Range() * sa.StepRange
		if spread == 0 {
			out[i] = coords[i]
			continue
		}
		v := coords[i]
		for attempt := 0; ; attempt++ {
			var delta float64
			if sa.Uniform {
				delta = (rng.Float64()*2 - 1) * spread
			} else {
				delta = rng.NormFloat64() * spread
			}
			v = round4(coords[i] + delta)
			if a.Contains(v) {
				break
			}
			if attempt >= maxResample {
				v = clamp(v, a.Minimum, a.Maximum)
				break
			}
		}
		out[i] = v
	}
	return out
}

// search runs at most Iterations evaluations. A failed render, whether for
// the start point or a proposal, still consumes its iteration.
func (sa SimulatedAnnealing) search(run *searchRun, font store.Font, size int) error {
	axes := font.Axes
	iteration := 0
	temp := sa.InitialTemperature

	var (
		current      []float64
		currentScore float64
	)
	for current == nil && iteration < sa.Iterations {
		iteration++
		start := randomCoords(run.rng, axes)
		res, ok, err := run.evaluate(font, size, iteration, start)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		current, currentScore = start, res.Score()
		run.record(Candidate{Iteration: iteration, Coords: start, Result: res, Accepted: true, Temperature: temp})
		run.log.Info("starting point", "iteration", iteration, "coords", start, "score", currentScore)
	}
	if current == nil {
		return nil
	}

	for iteration < sa.Iterations && temp > 0 {
		iteration++
		proposal := sa.neighbour(run.rng, current, axes)

		res, ok, err := run.evaluate(font, size, iteration, proposal)
		if err != nil {
			return err
		}
		if ok {
			score := res.Score()
			threshold := run.rng.Float64()
			prob := math.Exp((score - currentScore) / temp)
			accept := score > currentScore || prob > threshold

			decision := "STAY"
			if accept {
				decision = "MOVE"
				current, currentScore = proposal, score
			}
			run.record(Candidate{Iteration: iteration, Coords: proposal, Result: res, Accepted: accept, Temperature: temp})
			run.log.Info(decision,
				"iteration", iteration,
				"score", score,
				"prob", prob,
				"threshold", threshold,
				"temperature", temp,
				"coords", proposal)
		}

		temp = sa.temperature(iteration)
	}
	return nil
}
