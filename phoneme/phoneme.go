// Package phoneme holds a fixed articulatory feature table for 24 lowercase
// Latin letters and the pairwise sound distances derived from it.
package phoneme

import (
	"math"
	"sort"
	"sync"
)

// Metric names as stored alongside each sound distance.
const (
	Hamming   = "Hamming"
	Edit      = "Edit"
	EditSum   = "Edit_Sum"
	Euclidean = "Euclidean"
)

// Metrics lists every sound metric in storage order.
var Metrics = []string{Edit, EditSum, Euclidean, Hamming}

// FeatureNames are the feature dimensions in vector order.
var FeatureNames = [NumFeatures]string{
	"Sonorant", "Consonantal", "Voice", "Nasal", "Degree", "Labial",
	"Palatal", "Pharyngeal", "Round", "Tongue", "Radical",
}

// NumFeatures is the length of every feature vector.
const NumFeatures = 11

// Vector is a feature vector. Values are in [-1, 1]; fractional values mark
// intermediate articulations.
type Vector [NumFeatures]float64

var (
	tableOnce sync.Once
	table     map[rune]Vector
)

// features returns the shared feature table. It is built on first use and
// never written afterwards.
func features() map[rune]Vector {
	tableOnce.Do(func() { table = newTable() })
	return table
}

func newTable() map[rune]Vector {
	return map[rune]Vector{
		'a': {1, -1, 1, 0, -1, -1, 0, 1, -1, -1, 1},
		'b': {-1, 1, 0, -1, 1, 1, 0, -1, 1, 0, 0},
		'c': {-1, 1, -1, -1, 1, -1, -1, -1, -1, -1, 0},
		'd': {-1, 1, 0, -1, 1, -1, 1, -1, -1, 1, 0},
		'e': {1, -1, 1, 0, -1, -1, 0, -1, -1, -1, -1},
		'f': {-0.5, 1, -1, -1, 0, -1, 1, -1, 1, 0, 0},
		'g': {-1, 1, 0, -1, 1, -1, -1, -1, -1, -1, 0},
		'h': {-0.5, 1, 0, -1, 0, -1, -1, 1, -1, -1, -1},
		'i': {1, -1, 1, 0, 0, -1, 0, -1, -1, 0, -1},
		'j': {-0.8, 1, 0, -1, 1, -1, 0, -1, -1, 0, 0},
		'k': {-1, 1, -1, -1, 1, -1, -1, -1, -1, -1, 0},
		'l': {0.5, 0, 1, 0, -1, -1, 1, -1, -1, 1, 0},
		'm': {0, 0, 1, 1, 1, 1, 0, -1, 1, 0, 0},
		'n': {0, 0, 1, 1, 1, -1, 1, -1, -1, 1, 0},
		'o': {1, -1, 1, 0, -1, -1, -1, 1, -1, -1, -1},
		'p': {-1, 1, -1, -1, 1, 1, 0, -1, 1, 0, 0},
		'r': {0.5, 0, 1, 0, -1, -1, -1, 1, 1, -1, -1},
		's': {-0.5, 1, -1, -1, 0, -1, 1, -1, -1, 1, 0},
		't': {-1, 1, -1, -1, 1, -1, 1, -1, -1, 1, 0},
		'u': {1, -1, 1, 0, -1, -1, -1, -1, -1, -1, -1},
		'v': {-0.5, 1, 0, -1, 0, -1, 1, -1, 1, 0, 0},
		'w': {0.8, 0, 1, 0, 0, 1, -1, -1, 1, -1, 0},
		'y': {0.8, 0, 1, 0, 0, -1, 0, -1, -1, 0, 1},
		'z': {-0.5, 1, 0, -1, 0, -1, 1, -1, -1, 1, 0},
	}
}

// Features returns a copy of the feature vector for ch.
func Features(ch rune) (Vector, bool) {
	v, ok := features()[ch]
	return v, ok
}

// Chars returns the characters in the table in ascending order.
func Chars() []rune {
	t := features()
	out := make([]rune, 0, len(t))
	for ch := range t {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Known reports whether every character in chars has a feature vector.
func Known(chars []rune) bool {
	for _, ch := range chars {
		if _, ok := features()[ch]; !ok {
			return false
		}
	}
	return true
}

// HammingDistance counts positions where the signs (-, 0, +) differ.
func HammingDistance(a, b Vector) float64 {
	n := 0
	for i := range a {
		if sign(a[i]) != sign(b[i]) {
			n++
		}
	}
	return float64(n)
}

// EditDistance counts positions with unequal values.
func EditDistance(a, b Vector) float64 {
	n := 0
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return float64(n)
}

// EditSumDistance is the sum of absolute differences.
func EditSumDistance(a, b Vector) float64 {
	var s float64
	for i := range a {
		s += math.Abs(a[i] - b[i])
	}
	return s
}

// EuclideanDistance is the L2 distance between two vectors.
func EuclideanDistance(a, b Vector) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Distance is one sound distance between an unordered character pair, with
// Char1 < Char2.
type Distance struct {
	Char1    rune
	Char2    rune
	Metric   string
	Distance float64
}

var metricFuncs = map[string]func(a, b Vector) float64{
	Hamming:   HammingDistance,
	Edit:      EditDistance,
	EditSum:   EditSumDistance,
	Euclidean: EuclideanDistance,
}

// Between returns one metric for a character pair.
func Between(metric string, c1, c2 rune) (float64, bool) {
	f, ok := metricFuncs[metric]
	if !ok {
		return 0, false
	}
	t := features()
	a, ok1 := t[c1]
	b, ok2 := t[c2]
	if !ok1 || !ok2 {
		return 0, false
	}
	return f(a, b), true
}

var (
	distancesOnce sync.Once
	distances     []Distance
)

// Distances returns every metric for every unordered pair, sorted by
// (metric, char1, char2). The table is built once; callers get a copy.
func Distances() []Distance {
	distancesOnce.Do(func() {
		t := features()
		chars := Chars()
		for _, m := range Metrics {
			f := metricFuncs[m]
			for i, c1 := range chars {
				for _, c2 := range chars[i+1:] {
					distances = append(distances, Distance{
						Char1:    c1,
						Char2:    c2,
						Metric:   m,
						Distance: f(t[c1], t[c2]),
					})
				}
			}
		}
		sort.SliceStable(distances, func(i, j int) bool {
			return distances[i].Metric < distances[j].Metric
		})
	})
	out := make([]Distance, len(distances))
	copy(out, distances)
	return out
}
