package shape

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/wbrown/soundshape/raster"
)

func TestPoints(t *testing.T) {
	t.Parallel()

	b := raster.MustParseBitmap(
		"#..",
		"..#",
		"##.",
	)
	got := Points(b)
	want := []Point{{0, 0}, {1, 2}, {2, 0}, {2, 1}}
	if len(got) != len(want) {
		t.Fatalf("Points() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestHausdorffIdentical(t *testing.T) {
	t.Parallel()

	b := raster.MustParseBitmap(
		".##.",
		"#..#",
		".##.",
	)
	r, err := Hausdorff(b, b.Clone())
	if err != nil {
		t.Fatalf("Hausdorff: %v", err)
	}
	if r.Distance != 0 {
		t.Errorf("distance = %v, want 0", r.Distance)
	}
	if r.Forward.From != r.Forward.To || r.Backward.From != r.Backward.To {
		t.Errorf("contributing points should coincide: %+v", r)
	}
}

func TestHausdorffKnown(t *testing.T) {
	t.Parallel()

	a := raster.MustParseBitmap(
		"#....",
		".....",
		".....",
	)
	b := raster.MustParseBitmap(
		"#....",
		".....",
		"....#",
	)

	r, err := Hausdorff(a, b)
	if err != nil {
		t.Fatalf("Hausdorff: %v", err)
	}
	// every point of a is in b
	if r.Forward.Distance != 0 {
		t.Errorf("forward = %v, want 0", r.Forward.Distance)
	}
	want := math.Sqrt(4 + 16)
	if math.Abs(r.Backward.Distance-want) > 1e-12 || math.Abs(r.Distance-want) > 1e-12 {
		t.Errorf("backward = %v, distance = %v, want %v", r.Backward.Distance, r.Distance, want)
	}
	if r.Backward.From != (Point{2, 4}) || r.Backward.To != (Point{0, 0}) {
		t.Errorf("backward points = %v -> %v", r.Backward.From, r.Backward.To)
	}

	first, second := r.ContributingPoints()
	if first != [2]Point{{0, 0}, {0, 0}} {
		t.Errorf("first points = %v", first)
	}
	if second != [2]Point{{0, 0}, {2, 4}} {
		t.Errorf("second points = %v", second)
	}
}

func TestHausdorffSymmetric(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		a := randomBitmap(rng, 16, 12, 0.2)
		b := randomBitmap(rng, 16, 12, 0.2)
		if a.Empty() || b.Empty() {
			continue
		}
		ab, err := Hausdorff(a, b)
		if err != nil {
			t.Fatalf("Hausdorff(a, b): %v", err)
		}
		ba, err := Hausdorff(b, a)
		if err != nil {
			t.Fatalf("Hausdorff(b, a): %v", err)
		}
		if ab.Distance != ba.Distance {
			t.Errorf("trial %d: %v != %v", trial, ab.Distance, ba.Distance)
		}
		if ab.Forward != ba.Backward || ab.Backward != ba.Forward {
			t.Errorf("trial %d: directed halves should mirror", trial)
		}
	}
}

func TestHausdorffEmpty(t *testing.T) {
	t.Parallel()

	ink := raster.MustParseBitmap("#.", "..")
	blank := raster.NewBitmap(2, 2)

	if _, err := Hausdorff(ink, blank); !errors.Is(err, ErrFailedRender) {
		t.Errorf("Hausdorff(ink, blank) error = %v, want ErrFailedRender", err)
	}
	if _, err := Hausdorff(blank, ink); !errors.Is(err, ErrFailedRender) {
		t.Errorf("Hausdorff(blank, ink) error = %v, want ErrFailedRender", err)
	}
}

func TestDirectedTieBreak(t *testing.T) {
	t.Parallel()

	// (1,1) is equidistant from all four targets; the first one wins
	p := []Point{{1, 1}}
	q := []Point{{0, 1}, {1, 0}, {1, 2}, {2, 1}}
	r := Directed(p, q)
	if r.To != (Point{0, 1}) {
		t.Errorf("inf tie went to %v, want {0 1}", r.To)
	}

	// both sources are at distance 1; the first one wins the sup
	p = []Point{{0, 0}, {0, 4}}
	q = []Point{{1, 0}, {1, 4}}
	r = Directed(p, q)
	if r.From != (Point{0, 0}) {
		t.Errorf("sup tie went to %v, want {0 0}", r.From)
	}
}

// bruteDirected is the plain double loop without early exit.
func bruteDirected(p, q []Point) DirectedResult {
	supD2, from, to := -1, 0, 0
	for i, a := range p {
		best, bestJ := math.MaxInt, 0
		for j, b := range q {
			if d := a.dist2(b); d < best {
				best, bestJ = d, j
			}
		}
		if best > supD2 {
			supD2, from, to = best, i, bestJ
		}
	}
	return DirectedResult{Distance: math.Sqrt(float64(supD2)), From: p[from], To: q[to]}
}

func TestKDTreeMatchesBruteForce(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 25; trial++ {
		// dense enough to take the KD-tree path
		a := Points(randomBitmap(rng, 40, 30, 0.3))
		b := Points(randomBitmap(rng, 40, 30, 0.3))
		if len(a) <= bruteForceLimit || len(b) <= bruteForceLimit {
			t.Fatalf("trial %d: sets too small for KD-tree path", trial)
		}

		got := Directed(a, b)
		want := bruteDirected(a, b)
		if got != want {
			t.Errorf("trial %d: Directed = %+v, brute force = %+v", trial, got, want)
		}

		tree := buildTree(b)
		for _, target := range a[:10] {
			d2, idx := tree.nearest(target, -1)
			wantD2, wantIdx := scanNearest(b, target, -1)
			if d2 != wantD2 || idx != wantIdx {
				t.Errorf("nearest(%v) = (%d, %d), want (%d, %d)", target, d2, idx, wantD2, wantIdx)
			}
		}
	}
}

func randomBitmap(rng *rand.Rand, rows, cols int, density float64) raster.Bitmap {
	b := raster.NewBitmap(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if rng.Float64() < density {
				b.Set(r, c, raster.Foreground)
			}
		}
	}
	return b
}
