// Package shape measures visual distance between aligned glyph bitmaps using
// the symmetric Hausdorff distance over their ink pixels.
package shape

import (
	"errors"
	"math"

	"github.com/wbrown/soundshape/raster"
)

// ErrFailedRender reports that a glyph bitmap has no ink, so no distance can
// be defined for it. It is never reported as a distance of zero.
var ErrFailedRender = errors.New("failed render: glyph has no foreground pixels")

// Metric is the shape metric name under which distances are stored.
const Metric = "hausdorff"

// bruteForceLimit is the target set size below which nearest neighbour
// queries scan linearly instead of building a KD-tree.
const bruteForceLimit = 64

// Point is a pixel position in row-major order.
type Point struct {
	Row int
	Col int
}

// dist2 returns the squared euclidean distance between two points.
func (p Point) dist2(q Point) int {
	dr, dc := p.Row-q.Row, p.Col-q.Col
	return dr*dr + dc*dc
}

// Points returns the ink pixels of b in row-major scan order.
func Points(b raster.Bitmap) []Point {
	var pts []Point
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.Pix[r*b.Cols+c] == raster.Foreground {
				pts = append(pts, Point{Row: r, Col: c})
			}
		}
	}
	return pts
}

// DirectedResult is one direction of the Hausdorff distance: From is the
// point of the source set realising the supremum and To its nearest point
// in the target set.
type DirectedResult struct {
	Distance float64
	From     Point
	To       Point
}

// Result is the symmetric Hausdorff distance with both directed halves.
type Result struct {
	Distance float64
	Forward  DirectedResult
	Backward DirectedResult
}

// Directed computes sup over p of the distance to the nearest point of q.
// Ties go to the earliest point in scan order on both the sup and the inf
// side. Both sets must be non-empty; otherwise the zero result is returned.
func Directed(p, q []Point) DirectedResult {
	if len(p) == 0 || len(q) == 0 {
		return DirectedResult{}
	}

	var nearest func(target Point, floor int) (int, int)
	if len(q) > bruteForceLimit {
		tree := buildTree(q)
		nearest = tree.nearest
	} else {
		nearest = func(target Point, floor int) (int, int) {
			return scanNearest(q, target, floor)
		}
	}

	supD2, supIdx, supTo := -1, 0, 0
	for i, pt := range p {
		// once the running inf drops below the current sup this point
		// cannot win, so the search may stop early
		d2, j := nearest(pt, supD2)
		if d2 > supD2 {
			supD2, supIdx, supTo = d2, i, j
		}
	}

	return DirectedResult{
		Distance: math.Sqrt(float64(supD2)),
		From:     p[supIdx],
		To:       q[supTo],
	}
}

// scanNearest returns the squared distance and index of the first point of
// q nearest to target, stopping as soon as a distance below floor is seen.
func scanNearest(q []Point, target Point, floor int) (int, int) {
	best, bestIdx := math.MaxInt, 0
	for j, pt := range q {
		d2 := target.dist2(pt)
		if d2 < best {
			best, bestIdx = d2, j
			if best < floor {
				break
			}
		}
	}
	return best, bestIdx
}

// Hausdorff returns the symmetric Hausdorff distance between the ink of two
// bitmaps. It returns ErrFailedRender when either bitmap is empty.
func Hausdorff(b1, b2 raster.Bitmap) (Result, error) {
	p1, p2 := Points(b1), Points(b2)
	if len(p1) == 0 || len(p2) == 0 {
		return Result{}, ErrFailedRender
	}

	fwd := Directed(p1, p2)
	bwd := Directed(p2, p1)
	return Result{
		Distance: math.Max(fwd.Distance, bwd.Distance),
		Forward:  fwd,
		Backward: bwd,
	}, nil
}

// ContributingPoints splits a result into the two points that lie in the
// first bitmap and the two that lie in the second.
func (r Result) ContributingPoints() (first, second [2]Point) {
	first = [2]Point{r.Forward.From, r.Backward.To}
	second = [2]Point{r.Forward.To, r.Backward.From}
	return first, second
}
