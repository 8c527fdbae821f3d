package shape

import (
	"math"
	"sort"
)

// pointNode is a node in a 2-D KD-tree over pixel positions. Index is the
// point's position in the original scan order and breaks distance ties.
type pointNode struct {
	Point       Point
	Index       int
	Left, Right *pointNode
	SplitAxis   int
}

type indexedPoint struct {
	pt  Point
	idx int
}

// buildTree constructs a KD-tree over pts.
func buildTree(pts []Point) *pointNode {
	items := make([]indexedPoint, len(pts))
	for i, p := range pts {
		items[i] = indexedPoint{pt: p, idx: i}
	}
	return buildKDTree(items)
}

func buildKDTree(items []indexedPoint) *pointNode {
	if len(items) == 0 {
		return nil
	}

	// Split on the axis with the larger spread
	axis := chooseSplitAxis(items)

	sort.Slice(items, func(i, j int) bool {
		a, b := component(items[i].pt, axis), component(items[j].pt, axis)
		if a != b {
			return a < b
		}
		return items[i].idx < items[j].idx
	})

	median := len(items) / 2
	return &pointNode{
		Point:     items[median].pt,
		Index:     items[median].idx,
		Left:      buildKDTree(items[:median]),
		Right:     buildKDTree(items[median+1:]),
		SplitAxis: axis,
	}
}

// chooseSplitAxis returns 0 (rows) or 1 (columns), whichever has the
// larger variance.
func chooseSplitAxis(items []indexedPoint) int {
	var meanR, meanC float64
	for _, it := range items {
		meanR += float64(it.pt.Row)
		meanC += float64(it.pt.Col)
	}
	meanR /= float64(len(items))
	meanC /= float64(len(items))

	var varR, varC float64
	for _, it := range items {
		varR += math.Pow(float64(it.pt.Row)-meanR, 2)
		varC += math.Pow(float64(it.pt.Col)-meanC, 2)
	}
	if varC > varR {
		return 1
	}
	return 0
}

func component(p Point, axis int) int {
	if axis == 0 {
		return p.Row
	}
	return p.Col
}

// nearest returns the squared distance and original index of the point
// closest to target, preferring the lowest index among equally close points.
// The search gives up as soon as it has seen a distance below floor, in
// which case the result is only guaranteed to be below floor.
func (node *pointNode) nearest(target Point, floor int) (int, int) {
	best, bestIdx := math.MaxInt, math.MaxInt
	done := false

	var search func(*pointNode)
	search = func(n *pointNode) {
		if n == nil || done {
			return
		}

		d2 := n.Point.dist2(target)
		if d2 < best || (d2 == best && n.Index < bestIdx) {
			best, bestIdx = d2, n.Index
			if best < floor {
				done = true
				return
			}
		}

		axisDist := component(target, n.SplitAxis) - component(n.Point, n.SplitAxis)
		next, other := n.Left, n.Right
		if axisDist >= 0 {
			next, other = n.Right, n.Left
		}

		search(next)

		// ties on the splitting plane can still hide a lower index
		if axisDist*axisDist <= best {
			search(other)
		}
	}

	search(node)
	return best, bestIdx
}
