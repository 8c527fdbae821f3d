package phoneme

import (
	"math"
	"testing"
)

func TestFeaturesIsCopy(t *testing.T) {
	t.Parallel()

	v, ok := Features('a')
	if !ok {
		t.Fatal("'a' missing from table")
	}
	v[0] = 42
	again, _ := Features('a')
	if again[0] != 1 {
		t.Errorf("table was mutated through returned vector: %v", again)
	}

	if _, ok := Features('q'); ok {
		t.Error("'q' should not be in the table")
	}
	if len(Chars()) != 24 {
		t.Errorf("table has %d chars, want 24", len(Chars()))
	}
}

func TestNewTableIsFresh(t *testing.T) {
	t.Parallel()

	m := newTable()
	m['a'] = Vector{}
	delete(m, 'b')
	m['q'] = Vector{1}

	if v, _ := Features('a'); v[0] != 1 {
		t.Errorf("shared table changed through a fresh copy: %v", v)
	}
	if !Known([]rune("b")) || Known([]rune("q")) {
		t.Error("shared table gained or lost a character")
	}
	if len(newTable()) != 24 {
		t.Errorf("newTable has %d chars, want 24", len(newTable()))
	}
}

func TestVowelPair(t *testing.T) {
	t.Parallel()

	a, _ := Features('a')
	e, _ := Features('e')

	tests := []struct {
		metric string
		want   float64
	}{
		{Edit, 2},
		{EditSum, 4},
		{Euclidean, math.Sqrt(8)},
		{Hamming, 2},
	}
	for _, tt := range tests {
		got, ok := Between(tt.metric, 'a', 'e')
		if !ok {
			t.Fatalf("Between(%s) not ok", tt.metric)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s(a, e) = %v, want %v", tt.metric, got, tt.want)
		}
	}

	if EuclideanDistance(a, e) != EuclideanDistance(e, a) {
		t.Error("euclidean distance should be symmetric")
	}
}

func TestHammingUsesSigns(t *testing.T) {
	t.Parallel()

	// 'f' and 's' differ on Round (1 vs -1) and Tongue (0 vs 1)
	f, _ := Features('f')
	s, _ := Features('s')
	if got := HammingDistance(f, s); got != 2 {
		t.Errorf("Hamming(f, s) = %v, want 2", got)
	}

	// 'j' (-0.8) and 'g' (-1) share a sign on Sonorant but are not equal
	j, _ := Features('j')
	g, _ := Features('g')
	if HammingDistance(j, g) >= EditDistance(j, g) {
		t.Errorf("Hamming(j, g) = %v should be below Edit(j, g) = %v",
			HammingDistance(j, g), EditDistance(j, g))
	}
}

func TestDistances(t *testing.T) {
	t.Parallel()

	all := Distances()
	pairs := 24 * 23 / 2
	if len(all) != pairs*len(Metrics) {
		t.Fatalf("got %d distances, want %d", len(all), pairs*len(Metrics))
	}

	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if prev.Metric > cur.Metric ||
			(prev.Metric == cur.Metric && (prev.Char1 > cur.Char1 ||
				(prev.Char1 == cur.Char1 && prev.Char2 >= cur.Char2))) {
			t.Fatalf("not sorted at %d: %+v then %+v", i, prev, cur)
		}
	}
	for _, d := range all {
		if d.Char1 >= d.Char2 {
			t.Errorf("pair not canonical: %+v", d)
		}
		if d.Distance < 0 {
			t.Errorf("negative distance: %+v", d)
		}
	}

	all[0].Distance = -1
	if Distances()[0].Distance == -1 {
		t.Error("Distances returned shared backing storage")
	}
}
