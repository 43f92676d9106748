package settings

import (
	"errors"
	"math"
	"testing"

	apperrors "github.com/marblerush/economy/internal/errors"
)

func TestSelectDistribution(t *testing.T) {
	sel := NewSelector(42, 7)
	entries := []Weighted[string]{{"A", 0}, {"B", 10}, {"C", 30}}

	counts := map[string]int{}
	for i := 0; i < 100000; i++ {
		v, err := SelectFrom(sel, entries)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		counts[v]++
	}
	if counts["A"] != 0 {
		t.Fatalf("zero-weight entry was drawn %d times", counts["A"])
	}
	if counts["B"] == 0 {
		t.Fatalf("B was never drawn")
	}
	ratio := float64(counts["C"]) / float64(counts["B"])
	if math.Abs(ratio-3)/3 > 0.05 {
		t.Fatalf("expected C:B near 3, got %.3f (%v)", ratio, counts)
	}
}

func TestSelectIntervalsFollowEntryOrder(t *testing.T) {
	cases := []struct {
		draw int64
		want int
	}{
		{0, 1},
		{9, 1},
		{10, 3},
		{39, 3},
	}
	weights := []int64{0, 10, 0, 30}
	for _, tc := range cases {
		draw := tc.draw
		sel := &Selector{draw: func(n int64) int64 {
			if n != 40 {
				t.Fatalf("expected total 40, got %d", n)
			}
			return draw
		}}
		got, err := sel.Select(weights)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if got != tc.want {
			t.Fatalf("draw %d: expected index %d, got %d", tc.draw, tc.want, got)
		}
	}
}

func TestSelectRejectsInvalidWeights(t *testing.T) {
	sel := NewSelector(1, 2)
	for name, weights := range map[string][]int64{
		"empty":    nil,
		"negative": {5, -1},
		"zero sum": {0, 0},
	} {
		if _, err := sel.Select(weights); !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("%s: expected InvalidArgument, got %v", name, err)
		}
	}
}

func TestWeightedSelectSingleCandidate(t *testing.T) {
	got, err := WeightedSelect([]Weighted[int]{{Value: 1, Weight: 0}, {Value: 2, Weight: 3}})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected the only positive-weight entry, got %d", got)
	}
}
