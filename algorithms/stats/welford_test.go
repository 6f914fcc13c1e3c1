package stats_test

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-genre/algorithms/stats"
)

func TestWelfordMatchesTwoPass(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const dim, n = 3, 500

	columns := make([][]float64, dim)
	w := stats.NewWelford(dim)
	for range n {
		row := make([]float64, dim)
		for d := range row {
			// large offset stresses cancellation in naive formulas
			row[d] = 1e6 + rng.NormFloat64()*float64(d+1)
			columns[d] = append(columns[d], row[d])
		}
		if err := w.Add(row); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if w.Count() != n {
		t.Fatalf("Count = %d, want %d", w.Count(), n)
	}
	mean, std := w.Mean(), w.StdDev()
	for d := range dim {
		wantMean, wantStd := stat.MeanStdDev(columns[d], nil)
		if math.Abs(mean[d]-wantMean) > 1e-6 {
			t.Errorf("dim %d mean = %v, want %v", d, mean[d], wantMean)
		}
		if math.Abs(std[d]-wantStd) > 1e-6 {
			t.Errorf("dim %d std = %v, want %v", d, std[d], wantStd)
		}
	}
}

func TestWelfordSmallCounts(t *testing.T) {
	w := stats.NewWelford(2)
	if got := w.StdDev(); got[0] != 0 || got[1] != 0 {
		t.Fatalf("empty StdDev = %v", got)
	}

	if err := w.Add([]float64{1, 2}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := w.StdDev(); got[0] != 0 {
		t.Fatalf("single observation StdDev = %v, want 0", got)
	}

	if err := w.Add([]float64{3, 2}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := w.StdDev(); math.Abs(got[0]-math.Sqrt2) > 1e-12 || got[1] != 0 {
		t.Fatalf("StdDev = %v", got)
	}

	if err := w.Add([]float64{1}); err == nil {
		t.Fatal("expected dimension error")
	}

	w.Reset()
	if w.Count() != 0 || w.Mean()[0] != 0 {
		t.Fatal("Reset did not clear state")
	}
}
