package stats

import (
	"fmt"
	"math"
)

// Welford accumulates per-dimension running mean and sum of squared deviations
// over a stream of equal-length vectors, without storing them.
type Welford struct {
	count int
	mean  []float64
	m2    []float64
}

// NewWelford creates an accumulator for vectors of length dim
func NewWelford(dim int) *Welford {
	return &Welford{
		mean: make([]float64, dim),
		m2:   make([]float64, dim),
	}
}

// Add folds one observation into the running statistics
func (w *Welford) Add(x []float64) error {
	if len(x) != len(w.mean) {
		return fmt.Errorf("observation length (%d) doesn't match accumulator dimension (%d)", len(x), len(w.mean))
	}

	w.count++
	n := float64(w.count)
	for i, v := range x {
		delta := v - w.mean[i]
		w.mean[i] += delta / n
		w.m2[i] += delta * (v - w.mean[i])
	}
	return nil
}

// Count returns the number of observations added
func (w *Welford) Count() int {
	return w.count
}

// Dim returns the vector length
func (w *Welford) Dim() int {
	return len(w.mean)
}

// Mean returns a copy of the running mean
func (w *Welford) Mean() []float64 {
	return append([]float64(nil), w.mean...)
}

// Variance returns the sample variance M2/(n−1); zero until two observations exist
func (w *Welford) Variance() []float64 {
	v := make([]float64, len(w.m2))
	if w.count < 2 {
		return v
	}
	for i, m2 := range w.m2 {
		v[i] = m2 / float64(w.count-1)
	}
	return v
}

// StdDev returns sqrt(Variance())
func (w *Welford) StdDev() []float64 {
	v := w.Variance()
	for i := range v {
		v[i] = math.Sqrt(v[i])
	}
	return v
}

// Reset clears all observations
func (w *Welford) Reset() {
	w.count = 0
	clear(w.mean)
	clear(w.m2)
}
