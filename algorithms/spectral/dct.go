package spectral

import (
	"fmt"
	"math"
)

// DCT is an orthonormal DCT-II of a fixed length with its matrix precomputed.
// Row k is sqrt((k==0 ? 1 : 2)/M)·cos(π/M·(n+0.5)·k).
type DCT struct {
	size   int
	matrix [][]float64
}

// NewDCT creates a DCT-II for vectors of length size
func NewDCT(size int) (*DCT, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid DCT size: %d", size)
	}

	d := &DCT{size: size, matrix: make([][]float64, size)}
	m := float64(size)
	for k := range size {
		scale := math.Sqrt(2.0 / m)
		if k == 0 {
			scale = math.Sqrt(1.0 / m)
		}
		row := make([]float64, size)
		for n := range size {
			row[n] = scale * math.Cos(math.Pi/m*(float64(n)+0.5)*float64(k))
		}
		d.matrix[k] = row
	}
	return d, nil
}

// Size returns the transform length
func (d *DCT) Size() int {
	return d.size
}

// Forward writes the DCT-II of src into dst
func (d *DCT) Forward(dst, src []float64) error {
	if len(src) != d.size || len(dst) != d.size {
		return fmt.Errorf("DCT expects length %d, got src=%d dst=%d", d.size, len(src), len(dst))
	}
	for k, row := range d.matrix {
		sum := 0.0
		for n, c := range row {
			sum += src[n] * c
		}
		dst[k] = sum
	}
	return nil
}

// Inverse writes the inverse transform (DCT-III) of src into dst
func (d *DCT) Inverse(dst, src []float64) error {
	if len(src) != d.size || len(dst) != d.size {
		return fmt.Errorf("DCT expects length %d, got src=%d dst=%d", d.size, len(src), len(dst))
	}
	for n := range dst {
		sum := 0.0
		for k, row := range d.matrix {
			sum += src[k] * row[n]
		}
		dst[n] = sum
	}
	return nil
}

// DCT2 is a one-shot orthonormal DCT-II
func DCT2(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	d, _ := NewDCT(len(x))
	out := make([]float64, len(x))
	_ = d.Forward(out, x)
	return out
}

// InverseDCT2 undoes DCT2
func InverseDCT2(y []float64) []float64 {
	if len(y) == 0 {
		return nil
	}
	d, _ := NewDCT(len(y))
	out := make([]float64, len(y))
	_ = d.Inverse(out, y)
	return out
}
