package spectral

import (
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT is an in-place iterative decimation-in-time transform of a fixed size.
// Bit-reversal indices and twiddle factors are computed once at construction.
// Sizes that are not a power of two fall back to go-dsp's arbitrary-length FFT.
type FFT struct {
	size     int
	stages   int
	radix2   bool
	reversed []int
	twiddles []complex128
}

// NewFFT creates a transform for sequences of length size
func NewFFT(size int) (*FFT, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid FFT size: %d", size)
	}

	f := &FFT{size: size}
	if size&(size-1) != 0 {
		return f, nil
	}

	f.radix2 = true
	f.stages = bits.TrailingZeros(uint(size))

	f.reversed = make([]int, size)
	for i := range size {
		f.reversed[i] = reverseBits(i, f.stages)
	}

	f.twiddles = make([]complex128, size/2)
	for k := range f.twiddles {
		f.twiddles[k] = cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(size)))
	}

	return f, nil
}

func reverseBits(v, width int) int {
	if width == 0 {
		return 0
	}
	return int(bits.Reverse(uint(v)) >> (bits.UintSize - width))
}

// Size returns the transform length
func (f *FFT) Size() int {
	return f.size
}

// IsRadix2 reports whether the in-place radix-2 path is used
func (f *FFT) IsRadix2() bool {
	return f.radix2
}

// Transform computes the forward DFT of x in place
func (f *FFT) Transform(x []complex128) error {
	if len(x) != f.size {
		return fmt.Errorf("input length (%d) doesn't match FFT size (%d)", len(x), f.size)
	}

	if !f.radix2 {
		copy(x, fft.FFT(x))
		return nil
	}

	for i, j := range f.reversed {
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}

	// stage s merges blocks of 2^s from pairs 2^(s-1) apart
	for s := 1; s <= f.stages; s++ {
		half := 1 << (s - 1)
		step := 1 << (f.stages - s)
		for start := 0; start < f.size; start += 2 * half {
			for k := range half {
				t := f.twiddles[k*step] * x[start+k+half]
				u := x[start+k]
				x[start+k] = u + t
				x[start+k+half] = u - t
			}
		}
	}

	return nil
}

// Inverse computes the inverse DFT of x in place via the conjugate trick
func (f *FFT) Inverse(x []complex128) error {
	if len(x) != f.size {
		return fmt.Errorf("input length (%d) doesn't match FFT size (%d)", len(x), f.size)
	}

	for i := range x {
		x[i] = cmplx.Conj(x[i])
	}
	if err := f.Transform(x); err != nil {
		return err
	}

	scale := 1 / float64(f.size)
	for i := range x {
		x[i] = cmplx.Conj(x[i]) * complex(scale, 0)
	}
	return nil
}

// Compute transforms a real signal and returns a new complex spectrum
func (f *FFT) Compute(signal []float64) ([]complex128, error) {
	x := make([]complex128, len(signal))
	for i, v := range signal {
		x[i] = complex(v, 0)
	}
	if err := f.Transform(x); err != nil {
		return nil, err
	}
	return x, nil
}

// HalfMagnitude writes |x[k]| for the first len(dst) bins into dst
func HalfMagnitude(dst []float64, x []complex128) {
	for k := range dst {
		dst[k] = cmplx.Abs(x[k])
	}
}
