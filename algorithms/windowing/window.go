// Package windowing builds the tapering windows applied to analysis frames.
package windowing

import (
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-genre/errs"
)

// Kind names a window shape
type Kind string

const (
	Hamming     Kind = "hamming"
	Hann        Kind = "hann"
	Blackman    Kind = "blackman"
	Rectangular Kind = "rectangular"
)

// ParseKind maps a case-insensitive name to a Kind; the empty name is Hamming
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return Hamming, nil
	}
	if _, ok := cosineTerms[k]; !ok {
		return "", fmt.Errorf("%w: window %q", errs.ErrUnsupported, s)
	}
	return k, nil
}

// Every supported shape is a cosine sum a0 − a1·cos(x) + a2·cos(2x)
var cosineTerms = map[Kind][3]float64{
	Hamming:     {0.54, 0.46, 0},
	Hann:        {0.5, 0.5, 0},
	Blackman:    {0.42, 0.5, 0.08},
	Rectangular: {1, 0, 0},
}

// Window is a precomputed window, w[i] = a0 − a1·cos(2πi/D) + a2·cos(4πi/D),
// where D is N−1 for the symmetric form and N for the periodic form.
type Window struct {
	kind         Kind
	symmetric    bool
	coefficients []float64
}

// New creates a window of the given shape
func New(kind Kind, size int, symmetric bool) (*Window, error) {
	kind, err := ParseKind(string(kind))
	if err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	w := &Window{kind: kind, symmetric: symmetric, coefficients: make([]float64, size)}
	if size == 1 {
		w.coefficients[0] = 1
		return w, nil
	}

	denominator := float64(size)
	if symmetric {
		denominator = float64(size - 1)
	}
	a := cosineTerms[kind]
	for i := range size {
		x := 2 * math.Pi * float64(i) / denominator
		w.coefficients[i] = a[0] - a[1]*math.Cos(x) + a[2]*math.Cos(2*x)
	}
	return w, nil
}

// NewHamming creates a Hamming window
func NewHamming(size int, symmetric bool) *Window {
	w, _ := New(Hamming, max(size, 1), symmetric)
	return w
}

// Apply returns a windowed copy of signal, or nil on a length mismatch
func (w *Window) Apply(signal []float64) []float64 {
	if len(signal) != len(w.coefficients) {
		return nil
	}
	out := make([]float64, len(signal))
	for i, c := range w.coefficients {
		out[i] = signal[i] * c
	}
	return out
}

// ApplyInPlace multiplies signal by the window
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != len(w.coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(w.coefficients))
	}
	for i, c := range w.coefficients {
		signal[i] *= c
	}
	return nil
}

// Coefficients returns a copy of the window coefficients
func (w *Window) Coefficients() []float64 {
	return append([]float64(nil), w.coefficients...)
}

func (w *Window) Size() int {
	return len(w.coefficients)
}

func (w *Window) Kind() Kind {
	return w.kind
}
