package spectral

import (
	"fmt"
	"math"
)

// EnergyFloor keeps log() finite on silent bins and frames
const EnergyFloor = 2e-22

// HzToMel converts frequency in Hz to mel scale
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// MelFilterbank holds L1-normalized triangular filters over the half spectrum
// of an fftSize-point transform.
type MelFilterbank struct {
	filters    [][]float64
	centers    []int
	fftSize    int
	sampleRate float64
}

// NewMelFilterbank builds numFilters triangles whose centers are evenly spaced
// in mel between lowHz and highHz. Filter i rises from center i−1 to center i
// and falls to center i+1; the outer edges sit on the lowHz and highHz bins.
func NewMelFilterbank(numFilters, fftSize int, sampleRate, lowHz, highHz float64) (*MelFilterbank, error) {
	if numFilters <= 0 {
		return nil, fmt.Errorf("invalid filter count: %d", numFilters)
	}
	if fftSize < 2 {
		return nil, fmt.Errorf("invalid FFT size: %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %v", sampleRate)
	}
	if lowHz < 0 || highHz <= lowHz {
		return nil, fmt.Errorf("invalid frequency range: %v..%v Hz", lowHz, highHz)
	}

	bins := fftSize / 2
	toBin := func(hz float64) int {
		b := int(math.Round(hz * float64(fftSize) / sampleRate))
		return max(0, min(b, bins-1))
	}

	lowMel := HzToMel(lowHz)
	highMel := HzToMel(highHz)
	melStep := (highMel - lowMel) / float64(numFilters+1)

	centers := make([]int, numFilters)
	for i := range centers {
		centers[i] = toBin(MelToHz(lowMel + float64(i+1)*melStep))
	}

	lowBin, highBin := toBin(lowHz), toBin(highHz)

	filters := make([][]float64, numFilters)
	for i := range filters {
		start := lowBin
		if i > 0 {
			start = centers[i-1]
		}
		stop := highBin
		if i < numFilters-1 {
			stop = centers[i+1]
		}
		filters[i] = triangle(bins, start, centers[i], stop)
	}

	return &MelFilterbank{
		filters:    filters,
		centers:    centers,
		fftSize:    fftSize,
		sampleRate: sampleRate,
	}, nil
}

// triangle returns a filter that is 0 at start, 1 at peak and 0 at stop,
// scaled so its weights sum to 1.
func triangle(bins, start, peak, stop int) []float64 {
	f := make([]float64, bins)
	start = min(start, peak)
	stop = max(stop, peak)

	sum := 0.0
	for k := start; k <= stop; k++ {
		var w float64
		switch {
		case k < peak:
			w = float64(k-start) / float64(peak-start)
		case k == peak:
			w = 1
		default:
			w = float64(stop-k) / float64(stop-peak)
		}
		f[k] = w
		sum += w
	}

	if sum > 0 {
		for k := start; k <= stop; k++ {
			f[k] /= sum
		}
	}
	return f
}

// NumFilters returns the number of filters in the bank
func (m *MelFilterbank) NumFilters() int {
	return len(m.filters)
}

// Bins returns the spectrum length the filters expect
func (m *MelFilterbank) Bins() int {
	return m.fftSize / 2
}

// Filter returns a copy of filter i
func (m *MelFilterbank) Filter(i int) []float64 {
	return append([]float64(nil), m.filters[i]...)
}

// CenterBin returns the peak bin of filter i
func (m *MelFilterbank) CenterBin(i int) int {
	return m.centers[i]
}

// Apply computes log(max(spectrum·filter, EnergyFloor)) for the first
// len(dst) filters and stores the results in dst.
func (m *MelFilterbank) Apply(dst, spectrum []float64) error {
	if len(spectrum) != m.Bins() {
		return fmt.Errorf("spectrum length (%d) doesn't match filterbank bins (%d)", len(spectrum), m.Bins())
	}
	if len(dst) > len(m.filters) {
		return fmt.Errorf("requested %d filters, bank has %d", len(dst), len(m.filters))
	}

	for i := range dst {
		sum := 0.0
		for k, w := range m.filters[i] {
			sum += spectrum[k] * w
		}
		dst[i] = math.Log(max(sum, EnergyFloor))
	}
	return nil
}
