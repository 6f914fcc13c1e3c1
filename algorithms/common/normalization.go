package common

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minStdDev below which a pool is treated as constant and only mean-centred
const minStdDev = 1e-10

// NormalizationType defines normalization method
type NormalizationType int

const (
	// GlobalZScore pools every value of the vector into one mean and one
	// population standard deviation
	GlobalZScore NormalizationType = iota
	// NoNormalization leaves values untouched
	NoNormalization
)

func (t NormalizationType) String() string {
	switch t {
	case GlobalZScore:
		return "global_zscore"
	case NoNormalization:
		return "none"
	default:
		return "unknown"
	}
}

// Normalizer applies one normalization method to feature vectors
type Normalizer struct {
	method NormalizationType
}

// NewNormalizer creates a new normalizer
func NewNormalizer(method NormalizationType) *Normalizer {
	return &Normalizer{method: method}
}

// Normalize returns a normalized copy of values
func (n *Normalizer) Normalize(values []float64) []float64 {
	out := append([]float64(nil), values...)
	n.NormalizeInPlace(out)
	return out
}

// NormalizeInPlace normalizes values in place
func (n *Normalizer) NormalizeInPlace(values []float64) {
	if n.method == GlobalZScore {
		ZScoreInPlace(values)
	}
}

// ZScoreInPlace replaces every x with (x − mean)/std where mean and std are
// taken over the whole slice. It returns the statistics used.
func ZScoreInPlace(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)
	floats.AddConst(-mean, values)
	if std < minStdDev {
		return mean, std
	}
	floats.Scale(1/std, values)
	return mean, std
}
