package features

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-genre/algorithms/common"
	"github.com/RyanBlaney/sonido-genre/algorithms/spectral"
	"github.com/RyanBlaney/sonido-genre/algorithms/windowing"
	"github.com/RyanBlaney/sonido-genre/errs"
)

// Algorithm selects how frames are reduced to per-frame values
type Algorithm string

const (
	AlgorithmSTFT Algorithm = "stft"
	AlgorithmMFCC Algorithm = "mfcc"
)

// ParseAlgorithm maps a case-insensitive name to an Algorithm
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case AlgorithmSTFT:
		return AlgorithmSTFT, nil
	case AlgorithmMFCC:
		return AlgorithmMFCC, nil
	default:
		return "", fmt.Errorf("%w: algorithm %q", errs.ErrUnsupported, s)
	}
}

// Config controls framing, the cepstral stage and final normalization
type Config struct {
	Algorithm Algorithm           `json:"algorithm" yaml:"algorithm"`
	FrameSize int                 `json:"frame_size" yaml:"frame_size"` // N; companion frames start N/2 later
	Window    windowing.Kind      `json:"window" yaml:"window"`
	MFCC      spectral.MFCCParams `json:"mfcc" yaml:"mfcc"`
	Normalize bool                `json:"normalize" yaml:"normalize"` // global z-score over the output vector
}

// DefaultConfig returns 512-sample Hamming frames, a 26-filter mel bank with
// 20 coefficients kept, and normalization on
func DefaultConfig() *Config {
	return &Config{
		Algorithm: AlgorithmSTFT,
		FrameSize: 512,
		Window:    windowing.Hamming,
		MFCC:      spectral.DefaultMFCCParams(),
		Normalize: true,
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if _, err := ParseAlgorithm(string(c.Algorithm)); err != nil {
		return err
	}
	if c.FrameSize < 2 || !common.IsPowerOfTwo(c.FrameSize) {
		return fmt.Errorf("frame size must be a power of two >= 2, got %d", c.FrameSize)
	}
	if _, err := windowing.ParseKind(string(c.Window)); err != nil {
		return err
	}
	if c.Algorithm == AlgorithmMFCC {
		m := c.MFCC
		if m.NumCoefficients <= 0 || m.NumMelFilters <= 0 {
			return fmt.Errorf("mfcc filter and coefficient counts must be positive")
		}
		if m.NumCoefficients > m.NumMelFilters {
			return fmt.Errorf("mfcc coefficient count (%d) exceeds filter count (%d)", m.NumCoefficients, m.NumMelFilters)
		}
		if m.SampleRate <= 0 || m.HighFreq <= m.LowFreq || m.LowFreq < 0 {
			return fmt.Errorf("invalid mfcc frequency layout: rate=%v range=%v..%v", m.SampleRate, m.LowFreq, m.HighFreq)
		}
	}
	return nil
}

// BlockSize is the number of per-frame values accumulated
func (c *Config) BlockSize() int {
	if c.Algorithm == AlgorithmMFCC {
		return c.MFCC.NumCoefficients + 1
	}
	return c.FrameSize / 2
}

// Dimension is the feature vector length: means followed by standard deviations
func (c *Config) Dimension() int {
	return 2 * c.BlockSize()
}

// Header returns the feature table column names, label and path included
func (c *Config) Header() []string {
	n := c.BlockSize()
	cols := make([]string, 0, 2*n+2)

	if c.Algorithm == AlgorithmMFCC {
		cols = append(cols, "SIGNALENERGY_AVG")
		for i := range n - 1 {
			cols = append(cols, fmt.Sprintf("BIN_AVG%d", i))
		}
		cols = append(cols, "SIGNALENERGY_STDEV")
		for i := range n - 1 {
			cols = append(cols, fmt.Sprintf("BIN_STDEV%d", i))
		}
	} else {
		for i := range n {
			cols = append(cols, fmt.Sprintf("BIN_AVG%d", i))
		}
		for i := range n {
			cols = append(cols, fmt.Sprintf("BIN_STDEV%d", i))
		}
	}

	return append(cols, LabelColumn, PathColumn)
}
