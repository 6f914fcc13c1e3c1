package spectral

import (
	"fmt"
	"math"
)

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int     `json:"num_coefficients" yaml:"num_coefficients"` // cepstral values kept per frame
	NumMelFilters   int     `json:"num_mel_filters" yaml:"num_mel_filters"`   // filters built in the bank
	SampleRate      float64 `json:"sample_rate" yaml:"sample_rate"`           // rate used to place filter bins
	LowFreq         float64 `json:"low_freq" yaml:"low_freq"`
	HighFreq        float64 `json:"high_freq" yaml:"high_freq"`
}

// DefaultMFCCParams returns 20 coefficients over a 26-filter bank spanning 20 Hz..22.05 kHz
func DefaultMFCCParams() MFCCParams {
	return MFCCParams{
		NumCoefficients: 20,
		NumMelFilters:   26,
		SampleRate:      44100,
		LowFreq:         20,
		HighFreq:        22050,
	}
}

// MFCC turns a half-spectrum magnitude vector into cepstral coefficients:
// mel filterbank, log with floor, then DCT-II over the first
// NumCoefficients filter outputs.
type MFCC struct {
	params MFCCParams
	bank   *MelFilterbank
	dct    *DCT
}

// NewMFCC prepares the filterbank and DCT for an fftSize-point transform
func NewMFCC(fftSize int, params MFCCParams) (*MFCC, error) {
	if params.NumCoefficients <= 0 {
		return nil, fmt.Errorf("invalid coefficient count: %d", params.NumCoefficients)
	}
	if params.NumCoefficients > params.NumMelFilters {
		return nil, fmt.Errorf("coefficient count (%d) exceeds mel filter count (%d)",
			params.NumCoefficients, params.NumMelFilters)
	}

	bank, err := NewMelFilterbank(params.NumMelFilters, fftSize, params.SampleRate, params.LowFreq, params.HighFreq)
	if err != nil {
		return nil, fmt.Errorf("failed to create mel filter bank: %w", err)
	}

	dct, err := NewDCT(params.NumCoefficients)
	if err != nil {
		return nil, fmt.Errorf("failed to create DCT: %w", err)
	}

	return &MFCC{params: params, bank: bank, dct: dct}, nil
}

// Compute writes NumCoefficients cepstral values for magnitude into dst
func (m *MFCC) Compute(dst, magnitude []float64) error {
	if len(dst) != m.params.NumCoefficients {
		return fmt.Errorf("output length (%d) doesn't match coefficient count (%d)", len(dst), m.params.NumCoefficients)
	}

	logMel := make([]float64, m.params.NumCoefficients)
	if err := m.bank.Apply(logMel, magnitude); err != nil {
		return err
	}
	return m.dct.Forward(dst, logMel)
}

// FilterBank exposes the underlying mel filterbank
func (m *MFCC) FilterBank() *MelFilterbank {
	return m.bank
}

// GetParams returns the current MFCC parameters
func (m *MFCC) GetParams() MFCCParams {
	return m.params
}

// LogEnergy returns Σ log(max(x², EnergyFloor)) / 1000 over a frame
func LogEnergy(frame []float64) float64 {
	sum := 0.0
	for _, x := range frame {
		sum += math.Log(max(x*x, EnergyFloor))
	}
	return sum / 1e3
}
