package spectral_test

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-genre/algorithms/spectral"
)

func TestMFCCFlatSpectrum(t *testing.T) {
	m, err := spectral.NewMFCC(512, spectral.DefaultMFCCParams())
	if err != nil {
		t.Fatalf("NewMFCC: %v", err)
	}

	// a flat spectrum of e gives log-mel energies of 1 in every filter,
	// so only the DC cepstral term is non-zero
	spectrum := make([]float64, 256)
	for i := range spectrum {
		spectrum[i] = math.E
	}
	out := make([]float64, 20)
	if err := m.Compute(out, spectrum); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if want := math.Sqrt(20); math.Abs(out[0]-want) > 1e-9 {
		t.Fatalf("c0 = %v, want %v", out[0], want)
	}
	for k := 1; k < len(out); k++ {
		if math.Abs(out[k]) > 1e-9 {
			t.Fatalf("c%d = %v, want 0", k, out[k])
		}
	}
}

func TestMFCCParamValidation(t *testing.T) {
	p := spectral.DefaultMFCCParams()
	p.NumCoefficients = 30
	if _, err := spectral.NewMFCC(512, p); err == nil {
		t.Fatal("expected error when coefficients exceed filters")
	}

	m, err := spectral.NewMFCC(512, spectral.DefaultMFCCParams())
	if err != nil {
		t.Fatalf("NewMFCC: %v", err)
	}
	if err := m.Compute(make([]float64, 19), make([]float64, 256)); err == nil {
		t.Fatal("expected output length error")
	}
}

func TestLogEnergy(t *testing.T) {
	frame := []float64{math.E, -math.E, 0}
	want := (2 + 2 + math.Log(spectral.EnergyFloor)) / 1000
	if got := spectral.LogEnergy(frame); math.Abs(got-want) > 1e-15 {
		t.Fatalf("LogEnergy = %v, want %v", got, want)
	}
}
