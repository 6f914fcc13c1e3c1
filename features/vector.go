package features

import (
	"path/filepath"
	"strings"
)

const (
	// LabelColumn and PathColumn close every feature table row
	LabelColumn = "style"
	PathColumn  = "file_name"

	// UnknownLabel marks vectors whose class is not known
	UnknownLabel = "unknown"
)

// Vector is a fixed-length feature vector with its class label
type Vector struct {
	Label     string    `json:"label" msgpack:"label"`
	Path      string    `json:"path" msgpack:"path"`
	Algorithm Algorithm `json:"algorithm" msgpack:"algorithm"`
	Values    []float64 `json:"values" msgpack:"values"`
}

// Averages returns the first half of Values (per-slot means)
func (v *Vector) Averages() []float64 {
	return v.Values[:len(v.Values)/2]
}

// StdDevs returns the second half of Values (per-slot standard deviations)
func (v *Vector) StdDevs() []float64 {
	return v.Values[len(v.Values)/2:]
}

// LabelFromPath returns the file name up to its first dot,
// so "genres/blues/blues.00012.au" yields "blues"
func LabelFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		return UnknownLabel
	}
	return base
}
