// Package errs defines the failure categories shared by the decoder, the
// feature extractor and the model engines. Callers match them with errors.Is;
// row-level parse failures additionally carry a *FieldError.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat reports bad magic numbers, wrong file extensions and malformed rows.
	ErrFormat = errors.New("format error")

	// ErrUnsupported reports an enum value the system does not handle
	// (audio encoding, activation function, algorithm, model kind).
	ErrUnsupported = errors.New("unsupported value")

	// ErrSizeMismatch reports a feature vector whose length disagrees with a model.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrNotFound reports a missing file or a missing tree node.
	ErrNotFound = errors.New("not found")

	// ErrStructural reports an invalid mutation of a model's structure.
	ErrStructural = errors.New("structural error")
)

// FieldError identifies the field of a tabular source that failed to parse.
type FieldError struct {
	Source string // table or file name
	Line   int    // 1-based, header included
	Field  string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%s:%d: invalid %s %q", e.Source, e.Line, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrFormat and the underlying cause.
func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}

// SizeMismatch builds an ErrSizeMismatch error describing the two lengths.
func SizeMismatch(what string, got, want int) error {
	return fmt.Errorf("%w: %s has length %d, expected %d", ErrSizeMismatch, what, got, want)
}
