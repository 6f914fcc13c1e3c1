package models

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-genre/errs"
)

// LinearClassifier separates two classes with a hyperplane. A positive score
// selects Lower and anything else selects Upper; trained tables store the
// positive-side label in the Lower column, so the naming stays as is.
type LinearClassifier struct {
	Lower        string
	Upper        string
	Intercept    float64
	Coefficients []float64
}

// Score returns coefficients·features + intercept
func (c *LinearClassifier) Score(features []float64) (float64, error) {
	if len(features) != len(c.Coefficients) {
		return 0, errs.SizeMismatch("feature vector", len(features), len(c.Coefficients))
	}
	return floats.Dot(c.Coefficients, features) + c.Intercept, nil
}

// Predict returns Lower when the score is positive, else Upper
func (c *LinearClassifier) Predict(features []float64) (string, error) {
	score, err := c.Score(features)
	if err != nil {
		return "", err
	}
	if score > 0 {
		return c.Lower, nil
	}
	return c.Upper, nil
}

// OneVsOneSVM votes over one linear classifier per class pair
type OneVsOneSVM struct {
	ensemble
	classifiers []*LinearClassifier
}

// NewOneVsOneSVM creates an ensemble from classifiers
func NewOneVsOneSVM(classifiers ...*LinearClassifier) *OneVsOneSVM {
	return &OneVsOneSVM{classifiers: classifiers}
}

// Classifiers returns the pairwise classifiers in load order
func (s *OneVsOneSVM) Classifiers() []*LinearClassifier {
	return s.classifiers
}

// Classes returns every label seen on either side, sorted
func (s *OneVsOneSVM) Classes() []string {
	seen := make(map[string]struct{})
	for _, c := range s.classifiers {
		seen[c.Lower] = struct{}{}
		seen[c.Upper] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Predict returns the majority vote of all pairwise classifiers
func (s *OneVsOneSVM) Predict(features []float64) (string, error) {
	if len(s.classifiers) == 0 {
		return "", fmt.Errorf("%w: svm has no classifiers", errs.ErrNotFound)
	}
	return vote(&s.ensemble, s.classifiers, features)
}

func (s *OneVsOneSVM) String() string {
	return fmt.Sprintf("OneVsOneSVM(%d classes, %d classifiers)", len(s.Classes()), len(s.classifiers))
}

// LoadOneVsOneSVM reads rows of positive label, negative label, intercept, coefficients...
func LoadOneVsOneSVM(r io.Reader, name string) (*OneVsOneSVM, error) {
	tb := newTable(name, r)
	svm := &OneVsOneSVM{}

	for {
		rec, err := tb.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := tb.require(rec, 4, "classifier"); err != nil {
			return nil, err
		}

		c := &LinearClassifier{Lower: label(rec[0]), Upper: label(rec[1])}
		if c.Intercept, err = tb.float(rec, 2, "intercept"); err != nil {
			return nil, err
		}
		if c.Coefficients, err = tb.floats(rec[3:], "coefficient"); err != nil {
			return nil, err
		}

		if n := len(svm.classifiers); n > 0 {
			if want := len(svm.classifiers[0].Coefficients); len(c.Coefficients) != want {
				return nil, fmt.Errorf("%s:%d: %w", name, tb.line, errs.SizeMismatch("coefficients", len(c.Coefficients), want))
			}
		}
		svm.classifiers = append(svm.classifiers, c)
	}

	if len(svm.classifiers) == 0 {
		return nil, fmt.Errorf("%w: %s has no classifiers", errs.ErrFormat, name)
	}
	return svm, nil
}

// LoadOneVsOneSVMFile reads an SVM table from path
func LoadOneVsOneSVMFile(path string) (*OneVsOneSVM, error) {
	f, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadOneVsOneSVM(f, filepath.Base(path))
}
