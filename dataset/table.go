// Package dataset moves feature vectors between audio corpora, feature tables
// and models: directory listing, train/test splits, batch extraction, table
// I/O and accuracy reports.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-genre/errs"
	"github.com/RyanBlaney/sonido-genre/features"
)

// Writer writes a feature table: one header row, then per vector its values,
// the quoted label and the quoted source path
type Writer struct {
	w         *bufio.Writer
	dimension int
	rows      int
}

// NewWriter writes header to w and returns a writer expecting vectors of
// len(header)-2 values
func NewWriter(w io.Writer, header []string) (*Writer, error) {
	if len(header) < 2 {
		return nil, fmt.Errorf("feature table header needs label and path columns, got %d columns", len(header))
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(header, ",") + "\n"); err != nil {
		return nil, err
	}
	return &Writer{w: bw, dimension: len(header) - 2}, nil
}

// Write appends one row. A row the underlying writer rejects is not counted.
func (w *Writer) Write(v *features.Vector) error {
	if len(v.Values) != w.dimension {
		return fmt.Errorf("%s: %w", v.Path, errs.SizeMismatch("feature vector", len(v.Values), w.dimension))
	}

	row := make([]byte, 0, 10*len(v.Values)+len(v.Label)+len(v.Path)+8)
	for _, x := range v.Values {
		row = strconv.AppendFloat(row, x, 'f', 6, 64)
		row = append(row, ',')
	}
	row = append(row, quote(v.Label)...)
	row = append(row, ',')
	row = append(row, quote(v.Path)...)
	row = append(row, '\n')

	if _, err := w.w.Write(row); err != nil {
		return fmt.Errorf("write row for %s: %w", v.Path, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of rows written
func (w *Writer) Rows() int {
	return w.rows
}

// Flush writes buffered rows to the underlying writer
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ReadVectors reads a feature table. Each row yields its first dimension
// values, the label after them and, when present, the path.
func ReadVectors(r io.Reader, dimension int) ([]*features.Vector, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var out []*features.Vector
	header := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &errs.FieldError{Source: "feature table", Line: pe.Line, Field: "row", Err: pe.Err}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if header {
			header = false
			continue
		}

		if len(rec) < dimension+1 {
			return nil, &errs.FieldError{
				Source: "feature table", Line: line, Field: "row", Value: strings.Join(rec, ","),
				Err: fmt.Errorf("expected %d values and a label, got %d columns", dimension, len(rec)),
			}
		}

		v := &features.Vector{Label: strings.Trim(rec[dimension], `"`), Values: make([]float64, dimension)}
		for i := range dimension {
			x, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, &errs.FieldError{Source: "feature table", Line: line, Field: fmt.Sprintf("value[%d]", i), Value: rec[i], Err: err}
			}
			v.Values[i] = x
		}
		if len(rec) > dimension+1 {
			v.Path = strings.Trim(rec[dimension+1], `"`)
		}
		out = append(out, v)
	}
	return out, nil
}
