package models

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-genre/errs"
)

// table reads comma-separated parameter rows, discarding the header row
type table struct {
	name       string
	r          *csv.Reader
	headerRead bool
	line       int
}

func newTable(name string, r io.Reader) *table {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	return &table{name: name, r: cr}
}

// next returns the following data row or io.EOF
func (t *table) next() ([]string, error) {
	for {
		rec, err := t.r.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &errs.FieldError{Source: t.name, Line: pe.Line, Field: "row", Err: pe.Err}
			}
			return nil, fmt.Errorf("read %s: %w", t.name, err)
		}
		t.line, _ = t.r.FieldPos(0)

		if !t.headerRead {
			t.headerRead = true
			continue
		}
		return rec, nil
	}
}

func (t *table) fieldErr(field, value string, err error) error {
	return &errs.FieldError{Source: t.name, Line: t.line, Field: field, Value: value, Err: err}
}

func (t *table) require(rec []string, n int, what string) error {
	if len(rec) < n {
		return t.fieldErr(what, strings.Join(rec, ","), fmt.Errorf("expected at least %d columns, got %d", n, len(rec)))
	}
	return nil
}

func (t *table) int(rec []string, i int, field string) (int, error) {
	s := strings.TrimSpace(rec[i])
	v, err := strconv.Atoi(s)
	if err != nil {
		// trees exported through float columns write ids as "3.0"
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, t.fieldErr(field, rec[i], err)
		}
		v = int(f)
	}
	return v, nil
}

func (t *table) float(rec []string, i int, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil {
		return 0, t.fieldErr(field, rec[i], err)
	}
	return v, nil
}

func (t *table) floats(rec []string, field string) ([]float64, error) {
	out := make([]float64, len(rec))
	for i := range rec {
		v, err := t.float(rec, i, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func label(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// openTable opens path for a table reader, mapping a missing file to ErrNotFound
func openTable(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, path)
		}
		return nil, err
	}
	return f, nil
}

// tableFiles lists regular, non-hidden files of dir with the given extension
// (any extension when ext is empty) in alphabetical order
func tableFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, dir)
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no parameter tables in %s", errs.ErrNotFound, dir)
	}
	return paths, nil
}
