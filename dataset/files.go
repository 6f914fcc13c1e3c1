package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RyanBlaney/sonido-genre/errs"
)

// ListFiles returns the regular files of dir, sorted by name. When ext is not
// empty only files with that extension (case-insensitive) are listed.
func ListFiles(dir, ext string) ([]string, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// ListDirs returns the subdirectories of dir, sorted by name
func ListDirs(dir string) ([]string, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s", errs.ErrNotFound, dir)
		}
		return nil, err
	}
	// os.ReadDir already sorts by file name
	return entries, nil
}

// SplitTrainTest draws floor(len(paths)·(1−testRatio)) training paths at
// random. Training paths come back sorted; test paths keep input order.
func SplitTrainTest(paths []string, testRatio float64, rng *rand.Rand) (train, test []string, err error) {
	if testRatio < 0 || testRatio > 1 || math.IsNaN(testRatio) {
		return nil, nil, fmt.Errorf("test ratio must be within [0, 1], got %v", testRatio)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	n := int(math.Floor(float64(len(paths)) * (1 - testRatio)))
	picked := make(map[int]bool, n)
	for _, i := range rng.Perm(len(paths))[:n] {
		picked[i] = true
	}

	for i, p := range paths {
		if picked[i] {
			train = append(train, p)
		} else {
			test = append(test, p)
		}
	}
	sort.Strings(train)
	return train, test, nil
}

// SplitDirs lists the files with ext of every subdirectory of root and
// splits each directory separately, so every class keeps its share in both
// sets
func SplitDirs(root, ext string, testRatio float64, rng *rand.Rand) (train, test []string, err error) {
	dirs, err := ListDirs(root)
	if err != nil {
		return nil, nil, err
	}
	for _, d := range dirs {
		files, err := ListFiles(d, ext)
		if err != nil {
			return nil, nil, err
		}
		tr, te, err := SplitTrainTest(files, testRatio, rng)
		if err != nil {
			return nil, nil, err
		}
		train = append(train, tr...)
		test = append(test, te...)
	}
	return train, test, nil
}
