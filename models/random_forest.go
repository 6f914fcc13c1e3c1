package models

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-genre/errs"
)

// RandomForest votes over independently loaded decision trees
type RandomForest struct {
	ensemble
	trees []*DecisionTree
}

// NewRandomForest creates a forest from trees
func NewRandomForest(trees ...*DecisionTree) *RandomForest {
	return &RandomForest{trees: trees}
}

// LoadRandomForest loads one tree per regular file of dir, in alphabetical order
func LoadRandomForest(dir string) (*RandomForest, error) {
	paths, err := tableFiles(dir, "")
	if err != nil {
		return nil, err
	}

	forest := &RandomForest{trees: make([]*DecisionTree, 0, len(paths))}
	for _, p := range paths {
		tree, err := LoadDecisionTreeFile(p)
		if err != nil {
			return nil, fmt.Errorf("load forest tree: %w", err)
		}
		forest.trees = append(forest.trees, tree)
	}
	return forest, nil
}

// Push appends a tree
func (f *RandomForest) Push(tree *DecisionTree) {
	f.trees = append(f.trees, tree)
}

// Pop removes and returns the last tree, or nil when the forest is empty
func (f *RandomForest) Pop() *DecisionTree {
	if len(f.trees) == 0 {
		return nil
	}
	last := f.trees[len(f.trees)-1]
	f.trees = f.trees[:len(f.trees)-1]
	return last
}

// Clear removes every tree
func (f *RandomForest) Clear() {
	f.trees = nil
}

// Len returns the number of trees
func (f *RandomForest) Len() int {
	return len(f.trees)
}

// Trees returns the trees in load order
func (f *RandomForest) Trees() []*DecisionTree {
	return f.trees
}

// Predict returns the majority vote of all trees
func (f *RandomForest) Predict(features []float64) (string, error) {
	if len(f.trees) == 0 {
		return "", fmt.Errorf("%w: forest has no trees", errs.ErrNotFound)
	}
	return vote(&f.ensemble, f.trees, features)
}

func (f *RandomForest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "RandomForest(%d trees)", len(f.trees))
	for i, t := range f.trees {
		fmt.Fprintf(&b, "\n  tree %d: depth=%d nodes=%d", i, t.Depth(), t.Len())
	}
	return b.String()
}
