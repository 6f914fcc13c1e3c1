package models

import (
	"context"
	"sort"

	"github.com/RyanBlaney/sonido-genre/algorithms/common"
)

// Majority returns the most frequent label. The tally is walked in ascending
// label order and the first label reaching the maximum count wins, so a tie
// always resolves to the lexicographically smallest label.
func Majority(votes []string) string {
	if len(votes) == 0 {
		return ""
	}

	tally := make(map[string]int, len(votes))
	for _, v := range votes {
		tally[v]++
	}

	labels := make([]string, 0, len(tally))
	for l := range tally {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	best := labels[0]
	for _, l := range labels[1:] {
		if tally[l] > tally[best] {
			best = l
		}
	}
	return best
}

// ensemble holds the member fan-out shared by the forest and the SVM
type ensemble struct {
	workers int
}

// SetWorkers bounds concurrent member predictions; 1 or less runs sequentially
func (e *ensemble) SetWorkers(n int) {
	e.workers = n
}

// vote collects one prediction per member and returns the majority label
func vote[M Model](e *ensemble, members []M, features []float64) (string, error) {
	if e.workers <= 1 {
		votes := make([]string, len(members))
		for i, m := range members {
			v, err := m.Predict(features)
			if err != nil {
				return "", err
			}
			votes[i] = v
		}
		return Majority(votes), nil
	}

	votes, err := common.Map(context.Background(), members, e.workers, func(_ context.Context, m M) (string, error) {
		return m.Predict(features)
	})
	if err != nil {
		return "", err
	}
	return Majority(votes), nil
}
