// Package models loads pre-trained classifiers from parameter tables and runs
// inference. The set of engines is closed: decision tree, random forest,
// one-vs-one linear SVM and feed-forward network.
package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-genre/algorithms/common"
	"github.com/RyanBlaney/sonido-genre/errs"
)

// Model predicts a class label for one feature vector. Implementations are
// read-only after loading and safe for concurrent use.
type Model interface {
	Predict(features []float64) (string, error)
}

// Kind names one of the inference engines
type Kind string

const (
	KindDecisionTree  Kind = "decision-tree"
	KindRandomForest  Kind = "random-forest"
	KindOneVsOneSVM   Kind = "svm"
	KindNeuralNetwork Kind = "ann"
)

// Kinds lists every engine in a stable order
func Kinds() []Kind {
	return []Kind{KindDecisionTree, KindRandomForest, KindOneVsOneSVM, KindNeuralNetwork}
}

// ParseKind maps a name (a few aliases accepted) to a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "decision-tree", "decision_tree", "tree", "dt":
		return KindDecisionTree, nil
	case "random-forest", "random_forest", "forest", "rf":
		return KindRandomForest, nil
	case "svm", "one-vs-one-svm", "ovo":
		return KindOneVsOneSVM, nil
	case "ann", "network", "nn", "mlp":
		return KindNeuralNetwork, nil
	default:
		return "", fmt.Errorf("%w: model kind %q", errs.ErrUnsupported, s)
	}
}

// Load reads a model of the given kind. Trees and SVMs load from a single
// table file; forests and networks load from a directory of tables.
func Load(kind Kind, path string) (Model, error) {
	switch kind {
	case KindDecisionTree:
		return LoadDecisionTreeFile(path)
	case KindRandomForest:
		return LoadRandomForest(path)
	case KindOneVsOneSVM:
		return LoadOneVsOneSVMFile(path)
	case KindNeuralNetwork:
		return LoadNetwork(path)
	default:
		return nil, fmt.Errorf("%w: model kind %q", errs.ErrUnsupported, kind)
	}
}

// PredictAll predicts every vector with at most workers concurrent calls.
// Results keep input order; the first failure aborts the batch.
func PredictAll(ctx context.Context, m Model, vectors [][]float64, workers int) ([]string, error) {
	return common.Map(ctx, vectors, workers, func(_ context.Context, v []float64) (string, error) {
		return m.Predict(v)
	})
}
