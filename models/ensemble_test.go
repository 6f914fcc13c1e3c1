package models_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-genre/errs"
	"github.com/RyanBlaney/sonido-genre/models"
)

func TestMajority(t *testing.T) {
	cases := []struct {
		votes []string
		want  string
	}{
		{[]string{"cat", "dog", "cat"}, "cat"},
		{[]string{"rock", "jazz"}, "jazz"},
		{[]string{"pop", "blues", "pop", "blues", "metal"}, "blues"},
		{[]string{"solo"}, "solo"},
		{nil, ""},
	}
	for _, c := range cases {
		if got := models.Majority(c.votes); got != c.want {
			t.Errorf("Majority(%v) = %q, want %q", c.votes, got, c.want)
		}
	}
}

// leaf returns a single-node tree that always predicts class
func leaf(t *testing.T, class string) *models.DecisionTree {
	t.Helper()
	tree := models.NewDecisionTree()
	if err := tree.InsertNode(0, models.TreeNode{FeatureID: -2, Left: models.NoChild, Right: models.NoChild, Class: class}); err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestRandomForestPredict(t *testing.T) {
	forest := models.NewRandomForest(leaf(t, "jazz"), leaf(t, "rock"), leaf(t, "jazz"))
	for _, workers := range []int{1, 4} {
		forest.SetWorkers(workers)
		got, err := forest.Predict([]float64{0})
		if err != nil || got != "jazz" {
			t.Fatalf("workers=%d: Predict = %q, %v", workers, got, err)
		}
	}

	forest.Push(leaf(t, "rock"))
	forest.Push(leaf(t, "rock"))
	if got, _ := forest.Predict([]float64{0}); got != "rock" {
		t.Fatalf("after push: %q, want rock", got)
	}
	if popped := forest.Pop(); popped == nil || forest.Len() != 4 {
		t.Fatalf("Pop: %v, len=%d", popped, forest.Len())
	}
	// two jazz and two rock now
	if got, _ := forest.Predict([]float64{0}); got != "jazz" {
		t.Fatalf("tie: %q, want jazz", got)
	}

	forest.Clear()
	if forest.Pop() != nil {
		t.Fatal("Pop on an empty forest returned a tree")
	}
	if _, err := forest.Predict([]float64{0}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("empty forest: %v", err)
	}
}

func TestLoadRandomForest(t *testing.T) {
	dir := t.TempDir()
	if _, err := models.LoadRandomForest(dir); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("empty dir: %v", err)
	}

	single := "node_id,threshold,feature_id,left_id,right_id,class\n0,0,-2,-1,-1,%s\n"
	writeFile(t, filepath.Join(dir, "b_tree.csv"), strings.Replace(single, "%s", "rock", 1))
	writeFile(t, filepath.Join(dir, "a_tree.csv"), stumpTable)
	writeFile(t, filepath.Join(dir, "c_tree.csv"), strings.Replace(single, "%s", "B", 1))
	writeFile(t, filepath.Join(dir, ".hidden"), "garbage")

	forest, err := models.LoadRandomForest(dir)
	if err != nil {
		t.Fatalf("LoadRandomForest: %v", err)
	}
	if forest.Len() != 3 {
		t.Fatalf("Len = %d, want 3", forest.Len())
	}
	// alphabetical: the stump comes first
	if forest.Trees()[0].Len() != 3 {
		t.Fatalf("first tree has %d nodes, want the stump", forest.Trees()[0].Len())
	}
	got, err := forest.Predict([]float64{9})
	if err != nil || got != "B" {
		t.Fatalf("Predict = %q, %v", got, err)
	}
	if !strings.HasPrefix(forest.String(), "RandomForest(3 trees)") {
		t.Fatalf("String = %q", forest.String())
	}

	writeFile(t, filepath.Join(dir, "d_tree.csv"), "node_id\n0,x,0,1,2\n")
	if _, err := models.LoadRandomForest(dir); !errors.Is(err, errs.ErrFormat) {
		t.Fatalf("malformed tree: %v", err)
	}
}

func TestLinearClassifier(t *testing.T) {
	c := &models.LinearClassifier{Lower: "low", Upper: "high", Intercept: 0, Coefficients: []float64{1, -1}}

	got, err := c.Predict([]float64{3, 1})
	if err != nil || got != "low" {
		t.Fatalf("Predict([3 1]) = %q, %v", got, err)
	}
	if got, _ := c.Predict([]float64{1, 1}); got != "high" {
		t.Fatalf("zero score picked %q, want high", got)
	}
	if _, err := c.Predict([]float64{1}); !errors.Is(err, errs.ErrSizeMismatch) {
		t.Fatalf("short vector: %v", err)
	}
}

const svmTable = `lower,upper,intercept,w0,w1
"blues","jazz",0,1,-1
"blues","rock",0.5,1,0
"jazz","rock",-1,0,1
`

func TestOneVsOneSVM(t *testing.T) {
	svm, err := models.LoadOneVsOneSVM(strings.NewReader(svmTable), "svm.csv")
	if err != nil {
		t.Fatalf("LoadOneVsOneSVM: %v", err)
	}
	if n := len(svm.Classifiers()); n != 3 {
		t.Fatalf("%d classifiers, want 3", n)
	}
	classes := svm.Classes()
	if strings.Join(classes, ",") != "blues,jazz,rock" {
		t.Fatalf("Classes = %v", classes)
	}

	// scores: 2 -> blues, 2.5 -> blues, -1 -> rock
	for _, workers := range []int{1, 3} {
		svm.SetWorkers(workers)
		got, err := svm.Predict([]float64{2, 0})
		if err != nil || got != "blues" {
			t.Fatalf("workers=%d: Predict = %q, %v", workers, got, err)
		}
	}

	ragged := svmTable + "\"pop\",\"rock\",0,1\n"
	if _, err := models.LoadOneVsOneSVM(strings.NewReader(ragged), "ragged.csv"); !errors.Is(err, errs.ErrSizeMismatch) {
		t.Fatalf("ragged coefficients: %v", err)
	}
	short := "h\n\"a\",\"b\",1\n"
	if _, err := models.LoadOneVsOneSVM(strings.NewReader(short), "short.csv"); !errors.Is(err, errs.ErrFormat) {
		t.Fatalf("short row: %v", err)
	}
	if _, err := models.NewOneVsOneSVM().Predict([]float64{1}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("empty svm: %v", err)
	}
}

func TestPredictAll(t *testing.T) {
	tree := stump(t)
	vectors := [][]float64{{1}, {9}, {5}, {6}, {0}}
	got, err := models.PredictAll(context.Background(), tree, vectors, 3)
	if err != nil {
		t.Fatalf("PredictAll: %v", err)
	}
	want := []string{"A", "B", "A", "B", "A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PredictAll = %v, want %v", got, want)
		}
	}

	vectors = append(vectors, nil)
	if _, err := models.PredictAll(context.Background(), tree, vectors, 2); !errors.Is(err, errs.ErrSizeMismatch) {
		t.Fatalf("batch with a short vector: %v", err)
	}
}

func TestParseKindAndLoad(t *testing.T) {
	for in, want := range map[string]models.Kind{
		"rf":            models.KindRandomForest,
		"Decision-Tree": models.KindDecisionTree,
		"svm":           models.KindOneVsOneSVM,
		"mlp":           models.KindNeuralNetwork,
	} {
		got, err := models.ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := models.ParseKind("knn"); !errors.Is(err, errs.ErrUnsupported) {
		t.Fatalf("ParseKind(knn): %v", err)
	}
	if len(models.Kinds()) != 4 {
		t.Fatalf("Kinds = %v", models.Kinds())
	}

	path := filepath.Join(t.TempDir(), "svm.csv")
	writeFile(t, path, svmTable)
	m, err := models.Load(models.KindOneVsOneSVM, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := m.(*models.OneVsOneSVM); !ok {
		t.Fatalf("Load returned %T", m)
	}
	if _, err := models.Load(models.Kind("knn"), path); !errors.Is(err, errs.ErrUnsupported) {
		t.Fatalf("Load(knn): %v", err)
	}
}
