package dataset_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/RyanBlaney/sonido-genre/cache"
	"github.com/RyanBlaney/sonido-genre/dataset"
	"github.com/RyanBlaney/sonido-genre/errs"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/models"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeAU writes a mono PCM16 tone of n samples
func writeAU(t *testing.T, path string, n int, cycles float64) {
	t.Helper()
	var buf bytes.Buffer
	header := []uint32{0x2e736e64, 24, uint32(n * 2), 3, 22050, 1}
	if err := binary.Write(&buf, binary.BigEndian, header); err != nil {
		t.Fatal(err)
	}
	pcm := make([]int16, n)
	for i := range pcm {
		pcm[i] = int16(1000 * math.Sin(2*math.Pi*cycles*float64(i)/512))
	}
	if err := binary.Write(&buf, binary.BigEndian, pcm); err != nil {
		t.Fatal(err)
	}
	writeFile(t, path, buf.Bytes())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterReportsWriteErrors(t *testing.T) {
	const dim = 600
	header := make([]string, 0, dim+2)
	for range dim {
		header = append(header, "v")
	}
	header = append(header, "style", "file_name")

	w, err := dataset.NewWriter(failingWriter{}, header)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	// one row overflows the buffer and reaches the failing writer
	err = w.Write(&features.Vector{Label: "rock", Path: "rock.00001.au", Values: make([]float64, dim)})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Write: %v", err)
	}
	if w.Rows() != 0 {
		t.Fatalf("Rows = %d after a failed write", w.Rows())
	}
}

func TestWriterAndReadVectors(t *testing.T) {
	cfg := features.DefaultConfig()
	cfg.FrameSize = 4
	header := cfg.Header()

	var buf bytes.Buffer
	w, err := dataset.NewWriter(&buf, header)
	if err != nil {
		t.Fatal(err)
	}
	rows := []*features.Vector{
		{Label: "blues", Path: "genres/blues/blues.00001.au", Values: []float64{1, 2.5, -0.125, 0}},
		{Label: `odd"name`, Path: "x.au", Values: []float64{0, 0, 0, 1}},
	}
	for _, v := range rows {
		if err := w.Write(v); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Write(&features.Vector{Values: []float64{1}}); !errors.Is(err, errs.ErrSizeMismatch) {
		t.Fatalf("short vector: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if w.Rows() != 2 {
		t.Fatalf("Rows = %d", w.Rows())
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "BIN_AVG0,BIN_AVG1,BIN_STDEV0,BIN_STDEV1,style,file_name" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != `1.000000,2.500000,-0.125000,0.000000,"blues","genres/blues/blues.00001.au"` {
		t.Fatalf("row = %q", lines[1])
	}
	if !strings.Contains(lines[2], `"odd""name"`) {
		t.Fatalf("escaped row = %q", lines[2])
	}

	got, err := dataset.ReadVectors(strings.NewReader(buf.String()), 4)
	if err != nil {
		t.Fatalf("ReadVectors: %v", err)
	}
	if len(got) != 2 || got[0].Label != "blues" || got[0].Values[1] != 2.5 || got[0].Path != rows[0].Path {
		t.Fatalf("ReadVectors = %+v", got[0])
	}
	if got[1].Label != `odd"name` {
		t.Fatalf("label = %q", got[1].Label)
	}

	short := "h\n1,2,\"x\"\n"
	_, err = dataset.ReadVectors(strings.NewReader(short), 4)
	var fe *errs.FieldError
	if !errors.As(err, &fe) || !errors.Is(err, errs.ErrFormat) || fe.Line != 2 {
		t.Fatalf("short row: %v", err)
	}
	if _, err := dataset.ReadVectors(strings.NewReader("h\n1,x,\"a\"\n"), 2); !errors.Is(err, errs.ErrFormat) {
		t.Fatalf("bad value: %v", err)
	}
}

func TestListingAndSplit(t *testing.T) {
	root := t.TempDir()
	for _, g := range []string{"rock", "blues"} {
		for i := range 4 {
			writeFile(t, filepath.Join(root, g, fmt.Sprintf("%s.%05d.au", g, i)), []byte("x"))
		}
		writeFile(t, filepath.Join(root, g, "notes.txt"), []byte("x"))
	}

	dirs, err := dataset.ListDirs(root)
	if err != nil || len(dirs) != 2 || filepath.Base(dirs[0]) != "blues" {
		t.Fatalf("ListDirs = %v, %v", dirs, err)
	}
	files, err := dataset.ListFiles(dirs[1], ".au")
	if err != nil || len(files) != 4 || filepath.Base(files[0]) != "rock.00000.au" {
		t.Fatalf("ListFiles = %v, %v", files, err)
	}
	if all, _ := dataset.ListFiles(dirs[1], ""); len(all) != 5 {
		t.Fatalf("unfiltered listing has %d files", len(all))
	}
	if _, err := dataset.ListFiles(filepath.Join(root, "jazz"), ".au"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing dir: %v", err)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	train, test, err := dataset.SplitTrainTest(files, 0.25, rng)
	if err != nil {
		t.Fatal(err)
	}
	if len(train) != 3 || len(test) != 1 {
		t.Fatalf("split = %d/%d", len(train), len(test))
	}
	seen := map[string]bool{test[0]: true}
	for _, p := range train {
		if seen[p] {
			t.Fatalf("%s in both sets", p)
		}
		seen[p] = true
	}
	if len(seen) != 4 {
		t.Fatalf("split lost files: %v", seen)
	}

	if _, _, err := dataset.SplitTrainTest(files, 1.5, rng); err == nil {
		t.Fatal("ratio above 1 accepted")
	}

	train, test, err = dataset.SplitDirs(root, ".au", 0.5, rng)
	if err != nil || len(train) != 4 || len(test) != 4 {
		t.Fatalf("SplitDirs = %d/%d, %v", len(train), len(test), err)
	}
}

// countingExtractor fails on paths containing "bad"
type countingExtractor struct {
	calls atomic.Int32
}

func (c *countingExtractor) ExtractFile(path string) (*features.Vector, error) {
	c.calls.Add(1)
	if strings.Contains(path, "bad") {
		return nil, fmt.Errorf("%w: %s", errs.ErrFormat, path)
	}
	return &features.Vector{Label: features.LabelFromPath(path), Path: path, Values: []float64{float64(len(path))}}, nil
}

func TestExtractAllSkipsFailuresAndKeepsOrder(t *testing.T) {
	paths := []string{"a/rock.1.au", "a/bad.2.au", "a/jazz.3.au", "a/pop.4.au"}
	ex := &countingExtractor{}

	res := dataset.ExtractAll(context.Background(), ex, paths, dataset.ExtractOptions{Workers: 3, Logger: &logging.NoOpLogger{}})
	if len(res.Vectors) != 3 || len(res.Failed) != 1 || res.Failed[0] != "a/bad.2.au" {
		t.Fatalf("result = %+v", res)
	}
	for i, want := range []string{"rock", "jazz", "pop"} {
		if res.Vectors[i].Label != want {
			t.Fatalf("vector %d label = %q, want %q", i, res.Vectors[i].Label, want)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = dataset.ExtractAll(ctx, ex, paths, dataset.ExtractOptions{Logger: &logging.NoOpLogger{}})
	if len(res.Vectors) != 0 || len(res.Failed) != len(paths) {
		t.Fatalf("cancelled batch = %+v", res)
	}
}

func TestExtractAllUsesCache(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "blues.00000.au"), filepath.Join(dir, "rock.00000.au")}
	writeAU(t, paths[0], 2048, 4)
	writeAU(t, paths[1], 2048, 32)

	store, err := cache.Open(cache.Options{InMemory: true, Logger: &logging.NoOpLogger{}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := features.DefaultConfig()
	bucket, err := store.Bucket(*cfg)
	if err != nil {
		t.Fatal(err)
	}
	extractor, err := features.NewExtractor(cfg, nil, &logging.NoOpLogger{})
	if err != nil {
		t.Fatal(err)
	}

	opts := dataset.ExtractOptions{Workers: 2, Cache: bucket, Logger: &logging.NoOpLogger{}}
	first := dataset.ExtractAll(context.Background(), extractor, paths, opts)
	if len(first.Vectors) != 2 || first.CacheHits != 0 {
		t.Fatalf("first pass = %+v", first)
	}
	second := dataset.ExtractAll(context.Background(), extractor, paths, opts)
	if second.CacheHits != 2 {
		t.Fatalf("second pass cache hits = %d", second.CacheHits)
	}
	for i := range paths {
		a, b := first.Vectors[i].Values, second.Vectors[i].Values
		if len(a) != 512 || len(b) != 512 {
			t.Fatalf("dimensions %d/%d", len(a), len(b))
		}
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("cached value %d differs: %v vs %v", j, a[j], b[j])
			}
		}
	}
}

func TestEvaluateAndPredictVectors(t *testing.T) {
	tree := models.NewDecisionTree()
	_ = tree.InsertNode(0, models.TreeNode{Threshold: 0, FeatureID: 0, Left: 1, Right: 2})
	_ = tree.InsertNode(1, models.TreeNode{FeatureID: -2, Left: models.NoChild, Right: models.NoChild, Class: "blues"})
	_ = tree.InsertNode(2, models.TreeNode{FeatureID: -2, Left: models.NoChild, Right: models.NoChild, Class: "rock"})

	vectors := []*features.Vector{
		{Label: "blues", Values: []float64{-1}},
		{Label: "blues", Values: []float64{1}},
		{Label: "rock", Values: []float64{2}},
		{Label: "jazz", Values: []float64{-3}},
	}
	ctx := logging.NewContext(context.Background(), &logging.NoOpLogger{})
	preds, err := dataset.PredictVectors(ctx, tree, vectors, 2)
	if err != nil {
		t.Fatalf("PredictVectors: %v", err)
	}
	want := []dataset.Prediction{
		{Truth: "blues", Predicted: "blues"},
		{Truth: "blues", Predicted: "rock"},
		{Truth: "rock", Predicted: "rock"},
		{Truth: "jazz", Predicted: "blues"},
	}
	for i := range want {
		if preds[i] != want[i] {
			t.Fatalf("prediction %d = %+v, want %+v", i, preds[i], want[i])
		}
	}

	r := dataset.Evaluate(preds)
	if r.Total != 4 || r.Correct != 2 || r.Accuracy() != 0.5 {
		t.Fatalf("report = %+v", r)
	}
	if strings.Join(r.Labels, ",") != "blues,jazz,rock" {
		t.Fatalf("labels = %v", r.Labels)
	}
	// rows are truth, columns predictions
	if r.Confusion[0][0] != 1 || r.Confusion[0][2] != 1 || r.Confusion[1][0] != 1 || r.Confusion[2][2] != 1 {
		t.Fatalf("confusion = %v", r.Confusion)
	}

	out := r.Render()
	if !strings.Contains(out, "Accuracy: 50.00% (2/4)") || !strings.Contains(out, "jazz") {
		t.Fatalf("Render = %q", out)
	}
	if dataset.Evaluate(nil).Accuracy() != 0 {
		t.Fatal("empty report accuracy")
	}

	vectors = append(vectors, &features.Vector{Label: "x"})
	if _, err := dataset.PredictVectors(ctx, tree, vectors, 2); !errors.Is(err, errs.ErrSizeMismatch) {
		t.Fatalf("short vector: %v", err)
	}
}
