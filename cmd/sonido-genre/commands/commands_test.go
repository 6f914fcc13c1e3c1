package commands

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, logLevel = "", ""
	extractOutput, extractAlgorithm, extractTestRatio, extractNoCache = "", "", 0, false
	modelKind, modelPath, modelAlgorithm = "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

// writeCorpus creates root/<genre>/<genre>.0000N.au tones
func writeCorpus(t *testing.T, root string, genres ...string) []string {
	t.Helper()
	var paths []string
	for g, genre := range genres {
		dir := filepath.Join(root, genre)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		for i := range 2 {
			var buf bytes.Buffer
			n := 2048
			binary.Write(&buf, binary.BigEndian, []uint32{0x2e736e64, 24, uint32(n * 2), 3, 22050, 1})
			pcm := make([]int16, n)
			for k := range pcm {
				pcm[k] = int16(800 * math.Sin(2*math.Pi*float64(4*(g+1)+i)*float64(k)/512))
			}
			binary.Write(&buf, binary.BigEndian, pcm)

			p := filepath.Join(dir, fmt.Sprintf("%s.%05d.au", genre, i))
			if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
				t.Fatal(err)
			}
			paths = append(paths, p)
		}
	}
	return paths
}

func TestExtractEvaluateClassify(t *testing.T) {
	dir := t.TempDir()
	paths := writeCorpus(t, filepath.Join(dir, "genres"), "blues", "rock")
	table := filepath.Join(dir, "features.csv")

	if _, err := runCmd(t, "extract", filepath.Join(dir, "genres"), "-o", table, "--no-cache"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	data, err := os.ReadFile(table)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 || !strings.HasPrefix(lines[0], "BIN_AVG0,") || !strings.HasSuffix(lines[0], ",style,file_name") {
		t.Fatalf("table has %d lines, header %.40q", len(lines), lines[0])
	}

	tree := filepath.Join(dir, "tree.csv")
	if err := os.WriteFile(tree, []byte("node_id,threshold,feature_id,left_id,right_id,class\n0,0,-2,-1,-1,\"blues\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "evaluate", "-k", "tree", "-m", tree, table)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !strings.Contains(out, "Accuracy: 50.00% (2/4)") {
		t.Fatalf("evaluate output: %s", out)
	}

	out, err = runCmd(t, "classify", "-k", "tree", "-m", tree, paths[2])
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if out != paths[2]+"\tblues\n" {
		t.Fatalf("classify output: %q", out)
	}

	out, err = runCmd(t, "inspect", "audio", paths[0])
	if err != nil || !strings.Contains(out, "samples: 2048") {
		t.Fatalf("inspect audio: %q, %v", out, err)
	}
}

func TestExtractSplit(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, filepath.Join(dir, "genres"), "jazz", "pop")
	out := filepath.Join(dir, "features.csv")

	if _, err := runCmd(t, "extract", filepath.Join(dir, "genres"), "-o", out, "--test-ratio", "0.5", "--no-cache"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, name := range []string{"features_train.csv", "features_test.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if rows := strings.Count(string(data), "\n") - 1; rows != 2 {
			t.Fatalf("%s has %d rows, want 2", name, rows)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	if _, err := runCmd(t, "evaluate", "-k", "knn", "-m", "x", "y.csv"); err == nil {
		t.Fatal("unknown model kind accepted")
	}
	if _, err := runCmd(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "inspect", "audio", "x.au"); err == nil {
		t.Fatal("missing config file accepted")
	}
}

func TestLogsGoToCommandOutput(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, filepath.Join(dir, "genres"), "blues")
	table := filepath.Join(dir, "features.csv")

	out, err := runCmd(t, "--log-level", "info", "extract", filepath.Join(dir, "genres"), "-o", table, "--no-cache")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(out, "[INFO] feature table written") || !strings.Contains(out, "rows=2") {
		t.Fatalf("command output = %q", out)
	}
}
