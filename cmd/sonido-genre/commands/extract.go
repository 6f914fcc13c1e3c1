package commands

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-genre/dataset"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

var (
	extractOutput    string
	extractAlgorithm string
	extractTestRatio float64
	extractSeed      uint64
	extractNoCache   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <corpus-dir>",
	Short: "Extract a feature table from a corpus of .au files",
	Long: `Extract one feature vector per .au file and write them as a CSV table.

The corpus is either a directory with one subdirectory per genre or a flat
directory of files. Labels come from the file names ("blues.00012.au" is
labelled "blues"). Files that fail to decode are logged and skipped.

With --test-ratio the files of every genre directory are split at random
and two tables are written: <output>_train.csv and <output>_test.csv.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	extractor, err := newExtractor(extractAlgorithm)
	if err != nil {
		return err
	}
	store, closeCache, err := openCache(extractor.Config(), extractNoCache)
	if err != nil {
		return err
	}
	defer closeCache()

	paths, err := corpusFiles(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no %s files under %s", transcode.Extension, args[0])
	}

	res := dataset.ExtractAll(cmd.Context(), extractor, paths, dataset.ExtractOptions{
		Workers: appConfig.Workers,
		Cache:   store,
		Logger:  logging.GetGlobalLogger(),
	})
	if len(res.Failed) > 0 {
		logger.Warn("some files were not processed", logging.Fields{"failed": len(res.Failed)})
	}

	output := extractOutput
	if output == "" {
		output = fmt.Sprintf("features_%s.csv", extractor.Algorithm())
	}

	if extractTestRatio <= 0 {
		return writeTable(output, extractor.Header(), res.Vectors)
	}

	rng := rand.New(rand.NewPCG(extractSeed, extractSeed^0x9e3779b97f4a7c15))
	train, test, err := dataset.SplitDirs(args[0], transcode.Extension, extractTestRatio, rng)
	if err != nil {
		return err
	}
	if len(train)+len(test) == 0 {
		// flat corpus
		if train, test, err = dataset.SplitTrainTest(paths, extractTestRatio, rng); err != nil {
			return err
		}
	}

	byPath := make(map[string]*features.Vector, len(res.Vectors))
	for _, v := range res.Vectors {
		byPath[v.Path] = v
	}
	pick := func(paths []string) []*features.Vector {
		out := make([]*features.Vector, 0, len(paths))
		for _, p := range paths {
			if v, ok := byPath[p]; ok {
				out = append(out, v)
			}
		}
		return out
	}

	base := strings.TrimSuffix(output, filepath.Ext(output))
	if err := writeTable(base+"_train.csv", extractor.Header(), pick(train)); err != nil {
		return err
	}
	return writeTable(base+"_test.csv", extractor.Header(), pick(test))
}

// corpusFiles lists the .au files of every genre directory under root, or of
// root itself when it has no subdirectories
func corpusFiles(root string) ([]string, error) {
	dirs, err := dataset.ListDirs(root)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return dataset.ListFiles(root, transcode.Extension)
	}

	var paths []string
	for _, d := range dirs {
		files, err := dataset.ListFiles(d, transcode.Extension)
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

func writeTable(path string, header []string, vectors []*features.Vector) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w, err := dataset.NewWriter(f, header)
	if err != nil {
		return err
	}
	for _, v := range vectors {
		if err := w.Write(v); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	abs, _ := filepath.Abs(path)
	logger.Info("feature table written", logging.Fields{"path": abs, "rows": w.Rows()})
	return nil
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output CSV path (default features_<algorithm>.csv)")
	extractCmd.Flags().StringVarP(&extractAlgorithm, "algorithm", "a", "", "feature algorithm: stft or mfcc (default from config)")
	extractCmd.Flags().Float64Var(&extractTestRatio, "test-ratio", 0, "fraction of each genre held out into a test table")
	extractCmd.Flags().Uint64Var(&extractSeed, "seed", 1, "random seed for the train/test split")
	extractCmd.Flags().BoolVar(&extractNoCache, "no-cache", false, "do not read or write the feature cache")

	rootCmd.AddCommand(extractCmd)
}
