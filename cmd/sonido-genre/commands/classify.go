package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-genre/dataset"
	"github.com/RyanBlaney/sonido-genre/logging"
)

var (
	modelKind       string
	modelPath       string
	modelAlgorithm  string
	classifyNoCache bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file.au>...",
	Short: "Predict the genre of .au files",
	Long: `Extract features from each file and print the model's prediction.

The extraction algorithm must match the one the model was trained on.
Output is one line per file: the path, a tab, and the predicted genre.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	model, _, err := loadModel(modelKind, modelPath)
	if err != nil {
		return err
	}
	extractor, err := newExtractor(modelAlgorithm)
	if err != nil {
		return err
	}
	store, closeCache, err := openCache(extractor.Config(), classifyNoCache)
	if err != nil {
		return err
	}
	defer closeCache()

	res := dataset.ExtractAll(cmd.Context(), extractor, args, dataset.ExtractOptions{
		Workers: appConfig.Workers,
		Cache:   store,
		Logger:  logging.GetGlobalLogger(),
	})

	preds, err := dataset.PredictVectors(cmd.Context(), model, res.Vectors, appConfig.Workers)
	if err != nil {
		return err
	}
	for i, p := range preds {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", res.Vectors[i].Path, p.Predicted)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d files could not be classified", len(res.Failed), len(args))
	}
	return nil
}

// addModelFlags registers the model selection flags shared by classify and evaluate
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&modelKind, "model-kind", "k", "", "model kind: decision-tree, random-forest, svm or ann (default from config)")
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "model table file, or directory for forests and networks")
	cmd.Flags().StringVarP(&modelAlgorithm, "algorithm", "a", "", "feature algorithm the model was trained on: stft or mfcc")
}

func init() {
	addModelFlags(classifyCmd)
	classifyCmd.Flags().BoolVar(&classifyNoCache, "no-cache", false, "do not read or write the feature cache")

	rootCmd.AddCommand(classifyCmd)
}
