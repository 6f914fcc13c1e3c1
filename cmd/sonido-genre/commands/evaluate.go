package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-genre/dataset"
	"github.com/RyanBlaney/sonido-genre/logging"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <features.csv>",
	Short: "Score a model against a feature table",
	Long: `Predict every row of a feature table written by "extract" and report the
accuracy together with a confusion matrix (rows are true genres, columns
are predictions).`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := extractionConfig(modelAlgorithm)
	if err != nil {
		return err
	}
	model, kind, err := loadModel(modelKind, modelPath)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	vectors, err := dataset.ReadVectors(f, cfg.Dimension())
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	logger.Info("feature table loaded", logging.Fields{"path": args[0], "vectors": len(vectors), "dimension": cfg.Dimension()})

	preds, err := dataset.PredictVectors(cmd.Context(), model, vectors, appConfig.Workers)
	if err != nil {
		return err
	}

	report := dataset.Evaluate(preds)
	fmt.Fprintf(cmd.OutOrStdout(), "%s model, %s features\n", kind, cfg.Algorithm)
	fmt.Fprint(cmd.OutOrStdout(), report.Render())
	return nil
}

func init() {
	addModelFlags(evaluateCmd)

	rootCmd.AddCommand(evaluateCmd)
}
