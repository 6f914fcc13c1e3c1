package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-genre/cache"
	"github.com/RyanBlaney/sonido-genre/config"
	"github.com/RyanBlaney/sonido-genre/dataset"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/models"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

var (
	// Global flags
	configPath string
	logLevel   string

	// Loaded before any subcommand runs
	appConfig *config.Config
	logger    logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sonido-genre",
	Short: "Music genre classification for .au audio",
	Long: `sonido-genre - feature extraction and genre classification for Sun .au files.

Audio is reduced to a fixed-length vector (STFT bin or MFCC statistics)
and classified by a pre-trained model loaded from CSV parameter tables:
a decision tree, a random forest, a one-vs-one linear SVM or a
feed-forward neural network.

Examples:
  # Build train/test feature tables from a corpus with one directory per genre
  sonido-genre extract ./genres -o features.csv --test-ratio 0.2

  # Classify files with a random forest
  sonido-genre classify --model-kind rf --model ./forest blues.00001.au

  # Score a network on a held-out table
  sonido-genre evaluate --model-kind ann --model ./ann features_test.csv`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	base := logging.NewLogger(cmd.OutOrStdout(), cmd.ErrOrStderr(), level)
	logging.SetGlobalLogger(base)

	appConfig = cfg
	logger = base.WithFields(logging.Fields{"component": "cli", "command": cmd.Name()})
	cmd.SetContext(logging.NewContext(cmd.Context(), base))
	return nil
}

// extractionConfig returns the configured extraction settings with the
// --algorithm override applied
func extractionConfig(algorithm string) (*features.Config, error) {
	cfg := appConfig.Extraction
	if algorithm != "" {
		alg, err := features.ParseAlgorithm(algorithm)
		if err != nil {
			return nil, err
		}
		cfg.Algorithm = alg
	}
	return &cfg, cfg.Validate()
}

func newExtractor(algorithm string) (*features.Extractor, error) {
	cfg, err := extractionConfig(algorithm)
	if err != nil {
		return nil, err
	}
	decoderCfg := appConfig.Decoder
	decoder := transcode.NewDecoder(&decoderCfg, logging.GetGlobalLogger())
	return features.NewExtractor(cfg, decoder, logging.GetGlobalLogger())
}

// openCache opens the feature cache when a cache directory is configured.
// The returned close function is never nil.
func openCache(cfg features.Config, disabled bool) (dataset.VectorCache, func(), error) {
	if disabled || appConfig.CacheDir == "" {
		return nil, func() {}, nil
	}
	store, err := cache.Open(cache.Options{Dir: appConfig.CacheDir, Logger: logging.GetGlobalLogger()})
	if err != nil {
		return nil, func() {}, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Error(err, "close feature cache")
		}
	}
	bucket, err := store.Bucket(cfg)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return bucket, closeFn, nil
}

// loadModel loads the model named by the flags, falling back to the config
func loadModel(kind, path string) (models.Model, models.Kind, error) {
	if kind == "" {
		kind = appConfig.Model.Kind
	}
	if path == "" {
		path = appConfig.Model.Path
	}
	if path == "" {
		return nil, "", fmt.Errorf("--model is required (a table file, or a directory for forests and networks)")
	}

	k, err := models.ParseKind(kind)
	if err != nil {
		return nil, "", err
	}
	m, err := models.Load(k, path)
	if err != nil {
		return nil, "", fmt.Errorf("load %s model: %w", k, err)
	}
	if e, ok := m.(interface{ SetWorkers(int) }); ok {
		e.SetWorkers(appConfig.Workers)
	}
	logger.Info("model loaded", logging.Fields{"kind": k, "path": path})
	return m, k, nil
}
