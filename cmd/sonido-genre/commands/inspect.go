package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show .au headers or a model's structure",
}

var inspectAudioCmd = &cobra.Command{
	Use:   "audio <file.au>...",
	Short: "Print the header and duration of .au files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decoderCfg := appConfig.Decoder
		decoder := transcode.NewDecoder(&decoderCfg, logging.GetGlobalLogger())
		out := cmd.OutOrStdout()
		for _, path := range args {
			audio, err := decoder.DecodeFile(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n  %s\n  samples: %d, duration: %s\n",
				path, audio.Header, len(audio.PCM), audio.Duration)
		}
		return nil
	},
}

var inspectModelCmd = &cobra.Command{
	Use:   "model",
	Short: "Print the structure of a model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		model, kind, err := loadModel(modelKind, modelPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", kind, model)
		return nil
	},
}

func init() {
	inspectModelCmd.Flags().StringVarP(&modelKind, "model-kind", "k", "", "model kind (default from config)")
	inspectModelCmd.Flags().StringVarP(&modelPath, "model", "m", "", "model table file, or directory for forests and networks")

	inspectCmd.AddCommand(inspectAudioCmd, inspectModelCmd)
	rootCmd.AddCommand(inspectCmd)
}
