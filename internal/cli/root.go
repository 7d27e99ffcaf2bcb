// Package cli implements the landocr command line interface.
package cli

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/adverant/nexus/landrecord-worker/internal/config"
	"github.com/adverant/nexus/landrecord-worker/internal/logging"
	"github.com/adverant/nexus/landrecord-worker/internal/processor"
)

// ErrRunFailed is returned after a failure result has been printed
var ErrRunFailed = stderrors.New("pipeline run failed")

var (
	rulesFile  string
	outputPath string

	cfg *config.Config
)

// buildRunner constructs the pipeline; tests replace it with a fake.
var buildRunner = func(cfg *config.Config) (processor.Runner, error) {
	return processor.NewFromConfig(cfg, logging.NewLoggerTo("processor", os.Stderr))
}

var rootCmd = &cobra.Command{
	Use:   "landocr",
	Short: "Extract structured fields from scanned land records",
	Long: `landocr rasterizes a scanned PDF or image, normalizes each page,
recognizes Tamil and English text and extracts land-record fields
such as patta number, survey number and owner name.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "YAML file with additional extraction rules")
	rootCmd.PersistentFlags().StringVar(&outputPath, "output", "", "where to write the flattened text (overrides OUTPUT_TEXT_PATH)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	loaded, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if rulesFile != "" {
		loaded.RulesFile = rulesFile
	}
	if outputPath != "" {
		loaded.OutputTextPath = outputPath
	}
	cfg = loaded
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// writeJSON prints v as indented JSON on w
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
