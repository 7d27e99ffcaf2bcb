package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/adverant/nexus/landrecord-worker/internal/errors"
	"github.com/adverant/nexus/landrecord-worker/internal/processor"
	"github.com/adverant/nexus/landrecord-worker/internal/storage"
)

var recognizeDB string

var preprocessCmd = &cobra.Command{
	Use:   "preprocess [path]",
	Short: "Normalize the first page and write a preview image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, processor.ModePreprocess, args[0], nil)
	},
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize [path]",
	Short: "Recognize text and extract land-record fields",
	Long: `Runs the full pipeline on every page and prints the flattened text,
the recognized fragments and the extracted fields as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	recognizeCmd.Flags().StringVar(&recognizeDB, "db", "", "SQLite file to store the extraction in")
	rootCmd.AddCommand(preprocessCmd, recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	if recognizeDB == "" {
		return runPipeline(cmd, processor.ModeRecognize, args[0], nil)
	}
	return runPipeline(cmd, processor.ModeRecognize, args[0], func(ctx context.Context, res *processor.Result) error {
		return saveRecord(ctx, recognizeDB, args[0], res)
	})
}

func saveRecord(ctx context.Context, dbPath, sourcePath string, res *processor.Result) error {
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := storage.NewRecordEntry(res.JobID, sourcePath, res)
	if err != nil {
		return err
	}
	return store.SaveRecord(ctx, entry)
}

// runPipeline executes one run, persists a successful result when persist is
// set, and prints the outcome. A result that could not be persisted is
// printed as a STORAGE_FAILED failure. Failures return ErrRunFailed.
func runPipeline(cmd *cobra.Command, mode processor.Mode, path string, persist func(context.Context, *processor.Result) error) error {
	runner, err := buildRunner(cfg)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	res := runner.Run(ctx, processor.Request{
		JobID: uuid.New().String(),
		Path:  path,
		Mode:  mode,
	})

	if res.Succeeded() && persist != nil {
		if err := persist(ctx, res); err != nil {
			res = res.AsFailure(errors.NewStorageFailedError(res.JobID, err))
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Succeeded() {
		return ErrRunFailed
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
