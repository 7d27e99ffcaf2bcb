package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adverant/nexus/landrecord-worker/internal/config"
	"github.com/adverant/nexus/landrecord-worker/internal/processor"
	"github.com/adverant/nexus/landrecord-worker/internal/queue"
)

type jobEnqueuer interface {
	Enqueue(ctx context.Context, path string, mode processor.Mode) (string, error)
	Close() error
}

type resultReader interface {
	GetResult(ctx context.Context, jobID string) ([]byte, error)
	Close() error
}

var newEnqueuer = func(cfg *config.Config) (jobEnqueuer, error) {
	return queue.NewEnqueuer(cfg.RedisURL, cfg.QueueName)
}

var newResultReader = func(cfg *config.Config) (resultReader, error) {
	return queue.NewResultStore(cfg.RedisURL, cfg.QueueName)
}

var enqueueMode string

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [path]",
	Short: "Submit a document to the worker queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnqueue,
}

var resultCmd = &cobra.Command{
	Use:   "result [job-id]",
	Short: "Print the stored result of a queued job",
	Args:  cobra.ExactArgs(1),
	RunE:  runResult,
}

func init() {
	enqueueCmd.Flags().StringVarP(&enqueueMode, "mode", "m", string(processor.ModeRecognize), "preprocess or recognize")
	rootCmd.AddCommand(enqueueCmd, resultCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	mode := processor.ParseMode(enqueueMode)
	if mode != processor.ModePreprocess && mode != processor.ModeRecognize {
		return fmt.Errorf("invalid mode %q: expected preprocess or recognize", enqueueMode)
	}

	enqueuer, err := newEnqueuer(cfg)
	if err != nil {
		return err
	}
	defer enqueuer.Close()

	jobID, err := enqueuer.Enqueue(commandContext(cmd), args[0], mode)
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), map[string]string{
		"jobId": jobID,
		"path":  args[0],
		"mode":  string(mode),
	})
}

func runResult(cmd *cobra.Command, args []string) error {
	reader, err := newResultReader(cfg)
	if err != nil {
		return err
	}
	defer reader.Close()

	data, err := reader.GetResult(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("stored result is not valid JSON: %w", err)
	}
	if err := writeJSON(cmd.OutOrStdout(), payload); err != nil {
		return err
	}
	if payload["status"] != string(processor.StatusSuccess) {
		return ErrRunFailed
	}
	return nil
}
