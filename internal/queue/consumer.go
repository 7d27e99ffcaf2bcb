/**
 * Queue Consumer for the land-record worker
 *
 * Consumes extract tasks from Redis via asynq and runs each document through
 * the pipeline. Concurrency applies across documents only; pages within a
 * document are always processed in order by the pipeline itself.
 *
 * A failed run is terminal. Tasks are enqueued with MaxRetry(0) and handler
 * errors wrap asynq.SkipRetry.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/adverant/nexus/landrecord-worker/internal/errors"
	"github.com/adverant/nexus/landrecord-worker/internal/logging"
	"github.com/adverant/nexus/landrecord-worker/internal/processor"
	"github.com/adverant/nexus/landrecord-worker/internal/storage"
)

// JobStatusUpdater persists job status rows (PostgresStore implements it)
type JobStatusUpdater interface {
	UpdateJobStatus(ctx context.Context, update *storage.JobUpdate) error
}

// HandlerConfig holds the collaborators of a Handler
type HandlerConfig struct {
	Runner            processor.Runner
	Tracker           StatusTracker       // optional
	Records           storage.RecordStore // optional
	Jobs              JobStatusUpdater    // optional
	ProcessingTimeout int64               // milliseconds (default: 300000 = 5 minutes)
	Logger            *logging.Logger
}

// Handler processes extract tasks
type Handler struct {
	config *HandlerConfig
	logger *logging.Logger
}

// NewHandler validates cfg and creates a task handler
func NewHandler(cfg *HandlerConfig) (*Handler, error) {
	if cfg == nil || cfg.Runner == nil {
		return nil, fmt.Errorf("Runner is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger("queue")
	}
	return &Handler{config: cfg, logger: logger}, nil
}

// ProcessTask implements asynq.Handler
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var payload ExtractPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %v: %w", err, asynq.SkipRetry)
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("invalid job data: %v: %w", err, asynq.SkipRetry)
	}

	jobID := payload.JobID
	log := h.logger.With("job", jobID)
	log.Info(fmt.Sprintf("[Job %s] Processing document", jobID), "path", payload.Path, "mode", payload.Mode)

	h.trackProcessing(ctx, &payload, log)

	timeout := time.Duration(300000) * time.Millisecond
	if h.config.ProcessingTimeout > 0 {
		timeout = time.Duration(h.config.ProcessingTimeout) * time.Millisecond
	}
	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := h.config.Runner.Run(processCtx, payload.Request())

	if result.Succeeded() && result.Mode == processor.ModeRecognize && h.config.Records != nil {
		if err := h.saveRecord(ctx, &payload, result); err != nil {
			log.Error(fmt.Sprintf("[Job %s] Failed to store extraction", jobID), "error", err)
			result = result.AsFailure(err)
		}
	}

	duration := time.Since(startTime)

	if !result.Succeeded() {
		log.Error(fmt.Sprintf("[Job %s] Processing failed after %v", jobID, duration),
			"code", result.ErrorCode, "message", result.Message)
		h.trackFinished(ctx, &payload, result, log)
		return fmt.Errorf("document processing failed: %s: %w", result.Message, asynq.SkipRetry)
	}

	log.Info(fmt.Sprintf("[Job %s] Processing completed successfully in %v", jobID, duration),
		"pages", result.TotalPages, "fragments", len(result.Fragments))
	h.trackFinished(ctx, &payload, result, log)
	return nil
}

func (h *Handler) saveRecord(ctx context.Context, payload *ExtractPayload, result *processor.Result) error {
	entry, err := storage.NewRecordEntry(payload.JobID, payload.Path, result)
	if err != nil {
		return errors.NewStorageFailedError(payload.JobID, err)
	}
	if err := h.config.Records.SaveRecord(ctx, entry); err != nil {
		return errors.NewStorageFailedError(payload.JobID, err)
	}
	return nil
}

// trackProcessing marks the job as processing. Tracking failures only warn.
func (h *Handler) trackProcessing(ctx context.Context, payload *ExtractPayload, log *logging.Logger) {
	if h.config.Tracker != nil {
		if err := h.config.Tracker.MarkProcessing(ctx, payload.JobID); err != nil {
			log.Warn("failed to update status to processing", "error", err)
		}
	}
	if h.config.Jobs != nil {
		if err := h.config.Jobs.UpdateJobStatus(ctx, &storage.JobUpdate{
			JobID:      payload.JobID,
			SourcePath: payload.Path,
			Mode:       payload.Mode,
			Status:     JobStatusProcessing,
		}); err != nil {
			log.Warn("failed to update job row to processing", "error", err)
		}
	}
}

// trackFinished records the terminal state. Tracking failures only warn.
func (h *Handler) trackFinished(ctx context.Context, payload *ExtractPayload, result *processor.Result, log *logging.Logger) {
	status := JobStatusCompleted
	if !result.Succeeded() {
		status = JobStatusFailed
	}

	if h.config.Tracker != nil {
		var err error
		if status == JobStatusCompleted {
			err = h.config.Tracker.MarkCompleted(ctx, payload.JobID, result)
		} else {
			err = h.config.Tracker.MarkFailed(ctx, payload.JobID, result)
		}
		if err != nil {
			log.Warn(fmt.Sprintf("failed to update status to %s", status), "error", err)
		}
	}

	if h.config.Jobs != nil {
		if err := h.config.Jobs.UpdateJobStatus(ctx, &storage.JobUpdate{
			JobID:            payload.JobID,
			Status:           status,
			ProcessingTimeMs: result.DurationMs,
			ErrorCode:        result.ErrorCode,
			ErrorMessage:     result.Message,
		}); err != nil {
			log.Warn(fmt.Sprintf("failed to update job row to %s", status), "error", err)
		}
	}
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	RedisURL    string
	QueueName   string
	Concurrency int
	Handler     *Handler
	Logger      *logging.Logger
}

// Consumer handles job consumption from Redis queue
type Consumer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	config *ConsumerConfig
	logger *logging.Logger
}

// NewConsumer creates a new queue consumer
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}

	if cfg.Handler == nil {
		return nil, fmt.Errorf("Handler is required")
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger("queue")
	}

	// Parse Redis connection options
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10, // Priority 10 for main queue
				"default":     1,  // Priority 1 for fallback
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing error", "type", task.Type(),
					"payload", string(task.Payload()), "error", err)
			}),
			Logger: logger.Entry(),
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeExtract, cfg.Handler)

	return &Consumer{
		server: server,
		mux:    mux,
		config: cfg,
		logger: logger,
	}, nil
}

// Start starts the queue consumer. The server's own workers run in the background.
func (c *Consumer) Start() error {
	c.logger.Info("Starting queue consumer", "concurrency", c.config.Concurrency, "queue", c.config.QueueName)

	if err := c.server.Start(c.mux); err != nil {
		return fmt.Errorf("failed to start queue consumer: %w", err)
	}
	return nil
}

// Stop stops the queue consumer gracefully, waiting for in-flight runs
func (c *Consumer) Stop() {
	c.logger.Info("Stopping queue consumer...")
	c.server.Shutdown()
	c.logger.Info("Queue consumer stopped")
}

// GetStatistics returns consumer statistics
func (c *Consumer) GetStatistics() map[string]interface{} {
	return map[string]interface{}{
		"concurrency": c.config.Concurrency,
		"queue":       c.config.QueueName,
		"taskType":    TaskTypeExtract,
	}
}
