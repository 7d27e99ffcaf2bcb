package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/adverant/nexus/landrecord-worker/internal/processor"
)

// TaskTypeExtract is the asynq task type handled by the worker
const TaskTypeExtract = "landrecord:extract"

// ExtractPayload is the JSON body of an extract task
type ExtractPayload struct {
	JobID string `json:"jobId"`
	Path  string `json:"path"`
	Mode  string `json:"mode"`
}

// Validate checks the payload before it is enqueued or processed
func (p *ExtractPayload) Validate() error {
	if p.JobID == "" {
		return fmt.Errorf("jobId is required")
	}
	if p.Path == "" {
		return fmt.Errorf("path is required")
	}
	if p.Mode == "" {
		return fmt.Errorf("mode is required")
	}
	return nil
}

// Request converts the payload into a pipeline request
func (p *ExtractPayload) Request() processor.Request {
	return processor.Request{
		JobID: p.JobID,
		Path:  p.Path,
		Mode:  processor.ParseMode(p.Mode),
	}
}

// NewExtractTask builds an extract task. Failed runs are never retried.
func NewExtractTask(payload ExtractPayload) (*asynq.Task, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TaskTypeExtract, data, asynq.MaxRetry(0)), nil
}

// Enqueuer submits extract tasks to the worker queue
type Enqueuer struct {
	client    *asynq.Client
	queueName string
}

// NewEnqueuer creates an enqueuer for queueName on the Redis at redisURL
func NewEnqueuer(redisURL, queueName string) (*Enqueuer, error) {
	if queueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}

	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	return &Enqueuer{
		client:    asynq.NewClient(redisOpt),
		queueName: queueName,
	}, nil
}

// Enqueue submits path for processing in mode and returns the new job ID
func (e *Enqueuer) Enqueue(ctx context.Context, path string, mode processor.Mode) (string, error) {
	jobID := uuid.New().String()

	task, err := NewExtractTask(ExtractPayload{JobID: jobID, Path: path, Mode: string(mode)})
	if err != nil {
		return "", err
	}

	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue(e.queueName), asynq.TaskID(jobID)); err != nil {
		return "", fmt.Errorf("failed to enqueue job %s: %w", jobID, err)
	}
	return jobID, nil
}

// Close closes the underlying client
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
