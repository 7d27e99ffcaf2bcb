/**
 * Redis result store for the land-record worker
 *
 * Mirrors job progress into Redis so callers can poll without a database:
 * - <queue>:processing, <queue>:completed, <queue>:failed sets of job IDs
 * - <queue>:results and <queue>:errors hashes of result JSON by job ID
 * - job:<status> events published on <queue>:events
 */

package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adverant/nexus/landrecord-worker/internal/processor"
)

// ErrResultNotFound is returned when no result exists for a job
var ErrResultNotFound = stderrors.New("result not found")

// Job status values shared by Redis and the jobs table
const (
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// StatusTracker records job progress for pollers
type StatusTracker interface {
	MarkProcessing(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID string, res *processor.Result) error
	MarkFailed(ctx context.Context, jobID string, res *processor.Result) error
}

// JobEvent is published on the events channel on every status change
type JobEvent struct {
	Event     string `json:"event"`
	JobID     string `json:"jobId"`
	Timestamp int64  `json:"timestamp"`
}

// ResultStore implements StatusTracker on Redis
type ResultStore struct {
	client    *redis.Client
	queueName string
}

// NewResultStore connects to redisURL and verifies the connection
func NewResultStore(redisURL, queueName string) (*ResultStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewResultStoreFromClient(client, queueName), nil
}

// NewResultStoreFromClient wraps an existing client
func NewResultStoreFromClient(client *redis.Client, queueName string) *ResultStore {
	return &ResultStore{client: client, queueName: queueName}
}

func (s *ResultStore) key(suffix string) string {
	return fmt.Sprintf("%s:%s", s.queueName, suffix)
}

// MarkProcessing adds jobID to the processing set
func (s *ResultStore) MarkProcessing(ctx context.Context, jobID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.key(JobStatusProcessing), jobID)
		s.publish(ctx, pipe, jobID, JobStatusProcessing)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark job %s processing: %w", jobID, err)
	}
	return nil
}

// MarkCompleted moves jobID to the completed set and stores its result
func (s *ResultStore) MarkCompleted(ctx context.Context, jobID string, res *processor.Result) error {
	return s.finish(ctx, jobID, JobStatusCompleted, "results", res)
}

// MarkFailed moves jobID to the failed set and stores its failure payload
func (s *ResultStore) MarkFailed(ctx context.Context, jobID string, res *processor.Result) error {
	return s.finish(ctx, jobID, JobStatusFailed, "errors", res)
}

func (s *ResultStore) finish(ctx context.Context, jobID, status, hash string, res *processor.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result for job %s: %w", jobID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, s.key(JobStatusProcessing), jobID)
		pipe.SAdd(ctx, s.key(status), jobID)
		pipe.HSet(ctx, s.key(hash), jobID, data)
		s.publish(ctx, pipe, jobID, status)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark job %s %s: %w", jobID, status, err)
	}
	return nil
}

func (s *ResultStore) publish(ctx context.Context, pipe redis.Pipeliner, jobID, status string) {
	event, _ := json.Marshal(JobEvent{
		Event:     "job:" + status,
		JobID:     jobID,
		Timestamp: time.Now().UnixMilli(),
	})
	pipe.Publish(ctx, s.key("events"), event)
}

// GetResult returns the stored result JSON for jobID, success or failure
func (s *ResultStore) GetResult(ctx context.Context, jobID string) ([]byte, error) {
	for _, hash := range []string{"results", "errors"} {
		data, err := s.client.HGet(ctx, s.key(hash), jobID).Bytes()
		if err == nil {
			return data, nil
		}
		if err != redis.Nil {
			return nil, fmt.Errorf("failed to get result for job %s: %w", jobID, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrResultNotFound, jobID)
}

// GetStats returns the size of every status set
func (s *ResultStore) GetStats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64, 3)
	for _, status := range []string{JobStatusProcessing, JobStatusCompleted, JobStatusFailed} {
		n, err := s.client.SCard(ctx, s.key(status)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s set: %w", status, err)
		}
		stats[status] = n
	}
	return stats, nil
}

// Close closes the Redis client
func (s *ResultStore) Close() error {
	return s.client.Close()
}
