/**
 * Pipeline types - requests, modes and results of a pipeline run
 *
 * A Result is either a success payload for its mode or a failure carrying
 * only a status and a message. The two never mix.
 */

package processor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adverant/nexus/landrecord-worker/internal/errors"
	"github.com/adverant/nexus/landrecord-worker/internal/extract"
	"github.com/adverant/nexus/landrecord-worker/internal/recognition"
)

// Mode selects how far a run goes
type Mode string

const (
	ModePreprocess Mode = "preprocess"
	ModeRecognize  Mode = "recognize"
	// ModeFull is a deprecated alias kept only so it can be rejected explicitly
	ModeFull Mode = "full"
)

// ParseMode normalizes a caller-supplied mode name
func ParseMode(s string) Mode {
	return Mode(strings.ToLower(strings.TrimSpace(s)))
}

// Status is the outcome indicator of a run
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Request describes one pipeline run
type Request struct {
	JobID string
	Path  string
	Mode  Mode
}

// Result is the structured outcome of a run
type Result struct {
	Status    Status
	Mode      Mode
	JobID     string
	RunID     string
	Message   string
	ErrorCode string

	// preprocess
	Preview string

	// preprocess and recognize
	TotalPages int

	// recognize
	Text      string
	Fragments []recognition.Fragment
	Fields    *extract.Record
	Languages map[string]int

	DurationMs int64
}

// Succeeded reports whether the run produced a success payload
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// AsFailure replaces a finished run's payload with a failure carrying err,
// keeping the run's identity and duration.
func (r *Result) AsFailure(err error) *Result {
	return &Result{
		Status:     StatusError,
		Mode:       r.Mode,
		JobID:      r.JobID,
		RunID:      r.RunID,
		Message:    err.Error(),
		ErrorCode:  string(errors.CodeOf(err)),
		DurationMs: r.DurationMs,
	}
}

type failurePayload struct {
	Status    Status `json:"status"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode,omitempty"`
	JobID     string `json:"jobId,omitempty"`
	RunID     string `json:"runId,omitempty"`
}

type preprocessPayload struct {
	Status     Status `json:"status"`
	Mode       Mode   `json:"mode"`
	JobID      string `json:"jobId,omitempty"`
	RunID      string `json:"runId,omitempty"`
	Preview    string `json:"preview"`
	TotalPages int    `json:"totalPages"`
	DurationMs int64  `json:"durationMs"`
}

type recognizePayload struct {
	Status     Status                 `json:"status"`
	Mode       Mode                   `json:"mode"`
	JobID      string                 `json:"jobId,omitempty"`
	RunID      string                 `json:"runId,omitempty"`
	Text       string                 `json:"text"`
	Fragments  []recognition.Fragment `json:"fragments"`
	Fields     *extract.Record        `json:"fields"`
	TotalPages int                    `json:"totalPages"`
	Languages  map[string]int         `json:"languages,omitempty"`
	DurationMs int64                  `json:"durationMs"`
}

// MarshalJSON emits only the fields that belong to the result's shape
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Status != StatusSuccess {
		return json.Marshal(failurePayload{
			Status:    StatusError,
			Message:   r.Message,
			ErrorCode: r.ErrorCode,
			JobID:     r.JobID,
			RunID:     r.RunID,
		})
	}

	switch r.Mode {
	case ModePreprocess:
		return json.Marshal(preprocessPayload{
			Status:     r.Status,
			Mode:       r.Mode,
			JobID:      r.JobID,
			RunID:      r.RunID,
			Preview:    r.Preview,
			TotalPages: r.TotalPages,
			DurationMs: r.DurationMs,
		})
	case ModeRecognize:
		fragments := r.Fragments
		if fragments == nil {
			fragments = []recognition.Fragment{}
		}
		return json.Marshal(recognizePayload{
			Status:     r.Status,
			Mode:       r.Mode,
			JobID:      r.JobID,
			RunID:      r.RunID,
			Text:       r.Text,
			Fragments:  fragments,
			Fields:     r.Fields,
			TotalPages: r.TotalPages,
			Languages:  r.Languages,
			DurationMs: r.DurationMs,
		})
	default:
		return nil, fmt.Errorf("success result has unsupported mode %q", r.Mode)
	}
}
