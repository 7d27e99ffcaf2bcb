/**
 * Extraction record persistence
 *
 * A RecordEntry is the durable form of one recognize run: the extracted
 * land-record fields, the flattened text and run metadata. Stores UPSERT by
 * job ID so re-running a job replaces its previous record.
 */

package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/adverant/nexus/landrecord-worker/internal/extract"
	"github.com/adverant/nexus/landrecord-worker/internal/processor"
)

// RecordEntry is one persisted extraction
type RecordEntry struct {
	JobID          string
	RunID          string
	SourcePath     string
	DocumentType   string
	Fields         extract.Record
	Text           string
	TotalPages     int
	FragmentCount  int
	MeanConfidence float64
	Languages      []string
	ProcessingMs   int64
	CreatedAt      time.Time
}

// RecordStore persists extraction records
type RecordStore interface {
	SaveRecord(ctx context.Context, entry *RecordEntry) error
	GetRecord(ctx context.Context, jobID string) (*RecordEntry, error)
	Close() error
}

// NewRecordEntry converts a successful recognize result into a record
func NewRecordEntry(jobID, sourcePath string, res *processor.Result) (*RecordEntry, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}
	if !res.Succeeded() || res.Mode != processor.ModeRecognize || res.Fields == nil {
		return nil, fmt.Errorf("only successful recognize results can be stored")
	}

	var sum float64
	for _, f := range res.Fragments {
		sum += f.Confidence
	}
	mean := 0.0
	if len(res.Fragments) > 0 {
		mean = sum / float64(len(res.Fragments))
	}

	languages := make([]string, 0, len(res.Languages))
	for lang, n := range res.Languages {
		if n > 0 {
			languages = append(languages, lang)
		}
	}
	sort.Strings(languages)

	return &RecordEntry{
		JobID:          jobID,
		RunID:          res.RunID,
		SourcePath:     sourcePath,
		DocumentType:   res.Fields.DocumentType,
		Fields:         *res.Fields,
		Text:           res.Text,
		TotalPages:     res.TotalPages,
		FragmentCount:  len(res.Fragments),
		MeanConfidence: sanitizeConfidence(mean),
		Languages:      languages,
		ProcessingMs:   res.DurationMs,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// sanitizeConfidence rounds to 4 decimal places and clamps to [0, 1] so the
// value fits a NUMERIC(5,4) column.
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return float64(int(confidence*10000+0.5)) / 10000
}
