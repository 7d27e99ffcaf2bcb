/**
 * Pipeline driver for the land-record OCR worker
 *
 * Composes the pipeline stages for one document:
 * - Rasterization of PDF leaves or a single image
 * - Page normalization (grayscale, denoise, orientation)
 * - Bilingual text recognition
 * - Aggregation into one text stream
 * - Field extraction and document classification
 *
 * Pages are processed strictly in order within a run. Every failure is
 * converted into a structured error Result at this boundary.
 */

package processor

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/adverant/nexus/landrecord-worker/internal/aggregate"
	"github.com/adverant/nexus/landrecord-worker/internal/errors"
	"github.com/adverant/nexus/landrecord-worker/internal/extract"
	"github.com/adverant/nexus/landrecord-worker/internal/logging"
	"github.com/adverant/nexus/landrecord-worker/internal/raster"
	"github.com/adverant/nexus/landrecord-worker/internal/recognition"
)

// Runner is implemented by anything that executes pipeline runs
type Runner interface {
	Run(ctx context.Context, req Request) *Result
}

// Rasterizer turns a path into ordered pages
type Rasterizer interface {
	Rasterize(ctx context.Context, path string) ([]raster.Page, error)
}

// Normalizer prepares a page for recognition and never fails
type Normalizer interface {
	Normalize(ctx context.Context, page raster.Page) raster.Page
}

// FieldExtractor derives the land record from flattened text
type FieldExtractor interface {
	Extract(text string) extract.Record
}

// LanguageTagger counts fragments per detected language
type LanguageTagger interface {
	Tag(fragments []recognition.Fragment) map[string]int
}

// ProcessorConfig holds the stages and settings of a Processor
type ProcessorConfig struct {
	Rasterizer Rasterizer
	Normalizer Normalizer
	Engine     recognition.Engine
	Extractor  FieldExtractor
	Tagger     LanguageTagger // optional

	TempDir        string
	OutputTextPath string // empty disables the side artifact
	Timeout        time.Duration
	Logger         *logging.Logger
}

// Processor runs documents through the pipeline
type Processor struct {
	config *ProcessorConfig
	logger *logging.Logger
}

// NewProcessor validates cfg and creates a processor
func NewProcessor(cfg *ProcessorConfig) (*Processor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Rasterizer == nil {
		return nil, fmt.Errorf("rasterizer is required")
	}
	if cfg.Normalizer == nil {
		return nil, fmt.Errorf("normalizer is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("recognition engine is required")
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("field extractor is required")
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger("processor")
	}

	return &Processor{config: cfg, logger: logger}, nil
}

// Run executes one pipeline run. It never panics and never returns a partial
// success payload alongside a failure.
func (p *Processor) Run(ctx context.Context, req Request) (result *Result) {
	runID := uuid.New().String()
	startTime := time.Now()
	log := p.logger.With("run", runID, "job", req.JobID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panicked", "panic", fmt.Sprint(r))
			result = p.failure(req, runID, errors.NewInternalError(req.JobID, fmt.Errorf("panic: %v", r)))
		}
		result.DurationMs = time.Since(startTime).Milliseconds()
	}()

	log.Info(fmt.Sprintf("[Run %s] Starting pipeline", runID), "path", req.Path, "mode", string(req.Mode))

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	var err error
	switch req.Mode {
	case ModePreprocess:
		result, err = p.preprocess(ctx, req, runID, log)
	case ModeRecognize:
		result, err = p.recognize(ctx, req, runID, log)
	case ModeFull:
		err = errors.NewInvalidModeError(string(req.Mode), "deprecated, use recognize")
	default:
		err = errors.NewInvalidModeError(string(req.Mode), "expected preprocess or recognize")
	}

	if err != nil {
		err = p.classifyError(ctx, req, err)
		var pe *errors.ProcessingError
		if stderrors.As(err, &pe) {
			log.Error(fmt.Sprintf("[Run %s] Pipeline failed", runID), "code", string(pe.Code), "details", pe.ToMap())
		} else {
			log.Error(fmt.Sprintf("[Run %s] Pipeline failed", runID), "error", err)
		}
		return p.failure(req, runID, err)
	}

	log.Info(fmt.Sprintf("[Run %s] Pipeline complete", runID), "pages", result.TotalPages,
		"duration_ms", time.Since(startTime).Milliseconds())
	return result
}

func (p *Processor) preprocess(ctx context.Context, req Request, runID string, log *logging.Logger) (*Result, error) {
	log.Info(fmt.Sprintf("[Run %s] Step 1: Rasterizing input", runID), "path", req.Path)
	pages, err := p.config.Rasterizer.Rasterize(ctx, req.Path)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Status:     StatusSuccess,
		Mode:       ModePreprocess,
		JobID:      req.JobID,
		RunID:      runID,
		TotalPages: len(pages),
	}
	if len(pages) == 0 {
		log.Info(fmt.Sprintf("[Run %s] Document has no pages", runID))
		return result, nil
	}

	log.Info(fmt.Sprintf("[Run %s] Step 2: Normalizing first page", runID), "pages", len(pages))
	normalized := p.config.Normalizer.Normalize(ctx, pages[0])

	log.Info(fmt.Sprintf("[Run %s] Step 3: Writing preview", runID))
	preview, err := p.writePreview(normalized, runID)
	if err != nil {
		return nil, err
	}
	result.Preview = preview

	return result, nil
}

func (p *Processor) recognize(ctx context.Context, req Request, runID string, log *logging.Logger) (*Result, error) {
	log.Info(fmt.Sprintf("[Run %s] Step 1: Rasterizing input", runID), "path", req.Path)
	pages, err := p.config.Rasterizer.Rasterize(ctx, req.Path)
	if err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("[Run %s] Step 2: Normalizing and recognizing pages", runID), "pages", len(pages))
	perPage := make([]recognition.PageFragments, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		normalized := p.config.Normalizer.Normalize(ctx, page)

		fragments, err := p.config.Engine.Recognize(ctx, normalized)
		if err != nil {
			if errors.CodeOf(err) == "" && ctx.Err() == nil {
				err = errors.NewRecognitionError(p.config.Engine.Name(), page.Index(), err)
			}
			return nil, err
		}

		tagged := make([]recognition.Fragment, len(fragments))
		for i, f := range fragments {
			f.PageIndex = page.Index()
			tagged[i] = f
		}
		perPage = append(perPage, recognition.PageFragments{PageIndex: page.Index(), Fragments: tagged})

		log.Debug("page recognized", "page", page.Index(), "fragments", len(tagged))
	}

	log.Info(fmt.Sprintf("[Run %s] Step 3: Aggregating text", runID))
	text := aggregate.Aggregate(perPage)

	log.Info(fmt.Sprintf("[Run %s] Step 4: Extracting fields", runID), "characters", len(text.Flat))
	fields := p.config.Extractor.Extract(text.Flat)

	var languages map[string]int
	if p.config.Tagger != nil {
		languages = p.config.Tagger.Tag(text.Fragments)
	}

	p.writeSideArtifact(text.Flat, log)

	return &Result{
		Status:     StatusSuccess,
		Mode:       ModeRecognize,
		JobID:      req.JobID,
		RunID:      runID,
		Text:       text.Flat,
		Fragments:  text.Fragments,
		Fields:     &fields,
		Languages:  languages,
		TotalPages: len(pages),
	}, nil
}

// writePreview stores the normalized page as a PNG in the temp dir
func (p *Processor) writePreview(page raster.Page, runID string) (string, error) {
	data, err := page.EncodePNG()
	if err != nil {
		return "", errors.NewInternalError(runID, err)
	}

	path := filepath.Join(p.config.TempDir, fmt.Sprintf("preview-%s.png", runID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.NewInternalError(runID, fmt.Errorf("failed to write preview: %w", err))
	}
	return path, nil
}

// writeSideArtifact persists the flattened text. Failures only produce a warning.
func (p *Processor) writeSideArtifact(text string, log *logging.Logger) {
	if p.config.OutputTextPath == "" {
		return
	}
	if err := os.WriteFile(p.config.OutputTextPath, []byte(text), 0o644); err != nil {
		log.Warn("failed to write text artifact", "path", p.config.OutputTextPath, "error", err)
	}
}

// classifyError maps context expiry onto the error taxonomy
func (p *Processor) classifyError(ctx context.Context, req Request, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewProcessingTimeoutError(req.JobID, p.config.Timeout, err)
	}
	if errors.CodeOf(err) == "" {
		return errors.NewInternalError(req.JobID, err)
	}
	return err
}

func (p *Processor) failure(req Request, runID string, err error) *Result {
	return &Result{
		Status:    StatusError,
		Mode:      req.Mode,
		JobID:     req.JobID,
		RunID:     runID,
		Message:   err.Error(),
		ErrorCode: string(errors.CodeOf(err)),
	}
}
