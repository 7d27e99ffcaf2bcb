package processor

import (
	"fmt"
	"time"

	"github.com/adverant/nexus/landrecord-worker/internal/config"
	"github.com/adverant/nexus/landrecord-worker/internal/extract"
	"github.com/adverant/nexus/landrecord-worker/internal/langdetect"
	"github.com/adverant/nexus/landrecord-worker/internal/logging"
	"github.com/adverant/nexus/landrecord-worker/internal/normalize"
	"github.com/adverant/nexus/landrecord-worker/internal/raster"
	"github.com/adverant/nexus/landrecord-worker/internal/recognition"
	"github.com/adverant/nexus/landrecord-worker/internal/recognition/tesseract"
)

// NewFromConfig wires the production stages: tabula rasterization, the
// Tesseract engine (also used as the orientation estimator), the default rule
// table extended by RULES_FILE, and lingua language tagging.
func NewFromConfig(cfg *config.Config, logger *logging.Logger) (*Processor, error) {
	if logger == nil {
		logger = logging.NewLogger("processor")
	}

	engine, err := tesseract.New(recognition.Options{
		Languages:   cfg.Languages,
		UseAngleCls: cfg.UseAngleCls,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create recognition engine: %w", err)
	}

	extractor, err := extract.NewExtractorFromFile(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction rules: %w", err)
	}

	return NewProcessor(&ProcessorConfig{
		Rasterizer:     raster.NewRasterizer(cfg.RasterDPI, logging.NewLogger("raster")),
		Normalizer:     normalize.NewNormalizer(normalize.OptionsFromConfig(cfg), engine, logging.NewLogger("normalize")),
		Engine:         engine,
		Extractor:      extractor,
		Tagger:         langdetect.NewTagger(),
		TempDir:        cfg.TempDir,
		OutputTextPath: cfg.OutputTextPath,
		Timeout:        time.Duration(cfg.ProcessingTimeout) * time.Millisecond,
		Logger:         logger,
	})
}
