// Package pipeline assembles an ExtractionResult from document text or an
// image: classification, field extraction, enrichment and validation.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/idextract/internal/classify"
	"github.com/joseph-ayodele/idextract/internal/common"
	"github.com/joseph-ayodele/idextract/internal/enrich"
	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/extract"
	"github.com/joseph-ayodele/idextract/internal/fields"
	"github.com/joseph-ayodele/idextract/internal/metrics"
	"github.com/joseph-ayodele/idextract/internal/patterns"
)

// Input is one document: its text, an image of it, or both. When Text is
// set the image is only used for classification.
type Input struct {
	Text      string `json:"text,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
}

type Option func(*Pipeline)

// WithOCR enables image-only input.
func WithOCR(ocr extract.TextExtractor) Option {
	return func(p *Pipeline) { p.ocr = ocr }
}

// WithEntityRecognizer adds the NER enricher.
func WithEntityRecognizer(r extract.EntityRecognizer) Option {
	return func(p *Pipeline) { p.ner = r }
}

// WithImageInspector enables the image classification tier.
func WithImageInspector(i classify.ImageInspector) Option {
	return func(p *Pipeline) { p.inspector = i }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// stages is everything derived from a registry. It is swapped as a whole on
// reload so a running Extract always sees one consistent set.
type stages struct {
	registry   *patterns.Registry
	classifier *classify.Classifier
	fields     *fields.Extractor
	enrichers  enrich.Chain
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	ocr       extract.TextExtractor
	ner       extract.EntityRecognizer
	inspector classify.ImageInspector
	logger    *slog.Logger
	metrics   *metrics.Metrics

	current atomic.Pointer[stages]
}

// New builds a pipeline over registry (patterns.Default() when nil).
// Capabilities not given through options stay disabled.
func New(registry *patterns.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if registry == nil {
		registry = patterns.Default()
	}
	p.current.Store(p.build(registry))
	p.logger.Info("pipeline ready",
		"ocr", p.ocr != nil,
		"ner", p.ner != nil,
		"image_heuristic", p.inspector != nil,
		"jurisdictions", len(registry.Jurisdictions()),
	)
	return p
}

func (p *Pipeline) build(reg *patterns.Registry) *stages {
	chain := enrich.Chain{
		enrich.NewTaxID(reg, p.logger),
		enrich.NewProfessional(reg, p.logger),
		enrich.NewMRZ(reg, p.logger),
	}
	if p.ner != nil {
		chain = append(chain, enrich.NewNER(p.ner, p.logger))
	}
	if p.metrics != nil {
		for i, e := range chain {
			chain[i] = observed{Enricher: e, m: p.metrics}
		}
	}
	return &stages{
		registry:   reg,
		classifier: classify.New(reg, p.inspector, p.logger),
		fields:     fields.New(reg, p.logger),
		enrichers:  chain,
	}
}

// Registry returns the registry in use.
func (p *Pipeline) Registry() *patterns.Registry {
	return p.current.Load().registry
}

// SwapRegistry replaces the pattern registry. Calls already running finish
// with the previous one.
func (p *Pipeline) SwapRegistry(reg *patterns.Registry) {
	p.current.Store(p.build(reg))
	p.logger.Info("pattern registry swapped", "jurisdictions", len(reg.Jurisdictions()))
}

// HasOCR reports whether image-only input can be handled.
func (p *Pipeline) HasOCR() bool { return p.ocr != nil }

// ExtractText runs the pipeline over text. It never fails.
func (p *Pipeline) ExtractText(ctx context.Context, text string) *entity.ExtractionResult {
	res, _ := p.Extract(ctx, Input{Text: text})
	if res == nil {
		res = entity.NewExtractionResult()
	}
	return res
}

// ExtractImage OCRs the image at path and runs the pipeline over its text.
func (p *Pipeline) ExtractImage(ctx context.Context, path string) (*entity.ExtractionResult, error) {
	return p.Extract(ctx, Input{ImagePath: path})
}

// Extract returns a result whenever text is available, even when nothing was
// recognized. Image-only input fails with common.ErrNoExtractableData when no
// OCR is configured, OCR fails, or OCR yields no text.
func (p *Pipeline) Extract(ctx context.Context, in Input) (*entity.ExtractionResult, error) {
	start := time.Now()
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	st := p.current.Load()

	text := in.Text
	if strings.TrimSpace(text) == "" && in.ImagePath != "" {
		acquired, err := p.acquire(ctx, reqID, in.ImagePath)
		if err != nil {
			p.metrics.IncrementExtraction("no_data", "unknown", "unknown")
			p.logger.Warn("extract.no_data", "req_id", reqID, "path", in.ImagePath, "error", err)
			return nil, err
		}
		text = acquired
	}

	d := st.classifier.Classify(ctx, text, in.ImagePath)
	res := st.fields.Extract(text, d.DocumentType, d.Country)
	st.enrichers.Enrich(ctx, text, res)

	if err := res.Validate(); err != nil {
		res.Warn("result failed schema validation: " + err.Error())
	}

	elapsed := time.Since(start)
	p.metrics.IncrementExtraction("ok", string(res.DocumentType), string(res.Country))
	p.metrics.ObserveExtractLatency(elapsed)
	p.metrics.AddWarnings(len(res.Warnings))
	p.logger.Info("extract.ok",
		"req_id", reqID,
		"job_id", common.JobIDFromContext(ctx),
		"document_type", res.DocumentType,
		"country", res.Country,
		"type_tier", d.TypeTier.String(),
		"country_tier", d.CountryTier.String(),
		"warnings", len(res.Warnings),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) acquire(ctx context.Context, reqID, path string) (string, error) {
	if p.ocr == nil {
		return "", common.NoExtractableData("image given but no OCR engine configured", common.ErrOCRUnavailable)
	}
	r, err := p.ocr.Extract(ctx, path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", common.NoExtractableData("ocr failed", err)
	}
	p.metrics.ObserveOCRLatency(r.Method, r.Duration)
	p.logger.Debug("extract.ocr.ok", "req_id", reqID, "method", r.Method, "chars", len(r.Text), "confidence", r.Confidence)
	if strings.TrimSpace(r.Text) == "" {
		return "", common.NoExtractableData("ocr produced no text", nil)
	}
	return r.Text, nil
}

type observed struct {
	enrich.Enricher
	m *metrics.Metrics
}

func (o observed) Enrich(ctx context.Context, text string, res *entity.ExtractionResult) {
	o.m.IncrementEnrichment(o.Name())
	o.Enricher.Enrich(ctx, text, res)
}
