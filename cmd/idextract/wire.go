package main

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/idextract/internal/classify"
	"github.com/joseph-ayodele/idextract/internal/common"
	"github.com/joseph-ayodele/idextract/internal/extract"
	"github.com/joseph-ayodele/idextract/internal/metrics"
	"github.com/joseph-ayodele/idextract/internal/ner"
	"github.com/joseph-ayodele/idextract/internal/ocr"
	"github.com/joseph-ayodele/idextract/internal/ocr/vision"
	"github.com/joseph-ayodele/idextract/internal/patterns"
	"github.com/joseph-ayodele/idextract/internal/pipeline"
	"github.com/joseph-ayodele/idextract/internal/repository"
)

func newLogger(c common.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// app holds everything a command needs to extract documents.
type app struct {
	pipeline  *pipeline.Pipeline
	processor *pipeline.Processor
	source    *ocr.CachedExtractor
	metrics   *metrics.Metrics
	db        *repository.DB
	jobs      repository.ExtractJobRepository
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newOCRSource builds the text extractor for the configured engine, wrapped in
// the content-addressed cache. The returned func releases engine resources.
func newOCRSource(ctx context.Context, c *common.Config) (*ocr.CachedExtractor, func(), error) {
	ocfg := ocr.Config{
		TesseractLang:       c.OCR.Language,
		DPI:                 c.OCR.DPI,
		TessdataDir:         c.OCR.TessdataDir,
		HeicConverter:       c.OCR.HeicConverter,
		ArtifactCacheDir:    c.OCR.ArtifactCacheDir,
		EnableTSVConfidence: true,
	}
	var opts []ocr.Option
	release := func() {}
	switch c.OCR.Engine {
	case common.EngineGosseract:
		eng, err := ocr.NewGosseractEngine(ocfg)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, ocr.WithEngine(eng))
		release = func() { _ = eng.Close() }
	case common.EngineVision:
		client, closeFn, err := vision.Dial(ctx, c.OCR.VisionCredentials)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, ocr.WithEngine(vision.New(client, vision.LanguageHints(c.OCR.Language)...)))
		release = func() {
			if err := closeFn(); err != nil {
				logger.Warn("vision.close.failed", "err", err)
			}
		}
	}
	src := ocr.NewCached(ocr.NewExtractor(ocfg, logger, opts...), c.OCR.CacheTTL, logger)
	return src, func() {
		src.Close()
		release()
	}, nil
}

// newApp wires the pipeline from cfg. withDB opens and migrates the job
// store when a DSN is configured; requireDB makes a missing DSN an error.
func newApp(ctx context.Context, withDB, requireDB bool) (*app, error) {
	a := &app{metrics: metrics.New()}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if requireDB {
		if err := cfg.RequireDatabase(); err != nil {
			return nil, err
		}
	}
	if withDB && cfg.Database.DSN != "" {
		db, err := openDB(ctx)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.jobs = repository.NewExtractJobRepository(db, logger)
		a.closers = append(a.closers, db.Close)
	}

	src, release, err := newOCRSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.source = src
	a.closers = append(a.closers, release)
	text := extract.NewOCRAdapter(src, logger)

	reg := patterns.New(patterns.Config{Dir: cfg.Extractor.PatternsDir}, logger)
	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithMetrics(a.metrics)}
	if cfg.OCR.Engine != common.EngineNone {
		opts = append(opts, pipeline.WithOCR(text))
	}
	if cfg.Extractor.ImageHeuristic {
		opts = append(opts, pipeline.WithImageInspector(classify.NewHeuristicInspector(logger)))
	}
	if cfg.NER.Enabled {
		opts = append(opts, pipeline.WithEntityRecognizer(ner.NewClient(ner.Config{
			APIKey:      cfg.NER.APIKey,
			BaseURL:     cfg.NER.BaseURL,
			Model:       cfg.NER.Model,
			Temperature: cfg.NER.Temperature,
			Timeout:     cfg.NER.Timeout,
			MaxRetries:  cfg.NER.MaxRetries,
		}, logger)))
	}
	a.pipeline = pipeline.New(reg, opts...)
	a.processor = pipeline.NewProcessor(logger, text, a.pipeline, a.jobs)
	ok = true
	return a, nil
}

func openDB(ctx context.Context) (*repository.DB, error) {
	d := cfg.Database
	db, err := repository.Open(ctx, repository.Config{
		DSN:              d.DSN,
		MaxConns:         d.MaxConns,
		MinConns:         d.MinConns,
		MaxConnLifetime:  d.MaxConnLifetime,
		MaxConnIdleTime:  d.MaxConnIdleTime,
		DialTimeout:      d.DialTimeout,
		StatementTimeout: d.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
