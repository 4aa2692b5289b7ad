package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/idextract/internal/async"
	"github.com/joseph-ayodele/idextract/internal/ingest"
	"github.com/joseph-ayodele/idextract/internal/pipeline"
)

var (
	watchExts        []string
	watchInitialScan bool
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Extract documents as they land in watched directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	f := watchCmd.Flags()
	f.StringSliceVar(&watchExts, "ext", nil, "extensions to include (default: all supported)")
	f.BoolVar(&watchInitialScan, "initial-scan", true, "process files already present")
	f.DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "wait this long after the last write before processing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true, false)
	if err != nil {
		return err
	}
	defer a.Close()

	in := ingest.NewIngestor(a.processor, logger, ingest.WithJobs(a.jobs))
	queue := async.NewProcessorQueue(in, logger,
		async.WithWorkers(cfg.Extractor.Workers),
		async.WithQueueSize(cfg.Extractor.QueueSize),
		async.WithProcessTimeout(cfg.OCR.Timeout),
		async.WithResultHandler(func(job async.Job, out pipeline.Outcome, err error) {
			if err != nil {
				return
			}
			if out.Result != nil {
				logger.Info("watch.extracted", "path", job.Path, "job_id", out.JobID, "document_type", out.Result.DocumentType, "country", out.Result.Country)
			}
		}),
	)
	defer queue.Shutdown(context.Background())

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       args,
		AllowedExts: ingest.ParseExts(watchExts),
		InitialScan: watchInitialScan,
		Debounce:    watchDebounce,
		SkipHidden:  true,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	for {
		select {
		case p, ok := <-events:
			if !ok {
				return nil
			}
			if err := queue.Enqueue(ctx, async.Job{Path: p, SubmittedAt: time.Now(), TraceID: uuid.NewString()}); err != nil {
				logger.Warn("watch.enqueue.failed", "path", p, "err", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch.error", "err", err)
		}
	}
}
