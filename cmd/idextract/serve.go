package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/idextract/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve extraction over gRPC and HTTP",
	Long: `Serve starts the gRPC ExtractorService (GRPC_ADDR) and the JSON API with
/healthz and /metrics (HTTP_ADDR). SIGHUP reloads the pattern directory.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireServer(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true, false)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []server.ServiceOption{server.WithImageRoot(cfg.Server.ImageRoot)}
	var pinger server.Pinger
	if a.db != nil {
		opts = append(opts, server.WithJobs(a.jobs))
		pinger = a.db
	}
	svc := server.NewExtractorService(a.pipeline, logger, opts...)

	// Listeners are bound before any goroutine starts.
	var grpcLis, httpLis net.Listener
	if addr := cfg.Server.GRPCAddr; addr != "" {
		if grpcLis, err = net.Listen("tcp", addr); err != nil {
			return err
		}
		defer grpcLis.Close()
	}
	if addr := cfg.Server.HTTPAddr; addr != "" {
		if httpLis, err = net.Listen("tcp", addr); err != nil {
			return err
		}
		defer httpLis.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				a.pipeline.SwapRegistry(a.pipeline.Registry().Reload(logger))
				logger.Info("serve.patterns.reloaded", "dir", cfg.Extractor.PatternsDir)
			}
		}
	})

	if grpcLis != nil {
		gs, hs := server.NewGRPCServer(svc, logger)
		if pinger != nil {
			g.Go(func() error {
				server.MonitorDatabase(gctx, pinger, hs, 15*time.Second, 3*time.Second, logger)
				return nil
			})
		}
		g.Go(func() error {
			logger.Info("serve.grpc.listening", "addr", grpcLis.Addr().String())
			return gs.Serve(grpcLis)
		})
		g.Go(func() error {
			<-gctx.Done()
			hs.Shutdown()
			gs.GracefulStop()
			return nil
		})
	}

	if httpLis != nil {
		hsrv := &http.Server{
			Handler:           server.NewHTTPHandler(svc, pinger, a.metrics.Registry()),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serve.http.listening", "addr", httpLis.Addr().String())
			if err := hsrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return hsrv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("serve.stopped", "err", err)
	return err
}
