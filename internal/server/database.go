package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger reports database reachability.
type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// MonitorDatabase pings db every interval and flips the gRPC health status
// of ServiceName between SERVING and NOT_SERVING. It returns when ctx is done.
func MonitorDatabase(ctx context.Context, db Pinger, hs *health.Server, interval, timeout time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	last := healthpb.HealthCheckResponse_UNKNOWN
	check := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if err := db.HealthCheck(ctx, timeout); err != nil {
			if ctx.Err() != nil {
				return
			}
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if st != last {
			logger.Info("health.database", "status", st.String())
			last = st
		}
		hs.SetServingStatus(ServiceName, st)
	}

	check()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			check()
		}
	}
}
