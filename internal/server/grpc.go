package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServer is a gRPC server carrying only the standard health service and
// reflection. Its serving status follows the database.
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
	db     Pinger
	logger *slog.Logger
}

func NewHealthServer(db Pinger, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(srv)
	return &HealthServer{srv: srv, health: hs, db: db, logger: logger}
}

// Serve blocks serving on lis until Stop is called.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health serving", "addr", lis.Addr().String())
	return s.srv.Serve(lis)
}

// Monitor probes the database every interval and flips the serving status
// accordingly, until ctx is done.
func (s *HealthServer) Monitor(ctx context.Context, interval time.Duration) {
	if s.db == nil {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		s.probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (s *HealthServer) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.HealthCheck(ctx, 2*time.Second); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("health probe failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Stop marks the server not serving and drains in-flight RPCs.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
