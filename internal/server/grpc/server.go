// Package grpc serves the standard grpc.health.v1 service for the peerlink
// server, so orchestrators can probe readiness.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/peerlink/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "peerlink"

// ReadinessCheck reports whether dependencies (the database) are usable.
type ReadinessCheck func(ctx context.Context) error

type HealthServer struct {
	address string
	logger  logging.Logger
	ready   ReadinessCheck
	health  *health.Server
}

func NewHealthServer(a string, l logging.Logger, ready ReadinessCheck) *HealthServer {
	return &HealthServer{
		address: a,
		logger:  l.With("module", "grpc_health"),
		ready:   ready,
		health:  health.NewServer(),
	}
}

func (s *HealthServer) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HealthServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve reports SERVING once the readiness check passes and NOT_SERVING
// from shutdown on.
func (s *HealthServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	if s.ready == nil || s.ready(ctx) == nil {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
	} else {
		s.logger.Warn(ctx, "readiness check failed, reporting NOT_SERVING")
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC health server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
