// Package grpc runs the operations port: the standard health service and
// reflection, traced with otelgrpc.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

type Server struct {
	grpcServer  *grpc.Server
	health      *health.Server
	log         *logger.Logger
	port        string
	serviceName string
}

func NewServer(log *logger.Logger, port, serviceName string, maxConnectionIdle time.Duration) *Server {
	if maxConnectionIdle <= 0 {
		maxConnectionIdle = 5 * time.Minute
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: maxConnectionIdle,
			Timeout:           20 * time.Second,
		}),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	return &Server{
		grpcServer:  grpcServer,
		health:      healthServer,
		log:         log.Named("grpc"),
		port:        port,
		serviceName: serviceName,
	}
}

// Serve marks the service SERVING and blocks until the listener closes.
func (s *Server) Serve(lis net.Listener) error {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(s.serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server failed to serve: %w", err)
	}
	return nil
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.port, err)
	}
	s.log.Info("gRPC ops server listening", zap.String("port", s.port))
	return s.Serve(lis)
}

// Stop reports NOT_SERVING first so load balancers drain, then stops
// gracefully or forcibly once ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		s.log.Warn("graceful shutdown timed out, forcing stop")
		s.grpcServer.Stop()
		return ctx.Err()
	case <-stopped:
		s.log.Info("gRPC server stopped gracefully")
		return nil
	}
}
