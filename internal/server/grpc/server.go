// Package grpc runs the operations endpoint: the standard gRPC health
// service and server reflection, on an address separate from the API.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the storefront API.
const ServiceName = "storefront.Storefront"

const defaultProbeInterval = 10 * time.Second

// Probe reports whether a dependency the API needs is reachable.
type Probe func(ctx context.Context) error

type OpsServer struct {
	address  string
	logger   logging.Logger
	probe    Probe
	interval time.Duration
	health   *health.Server
}

// NewOpsServer creates the ops endpoint. probe may be nil, in which case the
// API is always reported as serving while the process runs.
func NewOpsServer(address string, l logging.Logger, probe Probe) *OpsServer {
	return &OpsServer{
		address:  address,
		logger:   l.With("module", "grpc_ops_server"),
		probe:    probe,
		interval: defaultProbeInterval,
		health:   health.NewServer(),
	}
}

func (s *OpsServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *OpsServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	s.check(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC ops server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC ops server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *OpsServer) watch(ctx context.Context) {
	if s.probe == nil {
		return
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.check(ctx)
		}
	}
}

func (s *OpsServer) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		if err := s.probe(ctx); err != nil {
			s.logger.Warn(ctx, "health probe failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
