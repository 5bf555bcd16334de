package grpcapi

import (
	"context"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/auth"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/service"
)

type Dependencies struct {
	Logger   *zap.Logger
	Addr     string
	Verifier *auth.Verifier
	Scanner  *service.ScanService
}

type Server struct {
	grpcServer *grpc.Server
	addr       string
}

func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(logger),
			authInterceptor(d.Verifier),
		),
	)
	gs.RegisterService(&GateServiceDesc, NewGateService(d.Scanner))

	return &Server{grpcServer: gs, addr: d.Addr}
}

// Start listens on the configured address and blocks until the server
// stops.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Shutdown drains in-flight calls, falling back to a hard stop when ctx
// ends first.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.grpcServer.Stop()
		return ctx.Err()
	}
}
