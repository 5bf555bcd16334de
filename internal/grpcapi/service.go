// Package grpcapi exposes the scan pipeline to handheld scanners over gRPC.
//
// There is no generated code: the single method takes and returns a
// google.protobuf.Struct with the same fields as the HTTP scan body, so
// scanners can share one encoder between both transports.
package grpcapi

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/auth"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/service"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/types"
)

const (
	ServiceName = "campuspass.v1.GateService"
	ScanMethod  = "/" + ServiceName + "/Scan"
)

// GateServiceServer is the server API for campuspass.v1.GateService.
type GateServiceServer interface {
	Scan(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var GateServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GateServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Scan", Handler: scanHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "campuspass/v1/gate.proto",
}

func scanHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GateServiceServer).Scan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ScanMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GateServiceServer).Scan(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// GateService adapts service.ScanService to GateServiceServer.
type GateService struct {
	scanner *service.ScanService
}

func NewGateService(scanner *service.ScanService) *GateService {
	return &GateService{scanner: scanner}
}

// Scan returns the decision in the response body for every scan that
// reached the pipeline, failed ones included. Status errors are reserved
// for bad input, auth and infrastructure faults.
func (g *GateService) Scan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, auth.ErrMissingToken.Error())
	}
	if !id.Allowed(auth.RoleSecurity) {
		return nil, status.Error(codes.PermissionDenied, auth.ErrForbidden.Error())
	}

	req, err := types.ScanRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := g.scanner.Scan(ctx, service.ScanInput{
		Token:  req.Token,
		Gate:   req.Gate,
		Action: req.Action,
		Agent:  id.Agent,
	})
	if err != nil {
		return nil, mapServiceError(err)
	}

	out, err := types.FromScanResult(res).ToStruct()
	if err != nil {
		return nil, status.Error(codes.Internal, "encode scan response")
	}
	return out, nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidGate),
		errors.Is(err, service.ErrInvalidAction),
		errors.Is(err, service.ErrInvalidAgent):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "unexpected server error")
	}
}
