package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/types"
)

// Client calls GateService on behalf of one agent.
type Client struct {
	cc     grpc.ClientConnInterface
	bearer string
}

func NewClient(cc grpc.ClientConnInterface, bearer string) *Client {
	return &Client{cc: cc, bearer: bearer}
}

func (c *Client) Scan(ctx context.Context, req types.ScanRequest) (types.ScanResponse, error) {
	in, err := req.ToStruct()
	if err != nil {
		return types.ScanResponse{}, err
	}
	if c.bearer != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.bearer)
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ScanMethod, in, out); err != nil {
		return types.ScanResponse{}, err
	}
	return types.ScanResponseFromStruct(out)
}
