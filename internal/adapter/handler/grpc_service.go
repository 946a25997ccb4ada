package handler

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// The service has no protobuf schema: messages are the JSON types in dto.go,
// carried with the "json" content subtype.

const (
	codecName   = "json"
	serviceName = "serials.v1.SerialService"

	generateBatchMethod = "/" + serviceName + "/GenerateBatch"
	verifyMethod        = "/" + serviceName + "/Verify"
	aggregateMethod     = "/" + serviceName + "/Aggregate"
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type SerialServiceServer interface {
	GenerateBatch(context.Context, *GenerateBatchRequest) (*BatchResponse, error)
	Verify(context.Context, *VerifyRequest) (*VerifyResponse, error)
	Aggregate(context.Context, *StatisticsRequest) (*StatisticsResponse, error)
}

var SerialServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SerialServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GenerateBatch", Handler: generateBatchHandler},
		{MethodName: "Verify", Handler: verifyHandler},
		{MethodName: "Aggregate", Handler: aggregateHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterSerialServiceServer(s grpc.ServiceRegistrar, srv SerialServiceServer) {
	s.RegisterService(&SerialServiceDesc, srv)
}

func generateBatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GenerateBatchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SerialServiceServer).GenerateBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: generateBatchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SerialServiceServer).GenerateBatch(ctx, req.(*GenerateBatchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func verifyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(VerifyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SerialServiceServer).Verify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: verifyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SerialServiceServer).Verify(ctx, req.(*VerifyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func aggregateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StatisticsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SerialServiceServer).Aggregate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: aggregateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SerialServiceServer).Aggregate(ctx, req.(*StatisticsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SerialServiceClient calls SerialService with the JSON codec selected.
type SerialServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSerialServiceClient(cc grpc.ClientConnInterface) *SerialServiceClient {
	return &SerialServiceClient{cc: cc}
}

func (c *SerialServiceClient) GenerateBatch(ctx context.Context, in *GenerateBatchRequest, opts ...grpc.CallOption) (*BatchResponse, error) {
	out := new(BatchResponse)
	if err := c.cc.Invoke(ctx, generateBatchMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SerialServiceClient) Verify(ctx context.Context, in *VerifyRequest, opts ...grpc.CallOption) (*VerifyResponse, error) {
	out := new(VerifyResponse)
	if err := c.cc.Invoke(ctx, verifyMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SerialServiceClient) Aggregate(ctx context.Context, in *StatisticsRequest, opts ...grpc.CallOption) (*StatisticsResponse, error) {
	out := new(StatisticsResponse)
	if err := c.cc.Invoke(ctx, aggregateMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withJSON(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
}
