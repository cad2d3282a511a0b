package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "radiometer.v1.RadiometerService"

const (
	getLatestMethod  = "/" + ServiceName + "/GetLatest"
	getHistoryMethod = "/" + ServiceName + "/GetHistory"
	getStatusMethod  = "/" + ServiceName + "/GetStatus"
)

// RadiometerServer is the server API for the radiometer service.
// Messages are protobuf well-known types so no generated code is needed.
type RadiometerServer interface {
	// GetLatest returns the most recent sample
	GetLatest(context.Context, *emptypb.Empty) (*structpb.Struct, error)

	// GetHistory returns samples from the trailing window with statistics
	GetHistory(context.Context, *durationpb.Duration) (*structpb.Struct, error)

	// GetStatus returns the acquisition state and counters
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes the radiometer service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RadiometerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetLatest", Handler: getLatestHandler},
		{MethodName: "GetHistory", Handler: getHistoryHandler},
		{MethodName: "GetStatus", Handler: getStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "radiometer/v1/radiometer.proto",
}

// RegisterRadiometerServer registers srv on s
func RegisterRadiometerServer(s grpc.ServiceRegistrar, srv RadiometerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getLatestHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RadiometerServer).GetLatest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getLatestMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RadiometerServer).GetLatest(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getHistoryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(durationpb.Duration)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RadiometerServer).GetHistory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getHistoryMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RadiometerServer).GetHistory(ctx, req.(*durationpb.Duration))
	}
	return interceptor(ctx, in, info, handler)
}

func getStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RadiometerServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getStatusMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RadiometerServer).GetStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the radiometer service on an established connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetLatest(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getLatestMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetHistory(ctx context.Context, window *durationpb.Duration, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getHistoryMethod, window, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getStatusMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
