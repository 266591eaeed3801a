package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	LockService_Acquire_FullMethodName   = "/lockcache.v1.LockService/Acquire"
	LockService_Release_FullMethodName   = "/lockcache.v1.LockService/Release"
	LockService_Stat_FullMethodName      = "/lockcache.v1.LockService/Stat"
	LockService_GetStatus_FullMethodName = "/lockcache.v1.LockService/GetStatus"

	LockCallback_Revoke_FullMethodName = "/lockcache.v1.LockCallback/Revoke"
	LockCallback_Retry_FullMethodName  = "/lockcache.v1.LockCallback/Retry"
)

// LockServiceClient is the client API for LockService.
type LockServiceClient interface {
	Acquire(ctx context.Context, in *AcquireRequest, opts ...grpc.CallOption) (*AcquireResponse, error)
	Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*ReleaseResponse, error)
	Stat(ctx context.Context, in *StatRequest, opts ...grpc.CallOption) (*StatResponse, error)
	GetStatus(ctx context.Context, in *GetStatusRequest, opts ...grpc.CallOption) (*GetStatusResponse, error)
}

type lockServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLockServiceClient(cc grpc.ClientConnInterface) LockServiceClient {
	return &lockServiceClient{cc}
}

func (c *lockServiceClient) Acquire(ctx context.Context, in *AcquireRequest, opts ...grpc.CallOption) (*AcquireResponse, error) {
	out := new(AcquireResponse)
	if err := c.cc.Invoke(ctx, LockService_Acquire_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lockServiceClient) Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*ReleaseResponse, error) {
	out := new(ReleaseResponse)
	if err := c.cc.Invoke(ctx, LockService_Release_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lockServiceClient) Stat(ctx context.Context, in *StatRequest, opts ...grpc.CallOption) (*StatResponse, error) {
	out := new(StatResponse)
	if err := c.cc.Invoke(ctx, LockService_Stat_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lockServiceClient) GetStatus(ctx context.Context, in *GetStatusRequest, opts ...grpc.CallOption) (*GetStatusResponse, error) {
	out := new(GetStatusResponse)
	if err := c.cc.Invoke(ctx, LockService_GetStatus_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// LockServiceServer is the server API for LockService.
type LockServiceServer interface {
	Acquire(context.Context, *AcquireRequest) (*AcquireResponse, error)
	Release(context.Context, *ReleaseRequest) (*ReleaseResponse, error)
	Stat(context.Context, *StatRequest) (*StatResponse, error)
	GetStatus(context.Context, *GetStatusRequest) (*GetStatusResponse, error)
	mustEmbedUnimplementedLockServiceServer()
}

// UnimplementedLockServiceServer must be embedded by LockServiceServer
// implementations.
type UnimplementedLockServiceServer struct{}

func (UnimplementedLockServiceServer) Acquire(context.Context, *AcquireRequest) (*AcquireResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Acquire not implemented")
}
func (UnimplementedLockServiceServer) Release(context.Context, *ReleaseRequest) (*ReleaseResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Release not implemented")
}
func (UnimplementedLockServiceServer) Stat(context.Context, *StatRequest) (*StatResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Stat not implemented")
}
func (UnimplementedLockServiceServer) GetStatus(context.Context, *GetStatusRequest) (*GetStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetStatus not implemented")
}
func (UnimplementedLockServiceServer) mustEmbedUnimplementedLockServiceServer() {}

func RegisterLockServiceServer(s grpc.ServiceRegistrar, srv LockServiceServer) {
	s.RegisterService(&LockService_ServiceDesc, srv)
}

func _LockService_Acquire_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AcquireRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LockServiceServer).Acquire(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LockService_Acquire_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LockServiceServer).Acquire(ctx, req.(*AcquireRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LockService_Release_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ReleaseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LockServiceServer).Release(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LockService_Release_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LockServiceServer).Release(ctx, req.(*ReleaseRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LockService_Stat_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LockServiceServer).Stat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LockService_Stat_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LockServiceServer).Stat(ctx, req.(*StatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LockService_GetStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LockServiceServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LockService_GetStatus_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LockServiceServer).GetStatus(ctx, req.(*GetStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var LockService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "lockcache.v1.LockService",
	HandlerType: (*LockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Acquire", Handler: _LockService_Acquire_Handler},
		{MethodName: "Release", Handler: _LockService_Release_Handler},
		{MethodName: "Stat", Handler: _LockService_Stat_Handler},
		{MethodName: "GetStatus", Handler: _LockService_GetStatus_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/v1/lock.proto",
}

// LockCallbackClient is the client API for LockCallback, used by the server
// to reach a client.
type LockCallbackClient interface {
	Revoke(ctx context.Context, in *RevokeRequest, opts ...grpc.CallOption) (*CallbackResponse, error)
	Retry(ctx context.Context, in *RetryRequest, opts ...grpc.CallOption) (*CallbackResponse, error)
}

type lockCallbackClient struct {
	cc grpc.ClientConnInterface
}

func NewLockCallbackClient(cc grpc.ClientConnInterface) LockCallbackClient {
	return &lockCallbackClient{cc}
}

func (c *lockCallbackClient) Revoke(ctx context.Context, in *RevokeRequest, opts ...grpc.CallOption) (*CallbackResponse, error) {
	out := new(CallbackResponse)
	if err := c.cc.Invoke(ctx, LockCallback_Revoke_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lockCallbackClient) Retry(ctx context.Context, in *RetryRequest, opts ...grpc.CallOption) (*CallbackResponse, error) {
	out := new(CallbackResponse)
	if err := c.cc.Invoke(ctx, LockCallback_Retry_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// LockCallbackServer is the server API for LockCallback, implemented by
// client processes.
type LockCallbackServer interface {
	Revoke(context.Context, *RevokeRequest) (*CallbackResponse, error)
	Retry(context.Context, *RetryRequest) (*CallbackResponse, error)
	mustEmbedUnimplementedLockCallbackServer()
}

// UnimplementedLockCallbackServer must be embedded by LockCallbackServer
// implementations.
type UnimplementedLockCallbackServer struct{}

func (UnimplementedLockCallbackServer) Revoke(context.Context, *RevokeRequest) (*CallbackResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Revoke not implemented")
}
func (UnimplementedLockCallbackServer) Retry(context.Context, *RetryRequest) (*CallbackResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Retry not implemented")
}
func (UnimplementedLockCallbackServer) mustEmbedUnimplementedLockCallbackServer() {}

func RegisterLockCallbackServer(s grpc.ServiceRegistrar, srv LockCallbackServer) {
	s.RegisterService(&LockCallback_ServiceDesc, srv)
}

func _LockCallback_Revoke_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RevokeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LockCallbackServer).Revoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LockCallback_Revoke_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LockCallbackServer).Revoke(ctx, req.(*RevokeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LockCallback_Retry_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RetryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LockCallbackServer).Retry(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LockCallback_Retry_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LockCallbackServer).Retry(ctx, req.(*RetryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var LockCallback_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "lockcache.v1.LockCallback",
	HandlerType: (*LockCallbackServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Revoke", Handler: _LockCallback_Revoke_Handler},
		{MethodName: "Retry", Handler: _LockCallback_Retry_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/v1/lock.proto",
}

// every stub call goes out with the lockwire content subtype
func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{CallOption()}, opts...)
}
