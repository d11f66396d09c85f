package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	KioskService_Heartbeat_FullMethodName   = "/roomwatch.KioskService/Heartbeat"
	KioskService_RequestHelp_FullMethodName = "/roomwatch.KioskService/RequestHelp"
	KioskService_Subscribe_FullMethodName   = "/roomwatch.KioskService/Subscribe"
)

// KioskServiceClient is the kiosk side of the service. Every call is sent
// with the json content-subtype.
type KioskServiceClient interface {
	Heartbeat(ctx context.Context, in *HeartbeatRequest, opts ...grpc.CallOption) (*HeartbeatResponse, error)
	RequestHelp(ctx context.Context, in *HelpRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (KioskService_SubscribeClient, error)
}

type kioskServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewKioskServiceClient(cc grpc.ClientConnInterface) KioskServiceClient {
	return &kioskServiceClient{cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *kioskServiceClient) Heartbeat(ctx context.Context, in *HeartbeatRequest, opts ...grpc.CallOption) (*HeartbeatResponse, error) {
	out := new(HeartbeatResponse)
	if err := c.cc.Invoke(ctx, KioskService_Heartbeat_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *kioskServiceClient) RequestHelp(ctx context.Context, in *HelpRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, KioskService_RequestHelp_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *kioskServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (KioskService_SubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &KioskService_ServiceDesc.Streams[0], KioskService_Subscribe_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &kioskServiceSubscribeClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type KioskService_SubscribeClient interface {
	Recv() (*Notification, error)
	grpc.ClientStream
}

type kioskServiceSubscribeClient struct {
	grpc.ClientStream
}

func (x *kioskServiceSubscribeClient) Recv() (*Notification, error) {
	m := new(Notification)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// KioskServiceServer is implemented by the operator server.
type KioskServiceServer interface {
	Heartbeat(context.Context, *HeartbeatRequest) (*HeartbeatResponse, error)
	RequestHelp(context.Context, *HelpRequest) (*emptypb.Empty, error)
	Subscribe(*SubscribeRequest, KioskService_SubscribeServer) error
}

type UnimplementedKioskServiceServer struct{}

func (UnimplementedKioskServiceServer) Heartbeat(context.Context, *HeartbeatRequest) (*HeartbeatResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Heartbeat not implemented")
}

func (UnimplementedKioskServiceServer) RequestHelp(context.Context, *HelpRequest) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RequestHelp not implemented")
}

func (UnimplementedKioskServiceServer) Subscribe(*SubscribeRequest, KioskService_SubscribeServer) error {
	return status.Errorf(codes.Unimplemented, "method Subscribe not implemented")
}

func RegisterKioskServiceServer(s grpc.ServiceRegistrar, srv KioskServiceServer) {
	s.RegisterService(&KioskService_ServiceDesc, srv)
}

func _KioskService_Heartbeat_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HeartbeatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KioskServiceServer).Heartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: KioskService_Heartbeat_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KioskServiceServer).Heartbeat(ctx, req.(*HeartbeatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _KioskService_RequestHelp_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HelpRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KioskServiceServer).RequestHelp(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: KioskService_RequestHelp_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KioskServiceServer).RequestHelp(ctx, req.(*HelpRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _KioskService_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(KioskServiceServer).Subscribe(m, &kioskServiceSubscribeServer{stream})
}

type KioskService_SubscribeServer interface {
	Send(*Notification) error
	grpc.ServerStream
}

type kioskServiceSubscribeServer struct {
	grpc.ServerStream
}

func (x *kioskServiceSubscribeServer) Send(m *Notification) error {
	return x.ServerStream.SendMsg(m)
}

var KioskService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "roomwatch.KioskService",
	HandlerType: (*KioskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Heartbeat",
			Handler:    _KioskService_Heartbeat_Handler,
		},
		{
			MethodName: "RequestHelp",
			Handler:    _KioskService_RequestHelp_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _KioskService_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "kiosk.proto",
}
