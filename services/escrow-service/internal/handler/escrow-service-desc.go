package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "escrow.v1.TournamentEscrow"

	MethodCreate           = "Create"
	MethodDisplay          = "Display"
	MethodEnter            = "Enter"
	MethodFreePlaces       = "FreePlaces"
	MethodReward           = "Reward"
	MethodList             = "List"
	MethodContractMetadata = "ContractMetadata"

	// CallerHeader carries the authenticated account of the caller.
	CallerHeader = "x-account-id"
)

// EscrowServer exchanges google.protobuf.Struct messages so the service
// needs no generated code.
type EscrowServer interface {
	Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Display(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Enter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	FreePlaces(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Reward(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ContractMetadata(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv EscrowServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

var EscrowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EscrowServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodCreate, EscrowServer.Create),
		unaryMethod(MethodDisplay, EscrowServer.Display),
		unaryMethod(MethodEnter, EscrowServer.Enter),
		unaryMethod(MethodFreePlaces, EscrowServer.FreePlaces),
		unaryMethod(MethodReward, EscrowServer.Reward),
		unaryMethod(MethodList, EscrowServer.List),
		unaryMethod(MethodContractMetadata, EscrowServer.ContractMetadata),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "escrow/v1/escrow.proto",
}

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EscrowServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(EscrowServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func RegisterEscrowServer(s grpc.ServiceRegistrar, srv EscrowServer) {
	s.RegisterService(&EscrowServiceDesc, srv)
}

func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type EscrowClient struct {
	cc grpc.ClientConnInterface
}

func NewEscrowClient(cc grpc.ClientConnInterface) *EscrowClient {
	return &EscrowClient{cc: cc}
}

func (c *EscrowClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
