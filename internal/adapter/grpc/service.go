package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProjectionServiceName is the fully qualified gRPC service name
const ProjectionServiceName = "bpinvest.v1.ProjectionService"

// ProjectionServiceServer is the server API of the projection service.
// Every request and response is a google.protobuf.Struct.
type ProjectionServiceServer interface {
	SaveAssumptions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Project(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLatestProjection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompareScenarios(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProperties(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(ProjectionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ProjectionServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ProjectionServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ProjectionServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ProjectionService_ServiceDesc describes the projection service for grpc.ServiceRegistrar
var ProjectionService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ProjectionServiceName,
	HandlerType: (*ProjectionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("SaveAssumptions", ProjectionServiceServer.SaveAssumptions),
		methodDesc("Project", ProjectionServiceServer.Project),
		methodDesc("GetLatestProjection", ProjectionServiceServer.GetLatestProjection),
		methodDesc("CompareScenarios", ProjectionServiceServer.CompareScenarios),
		methodDesc("ListProperties", ProjectionServiceServer.ListProperties),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bpinvest/v1/projection.proto",
}

// RegisterProjectionServiceServer registers srv on s
func RegisterProjectionServiceServer(s grpc.ServiceRegistrar, srv ProjectionServiceServer) {
	s.RegisterService(&ProjectionService_ServiceDesc, srv)
}

// ProjectionServiceClient calls the projection service over a client connection
type ProjectionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewProjectionServiceClient creates a new client on cc
func NewProjectionServiceClient(cc grpc.ClientConnInterface) *ProjectionServiceClient {
	return &ProjectionServiceClient{cc: cc}
}

func (c *ProjectionServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ProjectionServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProjectionServiceClient) SaveAssumptions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SaveAssumptions", in, opts...)
}

func (c *ProjectionServiceClient) Project(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Project", in, opts...)
}

func (c *ProjectionServiceClient) GetLatestProjection(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetLatestProjection", in, opts...)
}

func (c *ProjectionServiceClient) CompareScenarios(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CompareScenarios", in, opts...)
}

func (c *ProjectionServiceClient) ListProperties(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListProperties", in, opts...)
}
