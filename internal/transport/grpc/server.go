package grpc_server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/domain"
	"github.com/jhubafrica/points-service/internal/infrastructure/security"
)

const ServiceName = "jhub.points.v1.ConsistencyAdmin"

// ConsistencyAdmin exposes the auditor and corrector to internal tooling.
// Requests and responses are google.protobuf.Struct so no generated stubs
// are needed.
type ConsistencyAdmin interface {
	ValidateConsistency(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CorrectUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CorrectAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AutoCorrect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type AdminServer struct {
	consistency *usecase.ConsistencyUseCase
}

var _ ConsistencyAdmin = (*AdminServer)(nil)

func NewAdminServer(consistency *usecase.ConsistencyUseCase) *AdminServer {
	return &AdminServer{consistency: consistency}
}

func (s *AdminServer) ValidateConsistency(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	report, err := s.consistency.ValidateSystemConsistency(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(report)
}

// CorrectUser expects {"userId": "<uuid>"}.
func (s *AdminServer) CorrectUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := req.GetFields()["userId"].GetStringValue()
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "userId must be a uuid")
	}
	res, err := s.consistency.CorrectUserData(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(res)
}

// CorrectAll accepts an optional {"resume": true}.
func (s *AdminServer) CorrectAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	opts := usecase.CorrectAllOptions{Resume: req.GetFields()["resume"].GetBoolValue()}
	res, err := s.consistency.CorrectAllUsersData(ctx, opts)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(res)
}

func (s *AdminServer) AutoCorrect(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.consistency.AutoCorrectSystem(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(res)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrCourseNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidCohortState), errors.Is(err, domain.ErrVersionConflict):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrInvalidAward):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct goes through JSON so responses match the HTTP payloads.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func unaryHandler(call func(ConsistencyAdmin, context.Context, *structpb.Struct) (*structpb.Struct, error), method string) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ConsistencyAdmin), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ConsistencyAdmin), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var ConsistencyAdminDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConsistencyAdmin)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(ConsistencyAdmin.ValidateConsistency, "ValidateConsistency"),
		unaryHandler(ConsistencyAdmin.CorrectUser, "CorrectUser"),
		unaryHandler(ConsistencyAdmin.CorrectAll, "CorrectAll"),
		unaryHandler(ConsistencyAdmin.AutoCorrect, "AutoCorrect"),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jhub/points/v1/admin.proto",
}

// NewServer builds a gRPC server with the admin service, health checks and
// reflection. Admin calls need an admin bearer token.
func NewServer(admin ConsistencyAdmin, tokens *security.TokenManager) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(grpc.UnaryInterceptor(AdminAuthInterceptor(tokens)))
	s.RegisterService(&ConsistencyAdminDesc, admin)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	reflection.Register(s)
	return s, hs
}
