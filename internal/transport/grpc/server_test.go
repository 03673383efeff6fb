package grpc_server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jhubafrica/points-service/internal/application/usecase"
	"github.com/jhubafrica/points-service/internal/domain"
	"github.com/jhubafrica/points-service/internal/infrastructure/logger"
	"github.com/jhubafrica/points-service/internal/infrastructure/repository/memory"
	"github.com/jhubafrica/points-service/internal/infrastructure/security"
)

type fixture struct {
	conn   *grpc.ClientConn
	db     *memory.DB
	tokens *security.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewDB()
	stores := db.Stores()
	points := usecase.NewPointsUseCase(stores, nil, logger.Discard(), usecase.PointsOptions{})
	consistency := usecase.NewConsistencyUseCase(points, stores, nil, logger.Discard(), usecase.ConsistencyOptions{})
	tokens := security.NewTokenManager("grpc-secret")

	srv, _ := NewServer(NewAdminServer(consistency), tokens)
	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &fixture{conn: conn, db: db, tokens: tokens}
}

func (f *fixture) call(t *testing.T, role domain.UserRole, method string, in *structpb.Struct) (*structpb.Struct, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if role != "" {
		tok, err := f.tokens.Generate(uuid.New(), role, time.Minute)
		require.NoError(t, err)
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
	}
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	err := f.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
	return out, err
}

func TestAdmin_RequiresAdminToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.call(t, "", "ValidateConsistency", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = f.call(t, domain.RoleStudent, "ValidateConsistency", nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestAdmin_ValidateAndCorrectUser(t *testing.T) {
	f := newFixture(t)
	u := f.db.PutUser(domain.User{Email: "kamau@jhub.africa", EmailVerified: true, ProfileComplete: true})

	out, err := f.call(t, domain.RoleAdmin, "ValidateConsistency", nil)
	require.NoError(t, err)
	assert.False(t, out.GetFields()["isConsistent"].GetBoolValue())
	assert.Equal(t, float64(1), out.GetFields()["totalUsers"].GetNumberValue())

	in, err := structpb.NewStruct(map[string]interface{}{"userId": u.ID.String()})
	require.NoError(t, err)
	out, err = f.call(t, domain.RoleAdmin, "CorrectUser", in)
	require.NoError(t, err)
	assert.Equal(t, float64(50), out.GetFields()["points"].GetNumberValue())

	out, err = f.call(t, domain.RoleAdmin, "AutoCorrect", nil)
	require.NoError(t, err)
	assert.True(t, out.GetFields()["after"].GetStructValue().GetFields()["isConsistent"].GetBoolValue())
}

func TestAdmin_CorrectUserErrors(t *testing.T) {
	f := newFixture(t)

	in, _ := structpb.NewStruct(map[string]interface{}{"userId": "nope"})
	_, err := f.call(t, domain.RoleAdmin, "CorrectUser", in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	in, _ = structpb.NewStruct(map[string]interface{}{"userId": uuid.NewString()})
	_, err = f.call(t, domain.RoleAdmin, "CorrectUser", in)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestAdmin_CorrectAll(t *testing.T) {
	f := newFixture(t)
	f.db.PutUser(domain.User{Email: "a@jhub.africa", EmailVerified: true})
	f.db.PutUser(domain.User{Email: "b@jhub.africa", EmailVerified: true})

	in, _ := structpb.NewStruct(map[string]interface{}{"resume": true})
	out, err := f.call(t, domain.RoleAdmin, "CorrectAll", in)
	require.NoError(t, err)
	assert.Equal(t, float64(2), out.GetFields()["processedUsers"].GetNumberValue())
}

func TestHealthIsOpen(t *testing.T) {
	f := newFixture(t)
	res, err := healthpb.NewHealthClient(f.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.Status)
}
