package handler

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/common/logger"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/events/publisher"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/repository"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/service"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/storage"
)

const contractOwner = "escrow.owner"

func setupClient(t *testing.T) (*EscrowClient, *grpc.ClientConn) {
	t.Helper()

	store := storage.NewMemoryStore()
	icon := "https://example.com/escrow.png"
	escrowService := service.NewEscrowService(
		store,
		repository.NewTournamentRepository(store),
		repository.NewParticipantRepository(),
		repository.NewPrizeRepository(),
		publisher.NewEventPublisher(logger.Nop()),
		nil,
		service.Options{OwnerId: contractOwner, Name: "Test Escrow", Icon: &icon},
		logger.Nop(),
	)

	server, _ := NewGRPCServer(NewEscrowHandler(escrowService, logger.Nop()), logger.Nop())

	lis := bufconn.Listen(1024 * 1024)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewEscrowClient(conn), conn
}

func as(account string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), CallerHeader, account)
}

func message(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	msg, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return msg
}

func call(t *testing.T, client *EscrowClient, ctx context.Context, method string, fields map[string]any) *structpb.Struct {
	t.Helper()
	resp, err := client.Call(ctx, method, message(t, fields))
	require.NoError(t, err)
	return resp
}

// requireCode maps the status back to the service error code, so these
// assertions read the same as the service tests.
func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.FromGRPCError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func createT1(t *testing.T, client *EscrowClient) {
	call(t, client, as(contractOwner), MethodCreate, map[string]any{
		"tournament_id":  "t1",
		"name":           "Weekly Cup",
		"players_number": 2,
		"in_price":       "100",
		"owner_id":       "organizer",
		"prizes":         map[string]any{"1": 60, "2": 40},
	})
}

func TestEscrowScenarioOverGRPC(t *testing.T) {
	client, _ := setupClient(t)
	createT1(t, client)

	call(t, client, as("alice"), MethodEnter, map[string]any{"tournament_id": "t1", "attached_deposit": "100"})
	call(t, client, as("bob"), MethodEnter, map[string]any{"tournament_id": "t1", "attached_deposit": 150})

	free := call(t, client, as("anyone"), MethodFreePlaces, map[string]any{"tournament_id": "t1"})
	assert.True(t, free.GetFields()["found"].GetBoolValue())
	assert.Equal(t, float64(0), free.GetFields()["free_places"].GetNumberValue())

	display := call(t, client, as("anyone"), MethodDisplay, map[string]any{"tournament_id": "t1"})
	require.True(t, display.GetFields()["found"].GetBoolValue())
	view := display.GetFields()["tournament"].GetStructValue().GetFields()
	assert.Equal(t, "Weekly Cup", view["name"].GetStringValue())
	assert.Equal(t, "200", view["prize_fund"].GetStringValue())
	assert.Equal(t, float64(60), view["first_place_prize"].GetNumberValue())
	assert.Equal(t, float64(40), view["second_place_prize"].GetNumberValue())
	_, thirdIsNull := view["third_place_prize"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, thirdIsNull)
	assert.True(t, view["active"].GetBoolValue())

	call(t, client, as("organizer"), MethodReward, map[string]any{
		"tournament_id": "t1",
		"winners":       map[string]any{"1": "alice", "2": "bob"},
	})

	display = call(t, client, as("anyone"), MethodDisplay, map[string]any{"tournament_id": "t1"})
	view = display.GetFields()["tournament"].GetStructValue().GetFields()
	assert.Equal(t, "0", view["prize_fund"].GetStringValue())
	assert.False(t, view["active"].GetBoolValue())

	_, err := client.Call(as("organizer"), MethodReward, message(t, map[string]any{
		"tournament_id": "t1",
		"winners":       map[string]any{"1": "alice"},
	}))
	requireCode(t, err, apperrors.CodeFailedPrecondition)
}

func TestErrorStatusesOverGRPC(t *testing.T) {
	client, _ := setupClient(t)
	createT1(t, client)

	tests := []struct {
		name   string
		caller string
		method string
		fields map[string]any
		code   string
	}{
		{"create by stranger", "alice", MethodCreate, map[string]any{
			"tournament_id": "t2", "name": "x", "players_number": 2, "in_price": "1", "owner_id": "alice",
		}, apperrors.CodeForbidden},
		{"duplicate create", contractOwner, MethodCreate, map[string]any{
			"tournament_id": "t1", "name": "x", "players_number": 2, "in_price": "1", "owner_id": "alice",
		}, apperrors.CodeAlreadyExists},
		{"zero price", contractOwner, MethodCreate, map[string]any{
			"tournament_id": "t3", "name": "x", "players_number": 2, "in_price": "0", "owner_id": "alice",
		}, apperrors.CodeInvalidInput},
		{"capacity out of range", contractOwner, MethodCreate, map[string]any{
			"tournament_id": "t3", "name": "x", "players_number": 300, "in_price": "1", "owner_id": "alice",
		}, apperrors.CodeInvalidInput},
		{"missing name", contractOwner, MethodCreate, map[string]any{
			"tournament_id": "t3", "players_number": 2, "in_price": "1", "owner_id": "alice",
		}, apperrors.CodeInvalidInput},
		{"fractional deposit", "alice", MethodEnter, map[string]any{"tournament_id": "t1", "attached_deposit": 1.5}, apperrors.CodeInvalidInput},
		{"small deposit", "alice", MethodEnter, map[string]any{"tournament_id": "t1", "attached_deposit": "99"}, apperrors.CodeInvalidInput},
		{"unknown tournament", "alice", MethodEnter, map[string]any{"tournament_id": "nope", "attached_deposit": "100"}, apperrors.CodeNotFound},
		{"reward by stranger", "alice", MethodReward, map[string]any{
			"tournament_id": "t1", "winners": map[string]any{"1": "alice"},
		}, apperrors.CodeForbidden},
		{"bad rank", "organizer", MethodReward, map[string]any{
			"tournament_id": "t1", "winners": map[string]any{"first": "alice"},
		}, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Call(as(tt.caller), tt.method, message(t, tt.fields))
			requireCode(t, err, tt.code)
		})
	}
}

func TestDisplayUnknownOverGRPC(t *testing.T) {
	client, _ := setupClient(t)

	display := call(t, client, context.Background(), MethodDisplay, map[string]any{"tournament_id": "missing"})
	assert.False(t, display.GetFields()["found"].GetBoolValue())

	free := call(t, client, context.Background(), MethodFreePlaces, map[string]any{"tournament_id": "missing"})
	assert.False(t, free.GetFields()["found"].GetBoolValue())
}

func TestListOverGRPC(t *testing.T) {
	client, _ := setupClient(t)
	for _, id := range []string{"a", "b", "c"} {
		call(t, client, as(contractOwner), MethodCreate, map[string]any{
			"tournament_id": id, "name": id, "players_number": 4, "in_price": "10", "owner_id": "organizer",
		})
	}

	list := call(t, client, context.Background(), MethodList, map[string]any{})
	assert.Len(t, list.GetFields()["tournaments"].GetListValue().GetValues(), 3)

	list = call(t, client, context.Background(), MethodList, map[string]any{"from_index": "1", "limit": 1})
	values := list.GetFields()["tournaments"].GetListValue().GetValues()
	require.Len(t, values, 1)
	assert.Equal(t, "b", values[0].GetStructValue().GetFields()["tournament_id"].GetStringValue())
}

func TestContractMetadataOverGRPC(t *testing.T) {
	client, _ := setupClient(t)

	meta := call(t, client, context.Background(), MethodContractMetadata, map[string]any{})
	assert.Equal(t, "Test Escrow", meta.GetFields()["name"].GetStringValue())
	assert.Equal(t, "https://example.com/escrow.png", meta.GetFields()["icon"].GetStringValue())
}

func TestHealthServing(t *testing.T) {
	_, conn := setupClient(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
