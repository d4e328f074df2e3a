package handler

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/burakmert236/goodswipe-escrow/common/logger"
	"github.com/burakmert236/goodswipe-escrow/common/utils"
)

// NewGRPCServer registers the escrow service together with the standard
// health and reflection services.
func NewGRPCServer(escrowHandler *EscrowHandler, log *logger.Logger) (*grpc.Server, *health.Server) {
	server := grpc.NewServer(
		grpc.UnaryInterceptor(utils.LoggingInterceptor(log)),
	)

	RegisterEscrowServer(server, escrowHandler)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	reflection.Register(server)

	return server, healthServer
}
