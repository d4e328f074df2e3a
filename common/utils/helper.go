package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/burakmert236/goodswipe-escrow/common/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs every unary call with its duration and the
// resulting gRPC status code.
func LoggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []interface{}{
			"method", info.FullMethod,
			"duration", time.Since(start),
			"code", status.Code(err).String(),
		}
		if err != nil {
			log.Warn("gRPC call failed", append(fields, "error", err)...)
		} else {
			log.Debug("gRPC call", fields...)
		}

		return resp, err
	}
}

// WaitForGracefulShutdown blocks until SIGINT/SIGTERM or ctx is done.
func WaitForGracefulShutdown(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}
