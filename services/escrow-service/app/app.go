package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jonboulle/clockwork"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/burakmert236/goodswipe-escrow/common/cache"
	"github.com/burakmert236/goodswipe-escrow/common/config"
	"github.com/burakmert236/goodswipe-escrow/common/database"
	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	commonevents "github.com/burakmert236/goodswipe-escrow/common/events"
	"github.com/burakmert236/goodswipe-escrow/common/logger"
	"github.com/burakmert236/goodswipe-escrow/common/natsjetstream"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/events/publisher"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/handler"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/payout"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/repository"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/scheduler"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/service"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/storage"
)

const ServiceName = "escrow-service"

// payoutDuplicateWindow covers several retry rounds so a transfer resent
// after a lost ack is not published twice.
const payoutDuplicateWindow = 10 * time.Minute

type App struct {
	cfg           *config.Config
	clock         clockwork.Clock
	grpcServer    *grpc.Server
	healthServer  *health.Server
	store         storage.Store
	natsClient    *natsjetstream.Client
	logger        *logger.Logger
	escrowService service.EscrowService
	journal       *payout.SQLJournal
	dispatcher    *payout.Dispatcher
	scheduler     *scheduler.Scheduler
	eventPub      *publisher.EventPublisher

	cleanup []func() error
}

func New(ctx context.Context, cfg *config.Config) (*App, *apperrors.AppError) {
	app := &App{
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		cleanup: make([]func() error, 0),
	}

	app.initLogger()

	if err := app.initStorage(ctx); err != nil {
		app.Stop()
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to init storage")
	}

	if err := app.initNATS(ctx); err != nil {
		app.Stop()
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to init nats client")
	}

	app.initEventPublisher()

	if err := app.initPayouts(); err != nil {
		app.Stop()
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to init payouts")
	}

	app.initService()
	app.initGRPC()

	if err := app.initScheduler(); err != nil {
		app.Stop()
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to init scheduler")
	}

	return app, nil
}

func (a *App) initLogger() {
	a.logger = logger.New(logger.Config{
		Level:       a.cfg.Server.LogLevel,
		Format:      a.cfg.Server.LogFormat,
		ServiceName: ServiceName,
	})
}

func (a *App) initStorage(ctx context.Context) *apperrors.AppError {
	var store storage.Store

	switch a.cfg.Storage.Backend {
	case "", "memory":
		store = storage.NewMemoryStore()

	case "dynamodb":
		dynamoClient, err := database.NewDynamoDBClient(ctx, a.cfg)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create DynamoDB client")
		}
		if a.cfg.DynamoDB.UseLocalEndpoint {
			if err := dynamoClient.EnsureTable(ctx); err != nil {
				return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to prepare DynamoDB table")
			}
		}
		store = storage.NewDynamoStore(dynamoClient)
		a.logger.Info("Using DynamoDB storage", "table", dynamoClient.Table())

	case "redis":
		redisClient, err := cache.NewRedisClient(ctx, a.cfg.Redis)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to create Redis client")
		}
		a.cleanup = append(a.cleanup, redisClient.Close)
		store = storage.NewRedisStore(redisClient.GetClient(), a.cfg.Storage.KeyPrefix)
		a.logger.Info("Using Redis storage", "address", a.cfg.Redis.Address)

	default:
		return apperrors.New(apperrors.CodeInvalidInput, "unknown storage backend: "+a.cfg.Storage.Backend)
	}

	if a.cfg.Storage.Backend != "" && a.cfg.Storage.Backend != "memory" && a.cfg.Storage.CacheSize > 0 {
		cached, err := storage.NewCachedStore(a.cfg.Storage.CacheSize, store)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to create storage cache")
		}
		store = cached
	}

	a.store = store
	return nil
}

// initNATS is skipped when no URL is configured; events then go to the
// log only.
func (a *App) initNATS(ctx context.Context) *apperrors.AppError {
	if a.cfg.NATS.URL == "" {
		a.logger.Info("NATS is not configured, events are logged only")
		return nil
	}

	natsClient, err := natsjetstream.NewClient(&natsjetstream.Config{
		URL:           a.cfg.NATS.URL,
		Name:          ServiceName,
		MaxReconnect:  a.cfg.NATS.MaxReconnect,
		ReconnectWait: time.Duration(a.cfg.NATS.ReconnectWaitSeconds) * time.Second,
		Timeout:       time.Duration(a.cfg.NATS.TimeoutSeconds) * time.Second,

		DuplicateWindow: payoutDuplicateWindow,
	}, a.logger)
	if err != nil {
		return err
	}
	a.natsClient = natsClient
	a.cleanup = append(a.cleanup, natsClient.Close)

	if err := natsClient.EnsureStream(ctx, commonevents.TournamentEventsStream, commonevents.TournamentEventsWildcard); err != nil {
		return err
	}
	if err := natsClient.EnsureStream(ctx, commonevents.PayoutStream, commonevents.PayoutWildcard); err != nil {
		return err
	}

	return nil
}

func (a *App) initEventPublisher() {
	sinks := []publisher.Sink{publisher.NewLogSink(a.logger.With("component", "events"))}
	if a.natsClient != nil {
		sinks = append(sinks, publisher.NewJetStreamSink(a.natsClient))
	}

	a.eventPub = publisher.NewEventPublisher(a.logger, sinks...)
}

func (a *App) initPayouts() *apperrors.AppError {
	journal, err := payout.OpenSQLJournal(a.cfg.Payout.JournalDSN, a.clock)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to open payout journal")
	}
	a.journal = journal
	a.cleanup = append(a.cleanup, journal.Close)

	if err := journal.Migrate(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to migrate payout journal")
	}

	var gateway payout.Gateway
	switch a.cfg.Payout.Gateway {
	case "", "log":
		gateway = payout.NewLogGateway(a.logger.With("component", "payout-gateway"))
	case "jetstream":
		if a.natsClient == nil {
			return apperrors.New(apperrors.CodeInvalidInput, "jetstream payout gateway requires nats.url")
		}
		gateway = payout.NewJetStreamGateway(a.natsClient)
	default:
		return apperrors.New(apperrors.CodeInvalidInput, "unknown payout gateway: "+a.cfg.Payout.Gateway)
	}

	a.dispatcher = payout.NewDispatcher(journal, gateway, a.logger, a.cfg.Payout.MaxAttempts, a.cfg.Payout.PendingTimeout)
	return nil
}

func (a *App) initService() {
	if a.cfg.Escrow.OwnerID == "" {
		a.logger.Warn("escrow.owner_id is empty, tournament creation is disabled")
	}

	var icon *string
	if a.cfg.Escrow.Icon != "" {
		icon = &a.cfg.Escrow.Icon
	}

	a.escrowService = service.NewEscrowService(
		a.store,
		repository.NewTournamentRepository(a.store),
		repository.NewParticipantRepository(),
		repository.NewPrizeRepository(),
		a.eventPub,
		a.dispatcher,
		service.Options{
			OwnerId:   a.cfg.Escrow.OwnerID,
			Name:      a.cfg.Escrow.Name,
			Icon:      icon,
			ListLimit: a.cfg.Escrow.ListLimit,
		},
		a.logger.With("component", "escrow"),
	)
}

func (a *App) initGRPC() {
	escrowHandler := handler.NewEscrowHandler(a.escrowService, a.logger)
	a.grpcServer, a.healthServer = handler.NewGRPCServer(escrowHandler, a.logger)
}

func (a *App) initScheduler() *apperrors.AppError {
	interval := a.cfg.Payout.RetryInterval
	job := scheduler.NewPayoutRetryJob(a.dispatcher, interval, a.logger.With("component", "scheduler"))

	s, err := scheduler.NewScheduler(job, interval, a.logger)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to create payout retry scheduler")
	}
	a.scheduler = s
	a.cleanup = append(a.cleanup, s.Stop)

	return nil
}

func (a *App) Start() *apperrors.AppError {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.GRPCPort))
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "failed to listen")
	}

	go func() {
		a.logger.Info("gRPC server listening", "port", a.cfg.Server.GRPCPort)
		if err := a.grpcServer.Serve(lis); err != nil {
			a.logger.Error("gRPC server stopped", "error", err)
		}
	}()

	a.scheduler.Start()

	a.logger.Info("Application started successfully", "environment", a.cfg.Server.Environment)
	return nil
}

// Stop releases resources in reverse order of acquisition.
func (a *App) Stop() *apperrors.AppError {
	a.logger.Info("Stopping application...")

	if a.healthServer != nil {
		a.healthServer.Shutdown()
	}
	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}

	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			a.logger.Error("Cleanup error", "error", err)
		}
	}
	a.cleanup = nil

	a.logger.Info("Application stopped")
	return nil
}

// Migrate applies the payout journal schema without starting the server.
func Migrate(cfg *config.Config) *apperrors.AppError {
	journal, err := payout.OpenSQLJournal(cfg.Payout.JournalDSN, clockwork.NewRealClock())
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to open payout journal")
	}
	defer journal.Close()

	if err := journal.Migrate(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to migrate payout journal")
	}
	return nil
}
