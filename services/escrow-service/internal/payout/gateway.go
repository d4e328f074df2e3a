package payout

import (
	"context"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	commonevents "github.com/burakmert236/goodswipe-escrow/common/events"
	"github.com/burakmert236/goodswipe-escrow/common/logger"
	"github.com/burakmert236/goodswipe-escrow/common/models"
	"github.com/burakmert236/goodswipe-escrow/common/natsjetstream"
)

// Gateway moves funds to an account on the payment rail.
type Gateway interface {
	Send(ctx context.Context, transfer models.Transfer) error
}

type GatewayFunc func(ctx context.Context, transfer models.Transfer) error

func (f GatewayFunc) Send(ctx context.Context, transfer models.Transfer) error {
	return f(ctx, transfer)
}

// LogGateway only records the transfer. Used when no payment rail is
// configured.
type LogGateway struct {
	logger *logger.Logger
}

func NewLogGateway(logger *logger.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(ctx context.Context, transfer models.Transfer) error {
	g.logger.Info("Transfer requested",
		"transfer_id", transfer.Id,
		"tournament_id", transfer.TournamentId,
		"account_id", transfer.AccountId,
		"amount", transfer.Amount,
		"kind", string(transfer.Kind),
	)
	return nil
}

// JetStreamGateway publishes a transfer request for the payment worker.
type JetStreamGateway struct {
	publisher *natsjetstream.Publisher
}

func NewJetStreamGateway(client *natsjetstream.Client) *JetStreamGateway {
	return &JetStreamGateway{publisher: natsjetstream.NewPublisher(client)}
}

func (g *JetStreamGateway) Send(ctx context.Context, transfer models.Transfer) error {
	msg, err := transferMessage(transfer)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeObjectMarshalError, "failed to build transfer message")
	}

	if err := g.publisher.PublishProto(ctx, commonevents.PayoutTransferRequested, transfer.Id, msg); err != nil {
		return err
	}
	return nil
}

func transferMessage(transfer models.Transfer) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"transfer_id":   transfer.Id,
		"tournament_id": transfer.TournamentId,
		"account_id":    transfer.AccountId,
		"amount":        strconv.FormatUint(transfer.Amount, 10),
		"kind":          string(transfer.Kind),
		"rank":          int64(transfer.Rank),
	})
}
