package handler

import (
	"context"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/common/logger"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/service"
)

type EscrowHandler struct {
	escrowService service.EscrowService
	logger        *logger.Logger
}

var _ EscrowServer = (*EscrowHandler)(nil)

func NewEscrowHandler(escrowService service.EscrowService, logger *logger.Logger) *EscrowHandler {
	return &EscrowHandler{
		escrowService: escrowService,
		logger:        logger,
	}
}

func (h *EscrowHandler) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	create, err := createRequest(req)
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}

	if err := h.escrowService.CreateTournament(ctx, callerFromContext(ctx), create); err != nil {
		return nil, apperrors.ToGRPCError(err)
	}

	return respond(map[string]any{"tournament_id": create.TournamentId})
}

func createRequest(req *structpb.Struct) (service.CreateTournamentRequest, *apperrors.AppError) {
	var create service.CreateTournamentRequest
	var err *apperrors.AppError

	if create.TournamentId, err = requiredString(req, "tournament_id"); err != nil {
		return create, err
	}
	if create.Name, err = requiredString(req, "name"); err != nil {
		return create, err
	}
	if create.Icon, err = optionalString(req, "icon"); err != nil {
		return create, err
	}
	if create.OwnerId, err = requiredString(req, "owner_id"); err != nil {
		return create, err
	}

	playersNumber, err := requiredUnsigned(req, "players_number", math.MaxUint8)
	if err != nil {
		return create, err
	}
	create.PlayersNumber = uint8(playersNumber)

	if create.InPrice, err = requiredUnsigned(req, "in_price", math.MaxUint64); err != nil {
		return create, err
	}
	if create.Prizes, err = prizeTable(req, "prizes"); err != nil {
		return create, err
	}

	return create, nil
}

func (h *EscrowHandler) Display(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tournamentId, err := requiredString(req, "tournament_id")
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}

	view, err := h.escrowService.DisplayTournament(ctx, tournamentId)
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}
	if view == nil {
		return respond(map[string]any{"found": false})
	}

	return respond(map[string]any{
		"found":      true,
		"tournament": viewFields(view),
	})
}

func (h *EscrowHandler) Enter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tournamentId, err := requiredString(req, "tournament_id")
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}
	attached, err := requiredUnsigned(req, "attached_deposit", math.MaxUint64)
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}

	if err := h.escrowService.EnterTournament(ctx, tournamentId, callerFromContext(ctx), attached); err != nil {
		return nil, apperrors.ToGRPCError(err)
	}

	return respond(map[string]any{"tournament_id": tournamentId})
}

func (h *EscrowHandler) FreePlaces(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tournamentId, err := requiredString(req, "tournament_id")
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}

	free, found, err := h.escrowService.DisplayFreePlaces(ctx, tournamentId)
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}
	if !found {
		return respond(map[string]any{"found": false})
	}

	return respond(map[string]any{
		"found":       true,
		"free_places": free,
	})
}

func (h *EscrowHandler) Reward(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tournamentId, err := requiredString(req, "tournament_id")
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}
	winners, err := winnerTable(req, "winners")
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}

	if err := h.escrowService.RewardPrizes(ctx, tournamentId, callerFromContext(ctx), winners); err != nil {
		return nil, apperrors.ToGRPCError(err)
	}

	return respond(map[string]any{"tournament_id": tournamentId})
}

func (h *EscrowHandler) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	from, _, err := optionalUnsigned(req, "from_index", math.MaxInt32)
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}
	limit, _, err := optionalUnsigned(req, "limit", math.MaxInt32)
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}

	views, err := h.escrowService.DisplayTournaments(ctx, int(from), int(limit))
	if err != nil {
		return nil, apperrors.ToGRPCError(err)
	}

	tournaments := make([]any, 0, len(views))
	for i := range views {
		tournaments = append(tournaments, viewFields(&views[i]))
	}

	return respond(map[string]any{"tournaments": tournaments})
}

func (h *EscrowHandler) ContractMetadata(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	meta := h.escrowService.ContractMetadata()

	fields := map[string]any{"name": meta.Name, "icon": nil}
	if meta.Icon != nil {
		fields["icon"] = *meta.Icon
	}
	return respond(fields)
}

func respond(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, apperrors.ToGRPCError(apperrors.Wrap(err, apperrors.CodeObjectMarshalError, "failed to build response"))
	}
	return resp, nil
}
