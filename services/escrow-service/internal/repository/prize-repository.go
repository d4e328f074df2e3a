package repository

import (
	"context"
	"fmt"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/common/models"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/storage"
)

type PrizeRepository interface {
	// SetMany upserts ranks into the table. Ranks not in prizes are kept.
	SetMany(ctx context.Context, tx *storage.Tx, tournamentId string, prizes map[uint8]uint8) *apperrors.AppError
	Get(ctx context.Context, r storage.Reader, tournamentId string, rank uint8) (uint8, *apperrors.AppError)
	// Find returns nil when the rank is not configured.
	Find(ctx context.Context, r storage.Reader, tournamentId string, rank uint8) (*uint8, *apperrors.AppError)
}

type prize struct {
	Percent uint8 `json:"percent"`
}

type prizeRepo struct{}

func NewPrizeRepository() PrizeRepository {
	return &prizeRepo{}
}

func (r *prizeRepo) SetMany(ctx context.Context, tx *storage.Tx, tournamentId string, prizes map[uint8]uint8) *apperrors.AppError {
	for rank, percent := range prizes {
		if err := putRecord(tx, models.PrizePK(tournamentId, rank), prize{Percent: percent}); err != nil {
			return err
		}
	}
	return nil
}

func (r *prizeRepo) Get(ctx context.Context, reader storage.Reader, tournamentId string, rank uint8) (uint8, *apperrors.AppError) {
	percent, err := r.Find(ctx, reader, tournamentId, rank)
	if err != nil {
		return 0, err
	}
	if percent == nil {
		return 0, apperrors.New(apperrors.CodeNotFound,
			fmt.Sprintf("prize for rank %d is not configured in tournament %s", rank, tournamentId))
	}
	return *percent, nil
}

func (r *prizeRepo) Find(ctx context.Context, reader storage.Reader, tournamentId string, rank uint8) (*uint8, *apperrors.AppError) {
	var p prize
	found, err := getRecord(ctx, reader, models.PrizePK(tournamentId, rank), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p.Percent, nil
}
