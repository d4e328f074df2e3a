package repository

import (
	"context"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/common/models"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/storage"
)

type ParticipantRepository interface {
	// Add reports false when the account is already enrolled.
	Add(ctx context.Context, tx *storage.Tx, tournamentId, accountId string) (bool, *apperrors.AppError)
	Count(ctx context.Context, r storage.Reader, tournamentId string) (int, *apperrors.AppError)
}

type participant struct {
	AccountId string `json:"account_id"`
}

type participantRepo struct{}

func NewParticipantRepository() ParticipantRepository {
	return &participantRepo{}
}

func (r *participantRepo) Add(ctx context.Context, tx *storage.Tx, tournamentId, accountId string) (bool, *apperrors.AppError) {
	inserted, err := insertRecord(ctx, tx, models.PlayerPK(tournamentId, accountId), participant{AccountId: accountId})
	if err != nil || !inserted {
		return false, err
	}

	count, err := r.Count(ctx, tx, tournamentId)
	if err != nil {
		return false, err
	}

	if err := putRecord(tx, models.PlayersLenPK(tournamentId), count+1); err != nil {
		return false, err
	}
	return true, nil
}

// Count is zero for a tournament nobody entered yet.
func (r *participantRepo) Count(ctx context.Context, reader storage.Reader, tournamentId string) (int, *apperrors.AppError) {
	var count int
	if _, err := getRecord(ctx, reader, models.PlayersLenPK(tournamentId), &count); err != nil {
		return 0, err
	}
	return count, nil
}
