package repository

import (
	"context"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/common/models"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/storage"
)

// TournamentRepository owns tournament records and their metadata. Writes
// are staged on a transaction; reads go through any storage.Reader so a
// pending transaction sees its own writes.
type TournamentRepository interface {
	Create(ctx context.Context, tx *storage.Tx, tournamentId string, tournament *models.Tournament, metadata *models.TournamentMetadata) *apperrors.AppError
	Get(ctx context.Context, r storage.Reader, tournamentId string) (*models.Tournament, *apperrors.AppError)
	GetMetadata(ctx context.Context, r storage.Reader, tournamentId string) (*models.TournamentMetadata, *apperrors.AppError)
	SetBalance(ctx context.Context, tx *storage.Tx, tournamentId string, balance uint64) *apperrors.AppError
	SetActive(ctx context.Context, tx *storage.Tx, tournamentId string, active bool) *apperrors.AppError
	ListIds(ctx context.Context, from, limit int) ([]string, *apperrors.AppError)
}

type tournamentRepo struct {
	store storage.Store
}

func NewTournamentRepository(store storage.Store) TournamentRepository {
	return &tournamentRepo{store: store}
}

func (r *tournamentRepo) Create(
	ctx context.Context,
	tx *storage.Tx,
	tournamentId string,
	tournament *models.Tournament,
	metadata *models.TournamentMetadata,
) *apperrors.AppError {
	inserted, err := insertRecord(ctx, tx, models.TournamentPK(tournamentId), tournament)
	if err != nil {
		return err
	}
	if !inserted {
		return apperrors.New(apperrors.CodeAlreadyExists, "tournament already exists: "+tournamentId)
	}

	inserted, err = insertRecord(ctx, tx, models.MetadataPK(tournamentId), metadata)
	if err != nil {
		return err
	}
	if !inserted {
		return apperrors.New(apperrors.CodeAlreadyExists, "tournament metadata already exists: "+tournamentId)
	}

	tx.Append(models.TournamentsSeq(), tournamentId)
	return nil
}

func (r *tournamentRepo) Get(ctx context.Context, reader storage.Reader, tournamentId string) (*models.Tournament, *apperrors.AppError) {
	var tournament models.Tournament
	found, err := getRecord(ctx, reader, models.TournamentPK(tournamentId), &tournament)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.New(apperrors.CodeNotFound, "tournament not found: "+tournamentId)
	}

	return &tournament, nil
}

func (r *tournamentRepo) GetMetadata(ctx context.Context, reader storage.Reader, tournamentId string) (*models.TournamentMetadata, *apperrors.AppError) {
	var metadata models.TournamentMetadata
	found, err := getRecord(ctx, reader, models.MetadataPK(tournamentId), &metadata)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.New(apperrors.CodeNotFound, "tournament metadata not found: "+tournamentId)
	}

	return &metadata, nil
}

func (r *tournamentRepo) SetBalance(ctx context.Context, tx *storage.Tx, tournamentId string, balance uint64) *apperrors.AppError {
	tournament, err := r.Get(ctx, tx, tournamentId)
	if err != nil {
		return err
	}

	tournament.Balance = balance
	return putRecord(tx, models.TournamentPK(tournamentId), tournament)
}

func (r *tournamentRepo) SetActive(ctx context.Context, tx *storage.Tx, tournamentId string, active bool) *apperrors.AppError {
	tournament, err := r.Get(ctx, tx, tournamentId)
	if err != nil {
		return err
	}

	tournament.Active = active
	return putRecord(tx, models.TournamentPK(tournamentId), tournament)
}

// ListIds pages through tournament ids in creation order.
func (r *tournamentRepo) ListIds(ctx context.Context, from, limit int) ([]string, *apperrors.AppError) {
	ids, err := r.store.Range(ctx, models.TournamentsSeq(), from, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list tournaments")
	}
	return ids, nil
}
