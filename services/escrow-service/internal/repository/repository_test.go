package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/common/models"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/storage"
)

func createTournament(t *testing.T, store storage.Store, repo TournamentRepository, id string) {
	t.Helper()
	ctx := context.Background()

	tx := storage.NewTx(store)
	err := repo.Create(ctx, tx, id,
		&models.Tournament{OwnerId: "owner", Active: true},
		&models.TournamentMetadata{Name: id, PlayersNumber: 2, InPrice: 100},
	)
	require.Nil(t, err)
	require.NoError(t, tx.Commit(ctx))
}

func TestTournamentRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewTournamentRepository(store)

	createTournament(t, store, repo, "t1")

	tournament, err := repo.Get(ctx, store, "t1")
	require.Nil(t, err)
	assert.Equal(t, "owner", tournament.OwnerId)
	assert.True(t, tournament.Active)
	assert.Zero(t, tournament.Balance)

	metadata, err := repo.GetMetadata(ctx, store, "t1")
	require.Nil(t, err)
	assert.Equal(t, uint8(2), metadata.PlayersNumber)
	assert.Equal(t, uint64(100), metadata.InPrice)
}

func TestTournamentRepositoryCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewTournamentRepository(store)
	createTournament(t, store, repo, "t1")

	tx := storage.NewTx(store)
	err := repo.Create(ctx, tx, "t1",
		&models.Tournament{OwnerId: "intruder", Active: true},
		&models.TournamentMetadata{Name: "other", PlayersNumber: 9, InPrice: 1},
	)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeAlreadyExists, err.Code)

	tournament, getErr := repo.Get(ctx, store, "t1")
	require.Nil(t, getErr)
	assert.Equal(t, "owner", tournament.OwnerId)
}

func TestTournamentRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewTournamentRepository(store)

	_, err := repo.Get(ctx, store, "missing")
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeNotFound, err.Code)

	_, err = repo.GetMetadata(ctx, store, "missing")
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeNotFound, err.Code)

	err = repo.SetBalance(ctx, storage.NewTx(store), "missing", 5)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeNotFound, err.Code)
}

func TestTournamentRepositoryMutatorsStageOnTx(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewTournamentRepository(store)
	createTournament(t, store, repo, "t1")

	tx := storage.NewTx(store)
	require.Nil(t, repo.SetBalance(ctx, tx, "t1", 200))
	require.Nil(t, repo.SetActive(ctx, tx, "t1", false))

	staged, err := repo.Get(ctx, tx, "t1")
	require.Nil(t, err)
	assert.Equal(t, uint64(200), staged.Balance)
	assert.False(t, staged.Active)

	stored, err := repo.Get(ctx, store, "t1")
	require.Nil(t, err)
	assert.Zero(t, stored.Balance)
	assert.True(t, stored.Active)

	require.NoError(t, tx.Commit(ctx))

	stored, err = repo.Get(ctx, store, "t1")
	require.Nil(t, err)
	assert.Equal(t, uint64(200), stored.Balance)
	assert.False(t, stored.Active)
}

func TestTournamentRepositoryListIds(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewTournamentRepository(store)

	for _, id := range []string{"c", "a", "b"} {
		createTournament(t, store, repo, id)
	}

	ids, err := repo.ListIds(ctx, 0, 50)
	require.Nil(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	ids, err = repo.ListIds(ctx, 1, 1)
	require.Nil(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestParticipantRepository(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewParticipantRepository()

	count, err := repo.Count(ctx, store, "t1")
	require.Nil(t, err)
	assert.Zero(t, count)

	tx := storage.NewTx(store)
	added, err := repo.Add(ctx, tx, "t1", "alice")
	require.Nil(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, tx, "t1", "alice")
	require.Nil(t, err)
	assert.False(t, added)

	added, err = repo.Add(ctx, tx, "t1", "bob")
	require.Nil(t, err)
	assert.True(t, added)
	require.NoError(t, tx.Commit(ctx))

	count, err = repo.Count(ctx, store, "t1")
	require.Nil(t, err)
	assert.Equal(t, 2, count)

	added, err = repo.Add(ctx, storage.NewTx(store), "t1", "bob")
	require.Nil(t, err)
	assert.False(t, added)

	count, err = repo.Count(ctx, store, "t2")
	require.Nil(t, err)
	assert.Zero(t, count, "sets are independent per tournament")
}

func TestPrizeRepository(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewPrizeRepository()

	tx := storage.NewTx(store)
	require.Nil(t, repo.SetMany(ctx, tx, "t1", map[uint8]uint8{1: 60, 2: 40}))
	require.NoError(t, tx.Commit(ctx))

	tx = storage.NewTx(store)
	require.Nil(t, repo.SetMany(ctx, tx, "t1", map[uint8]uint8{2: 30, 3: 10}))
	require.NoError(t, tx.Commit(ctx))

	percent, err := repo.Get(ctx, store, "t1", 1)
	require.Nil(t, err)
	assert.Equal(t, uint8(60), percent, "merge keeps untouched ranks")

	percent, err = repo.Get(ctx, store, "t1", 2)
	require.Nil(t, err)
	assert.Equal(t, uint8(30), percent)

	_, err = repo.Get(ctx, store, "t1", 4)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeNotFound, err.Code)

	_, err = repo.Get(ctx, store, "missing", 1)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeNotFound, err.Code)

	found, err := repo.Find(ctx, store, "t1", 3)
	require.Nil(t, err)
	require.NotNil(t, found)
	assert.Equal(t, uint8(10), *found)

	found, err = repo.Find(ctx, store, "t1", 9)
	require.Nil(t, err)
	assert.Nil(t, found)
}
