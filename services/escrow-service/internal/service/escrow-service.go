package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/common/logger"
	"github.com/burakmert236/goodswipe-escrow/common/models"
	escrowerrors "github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/errors"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/events/publisher"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/percent"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/repository"
	"github.com/burakmert236/goodswipe-escrow/services/escrow-service/internal/storage"
)

const (
	DefaultListLimit    = 50
	DefaultContractName = "Tournament Escrow"

	// Excess deposits of at most this many units are kept by the escrow.
	withheldRefund = 1

	// MaxPrizeRanks keeps a creation inside one storage transaction: the
	// registry record, the metadata and the id sequence take three of the
	// hundred items DynamoDB allows.
	MaxPrizeRanks = 96
)

type EscrowService interface {
	CreateTournament(ctx context.Context, caller string, req CreateTournamentRequest) *apperrors.AppError
	EnterTournament(ctx context.Context, tournamentId, caller string, attached uint64) *apperrors.AppError
	// DisplayFreePlaces reports false for an unknown tournament.
	DisplayFreePlaces(ctx context.Context, tournamentId string) (int, bool, *apperrors.AppError)
	// DisplayTournament returns nil for an unknown tournament.
	DisplayTournament(ctx context.Context, tournamentId string) (*models.TournamentView, *apperrors.AppError)
	DisplayTournaments(ctx context.Context, from, limit int) ([]models.TournamentView, *apperrors.AppError)
	RewardPrizes(ctx context.Context, tournamentId, caller string, winners map[uint8]string) *apperrors.AppError
	ContractMetadata() models.ContractMetadata
}

type CreateTournamentRequest struct {
	TournamentId  string
	Name          string
	Icon          *string
	PlayersNumber uint8
	InPrice       uint64
	OwnerId       string
	Prizes        map[uint8]uint8
}

// TransferDispatcher sends transfers once the ledger change is committed.
type TransferDispatcher interface {
	Dispatch(ctx context.Context, transfers []models.Transfer) error
}

type Options struct {
	OwnerId   string
	Name      string
	Icon      *string
	ListLimit int
}

type escrowService struct {
	// mu serializes every mutating call in this process; views share the
	// read lock. Instances sharing a store are kept apart by the
	// transaction's read checks at commit.
	mu sync.RWMutex

	store           storage.Store
	tournamentRepo  repository.TournamentRepository
	participantRepo repository.ParticipantRepository
	prizeRepo       repository.PrizeRepository
	eventPublisher  *publisher.EventPublisher
	dispatcher      TransferDispatcher
	opts            Options
	logger          *logger.Logger
}

func NewEscrowService(
	store storage.Store,
	tournamentRepo repository.TournamentRepository,
	participantRepo repository.ParticipantRepository,
	prizeRepo repository.PrizeRepository,
	eventPublisher *publisher.EventPublisher,
	dispatcher TransferDispatcher,
	opts Options,
	logger *logger.Logger,
) EscrowService {
	if opts.ListLimit <= 0 {
		opts.ListLimit = DefaultListLimit
	}
	if opts.Name == "" {
		opts.Name = DefaultContractName
	}

	return &escrowService{
		store:           store,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		prizeRepo:       prizeRepo,
		eventPublisher:  eventPublisher,
		dispatcher:      dispatcher,
		opts:            opts,
		logger:          logger,
	}
}

func (s *escrowService) CreateTournament(ctx context.Context, caller string, req CreateTournamentRequest) *apperrors.AppError {
	if err := s.createTournament(ctx, caller, req); err != nil {
		return err
	}

	s.logger.Info("Tournament created",
		"tournament_id", req.TournamentId,
		"players_number", req.PlayersNumber,
		"in_price", req.InPrice,
	)

	if err := s.eventPublisher.PublishTournamentCreated(ctx, req.TournamentId, req.PlayersNumber, req.InPrice); err != nil {
		s.logger.Warn("Tournament created event was not delivered", "tournament_id", req.TournamentId, "error", err)
	}

	return nil
}

func (s *escrowService) createTournament(ctx context.Context, caller string, req CreateTournamentRequest) *apperrors.AppError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.OwnerId == "" || caller != s.opts.OwnerId {
		return escrowerrors.ContractOwnerOnlyError()
	}

	if err := validateCreateRequest(req); err != nil {
		return err
	}

	tx := storage.NewTx(s.store)

	tournament := &models.Tournament{
		OwnerId: req.OwnerId,
		Active:  true,
		Balance: 0,
	}
	metadata := &models.TournamentMetadata{
		Name:          req.Name,
		Icon:          req.Icon,
		PlayersNumber: req.PlayersNumber,
		InPrice:       req.InPrice,
	}

	if err := s.tournamentRepo.Create(ctx, tx, req.TournamentId, tournament, metadata); err != nil {
		return err
	}

	if err := s.prizeRepo.SetMany(ctx, tx, req.TournamentId, req.Prizes); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return apperrors.Wrap(err, apperrors.CodeAlreadyExists, "tournament already exists: "+req.TournamentId)
		}
		return apperrors.Wrap(err, apperrors.CodeTransactionError, "failed to create tournament")
	}

	return nil
}

func validateCreateRequest(req CreateTournamentRequest) *apperrors.AppError {
	if req.TournamentId == "" || strings.Contains(req.TournamentId, "#") {
		return escrowerrors.InvalidTournamentIdError(req.TournamentId)
	}
	if req.OwnerId == "" {
		return escrowerrors.EmptyAccountError("tournament owner")
	}
	if req.InPrice == 0 {
		return escrowerrors.ZeroEntryPriceError()
	}
	if req.PlayersNumber == 0 {
		return escrowerrors.InvalidCapacityError()
	}

	if len(req.Prizes) > MaxPrizeRanks {
		return escrowerrors.TooManyPrizeRanksError(len(req.Prizes), MaxPrizeRanks)
	}

	var total uint
	for _, rank := range sortedRanks(req.Prizes) {
		p := req.Prizes[rank]
		if p > 100 {
			return escrowerrors.InvalidPrizePercentError(rank, p)
		}
		total += uint(p)
	}
	if total > 100 {
		return escrowerrors.PrizeSplitTooLargeError(total)
	}

	return nil
}

func (s *escrowService) EnterTournament(ctx context.Context, tournamentId, caller string, attached uint64) *apperrors.AppError {
	refund, err := s.enterTournament(ctx, tournamentId, caller, attached)
	if err != nil {
		return err
	}

	s.logger.Info("Tournament entered", "tournament_id", tournamentId, "account_id", caller)

	if err := s.eventPublisher.PublishTournamentEntered(ctx, caller, tournamentId); err != nil {
		s.logger.Warn("Tournament entrance event was not delivered", "tournament_id", tournamentId, "error", err)
	}

	if refund != nil {
		s.dispatch(ctx, tournamentId, []models.Transfer{*refund})
	}

	return nil
}

func (s *escrowService) enterTournament(ctx context.Context, tournamentId, caller string, attached uint64) (*models.Transfer, *apperrors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller == "" {
		return nil, escrowerrors.EmptyAccountError("caller")
	}

	// Mutable records are read through tx so the commit fails if another
	// instance changed them in the meantime.
	tx := storage.NewTx(s.store)

	tournament, metadata, err := s.loadTournament(ctx, tx, tournamentId)
	if err != nil {
		return nil, err
	}

	if !tournament.Active {
		return nil, escrowerrors.TournamentInactiveError(tournamentId)
	}

	count, err := s.participantRepo.Count(ctx, tx, tournamentId)
	if err != nil {
		return nil, err
	}
	if int(metadata.PlayersNumber)-count <= 0 {
		return nil, escrowerrors.TournamentFullError(tournamentId)
	}

	if attached < metadata.InPrice {
		return nil, escrowerrors.InsufficientDepositError(attached, metadata.InPrice)
	}

	balance, sumErr := percent.Sum(tournament.Balance, metadata.InPrice)
	if sumErr != nil {
		return nil, escrowerrors.OverflowError(sumErr)
	}

	added, err := s.participantRepo.Add(ctx, tx, tournamentId, caller)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, escrowerrors.AlreadyParticipatingError(caller)
	}

	if err := s.tournamentRepo.SetBalance(ctx, tx, tournamentId, balance); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperrors.Wrap(err, apperrors.CodeConflict, "concurrent entry for "+caller)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeTransactionError, "failed to enter tournament")
	}

	excess := attached - metadata.InPrice
	if excess <= withheldRefund {
		return nil, nil
	}

	return &models.Transfer{
		TournamentId: tournamentId,
		AccountId:    caller,
		Amount:       excess,
		Kind:         models.TransferKindRefund,
	}, nil
}

func (s *escrowService) DisplayFreePlaces(ctx context.Context, tournamentId string) (int, bool, *apperrors.AppError) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metadata, err := s.tournamentRepo.GetMetadata(ctx, s.store, tournamentId)
	if err != nil {
		if err.Code == apperrors.CodeNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}

	count, err := s.participantRepo.Count(ctx, s.store, tournamentId)
	if err != nil {
		return 0, false, err
	}

	free := int(metadata.PlayersNumber) - count
	if free < 0 {
		free = 0
	}
	return free, true, nil
}

func (s *escrowService) DisplayTournament(ctx context.Context, tournamentId string) (*models.TournamentView, *apperrors.AppError) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.view(ctx, tournamentId)
}

func (s *escrowService) DisplayTournaments(ctx context.Context, from, limit int) ([]models.TournamentView, *apperrors.AppError) {
	if from < 0 {
		from = 0
	}
	if limit <= 0 {
		limit = s.opts.ListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err := s.tournamentRepo.ListIds(ctx, from, limit)
	if err != nil {
		return nil, err
	}

	views := make([]models.TournamentView, 0, len(ids))
	for _, id := range ids {
		view, err := s.view(ctx, id)
		if err != nil {
			return nil, err
		}
		if view != nil {
			views = append(views, *view)
		}
	}

	return views, nil
}

func (s *escrowService) view(ctx context.Context, tournamentId string) (*models.TournamentView, *apperrors.AppError) {
	tournament, metadata, err := s.loadTournament(ctx, s.store, tournamentId)
	if err != nil {
		if err.Code == apperrors.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}

	view := &models.TournamentView{
		TournamentId: tournamentId,
		OwnerId:      tournament.OwnerId,
		Metadata:     *metadata,
		Active:       tournament.Active,
		PrizeFund:    tournament.Balance,
	}

	places := []**uint8{&view.FirstPlacePrize, &view.SecondPlacePrize, &view.ThirdPlacePrize}
	for i, place := range places {
		p, err := s.prizeRepo.Find(ctx, s.store, tournamentId, uint8(i+1))
		if err != nil {
			return nil, err
		}
		*place = p
	}

	return view, nil
}

func (s *escrowService) RewardPrizes(ctx context.Context, tournamentId, caller string, winners map[uint8]string) *apperrors.AppError {
	transfers, total, err := s.rewardPrizes(ctx, tournamentId, caller, winners)
	if err != nil {
		return err
	}

	s.logger.Info("Tournament prizes rewarded",
		"tournament_id", tournamentId,
		"winners", len(winners),
		"rewarded_amount", total,
	)

	if err := s.eventPublisher.PublishPrizesRewarded(ctx, tournamentId, total); err != nil {
		s.logger.Warn("Prizes rewarded event was not delivered", "tournament_id", tournamentId, "error", err)
	}

	s.dispatch(ctx, tournamentId, transfers)
	return nil
}

func (s *escrowService) rewardPrizes(
	ctx context.Context,
	tournamentId, caller string,
	winners map[uint8]string,
) ([]models.Transfer, uint64, *apperrors.AppError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := storage.NewTx(s.store)

	tournament, err := s.tournamentRepo.Get(ctx, tx, tournamentId)
	if err != nil {
		if err.Code == apperrors.CodeNotFound {
			return nil, 0, escrowerrors.TournamentNotFoundError(tournamentId)
		}
		return nil, 0, err
	}

	if caller != tournament.OwnerId {
		return nil, 0, escrowerrors.TournamentOwnerOnlyError()
	}
	if !tournament.Active {
		return nil, 0, escrowerrors.TournamentInactiveError(tournamentId)
	}

	// Every share is taken from the balance as it was before the loop.
	balance := tournament.Balance
	var total uint64
	transfers := make([]models.Transfer, 0, len(winners))

	for _, rank := range sortedRanks(winners) {
		account := winners[rank]
		if account == "" {
			return nil, 0, escrowerrors.EmptyAccountError("winner")
		}

		p, err := s.prizeRepo.Get(ctx, s.store, tournamentId, rank)
		if err != nil {
			return nil, 0, err
		}

		share, shareErr := percent.Share(p, balance)
		if shareErr != nil {
			return nil, 0, escrowerrors.OverflowError(shareErr)
		}

		total, shareErr = percent.Sum(total, share)
		if shareErr != nil {
			return nil, 0, escrowerrors.OverflowError(shareErr)
		}

		transfers = append(transfers, models.Transfer{
			TournamentId: tournamentId,
			AccountId:    account,
			Amount:       share,
			Kind:         models.TransferKindPrize,
			Rank:         rank,
		})
	}

	if total > balance {
		return nil, 0, escrowerrors.PayoutExceedsBalanceError(total, balance)
	}

	if err := s.tournamentRepo.SetBalance(ctx, tx, tournamentId, balance-total); err != nil {
		return nil, 0, err
	}
	if err := s.tournamentRepo.SetActive(ctx, tx, tournamentId, false); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, 0, apperrors.Wrap(err, apperrors.CodeConflict, "tournament changed during reward: "+tournamentId)
		}
		return nil, 0, apperrors.Wrap(err, apperrors.CodeTransactionError, "failed to reward prizes")
	}

	return transfers, total, nil
}

func (s *escrowService) ContractMetadata() models.ContractMetadata {
	return models.ContractMetadata{
		Name: s.opts.Name,
		Icon: s.opts.Icon,
	}
}

// loadTournament joins the registry record, read through r, with its
// metadata. Metadata never changes after creation and is read from the
// store directly. Either one missing is reported as not found.
func (s *escrowService) loadTournament(
	ctx context.Context,
	r storage.Reader,
	tournamentId string,
) (*models.Tournament, *models.TournamentMetadata, *apperrors.AppError) {
	tournament, err := s.tournamentRepo.Get(ctx, r, tournamentId)
	if err != nil {
		if err.Code == apperrors.CodeNotFound {
			return nil, nil, escrowerrors.TournamentNotFoundError(tournamentId)
		}
		return nil, nil, err
	}

	metadata, err := s.tournamentRepo.GetMetadata(ctx, s.store, tournamentId)
	if err != nil {
		if err.Code == apperrors.CodeNotFound {
			return nil, nil, escrowerrors.TournamentNotFoundError(tournamentId)
		}
		return nil, nil, err
	}

	return tournament, metadata, nil
}

// dispatch hands committed transfers to the payout side. Zero amounts are
// not sent. A failure is logged only; the ledger is already final.
func (s *escrowService) dispatch(ctx context.Context, tournamentId string, transfers []models.Transfer) {
	if s.dispatcher == nil {
		return
	}

	pending := make([]models.Transfer, 0, len(transfers))
	for _, t := range transfers {
		if t.Amount > 0 {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return
	}

	if err := s.dispatcher.Dispatch(ctx, pending); err != nil {
		s.logger.Error("Transfer dispatch failed", "tournament_id", tournamentId, "error", err)
	}
}

func sortedRanks[V any](m map[uint8]V) []uint8 {
	ranks := make([]uint8, 0, len(m))
	for rank := range m {
		ranks = append(ranks, rank)
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })
	return ranks
}
