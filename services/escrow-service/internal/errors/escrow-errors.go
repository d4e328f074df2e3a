package errors

import (
	"fmt"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
)

func ContractOwnerOnlyError() *apperrors.AppError {
	return apperrors.New(apperrors.CodeForbidden, "only the contract owner can create tournaments")
}

func TournamentOwnerOnlyError() *apperrors.AppError {
	return apperrors.New(apperrors.CodeForbidden, "only the tournament owner can reward prizes")
}

func InvalidTournamentIdError(tournamentId string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput,
		fmt.Sprintf("tournament id must be non-empty and must not contain '#': %q", tournamentId))
}

func EmptyAccountError(role string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput, role+" account must not be empty")
}

func ZeroEntryPriceError() *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput, "entry price must be greater than zero")
}

func InvalidCapacityError() *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput, "players number must be between 1 and 255")
}

func InvalidPrizePercentError(rank, percent uint8) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput,
		fmt.Sprintf("prize for rank %d is %d%%, must be at most 100%%", rank, percent))
}

func PrizeSplitTooLargeError(total uint) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput,
		fmt.Sprintf("prize split sums to %d%%, must be at most 100%%", total))
}

func TooManyPrizeRanksError(ranks, max int) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput,
		fmt.Sprintf("prize table has %d ranks, at most %d are allowed", ranks, max))
}

func TournamentNotFoundError(tournamentId string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeNotFound, "tournament not found: "+tournamentId)
}

func TournamentInactiveError(tournamentId string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeTournamentInactive, "tournament is not active: "+tournamentId)
}

func TournamentFullError(tournamentId string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeTournamentFull, "tournament has no free places: "+tournamentId)
}

func InsufficientDepositError(attached, required uint64) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInsufficientDeposit,
		fmt.Sprintf("attached deposit %d is less than the entry price %d", attached, required))
}

func AlreadyParticipatingError(accountId string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeAlreadyParticipating, "account already entered the tournament: "+accountId)
}

func PayoutExceedsBalanceError(total, balance uint64) *apperrors.AppError {
	return apperrors.New(apperrors.CodePayoutExceedsBalance,
		fmt.Sprintf("total payout %d exceeds the prize fund %d", total, balance))
}

func OverflowError(err error) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.CodeArithmeticOverflow, "prize pool arithmetic overflow")
}
